package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"

	"github.com/bryanwahyu/compliance-dashboard/internal/application"
	"github.com/bryanwahyu/compliance-dashboard/internal/application/relay"
	"github.com/bryanwahyu/compliance-dashboard/internal/domain/analysis"
	"github.com/bryanwahyu/compliance-dashboard/internal/domain/progress"
	"github.com/bryanwahyu/compliance-dashboard/internal/domain/session"
	"github.com/bryanwahyu/compliance-dashboard/internal/domain/upload"
)

var (
	// ErrRunNotFound is returned for unknown run ids.
	ErrRunNotFound  = errors.New("analysis run not found")
	ErrEmptySummary = errors.New("ticket summary is required")
)

// DefaultTimeout bounds a background analysis call.
const DefaultTimeout = 5 * time.Minute

// Hooks observe analysis runs. Nil funcs are skipped.
type Hooks struct {
	RunStarted  func()
	RunFinished func(err error)
}

// Service implements the upload and analysis use-cases.
// Service is safe for concurrent use.
type Service struct {
	Backend  analysis.Backend
	Fast     analysis.FastAnalyzer // optional, replaces Backend.FastAnalyze
	Relay    *relay.Relay
	Clock    application.Clock
	Progress progress.Config
	Timeout  time.Duration
	Hooks    Hooks

	mu    sync.Mutex
	runs  map[string]*Run
	index map[string]string // session|pssi -> run id
}

func NewService(backend analysis.Backend, r *relay.Relay, clock application.Clock, cfg progress.Config) *Service {
	if clock == nil {
		clock = application.SystemClock{}
	}
	return &Service{
		Backend:  backend,
		Relay:    r,
		Clock:    clock,
		Progress: cfg,
		Timeout:  DefaultTimeout,
		runs:     make(map[string]*Run),
		index:    make(map[string]string),
	}
}

//
// ==== UPLOAD ====
//

// Upload posts the form documents. On failure the form keeps its files and
// shows the error; on success it is reset.
func (s *Service) Upload(ctx context.Context, form *upload.Form) (analysis.UploadIDs, error) {
	docs, err := form.Documents()
	if err != nil {
		form.Fail(err)
		return analysis.UploadIDs{}, err
	}
	form.Begin()
	ids, err := s.Backend.Upload(ctx, docs)
	if err != nil {
		form.Fail(err)
		return analysis.UploadIDs{}, err
	}
	form.Reset()
	log.WithFields(log.Fields{"pssi_id": ids.PSSIID, "norm_id": ids.NormID, "mode": form.Mode}).Info("documents uploaded")
	return ids, nil
}

// AnalyzeRequestFor builds the analyze call that follows an upload.
func AnalyzeRequestFor(form *upload.Form, ids analysis.UploadIDs) analysis.AnalyzeRequest {
	req := analysis.AnalyzeRequest{PSSIID: ids.PSSIID, NormID: ids.NormID}
	if req.NormID == "" {
		req.NormName = form.NormName
	}
	return req
}

// UploadAndAnalyze is the generic two-file flow: upload, then analyze and
// store the result for the dashboard. Calls are sequential.
func (s *Service) UploadAndAnalyze(ctx context.Context, sid string, form *upload.Form) (analysis.Outcome[analysis.Result], error) {
	ids, err := s.Upload(ctx, form)
	if err != nil {
		return analysis.Outcome[analysis.Result]{}, err
	}
	out, err := s.Backend.Analyze(ctx, AnalyzeRequestFor(form, ids))
	if err != nil {
		return out, err
	}
	s.store(ctx, sid, out)
	return out, nil
}

func (s *Service) store(ctx context.Context, sid string, out analysis.Outcome[analysis.Result]) {
	if sid == "" || s.Relay == nil {
		return
	}
	if err := s.Relay.PutRaw(ctx, sid, session.ResultKey, []byte(out.Raw)); err != nil {
		log.WithError(err).WithField("session", sid).Error("store analysis result")
	}
}

//
// ==== RUNS ====
//

// Run is one analysis triggered from the loading page. The presenter runs on
// its own schedule; the backend call completes whenever it does.
type Run struct {
	ID        string
	SessionID string
	Request   analysis.AnalyzeRequest
	Presenter *progress.Presenter

	mu   sync.RWMutex
	done bool
	err  error
}

func (r *Run) finish(err error) {
	r.mu.Lock()
	r.done, r.err = true, err
	r.mu.Unlock()
}

// Done reports whether the backend call returned.
func (r *Run) Done() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.done
}

// Err is the backend failure, if any.
func (r *Run) Err() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}

// StartRun starts the analysis for a session exactly once. A second call
// with the same session and pssi id returns the existing run.
func (s *Service) StartRun(sid string, req analysis.AnalyzeRequest) *Run {
	idx := sid + "|" + req.PSSIID + "|" + req.NormID + "|" + req.NormName

	s.mu.Lock()
	if id, ok := s.index[idx]; ok {
		run := s.runs[id]
		s.mu.Unlock()
		return run
	}
	run := &Run{
		ID:        uuid.New().String(),
		SessionID: sid,
		Request:   req,
		Presenter: progress.NewPresenter(s.Progress),
	}
	s.runs[run.ID] = run
	s.index[idx] = run.ID
	s.mu.Unlock()

	run.Presenter.Start(s.Clock.Now())
	if s.Hooks.RunStarted != nil {
		s.Hooks.RunStarted()
	}
	go s.execute(run)
	return run
}

// execute uses context.Background so the call survives the page that
// started it.
func (s *Service) execute(run *Run) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	logger := log.WithFields(log.Fields{"run": run.ID, "pssi_id": run.Request.PSSIID, "norm": run.Request.NormName})
	start := s.Clock.Now()

	var err error
	if run.Request.PSSIID == "" {
		err = fmt.Errorf("%w: no pssi id", analysis.ErrMissingFile)
	} else {
		var out analysis.Outcome[analysis.Result]
		out, err = s.Backend.Analyze(ctx, run.Request)
		if err == nil {
			s.store(ctx, run.SessionID, out)
		}
	}

	run.finish(err)
	run.Presenter.Complete(s.Clock.Now())
	if s.Hooks.RunFinished != nil {
		s.Hooks.RunFinished(err)
	}
	if err != nil {
		logger.WithError(err).Error("analysis failed")
		return
	}
	logger.WithField("duration", s.Clock.Now().Sub(start)).Info("analysis stored")
}

// Run looks up a run by id.
func (s *Service) Run(id string) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return run, nil
}

// Status is the polled state of a run.
type Status struct {
	RunID string `json:"run_id"`
	progress.Snapshot
	Error string `json:"error,omitempty"`
}

func (s *Service) Status(id string) (Status, error) {
	run, err := s.Run(id)
	if err != nil {
		return Status{}, err
	}
	st := Status{RunID: run.ID, Snapshot: run.Presenter.Snapshot(s.Clock.Now())}
	if e := run.Err(); e != nil {
		st.Error = e.Error()
	}
	return st, nil
}

// Prune forgets runs that finished before the cutoff.
func (s *Service) Prune(before time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for idx, id := range s.index {
		run := s.runs[id]
		if run.Done() && run.Presenter.StartedAt().Before(before) {
			delete(s.index, idx)
			delete(s.runs, id)
			n++
		}
	}
	return n
}

//
// ==== POLICY TEXT ====
//

// FastAnalyze analyses policy text, through the AI provider when one is set.
func (s *Service) FastAnalyze(ctx context.Context, policy string) (analysis.Outcome[analysis.FastAnalysis], error) {
	if strings.TrimSpace(policy) == "" {
		return analysis.Outcome[analysis.FastAnalysis]{}, analysis.ErrEmptyPolicy
	}
	if s.Fast != nil {
		return s.Fast.FastAnalyze(ctx, policy)
	}
	return s.Backend.FastAnalyze(ctx, policy)
}

// ReflectAnalyze runs the reflective analysis. A 413 surfaces as
// analysis.ErrPayloadTooLarge so callers can offer the fast fallback.
func (s *Service) ReflectAnalyze(ctx context.Context, policy string) (analysis.Outcome[analysis.ReflectAnalysis], error) {
	if strings.TrimSpace(policy) == "" {
		return analysis.Outcome[analysis.ReflectAnalysis]{}, analysis.ErrEmptyPolicy
	}
	return s.Backend.ReflectAnalyze(ctx, policy)
}

func (s *Service) CreateTicket(ctx context.Context, summary, description string) (analysis.TicketReceipt, error) {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return analysis.TicketReceipt{}, ErrEmptySummary
	}
	return s.Backend.CreateTicket(ctx, summary, description)
}

// Norms lists the frameworks known to the backend. Failures are logged and
// yield an empty list.
func (s *Service) Norms(ctx context.Context) []string {
	list, err := s.Backend.Norms(ctx)
	if err != nil {
		log.WithError(err).Warn("load norms")
		return nil
	}
	return list.Names()
}
