package httpserver

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/apex/log"
	"github.com/go-chi/chi/v5"

	"github.com/bryanwahyu/compliance-dashboard/internal/application/workflow"
	"github.com/bryanwahyu/compliance-dashboard/internal/domain/alerts"
	"github.com/bryanwahyu/compliance-dashboard/internal/domain/analysis"
	"github.com/bryanwahyu/compliance-dashboard/internal/domain/dashboard"
	"github.com/bryanwahyu/compliance-dashboard/internal/domain/progress"
	"github.com/bryanwahyu/compliance-dashboard/internal/domain/upload"
	"github.com/bryanwahyu/compliance-dashboard/internal/middleware"
)

// DashboardRefresh is the auto-refresh period of the dashboard page, in seconds.
const DashboardRefresh = 300

type uploadData struct {
	Form    *upload.Form
	Action  string
	Norms   []string
	Outcome *analysis.Outcome[analysis.Result]
}

//
// ==== UPLOAD ====
//

// GET / and GET /setup
func (r *Router) handleSetup(w http.ResponseWriter, req *http.Request) error {
	return r.renderUpload(w, http.StatusOK, uploadData{Form: upload.NewForm(upload.ModeSingle), Action: "/setup"})
}

// POST /setup
// Uploads the PSSI and hands over to the loading page, which triggers the
// analysis against the fixed norm.
func (r *Router) handleSetupSubmit(w http.ResponseWriter, req *http.Request) error {
	form := upload.NewForm(upload.ModeSingle)
	data := uploadData{Form: form, Action: "/setup"}
	if err := r.readFiles(w, req, form); err != nil {
		form.Fail(err)
		return r.renderUpload(w, statusFor(err), data)
	}
	normName := form.NormName
	ids, err := r.Workflow.Upload(req.Context(), form)
	if err != nil {
		return r.renderUpload(w, statusFor(err), data)
	}

	q := url.Values{"pssi_id": {ids.PSSIID}}
	if ids.NormID != "" {
		q.Set("norm_id", ids.NormID)
	} else {
		q.Set("norm_name", normName)
	}
	return redirect(w, req, "/loading?"+q.Encode())
}

// GET /upload
func (r *Router) handleUpload(w http.ResponseWriter, req *http.Request) error {
	return r.renderUpload(w, http.StatusOK, uploadData{
		Form:   upload.NewForm(upload.ModePair),
		Action: "/upload",
		Norms:  r.Workflow.Norms(req.Context()),
	})
}

// POST /upload
// Uploads both documents, analyzes them and shows the raw outcome.
func (r *Router) handleUploadSubmit(w http.ResponseWriter, req *http.Request) error {
	form := upload.NewForm(upload.ModePair)
	data := uploadData{Form: form, Action: "/upload"}
	if err := r.readFiles(w, req, form); err != nil {
		form.Fail(err)
		return r.renderUpload(w, statusFor(err), data)
	}
	out, err := r.Workflow.UploadAndAnalyze(req.Context(), sessionID(req), form)
	if err != nil {
		form.Fail(err)
		return r.renderUpload(w, statusFor(err), data)
	}
	data.Outcome = &out
	return r.renderUpload(w, http.StatusOK, data)
}

func (r *Router) renderUpload(w http.ResponseWriter, status int, data uploadData) error {
	title := "Upload your security policy"
	if data.Form.Mode == upload.ModePair {
		title = "Upload documents"
	}
	return r.pages.render(w, status, "upload", page{
		Title: title,
		Nav:   "upload",
		Now:   r.Clock.Now(),
		Error: data.Form.Error,
		Data:  data,
	})
}

// readFiles fills the form slots from the multipart body.
func (r *Router) readFiles(w http.ResponseWriter, req *http.Request, form *upload.Form) error {
	req.Body = http.MaxBytesReader(w, req.Body, r.MaxUploadBytes)
	if err := req.ParseMultipartForm(r.MaxUploadBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return fmt.Errorf("upload exceeds %d bytes: %w", r.MaxUploadBytes, err)
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return fmt.Errorf("%w: please upload your documents", analysis.ErrMissingFile)
		}
		return badRequest(err)
	}
	for _, slot := range form.Slots {
		for _, fh := range req.MultipartForm.File[slot.Field] {
			if err := middleware.ValidateFileName(fh.Filename); err != nil {
				return badRequest(err)
			}
			data, err := readPart(fh)
			if err != nil {
				return err
			}
			if err := form.Select(slot.Field, upload.File{Name: fh.Filename, Size: fh.Size, Data: data}); err != nil {
				return err
			}
		}
	}
	return nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}

//
// ==== PROGRESS ====
//

// GET /loading?pssi_id=&norm_name=  starts the run and redirects to
// GET /loading?run=<id>              which polls until the presenter is done.
func (r *Router) handleLoading(w http.ResponseWriter, req *http.Request) error {
	q := req.URL.Query()
	if id := q.Get("run"); id != "" {
		st, err := r.sessionRun(req, id)
		if err != nil {
			return err
		}
		if st.State == progress.StateDone {
			// the dashboard falls back to the sample when the run failed
			return redirect(w, req, "/dashboard")
		}
		p := page{
			Title:   "Analyzing your documents",
			Now:     r.Clock.Now(),
			Refresh: 1,
			Data:    st,
		}
		if st.Error != "" {
			p.Error = "Analysis failed: " + st.Error + ". The dashboard will show sample data."
		}
		return r.pages.render(w, http.StatusOK, "loading", p)
	}

	areq := analysis.AnalyzeRequest{
		PSSIID:   q.Get("pssi_id"),
		NormID:   q.Get("norm_id"),
		NormName: q.Get("norm_name"),
	}
	if areq.PSSIID == "" {
		return redirect(w, req, "/setup")
	}
	if areq.NormID == "" && areq.NormName == "" {
		areq.NormName = upload.DefaultNorm
	}
	for field, v := range map[string]string{"pssi_id": areq.PSSIID, "norm_id": areq.NormID, "norm_name": areq.NormName} {
		if v == "" {
			continue
		}
		if err := middleware.ValidateIdentifier(field, v); err != nil {
			return badRequest(err)
		}
	}
	run := r.Workflow.StartRun(sessionID(req), areq)
	return redirect(w, req, "/loading?run="+url.QueryEscape(run.ID))
}

// GET /api/progress/{run}
func (r *Router) handleProgress(w http.ResponseWriter, req *http.Request) error {
	st, err := r.sessionRun(req, chi.URLParam(req, "run"))
	if err != nil {
		return err
	}
	return writeJSON(w, st)
}

// sessionRun returns the status of a run owned by the caller's session.
func (r *Router) sessionRun(req *http.Request, id string) (workflow.Status, error) {
	if err := middleware.ValidateRunID(id); err != nil {
		return workflow.Status{}, badRequest(err)
	}
	run, err := r.Workflow.Run(id)
	if err != nil {
		return workflow.Status{}, err
	}
	if run.SessionID != sessionID(req) {
		return workflow.Status{}, workflow.ErrRunNotFound
	}
	return r.Workflow.Status(id)
}

//
// ==== DASHBOARD ====
//

type dashboardData struct {
	View  dashboard.View
	Feed  *alerts.Feed
	Empty struct{ Uncertainties, Remediation string }
}

// GET /dashboard
func (r *Router) handleDashboard(w http.ResponseWriter, req *http.Request) error {
	notice := ""
	if t := req.URL.Query().Get("ticket"); t != "" {
		notice = "Ticket created: " + middleware.SanitizeString(t)
	}
	return r.renderDashboard(w, req, http.StatusOK, notice, "")
}

func (r *Router) renderDashboard(w http.ResponseWriter, req *http.Request, status int, notice, errText string) error {
	ctx, sid := req.Context(), sessionID(req)
	data := dashboardData{View: r.Dashboard.View(ctx, sid)}
	data.Empty.Uncertainties = dashboard.EmptyUncertainties
	data.Empty.Remediation = dashboard.EmptyRemediation
	if data.View.UsingSample {
		middleware.IncrementSampleFallbacks()
	}
	feed, err := r.Alerts.Feed(ctx, sid)
	if err != nil {
		log.WithError(err).WithField("session", sid).Warn("load alerts feed")
	}
	data.Feed = feed

	return r.pages.render(w, status, "dashboard", page{
		Title:   "Compliance dashboard",
		Nav:     "dashboard",
		Now:     r.Clock.Now(),
		Refresh: DashboardRefresh,
		Notice:  notice,
		Error:   errText,
		Data:    data,
	})
}

// POST /dashboard/tickets
func (r *Router) handleCreateTicket(w http.ResponseWriter, req *http.Request) error {
	if err := req.ParseForm(); err != nil {
		return badRequest(err)
	}
	receipt, err := r.Workflow.CreateTicket(req.Context(),
		middleware.SanitizeString(req.PostForm.Get("summary")),
		middleware.SanitizeString(req.PostForm.Get("description")))
	if err != nil {
		return r.renderDashboard(w, req, statusFor(err), "", "Failed to create ticket: "+err.Error())
	}
	middleware.IncrementTickets()
	return redirect(w, req, "/dashboard?ticket="+url.QueryEscape(receipt.Label()))
}

// POST /dashboard/alerts/{id}/{action}
func (r *Router) handleAlertAction(w http.ResponseWriter, req *http.Request) error {
	id, err := middleware.ValidateAlertID(chi.URLParam(req, "id"))
	if err != nil {
		return badRequest(err)
	}
	action, err := alerts.ParseAction(chi.URLParam(req, "action"))
	if err != nil {
		return err
	}
	assignee := middleware.SanitizeString(req.FormValue("assignee"))
	if _, err := r.Alerts.Act(req.Context(), sessionID(req), id, action, assignee); err != nil {
		return err
	}
	return redirect(w, req, "/dashboard#alerts")
}
