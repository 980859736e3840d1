package httpserver

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bryanwahyu/compliance-dashboard/internal/domain/analysis"
	"github.com/bryanwahyu/compliance-dashboard/internal/domain/report"
	"github.com/bryanwahyu/compliance-dashboard/internal/domain/review"
	"github.com/bryanwahyu/compliance-dashboard/internal/middleware"
)

type policyData struct {
	Policy   string
	Fast     *analysis.Outcome[analysis.FastAnalysis]
	Reflect  *analysis.Outcome[analysis.ReflectAnalysis]
	TooLarge bool
}

//
// ==== POLICY TEXT ====
//

// GET /fast-analyze
func (r *Router) handleFastAnalyzeForm(w http.ResponseWriter, req *http.Request) error {
	return r.renderPolicy(w, http.StatusOK, policyData{}, nil)
}

// POST /fast-analyze and POST /fast-analyze/fallback
func (r *Router) handleFastAnalyze(w http.ResponseWriter, req *http.Request) error {
	policy, err := r.readPolicy(w, req)
	data := policyData{Policy: policy}
	if err != nil {
		return r.renderPolicy(w, statusFor(err), data, err)
	}
	out, err := r.Workflow.FastAnalyze(req.Context(), policy)
	if err != nil {
		return r.renderPolicy(w, statusFor(err), data, err)
	}
	middleware.IncrementFastAnalyses()
	data.Fast = &out
	return r.renderPolicy(w, http.StatusOK, data, nil)
}

// POST /fast-analyze/reflect
// A 413 from the backend keeps the text and offers the fast fallback.
func (r *Router) handleReflectAnalyze(w http.ResponseWriter, req *http.Request) error {
	policy, err := r.readPolicy(w, req)
	data := policyData{Policy: policy}
	if err != nil {
		return r.renderPolicy(w, statusFor(err), data, err)
	}
	out, err := r.Workflow.ReflectAnalyze(req.Context(), policy)
	if err != nil {
		data.TooLarge = errors.Is(err, analysis.ErrPayloadTooLarge)
		if data.TooLarge {
			err = analysis.ErrPayloadTooLarge
		}
		return r.renderPolicy(w, statusFor(err), data, err)
	}
	data.Reflect = &out
	return r.renderPolicy(w, http.StatusOK, data, nil)
}

func (r *Router) readPolicy(w http.ResponseWriter, req *http.Request) (string, error) {
	req.Body = http.MaxBytesReader(w, req.Body, r.MaxUploadBytes)
	if err := req.ParseForm(); err != nil {
		return "", badRequest(err)
	}
	policy := req.PostForm.Get("policy")
	if err := middleware.ValidatePolicySize(policy, r.MaxPolicyBytes); err != nil {
		return policy, badRequest(err)
	}
	return policy, nil
}

func (r *Router) renderPolicy(w http.ResponseWriter, status int, data policyData, err error) error {
	p := page{Title: "Policy analysis", Nav: "fast", Now: r.Clock.Now(), Data: data}
	if err != nil {
		p.Error = err.Error()
	}
	return r.pages.render(w, status, "policy", p)
}

//
// ==== REVIEW ====
//

type reviewData struct {
	Review   *review.Review
	Diff     []review.DiffLine
	Inserted int
	Deleted  int
}

// GET /review
func (r *Router) handleReview(w http.ResponseWriter, req *http.Request) error {
	rv, err := r.Review.Get(req.Context(), sessionID(req))
	if err != nil {
		return err
	}
	data := reviewData{Review: rv, Diff: rv.Diff()}
	data.Inserted, data.Deleted = rv.DiffStats()
	return r.pages.render(w, http.StatusOK, "review", page{
		Title: "Policy review",
		Nav:   "review",
		Now:   r.Clock.Now(),
		Data:  data,
	})
}

// POST /review/{approve,reject,save}
func (r *Router) handleReviewDecision(w http.ResponseWriter, req *http.Request) error {
	ctx, sid := req.Context(), sessionID(req)
	notes := middleware.SanitizeString(req.FormValue("notes"))

	var err error
	switch chi.URLParam(req, "decision") {
	case "approve":
		_, err = r.Review.Approve(ctx, sid, notes)
	case "reject":
		_, err = r.Review.Reject(ctx, sid, notes)
	case "save":
		_, err = r.Review.Save(ctx, sid)
	default:
		return badRequest(errors.New("unknown review decision"))
	}
	if err != nil {
		return err
	}
	return redirect(w, req, "/review")
}

//
// ==== REPORT ====
//

type reportData struct {
	Report report.Report
	Types  []report.EvidenceType
}

// GET /report?q=&type=
func (r *Router) handleReport(w http.ResponseWriter, req *http.Request) error {
	q := req.URL.Query()
	typ, err := report.ParseType(q.Get("type"))
	if err != nil {
		return err
	}
	rep := r.Report.Build(report.Filter{Search: middleware.SanitizeString(q.Get("q")), Type: typ})
	return r.pages.render(w, http.StatusOK, "report", page{
		Title: "Compliance report",
		Nav:   "report",
		Now:   r.Clock.Now(),
		Data: reportData{
			Report: rep,
			Types:  []report.EvidenceType{report.TypeAll, report.TypeLogs, report.TypePolicies, report.TypeCertificates},
		},
	})
}
