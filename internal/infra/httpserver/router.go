package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/apex/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/bryanwahyu/compliance-dashboard/internal/application"
	appalerts "github.com/bryanwahyu/compliance-dashboard/internal/application/alerts"
	appdashboard "github.com/bryanwahyu/compliance-dashboard/internal/application/dashboard"
	appreport "github.com/bryanwahyu/compliance-dashboard/internal/application/report"
	appreview "github.com/bryanwahyu/compliance-dashboard/internal/application/review"
	"github.com/bryanwahyu/compliance-dashboard/internal/application/workflow"
	domai "github.com/bryanwahyu/compliance-dashboard/internal/domain/ai"
	"github.com/bryanwahyu/compliance-dashboard/internal/domain/alerts"
	"github.com/bryanwahyu/compliance-dashboard/internal/domain/analysis"
	"github.com/bryanwahyu/compliance-dashboard/internal/domain/report"
	"github.com/bryanwahyu/compliance-dashboard/internal/middleware"
)

// ErrBadRequest marks input validation failures.
var ErrBadRequest = errors.New("bad request")

func badRequest(err error) error { return fmt.Errorf("%w: %w", ErrBadRequest, err) }

// Deps are the services behind the routes.
type Deps struct {
	Workflow  *workflow.Service
	Dashboard *appdashboard.Service
	Alerts    *appalerts.Service
	Review    *appreview.Service
	Report    *appreport.Service
	Clock     application.Clock

	Health  map[string]middleware.HealthChecker
	Ready   middleware.HealthChecker
	Limiter *middleware.RateLimiter

	AllowedOrigins []string
	SecureCookie   bool
	MaxUploadBytes int64
	MaxPolicyBytes int
}

type Router struct {
	Deps
	pages *pages
}

func NewRouter(d Deps) http.Handler {
	if d.Clock == nil {
		d.Clock = application.SystemClock{}
	}
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = 32 << 20
	}
	r := &Router{Deps: d, pages: mustParsePages()}
	mux := chi.NewRouter()

	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	if len(d.AllowedOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: d.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	mux.Get("/health", middleware.HealthHandler(d.Health))
	mux.Get("/healthz", middleware.LivenessHandler)
	mux.Get("/readyz", middleware.ReadinessHandler(d.Ready))
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Group(func(rt chi.Router) {
		rt.Use(middleware.Session(d.SecureCookie))

		// limited: these reach the backend
		rt.Group(func(lim chi.Router) {
			if d.Limiter != nil {
				lim.Use(middleware.RateLimit(d.Limiter))
			}
			lim.Post("/setup", r.wrap(r.handleSetupSubmit))
			lim.Post("/upload", r.wrap(r.handleUploadSubmit))
			lim.Get("/loading", r.wrap(r.handleLoading))
			lim.Post("/dashboard/tickets", r.wrap(r.handleCreateTicket))
			lim.Post("/fast-analyze", r.wrap(r.handleFastAnalyze))
			lim.Post("/fast-analyze/reflect", r.wrap(r.handleReflectAnalyze))
			lim.Post("/fast-analyze/fallback", r.wrap(r.handleFastAnalyze))
		})

		rt.Get("/", r.wrap(r.handleSetup))
		rt.Get("/setup", r.wrap(r.handleSetup))
		rt.Get("/upload", r.wrap(r.handleUpload))
		rt.Get("/api/progress/{run}", r.wrap(r.handleProgress))
		rt.Get("/dashboard", r.wrap(r.handleDashboard))
		rt.Post("/dashboard/alerts/{id}/{action}", r.wrap(r.handleAlertAction))
		rt.Get("/fast-analyze", r.wrap(r.handleFastAnalyzeForm))
		rt.Get("/review", r.wrap(r.handleReview))
		rt.Post("/review/{decision}", r.wrap(r.handleReviewDecision))
		rt.Get("/report", r.wrap(r.handleReport))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			code := statusFor(err)
			if code >= http.StatusInternalServerError {
				log.WithError(err).WithField("path", req.URL.Path).Error("request failed")
			}
			http.Error(w, err.Error(), code)
		}
	}
}

// statusFor maps domain errors to HTTP statuses.
func statusFor(err error) int {
	var se *analysis.StatusError
	var tooBig *http.MaxBytesError
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, analysis.ErrMissingFile),
		errors.Is(err, analysis.ErrEmptyPolicy),
		errors.Is(err, workflow.ErrEmptySummary),
		errors.Is(err, alerts.ErrUnknownAction),
		errors.Is(err, report.ErrUnknownType):
		return http.StatusBadRequest
	case errors.Is(err, workflow.ErrRunNotFound), errors.Is(err, alerts.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, analysis.ErrPayloadTooLarge), errors.As(err, &tooBig):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domai.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.As(err, &se), errors.Is(err, analysis.ErrResponseTooLarge):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func sessionID(req *http.Request) string {
	return middleware.GetSessionFromContext(req.Context())
}

func redirect(w http.ResponseWriter, req *http.Request, url string) error {
	http.Redirect(w, req, url, http.StatusSeeOther)
	return nil
}
