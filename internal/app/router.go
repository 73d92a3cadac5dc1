package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bizdesk/bizdesk/internal/catalog"
	"github.com/bizdesk/bizdesk/internal/clients"
	"github.com/bizdesk/bizdesk/internal/commissions"
	"github.com/bizdesk/bizdesk/internal/observability"
	"github.com/bizdesk/bizdesk/internal/platform/httpx"
	"github.com/bizdesk/bizdesk/internal/proposals"
	"github.com/bizdesk/bizdesk/internal/templates"
	"github.com/bizdesk/bizdesk/jobs"
	"github.com/bizdesk/bizdesk/report"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	CatalogHandler    *catalog.Handler
	ClientHandler     *clients.Handler
	ProposalHandler   *proposals.Handler
	CommissionHandler *commissions.Handler
	TemplateHandler   *templates.Handler
	ReportHandler     *report.Handler
	JobHandler        *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with the API defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusMethodNotAllowed, "Method Not Allowed", "")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if params.CatalogHandler != nil {
		r.Route("/catalog", params.CatalogHandler.MountRoutes)
	}
	if params.ClientHandler != nil {
		r.Route("/clients", params.ClientHandler.MountRoutes)
	}
	if params.ProposalHandler != nil {
		r.Route("/proposals", params.ProposalHandler.MountRoutes)
	}
	if params.CommissionHandler != nil {
		r.Route("/commissions", params.CommissionHandler.MountRoutes)
	}
	if params.TemplateHandler != nil {
		r.Route("/templates", params.TemplateHandler.MountRoutes)
	}
	if params.ReportHandler != nil {
		r.Route("/reports", params.ReportHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
