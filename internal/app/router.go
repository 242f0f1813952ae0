package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/moneta-app/moneta/internal/ledger/accounts"
	"github.com/moneta-app/moneta/internal/ledger/currencies"
	"github.com/moneta-app/moneta/internal/ledger/lifecycle"
	"github.com/moneta-app/moneta/internal/ledger/tags"
	"github.com/moneta-app/moneta/internal/ledger/transactions"
	"github.com/moneta-app/moneta/internal/ledger/transfers"
	"github.com/moneta-app/moneta/internal/observability"
	"github.com/moneta-app/moneta/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger              *slog.Logger
	Config              *Config
	AccountsHandler     *accounts.Handler
	TransactionsHandler *transactions.Handler
	TransfersHandler    *transfers.Handler
	CreditsHandler      *lifecycle.Handler
	DepositsHandler     *lifecycle.Handler
	TagsHandler         *tags.Handler
	CurrenciesHandler   *currencies.Handler
	JobsHandler         *jobs.Handler
	Metrics             *observability.Metrics
}

// NewRouter constructs the chi.Router with Moneta defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/accounts", params.AccountsHandler.MountRoutes)
		r.Route("/transactions", params.TransactionsHandler.MountRoutes)
		r.Route("/transfers", params.TransfersHandler.MountRoutes)
		r.Route("/credits", params.CreditsHandler.MountRoutes)
		r.Route("/deposits", params.DepositsHandler.MountRoutes)
		r.Route("/tags", params.TagsHandler.MountRoutes)
		r.Route("/currencies", params.CurrenciesHandler.MountRoutes)
	})

	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
