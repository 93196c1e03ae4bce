package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/AlenaMolokova/circlepay/internal/handlers"
	"github.com/AlenaMolokova/circlepay/internal/middleware"
)

const (
	APIPrefix       = "/api"
	BuyInsPath      = "/buyins"
	WithdrawalsPath = "/withdrawals"
	WithdrawalPath  = "/withdrawals/{id}"
	ConfirmPath     = "/withdrawals/{id}/confirm"
	CancelPath      = "/withdrawals/{id}/cancel"
	PendingPath     = "/deposits/pending"
	PendingItemPath = "/deposits/pending/{token}"
	MetricsPath     = "/metrics"
)

type Deps struct {
	Withdrawals handlers.WithdrawalService
	BuyIns      handlers.BuyInService
	Pending     handlers.PendingStore
	JWTSecret   string
	// RateLimit is applied to the public API when set, e.g. "120-M".
	RateLimit string
	Logger    zerolog.Logger
}

func SetupRoutes(deps Deps) (*chi.Mux, error) {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(hlog.NewHandler(deps.Logger))
	r.Use(hlog.RequestIDHandler("req_id", "X-Request-Id"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("latency", duration).
			Msg("HTTP request")
	}))

	r.Handle(MetricsPath, promhttp.Handler())

	var limit func(http.Handler) http.Handler
	if deps.RateLimit != "" {
		var err error
		if limit, err = middleware.RateLimit(deps.RateLimit); err != nil {
			return nil, err
		}
	}

	r.Route(APIPrefix, func(r chi.Router) {
		if limit != nil {
			r.Use(limit)
		}
		r.Post(BuyInsPath, handlers.NewBuyInHandler(deps.BuyIns).ServeHTTP)
		r.Post(WithdrawalsPath, handlers.NewWithdrawHandler(deps.Withdrawals).ServeHTTP)
		r.Get(WithdrawalPath, handlers.NewWithdrawalGetHandler(deps.Withdrawals).ServeHTTP)
		r.Post(PendingPath, handlers.NewPendingCreateHandler(deps.Pending).ServeHTTP)
		r.Get(PendingItemPath, handlers.NewPendingGetHandler(deps.Pending).ServeHTTP)
		r.Delete(PendingItemPath, handlers.NewPendingDeleteHandler(deps.Pending).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(deps.JWTSecret))
			r.Use(middleware.RequireRole(middleware.RoleAdmin))
			r.Post(ConfirmPath, handlers.NewConfirmHandler(deps.Withdrawals).ServeHTTP)
			r.Post(CancelPath, handlers.NewCancelHandler(deps.Withdrawals).ServeHTTP)
		})
	})

	return r, nil
}
