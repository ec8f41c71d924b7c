package http

import (
	"net/http"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"

	"sobercircle/internal/auth"
	"sobercircle/internal/checkins"
	"sobercircle/internal/config"
	"sobercircle/internal/crisis"
	"sobercircle/internal/messages"
	"sobercircle/internal/metrics"
	"sobercircle/internal/users"
)

// RouterDeps bundles everything the HTTP layer needs.
type RouterDeps struct {
	Config    config.Config
	Provider  secondMeAuthenticator
	Auth      *auth.Service
	CheckIns  *checkins.Service
	Crisis    *crisis.Service
	Users     users.Repository
	Feed      messages.Repository
	Collector *metrics.Collector
	Gatherer  prometheus.Gatherer
	Logger    *slog.Logger
}

// NewRouter wires application routes and middleware using chi.
func NewRouter(deps RouterDeps) http.Handler {
	cfg := deps.Config
	logger := deps.Logger

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(newSecurityHeadersMiddleware(cfg.Environment))
	r.Use(newSlogMiddleware(logger))
	r.Use(newMetricsMiddleware(deps.Collector))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":      "ok",
			"environment": cfg.Environment,
		})
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	oauthHandler := NewOAuthHandler(deps.Provider, deps.Auth, cfg.SecondMe, cfg.Environment, deps.Collector, logger)
	sessionHandler := NewSessionHandler(cfg.Environment)
	checkInHandler := NewCheckInHandler(deps.CheckIns, logger)
	crisisHandler := NewCrisisHandler(deps.Crisis, logger)
	dashboardHandler := NewDashboardHandler(deps.Users, deps.Feed, logger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Get("/login", oauthHandler.InitiateLogin)
			r.Get("/callback", oauthHandler.Callback)
			r.Post("/logout", sessionHandler.Logout)
		})

		r.Group(func(r chi.Router) {
			r.Use(newAuthMiddleware(deps.Auth, logger))

			r.Get("/auth/me", sessionHandler.Me)

			r.Route("/checkin", func(r chi.Router) {
				r.Post("/", checkInHandler.Create)
				r.Get("/", checkInHandler.History)
			})

			r.Route("/crisis", func(r chi.Router) {
				r.Post("/", crisisHandler.Raise)
				r.Post("/resolve", crisisHandler.Resolve)
			})

			r.Route("/dashboard", func(r chi.Router) {
				r.Get("/stats", dashboardHandler.Stats)
				r.Get("/leaderboard", dashboardHandler.Leaderboard)
				r.Get("/messages", dashboardHandler.Messages)
			})
		})
	})

	r.NotFound(http.NotFoundHandler().ServeHTTP)

	return r
}
