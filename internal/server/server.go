package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/claude/repcycle/internal/coach"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	coach   *coach.Service
	users   UserStore
	log     *slog.Logger
	apiKey  string
	whois   WhoIser
	metrics *httpMetrics
	gather  prometheus.Gatherer
	router  chi.Router
}

// New creates a new Server with all routes configured. reg receives the HTTP
// metrics and is served on /metrics.
func New(svc *coach.Service, users UserStore, apiKey string, reg *prometheus.Registry, log *slog.Logger) *Server {
	s := &Server{
		coach:   svc,
		users:   users,
		log:     log,
		apiKey:  apiKey,
		metrics: newHTTPMetrics(reg),
		gather:  reg,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetTailscale switches identity resolution from the dev user to tailnet WhoIs.
// Call before serving.
func (s *Server) SetTailscale(wi WhoIser) {
	s.whois = wi
}

// MountMCP serves an MCP handler on /mcp behind the identity middleware.
func (s *Server) MountMCP(h http.Handler) {
	s.router.With(s.identity).Handle("/mcp", h)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(s.metrics.middleware)
	s.router.Use(CORS)

	s.router.Handle("/metrics", promhttp.HandlerFor(s.gather, promhttp.HandlerOpts{}))

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.identity)

		r.Get("/me", s.handleMe)
		r.Get("/mesocycles/active", s.handleActiveMesocycle)
		r.Get("/mesocycles/{id}", s.handleGetMesocycle)
		r.Get("/mesocycles/{id}/summary", s.handleMesocycleSummary)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Get("/recommendations", s.handleRecommendations)
		r.Get("/landmarks", s.handleListLandmarks)

		// Mutating endpoints (API key required when configured)
		r.Group(func(r chi.Router) {
			if s.apiKey != "" {
				r.Use(APIKeyAuth(s.apiKey))
			}
			r.Post("/mesocycles", s.handleCreateMesocycle)
			r.Post("/mesocycles/{id}/advance", s.handleAdvanceWeek)
			r.Delete("/mesocycles/{id}", s.handleDeleteMesocycle)
			r.Post("/sessions/{id}/complete", s.handleCompleteSession)
			r.Post("/sessions/{id}/feedback", s.handleRecordFeedback)
			r.Patch("/exercises/{id}", s.handleLogExercise)
			r.Put("/landmarks/{muscleGroupID}", s.handleSetLandmark)
		})
	})
}

// identity picks Tailscale WhoIs when configured, the dev user otherwise.
func (s *Server) identity(next http.Handler) http.Handler {
	dev := DevIdentity(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.whois == nil {
			dev.ServeHTTP(w, r)
			return
		}
		TailscaleIdentity(s.whois, s.users)(next).ServeHTTP(w, r)
	})
}
