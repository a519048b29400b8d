package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	red "ai-fortune-report/internal/infra/redis"
	"ai-fortune-report/internal/usecase"
)

// Server exposes the HTTP API.
type Server struct {
	authUC   usecase.AuthUseCase
	reportUC usecase.ReportUseCase
	unlockUC usecase.UnlockUseCase
	auth     *AuthManager
	limiter  *red.RateLimiter
	log      *zerolog.Logger

	attemptLimit  int
	attemptWindow time.Duration
}

func NewServer(
	authUC usecase.AuthUseCase,
	reportUC usecase.ReportUseCase,
	unlockUC usecase.UnlockUseCase,
	auth *AuthManager,
	limiter *red.RateLimiter,
	attemptLimit int,
	attemptWindow time.Duration,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		authUC:        authUC,
		reportUC:      reportUC,
		unlockUC:      unlockUC,
		auth:          auth,
		limiter:       limiter,
		attemptLimit:  attemptLimit,
		attemptWindow: attemptWindow,
		log:           logger,
	}
}

// Router assembles the chi router with middleware and all routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID)
	r.Use(RequestLog(s.log))
	r.Use(Recover(s.log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/signup", s.handleSignUp)
		r.Post("/auth/signin", s.handleSignIn)
		r.Post("/auth/signout", s.handleSignOut)

		r.Group(func(r chi.Router) {
			r.Use(s.auth.RequireAuth)
			r.Post("/reports", s.handleReportCreate)
			r.Get("/reports", s.handleReportList)
			r.Get("/reports/{session}", s.handleReportGet)
			r.Post("/reports/{session}/unlock", s.handleUnlock)
		})

		// Lock status is queryable anonymously: no identity means "locked",
		// never an error.
		r.Group(func(r chi.Router) {
			r.Use(s.auth.OptionalAuth)
			r.Get("/reports/{session}/unlocked", s.handleIsUnlocked)
		})
	})

	return r
}
