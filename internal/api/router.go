package api

import (
	"net/http"
	"time"

	"codenotes/internal/api/handler"
	"codenotes/internal/api/middleware"
	"codenotes/internal/app/service"
	"codenotes/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Services struct {
	Problems   *service.ProblemService
	Topics     *service.TopicService
	Membership *service.MembershipService
	Reconcile  *service.ReconcileService
}

// NewRouter mounts the API. Everything except /health and /metrics needs a
// bearer token whose user_id claim names the owner.
func NewRouter(svc Services) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Verifier only parses "Authorization: Bearer T" into the context;
	// Authenticator below is what rejects requests.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(authed chi.Router) {
		authed.Use(middleware.Authenticator)

		authed.Route("/problems", handler.NewProblemHandler(svc.Problems).RegisterRoutes)
		authed.Route("/topics", handler.NewTopicHandler(svc.Topics).RegisterRoutes)
		authed.Route("/users", handler.NewUserHandler(svc.Membership).RegisterRoutes)
		authed.Route("/reconcile", handler.NewReconcileHandler(svc.Reconcile).RegisterRoutes)
	})

	return r
}
