package http

import (
	"net/http"

	"github.com/go-notification-api/internal/config"
	"github.com/go-notification-api/internal/transport/http/handler"
	appmiddleware "github.com/go-notification-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// Router is the application handler plus the background resources it owns.
type Router struct {
	http.Handler
	emailRL *appmiddleware.RateLimiter
}

// Close stops the rate limiter's cleanup goroutine.
func (r *Router) Close() { r.emailRL.Stop() }

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) *Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := func(next http.Handler) http.Handler { return next }
	if deps.Verifier != nil {
		authMw = appmiddleware.Auth(deps.Verifier)
	}

	// 5 requests/second, burst of 10 on the endpoint that sends real email.
	emailRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	healthH := handler.NewHealthHandler(deps.Checks)
	notifH := handler.NewNotificationHandler(deps.Notifications)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)

		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Post("/notifications", notifH.Create)
			r.Get("/notifications", notifH.List)
			r.With(emailRL.Limit).Post("/notifications/email", notifH.SendEmail)
			r.Post("/notifications/text", notifH.SendText)
			r.Post("/notifications/in-app", notifH.SendInApp)
			r.Get("/notifications/{id}", notifH.Get)
			r.Put("/notifications/{id}", notifH.Update)
			r.Delete("/notifications/{id}", notifH.Delete)
		})
	})

	return &Router{Handler: r, emailRL: emailRL}
}
