package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/landrecords/demarcation-backend/internal/access"
	"github.com/landrecords/demarcation-backend/internal/middleware"
)

func SetupRoutes(h *Handler, fetcher middleware.SessionFetcher, limiter *middleware.RateLimiter) http.Handler {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		if limiter != nil {
			r.Use(limiter.Middleware)
		}
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
	})
	r.Post("/logout", h.Logout)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(fetcher))

		r.Get("/me", h.Me)
		r.Patch("/me", h.UpdateMe)
		r.Post("/change-password", h.ChangePassword)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(fetcher))
		r.Use(middleware.RequireCapability(access.CapManageUsers))

		r.Get("/users", h.ListUsers)
		r.Post("/users", h.CreateUser)
		r.Patch("/users/{userID}/status", h.SetUserStatus)
	})

	return r
}
