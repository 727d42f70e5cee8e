package geo

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/landrecords/demarcation-backend/internal/access"
	"github.com/landrecords/demarcation-backend/internal/middleware"
)

func SetupRoutes(h *Handler, fetcher middleware.SessionFetcher) http.Handler {
	r := chi.NewRouter()

	r.Get("/districts", h.ListDistricts)
	r.Get("/circles", h.ListCircles)
	r.Get("/villages", h.ListVillages)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(fetcher))
		r.Use(middleware.RequireCapability(access.CapManageGeography))

		r.Post("/districts", h.CreateDistrict)
		r.Post("/circles", h.CreateCircle)
		r.Post("/villages", h.CreateVillage)
	})

	return r
}
