package documents

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/landrecords/demarcation-backend/internal/access"
	"github.com/landrecords/demarcation-backend/internal/middleware"
)

func SetupRoutes(h *Handler, fetcher middleware.SessionFetcher) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.SessionMiddleware(fetcher))
	r.Use(middleware.RequireCapability(access.CapViewPlots))

	r.Post("/upload", h.Upload)
	r.Get("/plot/{plotID}", h.ListByPlot)
	r.Get("/log/{logID}", h.ListByLog)
	r.Get("/{documentID}", h.Get)
	r.Get("/{documentID}/file", h.Serve)
	r.Delete("/{documentID}", h.Delete)

	r.With(middleware.RequireCapability(access.CapVerifyDocuments)).Patch("/{documentID}/verify", h.Verify)

	return r
}
