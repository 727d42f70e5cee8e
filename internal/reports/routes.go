package reports

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/landrecords/demarcation-backend/internal/access"
	"github.com/landrecords/demarcation-backend/internal/middleware"
)

// SetupRoutes is mounted at /admin.
func SetupRoutes(h *Handler, fetcher middleware.SessionFetcher) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.SessionMiddleware(fetcher))
	r.Use(middleware.RequireCapability(access.CapViewReports))

	r.Get("/stats", h.Stats)
	r.Get("/distribution/{dimension}", h.Distribution)
	r.Get("/officer-performance", h.OfficerPerformance)
	r.Get("/reports", h.Report)

	return r
}
