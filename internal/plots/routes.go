package plots

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/landrecords/demarcation-backend/internal/access"
	"github.com/landrecords/demarcation-backend/internal/middleware"
)

// CitizenRoutes is mounted at /citizen/plots.
func CitizenRoutes(h *Handler, fetcher middleware.SessionFetcher) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.SessionMiddleware(fetcher))
	r.Use(middleware.RequireRole(access.RoleCitizen))

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/stats", h.CitizenStats)
	r.Get("/{plotID}", h.Get)
	r.Get("/{plotID}/logs", h.ListLogs)

	return r
}

// OfficerRoutes is mounted at /officer/plots and serves officers and supervisors.
func OfficerRoutes(h *Handler, fetcher middleware.SessionFetcher) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.SessionMiddleware(fetcher))
	r.Use(middleware.RequireRole(access.RoleOfficer, access.RoleSupervisor, access.RoleAdministrator))

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/my-assigned", h.ListAssigned)
	r.Get("/stats", h.OfficerStats)
	r.Get("/{plotID}", h.Get)
	r.Get("/{plotID}/logs", h.ListLogs)

	r.With(middleware.RequireCapability(access.CapUpdateStatus)).Put("/{plotID}/status", h.UpdateStatus)
	r.With(middleware.RequireCapability(access.CapAppendLog)).Post("/{plotID}/logs", h.AppendLog)
	r.With(middleware.RequireCapability(access.CapAssignOfficer)).Post("/{plotID}/assign", h.Assign)

	return r
}

// SharedRoutes is mounted at /plots for any signed-in role.
func SharedRoutes(h *Handler, fetcher middleware.SessionFetcher) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.SessionMiddleware(fetcher))
	r.Use(middleware.RequireCapability(access.CapViewPlots))

	r.Get("/map-locations", h.MapLocations)

	return r
}

// AdminRoutes is mounted at /admin/plots.
func AdminRoutes(h *Handler, fetcher middleware.SessionFetcher) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.SessionMiddleware(fetcher))

	r.With(middleware.RequireCapability(access.CapViewReports)).Get("/", h.List)
	r.With(middleware.RequireCapability(access.CapRetractLog)).Delete("/logs/{logID}", h.RetractLog)

	return r
}
