package reports

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/landrecords/demarcation-backend/internal/apperr"
	"github.com/landrecords/demarcation-backend/internal/logger"
	"github.com/landrecords/demarcation-backend/internal/plots"
	"github.com/landrecords/demarcation-backend/internal/utils"
)

type Handler struct {
	Service *Service
	Log     *logger.Logger
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	principal, _ := utils.GetPrincipalFromContext(r.Context())

	f, err := plots.FilterFromQuery(r.URL.Query())
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	stats, err := h.Service.DashboardStats(r.Context(), principal, f)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) Distribution(w http.ResponseWriter, r *http.Request) {
	principal, _ := utils.GetPrincipalFromContext(r.Context())

	f, err := plots.FilterFromQuery(r.URL.Query())
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	out, err := h.Service.Distribution(r.Context(), principal, f, chi.URLParam(r, "dimension"))
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) OfficerPerformance(w http.ResponseWriter, r *http.Request) {
	principal, _ := utils.GetPrincipalFromContext(r.Context())

	f, err := plots.FilterFromQuery(r.URL.Query())
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	out, err := h.Service.OfficerPerformance(r.Context(), principal, f)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, out)
}

// Report streams a generated export as an attachment.
// Query: type, format, from, to (YYYY-MM-DD).
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	principal, _ := utils.GetPrincipalFromContext(r.Context())

	q := r.URL.Query()
	f, err := plots.FilterFromQuery(q)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	report, err := h.Service.GenerateReport(r.Context(), principal, ReportRequest{
		Type:   q.Get("type"),
		Format: q.Get("format"),
		From:   f.From,
		To:     f.To,
	})
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	h.Log.Info("report generated", "user_id", principal.UserID, "type", q.Get("type"), "format", q.Get("format"), "bytes", len(report.Data))
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(report.Data)
}
