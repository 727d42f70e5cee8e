package plots

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/landrecords/demarcation-backend/internal/apperr"
	"github.com/landrecords/demarcation-backend/internal/logger"
	"github.com/landrecords/demarcation-backend/internal/utils"
)

type Handler struct {
	Service *Service
	Log     *logger.Logger
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	principal, _ := utils.GetPrincipalFromContext(r.Context())

	f, err := FilterFromQuery(r.URL.Query())
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	out, err := h.Service.ListPlots(r.Context(), principal, f)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) ListAssigned(w http.ResponseWriter, r *http.Request) {
	principal, _ := utils.GetPrincipalFromContext(r.Context())

	f, err := FilterFromQuery(r.URL.Query())
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	out, err := h.Service.ListAssigned(r.Context(), principal, f)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	principal, _ := utils.GetPrincipalFromContext(r.Context())

	plot, err := h.Service.GetPlot(r.Context(), principal, chi.URLParam(r, "plotID"))
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, plot)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	principal, _ := utils.GetPrincipalFromContext(r.Context())

	var in CreatePlotInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid Request Format", http.StatusBadRequest)
		return
	}
	plot, err := h.Service.CreatePlot(r.Context(), principal, in)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	if plot.IsDuplicate {
		h.Log.Warn("duplicate plot flagged", "plot_id", plot.ID, "duplicate_of", *plot.DuplicateOfID)
	}
	apperr.WriteJSON(w, http.StatusCreated, plot)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	principal, _ := utils.GetPrincipalFromContext(r.Context())

	var in struct {
		Status      string `json:"status"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Status == "" {
		http.Error(w, "Status is required", http.StatusBadRequest)
		return
	}
	plot, err := h.Service.UpdateStatus(r.Context(), principal, chi.URLParam(r, "plotID"), in.Status, in.Description)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, plot)
}

func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	principal, _ := utils.GetPrincipalFromContext(r.Context())

	var in struct {
		OfficerID string `json:"officer_id"`
		Notes     string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid Request Format", http.StatusBadRequest)
		return
	}
	plot, err := h.Service.AssignOfficer(r.Context(), principal, chi.URLParam(r, "plotID"), in.OfficerID, in.Notes)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	h.Log.Info("officer assigned", "plot_id", plot.ID, "officer_id", in.OfficerID, "by", principal.UserID)
	apperr.WriteJSON(w, http.StatusOK, plot)
}

func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	principal, _ := utils.GetPrincipalFromContext(r.Context())

	logs, err := h.Service.ListLogs(r.Context(), principal, chi.URLParam(r, "plotID"))
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, logs)
}

func (h *Handler) AppendLog(w http.ResponseWriter, r *http.Request) {
	principal, _ := utils.GetPrincipalFromContext(r.Context())

	var in LogInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid Request Format", http.StatusBadRequest)
		return
	}
	entry, err := h.Service.AppendLog(r.Context(), principal, chi.URLParam(r, "plotID"), in)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	apperr.WriteJSON(w, http.StatusCreated, entry)
}

func (h *Handler) RetractLog(w http.ResponseWriter, r *http.Request) {
	principal, _ := utils.GetPrincipalFromContext(r.Context())

	logID := chi.URLParam(r, "logID")
	if err := h.Service.RetractLog(r.Context(), principal, logID); err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	h.Log.Info("log retracted", "log_id", logID, "by", principal.UserID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) MapLocations(w http.ResponseWriter, r *http.Request) {
	principal, _ := utils.GetPrincipalFromContext(r.Context())

	f, err := FilterFromQuery(r.URL.Query())
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	out, err := h.Service.MapLocations(r.Context(), principal, f)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) CitizenStats(w http.ResponseWriter, r *http.Request) {
	principal, _ := utils.GetPrincipalFromContext(r.Context())

	out, err := h.Service.CitizenStats(r.Context(), principal)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) OfficerStats(w http.ResponseWriter, r *http.Request) {
	principal, _ := utils.GetPrincipalFromContext(r.Context())

	out, err := h.Service.OfficerDashboard(r.Context(), principal)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, out)
}
