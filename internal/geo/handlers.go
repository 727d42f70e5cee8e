package geo

import (
	"encoding/json"
	"net/http"

	"github.com/landrecords/demarcation-backend/internal/apperr"
	"github.com/landrecords/demarcation-backend/internal/logger"
)

type Handler struct {
	Service *Service
	Log     *logger.Logger
}

func (h *Handler) ListDistricts(w http.ResponseWriter, r *http.Request) {
	out, err := h.Service.ListDistricts(r.Context())
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) ListCircles(w http.ResponseWriter, r *http.Request) {
	out, err := h.Service.ListCircles(r.Context(), r.URL.Query().Get("district_id"))
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) ListVillages(w http.ResponseWriter, r *http.Request) {
	out, err := h.Service.ListVillages(r.Context(), r.URL.Query().Get("circle_id"))
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) CreateDistrict(w http.ResponseWriter, r *http.Request) {
	var in District
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid Request Format", http.StatusBadRequest)
		return
	}
	out, err := h.Service.CreateDistrict(r.Context(), District{Name: in.Name, Code: in.Code})
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	apperr.WriteJSON(w, http.StatusCreated, out)
}

func (h *Handler) CreateCircle(w http.ResponseWriter, r *http.Request) {
	var in Circle
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid Request Format", http.StatusBadRequest)
		return
	}
	out, err := h.Service.CreateCircle(r.Context(), Circle{Name: in.Name, Code: in.Code, DistrictID: in.DistrictID})
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	apperr.WriteJSON(w, http.StatusCreated, out)
}

func (h *Handler) CreateVillage(w http.ResponseWriter, r *http.Request) {
	var in Village
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid Request Format", http.StatusBadRequest)
		return
	}
	out, err := h.Service.CreateVillage(r.Context(), Village{Name: in.Name, Code: in.Code, CircleID: in.CircleID})
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	apperr.WriteJSON(w, http.StatusCreated, out)
}
