package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/landrecords/demarcation-backend/internal/apperr"
	"github.com/landrecords/demarcation-backend/internal/logger"
	"github.com/landrecords/demarcation-backend/internal/utils"
)

type Handler struct {
	Service      *Service
	Log          *logger.Logger
	CookieSecure bool
}

func (h *Handler) sessionCookie(value string, expires time.Time) *http.Cookie {
	c := &http.Cookie{
		Name:     "session_id",
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.CookieSecure,
	}
	if value == "" {
		c.MaxAge = -1
	} else {
		c.Expires = expires
	}
	return c
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in NewUser
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid Request Format", http.StatusBadRequest)
		return
	}

	user, err := h.Service.Register(r.Context(), in)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	h.Log.Info("citizen registered", "user_id", user.UserID)
	apperr.WriteJSON(w, http.StatusCreated, user)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "Invalid Data", http.StatusBadRequest)
		return
	}

	session, user, err := h.Service.Login(r.Context(), creds.Username, creds.Password)
	if errors.Is(err, errInvalidCredentials) {
		http.Error(w, "Invalid Credentials", http.StatusUnauthorized)
		return
	}
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	http.SetCookie(w, h.sessionCookie(session.SessionID, session.ExpiresAt))
	apperr.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie("session_id")
	if err != nil {
		http.Error(w, "Couldn't find cookie", http.StatusUnauthorized)
		return
	}

	if err := h.Service.Logout(r.Context(), cookie.Value); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			http.Error(w, "Couldn't find session", http.StatusUnauthorized)
			return
		}
		apperr.Write(w, h.Log, err)
		return
	}

	http.SetCookie(w, h.sessionCookie("", time.Time{}))
	apperr.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	user, err := h.Service.GetUser(r.Context(), userID)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	var in ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid Request Format", http.StatusBadRequest)
		return
	}
	user, err := h.Service.UpdateProfile(r.Context(), userID, in)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	var in struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.CurrentPassword == "" || in.NewPassword == "" {
		http.Error(w, "Current and new password are required", http.StatusBadRequest)
		return
	}
	if err := h.Service.ChangePassword(r.Context(), userID, in.CurrentPassword, in.NewPassword); err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, map[string]string{"message": "Password updated"})
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in NewUser
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid Request Format", http.StatusBadRequest)
		return
	}
	user, err := h.Service.CreateStaff(r.Context(), in)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	h.Log.Info("staff account created", "user_id", user.UserID, "role", user.Role)
	apperr.WriteJSON(w, http.StatusCreated, user)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.ListUsers(r.Context(), r.URL.Query().Get("role"))
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, users)
}

func (h *Handler) SetUserStatus(w http.ResponseWriter, r *http.Request) {
	actorID, _ := utils.GetUserIDFromContext(r.Context())

	var in struct {
		IsActive *bool `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.IsActive == nil {
		http.Error(w, "is_active is required", http.StatusBadRequest)
		return
	}
	user, err := h.Service.SetActive(r.Context(), actorID, chi.URLParam(r, "userID"), *in.IsActive)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, user)
}
