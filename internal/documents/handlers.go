package documents

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/landrecords/demarcation-backend/internal/access"
	"github.com/landrecords/demarcation-backend/internal/apperr"
	"github.com/landrecords/demarcation-backend/internal/logger"
	"github.com/landrecords/demarcation-backend/internal/utils"
)

const maxFilesPerUpload = 10

type Handler struct {
	Service  *Service
	Log      *logger.Logger
	MaxBytes int64
}

// Upload accepts one or more parts named "file" plus plot_id or log_id.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	principal, _ := utils.GetPrincipalFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes*maxFilesPerUpload+1<<20)
	if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
		http.Error(w, "Invalid multipart upload", http.StatusBadRequest)
		return
	}
	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		http.Error(w, "No file uploaded", http.StatusBadRequest)
		return
	}
	if len(files) > maxFilesPerUpload {
		http.Error(w, fmt.Sprintf("At most %d files per upload", maxFilesPerUpload), http.StatusBadRequest)
		return
	}
	isPublic, _ := strconv.ParseBool(r.FormValue("is_public"))

	out := make([]Document, 0, len(files))
	for _, fh := range files {
		doc, err := h.saveOne(r, principal, fh, isPublic)
		if err != nil {
			apperr.Write(w, h.Log, err)
			return
		}
		h.Log.Info("document uploaded", "document_id", doc.ID, "plot_id", doc.PlotID, "mime_type", doc.MimeType)
		out = append(out, doc)
	}

	if len(out) == 1 {
		apperr.WriteJSON(w, http.StatusCreated, out[0])
		return
	}
	apperr.WriteJSON(w, http.StatusCreated, out)
}

func (h *Handler) saveOne(r *http.Request, p access.Principal, fh *multipart.FileHeader, isPublic bool) (Document, error) {
	f, err := fh.Open()
	if err != nil {
		return Document{}, apperr.Validation("Could not read uploaded file")
	}
	defer f.Close()

	return h.Service.Upload(r.Context(), p, UploadInput{
		PlotID:       r.FormValue("plot_id"),
		LogID:        r.FormValue("log_id"),
		DocumentType: r.FormValue("document_type"),
		IsPublic:     isPublic,
		Filename:     fh.Filename,
		Content:      f,
	})
}

func (h *Handler) ListByPlot(w http.ResponseWriter, r *http.Request) {
	principal, _ := utils.GetPrincipalFromContext(r.Context())

	docs, err := h.Service.ListByPlot(r.Context(), principal, chi.URLParam(r, "plotID"))
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, docs)
}

func (h *Handler) ListByLog(w http.ResponseWriter, r *http.Request) {
	principal, _ := utils.GetPrincipalFromContext(r.Context())

	docs, err := h.Service.ListByLog(r.Context(), principal, chi.URLParam(r, "logID"))
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, docs)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	principal, _ := utils.GetPrincipalFromContext(r.Context())

	doc, err := h.Service.Get(r.Context(), principal, chi.URLParam(r, "documentID"))
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, doc)
}

func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	principal, _ := utils.GetPrincipalFromContext(r.Context())

	doc, f, err := h.Service.Open(r.Context(), principal, chi.URLParam(r, "documentID"))
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", doc.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", doc.OriginalFilename))
	http.ServeContent(w, r, doc.OriginalFilename, doc.UpdatedAt, f)
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	principal, _ := utils.GetPrincipalFromContext(r.Context())

	var in struct {
		Status string `json:"status"`
		Notes  string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid Request Format", http.StatusBadRequest)
		return
	}
	doc, err := h.Service.Verify(r.Context(), principal, chi.URLParam(r, "documentID"), in.Status, in.Notes)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, doc)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, _ := utils.GetPrincipalFromContext(r.Context())

	if err := h.Service.Deactivate(r.Context(), principal, chi.URLParam(r, "documentID")); err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
