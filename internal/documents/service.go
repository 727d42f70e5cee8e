package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/landrecords/demarcation-backend/internal/access"
	"github.com/landrecords/demarcation-backend/internal/apperr"
	"github.com/landrecords/demarcation-backend/internal/plots"
	"gorm.io/gorm"
)

var allowedTypes = []string{
	"image/jpeg",
	"image/png",
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"text/plain",
	"text/csv",
}

// PlotAccess is the part of the plot service documents rely on for visibility.
type PlotAccess interface {
	GetPlot(ctx context.Context, p access.Principal, id string) (plots.Plot, error)
	GetLog(ctx context.Context, p access.Principal, id string) (plots.DemarcationLog, error)
}

type Service struct {
	db       *gorm.DB
	plots    PlotAccess
	storage  Storage
	maxBytes int64
	now      func() time.Time
}

func NewService(d *gorm.DB, plotAccess PlotAccess, storage Storage, maxBytes int64) *Service {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &Service{db: d, plots: plotAccess, storage: storage, maxBytes: maxBytes, now: time.Now}
}

type UploadInput struct {
	PlotID       string
	LogID        string
	DocumentType string
	IsPublic     bool
	Filename     string
	Content      io.Reader
}

// Upload stores a file against a plot, or against a log and its plot.
func (s *Service) Upload(ctx context.Context, p access.Principal, in UploadInput) (Document, error) {
	if in.PlotID == "" && in.LogID == "" {
		return Document{}, apperr.Validation("Either plot_id or log_id is required")
	}

	kind, ownerID := "plots", in.PlotID
	var logID *string
	if in.LogID != "" {
		if !p.Can(access.CapAppendLog) {
			return Document{}, apperr.Forbidden("Only officers can attach files to logs")
		}
		entry, err := s.plots.GetLog(ctx, p, in.LogID)
		if err != nil {
			return Document{}, err
		}
		if in.PlotID != "" && in.PlotID != entry.PlotID {
			return Document{}, apperr.Validation("Log does not belong to the given plot")
		}
		in.PlotID = entry.PlotID
		kind, ownerID = "logs", entry.ID
		logID = &entry.ID
	} else if _, err := s.plots.GetPlot(ctx, p, in.PlotID); err != nil {
		return Document{}, err
	}

	data, err := io.ReadAll(io.LimitReader(in.Content, s.maxBytes+1))
	if err != nil {
		return Document{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return Document{}, apperr.Validation(fmt.Sprintf("File exceeds the %d MB limit", s.maxBytes>>20))
	}
	if len(data) == 0 {
		return Document{}, apperr.Validation("File is empty")
	}
	mimeType, ok := detectAllowed(data)
	if !ok {
		return Document{}, apperr.Validation("Invalid file type. Only images, PDFs, Office documents, text and CSV files are allowed")
	}

	name, rel, err := s.storage.Save(kind, ownerID, in.Filename, data)
	if err != nil {
		return Document{}, err
	}

	doc := Document{
		Filename:           name,
		OriginalFilename:   in.Filename,
		FileSize:           int64(len(data)),
		MimeType:           mimeType,
		FilePath:           rel,
		DocumentType:       strings.TrimSpace(in.DocumentType),
		PlotID:             in.PlotID,
		LogID:              logID,
		UploadedByID:       p.UserID,
		VerificationStatus: VerificationPending,
		IsPublic:           in.IsPublic,
		IsActive:           true,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&doc).Error; err != nil {
			return err
		}
		doc.FileURL = "/documents/" + doc.ID + "/file"
		return tx.Model(&doc).Update("file_url", doc.FileURL).Error
	})
	if err != nil {
		os.Remove(filepath.Join(s.storage.Root, rel))
		return Document{}, fmt.Errorf("save document: %w", err)
	}
	return doc, nil
}

func detectAllowed(data []byte) (string, bool) {
	m := mimetype.Detect(data)
	for _, allowed := range allowedTypes {
		if m.Is(allowed) {
			return allowed, true
		}
	}
	return "", false
}

// canSee applies the citizen rule: public documents plus their own uploads.
func canSee(p access.Principal, d Document) bool {
	if p.Role != access.RoleCitizen {
		return true
	}
	return d.IsPublic || d.UploadedByID == p.UserID
}

func (s *Service) visibleQuery(ctx context.Context, p access.Principal) *gorm.DB {
	q := s.db.WithContext(ctx).Where("is_active = ?", true)
	if p.Role == access.RoleCitizen {
		q = q.Where("(is_public = ? OR uploaded_by_id = ?)", true, p.UserID)
	}
	return q.Order("created_at DESC")
}

func (s *Service) ListByPlot(ctx context.Context, p access.Principal, plotID string) ([]Document, error) {
	if _, err := s.plots.GetPlot(ctx, p, plotID); err != nil {
		return nil, err
	}
	var out []Document
	if err := s.visibleQuery(ctx, p).Where("plot_id = ?", plotID).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return out, nil
}

func (s *Service) ListByLog(ctx context.Context, p access.Principal, logID string) ([]Document, error) {
	if _, err := s.plots.GetLog(ctx, p, logID); err != nil {
		return nil, err
	}
	var out []Document
	if err := s.visibleQuery(ctx, p).Where("log_id = ?", logID).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return out, nil
}

var errDocumentNotFound = apperr.NotFound("Document not found or you do not have access")

func (s *Service) Get(ctx context.Context, p access.Principal, id string) (Document, error) {
	var doc Document
	err := s.db.WithContext(ctx).First(&doc, "id = ? AND is_active = ?", id, true).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Document{}, errDocumentNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("get document: %w", err)
	}
	if _, err := s.plots.GetPlot(ctx, p, doc.PlotID); err != nil || !canSee(p, doc) {
		return Document{}, errDocumentNotFound
	}
	return doc, nil
}

// Open returns the document and its payload. The caller closes the file.
func (s *Service) Open(ctx context.Context, p access.Principal, id string) (Document, *os.File, error) {
	doc, err := s.Get(ctx, p, id)
	if err != nil {
		return Document{}, nil, err
	}
	f, err := s.storage.Open(doc.FilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Document{}, nil, apperr.NotFound("File not found on server")
		}
		return Document{}, nil, fmt.Errorf("open document: %w", err)
	}
	return doc, f, nil
}

func (s *Service) Verify(ctx context.Context, p access.Principal, id, status, notes string) (Document, error) {
	if !p.Can(access.CapVerifyDocuments) {
		return Document{}, apperr.Forbidden("Only officers and administrators can verify documents")
	}
	st := VerificationStatus(strings.ToLower(strings.TrimSpace(status)))
	if st != VerificationVerified && st != VerificationRejected {
		return Document{}, apperr.Validation("Status must be verified or rejected")
	}
	doc, err := s.Get(ctx, p, id)
	if err != nil {
		return Document{}, err
	}

	now := s.now()
	doc.VerificationStatus = st
	doc.VerificationNotes = strings.TrimSpace(notes)
	doc.VerifiedByID = &p.UserID
	doc.VerifiedAt = &now
	err = s.db.WithContext(ctx).Model(&Document{}).Where("id = ?", doc.ID).Updates(map[string]interface{}{
		"verification_status": doc.VerificationStatus,
		"verification_notes":  doc.VerificationNotes,
		"verified_by_id":      p.UserID,
		"verified_at":         now,
	}).Error
	if err != nil {
		return Document{}, fmt.Errorf("verify document: %w", err)
	}
	return doc, nil
}

// Deactivate hides a document. Citizens may only remove their own uploads.
// The stored payload is kept.
func (s *Service) Deactivate(ctx context.Context, p access.Principal, id string) error {
	doc, err := s.Get(ctx, p, id)
	if err != nil {
		return err
	}
	if p.Role == access.RoleCitizen && doc.UploadedByID != p.UserID {
		return apperr.Forbidden("You can only delete your own documents")
	}
	if err := s.db.WithContext(ctx).Model(&Document{}).Where("id = ?", id).Update("is_active", false).Error; err != nil {
		return fmt.Errorf("deactivate document: %w", err)
	}
	return nil
}

