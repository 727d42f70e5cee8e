package documents

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

// Document is the metadata for an uploaded file. The payload lives on disk
// under FilePath, relative to the upload root.
type Document struct {
	ID                 string             `gorm:"type:uuid;primaryKey" json:"id"`
	Filename           string             `gorm:"not null" json:"filename"`
	OriginalFilename   string             `gorm:"not null" json:"original_filename"`
	FileSize           int64              `gorm:"not null" json:"file_size"`
	MimeType           string             `gorm:"not null" json:"mime_type"`
	FilePath           string             `gorm:"not null" json:"-"`
	FileURL            string             `gorm:"not null" json:"file_url"`
	DocumentType       string             `json:"document_type"`
	PlotID             string             `gorm:"type:uuid;not null;index" json:"plot_id"`
	LogID              *string            `gorm:"type:uuid;index" json:"log_id,omitempty"`
	UploadedByID       string             `gorm:"type:uuid;not null" json:"uploaded_by_id"`
	VerifiedByID       *string            `gorm:"type:uuid" json:"verified_by_id,omitempty"`
	VerificationStatus VerificationStatus `gorm:"type:varchar(16);not null" json:"verification_status"`
	VerificationNotes  string             `json:"verification_notes,omitempty"`
	VerifiedAt         *time.Time         `json:"verified_at,omitempty"`
	IsPublic           bool               `gorm:"not null" json:"is_public"`
	IsActive           bool               `gorm:"not null;index" json:"is_active"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

func (Document) TableName() string { return "documents" }

func (d *Document) BeforeCreate(*gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}
