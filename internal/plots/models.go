package plots

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PlotType string

const (
	PlotAgricultural PlotType = "agricultural"
	PlotResidential  PlotType = "residential"
	PlotCommercial   PlotType = "commercial"
	PlotIndustrial   PlotType = "industrial"
)

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

type ActivityType string

const (
	ActivitySubmission        ActivityType = "submission"
	ActivityInitialSurvey     ActivityType = "initial_survey"
	ActivityBoundaryMarking   ActivityType = "boundary_marking"
	ActivityDisputeResolution ActivityType = "dispute_resolution"
	ActivityFinalVerification ActivityType = "final_verification"
	ActivityDocumentation     ActivityType = "documentation"
	ActivityStatusUpdate      ActivityType = "status_update"
	ActivityAssignment        ActivityType = "assignment"
)

func ParsePlotType(s string) (PlotType, error) {
	switch t := PlotType(strings.ToLower(strings.TrimSpace(s))); t {
	case PlotAgricultural, PlotResidential, PlotCommercial, PlotIndustrial:
		return t, nil
	}
	return "", fmt.Errorf("unknown plot type %q", s)
}

func ParsePriority(s string) (Priority, error) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return p, nil
	}
	return "", fmt.Errorf("unknown priority %q", s)
}

func ParseActivityType(s string) (ActivityType, error) {
	switch a := ActivityType(strings.ToLower(strings.TrimSpace(s))); a {
	case ActivitySubmission, ActivityInitialSurvey, ActivityBoundaryMarking, ActivityDisputeResolution,
		ActivityFinalVerification, ActivityDocumentation, ActivityStatusUpdate, ActivityAssignment:
		return a, nil
	}
	return "", fmt.Errorf("unknown activity type %q", s)
}

// Plot is a parcel under demarcation. CurrentStatus and CompletedAt mirror
// the newest status-bearing log and are only written alongside a log change.
type Plot struct {
	ID                string     `gorm:"type:uuid;primaryKey" json:"id"`
	PlotNumber        string     `gorm:"not null;uniqueIndex" json:"plot_number"`
	KhasraNumber      string     `gorm:"not null;index:idx_plots_khasra_village" json:"khasra_number"`
	VillageID         string     `gorm:"type:uuid;not null;index:idx_plots_khasra_village" json:"village_id"`
	CircleID          string     `gorm:"type:uuid;not null;index" json:"circle_id"`
	PlotType          PlotType   `gorm:"type:varchar(32);not null" json:"plot_type"`
	RequestType       string     `gorm:"not null" json:"request_type"`
	Area              float64    `gorm:"not null" json:"area"`
	AreaUnit          string     `gorm:"not null" json:"area_unit"`
	OwnerID           *string    `gorm:"type:uuid;index" json:"owner_id,omitempty"`
	OwnerName         string     `json:"owner_name"`
	OwnerContact      string     `json:"owner_contact,omitempty"`
	AssignedOfficerID *string    `gorm:"type:uuid;index" json:"assigned_officer_id,omitempty"`
	CurrentStatus     Status     `gorm:"type:varchar(32);not null;index" json:"current_status"`
	Priority          Priority   `gorm:"type:varchar(16);not null" json:"priority"`
	Latitude          *float64   `json:"latitude,omitempty"`
	Longitude         *float64   `json:"longitude,omitempty"`
	IsDuplicate       bool       `gorm:"not null;index" json:"is_duplicate"`
	DuplicateOfID     *string    `gorm:"type:uuid" json:"duplicate_of_id,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	CreatedAt         time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"index" json:"updated_at"`
}

// DemarcationLog is an append-only activity record. Rows are never edited
// except to set IsDeleted on retraction.
type DemarcationLog struct {
	ID                   string       `gorm:"type:uuid;primaryKey" json:"id"`
	PlotID               string       `gorm:"type:uuid;not null;index" json:"plot_id"`
	OfficerID            *string      `gorm:"type:uuid;index" json:"officer_id,omitempty"`
	ActivityType         ActivityType `gorm:"type:varchar(32);not null" json:"activity_type"`
	Description          string       `gorm:"not null" json:"description"`
	ActivityDate         time.Time    `json:"activity_date"`
	StartTime            *time.Time   `json:"start_time,omitempty"`
	EndTime              *time.Time   `json:"end_time,omitempty"`
	StakeholdersPresent  string       `json:"stakeholders_present,omitempty"`
	GovernmentOfficials  string       `json:"government_officials,omitempty"`
	Status               *Status      `gorm:"type:varchar(32)" json:"status,omitempty"`
	IssuesEncountered    string       `json:"issues_encountered,omitempty"`
	NextSteps            string       `json:"next_steps,omitempty"`
	TargetCompletionDate *time.Time   `json:"target_completion_date,omitempty"`
	IsDeleted            bool         `gorm:"not null" json:"-"`
	CreatedAt            time.Time    `json:"created_at"`
}

type PlotAssignment struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	PlotID     string    `gorm:"type:uuid;not null;index" json:"plot_id"`
	OfficerID  string    `gorm:"type:uuid;not null;index" json:"officer_id"`
	AssignedBy string    `gorm:"type:uuid;not null" json:"assigned_by"`
	AssignedAt time.Time `gorm:"not null" json:"assigned_at"`
	IsActive   bool      `gorm:"not null;index" json:"is_active"`
	Notes      string    `json:"notes,omitempty"`
}

func (Plot) TableName() string           { return "plots" }
func (DemarcationLog) TableName() string { return "demarcation_logs" }
func (PlotAssignment) TableName() string { return "plot_assignments" }

func (p *Plot) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.PlotNumber == "" {
		p.PlotNumber = newPlotNumber(time.Now())
	}
	return nil
}

func (l *DemarcationLog) BeforeCreate(*gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

func (a *PlotAssignment) BeforeCreate(*gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// newPlotNumber returns identifiers like PLT-2026-4F9A1C.
func newPlotNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("PLT-%d-%s", now.Year(), suffix)
}
