package plots

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/landrecords/demarcation-backend/internal/access"
	"github.com/landrecords/demarcation-backend/internal/apperr"
	"gorm.io/gorm"
)

// appendLogTx inserts entry for plot and, when the entry carries a status,
// refreshes the plot's cached status. It is the only writer of
// current_status and completed_at besides retraction.
func (s *Service) appendLogTx(tx *gorm.DB, plot *Plot, entry *DemarcationLog) error {
	now := s.now()
	entry.PlotID = plot.ID
	entry.CreatedAt = now
	if entry.ActivityDate.IsZero() {
		entry.ActivityDate = now
	}
	if err := tx.Create(entry).Error; err != nil {
		return fmt.Errorf("insert log: %w", err)
	}

	updates := map[string]interface{}{"updated_at": now}
	if entry.Status != nil {
		updates["current_status"] = *entry.Status
		if *entry.Status == StatusCompleted {
			updates["completed_at"] = now
			plot.CompletedAt = &now
		}
		plot.CurrentStatus = *entry.Status
	}
	if err := tx.Model(&Plot{}).Where("id = ?", plot.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("refresh plot status: %w", err)
	}
	plot.UpdatedAt = now
	return nil
}

type LogInput struct {
	ActivityType         string     `json:"activity_type"`
	Description          string     `json:"description"`
	ActivityDate         *time.Time `json:"activity_date"`
	StartTime            *time.Time `json:"start_time"`
	EndTime              *time.Time `json:"end_time"`
	StakeholdersPresent  string     `json:"stakeholders_present"`
	GovernmentOfficials  string     `json:"government_officials"`
	Status               string     `json:"status"`
	IssuesEncountered    string     `json:"issues_encountered"`
	NextSteps            string     `json:"next_steps"`
	TargetCompletionDate *time.Time `json:"target_completion_date"`
}

// AppendLog records field activity on a plot. A status on the entry goes
// through the same checks as UpdateStatus.
func (s *Service) AppendLog(ctx context.Context, p access.Principal, plotID string, in LogInput) (DemarcationLog, error) {
	if !p.Can(access.CapAppendLog) {
		return DemarcationLog{}, apperr.Forbidden("You are not allowed to add activity logs")
	}
	activity, err := ParseActivityType(in.ActivityType)
	if err != nil {
		return DemarcationLog{}, apperr.Validation("Invalid activity type")
	}
	if strings.TrimSpace(in.Description) == "" {
		return DemarcationLog{}, apperr.Validation("Description is required")
	}
	if in.StartTime != nil && in.EndTime != nil && in.EndTime.Before(*in.StartTime) {
		return DemarcationLog{}, apperr.Validation("End time must not be before start time")
	}
	var status *Status
	if in.Status != "" {
		st, err := ParseStatus(in.Status)
		if err != nil {
			return DemarcationLog{}, apperr.Validation("Invalid status value")
		}
		status = &st
	}

	entry := DemarcationLog{
		OfficerID:            &p.UserID,
		ActivityType:         activity,
		Description:          strings.TrimSpace(in.Description),
		StartTime:            in.StartTime,
		EndTime:              in.EndTime,
		StakeholdersPresent:  in.StakeholdersPresent,
		GovernmentOfficials:  in.GovernmentOfficials,
		Status:               status,
		IssuesEncountered:    in.IssuesEncountered,
		NextSteps:            in.NextSteps,
		TargetCompletionDate: in.TargetCompletionDate,
	}
	if in.ActivityDate != nil {
		entry.ActivityDate = *in.ActivityDate
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		plot, err := loadVisible(tx, p, plotID, true)
		if err != nil {
			return err
		}
		if status != nil {
			if err := authorizeStatusChange(p, plot); err != nil {
				return err
			}
			if err := checkTransition(plot.CurrentStatus, *status); err != nil {
				return err
			}
		}
		return s.appendLogTx(tx, &plot, &entry)
	})
	if err != nil {
		return DemarcationLog{}, err
	}
	return entry, nil
}

// LogView is a log as returned to clients.
type LogView struct {
	DemarcationLog
	DurationHours *float64 `json:"duration_hours,omitempty"`
}

// ListLogs returns the plot's live logs, newest first.
func (s *Service) ListLogs(ctx context.Context, p access.Principal, plotID string) ([]LogView, error) {
	if _, err := s.GetPlot(ctx, p, plotID); err != nil {
		return nil, err
	}
	var logs []DemarcationLog
	err := s.db.WithContext(ctx).
		Where("plot_id = ? AND is_deleted = ?", plotID, false).
		Order("created_at DESC").
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}

	out := make([]LogView, 0, len(logs))
	for _, l := range logs {
		v := LogView{DemarcationLog: l}
		if l.StartTime != nil && l.EndTime != nil {
			d := DurationHours(*l.StartTime, *l.EndTime)
			v.DurationHours = &d
		}
		out = append(out, v)
	}
	return out, nil
}

// RetractLog soft-deletes a log and recomputes the plot's cached status from
// the newest remaining status-bearing log.
func (s *Service) RetractLog(ctx context.Context, p access.Principal, logID string) error {
	if !p.Can(access.CapRetractLog) {
		return apperr.Forbidden("Only administrators can retract logs")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry DemarcationLog
		err := tx.First(&entry, "id = ? AND is_deleted = ?", logID, false).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Log not found")
		}
		if err != nil {
			return fmt.Errorf("load log: %w", err)
		}
		if err := tx.Model(&DemarcationLog{}).Where("id = ?", entry.ID).Update("is_deleted", true).Error; err != nil {
			return fmt.Errorf("retract log: %w", err)
		}
		if entry.Status == nil {
			return nil
		}

		updates := map[string]interface{}{
			"current_status": StatusPending,
			"completed_at":   nil,
			"updated_at":     s.now(),
		}
		var latest DemarcationLog
		err = tx.Where("plot_id = ? AND is_deleted = ? AND status IS NOT NULL", entry.PlotID, false).
			Order("created_at DESC").
			First(&latest).Error
		switch {
		case err == nil:
			updates["current_status"] = *latest.Status
			if *latest.Status == StatusCompleted {
				updates["completed_at"] = latest.CreatedAt
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("find latest status: %w", err)
		}
		return tx.Model(&Plot{}).Where("id = ?", entry.PlotID).Updates(updates).Error
	})
}

// DurationHours is the time between start and end in hours, to one decimal.
func DurationHours(start, end time.Time) float64 {
	return math.Round(end.Sub(start).Seconds()/3600*10) / 10
}

// GetLog returns a live log whose plot is visible to p.
func (s *Service) GetLog(ctx context.Context, p access.Principal, logID string) (DemarcationLog, error) {
	var entry DemarcationLog
	err := s.db.WithContext(ctx).First(&entry, "id = ? AND is_deleted = ?", logID, false).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return DemarcationLog{}, apperr.NotFound("Log not found or you do not have access")
	}
	if err != nil {
		return DemarcationLog{}, fmt.Errorf("load log: %w", err)
	}
	if _, err := s.GetPlot(ctx, p, entry.PlotID); err != nil {
		return DemarcationLog{}, apperr.NotFound("Log not found or you do not have access")
	}
	return entry, nil
}
