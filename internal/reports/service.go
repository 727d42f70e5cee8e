package reports

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/landrecords/demarcation-backend/internal/access"
	"github.com/landrecords/demarcation-backend/internal/apperr"
	"github.com/landrecords/demarcation-backend/internal/plots"
	"gorm.io/gorm"
)

const (
	displayDate  = "02-01-2006"
	notAvailable = "N/A"
	unknown      = "unknown"
)

var openStatuses = []plots.Status{plots.StatusPending, plots.StatusInProgress}

type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(d *gorm.DB) *Service {
	return &Service{db: d, now: time.Now}
}

func (s *Service) scoped(ctx context.Context, p access.Principal, f plots.Filter) *gorm.DB {
	return plots.Scope(s.db.WithContext(ctx).Model(&plots.Plot{}), p, f)
}

// DashboardStats aggregates the plots p can see. Pending counts both pending
// and in-progress plots.
func (s *Service) DashboardStats(ctx context.Context, p access.Principal, f plots.Filter) (DashboardStats, error) {
	var out DashboardStats

	counts := []struct {
		dst   *int64
		apply func(*gorm.DB) *gorm.DB
		name  string
	}{
		{&out.TotalPlots, func(q *gorm.DB) *gorm.DB { return q }, "total"},
		{&out.CompletedPlots, func(q *gorm.DB) *gorm.DB { return q.Where("plots.current_status = ?", plots.StatusCompleted) }, "completed"},
		{&out.PendingPlots, func(q *gorm.DB) *gorm.DB { return q.Where("plots.current_status IN ?", openStatuses) }, "pending"},
		{&out.DuplicatePlots, func(q *gorm.DB) *gorm.DB { return q.Where("plots.is_duplicate = ?", true) }, "duplicates"},
		{&out.Villages, func(q *gorm.DB) *gorm.DB { return q.Distinct("plots.village_id") }, "villages"},
	}
	for _, c := range counts {
		if err := c.apply(s.scoped(ctx, p, f)).Count(c.dst).Error; err != nil {
			return DashboardStats{}, fmt.Errorf("%s count: %w", c.name, err)
		}
	}

	err := s.db.WithContext(ctx).Model(&plots.PlotAssignment{}).
		Where("plot_assignments.is_active = ?", true).
		Where("plot_assignments.plot_id IN (?)", s.scoped(ctx, p, f).Select("plots.id")).
		Distinct("plot_assignments.officer_id").
		Count(&out.ActiveOfficers).Error
	if err != nil {
		return DashboardStats{}, fmt.Errorf("active officers count: %w", err)
	}

	var spans []resolutionSpan
	err = s.scoped(ctx, p, f).
		Select("plots.created_at, plots.completed_at").
		Where("plots.current_status = ? AND plots.completed_at IS NOT NULL", plots.StatusCompleted).
		Scan(&spans).Error
	if err != nil {
		return DashboardStats{}, fmt.Errorf("resolution times: %w", err)
	}
	if days, ok := averageDays(spans); ok {
		out.AvgResolutionTime = formatDays(days)
	} else {
		out.AvgResolutionTime = formatDays(0)
	}
	out.CompletionRate = plots.Percent(out.CompletedPlots, out.TotalPlots)
	return out, nil
}

type resolutionSpan struct {
	CreatedAt   time.Time
	CompletedAt *time.Time
}

func averageDays(spans []resolutionSpan) (float64, bool) {
	var total float64
	var n int
	for _, sp := range spans {
		if sp.CompletedAt == nil {
			continue
		}
		total += sp.CompletedAt.Sub(sp.CreatedAt).Hours() / 24
		n++
	}
	if n == 0 {
		return 0, false
	}
	return total / float64(n), true
}

func formatDays(days float64) string {
	return fmt.Sprintf("%d days", int64(math.Round(days)))
}

// Distribution counts plots grouped by status, circle or village. Plots
// whose group cannot be resolved are counted under "unknown".
func (s *Service) Distribution(ctx context.Context, p access.Principal, f plots.Filter, dimension string) ([]Bucket, error) {
	q := s.scoped(ctx, p, f)
	var expr string
	switch strings.ToLower(dimension) {
	case "status":
		expr = "COALESCE(plots.current_status, 'unknown')"
	case "circle":
		q = q.Joins("LEFT JOIN circles ON circles.id = plots.circle_id")
		expr = "COALESCE(circles.name, 'unknown')"
	case "village":
		q = q.Joins("LEFT JOIN villages ON villages.id = plots.village_id")
		expr = "COALESCE(villages.name, 'unknown')"
	default:
		return nil, apperr.Validation("Dimension must be one of status, circle, village")
	}

	var out []Bucket
	if err := q.Select(expr + " AS name, COUNT(*) AS count").Group(expr).Scan(&out).Error; err != nil {
		return nil, fmt.Errorf("distribution by %s: %w", dimension, err)
	}
	slices.SortFunc(out, func(a, b Bucket) int {
		if a.Count != b.Count {
			if a.Count > b.Count {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}

type officerRow struct {
	UserID     string
	FullName   string
	Username   string
	CircleName *string
}

type assignedRow struct {
	AssignedOfficerID string
	CurrentStatus     plots.Status
	CreatedAt         time.Time
	CompletedAt       *time.Time
}

// OfficerPerformance reports every active officer against the plots
// currently assigned to them, best efficiency first. f narrows the plots
// counted, typically to a creation date range.
func (s *Service) OfficerPerformance(ctx context.Context, p access.Principal, f plots.Filter) ([]OfficerPerformance, error) {
	var officers []officerRow
	err := s.db.WithContext(ctx).Table("users").
		Select("users.user_id, users.full_name, users.username, circles.name AS circle_name").
		Joins("LEFT JOIN circles ON circles.id = users.circle_id").
		Where("users.role = ? AND users.is_active = ?", access.RoleOfficer, true).
		Scan(&officers).Error
	if err != nil {
		return nil, fmt.Errorf("list officers: %w", err)
	}
	if len(officers) == 0 {
		return []OfficerPerformance{}, nil
	}

	var assigned []assignedRow
	err = s.scoped(ctx, p, f).
		Select("plots.assigned_officer_id, plots.current_status, plots.created_at, plots.completed_at").
		Where("plots.assigned_officer_id IS NOT NULL").
		Scan(&assigned).Error
	if err != nil {
		return nil, fmt.Errorf("assigned plots: %w", err)
	}
	byOfficer := make(map[string][]assignedRow)
	for _, a := range assigned {
		byOfficer[a.AssignedOfficerID] = append(byOfficer[a.AssignedOfficerID], a)
	}

	out := make([]OfficerPerformance, 0, len(officers))
	for _, o := range officers {
		perf := OfficerPerformance{
			OfficerID:      o.UserID,
			Name:           o.FullName,
			Circle:         notAvailable,
			AvgTimePerPlot: notAvailable,
			LastActivity:   notAvailable,
		}
		if perf.Name == "" {
			perf.Name = o.Username
		}
		if o.CircleName != nil {
			perf.Circle = *o.CircleName
		}

		var spans []resolutionSpan
		for _, a := range byOfficer[o.UserID] {
			switch {
			case a.CurrentStatus == plots.StatusCompleted:
				perf.CompletedPlots++
				spans = append(spans, resolutionSpan{CreatedAt: a.CreatedAt, CompletedAt: a.CompletedAt})
			case slices.Contains(openStatuses, a.CurrentStatus):
				perf.PendingPlots++
			}
		}
		perf.Efficiency = efficiency(perf.CompletedPlots, perf.PendingPlots)
		if days, ok := averageDays(spans); ok {
			perf.AvgTimePerPlot = formatDays(days)
		}

		last, err := s.lastActivity(ctx, o.UserID)
		if err != nil {
			return nil, err
		}
		if last != nil {
			perf.LastActivity = last.Format(displayDate)
		}
		out = append(out, perf)
	}

	slices.SortStableFunc(out, func(a, b OfficerPerformance) int {
		if a.Efficiency != b.Efficiency {
			if a.Efficiency > b.Efficiency {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}

func efficiency(completed, pending int64) int64 {
	if completed+pending == 0 {
		return 0
	}
	return int64(math.Round(float64(completed) / float64(completed+pending) * 100))
}

func (s *Service) lastActivity(ctx context.Context, officerID string) (*time.Time, error) {
	var entry plots.DemarcationLog
	err := s.db.WithContext(ctx).
		Where("officer_id = ? AND is_deleted = ?", officerID, false).
		Order("created_at DESC").
		Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last activity: %w", err)
	}
	return &entry.CreatedAt, nil
}
