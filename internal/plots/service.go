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
	"github.com/landrecords/demarcation-backend/internal/auth"
	"github.com/landrecords/demarcation-backend/internal/geo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VillageLookup interface {
	GetVillage(ctx context.Context, id string) (geo.Village, error)
}

type UserLookup interface {
	GetUser(ctx context.Context, id string) (auth.User, error)
}

// Service owns the plot lifecycle and the demarcation log stream.
type Service struct {
	db       *gorm.DB
	villages VillageLookup
	users    UserLookup
	now      func() time.Time
}

func NewService(d *gorm.DB, villages VillageLookup, users UserLookup) *Service {
	return &Service{db: d, villages: villages, users: users, now: time.Now}
}

var errPlotNotFound = apperr.NotFound("Plot not found or you do not have access")

type CreatePlotInput struct {
	KhasraNumber string   `json:"khasra_number"`
	VillageID    string   `json:"village_id"`
	Area         float64  `json:"area"`
	AreaUnit     string   `json:"area_unit"`
	PlotType     string   `json:"plot_type"`
	RequestType  string   `json:"request_type"`
	Priority     string   `json:"priority"`
	OwnerID      *string  `json:"owner_id"`
	OwnerName    string   `json:"owner_name"`
	OwnerContact string   `json:"owner_contact"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Description  string   `json:"description"`
}

func (in CreatePlotInput) validate() error {
	var missing []string
	if strings.TrimSpace(in.KhasraNumber) == "" {
		missing = append(missing, "khasra_number")
	}
	if strings.TrimSpace(in.VillageID) == "" {
		missing = append(missing, "village_id")
	}
	if in.Area <= 0 {
		missing = append(missing, "area")
	}
	if strings.TrimSpace(in.RequestType) == "" {
		missing = append(missing, "request_type")
	}
	if len(missing) > 0 {
		return apperr.Validation("Missing required fields: " + strings.Join(missing, ", "))
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return apperr.Validation("Latitude and longitude must be given together")
	}
	if in.Latitude != nil && (math.Abs(*in.Latitude) > 90 || math.Abs(*in.Longitude) > 180) {
		return apperr.Validation("Coordinates out of range")
	}
	return nil
}

// CreatePlot records a new demarcation request together with its submission
// log. A matching (khasra, village) pair flags the plot as a duplicate of the
// earliest non-duplicate plot with that pair.
func (s *Service) CreatePlot(ctx context.Context, p access.Principal, in CreatePlotInput) (Plot, error) {
	if !p.Can(access.CapCreatePlot) {
		return Plot{}, apperr.Forbidden("You are not allowed to create plots")
	}
	if err := in.validate(); err != nil {
		return Plot{}, err
	}

	plotType := PlotAgricultural
	if in.PlotType != "" {
		t, err := ParsePlotType(in.PlotType)
		if err != nil {
			return Plot{}, apperr.Validation("Invalid plot type")
		}
		plotType = t
	}
	priority := PriorityMedium
	if in.Priority != "" {
		pr, err := ParsePriority(in.Priority)
		if err != nil {
			return Plot{}, apperr.Validation("Invalid priority")
		}
		priority = pr
	}

	if p.Role == access.RoleCitizen {
		if in.OwnerID != nil && *in.OwnerID != p.UserID {
			return Plot{}, apperr.Forbidden("Citizens can only submit requests for their own plots")
		}
		owner := p.UserID
		in.OwnerID = &owner
		if strings.TrimSpace(in.OwnerName) == "" {
			u, err := s.users.GetUser(ctx, p.UserID)
			if err != nil {
				return Plot{}, err
			}
			in.OwnerName = u.DisplayName()
		}
	} else if in.OwnerID == nil && strings.TrimSpace(in.OwnerName) == "" {
		return Plot{}, apperr.Validation("Owner name is required")
	}

	village, err := s.villages.GetVillage(ctx, in.VillageID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return Plot{}, apperr.Validation("Village does not exist")
		}
		return Plot{}, err
	}
	if p.Role == access.RoleOfficer && !p.InCircle(village.CircleID) {
		return Plot{}, apperr.Forbidden("Village is outside your circle")
	}

	areaUnit := strings.TrimSpace(in.AreaUnit)
	if areaUnit == "" {
		areaUnit = "acres"
	}
	plot := Plot{
		KhasraNumber:  strings.TrimSpace(in.KhasraNumber),
		VillageID:     village.ID,
		CircleID:      village.CircleID,
		PlotType:      plotType,
		RequestType:   strings.TrimSpace(in.RequestType),
		Area:          in.Area,
		AreaUnit:      areaUnit,
		OwnerID:       in.OwnerID,
		OwnerName:     strings.TrimSpace(in.OwnerName),
		OwnerContact:  strings.TrimSpace(in.OwnerContact),
		CurrentStatus: StatusPending,
		Priority:      priority,
		Latitude:      in.Latitude,
		Longitude:     in.Longitude,
	}

	description := strings.TrimSpace(in.Description)
	if description == "" {
		description = "Demarcation request submitted"
	}
	entry := DemarcationLog{
		ActivityType: ActivitySubmission,
		Description:  description,
		Status:       statusPtr(StatusPending),
	}
	if p.Role.Staff() {
		entry.OfficerID = &p.UserID
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		canonical, err := findCanonical(tx, plot.KhasraNumber, plot.VillageID)
		if err != nil {
			return err
		}
		if canonical != nil {
			plot.IsDuplicate = true
			plot.DuplicateOfID = &canonical.ID
		}
		if err := tx.Create(&plot).Error; err != nil {
			return fmt.Errorf("insert plot: %w", err)
		}
		return s.appendLogTx(tx, &plot, &entry)
	})
	if err != nil {
		return Plot{}, err
	}
	return plot, nil
}

// findCanonical returns the earliest non-duplicate plot with the same
// khasra number in the same village, or nil.
func findCanonical(tx *gorm.DB, khasra, villageID string) (*Plot, error) {
	var existing Plot
	err := tx.Where("khasra_number = ? AND village_id = ? AND is_duplicate = ?", khasra, villageID, false).
		Order("created_at ASC").
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("duplicate lookup: %w", err)
	}
	return &existing, nil
}

// GetPlot does not distinguish a missing plot from one the caller may not see.
func (s *Service) GetPlot(ctx context.Context, p access.Principal, id string) (Plot, error) {
	return loadVisible(s.db.WithContext(ctx), p, id, false)
}

func loadVisible(q *gorm.DB, p access.Principal, id string, forUpdate bool) (Plot, error) {
	var plot Plot
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(&plot, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Plot{}, errPlotNotFound
		}
		return Plot{}, fmt.Errorf("load plot: %w", err)
	}
	if !visible(p, plot) {
		return Plot{}, errPlotNotFound
	}
	return plot, nil
}

// authorizeStatusChange lets supervisors and administrators change any plot,
// and officers only the plots assigned to them inside their circle.
func authorizeStatusChange(p access.Principal, plot Plot) error {
	if !p.Can(access.CapUpdateStatus) {
		return apperr.Forbidden("You are not allowed to change plot status")
	}
	if p.Role.Unscoped() {
		return nil
	}
	if plot.AssignedOfficerID == nil || *plot.AssignedOfficerID != p.UserID || !p.InCircle(plot.CircleID) {
		return apperr.Forbidden("Only the assigned officer can update this plot")
	}
	return nil
}

func (s *Service) UpdateStatus(ctx context.Context, p access.Principal, plotID, newStatus, description string) (Plot, error) {
	status, err := ParseStatus(newStatus)
	if err != nil {
		return Plot{}, apperr.Validation("Invalid status value")
	}
	if !p.Can(access.CapUpdateStatus) {
		return Plot{}, apperr.Forbidden("You are not allowed to change plot status")
	}

	var plot Plot
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		plot, err = loadVisible(tx, p, plotID, true)
		if err != nil {
			return err
		}
		if err := authorizeStatusChange(p, plot); err != nil {
			return err
		}
		if err := checkTransition(plot.CurrentStatus, status); err != nil {
			return err
		}
		description = strings.TrimSpace(description)
		if description == "" {
			description = fmt.Sprintf("Status updated to %s", status)
		}
		return s.appendLogTx(tx, &plot, &DemarcationLog{
			OfficerID:    &p.UserID,
			ActivityType: ActivityStatusUpdate,
			Description:  description,
			Status:       statusPtr(status),
		})
	})
	if err != nil {
		return Plot{}, err
	}
	return plot, nil
}

// AssignOfficer hands a plot to an officer serving the plot's circle. A
// pending plot moves to in_progress.
func (s *Service) AssignOfficer(ctx context.Context, p access.Principal, plotID, officerID, notes string) (Plot, error) {
	if !p.Can(access.CapAssignOfficer) {
		return Plot{}, apperr.Forbidden("Only supervisors can assign officers")
	}
	if officerID == "" {
		return Plot{}, apperr.Validation("officer_id is required")
	}
	officer, err := s.users.GetUser(ctx, officerID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return Plot{}, apperr.Validation("Officer does not exist")
		}
		return Plot{}, err
	}
	if officer.Role != access.RoleOfficer || !officer.IsActive {
		return Plot{}, apperr.Validation("Target user is not an active officer")
	}

	var plot Plot
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		plot, err = loadVisible(tx, p, plotID, true)
		if err != nil {
			return err
		}
		if plot.CurrentStatus.Terminal() {
			return apperr.Conflict(fmt.Sprintf("Plot is %s and cannot be reassigned", plot.CurrentStatus))
		}
		if officer.CircleID == nil || *officer.CircleID != plot.CircleID {
			return apperr.Validation("Officer does not serve this plot's circle")
		}

		now := s.now()
		if err := tx.Model(&PlotAssignment{}).
			Where("plot_id = ? AND is_active = ?", plot.ID, true).
			Update("is_active", false).Error; err != nil {
			return fmt.Errorf("deactivate assignments: %w", err)
		}
		if err := tx.Create(&PlotAssignment{
			PlotID:     plot.ID,
			OfficerID:  officer.UserID,
			AssignedBy: p.UserID,
			AssignedAt: now,
			IsActive:   true,
			Notes:      strings.TrimSpace(notes),
		}).Error; err != nil {
			return fmt.Errorf("insert assignment: %w", err)
		}
		if err := tx.Model(&Plot{}).Where("id = ?", plot.ID).
			Update("assigned_officer_id", officer.UserID).Error; err != nil {
			return fmt.Errorf("set officer: %w", err)
		}
		plot.AssignedOfficerID = &officer.UserID

		entry := DemarcationLog{
			OfficerID:    &p.UserID,
			ActivityType: ActivityAssignment,
			Description:  fmt.Sprintf("Assigned to %s", officer.DisplayName()),
		}
		if plot.CurrentStatus == StatusPending {
			entry.Status = statusPtr(StatusInProgress)
		}
		return s.appendLogTx(tx, &plot, &entry)
	})
	if err != nil {
		return Plot{}, err
	}
	return plot, nil
}

func (s *Service) ListPlots(ctx context.Context, p access.Principal, f Filter) ([]Plot, error) {
	var out []Plot
	q := Ordered(Scope(s.db.WithContext(ctx).Model(&Plot{}), p, f), f)
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list plots: %w", err)
	}
	return out, nil
}

// ListAssigned returns the officer's plots according to active assignments.
func (s *Service) ListAssigned(ctx context.Context, p access.Principal, f Filter) ([]Plot, error) {
	var out []Plot
	q := Scope(s.db.WithContext(ctx).Model(&Plot{}), p, f).
		Where("plots.id IN (?)", s.db.Model(&PlotAssignment{}).
			Select("plot_id").
			Where("officer_id = ? AND is_active = ?", p.UserID, true))
	if err := Ordered(q, f).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list assigned plots: %w", err)
	}
	return out, nil
}

type MapLocation struct {
	ID         string  `json:"id"`
	PlotNumber string  `json:"plot_number"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	Status     Status  `json:"status"`
}

func (s *Service) MapLocations(ctx context.Context, p access.Principal, f Filter) ([]MapLocation, error) {
	var rows []Plot
	q := Scope(s.db.WithContext(ctx).Model(&Plot{}), p, f).
		Where("plots.latitude IS NOT NULL AND plots.longitude IS NOT NULL").
		Select("id", "plot_number", "latitude", "longitude", "current_status")
	if err := Ordered(q, f).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("map locations: %w", err)
	}
	out := make([]MapLocation, 0, len(rows))
	for _, r := range rows {
		out = append(out, MapLocation{
			ID: r.ID, PlotNumber: r.PlotNumber, Lat: *r.Latitude, Lng: *r.Longitude, Status: r.CurrentStatus,
		})
	}
	return out, nil
}

// StatusCounts returns the number of plots per status within p's scope.
// Every status is present in the result.
func (s *Service) StatusCounts(ctx context.Context, p access.Principal, f Filter) (map[Status]int64, error) {
	var rows []struct {
		CurrentStatus Status
		Count         int64
	}
	err := Scope(s.db.WithContext(ctx).Model(&Plot{}), p, f).
		Select("plots.current_status AS current_status, COUNT(*) AS count").
		Group("plots.current_status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("status counts: %w", err)
	}
	out := make(map[Status]int64, len(AllStatuses))
	for _, st := range AllStatuses {
		out[st] = 0
	}
	for _, r := range rows {
		out[r.CurrentStatus] = r.Count
	}
	return out, nil
}

type CitizenStats struct {
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"in_progress"`
	Completed  int64 `json:"completed"`
	Rejected   int64 `json:"rejected"`
	Total      int64 `json:"total"`
}

func (s *Service) CitizenStats(ctx context.Context, p access.Principal) (CitizenStats, error) {
	counts, err := s.StatusCounts(ctx, p, Filter{})
	if err != nil {
		return CitizenStats{}, err
	}
	var total int64
	for _, c := range counts {
		total += c
	}
	return CitizenStats{
		Pending:    counts[StatusPending],
		InProgress: counts[StatusInProgress],
		Completed:  counts[StatusCompleted],
		Rejected:   counts[StatusRejected],
		Total:      total,
	}, nil
}

type OfficerDashboard struct {
	AssignedPlots  int64  `json:"assigned_plots"`
	PendingCases   int64  `json:"pending_cases"`
	CompletedToday int64  `json:"completed_today"`
	ResolutionRate string `json:"resolution_rate"`
}

func (s *Service) OfficerDashboard(ctx context.Context, p access.Principal) (OfficerDashboard, error) {
	base := func() *gorm.DB {
		return Scope(s.db.WithContext(ctx).Model(&Plot{}), p, Filter{AssignedOfficerID: p.UserID})
	}

	var out OfficerDashboard
	var completed int64
	if err := base().Count(&out.AssignedPlots).Error; err != nil {
		return OfficerDashboard{}, fmt.Errorf("assigned count: %w", err)
	}
	if err := base().Where("plots.current_status IN ?", []Status{StatusPending, StatusInProgress}).
		Count(&out.PendingCases).Error; err != nil {
		return OfficerDashboard{}, fmt.Errorf("pending count: %w", err)
	}
	if err := base().Where("plots.current_status = ?", StatusCompleted).Count(&completed).Error; err != nil {
		return OfficerDashboard{}, fmt.Errorf("completed count: %w", err)
	}
	if err := base().Where("plots.current_status = ? AND plots.completed_at >= ?", StatusCompleted, startOfDay(s.now())).
		Count(&out.CompletedToday).Error; err != nil {
		return OfficerDashboard{}, fmt.Errorf("completed today: %w", err)
	}
	out.ResolutionRate = Percent(completed, out.AssignedPlots)
	return out, nil
}

// Percent formats part/whole as a rounded percentage, "0%" for an empty whole.
func Percent(part, whole int64) string {
	if whole == 0 {
		return "0%"
	}
	return fmt.Sprintf("%d%%", int64(math.Round(float64(part)/float64(whole)*100)))
}

func statusPtr(s Status) *Status { return &s }
