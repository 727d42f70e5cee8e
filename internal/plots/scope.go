package plots

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/landrecords/demarcation-backend/internal/access"
	"github.com/landrecords/demarcation-backend/internal/apperr"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

type SortKey string

const (
	SortUpdated SortKey = "updated"
	SortCreated SortKey = "created"
)

// Filter holds the optional, caller-supplied plot filters. From and To are
// calendar days and both are inclusive.
type Filter struct {
	Status            Status
	PlotType          PlotType
	Priority          Priority
	VillageID         string
	CircleID          string
	Search            string
	IsDuplicate       *bool
	AssignedOfficerID string
	SortBy            SortKey
	From              *time.Time
	To                *time.Time
}

// FilterFromQuery parses list filters from a request query string.
func FilterFromQuery(q url.Values) (Filter, error) {
	var f Filter
	var err error

	if v := q.Get("status"); v != "" {
		if f.Status, err = ParseStatus(v); err != nil {
			return Filter{}, apperr.Validation("Invalid status filter")
		}
	}
	if v := q.Get("plot_type"); v != "" {
		if f.PlotType, err = ParsePlotType(v); err != nil {
			return Filter{}, apperr.Validation("Invalid plot type filter")
		}
	}
	if v := q.Get("priority"); v != "" {
		if f.Priority, err = ParsePriority(v); err != nil {
			return Filter{}, apperr.Validation("Invalid priority filter")
		}
	}
	if v := q.Get("is_duplicate"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Filter{}, apperr.Validation("Invalid is_duplicate filter")
		}
		f.IsDuplicate = &b
	}
	switch SortKey(q.Get("sort")) {
	case "", SortUpdated:
		f.SortBy = SortUpdated
	case SortCreated:
		f.SortBy = SortCreated
	default:
		return Filter{}, apperr.Validation("Invalid sort key")
	}
	if f.From, err = parseDay(q.Get("from")); err != nil {
		return Filter{}, err
	}
	if f.To, err = parseDay(q.Get("to")); err != nil {
		return Filter{}, err
	}

	f.VillageID = q.Get("village_id")
	f.CircleID = q.Get("circle_id")
	f.AssignedOfficerID = q.Get("assigned_officer_id")
	f.Search = strings.TrimSpace(q.Get("search"))
	return f, nil
}

func parseDay(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return nil, apperr.Validation("Dates must use YYYY-MM-DD")
	}
	return &t, nil
}

// Scope constrains q, a query over the plots table, to what p may see and
// then applies f. Citizens are pinned to their own plots and officers to
// their circle, whatever f says. An officer without a circle sees nothing.
func Scope(q *gorm.DB, p access.Principal, f Filter) *gorm.DB {
	switch {
	case p.Role == access.RoleCitizen:
		q = q.Where("plots.owner_id = ?", p.UserID)
	case p.Role == access.RoleOfficer:
		if p.CircleID == nil || *p.CircleID == "" {
			return q.Where("1 = 0")
		}
		q = q.Where("plots.circle_id = ?", *p.CircleID)
	case p.Role.Unscoped():
		if f.CircleID != "" {
			q = q.Where("plots.circle_id = ?", f.CircleID)
		}
	default:
		return q.Where("1 = 0")
	}

	if f.Status != "" {
		q = q.Where("plots.current_status = ?", f.Status)
	}
	if f.PlotType != "" {
		q = q.Where("plots.plot_type = ?", f.PlotType)
	}
	if f.Priority != "" {
		q = q.Where("plots.priority = ?", f.Priority)
	}
	if f.VillageID != "" {
		q = q.Where("plots.village_id = ?", f.VillageID)
	}
	if f.IsDuplicate != nil {
		q = q.Where("plots.is_duplicate = ?", *f.IsDuplicate)
	}
	if f.AssignedOfficerID != "" {
		q = q.Where("plots.assigned_officer_id = ?", f.AssignedOfficerID)
	}
	if f.Search != "" {
		pattern := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where("(LOWER(plots.plot_number) LIKE ? OR LOWER(plots.khasra_number) LIKE ?)", pattern, pattern)
	}
	if f.From != nil {
		q = q.Where("plots.created_at >= ?", startOfDay(*f.From))
	}
	if f.To != nil {
		q = q.Where("plots.created_at < ?", startOfDay(*f.To).AddDate(0, 0, 1))
	}
	return q
}

// Ordered applies the filter's sort key, most recent first.
func Ordered(q *gorm.DB, f Filter) *gorm.DB {
	if f.SortBy == SortCreated {
		return q.Order("plots.created_at DESC")
	}
	return q.Order("plots.updated_at DESC")
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// visible applies the same rules as Scope to a single loaded plot.
func visible(p access.Principal, plot Plot) bool {
	switch {
	case p.Role.Unscoped():
		return true
	case p.Role == access.RoleOfficer:
		return p.InCircle(plot.CircleID)
	case p.Role == access.RoleCitizen:
		return plot.OwnerID != nil && *plot.OwnerID == p.UserID
	}
	return false
}
