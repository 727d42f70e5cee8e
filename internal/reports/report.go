package reports

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/landrecords/demarcation-backend/internal/access"
	"github.com/landrecords/demarcation-backend/internal/apperr"
	"github.com/landrecords/demarcation-backend/internal/plots"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel"
	FormatPDF   Format = "pdf"
)

var formats = map[Format]struct {
	ext         string
	contentType string
}{
	FormatCSV:   {".csv", "text/csv"},
	FormatExcel: {".xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	FormatPDF:   {".pdf", "application/pdf"},
}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "excel", "xlsx":
		return FormatExcel, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", apperr.UnsupportedFormat(s)
}

type Kind string

const (
	KindPlotStatus         Kind = "plotStatus"
	KindOfficerPerformance Kind = "officerPerformance"
	KindVillageStats       Kind = "villageStats"
)

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plotstatus", "plot-status":
		return KindPlotStatus, nil
	case "officerperformance", "officer-performance":
		return KindOfficerPerformance, nil
	case "villagestats", "village-stats":
		return KindVillageStats, nil
	}
	return "", apperr.Validation("Report type must be one of plotStatus, officerPerformance, villageStats")
}

var titles = map[Kind]string{
	KindPlotStatus:         "plot status report",
	KindOfficerPerformance: "officer performance report",
	KindVillageStats:       "village statistics report",
}

type ReportRequest struct {
	Type   string
	Format string
	From   *time.Time
	To     *time.Time
}

// GenerateReport builds the requested report over plots created between
// From and To, both days inclusive, and renders it in the requested format.
func (s *Service) GenerateReport(ctx context.Context, p access.Principal, req ReportRequest) (Report, error) {
	format, err := ParseFormat(req.Format)
	if err != nil {
		return Report{}, err
	}
	kind, err := ParseKind(req.Type)
	if err != nil {
		return Report{}, err
	}

	f := plots.Filter{From: req.From, To: req.To, SortBy: plots.SortCreated}
	var table Table
	switch kind {
	case KindPlotStatus:
		table, err = s.plotStatusTable(ctx, p, f)
	case KindOfficerPerformance:
		table, err = s.officerPerformanceTable(ctx, p, f)
	case KindVillageStats:
		table, err = s.villageStatsTable(ctx, p, f)
	}
	if err != nil {
		return Report{}, err
	}
	if len(table.Rows) == 0 {
		return Report{}, apperr.NoData("No data available for report")
	}

	now := s.now()
	title := cases.Title(language.English).String(titles[kind])
	var data []byte
	switch format {
	case FormatCSV:
		data = CSV(table)
	case FormatExcel:
		data, err = Excel(title, table)
	case FormatPDF:
		data, err = PDF(title, table, now)
	}
	if err != nil {
		return Report{}, fmt.Errorf("render %s report: %w", format, err)
	}

	return Report{
		Title:       title,
		Filename:    strings.ReplaceAll(title, " ", "_") + "_" + now.Format("2006-01-02") + formats[format].ext,
		ContentType: formats[format].contentType,
		Data:        data,
	}, nil
}

func (s *Service) plotStatusTable(ctx context.Context, p access.Principal, f plots.Filter) (Table, error) {
	var rows []struct {
		PlotNumber    string
		KhasraNumber  string
		VillageName   *string
		CircleName    *string
		OwnerName     string
		Area          float64
		AreaUnit      string
		CurrentStatus plots.Status
		Priority      plots.Priority
		CreatedAt     time.Time
	}
	err := plots.Ordered(s.scoped(ctx, p, f), f).
		Select("plots.plot_number, plots.khasra_number, villages.name AS village_name, circles.name AS circle_name, " +
			"plots.owner_name, plots.area, plots.area_unit, plots.current_status, plots.priority, plots.created_at").
		Joins("LEFT JOIN villages ON villages.id = plots.village_id").
		Joins("LEFT JOIN circles ON circles.id = plots.circle_id").
		Scan(&rows).Error
	if err != nil {
		return Table{}, fmt.Errorf("plot status report: %w", err)
	}

	t := Table{Columns: []string{
		"plot_number", "khasra_number", "village_name", "circle_name", "owner_name",
		"area", "status", "priority", "created_date",
	}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			r.PlotNumber,
			r.KhasraNumber,
			orUnknown(r.VillageName),
			orUnknown(r.CircleName),
			r.OwnerName,
			strings.TrimSpace(strconv.FormatFloat(r.Area, 'f', -1, 64) + " " + r.AreaUnit),
			string(r.CurrentStatus),
			string(r.Priority),
			r.CreatedAt.Format(displayDate),
		})
	}
	return t, nil
}

func (s *Service) officerPerformanceTable(ctx context.Context, p access.Principal, f plots.Filter) (Table, error) {
	perf, err := s.OfficerPerformance(ctx, p, f)
	if err != nil {
		return Table{}, err
	}
	t := Table{Columns: []string{
		"name", "circle", "completed_plots", "pending_plots", "efficiency", "avg_time_per_plot", "last_activity",
	}}
	for _, o := range perf {
		t.Rows = append(t.Rows, []string{
			o.Name,
			o.Circle,
			strconv.FormatInt(o.CompletedPlots, 10),
			strconv.FormatInt(o.PendingPlots, 10),
			strconv.FormatInt(o.Efficiency, 10),
			o.AvgTimePerPlot,
			o.LastActivity,
		})
	}
	return t, nil
}

func (s *Service) villageStatsTable(ctx context.Context, p access.Principal, f plots.Filter) (Table, error) {
	var rows []struct {
		VillageName   *string
		CurrentStatus plots.Status
		CreatedAt     time.Time
		CompletedAt   *time.Time
	}
	err := s.scoped(ctx, p, f).
		Select("villages.name AS village_name, plots.current_status, plots.created_at, plots.completed_at").
		Joins("LEFT JOIN villages ON villages.id = plots.village_id").
		Scan(&rows).Error
	if err != nil {
		return Table{}, fmt.Errorf("village stats report: %w", err)
	}

	type villageAgg struct {
		name                   string
		total, completed, open int64
		spans                  []resolutionSpan
	}
	byName := make(map[string]*villageAgg)
	for _, r := range rows {
		name := orUnknown(r.VillageName)
		agg, ok := byName[name]
		if !ok {
			agg = &villageAgg{name: name}
			byName[name] = agg
		}
		agg.total++
		switch {
		case r.CurrentStatus == plots.StatusCompleted:
			agg.completed++
			agg.spans = append(agg.spans, resolutionSpan{CreatedAt: r.CreatedAt, CompletedAt: r.CompletedAt})
		case slices.Contains(openStatuses, r.CurrentStatus):
			agg.open++
		}
	}

	aggs := make([]*villageAgg, 0, len(byName))
	for _, agg := range byName {
		aggs = append(aggs, agg)
	}
	slices.SortFunc(aggs, func(a, b *villageAgg) int {
		if a.total != b.total {
			if a.total > b.total {
				return -1
			}
			return 1
		}
		return strings.Compare(a.name, b.name)
	})

	t := Table{Columns: []string{"village_name", "total_plots", "completed_plots", "pending_plots", "avg_resolution_days"}}
	for _, agg := range aggs {
		avg := notAvailable
		if days, ok := averageDays(agg.spans); ok {
			avg = formatDays(days)
		}
		t.Rows = append(t.Rows, []string{
			agg.name,
			strconv.FormatInt(agg.total, 10),
			strconv.FormatInt(agg.completed, 10),
			strconv.FormatInt(agg.open, 10),
			avg,
		})
	}
	return t, nil
}

func orUnknown(s *string) string {
	if s == nil || *s == "" {
		return unknown
	}
	return *s
}
