package reports

type DashboardStats struct {
	TotalPlots        int64  `json:"total_plots"`
	CompletedPlots    int64  `json:"completed_plots"`
	PendingPlots      int64  `json:"pending_plots"`
	Villages          int64  `json:"villages"`
	ActiveOfficers    int64  `json:"active_officers"`
	DuplicatePlots    int64  `json:"duplicate_plots"`
	AvgResolutionTime string `json:"avg_resolution_time"`
	CompletionRate    string `json:"completion_rate"`
}

type Bucket struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

type OfficerPerformance struct {
	OfficerID      string `json:"officer_id"`
	Name           string `json:"name"`
	Circle         string `json:"circle"`
	CompletedPlots int64  `json:"completed_plots"`
	PendingPlots   int64  `json:"pending_plots"`
	Efficiency     int64  `json:"efficiency"`
	AvgTimePerPlot string `json:"avg_time_per_plot"`
	LastActivity   string `json:"last_activity"`
}

// Table is a report result ready for export. Columns are the raw keys; the
// Excel and PDF writers turn them into labels.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Report is a rendered export.
type Report struct {
	Title       string
	Filename    string
	ContentType string
	Data        []byte
}
