package plots

import (
	"github.com/landrecords/demarcation-backend/internal/db"
	"gorm.io/gorm"
)

func Migrate(d *gorm.DB) error {
	if err := d.AutoMigrate(&Plot{}, &DemarcationLog{}, &PlotAssignment{}); err != nil {
		return err
	}
	return db.EnsureIndex(d, db.Index{
		Name:    "idx_demarcation_logs_live",
		Table:   "demarcation_logs",
		Columns: []string{"plot_id", "created_at"},
		Where:   "is_deleted = false",
	})
}
