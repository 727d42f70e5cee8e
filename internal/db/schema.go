package db

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Index describes a secondary index that gorm struct tags cannot express,
// typically a partial index.
type Index struct {
	Name    string
	Table   string
	Columns []string
	Where   string
}

// EnsureIndex creates idx if it does not exist. The statement is portable
// between Postgres and SQLite.
func EnsureIndex(d *gorm.DB, idx Index) error {
	if idx.Name == "" || idx.Table == "" || len(idx.Columns) == 0 {
		return fmt.Errorf("index definition incomplete: %+v", idx)
	}
	cols := make([]string, len(idx.Columns))
	for i, c := range idx.Columns {
		cols[i] = pq.QuoteIdentifier(c)
	}
	stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
		pq.QuoteIdentifier(idx.Name), pq.QuoteIdentifier(idx.Table), strings.Join(cols, ", "))
	if idx.Where != "" {
		stmt += " WHERE " + idx.Where
	}
	return d.Exec(stmt).Error
}
