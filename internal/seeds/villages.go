package seeds

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/landrecords/demarcation-backend/internal/geo"
	"gorm.io/gorm"
)

// VillageRow is one line of a village import:
// circle_code,name,code
type VillageRow struct {
	CircleCode string
	Name       string
	Code       string
}

// ReadVillagesCSV parses a village import. Column order is free; the header
// names the columns.
func ReadVillagesCSV(src io.Reader) ([]VillageRow, error) {
	r := csv.NewReader(bufio.NewReader(src))
	r.TrimLeadingSpace = true

	headers, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := map[string]int{}
	for i, h := range headers {
		idx[strings.TrimSpace(h)] = i
	}
	for _, k := range []string{"circle_code", "name", "code"} {
		if _, ok := idx[k]; !ok {
			return nil, fmt.Errorf("missing required column: %s", k)
		}
	}

	var out []VillageRow
	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv read: %w", err)
		}
		row := VillageRow{
			CircleCode: strings.TrimSpace(rec[idx["circle_code"]]),
			Name:       strings.TrimSpace(rec[idx["name"]]),
			Code:       strings.TrimSpace(rec[idx["code"]]),
		}
		if row.CircleCode == "" || row.Name == "" || row.Code == "" {
			return nil, fmt.Errorf("line %d: circle_code, name and code are required", line)
		}
		out = append(out, row)
	}
	if len(out) == 0 {
		return nil, errors.New("CSV has no data rows")
	}
	return out, nil
}

// ImportVillages adds the rows to circles that already exist. Villages whose
// code is already used in the circle are skipped.
func ImportVillages(ctx context.Context, d *gorm.DB, rows []VillageRow) (Counts, error) {
	var counts Counts
	geoSvc := geo.NewService(d)
	circleIDs := map[string]string{}

	for _, row := range rows {
		circleID, ok := circleIDs[row.CircleCode]
		if !ok {
			var c geo.Circle
			err := d.WithContext(ctx).Where("code = ?", row.CircleCode).First(&c).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return counts, fmt.Errorf("village %s: unknown circle %s", row.Code, row.CircleCode)
			}
			if err != nil {
				return counts, err
			}
			circleID = c.ID
			circleIDs[row.CircleCode] = circleID
		}

		_, created, err := firstOrCreate(ctx, d, func() (geo.Village, error) {
			return geoSvc.CreateVillage(ctx, geo.Village{Name: row.Name, Code: row.Code, CircleID: circleID})
		}, "circle_id = ? AND code = ?", circleID, row.Code)
		if err != nil {
			return counts, fmt.Errorf("village %s: %w", row.Code, err)
		}
		tally(&counts.Villages, &counts.Skipped, created)
	}
	return counts, nil
}
