package seeds

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/landrecords/demarcation-backend/internal/apperr"
	"github.com/landrecords/demarcation-backend/internal/auth"
	"github.com/landrecords/demarcation-backend/internal/geo"
	"gorm.io/gorm"
)

// File is the YAML seed document: the district/circle/village tree plus
// the staff accounts that bootstrap the portal.
type File struct {
	Districts []DistrictSeed `yaml:"districts"`
	Users     []UserSeed     `yaml:"users"`
}

type DistrictSeed struct {
	Name    string       `yaml:"name"`
	Code    string       `yaml:"code"`
	Circles []CircleSeed `yaml:"circles"`
}

type CircleSeed struct {
	Name     string        `yaml:"name"`
	Code     string        `yaml:"code"`
	Villages []VillageSeed `yaml:"villages"`
}

type VillageSeed struct {
	Name string `yaml:"name"`
	Code string `yaml:"code"`
}

// UserSeed is a staff account. CircleCode is required for officers.
type UserSeed struct {
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	FullName   string `yaml:"full_name"`
	Email      string `yaml:"email"`
	EmployeeID string `yaml:"employee_id"`
	Role       string `yaml:"role"`
	CircleCode string `yaml:"circle_code"`
}

type Counts struct {
	Districts int
	Circles   int
	Villages  int
	Users     int
	Skipped   int
}

func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("could not read %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return f, f.Validate()
}

// Validate checks that codes are present and unique and that every officer
// points at a circle defined in the file.
func (f File) Validate() error {
	districts := map[string]bool{}
	circles := map[string]bool{}
	for _, d := range f.Districts {
		if d.Name == "" || d.Code == "" {
			return fmt.Errorf("district %q: name and code are required", d.Name)
		}
		if districts[d.Code] {
			return fmt.Errorf("duplicate district code %s", d.Code)
		}
		districts[d.Code] = true
		for _, c := range d.Circles {
			if c.Name == "" || c.Code == "" {
				return fmt.Errorf("circle %q in %s: name and code are required", c.Name, d.Code)
			}
			if circles[c.Code] {
				return fmt.Errorf("duplicate circle code %s", c.Code)
			}
			circles[c.Code] = true
			for _, v := range c.Villages {
				if v.Name == "" || v.Code == "" {
					return fmt.Errorf("village %q in circle %s: name and code are required", v.Name, c.Code)
				}
			}
		}
	}
	for _, u := range f.Users {
		if u.Username == "" {
			return errors.New("user without username")
		}
		if u.CircleCode != "" && !circles[u.CircleCode] {
			return fmt.Errorf("user %s: unknown circle %s", u.Username, u.CircleCode)
		}
	}
	return nil
}

// SeedAll writes the file into the database. Rows that already exist, matched
// by code or username, are left alone, so running it twice is harmless.
func SeedAll(ctx context.Context, d *gorm.DB, f File) (Counts, error) {
	var counts Counts
	geoSvc := geo.NewService(d)
	authSvc := auth.NewService(d, geoSvc, 0)
	circleIDs := map[string]string{}

	for _, ds := range f.Districts {
		district, created, err := firstOrCreate(ctx, d, func() (geo.District, error) {
			return geoSvc.CreateDistrict(ctx, geo.District{Name: ds.Name, Code: ds.Code})
		}, "code = ?", ds.Code)
		if err != nil {
			return counts, fmt.Errorf("district %s: %w", ds.Code, err)
		}
		tally(&counts.Districts, &counts.Skipped, created)

		for _, cs := range ds.Circles {
			circle, created, err := firstOrCreate(ctx, d, func() (geo.Circle, error) {
				return geoSvc.CreateCircle(ctx, geo.Circle{Name: cs.Name, Code: cs.Code, DistrictID: district.ID})
			}, "code = ?", cs.Code)
			if err != nil {
				return counts, fmt.Errorf("circle %s: %w", cs.Code, err)
			}
			tally(&counts.Circles, &counts.Skipped, created)
			circleIDs[cs.Code] = circle.ID

			for _, vs := range cs.Villages {
				_, created, err := firstOrCreate(ctx, d, func() (geo.Village, error) {
					return geoSvc.CreateVillage(ctx, geo.Village{Name: vs.Name, Code: vs.Code, CircleID: circle.ID})
				}, "circle_id = ? AND code = ?", circle.ID, vs.Code)
				if err != nil {
					return counts, fmt.Errorf("village %s: %w", vs.Name, err)
				}
				tally(&counts.Villages, &counts.Skipped, created)
			}
		}
	}

	for _, us := range f.Users {
		in := auth.NewUser{
			Username:   us.Username,
			Password:   us.Password,
			FullName:   us.FullName,
			Email:      us.Email,
			EmployeeID: us.EmployeeID,
			Role:       strings.ToLower(us.Role),
		}
		if us.CircleCode != "" {
			id := circleIDs[us.CircleCode]
			in.CircleID = &id
		}
		_, err := authSvc.CreateStaff(ctx, in)
		switch {
		case apperr.Is(err, apperr.KindConflict):
			log.Printf("user exists, skipping: %s", us.Username)
			counts.Skipped++
		case err != nil:
			return counts, fmt.Errorf("user %s: %w", us.Username, err)
		default:
			counts.Users++
		}
	}
	return counts, nil
}

// firstOrCreate loads the row matching where/args or calls create.
func firstOrCreate[T any](ctx context.Context, d *gorm.DB, create func() (T, error), where string, args ...any) (T, bool, error) {
	var existing T
	err := d.WithContext(ctx).Where(where, args...).First(&existing).Error
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return existing, false, err
	}
	row, err := create()
	return row, true, err
}

func tally(created, skipped *int, wasCreated bool) {
	if wasCreated {
		*created++
	} else {
		*skipped++
	}
}
