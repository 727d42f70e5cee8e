package geo

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type District struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Code      string    `gorm:"not null;uniqueIndex" json:"code"`
	CreatedAt time.Time `json:"created_at"`
}

type Circle struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string    `gorm:"not null" json:"name"`
	Code       string    `gorm:"not null;uniqueIndex" json:"code"`
	DistrictID string    `gorm:"type:uuid;not null;index" json:"district_id"`
	CreatedAt  time.Time `json:"created_at"`
}

type Village struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Code      string    `gorm:"uniqueIndex:idx_village_circle_code" json:"code"`
	CircleID  string    `gorm:"type:uuid;not null;index;uniqueIndex:idx_village_circle_code" json:"circle_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (District) TableName() string { return "districts" }
func (Circle) TableName() string   { return "circles" }
func (Village) TableName() string  { return "villages" }

func (d *District) BeforeCreate(*gorm.DB) error { d.ID = ensureID(d.ID); return nil }
func (c *Circle) BeforeCreate(*gorm.DB) error   { c.ID = ensureID(c.ID); return nil }
func (v *Village) BeforeCreate(*gorm.DB) error  { v.ID = ensureID(v.ID); return nil }

func ensureID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}
