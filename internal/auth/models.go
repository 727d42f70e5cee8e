package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/landrecords/demarcation-backend/internal/access"
	"gorm.io/gorm"
)

type Session struct {
	SessionID string    `gorm:"type:uuid;primaryKey" json:"-"`
	UserID    string    `gorm:"type:uuid;not null;unique" json:"-"`
	ExpiresAt time.Time `gorm:"not null"`
}

// User is any portal account. Role is fixed at creation.
type User struct {
	UserID         string      `gorm:"type:uuid;primaryKey" json:"user_id"`
	Username       string      `gorm:"not null;uniqueIndex" json:"username"`
	FullName       string      `json:"full_name"`
	Email          string      `json:"email,omitempty"`
	Phone          string      `json:"phone,omitempty"`
	EmployeeID     string      `json:"employee_id,omitempty"`
	Role           access.Role `gorm:"type:varchar(32);not null;index" json:"role"`
	CircleID       *string     `gorm:"type:uuid;index" json:"circle_id,omitempty"`
	IsActive       bool        `gorm:"not null" json:"is_active"`
	HashedPassword string      `gorm:"not null" json:"-"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

func (Session) TableName() string { return "sessions" }
func (User) TableName() string    { return "users" }

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.UserID == "" {
		u.UserID = uuid.NewString()
	}
	return nil
}

// DisplayName prefers the full name and falls back to the username.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
