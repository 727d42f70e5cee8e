package auth

import (
	"github.com/landrecords/demarcation-backend/internal/utils"
	"gorm.io/gorm"
)

// SessionInfo resolves session cookies against the sessions and users tables.
type SessionInfo struct {
	DB *gorm.DB
}

func (si SessionInfo) FindSessionByID(id string) (utils.SessionData, error) {
	var session Session
	if err := si.DB.First(&session, "session_id = ?", id).Error; err != nil {
		return utils.SessionData{}, err
	}

	var user User
	if err := si.DB.First(&user, "user_id = ?", session.UserID).Error; err != nil {
		return utils.SessionData{}, err
	}

	return utils.SessionData{
		UserID:    user.UserID,
		Role:      user.Role,
		CircleID:  user.CircleID,
		IsActive:  user.IsActive,
		ExpiresAt: session.ExpiresAt,
	}, nil
}
