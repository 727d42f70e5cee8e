package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/landrecords/demarcation-backend/internal/access"
	"github.com/landrecords/demarcation-backend/internal/apperr"
	"github.com/landrecords/demarcation-backend/internal/geo"
	"gorm.io/gorm"
)

// CircleLookup resolves circles for officer accounts.
type CircleLookup interface {
	GetCircle(ctx context.Context, id string) (geo.Circle, error)
}

type Service struct {
	db         *gorm.DB
	circles    CircleLookup
	sessionTTL time.Duration
	now        func() time.Time
}

func NewService(d *gorm.DB, circles CircleLookup, sessionTTL time.Duration) *Service {
	if sessionTTL <= 0 {
		sessionTTL = 6 * time.Hour
	}
	return &Service{db: d, circles: circles, sessionTTL: sessionTTL, now: time.Now}
}

type NewUser struct {
	Username   string  `json:"username"`
	Password   string  `json:"password"`
	FullName   string  `json:"full_name"`
	Email      string  `json:"email"`
	Phone      string  `json:"phone"`
	EmployeeID string  `json:"employee_id"`
	Role       string  `json:"role"`
	CircleID   *string `json:"circle_id"`
}

// Register creates a citizen account. Any role in the input is ignored.
func (s *Service) Register(ctx context.Context, in NewUser) (User, error) {
	in.Role = string(access.RoleCitizen)
	in.CircleID = nil
	in.EmployeeID = ""
	return s.create(ctx, in)
}

// CreateStaff creates an officer, supervisor or administrator account.
// Officers must be attached to an existing circle.
func (s *Service) CreateStaff(ctx context.Context, in NewUser) (User, error) {
	role, err := access.ParseRole(strings.ToLower(strings.TrimSpace(in.Role)))
	if err != nil || !role.Staff() {
		return User{}, apperr.Validation("Role must be officer, supervisor or administrator")
	}
	in.Role = string(role)
	if role == access.RoleOfficer {
		if in.CircleID == nil || *in.CircleID == "" {
			return User{}, apperr.Validation("Officers must be assigned to a circle")
		}
		if _, err := s.circles.GetCircle(ctx, *in.CircleID); err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				return User{}, apperr.Validation("Circle does not exist")
			}
			return User{}, err
		}
	}
	return s.create(ctx, in)
}

func (s *Service) create(ctx context.Context, in NewUser) (User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" || in.Password == "" {
		return User{}, apperr.Validation("Username and password are required")
	}
	if err := ValidatePassword(in.Password); err != nil {
		return User{}, err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&User{}).Where("username = ?", in.Username).Count(&count).Error; err != nil {
		return User{}, fmt.Errorf("check username: %w", err)
	}
	if count > 0 {
		return User{}, apperr.Conflict("Username already taken")
	}

	hashed, err := hashPassword(in.Password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	user := User{
		Username:       in.Username,
		FullName:       strings.TrimSpace(in.FullName),
		Email:          strings.TrimSpace(in.Email),
		Phone:          strings.TrimSpace(in.Phone),
		EmployeeID:     strings.TrimSpace(in.EmployeeID),
		Role:           access.Role(in.Role),
		CircleID:       in.CircleID,
		IsActive:       true,
		HashedPassword: hashed,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

var errInvalidCredentials = errors.New("invalid credentials")

// Login verifies credentials and replaces any existing session for the user.
func (s *Service) Login(ctx context.Context, username, password string) (Session, User, error) {
	var user User
	err := s.db.WithContext(ctx).First(&user, "username = ?", strings.TrimSpace(username)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Session{}, User{}, errInvalidCredentials
		}
		return Session{}, User{}, fmt.Errorf("find user: %w", err)
	}
	if !checkPassword(user.HashedPassword, password) || !user.IsActive {
		return Session{}, User{}, errInvalidCredentials
	}

	session := Session{
		SessionID: uuid.NewString(),
		UserID:    user.UserID,
		ExpiresAt: s.now().Add(s.sessionTTL),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.UserID).Delete(&Session{}).Error; err != nil {
			return err
		}
		return tx.Create(&session).Error
	})
	if err != nil {
		return Session{}, User{}, fmt.Errorf("store session: %w", err)
	}
	return session, user, nil
}

func (s *Service) Logout(ctx context.Context, sessionID string) error {
	res := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&Session{})
	if res.Error != nil {
		return fmt.Errorf("delete session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Couldn't find session")
	}
	return nil
}

func (s *Service) GetUser(ctx context.Context, userID string) (User, error) {
	var user User
	if err := s.db.WithContext(ctx).First(&user, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return User{}, apperr.NotFound("Couldn't find user")
		}
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

type ProfileUpdate struct {
	FullName *string `json:"full_name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
}

// UpdateProfile changes contact fields only. Role and circle are not editable.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (User, error) {
	updates := map[string]interface{}{}
	if in.FullName != nil {
		updates["full_name"] = strings.TrimSpace(*in.FullName)
	}
	if in.Email != nil {
		updates["email"] = strings.TrimSpace(*in.Email)
	}
	if in.Phone != nil {
		updates["phone"] = strings.TrimSpace(*in.Phone)
	}
	if len(updates) == 0 {
		return User{}, apperr.Validation("No profile fields to update")
	}
	if err := s.db.WithContext(ctx).Model(&User{}).Where("user_id = ?", userID).Updates(updates).Error; err != nil {
		return User{}, fmt.Errorf("update profile: %w", err)
	}
	return s.GetUser(ctx, userID)
}

func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if !checkPassword(user.HashedPassword, current) {
		return apperr.Validation("Invalid current password")
	}
	if err := ValidatePassword(next); err != nil {
		return err
	}
	hashed, err := hashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.db.WithContext(ctx).Model(&User{}).Where("user_id = ?", userID).Update("hashed_password", hashed).Error
}

func (s *Service) ListUsers(ctx context.Context, role string) ([]User, error) {
	var users []User
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if role != "" {
		r, err := access.ParseRole(role)
		if err != nil {
			return nil, apperr.Validation("Unknown role filter")
		}
		q = q.Where("role = ?", r)
	}
	if err := q.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// SetActive enables or disables an account. Disabling drops its session.
func (s *Service) SetActive(ctx context.Context, actorID, userID string, active bool) (User, error) {
	if actorID == userID && !active {
		return User{}, apperr.Validation("You cannot deactivate your own account")
	}
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return User{}, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&User{}).Where("user_id = ?", userID).Update("is_active", active).Error; err != nil {
			return err
		}
		if !active {
			return tx.Where("user_id = ?", userID).Delete(&Session{}).Error
		}
		return nil
	})
	if err != nil {
		return User{}, fmt.Errorf("set active: %w", err)
	}
	user.IsActive = active
	return user, nil
}
