package geo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/landrecords/demarcation-backend/internal/apperr"
	"gorm.io/gorm"
)

// Service manages the district > circle > village hierarchy.
type Service struct {
	db *gorm.DB
}

func NewService(d *gorm.DB) *Service {
	return &Service{db: d}
}

func (s *Service) CreateDistrict(ctx context.Context, d District) (District, error) {
	d.Name, d.Code = strings.TrimSpace(d.Name), strings.TrimSpace(d.Code)
	if d.Name == "" || d.Code == "" {
		return District{}, apperr.Validation("District name and code are required")
	}
	if err := s.db.WithContext(ctx).Create(&d).Error; err != nil {
		return District{}, fmt.Errorf("create district: %w", err)
	}
	return d, nil
}

func (s *Service) CreateCircle(ctx context.Context, c Circle) (Circle, error) {
	c.Name, c.Code = strings.TrimSpace(c.Name), strings.TrimSpace(c.Code)
	if c.Name == "" || c.Code == "" || c.DistrictID == "" {
		return Circle{}, apperr.Validation("Circle name, code and district are required")
	}
	if err := s.db.WithContext(ctx).First(&District{}, "id = ?", c.DistrictID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Circle{}, apperr.Validation("District does not exist")
		}
		return Circle{}, fmt.Errorf("lookup district: %w", err)
	}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return Circle{}, fmt.Errorf("create circle: %w", err)
	}
	return c, nil
}

// CreateVillage refuses villages whose circle does not exist.
func (s *Service) CreateVillage(ctx context.Context, v Village) (Village, error) {
	v.Name, v.Code = strings.TrimSpace(v.Name), strings.TrimSpace(v.Code)
	if v.Name == "" || v.Code == "" || v.CircleID == "" {
		return Village{}, apperr.Validation("Village name, code and circle are required")
	}
	if _, err := s.GetCircle(ctx, v.CircleID); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return Village{}, apperr.Validation("Circle does not exist")
		}
		return Village{}, err
	}
	if err := s.db.WithContext(ctx).Create(&v).Error; err != nil {
		return Village{}, fmt.Errorf("create village: %w", err)
	}
	return v, nil
}

func (s *Service) GetCircle(ctx context.Context, id string) (Circle, error) {
	var c Circle
	if err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Circle{}, apperr.NotFound("Circle not found")
		}
		return Circle{}, fmt.Errorf("get circle: %w", err)
	}
	return c, nil
}

func (s *Service) GetVillage(ctx context.Context, id string) (Village, error) {
	var v Village
	if err := s.db.WithContext(ctx).First(&v, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Village{}, apperr.NotFound("Village not found")
		}
		return Village{}, fmt.Errorf("get village: %w", err)
	}
	return v, nil
}

func (s *Service) ListDistricts(ctx context.Context) ([]District, error) {
	var out []District
	err := s.db.WithContext(ctx).Order("name").Find(&out).Error
	return out, err
}

func (s *Service) ListCircles(ctx context.Context, districtID string) ([]Circle, error) {
	var out []Circle
	q := s.db.WithContext(ctx).Order("name")
	if districtID != "" {
		q = q.Where("district_id = ?", districtID)
	}
	err := q.Find(&out).Error
	return out, err
}

func (s *Service) ListVillages(ctx context.Context, circleID string) ([]Village, error) {
	var out []Village
	q := s.db.WithContext(ctx).Order("name")
	if circleID != "" {
		q = q.Where("circle_id = ?", circleID)
	}
	err := q.Find(&out).Error
	return out, err
}
