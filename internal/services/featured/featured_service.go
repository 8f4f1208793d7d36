package featured

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bizbridge-ng/bizbridge-api/internal/models"
)

// ErrArtisanNotFound covers both a missing user and a user that is not an
// artisan; callers are not told which.
var ErrArtisanNotFound = errors.New("artisan not found")

const (
	SourceFeatured = "featured"
	SourcePopular  = "popular"
)

// Service implements featured-artisan curation: admin set/unset with an
// optional promotion window, atomic reordering, and the ranked public reads.
type Service struct {
	DB *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// Artisan is one ranked row of the public featured list.
type Artisan struct {
	UserID        uuid.UUID  `json:"user_id"`
	Username      string     `json:"username"`
	ProfileImage  string     `json:"profile_image"`
	IsVerified    bool       `json:"is_verified"`
	BusinessName  string     `json:"business_name"`
	ContactName   string     `json:"contact_name"`
	City          string     `json:"city"`
	State         string     `json:"state"`
	LGA           string     `json:"lga"`
	AverageRating float64    `json:"average_rating"`
	TotalReviews  int64      `json:"total_reviews"`
	FeaturedOrder int        `json:"featured_order"`
	FeaturedUntil *time.Time `json:"featured_until,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// SetFeatured enables or disables promotion for one artisan. Enabling with a
// duration bounds the promotion to now+duration days; without one it runs
// until disabled. Disabling clears the window but keeps the display order so
// a re-enable slots the artisan back where they were.
func (s *Service) SetFeatured(artisanID uuid.UUID, enable bool, durationDays, order *int) (*models.ArtisanProfile, error) {
	var user models.User
	err := s.DB.First(&user, "id = ? AND role = ?", artisanID, models.RoleArtisan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrArtisanNotFound
	}
	if err != nil {
		return nil, err
	}

	var profile models.ArtisanProfile
	err = s.DB.First(&profile, "user_id = ?", artisanID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrArtisanNotFound
	}
	if err != nil {
		return nil, err
	}

	if enable {
		profile.IsFeatured = true
		profile.FeaturedUntil = nil
		if durationDays != nil && *durationDays > 0 {
			until := time.Now().AddDate(0, 0, *durationDays)
			profile.FeaturedUntil = &until
		}
		if order != nil {
			profile.FeaturedOrder = *order
		}
	} else {
		profile.IsFeatured = false
		profile.FeaturedUntil = nil
	}

	if err := s.DB.Save(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

type OrderUpdate struct {
	ArtisanID uuid.UUID `json:"artisan_id"`
	Order     int       `json:"order"`
}

// Reorder applies the whole batch inside one transaction: either every
// artisan gets its new order or none do.
func (s *Service) Reorder(updates []OrderUpdate) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			res := tx.Model(&models.ArtisanProfile{}).
				Where("user_id = ?", u.ArtisanID).
				Update("featured_order", u.Order)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrArtisanNotFound
			}
		}
		return nil
	})
}

// ListFeatured returns active, currently-featured artisans sorted by
// featured_order, newest account first on ties. Expired promotions are
// filtered out on every read path.
func (s *Service) ListFeatured(limit int) ([]Artisan, error) {
	var rows []Artisan
	err := s.DB.
		Table("artisan_profiles").
		Select(`users.id as user_id,
			users.username,
			users.profile_image,
			users.is_verified,
			users.created_at,
			artisan_profiles.business_name,
			artisan_profiles.contact_name,
			artisan_profiles.city,
			artisan_profiles.state,
			artisan_profiles.lga,
			artisan_profiles.average_rating,
			artisan_profiles.total_reviews,
			artisan_profiles.featured_order,
			artisan_profiles.featured_until`).
		Joins("JOIN users ON users.id = artisan_profiles.user_id").
		Where("users.role = ? AND users.is_active = ?", models.RoleArtisan, true).
		Where("artisan_profiles.is_featured = ?", true).
		Where("artisan_profiles.featured_until IS NULL OR artisan_profiles.featured_until > ?", time.Now()).
		Order("artisan_profiles.featured_order ASC, users.created_at DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FeaturedServices derives the featured-services surface: one active service
// per featured artisan, in artisan rank order. With nothing featured it
// falls back to the top-rated active services so the surface is never empty
// while listings exist; the returned source tag tells the two apart.
func (s *Service) FeaturedServices(limit int) ([]models.Service, string, error) {
	artisans, err := s.ListFeatured(limit)
	if err != nil {
		return nil, "", err
	}

	out := make([]models.Service, 0, len(artisans))
	for _, a := range artisans {
		var svc models.Service
		err := s.DB.
			Where("artisan_id = ? AND is_active = ?", a.UserID, true).
			Order("rating_average DESC, created_at DESC").
			Preload("Artisan").
			First(&svc).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, "", err
		}
		out = append(out, svc)
	}
	if len(out) > 0 {
		return out, SourceFeatured, nil
	}

	var fallback []models.Service
	err = s.DB.
		Where("is_active = ?", true).
		Order("rating_average DESC, created_at DESC").
		Limit(limit).
		Preload("Artisan").
		Find(&fallback).Error
	if err != nil {
		return nil, "", err
	}
	return fallback, SourcePopular, nil
}
