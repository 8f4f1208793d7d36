package catalog

import (
	"math"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bizbridge-ng/bizbridge-api/internal/models"
)

const (
	DefaultLimit = 12
	MaxLimit     = 50
)

// ListParams is the shared filter/sort/pagination contract for every service
// listing surface: public browse, customer search, and the artisan's own
// list.
type ListParams struct {
	Category string
	Location string
	Search   string
	Page     int
	Limit    int
	Sort     string // newest | oldest | title | popular

	// Owner and admin surfaces see inactive rows too.
	IncludeInactive bool
	ArtisanID       *uuid.UUID
}

type Result struct {
	Items      []models.Service `json:"items"`
	TotalItems int64            `json:"total_items"`
	TotalPages int              `json:"total_pages"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
}

type Service struct {
	DB *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// Normalize clamps pagination to sane bounds: page >= 1, limit in
// [1, MaxLimit], defaulting to DefaultLimit.
func Normalize(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

func TotalPages(total int64, limit int) int {
	return int(math.Ceil(float64(total) / float64(limit)))
}

// filtered builds a fresh query with the filter clauses only; count and page
// reads each call it so neither mutates the other.
func (s *Service) filtered(p ListParams) *gorm.DB {
	q := s.DB.Model(&models.Service{})

	if !p.IncludeInactive {
		q = q.Where("is_active = ?", true)
	}
	if p.ArtisanID != nil {
		q = q.Where("artisan_id = ?", *p.ArtisanID)
	}
	if p.Category != "" {
		q = q.Where("LOWER(category) LIKE ?", "%"+strings.ToLower(p.Category)+"%")
	}
	if p.Location != "" {
		// matches display names and LGA codes inside the locations JSON
		q = q.Where("LOWER(CAST(locations AS TEXT)) LIKE ?", "%"+strings.ToLower(p.Location)+"%")
	}
	if p.Search != "" {
		term := "%" + strings.ToLower(p.Search) + "%"
		q = q.Where(
			"LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(CAST(tags AS TEXT)) LIKE ? OR LOWER(category) LIKE ?",
			term, term, term, term,
		)
	}
	return q
}

// order maps the sort keyword to SQL. Every branch carries a created_at
// tiebreak so identical requests paginate identically.
func order(sort string) string {
	switch sort {
	case "oldest":
		return "created_at ASC"
	case "title":
		return "title ASC, created_at DESC"
	case "popular":
		return "rating_average DESC, created_at DESC"
	default: // newest
		return "created_at DESC"
	}
}

func (s *Service) List(p ListParams) (*Result, error) {
	p.Page, p.Limit = Normalize(p.Page, p.Limit)

	var total int64
	if err := s.filtered(p).Count(&total).Error; err != nil {
		return nil, err
	}

	var items []models.Service
	err := s.filtered(p).
		Order(order(p.Sort)).
		Limit(p.Limit).
		Offset((p.Page - 1) * p.Limit).
		Preload("Artisan").
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	return &Result{
		Items:      items,
		TotalItems: total,
		TotalPages: TotalPages(total, p.Limit),
		Page:       p.Page,
		Limit:      p.Limit,
	}, nil
}
