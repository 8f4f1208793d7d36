package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CustomerProfile struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`

	FullName string `gorm:"type:varchar(150);not null" json:"full_name"`
	City     string `gorm:"type:varchar(120)" json:"city"`
	State    string `gorm:"type:varchar(120)" json:"state"`
	LGA      string `gorm:"type:varchar(120)" json:"lga"`

	// e.g. preferred categories, notification choices
	Preferences datatypes.JSON `json:"preferences"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ArtisanProfile struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`

	ContactName  string `gorm:"type:varchar(150);not null" json:"contact_name"`
	BusinessName string `gorm:"type:varchar(200);not null" json:"business_name"`
	PhoneNumber  string `gorm:"type:varchar(30);not null" json:"phone_number"`

	Address string `gorm:"type:text" json:"address"`
	City    string `gorm:"type:varchar(120)" json:"city"`
	State   string `gorm:"type:varchar(120)" json:"state"`
	LGA     string `gorm:"type:varchar(120)" json:"lga"`

	// { year_established, staff_strength, is_cac_registered, cac_number,
	//   website_url, social_media: {...} }
	Business    datatypes.JSON `json:"business"`
	CACDocument string         `gorm:"type:text" json:"cac_document"`

	Specialties datatypes.JSON `json:"specialties"`
	Experience  int            `gorm:"default:0" json:"experience"`
	Portfolio   datatypes.JSON `json:"portfolio"`

	ProfileViews      int64   `gorm:"default:0" json:"profile_views"`
	TotalBookings     int64   `gorm:"default:0" json:"total_bookings"`
	CompletedBookings int64   `gorm:"default:0" json:"completed_bookings"`
	AverageRating     float64 `gorm:"default:0" json:"average_rating"`
	TotalReviews      int64   `gorm:"default:0" json:"total_reviews"`

	IsFeatured    bool       `gorm:"default:false;index" json:"is_featured"`
	FeaturedUntil *time.Time `json:"featured_until,omitempty"`
	FeaturedOrder int        `gorm:"default:0" json:"featured_order"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *CustomerProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p *ArtisanProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type AdminProfile struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`

	AdminLevel  string         `gorm:"type:varchar(30);default:'support'" json:"admin_level"`
	Permissions datatypes.JSON `json:"permissions"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *AdminProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
