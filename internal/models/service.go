package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ServiceCategory string

const (
	CategoryTailoring    ServiceCategory = "tailoring"
	CategoryCarpentry    ServiceCategory = "carpentry"
	CategoryPlumbing     ServiceCategory = "plumbing"
	CategoryElectrical   ServiceCategory = "electrical"
	CategoryHairdressing ServiceCategory = "hairdressing"
	CategoryCatering     ServiceCategory = "catering"
	CategoryShoemaking   ServiceCategory = "shoemaking"
	CategoryWelding      ServiceCategory = "welding"
	CategoryPainting     ServiceCategory = "painting"
	CategoryPhotography  ServiceCategory = "photography"
	CategoryMechanics    ServiceCategory = "mechanics"
	CategoryBeadwork     ServiceCategory = "beadwork"
)

func ValidCategory(c ServiceCategory) bool {
	switch c {
	case CategoryTailoring, CategoryCarpentry, CategoryPlumbing,
		CategoryElectrical, CategoryHairdressing, CategoryCatering,
		CategoryShoemaking, CategoryWelding, CategoryPainting,
		CategoryPhotography, CategoryMechanics, CategoryBeadwork:
		return true
	}
	return false
}

func Categories() []ServiceCategory {
	return []ServiceCategory{
		CategoryTailoring, CategoryCarpentry, CategoryPlumbing,
		CategoryElectrical, CategoryHairdressing, CategoryCatering,
		CategoryShoemaking, CategoryWelding, CategoryPainting,
		CategoryPhotography, CategoryMechanics, CategoryBeadwork,
	}
}

type PriceType string

const (
	PriceFixed PriceType = "fixed"
	PriceQuote PriceType = "quote" // price agreed per job
)

type Service struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ArtisanID uuid.UUID `gorm:"type:uuid;not null;index" json:"artisan_id"`

	Title       string          `gorm:"type:varchar(200);not null" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	Category    ServiceCategory `gorm:"type:varchar(40);not null;index" json:"category"`

	PriceType     PriceType `gorm:"type:varchar(10);default:'fixed'" json:"price_type"`
	PriceAmount   int64     `json:"price_amount"` // kobo
	PriceCurrency string    `gorm:"type:varchar(3);default:'NGN'" json:"price_currency"`

	Duration string `gorm:"type:varchar(100)" json:"duration"`

	// [{ name, lga, type }]
	Locations datatypes.JSON `json:"locations"`
	Images    datatypes.JSON `json:"images"`
	Tags      datatypes.JSON `json:"tags"`

	IsActive bool `gorm:"default:true;index" json:"is_active"`

	RatingAverage float64 `gorm:"default:0" json:"rating_average"`
	RatingCount   int64   `gorm:"default:0" json:"rating_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Artisan *User `gorm:"foreignKey:ArtisanID" json:"artisan,omitempty"`
}
