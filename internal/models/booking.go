package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

func ValidBookingStatus(s BookingStatus) bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

// Booking is a flat record, not a workflow: any valid status can be set by
// the owning artisan.
type Booking struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index" json:"customer_id"`
	ArtisanID  uuid.UUID `gorm:"type:uuid;not null;index" json:"artisan_id"`
	ServiceID  uint      `gorm:"not null;index" json:"service_id"`

	Status BookingStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`
	Date   time.Time     `json:"date"`
	Note   string        `gorm:"type:text" json:"note"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Customer *User    `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Artisan  *User    `gorm:"foreignKey:ArtisanID" json:"artisan,omitempty"`
	Service  *Service `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
