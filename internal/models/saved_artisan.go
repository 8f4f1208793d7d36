package models

import (
	"time"

	"github.com/google/uuid"
)

// SavedArtisan is a customer's bookmark of an artisan. The list a customer
// sees is derived by joining through this table rather than keeping an array
// on the user row.
type SavedArtisan struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_saved_pair" json:"customer_id"`
	ArtisanID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_saved_pair" json:"artisan_id"`

	CreatedAt time.Time `json:"created_at"`
}
