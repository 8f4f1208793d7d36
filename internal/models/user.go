package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleArtisan  Role = "artisan"
	RoleAdmin    Role = "admin"
)

// User carries only the fields common to every account. Role-specific data
// lives in the has-one profile tables below so each variant is validated on
// its own terms.
type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email    string    `gorm:"uniqueIndex;not null" json:"email"`
	Username string    `gorm:"uniqueIndex;not null" json:"username"`

	Password string `gorm:"not null" json:"-"`
	Role     Role   `gorm:"type:varchar(20);not null;index" json:"role"`

	IsActive     bool       `gorm:"default:true" json:"is_active"`
	IsVerified   bool       `gorm:"default:false" json:"is_verified"`
	ProfileImage string     `gorm:"type:text" json:"profile_image"`
	LastActive   *time.Time `json:"last_active,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CustomerProfile *CustomerProfile `gorm:"foreignKey:UserID;references:ID" json:"customer_profile,omitempty"`
	ArtisanProfile  *ArtisanProfile  `gorm:"foreignKey:UserID;references:ID" json:"artisan_profile,omitempty"`
	AdminProfile    *AdminProfile    `gorm:"foreignKey:UserID;references:ID" json:"admin_profile,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
