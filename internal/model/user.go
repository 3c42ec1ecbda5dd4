package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// users
type User struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	Name  string `gorm:"type:varchar(255);not null"`
	Email string `gorm:"type:varchar(255);not null;uniqueIndex"`

	// SHA-256 от выданного токена; сам токен не храним.
	TokenHash string `gorm:"type:varchar(64);index"`

	IsActive bool `gorm:"not null;default:true"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
