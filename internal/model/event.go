package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Статус доступности слота.
type EventStatus string

const (
	EventStatusBusy        EventStatus = "BUSY"
	EventStatusSwappable   EventStatus = "SWAPPABLE"
	EventStatusSwapPending EventStatus = "SWAP_PENDING"
)

// events — временные слоты пользователей
type Event struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	OwnerID uuid.UUID `gorm:"type:uuid;not null;index"`

	Title string `gorm:"type:varchar(255);not null"`

	StartTime time.Time `gorm:"not null;index"`
	EndTime   time.Time `gorm:"not null"`

	Status EventStatus `gorm:"type:varchar(32);not null;default:'BUSY';index"`

	// Заявка, которая держит слот в SWAP_PENDING. nil в остальных статусах.
	LockedBy *uuid.UUID `gorm:"type:uuid;index"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Owner *User `gorm:"foreignKey:OwnerID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (e *Event) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Status == "" {
		e.Status = EventStatusBusy
	}
	return nil
}
