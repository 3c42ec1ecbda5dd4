package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SwapStatus string

const (
	SwapStatusPending  SwapStatus = "PENDING"
	SwapStatusAccepted SwapStatus = "ACCEPTED"
	SwapStatusRejected SwapStatus = "REJECTED"
)

// swap_requests
type SwapRequest struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	RequesterID uuid.UUID `gorm:"type:uuid;not null;index"`
	// Владелец TheirSlot на момент создания заявки, он и отвечает.
	ResponderID uuid.UUID `gorm:"type:uuid;not null;index"`

	MySlotID    uuid.UUID `gorm:"type:uuid;not null;index"`
	TheirSlotID uuid.UUID `gorm:"type:uuid;not null;index"`

	Status SwapStatus `gorm:"type:varchar(32);not null;default:'PENDING';index"`

	CreatedAt   time.Time  `gorm:"not null;index"`
	UpdatedAt   time.Time  `gorm:"not null"`
	RespondedAt *time.Time

	Requester *User  `gorm:"foreignKey:RequesterID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	MySlot    *Event `gorm:"foreignKey:MySlotID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	TheirSlot *Event `gorm:"foreignKey:TheirSlotID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (r *SwapRequest) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Status == "" {
		r.Status = SwapStatusPending
	}
	return nil
}
