package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Тип записи журнала обменов.
type SwapLogType string

const (
	SwapLogRequested   SwapLogType = "swap_requested"
	SwapLogAccepted    SwapLogType = "swap_accepted"
	SwapLogRejected    SwapLogType = "swap_rejected"
	SwapLogInvalidated SwapLogType = "swap_invalidated"
)

// swap_logs — журнал обменов, пишется в той же транзакции, что и переход
type SwapLog struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	Type SwapLogType `gorm:"type:varchar(64);not null;index"`

	CreatedAt time.Time `gorm:"not null;index"`

	SwapRequestID  uuid.UUID `gorm:"type:uuid;not null;index"`
	ActorID        uuid.UUID `gorm:"type:uuid;not null;index"`
	CounterpartyID uuid.UUID `gorm:"type:uuid;not null;index"`

	Details datatypes.JSON

	SwapRequest *SwapRequest `gorm:"foreignKey:SwapRequestID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (l *SwapLog) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
