package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SwapAccepted публикуется координатором внутри транзакции принятия.
type SwapAccepted struct {
	RequestID   uuid.UUID
	RequesterID uuid.UUID
	ResponderID uuid.UUID
	MySlotID    uuid.UUID
	TheirSlotID uuid.UUID
	At          time.Time
}

// SwapRejected публикуется при отклонении заявки ответчиком
// или при её инвалидации принятием соседней заявки (InvalidatedBy != nil).
type SwapRejected struct {
	RequestID     uuid.UUID
	RequesterID   uuid.UUID
	ResponderID   uuid.UUID
	InvalidatedBy *uuid.UUID
	At            time.Time
}

// SwapRequested публикуется при создании заявки.
type SwapRequested struct {
	RequestID   uuid.UUID
	RequesterID uuid.UUID
	ResponderID uuid.UUID
	MySlotID    uuid.UUID
	TheirSlotID uuid.UUID
	At          time.Time
}

// Handler получает доменное событие и транзакцию, в которой оно произошло.
// Ошибка обработчика откатывает всю транзакцию.
type Handler interface {
	OnSwapRequested(ctx context.Context, tx *gorm.DB, ev SwapRequested) error
	OnSwapAccepted(ctx context.Context, tx *gorm.DB, ev SwapAccepted) error
	OnSwapRejected(ctx context.Context, tx *gorm.DB, ev SwapRejected) error
}

// NopHandler позволяет реализовать только нужные методы Handler.
type NopHandler struct{}

func (NopHandler) OnSwapRequested(context.Context, *gorm.DB, SwapRequested) error { return nil }
func (NopHandler) OnSwapAccepted(context.Context, *gorm.DB, SwapAccepted) error   { return nil }
func (NopHandler) OnSwapRejected(context.Context, *gorm.DB, SwapRejected) error   { return nil }

// Bus синхронно раздаёт события обработчикам в порядке регистрации.
type Bus struct {
	handlers []Handler
}

func NewBus(handlers ...Handler) *Bus {
	return &Bus{handlers: handlers}
}

func (b *Bus) Subscribe(h Handler) {
	b.handlers = append(b.handlers, h)
}

func (b *Bus) PublishRequested(ctx context.Context, tx *gorm.DB, ev SwapRequested) error {
	for _, h := range b.handlers {
		if err := h.OnSwapRequested(ctx, tx, ev); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bus) PublishAccepted(ctx context.Context, tx *gorm.DB, ev SwapAccepted) error {
	for _, h := range b.handlers {
		if err := h.OnSwapAccepted(ctx, tx, ev); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bus) PublishRejected(ctx context.Context, tx *gorm.DB, ev SwapRejected) error {
	for _, h := range b.handlers {
		if err := h.OnSwapRejected(ctx, tx, ev); err != nil {
			return err
		}
	}
	return nil
}
