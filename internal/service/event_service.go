package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/slotswapper/internal/calendar"
	"github.com/Leganyst/slotswapper/internal/lifecycle"
	"github.com/Leganyst/slotswapper/internal/model"
	"github.com/Leganyst/slotswapper/internal/repository"
)

// EventService — хранилище слотов и ручное управление их доступностью.
type EventService struct {
	db     *gorm.DB
	events repository.EventRepository
	logger *slog.Logger
}

func NewEventService(db *gorm.DB, events repository.EventRepository, logger *slog.Logger) *EventService {
	return &EventService{db: db, events: events, logger: logger}
}

// CreateEvent создаёт слот владельца в статусе BUSY.
func (s *EventService) CreateEvent(
	ctx context.Context,
	owner uuid.UUID,
	title string,
	startTime, endTime time.Time,
) (*model.Event, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", lifecycle.ErrValidation)
	}
	tr, err := calendar.NewTimeRange(startTime, endTime)
	if err != nil {
		return nil, fmt.Errorf("%w: startTime must be before endTime", lifecycle.ErrValidation)
	}

	event := &model.Event{
		OwnerID:   owner,
		Title:     title,
		StartTime: tr.Start,
		EndTime:   tr.End,
		Status:    model.EventStatusBusy,
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	s.logger.Info("event created", "event_id", event.ID, "owner_id", owner, "duration", tr.Duration())
	return s.events.GetByID(ctx, event.ID)
}

// SetAvailability переключает BUSY <-> SWAPPABLE по запросу владельца.
// Слот в SWAP_PENDING вручную не переключается.
func (s *EventService) SetAvailability(
	ctx context.Context,
	eventID, requester uuid.UUID,
	newStatus model.EventStatus,
) (*model.Event, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		events := s.events.WithTx(tx)

		locked, err := events.GetForUpdate(ctx, eventID)
		if err != nil {
			return fmt.Errorf("load event: %w", err)
		}
		if len(locked) == 0 {
			return fmt.Errorf("%w: event %s", lifecycle.ErrNotFound, eventID)
		}
		ev := locked[0]

		if ev.OwnerID != requester {
			return fmt.Errorf("%w: event %s", lifecycle.ErrNotOwner, eventID)
		}

		trigger, err := lifecycle.OwnerTrigger(newStatus)
		if err != nil {
			return err
		}
		to, err := lifecycle.NextEventStatus(ev.Status, trigger)
		if err != nil {
			return err
		}
		if to == ev.Status {
			return nil
		}

		ok, err := events.UpdateGuarded(ctx, ev.ID,
			repository.EventGuard{Status: ev.Status},
			repository.EventUpdate{Status: to},
		)
		if err != nil {
			return fmt.Errorf("update event: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: event %s changed concurrently", lifecycle.ErrConcurrencyConflict, eventID)
		}
		return nil
	})
	if err != nil {
		return nil, repository.ConflictError(err)
	}

	return s.events.GetByID(ctx, eventID)
}

// ListForOwner возвращает слоты владельца по возрастанию начала.
func (s *EventService) ListForOwner(ctx context.Context, owner uuid.UUID) ([]model.Event, error) {
	events, err := s.events.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// ListSwappable: SWAPPABLE слоты других пользователей.
func (s *EventService) ListSwappable(ctx context.Context, excludingOwner uuid.UUID) ([]model.Event, error) {
	events, err := s.events.ListSwappable(ctx, excludingOwner)
	if err != nil {
		return nil, fmt.Errorf("list swappable events: %w", err)
	}
	return events, nil
}

func findEvent(events []model.Event, id uuid.UUID) *model.Event {
	for i := range events {
		if events[i].ID == id {
			return &events[i]
		}
	}
	return nil
}

