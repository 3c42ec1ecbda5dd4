package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/slotswapper/internal/lifecycle"
	"github.com/Leganyst/slotswapper/internal/model"
	"github.com/Leganyst/slotswapper/internal/repository"
)

// Inbox — заявки пользователя с обеих сторон.
type Inbox struct {
	Incoming []model.SwapRequest
	Outgoing []model.SwapRequest
}

// SwapService создаёт заявки на обмен и принимает ответы на них.
type SwapService struct {
	db          *gorm.DB
	events      repository.EventRepository
	swaps       repository.SwapRequestRepository
	coordinator *Coordinator
	bus         *lifecycle.Bus
	logger      *slog.Logger
}

func NewSwapService(
	db *gorm.DB,
	events repository.EventRepository,
	swaps repository.SwapRequestRepository,
	coordinator *Coordinator,
	bus *lifecycle.Bus,
	logger *slog.Logger,
) *SwapService {
	return &SwapService{
		db:          db,
		events:      events,
		swaps:       swaps,
		coordinator: coordinator,
		bus:         bus,
		logger:      logger,
	}
}

// CreateRequest создаёт PENDING заявку и переводит оба слота в SWAP_PENDING
// одной транзакцией. Проверки идут по порядку, первая неудачная побеждает.
func (s *SwapService) CreateRequest(
	ctx context.Context,
	requester, mySlotID, theirSlotID uuid.UUID,
) (*model.SwapRequest, error) {
	reqID := uuid.New()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		events := s.events.WithTx(tx)

		locked, err := events.GetForUpdate(ctx, mySlotID, theirSlotID)
		if err != nil {
			return fmt.Errorf("load events: %w", err)
		}
		mySlot := findEvent(locked, mySlotID)
		if mySlot == nil {
			return fmt.Errorf("%w: event %s", lifecycle.ErrNotFound, mySlotID)
		}
		theirSlot := findEvent(locked, theirSlotID)
		if theirSlot == nil {
			return fmt.Errorf("%w: event %s", lifecycle.ErrNotFound, theirSlotID)
		}

		if mySlot.OwnerID != requester {
			return fmt.Errorf("%w: event %s", lifecycle.ErrNotOwner, mySlotID)
		}
		if theirSlot.OwnerID == requester {
			return fmt.Errorf("%w: event %s belongs to the requester", lifecycle.ErrSelfSwap, theirSlotID)
		}
		for _, ev := range []*model.Event{mySlot, theirSlot} {
			if ev.Status != model.EventStatusSwappable {
				return fmt.Errorf("%w: event %s is %s", lifecycle.ErrSlotNotAvailable, ev.ID, ev.Status)
			}
		}

		// двойная блокировка: оба слота уходят с витрины вместе
		for _, ev := range []*model.Event{mySlot, theirSlot} {
			to, err := lifecycle.NextEventStatus(ev.Status, lifecycle.TriggerLock)
			if err != nil {
				return err
			}
			ok, err := events.UpdateGuarded(ctx, ev.ID,
				repository.EventGuard{Status: ev.Status},
				repository.EventUpdate{Status: to, LockedBy: &reqID},
			)
			if err != nil {
				return fmt.Errorf("lock event %s: %w", ev.ID, err)
			}
			if !ok {
				return fmt.Errorf("%w: event %s was taken by another request", lifecycle.ErrConcurrencyConflict, ev.ID)
			}
		}

		req := &model.SwapRequest{
			ID:          reqID,
			RequesterID: requester,
			ResponderID: theirSlot.OwnerID,
			MySlotID:    mySlotID,
			TheirSlotID: theirSlotID,
			Status:      model.SwapStatusPending,
		}
		if err := s.swaps.WithTx(tx).Create(ctx, req); err != nil {
			return fmt.Errorf("create swap request: %w", err)
		}

		return s.bus.PublishRequested(ctx, tx, lifecycle.SwapRequested{
			RequestID:   req.ID,
			RequesterID: req.RequesterID,
			ResponderID: req.ResponderID,
			MySlotID:    req.MySlotID,
			TheirSlotID: req.TheirSlotID,
			At:          req.CreatedAt,
		})
	})
	if err != nil {
		return nil, repository.ConflictError(err)
	}

	s.logger.Info("swap requested", "request_id", reqID, "requester_id", requester,
		"my_slot_id", mySlotID, "their_slot_id", theirSlotID)
	return s.swaps.GetByID(ctx, reqID)
}

// ListForUser возвращает входящие (пользователь отвечает) и исходящие заявки.
func (s *SwapService) ListForUser(ctx context.Context, user uuid.UUID) (*Inbox, error) {
	incoming, err := s.swaps.ListIncoming(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("list incoming: %w", err)
	}
	outgoing, err := s.swaps.ListOutgoing(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("list outgoing: %w", err)
	}
	return &Inbox{Incoming: incoming, Outgoing: outgoing}, nil
}

// Respond принимает или отклоняет заявку. Отвечать может только владелец
// запрошенного слота, и только пока заявка PENDING.
func (s *SwapService) Respond(
	ctx context.Context,
	requestID, responder uuid.UUID,
	accept bool,
) (*model.SwapRequest, error) {
	started := time.Now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := s.swaps.WithTx(tx).GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req.ResponderID != responder {
			return fmt.Errorf("%w: request %s", lifecycle.ErrNotOwner, requestID)
		}
		if req.Status != model.SwapStatusPending {
			return fmt.Errorf("%w: request %s is %s", lifecycle.ErrAlreadyResolved, requestID, req.Status)
		}

		if accept {
			return s.coordinator.ResolveAccept(ctx, tx, req)
		}
		return s.coordinator.ResolveReject(ctx, tx, req)
	})
	if err != nil {
		return nil, repository.ConflictError(err)
	}

	s.logger.Info("swap resolved", "request_id", requestID, "responder_id", responder,
		"accepted", accept, "took", time.Since(started))
	return s.swaps.GetByID(ctx, requestID)
}
