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

// Coordinator применяет последствия ответа на заявку. Все методы работают
// внутри переданной транзакции и пишут слоты и заявки только через неё.
type Coordinator struct {
	lifecycle.NopHandler

	events repository.EventRepository
	swaps  repository.SwapRequestRepository
	bus    *lifecycle.Bus
	logger *slog.Logger
	now    func() time.Time
}

// NewCoordinator подписывает координатора на SwapAccepted первым обработчиком:
// инвалидация соседних заявок идёт раньше остальных подписчиков.
func NewCoordinator(
	events repository.EventRepository,
	swaps repository.SwapRequestRepository,
	bus *lifecycle.Bus,
	logger *slog.Logger,
) *Coordinator {
	c := &Coordinator{
		events: events,
		swaps:  swaps,
		bus:    bus,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	bus.Subscribe(c)
	return c
}

// ResolveAccept меняет владельцев слотов, возвращает их в BUSY, закрывает
// заявку как ACCEPTED и публикует SwapAccepted.
func (c *Coordinator) ResolveAccept(ctx context.Context, tx *gorm.DB, req *model.SwapRequest) error {
	next, err := lifecycle.NextSwapStatus(req.Status, lifecycle.TriggerSwapAccept)
	if err != nil {
		return err
	}

	events := c.events.WithTx(tx)
	locked, err := events.GetForUpdate(ctx, req.MySlotID, req.TheirSlotID)
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}
	mySlot := findEvent(locked, req.MySlotID)
	theirSlot := findEvent(locked, req.TheirSlotID)
	for _, ev := range []*model.Event{mySlot, theirSlot} {
		if ev == nil || !heldBy(ev, req.ID) {
			return fmt.Errorf("%w: slots of request %s are no longer held by it", lifecycle.ErrConcurrencyConflict, req.ID)
		}
	}

	newOwners := map[uuid.UUID]uuid.UUID{
		mySlot.ID:    theirSlot.OwnerID,
		theirSlot.ID: mySlot.OwnerID,
	}
	for _, ev := range []*model.Event{mySlot, theirSlot} {
		to, err := lifecycle.NextEventStatus(ev.Status, lifecycle.TriggerAccept)
		if err != nil {
			return err
		}
		owner := newOwners[ev.ID]
		ok, err := events.UpdateGuarded(ctx, ev.ID,
			repository.EventGuard{Status: ev.Status, LockedBy: &req.ID},
			repository.EventUpdate{Status: to, OwnerID: &owner},
		)
		if err != nil {
			return fmt.Errorf("transfer event %s: %w", ev.ID, err)
		}
		if !ok {
			return fmt.Errorf("%w: event %s changed concurrently", lifecycle.ErrConcurrencyConflict, ev.ID)
		}
	}

	at, err := c.closeRequest(ctx, tx, req, next)
	if err != nil {
		return err
	}

	return c.bus.PublishAccepted(ctx, tx, lifecycle.SwapAccepted{
		RequestID:   req.ID,
		RequesterID: req.RequesterID,
		ResponderID: req.ResponderID,
		MySlotID:    req.MySlotID,
		TheirSlotID: req.TheirSlotID,
		At:          at,
	})
}

// ResolveReject закрывает заявку как REJECTED и возвращает её слоты на витрину.
func (c *Coordinator) ResolveReject(ctx context.Context, tx *gorm.DB, req *model.SwapRequest) error {
	next, err := lifecycle.NextSwapStatus(req.Status, lifecycle.TriggerSwapReject)
	if err != nil {
		return err
	}
	at, err := c.closeRequest(ctx, tx, req, next)
	if err != nil {
		return err
	}
	if err := c.releaseLocks(ctx, tx, req); err != nil {
		return err
	}
	return c.bus.PublishRejected(ctx, tx, lifecycle.SwapRejected{
		RequestID:   req.ID,
		RequesterID: req.RequesterID,
		ResponderID: req.ResponderID,
		At:          at,
	})
}

// OnSwapAccepted отклоняет все прочие PENDING заявки на слоты принятого обмена.
func (c *Coordinator) OnSwapAccepted(ctx context.Context, tx *gorm.DB, ev lifecycle.SwapAccepted) error {
	siblings, err := c.swaps.WithTx(tx).ListPendingByEvents(ctx,
		[]uuid.UUID{ev.MySlotID, ev.TheirSlotID}, ev.RequestID)
	if err != nil {
		return fmt.Errorf("list sibling requests: %w", err)
	}

	for i := range siblings {
		sib := &siblings[i]
		next, err := lifecycle.NextSwapStatus(sib.Status, lifecycle.TriggerSwapInvalidate)
		if err != nil {
			return err
		}
		at, err := c.closeRequest(ctx, tx, sib, next)
		if err != nil {
			return err
		}
		if err := c.releaseLocks(ctx, tx, sib); err != nil {
			return err
		}
		by := ev.RequestID
		if err := c.bus.PublishRejected(ctx, tx, lifecycle.SwapRejected{
			RequestID:     sib.ID,
			RequesterID:   sib.RequesterID,
			ResponderID:   sib.ResponderID,
			InvalidatedBy: &by,
			At:            at,
		}); err != nil {
			return err
		}
		c.logger.Debug("swap request invalidated", "request_id", sib.ID, "accepted_id", ev.RequestID)
	}
	if len(siblings) > 0 {
		c.logger.Info("sibling requests invalidated", "accepted_id", ev.RequestID, "count", len(siblings))
	}
	return nil
}

func (c *Coordinator) closeRequest(
	ctx context.Context,
	tx *gorm.DB,
	req *model.SwapRequest,
	to model.SwapStatus,
) (time.Time, error) {
	at := c.now()
	ok, err := c.swaps.WithTx(tx).UpdateStatus(ctx, req.ID, req.Status, to, at)
	if err != nil {
		return at, fmt.Errorf("update swap request: %w", err)
	}
	if !ok {
		return at, fmt.Errorf("%w: request %s", lifecycle.ErrAlreadyResolved, req.ID)
	}
	req.Status = to
	req.RespondedAt = &at
	return at, nil
}

// releaseLocks возвращает в SWAPPABLE слоты, которые всё ещё держит req.
// Слот, уже ушедший в другой принятый обмен, не трогаем.
func (c *Coordinator) releaseLocks(ctx context.Context, tx *gorm.DB, req *model.SwapRequest) error {
	events := c.events.WithTx(tx)
	locked, err := events.GetForUpdate(ctx, req.MySlotID, req.TheirSlotID)
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}
	for i := range locked {
		ev := &locked[i]
		if !heldBy(ev, req.ID) {
			continue
		}
		to, err := lifecycle.NextEventStatus(ev.Status, lifecycle.TriggerRelease)
		if err != nil {
			return err
		}
		ok, err := events.UpdateGuarded(ctx, ev.ID,
			repository.EventGuard{Status: ev.Status, LockedBy: &req.ID},
			repository.EventUpdate{Status: to},
		)
		if err != nil {
			return fmt.Errorf("release event %s: %w", ev.ID, err)
		}
		if !ok {
			return fmt.Errorf("%w: event %s changed concurrently", lifecycle.ErrConcurrencyConflict, ev.ID)
		}
	}
	return nil
}

func heldBy(ev *model.Event, requestID uuid.UUID) bool {
	return ev.Status == model.EventStatusSwapPending && ev.LockedBy != nil && *ev.LockedBy == requestID
}
