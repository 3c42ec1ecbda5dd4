package lifecycle

import (
	"fmt"

	"github.com/Leganyst/slotswapper/internal/model"
)

// EventTrigger — причина смены статуса слота.
type EventTrigger string

const (
	TriggerMarkSwappable EventTrigger = "mark_swappable"
	TriggerMarkBusy      EventTrigger = "mark_busy"
	TriggerLock          EventTrigger = "lock"
	TriggerAccept        EventTrigger = "accept"
	TriggerRelease       EventTrigger = "release"
)

type eventEdge struct {
	from    model.EventStatus
	trigger EventTrigger
}

var eventTransitions = map[eventEdge]model.EventStatus{
	{model.EventStatusBusy, TriggerMarkSwappable}:      model.EventStatusSwappable,
	{model.EventStatusSwappable, TriggerMarkBusy}:      model.EventStatusBusy,
	{model.EventStatusSwappable, TriggerLock}:          model.EventStatusSwapPending,
	{model.EventStatusSwapPending, TriggerAccept}:      model.EventStatusBusy,
	{model.EventStatusSwapPending, TriggerRelease}:     model.EventStatusSwappable,
	{model.EventStatusBusy, TriggerMarkBusy}:           model.EventStatusBusy,
	{model.EventStatusSwappable, TriggerMarkSwappable}: model.EventStatusSwappable,
}

// NextEventStatus задаёт все переходы слота.
func NextEventStatus(from model.EventStatus, trigger EventTrigger) (model.EventStatus, error) {
	to, ok := eventTransitions[eventEdge{from, trigger}]
	if !ok {
		return from, fmt.Errorf("%w: event %s -> %s", ErrInvalidTransition, from, trigger)
	}
	return to, nil
}

// OwnerTrigger переводит запрошенный владельцем статус в триггер.
// SWAP_PENDING владелец выставить не может.
func OwnerTrigger(requested model.EventStatus) (EventTrigger, error) {
	switch requested {
	case model.EventStatusSwappable:
		return TriggerMarkSwappable, nil
	case model.EventStatusBusy:
		return TriggerMarkBusy, nil
	case model.EventStatusSwapPending:
		return "", fmt.Errorf("%w: status %s is set by swap requests only", ErrInvalidTransition, requested)
	default:
		return "", fmt.Errorf("%w: unknown status %q", ErrValidation, requested)
	}
}

// SwapTrigger — причина смены статуса заявки.
type SwapTrigger string

const (
	TriggerSwapAccept     SwapTrigger = "accept"
	TriggerSwapReject     SwapTrigger = "reject"
	TriggerSwapInvalidate SwapTrigger = "invalidate"
)

// NextSwapStatus: переходы заявки. Из терминальных статусов выхода нет.
func NextSwapStatus(from model.SwapStatus, trigger SwapTrigger) (model.SwapStatus, error) {
	if from != model.SwapStatusPending {
		return from, fmt.Errorf("%w: request is %s", ErrAlreadyResolved, from)
	}
	switch trigger {
	case TriggerSwapAccept:
		return model.SwapStatusAccepted, nil
	case TriggerSwapReject, TriggerSwapInvalidate:
		return model.SwapStatusRejected, nil
	default:
		return from, fmt.Errorf("%w: swap %s -> %s", ErrInvalidTransition, from, trigger)
	}
}
