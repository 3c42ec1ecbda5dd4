package lifecycle

import "errors"

// Ошибки жизненного цикла обменов. Оборачиваются через fmt.Errorf("%w: ...").
var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrNotOwner            = errors.New("caller does not own the resource")
	ErrSelfSwap            = errors.New("cannot swap with own slot")
	ErrSlotNotAvailable    = errors.New("slot is not available for swap")
	ErrAlreadyResolved     = errors.New("swap request already resolved")
	ErrConcurrencyConflict = errors.New("concurrent modification")
	ErrInvalidTransition   = errors.New("invalid status transition")
)

// Kind — имя ошибки в таксономии, отдаётся клиенту.
type Kind string

const (
	KindValidation          Kind = "ValidationError"
	KindNotFound            Kind = "NotFoundError"
	KindNotOwner            Kind = "NotOwnerError"
	KindSelfSwap            Kind = "SelfSwapError"
	KindSlotNotAvailable    Kind = "SlotNotAvailableError"
	KindAlreadyResolved     Kind = "AlreadyResolvedError"
	KindConcurrencyConflict Kind = "ConcurrencyConflictError"
	KindInvalidTransition   Kind = "InvalidTransitionError"
	KindInternal            Kind = "InternalError"
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrValidation, KindValidation},
	{ErrNotFound, KindNotFound},
	{ErrNotOwner, KindNotOwner},
	{ErrSelfSwap, KindSelfSwap},
	{ErrSlotNotAvailable, KindSlotNotAvailable},
	{ErrAlreadyResolved, KindAlreadyResolved},
	{ErrConcurrencyConflict, KindConcurrencyConflict},
	{ErrInvalidTransition, KindInvalidTransition},
}

// KindOf возвращает вид ошибки; всё неизвестное считается внутренней ошибкой.
func KindOf(err error) Kind {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}
