package calendar

import (
	"errors"
	"time"
)

var ErrInvalidTimeRange = errors.New("invalid time range")

// TimeRange представляет временной интервал [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// NewTimeRange создаёт интервал: обе границы заданы и Start строго раньше End.
// Границы переводятся в UTC.
func NewTimeRange(start, end time.Time) (TimeRange, error) {
	if start.IsZero() || end.IsZero() {
		return TimeRange{}, ErrInvalidTimeRange
	}
	if !end.After(start) {
		return TimeRange{}, ErrInvalidTimeRange
	}
	return TimeRange{Start: start.UTC(), End: end.UTC()}, nil
}

// Duration возвращает длительность интервала.
func (tr TimeRange) Duration() time.Duration {
	return tr.End.Sub(tr.Start)
}
