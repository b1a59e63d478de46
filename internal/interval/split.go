package interval

import (
	"errors"
	"time"
)

// Duration is the fixed length of a billing interval.
const Duration = 15 * time.Minute

// ErrInvalidRange is returned when the span start is not before its end.
var ErrInvalidRange = errors.New("interval: start must be before end")

// Slice is one partition element of a split span.
type Slice struct {
	StartTime    time.Time
	EndTime      time.Time
	EnergyAmount float64
}

// Split partitions [start, end) into 15-minute slices and allocates the
// total quantity uniformly across them. The trailing slice may be shorter
// in time but still receives a full per-slice share: billing intervals
// are atomic 15-minute units, so allocation is per slice, not per second.
func Split(start, end time.Time, total float64) ([]Slice, error) {
	if !start.Before(end) {
		return nil, ErrInvalidRange
	}

	span := end.Sub(start)
	count := int(span / Duration)
	if span%Duration != 0 {
		count++
	}
	perSlice := total / float64(count)

	slices := make([]Slice, 0, count)
	current := start
	for current.Before(end) {
		sliceEnd := current.Add(Duration)
		if sliceEnd.After(end) {
			sliceEnd = end
		}
		slices = append(slices, Slice{
			StartTime:    current,
			EndTime:      sliceEnd,
			EnergyAmount: perSlice,
		})
		current = sliceEnd
	}
	return slices, nil
}
