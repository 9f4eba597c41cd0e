// internal/domain/goal/recurrence.go
package goal

import (
	"strings"
	"time"
)

// Recurrence is the cadence on which a collective goal rolls over.
type Recurrence string

const (
	RecurrenceNone     Recurrence = "none"
	RecurrenceWeekly   Recurrence = "weekly"
	RecurrenceBiweekly Recurrence = "biweekly"
	RecurrenceMonthly  Recurrence = "monthly"
	// RecurrenceUnknown marks a stored value that maps to no known cadence.
	RecurrenceUnknown Recurrence = "unknown"
)

const day = 24 * time.Hour

// ParseRecurrence maps a stored value to a Recurrence. Empty values mean none;
// anything unrecognized yields RecurrenceUnknown and never a default cadence.
func ParseRecurrence(raw string) Recurrence {
	switch Recurrence(strings.ToLower(strings.TrimSpace(raw))) {
	case "", RecurrenceNone:
		return RecurrenceNone
	case RecurrenceWeekly:
		return RecurrenceWeekly
	case RecurrenceBiweekly:
		return RecurrenceBiweekly
	case RecurrenceMonthly:
		return RecurrenceMonthly
	default:
		return RecurrenceUnknown
	}
}

// Interval returns the fixed offset between two resets. ok is false for
// none and unknown.
func (r Recurrence) Interval() (time.Duration, bool) {
	switch r {
	case RecurrenceWeekly:
		return 7 * day, true
	case RecurrenceBiweekly:
		return 14 * day, true
	case RecurrenceMonthly:
		return 30 * day, true
	default:
		return 0, false
	}
}

// IsRecurring reports whether the value is anything other than none.
// Unknown counts as recurring so the anomaly surfaces during a rollover pass.
func (r Recurrence) IsRecurring() bool {
	return r != RecurrenceNone
}

// NextOccurrence adds the recurrence interval to from.
func (r Recurrence) NextOccurrence(from time.Time) (time.Time, bool) {
	interval, ok := r.Interval()
	if !ok {
		return time.Time{}, false
	}
	return from.Add(interval), true
}
