// internal/domain/notification/shared_types.go
package notification

import "strings"

// Category tags a notification and keys the subscriber preference table.
type Category string

const (
	CategoryClientAtRisk Category = "client_at_risk"
)

// Urgency tiers an alert by how long the client has been stale.
type Urgency string

const (
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
	UrgencyUnknown  Urgency = "unknown"
)

func ParseUrgency(raw string) Urgency {
	switch u := Urgency(strings.ToLower(strings.TrimSpace(raw))); u {
	case UrgencyHigh, UrgencyCritical:
		return u
	default:
		return UrgencyUnknown
	}
}

// ClassifyUrgency is critical at or beyond escalateAfterDays, high otherwise.
func ClassifyUrgency(daysStale, escalateAfterDays int) Urgency {
	if daysStale >= escalateAfterDays {
		return UrgencyCritical
	}
	return UrgencyHigh
}
