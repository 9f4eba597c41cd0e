// internal/domain/client/client.go
package client

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
)

// HealthStatus is the enumerated health/lifecycle state of a monitored client.
type HealthStatus string

const (
	HealthSafe           HealthStatus = "safe"
	HealthCare           HealthStatus = "care"
	HealthDanger         HealthStatus = "danger"
	HealthDangerCritical HealthStatus = "danger_critical"
	HealthOnboarding     HealthStatus = "onboarding"
	HealthChurn          HealthStatus = "churn"
	HealthNoticePeriod   HealthStatus = "notice_period"
	HealthClosed         HealthStatus = "closed"
	HealthUnknown        HealthStatus = "unknown"
)

var knownStatuses = map[HealthStatus]struct{}{
	HealthSafe:           {},
	HealthCare:           {},
	HealthDanger:         {},
	HealthDangerCritical: {},
	HealthOnboarding:     {},
	HealthChurn:          {},
	HealthNoticePeriod:   {},
	HealthClosed:         {},
}

func ParseHealthStatus(raw string) HealthStatus {
	s := HealthStatus(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := knownStatuses[s]; ok {
		return s
	}
	return HealthUnknown
}

// DefaultCriticalStatuses is the set of statuses the alert engine watches.
func DefaultCriticalStatuses() []HealthStatus {
	return []HealthStatus{HealthDanger, HealthDangerCritical, HealthChurn, HealthNoticePeriod}
}

// Client is a monitored account. Corresponds to the 'clients' table.
type Client struct {
	ID           uuid.UUID
	Name         string
	HealthStatus HealthStatus
	SquadID      uuid.NullUUID // owning team
	CreatedAt    time.Time
}

// StatusHistoryEntry is one recorded transition. Append-only.
type StatusHistoryEntry struct {
	ID             uuid.UUID
	ClientID       uuid.UUID
	PreviousStatus HealthStatus
	NewStatus      HealthStatus
	ChangedAt      time.Time
	ChangedBy      uuid.NullUUID
	Notes          sql.NullString
}

// LastChange is the moment the client's status last changed. Clients without
// history have been in their status since creation.
func LastChange(c *Client, latest *StatusHistoryEntry) time.Time {
	if latest == nil {
		return c.CreatedAt
	}
	return latest.ChangedAt
}
