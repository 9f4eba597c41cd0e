package notification

import (
	"time"

	"github.com/google/uuid"
)

// Notification is one delivered message in a recipient's inbox.
// Corresponds to the 'notifications' table.
type Notification struct {
	ID          uuid.UUID
	RecipientID uuid.UUID
	Category    Category
	ClientID    uuid.NullUUID
	Title       string
	Message     string
	Metadata    Metadata
	IsRead      bool
	CreatedAt   time.Time
}

// Metadata is the structured payload of a client-at-risk alert.
type Metadata struct {
	DaysWithoutChange int     `json:"days_without_change"`
	HealthStatus      string  `json:"health_status"`
	Urgency           Urgency `json:"urgency"`
}
