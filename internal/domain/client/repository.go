package client

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines read operations on monitored clients and their status history.
type Repository interface {
	ListByStatuses(ctx context.Context, statuses []HealthStatus) ([]*Client, error)
	// LatestStatusChanges returns the most recent history entry per client.
	// Clients without history are absent from the map.
	LatestStatusChanges(ctx context.Context, clientIDs []uuid.UUID) (map[uuid.UUID]*StatusHistoryEntry, error)
}
