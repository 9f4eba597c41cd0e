// internal/domain/notification/repository.go
package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Ledger is the append-only record of sent notifications. It doubles as the
// deduplication window.
type Ledger interface {
	// ExistsSince reports whether a notification of category for the
	// (client, recipient) pair was created at or after since.
	ExistsSince(ctx context.Context, clientID, recipientID uuid.UUID, category Category, since time.Time) (bool, error)
	// CreateIfAbsent re-checks the window and inserts n atomically. created is
	// false when a notification inside the window already exists.
	CreateIfAbsent(ctx context.Context, n *Notification, since time.Time) (created bool, err error)
	ListForRecipient(ctx context.Context, recipientID uuid.UUID, limit int) ([]*Notification, error)
}
