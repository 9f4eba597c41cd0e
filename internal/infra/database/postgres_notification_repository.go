// internal/infra/database/postgres_notification_repository.go
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"team_pulse_worker/internal/domain/notification"
)

type PostgresNotificationRepository struct {
	db *sql.DB
}

func NewPostgresNotificationRepository(db *sql.DB) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

func (r *PostgresNotificationRepository) ExistsSince(ctx context.Context, clientID, recipientID uuid.UUID, category notification.Category, since time.Time) (bool, error) {
	query := `SELECT EXISTS (
                   SELECT 1 FROM notifications
                   WHERE client_id = $1 AND user_id = $2 AND type = $3 AND created_at >= $4
               )`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, clientID, recipientID, category, since).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking notification dedup window: %w", err)
	}
	return exists, nil
}

// CreateIfAbsent serializes writers of the same (client, recipient, category)
// with a transaction-scoped advisory lock, then inserts only if the window is empty.
func (r *PostgresNotificationRepository) CreateIfAbsent(ctx context.Context, n *notification.Notification, since time.Time) (bool, error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	metadata, err := json.Marshal(n.Metadata)
	if err != nil {
		return false, fmt.Errorf("failed to encode notification metadata: %w", err)
	}

	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction for notification insert: %w", err)
	}
	defer txn.Rollback() // Rollback if not committed

	lockKey := fmt.Sprintf("%s:%s:%s", n.ClientID.UUID, n.RecipientID, n.Category)
	if _, err := txn.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey); err != nil {
		return false, fmt.Errorf("failed to take notification dedup lock: %w", err)
	}

	query := `INSERT INTO notifications (id, user_id, type, client_id, title, message, metadata, is_read, created_at)
               SELECT $1::uuid, $2::uuid, $3::text, $4::uuid, $5::text, $6::text, $7::jsonb, FALSE, $8::timestamptz
               WHERE NOT EXISTS (
                   SELECT 1 FROM notifications
                   WHERE client_id = $4::uuid AND user_id = $2::uuid AND type = $3::text AND created_at >= $9::timestamptz
               )
               RETURNING created_at`
	err = txn.QueryRowContext(ctx, query,
		n.ID, n.RecipientID, n.Category, n.ClientID, n.Title, n.Message, string(metadata), n.CreatedAt, since,
	).Scan(&n.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil // a notification inside the window already exists
		}
		return false, fmt.Errorf("error creating notification: %w", err)
	}

	if err := txn.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit notification insert: %w", err)
	}
	return true, nil
}

func (r *PostgresNotificationRepository) ListForRecipient(ctx context.Context, recipientID uuid.UUID, limit int) ([]*notification.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, user_id, type, client_id, title, message, metadata, is_read, created_at
               FROM notifications
               WHERE user_id = $1
               ORDER BY created_at DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying notifications for recipient: %w", err)
	}
	defer rows.Close()

	notifications := make([]*notification.Notification, 0)
	for rows.Next() {
		n := &notification.Notification{}
		var category string
		var metadata []byte
		if err := rows.Scan(&n.ID, &n.RecipientID, &category, &n.ClientID, &n.Title, &n.Message, &metadata, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning notification row: %w", err)
		}
		n.Category = notification.Category(category)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &n.Metadata); err != nil {
				return nil, fmt.Errorf("error decoding notification metadata: %w", err)
			}
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification rows: %w", err)
	}
	return notifications, nil
}
