package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"team_pulse_worker/internal/domain/notification"
	"team_pulse_worker/internal/domain/subscriber"
)

// PostgresSubscriberDirectory resolves alert recipients from users, user_roles
// and notification_preferences.
type PostgresSubscriberDirectory struct {
	db *sql.DB
}

func NewPostgresSubscriberDirectory(db *sql.DB) *PostgresSubscriberDirectory {
	return &PostgresSubscriberDirectory{db: db}
}

func (d *PostgresSubscriberDirectory) ListAlertCandidates(ctx context.Context) ([]*subscriber.Subscriber, error) {
	roles := []string{string(subscriber.RoleCoordinator), string(subscriber.RoleSupervisor), string(subscriber.RoleAdmin)}
	query := `SELECT u.id, u.full_name, u.squad_id, u.telegram_id, array_agg(ur.role ORDER BY ur.role)
               FROM users u
               JOIN user_roles ur ON ur.user_id = u.id
               WHERE u.is_active = TRUE AND ur.role = ANY($1::text[])
               GROUP BY u.id, u.full_name, u.squad_id, u.telegram_id
               ORDER BY u.full_name`
	rows, err := d.db.QueryContext(ctx, query, pq.Array(roles))
	if err != nil {
		return nil, fmt.Errorf("error querying alert candidates: %w", err)
	}
	defer rows.Close()

	subs := make([]*subscriber.Subscriber, 0)
	for rows.Next() {
		s := &subscriber.Subscriber{}
		var telegramID sql.NullInt64
		var roleNames []string
		if err := rows.Scan(&s.UserID, &s.FullName, &s.SquadID, &telegramID, pq.Array(&roleNames)); err != nil {
			return nil, fmt.Errorf("error scanning alert candidate: %w", err)
		}
		s.TelegramID = telegramID.Int64
		for _, name := range roleNames {
			s.Roles = append(s.Roles, subscriber.ParseRole(name))
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alert candidates: %w", err)
	}
	return subs, nil
}

func (d *PostgresSubscriberDirectory) NotificationsEnabled(ctx context.Context, userID uuid.UUID, category notification.Category) (bool, error) {
	query := `SELECT enabled FROM notification_preferences WHERE user_id = $1 AND category = $2`
	var enabled bool
	err := d.db.QueryRowContext(ctx, query, userID, category).Scan(&enabled)
	if err != nil {
		if err == sql.ErrNoRows {
			return true, nil // opted in unless stated otherwise
		}
		return false, fmt.Errorf("error getting notification preference: %w", err)
	}
	return enabled, nil
}

// SetPreference upserts a user's opt-in for a category.
func (d *PostgresSubscriberDirectory) SetPreference(ctx context.Context, userID uuid.UUID, category notification.Category, enabled bool) error {
	query := `INSERT INTO notification_preferences (user_id, category, enabled)
               VALUES ($1, $2, $3)
               ON CONFLICT (user_id, category) DO UPDATE SET enabled = EXCLUDED.enabled`
	if _, err := d.db.ExecContext(ctx, query, userID, category, enabled); err != nil {
		return fmt.Errorf("error setting notification preference: %w", err)
	}
	return nil
}

// GetByTelegramID finds the active user linked to a Telegram chat.
func (d *PostgresSubscriberDirectory) GetByTelegramID(ctx context.Context, telegramID int64) (*subscriber.Subscriber, error) {
	query := `SELECT u.id, u.full_name, u.squad_id, COALESCE(array_agg(ur.role) FILTER (WHERE ur.role IS NOT NULL), '{}')
               FROM users u
               LEFT JOIN user_roles ur ON ur.user_id = u.id
               WHERE u.telegram_id = $1 AND u.is_active = TRUE
               GROUP BY u.id, u.full_name, u.squad_id`
	s := &subscriber.Subscriber{TelegramID: telegramID}
	var roleNames []string
	err := d.db.QueryRowContext(ctx, query, telegramID).Scan(&s.UserID, &s.FullName, &s.SquadID, pq.Array(&roleNames))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSubscriberNotFound
		}
		return nil, fmt.Errorf("error getting subscriber by Telegram ID: %w", err)
	}
	for _, name := range roleNames {
		s.Roles = append(s.Roles, subscriber.ParseRole(name))
	}
	return s, nil
}
