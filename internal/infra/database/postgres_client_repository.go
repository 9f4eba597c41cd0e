package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq" // For pq.Array

	"team_pulse_worker/internal/domain/client"
)

type PostgresClientRepository struct {
	db *sql.DB
}

func NewPostgresClientRepository(db *sql.DB) *PostgresClientRepository {
	return &PostgresClientRepository{db: db}
}

func (r *PostgresClientRepository) ListByStatuses(ctx context.Context, statuses []client.HealthStatus) ([]*client.Client, error) {
	if len(statuses) == 0 {
		return []*client.Client{}, nil
	}
	statusStrings := make([]string, len(statuses))
	for i, s := range statuses {
		statusStrings[i] = string(s)
	}

	query := `SELECT id, name, health_status, squad_id, created_at
               FROM clients
               WHERE health_status = ANY($1::text[])
               ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(statusStrings))
	if err != nil {
		return nil, fmt.Errorf("error querying clients by status: %w", err)
	}
	defer rows.Close()

	clients := make([]*client.Client, 0)
	for rows.Next() {
		c := &client.Client{}
		var status string
		if err := rows.Scan(&c.ID, &c.Name, &status, &c.SquadID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning client: %w", err)
		}
		c.HealthStatus = client.ParseHealthStatus(status)
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clients: %w", err)
	}
	return clients, nil
}

func (r *PostgresClientRepository) LatestStatusChanges(ctx context.Context, clientIDs []uuid.UUID) (map[uuid.UUID]*client.StatusHistoryEntry, error) {
	latest := make(map[uuid.UUID]*client.StatusHistoryEntry, len(clientIDs))
	if len(clientIDs) == 0 {
		return latest, nil
	}
	ids := make([]string, len(clientIDs))
	for i, id := range clientIDs {
		ids[i] = id.String()
	}

	query := `SELECT DISTINCT ON (client_id) id, client_id, previous_status, new_status, changed_at, changed_by, notes
               FROM client_status_history
               WHERE client_id = ANY($1::uuid[])
               ORDER BY client_id, changed_at DESC`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("error querying latest status changes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		e := &client.StatusHistoryEntry{}
		var previous sql.NullString
		var next string
		if err := rows.Scan(&e.ID, &e.ClientID, &previous, &next, &e.ChangedAt, &e.ChangedBy, &e.Notes); err != nil {
			return nil, fmt.Errorf("error scanning status history entry: %w", err)
		}
		if previous.Valid {
			e.PreviousStatus = client.ParseHealthStatus(previous.String)
		}
		e.NewStatus = client.ParseHealthStatus(next)
		latest[e.ClientID] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status history: %w", err)
	}
	return latest, nil
}
