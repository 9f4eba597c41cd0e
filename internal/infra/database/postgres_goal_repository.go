// internal/infra/database/postgres_goal_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"team_pulse_worker/internal/domain/goal"
)

const goalColumns = `id, team_id, title, recurrence, target_value, current_value, status,
               cycle_start_at, next_reset_at, target_date, created_at, updated_at`

const cycleColumns = `id, goal_id, cycle_number, cycle_start, cycle_end, target_value, achieved_value,
               completion_rate, total_participants, completed_participants, created_at`

type PostgresGoalRepository struct {
	db *sql.DB
}

func NewPostgresGoalRepository(db *sql.DB) *PostgresGoalRepository {
	return &PostgresGoalRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGoal(row rowScanner) (*goal.Goal, error) {
	g := &goal.Goal{}
	var recurrence, status string
	err := row.Scan(
		&g.ID, &g.TeamID, &g.Title, &recurrence, &g.TargetValue, &g.CurrentValue, &status,
		&g.CycleStartAt, &g.NextResetAt, &g.TargetDate, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	g.Recurrence = goal.ParseRecurrence(recurrence)
	g.Status = goal.ParseStatus(status)
	return g, nil
}

// --- Goal Methods ---

func (r *PostgresGoalRepository) ListDue(ctx context.Context, now time.Time) ([]*goal.Goal, error) {
	query := `SELECT ` + goalColumns + `
               FROM goals
               WHERE recurrence <> 'none' AND next_reset_at IS NOT NULL AND next_reset_at <= $1
               ORDER BY next_reset_at ASC` // Oldest overdue first
	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("error querying due goals: %w", err)
	}
	defer rows.Close()

	goals := make([]*goal.Goal, 0)
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning due goal: %w", err)
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating due goals: %w", err)
	}
	return goals, nil
}

func (r *PostgresGoalRepository) GetByID(ctx context.Context, id uuid.UUID) (*goal.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE id = $1`
	g, err := scanGoal(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrGoalNotFound
		}
		return nil, fmt.Errorf("error getting goal by ID: %w", err)
	}
	return g, nil
}

func (r *PostgresGoalRepository) ResetCycle(ctx context.Context, reset goal.Reset) error {
	query := `UPDATE goals
               SET current_value = 0, status = $2, cycle_start_at = $3,
                   next_reset_at = $4, target_date = $4, updated_at = NOW()
               WHERE id = $1 AND next_reset_at IS NOT NULL AND next_reset_at <= $5
               RETURNING updated_at`
	var updatedAt time.Time
	err := r.db.QueryRowContext(ctx, query,
		reset.GoalID, goal.StatusInProgress, reset.CycleStartAt, reset.NextResetAt, reset.DueAt,
	).Scan(&updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			// Either another worker already reset it or the goal vanished.
			return ErrGoalNotDue
		}
		return fmt.Errorf("error resetting goal cycle: %w", err)
	}
	return nil
}

// --- CompletionMark Methods ---

func (r *PostgresGoalRepository) ListCompletionMarks(ctx context.Context, goalID uuid.UUID) ([]*goal.CompletionMark, error) {
	query := `SELECT id, goal_id, user_id, completed, completed_at
               FROM goal_completions WHERE goal_id = $1`
	rows, err := r.db.QueryContext(ctx, query, goalID)
	if err != nil {
		return nil, fmt.Errorf("error querying completion marks: %w", err)
	}
	defer rows.Close()

	marks := make([]*goal.CompletionMark, 0)
	for rows.Next() {
		m := &goal.CompletionMark{}
		if err := rows.Scan(&m.ID, &m.GoalID, &m.ParticipantID, &m.Completed, &m.CompletedAt); err != nil {
			return nil, fmt.Errorf("error scanning completion mark: %w", err)
		}
		marks = append(marks, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating completion marks: %w", err)
	}
	return marks, nil
}

func (r *PostgresGoalRepository) DeleteCompletionMarks(ctx context.Context, goalID uuid.UUID) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM goal_completions WHERE goal_id = $1`, goalID)
	if err != nil {
		return 0, fmt.Errorf("error deleting completion marks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading deleted completion marks count: %w", err)
	}
	return n, nil
}

// --- CycleRecord Methods ---

func scanCycle(row rowScanner) (*goal.CycleRecord, error) {
	c := &goal.CycleRecord{}
	err := row.Scan(
		&c.ID, &c.GoalID, &c.CycleNumber, &c.CycleStart, &c.CycleEnd, &c.TargetValue, &c.AchievedValue,
		&c.CompletionRate, &c.TotalParticipants, &c.CompletedParticipants, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *PostgresGoalRepository) LatestCycle(ctx context.Context, goalID uuid.UUID) (*goal.CycleRecord, error) {
	query := `SELECT ` + cycleColumns + `
               FROM goal_cycles WHERE goal_id = $1
               ORDER BY cycle_number DESC LIMIT 1`
	c, err := scanCycle(r.db.QueryRowContext(ctx, query, goalID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCycleNotFound
		}
		return nil, fmt.Errorf("error getting latest goal cycle: %w", err)
	}
	return c, nil
}

func (r *PostgresGoalRepository) CreateCycle(ctx context.Context, rec *goal.CycleRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	query := `INSERT INTO goal_cycles (id, goal_id, cycle_number, cycle_start, cycle_end, target_value,
                   achieved_value, completion_rate, total_participants, completed_participants)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
               RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query,
		rec.ID, rec.GoalID, rec.CycleNumber, rec.CycleStart, rec.CycleEnd, rec.TargetValue,
		rec.AchievedValue, rec.CompletionRate, rec.TotalParticipants, rec.CompletedParticipants,
	).Scan(&rec.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "goal_cycles_goal_number_unique") {
			return ErrCycleNumberTaken
		}
		return fmt.Errorf("error creating goal cycle: %w", err)
	}
	return nil
}

func (r *PostgresGoalRepository) ListCycles(ctx context.Context, goalID uuid.UUID) ([]*goal.CycleRecord, error) {
	query := `SELECT ` + cycleColumns + `
               FROM goal_cycles WHERE goal_id = $1 ORDER BY cycle_number ASC`
	rows, err := r.db.QueryContext(ctx, query, goalID)
	if err != nil {
		return nil, fmt.Errorf("error querying goal cycles: %w", err)
	}
	defer rows.Close()

	cycles := make([]*goal.CycleRecord, 0)
	for rows.Next() {
		c, err := scanCycle(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning goal cycle: %w", err)
		}
		cycles = append(cycles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating goal cycles: %w", err)
	}
	return cycles, nil
}
