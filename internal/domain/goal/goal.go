package goal

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a goal.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusUnknown    Status = "unknown"
)

func ParseStatus(raw string) Status {
	switch s := Status(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusNotStarted, StatusInProgress, StatusCompleted, StatusFailed:
		return s
	default:
		return StatusUnknown
	}
}

// Goal is a collective target owned by a team.
// Corresponds to the 'goals' table.
type Goal struct {
	ID           uuid.UUID
	TeamID       uuid.NullUUID
	Title        string
	Recurrence   Recurrence
	TargetValue  float64
	CurrentValue float64
	Status       Status
	CycleStartAt sql.NullTime
	NextResetAt  sql.NullTime // set iff Recurrence is not none
	TargetDate   sql.NullTime
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsDue reports whether the goal's current cycle has elapsed at now.
func (g *Goal) IsDue(now time.Time) bool {
	return g.Recurrence.IsRecurring() && g.NextResetAt.Valid && !g.NextResetAt.Time.After(now)
}

// CurrentCycleStart falls back to the creation time for goals that never rolled over.
func (g *Goal) CurrentCycleStart() time.Time {
	if g.CycleStartAt.Valid {
		return g.CycleStartAt.Time
	}
	return g.CreatedAt
}

// Reset is the state written to a goal when a new cycle starts.
type Reset struct {
	GoalID       uuid.UUID
	CycleStartAt time.Time
	NextResetAt  time.Time
	// DueAt guards the write: it only applies while next_reset_at <= DueAt.
	DueAt time.Time
}
