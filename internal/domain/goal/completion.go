package goal

import (
	"database/sql"

	"github.com/google/uuid"
)

// CompletionMark is one participant's acknowledgment of a goal within the current cycle.
// At most one exists per (goal, participant).
type CompletionMark struct {
	ID            uuid.UUID
	GoalID        uuid.UUID
	ParticipantID uuid.UUID
	Completed     bool
	CompletedAt   sql.NullTime
}

// Tally summarizes the marks of one cycle.
type Tally struct {
	Total     int
	Completed int
}

func TallyMarks(marks []*CompletionMark) Tally {
	t := Tally{Total: len(marks)}
	for _, m := range marks {
		if m.Completed {
			t.Completed++
		}
	}
	return t
}

// Rate is the rounded completion percentage, 0 when nobody took part.
func (t Tally) Rate() int {
	if t.Total == 0 {
		return 0
	}
	// integer round-half-up of 100*completed/total
	return (200*t.Completed + t.Total) / (2 * t.Total)
}
