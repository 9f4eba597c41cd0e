package goal

import (
	"time"

	"github.com/google/uuid"
)

// CycleRecord is the immutable archive of one finished cycle of a recurring goal.
// Corresponds to the 'goal_cycles' table; (goal_id, cycle_number) is unique.
type CycleRecord struct {
	ID                    uuid.UUID
	GoalID                uuid.UUID
	CycleNumber           int
	CycleStart            time.Time
	CycleEnd              time.Time
	TargetValue           float64
	AchievedValue         float64
	CompletionRate        int
	TotalParticipants     int
	CompletedParticipants int
	CreatedAt             time.Time
}
