// internal/domain/goal/repository.go
package goal

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines operations for goals, their completion marks and archived cycles.
type Repository interface {
	// Goal methods
	ListDue(ctx context.Context, now time.Time) ([]*Goal, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Goal, error)
	// ResetCycle applies r only while the goal is still due at r.DueAt.
	ResetCycle(ctx context.Context, r Reset) error

	// CompletionMark methods
	ListCompletionMarks(ctx context.Context, goalID uuid.UUID) ([]*CompletionMark, error)
	DeleteCompletionMarks(ctx context.Context, goalID uuid.UUID) (int64, error)

	// CycleRecord methods
	LatestCycle(ctx context.Context, goalID uuid.UUID) (*CycleRecord, error)
	// CreateCycle fails when the cycle number is already taken for the goal.
	CreateCycle(ctx context.Context, rec *CycleRecord) error
	ListCycles(ctx context.Context, goalID uuid.UUID) ([]*CycleRecord, error)
}
