// internal/app/cycle_manager.go
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"team_pulse_worker/internal/domain/goal"
	idb "team_pulse_worker/internal/infra/database"
)

// ErrMissingCollaborator is returned when a pass is run without one of its stores.
var ErrMissingCollaborator = fmt.Errorf("required collaborator is not configured")

// Skip reasons reported for goals aborted without error.
const (
	ReasonUnknownRecurrence = "unrecognized recurrence"
	ReasonCycleNumberTaken  = "cycle number already taken"
	ReasonNoLongerDue       = "goal no longer due"
	ReasonPassCancelled     = "pass cancelled before goal started"
)

// RolloverRunner is implemented by CycleManager.
type RolloverRunner interface {
	RunRolloverPass(ctx context.Context, now time.Time) (*RolloverReport, error)
}

// RolloverResult is the outcome of one goal's rollover.
type RolloverResult struct {
	GoalID  uuid.UUID
	Success bool
	Skipped bool
	Reason  string
	// CycleNumber and CompletionRate are set when Success is true.
	CycleNumber    int
	CompletionRate int
	Error          error
}

// RolloverReport summarizes a rollover pass.
type RolloverReport struct {
	Processed int
	Results   []RolloverResult
}

func (r *RolloverReport) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.Success {
			n++
		}
	}
	return n
}

func (r *RolloverReport) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Error != nil {
			n++
		}
	}
	return n
}

// CycleManager archives and resets recurring goals whose cycle has elapsed.
type CycleManager struct {
	goalRepo goal.Repository
	logger   *logrus.Entry
	workers  int
}

func NewCycleManager(gr goal.Repository, logger *logrus.Entry, workers int) *CycleManager {
	return &CycleManager{
		goalRepo: gr,
		logger:   logger,
		workers:  workers,
	}
}

// RunRolloverPass rolls over every recurring goal with next_reset_at <= now.
// A failing goal never aborts its siblings; it is retried on the next pass.
func (m *CycleManager) RunRolloverPass(ctx context.Context, now time.Time) (*RolloverReport, error) {
	if m == nil || m.goalRepo == nil || m.logger == nil {
		return nil, fmt.Errorf("cycle manager: %w", ErrMissingCollaborator)
	}
	passLogger := m.logger.WithFields(logrus.Fields{"pass": "rollover", "now": now.Format(time.RFC3339)})

	dueGoals, err := m.goalRepo.ListDue(ctx, now)
	if err != nil {
		passLogger.WithError(err).Error("Failed to list due goals")
		return nil, fmt.Errorf("failed to list due goals: %w", err)
	}

	report := &RolloverReport{
		Processed: len(dueGoals),
		Results:   make([]RolloverResult, len(dueGoals)),
	}
	if len(dueGoals) == 0 {
		passLogger.Info("No goals due for rollover")
		return report, nil
	}
	passLogger.WithField("due_goals", len(dueGoals)).Info("Starting rollover pass")

	notStarted := runUnits(ctx, m.workers, len(dueGoals), func(unitCtx context.Context, i int) {
		report.Results[i] = m.rolloverGoal(unitCtx, dueGoals[i], now)
	})
	for _, i := range notStarted {
		report.Results[i] = RolloverResult{
			GoalID:  dueGoals[i].ID,
			Skipped: true,
			Reason:  ReasonPassCancelled,
			Error:   ctx.Err(),
		}
	}

	passLogger.WithFields(logrus.Fields{
		"processed": report.Processed,
		"succeeded": report.Succeeded(),
		"failed":    report.Failed(),
	}).Info("Rollover pass finished")
	return report, nil
}

// rolloverGoal runs one goal's unit of work: archive, clear marks, reset.
// next_reset_at is written last so a cut anywhere leaves the goal due and
// the next pass resumes where this one stopped.
func (m *CycleManager) rolloverGoal(ctx context.Context, g *goal.Goal, now time.Time) RolloverResult {
	result := RolloverResult{GoalID: g.ID}
	goalLogger := m.logger.WithFields(logrus.Fields{"goal_id": g.ID, "recurrence": g.Recurrence})

	nextReset, ok := g.Recurrence.NextOccurrence(now)
	if !ok {
		goalLogger.Warn("Data anomaly: goal has no usable recurrence interval, not resetting")
		result.Skipped = true
		result.Reason = ReasonUnknownRecurrence
		return result
	}

	fail := func(step string, err error) RolloverResult {
		goalLogger.WithError(err).WithField("step", step).Error("Goal rollover failed")
		result.Error = fmt.Errorf("%s: %w", step, err)
		return result
	}

	marks, err := m.goalRepo.ListCompletionMarks(ctx, g.ID)
	if err != nil {
		return fail("list completion marks", err)
	}
	tally := goal.TallyMarks(marks)
	if tally.Total == 0 {
		goalLogger.Debug("Goal has no participants this cycle, completion rate is 0")
	}

	cycleStart := g.CurrentCycleStart()

	// Re-read the latest cycle right before insert; it decides both the next
	// number and whether an earlier run already archived this period.
	latest, err := m.goalRepo.LatestCycle(ctx, g.ID)
	if err != nil && !errors.Is(err, idb.ErrCycleNotFound) {
		return fail("read latest cycle", err)
	}

	if latest != nil && latest.CycleStart.Equal(cycleStart) {
		goalLogger.WithField("cycle_number", latest.CycleNumber).Info("Cycle already archived by an earlier run, resuming reset")
		current, err := m.goalRepo.GetByID(ctx, g.ID)
		if err != nil {
			return fail("reload goal", err)
		}
		if !current.IsDue(now) {
			result.Skipped = true
			result.Reason = ReasonNoLongerDue
			return result
		}
		result.CycleNumber = latest.CycleNumber
		result.CompletionRate = latest.CompletionRate
	} else {
		next := 1
		if latest != nil {
			next = latest.CycleNumber + 1
		}
		record := &goal.CycleRecord{
			GoalID:                g.ID,
			CycleNumber:           next,
			CycleStart:            cycleStart,
			CycleEnd:              now,
			TargetValue:           g.TargetValue,
			AchievedValue:         g.CurrentValue,
			CompletionRate:        tally.Rate(),
			TotalParticipants:     tally.Total,
			CompletedParticipants: tally.Completed,
		}
		if err := m.goalRepo.CreateCycle(ctx, record); err != nil {
			if errors.Is(err, idb.ErrCycleNumberTaken) {
				goalLogger.WithField("cycle_number", next).Info("Cycle number taken by a concurrent rollover, skipping goal")
				result.Skipped = true
				result.Reason = ReasonCycleNumberTaken
				return result
			}
			return fail("archive cycle", err)
		}
		result.CycleNumber = record.CycleNumber
		result.CompletionRate = record.CompletionRate
		goalLogger.WithFields(logrus.Fields{
			"cycle_number":    record.CycleNumber,
			"completion_rate": record.CompletionRate,
			"participants":    record.TotalParticipants,
		}).Info("Cycle archived")
	}

	deleted, err := m.goalRepo.DeleteCompletionMarks(ctx, g.ID)
	if err != nil {
		return fail("clear completion marks", err)
	}

	err = m.goalRepo.ResetCycle(ctx, goal.Reset{
		GoalID:       g.ID,
		CycleStartAt: now,
		NextResetAt:  nextReset,
		DueAt:        now,
	})
	if err != nil {
		if errors.Is(err, idb.ErrGoalNotDue) {
			goalLogger.Info("Goal was reset by a concurrent rollover")
			result.Skipped = true
			result.Reason = ReasonNoLongerDue
			return result
		}
		return fail("reset goal", err)
	}

	goalLogger.WithFields(logrus.Fields{
		"cycle_number":  result.CycleNumber,
		"marks_cleared": deleted,
		"next_reset_at": nextReset.Format(time.RFC3339),
	}).Info("Goal rolled over")
	result.Success = true
	return result
}
