package database

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// Custom errors shared by the repositories
var ErrGoalNotFound = fmt.Errorf("goal not found")
var ErrGoalNotDue = fmt.Errorf("goal is not due for rollover")
var ErrCycleNotFound = fmt.Errorf("goal cycle not found")
var ErrCycleNumberTaken = fmt.Errorf("cycle number already taken for goal (goal_id, cycle_number)")
var ErrSubscriberNotFound = fmt.Errorf("subscriber not found")

const uniqueViolation = "23505"

func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == uniqueViolation && (constraint == "" || pqErr.Constraint == constraint)
}
