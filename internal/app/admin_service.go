package app

import (
	"context"
	"fmt"
	"time"
)

// Custom application-level errors for admin service
var ErrAdminNotAuthorized = fmt.Errorf("performing user is not authorized as an admin")

// AdminService lets the configured admin trigger passes outside the schedule.
type AdminService struct {
	rollovers       RolloverRunner
	alerts          AlertRunner
	adminTelegramID int64
	now             func() time.Time
}

func NewAdminService(rr RolloverRunner, ar AlertRunner, adminID int64) *AdminService {
	return &AdminService{
		rollovers:       rr,
		alerts:          ar,
		adminTelegramID: adminID,
		now:             time.Now,
	}
}

func (s *AdminService) IsAdmin(telegramID int64) bool {
	return s.adminTelegramID != 0 && telegramID == s.adminTelegramID
}

// TriggerRollover runs a rollover pass immediately on behalf of the admin.
func (s *AdminService) TriggerRollover(ctx context.Context, performingAdminID int64) (*RolloverReport, error) {
	if !s.IsAdmin(performingAdminID) {
		return nil, ErrAdminNotAuthorized
	}
	if s.rollovers == nil {
		return nil, fmt.Errorf("admin rollover: %w", ErrMissingCollaborator)
	}
	return s.rollovers.RunRolloverPass(ctx, s.now())
}

// TriggerAlerts runs an alert pass immediately on behalf of the admin.
func (s *AdminService) TriggerAlerts(ctx context.Context, performingAdminID int64) (*AlertReport, error) {
	if !s.IsAdmin(performingAdminID) {
		return nil, ErrAdminNotAuthorized
	}
	if s.alerts == nil {
		return nil, fmt.Errorf("admin alerts: %w", ErrMissingCollaborator)
	}
	return s.alerts.RunAlertPass(ctx, s.now())
}
