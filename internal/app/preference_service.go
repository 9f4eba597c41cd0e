package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"team_pulse_worker/internal/domain/notification"
	"team_pulse_worker/internal/domain/subscriber"
)

// PreferenceStore is the part of the subscriber directory that chat commands write to.
type PreferenceStore interface {
	GetByTelegramID(ctx context.Context, telegramID int64) (*subscriber.Subscriber, error)
	SetPreference(ctx context.Context, userID uuid.UUID, category notification.Category, enabled bool) error
	NotificationsEnabled(ctx context.Context, userID uuid.UUID, category notification.Category) (bool, error)
}

// PreferenceService toggles a chat user's client-at-risk alerts.
type PreferenceService struct {
	store PreferenceStore
}

func NewPreferenceService(store PreferenceStore) *PreferenceService {
	return &PreferenceService{store: store}
}

// SetClientAlerts stores the opt-in of the user linked to telegramID.
func (s *PreferenceService) SetClientAlerts(ctx context.Context, telegramID int64, enabled bool) (*subscriber.Subscriber, error) {
	sub, err := s.store.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetPreference(ctx, sub.UserID, notification.CategoryClientAtRisk, enabled); err != nil {
		return nil, fmt.Errorf("failed to store preference for user %s: %w", sub.UserID, err)
	}
	return sub, nil
}

// ClientAlertsEnabled reports the current opt-in of the user linked to telegramID.
func (s *PreferenceService) ClientAlertsEnabled(ctx context.Context, telegramID int64) (*subscriber.Subscriber, bool, error) {
	sub, err := s.store.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, false, err
	}
	enabled, err := s.store.NotificationsEnabled(ctx, sub.UserID, notification.CategoryClientAtRisk)
	if err != nil {
		return sub, false, fmt.Errorf("failed to read preference for user %s: %w", sub.UserID, err)
	}
	return sub, enabled, nil
}
