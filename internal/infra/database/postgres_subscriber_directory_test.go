package database

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"team_pulse_worker/internal/domain/notification"
	"team_pulse_worker/internal/domain/subscriber"
)

func TestPostgresSubscriberDirectory_ListAlertCandidates(t *testing.T) {
	db, mock := newMock(t)
	coordinator, supervisor, squad := uuid.New(), uuid.New(), uuid.New()
	mock.ExpectQuery(`FROM users u\s+JOIN user_roles ur`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "squad_id", "telegram_id", "roles"}).
			AddRow(coordinator.String(), "Ana Lima", squad.String(), int64(555), "{coordinator}").
			AddRow(supervisor.String(), "Bruno Reis", nil, nil, "{admin,supervisor}"))

	subs, err := NewPostgresSubscriberDirectory(db).ListAlertCandidates(context.Background())
	require.NoError(t, err)
	require.Len(t, subs, 2)

	assert.Equal(t, []subscriber.Role{subscriber.RoleCoordinator}, subs[0].Roles)
	assert.Equal(t, squad, subs[0].SquadID.UUID)
	assert.Equal(t, int64(555), subs[0].TelegramID)

	assert.Equal(t, []subscriber.Role{subscriber.RoleAdmin, subscriber.RoleSupervisor}, subs[1].Roles)
	assert.False(t, subs[1].SquadID.Valid)
	assert.Zero(t, subs[1].TelegramID)
}

func TestPostgresSubscriberDirectory_NotificationsEnabled(t *testing.T) {
	userID := uuid.New()

	t.Run("no stored preference means enabled", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(`FROM notification_preferences`).WillReturnRows(sqlmock.NewRows([]string{"enabled"}))

		enabled, err := NewPostgresSubscriberDirectory(db).NotificationsEnabled(context.Background(), userID, notification.CategoryClientAtRisk)
		require.NoError(t, err)
		assert.True(t, enabled)
	})

	t.Run("opted out", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(`FROM notification_preferences`).
			WithArgs(userID, "client_at_risk").
			WillReturnRows(sqlmock.NewRows([]string{"enabled"}).AddRow(false))

		enabled, err := NewPostgresSubscriberDirectory(db).NotificationsEnabled(context.Background(), userID, notification.CategoryClientAtRisk)
		require.NoError(t, err)
		assert.False(t, enabled)
	})
}

func TestPostgresSubscriberDirectory_GetByTelegramID(t *testing.T) {
	t.Run("not linked", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(`WHERE u.telegram_id = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "squad_id", "roles"}))

		_, err := NewPostgresSubscriberDirectory(db).GetByTelegramID(context.Background(), 42)
		assert.ErrorIs(t, err, ErrSubscriberNotFound)
	})

	t.Run("found", func(t *testing.T) {
		db, mock := newMock(t)
		userID := uuid.New()
		mock.ExpectQuery(`WHERE u.telegram_id = \$1`).
			WithArgs(int64(42)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "squad_id", "roles"}).
				AddRow(userID.String(), "Ana Lima", nil, "{}"))

		s, err := NewPostgresSubscriberDirectory(db).GetByTelegramID(context.Background(), 42)
		require.NoError(t, err)
		assert.Equal(t, userID, s.UserID)
		assert.Equal(t, int64(42), s.TelegramID)
		assert.Empty(t, s.Roles)
	})
}

func TestPostgresSubscriberDirectory_SetPreference(t *testing.T) {
	db, mock := newMock(t)
	userID := uuid.New()
	mock.ExpectExec(`ON CONFLICT \(user_id, category\) DO UPDATE`).
		WithArgs(userID, "client_at_risk", false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewPostgresSubscriberDirectory(db).SetPreference(context.Background(), userID, notification.CategoryClientAtRisk, false))
	assert.NoError(t, mock.ExpectationsWereMet())
}
