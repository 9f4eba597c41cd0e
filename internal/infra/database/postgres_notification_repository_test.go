package database

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"team_pulse_worker/internal/domain/notification"
)

func newAtRisk() *notification.Notification {
	return &notification.Notification{
		RecipientID: uuid.New(),
		Category:    notification.CategoryClientAtRisk,
		ClientID:    uuid.NullUUID{UUID: uuid.New(), Valid: true},
		Title:       "Client at risk: 21 days without status change",
		Message:     "Acme has been in status \"danger\" for 21 days with no change. Urgency: high.",
		Metadata: notification.Metadata{
			DaysWithoutChange: 21,
			HealthStatus:      "danger",
			Urgency:           notification.UrgencyHigh,
		},
		CreatedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

var advisoryLock = regexp.QuoteMeta(`SELECT pg_advisory_xact_lock(hashtext($1))`)

func TestPostgresNotificationRepository_CreateIfAbsent(t *testing.T) {
	since := time.Date(2024, 2, 29, 10, 0, 0, 0, time.UTC)

	t.Run("inserted", func(t *testing.T) {
		db, mock := newMock(t)
		n := newAtRisk()
		mock.ExpectBegin()
		mock.ExpectExec(advisoryLock).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`INSERT INTO notifications`).
			WithArgs(sqlmock.AnyArg(), n.RecipientID, sqlmock.AnyArg(), n.ClientID, n.Title, n.Message,
				`{"days_without_change":21,"health_status":"danger","urgency":"high"}`, n.CreatedAt, since).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(n.CreatedAt))
		mock.ExpectCommit()

		created, err := NewPostgresNotificationRepository(db).CreateIfAbsent(context.Background(), n, since)
		require.NoError(t, err)
		assert.True(t, created)
		assert.NotEqual(t, uuid.Nil, n.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("window already holds one", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(advisoryLock).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`INSERT INTO notifications`).WillReturnRows(sqlmock.NewRows([]string{"created_at"}))
		mock.ExpectRollback()

		created, err := NewPostgresNotificationRepository(db).CreateIfAbsent(context.Background(), newAtRisk(), since)
		require.NoError(t, err)
		assert.False(t, created)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lock fails", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(advisoryLock).WillReturnError(errors.New("canceling statement due to statement timeout"))
		mock.ExpectRollback()

		created, err := NewPostgresNotificationRepository(db).CreateIfAbsent(context.Background(), newAtRisk(), since)
		assert.Error(t, err)
		assert.False(t, created)
	})
}

func TestPostgresNotificationRepository_ExistsSince(t *testing.T) {
	db, mock := newMock(t)
	clientID, userID := uuid.New(), uuid.New()
	since := time.Date(2024, 2, 29, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(clientID, userID, "client_at_risk", since).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := NewPostgresNotificationRepository(db).ExistsSince(context.Background(), clientID, userID, notification.CategoryClientAtRisk, since)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestPostgresNotificationRepository_ListForRecipient(t *testing.T) {
	db, mock := newMock(t)
	userID, clientID := uuid.New(), uuid.New()
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM notifications\s+WHERE user_id = \$1`).
		WithArgs(userID, 50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "type", "client_id", "title", "message", "metadata", "is_read", "created_at"}).
			AddRow(uuid.NewString(), userID.String(), "client_at_risk", clientID.String(), "t", "m",
				[]byte(`{"days_without_change":30,"health_status":"churn","urgency":"critical"}`), false, created))

	list, err := NewPostgresNotificationRepository(db).ListForRecipient(context.Background(), userID, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, notification.CategoryClientAtRisk, list[0].Category)
	assert.Equal(t, clientID, list[0].ClientID.UUID)
	assert.Equal(t, 30, list[0].Metadata.DaysWithoutChange)
	assert.Equal(t, notification.UrgencyCritical, list[0].Metadata.Urgency)
}
