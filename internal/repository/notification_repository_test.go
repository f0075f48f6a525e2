package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/kjebali/stagehub-api/internal/models"
)

func newNotificationRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestNotificationRepositoryCreateAndList(t *testing.T) {
	db, mock, cleanup := newNotificationRepoMock(t)
	defer cleanup()

	repo := NewNotificationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notifications")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	notification := &models.Notification{
		UserID:  "intern-1",
		Kind:    models.NotificationTutorDecision,
		Payload: []byte(`{"request_id":"req-1"}`),
	}
	require.NoError(t, repo.Create(context.Background(), notification))
	require.NotEmpty(t, notification.ID)

	rows := sqlmock.NewRows([]string{"id", "user_id", "kind", "payload", "read", "created_at"}).
		AddRow(notification.ID, "intern-1", "TUTOR_DECISION", `{"request_id":"req-1"}`, false, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, kind")).
		WithArgs("intern-1").
		WillReturnRows(rows)

	list, err := repo.List(context.Background(), models.NotificationFilter{UserID: "intern-1", UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryMarkRead(t *testing.T) {
	db, mock, cleanup := newNotificationRepoMock(t)
	defer cleanup()

	repo := NewNotificationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET read")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.MarkRead(context.Background(), "notif-1", "intern-1"))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET read")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.MarkRead(context.Background(), "notif-1", "other-user")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
