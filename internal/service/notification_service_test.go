package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kjebali/stagehub-api/internal/models"
	appErrors "github.com/kjebali/stagehub-api/pkg/errors"
)

type notificationRepoStub struct {
	created   []*models.Notification
	filter    models.NotificationFilter
	failOn    string
	markedAll string
}

func (n *notificationRepoStub) Create(ctx context.Context, notification *models.Notification) error {
	if n.failOn == "create" {
		return errors.New("insert failed")
	}
	n.created = append(n.created, notification)
	return nil
}

func (n *notificationRepoStub) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error) {
	n.filter = filter
	return []models.Notification{{ID: "n-1", UserID: filter.UserID}}, nil
}

func (n *notificationRepoStub) MarkRead(ctx context.Context, id, userID string) error {
	if id != "n-1" || userID != "user-1" {
		return sql.ErrNoRows
	}
	return nil
}

func (n *notificationRepoStub) MarkAllRead(ctx context.Context, userID string) error {
	n.markedAll = userID
	return nil
}

func TestNotificationEmitStoresPayload(t *testing.T) {
	repo := &notificationRepoStub{}
	svc := NewNotificationService(repo, nil)

	svc.Emit(context.Background(), "user-1", models.NotificationTutorDecision, map[string]string{"request_id": "r-1"})

	require.Len(t, repo.created, 1)
	require.Equal(t, "user-1", repo.created[0].UserID)
	require.Equal(t, models.NotificationTutorDecision, repo.created[0].Kind)
	require.Contains(t, string(repo.created[0].Payload), "r-1")
}

func TestNotificationEmitSwallowsFailures(t *testing.T) {
	repo := &notificationRepoStub{failOn: "create"}
	svc := NewNotificationService(repo, nil)

	// Must not panic or propagate anything.
	svc.Emit(context.Background(), "user-1", models.NotificationHRDecision, nil)
	svc.Emit(context.Background(), "", models.NotificationHRDecision, nil)
	require.Empty(t, repo.created)
}

func TestNotificationListScopedToActor(t *testing.T) {
	repo := &notificationRepoStub{}
	svc := NewNotificationService(repo, nil)

	got, err := svc.List(context.Background(), claimsFor(models.RoleIntern, "user-1"), true, 10, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "user-1", repo.filter.UserID)
	require.True(t, repo.filter.UnreadOnly)

	_, err = svc.List(context.Background(), nil, false, 10, 0)
	require.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestNotificationMarkRead(t *testing.T) {
	repo := &notificationRepoStub{}
	svc := NewNotificationService(repo, nil)

	require.NoError(t, svc.MarkRead(context.Background(), "n-1", claimsFor(models.RoleIntern, "user-1")))

	err := svc.MarkRead(context.Background(), "n-1", claimsFor(models.RoleIntern, "someone-else"))
	require.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestNotificationMarkAllRead(t *testing.T) {
	repo := &notificationRepoStub{}
	svc := NewNotificationService(repo, nil)

	require.NoError(t, svc.MarkAllRead(context.Background(), claimsFor(models.RoleIntern, "user-1")))
	require.Equal(t, "user-1", repo.markedAll)
}
