package notification

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miglee/miglee-backend/config"
	"github.com/miglee/miglee-backend/internal/guard"
	"github.com/miglee/miglee-backend/utils"
)

type fakeRepo struct {
	notifications []*Notification
	tokens        map[string]*FCMDeviceToken
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{tokens: map[string]*FCMDeviceToken{}}
}

func (f *fakeRepo) Create(n *Notification) error {
	n.ID = uint(len(f.notifications) + 1)
	f.notifications = append(f.notifications, n)
	return nil
}

func (f *fakeRepo) ListForUser(userID uint, unreadOnly bool, limit, offset int) ([]Notification, int64, error) {
	var out []Notification
	for _, n := range f.notifications {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			out = append(out, *n)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeRepo) MarkRead(userID, notificationID uint) error {
	for _, n := range f.notifications {
		if n.ID == notificationID && n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (f *fakeRepo) MarkAllRead(userID uint) error {
	for _, n := range f.notifications {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (f *fakeRepo) UpsertDeviceToken(t *FCMDeviceToken) error {
	f.tokens[t.Token] = t
	return nil
}

func (f *fakeRepo) DeleteDeviceToken(userID uint, token string) error {
	if t, ok := f.tokens[token]; ok && t.UserID == userID {
		delete(f.tokens, token)
	}
	return nil
}

func (f *fakeRepo) ListDeviceTokens(userID uint) ([]FCMDeviceToken, error) {
	var out []FCMDeviceToken
	for _, t := range f.tokens {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeRepo) DeleteStaleToken(token string) error {
	delete(f.tokens, token)
	return nil
}

func newTestService() (*Service, *fakeRepo) {
	repo := newFakeRepo()
	return NewService(repo, nil, &config.Config{}), repo
}

func TestHandleEventWritesInboxRow(t *testing.T) {
	svc, repo := newTestService()

	svc.HandleEvent(context.Background(), utils.DomainEvent{
		Action:     "MEMBER_APPROVED",
		ActorID:    100,
		IntentID:   1,
		TargetUser: 5,
		Title:      "Request approved",
		Body:       "Your request to join picnic was approved",
	})

	require.Len(t, repo.notifications, 1)
	n := repo.notifications[0]
	assert.Equal(t, uint(5), n.UserID)
	assert.Equal(t, "MEMBER_APPROVED", n.Action)
	require.NotNil(t, n.IntentID)
	assert.Equal(t, uint(1), *n.IntentID)
	assert.False(t, n.IsRead)
}

func TestHandleEventDropsSelfAndUntargeted(t *testing.T) {
	svc, repo := newTestService()

	svc.HandleEvent(context.Background(), utils.DomainEvent{Action: "X", ActorID: 5, TargetUser: 5})
	svc.HandleEvent(context.Background(), utils.DomainEvent{Action: "X", ActorID: 5})

	assert.Empty(t, repo.notifications)
}

func TestListAndMarkRead(t *testing.T) {
	svc, _ := newTestService()
	actor := guard.Actor{UserID: 5, Role: guard.RoleUser}

	svc.HandleEvent(context.Background(), utils.DomainEvent{Action: "A", ActorID: 1, TargetUser: 5, Title: "a"})
	svc.HandleEvent(context.Background(), utils.DomainEvent{Action: "B", ActorID: 1, TargetUser: 5, Title: "b"})

	list, total, err := svc.List(actor, true, 20, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	require.NoError(t, svc.MarkRead(actor, list[0].ID))
	_, total, err = svc.List(actor, true, 20, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	require.NoError(t, svc.MarkAllRead(actor))
	_, total, _ = svc.List(actor, true, 20, 0)
	assert.Zero(t, total)

	// Listing is per-user: someone else's inbox stays empty
	_, total, _ = svc.List(guard.Actor{UserID: 9, Role: guard.RoleUser}, false, 20, 0)
	assert.Zero(t, total)
}

func TestDeviceTokenRebind(t *testing.T) {
	svc, repo := newTestService()

	require.NoError(t, svc.RegisterDevice(guard.Actor{UserID: 5, Role: guard.RoleUser}, &RegisterDeviceRequest{Token: "tok", Platform: "android"}))
	assert.Equal(t, uint(5), repo.tokens["tok"].UserID)

	// Same device logging into another account takes the token over
	require.NoError(t, svc.RegisterDevice(guard.Actor{UserID: 6, Role: guard.RoleUser}, &RegisterDeviceRequest{Token: "tok", Platform: "android"}))
	assert.Equal(t, uint(6), repo.tokens["tok"].UserID)

	require.NoError(t, svc.UnregisterDevice(guard.Actor{UserID: 6, Role: guard.RoleUser}, "tok"))
	_, ok := repo.tokens["tok"]
	assert.False(t, ok)
}

func TestListUnauthenticated(t *testing.T) {
	svc, _ := newTestService()

	_, _, err := svc.List(guard.Actor{}, false, 20, 0)
	assert.Equal(t, guard.CodeUnauthenticated, guard.CodeOf(err))
}
