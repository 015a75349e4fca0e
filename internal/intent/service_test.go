package intent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/miglee/miglee-backend/internal/guard"
)

type memberRow struct {
	role   string
	status string
}

type fakeRepo struct {
	intents map[uint]*Intent
	members map[[2]uint]memberRow
	nextID  uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		intents: map[uint]*Intent{},
		members: map[[2]uint]memberRow{},
	}
}

func (f *fakeRepo) Create(i *Intent) error {
	f.nextID++
	i.ID = f.nextID
	f.intents[i.ID] = i
	return nil
}

func (f *fakeRepo) GetByID(id uint) (*Intent, error) {
	it, ok := f.intents[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *it
	return &cp, nil
}

func (f *fakeRepo) Update(i *Intent) error {
	f.intents[i.ID] = i
	return nil
}

func (f *fakeRepo) SoftDelete(id uint) error {
	delete(f.intents, id)
	return nil
}

func (f *fakeRepo) ListPublic(limit, offset int, search string) ([]Intent, error) {
	var out []Intent
	for _, it := range f.intents {
		if it.Visibility == VisibilityPublic && it.CanceledAt == nil {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListByOwner(ownerID uint) ([]Intent, error) {
	var out []Intent
	for _, it := range f.intents {
		if it.OwnerID == ownerID {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (f *fakeRepo) CountJoinedMembers(intentID uint) (int, error) {
	return 0, nil
}

func (f *fakeRepo) MemberRoleAndStatus(intentID, userID uint) (string, string, error) {
	row := f.members[[2]uint{intentID, userID}]
	return row.role, row.status, nil
}

type fakeGateway struct {
	calls [][2]uint
}

func (f *fakeGateway) EnsureOwnerMembership(ctx context.Context, intentID, userID uint) error {
	f.calls = append(f.calls, [2]uint{intentID, userID})
	return nil
}

func newTestService() (*Service, *fakeRepo, *fakeGateway) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)
	gw := &fakeGateway{}
	svc.Members = gw
	return svc, repo, gw
}

func validCreateReq() *CreateIntentRequest {
	return &CreateIntentRequest{
		Title:   "morning run",
		StartAt: time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	}
}

func TestCreateIntentSeedsOwnerMembership(t *testing.T) {
	svc, _, gw := newTestService()
	actor := guard.Actor{UserID: 9, Role: guard.RoleUser}

	it, err := svc.CreateIntent(context.Background(), actor, validCreateReq(), "")
	require.NoError(t, err)
	assert.Equal(t, uint(9), it.OwnerID)
	assert.Equal(t, VisibilityPublic, it.Visibility)
	assert.Equal(t, JoinModeOpen, it.JoinMode)

	require.Len(t, gw.calls, 1)
	assert.Equal(t, [2]uint{it.ID, 9}, gw.calls[0])
}

func TestCreateIntentValidation(t *testing.T) {
	svc, _, _ := newTestService()
	actor := guard.Actor{UserID: 9, Role: guard.RoleUser}

	req := validCreateReq()
	req.StartAt = "tomorrow-ish"
	_, err := svc.CreateIntent(context.Background(), actor, req, "")
	assert.Error(t, err)

	req = validCreateReq()
	req.MinCapacity = 10
	req.MaxCapacity = 5
	_, err = svc.CreateIntent(context.Background(), actor, req, "")
	assert.Error(t, err)

	req = validCreateReq()
	req.Visibility = "SECRET"
	_, err = svc.CreateIntent(context.Background(), actor, req, "")
	assert.Error(t, err)
}

func TestPrivateIntentHiddenAsNotFound(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.intents[1] = &Intent{ID: 1, OwnerID: 100, Title: "secret dinner", Visibility: VisibilityPrivate}

	// Outsider sees NOT_FOUND, never FORBIDDEN: existence is hidden
	_, err := svc.GetIntent(context.Background(), guard.Actor{UserID: 5, Role: guard.RoleUser}, 1)
	assert.Equal(t, guard.CodeNotFound, guard.CodeOf(err))

	// Owner sees it
	it, err := svc.GetIntent(context.Background(), guard.Actor{UserID: 100, Role: guard.RoleUser}, 1)
	require.NoError(t, err)
	assert.Equal(t, "secret dinner", it.Title)

	// Joined member sees it
	repo.members[[2]uint{1, 5}] = memberRow{role: "MEMBER", status: "JOINED"}
	_, err = svc.GetIntent(context.Background(), guard.Actor{UserID: 5, Role: guard.RoleUser}, 1)
	assert.NoError(t, err)

	// Admin sees it
	_, err = svc.GetIntent(context.Background(), guard.Actor{UserID: 1, Role: guard.RoleAdmin}, 1)
	assert.NoError(t, err)
}

func TestUpdateIntentExistenceBeforeRole(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.intents[1] = &Intent{ID: 1, OwnerID: 100, Title: "picnic", Visibility: VisibilityPublic}

	title := "renamed"

	// Missing intent: NOT_FOUND even without authentication
	_, err := svc.UpdateIntent(context.Background(), guard.Actor{}, 99, &UpdateIntentRequest{Title: &title}, "")
	assert.Equal(t, guard.CodeNotFound, guard.CodeOf(err))

	// Existing intent, no identity: UNAUTHENTICATED
	_, err = svc.UpdateIntent(context.Background(), guard.Actor{}, 1, &UpdateIntentRequest{Title: &title}, "")
	assert.Equal(t, guard.CodeUnauthenticated, guard.CodeOf(err))

	// Existing intent, wrong user: FORBIDDEN
	_, err = svc.UpdateIntent(context.Background(), guard.Actor{UserID: 5, Role: guard.RoleUser}, 1, &UpdateIntentRequest{Title: &title}, "")
	assert.Equal(t, guard.CodeForbidden, guard.CodeOf(err))

	// Moderators can update
	repo.members[[2]uint{1, 5}] = memberRow{role: "MODERATOR", status: "JOINED"}
	it, err := svc.UpdateIntent(context.Background(), guard.Actor{UserID: 5, Role: guard.RoleUser}, 1, &UpdateIntentRequest{Title: &title}, "")
	require.NoError(t, err)
	assert.Equal(t, "renamed", it.Title)
}

func TestCancelIntentIdempotent(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.intents[1] = &Intent{ID: 1, OwnerID: 100, Title: "picnic", Visibility: VisibilityPublic}
	owner := guard.Actor{UserID: 100, Role: guard.RoleUser}

	it, err := svc.CancelIntent(context.Background(), owner, 1, "")
	require.NoError(t, err)
	require.NotNil(t, it.CanceledAt)
	first := *it.CanceledAt

	it2, err := svc.CancelIntent(context.Background(), owner, 1, "")
	require.NoError(t, err)
	assert.Equal(t, first, *it2.CanceledAt)
}
