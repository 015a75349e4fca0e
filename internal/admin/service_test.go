package admin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/miglee/miglee-backend/internal/auth"
	"github.com/miglee/miglee-backend/internal/guard"
	"github.com/miglee/miglee-backend/internal/intent"
	"github.com/miglee/miglee-backend/internal/membership"
)

type fakeIntentRepo struct {
	intents map[uint]*intent.Intent
}

func (f *fakeIntentRepo) Create(i *intent.Intent) error {
	i.ID = uint(len(f.intents) + 1)
	f.intents[i.ID] = i
	return nil
}

func (f *fakeIntentRepo) GetByID(id uint) (*intent.Intent, error) {
	it, ok := f.intents[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *it
	return &cp, nil
}

func (f *fakeIntentRepo) Update(i *intent.Intent) error {
	f.intents[i.ID] = i
	return nil
}

func (f *fakeIntentRepo) SoftDelete(id uint) error {
	delete(f.intents, id)
	return nil
}

func (f *fakeIntentRepo) ListPublic(limit, offset int, search string) ([]intent.Intent, error) {
	return nil, nil
}

func (f *fakeIntentRepo) ListByOwner(ownerID uint) ([]intent.Intent, error) {
	return nil, nil
}

func (f *fakeIntentRepo) CountJoinedMembers(intentID uint) (int, error) {
	return 0, nil
}

func (f *fakeIntentRepo) MemberRoleAndStatus(intentID, userID uint) (string, string, error) {
	return "", "", nil
}

type memberKey struct {
	intentID uint
	userID   uint
}

type fakeMemberRepo struct {
	members map[memberKey]*membership.Member
}

func (f *fakeMemberRepo) Find(intentID, userID uint) (*membership.Member, error) {
	m, ok := f.members[memberKey{intentID, userID}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMemberRepo) Create(m *membership.Member) error {
	f.members[memberKey{m.IntentID, m.UserID}] = m
	return nil
}

func (f *fakeMemberRepo) Update(m *membership.Member) error {
	f.members[memberKey{m.IntentID, m.UserID}] = m
	return nil
}

func (f *fakeMemberRepo) Upsert(m *membership.Member) error {
	f.members[memberKey{m.IntentID, m.UserID}] = m
	return nil
}

func (f *fakeMemberRepo) ListByIntent(intentID uint, status string) ([]membership.MemberResponse, error) {
	return nil, nil
}

func (f *fakeMemberRepo) CountJoined(intentID uint) (int, error) {
	return 0, nil
}

type fakeUserRepo struct {
	users map[uint]*auth.User
}

func (f *fakeUserRepo) Create(u *auth.User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserRepo) FindByEmail(email string) (*auth.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindByID(id uint) (*auth.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) Update(u *auth.User) error {
	f.users[u.ID] = u
	return nil
}

var (
	adminActor = guard.Actor{UserID: 1, Role: guard.RoleAdmin}
	userActor  = guard.Actor{UserID: 7, Role: guard.RoleUser}
)

func newTestService() (*Service, *fakeIntentRepo, *fakeMemberRepo, *fakeUserRepo) {
	intentRepo := &fakeIntentRepo{intents: map[uint]*intent.Intent{
		1: {ID: 1, OwnerID: 100, Title: "brunch", Visibility: intent.VisibilityPublic, StartAt: time.Now().Add(time.Hour)},
		2: {ID: 2, OwnerID: 100, Title: "hike", Visibility: intent.VisibilityPublic, StartAt: time.Now().Add(time.Hour)},
	}}
	memberRepo := &fakeMemberRepo{members: map[memberKey]*membership.Member{
		{1, 100}: {IntentID: 1, UserID: 100, Status: membership.StatusJoined, Role: membership.RoleOwner},
	}}
	userRepo := &fakeUserRepo{users: map[uint]*auth.User{
		1:   {ID: 1, Email: "admin@example.com", Role: guard.RoleAdmin, Status: auth.StatusActive},
		7:   {ID: 7, Email: "user@example.com", Role: guard.RoleUser, Status: auth.StatusActive},
		100: {ID: 100, Email: "owner@example.com", Role: guard.RoleUser, Status: auth.StatusActive},
	}}

	intentSvc := intent.NewService(intentRepo, nil)
	memberSvc := membership.NewService(memberRepo, intentRepo, nil)
	return NewService(intentSvc, memberSvc, userRepo, nil), intentRepo, memberRepo, userRepo
}

func strPtr(s string) *string { return &s }

func TestAdminGuardsCheckedInOrder(t *testing.T) {
	svc, _, _, _ := newTestService()

	// No identity: UNAUTHENTICATED, never FORBIDDEN
	_, err := svc.BulkUpdateIntents(context.Background(), guard.Actor{}, &BulkUpdateIntentsRequest{IDs: []uint{1}}, "")
	assert.Equal(t, guard.CodeUnauthenticated, guard.CodeOf(err))

	// Non-admin identity: FORBIDDEN
	_, err = svc.BulkUpdateIntents(context.Background(), userActor, &BulkUpdateIntentsRequest{IDs: []uint{1}}, "")
	assert.Equal(t, guard.CodeForbidden, guard.CodeOf(err))
}

func TestBulkUpdatePartialSuccess(t *testing.T) {
	svc, repo, _, _ := newTestService()

	req := &BulkUpdateIntentsRequest{
		IDs:   []uint{1, 99, 2},
		Input: intent.UpdateIntentRequest{Location: strPtr("Riverside Park")},
	}
	result, err := svc.BulkUpdateIntents(context.Background(), adminActor, req, "")
	require.NoError(t, err)

	assert.Equal(t, 2, result.Success)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "intent 99")

	// The failing item did not abort the items after it
	assert.Equal(t, "Riverside Park", repo.intents[2].Location)
}

func TestBulkUpdateAllFail(t *testing.T) {
	svc, _, _, _ := newTestService()

	result, err := svc.BulkUpdateIntents(context.Background(), adminActor, &BulkUpdateIntentsRequest{
		IDs:   []uint{50, 51},
		Input: intent.UpdateIntentRequest{Title: strPtr("x")},
	}, "")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Success)
	assert.Equal(t, 2, result.Failed)
	assert.Len(t, result.Errors, 2)
}

func TestChangeIntentOwner(t *testing.T) {
	svc, intentRepo, memberRepo, _ := newTestService()

	it, err := svc.ChangeIntentOwner(context.Background(), adminActor, 1, 7, "")
	require.NoError(t, err)
	assert.Equal(t, uint(7), it.OwnerID)
	assert.Equal(t, uint(7), intentRepo.intents[1].OwnerID)

	// The new owner's membership row is forced to JOINED/MODERATOR
	m := memberRepo.members[memberKey{1, 7}]
	require.NotNil(t, m)
	assert.Equal(t, membership.StatusJoined, m.Status)
	assert.Equal(t, membership.RoleModerator, m.Role)

	// The previous owner's row is untouched
	old := memberRepo.members[memberKey{1, 100}]
	assert.Equal(t, membership.RoleOwner, old.Role)
}

func TestChangeIntentOwnerToCurrentOwnerIsNoop(t *testing.T) {
	svc, _, memberRepo, _ := newTestService()

	it, err := svc.ChangeIntentOwner(context.Background(), adminActor, 1, 100, "")
	require.NoError(t, err)
	assert.Equal(t, uint(100), it.OwnerID)

	// No upsert happened, the OWNER row keeps its role
	assert.Equal(t, membership.RoleOwner, memberRepo.members[memberKey{1, 100}].Role)
}

func TestChangeIntentOwnerMissingTargets(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.ChangeIntentOwner(context.Background(), adminActor, 99, 7, "")
	assert.Equal(t, guard.CodeNotFound, guard.CodeOf(err))

	_, err = svc.ChangeIntentOwner(context.Background(), adminActor, 1, 999, "")
	assert.Equal(t, guard.CodeNotFound, guard.CodeOf(err))
}

func TestChangeIntentOwnerToBannedUser(t *testing.T) {
	svc, _, _, userRepo := newTestService()
	now := time.Now().UTC()
	userRepo.users[7].Status = auth.StatusBanned
	userRepo.users[7].BannedAt = &now

	_, err := svc.ChangeIntentOwner(context.Background(), adminActor, 1, 7, "")
	assert.Equal(t, guard.CodeForbidden, guard.CodeOf(err))
}

func TestBanAndUnbanUser(t *testing.T) {
	svc, _, _, userRepo := newTestService()

	u, err := svc.BanUser(context.Background(), adminActor, 7, "")
	require.NoError(t, err)
	assert.Equal(t, auth.StatusBanned, u.Status)
	assert.NotNil(t, u.BannedAt)

	// Banning again is a no-op, the original timestamp survives
	first := userRepo.users[7].BannedAt
	_, err = svc.BanUser(context.Background(), adminActor, 7, "")
	require.NoError(t, err)
	assert.Equal(t, first, userRepo.users[7].BannedAt)

	u, err = svc.UnbanUser(context.Background(), adminActor, 7, "")
	require.NoError(t, err)
	assert.Equal(t, auth.StatusActive, u.Status)
	assert.Nil(t, u.BannedAt)
}

func TestCannotBanAdmin(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.BanUser(context.Background(), adminActor, 1, "")
	assert.Equal(t, guard.CodeForbidden, guard.CodeOf(err))
}

func TestBanUnknownUser(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.BanUser(context.Background(), adminActor, 404, "")
	assert.Equal(t, guard.CodeNotFound, guard.CodeOf(err))
}
