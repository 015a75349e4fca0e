package membership

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/miglee/miglee-backend/internal/guard"
	"github.com/miglee/miglee-backend/internal/intent"
)

type memberKey struct {
	intentID uint
	userID   uint
}

type fakeRepo struct {
	members map[memberKey]*Member
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{members: map[memberKey]*Member{}}
}

func (f *fakeRepo) Find(intentID, userID uint) (*Member, error) {
	m, ok := f.members[memberKey{intentID, userID}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeRepo) Create(m *Member) error {
	f.members[memberKey{m.IntentID, m.UserID}] = m
	return nil
}

func (f *fakeRepo) Update(m *Member) error {
	f.members[memberKey{m.IntentID, m.UserID}] = m
	return nil
}

func (f *fakeRepo) Upsert(m *Member) error {
	f.members[memberKey{m.IntentID, m.UserID}] = m
	return nil
}

func (f *fakeRepo) ListByIntent(intentID uint, status string) ([]MemberResponse, error) {
	var out []MemberResponse
	for _, m := range f.members {
		if m.IntentID == intentID && (status == "" || m.Status == status) {
			out = append(out, MemberResponse{Member: *m})
		}
	}
	return out, nil
}

func (f *fakeRepo) CountJoined(intentID uint) (int, error) {
	n := 0
	for _, m := range f.members {
		if m.IntentID == intentID && m.Status == StatusJoined {
			n++
		}
	}
	return n, nil
}

type fakeIntentStore struct {
	intents map[uint]*intent.Intent
}

func (f *fakeIntentStore) GetByID(id uint) (*intent.Intent, error) {
	it, ok := f.intents[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return it, nil
}

func newTestService(intents ...*intent.Intent) (*Service, *fakeRepo) {
	repo := newFakeRepo()
	store := &fakeIntentStore{intents: map[uint]*intent.Intent{}}
	for _, it := range intents {
		store.intents[it.ID] = it
	}
	return NewService(repo, store, nil), repo
}

func openIntent(id, ownerID uint) *intent.Intent {
	return &intent.Intent{
		ID:       id,
		OwnerID:  ownerID,
		Title:    "picnic",
		JoinMode: intent.JoinModeOpen,
		StartAt:  time.Now().Add(24 * time.Hour),
	}
}

func seedMember(repo *fakeRepo, intentID, userID uint, status, role string) {
	repo.members[memberKey{intentID, userID}] = &Member{
		IntentID: intentID,
		UserID:   userID,
		Status:   status,
		Role:     role,
	}
}

func TestJoinOpenIntent(t *testing.T) {
	svc, _ := newTestService(openIntent(1, 100))

	m, err := svc.Join(context.Background(), guard.Actor{UserID: 5, Role: guard.RoleUser}, 1, "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, StatusJoined, m.Status)
	assert.Equal(t, RoleMember, m.Role)
	assert.NotNil(t, m.JoinedAt)
}

func TestJoinUnauthenticated(t *testing.T) {
	svc, _ := newTestService(openIntent(1, 100))

	_, err := svc.Join(context.Background(), guard.Actor{}, 1, "")
	assert.Equal(t, guard.CodeUnauthenticated, guard.CodeOf(err))
}

func TestJoinMissingIntentIsNotFound(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Join(context.Background(), guard.Actor{UserID: 5, Role: guard.RoleUser}, 99, "")
	assert.Equal(t, guard.CodeNotFound, guard.CodeOf(err))
}

func TestJoinApprovalModeParksPending(t *testing.T) {
	it := openIntent(1, 100)
	it.JoinMode = intent.JoinModeApproval
	svc, _ := newTestService(it)

	m, err := svc.Join(context.Background(), guard.Actor{UserID: 5, Role: guard.RoleUser}, 1, "")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, m.Status)
	assert.Nil(t, m.JoinedAt)
}

func TestJoinInviteOnlyRejectsUninvited(t *testing.T) {
	it := openIntent(1, 100)
	it.JoinMode = intent.JoinModeInviteOnly
	svc, _ := newTestService(it)

	_, err := svc.Join(context.Background(), guard.Actor{UserID: 5, Role: guard.RoleUser}, 1, "")
	assert.Equal(t, guard.CodeForbidden, guard.CodeOf(err))
}

func TestJoinInviteOnlyWithStandingInvitation(t *testing.T) {
	it := openIntent(1, 100)
	it.JoinMode = intent.JoinModeInviteOnly
	svc, repo := newTestService(it)
	seedMember(repo, 1, 5, StatusInvited, RoleMember)

	m, err := svc.Join(context.Background(), guard.Actor{UserID: 5, Role: guard.RoleUser}, 1, "")
	require.NoError(t, err)
	assert.Equal(t, StatusJoined, m.Status)
}

func TestInvitedJoinNotCapacityGated(t *testing.T) {
	it := openIntent(1, 100)
	it.MaxCapacity = 2
	svc, repo := newTestService(it)
	seedMember(repo, 1, 100, StatusJoined, RoleOwner)
	seedMember(repo, 1, 2, StatusJoined, RoleMember)
	seedMember(repo, 1, 5, StatusInvited, RoleMember)

	// A standing invitation is an explicit grant; it is honored even at
	// capacity
	m, err := svc.Join(context.Background(), guard.Actor{UserID: 5, Role: guard.RoleUser}, 1, "")
	require.NoError(t, err)
	assert.Equal(t, StatusJoined, m.Status)
}

func TestJoinAtCapacity(t *testing.T) {
	it := openIntent(1, 100)
	it.MaxCapacity = 2
	svc, repo := newTestService(it)
	seedMember(repo, 1, 100, StatusJoined, RoleOwner)
	seedMember(repo, 1, 2, StatusJoined, RoleMember)

	_, err := svc.Join(context.Background(), guard.Actor{UserID: 5, Role: guard.RoleUser}, 1, "")
	assert.Equal(t, guard.CodeForbidden, guard.CodeOf(err))
}

func TestJoinIdempotentWhenAlreadyJoined(t *testing.T) {
	svc, repo := newTestService(openIntent(1, 100))
	seedMember(repo, 1, 5, StatusJoined, RoleMember)

	m, err := svc.Join(context.Background(), guard.Actor{UserID: 5, Role: guard.RoleUser}, 1, "")
	require.NoError(t, err)
	assert.Equal(t, StatusJoined, m.Status)
}

func TestJoinWhileBanned(t *testing.T) {
	svc, repo := newTestService(openIntent(1, 100))
	seedMember(repo, 1, 5, StatusBanned, RoleMember)

	_, err := svc.Join(context.Background(), guard.Actor{UserID: 5, Role: guard.RoleUser}, 1, "")
	assert.Equal(t, guard.CodeForbidden, guard.CodeOf(err))
}

func TestJoinCanceledIntent(t *testing.T) {
	it := openIntent(1, 100)
	now := time.Now().UTC()
	it.CanceledAt = &now
	svc, _ := newTestService(it)

	_, err := svc.Join(context.Background(), guard.Actor{UserID: 5, Role: guard.RoleUser}, 1, "")
	assert.Equal(t, guard.CodeForbidden, guard.CodeOf(err))
}

func TestLeaveAndRejoin(t *testing.T) {
	svc, repo := newTestService(openIntent(1, 100))
	seedMember(repo, 1, 5, StatusJoined, RoleMember)
	actor := guard.Actor{UserID: 5, Role: guard.RoleUser}

	require.NoError(t, svc.Leave(context.Background(), actor, 1, ""))
	m, _ := repo.Find(1, 5)
	assert.Equal(t, StatusLeft, m.Status)
	assert.NotNil(t, m.LeftAt)

	rejoined, err := svc.Join(context.Background(), actor, 1, "")
	require.NoError(t, err)
	assert.Equal(t, StatusJoined, rejoined.Status)
}

func TestOwnerCannotLeave(t *testing.T) {
	svc, repo := newTestService(openIntent(1, 100))
	seedMember(repo, 1, 100, StatusJoined, RoleOwner)

	err := svc.Leave(context.Background(), guard.Actor{UserID: 100, Role: guard.RoleUser}, 1, "")
	assert.Equal(t, guard.CodeForbidden, guard.CodeOf(err))
}

func TestApprovePendingMember(t *testing.T) {
	svc, repo := newTestService(openIntent(1, 100))
	seedMember(repo, 1, 5, StatusPending, RoleMember)

	m, err := svc.Approve(context.Background(), guard.Actor{UserID: 100, Role: guard.RoleUser}, 1, 5, "")
	require.NoError(t, err)
	assert.Equal(t, StatusJoined, m.Status)
}

func TestApproveRequiresModerator(t *testing.T) {
	svc, repo := newTestService(openIntent(1, 100))
	seedMember(repo, 1, 5, StatusPending, RoleMember)
	seedMember(repo, 1, 6, StatusJoined, RoleMember)

	_, err := svc.Approve(context.Background(), guard.Actor{UserID: 6, Role: guard.RoleUser}, 1, 5, "")
	assert.Equal(t, guard.CodeForbidden, guard.CodeOf(err))
}

func TestApproveAtCapacity(t *testing.T) {
	it := openIntent(1, 100)
	it.MaxCapacity = 1
	svc, repo := newTestService(it)
	seedMember(repo, 1, 100, StatusJoined, RoleOwner)
	seedMember(repo, 1, 5, StatusPending, RoleMember)

	_, err := svc.Approve(context.Background(), guard.Actor{UserID: 100, Role: guard.RoleUser}, 1, 5, "")
	assert.Equal(t, guard.CodeForbidden, guard.CodeOf(err))
}

func TestRejectedMemberCannotBeApprovedDirectly(t *testing.T) {
	svc, repo := newTestService(openIntent(1, 100))
	seedMember(repo, 1, 5, StatusRejected, RoleMember)

	_, err := svc.Approve(context.Background(), guard.Actor{UserID: 100, Role: guard.RoleUser}, 1, 5, "")
	assert.Equal(t, guard.CodeForbidden, guard.CodeOf(err))
}

func TestKickIsIdempotentOnTerminalStatus(t *testing.T) {
	svc, repo := newTestService(openIntent(1, 100))
	seedMember(repo, 1, 5, StatusJoined, RoleMember)
	mod := guard.Actor{UserID: 100, Role: guard.RoleUser}

	m, err := svc.Kick(context.Background(), mod, 1, 5, "")
	require.NoError(t, err)
	assert.Equal(t, StatusKicked, m.Status)

	// Second kick is a no-op success, not an error
	m2, err := svc.Kick(context.Background(), mod, 1, 5, "")
	require.NoError(t, err)
	assert.Equal(t, StatusKicked, m2.Status)

	// Banning a kicked member is also a terminal no-op
	m3, err := svc.Ban(context.Background(), mod, 1, 5, "")
	require.NoError(t, err)
	assert.Equal(t, StatusKicked, m3.Status)
}

func TestCannotKickOwner(t *testing.T) {
	svc, repo := newTestService(openIntent(1, 100))
	seedMember(repo, 1, 100, StatusJoined, RoleOwner)

	_, err := svc.Kick(context.Background(), guard.Actor{UserID: 1, Role: guard.RoleAdmin}, 1, 100, "")
	assert.Equal(t, guard.CodeForbidden, guard.CodeOf(err))
}

func TestBannedMemberCannotRejoin(t *testing.T) {
	svc, repo := newTestService(openIntent(1, 100))
	seedMember(repo, 1, 5, StatusJoined, RoleMember)
	mod := guard.Actor{UserID: 100, Role: guard.RoleUser}

	_, err := svc.Ban(context.Background(), mod, 1, 5, "")
	require.NoError(t, err)

	_, err = svc.Join(context.Background(), guard.Actor{UserID: 5, Role: guard.RoleUser}, 1, "")
	assert.Equal(t, guard.CodeForbidden, guard.CodeOf(err))
}

func TestSetModeratorOwnerOnly(t *testing.T) {
	svc, repo := newTestService(openIntent(1, 100))
	seedMember(repo, 1, 100, StatusJoined, RoleOwner)
	seedMember(repo, 1, 5, StatusJoined, RoleModerator)
	seedMember(repo, 1, 6, StatusJoined, RoleMember)

	// A moderator cannot promote; only the owner can
	_, err := svc.SetModerator(context.Background(), guard.Actor{UserID: 5, Role: guard.RoleUser}, 1, 6, true, "")
	assert.Equal(t, guard.CodeForbidden, guard.CodeOf(err))

	m, err := svc.SetModerator(context.Background(), guard.Actor{UserID: 100, Role: guard.RoleUser}, 1, 6, true, "")
	require.NoError(t, err)
	assert.Equal(t, RoleModerator, m.Role)

	m, err = svc.SetModerator(context.Background(), guard.Actor{UserID: 100, Role: guard.RoleUser}, 1, 6, false, "")
	require.NoError(t, err)
	assert.Equal(t, RoleMember, m.Role)
}

func TestSetModeratorNeverTouchesOwner(t *testing.T) {
	svc, repo := newTestService(openIntent(1, 100))
	seedMember(repo, 1, 100, StatusJoined, RoleOwner)

	_, err := svc.SetModerator(context.Background(), guard.Actor{UserID: 1, Role: guard.RoleAdmin}, 1, 100, false, "")
	assert.Equal(t, guard.CodeForbidden, guard.CodeOf(err))
}

func TestUpsertMembershipRefusesOwnerOverwrite(t *testing.T) {
	svc, repo := newTestService(openIntent(1, 100))
	seedMember(repo, 1, 100, StatusJoined, RoleOwner)

	_, err := svc.UpsertMembership(context.Background(), 1, 100, StatusJoined, RoleModerator)
	assert.Equal(t, guard.CodeForbidden, guard.CodeOf(err))
}

func TestUpsertMembershipForcesJoined(t *testing.T) {
	svc, repo := newTestService(openIntent(1, 100))
	seedMember(repo, 1, 5, StatusLeft, RoleMember)

	m, err := svc.UpsertMembership(context.Background(), 1, 5, StatusJoined, RoleModerator)
	require.NoError(t, err)
	assert.Equal(t, StatusJoined, m.Status)
	assert.Equal(t, RoleModerator, m.Role)
	assert.NotNil(t, m.JoinedAt)

	stored, _ := repo.Find(1, 5)
	assert.Equal(t, RoleModerator, stored.Role)
}

func TestTransitionTable(t *testing.T) {
	assert.True(t, CanTransition("", StatusJoined))
	assert.True(t, CanTransition(StatusPending, StatusJoined))
	assert.True(t, CanTransition(StatusLeft, StatusJoined))
	assert.True(t, CanTransition(StatusRejected, StatusPending))

	assert.False(t, CanTransition(StatusRejected, StatusJoined))
	assert.False(t, CanTransition(StatusBanned, StatusJoined))
	assert.False(t, CanTransition(StatusKicked, StatusPending))
	assert.False(t, CanTransition(StatusJoined, StatusPending))

	assert.True(t, IsTerminal(StatusBanned))
	assert.True(t, IsTerminal(StatusKicked))
	assert.False(t, IsTerminal(StatusLeft))
}
