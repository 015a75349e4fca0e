package invitelink

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/miglee/miglee-backend/internal/guard"
	"github.com/miglee/miglee-backend/internal/intent"
	"github.com/miglee/miglee-backend/internal/membership"
)

type fakeLinkRepo struct {
	links map[string]*InviteLink
}

func (f *fakeLinkRepo) Create(l *InviteLink) error {
	l.ID = uint(len(f.links) + 1)
	f.links[l.Token] = l
	return nil
}

func (f *fakeLinkRepo) FindByToken(token string) (*InviteLink, error) {
	l, ok := f.links[token]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *l
	return &cp, nil
}

func (f *fakeLinkRepo) Update(l *InviteLink) error {
	f.links[l.Token] = l
	return nil
}

func (f *fakeLinkRepo) ListByIntent(intentID uint) ([]InviteLink, error) {
	var out []InviteLink
	for _, l := range f.links {
		if l.IntentID == intentID {
			out = append(out, *l)
		}
	}
	return out, nil
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
	n := 0
	for _, m := range f.members {
		if m.IntentID == intentID && m.Status == membership.StatusJoined {
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

func newTestService() (*Service, *fakeLinkRepo, *fakeMemberRepo) {
	linkRepo := &fakeLinkRepo{links: map[string]*InviteLink{}}
	memberRepo := &fakeMemberRepo{members: map[memberKey]*membership.Member{}}
	store := &fakeIntentStore{intents: map[uint]*intent.Intent{
		1: {ID: 1, OwnerID: 100, Title: "hike", JoinMode: intent.JoinModeInviteOnly},
	}}
	members := membership.NewService(memberRepo, store, nil)
	return NewService(linkRepo, members, store, nil), linkRepo, memberRepo
}

func seedLink(repo *fakeLinkRepo, token string, maxUses, usedCount int, expiresAt, revokedAt *time.Time) {
	repo.links[token] = &InviteLink{
		ID:        uint(len(repo.links) + 1),
		IntentID:  1,
		Token:     token,
		CreatedBy: 100,
		MaxUses:   maxUses,
		UsedCount: usedCount,
		ExpiresAt: expiresAt,
		RevokedAt: revokedAt,
	}
}

func TestRedeemNotCapacityGated(t *testing.T) {
	svc, repo, memberRepo := newTestService()
	svc.Intents.(*fakeIntentStore).intents[1].MaxCapacity = 1
	memberRepo.members[memberKey{1, 100}] = &membership.Member{
		IntentID: 1, UserID: 100, Status: membership.StatusJoined, Role: membership.RoleOwner,
	}
	seedLink(repo, "tok", 0, 0, nil, nil)

	// A link is an explicit grant: redemption succeeds even at capacity
	m, err := svc.Redeem(context.Background(), guard.Actor{UserID: 5, Role: guard.RoleUser}, "tok", "")
	require.NoError(t, err)
	assert.Equal(t, membership.StatusJoined, m.Status)
}

func TestRedeemUnknownToken(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Redeem(context.Background(), guard.Actor{UserID: 5, Role: guard.RoleUser}, "nope", "")
	assert.Equal(t, guard.CodeNotFound, guard.CodeOf(err))
}

func TestRedeemRevokedLink(t *testing.T) {
	svc, repo, _ := newTestService()
	now := time.Now().UTC()
	seedLink(repo, "tok", 0, 0, nil, &now)

	_, err := svc.Redeem(context.Background(), guard.Actor{UserID: 5, Role: guard.RoleUser}, "tok", "")
	assert.Equal(t, guard.CodeForbidden, guard.CodeOf(err))
}

func TestRedeemExpiredLink(t *testing.T) {
	svc, repo, _ := newTestService()
	past := time.Now().UTC().Add(-time.Hour)
	seedLink(repo, "tok", 0, 0, &past, nil)

	_, err := svc.Redeem(context.Background(), guard.Actor{UserID: 5, Role: guard.RoleUser}, "tok", "")
	assert.Equal(t, guard.CodeExpired, guard.CodeOf(err))
}

func TestRedeemExhaustedLink(t *testing.T) {
	svc, repo, _ := newTestService()
	seedLink(repo, "tok", 2, 2, nil, nil)

	_, err := svc.Redeem(context.Background(), guard.Actor{UserID: 5, Role: guard.RoleUser}, "tok", "")
	assert.Equal(t, guard.CodeExpired, guard.CodeOf(err))
}

func TestRedeemIncrementsUseCountByOne(t *testing.T) {
	svc, repo, memberRepo := newTestService()
	seedLink(repo, "tok", 5, 0, nil, nil)

	m, err := svc.Redeem(context.Background(), guard.Actor{UserID: 5, Role: guard.RoleUser}, "tok", "")
	require.NoError(t, err)
	assert.Equal(t, membership.StatusJoined, m.Status)
	assert.Equal(t, membership.RoleMember, m.Role)

	link, _ := repo.FindByToken("tok")
	assert.Equal(t, 1, link.UsedCount)

	stored := memberRepo.members[memberKey{1, 5}]
	require.NotNil(t, stored)
	assert.Equal(t, membership.StatusJoined, stored.Status)
}

func TestRedeemAlreadyJoinedDoesNotConsumeUse(t *testing.T) {
	svc, repo, memberRepo := newTestService()
	seedLink(repo, "tok", 1, 0, nil, nil)
	memberRepo.members[memberKey{1, 5}] = &membership.Member{
		IntentID: 1, UserID: 5, Status: membership.StatusJoined, Role: membership.RoleMember,
	}

	m, err := svc.Redeem(context.Background(), guard.Actor{UserID: 5, Role: guard.RoleUser}, "tok", "")
	require.NoError(t, err)
	assert.Equal(t, membership.StatusJoined, m.Status)

	link, _ := repo.FindByToken("tok")
	assert.Equal(t, 0, link.UsedCount)
}

func TestRedeemBannedMember(t *testing.T) {
	svc, repo, memberRepo := newTestService()
	seedLink(repo, "tok", 0, 0, nil, nil)
	memberRepo.members[memberKey{1, 5}] = &membership.Member{
		IntentID: 1, UserID: 5, Status: membership.StatusBanned, Role: membership.RoleMember,
	}

	_, err := svc.Redeem(context.Background(), guard.Actor{UserID: 5, Role: guard.RoleUser}, "tok", "")
	assert.Equal(t, guard.CodeForbidden, guard.CodeOf(err))

	link, _ := repo.FindByToken("tok")
	assert.Equal(t, 0, link.UsedCount)
}

func TestRedeemUnauthenticated(t *testing.T) {
	svc, repo, _ := newTestService()
	seedLink(repo, "tok", 0, 0, nil, nil)

	_, err := svc.Redeem(context.Background(), guard.Actor{}, "tok", "")
	assert.Equal(t, guard.CodeUnauthenticated, guard.CodeOf(err))
}

func TestRevokeLinkIsIdempotent(t *testing.T) {
	svc, repo, _ := newTestService()
	seedLink(repo, "tok", 0, 0, nil, nil)
	owner := guard.Actor{UserID: 100, Role: guard.RoleUser}

	link, err := svc.RevokeLink(context.Background(), owner, 1, "tok", "")
	require.NoError(t, err)
	require.NotNil(t, link.RevokedAt)
	first := *link.RevokedAt

	link2, err := svc.RevokeLink(context.Background(), owner, 1, "tok", "")
	require.NoError(t, err)
	assert.Equal(t, first, *link2.RevokedAt)
}

func TestRevokeRequiresModerator(t *testing.T) {
	svc, repo, _ := newTestService()
	seedLink(repo, "tok", 0, 0, nil, nil)

	_, err := svc.RevokeLink(context.Background(), guard.Actor{UserID: 5, Role: guard.RoleUser}, 1, "tok", "")
	assert.Equal(t, guard.CodeForbidden, guard.CodeOf(err))
}

func TestCreateLinkWithExpiry(t *testing.T) {
	svc, _, _ := newTestService()
	owner := guard.Actor{UserID: 100, Role: guard.RoleUser}

	link, err := svc.CreateLink(context.Background(), owner, 1, &CreateInviteLinkRequest{ExpiresInHours: 24, MaxUses: 10}, "")
	require.NoError(t, err)
	assert.NotEmpty(t, link.Token)
	assert.Equal(t, 10, link.MaxUses)
	require.NotNil(t, link.ExpiresAt)
	assert.True(t, link.ExpiresAt.After(time.Now().UTC()))
}
