package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/miglee/miglee-backend/internal/auditlog"
	"github.com/miglee/miglee-backend/internal/guard"
	"github.com/miglee/miglee-backend/internal/intent"
	"github.com/miglee/miglee-backend/utils"
)

// IntentStore is the slice of the intent repository this module reads from.
type IntentStore interface {
	GetByID(id uint) (*intent.Intent, error)
}

type Service struct {
	Repo     Repository
	Intents  IntentStore
	AuditSvc auditlog.Service
}

func NewService(repo Repository, intents IntentStore, auditSvc auditlog.Service) *Service {
	return &Service{
		Repo:     repo,
		Intents:  intents,
		AuditSvc: auditSvc,
	}
}

// EnsureOwnerMembership creates the OWNER row when an intent is created.
// Implements intent.MembershipGateway.
func (s *Service) EnsureOwnerMembership(ctx context.Context, intentID, userID uint) error {
	now := time.Now().UTC()
	return s.Repo.Upsert(&Member{
		IntentID: intentID,
		UserID:   userID,
		Status:   StatusJoined,
		Role:     RoleOwner,
		JoinedAt: &now,
	})
}

// UpsertMembership forces a (intent, user) row to the given status/role.
// Used by the admin owner-transfer flow. A pre-existing OWNER row is the only
// thing it refuses to overwrite.
func (s *Service) UpsertMembership(ctx context.Context, intentID, userID uint, status, role string) (*Member, error) {
	existing, err := s.Repo.Find(intentID, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil && existing.Role == RoleOwner && role != RoleOwner {
		return nil, guard.Forbidden("cannot overwrite an OWNER membership")
	}

	now := time.Now().UTC()
	m := &Member{
		IntentID: intentID,
		UserID:   userID,
		Status:   status,
		Role:     role,
	}
	if status == StatusJoined {
		m.JoinedAt = &now
	}
	if err := s.Repo.Upsert(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Join applies the intent's join mode: OPEN joins immediately, APPROVAL
// parks the caller in PENDING, INVITE_ONLY rejects uninvited joins.
func (s *Service) Join(ctx context.Context, actor guard.Actor, intentID uint, ip string) (*Member, error) {
	if err := guard.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	it, err := s.requireIntent(intentID)
	if err != nil {
		return nil, err
	}
	if it.IsCanceled() {
		return nil, guard.Forbidden("intent is canceled")
	}

	existing, err := s.findMember(intentID, actor.UserID)
	if err != nil {
		return nil, err
	}

	from := ""
	if existing != nil {
		from = existing.Status
		if existing.Status == StatusJoined {
			return existing, nil // already a member, idempotent
		}
		if existing.Status == StatusBanned {
			return nil, guard.Forbidden("you are banned from this intent")
		}
		if existing.Status == StatusInvited {
			// A standing invitation is an explicit grant: it always succeeds
			// and skips the capacity gate below
			return s.transition(ctx, existing, StatusJoined, existing.Role, actor, ip, "MEMBER_JOINED")
		}
	}

	target := StatusJoined
	switch it.JoinMode {
	case intent.JoinModeApproval:
		target = StatusPending
	case intent.JoinModeInviteOnly:
		return nil, guard.Forbidden("this intent is invite-only")
	}

	if target == StatusJoined {
		joined, err := s.Repo.CountJoined(intentID)
		if err != nil {
			return nil, err
		}
		if !it.HasCapacity(joined) {
			return nil, guard.Forbidden("intent is at capacity")
		}
	}

	if !CanTransition(from, target) {
		return nil, guard.Forbidden(fmt.Sprintf("cannot join from status %s", from))
	}

	if existing != nil {
		return s.transition(ctx, existing, target, RoleMember, actor, ip, "MEMBER_JOINED")
	}

	now := time.Now().UTC()
	m := &Member{
		IntentID: intentID,
		UserID:   actor.UserID,
		Status:   target,
		Role:     RoleMember,
	}
	if target == StatusJoined {
		m.JoinedAt = &now
	}
	if err := s.Repo.Create(m); err != nil {
		s.audit(ctx, actor, &intentID, "MEMBER_JOINED", map[string]interface{}{"error": err.Error()}, ip, "failure")
		return nil, err
	}

	s.audit(ctx, actor, &intentID, "MEMBER_JOINED", map[string]interface{}{"status": target}, ip, "success")
	s.notifyModerators(ctx, actor, it, target)
	return m, nil
}

// Leave marks the caller LEFT. The owner cannot leave their own intent.
func (s *Service) Leave(ctx context.Context, actor guard.Actor, intentID uint, ip string) error {
	if err := guard.RequireAuthenticated(actor); err != nil {
		return err
	}

	if _, err := s.requireIntent(intentID); err != nil {
		return err
	}

	m, err := s.findMember(intentID, actor.UserID)
	if err != nil {
		return err
	}
	if m == nil {
		return guard.NotFound("you are not a member of intent %d", intentID)
	}
	if m.Role == RoleOwner {
		return guard.Forbidden("the owner cannot leave their own intent")
	}
	if m.Status == StatusLeft {
		return nil
	}
	if !CanTransition(m.Status, StatusLeft) {
		return guard.Forbidden(fmt.Sprintf("cannot leave from status %s", m.Status))
	}

	_, err = s.transition(ctx, m, StatusLeft, m.Role, actor, ip, "MEMBER_LEFT")
	return err
}

// Approve moves a PENDING member to JOINED. Moderator action.
func (s *Service) Approve(ctx context.Context, actor guard.Actor, intentID, userID uint, ip string) (*Member, error) {
	it, m, err := s.requireModeratorAndTarget(actor, intentID, userID)
	if err != nil {
		return nil, err
	}
	if m.Status == StatusJoined {
		return m, nil
	}
	if !CanTransition(m.Status, StatusJoined) {
		return nil, guard.Forbidden(fmt.Sprintf("cannot approve from status %s", m.Status))
	}

	joined, err := s.Repo.CountJoined(intentID)
	if err != nil {
		return nil, err
	}
	if !it.HasCapacity(joined) {
		return nil, guard.Forbidden("intent is at capacity")
	}

	res, err := s.transition(ctx, m, StatusJoined, m.Role, actor, ip, "MEMBER_APPROVED")
	if err == nil {
		utils.PublishEvent(ctx, utils.DomainEvent{
			Action:     "MEMBER_APPROVED",
			ActorID:    actor.UserID,
			IntentID:   intentID,
			TargetUser: userID,
			Title:      "Request approved",
			Body:       "Your request to join " + it.Title + " was approved",
		})
	}
	return res, err
}

// Reject moves a PENDING or INVITED member to REJECTED. Moderator action.
func (s *Service) Reject(ctx context.Context, actor guard.Actor, intentID, userID uint, ip string) (*Member, error) {
	_, m, err := s.requireModeratorAndTarget(actor, intentID, userID)
	if err != nil {
		return nil, err
	}
	if m.Status == StatusRejected {
		return m, nil
	}
	if m.Role == RoleOwner {
		return nil, guard.Forbidden("cannot reject the OWNER")
	}
	if !CanTransition(m.Status, StatusRejected) {
		return nil, guard.Forbidden(fmt.Sprintf("cannot reject from status %s", m.Status))
	}
	return s.transition(ctx, m, StatusRejected, m.Role, actor, ip, "MEMBER_REJECTED")
}

// Kick removes a member. Terminal: kicking an already kicked or banned member
// is an idempotent success.
func (s *Service) Kick(ctx context.Context, actor guard.Actor, intentID, userID uint, ip string) (*Member, error) {
	return s.terminate(ctx, actor, intentID, userID, StatusKicked, "MEMBER_KICKED", ip)
}

// Ban bars a member permanently. Idempotent on terminal states.
func (s *Service) Ban(ctx context.Context, actor guard.Actor, intentID, userID uint, ip string) (*Member, error) {
	return s.terminate(ctx, actor, intentID, userID, StatusBanned, "MEMBER_BANNED", ip)
}

func (s *Service) terminate(ctx context.Context, actor guard.Actor, intentID, userID uint, target, action, ip string) (*Member, error) {
	it, m, err := s.requireModeratorAndTarget(actor, intentID, userID)
	if err != nil {
		return nil, err
	}
	if m.Role == RoleOwner {
		return nil, guard.Forbidden("cannot remove the OWNER")
	}
	if IsTerminal(m.Status) {
		// Re-kicking or re-banning a terminal member stays a no-op success
		return m, nil
	}
	if !CanTransition(m.Status, target) {
		return nil, guard.Forbidden(fmt.Sprintf("cannot move from status %s to %s", m.Status, target))
	}

	res, err := s.transition(ctx, m, target, m.Role, actor, ip, action)
	if err == nil {
		utils.PublishEvent(ctx, utils.DomainEvent{
			Action:     action,
			ActorID:    actor.UserID,
			IntentID:   intentID,
			TargetUser: userID,
			Title:      "Membership update",
			Body:       "Your membership in " + it.Title + " has changed",
		})
	}
	return res, err
}

// Invite creates an INVITED row for a user. Moderator action.
func (s *Service) Invite(ctx context.Context, actor guard.Actor, intentID, userID uint, ip string) (*Member, error) {
	it, err := s.requireModerator(actor, intentID)
	if err != nil {
		return nil, err
	}

	existing, err := s.findMember(intentID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Status == StatusInvited {
			return existing, nil
		}
		return nil, guard.Forbidden(fmt.Sprintf("user already has membership status %s", existing.Status))
	}

	m := &Member{
		IntentID: intentID,
		UserID:   userID,
		Status:   StatusInvited,
		Role:     RoleMember,
	}
	if err := s.Repo.Create(m); err != nil {
		return nil, err
	}

	s.audit(ctx, actor, &intentID, "MEMBER_INVITED", map[string]interface{}{"target_user": userID}, ip, "success")
	utils.PublishEvent(ctx, utils.DomainEvent{
		Action:     "MEMBER_INVITED",
		ActorID:    actor.UserID,
		IntentID:   intentID,
		TargetUser: userID,
		Title:      "You are invited",
		Body:       "You have been invited to " + it.Title,
	})
	return m, nil
}

// SetModerator promotes or demotes between MEMBER and MODERATOR. Owner-only.
// The OWNER role itself is never assigned or removed here.
func (s *Service) SetModerator(ctx context.Context, actor guard.Actor, intentID, userID uint, moderator bool, ip string) (*Member, error) {
	it, err := s.requireIntent(intentID)
	if err != nil {
		return nil, err
	}
	if err := guard.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && it.OwnerID != actor.UserID {
		return nil, guard.Forbidden("only the owner can manage moderators")
	}

	m, err := s.findMember(intentID, userID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, guard.NotFound("user %d is not a member of intent %d", userID, intentID)
	}
	if m.Role == RoleOwner {
		return nil, guard.Forbidden("cannot change the OWNER role")
	}
	if m.Status != StatusJoined {
		return nil, guard.Forbidden("only JOINED members can be moderators")
	}

	role := RoleMember
	if moderator {
		role = RoleModerator
	}
	m.Role = role
	if err := s.Repo.Update(m); err != nil {
		return nil, err
	}

	s.audit(ctx, actor, &intentID, "MEMBER_ROLE_CHANGED", map[string]interface{}{"target_user": userID, "role": role}, ip, "success")
	return m, nil
}

// ListMembers is restricted to joined members, moderators, and admins.
func (s *Service) ListMembers(ctx context.Context, actor guard.Actor, intentID uint, status string) ([]MemberResponse, error) {
	if _, err := s.requireIntent(intentID); err != nil {
		return nil, err
	}
	if err := guard.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	if !actor.IsAdmin() {
		m, err := s.findMember(intentID, actor.UserID)
		if err != nil {
			return nil, err
		}
		if m == nil || m.Status != StatusJoined {
			return nil, guard.Forbidden("only members can list members")
		}
	}

	return s.Repo.ListByIntent(intentID, status)
}

// ===========================
// internal helpers

func (s *Service) requireIntent(intentID uint) (*intent.Intent, error) {
	it, err := s.Intents.GetByID(intentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, guard.NotFound("intent %d not found", intentID)
		}
		return nil, err
	}
	return it, nil
}

func (s *Service) findMember(intentID, userID uint) (*Member, error) {
	m, err := s.Repo.Find(intentID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

// RequireModerator checks intent existence before the role check. Exported
// for the invite-link and check-in modules, which gate on the same predicate.
func (s *Service) RequireModerator(actor guard.Actor, intentID uint) (*intent.Intent, error) {
	return s.requireModerator(actor, intentID)
}

func (s *Service) requireModerator(actor guard.Actor, intentID uint) (*intent.Intent, error) {
	it, err := s.requireIntent(intentID)
	if err != nil {
		return nil, err
	}
	if err := guard.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	if actor.IsAdmin() || it.OwnerID == actor.UserID {
		return it, nil
	}

	m, err := s.findMember(intentID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if m != nil && m.Status == StatusJoined && (m.Role == RoleOwner || m.Role == RoleModerator) {
		return it, nil
	}
	return nil, guard.Forbidden("moderator access required")
}

func (s *Service) requireModeratorAndTarget(actor guard.Actor, intentID, userID uint) (*intent.Intent, *Member, error) {
	it, err := s.requireModerator(actor, intentID)
	if err != nil {
		return nil, nil, err
	}
	m, err := s.findMember(intentID, userID)
	if err != nil {
		return nil, nil, err
	}
	if m == nil {
		return nil, nil, guard.NotFound("user %d is not a member of intent %d", userID, intentID)
	}
	return it, m, nil
}

func (s *Service) transition(ctx context.Context, m *Member, status, role string, actor guard.Actor, ip, action string) (*Member, error) {
	now := time.Now().UTC()
	m.Status = status
	m.Role = role
	switch status {
	case StatusJoined:
		m.JoinedAt = &now
		m.LeftAt = nil
	case StatusLeft, StatusKicked, StatusBanned:
		m.LeftAt = &now
	}

	if err := s.Repo.Update(m); err != nil {
		s.audit(ctx, actor, &m.IntentID, action, map[string]interface{}{"target_user": m.UserID, "error": err.Error()}, ip, "failure")
		return nil, err
	}

	s.audit(ctx, actor, &m.IntentID, action, map[string]interface{}{"target_user": m.UserID, "status": status}, ip, "success")
	return m, nil
}

func (s *Service) notifyModerators(ctx context.Context, actor guard.Actor, it *intent.Intent, status string) {
	action := "MEMBER_JOINED"
	body := "A new member joined " + it.Title
	if status == StatusPending {
		action = "JOIN_REQUESTED"
		body = "A join request is waiting for approval on " + it.Title
	}
	utils.PublishEvent(ctx, utils.DomainEvent{
		Action:     action,
		ActorID:    actor.UserID,
		IntentID:   it.ID,
		TargetUser: it.OwnerID,
		Title:      it.Title,
		Body:       body,
	})
}

func (s *Service) audit(ctx context.Context, actor guard.Actor, intentID *uint, action string, details map[string]interface{}, ip, status string) {
	if s.AuditSvc == nil {
		return
	}
	userID := actor.UserID
	_ = s.AuditSvc.LogAction(ctx, &userID, intentID, action, details, ip, status)
}
