package invitelink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/miglee/miglee-backend/config"
	"github.com/miglee/miglee-backend/internal/auditlog"
	"github.com/miglee/miglee-backend/internal/guard"
	"github.com/miglee/miglee-backend/internal/intent"
	"github.com/miglee/miglee-backend/internal/membership"
	"github.com/miglee/miglee-backend/utils"
)

type Service struct {
	Repo     Repository
	Members  *membership.Service
	Intents  membership.IntentStore
	AuditSvc auditlog.Service
}

func NewService(repo Repository, members *membership.Service, intents membership.IntentStore, auditSvc auditlog.Service) *Service {
	return &Service{
		Repo:     repo,
		Members:  members,
		Intents:  intents,
		AuditSvc: auditSvc,
	}
}

// CreateLink issues a new invite link. Moderator action.
func (s *Service) CreateLink(ctx context.Context, actor guard.Actor, intentID uint, req *CreateInviteLinkRequest, ip string) (*InviteLink, error) {
	if _, err := s.requireModerator(actor, intentID); err != nil {
		return nil, err
	}

	link := &InviteLink{
		IntentID:  intentID,
		Token:     utils.GenerateOpaqueToken(),
		CreatedBy: actor.UserID,
		MaxUses:   req.MaxUses,
	}
	if req.ExpiresInHours > 0 {
		expiry := time.Now().UTC().Add(time.Duration(req.ExpiresInHours) * time.Hour)
		link.ExpiresAt = &expiry
	}

	if err := s.Repo.Create(link); err != nil {
		s.audit(ctx, actor, &intentID, "INVITE_LINK_CREATED", map[string]interface{}{"error": err.Error()}, ip, "failure")
		return nil, err
	}

	s.audit(ctx, actor, &intentID, "INVITE_LINK_CREATED", map[string]interface{}{"link_id": link.ID, "max_uses": link.MaxUses}, ip, "success")
	return link, nil
}

// RevokeLink flips the revoked flag; revocation is irreversible and a second
// revoke is a no-op success.
func (s *Service) RevokeLink(ctx context.Context, actor guard.Actor, intentID uint, token string, ip string) (*InviteLink, error) {
	if _, err := s.requireModerator(actor, intentID); err != nil {
		return nil, err
	}

	link, err := s.Repo.FindByToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, guard.NotFound("invite link not found")
		}
		return nil, err
	}
	if link.IntentID != intentID {
		return nil, guard.NotFound("invite link not found")
	}

	if link.RevokedAt == nil {
		now := time.Now().UTC()
		link.RevokedAt = &now
		if err := s.Repo.Update(link); err != nil {
			return nil, err
		}
	}

	s.audit(ctx, actor, &intentID, "INVITE_LINK_REVOKED", map[string]interface{}{"link_id": link.ID}, ip, "success")
	return link, nil
}

// ListLinks returns all links for an intent. Moderator action.
func (s *Service) ListLinks(ctx context.Context, actor guard.Actor, intentID uint) ([]InviteLink, error) {
	if _, err := s.requireModerator(actor, intentID); err != nil {
		return nil, err
	}
	return s.Repo.ListByIntent(intentID)
}

// Redeem validates the token and admits the caller as a JOINED member.
// Check order: existence, revocation, expiry/use-limit, membership state.
// Capacity is not checked: a link is an explicit grant, like a standing
// invitation. The read-check-write sequence is not isolated against concurrent
// redemptions of the same link; two racers on a single-use link can both pass
// the limit check.
func (s *Service) Redeem(ctx context.Context, actor guard.Actor, token string, ip string) (*membership.Member, error) {
	if err := guard.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	link, err := s.Repo.FindByToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, guard.NotFound("invite link not found")
		}
		return nil, err
	}

	if link.IsRevoked() {
		return nil, guard.Forbidden("invite link has been revoked")
	}
	if link.IsExpired(time.Now().UTC()) {
		return nil, guard.Expired("invite link has expired")
	}
	if link.IsExhausted() {
		return nil, guard.Expired("invite link has reached its usage limit")
	}

	it, err := s.Intents.GetByID(link.IntentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, guard.NotFound("intent %d not found", link.IntentID)
		}
		return nil, err
	}
	if it.IsCanceled() {
		return nil, guard.Forbidden("intent is canceled")
	}

	existing, err := s.Members.Repo.Find(link.IntentID, actor.UserID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil {
		if existing.Status == membership.StatusJoined {
			// Already a member: succeed without consuming a use
			return existing, nil
		}
		if !membership.CanTransition(existing.Status, membership.StatusJoined) {
			return nil, guard.Forbidden(fmt.Sprintf("cannot join from status %s", existing.Status))
		}
	}

	link.UsedCount++
	if err := s.Repo.Update(link); err != nil {
		s.audit(ctx, actor, &link.IntentID, "INVITE_LINK_REDEEMED", map[string]interface{}{"error": err.Error()}, ip, "failure")
		return nil, err
	}

	m, err := s.Members.UpsertMembership(ctx, link.IntentID, actor.UserID, membership.StatusJoined, membership.RoleMember)
	if err != nil {
		s.audit(ctx, actor, &link.IntentID, "INVITE_LINK_REDEEMED", map[string]interface{}{"error": err.Error()}, ip, "failure")
		return nil, err
	}

	s.audit(ctx, actor, &link.IntentID, "INVITE_LINK_REDEEMED", map[string]interface{}{"link_id": link.ID, "used_count": link.UsedCount}, ip, "success")
	utils.PublishEvent(ctx, utils.DomainEvent{
		Action:     "INVITE_LINK_REDEEMED",
		ActorID:    actor.UserID,
		IntentID:   link.IntentID,
		TargetUser: it.OwnerID,
		Title:      it.Title,
		Body:       "A member joined via invite link",
	})

	return m, nil
}

// ShareURL renders the joinable URL embedded into invite QR codes.
func ShareURL(token string) string {
	return fmt.Sprintf("%s/join?token=%s", config.BaseURL, token)
}

func (s *Service) requireModerator(actor guard.Actor, intentID uint) (*intent.Intent, error) {
	return s.Members.RequireModerator(actor, intentID)
}

func (s *Service) audit(ctx context.Context, actor guard.Actor, intentID *uint, action string, details map[string]interface{}, ip, status string) {
	if s.AuditSvc == nil {
		return
	}
	userID := actor.UserID
	_ = s.AuditSvc.LogAction(ctx, &userID, intentID, action, details, ip, status)
}
