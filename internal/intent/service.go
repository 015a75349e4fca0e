package intent

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/miglee/miglee-backend/internal/auditlog"
	"github.com/miglee/miglee-backend/internal/guard"
	"github.com/miglee/miglee-backend/utils"
)

// MembershipGateway is the slice of the membership service the intent module
// needs. Set from main after both services are constructed.
type MembershipGateway interface {
	EnsureOwnerMembership(ctx context.Context, intentID, userID uint) error
}

type Service struct {
	Repo     Repository
	AuditSvc auditlog.Service
	Members  MembershipGateway
}

func NewService(r Repository, auditSvc auditlog.Service) *Service {
	return &Service{
		Repo:     r,
		AuditSvc: auditSvc,
	}
}

// CreateIntent creates the intent and its OWNER membership row.
func (s *Service) CreateIntent(ctx context.Context, actor guard.Actor, req *CreateIntentRequest, ip string) (*Intent, error) {
	if err := guard.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	startAt, err := time.Parse(time.RFC3339, req.StartAt)
	if err != nil {
		return nil, errors.New("invalid start_at format, use RFC3339")
	}

	var endAt *time.Time
	if req.EndAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.EndAt)
		if err != nil {
			return nil, errors.New("invalid end_at format, use RFC3339")
		}
		if parsed.Before(startAt) {
			return nil, errors.New("end_at must be after start_at")
		}
		endAt = &parsed
	}

	visibility := req.Visibility
	if visibility == "" {
		visibility = VisibilityPublic
	}
	if !validVisibility(visibility) {
		return nil, errors.New("invalid visibility")
	}

	joinMode := req.JoinMode
	if joinMode == "" {
		joinMode = JoinModeOpen
	}
	if !validJoinMode(joinMode) {
		return nil, errors.New("invalid join_mode")
	}

	if req.MaxCapacity > 0 && req.MinCapacity > req.MaxCapacity {
		return nil, errors.New("min_capacity cannot exceed max_capacity")
	}

	it := &Intent{
		OwnerID:     actor.UserID,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartAt:     startAt,
		EndAt:       endAt,
		Visibility:  visibility,
		JoinMode:    joinMode,
		MinCapacity: req.MinCapacity,
		MaxCapacity: req.MaxCapacity,
	}

	if err := s.Repo.Create(it); err != nil {
		s.audit(ctx, actor, nil, "INTENT_CREATED", map[string]interface{}{"title": req.Title, "error": err.Error()}, ip, "failure")
		return nil, err
	}

	if s.Members != nil {
		if err := s.Members.EnsureOwnerMembership(ctx, it.ID, actor.UserID); err != nil {
			s.audit(ctx, actor, &it.ID, "INTENT_CREATED", map[string]interface{}{"error": "owner membership: " + err.Error()}, ip, "failure")
			return nil, err
		}
	}
	it.MemberCount = 1

	s.audit(ctx, actor, &it.ID, "INTENT_CREATED", map[string]interface{}{
		"title":      it.Title,
		"visibility": it.Visibility,
		"join_mode":  it.JoinMode,
	}, ip, "success")

	return it, nil
}

// GetIntent applies visibility rules: PRIVATE intents are visible only to
// members, the owner, and admins.
func (s *Service) GetIntent(ctx context.Context, actor guard.Actor, id uint) (*Intent, error) {
	it, err := s.Repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, guard.NotFound("intent %d not found", id)
		}
		return nil, err
	}

	if it.Visibility == VisibilityPrivate && !actor.IsAdmin() && it.OwnerID != actor.UserID {
		role, status, err := s.Repo.MemberRoleAndStatus(id, actor.UserID)
		if err != nil {
			return nil, err
		}
		if role == "" || status != "JOINED" {
			// Hide existence of private intents from outsiders
			return nil, guard.NotFound("intent %d not found", id)
		}
	}

	return it, nil
}

func (s *Service) ListPublicIntents(limit, offset int, search string) ([]Intent, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.Repo.ListPublic(limit, offset, search)
}

func (s *Service) ListOwnIntents(actor guard.Actor) ([]Intent, error) {
	if err := guard.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	return s.Repo.ListByOwner(actor.UserID)
}

// UpdateIntent is restricted to the owner, moderators, and admins.
func (s *Service) UpdateIntent(ctx context.Context, actor guard.Actor, id uint, req *UpdateIntentRequest, ip string) (*Intent, error) {
	it, err := s.requireManageable(actor, id)
	if err != nil {
		return nil, err
	}

	if err := applyUpdate(it, req); err != nil {
		return nil, err
	}

	if err := s.Repo.Update(it); err != nil {
		s.audit(ctx, actor, &id, "INTENT_UPDATED", map[string]interface{}{"error": err.Error()}, ip, "failure")
		return nil, err
	}

	s.audit(ctx, actor, &id, "INTENT_UPDATED", map[string]interface{}{"title": it.Title}, ip, "success")
	return it, nil
}

// CancelIntent sets canceledAt; canceling twice is a no-op success.
func (s *Service) CancelIntent(ctx context.Context, actor guard.Actor, id uint, ip string) (*Intent, error) {
	it, err := s.requireManageable(actor, id)
	if err != nil {
		return nil, err
	}

	if it.CanceledAt == nil {
		now := time.Now().UTC()
		it.CanceledAt = &now
		if err := s.Repo.Update(it); err != nil {
			s.audit(ctx, actor, &id, "INTENT_CANCELED", map[string]interface{}{"error": err.Error()}, ip, "failure")
			return nil, err
		}

		utils.PublishEvent(ctx, utils.DomainEvent{
			Action:   "INTENT_CANCELED",
			ActorID:  actor.UserID,
			IntentID: id,
			Title:    "Event canceled",
			Body:     it.Title + " has been canceled",
		})
	}

	s.audit(ctx, actor, &id, "INTENT_CANCELED", map[string]interface{}{"title": it.Title}, ip, "success")
	return it, nil
}

// DeleteIntent soft-deletes; rows are never hard-removed.
func (s *Service) DeleteIntent(ctx context.Context, actor guard.Actor, id uint, ip string) error {
	it, err := s.requireManageable(actor, id)
	if err != nil {
		return err
	}

	if err := s.Repo.SoftDelete(it.ID); err != nil {
		s.audit(ctx, actor, &id, "INTENT_DELETED", map[string]interface{}{"error": err.Error()}, ip, "failure")
		return err
	}

	s.audit(ctx, actor, &id, "INTENT_DELETED", map[string]interface{}{"title": it.Title}, ip, "success")
	return nil
}

// requireManageable checks existence before role: missing intents yield
// NOT_FOUND even for unauthenticated callers.
func (s *Service) requireManageable(actor guard.Actor, id uint) (*Intent, error) {
	it, err := s.Repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, guard.NotFound("intent %d not found", id)
		}
		return nil, err
	}

	if err := guard.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	if actor.IsAdmin() || it.OwnerID == actor.UserID {
		return it, nil
	}

	role, status, err := s.Repo.MemberRoleAndStatus(id, actor.UserID)
	if err != nil {
		return nil, err
	}
	if status == "JOINED" && (role == "OWNER" || role == "MODERATOR") {
		return it, nil
	}

	return nil, guard.Forbidden("only the owner or moderators can manage this intent")
}

func applyUpdate(it *Intent, req *UpdateIntentRequest) error {
	if req.Title != nil {
		it.Title = *req.Title
	}
	if req.Description != nil {
		it.Description = *req.Description
	}
	if req.Location != nil {
		it.Location = *req.Location
	}
	if req.StartAt != nil {
		startAt, err := time.Parse(time.RFC3339, *req.StartAt)
		if err != nil {
			return errors.New("invalid start_at format, use RFC3339")
		}
		it.StartAt = startAt
	}
	if req.EndAt != nil {
		if *req.EndAt == "" {
			it.EndAt = nil
		} else {
			endAt, err := time.Parse(time.RFC3339, *req.EndAt)
			if err != nil {
				return errors.New("invalid end_at format, use RFC3339")
			}
			it.EndAt = &endAt
		}
	}
	if req.Visibility != nil {
		if !validVisibility(*req.Visibility) {
			return errors.New("invalid visibility")
		}
		it.Visibility = *req.Visibility
	}
	if req.JoinMode != nil {
		if !validJoinMode(*req.JoinMode) {
			return errors.New("invalid join_mode")
		}
		it.JoinMode = *req.JoinMode
	}
	if req.MinCapacity != nil {
		it.MinCapacity = *req.MinCapacity
	}
	if req.MaxCapacity != nil {
		it.MaxCapacity = *req.MaxCapacity
	}
	if it.MaxCapacity > 0 && it.MinCapacity > it.MaxCapacity {
		return errors.New("min_capacity cannot exceed max_capacity")
	}
	return nil
}

func (s *Service) audit(ctx context.Context, actor guard.Actor, intentID *uint, action string, details map[string]interface{}, ip, status string) {
	if s.AuditSvc == nil {
		return
	}
	userID := actor.UserID
	_ = s.AuditSvc.LogAction(ctx, &userID, intentID, action, details, ip, status)
}
