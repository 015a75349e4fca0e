package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/miglee/miglee-backend/internal/auditlog"
	"github.com/miglee/miglee-backend/internal/auth"
	"github.com/miglee/miglee-backend/internal/guard"
	"github.com/miglee/miglee-backend/internal/intent"
	"github.com/miglee/miglee-backend/internal/membership"
	"github.com/miglee/miglee-backend/utils"
)

// Service is the platform-admin surface. Every operation runs the admin
// guard before touching data.
type Service struct {
	Intents  *intent.Service
	Members  *membership.Service
	Users    auth.Repository
	AuditSvc auditlog.Service
}

func NewService(intents *intent.Service, members *membership.Service, users auth.Repository, auditSvc auditlog.Service) *Service {
	return &Service{
		Intents:  intents,
		Members:  members,
		Users:    users,
		AuditSvc: auditSvc,
	}
}

// UpdateIntent applies an admin edit to any intent regardless of ownership.
func (s *Service) UpdateIntent(ctx context.Context, actor guard.Actor, id uint, req *intent.UpdateIntentRequest, ip string) (*intent.Intent, error) {
	if err := guard.RequireAdmin(actor); err != nil {
		return nil, err
	}
	return s.Intents.UpdateIntent(ctx, actor, id, req, ip)
}

// BulkUpdateIntents applies the same edit to many intents, accumulating
// per-item failures into the result summary.
func (s *Service) BulkUpdateIntents(ctx context.Context, actor guard.Actor, req *BulkUpdateIntentsRequest, ip string) (*BulkUpdateResult, error) {
	if err := guard.RequireAdmin(actor); err != nil {
		return nil, err
	}

	result := &BulkUpdateResult{Errors: []string{}}
	for _, id := range req.IDs {
		input := req.Input // copy per item; UpdateIntent mutates nothing in it
		if _, err := s.Intents.UpdateIntent(ctx, actor, id, &input, ip); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("intent %d: %s", id, err.Error()))
			continue
		}
		result.Success++
	}

	s.audit(ctx, actor, nil, "ADMIN_BULK_UPDATE_INTENTS", map[string]interface{}{
		"ids":     req.IDs,
		"success": result.Success,
		"failed":  result.Failed,
	}, ip, "success")

	return result, nil
}

// ChangeIntentOwner reassigns an intent to a new owner. The new owner's
// membership is upserted to JOINED/MODERATOR, not OWNER, and the previous
// owner's membership row is left untouched. Promoting the new owner's role
// remains a separate action.
func (s *Service) ChangeIntentOwner(ctx context.Context, actor guard.Actor, intentID, newOwnerID uint, ip string) (*intent.Intent, error) {
	if err := guard.RequireAdmin(actor); err != nil {
		return nil, err
	}

	it, err := s.Intents.Repo.GetByID(intentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, guard.NotFound("intent %d not found", intentID)
		}
		return nil, err
	}

	if it.OwnerID == newOwnerID {
		return it, nil
	}

	newOwner, err := s.Users.FindByID(newOwnerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, guard.NotFound("user %d not found", newOwnerID)
		}
		return nil, err
	}
	if newOwner.Status == auth.StatusBanned {
		return nil, guard.Forbidden("cannot transfer ownership to a banned user")
	}

	if _, err := s.Members.UpsertMembership(ctx, intentID, newOwnerID, membership.StatusJoined, membership.RoleModerator); err != nil {
		s.audit(ctx, actor, &intentID, "ADMIN_OWNER_TRANSFER", map[string]interface{}{"new_owner": newOwnerID, "error": err.Error()}, ip, "failure")
		return nil, err
	}

	previousOwner := it.OwnerID
	it.OwnerID = newOwnerID
	if err := s.Intents.Repo.Update(it); err != nil {
		s.audit(ctx, actor, &intentID, "ADMIN_OWNER_TRANSFER", map[string]interface{}{"new_owner": newOwnerID, "error": err.Error()}, ip, "failure")
		return nil, err
	}

	s.audit(ctx, actor, &intentID, "ADMIN_OWNER_TRANSFER", map[string]interface{}{
		"previous_owner": previousOwner,
		"new_owner":      newOwnerID,
	}, ip, "success")

	utils.PublishEvent(ctx, utils.DomainEvent{
		Action:     "ADMIN_OWNER_TRANSFER",
		ActorID:    actor.UserID,
		IntentID:   intentID,
		TargetUser: newOwnerID,
		Title:      it.Title,
		Body:       "You are now the owner of " + it.Title,
	})

	return it, nil
}

// BanUser bans a user platform-wide. Banning a banned user is a no-op.
func (s *Service) BanUser(ctx context.Context, actor guard.Actor, userID uint, ip string) (*auth.User, error) {
	if err := guard.RequireAdmin(actor); err != nil {
		return nil, err
	}

	user, err := s.Users.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, guard.NotFound("user %d not found", userID)
		}
		return nil, err
	}
	if user.Role == guard.RoleAdmin {
		return nil, guard.Forbidden("cannot ban an admin")
	}

	if user.Status != auth.StatusBanned {
		now := time.Now().UTC()
		user.Status = auth.StatusBanned
		user.BannedAt = &now
		if err := s.Users.Update(user); err != nil {
			return nil, err
		}
	}

	s.audit(ctx, actor, nil, "ADMIN_USER_BANNED", map[string]interface{}{"target_user": userID}, ip, "success")
	return user, nil
}

// UnbanUser restores a banned user to active.
func (s *Service) UnbanUser(ctx context.Context, actor guard.Actor, userID uint, ip string) (*auth.User, error) {
	if err := guard.RequireAdmin(actor); err != nil {
		return nil, err
	}

	user, err := s.Users.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, guard.NotFound("user %d not found", userID)
		}
		return nil, err
	}

	if user.Status == auth.StatusBanned {
		user.Status = auth.StatusActive
		user.BannedAt = nil
		if err := s.Users.Update(user); err != nil {
			return nil, err
		}
	}

	s.audit(ctx, actor, nil, "ADMIN_USER_UNBANNED", map[string]interface{}{"target_user": userID}, ip, "success")
	return user, nil
}

func (s *Service) audit(ctx context.Context, actor guard.Actor, intentID *uint, action string, details map[string]interface{}, ip, status string) {
	if s.AuditSvc == nil {
		return
	}
	userID := actor.UserID
	_ = s.AuditSvc.LogAction(ctx, &userID, intentID, action, details, ip, status)
}
