package comment

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/miglee/miglee-backend/internal/auditlog"
	"github.com/miglee/miglee-backend/internal/guard"
	"github.com/miglee/miglee-backend/internal/membership"
	"github.com/miglee/miglee-backend/utils"
)

type Service struct {
	Repo     Repository
	Members  *membership.Service
	AuditSvc auditlog.Service
}

func NewService(repo Repository, members *membership.Service, auditSvc auditlog.Service) *Service {
	return &Service{
		Repo:     repo,
		Members:  members,
		AuditSvc: auditSvc,
	}
}

// CreateComment posts to an intent's discussion. Joined members only.
func (s *Service) CreateComment(ctx context.Context, actor guard.Actor, intentID uint, body, ip string) (*Comment, error) {
	if err := s.requireJoined(actor, intentID); err != nil {
		return nil, err
	}

	c := &Comment{
		IntentID: intentID,
		AuthorID: actor.UserID,
		Body:     body,
	}
	if err := s.Repo.Create(c); err != nil {
		return nil, err
	}

	s.audit(ctx, actor, intentID, "COMMENT_POSTED", map[string]interface{}{"comment_id": c.ID}, ip)
	utils.PublishEvent(ctx, utils.DomainEvent{
		Action:   "COMMENT_POSTED",
		ActorID:  actor.UserID,
		IntentID: intentID,
		Title:    "New comment",
		Body:     body,
	})

	return c, nil
}

// ListComments pages through an intent's discussion, oldest first.
func (s *Service) ListComments(actor guard.Actor, intentID uint, limit, offset int) ([]Comment, int64, error) {
	if err := s.requireJoined(actor, intentID); err != nil {
		return nil, 0, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.Repo.ListByIntent(intentID, limit, offset)
}

// UpdateComment edits a comment's body. Author only.
func (s *Service) UpdateComment(ctx context.Context, actor guard.Actor, commentID uint, body, ip string) (*Comment, error) {
	if err := guard.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	c, err := s.getComment(commentID)
	if err != nil {
		return nil, err
	}
	if c.AuthorID != actor.UserID {
		return nil, guard.Forbidden("only the author can edit a comment")
	}

	c.Body = body
	if err := s.Repo.Update(c); err != nil {
		return nil, err
	}

	s.audit(ctx, actor, c.IntentID, "COMMENT_EDITED", map[string]interface{}{"comment_id": c.ID}, ip)
	return c, nil
}

// DeleteComment soft-deletes a comment. Author, intent moderator, or platform
// admin may delete.
func (s *Service) DeleteComment(ctx context.Context, actor guard.Actor, commentID uint, ip string) error {
	if err := guard.RequireAuthenticated(actor); err != nil {
		return err
	}

	c, err := s.getComment(commentID)
	if err != nil {
		return err
	}

	if c.AuthorID != actor.UserID && !actor.IsAdmin() {
		if _, err := s.Members.RequireModerator(actor, c.IntentID); err != nil {
			return err
		}
	}

	if err := s.Repo.Delete(c); err != nil {
		return err
	}

	s.audit(ctx, actor, c.IntentID, "COMMENT_DELETED", map[string]interface{}{"comment_id": c.ID, "author": c.AuthorID}, ip)
	return nil
}

func (s *Service) getComment(id uint) (*Comment, error) {
	c, err := s.Repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, guard.NotFound("comment %d not found", id)
		}
		return nil, err
	}
	return c, nil
}

func (s *Service) requireJoined(actor guard.Actor, intentID uint) error {
	if err := guard.RequireAuthenticated(actor); err != nil {
		return err
	}
	if actor.IsAdmin() {
		return nil
	}

	m, err := s.Members.Repo.Find(intentID, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return guard.Forbidden("only joined members can use the discussion")
		}
		return err
	}
	if m.Status != membership.StatusJoined {
		return guard.Forbidden("only joined members can use the discussion")
	}
	return nil
}

func (s *Service) audit(ctx context.Context, actor guard.Actor, intentID uint, action string, details map[string]interface{}, ip string) {
	if s.AuditSvc == nil {
		return
	}
	userID := actor.UserID
	_ = s.AuditSvc.LogAction(ctx, &userID, &intentID, action, details, ip, "success")
}
