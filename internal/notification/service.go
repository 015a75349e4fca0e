package notification

import (
	"context"
	"encoding/json"
	"log"

	"gorm.io/datatypes"

	"github.com/miglee/miglee-backend/config"
	"github.com/miglee/miglee-backend/internal/auth"
	"github.com/miglee/miglee-backend/internal/guard"
	"github.com/miglee/miglee-backend/utils"
)

// Actions that also go out over email, not just in-app and push.
var emailWorthy = map[string]bool{
	"ADMIN_OWNER_TRANSFER": true,
	"MEMBER_BANNED":        true,
	"MEMBER_INVITED":       true,
}

type Service struct {
	Repo  Repository
	Users auth.Repository
	Cfg   *config.Config
}

func NewService(repo Repository, users auth.Repository, cfg *config.Config) *Service {
	return &Service{Repo: repo, Users: users, Cfg: cfg}
}

// HandleEvent fans a domain event out to the delivery channels: an in-app
// inbox row, an FCM push, and for a few actions an email. Events without a
// target user (e.g. COMMENT_POSTED broadcast) only reach members that asked
// for them; self-notifications are dropped.
func (s *Service) HandleEvent(ctx context.Context, evt utils.DomainEvent) {
	if evt.TargetUser == 0 || evt.TargetUser == evt.ActorID {
		return
	}

	n := &Notification{
		UserID: evt.TargetUser,
		Action: evt.Action,
		Title:  evt.Title,
		Body:   evt.Body,
	}
	if evt.IntentID != 0 {
		intentID := evt.IntentID
		n.IntentID = &intentID
	}
	if len(evt.Data) > 0 {
		if raw, err := json.Marshal(evt.Data); err == nil {
			n.Data = datatypes.JSON(raw)
		}
	}

	if err := s.Repo.Create(n); err != nil {
		log.Printf("⚠️ notification insert failed (action=%s user=%d): %v", evt.Action, evt.TargetUser, err)
	}

	s.PushToUser(ctx, evt.TargetUser, evt.Title, evt.Body, pushData(evt))

	if emailWorthy[evt.Action] {
		s.emailUser(evt.TargetUser, evt.Title, evt.Body)
	}
}

func (s *Service) emailUser(userID uint, subject, body string) {
	user, err := s.Users.FindByID(userID)
	if err != nil {
		return
	}
	if err := utils.SendEmail(s.Cfg, []string{user.Email}, subject, body); err != nil {
		log.Printf("⚠️ notification email to user %d failed: %v", userID, err)
	}
}

// List returns the caller's inbox, newest first.
func (s *Service) List(actor guard.Actor, unreadOnly bool, limit, offset int) ([]Notification, int64, error) {
	if err := guard.RequireAuthenticated(actor); err != nil {
		return nil, 0, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.Repo.ListForUser(actor.UserID, unreadOnly, limit, offset)
}

// MarkRead marks one of the caller's notifications read. Marking someone
// else's row is silently a no-op because the query is scoped to the caller.
func (s *Service) MarkRead(actor guard.Actor, notificationID uint) error {
	if err := guard.RequireAuthenticated(actor); err != nil {
		return err
	}
	return s.Repo.MarkRead(actor.UserID, notificationID)
}

// MarkAllRead clears the caller's unread count.
func (s *Service) MarkAllRead(actor guard.Actor) error {
	if err := guard.RequireAuthenticated(actor); err != nil {
		return err
	}
	return s.Repo.MarkAllRead(actor.UserID)
}

// RegisterDevice binds an FCM device token to the caller.
func (s *Service) RegisterDevice(actor guard.Actor, req *RegisterDeviceRequest) error {
	if err := guard.RequireAuthenticated(actor); err != nil {
		return err
	}
	return s.Repo.UpsertDeviceToken(&FCMDeviceToken{
		UserID:   actor.UserID,
		Token:    req.Token,
		Platform: req.Platform,
	})
}

// UnregisterDevice removes one of the caller's device tokens.
func (s *Service) UnregisterDevice(actor guard.Actor, token string) error {
	if err := guard.RequireAuthenticated(actor); err != nil {
		return err
	}
	return s.Repo.DeleteDeviceToken(actor.UserID, token)
}
