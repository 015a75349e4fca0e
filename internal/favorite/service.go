package favorite

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/miglee/miglee-backend/internal/guard"
	"github.com/miglee/miglee-backend/internal/intent"
)

type Service struct {
	Repo    Repository
	Intents *intent.Service
}

func NewService(repo Repository, intents *intent.Service) *Service {
	return &Service{Repo: repo, Intents: intents}
}

// Toggle flips the caller's favourite flag for an intent and reports the new
// state. Visibility rules apply the same as GetIntent.
func (s *Service) Toggle(ctx context.Context, actor guard.Actor, intentID uint) (bool, error) {
	if err := guard.RequireAuthenticated(actor); err != nil {
		return false, err
	}

	// Re-uses the read path so private intents stay hidden as NOT_FOUND.
	if _, err := s.Intents.GetIntent(ctx, actor, intentID); err != nil {
		return false, err
	}

	_, err := s.Repo.Find(actor.UserID, intentID)
	if err == nil {
		if err := s.Repo.Delete(actor.UserID, intentID); err != nil {
			return false, err
		}
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	f := &Favorite{UserID: actor.UserID, IntentID: intentID}
	if err := s.Repo.Create(f); err != nil {
		return false, err
	}
	return true, nil
}

// ListOwn returns the caller's favourited intents, soonest first.
func (s *Service) ListOwn(actor guard.Actor) ([]intent.Intent, error) {
	if err := guard.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	return s.Repo.ListIntentsForUser(actor.UserID)
}
