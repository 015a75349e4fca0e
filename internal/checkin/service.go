package checkin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/miglee/miglee-backend/config"
	"github.com/miglee/miglee-backend/internal/auditlog"
	"github.com/miglee/miglee-backend/internal/guard"
	"github.com/miglee/miglee-backend/internal/membership"
	"github.com/miglee/miglee-backend/utils"
)

type Service struct {
	Repo     Repository
	Members  *membership.Service
	AuditSvc auditlog.Service
	cache    tokenCache
}

func NewService(repo Repository, members *membership.Service, auditSvc auditlog.Service) *Service {
	return &Service{
		Repo:     repo,
		Members:  members,
		AuditSvc: auditSvc,
		cache:    redisTokenCache{},
	}
}

// tokenCache mirrors the shared event token so scanner lookups skip the token
// table on the hot path.
type tokenCache interface {
	Get(ctx context.Context, key string) string
	Set(ctx context.Context, key, value string, ttl time.Duration)
}

type redisTokenCache struct{}

func (redisTokenCache) Get(ctx context.Context, key string) string {
	return utils.CacheGet(ctx, key)
}

func (redisTokenCache) Set(ctx context.Context, key, value string, ttl time.Duration) {
	utils.CacheSet(ctx, key, value, ttl)
}

func eventTokenKey(intentID uint) string {
	return fmt.Sprintf("checkin:event:%d", intentID)
}

// GetEventToken returns the intent's shared QR token, creating it on first
// request. Moderator action.
func (s *Service) GetEventToken(ctx context.Context, actor guard.Actor, intentID uint) (*Token, string, error) {
	if _, err := s.Members.RequireModerator(actor, intentID); err != nil {
		return nil, "", err
	}

	t, err := s.Repo.FindEventToken(intentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		t = &Token{
			IntentID:  intentID,
			Scope:     ScopeEvent,
			Value:     utils.GenerateOpaqueToken(),
			RotatedAt: time.Now().UTC(),
		}
		if err := s.Repo.Create(t); err != nil {
			return nil, "", err
		}
	} else if err != nil {
		return nil, "", err
	}

	s.cacheEventToken(ctx, t)
	return t, EventCheckinURL(intentID, t.Value), nil
}

// RotateEventToken replaces the shared token; every previously issued event
// QR stops matching immediately. Moderator action.
func (s *Service) RotateEventToken(ctx context.Context, actor guard.Actor, intentID uint, ip string) (*Token, string, error) {
	if _, err := s.Members.RequireModerator(actor, intentID); err != nil {
		return nil, "", err
	}

	t, err := s.Repo.FindEventToken(intentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.GetEventToken(ctx, actor, intentID)
	}
	if err != nil {
		return nil, "", err
	}

	t.Value = utils.GenerateOpaqueToken()
	t.RotatedAt = time.Now().UTC()
	if err := s.Repo.Update(t); err != nil {
		return nil, "", err
	}

	s.cacheEventToken(ctx, t)
	s.audit(ctx, actor, &intentID, "CHECKIN_TOKEN_ROTATED", map[string]interface{}{"scope": ScopeEvent}, ip, "success")
	return t, EventCheckinURL(intentID, t.Value), nil
}

// GetPersonalToken returns the caller's personal QR token for an intent,
// creating it on first request. Only JOINED members hold one.
func (s *Service) GetPersonalToken(ctx context.Context, actor guard.Actor, intentID uint) (*Token, string, error) {
	if err := guard.RequireAuthenticated(actor); err != nil {
		return nil, "", err
	}

	m, err := s.memberOf(intentID, actor.UserID)
	if err != nil {
		return nil, "", err
	}
	if m == nil || m.Status != membership.StatusJoined {
		return nil, "", guard.Forbidden("only joined members have a personal check-in code")
	}

	t, err := s.Repo.FindPersonalToken(intentID, actor.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		userID := actor.UserID
		t = &Token{
			IntentID:  intentID,
			UserID:    &userID,
			Scope:     ScopePersonal,
			Value:     utils.GenerateOpaqueToken(),
			RotatedAt: time.Now().UTC(),
		}
		if err := s.Repo.Create(t); err != nil {
			return nil, "", err
		}
	} else if err != nil {
		return nil, "", err
	}

	return t, PersonalCheckinURL(intentID, t.Value), nil
}

// RotatePersonalToken lets a member invalidate their own personal QR.
func (s *Service) RotatePersonalToken(ctx context.Context, actor guard.Actor, intentID uint, ip string) (*Token, string, error) {
	t, _, err := s.GetPersonalToken(ctx, actor, intentID)
	if err != nil {
		return nil, "", err
	}

	t.Value = utils.GenerateOpaqueToken()
	t.RotatedAt = time.Now().UTC()
	if err := s.Repo.Update(t); err != nil {
		return nil, "", err
	}

	s.audit(ctx, actor, &intentID, "CHECKIN_TOKEN_ROTATED", map[string]interface{}{"scope": ScopePersonal}, ip, "success")
	return t, PersonalCheckinURL(intentID, t.Value), nil
}

// CheckInByEventQr handles a member scanning the shared event QR.
// Validation order: token existence, scope match, membership, block flag,
// idempotency.
func (s *Service) CheckInByEventQr(ctx context.Context, actor guard.Actor, intentID uint, tokenValue, ip string) (*Result, error) {
	if err := guard.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	// The mirror settles most scans without touching the token table; a miss
	// or a mismatch falls back to the database.
	if cached := s.cache.Get(ctx, eventTokenKey(intentID)); cached == "" || cached != tokenValue {
		t, err := s.lookupToken(tokenValue)
		if err != nil {
			return nil, err
		}
		if t.Scope != ScopeEvent || t.IntentID != intentID {
			return nil, guard.NotFound("check-in token not found")
		}
	}

	m, err := s.memberOf(intentID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if m == nil || m.Status != membership.StatusJoined {
		return nil, guard.Forbidden("only joined members can check in")
	}

	return s.mark(ctx, actor, m, MethodEventQr, ip)
}

// CheckInByUserQr handles a moderator scanning a member's personal QR.
// The intent is derived from the token itself.
func (s *Service) CheckInByUserQr(ctx context.Context, actor guard.Actor, tokenValue, ip string) (*Result, error) {
	t, err := s.lookupToken(tokenValue)
	if err != nil {
		return nil, err
	}
	if t.Scope != ScopePersonal || t.UserID == nil {
		return nil, guard.NotFound("check-in token not found")
	}

	// Personal-QR scans are a moderator affordance
	if _, err := s.Members.RequireModerator(actor, t.IntentID); err != nil {
		return nil, err
	}

	m, err := s.memberOf(t.IntentID, *t.UserID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, guard.NotFound("membership not found for scanned code")
	}
	if m.Status == membership.StatusBanned {
		return &Result{
			CheckedIn: false,
			Reason:    "member is banned from this intent",
			IntentID:  m.IntentID,
			UserID:    m.UserID,
		}, nil
	}
	if m.Status != membership.StatusJoined {
		return &Result{
			CheckedIn: false,
			Reason:    fmt.Sprintf("member status is %s, not JOINED", m.Status),
			IntentID:  m.IntentID,
			UserID:    m.UserID,
		}, nil
	}

	return s.mark(ctx, actor, m, MethodUserQr, ip)
}

// SelfCheckIn lets a joined member mark themselves present without a token.
func (s *Service) SelfCheckIn(ctx context.Context, actor guard.Actor, intentID uint, ip string) (*Result, error) {
	if err := guard.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	m, err := s.memberOf(intentID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if m == nil || m.Status != membership.StatusJoined {
		return nil, guard.Forbidden("only joined members can check in")
	}

	return s.mark(ctx, actor, m, MethodManual, ip)
}

// PanelCheckIn lets a moderator mark a member present from the member panel.
func (s *Service) PanelCheckIn(ctx context.Context, actor guard.Actor, intentID, userID uint, ip string) (*Result, error) {
	if _, err := s.Members.RequireModerator(actor, intentID); err != nil {
		return nil, err
	}

	m, err := s.memberOf(intentID, userID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, guard.NotFound("user %d is not a member of intent %d", userID, intentID)
	}
	if m.Status != membership.StatusJoined {
		return &Result{
			CheckedIn: false,
			Reason:    fmt.Sprintf("member status is %s, not JOINED", m.Status),
			IntentID:  intentID,
			UserID:    userID,
		}, nil
	}

	return s.mark(ctx, actor, m, MethodModeratorPanel, ip)
}

// mark flips the one-way presence flag. Repeat attempts report a reason for
// the scanner UI instead of failing.
func (s *Service) mark(ctx context.Context, actor guard.Actor, m *membership.Member, method, ip string) (*Result, error) {
	if m.IsCheckedIn {
		reason := "already checked in"
		if m.CheckedInAt != nil {
			reason = fmt.Sprintf("already checked in at %s via %s", m.CheckedInAt.Format(time.RFC3339), m.CheckInMethod)
		}
		return &Result{
			CheckedIn: false,
			Reason:    reason,
			IntentID:  m.IntentID,
			UserID:    m.UserID,
			Method:    m.CheckInMethod,
		}, nil
	}

	now := time.Now().UTC()
	m.IsCheckedIn = true
	m.CheckedInAt = &now
	m.CheckInMethod = method

	if err := s.Members.Repo.Update(m); err != nil {
		s.audit(ctx, actor, &m.IntentID, "MEMBER_CHECKED_IN", map[string]interface{}{"target_user": m.UserID, "error": err.Error()}, ip, "failure")
		return nil, err
	}

	s.audit(ctx, actor, &m.IntentID, "MEMBER_CHECKED_IN", map[string]interface{}{"target_user": m.UserID, "method": method}, ip, "success")
	utils.PublishEvent(ctx, utils.DomainEvent{
		Action:     "MEMBER_CHECKED_IN",
		ActorID:    actor.UserID,
		IntentID:   m.IntentID,
		TargetUser: m.UserID,
		Title:      "Checked in",
		Body:       "Check-in recorded",
	})

	return &Result{
		CheckedIn: true,
		IntentID:  m.IntentID,
		UserID:    m.UserID,
		Method:    method,
	}, nil
}

// lookupToken resolves a token value against the token table.
func (s *Service) lookupToken(value string) (*Token, error) {
	if value == "" {
		return nil, guard.NotFound("check-in token not found")
	}

	t, err := s.Repo.FindByValue(value)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, guard.NotFound("check-in token not found")
		}
		return nil, err
	}
	return t, nil
}

func (s *Service) memberOf(intentID, userID uint) (*membership.Member, error) {
	m, err := s.Members.Repo.Find(intentID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

func (s *Service) cacheEventToken(ctx context.Context, t *Token) {
	s.cache.Set(ctx, eventTokenKey(t.IntentID), t.Value, 24*time.Hour)
}

func (s *Service) audit(ctx context.Context, actor guard.Actor, intentID *uint, action string, details map[string]interface{}, ip, status string) {
	if s.AuditSvc == nil {
		return
	}
	userID := actor.UserID
	_ = s.AuditSvc.LogAction(ctx, &userID, intentID, action, details, ip, status)
}

// EventCheckinURL renders the scannable URL for the shared event QR.
func EventCheckinURL(intentID uint, token string) string {
	return fmt.Sprintf("%s/checkin/event/%d?token=%s", config.BaseURL, intentID, token)
}

// PersonalCheckinURL renders the scannable URL for a personal QR.
func PersonalCheckinURL(intentID uint, token string) string {
	return fmt.Sprintf("%s/checkin/user/%d?token=%s", config.BaseURL, intentID, token)
}
