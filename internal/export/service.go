package export

import (
	"context"
	"fmt"
	"time"

	"github.com/miglee/miglee-backend/internal/auditlog"
	"github.com/miglee/miglee-backend/internal/guard"
)

type Service struct {
	Repo     Repository
	AuditSvc auditlog.Service
}

func NewService(repo Repository, auditSvc auditlog.Service) *Service {
	return &Service{Repo: repo, AuditSvc: auditSvc}
}

// IntentsReport renders the platform-wide intents overview. Admin only.
func (s *Service) IntentsReport(ctx context.Context, actor guard.Actor, format string, from, to *time.Time, ip string) ([]byte, string, error) {
	if err := guard.RequireAdmin(actor); err != nil {
		return nil, "", err
	}
	if !ValidFormat(format) {
		return nil, "", fmt.Errorf("unsupported format %q", format)
	}

	rows, err := s.Repo.IntentRows(from, to)
	if err != nil {
		return nil, "", err
	}

	data, err := Render(format, "Intents", intentHeader, intentRecords(rows))
	if err != nil {
		return nil, "", err
	}

	s.audit(ctx, actor, "REPORT_EXPORTED", map[string]interface{}{"report": "intents", "format": format, "rows": len(rows)}, ip)
	return data, fmt.Sprintf("intents-%s.%s", time.Now().UTC().Format("20060102"), format), nil
}

// MembersReport renders one intent's member roster with attendance columns.
// Admin only.
func (s *Service) MembersReport(ctx context.Context, actor guard.Actor, intentID uint, format, ip string) ([]byte, string, error) {
	if err := guard.RequireAdmin(actor); err != nil {
		return nil, "", err
	}
	if !ValidFormat(format) {
		return nil, "", fmt.Errorf("unsupported format %q", format)
	}

	rows, err := s.Repo.MemberRows(intentID)
	if err != nil {
		return nil, "", err
	}

	data, err := Render(format, "Members", memberHeader, memberRecords(rows))
	if err != nil {
		return nil, "", err
	}

	s.audit(ctx, actor, "REPORT_EXPORTED", map[string]interface{}{"report": "members", "intent_id": intentID, "format": format, "rows": len(rows)}, ip)
	return data, fmt.Sprintf("intent-%d-members.%s", intentID, format), nil
}

func (s *Service) audit(ctx context.Context, actor guard.Actor, action string, details map[string]interface{}, ip string) {
	if s.AuditSvc == nil {
		return
	}
	userID := actor.UserID
	_ = s.AuditSvc.LogAction(ctx, &userID, nil, action, details, ip, "success")
}
