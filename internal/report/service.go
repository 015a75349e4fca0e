package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

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

// CreateReport files an abuse report against a user, intent, or comment.
func (s *Service) CreateReport(ctx context.Context, actor guard.Actor, req *CreateReportRequest, ip string) (*Report, error) {
	if err := guard.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	if !validEntityType(req.EntityType) {
		return nil, fmt.Errorf("invalid entity type %q", req.EntityType)
	}

	rep := &Report{
		ReporterID: actor.UserID,
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		Reason:     req.Reason,
		Status:     StatusOpen,
	}
	if err := s.Repo.Create(rep); err != nil {
		return nil, err
	}

	s.audit(ctx, actor, "REPORT_FILED", map[string]interface{}{
		"report_id":   rep.ID,
		"entity_type": rep.EntityType,
		"entity_id":   rep.EntityID,
	}, ip)

	return rep, nil
}

// ListReports lets admins page through filed reports, filtered by status and
// entity type.
func (s *Service) ListReports(actor guard.Actor, status, entityType string, limit, offset int) ([]Report, int64, error) {
	if err := guard.RequireAdmin(actor); err != nil {
		return nil, 0, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.Repo.List(status, entityType, limit, offset)
}

// ReviewReport closes out a report as REVIEWED or DISMISSED. Reviewing an
// already-closed report is refused so the reviewer trail stays intact.
func (s *Service) ReviewReport(ctx context.Context, actor guard.Actor, id uint, status, ip string) (*Report, error) {
	if err := guard.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if status != StatusReviewed && status != StatusDismissed {
		return nil, fmt.Errorf("invalid review status %q", status)
	}

	rep, err := s.Repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, guard.NotFound("report %d not found", id)
		}
		return nil, err
	}
	if rep.Status != StatusOpen {
		return nil, guard.Forbidden(fmt.Sprintf("report %d is already %s", id, rep.Status))
	}

	now := time.Now().UTC()
	reviewer := actor.UserID
	rep.Status = status
	rep.ReviewedBy = &reviewer
	rep.ReviewedAt = &now
	if err := s.Repo.Update(rep); err != nil {
		return nil, err
	}

	s.audit(ctx, actor, "REPORT_REVIEWED", map[string]interface{}{
		"report_id": rep.ID,
		"status":    status,
	}, ip)

	return rep, nil
}

func (s *Service) audit(ctx context.Context, actor guard.Actor, action string, details map[string]interface{}, ip string) {
	if s.AuditSvc == nil {
		return
	}
	userID := actor.UserID
	_ = s.AuditSvc.LogAction(ctx, &userID, nil, action, details, ip, "success")
}
