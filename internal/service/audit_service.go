package service

import (
	"context"
	"log/slog"
	"time"

	"go-calendar/internal/model"
)

type auditStore interface {
	Log(ctx context.Context, entry model.AuditEntry) error
	Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error)
}

type AuditService struct {
	store auditStore
}

func NewAuditService(store auditStore) *AuditService {
	return &AuditService{store: store}
}

// Log records an action. Failures are logged and never reach the caller.
func (s *AuditService) Log(ctx context.Context, action string, actor model.AuditActor, status string, resource string, errText string) {
	if s == nil || s.store == nil {
		return
	}

	entry := model.AuditEntry{
		Action:     action,
		OccurredAt: time.Now().UTC().Format(time.RFC3339Nano),
		Actor:      actor,
		Status:     status,
		Resource:   resource,
		Error:      errText,
	}

	if err := s.store.Log(context.WithoutCancel(ctx), entry); err != nil {
		slog.Warn("audit log failed", "action", action, "error", err)
	}
}

// ListForActor returns entries recorded for one user, newest first.
func (s *AuditService) ListForActor(ctx context.Context, actorID string, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	query.ActorID = actorID
	return s.store.Query(ctx, query)
}
