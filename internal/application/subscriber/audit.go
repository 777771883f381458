package subscriber

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sangkips/investify-docs/internal/domain/entity"
	"github.com/sangkips/investify-docs/internal/domain/event"
	"github.com/sangkips/investify-docs/internal/domain/repository"
)

// AuditSubscriber writes an audit entry for every document event
type AuditSubscriber struct {
	auditRepo repository.AuditLogRepository
}

// NewAuditSubscriber creates a new audit subscriber
func NewAuditSubscriber(auditRepo repository.AuditLogRepository) *AuditSubscriber {
	return &AuditSubscriber{auditRepo: auditRepo}
}

func (s *AuditSubscriber) Name() string { return "audit" }

func (s *AuditSubscriber) Topics() []string { return event.AllTopics }

func (s *AuditSubscriber) Handle(ctx context.Context, evt *event.DocumentEvent) error {
	before, err := summaryMap(evt.Before)
	if err != nil {
		return err
	}
	after, err := summaryMap(evt.After)
	if err != nil {
		return err
	}

	return s.auditRepo.Create(ctx, &entity.AuditLog{
		TenantID:     evt.TenantID,
		Action:       evt.Name,
		ResourceType: evt.Kind.String(),
		ResourceID:   evt.DocumentID,
		ActorID:      evt.ActorID,
		Before:       before,
		After:        after,
		CreatedAt:    evt.OccurredAt,
	})
}

func summaryMap(s *event.DocumentSummary) (map[string]any, error) {
	if s == nil {
		return nil, nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode summary: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}
	return m, nil
}
