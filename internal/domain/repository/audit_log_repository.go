package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/investify-docs/internal/domain/entity"
)

// AuditLogRepository stores and reads audit entries
type AuditLogRepository interface {
	Create(ctx context.Context, log *entity.AuditLog) error
	// ListByResource returns entries oldest first.
	ListByResource(ctx context.Context, resourceID uuid.UUID) ([]entity.AuditLog, error)
}
