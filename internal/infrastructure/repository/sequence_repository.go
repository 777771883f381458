package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/investify-docs/internal/domain/enum"
	domainRepo "github.com/sangkips/investify-docs/internal/domain/repository"
	"gorm.io/gorm"
)

type sequenceRepository struct {
	db *gorm.DB
}

// NewSequenceRepository creates a new document sequence repository
func NewSequenceRepository(db *gorm.DB) domainRepo.SequenceRepository {
	return &sequenceRepository{db: db}
}

// nextValueSQL increments the (tenant, kind) counter in one statement. The
// first row for a pair is seeded from the documents already issued so tenants
// that predate the counter continue their numbering.
const nextValueSQL = `
INSERT INTO document_sequences (tenant_id, kind, last_value, created_at, updated_at)
VALUES (?, ?, (SELECT COUNT(*) FROM documents WHERE tenant_id = ? AND kind = ?) + 1, NOW(), NOW())
ON CONFLICT (tenant_id, kind) DO UPDATE
SET last_value = document_sequences.last_value + 1, updated_at = NOW()
RETURNING last_value`

func (r *sequenceRepository) NextValue(ctx context.Context, tenantID uuid.UUID, kind enum.DocumentKind) (int64, error) {
	var lastValue int64
	err := r.db.WithContext(ctx).
		Raw(nextValueSQL, tenantID, string(kind), tenantID, string(kind)).
		Scan(&lastValue).Error
	if err != nil {
		return 0, err
	}
	return lastValue, nil
}
