package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-docs/internal/domain/enum"
	"github.com/sangkips/investify-docs/internal/domain/repository"
	"github.com/sangkips/investify-docs/pkg/apperror"
)

// DocumentNumberAllocator issues PREFIX-YEAR-NNNN numbers from a per-tenant,
// per-kind counter
type DocumentNumberAllocator struct {
	sequences repository.SequenceRepository
	now       func() time.Time
}

// NewDocumentNumberAllocator creates a new allocator
func NewDocumentNumberAllocator(sequences repository.SequenceRepository) *DocumentNumberAllocator {
	return &DocumentNumberAllocator{sequences: sequences, now: time.Now}
}

// Allocate reserves the next number for (tenantID, kind).
func (a *DocumentNumberAllocator) Allocate(ctx context.Context, tenantID uuid.UUID, kind enum.DocumentKind, prefix string) (string, error) {
	seq, err := a.sequences.NextValue(ctx, tenantID, kind)
	if err != nil {
		return "", apperror.NewIntegrationError(err)
	}
	if prefix == "" {
		prefix = kind.DefaultPrefix()
	}
	return FormatDocumentNumber(prefix, a.now().UTC().Year(), seq), nil
}

// FormatDocumentNumber renders e.g. REC-2026-0001. Sequences past 9999 keep
// all their digits.
func FormatDocumentNumber(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%04d", prefix, year, seq)
}
