package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-docs/internal/domain/enum"
	"github.com/sangkips/investify-docs/internal/testutil"
	"github.com/sangkips/investify-docs/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDocumentNumber(t *testing.T) {
	assert.Equal(t, "REC-2026-0001", FormatDocumentNumber("REC", 2026, 1))
	assert.Equal(t, "INV-2026-0420", FormatDocumentNumber("INV", 2026, 420))
	assert.Equal(t, "INV-2026-9999", FormatDocumentNumber("INV", 2026, 9999))
	assert.Equal(t, "INV-2027-12345", FormatDocumentNumber("INV", 2027, 12345))
}

func TestAllocate(t *testing.T) {
	sequences := testutil.NewInMemorySequenceStore()
	allocator := NewDocumentNumberAllocator(sequences)
	allocator.now = func() time.Time { return fixedNow }
	tenantA, tenantB := uuid.New(), uuid.New()

	first, err := allocator.Allocate(t.Context(), tenantA, enum.DocumentKindReceipt, "")
	require.NoError(t, err)
	second, err := allocator.Allocate(t.Context(), tenantA, enum.DocumentKindReceipt, "SHOP")
	require.NoError(t, err)
	other, err := allocator.Allocate(t.Context(), tenantB, enum.DocumentKindReceipt, "")
	require.NoError(t, err)

	assert.Equal(t, "REC-2026-0001", first)
	assert.Equal(t, "SHOP-2026-0002", second)
	assert.Equal(t, "REC-2026-0001", other)
}

func TestAllocate_ConcurrentCallersGetDistinctNumbers(t *testing.T) {
	allocator := NewDocumentNumberAllocator(testutil.NewInMemorySequenceStore())
	allocator.now = func() time.Time { return fixedNow }
	tenantID := uuid.New()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = map[string]bool{}
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := allocator.Allocate(t.Context(), tenantID, enum.DocumentKindInvoice, "")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			numbers[n] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, numbers, 50)
	assert.True(t, numbers["INV-2026-0050"])
}

func TestAllocate_CounterFailure(t *testing.T) {
	sequences := testutil.NewInMemorySequenceStore()
	sequences.Err = errors.New("deadlock detected")
	allocator := NewDocumentNumberAllocator(sequences)

	_, err := allocator.Allocate(t.Context(), uuid.New(), enum.DocumentKindReceipt, "")

	require.Error(t, err)
	assert.True(t, apperror.IsIntegration(err))
	assert.NotContains(t, apperror.GetAppError(err).Message, "deadlock")
}
