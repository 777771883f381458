package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sangkips/investify-docs/internal/domain/entity"
	"github.com/sangkips/investify-docs/internal/domain/enum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	return db, mock
}

func TestSequenceRepository_NextValue(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSequenceRepository(db)
	tenantID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO document_sequences")).
		WithArgs(tenantID.String(), "receipt", tenantID.String(), "receipt").
		WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(int64(7)))

	value, err := repo.NextValue(context.Background(), tenantID, enum.DocumentKindReceipt)

	require.NoError(t, err)
	assert.Equal(t, int64(7), value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSequenceRepository_NextValueError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSequenceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO document_sequences")).
		WillReturnError(sql.ErrConnDone)

	_, err := repo.NextValue(context.Background(), uuid.New(), enum.DocumentKindInvoice)

	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepository_GetByID(t *testing.T) {
	tenantID := uuid.New()
	docID := uuid.New()

	t.Run("found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewDocumentRepository(db)

		rows := sqlmock.NewRows([]string{"id", "tenant_id", "document_number", "kind", "status", "line_items", "total_amount", "company_info"}).
			AddRow(docID.String(), tenantID.String(), "REC-2026-0001", "receipt", int64(0),
				`[{"name":"Widget","quantity":2,"unit_price":"10","total_price":"20","tax_rate":"0"}]`,
				"27.50", `{"name":"Acme"}`)
		mock.ExpectQuery(`SELECT \* FROM "documents" WHERE`).WillReturnRows(rows)

		doc, err := repo.GetByID(WithTenant(context.Background(), tenantID), docID)

		require.NoError(t, err)
		require.NotNil(t, doc)
		assert.Equal(t, "REC-2026-0001", doc.DocumentNumber)
		assert.Equal(t, enum.DocumentStatusActive, doc.Status)
		assert.Equal(t, "27.5", doc.TotalAmount.String())
		assert.Equal(t, "Acme", doc.CompanyInfo.Name)
		require.Len(t, doc.LineItems, 1)
		assert.Equal(t, 2, doc.LineItems[0].Quantity)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewDocumentRepository(db)

		mock.ExpectQuery(`SELECT \* FROM "documents" WHERE`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

		doc, err := repo.GetByID(WithTenant(context.Background(), tenantID), docID)

		assert.NoError(t, err)
		assert.Nil(t, doc)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing tenant matches nothing", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewDocumentRepository(db)

		mock.ExpectQuery(`SELECT \* FROM "documents" WHERE .*1 = 0`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

		doc, err := repo.GetByID(context.Background(), docID)

		assert.NoError(t, err)
		assert.Nil(t, doc)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDocumentRepository_GetByNumber(t *testing.T) {
	tenantID := uuid.New()
	ctx := WithTenant(context.Background(), tenantID)

	t.Run("found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewDocumentRepository(db)

		rows := sqlmock.NewRows([]string{"id", "tenant_id", "document_number", "kind"}).
			AddRow(uuid.NewString(), tenantID.String(), "INV-2026-0003", "invoice")
		mock.ExpectQuery(`SELECT \* FROM "documents" WHERE .*document_number = \$\d`).
			WillReturnRows(rows)

		doc, err := repo.GetByNumber(ctx, "INV-2026-0003")

		require.NoError(t, err)
		require.NotNil(t, doc)
		assert.Equal(t, enum.DocumentKindInvoice, doc.Kind)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewDocumentRepository(db)

		mock.ExpectQuery(`SELECT \* FROM "documents" WHERE`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

		doc, err := repo.GetByNumber(ctx, "INV-2026-0404")

		assert.NoError(t, err)
		assert.Nil(t, doc)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDocumentRepository_UpdateLockedRollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDocumentRepository(db)
	tenantID := uuid.New()
	docID := uuid.New()

	rows := sqlmock.NewRows([]string{"id", "tenant_id", "document_number", "status"}).
		AddRow(docID.String(), tenantID.String(), "INV-2026-0001", int64(2))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "documents" WHERE .* FOR UPDATE`).WillReturnRows(rows)
	mock.ExpectRollback()

	errAlreadyRefunded := errors.New("already refunded")
	doc, err := repo.UpdateLocked(WithTenant(context.Background(), tenantID), docID, func(d *entity.Document) error {
		assert.Equal(t, enum.DocumentStatusRefunded, d.Status)
		return errAlreadyRefunded
	})

	assert.ErrorIs(t, err, errAlreadyRefunded)
	assert.Nil(t, doc)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepository_UpdateLockedMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDocumentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "documents" WHERE .* FOR UPDATE`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	called := false
	doc, err := repo.UpdateLocked(WithTenant(context.Background(), uuid.New()), uuid.New(), func(d *entity.Document) error {
		called = true
		return nil
	})

	assert.NoError(t, err)
	assert.Nil(t, doc)
	assert.False(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(nil))
}

func TestGetTenantID(t *testing.T) {
	_, ok := GetTenantID(context.Background())
	assert.False(t, ok)

	_, ok = GetTenantID(WithTenant(context.Background(), uuid.Nil))
	assert.False(t, ok)

	id := uuid.New()
	got, ok := GetTenantID(WithTenant(context.Background(), id))
	assert.True(t, ok)
	assert.Equal(t, id, got)
}
