package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierhq/atelier-api/internal/domain"
	"github.com/atelierhq/atelier-api/internal/store"
)

// stubDB implements store.DBTX, failing every operation with a fixed error.
// It stands in for a damaged database in degradation tests.
type stubDB struct {
	err error
}

func (s *stubDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return nil, s.err
}

func (s *stubDB) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	return nil, s.err
}

func (s *stubDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return nil, s.err
}

func (s *stubDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	// sql.Row cannot be fabricated outside database/sql; row-returning
	// paths are covered by integration runs against a real database.
	return nil
}

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

func undefinedTableErr() error {
	return &pgconn.PgError{Code: pgUndefinedTableCode, Message: `relation "artifacts" does not exist`}
}

func validEntry() *domain.CacheEntry {
	return &domain.CacheEntry{
		ID:       "case-07-portrait",
		Blob:     []byte{0x89, 0x50, 0x4e, 0x47},
		MIMEType: "image/png",
	}
}

func TestPutRejectsInvalidEntries(t *testing.T) {
	s := NewPostgresArtifactStore(&stubDB{}, setupTestLogger())

	err := s.Put(context.Background(), &domain.CacheEntry{ID: "", Blob: []byte{1}})
	assert.ErrorIs(t, err, store.ErrInvalidEntity)

	err = s.Put(context.Background(), &domain.CacheEntry{ID: "x"})
	assert.ErrorIs(t, err, store.ErrInvalidEntity)

	err = s.Put(context.Background(), nil)
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
}

func TestPutSurfacesUnrelatedErrors(t *testing.T) {
	dbErr := errors.New("connection refused")
	s := NewPostgresArtifactStore(&stubDB{err: dbErr}, setupTestLogger())

	err := s.Put(context.Background(), validEntry())

	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
}

func TestPutDegradesToNoopOnMissingTable(t *testing.T) {
	s := NewPostgresArtifactStore(&stubDB{err: undefinedTableErr()}, setupTestLogger())

	err := s.Put(context.Background(), validEntry())

	assert.NoError(t, err, "a damaged store must not fail the pipeline")
}

func TestGetAllDegradesToEmptyOnMissingTable(t *testing.T) {
	s := NewPostgresArtifactStore(&stubDB{err: undefinedTableErr()}, setupTestLogger())

	entries, err := s.GetAll(context.Background())

	assert.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGetAllSurfacesUnrelatedErrors(t *testing.T) {
	dbErr := errors.New("too many connections")
	s := NewPostgresArtifactStore(&stubDB{err: dbErr}, setupTestLogger())

	_, err := s.GetAll(context.Background())

	assert.ErrorIs(t, err, dbErr)
}

func TestClearDegradesToNoopOnMissingTable(t *testing.T) {
	s := NewPostgresArtifactStore(&stubDB{err: undefinedTableErr()}, setupTestLogger())

	assert.NoError(t, s.Clear(context.Background()))
}

func TestNewStorePanicsOnNilDB(t *testing.T) {
	assert.Panics(t, func() {
		NewPostgresArtifactStore(nil, setupTestLogger())
	})
}
