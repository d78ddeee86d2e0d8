package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/atelierhq/atelier-api/internal/domain"
	"github.com/atelierhq/atelier-api/internal/platform/logger"
	"github.com/atelierhq/atelier-api/internal/store"
)

// PostgreSQL error codes
const pgUndefinedTableCode = "42P01"

// PostgresArtifactStore implements store.ArtifactStore using a PostgreSQL
// database as the storage backend.
//
// The store treats a missing artifacts table as damage rather than a fatal
// condition: the operation logs a warning, a schema rebuild is attempted,
// and the caller sees a cache miss (or a no-op for writes) instead of an
// error that would crash the pipeline.
type PostgresArtifactStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresArtifactStore creates a new PostgreSQL implementation of the
// ArtifactStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller. If logger is nil,
// a default logger will be used.
func NewPostgresArtifactStore(db store.DBTX, logger *slog.Logger) *PostgresArtifactStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresArtifactStore{
		db:     db,
		logger: logger.With(slog.String("component", "artifact_store")),
	}
}

// Ensure PostgresArtifactStore implements store.ArtifactStore interface
var _ store.ArtifactStore = (*PostgresArtifactStore)(nil)

// Put implements store.ArtifactStore.Put as an upsert: re-generating an id
// replaces the previous blob so at most one entry per id ever exists.
func (s *PostgresArtifactStore) Put(ctx context.Context, entry *domain.CacheEntry) error {
	if entry == nil || entry.ID == "" {
		return fmt.Errorf("%w: cache entry must have an id", store.ErrInvalidEntity)
	}

	if len(entry.Blob) == 0 {
		return fmt.Errorf("%w: cache entry must have a blob", store.ErrInvalidEntity)
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO artifacts (id, blob, mime_type, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET blob = EXCLUDED.blob, mime_type = EXCLUDED.mime_type, created_at = EXCLUDED.created_at
	`
	log := logger.FromContextOrDefault(ctx, s.logger)

	_, err := s.db.ExecContext(ctx, query, entry.ID, entry.Blob, entry.MIMEType, createdAt)
	if err != nil {
		if s.healSchema(log, err, "put", entry.ID) {
			return nil
		}
		return fmt.Errorf("failed to store artifact %s: %w", entry.ID, err)
	}

	log.Debug("artifact stored",
		slog.String("artifact_id", entry.ID),
		slog.String("mime_type", entry.MIMEType),
		slog.Int("bytes", len(entry.Blob)))

	return nil
}

// Get implements store.ArtifactStore.Get.
// Returns store.ErrArtifactNotFound when no entry exists for the id.
func (s *PostgresArtifactStore) Get(ctx context.Context, id string) (*domain.CacheEntry, error) {
	query := `
		SELECT id, blob, mime_type, created_at
		FROM artifacts
		WHERE id = $1
	`

	var entry domain.CacheEntry
	err := s.db.QueryRowContext(ctx, query, id).
		Scan(&entry.ID, &entry.Blob, &entry.MIMEType, &entry.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrArtifactNotFound
		}
		if s.healSchema(logger.FromContextOrDefault(ctx, s.logger), err, "get", id) {
			return nil, store.ErrArtifactNotFound
		}
		return nil, fmt.Errorf("failed to get artifact %s: %w", id, err)
	}

	return &entry, nil
}

// GetAll implements store.ArtifactStore.GetAll. Entries come back in
// insertion order so hydration restores handles oldest-first.
func (s *PostgresArtifactStore) GetAll(ctx context.Context) ([]*domain.CacheEntry, error) {
	query := `
		SELECT id, blob, mime_type, created_at
		FROM artifacts
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		if s.healSchema(logger.FromContextOrDefault(ctx, s.logger), err, "get_all", "") {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []*domain.CacheEntry
	for rows.Next() {
		var entry domain.CacheEntry
		if err := rows.Scan(&entry.ID, &entry.Blob, &entry.MIMEType, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan artifact row: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate artifact rows: %w", err)
	}

	return entries, nil
}

// Clear implements store.ArtifactStore.Clear.
func (s *PostgresArtifactStore) Clear(ctx context.Context) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := s.db.ExecContext(ctx, `DELETE FROM artifacts`); err != nil {
		if s.healSchema(log, err, "clear", "") {
			return nil
		}
		return fmt.Errorf("failed to clear artifacts: %w", err)
	}

	log.Info("artifact store cleared")
	return nil
}

// healSchema checks whether err means the artifacts table is missing (a
// corrupted or pre-migration store) and, if so, rebuilds the schema when a
// full *sql.DB is available. Reports true when the caller should degrade
// the operation to a miss/no-op instead of surfacing the error.
func (s *PostgresArtifactStore) healSchema(log *slog.Logger, err error, op, id string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUndefinedTableCode {
		return false
	}

	log.Warn("artifact table missing, attempting schema rebuild",
		slog.String("operation", op),
		slog.String("artifact_id", id),
		slog.String("pg_code", pgErr.Code))

	db, ok := s.db.(*sql.DB)
	if !ok {
		// Inside a transaction there is nothing to rebuild against; the
		// degraded miss still applies.
		return true
	}

	if migrateErr := Migrate(db); migrateErr != nil {
		log.Error("schema rebuild failed",
			slog.String("operation", op),
			slog.String("error", migrateErr.Error()))
	} else {
		log.Info("schema rebuilt", slog.String("operation", op))
	}

	return true
}
