// Package offline keeps a local copy of entities written while the backend
// was unreachable, together with the outbox of intents that still have to be
// replayed against it.
package offline

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"eventstaff-backend/internal/domain"
	"eventstaff-backend/internal/logger"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SchemaVersion is stamped on every cached payload and intent. Rows written
// with another version are ignored.
const SchemaVersion = 1

//go:embed schema.sql
var schemaSQL string

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite file at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open offline store: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping offline store: %w", err)
	}
	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure offline store: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create offline schema: %w", err)
	}

	logger.Info("Offline store ready", "path", path, "schema_version", SchemaVersion)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save writes entity into the cache and enqueues the intent in one
// transaction. The returned entry is the enqueued intent.
func (s *Store) Save(ctx context.Context, kind domain.EntityKind, entityID string, entity any, op domain.OutboxOp, intent any) (*domain.OutboxEntry, error) {
	logger.EnterMethod("offline.Save", "kind", kind, "entityID", entityID, "op", op)

	entityJSON, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("encode %s %s: %w", kind, entityID, err)
	}
	intentJSON, err := json.Marshal(intent)
	if err != nil {
		return nil, fmt.Errorf("encode %s intent: %w", op, err)
	}

	entry := &domain.OutboxEntry{
		ID:            uuid.New().String(),
		Kind:          kind,
		EntityID:      entityID,
		Op:            op,
		Payload:       intentJSON,
		SchemaVersion: SchemaVersion,
		CreatedOn:     time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO cache_entries (kind, entity_id, schema_version, payload, updated_on) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(kind, entity_id) DO UPDATE SET schema_version = excluded.schema_version,
		 payload = excluded.payload, updated_on = excluded.updated_on`,
		string(kind), entityID, SchemaVersion, string(entityJSON), entry.CreatedOn.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("cache %s %s: %w", kind, entityID, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO outbox (id, kind, entity_id, op, payload, schema_version, created_on) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, string(kind), entityID, string(op), string(intentJSON), SchemaVersion, entry.CreatedOn.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("enqueue %s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	logger.ExitMethod("offline.Save", "entryID", entry.ID)
	return entry, nil
}

// Put refreshes the cached copy of an entity read from the backend. Entries
// with queued intents are newer than the backend and are left untouched.
func (s *Store) Put(ctx context.Context, kind domain.EntityKind, entityID string, entity any) error {
	payload, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", kind, entityID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO cache_entries (kind, entity_id, schema_version, payload, updated_on) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(kind, entity_id) DO UPDATE SET schema_version = excluded.schema_version,
		 payload = excluded.payload, updated_on = excluded.updated_on
		 WHERE NOT EXISTS (SELECT 1 FROM outbox WHERE outbox.kind = excluded.kind AND outbox.entity_id = excluded.entity_id)`,
		string(kind), entityID, SchemaVersion, string(payload), time.Now().UTC().UnixNano())
	return err
}

// Cached decodes every current-version cache entry of kind into a new T.
func Cached[T any](ctx context.Context, s *Store, kind domain.EntityKind) ([]T, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT entity_id, schema_version, payload FROM cache_entries WHERE kind = ? ORDER BY entity_id`, string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var id, payload string
		var version int
		if err := rows.Scan(&id, &version, &payload); err != nil {
			return nil, err
		}
		if version != SchemaVersion {
			logger.Warn("Ignoring cache entry with unknown schema version", "kind", kind, "entity_id", id, "schema_version", version)
			continue
		}
		var v T
		if err := json.Unmarshal([]byte(payload), &v); err != nil {
			logger.Warn("Ignoring undecodable cache entry", "kind", kind, "entity_id", id, "error", err)
			continue
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// CachedOne returns the cache entry for one entity. ok is false when there is
// no usable entry.
func CachedOne[T any](ctx context.Context, s *Store, kind domain.EntityKind, entityID string) (v T, ok bool, err error) {
	var payload string
	var version int
	err = s.db.QueryRowContext(ctx,
		`SELECT schema_version, payload FROM cache_entries WHERE kind = ? AND entity_id = ?`,
		string(kind), entityID).Scan(&version, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return v, false, nil
	}
	if err != nil {
		return v, false, err
	}
	if version != SchemaVersion {
		logger.Warn("Ignoring cache entry with unknown schema version", "kind", kind, "entity_id", entityID, "schema_version", version)
		return v, false, nil
	}
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return v, false, fmt.Errorf("decode cached %s %s: %w", kind, entityID, err)
	}
	return v, true, nil
}

// Pending returns the intents still waiting for replay, oldest first.
// Entries that already failed maxAttempts times are left out; maxAttempts <= 0
// disables the limit.
func (s *Store) Pending(ctx context.Context, maxAttempts int) ([]domain.OutboxEntry, error) {
	query := `SELECT id, kind, entity_id, op, payload, schema_version, attempts, last_error, created_on
	          FROM outbox WHERE (? <= 0 OR attempts < ?) ORDER BY seq`
	rows, err := s.db.QueryContext(ctx, query, maxAttempts, maxAttempts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.OutboxEntry
	for rows.Next() {
		var e domain.OutboxEntry
		var kind, op, payload string
		var createdOn int64
		if err := rows.Scan(&e.ID, &kind, &e.EntityID, &op, &payload, &e.SchemaVersion, &e.Attempts, &e.LastError, &createdOn); err != nil {
			return nil, err
		}
		e.Kind = domain.EntityKind(kind)
		e.Op = domain.OutboxOp(op)
		e.Payload = json.RawMessage(payload)
		e.CreatedOn = time.Unix(0, createdOn).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PendingCount counts every queued intent, including exhausted ones.
func (s *Store) PendingCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM outbox`).Scan(&n)
	return n, err
}

// PendingEntities returns the ids of entities of kind referenced by queued
// intents. Their cached copy is newer than the backend's.
func (s *Store) PendingEntities(ctx context.Context, kind domain.EntityKind) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT entity_id FROM outbox WHERE kind = ?`, string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// Complete removes a replayed intent and evicts the cache entry once no other
// intent references the same entity.
func (s *Store) Complete(ctx context.Context, entry domain.OutboxEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM outbox WHERE id = ?`, entry.ID); err != nil {
		return fmt.Errorf("delete intent %s: %w", entry.ID, err)
	}

	var remaining int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM outbox WHERE kind = ? AND entity_id = ?`,
		string(entry.Kind), entry.EntityID).Scan(&remaining)
	if err != nil {
		return err
	}
	if remaining == 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cache_entries WHERE kind = ? AND entity_id = ?`,
			string(entry.Kind), entry.EntityID); err != nil {
			return fmt.Errorf("evict %s %s: %w", entry.Kind, entry.EntityID, err)
		}
	}
	return tx.Commit()
}

// RecordFailure bumps the attempt counter of an intent and keeps the error.
func (s *Store) RecordFailure(ctx context.Context, id string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	_, err := s.db.ExecContext(ctx, `UPDATE outbox SET attempts = attempts + 1, last_error = ? WHERE id = ?`, msg, id)
	return err
}
