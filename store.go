package main

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Single `cells` table, flat records with stored materialCode/color,
//     index by material code.
// 2 - Color dropped from records (derived from code1); payload migration is
//     lazy per-record, the store-level step only removes the legacy index.
// 3 - Second record space `buffer_cells`, same shape, independent keys.
const currentSchemaVersion = 3

// Store is the durable source of truth for both record spaces. Constructed
// explicitly and injected at startup; there is no package-level instance.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenStore creates or opens the SQLite database at path, applying pragmas
// and schema migrations. Idempotent. A nil logger uses slog.Default().
func OpenStore(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY between the UI loop and the async writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return runMigrations(db)
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version > 0 && version < 2 {
		if err := migrateToV2(db); err != nil {
			return err
		}
	}
	// v3's buffer_cells table comes from schema.sql (CREATE IF NOT EXISTS),
	// so older databases need no explicit step here.

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// migrateToV2 drops the v1 material-code index. Record payloads keep their
// legacy shape on disk and are migrated lazily on every read path.
func migrateToV2(db *sql.DB) error {
	if _, err := db.Exec("DROP INDEX IF EXISTS idx_cells_material"); err != nil {
		return fmt.Errorf("migrate to v2: %w", err)
	}
	return nil
}

func tableFor(space surfaceID) string {
	if space == surfaceBuffer {
		return "buffer_cells"
	}
	return "cells"
}

// LoadCells reads every record of one space into a map keyed by "{row}-{col}",
// migrating legacy payloads as they are read.
func (s *Store) LoadCells(ctx context.Context, space surfaceID) (map[string]Cell, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT key, payload FROM %s", tableFor(space)))
	if err != nil {
		return nil, fmt.Errorf("load %s cells: %w", space, err)
	}
	defer rows.Close()

	cells := make(map[string]Cell)
	for rows.Next() {
		var key string
		var payload []byte
		if err := rows.Scan(&key, &payload); err != nil {
			return nil, fmt.Errorf("load %s cells: %w", space, err)
		}
		cell, err := migrateCell(payload)
		if err != nil {
			// one corrupt record should not take the whole grid down
			s.logger.Error("skipping unreadable cell record", "space", space.String(), "key", key, "error", err)
			continue
		}
		cells[key] = cell
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load %s cells: %w", space, err)
	}
	return cells, nil
}

// SaveCell upserts one record. Saving an empty cell deletes the record
// instead; blank records are never persisted.
func (s *Store) SaveCell(ctx context.Context, space surfaceID, cell Cell) error {
	if cell.IsEmpty() {
		return s.DeleteCell(ctx, space, cell.Row, cell.Col)
	}
	payload, err := encodeCell(cell)
	if err != nil {
		return fmt.Errorf("save cell: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (key, payload) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET payload = excluded.payload`, tableFor(space)),
		cell.Key(), string(payload))
	if err != nil {
		return fmt.Errorf("save cell %s/%s: %w", space, cell.Key(), err)
	}
	return nil
}

// DeleteCell removes the record at (row, col). Deleting a missing record is
// a no-op.
func (s *Store) DeleteCell(ctx context.Context, space surfaceID, row, col int) error {
	key := fmt.Sprintf("%d-%d", row, col)
	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE key = ?", tableFor(space)), key)
	if err != nil {
		return fmt.Errorf("delete cell %s/%s: %w", space, key, err)
	}
	return nil
}

// ClearSpace removes every record of one space.
func (s *Store) ClearSpace(ctx context.Context, space surfaceID) error {
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", tableFor(space))); err != nil {
		return fmt.Errorf("clear %s cells: %w", space, err)
	}
	return nil
}

// ReplaceAll atomically swaps the contents of both record spaces, used by
// import. Either everything lands or nothing does.
func (s *Store) ReplaceAll(ctx context.Context, cells, bufferCells []Cell) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace all: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"cells", "buffer_cells"} {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			return fmt.Errorf("replace all: clear %s: %w", table, err)
		}
	}
	insert := func(space surfaceID, list []Cell) error {
		for _, cell := range list {
			if cell.IsEmpty() {
				continue
			}
			payload, err := encodeCell(cell)
			if err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx,
				fmt.Sprintf("INSERT OR REPLACE INTO %s (key, payload) VALUES (?, ?)", tableFor(space)),
				cell.Key(), string(payload))
			if err != nil {
				return err
			}
		}
		return nil
	}
	if err := insert(surfaceMain, cells); err != nil {
		return fmt.Errorf("replace all: %w", err)
	}
	if err := insert(surfaceBuffer, bufferCells); err != nil {
		return fmt.Errorf("replace all: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace all: %w", err)
	}
	return nil
}

// storeWriter serializes fire-and-forget writes behind the UI loop. The
// in-memory cell maps are updated optimistically before these ops run; a
// failed write is logged and the optimistic state stands (next full reload
// reconciles from durable state).
type storeWriter struct {
	store  *Store
	logger *slog.Logger
	ops    chan storeOp
	done   chan struct{}
}

type storeOp struct {
	save     bool
	space    surfaceID
	cell     Cell
	row, col int
}

func newStoreWriter(store *Store, logger *slog.Logger) *storeWriter {
	if logger == nil {
		logger = slog.Default()
	}
	w := &storeWriter{
		store:  store,
		logger: logger,
		ops:    make(chan storeOp, 128),
		done:   make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *storeWriter) run() {
	defer close(w.done)
	for op := range w.ops {
		var err error
		if op.save {
			err = w.store.SaveCell(context.Background(), op.space, op.cell)
		} else {
			err = w.store.DeleteCell(context.Background(), op.space, op.row, op.col)
		}
		if err != nil {
			w.logger.Error("background write failed", "space", op.space.String(), "error", err)
		}
	}
}

// Save queues an upsert for (space, cell).
func (w *storeWriter) Save(space surfaceID, cell Cell) {
	w.ops <- storeOp{save: true, space: space, cell: cell}
}

// Delete queues a removal of the record at (row, col).
func (w *storeWriter) Delete(space surfaceID, row, col int) {
	w.ops <- storeOp{space: space, row: row, col: col}
}

// Close drains pending ops and stops the writer.
func (w *storeWriter) Close() {
	close(w.ops)
	<-w.done
}
