package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/airlock-labs/airlock/pkg/contracts"
)

// SQLiteStore persists the queue snapshot in a local sqlite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and migrates it.
// Use ":memory:" for an ephemeral database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite %q: %w", path, err)
	}
	return NewSQLiteStore(db)
}

// NewSQLiteStore wraps an existing handle and migrates it.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS entries (
		slot INTEGER PRIMARY KEY,
		commitment TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		cursor INTEGER NOT NULL,
		tail INTEGER NOT NULL,
		approved_count INTEGER NOT NULL,
		salt_counter INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS proposers (
		position INTEGER PRIMARY KEY,
		identity TEXT NOT NULL
	);`
	_, err := s.db.ExecContext(context.Background(), query)
	if err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Close closes the underlying handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) AppendEntry(ctx context.Context, e Entry, st State) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: append entry %d: %w", e.Slot, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO entries (slot, commitment, created_at) VALUES (?, ?, ?)`,
		int64(e.Slot), e.Commitment.Hex(), e.CreatedAt.UnixNano()); err != nil {
		return fmt.Errorf("store: append entry %d: %w", e.Slot, err)
	}
	if _, err := tx.ExecContext(ctx, upsertStateQuery,
		int64(st.Cursor), int64(st.Tail), int64(st.ApprovedCount), int64(st.SaltCounter)); err != nil {
		return fmt.Errorf("store: append entry %d state: %w", e.Slot, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit entry %d: %w", e.Slot, err)
	}
	return nil
}

const upsertStateQuery = `
	INSERT INTO state (id, cursor, tail, approved_count, salt_counter)
	VALUES (1, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		cursor = excluded.cursor,
		tail = excluded.tail,
		approved_count = excluded.approved_count,
		salt_counter = excluded.salt_counter`

func (s *SQLiteStore) SaveState(ctx context.Context, st State) error {
	_, err := s.db.ExecContext(ctx, upsertStateQuery,
		int64(st.Cursor), int64(st.Tail), int64(st.ApprovedCount), int64(st.SaltCounter))
	if err != nil {
		return fmt.Errorf("store: save state: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SaveProposers(ctx context.Context, proposers []contracts.Address) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: save proposers: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM proposers`); err != nil {
		return fmt.Errorf("store: clear proposers: %w", err)
	}
	for i, p := range proposers {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO proposers (position, identity) VALUES (?, ?)`, i, p.Hex()); err != nil {
			return fmt.Errorf("store: insert proposer %s: %w", p.Hex(), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit proposers: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (Snapshot, error) {
	var snap Snapshot

	row := s.db.QueryRowContext(ctx,
		`SELECT cursor, tail, approved_count, salt_counter FROM state WHERE id = 1`)
	var cursor, tail, approved, salt int64
	switch err := row.Scan(&cursor, &tail, &approved, &salt); err {
	case nil:
		snap.State = State{
			Cursor:        uint64(cursor),
			Tail:          uint64(tail),
			ApprovedCount: uint64(approved),
			SaltCounter:   uint64(salt),
		}
	case sql.ErrNoRows:
		// fresh database
	default:
		return Snapshot{}, fmt.Errorf("store: load state: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT slot, commitment, created_at FROM entries ORDER BY slot ASC`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("store: load entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var slot, createdAt int64
		var commitmentHex string
		if err := rows.Scan(&slot, &commitmentHex, &createdAt); err != nil {
			return Snapshot{}, fmt.Errorf("store: scan entry: %w", err)
		}
		digest, err := contracts.ParseDigest(commitmentHex)
		if err != nil {
			return Snapshot{}, fmt.Errorf("store: entry %d: %w", slot, err)
		}
		snap.Entries = append(snap.Entries, Entry{
			Slot:       uint64(slot),
			Commitment: digest,
			CreatedAt:  time.Unix(0, createdAt).UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("store: iterate entries: %w", err)
	}

	prows, err := s.db.QueryContext(ctx,
		`SELECT identity FROM proposers ORDER BY position ASC`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("store: load proposers: %w", err)
	}
	defer func() { _ = prows.Close() }()

	for prows.Next() {
		var identityHex string
		if err := prows.Scan(&identityHex); err != nil {
			return Snapshot{}, fmt.Errorf("store: scan proposer: %w", err)
		}
		addr, err := contracts.ParseAddress(identityHex)
		if err != nil {
			return Snapshot{}, fmt.Errorf("store: proposer: %w", err)
		}
		snap.Proposers = append(snap.Proposers, addr)
	}
	if err := prows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("store: iterate proposers: %w", err)
	}

	return snap, nil
}
