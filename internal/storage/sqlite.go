// Package storage provides SQLite-based persistence for the local chain and
// the miner's attempt journal.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Lookup and append errors.
var (
	ErrNotFound = errors.New("storage: not found")
	ErrConflict = errors.New("storage: block does not extend the head")
)

// Store manages the SQLite database connection.
type Store struct {
	db *sql.DB
}

// Block is one accepted solution on the local chain. The genesis block has
// height 0 and an empty PrevHash.
type Block struct {
	Height    int64
	Hash      string
	PrevHash  string
	Timestamp int64 // Unix seconds, part of the seed derivation
	Miner     string
	Seed      uint32
	Solution  []byte // Concatenated 4-byte pads
}

// Attempt is one mining attempt, won or not.
type Attempt struct {
	ID         string // UUID
	Miner      string
	Seed       uint32
	Outcome    string
	Frames     int
	Submitted  bool
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// AttemptStats contains aggregated attempt statistics.
type AttemptStats struct {
	Attempts    int
	Won         int
	Submitted   int
	Frames      int64
	LastAttempt time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	// Create parent directories
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	// SQLite allows a single writer; SSH sessions share this store.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS blocks (
			height INTEGER PRIMARY KEY,
			hash TEXT NOT NULL UNIQUE,
			prev_hash TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			miner TEXT NOT NULL,
			seed INTEGER NOT NULL,
			solution BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_blocks_miner ON blocks(miner);

		CREATE TABLE IF NOT EXISTS attempts (
			id TEXT PRIMARY KEY,
			miner TEXT NOT NULL,
			seed INTEGER NOT NULL,
			outcome TEXT NOT NULL,
			frames INTEGER NOT NULL DEFAULT 0,
			submitted INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT '',
			started_at INTEGER NOT NULL,
			finished_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_attempts_finished ON attempts(finished_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

const blockColumns = `height, hash, prev_hash, timestamp, miner, seed, solution`

type scanner interface {
	Scan(dest ...any) error
}

func scanBlock(row scanner) (Block, error) {
	var b Block
	var seed int64
	err := row.Scan(&b.Height, &b.Hash, &b.PrevHash, &b.Timestamp, &b.Miner, &seed, &b.Solution)
	b.Seed = uint32(seed)
	return b, err
}

// AppendBlock adds b on top of the current head. It fails with ErrConflict
// if b does not directly extend the head, which happens when another miner
// appended first.
func (s *Store) AppendBlock(ctx context.Context, b Block) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	head, err := scanBlock(tx.QueryRowContext(ctx,
		`SELECT `+blockColumns+` FROM blocks ORDER BY height DESC LIMIT 1`))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if b.Height != 0 || b.PrevHash != "" {
			return fmt.Errorf("%w: chain is empty, got height %d", ErrConflict, b.Height)
		}
	case err != nil:
		return fmt.Errorf("storage: cannot query head: %w", err)
	default:
		if b.Height != head.Height+1 || b.PrevHash != head.Hash {
			return fmt.Errorf("%w: head is %d, got height %d", ErrConflict, head.Height, b.Height)
		}
	}

	if b.Solution == nil {
		b.Solution = []byte{}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO blocks (`+blockColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.Height, b.Hash, b.PrevHash, b.Timestamp, b.Miner, int64(b.Seed), b.Solution,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save block: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: cannot commit block: %w", err)
	}
	return nil
}

// Head returns the highest block, or ErrNotFound on an empty chain.
func (s *Store) Head(ctx context.Context) (Block, error) {
	return s.queryBlock(ctx, `SELECT `+blockColumns+` FROM blocks ORDER BY height DESC LIMIT 1`)
}

// BlockByHash returns the block with the given hash.
func (s *Store) BlockByHash(ctx context.Context, hash string) (Block, error) {
	return s.queryBlock(ctx, `SELECT `+blockColumns+` FROM blocks WHERE hash = ?`, hash)
}

// BlockByHeight returns the block at the given height.
func (s *Store) BlockByHeight(ctx context.Context, height int64) (Block, error) {
	return s.queryBlock(ctx, `SELECT `+blockColumns+` FROM blocks WHERE height = ?`, height)
}

func (s *Store) queryBlock(ctx context.Context, query string, args ...any) (Block, error) {
	b, err := scanBlock(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Block{}, ErrNotFound
	}
	if err != nil {
		return Block{}, fmt.Errorf("storage: cannot query block: %w", err)
	}
	return b, nil
}

// Blocks returns up to limit blocks, newest first.
func (s *Store) Blocks(ctx context.Context, limit int) ([]Block, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+blockColumns+` FROM blocks ORDER BY height DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query blocks: %w", err)
	}
	defer rows.Close()

	var blocks []Block
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		blocks = append(blocks, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return blocks, nil
}

// SaveAttempt records a finished mining attempt.
func (s *Store) SaveAttempt(ctx context.Context, a Attempt) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attempts
		 (id, miner, seed, outcome, frames, submitted, error, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		a.Miner,
		int64(a.Seed),
		a.Outcome,
		a.Frames,
		a.Submitted,
		a.Error,
		a.StartedAt.UnixNano(),
		a.FinishedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save attempt: %w", err)
	}
	return nil
}

// RecentAttempts returns up to limit attempts, most recently finished first.
func (s *Store) RecentAttempts(ctx context.Context, limit int) ([]Attempt, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, miner, seed, outcome, frames, submitted, error, started_at, finished_at
		 FROM attempts
		 ORDER BY finished_at DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query attempts: %w", err)
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		var a Attempt
		var seed, started, finished int64
		if err := rows.Scan(&a.ID, &a.Miner, &seed, &a.Outcome, &a.Frames, &a.Submitted, &a.Error, &started, &finished); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		a.Seed = uint32(seed)
		a.StartedAt = time.Unix(0, started)
		a.FinishedAt = time.Unix(0, finished)
		attempts = append(attempts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return attempts, nil
}

// AttemptStats returns aggregated statistics over all attempts.
func (s *Store) AttemptStats(ctx context.Context) (AttemptStats, error) {
	var stats AttemptStats
	var last sql.NullInt64

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN outcome = 'won' THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(submitted), 0),
		        COALESCE(SUM(frames), 0),
		        MAX(finished_at)
		 FROM attempts`,
	).Scan(&stats.Attempts, &stats.Won, &stats.Submitted, &stats.Frames, &last)
	if err != nil {
		return stats, fmt.Errorf("storage: cannot get attempt stats: %w", err)
	}

	if last.Valid {
		stats.LastAttempt = time.Unix(0, last.Int64)
	}
	return stats, nil
}
