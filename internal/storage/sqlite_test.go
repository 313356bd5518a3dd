package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func genesis() Block {
	return Block{Height: 0, Hash: "g3n", Timestamp: 1700000000, Miner: "genesis"}
}

func TestStoreOpenClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	// Check that the file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestStoreNestedPath(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subdir", "deep", "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() with nested path failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created in nested directory")
	}
}

func TestStoreEmptyChain(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.Head(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Head() on empty chain = %v, want ErrNotFound", err)
	}

	blocks, err := store.Blocks(context.Background(), 10)
	if err != nil {
		t.Fatalf("Blocks() failed: %v", err)
	}
	if len(blocks) != 0 {
		t.Errorf("expected no blocks, got %d", len(blocks))
	}
}

func TestStoreAppendAndQuery(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.AppendBlock(ctx, genesis()); err != nil {
		t.Fatalf("AppendBlock(genesis) failed: %v", err)
	}

	next := Block{
		Height:    1,
		Hash:      "b1",
		PrevHash:  "g3n",
		Timestamp: 1700000100,
		Miner:     "numnum",
		Seed:      0xDEADBEEF,
		Solution:  []byte{0x01, 0x80, 0xB0, 0x11},
	}
	if err := store.AppendBlock(ctx, next); err != nil {
		t.Fatalf("AppendBlock() failed: %v", err)
	}

	head, err := store.Head(ctx)
	if err != nil {
		t.Fatalf("Head() failed: %v", err)
	}
	if head.Hash != "b1" || head.Height != 1 {
		t.Errorf("head = %+v, want b1 at height 1", head)
	}
	if head.Seed != 0xDEADBEEF {
		t.Errorf("seed = %#x, want 0xDEADBEEF (uint32 must survive the round trip)", head.Seed)
	}
	if !bytes.Equal(head.Solution, next.Solution) {
		t.Errorf("solution = %x, want %x", head.Solution, next.Solution)
	}

	byHash, err := store.BlockByHash(ctx, "g3n")
	if err != nil || byHash.Height != 0 {
		t.Errorf("BlockByHash(g3n) = %+v, %v", byHash, err)
	}
	byHeight, err := store.BlockByHeight(ctx, 1)
	if err != nil || byHeight.Miner != "numnum" {
		t.Errorf("BlockByHeight(1) = %+v, %v", byHeight, err)
	}
	if _, err := store.BlockByHeight(ctx, 7); !errors.Is(err, ErrNotFound) {
		t.Errorf("BlockByHeight(7) = %v, want ErrNotFound", err)
	}

	blocks, err := store.Blocks(ctx, 10)
	if err != nil {
		t.Fatalf("Blocks() failed: %v", err)
	}
	if len(blocks) != 2 || blocks[0].Height != 1 || blocks[1].Height != 0 {
		t.Errorf("Blocks() should be newest first, got %+v", blocks)
	}
}

func TestStoreAppendConflict(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		setup bool
		block Block
	}{
		{"non-genesis on empty chain", false, Block{Height: 1, Hash: "x", PrevHash: "g3n"}},
		{"wrong parent", true, Block{Height: 1, Hash: "x", PrevHash: "other"}},
		{"skipped height", true, Block{Height: 2, Hash: "x", PrevHash: "g3n"}},
		{"second genesis", true, Block{Height: 0, Hash: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup {
				if _, err := store.Head(ctx); errors.Is(err, ErrNotFound) {
					if err := store.AppendBlock(ctx, genesis()); err != nil {
						t.Fatalf("AppendBlock(genesis) failed: %v", err)
					}
				}
			}
			if err := store.AppendBlock(ctx, tt.block); !errors.Is(err, ErrConflict) {
				t.Errorf("AppendBlock() = %v, want ErrConflict", err)
			}
		})
	}
}

func TestStoreAttempts(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Unix(1700000000, 0)
	attempts := []Attempt{
		{ID: "a1", Miner: "numnum", Seed: 1, Outcome: "interrupted", Frames: 120, StartedAt: base, FinishedAt: base.Add(4 * time.Second)},
		{ID: "a2", Miner: "numnum", Seed: 2, Outcome: "won", Frames: 900, Submitted: true, StartedAt: base.Add(5 * time.Second), FinishedAt: base.Add(35 * time.Second)},
		{ID: "a3", Miner: "numnum", Seed: 3, Outcome: "won", Frames: 300, Error: "stale block", StartedAt: base.Add(40 * time.Second), FinishedAt: base.Add(50 * time.Second)},
	}
	for _, a := range attempts {
		if err := store.SaveAttempt(ctx, a); err != nil {
			t.Fatalf("SaveAttempt(%s) failed: %v", a.ID, err)
		}
	}

	recent, err := store.RecentAttempts(ctx, 2)
	if err != nil {
		t.Fatalf("RecentAttempts() failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(recent))
	}
	if recent[0].ID != "a3" || recent[1].ID != "a2" {
		t.Errorf("attempts should be most recent first, got %s, %s", recent[0].ID, recent[1].ID)
	}
	if !recent[1].Submitted || recent[0].Submitted {
		t.Error("submitted flag did not round trip")
	}
	if recent[0].Error != "stale block" {
		t.Errorf("error = %q", recent[0].Error)
	}
	if !recent[0].FinishedAt.Equal(base.Add(50 * time.Second)) {
		t.Errorf("finished_at = %v", recent[0].FinishedAt)
	}

	stats, err := store.AttemptStats(ctx)
	if err != nil {
		t.Fatalf("AttemptStats() failed: %v", err)
	}
	if stats.Attempts != 3 || stats.Won != 2 || stats.Submitted != 1 || stats.Frames != 1320 {
		t.Errorf("stats = %+v", stats)
	}
	if !stats.LastAttempt.Equal(base.Add(50 * time.Second)) {
		t.Errorf("last attempt = %v", stats.LastAttempt)
	}
}

func TestStoreAttemptStatsEmpty(t *testing.T) {
	store := openTestStore(t)

	stats, err := store.AttemptStats(context.Background())
	if err != nil {
		t.Fatalf("AttemptStats() failed: %v", err)
	}
	if stats.Attempts != 0 || !stats.LastAttempt.IsZero() {
		t.Errorf("stats = %+v, want zero", stats)
	}
}
