package chain

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Gumbo64/sm64-crypto/internal/config"
	"github.com/Gumbo64/sm64-crypto/internal/core"
	"github.com/Gumbo64/sm64-crypto/internal/engine"
	"github.com/Gumbo64/sm64-crypto/internal/storage"
)

// stepEngine wins after winAt steps whatever the input.
type stepEngine struct {
	winAt int
	steps int
}

func (e *stepEngine) Step(core.Pad) { e.steps++ }

func (e *stepEngine) State() core.SimulationState {
	var st core.SimulationState
	if e.steps >= e.winAt {
		st.Stars = 1
	}
	return st
}

func (e *stepEngine) ControllerPad() core.Pad    { return core.Pad{} }
func (e *stepEngine) RNGPad(p core.Pad) core.Pad { return p }
func (e *stepEngine) SetAudioEnabled(bool)       {}
func (e *stepEngine) Close() error               { return nil }

const winAt = 40

func stepFactory(ctx context.Context, opts engine.Options) (engine.Engine, error) {
	return &stepEngine{winAt: winAt}, nil
}

var testTime = time.Unix(1760000000, 0)

func openStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "chain.db"))
	if err != nil {
		t.Fatalf("storage.Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func openLedger(t *testing.T, store *storage.Store, name string) *Ledger {
	t.Helper()
	l, err := New(context.Background(), store, stepFactory, config.Default(), name,
		WithClock(func() time.Time { return testTime }))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return l
}

func solution(n int) core.Solution {
	return make(core.Solution, n)
}

func TestCalcSeedDeterministic(t *testing.T) {
	base := CalcSeed("abc", 1, 1700000000, "numnum")
	if again := CalcSeed("abc", 1, 1700000000, "numnum"); again != base {
		t.Fatalf("CalcSeed() not deterministic: %d != %d", again, base)
	}

	tests := []struct {
		name string
		seed uint32
	}{
		{"prev hash", CalcSeed("abd", 1, 1700000000, "numnum")},
		{"height", CalcSeed("abc", 2, 1700000000, "numnum")},
		{"timestamp", CalcSeed("abc", 1, 1700000001, "numnum")},
		{"miner", CalcSeed("abc", 1, 1700000000, "numnun")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.seed == base {
				t.Errorf("changing the %s did not change the seed", tt.name)
			}
		})
	}
}

func TestNewCreatesGenesisOnce(t *testing.T) {
	store := openStore(t)
	openLedger(t, store, "a")
	openLedger(t, store, "b")

	blocks, err := store.Blocks(context.Background(), 10)
	if err != nil {
		t.Fatalf("Blocks() failed: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("expected only the genesis block, got %d blocks", len(blocks))
	}
	if blocks[0].Hash != Genesis().Hash {
		t.Errorf("genesis hash = %s, want %s", blocks[0].Hash, Genesis().Hash)
	}
}

func TestNewRejectsLongName(t *testing.T) {
	cfg := config.Default()
	cfg.RNG.MaxNameLength = 4

	_, err := New(context.Background(), openStore(t), stepFactory, cfg, "mario")
	if !errors.Is(err, ErrNameTooLong) {
		t.Errorf("expected ErrNameTooLong, got %v", err)
	}
}

func TestStartMineSeed(t *testing.T) {
	l := openLedger(t, openStore(t), "numnum")

	ticket, err := l.StartMine(context.Background())
	if err != nil {
		t.Fatalf("StartMine() failed: %v", err)
	}
	if want := CalcSeed(Genesis().Hash, 1, testTime.Unix(), "numnum"); ticket.Seed != want {
		t.Errorf("seed = %d, want %d", ticket.Seed, want)
	}
	if ticket.RNG != config.Default().RNG {
		t.Errorf("ticket rng = %+v, want the ledger's", ticket.RNG)
	}
	if l.MaxSolutionTime() != 10*time.Minute {
		t.Errorf("MaxSolutionTime() = %v, want 10m", l.MaxSolutionTime())
	}
}

func TestSubmitMineAppends(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	l := openLedger(t, store, "numnum")

	ticket, err := l.StartMine(ctx)
	if err != nil {
		t.Fatalf("StartMine() failed: %v", err)
	}
	if err := l.SubmitMine(ctx, ticket.Seed, solution(winAt)); err != nil {
		t.Fatalf("SubmitMine() failed: %v", err)
	}

	head, err := store.Head(ctx)
	if err != nil {
		t.Fatalf("Head() failed: %v", err)
	}
	if head.Height != 1 || head.PrevHash != Genesis().Hash || head.Miner != "numnum" {
		t.Errorf("head = %+v", head)
	}
	if len(head.Solution) != winAt*core.PadSize {
		t.Errorf("stored solution is %d bytes, want %d", len(head.Solution), winAt*core.PadSize)
	}
	if err := l.Verify(ctx, head); err != nil {
		t.Errorf("Verify(head) = %v", err)
	}

	// The pending block is consumed
	if err := l.SubmitMine(ctx, ticket.Seed, solution(winAt)); !errors.Is(err, ErrNoPendingBlock) {
		t.Errorf("second SubmitMine() = %v, want ErrNoPendingBlock", err)
	}
}

func TestSubmitMineErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		maxTime int
		start   bool
		seedAdj uint32
		frames  int
		want    error
	}{
		{"no pending block", 600, false, 0, winAt, ErrNoPendingBlock},
		{"seed mismatch", 600, true, 1, winAt, ErrSeedMismatch},
		{"too long", 1, true, 0, 31, ErrSolutionTooLong}, // 30 frames allowed
		{"does not win", 600, true, 0, winAt - 1, ErrRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.RNG.MaxSolutionTime = tt.maxTime
			l, err := New(ctx, openStore(t), stepFactory, cfg, "numnum")
			if err != nil {
				t.Fatalf("New() failed: %v", err)
			}

			var seed uint32
			if tt.start {
				ticket, err := l.StartMine(ctx)
				if err != nil {
					t.Fatalf("StartMine() failed: %v", err)
				}
				seed = ticket.Seed
			}

			if err := l.SubmitMine(ctx, seed+tt.seedAdj, solution(tt.frames)); !errors.Is(err, tt.want) {
				t.Errorf("SubmitMine() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestHasNewBlockAndStaleSubmission(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	a := openLedger(t, store, "a")
	b := openLedger(t, store, "b")

	if moved, err := b.HasNewBlock(ctx); err != nil || moved {
		t.Fatalf("HasNewBlock() before StartMine = %v, %v; want false", moved, err)
	}

	ta, err := a.StartMine(ctx)
	if err != nil {
		t.Fatalf("StartMine(a) failed: %v", err)
	}
	tb, err := b.StartMine(ctx)
	if err != nil {
		t.Fatalf("StartMine(b) failed: %v", err)
	}
	if ta.Seed == tb.Seed {
		t.Error("different miners should get different seeds")
	}

	if moved, _ := b.HasNewBlock(ctx); moved {
		t.Fatal("HasNewBlock() = true before anyone submitted")
	}
	if err := a.SubmitMine(ctx, ta.Seed, solution(winAt)); err != nil {
		t.Fatalf("SubmitMine(a) failed: %v", err)
	}
	if moved, err := b.HasNewBlock(ctx); err != nil || !moved {
		t.Errorf("HasNewBlock() after a's block = %v, %v; want true", moved, err)
	}
	if err := b.SubmitMine(ctx, tb.Seed, solution(winAt)); !errors.Is(err, ErrStaleBlock) {
		t.Errorf("SubmitMine(b) = %v, want ErrStaleBlock", err)
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	l := openLedger(t, store, "numnum")

	ticket, _ := l.StartMine(ctx)
	if err := l.SubmitMine(ctx, ticket.Seed, solution(winAt)); err != nil {
		t.Fatalf("SubmitMine() failed: %v", err)
	}
	head, _ := store.Head(ctx)

	tampered := head
	tampered.Solution = append([]byte{}, head.Solution...)
	tampered.Solution[0] ^= 0x80
	if err := l.Verify(ctx, tampered); !errors.Is(err, ErrInvalidBlock) {
		t.Errorf("Verify(tampered solution) = %v, want ErrInvalidBlock", err)
	}

	reseeded := head
	reseeded.Seed++
	if err := l.Verify(ctx, reseeded); !errors.Is(err, ErrSeedMismatch) {
		t.Errorf("Verify(wrong seed) = %v, want ErrSeedMismatch", err)
	}

	if err := l.Verify(ctx, Genesis()); err != nil {
		t.Errorf("Verify(genesis) = %v", err)
	}
}
