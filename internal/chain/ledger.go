// Package chain implements a single-node ledger the miner submits to.
// Blocks are stored in SQLite; every submission is replayed headlessly
// before it is appended.
package chain

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Gumbo64/sm64-crypto/internal/config"
	"github.com/Gumbo64/sm64-crypto/internal/core"
	"github.com/Gumbo64/sm64-crypto/internal/engine"
	"github.com/Gumbo64/sm64-crypto/internal/miner"
	"github.com/Gumbo64/sm64-crypto/internal/replay"
	"github.com/Gumbo64/sm64-crypto/internal/storage"
)

// Submission errors.
var (
	ErrNameTooLong     = errors.New("chain: miner name too long")
	ErrNoPendingBlock  = errors.New("chain: no pending block, call StartMine first")
	ErrSeedMismatch    = errors.New("chain: seed does not match the pending block")
	ErrSolutionTooLong = errors.New("chain: solution is too long")
	ErrRejected        = errors.New("chain: solution does not win")
	ErrStaleBlock      = errors.New("chain: head moved before submission")
	ErrInvalidBlock    = errors.New("chain: invalid block")
)

const (
	genesisMiner     = "genesis"
	genesisTimestamp = 1735689600 // 2025-01-01T00:00:00Z
)

// Ledger issues seeds on the local chain head and accepts winning solutions.
// It is safe for concurrent use; each Ledger holds at most one pending block.
type Ledger struct {
	store   *storage.Store
	factory engine.Factory
	cfg     config.Config
	name    string
	now     func() time.Time
	logger  *log.Logger

	mu      sync.Mutex
	pending *storage.Block
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock replaces time.Now for block timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithLogger sets the logger.
func WithLogger(lg *log.Logger) Option {
	return func(l *Ledger) { l.logger = lg }
}

// New opens a ledger for miner name on store, creating the genesis block
// if the chain is empty. factory instantiates the engine used to verify
// submissions.
func New(ctx context.Context, store *storage.Store, factory engine.Factory, cfg config.Config, name string, opts ...Option) (*Ledger, error) {
	if len(name) > cfg.RNG.MaxNameLength {
		return nil, fmt.Errorf("%w: %d bytes, max %d", ErrNameTooLong, len(name), cfg.RNG.MaxNameLength)
	}

	l := &Ledger{
		store:   store,
		factory: factory,
		cfg:     cfg,
		name:    name,
		now:     time.Now,
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(l)
	}

	if _, err := store.Head(ctx); errors.Is(err, storage.ErrNotFound) {
		g := Genesis()
		if err := store.AppendBlock(ctx, g); err != nil && !errors.Is(err, storage.ErrConflict) {
			return nil, fmt.Errorf("chain: cannot create genesis: %w", err)
		}
		l.logger.Info("created genesis block", "hash", g.Hash)
	} else if err != nil {
		return nil, fmt.Errorf("chain: cannot read head: %w", err)
	}

	return l, nil
}

// Genesis returns the fixed first block.
func Genesis() storage.Block {
	g := storage.Block{Height: 0, Timestamp: genesisTimestamp, Miner: genesisMiner, Solution: []byte{}}
	g.Hash = BlockHash(g)
	return g
}

// CalcSeed derives the RNG seed of a block: the first four bytes, big
// endian, of SHA-256 over the previous hash, height, timestamp and miner.
func CalcSeed(prevHash string, height, timestamp int64, minerName string) uint32 {
	h := sha256.New()
	h.Write([]byte(prevHash))
	h.Write([]byte(strconv.FormatInt(height, 10)))
	h.Write([]byte(strconv.FormatInt(timestamp, 10)))
	h.Write([]byte(minerName))
	return binary.BigEndian.Uint32(h.Sum(nil))
}

// BlockHash returns the hex SHA-256 of a block's header fields and solution.
func BlockHash(b storage.Block) string {
	h := sha256.New()
	h.Write([]byte(b.PrevHash))
	h.Write([]byte(strconv.FormatInt(b.Height, 10)))
	h.Write([]byte(strconv.FormatInt(b.Timestamp, 10)))
	h.Write([]byte(b.Miner))
	h.Write([]byte(strconv.FormatUint(uint64(b.Seed), 10)))
	h.Write(b.Solution)
	return hex.EncodeToString(h.Sum(nil))
}

// Name returns the miner name blocks are credited to.
func (l *Ledger) Name() string {
	return l.name
}

// MaxSolutionTime returns the longest game time a solution may cover.
func (l *Ledger) MaxSolutionTime() time.Duration {
	return l.cfg.RNG.SolutionTime()
}

// StartMine opens a pending block on the current head, replacing any
// previous pending block, and returns its seed.
func (l *Ledger) StartMine(ctx context.Context) (miner.Ticket, error) {
	head, err := l.store.Head(ctx)
	if err != nil {
		return miner.Ticket{}, fmt.Errorf("chain: cannot read head: %w", err)
	}

	b := storage.Block{
		Height:    head.Height + 1,
		PrevHash:  head.Hash,
		Timestamp: l.now().Unix(),
		Miner:     l.name,
	}
	b.Seed = CalcSeed(b.PrevHash, b.Height, b.Timestamp, b.Miner)

	l.mu.Lock()
	l.pending = &b
	l.mu.Unlock()

	l.logger.Debug("pending block", "height", b.Height, "seed", b.Seed)
	return miner.Ticket{Seed: b.Seed, RNG: l.cfg.RNG}, nil
}

// HasNewBlock reports whether the head moved since the last StartMine.
func (l *Ledger) HasNewBlock(ctx context.Context) (bool, error) {
	l.mu.Lock()
	pending := l.pending
	l.mu.Unlock()
	if pending == nil {
		return false, nil
	}

	head, err := l.store.Head(ctx)
	if err != nil {
		return false, fmt.Errorf("chain: cannot read head: %w", err)
	}
	return head.Hash != pending.PrevHash, nil
}

// SubmitMine seals the pending block with solution and appends it after
// replaying the solution under the block's seed.
func (l *Ledger) SubmitMine(ctx context.Context, seed uint32, solution core.Solution) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pending == nil {
		return ErrNoPendingBlock
	}
	if l.pending.Seed != seed {
		return fmt.Errorf("%w: got %d, want %d", ErrSeedMismatch, seed, l.pending.Seed)
	}

	b := *l.pending
	data, err := solution.MarshalBinary()
	if err != nil {
		return fmt.Errorf("chain: cannot encode solution: %w", err)
	}
	b.Solution = data

	if err := l.check(ctx, b); err != nil {
		return err
	}
	b.Hash = BlockHash(b)

	if err := l.store.AppendBlock(ctx, b); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			l.pending = nil
			return fmt.Errorf("%w: %v", ErrStaleBlock, err)
		}
		return fmt.Errorf("chain: cannot append block: %w", err)
	}
	l.pending = nil

	l.logger.Info("block appended", "height", b.Height, "hash", b.Hash, "frames", len(solution))
	return nil
}

// Verify checks a stored block: its seed derivation, hash and that its
// solution wins under its seed. The genesis block only has to match Genesis.
func (l *Ledger) Verify(ctx context.Context, b storage.Block) error {
	if b.Height == 0 {
		if b.Hash != Genesis().Hash {
			return fmt.Errorf("%w: unexpected genesis hash %s", ErrInvalidBlock, b.Hash)
		}
		return nil
	}
	if want := CalcSeed(b.PrevHash, b.Height, b.Timestamp, b.Miner); b.Seed != want {
		return fmt.Errorf("%w: seed %d, want %d", ErrSeedMismatch, b.Seed, want)
	}
	if want := BlockHash(b); b.Hash != want {
		return fmt.Errorf("%w: hash %s, want %s", ErrInvalidBlock, b.Hash, want)
	}
	return l.check(ctx, b)
}

// check enforces the solution length and replays the solution.
func (l *Ledger) check(ctx context.Context, b storage.Block) error {
	if len(b.Miner) > l.cfg.RNG.MaxNameLength {
		return fmt.Errorf("%w: %d bytes", ErrNameTooLong, len(b.Miner))
	}
	if len(b.Solution) > l.cfg.RNG.MaxSolutionBytes() {
		return fmt.Errorf("%w: %d bytes, max %d", ErrSolutionTooLong, len(b.Solution), l.cfg.RNG.MaxSolutionBytes())
	}

	sol, err := core.ParseSolution(b.Solution)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBlock, err)
	}

	won, err := replay.Evaluate(ctx, l.factory, core.SeedOf(b.Seed), sol, l.cfg)
	if err != nil {
		return fmt.Errorf("chain: cannot evaluate solution: %w", err)
	}
	if !won {
		return ErrRejected
	}
	return nil
}
