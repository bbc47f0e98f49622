// Package airlock implements a delayed-execution authorization queue: a
// gatekeeper between trusted proposers and a privileged execution backend.
//
// Registered proposers enqueue commitment digests of actions they intend to
// run. Every entry then sits through an enforced cooldown (unless the
// administrator grants approval credits that bypass it) and must execute
// before its expiration window closes. The administrator can inspect,
// approve, or permanently veto pending entries at any time. Execution
// reveals the full action, which is checked against the stored commitment
// before being delegated to the external executor.
//
// State mutation is strictly serialized: a single mutex guarantees no
// caller observes a partially updated cursor/tail/approved-count triple.
// The engine keeps no clock of its own; the injected Clock supplies every
// time reading.
package airlock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/airlock-labs/airlock/pkg/contracts"
	"github.com/airlock-labs/airlock/pkg/journal"
	"github.com/airlock-labs/airlock/pkg/observability"
	"github.com/airlock-labs/airlock/pkg/registry"
	"github.com/airlock-labs/airlock/pkg/store"
)

// minExpiration is the smallest nonzero expiration window. Anything
// narrower risks a cooldown/expiration window too short to observe.
const minExpiration = 60 * time.Second

// Clock supplies the current time. The engine never reads the wall clock
// directly; readings must be monotonically non-decreasing.
type Clock interface {
	Now() time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// Executor is the external backend that performs the side-effecting call.
// The engine treats it as opaque and possibly failing.
type Executor interface {
	PerformCall(ctx context.Context, action contracts.Action) (bool, error)
}

// rejectingExecutor is the default backend: it refuses every call, so an
// engine without a wired executor cannot silently perform side effects.
type rejectingExecutor struct{}

func (rejectingExecutor) PerformCall(context.Context, contracts.Action) (bool, error) {
	return false, nil
}

// Entry is one immutable queue slot: a commitment digest and its enqueue
// time. Entries are never deleted, only bypassed by cursor advancement.
type Entry struct {
	Commitment contracts.Digest
	CreatedAt  time.Time
}

// Config is the construction-time configuration.
type Config struct {
	// Admin is the single privileged identity. Transferable.
	Admin contracts.Address
	// Avatar is the identity the execution backend acts as.
	Avatar contracts.Address
	// Target is the identity the execution backend routes calls through.
	Target contracts.Address
	// Cooldown is the minimum age before default execution. May be zero.
	Cooldown time.Duration
	// Expiration is the window after cooldown during which execution
	// stays valid. Zero means entries never expire; nonzero values must
	// be at least 60 seconds.
	Expiration time.Duration
}

// Option customizes an engine at construction.
type Option func(*Airlock)

// WithClock injects the time source.
func WithClock(c Clock) Option {
	return func(a *Airlock) { a.clock = c }
}

// WithExecutor injects the execution backend.
func WithExecutor(e Executor) Option {
	return func(a *Airlock) { a.executor = e }
}

// WithStore injects a durable backend. The engine restores its snapshot at
// construction and writes through after every successful state change.
func WithStore(s store.Store) Option {
	return func(a *Airlock) { a.store = s }
}

// WithMetrics injects queue transition counters.
func WithMetrics(m *observability.QueueMetrics) Option {
	return func(a *Airlock) { a.metrics = m }
}

// WithObserver registers a callback invoked with every journal record the
// engine emits.
func WithObserver(fn func(journal.Record)) Option {
	return func(a *Airlock) { a.observer = fn }
}

// WithLogger overrides the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Airlock) { a.logger = l }
}

// Airlock is the queue engine. All state-changing methods are atomic with
// respect to each other.
type Airlock struct {
	mu sync.Mutex

	admin      contracts.Address
	avatar     contracts.Address
	target     contracts.Address
	cooldown   time.Duration
	expiration time.Duration

	proposers *registry.Registry
	entries   []Entry
	cursor    uint64
	approved  uint64
	salt      uint64

	clock    Clock
	executor Executor
	store    store.Store
	journal  *journal.Journal
	metrics  *observability.QueueMetrics
	observer func(journal.Record)
	logger   *slog.Logger
}

// New constructs an engine and emits the one-time setup event. When a
// store is wired, the persisted snapshot is restored first.
func New(cfg Config, opts ...Option) (*Airlock, error) {
	if cfg.Admin.IsZero() {
		return nil, ErrInvalidAdmin
	}
	if cfg.Avatar.IsZero() {
		return nil, ErrInvalidAvatar
	}
	if cfg.Target.IsZero() {
		return nil, ErrInvalidTarget
	}
	if cfg.Cooldown < 0 {
		return nil, ErrInvalidCooldown
	}
	if cfg.Expiration != 0 && cfg.Expiration < minExpiration {
		return nil, fmt.Errorf("%w: %s < %s", ErrInvalidExpiration, cfg.Expiration, minExpiration)
	}

	a := &Airlock{
		admin:      cfg.Admin,
		avatar:     cfg.Avatar,
		target:     cfg.Target,
		cooldown:   cfg.Cooldown,
		expiration: cfg.Expiration,
		proposers:  registry.New(),
		clock:      wallClock{},
		executor:   rejectingExecutor{},
		journal:    journal.New(),
		logger:     slog.Default().With("component", "airlock"),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.store != nil {
		if err := a.restore(); err != nil {
			return nil, err
		}
	}

	a.emit(EventModuleSetup, cfg.Admin.Hex(), map[string]any{
		"admin":      cfg.Admin.Hex(),
		"avatar":     cfg.Avatar.Hex(),
		"target":     cfg.Target.Hex(),
		"cooldown":   cfg.Cooldown.String(),
		"expiration": cfg.Expiration.String(),
	})
	return a, nil
}

// restore loads the persisted snapshot into a fresh engine.
func (a *Airlock) restore() error {
	snap, err := a.store.Load(context.Background())
	if err != nil {
		return fmt.Errorf("airlock: restore: %w", err)
	}
	if snap.State.Tail != uint64(len(snap.Entries)) {
		return fmt.Errorf("airlock: restore: tail %d does not match %d persisted entries",
			snap.State.Tail, len(snap.Entries))
	}
	if snap.State.Cursor > snap.State.Tail {
		return fmt.Errorf("airlock: restore: cursor %d beyond tail %d",
			snap.State.Cursor, snap.State.Tail)
	}
	if pending := snap.State.Tail - snap.State.Cursor; snap.State.ApprovedCount > pending {
		return fmt.Errorf("airlock: restore: approved count %d exceeds %d pending entries",
			snap.State.ApprovedCount, pending)
	}

	a.entries = make([]Entry, 0, len(snap.Entries))
	for _, e := range snap.Entries {
		a.entries = append(a.entries, Entry{Commitment: e.Commitment, CreatedAt: e.CreatedAt})
	}
	a.cursor = snap.State.Cursor
	a.approved = snap.State.ApprovedCount
	a.salt = snap.State.SaltCounter

	// Registration inserts at the head, so replay in reverse to keep the
	// persisted traversal order.
	for i := len(snap.Proposers) - 1; i >= 0; i-- {
		if err := a.proposers.Register(snap.Proposers[i]); err != nil {
			return fmt.Errorf("airlock: restore proposer %s: %w", snap.Proposers[i].Hex(), err)
		}
	}
	return nil
}

// tailLocked returns the next free slot. Callers hold a.mu.
func (a *Airlock) tailLocked() uint64 { return uint64(len(a.entries)) }

// stateLocked snapshots the persisted counters. Callers hold a.mu.
func (a *Airlock) stateLocked() store.State {
	return store.State{
		Cursor:        a.cursor,
		Tail:          a.tailLocked(),
		ApprovedCount: a.approved,
		SaltCounter:   a.salt,
	}
}

// persistState writes the counter triple through to the store, if any.
// Callers hold a.mu and pass the post-mutation state.
func (a *Airlock) persistState(ctx context.Context, s store.State) error {
	if a.store == nil {
		return nil
	}
	if err := a.store.SaveState(ctx, s); err != nil {
		return fmt.Errorf("airlock: persist state: %w", err)
	}
	return nil
}

// persistProposers writes the proposer set through to the store, if any.
// Callers hold a.mu.
func (a *Airlock) persistProposers(ctx context.Context) error {
	if a.store == nil {
		return nil
	}
	if err := a.store.SaveProposers(ctx, a.proposers.All()); err != nil {
		return fmt.Errorf("airlock: persist proposers: %w", err)
	}
	return nil
}

// Cursor returns the slot index of the next entry eligible for execution.
func (a *Airlock) Cursor() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cursor
}

// Tail returns the slot index where the next entry will be written.
func (a *Airlock) Tail() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tailLocked()
}

// ApprovedCount returns the number of pending entries that bypass the
// cooldown requirement.
func (a *Airlock) ApprovedCount() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.approved
}

// SaltCounter returns the next salt a secret enqueue will consume.
func (a *Airlock) SaltCounter() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.salt
}

// CommitmentAt returns the commitment digest stored at slot.
func (a *Airlock) CommitmentAt(slot uint64) (contracts.Digest, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if slot >= a.tailLocked() {
		return contracts.ZeroDigest, fmt.Errorf("slot %d: %w", slot, ErrOutOfRange)
	}
	return a.entries[slot].Commitment, nil
}

// CreatedAtOf returns the enqueue time of the entry at slot.
func (a *Airlock) CreatedAtOf(slot uint64) (time.Time, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if slot >= a.tailLocked() {
		return time.Time{}, fmt.Errorf("slot %d: %w", slot, ErrOutOfRange)
	}
	return a.entries[slot].CreatedAt, nil
}

// Admin returns the current administrator identity.
func (a *Airlock) Admin() contracts.Address {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.admin
}

// Avatar returns the identity the execution backend acts as.
func (a *Airlock) Avatar() contracts.Address { return a.avatar }

// Target returns the identity the execution backend routes through.
func (a *Airlock) Target() contracts.Address { return a.target }

// Cooldown returns the current cooldown.
func (a *Airlock) Cooldown() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cooldown
}

// Expiration returns the current expiration window.
func (a *Airlock) Expiration() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.expiration
}

// IsProposer reports whether identity may enqueue entries.
func (a *Airlock) IsProposer(identity contracts.Address) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.proposers.Contains(identity)
}

// ProposersPaginated walks the proposer set starting after start (sentinel
// means "from the beginning") and returns at most pageSize identities plus
// a continuation cursor, sentinel once exhausted.
func (a *Airlock) ProposersPaginated(start contracts.Address, pageSize int) ([]contracts.Address, contracts.Address, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.proposers.Paginated(start, pageSize)
}

// Journal returns the engine's event journal.
func (a *Airlock) Journal() *journal.Journal { return a.journal }
