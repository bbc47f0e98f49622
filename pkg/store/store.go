// Package store persists the queue's minimal durable state: the append-only
// commitment entries, the counter triple, and the proposer set. The engine
// writes through after every successful state change and reloads on
// construction, so a restarted process resumes with the same queue bounds.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/airlock-labs/airlock/pkg/contracts"
)

// Entry is a persisted queue slot.
type Entry struct {
	Slot       uint64           `json:"slot"`
	Commitment contracts.Digest `json:"commitment"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// State is the persisted counter triple plus the salt counter.
type State struct {
	Cursor        uint64 `json:"cursor"`
	Tail          uint64 `json:"tail"`
	ApprovedCount uint64 `json:"approvedCount"`
	SaltCounter   uint64 `json:"saltCounter"`
}

// Snapshot is everything a fresh engine needs to resume.
type Snapshot struct {
	State     State
	Entries   []Entry
	Proposers []contracts.Address
}

// Store is the durable backend the engine writes through to.
type Store interface {
	// AppendEntry persists a newly enqueued slot together with the
	// post-append counters. The two writes commit atomically: a failure
	// leaves neither behind, so the persisted tail always matches the
	// entry count.
	AppendEntry(ctx context.Context, e Entry, s State) error
	// SaveState persists the counter triple after a state change.
	SaveState(ctx context.Context, s State) error
	// SaveProposers replaces the persisted proposer set.
	SaveProposers(ctx context.Context, proposers []contracts.Address) error
	// Load returns the full persisted snapshot. An empty backend returns
	// a zero snapshot and no error.
	Load(ctx context.Context) (Snapshot, error)
}

// MemoryStore is an in-process Store for tests and ephemeral deployments.
type MemoryStore struct {
	mu        sync.Mutex
	state     State
	entries   []Entry
	proposers []contracts.Address
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) AppendEntry(_ context.Context, e Entry, s State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	m.state = s
	return nil
}

func (m *MemoryStore) SaveState(_ context.Context, s State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
	return nil
}

func (m *MemoryStore) SaveProposers(_ context.Context, proposers []contracts.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.proposers = append([]contracts.Address(nil), proposers...)
	return nil
}

func (m *MemoryStore) Load(_ context.Context) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		State:     m.state,
		Entries:   append([]Entry(nil), m.entries...),
		Proposers: append([]contracts.Address(nil), m.proposers...),
	}, nil
}
