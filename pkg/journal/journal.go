// Package journal — append-only, hash-chained event journal.
//
// Every observable queue event (setup, additions, approvals, vetoes,
// executions, skips, registry changes) is appended here. Each record is
// hash-chained to its predecessor, so a verifier can replay the chain and
// detect tampering or reordering. Records are never mutated or deleted.
package journal

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// genesisHash seeds the chain before any record exists.
const genesisHash = "genesis"

// Record is an immutable, hash-chained journal entry.
type Record struct {
	Sequence    uint64         `json:"sequence"`
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Actor       string         `json:"actor,omitempty"`
	Data        map[string]any `json:"data"`
	ContentHash string         `json:"content_hash"`
	PrevHash    string         `json:"prev_hash"`
	At          time.Time      `json:"at"`
}

// Journal is an append-only, hash-chained log of queue events.
type Journal struct {
	mu       sync.RWMutex
	records  []Record
	headHash string
	clock    func() time.Time
}

// New creates an empty journal.
func New() *Journal {
	return &Journal{
		records:  make([]Record, 0),
		headHash: genesisHash,
		clock:    time.Now,
	}
}

// WithClock overrides the clock for deterministic testing.
func (j *Journal) WithClock(clock func() time.Time) *Journal {
	j.clock = clock
	return j
}

// Append adds a record to the journal and returns its sequence number.
func (j *Journal) Append(recordType, actor string, data map[string]any) (Record, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	seq := uint64(len(j.records)) + 1
	contentHash, err := chainHash(seq, recordType, actor, data, j.headHash)
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		Sequence:    seq,
		ID:          uuid.New().String(),
		Type:        recordType,
		Actor:       actor,
		Data:        data,
		ContentHash: contentHash,
		PrevHash:    j.headHash,
		At:          j.clock(),
	}

	j.records = append(j.records, rec)
	j.headHash = contentHash
	return rec, nil
}

// Records returns a copy of all records in append order.
func (j *Journal) Records() []Record {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]Record, len(j.records))
	copy(out, j.records)
	return out
}

// Head returns the hash of the most recent record, or the genesis seed.
func (j *Journal) Head() string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.headHash
}

// Len returns the number of records.
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.records)
}

// Verify replays the chain and reports the first break, if any.
func (j *Journal) Verify() error {
	j.mu.RLock()
	defer j.mu.RUnlock()

	prev := genesisHash
	for i, rec := range j.records {
		if rec.Sequence != uint64(i)+1 {
			return fmt.Errorf("journal: record %d: sequence %d out of order", i, rec.Sequence)
		}
		if rec.PrevHash != prev {
			return fmt.Errorf("journal: record %d: prev hash mismatch", i)
		}
		want, err := chainHash(rec.Sequence, rec.Type, rec.Actor, rec.Data, rec.PrevHash)
		if err != nil {
			return err
		}
		if rec.ContentHash != want {
			return fmt.Errorf("journal: record %d: content hash mismatch", i)
		}
		prev = rec.ContentHash
	}
	if j.headHash != prev {
		return fmt.Errorf("journal: head hash does not match last record")
	}
	return nil
}

func chainHash(seq uint64, recordType, actor string, data map[string]any, prev string) (string, error) {
	preimage := struct {
		Seq   uint64         `json:"seq"`
		Type  string         `json:"type"`
		Actor string         `json:"actor"`
		Data  map[string]any `json:"data"`
		Prev  string         `json:"prev"`
	}{seq, recordType, actor, data, prev}

	raw, err := json.Marshal(preimage)
	if err != nil {
		return "", fmt.Errorf("journal: marshal record: %w", err)
	}
	sum := sha256.Sum256(raw)
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}
