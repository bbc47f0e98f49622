package airlock

import (
	"context"
	"fmt"

	"github.com/airlock-labs/airlock/pkg/contracts"
	"github.com/airlock-labs/airlock/pkg/store"
)

// Enqueue appends a full-transparency commitment at the tail and stamps the
// current time. The caller precomputes the digest with commitment.Hash and
// must be a registered proposer. Returns the slot written.
func (a *Airlock) Enqueue(ctx context.Context, caller contracts.Address, digest contracts.Digest) (uint64, error) {
	return a.enqueue(ctx, caller, digest, false, "")
}

// EnqueueSecret appends a commit-reveal commitment. The digest must
// incorporate the engine's current salt counter (commitment.SecretHash with
// SaltCounter()); the counter is consumed on success. note is an opaque
// off-chain reference carried in the addition event, never interpreted.
func (a *Airlock) EnqueueSecret(ctx context.Context, caller contracts.Address, digest contracts.Digest, note string) (uint64, error) {
	return a.enqueue(ctx, caller, digest, true, note)
}

func (a *Airlock) enqueue(ctx context.Context, caller contracts.Address, digest contracts.Digest, secret bool, note string) (uint64, error) {
	a.mu.Lock()

	if !a.proposers.Contains(caller) {
		a.mu.Unlock()
		a.metrics.Failure(ctx, failureReason(ErrNotAuthorized))
		return 0, fmt.Errorf("%s: %w", caller.Hex(), ErrNotAuthorized)
	}

	now := a.clock.Now()
	slot := a.tailLocked()
	entry := Entry{Commitment: digest, CreatedAt: now}

	next := a.stateLocked()
	next.Tail = slot + 1
	saltUsed := a.salt
	if secret {
		next.SaltCounter = a.salt + 1
	}

	if a.store != nil {
		// The entry and counters land in one atomic write, so a failed
		// enqueue leaves the snapshot loadable.
		if err := a.store.AppendEntry(ctx, store.Entry{Slot: slot, Commitment: digest, CreatedAt: now}, next); err != nil {
			a.mu.Unlock()
			return 0, fmt.Errorf("airlock: persist entry %d: %w", slot, err)
		}
	}

	a.entries = append(a.entries, entry)
	if secret {
		a.salt++
	}
	a.mu.Unlock()

	data := map[string]any{
		"slot":       slot,
		"commitment": digest.Hex(),
	}
	if secret {
		data["salt"] = saltUsed
		data["note"] = note
	}
	a.emit(EventTransactionAdded, caller.Hex(), data)
	a.metrics.Enqueued(ctx, secret)
	return slot, nil
}
