package airlock

import (
	"context"
	"fmt"
	"time"

	"github.com/airlock-labs/airlock/pkg/commitment"
	"github.com/airlock-labs/airlock/pkg/contracts"
)

// headReady checks whether the entry at the cursor is executable at now.
// Pure read; the approval credit is consumed only when the gate commits.
//
// Order matters: the expiration check runs after the cooldown/approval
// check, so an approved-but-expired entry still fails with ErrExpired.
func (a *Airlock) headReady(now time.Time) error {
	if a.cursor == a.tailLocked() {
		return ErrQueueEmpty
	}
	e := a.entries[a.cursor]
	if a.approved == 0 && now.Sub(e.CreatedAt) < a.cooldown {
		return fmt.Errorf("slot %d: %w", a.cursor, ErrStillInCooldown)
	}
	if a.expiration != 0 && e.CreatedAt.Add(a.cooldown).Add(a.expiration).Before(now) {
		return fmt.Errorf("slot %d: %w", a.cursor, ErrExpired)
	}
	return nil
}

// ExecuteNext reveals the action behind the entry at the cursor and, if it
// passes the timing policy and matches the stored commitment, advances the
// cursor and delegates to the execution backend.
//
// The cursor advances before the backend is invoked, so a failing backend
// still permanently consumes the slot: ErrExecutionFailed is the one
// failure that retains a state change. Rolling back instead would let a
// permanently failing action block the whole queue; callers re-enqueue if
// they want a retry.
func (a *Airlock) ExecuteNext(ctx context.Context, action contracts.Action) error {
	digest, err := commitment.Hash(action)
	if err != nil {
		return err
	}
	return a.executeHead(ctx, action, digest)
}

// ExecuteNextSecret is ExecuteNext for commit-reveal entries: the caller
// supplies the original salt alongside the revealed parameters.
func (a *Airlock) ExecuteNextSecret(ctx context.Context, action contracts.Action, salt uint64) error {
	digest, err := commitment.SecretHash(action, salt)
	if err != nil {
		return err
	}
	return a.executeHead(ctx, action, digest)
}

func (a *Airlock) executeHead(ctx context.Context, action contracts.Action, digest contracts.Digest) error {
	a.mu.Lock()

	now := a.clock.Now()
	if err := a.headReady(now); err != nil {
		a.mu.Unlock()
		a.metrics.Failure(ctx, failureReason(err))
		return err
	}

	slot := a.cursor
	if a.entries[slot].Commitment != digest {
		a.mu.Unlock()
		a.metrics.Failure(ctx, failureReason(ErrHashMismatch))
		return fmt.Errorf("slot %d: %w", slot, ErrHashMismatch)
	}

	next := a.stateLocked()
	next.Cursor = slot + 1
	if next.ApprovedCount > 0 {
		next.ApprovedCount--
	}
	if err := a.persistState(ctx, next); err != nil {
		a.mu.Unlock()
		return err
	}

	// Consume one approval credit and advance the cursor before calling
	// out, so a re-entrant backend observes consistent queue bounds.
	if a.approved > 0 {
		a.approved--
	}
	a.cursor = slot + 1
	exec := a.executor
	a.mu.Unlock()

	ok, callErr := exec.PerformCall(ctx, action)
	success := ok && callErr == nil

	a.emit(EventTransactionExecuted, "", map[string]any{
		"slot":       slot,
		"commitment": digest.Hex(),
		"success":    success,
	})
	a.metrics.Executed(ctx, success)

	if callErr != nil {
		return fmt.Errorf("slot %d: %w: %v", slot, ErrExecutionFailed, callErr)
	}
	if !ok {
		return fmt.Errorf("slot %d: %w", slot, ErrExecutionFailed)
	}
	return nil
}

// SkipExpired advances the cursor past every already-expired entry without
// executing anything. Callable by anyone; a no-op when expiration is
// disabled or nothing has expired. Returns the number of entries skipped.
//
// Approval credits are not consumed per skipped entry, but the count is
// saturated at the number of entries still pending so the queue invariant
// approved <= tail-cursor survives.
func (a *Airlock) SkipExpired(ctx context.Context) uint64 {
	a.mu.Lock()

	now := a.clock.Now()
	from := a.cursor
	cur := a.cursor
	tail := a.tailLocked()
	for a.expiration != 0 && cur < tail &&
		a.entries[cur].CreatedAt.Add(a.cooldown).Add(a.expiration).Before(now) {
		cur++
	}
	if cur == from {
		a.mu.Unlock()
		return 0
	}

	approved := a.approved
	if pending := tail - cur; approved > pending {
		approved = pending
	}

	next := a.stateLocked()
	next.Cursor = cur
	next.ApprovedCount = approved
	if err := a.persistState(ctx, next); err != nil {
		// SkipExpired never fails; the in-memory state is authoritative.
		a.logger.Error("skip-expired persist failed", "error", err)
	}

	a.cursor = cur
	a.approved = approved
	a.mu.Unlock()

	a.emit(EventExpiredSkipped, "", map[string]any{
		"from": from,
		"to":   cur,
	})
	a.metrics.Skipped(ctx, cur-from)
	return cur - from
}
