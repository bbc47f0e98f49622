package airlock

import (
	"context"
	"fmt"

	"github.com/airlock-labs/airlock/pkg/contracts"
)

// VetoUpTo permanently cancels every pending entry below newCursor by
// advancing the cursor past them. Vetoing n entries forfeits up to n
// pending approval credits: those credits were earmarked for entries that
// no longer exist ahead of the cursor. Administrator only.
func (a *Airlock) VetoUpTo(ctx context.Context, caller contracts.Address, newCursor uint64) error {
	a.mu.Lock()

	if err := a.requireAdminLocked(caller); err != nil {
		a.mu.Unlock()
		a.metrics.Failure(ctx, failureReason(err))
		return err
	}
	from, delta, err := a.vetoLocked(ctx, newCursor)
	if err != nil {
		a.mu.Unlock()
		a.metrics.Failure(ctx, failureReason(err))
		return err
	}
	a.mu.Unlock()

	a.emit(EventTransactionsVetoed, caller.Hex(), map[string]any{
		"fromSlot": from,
		"count":    delta,
	})
	a.metrics.Vetoed(ctx, delta)
	return nil
}

// vetoLocked performs the cursor advance and credit forfeiture, returning
// the old cursor and the number of cancelled entries. Callers hold a.mu
// and have verified the administrator.
func (a *Airlock) vetoLocked(ctx context.Context, newCursor uint64) (from, delta uint64, err error) {
	if newCursor <= a.cursor {
		return 0, 0, fmt.Errorf("new cursor %d at or behind cursor %d: %w", newCursor, a.cursor, ErrNonIncreasingNonce)
	}
	if tail := a.tailLocked(); newCursor > tail {
		return 0, 0, fmt.Errorf("new cursor %d beyond tail %d: %w", newCursor, tail, ErrOutOfRange)
	}

	delta = newCursor - a.cursor
	approved := a.approved
	if delta >= approved {
		approved = 0
	} else {
		approved -= delta
	}

	next := a.stateLocked()
	next.Cursor = newCursor
	next.ApprovedCount = approved
	if err := a.persistState(ctx, next); err != nil {
		return 0, 0, err
	}

	from = a.cursor
	a.cursor = newCursor
	a.approved = approved
	return from, delta, nil
}

// ApproveNext grants n pending entries, counted from the cursor, a bypass
// of the cooldown requirement. The count is absolute, not additive; each
// successful execution consumes one credit. Administrator only.
func (a *Airlock) ApproveNext(ctx context.Context, caller contracts.Address, n uint64) error {
	a.mu.Lock()

	if err := a.requireAdminLocked(caller); err != nil {
		a.mu.Unlock()
		a.metrics.Failure(ctx, failureReason(err))
		return err
	}
	cursor, err := a.approveLocked(ctx, n)
	if err != nil {
		a.mu.Unlock()
		a.metrics.Failure(ctx, failureReason(err))
		return err
	}
	a.mu.Unlock()

	a.emit(EventTransactionsApproved, caller.Hex(), map[string]any{
		"cursor": cursor,
		"count":  n,
	})
	a.metrics.Approved(ctx, n)
	return nil
}

// approveLocked performs the credit grant and returns the cursor the grant
// applies from. Callers hold a.mu and have verified the administrator.
func (a *Airlock) approveLocked(ctx context.Context, n uint64) (uint64, error) {
	if n == 0 {
		return 0, ErrZeroApproval
	}
	if pending := a.tailLocked() - a.cursor; n > pending {
		return 0, fmt.Errorf("approving %d of %d pending: %w", n, pending, ErrUnknownEntries)
	}

	next := a.stateLocked()
	next.ApprovedCount = n
	if err := a.persistState(ctx, next); err != nil {
		return 0, err
	}

	a.approved = n
	return a.cursor, nil
}

// VetoUpToAndApprove composes a veto with an approval of the entries now
// at the head. The veto leg is skipped when newCursor equals the current
// cursor; the approval always applies from the possibly-advanced cursor.
// Both legs are validated before either commits, so a rejected approval
// leaves no partial veto behind. Administrator only.
func (a *Airlock) VetoUpToAndApprove(ctx context.Context, caller contracts.Address, newCursor, approveCount uint64) error {
	a.mu.Lock()

	fail := func(err error) error {
		a.mu.Unlock()
		a.metrics.Failure(ctx, failureReason(err))
		return err
	}

	if err := a.requireAdminLocked(caller); err != nil {
		return fail(err)
	}
	if newCursor < a.cursor {
		return fail(fmt.Errorf("new cursor %d behind cursor %d: %w", newCursor, a.cursor, ErrNonIncreasingNonce))
	}
	tail := a.tailLocked()
	if newCursor > tail {
		return fail(fmt.Errorf("new cursor %d beyond tail %d: %w", newCursor, tail, ErrOutOfRange))
	}
	if approveCount == 0 {
		return fail(ErrZeroApproval)
	}
	if pending := tail - newCursor; approveCount > pending {
		return fail(fmt.Errorf("approving %d of %d pending: %w", approveCount, pending, ErrUnknownEntries))
	}

	next := a.stateLocked()
	next.Cursor = newCursor
	next.ApprovedCount = approveCount
	if err := a.persistState(ctx, next); err != nil {
		a.mu.Unlock()
		return err
	}

	from := a.cursor
	delta := newCursor - from
	a.cursor = newCursor
	a.approved = approveCount
	a.mu.Unlock()

	if delta > 0 {
		a.emit(EventTransactionsVetoed, caller.Hex(), map[string]any{
			"fromSlot": from,
			"count":    delta,
		})
		a.metrics.Vetoed(ctx, delta)
	}
	a.emit(EventTransactionsApproved, caller.Hex(), map[string]any{
		"cursor": newCursor,
		"count":  approveCount,
	})
	a.metrics.Approved(ctx, approveCount)
	return nil
}
