package airlock

import "errors"

// All failures are synchronous, named outcomes. No operation retries
// internally, and every failure leaves the queue state untouched — except
// ErrExecutionFailed, where the cursor advance is deliberately retained
// (see ExecuteNext).
var (
	// ErrNotAuthorized reports a caller outside the role an operation
	// requires: non-administrators on privileged operations,
	// non-proposers on enqueue.
	ErrNotAuthorized = errors.New("airlock: caller not authorized")
	// ErrQueueEmpty reports an execution attempt with no pending entry.
	ErrQueueEmpty = errors.New("airlock: queue empty")
	// ErrStillInCooldown reports an entry younger than the cooldown with
	// no approval credit to bypass it.
	ErrStillInCooldown = errors.New("airlock: entry still in cooldown")
	// ErrExpired reports an entry past its execution window.
	ErrExpired = errors.New("airlock: entry expired")
	// ErrHashMismatch reports revealed action parameters that do not
	// match the stored commitment.
	ErrHashMismatch = errors.New("airlock: commitment hash mismatch")
	// ErrExecutionFailed reports a failure from the execution backend.
	// The queue slot is already consumed when this is returned.
	ErrExecutionFailed = errors.New("airlock: execution backend reported failure")
	// ErrZeroApproval reports an approval of zero entries.
	ErrZeroApproval = errors.New("airlock: approval count must be positive")
	// ErrUnknownEntries reports an approval covering more entries than
	// are pending.
	ErrUnknownEntries = errors.New("airlock: approval exceeds pending entries")
	// ErrNonIncreasingNonce reports a veto target at or behind the
	// current cursor.
	ErrNonIncreasingNonce = errors.New("airlock: new cursor must increase")
	// ErrOutOfRange reports a slot beyond the queue tail.
	ErrOutOfRange = errors.New("airlock: slot out of range")
	// ErrInvalidCooldown reports a negative cooldown.
	ErrInvalidCooldown = errors.New("airlock: cooldown must not be negative")
	// ErrInvalidExpiration reports a nonzero expiration below the
	// 60-second floor.
	ErrInvalidExpiration = errors.New("airlock: expiration below minimum window")
	// ErrInvalidAvatar reports a null avatar identity at construction.
	ErrInvalidAvatar = errors.New("airlock: avatar is the null identity")
	// ErrInvalidTarget reports a null target identity at construction.
	ErrInvalidTarget = errors.New("airlock: target is the null identity")
	// ErrInvalidAdmin reports a null administrator identity.
	ErrInvalidAdmin = errors.New("airlock: administrator is the null identity")
)

// failureReason maps a sentinel to the metric label recorded for it.
func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrNotAuthorized):
		return "not_authorized"
	case errors.Is(err, ErrQueueEmpty):
		return "queue_empty"
	case errors.Is(err, ErrStillInCooldown):
		return "still_in_cooldown"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrHashMismatch):
		return "hash_mismatch"
	case errors.Is(err, ErrExecutionFailed):
		return "execution_failed"
	case errors.Is(err, ErrZeroApproval):
		return "zero_approval"
	case errors.Is(err, ErrUnknownEntries):
		return "unknown_entries"
	case errors.Is(err, ErrNonIncreasingNonce):
		return "non_increasing_nonce"
	case errors.Is(err, ErrOutOfRange):
		return "out_of_range"
	default:
		return "other"
	}
}
