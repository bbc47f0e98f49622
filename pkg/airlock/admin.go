package airlock

import (
	"context"
	"fmt"
	"time"

	"github.com/airlock-labs/airlock/pkg/contracts"
)

// requireAdminLocked gates privileged operations. Callers hold a.mu.
func (a *Airlock) requireAdminLocked(caller contracts.Address) error {
	if caller != a.admin {
		return fmt.Errorf("%s: %w", caller.Hex(), ErrNotAuthorized)
	}
	return nil
}

// RegisterProposer authorizes identity to enqueue entries. Administrator
// only.
func (a *Airlock) RegisterProposer(ctx context.Context, caller, identity contracts.Address) error {
	a.mu.Lock()

	if err := a.requireAdminLocked(caller); err != nil {
		a.mu.Unlock()
		a.metrics.Failure(ctx, failureReason(err))
		return err
	}
	if err := a.proposers.Register(identity); err != nil {
		a.mu.Unlock()
		return err
	}
	if err := a.persistProposers(ctx); err != nil {
		a.mu.Unlock()
		return err
	}
	a.mu.Unlock()

	a.emit(EventProposerRegistered, caller.Hex(), map[string]any{
		"proposer": identity.Hex(),
	})
	return nil
}

// DeregisterProposer revokes identity. prev must be the registry entry
// preceding identity in traversal order (the sentinel for the head).
// Administrator only.
func (a *Airlock) DeregisterProposer(ctx context.Context, caller, prev, identity contracts.Address) error {
	a.mu.Lock()

	if err := a.requireAdminLocked(caller); err != nil {
		a.mu.Unlock()
		a.metrics.Failure(ctx, failureReason(err))
		return err
	}
	if err := a.proposers.Deregister(prev, identity); err != nil {
		a.mu.Unlock()
		return err
	}
	if err := a.persistProposers(ctx); err != nil {
		a.mu.Unlock()
		return err
	}
	a.mu.Unlock()

	a.emit(EventProposerDeregistered, caller.Hex(), map[string]any{
		"proposer": identity.Hex(),
	})
	return nil
}

// SetCooldown changes the minimum age before default execution. Applies to
// pending entries as well: the check always reads the current setting.
// Administrator only.
func (a *Airlock) SetCooldown(ctx context.Context, caller contracts.Address, d time.Duration) error {
	a.mu.Lock()

	if err := a.requireAdminLocked(caller); err != nil {
		a.mu.Unlock()
		a.metrics.Failure(ctx, failureReason(err))
		return err
	}
	if d < 0 {
		a.mu.Unlock()
		return ErrInvalidCooldown
	}
	a.cooldown = d
	a.mu.Unlock()

	a.emit(EventCooldownSet, caller.Hex(), map[string]any{"cooldown": d.String()})
	return nil
}

// SetExpiration changes the execution window. Zero disables expiration;
// nonzero values below 60 seconds are rejected. Administrator only.
func (a *Airlock) SetExpiration(ctx context.Context, caller contracts.Address, d time.Duration) error {
	a.mu.Lock()

	if err := a.requireAdminLocked(caller); err != nil {
		a.mu.Unlock()
		a.metrics.Failure(ctx, failureReason(err))
		return err
	}
	if d != 0 && d < minExpiration {
		a.mu.Unlock()
		return fmt.Errorf("%w: %s < %s", ErrInvalidExpiration, d, minExpiration)
	}
	a.expiration = d
	a.mu.Unlock()

	a.emit(EventExpirationSet, caller.Hex(), map[string]any{"expiration": d.String()})
	return nil
}

// TransferAdmin hands the administrator role to next. Administrator only.
func (a *Airlock) TransferAdmin(ctx context.Context, caller, next contracts.Address) error {
	a.mu.Lock()

	if err := a.requireAdminLocked(caller); err != nil {
		a.mu.Unlock()
		a.metrics.Failure(ctx, failureReason(err))
		return err
	}
	if next.IsZero() {
		a.mu.Unlock()
		return ErrInvalidAdmin
	}
	a.admin = next
	a.mu.Unlock()

	a.emit(EventAdminTransferred, caller.Hex(), map[string]any{
		"from": caller.Hex(),
		"to":   next.Hex(),
	})
	return nil
}
