// Package registry tracks the set of identities authorized to propose
// queue entries.
//
// The set is kept as a singly linked structure over a successor map with a
// reserved sentinel marking both the empty value and the list head/tail
// wrap point. Membership is equivalent to having a non-zero successor
// recorded, which makes removal require the predecessor (classic linked
// list unlink) and gives pagination a restartable traversal order.
package registry

import (
	"errors"

	"github.com/airlock-labs/airlock/pkg/contracts"
)

var (
	// ErrInvalidIdentity reports the zero or sentinel identity where a
	// real proposer is required.
	ErrInvalidIdentity = errors.New("registry: invalid identity")
	// ErrAlreadyRegistered reports a duplicate registration.
	ErrAlreadyRegistered = errors.New("registry: identity already registered")
	// ErrNotRegistered reports an identity that was never registered.
	ErrNotRegistered = errors.New("registry: identity not registered")
	// ErrInvalidPrevious reports a deregistration whose supplied
	// predecessor does not point at the identity being removed.
	ErrInvalidPrevious = errors.New("registry: previous identity does not precede target")
	// ErrInvalidPageSize reports a non-positive pagination page size.
	ErrInvalidPageSize = errors.New("registry: page size must be positive")
)

// Registry is the authorized-proposer set. Not safe for concurrent use;
// the owning engine serializes access.
type Registry struct {
	next map[contracts.Address]contracts.Address
}

// New returns an empty registry with the sentinel wrapped onto itself.
func New() *Registry {
	return &Registry{
		next: map[contracts.Address]contracts.Address{
			contracts.SentinelAddress: contracts.SentinelAddress,
		},
	}
}

// Register adds identity to the set, inserting it at the head of the
// traversal order.
func (r *Registry) Register(identity contracts.Address) error {
	if identity.IsZero() || identity.IsSentinel() {
		return ErrInvalidIdentity
	}
	if !r.next[identity].IsZero() {
		return ErrAlreadyRegistered
	}
	r.next[identity] = r.next[contracts.SentinelAddress]
	r.next[contracts.SentinelAddress] = identity
	return nil
}

// Deregister removes identity from the set. prev must be the entry whose
// recorded successor is identity; pass the sentinel when identity is at
// the head of the traversal order.
func (r *Registry) Deregister(prev, identity contracts.Address) error {
	if identity.IsZero() || identity.IsSentinel() {
		return ErrInvalidIdentity
	}
	if r.next[identity].IsZero() {
		return ErrNotRegistered
	}
	if r.next[prev] != identity {
		return ErrInvalidPrevious
	}
	r.next[prev] = r.next[identity]
	delete(r.next, identity)
	return nil
}

// Contains reports whether identity is registered.
func (r *Registry) Contains(identity contracts.Address) bool {
	return !identity.IsSentinel() && !r.next[identity].IsZero()
}

// Paginated walks the set starting after start (sentinel means "from the
// beginning") and returns at most pageSize identities plus a continuation
// cursor. The cursor is the last identity returned, or the sentinel once
// the traversal is exhausted.
func (r *Registry) Paginated(start contracts.Address, pageSize int) ([]contracts.Address, contracts.Address, error) {
	if pageSize <= 0 {
		return nil, contracts.SentinelAddress, ErrInvalidPageSize
	}
	if !start.IsSentinel() && !r.Contains(start) {
		return nil, contracts.SentinelAddress, ErrNotRegistered
	}

	page := make([]contracts.Address, 0, pageSize)
	cur := r.next[start]
	for len(page) < pageSize && !cur.IsSentinel() {
		page = append(page, cur)
		cur = r.next[cur]
	}

	if cur.IsSentinel() {
		return page, contracts.SentinelAddress, nil
	}
	return page, page[len(page)-1], nil
}

// All returns every registered identity in traversal order.
func (r *Registry) All() []contracts.Address {
	var out []contracts.Address
	for cur := r.next[contracts.SentinelAddress]; !cur.IsSentinel(); cur = r.next[cur] {
		out = append(out, cur)
	}
	return out
}

// Len returns the number of registered identities.
func (r *Registry) Len() int { return len(r.next) - 1 }
