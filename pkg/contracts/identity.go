// Package contracts defines the shared data model of the airlock queue:
// caller identities, commitment digests, and the action envelope handed to
// the execution backend.
package contracts

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// AddressLength is the byte length of an identity.
const AddressLength = 20

// Address identifies a caller: the administrator, a proposer, or an
// execution target.
type Address [AddressLength]byte

var (
	// ZeroAddress is the null identity. It is never a valid participant.
	ZeroAddress = Address{}

	// SentinelAddress marks the head/tail wrap point of the proposer
	// registry and the "start from the beginning" pagination cursor.
	// It is reserved and never a valid proposer.
	SentinelAddress = Address{19: 0x01}
)

// ErrBadAddress reports a malformed hex identity.
var ErrBadAddress = errors.New("contracts: malformed address")

// ParseAddress decodes a 20-byte identity from its hex form, with or
// without a 0x prefix.
func ParseAddress(s string) (Address, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	b, err := hex.DecodeString(raw)
	if err != nil {
		return ZeroAddress, fmt.Errorf("%w: %q", ErrBadAddress, s)
	}
	if len(b) != AddressLength {
		return ZeroAddress, fmt.Errorf("%w: want %d bytes, got %d", ErrBadAddress, AddressLength, len(b))
	}
	var a Address
	copy(a[:], b)
	return a, nil
}

// Hex returns the 0x-prefixed lowercase hex form.
func (a Address) Hex() string { return "0x" + hex.EncodeToString(a[:]) }

// IsZero reports whether a is the null identity.
func (a Address) IsZero() bool { return a == ZeroAddress }

// IsSentinel reports whether a is the reserved registry sentinel.
func (a Address) IsSentinel() bool { return a == SentinelAddress }

func (a Address) String() string { return a.Hex() }

// MarshalText implements encoding.TextMarshaler so addresses round-trip
// through JSON and YAML as hex strings.
func (a Address) MarshalText() ([]byte, error) { return []byte(a.Hex()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
