package contracts

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// DigestLength is the byte length of a commitment digest.
const DigestLength = 32

// Digest is a commitment hash: a collision-resistant binding of an action's
// parameters stored in the queue in place of the full action.
type Digest [DigestLength]byte

// ZeroDigest is the empty commitment.
var ZeroDigest = Digest{}

// ErrBadDigest reports a malformed hex digest.
var ErrBadDigest = errors.New("contracts: malformed digest")

// ParseDigest decodes a 32-byte digest from its hex form, with or without
// a 0x prefix.
func ParseDigest(s string) (Digest, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	b, err := hex.DecodeString(raw)
	if err != nil {
		return ZeroDigest, fmt.Errorf("%w: %q", ErrBadDigest, s)
	}
	if len(b) != DigestLength {
		return ZeroDigest, fmt.Errorf("%w: want %d bytes, got %d", ErrBadDigest, DigestLength, len(b))
	}
	var d Digest
	copy(d[:], b)
	return d, nil
}

// Hex returns the 0x-prefixed lowercase hex form.
func (d Digest) Hex() string { return "0x" + hex.EncodeToString(d[:]) }

// IsZero reports whether d is the empty commitment.
func (d Digest) IsZero() bool { return d == ZeroDigest }

func (d Digest) String() string { return d.Hex() }

// MarshalText implements encoding.TextMarshaler.
func (d Digest) MarshalText() ([]byte, error) { return []byte(d.Hex()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Digest) UnmarshalText(text []byte) error {
	parsed, err := ParseDigest(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// CallType selects how the execution backend performs an action.
type CallType uint8

const (
	// CallTypeCall is a plain call against the destination.
	CallTypeCall CallType = iota
	// CallTypeDelegate executes the destination's code in the avatar's
	// own context.
	CallTypeDelegate
)

// Valid reports whether c is a known call type.
func (c CallType) Valid() bool { return c == CallTypeCall || c == CallTypeDelegate }

func (c CallType) String() string {
	switch c {
	case CallTypeCall:
		return "call"
	case CallTypeDelegate:
		return "delegatecall"
	default:
		return fmt.Sprintf("calltype(%d)", uint8(c))
	}
}

// Action is the full description of a proposed side effect. The queue never
// stores it; only its commitment digest. The action itself is revealed at
// execution time and handed to the execution backend verbatim.
type Action struct {
	To       Address  `json:"to"`
	Value    uint64   `json:"value"`
	Payload  []byte   `json:"payload,omitempty"`
	CallType CallType `json:"callType"`
}
