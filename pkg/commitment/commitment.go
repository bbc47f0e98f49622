// Package commitment computes the collision-resistant digests the queue
// stores in place of full actions. Proposers compute the same digest
// client-side before enqueueing; the execution gate recomputes it from the
// revealed action and compares.
//
// The digest is Keccak-256 over the RFC 8785 (JCS) canonical JSON form of
// the action parameters, so independent implementations agree byte-for-byte
// on the preimage regardless of field order or whitespace.
package commitment

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/gowebpki/jcs"
	"golang.org/x/crypto/sha3"

	"github.com/airlock-labs/airlock/pkg/contracts"
)

// envelope is the hash preimage. 64-bit values travel as decimal strings:
// JCS renders JSON numbers as ES6 doubles, which cannot carry a full uint64.
type envelope struct {
	To       string  `json:"to"`
	Value    string  `json:"value"`
	Payload  string  `json:"payload"`
	CallType uint8   `json:"callType"`
	Salt     *string `json:"salt,omitempty"`
}

// Hash returns the commitment digest for a full-transparency enqueue.
// Deterministic: identical actions always produce identical digests.
func Hash(a contracts.Action) (contracts.Digest, error) {
	return digest(a, nil)
}

// SecretHash returns the commitment digest for a commit-reveal enqueue.
// The salt binds the digest to one secret submission, so two secret
// proposals with identical parameters still commit to distinct digests.
func SecretHash(a contracts.Action, salt uint64) (contracts.Digest, error) {
	s := strconv.FormatUint(salt, 10)
	return digest(a, &s)
}

func digest(a contracts.Action, salt *string) (contracts.Digest, error) {
	env := envelope{
		To:       a.To.Hex(),
		Value:    strconv.FormatUint(a.Value, 10),
		Payload:  base64.StdEncoding.EncodeToString(a.Payload),
		CallType: uint8(a.CallType),
		Salt:     salt,
	}

	raw, err := json.Marshal(env)
	if err != nil {
		return contracts.ZeroDigest, fmt.Errorf("commitment: marshal preimage: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return contracts.ZeroDigest, fmt.Errorf("commitment: canonicalize preimage: %w", err)
	}

	h := sha3.NewLegacyKeccak256()
	h.Write(canonical)

	var d contracts.Digest
	copy(d[:], h.Sum(nil))
	return d, nil
}
