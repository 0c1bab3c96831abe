// Package chainsig validates the shape of transaction signatures
// supplied by the execution collaborator. It never verifies the
// signature against a message; the collaborator already confirmed the
// transaction. The checks here only reject values that cannot be real
// signatures, so garbage evidence never reaches the belief learner.
package chainsig

import (
	"bytes"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// signatureLen is the byte length of an ed25519 signature.
const signatureLen = 64

// Plausible reports whether sig looks like a real transaction
// signature: non-empty, base58, decoding to 64 bytes whose R component
// is a canonical curve point encoding.
func Plausible(sig string) bool {
	if sig == "" {
		return false
	}

	raw, err := base58.Decode(sig)
	if err != nil || len(raw) != signatureLen {
		return false
	}

	// The first 32 bytes encode the R point; off-curve encodings are
	// not produced by any real signer. SetBytes tolerates some
	// non-canonical encodings, so require the canonical re-encoding
	// to round-trip.
	point, err := new(edwards25519.Point).SetBytes(raw[:32])
	if err != nil {
		return false
	}
	if !bytes.Equal(point.Bytes(), raw[:32]) {
		return false
	}

	return true
}
