package otp

import (
	"crypto/rand"
	"errors"
	"math/big"

	"github.com/addisride/identity/internal/pkg/hash"
)

// DefaultLength is used when NewNumeric receives a non-positive code length.
const DefaultLength = 6

// ErrDigestEqualsPlaintext guards against a misconfigured digest function
// that would persist the code itself.
var ErrDigestEqualsPlaintext = errors.New("otp: digest equals plaintext")

// Code is a generated one-time password together with its digest.
//
// Plaintext is transmitted once and never stored; Digest is what the
// challenge store persists.
type Code struct {
	Plaintext string
	Digest    string
}

// Generator defines the contract for producing one-time passwords.
type Generator interface {
	// Generate creates a new numeric code and its digest.
	Generate() (Code, error)
}

// Numeric implements Generator with fixed-length decimal codes drawn from
// crypto/rand.
type Numeric struct {
	length int
	hasher hash.Hash
}

// NewNumeric constructs a Numeric generator.
//
// If length is not positive, it falls back to DefaultLength (6 digits).
func NewNumeric(length int, hasher hash.Hash) *Numeric {
	if length <= 0 {
		length = DefaultLength
	}

	return &Numeric{length: length, hasher: hasher}
}

var ten = big.NewInt(10)

// Generate creates a new numeric code and its digest.
func (g *Numeric) Generate() (Code, error) {
	buf := make([]byte, g.length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return Code{}, err
		}
		buf[i] = byte('0' + n.Int64())
	}

	plaintext := string(buf)

	digest, err := g.hasher.Hash(plaintext)
	if err != nil {
		return Code{}, err
	}

	if string(digest) == plaintext {
		return Code{}, ErrDigestEqualsPlaintext
	}

	return Code{Plaintext: plaintext, Digest: string(digest)}, nil
}
