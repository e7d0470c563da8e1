// Package security holds the small helpers for handling secret material:
// zeroization, constant-time comparison and input validation.
package security

import (
	"crypto/subtle"
	"math/big"
	"runtime"
)

// Zeroizer is implemented by values that hold secrets and can wipe them
type Zeroizer interface {
	Zero()
}

// SecureZero overwrites a byte slice in a way the compiler cannot elide
func SecureZero(data []byte) {
	if len(data) == 0 {
		return
	}

	zeros := make([]byte, len(data))
	subtle.ConstantTimeCopy(1, data, zeros)
	runtime.KeepAlive(data)
}

// SecureZeroBigInt clears the words backing b and sets it to zero
func SecureZeroBigInt(b *big.Int) {
	if b == nil {
		return
	}

	words := b.Bits()
	for i := range words {
		words[i] = 0
	}
	b.SetInt64(0)
	runtime.KeepAlive(words)
}

// ConstantTimeCompare reports whether a and b are equal without leaking
// the position of the first difference
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
