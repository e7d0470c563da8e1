// Package rand provides cryptographically secure random number generation
package rand

import (
	"crypto/rand"
	"io"
	"math/big"
)

// Reader is the default cryptographically secure random number generator
var Reader io.Reader = rand.Reader

// GenerateRandomBytes generates n cryptographically secure random bytes
func GenerateRandomBytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, ErrInvalidLength
	}

	bytes := make([]byte, n)
	if _, err := io.ReadFull(Reader, bytes); err != nil {
		return nil, err
	}

	return bytes, nil
}

// GenerateRandomScalar generates a random scalar in range [1, max)
func GenerateRandomScalar(max *big.Int) (*big.Int, error) {
	if max == nil {
		return nil, ErrNilMax
	}
	if max.Cmp(big.NewInt(1)) <= 0 {
		return nil, ErrInvalidMax
	}

	for {
		value, err := rand.Int(Reader, max)
		if err != nil {
			return nil, err
		}
		if value.Sign() != 0 {
			return value, nil
		}
	}
}

// GenerateBelow generates a uniform integer in [0, max)
func GenerateBelow(max *big.Int) (*big.Int, error) {
	if max == nil {
		return nil, ErrNilMax
	}
	if max.Sign() <= 0 {
		return nil, ErrInvalidMax
	}
	return rand.Int(Reader, max)
}

// GenerateUnit generates a uniform element of the multiplicative group mod n
func GenerateUnit(n *big.Int) (*big.Int, error) {
	if n == nil {
		return nil, ErrNilMax
	}
	if n.Cmp(big.NewInt(2)) <= 0 {
		return nil, ErrInvalidMax
	}

	one := big.NewInt(1)
	gcd := new(big.Int)
	for {
		value, err := rand.Int(Reader, n)
		if err != nil {
			return nil, err
		}
		if value.Sign() == 0 {
			continue
		}
		if gcd.GCD(nil, nil, value, n).Cmp(one) == 0 {
			return value, nil
		}
	}
}

// GeneratePrime generates a random prime of the specified bit size
func GeneratePrime(bits int) (*big.Int, error) {
	if bits < 2 {
		return nil, ErrInvalidBitSize
	}
	return rand.Prime(Reader, bits)
}
