package tss

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Caqil/tss-2p/pkg/keygen"
	"github.com/Caqil/tss-2p/pkg/logger"
	"github.com/Caqil/tss-2p/pkg/signing"
)

// Config holds engine configuration
type Config struct {
	// PaillierBits is the modulus size P1 generates during key generation
	PaillierBits int

	// MinPaillierBits is the smallest modulus P2 accepts from P1
	MinPaillierBits int

	// MaxSessionIDLen bounds session identifiers
	MaxSessionIDLen int

	// Logger receives state transitions and failures (default: discard)
	Logger *logger.Logger

	// Registerer receives the engine's collectors; nil disables export
	Registerer prometheus.Registerer
}

// DefaultConfig returns production settings
func DefaultConfig() *Config {
	ko := keygen.DefaultOptions()
	return &Config{
		PaillierBits:    ko.PaillierBits,
		MinPaillierBits: ko.MinPaillierBits,
		MaxSessionIDLen: ko.MaxSessionIDLen,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.keygenOptions().Validate(); err != nil {
		return err
	}
	if c.PaillierBits < c.MinPaillierBits {
		return fmt.Errorf("paillier modulus (%d bits) below accepted minimum (%d bits)", c.PaillierBits, c.MinPaillierBits)
	}
	return nil
}

func (c *Config) keygenOptions() keygen.Options {
	return keygen.Options{
		PaillierBits:    c.PaillierBits,
		MinPaillierBits: c.MinPaillierBits,
		MaxSessionIDLen: c.MaxSessionIDLen,
	}
}

func (c *Config) signingOptions() signing.Options {
	return signing.Options{MaxSessionIDLen: c.MaxSessionIDLen}
}
