package main

import (
	"os"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/Caqil/tss-2p/pkg/logger"
	"github.com/Caqil/tss-2p/pkg/tss"
)

var flagLogLevel = &cli.StringFlag{
	Name:    "log-level",
	Value:   "warn",
	Usage:   "log level: debug, info, warn, error, disabled",
	EnvVars: []string{"TSS2P_LOG_LEVEL"},
}

var flagLogPretty = &cli.BoolFlag{
	Name:    "log-pretty",
	Usage:   "human-readable log output instead of JSON",
	EnvVars: []string{"TSS2P_LOG_PRETTY"},
}

var flagPaillierBits = &cli.IntFlag{
	Name:    "paillier-bits",
	Value:   2048,
	Usage:   "Paillier modulus size generated and accepted during key generation",
	EnvVars: []string{"TSS2P_PAILLIER_BITS"},
}

var flagDir = &cli.StringFlag{
	Name:    "dir",
	Value:   ".",
	Usage:   "directory holding p1.share and p2.share",
	EnvVars: []string{"TSS2P_DIR"},
}

var flagPassword = &cli.StringFlag{
	Name:     "password",
	Usage:    "password protecting stored shares",
	EnvVars:  []string{"TSS2P_PASSWORD"},
	Required: true,
}

var flagSessionID = &cli.StringFlag{
	Name:  "session-id",
	Usage: "session identifier (default: random UUID)",
}

var flagPath = &cli.StringFlag{
	Name:  "path",
	Usage: "non-hardened derivation path, e.g. m/0/1",
}

var flagMessage = &cli.StringFlag{
	Name:  "message",
	Usage: "message to hash with SHA-256 and sign",
}

var flagDigest = &cli.StringFlag{
	Name:  "digest",
	Usage: "hex-encoded 32-byte digest (overrides --message)",
}

var flagPublicKey = &cli.StringFlag{
	Name:     "pubkey",
	Usage:    "hex-encoded public key",
	Required: true,
}

var flagSignature = &cli.StringFlag{
	Name:     "signature",
	Usage:    "hex-encoded signature",
	Required: true,
}

var flagOut = &cli.StringFlag{
	Name:     "out",
	Usage:    "file to write",
	Required: true,
}

var flagIn = &cli.StringFlag{
	Name:     "in",
	Usage:    "file to read",
	Required: true,
}

var flagPartyKeys = &cli.StringFlag{
	Name:  "party-keys",
	Usage: "stored party keys to authenticate P1 (default: generate fresh keys)",
}

var flagRefreshPartyKeys = &cli.StringFlag{
	Name:     "party-keys",
	Usage:    "stored party keys the shares were generated with",
	Required: true,
}

var globalFlags = []cli.Flag{
	flagLogLevel,
	flagLogPretty,
	flagPaillierBits,
}

func setupLogger(cCtx *cli.Context) *logger.Logger {
	return logger.New(&logger.Config{
		Level:  cCtx.String(flagLogLevel.Name),
		Output: os.Stderr,
		Pretty: cCtx.Bool(flagLogPretty.Name),
	})
}

func setupEngine(cCtx *cli.Context) (*tss.Engine, error) {
	cfg := tss.DefaultConfig()
	cfg.PaillierBits = cCtx.Int(flagPaillierBits.Name)
	if cfg.PaillierBits < cfg.MinPaillierBits {
		cfg.MinPaillierBits = cfg.PaillierBits
	}
	cfg.Logger = setupLogger(cCtx)
	return tss.NewEngine(cfg)
}

func sessionID(cCtx *cli.Context) []byte {
	if sid := cCtx.String(flagSessionID.Name); sid != "" {
		return []byte(sid)
	}
	return []byte(uuid.Must(uuid.NewRandom()).String())
}
