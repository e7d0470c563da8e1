package main

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Caqil/tss-2p/pkg/storage"
	"github.com/Caqil/tss-2p/pkg/tsserr"
)

const testPassword = "correct horse battery 42"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := newApp()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &out
	base := []string{"tss2p", "--log-level", "disabled", "--paillier-bits", "1024"}
	err := app.Run(append(base, args...))
	return strings.TrimSpace(out.String()), err
}

func TestKeygenSignVerify(t *testing.T) {
	dir := t.TempDir()

	pub, err := run(t, "keygen", "--dir", dir, "--password", testPassword, "--session-id", "cli-keygen")
	require.NoError(t, err)
	require.Len(t, pub, 66)
	assert.FileExists(t, filepath.Join(dir, p1ShareFile))
	assert.FileExists(t, filepath.Join(dir, p2ShareFile))

	root, err := run(t, "pubkey", "--dir", dir, "--password", testPassword)
	require.NoError(t, err)
	assert.Equal(t, pub, root)

	sig, err := run(t, "sign", "--dir", dir, "--password", testPassword, "--message", "hello")
	require.NoError(t, err)
	require.Len(t, sig, 128)

	out, err := run(t, "verify", "--pubkey", pub, "--signature", sig, "--message", "hello")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	_, err = run(t, "verify", "--pubkey", pub, "--signature", sig, "--message", "goodbye")
	assert.ErrorIs(t, err, errBadSignature)

	t.Run("derived", func(t *testing.T) {
		child, err := run(t, "pubkey", "--dir", dir, "--password", testPassword, "--path", "m/7/2")
		require.NoError(t, err)
		assert.NotEqual(t, pub, child)

		digest := sha256.Sum256([]byte("child"))
		d := hex.EncodeToString(digest[:])
		sig, err := run(t, "sign", "--dir", dir, "--password", testPassword, "--digest", d, "--path", "m/7/2")
		require.NoError(t, err)

		_, err = run(t, "verify", "--pubkey", child, "--signature", sig, "--digest", d)
		assert.NoError(t, err)
		_, err = run(t, "verify", "--pubkey", pub, "--signature", sig, "--digest", d)
		assert.ErrorIs(t, err, errBadSignature)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := run(t, "sign", "--dir", dir, "--password", "not the password 7", "--message", "hello")
		assert.ErrorIs(t, err, storage.ErrInvalidPassword)
	})

	t.Run("no message", func(t *testing.T) {
		_, err := run(t, "sign", "--dir", dir, "--password", testPassword)
		assert.Error(t, err)
	})
}

func TestPartyKeysCommands(t *testing.T) {
	dir := t.TempDir()
	keys := filepath.Join(dir, "party.keys")

	pub, err := run(t, "partykeys", "new", "--out", keys, "--password", testPassword)
	require.NoError(t, err)

	sig, err := run(t, "partykeys", "sign", "--in", keys, "--password", testPassword, "--message", "ping")
	require.NoError(t, err)

	out, err := run(t, "partykeys", "verify", "--pubkey", pub, "--signature", sig, "--message", "ping")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	_, err = run(t, "partykeys", "verify", "--pubkey", pub, "--signature", sig, "--message", "pong")
	assert.Error(t, err)

	// keygen can reuse stored party keys, which refresh then requires
	joint, err := run(t, "keygen", "--dir", dir, "--password", testPassword, "--party-keys", keys)
	require.NoError(t, err)

	refreshed, err := run(t, "refresh", "--dir", dir, "--password", testPassword, "--party-keys", keys)
	require.NoError(t, err)
	assert.Equal(t, joint, refreshed)

	sig, err = run(t, "sign", "--dir", dir, "--password", testPassword, "--message", "after refresh")
	require.NoError(t, err)
	_, err = run(t, "verify", "--pubkey", joint, "--signature", sig, "--message", "after refresh")
	require.NoError(t, err)

	other := filepath.Join(dir, "other.keys")
	_, err = run(t, "partykeys", "new", "--out", other, "--password", testPassword)
	require.NoError(t, err)
	_, err = run(t, "refresh", "--dir", dir, "--password", testPassword, "--party-keys", other)
	assert.Equal(t, tsserr.MessageSignPk, tsserr.CodeOf(err))
}
