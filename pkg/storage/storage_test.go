package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Caqil/tss-2p/internal/wire"
	"github.com/Caqil/tss-2p/pkg/partykeys"
)

const password = "correct-horse-42"

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig(filepath.Join(t.TempDir(), "share.json"))
	cfg.Argon2Time = 1
	cfg.Argon2Memory = 8 * 1024
	cfg.Argon2Threads = 1
	return cfg
}

func testObject(t *testing.T) []byte {
	t.Helper()
	pk, err := partykeys.New()
	require.NoError(t, err)
	return pk.Bytes()
}

func newStorage(t *testing.T) *FileStorage {
	t.Helper()
	fs, err := NewFileStorage(testConfig(t))
	require.NoError(t, err)
	return fs
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/tmp/test.key")
	assert.Equal(t, "/tmp/test.key", cfg.FilePath)
	assert.Equal(t, os.FileMode(0600), cfg.FileMode)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty file path", func(c *Config) { c.FilePath = "" }},
		{"group readable", func(c *Config) { c.FileMode = 0640 }},
		{"zero time cost", func(c *Config) { c.Argon2Time = 0 }},
		{"low memory", func(c *Config) { c.Argon2Memory = 1024 }},
		{"zero threads", func(c *Config) { c.Argon2Threads = 0 }},
		{"short minimum password", func(c *Config) { c.MinPasswordLength = 4 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig("/tmp/x")
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
			_, err := NewFileStorage(cfg)
			assert.Error(t, err)
		})
	}
}

func TestPasswordValidation(t *testing.T) {
	cfg := DefaultConfig("/tmp/x")
	assert.NoError(t, cfg.validatePassword(password))
	assert.ErrorIs(t, cfg.validatePassword("short1"), ErrWeakPassword)
	assert.ErrorIs(t, cfg.validatePassword("onlylettersinhere"), ErrWeakPassword)
	assert.ErrorIs(t, cfg.validatePassword("123456789012345"), ErrWeakPassword)
}

func TestSaveAndLoad(t *testing.T) {
	fs := newStorage(t)
	obj := testObject(t)

	assert.False(t, fs.Exists())
	require.NoError(t, fs.Save(obj, password))
	assert.True(t, fs.Exists())

	info, err := os.Stat(fs.config.FilePath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	got, err := fs.Load(password)
	require.NoError(t, err)
	assert.Equal(t, obj, got)

	_, err = fs.Load("wrong-password-1")
	assert.ErrorIs(t, err, ErrInvalidPassword)
	assert.ErrorIs(t, fs.Verify("wrong-password-1"), ErrInvalidPassword)
	assert.NoError(t, fs.Verify(password))
}

func TestSaveRejects(t *testing.T) {
	fs := newStorage(t)

	assert.ErrorIs(t, fs.Save([]byte("not an object"), password), ErrUnsupportedObject)

	msg := wire.NewWriter(wire.KindSignMsg4).Bytes([]byte{1}).Finish()
	assert.ErrorIs(t, fs.Save(msg, password), ErrUnsupportedObject)

	assert.ErrorIs(t, fs.Save(testObject(t), "weak"), ErrWeakPassword)
	assert.False(t, fs.Exists())
}

func TestLoadMissing(t *testing.T) {
	fs := newStorage(t)
	_, err := fs.Load(password)
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.ErrorIs(t, fs.Delete(), ErrObjectNotFound)
	_, err = fs.GetMetadata()
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestMetadataIsAuthenticated(t *testing.T) {
	fs := newStorage(t)
	require.NoError(t, fs.Save(testObject(t), password))

	meta, err := fs.GetMetadata()
	require.NoError(t, err)
	assert.Equal(t, FormatVersion, meta.Version)
	assert.Equal(t, wire.KindPartyKeys.String(), meta.Kind)
	assert.Equal(t, "Argon2id", meta.KDFAlg)
	assert.Len(t, meta.Checksum, 32)

	rewrite := func(edit func(*envelope)) {
		data, err := os.ReadFile(fs.config.FilePath)
		require.NoError(t, err)
		var env envelope
		require.NoError(t, json.Unmarshal(data, &env))
		edit(&env)
		data, err = json.Marshal(&env)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(fs.config.FilePath, data, 0600))
	}

	rewrite(func(env *envelope) { env.Metadata.Kind = wire.KindKeyShareP1.String() })
	_, err = fs.Load(password)
	assert.ErrorIs(t, err, ErrInvalidPassword)

	rewrite(func(env *envelope) {
		env.Metadata.Kind = wire.KindPartyKeys.String()
		env.Ciphertext[0] ^= 1
	})
	_, err = fs.Load(password)
	assert.ErrorIs(t, err, ErrChecksumMismatch)

	rewrite(func(env *envelope) { env.Metadata.Version = "1.0" })
	_, err = fs.Load(password)
	assert.ErrorIs(t, err, ErrVersionMismatch)

	require.NoError(t, os.WriteFile(fs.config.FilePath, []byte("{"), 0600))
	_, err = fs.Load(password)
	assert.ErrorIs(t, err, ErrStorageCorrupted)
}

func TestPermissionsEnforced(t *testing.T) {
	fs := newStorage(t)
	require.NoError(t, fs.Save(testObject(t), password))
	require.NoError(t, os.Chmod(fs.config.FilePath, 0644))

	_, err := fs.Load(password)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestBackupRestore(t *testing.T) {
	fs := newStorage(t)
	obj := testObject(t)
	require.NoError(t, fs.Save(obj, password))

	backup := filepath.Join(t.TempDir(), "backup.json")
	require.NoError(t, fs.Backup(backup))

	require.NoError(t, fs.Save(testObject(t), password))
	assert.ErrorIs(t, fs.Restore(backup, "wrong-password-1"), ErrRestoreFailed)
	require.NoError(t, fs.Restore(backup, password))

	got, err := fs.Load(password)
	require.NoError(t, err)
	assert.Equal(t, obj, got)

	assert.ErrorIs(t, fs.Restore(filepath.Join(t.TempDir(), "missing"), password), ErrRestoreFailed)
}

func TestChangePassword(t *testing.T) {
	fs := newStorage(t)
	obj := testObject(t)
	require.NoError(t, fs.Save(obj, password))
	before, err := fs.GetMetadata()
	require.NoError(t, err)

	const next = "battery-staple-77"
	assert.ErrorIs(t, fs.ChangePassword("wrong-password-1", next), ErrInvalidPassword)
	assert.ErrorIs(t, fs.ChangePassword(password, "weak"), ErrWeakPassword)
	require.NoError(t, fs.ChangePassword(password, next))

	_, err = fs.Load(password)
	assert.ErrorIs(t, err, ErrInvalidPassword)
	got, err := fs.Load(next)
	require.NoError(t, err)
	assert.Equal(t, obj, got)

	after, err := fs.GetMetadata()
	require.NoError(t, err)
	assert.True(t, before.CreatedAt.Equal(after.CreatedAt))
	assert.NotEqual(t, before.KDFParams.Salt, after.KDFParams.Salt)
}

func TestDelete(t *testing.T) {
	fs := newStorage(t)
	require.NoError(t, fs.Save(testObject(t), password))
	require.NoError(t, fs.Delete())
	assert.False(t, fs.Exists())
}
