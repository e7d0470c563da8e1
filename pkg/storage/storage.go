// Package storage keeps serialized key shares and party keys in
// password-protected files.
//
// A file is a JSON envelope holding cleartext metadata and the object
// encrypted with XChaCha20-Poly1305 under an Argon2id key. The metadata
// is bound to the ciphertext as associated data, so it cannot be edited
// without Load failing.
package storage

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/renameio/v2"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/Caqil/tss-2p/internal/security"
	"github.com/Caqil/tss-2p/internal/wire"
)

// FormatVersion is written into every envelope
const FormatVersion = "2"

// Storage errors
var (
	ErrInvalidPassword   = errors.New("invalid password")
	ErrObjectNotFound    = errors.New("stored object not found")
	ErrUnsupportedObject = errors.New("only party keys and key shares can be stored")
	ErrStorageCorrupted  = errors.New("storage corrupted")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrWeakPassword      = errors.New("password too weak")
	ErrInvalidNonce      = errors.New("invalid nonce")
	ErrEncryptionFailed  = errors.New("encryption failed")
	ErrBackupFailed      = errors.New("backup failed")
	ErrRestoreFailed     = errors.New("restore failed")
	ErrVersionMismatch   = errors.New("version mismatch")
	ErrChecksumMismatch  = errors.New("checksum mismatch")
)

// Store defines password-protected storage for one serialized object
type Store interface {
	// Save encrypts and saves a serialized object with password protection
	Save(data []byte, password string) error

	// Load decrypts the stored object using the password
	Load(password string) ([]byte, error)

	// Delete overwrites and removes the stored object
	Delete() error

	// Exists checks if an object exists in storage
	Exists() bool

	// Backup copies the encrypted file to backupPath
	Backup(backupPath string) error

	// Restore replaces the stored object with a verified backup
	Restore(backupPath, password string) error

	// GetMetadata returns storage metadata without decrypting
	GetMetadata() (*Metadata, error)

	// ChangePassword re-encrypts the object with a new password
	ChangePassword(oldPassword, newPassword string) error

	// Verify validates the integrity of stored data
	Verify(password string) error
}

// Metadata describes a stored object
type Metadata struct {
	Version       string    `json:"version"`
	Kind          string    `json:"kind"`
	CreatedAt     time.Time `json:"created_at"`
	ModifiedAt    time.Time `json:"modified_at"`
	EncryptionAlg string    `json:"encryption_alg"`
	KDFAlg        string    `json:"kdf_alg"`
	KDFParams     KDFParams `json:"kdf_params"`
	Checksum      []byte    `json:"checksum"`
}

// KDFParams contains key derivation function parameters
type KDFParams struct {
	Time    uint32 `json:"time"`
	Memory  uint32 `json:"memory"`
	Threads uint8  `json:"threads"`
	Salt    []byte `json:"salt"`
}

// envelope is the on-disk form
type envelope struct {
	Metadata   Metadata `json:"metadata"`
	Nonce      []byte   `json:"nonce"`
	Ciphertext []byte   `json:"ciphertext"`
}

// Config contains configuration for file storage
type Config struct {
	// FilePath is where the envelope is written
	FilePath string

	// FileMode must not grant group or other access
	FileMode os.FileMode

	// Argon2id cost parameters
	Argon2Time    uint32
	Argon2Memory  uint32 // KiB
	Argon2Threads uint8

	// MinPasswordLength is enforced on Save and ChangePassword
	MinPasswordLength int
}

// DefaultConfig returns a secure default configuration
func DefaultConfig(filePath string) *Config {
	return &Config{
		FilePath:          filePath,
		FileMode:          0600,
		Argon2Time:        3,
		Argon2Memory:      64 * 1024,
		Argon2Threads:     4,
		MinPasswordLength: 12,
	}
}

// Validate validates the storage configuration
func (c *Config) Validate() error {
	if c.FilePath == "" {
		return fmt.Errorf("file path cannot be empty")
	}

	if c.FileMode&0077 != 0 {
		return fmt.Errorf("insecure file permissions: %o (should be 0600)", c.FileMode)
	}

	if c.Argon2Time < 1 {
		return fmt.Errorf("argon2 time cost must be at least 1")
	}

	if c.Argon2Memory < 8*1024 {
		return fmt.Errorf("argon2 memory cost must be at least 8 MB")
	}

	if c.Argon2Threads < 1 {
		return fmt.Errorf("argon2 threads must be at least 1")
	}

	if c.MinPasswordLength < 8 {
		return fmt.Errorf("minimum password length must be at least 8")
	}

	return nil
}

// deriveKey derives an encryption key from password using Argon2id
func (c *Config) deriveKey(password string, p KDFParams) []byte {
	return argon2.IDKey([]byte(password), p.Salt, p.Time, p.Memory, p.Threads, chacha20poly1305.KeySize)
}

// validatePassword checks if password meets minimum requirements
func (c *Config) validatePassword(password string) error {
	if len(password) < c.MinPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrWeakPassword, c.MinPasswordLength)
	}

	hasLetter := false
	hasNumber := false
	for _, ch := range password {
		if ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' {
			hasLetter = true
		}
		if ch >= '0' && ch <= '9' {
			hasNumber = true
		}
	}

	if !hasLetter || !hasNumber {
		return fmt.Errorf("%w: must contain both letters and numbers", ErrWeakPassword)
	}

	return nil
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to read randomness: %w", err)
	}
	return b, nil
}

// associatedData binds the metadata that matters for decryption
func associatedData(m *Metadata) []byte {
	return []byte(fmt.Sprintf("tss2p/storage|%s|%s|%d|%d|%d|%x",
		m.Version, m.Kind, m.KDFParams.Time, m.KDFParams.Memory, m.KDFParams.Threads, m.KDFParams.Salt))
}

// seal encrypts plaintext with XChaCha20-Poly1305
func seal(key, plaintext, ad []byte) (nonce, ciphertext []byte, err error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, nil, ErrEncryptionFailed
	}
	nonce, err = randomBytes(aead.NonceSize())
	if err != nil {
		return nil, nil, err
	}
	return nonce, aead.Seal(nil, nonce, plaintext, ad), nil
}

// open decrypts; an authentication failure means a wrong password or a
// modified file
func open(key, nonce, ciphertext, ad []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, ErrStorageCorrupted
	}
	if len(nonce) != aead.NonceSize() {
		return nil, ErrInvalidNonce
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, ad)
	if err != nil {
		return nil, ErrInvalidPassword
	}
	return plaintext, nil
}

func checksum(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

// storedKind checks that data is a serialized object that may be stored
func storedKind(data []byte) (wire.Kind, error) {
	kind, err := wire.PeekKind(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnsupportedObject, err)
	}
	switch kind {
	case wire.KindPartyKeys, wire.KindKeyShareP1, wire.KindKeyShareP2:
		return kind, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedObject, kind)
}

// readSecureFile reads data from a file and validates permissions
func readSecureFile(path string, expectedMode os.FileMode) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}

	if info.Mode().Perm() != expectedMode {
		return nil, fmt.Errorf("%w: file has permissions %o, expected %o",
			ErrPermissionDenied, info.Mode().Perm(), expectedMode)
	}

	return os.ReadFile(path)
}

func decodeEnvelope(data []byte) (*envelope, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, ErrStorageCorrupted
	}
	if env.Metadata.Version != FormatVersion {
		return nil, ErrVersionMismatch
	}
	return &env, nil
}

// FileStorage implements Store using an encrypted file
type FileStorage struct {
	config *Config
}

// NewFileStorage creates a new file-based store
func NewFileStorage(config *Config) (*FileStorage, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &FileStorage{config: config}, nil
}

// Save encrypts data and writes it atomically
func (fs *FileStorage) Save(data []byte, password string) error {
	return fs.save(data, password, time.Time{})
}

func (fs *FileStorage) save(data []byte, password string, created time.Time) error {
	kind, err := storedKind(data)
	if err != nil {
		return err
	}
	if err := fs.config.validatePassword(password); err != nil {
		return err
	}

	salt, err := randomBytes(32)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if created.IsZero() {
		created = now
	}
	meta := Metadata{
		Version:       FormatVersion,
		Kind:          kind.String(),
		CreatedAt:     created,
		ModifiedAt:    now,
		EncryptionAlg: "XChaCha20-Poly1305",
		KDFAlg:        "Argon2id",
		KDFParams: KDFParams{
			Time:    fs.config.Argon2Time,
			Memory:  fs.config.Argon2Memory,
			Threads: fs.config.Argon2Threads,
			Salt:    salt,
		},
	}

	key := fs.config.deriveKey(password, meta.KDFParams)
	defer security.SecureZero(key)

	nonce, ciphertext, err := seal(key, data, associatedData(&meta))
	if err != nil {
		return err
	}
	meta.Checksum = checksum(ciphertext)

	out, err := json.Marshal(&envelope{Metadata: meta, Nonce: nonce, Ciphertext: ciphertext})
	if err != nil {
		return fmt.Errorf("failed to serialize envelope: %w", err)
	}

	if err := renameio.WriteFile(fs.config.FilePath, out, fs.config.FileMode); err != nil {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	return nil
}

// Load decrypts and returns the stored object
func (fs *FileStorage) Load(password string) ([]byte, error) {
	data, err := readSecureFile(fs.config.FilePath, fs.config.FileMode)
	if err != nil {
		return nil, err
	}
	env, err := decodeEnvelope(data)
	if err != nil {
		return nil, err
	}
	if !security.ConstantTimeCompare(env.Metadata.Checksum, checksum(env.Ciphertext)) {
		return nil, ErrChecksumMismatch
	}

	key := fs.config.deriveKey(password, env.Metadata.KDFParams)
	defer security.SecureZero(key)

	plaintext, err := open(key, env.Nonce, env.Ciphertext, associatedData(&env.Metadata))
	if err != nil {
		return nil, err
	}

	kind, err := storedKind(plaintext)
	if err != nil || kind.String() != env.Metadata.Kind {
		security.SecureZero(plaintext)
		return nil, ErrStorageCorrupted
	}
	return plaintext, nil
}

// Delete overwrites the file with random bytes and removes it
func (fs *FileStorage) Delete() error {
	info, err := os.Stat(fs.config.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrObjectNotFound
		}
		return err
	}

	randomData := make([]byte, info.Size())
	if _, err := io.ReadFull(rand.Reader, randomData); err != nil {
		return err
	}
	if err := os.WriteFile(fs.config.FilePath, randomData, fs.config.FileMode); err != nil {
		return err
	}
	return os.Remove(fs.config.FilePath)
}

// Exists checks if an object exists in storage
func (fs *FileStorage) Exists() bool {
	_, err := os.Stat(fs.config.FilePath)
	return err == nil
}

// Backup copies the encrypted file to backupPath
func (fs *FileStorage) Backup(backupPath string) error {
	data, err := readSecureFile(fs.config.FilePath, fs.config.FileMode)
	if err != nil {
		return err
	}
	if err := renameio.WriteFile(backupPath, data, fs.config.FileMode); err != nil {
		return fmt.Errorf("%w: %v", ErrBackupFailed, err)
	}
	return nil
}

// Restore replaces the stored object with a backup that decrypts under
// password
func (fs *FileStorage) Restore(backupPath, password string) error {
	data, err := readSecureFile(backupPath, fs.config.FileMode)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRestoreFailed, err)
	}

	tempConfig := *fs.config
	tempConfig.FilePath = backupPath
	plaintext, err := (&FileStorage{config: &tempConfig}).Load(password)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRestoreFailed, err)
	}
	security.SecureZero(plaintext)

	if err := renameio.WriteFile(fs.config.FilePath, data, fs.config.FileMode); err != nil {
		return fmt.Errorf("%w: %v", ErrRestoreFailed, err)
	}
	return nil
}

// GetMetadata returns storage metadata without decrypting
func (fs *FileStorage) GetMetadata() (*Metadata, error) {
	data, err := readSecureFile(fs.config.FilePath, fs.config.FileMode)
	if err != nil {
		return nil, err
	}
	env, err := decodeEnvelope(data)
	if err != nil {
		return nil, err
	}
	return &env.Metadata, nil
}

// ChangePassword re-encrypts the object with a new password, keeping its
// creation time
func (fs *FileStorage) ChangePassword(oldPassword, newPassword string) error {
	meta, err := fs.GetMetadata()
	if err != nil {
		return err
	}
	data, err := fs.Load(oldPassword)
	if err != nil {
		return err
	}
	defer security.SecureZero(data)

	return fs.save(data, newPassword, meta.CreatedAt)
}

// Verify validates the integrity of stored data
func (fs *FileStorage) Verify(password string) error {
	data, err := fs.Load(password)
	if err != nil {
		return err
	}
	security.SecureZero(data)
	return nil
}
