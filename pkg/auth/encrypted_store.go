package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

// EnvPassphrase overrides the generated passphrase of the encrypted store
const EnvPassphrase = "STOPSUM_PASSPHRASE"

const (
	saltSize      = 32
	keySize       = 32
	kdfIterations = 100000
	vaultVersion  = 1
)

// EncryptedFileStore keeps every app in one AES-GCM sealed JSON file. The key
// is derived from a passphrase with PBKDF2-SHA256 and a per-file salt.
type EncryptedFileStore struct {
	path       string
	passphrase string
	mu         sync.RWMutex
}

// vaultFile is the on-disk envelope. Sealed holds the nonce followed by the
// GCM ciphertext of the JSON app map.
type vaultFile struct {
	Version  int       `json:"version"`
	Salt     []byte    `json:"salt"`
	Sealed   []byte    `json:"sealed"`
	Modified time.Time `json:"modified"`
}

// NewEncryptedFileStore creates a store at path. The passphrase comes from
// STOPSUM_PASSPHRASE, or from a key file generated next to the credentials.
func NewEncryptedFileStore(path string) (*EncryptedFileStore, error) {
	passphrase := os.Getenv(EnvPassphrase)
	if passphrase == "" {
		var err error
		passphrase, err = keyFilePassphrase(filepath.Join(filepath.Dir(path), ".passphrase"))
		if err != nil {
			return nil, fmt.Errorf("failed to get passphrase: %w", err)
		}
	}
	return NewEncryptedFileStoreWithPassphrase(path, passphrase)
}

// NewEncryptedFileStoreWithPassphrase creates a store at path sealed with
// passphrase
func NewEncryptedFileStoreWithPassphrase(path, passphrase string) (*EncryptedFileStore, error) {
	if passphrase == "" {
		return nil, errors.New("passphrase is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	return &EncryptedFileStore{path: path, passphrase: passphrase}, nil
}

func (e *EncryptedFileStore) Store(app *App) error {
	if app == nil || app.Name == "" {
		return ErrInvalidCredentials
	}
	return e.update(func(apps map[string]App) error {
		apps[app.Name] = *app
		return nil
	})
}

func (e *EncryptedFileStore) Retrieve(name string) (*App, error) {
	if name == "" {
		return nil, ErrInvalidCredentials
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	apps, _, err := e.open()
	if err != nil {
		return nil, err
	}
	app, ok := apps[name]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return &app, nil
}

func (e *EncryptedFileStore) List() ([]*App, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	apps, _, err := e.open()
	if err != nil {
		return nil, err
	}
	list := make([]*App, 0, len(apps))
	for _, app := range apps {
		list = append(list, &app)
	}
	return list, nil
}

// Delete removes the app. The file is removed with its last app.
func (e *EncryptedFileStore) Delete(name string) error {
	if name == "" {
		return ErrInvalidCredentials
	}
	return e.update(func(apps map[string]App) error {
		if _, ok := apps[name]; !ok {
			return ErrCredentialsNotFound
		}
		delete(apps, name)
		return nil
	})
}

func (e *EncryptedFileStore) Exists(name string) bool {
	app, err := e.Retrieve(name)
	return err == nil && app != nil
}

// update applies fn to the decrypted apps and writes the result back
func (e *EncryptedFileStore) update(fn func(map[string]App) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	apps, salt, err := e.open()
	if err != nil {
		return err
	}
	if err := fn(apps); err != nil {
		return err
	}
	if len(apps) == 0 {
		if err := os.Remove(e.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove credentials file: %w", err)
		}
		return nil
	}
	return e.seal(apps, salt)
}

// open decrypts the file. A missing file is an empty vault with a nil salt.
func (e *EncryptedFileStore) open() (map[string]App, []byte, error) {
	content, err := os.ReadFile(e.path)
	if os.IsNotExist(err) {
		return make(map[string]App), nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var vf vaultFile
	if err := json.Unmarshal(content, &vf); err != nil {
		return nil, nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}

	gcm, err := newGCM(e.passphrase, vf.Salt)
	if err != nil {
		return nil, nil, err
	}
	if len(vf.Sealed) < gcm.NonceSize() {
		return nil, nil, errors.New("credentials file is truncated")
	}
	nonce, ciphertext := vf.Sealed[:gcm.NonceSize()], vf.Sealed[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decrypt credentials: %w", err)
	}

	apps := make(map[string]App)
	if err := json.Unmarshal(plaintext, &apps); err != nil {
		return nil, nil, fmt.Errorf("failed to parse apps: %w", err)
	}
	return apps, vf.Salt, nil
}

// seal encrypts apps and atomically replaces the file. A nil salt is
// generated.
func (e *EncryptedFileStore) seal(apps map[string]App, salt []byte) error {
	if salt == nil {
		salt = make([]byte, saltSize)
		if _, err := io.ReadFull(rand.Reader, salt); err != nil {
			return fmt.Errorf("failed to generate salt: %w", err)
		}
	}

	plaintext, err := json.Marshal(apps)
	if err != nil {
		return fmt.Errorf("failed to marshal apps: %w", err)
	}
	gcm, err := newGCM(e.passphrase, salt)
	if err != nil {
		return err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	content, err := json.MarshalIndent(vaultFile{
		Version:  vaultVersion,
		Salt:     salt,
		Sealed:   gcm.Seal(nonce, nonce, plaintext, nil),
		Modified: time.Now(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials file: %w", err)
	}

	tmp := e.path + ".tmp"
	if err := os.WriteFile(tmp, content, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return os.Rename(tmp, e.path)
}

func newGCM(passphrase string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(passphrase), salt, kdfIterations, keySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// keyFilePassphrase reads the passphrase stored at path, generating it on
// first use
func keyFilePassphrase(path string) (string, error) {
	if content, err := os.ReadFile(path); err == nil && len(content) > 0 {
		return string(content), nil
	}

	b := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", fmt.Errorf("failed to generate passphrase: %w", err)
	}
	passphrase := base64.URLEncoding.EncodeToString(b)

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(passphrase), 0600); err != nil {
		return "", fmt.Errorf("failed to save passphrase: %w", err)
	}
	return passphrase, nil
}
