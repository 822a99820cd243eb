package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"
)

// App holds the credentials of a Graph API application. The app token used
// for public page reads is derived from the id and secret.
type App struct {
	Name         string    `json:"name"`
	AppID        string    `json:"app_id"`
	AppSecret    string    `json:"app_secret"`
	LastModified time.Time `json:"last_modified"`
}

// CredentialStore is the interface for storing and retrieving app credentials
type CredentialStore interface {
	Store(app *App) error
	Retrieve(name string) (*App, error)
	List() ([]*App, error)
	Delete(name string) error
	Exists(name string) bool
}

// DefaultAppName is used when no name is given at login
const DefaultAppName = "default"

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a manager backed by the system keyring when available,
// then the encrypted file store, then the environment
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a manager over the given stores, in order
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves credentials using the first store that accepts them
func (m *Manager) Store(app *App) error {
	if app == nil || app.Name == "" {
		return errors.New("app name is required")
	}
	if app.AppID == "" {
		return errors.New("app ID is required")
	}
	if app.AppSecret == "" {
		return errors.New("app secret is required")
	}

	app.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(app)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// Retrieve gets credentials from the first store that has them
func (m *Manager) Retrieve(name string) (*App, error) {
	for _, store := range m.stores {
		if app, err := store.Retrieve(name); err == nil && app != nil {
			return app, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCredentialsNotFound, name)
}

// RetrieveDefault prefers environment credentials, then the app named
// "default", then the most recently modified app
func (m *Manager) RetrieveDefault() (*App, error) {
	for _, store := range m.stores {
		if envStore, ok := store.(*EnvironmentStore); ok {
			if app, err := envStore.Retrieve(""); err == nil {
				return app, nil
			}
		}
	}

	if app, err := m.Retrieve(DefaultAppName); err == nil {
		return app, nil
	}

	apps, err := m.List()
	if err == nil && len(apps) > 0 {
		return apps[0], nil
	}

	return nil, ErrCredentialsNotFound
}

// List returns the apps of all stores, newest first. When stores disagree
// the most recently modified copy wins.
func (m *Manager) List() ([]*App, error) {
	byName := make(map[string]*App)

	for _, store := range m.stores {
		apps, err := store.List()
		if err != nil {
			continue
		}
		for _, app := range apps {
			if existing, ok := byName[app.Name]; !ok || app.LastModified.After(existing.LastModified) {
				byName[app.Name] = app
			}
		}
	}

	result := make([]*App, 0, len(byName))
	for _, app := range byName {
		result = append(result, app)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].LastModified.Equal(result[j].LastModified) {
			return result[i].LastModified.After(result[j].LastModified)
		}
		return result[i].Name < result[j].Name
	})

	return result, nil
}

// Delete removes credentials from every store holding them
func (m *Manager) Delete(name string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(name); err == nil {
			deleted = true
		} else if !errors.Is(err, ErrCredentialsNotFound) && !errors.Is(err, ErrStoreUnavailable) {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("%w: %s", ErrCredentialsNotFound, name)
	}
	return nil
}

// getConfigDir returns the stopsum configuration directory, creating it
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "stopsum")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "stopsum")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "stopsum")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "stopsum")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return configDir, nil
}

// SanitizeApp returns a copy of app with the secret masked
func SanitizeApp(app *App) *App {
	if app == nil {
		return nil
	}
	return &App{
		Name:         app.Name,
		AppID:        app.AppID,
		AppSecret:    maskString(app.AppSecret),
		LastModified: app.LastModified,
	}
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
