package auth

import (
	"os"
	"time"
)

// Environment variables read by EnvironmentStore
const (
	EnvAppID     = "STOPSUM_APP_ID"
	EnvAppSecret = "STOPSUM_APP_SECRET"
)

// EnvironmentStore is a read-only CredentialStore over STOPSUM_APP_ID and
// STOPSUM_APP_SECRET
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(app *App) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment app under the requested name, or
// "environment" when name is empty
func (e *EnvironmentStore) Retrieve(name string) (*App, error) {
	appID := os.Getenv(EnvAppID)
	appSecret := os.Getenv(EnvAppSecret)
	if appID == "" || appSecret == "" {
		return nil, ErrCredentialsNotFound
	}

	if name == "" {
		name = "environment"
	}
	return &App{
		Name:         name,
		AppID:        appID,
		AppSecret:    appSecret,
		LastModified: time.Now(),
	}, nil
}

func (e *EnvironmentStore) List() ([]*App, error) {
	app, err := e.Retrieve("")
	if err != nil {
		return []*App{}, nil
	}
	return []*App{app}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Exists(name string) bool {
	return os.Getenv(EnvAppID) != "" && os.Getenv(EnvAppSecret) != ""
}
