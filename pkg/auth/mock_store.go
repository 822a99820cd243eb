package auth

import "sync"

// MockStore is an in-memory CredentialStore for tests
type MockStore struct {
	apps map[string]*App
	mu   sync.RWMutex

	// Error injection
	StoreError    error
	RetrieveError error
	ListError     error
	DeleteError   error
}

// NewMockStore creates an empty mock store
func NewMockStore() *MockStore {
	return &MockStore{apps: make(map[string]*App)}
}

func (m *MockStore) Store(app *App) error {
	if m.StoreError != nil {
		return m.StoreError
	}
	if app == nil || app.Name == "" {
		return ErrInvalidCredentials
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	appCopy := *app
	m.apps[app.Name] = &appCopy
	return nil
}

func (m *MockStore) Retrieve(name string) (*App, error) {
	if m.RetrieveError != nil {
		return nil, m.RetrieveError
	}
	if name == "" {
		return nil, ErrInvalidCredentials
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	app, exists := m.apps[name]
	if !exists {
		return nil, ErrCredentialsNotFound
	}
	appCopy := *app
	return &appCopy, nil
}

func (m *MockStore) List() ([]*App, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	apps := make([]*App, 0, len(m.apps))
	for _, app := range m.apps {
		appCopy := *app
		apps = append(apps, &appCopy)
	}
	return apps, nil
}

func (m *MockStore) Delete(name string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	if name == "" {
		return ErrInvalidCredentials
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.apps[name]; !exists {
		return ErrCredentialsNotFound
	}
	delete(m.apps, name)
	return nil
}

func (m *MockStore) Exists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.apps[name]
	return exists
}

// Count returns the number of stored apps
func (m *MockStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.apps)
}

// NewMockManager creates a Manager over a single mock store
func NewMockManager() (*Manager, *MockStore) {
	mockStore := NewMockStore()
	return NewManagerWithStores(mockStore), mockStore
}
