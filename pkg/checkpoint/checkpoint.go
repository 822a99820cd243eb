package checkpoint

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"time"

	"github.com/google/uuid"
	"stopsum/pkg/logger"
)

// CurrentVersion is the checkpoint format version written by this build
const CurrentVersion = 1

// Checkpoint is the saved state of one page export
type Checkpoint struct {
	Page           string    `json:"page"`
	ProfileID      string    `json:"profile_id"`
	RunID          string    `json:"run_id"`
	Since          time.Time `json:"since"`
	Until          time.Time `json:"until"`
	NextURL        string    `json:"next_url"`
	PagesProcessed int       `json:"pages_processed"`
	PostsExported  int       `json:"posts_exported"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Version        int       `json:"version"`
}

// Matches reports whether the checkpoint was taken for the same page and
// export window
func (c *Checkpoint) Matches(page string, since, until time.Time) bool {
	return c.Page == page && c.Since.Equal(since) && c.Until.Equal(until)
}

// Manager handles checkpoint operations for one page
type Manager struct {
	checkpointPath string
	logger         logger.Logger
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// NewManager creates a manager storing its file under the user data directory
func NewManager(page string) (*Manager, error) {
	dataDir, err := getDataDirectory()
	if err != nil {
		return nil, fmt.Errorf("failed to get data directory: %w", err)
	}
	return NewManagerInDir(filepath.Join(dataDir, "checkpoints"), page, logger.GetLogger())
}

// NewManagerInDir creates a manager storing its file in dir
func NewManagerInDir(dir, page string, log logger.Logger) (*Manager, error) {
	if page == "" {
		return nil, fmt.Errorf("page name is required")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create checkpoints directory: %w", err)
	}
	if log == nil {
		log = logger.GetLogger()
	}

	name := unsafeChars.ReplaceAllString(page, "_")
	return &Manager{
		checkpointPath: filepath.Join(dir, name+".checkpoint.json"),
		logger:         log,
	}, nil
}

// Path returns the checkpoint file path
func (m *Manager) Path() string {
	return m.checkpointPath
}

// Create starts a new checkpoint with a fresh run id and saves it
func (m *Manager) Create(page, profileID string, since, until time.Time) (*Checkpoint, error) {
	now := time.Now()
	checkpoint := &Checkpoint{
		Page:      page,
		ProfileID: profileID,
		RunID:     uuid.NewString(),
		Since:     since,
		Until:     until,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   CurrentVersion,
	}

	if err := m.Save(checkpoint); err != nil {
		return nil, fmt.Errorf("failed to save initial checkpoint: %w", err)
	}

	m.logger.InfoWithFields("Checkpoint created", map[string]interface{}{
		"page":   page,
		"run_id": checkpoint.RunID,
		"path":   m.checkpointPath,
	})
	return checkpoint, nil
}

// Load reads the checkpoint. It returns nil, nil when none exists.
func (m *Manager) Load() (*Checkpoint, error) {
	file, err := os.Open(m.checkpointPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open checkpoint file: %w", err)
	}
	defer file.Close()

	var checkpoint Checkpoint
	if err := json.NewDecoder(file).Decode(&checkpoint); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	if checkpoint.Version > CurrentVersion {
		return nil, fmt.Errorf("checkpoint version %d is newer than supported version %d", checkpoint.Version, CurrentVersion)
	}

	m.logger.DebugWithFields("Checkpoint loaded", map[string]interface{}{
		"page":            checkpoint.Page,
		"run_id":          checkpoint.RunID,
		"posts_exported":  checkpoint.PostsExported,
		"pages_processed": checkpoint.PagesProcessed,
	})
	return &checkpoint, nil
}

// Save writes the checkpoint atomically
func (m *Manager) Save(checkpoint *Checkpoint) error {
	checkpoint.UpdatedAt = time.Now()

	tempPath := m.checkpointPath + ".tmp"
	file, err := createPrivate(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(checkpoint); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tempPath, m.checkpointPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	m.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"page":            checkpoint.Page,
		"pages_processed": checkpoint.PagesProcessed,
		"posts_exported":  checkpoint.PostsExported,
	})
	return nil
}

// UpdateProgress records a finished page and saves
func (m *Manager) UpdateProgress(checkpoint *Checkpoint, nextURL string, posts int) error {
	checkpoint.NextURL = nextURL
	checkpoint.PagesProcessed++
	checkpoint.PostsExported = posts
	return m.Save(checkpoint)
}

// Delete removes the checkpoint file
func (m *Manager) Delete() error {
	if err := os.Remove(m.checkpointPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	m.logger.Debug("Checkpoint deleted")
	return nil
}

// Exists checks if a checkpoint file exists
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.checkpointPath)
	return err == nil
}

// Info returns a summary of the checkpoint, or nil when none exists
func (m *Manager) Info() (map[string]interface{}, error) {
	checkpoint, err := m.Load()
	if err != nil || checkpoint == nil {
		return nil, err
	}

	return map[string]interface{}{
		"page":            checkpoint.Page,
		"run_id":          checkpoint.RunID,
		"pages_processed": checkpoint.PagesProcessed,
		"posts_exported":  checkpoint.PostsExported,
		"created_at":      checkpoint.CreatedAt,
		"updated_at":      checkpoint.UpdatedAt,
		"age":             time.Since(checkpoint.UpdatedAt),
	}, nil
}

// Backup copies the current checkpoint next to itself with a .backup suffix
func (m *Manager) Backup() error {
	if !m.Exists() {
		return nil
	}

	src, err := os.Open(m.checkpointPath)
	if err != nil {
		return fmt.Errorf("failed to open checkpoint for backup: %w", err)
	}
	defer src.Close()

	dst, err := createPrivate(m.checkpointPath + ".backup")
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to copy checkpoint to backup: %w", err)
	}
	return nil
}

// getDataDirectory returns the stopsum data directory for the current OS
func getDataDirectory() (string, error) {
	var dataDir string

	switch runtime.GOOS {
	case "linux", "freebsd", "openbsd", "netbsd":
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			dataDir = filepath.Join(xdgDataHome, "stopsum")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			dataDir = filepath.Join(home, ".local", "share", "stopsum")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, "Library", "Application Support", "stopsum")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		dataDir = filepath.Join(appData, "stopsum")
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return dataDir, nil
}

// createPrivate creates path readable only by the owner. A leftover file is
// removed first so its mode is not inherited.
func createPrivate(path string) (*os.File, error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
}
