// Package tempfile provides uniquely-named transient storage slots for
// uploaded and derived media. Every Asset is owned by exactly one operation
// and released exactly once, no matter how that operation exits.
package tempfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Manager allocates transient files under a scratch directory.
type Manager struct {
	dir string
	log zerolog.Logger
}

// Asset is a filesystem-backed handle to transient binary content.
// Release is idempotent; the first call removes the backing file.
type Asset struct {
	path    string
	log     zerolog.Logger
	release sync.Once
}

// NewManager creates a Manager rooted at dir. The directory is created if
// it does not exist.
func NewManager(dir string, log zerolog.Logger) (*Manager, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir %s: %w", dir, err)
	}
	return &Manager{
		dir: dir,
		log: log.With().Str("component", "tempfile").Logger(),
	}, nil
}

// Dir returns the scratch directory path.
func (m *Manager) Dir() string { return m.dir }

// Acquire allocates a new uniquely-named asset. suffix is appended to the
// name verbatim apart from ensuring a leading dot (".mp4" and "mp4" are
// equivalent). The backing file is created empty so the name is claimed
// immediately.
func (m *Manager) Acquire(suffix string) (*Asset, error) {
	if suffix != "" && !strings.HasPrefix(suffix, ".") {
		suffix = "." + suffix
	}
	path := filepath.Join(m.dir, uuid.NewString()+suffix)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("acquire temp asset: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("acquire temp asset: %w", err)
	}
	return &Asset{path: path, log: m.log}, nil
}

// Path returns the asset's filesystem path.
func (a *Asset) Path() string { return a.path }

// Write replaces the asset's content with data.
func (a *Asset) Write(data []byte) error {
	if err := os.WriteFile(a.path, data, 0o600); err != nil {
		return fmt.Errorf("write temp asset %s: %w", a.path, err)
	}
	return nil
}

// Read returns the asset's full content.
func (a *Asset) Read() ([]byte, error) {
	data, err := os.ReadFile(a.path)
	if err != nil {
		return nil, fmt.Errorf("read temp asset %s: %w", a.path, err)
	}
	return data, nil
}

// Release removes the backing file. Safe to call any number of times and
// from deferred cleanup paths; a failed removal is logged rather than
// returned so it can never mask the error that triggered the cleanup.
func (a *Asset) Release() {
	a.release.Do(func() {
		if err := os.Remove(a.path); err != nil && !os.IsNotExist(err) {
			a.log.Warn().Err(err).Str("path", a.path).Msg("failed to release temp asset")
		}
	})
}
