// Package workdir manages the tool's scratch space: one lock file so renders
// stay exclusive per working directory, and a uuid-named scratch directory
// per run.
package workdir

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"montage/internal/logging"
	"montage/internal/services"
)

// Manager owns a working directory for render runs.
type Manager struct {
	root     string
	lockPath string
	lock     *flock.Flock
	keep     bool
	logger   *slog.Logger
}

// Option configures the manager.
type Option func(*Manager)

// WithLogger attaches a logger; a no-op logger is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logging.NewComponentLogger(logger, "workdir")
		}
	}
}

// WithKeepScratch disables scratch cleanup so intermediate artifacts survive
// for inspection.
func WithKeepScratch(keep bool) Option {
	return func(m *Manager) {
		m.keep = keep
	}
}

// New prepares root and returns a manager for it. The directory is created if
// missing; the lock is not taken until Acquire.
func New(root string, opts ...Option) (*Manager, error) {
	if root == "" {
		return nil, errors.New("working directory required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "workdir", "create root", err)
	}
	lockPath := filepath.Join(root, ".montage.lock")
	m := &Manager{
		root:     root,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Root returns the managed directory.
func (m *Manager) Root() string {
	return m.root
}

// Acquire takes the run lock without blocking. A held lock means another
// render is already writing into this working directory.
func (m *Manager) Acquire() error {
	ok, err := m.lock.TryLock()
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "workdir", "acquire lock", err)
	}
	if !ok {
		return services.Wrap(services.ErrConfiguration, "workdir", "acquire lock",
			fmt.Errorf("another render is active in %s", m.root))
	}
	m.logger.Info("acquired run lock", logging.String("path", m.lockPath))
	return nil
}

// Release drops the run lock.
func (m *Manager) Release() error {
	if err := m.lock.Unlock(); err != nil {
		return services.Wrap(services.ErrConfiguration, "workdir", "release lock", err)
	}
	return nil
}

// NewRunScratch creates a scratch directory for one run and returns the run
// id with the directory path.
func (m *Manager) NewRunScratch() (runID, dir string, err error) {
	runID = uuid.NewString()
	dir = filepath.Join(m.root, "runs", runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", services.Wrap(services.ErrConfiguration, "workdir", "create scratch", err)
	}
	m.logger.Info("created run scratch",
		logging.String(logging.FieldRunID, runID),
		logging.String("dir", dir))
	return runID, dir, nil
}

// Cleanup removes a run's scratch directory unless the manager was told to
// keep intermediates.
func (m *Manager) Cleanup(dir string) error {
	if m.keep {
		m.logger.Info("keeping scratch directory", logging.String("dir", dir))
		return nil
	}
	if dir == "" {
		return nil
	}
	// Refuse to remove anything outside the managed runs tree.
	runsRoot := filepath.Join(m.root, "runs")
	rel, err := filepath.Rel(runsRoot, dir)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("refusing to remove %q outside %q", dir, runsRoot)
	}
	return os.RemoveAll(dir)
}
