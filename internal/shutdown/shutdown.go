// Package shutdown runs registered cleanup steps in reverse order when a
// long-running command stops.
package shutdown

import (
	"context"
	"sync"
	"time"

	"github.com/psantana5/keymap/pkg/logging"
	"github.com/psantana5/keymap/pkg/util"
)

type step struct {
	name string
	fn   func(context.Context) error
}

// Manager handles graceful shutdown
type Manager struct {
	mu      sync.Mutex
	steps   []step
	timeout time.Duration
	info    *util.Info
	logger  *logging.Logger
	once    sync.Once
}

// New creates a new shutdown manager
func New(timeout time.Duration, info *util.Info, logger *logging.Logger) *Manager {
	return &Manager{
		timeout: timeout,
		info:    info,
		logger:  logger,
	}
}

// Register adds a shutdown step.
// Steps run in reverse order of registration (LIFO).
func (m *Manager) Register(name string, fn func(context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, step{name: name, fn: fn})
}

// Shutdown runs every step once, even if earlier ones fail. Failures are
// reported through Info and mark the process as failed.
func (m *Manager) Shutdown() {
	m.once.Do(func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()

		for i := len(m.steps) - 1; i >= 0; i-- {
			s := m.steps[i]
			if err := s.fn(ctx); err != nil {
				m.info.Complainf("shutdown: %s: %v", s.name, err)
				continue
			}
			m.logger.Debug("shutdown step complete", map[string]interface{}{"step": s.name})
		}
	})
}

// CloseResource creates a shutdown step for an io.Closer
func CloseResource(closer interface{ Close() error }) func(context.Context) error {
	return func(ctx context.Context) error {
		return closer.Close()
	}
}
