package editor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager keeps the open editor sessions in memory.  Drafts are never
// persisted; an expired or closed session loses its unsaved edits.
type Manager struct {
	mu     sync.RWMutex
	shells map[string]*Shell
	reg    *Registry
	reader ServiceReader
	gw     Gateway
	log    *zap.Logger
}

// NewManager creates a manager that opens shells with the given wiring.
func NewManager(reg *Registry, reader ServiceReader, gw Gateway, log *zap.Logger) *Manager {
	if reg == nil {
		reg = DefaultRegistry()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		shells: make(map[string]*Shell),
		reg:    reg,
		reader: reader,
		gw:     gw,
		log:    log,
	}
}

// Open starts a session for entityID and performs the initial load.  The
// session is registered even when the load fails so the client can retry.
func (m *Manager) Open(ctx context.Context, scope Scope, entityID uint64, layout LayoutKind) (*Shell, error) {
	sh := NewShell(ShellConfig{
		SessionID: uuid.New().String(),
		EntityID:  entityID,
		Scope:     scope,
		Registry:  m.reg,
		Reader:    m.reader,
		Gateway:   m.gw,
		Layout:    layout,
		Logger:    m.log,
	})
	m.mu.Lock()
	m.shells[sh.ID()] = sh
	m.mu.Unlock()

	err := sh.Load(ctx)
	m.log.Info("editor session opened",
		zap.String("editor_session", sh.ID()),
		zap.Uint64("service_id", entityID),
		zap.Uint64("user_id", scope.User.UserID),
		zap.Bool("loaded", err == nil))
	return sh, err
}

// Get returns the session if it exists and belongs to userID.
func (m *Manager) Get(id string, userID uint64) (*Shell, error) {
	m.mu.RLock()
	sh, ok := m.shells[id]
	m.mu.RUnlock()
	if !ok || sh.Owner() != userID {
		return nil, ErrSessionNotFound
	}
	return sh, nil
}

// Close discards a session and its drafts.
func (m *Manager) Close(id string, userID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sh, ok := m.shells[id]
	if !ok || sh.Owner() != userID {
		return ErrSessionNotFound
	}
	delete(m.shells, id)
	return nil
}

// Count returns the number of open sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.shells)
}

// CleanupExpired removes sessions idle for longer than maxAge and returns
// how many were removed.
func (m *Manager) CleanupExpired(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, sh := range m.shells {
		if sh.LastUsed().Before(cutoff) {
			delete(m.shells, id)
			n++
		}
	}
	return n
}

// Sweep runs CleanupExpired every interval until ctx is cancelled.
func (m *Manager) Sweep(ctx context.Context, interval, maxAge time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := m.CleanupExpired(maxAge); n > 0 {
				m.log.Info("expired editor sessions removed", zap.Int("count", n))
			}
		}
	}
}
