package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/marceloacosta/un-translator/internal/metrics"
	"github.com/marceloacosta/un-translator/internal/upstream"
)

// Manager tracks the live session of each client connection and reaps
// sessions whose clients went idle.
type Manager struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	logger   *slog.Logger

	opener      upstream.Opener
	sessionOpts Options
	maxSessions int
	idleTimeout time.Duration
	openTimeout time.Duration
	metrics     *metrics.Metrics

	// Cleanup management
	ctx     context.Context
	cancel  context.CancelFunc
	cleanup chan struct{}
}

// ManagerConfig contains configuration for the session manager
type ManagerConfig struct {
	Opener      upstream.Opener
	SessionOpts Options
	MaxSessions int
	IdleTimeout time.Duration
	OpenTimeout time.Duration
	Metrics     *metrics.Metrics
}

// NewManager creates a session manager and starts its cleanup routine
func NewManager(logger *slog.Logger, cfg ManagerConfig) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	mgr := &Manager{
		sessions:    make(map[string]*Session),
		logger:      logger,
		opener:      cfg.Opener,
		sessionOpts: cfg.SessionOpts,
		maxSessions: cfg.MaxSessions,
		idleTimeout: cfg.IdleTimeout,
		openTimeout: cfg.OpenTimeout,
		metrics:     cfg.Metrics,
		ctx:         ctx,
		cancel:      cancel,
		cleanup:     make(chan struct{}),
	}

	go mgr.startCleanupRoutine()

	return mgr
}

// CreateSession opens a fresh upstream stream, runs session setup, and
// registers the session under the client's connection id. A connection
// carries at most one session at a time.
func (m *Manager) CreateSession(ctx context.Context, connID, sourceLang, targetLang string, sink Sink) (*Session, error) {
	m.mu.Lock()
	if existing, exists := m.sessions[connID]; exists {
		m.mu.Unlock()
		m.logger.Warn("Connection already has a session",
			slog.String("conn_id", connID),
			slog.String("session_id", existing.ID),
		)
		return nil, fmt.Errorf("connection already has an active session")
	}

	if m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		m.mu.Unlock()
		return nil, fmt.Errorf("session limit reached (%d active)", m.maxSessions)
	}
	m.mu.Unlock()

	openCtx := ctx
	if m.openTimeout > 0 {
		var cancel context.CancelFunc
		openCtx, cancel = context.WithTimeout(ctx, m.openTimeout)
		defer cancel()
	}

	stream, err := m.opener.Open(openCtx)
	if err != nil {
		if m.metrics != nil {
			m.metrics.RecordSetupFailure()
		}
		return nil, fmt.Errorf("failed to open upstream stream: %w", err)
	}

	session := New(sourceLang, targetLang, stream, sink, m.sessionOpts)
	if err := session.Start(ctx); err != nil {
		return nil, err
	}

	// Setup ran unlocked, so re-check the slot and the cap before
	// registering: another connection may have raced through in between.
	m.mu.Lock()
	if _, exists := m.sessions[connID]; exists {
		m.mu.Unlock()
		m.discard(ctx, session)
		return nil, fmt.Errorf("connection already has an active session")
	}
	if m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		m.mu.Unlock()
		m.discard(ctx, session)
		return nil, fmt.Errorf("session limit reached (%d active)", m.maxSessions)
	}
	m.sessions[connID] = session
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.RecordSessionCreated()
	}

	m.logger.Info("Created translation session",
		slog.String("conn_id", connID),
		slog.String("session_id", session.ID),
		slog.String("source_lang", sourceLang),
		slog.String("target_lang", targetLang),
	)

	return session, nil
}

// discard ends a session that lost the registration race.
func (m *Manager) discard(ctx context.Context, session *Session) {
	if err := session.End(ctx); err != nil {
		m.logger.Warn("Error ending unregistered session",
			slog.String("session_id", session.ID),
			slog.String("error", err.Error()),
		)
	}
}

// GetSession retrieves the session bound to a connection
func (m *Manager) GetSession(connID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[connID]
	return session, exists
}

// FindSession retrieves a session by its session id rather than its
// connection binding. Used by the HTTP monitoring API.
func (m *Manager) FindSession(sessionID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, session := range m.sessions {
		if session.ID == sessionID {
			return session, true
		}
	}
	return nil, false
}

// RemoveSession ends and unregisters the session bound to a connection
func (m *Manager) RemoveSession(ctx context.Context, connID string) bool {
	m.mu.Lock()
	session, exists := m.sessions[connID]
	if !exists {
		m.mu.Unlock()
		return false
	}
	delete(m.sessions, connID)
	m.mu.Unlock()

	if err := session.End(ctx); err != nil {
		m.logger.Warn("Error ending session",
			slog.String("session_id", session.ID),
			slog.String("error", err.Error()),
		)
	}

	m.logger.Info("Session removed",
		slog.String("conn_id", connID),
		slog.String("session_id", session.ID),
	)

	return true
}

// GetActiveSessionCount returns the number of currently active sessions
func (m *Manager) GetActiveSessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// GetAllSessions returns a snapshot of all active sessions (for monitoring)
func (m *Manager) GetAllSessions() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]Info, 0, len(m.sessions))
	for _, session := range m.sessions {
		infos = append(infos, session.Snapshot())
	}

	return infos
}

// Stop gracefully stops the manager, ending every live session
func (m *Manager) Stop() {
	m.logger.Info("Stopping session manager...")

	m.mu.Lock()
	remaining := make(map[string]*Session, len(m.sessions))
	for connID, session := range m.sessions {
		remaining[connID] = session
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, session := range remaining {
		if err := session.End(ctx); err != nil {
			m.logger.Warn("Error ending session during shutdown",
				slog.String("session_id", session.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	m.cancel()
	<-m.cleanup

	m.logger.Info("Session manager stopped",
		slog.Int("sessions_closed", len(remaining)),
	)
}

// startCleanupRoutine runs in a separate goroutine to clean up idle sessions
func (m *Manager) startCleanupRoutine() {
	defer close(m.cleanup)

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	m.logger.Info("Session cleanup routine started",
		slog.Duration("idle_timeout", m.idleTimeout),
	)

	for {
		select {
		case <-m.ctx.Done():
			m.logger.Info("Session cleanup routine stopping")
			return

		case <-ticker.C:
			m.cleanupIdleSessions()
		}
	}
}

// cleanupIdleSessions removes sessions whose clients stopped sending audio
func (m *Manager) cleanupIdleSessions() {
	if m.idleTimeout <= 0 {
		return
	}

	idle := make([]string, 0)

	m.mu.RLock()
	for connID, session := range m.sessions {
		if session.IdleFor() > m.idleTimeout {
			idle = append(idle, connID)
		}
	}
	m.mu.RUnlock()

	if len(idle) == 0 {
		return
	}

	m.logger.Info("Cleaning up idle sessions",
		slog.Int("idle_count", len(idle)),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, connID := range idle {
		m.RemoveSession(ctx, connID)
	}
}
