package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tobiadex/chopchat/internal/user"
)

// Manager is the one session authority in a running process. It is built
// once at startup, handed to whoever needs it, and Close released on
// shutdown; it owns the heartbeat ticker and no other background work.
type Manager struct {
	repo     Repository
	users    user.Repository
	log      *zap.Logger
	interval time.Duration
	// window bounds how long a device stays in the heartbeat set after
	// its last request.
	window time.Duration

	mu     sync.Mutex
	active map[string]*activeEntry

	done      chan struct{}
	closeOnce sync.Once
}

type activeEntry struct {
	sessionID string
	lastSeen  time.Time
}

func NewManager(repo Repository, users user.Repository, interval, window time.Duration, log *zap.Logger) *Manager {
	m := &Manager{
		repo:     repo,
		users:    users,
		log:      log,
		interval: interval,
		window:   window,
		active:   map[string]*activeEntry{},
		done:     make(chan struct{}),
	}
	go m.heartbeat()
	return m
}

// Init looks up the device's session, creating it with empty metadata on
// first contact, and refreshes last_active either way. A brand new session
// also gets its anonymous user row linked.
func (m *Manager) Init(ctx context.Context, deviceID string) (*Session, error) {
	s, err := m.repo.GetByDevice(ctx, deviceID)
	switch {
	case errors.Is(err, ErrNotFound):
		s = &Session{
			ID:       uuid.NewString(),
			DeviceID: deviceID,
			Metadata: map[string]any{},
		}
		if err := m.repo.Create(ctx, s); err != nil {
			return nil, err
		}
		if u, err := m.users.Ensure(ctx, deviceID); err != nil {
			// The session works without the user row; link on a later Init.
			m.log.Warn("ensure user failed", zap.String("device_id", deviceID), zap.Error(err))
		} else if err := m.repo.LinkUser(ctx, s.ID, u.ID); err != nil {
			m.log.Warn("link user failed", zap.String("session_id", s.ID), zap.Error(err))
		} else {
			s.UserID = &u.ID
		}
	case err != nil:
		return nil, err
	default:
		if err := m.repo.Touch(ctx, s.ID); err != nil {
			// A missed refresh is not worth failing the command over.
			m.log.Warn("session touch failed", zap.String("session_id", s.ID), zap.Error(err))
		}
	}

	m.mu.Lock()
	m.active[deviceID] = &activeEntry{sessionID: s.ID, lastSeen: time.Now()}
	m.mu.Unlock()
	return s, nil
}

// LinkUser attaches a user identity to the device's session. Calling it
// again with the same user is a no-op; the device id is never overwritten.
func (m *Manager) LinkUser(ctx context.Context, deviceID, userID string) error {
	s, err := m.repo.GetByDevice(ctx, deviceID)
	if err != nil {
		return err
	}
	if s.UserID != nil && *s.UserID == userID {
		return nil
	}
	return m.repo.LinkUser(ctx, s.ID, userID)
}

// UpdateMetadata shallow-merges the patch into the session's metadata bag.
func (m *Manager) UpdateMetadata(ctx context.Context, deviceID string, patch map[string]any) error {
	s, err := m.repo.GetByDevice(ctx, deviceID)
	if err != nil {
		return err
	}
	return m.repo.MergeMetadata(ctx, s.ID, patch)
}

// heartbeat refreshes last_active for recently seen devices on a fixed
// interval. Failures are logged and swallowed; they never reach a user.
func (m *Manager) heartbeat() {
	t := time.NewTicker(m.interval)
	defer t.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-t.C:
			m.refreshActive()
		}
	}
}

func (m *Manager) refreshActive() {
	cutoff := time.Now().Add(-m.window)

	m.mu.Lock()
	ids := make(map[string]string, len(m.active))
	for dev, e := range m.active {
		if e.lastSeen.Before(cutoff) {
			delete(m.active, dev)
			continue
		}
		ids[dev] = e.sessionID
	}
	m.mu.Unlock()

	for dev, sid := range ids {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := m.repo.Touch(ctx, sid); err != nil {
			m.log.Warn("session heartbeat failed",
				zap.String("device_id", dev), zap.String("session_id", sid), zap.Error(err))
		}
		cancel()
	}
}

// Close stops the heartbeat. Safe to call more than once.
func (m *Manager) Close() {
	m.closeOnce.Do(func() { close(m.done) })
}
