package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tobiadex/chopchat/internal/user"
)

type memSessionRepo struct {
	mu        sync.Mutex
	byDevice  map[string]*Session
	touches   int
	failTouch bool
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{byDevice: map[string]*Session{}}
}

func (r *memSessionRepo) GetByDevice(ctx context.Context, deviceID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byDevice[deviceID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *memSessionRepo) Create(ctx context.Context, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	s.CreatedAt = now
	s.LastActive = now
	cp := *s
	r.byDevice[s.DeviceID] = &cp
	return nil
}

func (r *memSessionRepo) Touch(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failTouch {
		return fmt.Errorf("datastore unavailable")
	}
	for _, s := range r.byDevice {
		if s.ID == sessionID {
			s.LastActive = time.Now()
			r.touches++
			return nil
		}
	}
	return ErrNotFound
}

func (r *memSessionRepo) LinkUser(ctx context.Context, sessionID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byDevice {
		if s.ID == sessionID {
			s.UserID = &userID
			return nil
		}
	}
	return ErrNotFound
}

func (r *memSessionRepo) MergeMetadata(ctx context.Context, sessionID string, patch map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byDevice {
		if s.ID == sessionID {
			if s.Metadata == nil {
				s.Metadata = map[string]any{}
			}
			for k, v := range patch {
				s.Metadata[k] = v
			}
			return nil
		}
	}
	return ErrNotFound
}

func (r *memSessionRepo) counts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.touches
}

type memUserRepo struct {
	mu       sync.Mutex
	byDevice map[string]*user.User
	ensures  int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byDevice: map[string]*user.User{}}
}

func (r *memUserRepo) Ensure(ctx context.Context, deviceID string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensures++
	if u, ok := r.byDevice[deviceID]; ok {
		return u, nil
	}
	u := &user.User{ID: fmt.Sprintf("user-%d", len(r.byDevice)+1), DeviceID: deviceID, CreatedAt: time.Now()}
	r.byDevice[deviceID] = u
	return u, nil
}

func (r *memUserRepo) GetByDevice(ctx context.Context, deviceID string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byDevice[deviceID]; ok {
		return u, nil
	}
	return nil, user.ErrNotFound
}

func newTestManager(repo Repository, users user.Repository, interval time.Duration) *Manager {
	return NewManager(repo, users, interval, time.Minute, zap.NewNop())
}

func TestInitCreatesSessionOnceAndTouchesAfter(t *testing.T) {
	repo := newMemSessionRepo()
	users := newMemUserRepo()
	m := newTestManager(repo, users, time.Hour)
	defer m.Close()
	ctx := context.Background()

	s1, err := m.Init(ctx, "dev-1")
	require.NoError(t, err)
	require.NotEmpty(t, s1.ID)
	require.NotNil(t, s1.Metadata)
	require.NotNil(t, s1.UserID, "a fresh session gets its anonymous user linked")

	s2, err := m.Init(ctx, "dev-1")
	require.NoError(t, err)
	assert.Equal(t, s1.ID, s2.ID, "one session per device")
	assert.Equal(t, 1, repo.counts(), "second init refreshes, not recreates")
}

func TestLinkUserIsIdempotent(t *testing.T) {
	repo := newMemSessionRepo()
	m := newTestManager(repo, newMemUserRepo(), time.Hour)
	defer m.Close()
	ctx := context.Background()

	s, err := m.Init(ctx, "dev-1")
	require.NoError(t, err)

	require.NoError(t, m.LinkUser(ctx, "dev-1", "user-42"))
	require.NoError(t, m.LinkUser(ctx, "dev-1", "user-42"))

	got, err := repo.GetByDevice(ctx, "dev-1")
	require.NoError(t, err)
	require.NotNil(t, got.UserID)
	assert.Equal(t, "user-42", *got.UserID)
	assert.Equal(t, s.DeviceID, got.DeviceID, "linking never overwrites the device id")
}

func TestUpdateMetadataShallowMerges(t *testing.T) {
	repo := newMemSessionRepo()
	m := newTestManager(repo, newMemUserRepo(), time.Hour)
	defer m.Close()
	ctx := context.Background()

	_, err := m.Init(ctx, "dev-1")
	require.NoError(t, err)

	require.NoError(t, m.UpdateMetadata(ctx, "dev-1", map[string]any{"theme": "dark", "lang": "en"}))
	require.NoError(t, m.UpdateMetadata(ctx, "dev-1", map[string]any{"lang": "yo"}))

	got, err := repo.GetByDevice(ctx, "dev-1")
	require.NoError(t, err)
	assert.Equal(t, "dark", got.Metadata["theme"])
	assert.Equal(t, "yo", got.Metadata["lang"], "last write wins per key")
}

func TestHeartbeatRefreshesActiveSessions(t *testing.T) {
	repo := newMemSessionRepo()
	m := newTestManager(repo, newMemUserRepo(), 10*time.Millisecond)
	defer m.Close()

	_, err := m.Init(context.Background(), "dev-1")
	require.NoError(t, err)
	base := repo.counts()

	require.Eventually(t, func() bool {
		return repo.counts() > base
	}, time.Second, 5*time.Millisecond, "heartbeat keeps last_active fresh")
}

func TestHeartbeatFailuresAreSwallowed(t *testing.T) {
	repo := newMemSessionRepo()
	m := newTestManager(repo, newMemUserRepo(), 10*time.Millisecond)
	defer m.Close()
	ctx := context.Background()

	_, err := m.Init(ctx, "dev-1")
	require.NoError(t, err)

	repo.mu.Lock()
	repo.failTouch = true
	repo.mu.Unlock()
	time.Sleep(50 * time.Millisecond)

	// The session is still usable and a later command still succeeds.
	repo.mu.Lock()
	repo.failTouch = false
	repo.mu.Unlock()
	_, err = m.Init(ctx, "dev-1")
	assert.NoError(t, err)
}

func TestCloseStopsHeartbeat(t *testing.T) {
	repo := newMemSessionRepo()
	m := newTestManager(repo, newMemUserRepo(), 10*time.Millisecond)

	_, err := m.Init(context.Background(), "dev-1")
	require.NoError(t, err)

	m.Close()
	m.Close() // closing twice must be safe

	time.Sleep(30 * time.Millisecond)
	after := repo.counts()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, repo.counts(), "no refreshes after Close")
}
