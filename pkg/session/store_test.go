package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/ipagw/pkg/directory"
	"github.com/marmos91/ipagw/pkg/directory/directorytest"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type countingMetrics struct {
	mu     sync.Mutex
	active int
	ended  map[string]int
}

func (m *countingMetrics) SetActive(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = n
}

func (m *countingMetrics) RecordEnded(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ended == nil {
		m.ended = make(map[string]int)
	}
	m.ended[reason]++
}

func TestCreateAndGet(t *testing.T) {
	clock := newFakeClock()
	store := NewStore(time.Hour, WithClock(clock))
	conn := directorytest.New()

	sess, err := store.Create("admin", conn)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, "admin", sess.Identity)
	assert.Equal(t, clock.Now().Add(time.Hour), sess.ExpiresAt)

	got, err := store.Get(context.Background(), sess.Token)
	require.NoError(t, err)
	assert.Same(t, sess, got)
	assert.Equal(t, 1, store.Len())
}

func TestTokensAreUnique(t *testing.T) {
	store := NewStore(time.Hour)
	seen := make(map[string]bool)
	for range 100 {
		sess, err := store.Create("admin", directorytest.New())
		require.NoError(t, err)
		assert.False(t, seen[sess.Token])
		seen[sess.Token] = true
	}
}

func TestCreate_NilConnection(t *testing.T) {
	_, err := NewStore(time.Hour).Create("admin", nil)
	assert.Error(t, err)
}

func TestGet_Unknown(t *testing.T) {
	store := NewStore(time.Hour)

	_, err := store.Get(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestGet_ExpiredThenUnauthenticated(t *testing.T) {
	clock := newFakeClock()
	m := &countingMetrics{}
	store := NewStore(time.Hour, WithClock(clock), WithMetrics(m))
	conn := directorytest.New()

	sess, err := store.Create("admin", conn)
	require.NoError(t, err)
	assert.Equal(t, 1, m.active)

	clock.Advance(59 * time.Minute)
	_, err = store.Get(context.Background(), sess.Token)
	require.NoError(t, err)

	// Expiry is inclusive: now == expires-at is already expired.
	clock.Advance(time.Minute)
	_, err = store.Get(context.Background(), sess.Token)
	assert.ErrorIs(t, err, ErrExpired)
	assert.True(t, conn.Closed())
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, 0, m.active)
	assert.Equal(t, 1, m.ended[EndExpired])

	_, err = store.Get(context.Background(), sess.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestNoSlidingExpiry(t *testing.T) {
	clock := newFakeClock()
	store := NewStore(10*time.Minute, WithClock(clock))

	sess, err := store.Create("admin", directorytest.New())
	require.NoError(t, err)

	for range 9 {
		clock.Advance(time.Minute)
		_, err := store.Get(context.Background(), sess.Token)
		require.NoError(t, err)
	}
	clock.Advance(time.Minute)
	_, err = store.Get(context.Background(), sess.Token)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestDestroy(t *testing.T) {
	m := &countingMetrics{}
	store := NewStore(time.Hour, WithMetrics(m))
	conn := directorytest.New()

	sess, err := store.Create("admin", conn)
	require.NoError(t, err)

	require.NoError(t, store.Destroy(context.Background(), sess.Token))
	assert.True(t, conn.Closed())
	assert.Equal(t, 1, m.ended[EndLogout])

	_, err = store.Get(context.Background(), sess.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	// Idempotent.
	require.NoError(t, store.Destroy(context.Background(), sess.Token))
	require.NoError(t, store.Destroy(context.Background(), "never-existed"))
	assert.Equal(t, 1, m.ended[EndLogout])
}

func TestClosedConnectionRejectsHolders(t *testing.T) {
	store := NewStore(time.Hour)
	conn := directorytest.New()

	sess, err := store.Create("admin", conn)
	require.NoError(t, err)

	held, err := store.Get(context.Background(), sess.Token)
	require.NoError(t, err)

	require.NoError(t, store.Destroy(context.Background(), sess.Token))

	_, err = held.Conn.ShowUser(context.Background(), "x", false)
	assert.ErrorIs(t, err, directory.ErrClosed)
}

func TestClose(t *testing.T) {
	store := NewStore(time.Hour)
	a, b := directorytest.New(), directorytest.New()
	_, err := store.Create("a", a)
	require.NoError(t, err)
	_, err = store.Create("b", b)
	require.NoError(t, err)

	store.Close(context.Background())
	assert.Equal(t, 0, store.Len())
	assert.True(t, a.Closed())
	assert.True(t, b.Closed())
}

func TestDefaultTTL(t *testing.T) {
	assert.Equal(t, DefaultTTL, NewStore(0).TTL())
	assert.Equal(t, time.Minute, NewStore(time.Minute).TTL())
}

func TestConcurrentAccess(t *testing.T) {
	clock := newFakeClock()
	store := NewStore(time.Minute, WithClock(clock))

	tokens := make([]string, 20)
	conns := make([]*directorytest.Fake, 20)
	for i := range tokens {
		conns[i] = directorytest.New()
		sess, err := store.Create("admin", conns[i])
		require.NoError(t, err)
		tokens[i] = sess.Token
	}
	clock.Advance(time.Minute)

	var wg sync.WaitGroup
	var mu sync.Mutex
	expired := make(map[string]int)

	for range 8 {
		for _, tok := range tokens {
			wg.Add(2)
			go func() {
				defer wg.Done()
				if _, err := store.Get(context.Background(), tok); err == ErrExpired {
					mu.Lock()
					expired[tok]++
					mu.Unlock()
				}
			}()
			go func() {
				defer wg.Done()
				_ = store.Destroy(context.Background(), tok)
			}()
		}
	}
	wg.Wait()

	assert.Equal(t, 0, store.Len())
	for i, tok := range tokens {
		assert.LessOrEqual(t, expired[tok], 1, "token %d reported expired more than once", i)
		assert.True(t, conns[i].Closed())
	}
}
