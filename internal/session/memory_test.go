package session

import (
	"cadence/internal/score"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualClock is a clock tests can move forward.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var now = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

func sessionAgo(id string, d time.Duration) score.Session {
	return score.Session{ID: id, Timestamp: now.Add(-d), DurationSec: 1800, Type: "run"}
}

func TestMemoryRepository_AppendAndSessions(t *testing.T) {
	repo := NewMemoryRepository(3, 0, 0, &manualClock{now: now})

	require.NoError(t, repo.Append("user1", sessionAgo("a", 3*time.Hour)))
	require.NoError(t, repo.Append("user1", sessionAgo("b", 2*time.Hour)))

	sessions, err := repo.Sessions(context.Background(), "user1", 28)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "b", sessions[0].ID, "newest first")
	assert.Equal(t, "a", sessions[1].ID)

	// a fourth append evicts the oldest session
	require.NoError(t, repo.Append("user1", sessionAgo("c", time.Hour)))
	require.NoError(t, repo.Append("user1", sessionAgo("d", 0)))
	sessions, err = repo.Sessions(context.Background(), "user1", 28)
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "c", "b"}, ids(sessions))
}

func TestMemoryRepository_UnknownUser(t *testing.T) {
	repo := NewMemoryRepository(3, 0, 0, &manualClock{now: now})

	sessions, err := repo.Sessions(context.Background(), "ghost", 28)
	require.NoError(t, err)
	assert.NotNil(t, sessions)
	assert.Empty(t, sessions)
}

func TestMemoryRepository_LookbackAndCap(t *testing.T) {
	repo := NewMemoryRepository(100, 2, 0, &manualClock{now: now})

	require.NoError(t, repo.Append("user1", sessionAgo("old", 40*24*time.Hour)))
	require.NoError(t, repo.Append("user1", sessionAgo("mid", 10*24*time.Hour)))
	require.NoError(t, repo.Append("user1", sessionAgo("new", time.Hour)))
	require.NoError(t, repo.Append("user1", sessionAgo("newest", time.Minute)))

	sessions, err := repo.Sessions(context.Background(), "user1", 29)
	require.NoError(t, err)
	assert.Equal(t, []string{"newest", "new"}, ids(sessions))

	uncapped := NewMemoryRepository(100, 0, 0, &manualClock{now: now})
	for _, s := range []score.Session{sessionAgo("old", 40*24*time.Hour), sessionAgo("mid", 10*24*time.Hour)} {
		require.NoError(t, uncapped.Append("user1", s))
	}
	sessions, err = uncapped.Sessions(context.Background(), "user1", 29)
	require.NoError(t, err)
	assert.Equal(t, []string{"mid"}, ids(sessions))
}

func TestMemoryRepository_CapByTimestamp(t *testing.T) {
	repo := NewMemoryRepository(100, 2, 0, &manualClock{now: now})

	// backfilled history arrives after the recent sessions
	require.NoError(t, repo.Append("user1", sessionAgo("new", time.Hour)))
	require.NoError(t, repo.Append("user1", sessionAgo("newest", time.Minute)))
	require.NoError(t, repo.Append("user1", sessionAgo("older", 3*24*time.Hour)))
	require.NoError(t, repo.Append("user1", sessionAgo("oldest", 4*24*time.Hour)))

	sessions, err := repo.Sessions(context.Background(), "user1", 29)
	require.NoError(t, err)
	assert.Equal(t, []string{"newest", "new"}, ids(sessions))
}

func TestMemoryRepository_SessionsBetween(t *testing.T) {
	repo := NewMemoryRepository(100, 2, 0, &manualClock{now: now})
	day := 24 * time.Hour
	for _, s := range []score.Session{
		sessionAgo("d22", 22*day),
		sessionAgo("d21", 21*day),
		sessionAgo("d1", day),
		sessionAgo("d0", 0),
	} {
		require.NoError(t, repo.Append("user1", s))
	}

	sessions, err := repo.SessionsBetween(context.Background(), "user1", now.Add(-28*day), now.Add(-20*day))
	require.NoError(t, err)
	assert.Equal(t, []string{"d21", "d22"}, ids(sessions))

	// to is exclusive
	sessions, err = repo.SessionsBetween(context.Background(), "user1", now.Add(-22*day), now.Add(-21*day))
	require.NoError(t, err)
	assert.Equal(t, []string{"d22"}, ids(sessions))
}

func TestMemoryRepository_RejectsMissingTimestamp(t *testing.T) {
	repo := NewMemoryRepository(3, 0, 0, &manualClock{now: now})

	err := repo.Append("user1", score.Session{ID: "x"})
	assert.ErrorIs(t, err, score.ErrInvalidSession)

	err = repo.Insert(context.Background(), "user1", []score.Session{sessionAgo("a", 0), {ID: "y"}})
	assert.ErrorIs(t, err, score.ErrInvalidSession)
}

func TestMemoryRepository_FillsMissingID(t *testing.T) {
	repo := NewMemoryRepository(3, 0, 0, &manualClock{now: now})

	require.NoError(t, repo.Append("user1", score.Session{Timestamp: now}))
	sessions, err := repo.Sessions(context.Background(), "user1", 1)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Len(t, sessions[0].ID, 36)
}

func TestMemoryRepository_Evict(t *testing.T) {
	clk := &manualClock{now: now}
	repo := NewMemoryRepository(3, 0, time.Hour, clk)

	require.NoError(t, repo.Append("stale", sessionAgo("a", 0)))
	clk.Advance(50 * time.Minute)
	require.NoError(t, repo.Append("fresh", sessionAgo("b", 0)))
	clk.Advance(20 * time.Minute)

	repo.evict()

	sessions, err := repo.Sessions(context.Background(), "stale", 28)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	sessions, err = repo.Sessions(context.Background(), "fresh", 28)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestMemoryRepository_ServeStop(t *testing.T) {
	repo := NewMemoryRepository(3, 0, time.Hour, nil)

	done := make(chan struct{})
	go func() {
		repo.Serve()
		close(done)
	}()

	require.NoError(t, repo.Close())
	repo.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after Stop")
	}
}

func TestMemoryRepository_CanceledContext(t *testing.T) {
	repo := NewMemoryRepository(3, 0, 0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Sessions(ctx, "user1", 28)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryRepository_ConcurrentAppend(t *testing.T) {
	repo := NewMemoryRepository(100, 0, 0, &manualClock{now: now})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(user string) {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				_ = repo.Append(user, sessionAgo(fmt.Sprintf("%s-%d", user, j), time.Duration(500-j)*time.Second))
			}
		}(fmt.Sprintf("user%d", i))
	}
	wg.Wait()

	for i := 0; i < 10; i++ {
		user := fmt.Sprintf("user%d", i)
		sessions, err := repo.Sessions(context.Background(), user, 28)
		require.NoError(t, err)
		require.Len(t, sessions, 100)
		assert.Equal(t, user+"-499", sessions[0].ID)
	}
}

func ids(sessions []score.Session) []string {
	result := make([]string, len(sessions))
	for i, s := range sessions {
		result[i] = s.ID
	}
	return result
}
