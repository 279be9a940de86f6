package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/shared/id"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	wid := id.NewWindowID()

	_, ok, err := s.Get(ctx, wid)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := s.SetIfAbsent(ctx, wid, "https://d-1.example/frame.html")
	require.NoError(t, err)
	assert.Equal(t, "https://d-1.example/frame.html", stored)

	stored, err = s.SetIfAbsent(ctx, wid, "https://d-2.example/frame.html")
	require.NoError(t, err)
	assert.Equal(t, "https://d-1.example/frame.html", stored, "first write wins")

	got, ok, err := s.Get(ctx, wid)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "https://d-1.example/frame.html", got)

	require.NoError(t, s.Delete(ctx, wid))
	_, ok, err = s.Get(ctx, wid)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err = s.SetIfAbsent(ctx, wid, "https://d-3.example/frame.html")
	require.NoError(t, err)
	assert.Equal(t, "https://d-3.example/frame.html", stored)
}

func TestMemoryStore(t *testing.T) {
	m := NewMemory()
	exerciseStore(t, m)
	assert.Equal(t, 1, m.Len())
}

func TestMemoryStoreConcurrentFirstWriteWins(t *testing.T) {
	m := NewMemory()
	wid := id.NewWindowID()

	var wg sync.WaitGroup
	results := make([]string, 50)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u, err := m.SetIfAbsent(context.Background(), wid, "url-"+string(rune('a'+i%26)))
			if err == nil {
				results[i] = u
			}
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, results[0], r)
	}
}

func TestRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rs, err := NewRedis(context.Background(), mr.Addr(), time.Hour)
	require.NoError(t, err)
	defer rs.Close()

	exerciseStore(t, rs)
}

func TestRedisStoreSharedBetweenClients(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	ctx := context.Background()
	a, err := NewRedis(ctx, mr.Addr(), 0)
	require.NoError(t, err)
	defer a.Close()
	b, err := NewRedis(ctx, "redis://"+mr.Addr()+"/0", 0)
	require.NoError(t, err)
	defer b.Close()

	wid := id.NewWindowID()
	first, err := a.SetIfAbsent(ctx, wid, "https://d-111.example/frame.html")
	require.NoError(t, err)
	second, err := b.SetIfAbsent(ctx, wid, "https://d-222.example/frame.html")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRedisStoreTTL(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	ctx := context.Background()
	rs, err := NewRedis(ctx, mr.Addr(), time.Minute)
	require.NoError(t, err)
	defer rs.Close()

	wid := id.NewWindowID()
	_, err = rs.SetIfAbsent(ctx, wid, "https://d-1.example/frame.html")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, ok, err := rs.Get(ctx, wid)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewRedisUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := NewRedis(ctx, "127.0.0.1:1", 0)
	assert.Error(t, err)
}

func TestParseRedisURL(t *testing.T) {
	tests := []struct {
		url    string
		addrs  int
		master string
		db     int
	}{
		{"localhost:6379", 1, "", 0},
		{"redis://:pass@localhost:6379/1", 1, "", 1},
		{"redis://host1:6379,host2:6379/0", 2, "", 0},
		{"redis://localhost:6379?db=3", 1, "", 3},
		{"rediss://localhost:6380/2", 1, "", 2},
		{"redis-sentinel://s1:26379,s2:26379/mymaster?db=4", 2, "mymaster", 4},
	}

	for _, tt := range tests {
		opts, err := parseRedisURL(tt.url)
		require.NoError(t, err, tt.url)
		assert.Len(t, opts.Addrs, tt.addrs, tt.url)
		assert.Equal(t, tt.master, opts.MasterName, tt.url)
		assert.Equal(t, tt.db, opts.DB, tt.url)
	}

	_, err := parseRedisURL("http://localhost:6379")
	assert.Error(t, err)
	_, err = parseRedisURL("redis://localhost:6379/notadb")
	assert.Error(t, err)
}

type flakyStore struct {
	*Memory
	fail  bool
	calls int
}

func (f *flakyStore) Get(ctx context.Context, wid id.WindowID) (string, bool, error) {
	f.calls++
	if f.fail {
		return "", false, errors.New("connection refused")
	}
	return f.Memory.Get(ctx, wid)
}

func TestGuardedStore(t *testing.T) {
	exerciseStore(t, NewGuarded(NewMemory(), resilience.New("memory", resilience.Settings{})))
}

func TestGuardedStoreOpensOnFailures(t *testing.T) {
	inner := &flakyStore{Memory: NewMemory(), fail: true}
	g := NewGuarded(inner, resilience.New("redis", resilience.Settings{
		Timeout: time.Minute,
		ReadyToTrip: func(c resilience.Counts) bool {
			return c.ConsecutiveFailures >= 2
		},
	}))
	ctx := context.Background()
	wid := id.NewWindowID()

	for i := 0; i < 2; i++ {
		_, _, err := g.Get(ctx, wid)
		assert.Error(t, err)
	}
	assert.Equal(t, resilience.StateOpen, g.State())

	_, _, err := g.Get(ctx, wid)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, 2, inner.calls, "open breaker does not reach the store")
}
