package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clanmetrics "clanhub/internal/clan/metrics"
	"clanhub/internal/clan/models"
	"clanhub/internal/clan/store"
	id "clanhub/pkg/domain"
	"clanhub/pkg/platform/sentinel"
)

// unreachableClient points at a closed port so every command fails fast.
func unreachableClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisOutageFallsBackToBackend(t *testing.T) {
	ctx := context.Background()
	backend := store.NewInMemory()
	m := clanmetrics.New(prometheus.NewRegistry())
	c := NewRedisCache(backend, unreachableClient(t), time.Minute,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(m),
	)

	region := "EU"
	clan, err := models.NewClan(id.NewClanID(), "Alpha", &region)
	require.NoError(t, err)
	require.NoError(t, c.Create(ctx, clan))

	got, err := c.FindByID(ctx, clan.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alpha", got.Name)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("error")))

	require.NoError(t, c.Delete(ctx, clan.ID))
	_, err = c.FindByID(ctx, clan.ID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	assert.Error(t, c.Ping(ctx))
}

func TestFindByIDReturnsIndependentCopies(t *testing.T) {
	ctx := context.Background()
	backend := store.NewInMemory()
	c := NewRedisCache(backend, unreachableClient(t), time.Minute)

	region := "EU"
	clan, err := models.NewClan(id.NewClanID(), "Alpha", &region)
	require.NoError(t, err)
	require.NoError(t, c.Create(ctx, clan))

	first, err := c.FindByID(ctx, clan.ID)
	require.NoError(t, err)
	*first.Region = "mutated"

	second, err := c.FindByID(ctx, clan.ID)
	require.NoError(t, err)
	assert.Equal(t, "EU", *second.Region)
}

// gatedBackend blocks FindByID until released and records the state of the
// context the read ran under.
type gatedBackend struct {
	*store.InMemory
	once    sync.Once
	started chan struct{}
	release chan struct{}
	loadErr chan error
}

func (b *gatedBackend) FindByID(ctx context.Context, clanID id.ClanID) (*models.Clan, error) {
	b.once.Do(func() { close(b.started) })
	<-b.release
	b.loadErr <- ctx.Err()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b.InMemory.FindByID(ctx, clanID)
}

func TestCancelledCallerDoesNotFailSharedLoad(t *testing.T) {
	backend := &gatedBackend{
		InMemory: store.NewInMemory(),
		started:  make(chan struct{}),
		release:  make(chan struct{}),
		loadErr:  make(chan error, 2),
	}
	c := NewRedisCache(backend, unreachableClient(t), time.Minute)

	clan, err := models.NewClan(id.NewClanID(), "Alpha", nil)
	require.NoError(t, err)
	require.NoError(t, c.Create(context.Background(), clan))

	type result struct {
		clan *models.Clan
		err  error
	}
	first := make(chan result, 1)
	firstCtx, cancelFirst := context.WithCancel(context.Background())
	go func() {
		got, err := c.FindByID(firstCtx, clan.ID)
		first <- result{got, err}
	}()
	<-backend.started

	second := make(chan result, 1)
	go func() {
		got, err := c.FindByID(context.Background(), clan.ID)
		second <- result{got, err}
	}()

	cancelFirst()
	firstResult := <-first
	assert.True(t, errors.Is(firstResult.err, context.Canceled))

	time.Sleep(50 * time.Millisecond)
	close(backend.release)

	assert.NoError(t, <-backend.loadErr, "shared load must not inherit a caller's cancellation")
	secondResult := <-second
	require.NoError(t, secondResult.err)
	assert.Equal(t, clan.ID, secondResult.clan.ID)
}

func TestDeletePropagatesNotFound(t *testing.T) {
	c := NewRedisCache(store.NewInMemory(), unreachableClient(t), time.Minute)

	err := c.Delete(context.Background(), id.NewClanID())

	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestCacheKey(t *testing.T) {
	clanID := id.NewClanID()
	assert.Equal(t, "clanhub:clan:"+clanID.String(), cacheKey(clanID))
}
