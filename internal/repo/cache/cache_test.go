package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/murtazox04/kelishamiz-backend/internal/entity"
	"github.com/murtazox04/kelishamiz-backend/internal/repo"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ repo.ListingSnapshotStore = (*MemoryStore)(nil)
	_ repo.ListingSnapshotStore = (*RedisStore)(nil)
)

func snapshot() entity.ListingSnapshot {
	id := uuid.New()

	return entity.ListingSnapshot{
		Listing: entity.Listing{
			ID:      id,
			OwnerID: uuid.New(),
			Title:   "Chevrolet Cobalt 2021",
			Status:  entity.ListingDraft,
			Images: []entity.ListingImage{{
				ID:          uuid.New(),
				ListingID:   id,
				ObjectKey:   "listings/" + id.String() + "/a.jpg",
				ContentType: "image/jpeg",
				Status:      entity.Pending,
			}},
		},
		CachedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client, ttl), mr
}

func stores(t *testing.T) map[string]repo.ListingSnapshotStore {
	rs, _ := newRedisStore(t, time.Minute)

	return map[string]repo.ListingSnapshotStore{
		"memory": NewMemoryStore(time.Minute),
		"redis":  rs,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			want := snapshot()

			_, ok, err := store.Get(ctx, want.Listing.ID)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, store.Set(ctx, want))

			got, ok, err := store.Get(ctx, want.Listing.ID)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, want.Listing.ID, got.Listing.ID)
			assert.Equal(t, want.Listing.Title, got.Listing.Title)
			assert.Len(t, got.Listing.Images, 1)
			assert.True(t, want.CachedAt.Equal(got.CachedAt))

			require.NoError(t, store.Delete(ctx, want.Listing.ID))

			_, ok, err = store.Get(ctx, want.Listing.ID)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestStoreLastWriterWins(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			first := snapshot()
			second := first
			second.Listing.Title = "updated"

			require.NoError(t, store.Set(ctx, first))
			require.NoError(t, store.Set(ctx, second))

			got, ok, err := store.Get(ctx, first.Listing.ID)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "updated", got.Listing.Title)
		})
	}
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			s := snapshot()
			assert.NoError(t, store.Set(ctx, s))
			_, ok, err := store.Get(ctx, s.Listing.ID)
			assert.NoError(t, err)
			assert.True(t, ok)
		}()
	}
	wg.Wait()

	assert.Equal(t, 32, store.Len())
}

func TestRedisStoreTTL(t *testing.T) {
	store, mr := newRedisStore(t, time.Minute)
	s := snapshot()

	require.NoError(t, store.Set(context.Background(), s))
	assert.Equal(t, time.Minute, mr.TTL(listingKeyPrefix+s.Listing.ID.String()))

	mr.FastForward(time.Minute + time.Second)

	_, ok, err := store.Get(context.Background(), s.Listing.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStoreDropsCorruptEntry(t *testing.T) {
	store, mr := newRedisStore(t, time.Minute)
	id := uuid.New()
	key := listingKeyPrefix + id.String()

	require.NoError(t, mr.Set(key, "{not json"))

	_, ok, err := store.Get(context.Background(), id)
	assert.Error(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists(key))
}

type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *tickingClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

func TestMemoryStoreExpiresOnGet(t *testing.T) {
	clock := &tickingClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(time.Minute, MemoryClock(clock.Now))
	ctx := context.Background()
	s := snapshot()

	require.NoError(t, store.Set(ctx, s))

	clock.Advance(59 * time.Second)
	_, ok, err := store.Get(ctx, s.Listing.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok, err = store.Get(ctx, s.Listing.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, store.Len())
}

func TestMemoryStoreSweepsUnreadEntries(t *testing.T) {
	clock := &tickingClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(time.Minute, MemoryClock(clock.Now))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Set(ctx, snapshot()))
	}
	require.Equal(t, 5, store.Len())

	clock.Advance(2 * time.Minute)
	fresh := snapshot()
	require.NoError(t, store.Set(ctx, fresh))

	assert.Equal(t, 1, store.Len())
	_, ok, err := store.Get(ctx, fresh.Listing.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStoreWithoutTTLKeepsEntries(t *testing.T) {
	clock := &tickingClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(0, MemoryClock(clock.Now))
	ctx := context.Background()
	s := snapshot()

	require.NoError(t, store.Set(ctx, s))
	clock.Advance(24 * time.Hour)

	_, ok, err := store.Get(ctx, s.Listing.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}
