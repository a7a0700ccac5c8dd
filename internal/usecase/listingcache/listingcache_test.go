package listingcache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/murtazox04/kelishamiz-backend/internal/entity"
	"github.com/murtazox04/kelishamiz-backend/internal/repo/cache"
	"github.com/murtazox04/kelishamiz-backend/pkg/logger"
	"github.com/murtazox04/kelishamiz-backend/pkg/metrics"
	"github.com/murtazox04/kelishamiz-backend/pkg/types/errs"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockListingSource struct{ mock.Mock }

func (m *MockListingSource) GetListingWithImages(ctx context.Context, id uuid.UUID) (*entity.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Listing), args.Error(1)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
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

type failingStore struct{}

func (failingStore) Get(context.Context, uuid.UUID) (entity.ListingSnapshot, bool, error) {
	return entity.ListingSnapshot{}, false, errors.New("connection refused")
}

func (failingStore) Set(context.Context, entity.ListingSnapshot) error {
	return errors.New("connection refused")
}

func (failingStore) Delete(context.Context, uuid.UUID) error {
	return errors.New("connection refused")
}

func newListing() *entity.Listing {
	return &entity.Listing{
		ID:      uuid.New(),
		OwnerID: uuid.New(),
		Title:   "iPhone 13, 128GB",
		Status:  entity.ListingDraft,
	}
}

func setup(window time.Duration) (*Cache, *MockListingSource, *fakeClock, *cache.MemoryStore) {
	source := &MockListingSource{}
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	store := cache.NewMemoryStore(0)

	c := New(store, source, logger.Nop(), Window(window), Clock(clock.Now))

	return c, source, clock, store
}

func TestResolveMissFetchesAndStores(t *testing.T) {
	c, source, _, store := setup(time.Minute)
	listing := newListing()
	source.On("GetListingWithImages", mock.Anything, listing.ID).Return(listing, nil).Once()

	got, err := c.Resolve(context.Background(), listing.ID)
	require.NoError(t, err)
	assert.Equal(t, listing.ID, got.ID)
	assert.Equal(t, 1, store.Len())
	source.AssertExpectations(t)
}

func TestResolveHitWithinWindow(t *testing.T) {
	c, source, clock, _ := setup(time.Minute)
	listing := newListing()
	source.On("GetListingWithImages", mock.Anything, listing.ID).Return(listing, nil).Once()

	_, err := c.Resolve(context.Background(), listing.ID)
	require.NoError(t, err)

	clock.Advance(59 * time.Second)

	got, err := c.Resolve(context.Background(), listing.ID)
	require.NoError(t, err)
	assert.Equal(t, listing.Title, got.Title)
	source.AssertNumberOfCalls(t, "GetListingWithImages", 1)
}

func TestResolveRefetchesAtWindowBoundary(t *testing.T) {
	c, source, clock, _ := setup(time.Minute)
	listing := newListing()
	updated := *listing
	updated.Images = []entity.ListingImage{{ID: uuid.New(), ListingID: listing.ID}}

	source.On("GetListingWithImages", mock.Anything, listing.ID).Return(listing, nil).Once()
	source.On("GetListingWithImages", mock.Anything, listing.ID).Return(&updated, nil).Once()

	_, err := c.Resolve(context.Background(), listing.ID)
	require.NoError(t, err)

	// now - cachedAt == window is already stale
	clock.Advance(time.Minute)

	got, err := c.Resolve(context.Background(), listing.ID)
	require.NoError(t, err)
	assert.Len(t, got.Images, 1)
	source.AssertNumberOfCalls(t, "GetListingWithImages", 2)
}

func TestResolveNotFoundIsNotCached(t *testing.T) {
	c, source, _, store := setup(time.Minute)
	id := uuid.New()
	source.On("GetListingWithImages", mock.Anything, id).Return(nil, errs.ErrRecordNotFound).Twice()

	_, err := c.Resolve(context.Background(), id)
	assert.ErrorIs(t, err, errs.ErrRecordNotFound)

	_, err = c.Resolve(context.Background(), id)
	assert.ErrorIs(t, err, errs.ErrRecordNotFound)

	assert.Equal(t, 0, store.Len())
	source.AssertExpectations(t)
}

func TestInvalidateForcesRefetch(t *testing.T) {
	c, source, _, store := setup(time.Hour)
	listing := newListing()
	source.On("GetListingWithImages", mock.Anything, listing.ID).Return(listing, nil).Twice()

	_, err := c.Resolve(context.Background(), listing.ID)
	require.NoError(t, err)

	c.Invalidate(context.Background(), listing.ID)
	assert.Equal(t, 0, store.Len())

	_, err = c.Resolve(context.Background(), listing.ID)
	require.NoError(t, err)
	source.AssertExpectations(t)
}

func TestResolveReturnsCopy(t *testing.T) {
	c, source, _, _ := setup(time.Hour)
	listing := newListing()
	source.On("GetListingWithImages", mock.Anything, listing.ID).Return(listing, nil).Once()

	_, err := c.Resolve(context.Background(), listing.ID)
	require.NoError(t, err)

	got, err := c.Resolve(context.Background(), listing.ID)
	require.NoError(t, err)
	got.Title = "changed"

	again, err := c.Resolve(context.Background(), listing.ID)
	require.NoError(t, err)
	assert.Equal(t, "iPhone 13, 128GB", again.Title)
}

func TestResolveDegradesOnStoreFailure(t *testing.T) {
	source := &MockListingSource{}
	m := metrics.New("test")
	c := New(failingStore{}, source, logger.Nop(), Metrics(m))

	listing := newListing()
	source.On("GetListingWithImages", mock.Anything, listing.ID).Return(listing, nil).Twice()

	for i := 0; i < 2; i++ {
		got, err := c.Resolve(context.Background(), listing.ID)
		require.NoError(t, err)
		assert.Equal(t, listing.ID, got.ID)
	}

	c.Invalidate(context.Background(), listing.ID)

	source.AssertExpectations(t)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.CacheLookups.WithLabelValues(resultError)))
}

func TestResolveConcurrent(t *testing.T) {
	c, source, _, _ := setup(time.Hour)
	listing := newListing()
	source.On("GetListingWithImages", mock.Anything, listing.ID).Return(listing, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			got, err := c.Resolve(context.Background(), listing.ID)
			assert.NoError(t, err)
			assert.Equal(t, listing.ID, got.ID)
		}()
	}
	wg.Wait()
}
