package listingcache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/murtazox04/kelishamiz-backend/internal/entity"
	"github.com/murtazox04/kelishamiz-backend/internal/repo"
	"github.com/murtazox04/kelishamiz-backend/internal/usecase"
	"github.com/murtazox04/kelishamiz-backend/pkg/logger"
	"github.com/murtazox04/kelishamiz-backend/pkg/metrics"
)

const _defaultWindow = 5 * time.Minute

const (
	resultHit   = "hit"
	resultMiss  = "miss"
	resultStale = "stale"
	resultError = "error"
)

// Cache memoizes listings with their images for a freshness window.
// Store failures fall through to the source; they never fail a lookup.
type Cache struct {
	store   repo.ListingSnapshotStore
	source  usecase.ListingSource
	window  time.Duration
	now     func() time.Time
	metrics *metrics.Metrics
	logger  logger.Interface
}

func New(store repo.ListingSnapshotStore, source usecase.ListingSource, l logger.Interface, opts ...Option) *Cache {
	c := &Cache{
		store:  store,
		source: source,
		window: _defaultWindow,
		now:    time.Now,
		logger: l,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Cache) Resolve(ctx context.Context, id uuid.UUID) (*entity.Listing, error) {
	snapshot, ok, err := c.store.Get(ctx, id)
	switch {
	case err != nil:
		c.observe(resultError)
		c.logger.Error(err, "Cache - Resolve - c.store.Get")
	case !ok:
		c.observe(resultMiss)
	case snapshot.Fresh(c.now(), c.window):
		c.observe(resultHit)

		listing := snapshot.Listing

		return &listing, nil
	default:
		c.observe(resultStale)
	}

	listing, err := c.source.GetListingWithImages(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Cache - Resolve - c.source.GetListingWithImages: %w", err)
	}

	err = c.store.Set(ctx, entity.ListingSnapshot{
		Listing:  *listing,
		CachedAt: c.now(),
	})
	if err != nil {
		c.logger.Error(err, "Cache - Resolve - c.store.Set")
	}

	return listing, nil
}

// Invalidate drops the entry so the next Resolve reads the new image set.
func (c *Cache) Invalidate(ctx context.Context, id uuid.UUID) {
	if err := c.store.Delete(ctx, id); err != nil {
		c.logger.Error(err, "Cache - Invalidate - c.store.Delete")
	}
}

func (c *Cache) observe(result string) {
	if c.metrics != nil {
		c.metrics.CacheLookups.WithLabelValues(result).Inc()
	}
}
