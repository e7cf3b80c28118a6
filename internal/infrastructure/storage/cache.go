package storage

import (
	"context"
	"sync"
	"time"

	"blogwatch/internal/domain"
	"blogwatch/internal/ports"
)

// CachedStore wraps a RecordStore with a read-through snapshot of both
// record kinds. Every merge rereads the full article pool, so a short TTL
// saves most of the backend traffic during a batch refresh. Writes
// invalidate immediately; staleness is bounded by the TTL otherwise.
type CachedStore struct {
	inner ports.RecordStore
	ttl   time.Duration

	mu         sync.Mutex
	pubs       []domain.Publication
	pubsExpiry time.Time
	arts       []domain.Article
	artsExpiry time.Time
}

var _ ports.RecordStore = (*CachedStore)(nil)

// NewCachedStore wraps inner; a ttl <= 0 returns inner unchanged.
func NewCachedStore(inner ports.RecordStore, ttl time.Duration) ports.RecordStore {
	if ttl <= 0 {
		return inner
	}
	return &CachedStore{inner: inner, ttl: ttl}
}

// Close closes the wrapped store.
func (c *CachedStore) Close() error { return c.inner.Close() }

// Publications returns the cached snapshot, refreshing it when expired.
func (c *CachedStore) Publications(ctx context.Context) ([]domain.Publication, error) {
	c.mu.Lock()
	if c.pubs != nil && time.Now().Before(c.pubsExpiry) {
		snapshot := make([]domain.Publication, len(c.pubs))
		copy(snapshot, c.pubs)
		c.mu.Unlock()
		return snapshot, nil
	}
	c.mu.Unlock()

	pubs, err := c.inner.Publications(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.pubs = pubs
	c.pubsExpiry = time.Now().Add(c.ttl)
	c.mu.Unlock()

	snapshot := make([]domain.Publication, len(pubs))
	copy(snapshot, pubs)
	return snapshot, nil
}

// UpsertPublication writes through and drops the publication snapshot.
func (c *CachedStore) UpsertPublication(ctx context.Context, pub domain.Publication) error {
	if err := c.inner.UpsertPublication(ctx, pub); err != nil {
		return err
	}
	c.invalidatePublications()
	return nil
}

// DeletePublication writes through and drops both snapshots.
func (c *CachedStore) DeletePublication(ctx context.Context, id string) error {
	if err := c.inner.DeletePublication(ctx, id); err != nil {
		return err
	}
	c.invalidatePublications()
	c.invalidateArticles()
	return nil
}

// Articles returns the cached snapshot, refreshing it when expired.
func (c *CachedStore) Articles(ctx context.Context) ([]domain.Article, error) {
	c.mu.Lock()
	if c.arts != nil && time.Now().Before(c.artsExpiry) {
		snapshot := make([]domain.Article, len(c.arts))
		copy(snapshot, c.arts)
		c.mu.Unlock()
		return snapshot, nil
	}
	c.mu.Unlock()

	arts, err := c.inner.Articles(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.arts = arts
	c.artsExpiry = time.Now().Add(c.ttl)
	c.mu.Unlock()

	snapshot := make([]domain.Article, len(arts))
	copy(snapshot, arts)
	return snapshot, nil
}

// SaveArticles writes through and drops the article snapshot.
func (c *CachedStore) SaveArticles(ctx context.Context, articles []domain.Article) error {
	if err := c.inner.SaveArticles(ctx, articles); err != nil {
		return err
	}
	c.invalidateArticles()
	return nil
}

// DeleteArticlesByFeed writes through and drops the article snapshot.
func (c *CachedStore) DeleteArticlesByFeed(ctx context.Context, feedID string) (int, error) {
	removed, err := c.inner.DeleteArticlesByFeed(ctx, feedID)
	if err != nil {
		return 0, err
	}
	c.invalidateArticles()
	return removed, nil
}

func (c *CachedStore) invalidatePublications() {
	c.mu.Lock()
	c.pubs = nil
	c.mu.Unlock()
}

func (c *CachedStore) invalidateArticles() {
	c.mu.Lock()
	c.arts = nil
	c.mu.Unlock()
}
