package storage

import (
	"context"
	"testing"
	"time"

	"blogwatch/internal/domain"
	"blogwatch/internal/ports"
)

// countingStore records how many reads reach the backend.
type countingStore struct {
	pubReads int
	artReads int
	pubs     []domain.Publication
	arts     []domain.Article
}

var _ ports.RecordStore = (*countingStore)(nil)

func (c *countingStore) Close() error { return nil }

func (c *countingStore) Publications(context.Context) ([]domain.Publication, error) {
	c.pubReads++
	return c.pubs, nil
}

func (c *countingStore) UpsertPublication(_ context.Context, pub domain.Publication) error {
	c.pubs = append(c.pubs, pub)
	return nil
}

func (c *countingStore) DeletePublication(context.Context, string) error { return nil }

func (c *countingStore) Articles(context.Context) ([]domain.Article, error) {
	c.artReads++
	return c.arts, nil
}

func (c *countingStore) SaveArticles(_ context.Context, articles []domain.Article) error {
	c.arts = articles
	return nil
}

func (c *countingStore) DeleteArticlesByFeed(context.Context, string) (int, error) { return 0, nil }

func TestCachedStoreServesSnapshot(t *testing.T) {
	t.Parallel()

	inner := &countingStore{pubs: []domain.Publication{{ID: "f1"}}}
	cached := NewCachedStore(inner, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		pubs, err := cached.Publications(ctx)
		if err != nil {
			t.Fatalf("Publications: %v", err)
		}
		if len(pubs) != 1 {
			t.Fatalf("got %d pubs", len(pubs))
		}
	}
	if inner.pubReads != 1 {
		t.Fatalf("backend reads = %d, want 1 (snapshot reused)", inner.pubReads)
	}
}

func TestCachedStoreInvalidatesOnWrite(t *testing.T) {
	t.Parallel()

	inner := &countingStore{}
	cached := NewCachedStore(inner, time.Minute)
	ctx := context.Background()

	if _, err := cached.Articles(ctx); err != nil {
		t.Fatal(err)
	}
	if err := cached.SaveArticles(ctx, []domain.Article{{ID: "a", URL: "u1"}}); err != nil {
		t.Fatal(err)
	}
	arts, err := cached.Articles(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(arts) != 1 {
		t.Fatalf("got %d articles after write, want 1 (snapshot invalidated)", len(arts))
	}
	if inner.artReads != 2 {
		t.Fatalf("backend reads = %d, want 2", inner.artReads)
	}
}

func TestCachedStoreZeroTTLPassesThrough(t *testing.T) {
	t.Parallel()

	inner := &countingStore{}
	if got := NewCachedStore(inner, 0); got != ports.RecordStore(inner) {
		t.Fatal("zero ttl should return the inner store unchanged")
	}
}
