package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"blogwatch/internal/domain"
)

func newSqliteStore(t *testing.T) *SQLStore {
	t.Helper()
	store, err := NewSQLStore("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := newSqliteStore(t)
	ctx := context.Background()

	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	pub := domain.Publication{
		ID:          "f1",
		Title:       "Test Blog",
		Description: "notes",
		URL:         "https://a.example",
		CreatedAt:   now,
		LastFetched: now,
		LastUpdated: now,
	}
	if err := store.UpsertPublication(ctx, pub); err != nil {
		t.Fatalf("UpsertPublication: %v", err)
	}

	// Upsert by id updates in place.
	pub.Title = "Renamed Blog"
	if err := store.UpsertPublication(ctx, pub); err != nil {
		t.Fatalf("UpsertPublication: %v", err)
	}

	pubs, err := store.Publications(ctx)
	if err != nil {
		t.Fatalf("Publications: %v", err)
	}
	if len(pubs) != 1 || pubs[0].Title != "Renamed Blog" {
		t.Fatalf("pubs = %+v", pubs)
	}
	if !pubs[0].LastFetched.Equal(now) {
		t.Fatalf("LastFetched = %v, want %v", pubs[0].LastFetched, now)
	}

	articles := []domain.Article{
		{ID: "a", FeedID: "f1", Title: "One", URL: "https://a.example/blog/one", PublishedAt: now, CreatedAt: now},
		{ID: "b", FeedID: "f1", Title: "Two", URL: "https://a.example/blog/two", PublishedAt: now.AddDate(0, 0, 1), CreatedAt: now},
		{ID: "c", FeedID: "f2", Title: "Other", URL: "https://b.example/blog/x", PublishedAt: now, CreatedAt: now},
	}
	if err := store.SaveArticles(ctx, articles); err != nil {
		t.Fatalf("SaveArticles: %v", err)
	}

	got, err := store.Articles(ctx)
	if err != nil {
		t.Fatalf("Articles: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d articles, want 3", len(got))
	}
	if got[0].ID != "b" {
		t.Fatalf("first article = %s, want the newest by published_at", got[0].ID)
	}
}

func TestSQLStoreDeleteArticlesByFeed(t *testing.T) {
	t.Parallel()

	store := newSqliteStore(t)
	ctx := context.Background()

	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	if err := store.SaveArticles(ctx, []domain.Article{
		{ID: "a", FeedID: "f1", URL: "u1", PublishedAt: now, CreatedAt: now},
		{ID: "b", FeedID: "f1", URL: "u2", PublishedAt: now, CreatedAt: now},
		{ID: "c", FeedID: "f2", URL: "u3", PublishedAt: now, CreatedAt: now},
	}); err != nil {
		t.Fatalf("SaveArticles: %v", err)
	}

	removed, err := store.DeleteArticlesByFeed(ctx, "f1")
	if err != nil {
		t.Fatalf("DeleteArticlesByFeed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}

	removed, err = store.DeleteArticlesByFeed(ctx, "absent")
	if err != nil || removed != 0 {
		t.Fatalf("delete of absent feed: %d, %v", removed, err)
	}
}

func TestSQLStoreDeletePublicationCascades(t *testing.T) {
	t.Parallel()

	store := newSqliteStore(t)
	ctx := context.Background()

	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	if err := store.UpsertPublication(ctx, domain.Publication{
		ID: "f1", Title: "Blog", URL: "https://a.example",
		CreatedAt: now, LastFetched: now, LastUpdated: now,
	}); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveArticles(ctx, []domain.Article{
		{ID: "a", FeedID: "f1", URL: "u1", PublishedAt: now, CreatedAt: now},
		{ID: "b", FeedID: "f2", URL: "u2", PublishedAt: now, CreatedAt: now},
	}); err != nil {
		t.Fatal(err)
	}

	if err := store.DeletePublication(ctx, "f1"); err != nil {
		t.Fatalf("DeletePublication: %v", err)
	}

	pubs, _ := store.Publications(ctx)
	if len(pubs) != 0 {
		t.Fatalf("pubs = %+v, want empty", pubs)
	}
	arts, _ := store.Articles(ctx)
	if len(arts) != 1 || arts[0].FeedID != "f2" {
		t.Fatalf("arts = %+v, want only f2's article", arts)
	}
}
