package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"blogwatch/internal/acquire"
	"blogwatch/internal/classify"
	"blogwatch/internal/dates"
	"blogwatch/internal/domain"
	"blogwatch/internal/logging"
	"blogwatch/internal/ports"
)

// memStore is an in-memory RecordStore for pipeline tests.
type memStore struct {
	mu   sync.Mutex
	pubs []domain.Publication
	arts []domain.Article
}

var _ ports.RecordStore = (*memStore)(nil)

func (m *memStore) Close() error { return nil }

func (m *memStore) Publications(context.Context) ([]domain.Publication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Publication, len(m.pubs))
	copy(out, m.pubs)
	return out, nil
}

func (m *memStore) UpsertPublication(_ context.Context, pub domain.Publication) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.pubs {
		if m.pubs[i].ID == pub.ID {
			m.pubs[i] = pub
			return nil
		}
	}
	m.pubs = append(m.pubs, pub)
	return nil
}

func (m *memStore) DeletePublication(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.pubs[:0]
	for _, pub := range m.pubs {
		if pub.ID != id {
			kept = append(kept, pub)
		}
	}
	m.pubs = kept
	return nil
}

func (m *memStore) Articles(context.Context) ([]domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Article, len(m.arts))
	copy(out, m.arts)
	return out, nil
}

func (m *memStore) SaveArticles(_ context.Context, articles []domain.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.arts = make([]domain.Article, len(articles))
	copy(m.arts, articles)
	return nil
}

func (m *memStore) DeleteArticlesByFeed(_ context.Context, feedID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := make([]domain.Article, 0, len(m.arts))
	for _, art := range m.arts {
		if art.FeedID != feedID {
			kept = append(kept, art)
		}
	}
	removed := len(m.arts) - len(kept)
	m.arts = kept
	return removed, nil
}

// blogServer serves a minimal blog: an index advertising an RSS feed, and the
// feed itself.
func blogServer(t *testing.T, items int) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Test Blog</title>
			<link rel="alternate" type="application/rss+xml" href="/rss">
		</head><body></body></html>`)
	})
	mux.HandleFunc("/rss", func(w http.ResponseWriter, r *http.Request) {
		var b strings.Builder
		b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel>`)
		b.WriteString(`<title>Test Blog</title><description>A blog used in tests</description>`)
		for i := 0; i < items; i++ {
			fmt.Fprintf(&b,
				`<item><title>Post %d</title><link>%s/blog/2024/01/post-%d</link>`+
					`<pubDate>Mon, 0%d Jan 2024 10:00:00 +0000</pubDate>`+
					`<description>Body %d</description></item>`,
				i, srv.URL, i, (i%9)+1, i)
		}
		b.WriteString(`</channel></rss>`)
		fmt.Fprint(w, b.String())
	})

	return srv
}

func newTestService(store ports.RecordStore, srv *httptest.Server) *Service {
	var httpClient *http.Client
	if srv != nil {
		httpClient = srv.Client()
	}
	client := acquire.NewClient(httpClient, "test-agent", 0)
	classifier := classify.NewClassifier(2)
	engine := acquire.NewEngine(client, dates.NewResolver(nil), classifier, logging.Nop(), acquire.Config{})

	return NewService(Deps{
		Store:      store,
		Engine:     engine,
		Classifier: classifier,
		Logger:     logging.Nop(),
		Cooldown:   time.Hour,
		Workers:    2,
	})
}

func TestIngestCreatesPublicationAndArticles(t *testing.T) {
	srv := blogServer(t, 3)
	store := &memStore{}
	svc := newTestService(store, srv)

	pub, added, err := svc.Ingest(context.Background(), srv.URL+"/blog/2024/01/post-0")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if pub.Title != "Test Blog" {
		t.Fatalf("title = %q, want feed title", pub.Title)
	}
	if pub.URL != srv.URL {
		t.Fatalf("canonical url = %q, want site root %q", pub.URL, srv.URL)
	}
	if pub.OriginalURL != srv.URL+"/blog/2024/01/post-0" {
		t.Fatalf("original url = %q", pub.OriginalURL)
	}
	if added != 3 {
		t.Fatalf("added = %d, want 3", added)
	}
	if len(store.pubs) != 1 || len(store.arts) != 3 {
		t.Fatalf("store has %d pubs / %d articles, want 1 / 3", len(store.pubs), len(store.arts))
	}
}

func TestIngestIdempotentAcrossPostURLs(t *testing.T) {
	srv := blogServer(t, 3)
	store := &memStore{}
	svc := newTestService(store, srv)

	first, _, err := svc.Ingest(context.Background(), srv.URL+"/blog/2024/01/post-0")
	if err != nil {
		t.Fatalf("first Ingest: %v", err)
	}

	// A different post URL from the same site resolves to the same record.
	second, added, err := svc.Ingest(context.Background(), srv.URL+"/blog/2024/01/post-1")
	if err != nil {
		t.Fatalf("second Ingest: %v", err)
	}

	if second.ID != first.ID {
		t.Fatalf("resubmission created a new publication: %s != %s", second.ID, first.ID)
	}
	if added != 0 {
		t.Fatalf("resubmission added %d articles, want 0", added)
	}
	if len(store.pubs) != 1 {
		t.Fatalf("store has %d publications, want 1", len(store.pubs))
	}
}

func TestIngestConcurrentSameURL(t *testing.T) {
	srv := blogServer(t, 3)
	store := &memStore{}
	svc := newTestService(store, srv)

	const callers = 8
	var wg sync.WaitGroup
	ids := make([]string, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pub, _, err := svc.Ingest(context.Background(), srv.URL+"/blog/2024/01/post-0")
			if err != nil {
				t.Errorf("Ingest: %v", err)
				return
			}
			ids[i] = pub.ID
		}(i)
	}
	wg.Wait()

	if len(store.pubs) != 1 {
		t.Fatalf("store has %d publications, want 1 (canonical URL must stay unique)", len(store.pubs))
	}
	for i := 1; i < callers; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("caller %d got publication %s, caller 0 got %s", i, ids[i], ids[0])
		}
	}
	if len(store.arts) != 3 {
		t.Fatalf("store has %d articles, want 3", len(store.arts))
	}
}

func TestIngestBlockedHost(t *testing.T) {
	store := &memStore{}
	svc := newTestService(store, nil)

	_, _, err := svc.Ingest(context.Background(), "https://twitter.com/someone")
	if !errors.Is(err, domain.ErrClassificationRejected) {
		t.Fatalf("err = %v, want ErrClassificationRejected", err)
	}
	if len(store.pubs) != 0 || len(store.arts) != 0 {
		t.Fatal("rejected ingest must leave no side effects")
	}
}

func TestRefreshDueHonorsCooldown(t *testing.T) {
	srv := blogServer(t, 2)
	store := &memStore{}
	svc := newTestService(store, srv)

	now := time.Now()
	store.pubs = []domain.Publication{{
		ID:          "feed-1",
		Title:       "Test Blog",
		URL:         srv.URL,
		LastFetched: now,
	}}

	refreshed, failures, err := svc.RefreshDue(context.Background(), false)
	if err != nil {
		t.Fatalf("RefreshDue: %v", err)
	}
	if refreshed != 0 || len(failures) != 0 {
		t.Fatalf("fresh publication was refreshed: %d refreshed, %d failures", refreshed, len(failures))
	}

	refreshed, failures, err = svc.RefreshDue(context.Background(), true)
	if err != nil {
		t.Fatalf("forced RefreshDue: %v", err)
	}
	if refreshed != 1 {
		t.Fatalf("forced refresh count = %d, want 1", refreshed)
	}
	if len(failures) != 0 {
		t.Fatalf("unexpected failures: %v", failures)
	}
	if !store.pubs[0].LastFetched.After(now) && !store.pubs[0].LastFetched.Equal(now) {
		t.Fatalf("lastFetched not advanced: %v", store.pubs[0].LastFetched)
	}
	if len(store.arts) != 2 {
		t.Fatalf("refresh stored %d articles, want 2", len(store.arts))
	}
}

func TestRefreshFailureKeepsFeedEligible(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	store := &memStore{}
	svc := newTestService(store, srv)

	stale := time.Now().Add(-2 * time.Hour)
	store.pubs = []domain.Publication{{
		ID:          "feed-1",
		Title:       "Gone Blog",
		URL:         srv.URL,
		LastFetched: stale,
	}}

	refreshed, failures, err := svc.RefreshDue(context.Background(), false)
	if err != nil {
		t.Fatalf("RefreshDue: %v", err)
	}
	if refreshed != 0 {
		t.Fatalf("refreshed = %d, want 0", refreshed)
	}
	if len(failures) != 1 || failures[0].FeedID != "feed-1" {
		t.Fatalf("failures = %v, want one entry for feed-1", failures)
	}
	if !store.pubs[0].LastFetched.Equal(stale) {
		t.Fatal("failed refresh must not advance lastFetched")
	}
}

func TestListArticlesFilterAndPaging(t *testing.T) {
	store := &memStore{}
	svc := newTestService(store, nil)

	base := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	store.arts = []domain.Article{
		{ID: "a", FeedID: "f1", URL: "u1", PublishedAt: base.AddDate(0, 0, 2)},
		{ID: "b", FeedID: "f2", URL: "u2", PublishedAt: base.AddDate(0, 0, 3)},
		{ID: "c", FeedID: "f1", URL: "u3", PublishedAt: base.AddDate(0, 0, 1)},
	}

	all, total, err := svc.ListArticles(context.Background(), "", 0, 0)
	if err != nil {
		t.Fatalf("ListArticles: %v", err)
	}
	if total != 3 || len(all) != 3 {
		t.Fatalf("total = %d, len = %d, want 3/3", total, len(all))
	}
	if all[0].ID != "b" || all[2].ID != "c" {
		t.Fatalf("wrong order: %s ... %s", all[0].ID, all[2].ID)
	}

	scoped, total, err := svc.ListArticles(context.Background(), "f1", 1, 0)
	if err != nil {
		t.Fatalf("ListArticles: %v", err)
	}
	if total != 2 || len(scoped) != 1 || scoped[0].ID != "a" {
		t.Fatalf("scoped page = %v (total %d)", scoped, total)
	}

	empty, total, err := svc.ListArticles(context.Background(), "", 10, 99)
	if err != nil {
		t.Fatalf("ListArticles: %v", err)
	}
	if total != 3 || len(empty) != 0 {
		t.Fatalf("out-of-range offset: total = %d, len = %d", total, len(empty))
	}
}

func TestDeleteFeed(t *testing.T) {
	store := &memStore{}
	svc := newTestService(store, nil)

	store.pubs = []domain.Publication{{ID: "f1", Title: "Blog", URL: "https://a.example"}}
	store.arts = []domain.Article{
		{ID: "a", FeedID: "f1", URL: "u1"},
		{ID: "b", FeedID: "f2", URL: "u2"},
	}

	removed, err := svc.DeleteFeed(context.Background(), "f1")
	if err != nil {
		t.Fatalf("DeleteFeed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if len(store.pubs) != 0 {
		t.Fatal("publication not deleted")
	}
	if len(store.arts) != 1 || store.arts[0].FeedID != "f2" {
		t.Fatal("other feeds' articles must survive")
	}

	if _, err := svc.DeleteFeed(context.Background(), "missing"); !errors.Is(err, domain.ErrFeedNotFound) {
		t.Fatalf("err = %v, want ErrFeedNotFound", err)
	}
}
