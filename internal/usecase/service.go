// Package usecase orchestrates the ingestion pipeline: classification,
// canonicalization, acquisition, merge, and the refresh cycle.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"blogwatch/internal/acquire"
	"blogwatch/internal/canonical"
	"blogwatch/internal/classify"
	"blogwatch/internal/domain"
	"blogwatch/internal/ports"
	"blogwatch/internal/store"
)

// FeedError reports one publication's failure during a batch refresh.
type FeedError struct {
	FeedID  string `json:"feed_id"`
	Title   string `json:"title"`
	Message string `json:"error"`
}

// Deps wires the service's collaborators.
type Deps struct {
	Store       ports.RecordStore
	Engine      *acquire.Engine
	Classifier  *classify.Classifier
	Logger      *slog.Logger
	Cooldown    time.Duration
	MaxArticles int
	Workers     int
}

// Service exposes the pipeline operations consumed by the endpoint layer
// and the periodic scheduler.
type Service struct {
	storage     ports.RecordStore
	engine      *acquire.Engine
	classifier  *classify.Classifier
	logger      *slog.Logger
	cooldown    time.Duration
	maxArticles int
	workers     int

	// Serializes the store's read-modify-write sections: the article merge
	// rewrites the whole pool, and findOrCreate must re-check canonical-URL
	// uniqueness under the same lock. Single writer.
	storeMu sync.Mutex
	// One in-flight refresh per publication.
	inflight sync.Map

	now func() time.Time
}

// NewService builds the pipeline service.
func NewService(deps Deps) *Service {
	cooldown := deps.Cooldown
	if cooldown <= 0 {
		cooldown = time.Hour
	}
	workers := deps.Workers
	if workers <= 0 {
		workers = 4
	}
	maxArticles := deps.MaxArticles
	if maxArticles <= 0 {
		maxArticles = store.DefaultLimit
	}

	return &Service{
		storage:     deps.Store,
		engine:      deps.Engine,
		classifier:  deps.Classifier,
		logger:      deps.Logger,
		cooldown:    cooldown,
		maxArticles: maxArticles,
		workers:     workers,
		now:         time.Now,
	}
}

// Ingest classifies, canonicalizes, and acquires a submitted URL, then
// merges the result into the store. Returns the publication (existing or
// new) and how many articles survived dedup. A rejected or unreachable URL
// produces no side effects.
func (s *Service) Ingest(ctx context.Context, rawURL string) (domain.Publication, int, error) {
	verdict := s.classifier.ClassifyURL(rawURL)
	if verdict == classify.Blocked {
		return domain.Publication{}, 0, fmt.Errorf("%s: %w", rawURL, domain.ErrClassificationRejected)
	}

	canonicalURL := canonical.Resolve(rawURL)
	s.logger.Debug("ingest", "url", rawURL, "canonical", canonicalURL, "verdict", verdict.String())

	draft, articles, err := s.engine.Acquire(ctx, canonicalURL, verdict == classify.CheckContent)
	if err != nil {
		return domain.Publication{}, 0, err
	}

	now := s.now()
	pub, err := s.findOrCreate(ctx, draft, canonicalURL, rawURL, now)
	if err != nil {
		return domain.Publication{}, 0, err
	}

	added, err := s.mergeArticles(ctx, pub.ID, articles, now)
	if err != nil {
		return domain.Publication{}, 0, err
	}

	s.logger.Info("ingested", "feed", pub.Title, "url", canonicalURL, "added", added)
	return pub, added, nil
}

// findOrCreate enforces canonical-URL uniqueness with first-write-wins.
// Resubmission keeps the existing record but opportunistically refreshes its
// title, description, and timestamps.
func (s *Service) findOrCreate(ctx context.Context, draft domain.Publication, canonicalURL, originalURL string, now time.Time) (domain.Publication, error) {
	s.storeMu.Lock()
	defer s.storeMu.Unlock()

	pubs, err := s.storage.Publications(ctx)
	if err != nil {
		return domain.Publication{}, fmt.Errorf("load publications: %w", err)
	}

	var pub domain.Publication
	found := false
	for _, existing := range pubs {
		if existing.URL == canonicalURL {
			pub = existing
			found = true
			break
		}
	}

	if found {
		if draft.Title != "" {
			pub.Title = draft.Title
		}
		if draft.Description != "" {
			pub.Description = draft.Description
		}
	} else {
		pub = domain.Publication{
			ID:          uuid.NewString(),
			Title:       draft.Title,
			Description: draft.Description,
			URL:         canonicalURL,
			CreatedAt:   now,
		}
		if originalURL != canonicalURL {
			pub.OriginalURL = originalURL
		}
	}
	pub.LastFetched = now
	pub.LastUpdated = now

	if err := s.storage.UpsertPublication(ctx, pub); err != nil {
		return domain.Publication{}, fmt.Errorf("save publication: %w", err)
	}
	return pub, nil
}

// mergeArticles runs the global dedup/sort/trim step under the single-writer
// lock and persists the final set.
func (s *Service) mergeArticles(ctx context.Context, feedID string, drafts []domain.Article, now time.Time) (int, error) {
	for i := range drafts {
		drafts[i].FeedID = feedID
	}

	s.storeMu.Lock()
	defer s.storeMu.Unlock()

	existing, err := s.storage.Articles(ctx)
	if err != nil {
		return 0, fmt.Errorf("load articles: %w", err)
	}

	result := store.Merge(existing, drafts, s.maxArticles, now)
	if err := s.storage.SaveArticles(ctx, result.Articles); err != nil {
		return 0, fmt.Errorf("save articles: %w", err)
	}
	return result.Added, nil
}

// RefreshDue re-acquires every publication whose cooldown elapsed; force
// bypasses the cooldown entirely. Publications are processed concurrently up
// to the worker bound, one in-flight refresh per publication. A failing
// publication is reported and skipped, never aborting the batch.
func (s *Service) RefreshDue(ctx context.Context, force bool) (int, []FeedError, error) {
	pubs, err := s.storage.Publications(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("load publications: %w", err)
	}

	now := s.now()
	var due []domain.Publication
	for _, pub := range pubs {
		if force || now.Sub(pub.LastFetched) > s.cooldown {
			due = append(due, pub)
		}
	}
	if len(due) == 0 {
		return 0, nil, nil
	}

	var (
		mu        sync.Mutex
		refreshed int
		failures  []FeedError
		wg        sync.WaitGroup
	)
	sem := make(chan struct{}, s.workers)

	for _, pub := range due {
		if _, running := s.inflight.LoadOrStore(pub.ID, struct{}{}); running {
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(pub domain.Publication) {
			defer wg.Done()
			defer func() { <-sem }()
			defer s.inflight.Delete(pub.ID)

			if err := s.refreshOne(ctx, pub); err != nil {
				s.logger.Error("refresh failed", "feed", pub.Title, "url", pub.URL, "error", err)
				mu.Lock()
				failures = append(failures, FeedError{FeedID: pub.ID, Title: pub.Title, Message: err.Error()})
				mu.Unlock()
				return
			}

			mu.Lock()
			refreshed++
			mu.Unlock()
		}(pub)
	}

	wg.Wait()
	s.logger.Info("refresh cycle done", "due", len(due), "refreshed", refreshed, "failed", len(failures))
	return refreshed, failures, nil
}

// refreshOne re-acquires a single publication. On failure lastFetched is
// left unchanged so the publication stays eligible next cycle.
func (s *Service) refreshOne(ctx context.Context, pub domain.Publication) error {
	draft, articles, err := s.engine.Acquire(ctx, pub.URL, false)
	if err != nil {
		return err
	}

	now := s.now()
	if draft.Title != "" {
		pub.Title = draft.Title
	}
	if draft.Description != "" {
		pub.Description = draft.Description
	}
	pub.LastFetched = now
	pub.LastUpdated = now

	if err := s.storage.UpsertPublication(ctx, pub); err != nil {
		return fmt.Errorf("save publication: %w", err)
	}

	added, err := s.mergeArticles(ctx, pub.ID, articles, now)
	if err != nil {
		return err
	}
	if added > 0 {
		s.logger.Info("refresh added articles", "feed", pub.Title, "added", added)
	}
	return nil
}

// DueFeeds previews which publications the next non-forced cycle would touch.
func (s *Service) DueFeeds(ctx context.Context) ([]domain.Publication, error) {
	pubs, err := s.storage.Publications(ctx)
	if err != nil {
		return nil, fmt.Errorf("load publications: %w", err)
	}

	now := s.now()
	var due []domain.Publication
	for _, pub := range pubs {
		if now.Sub(pub.LastFetched) > s.cooldown {
			due = append(due, pub)
		}
	}
	return due, nil
}

// ListFeeds returns every tracked publication.
func (s *Service) ListFeeds(ctx context.Context) ([]domain.Publication, error) {
	return s.storage.Publications(ctx)
}

// ListArticles returns a page of articles, effective date descending,
// optionally scoped to one publication, plus the unpaged total.
func (s *Service) ListArticles(ctx context.Context, feedID string, limit, offset int) ([]domain.Article, int, error) {
	articles, err := s.storage.Articles(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("load articles: %w", err)
	}

	if feedID != "" {
		filtered := articles[:0]
		for _, art := range articles {
			if art.FeedID == feedID {
				filtered = append(filtered, art)
			}
		}
		articles = filtered
	}

	sort.SliceStable(articles, func(i, j int) bool {
		if !articles[i].PublishedAt.Equal(articles[j].PublishedAt) {
			return articles[i].PublishedAt.After(articles[j].PublishedAt)
		}
		return articles[i].CreatedAt.After(articles[j].CreatedAt)
	})

	total := len(articles)
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []domain.Article{}, total, nil
	}
	articles = articles[offset:]
	if limit > 0 && len(articles) > limit {
		articles = articles[:limit]
	}
	return articles, total, nil
}

// DeleteFeed removes a publication and its articles, returning how many
// articles went with it.
func (s *Service) DeleteFeed(ctx context.Context, id string) (int, error) {
	pubs, err := s.storage.Publications(ctx)
	if err != nil {
		return 0, fmt.Errorf("load publications: %w", err)
	}

	found := false
	for _, pub := range pubs {
		if pub.ID == id {
			found = true
			break
		}
	}
	if !found {
		return 0, domain.ErrFeedNotFound
	}

	removed, err := s.storage.DeleteArticlesByFeed(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("delete articles: %w", err)
	}
	if err := s.storage.DeletePublication(ctx, id); err != nil {
		return 0, fmt.Errorf("delete publication: %w", err)
	}
	return removed, nil
}
