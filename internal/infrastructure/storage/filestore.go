package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"blogwatch/internal/domain"
	"blogwatch/internal/ports"
)

// FileStore keeps publications and articles as two pretty-printed JSON files
// under a data directory. Whole-set read/write, guarded by one mutex; fine
// for a single-process reader, and trivially inspectable.
type FileStore struct {
	mu        sync.Mutex
	feedsPath string
	postsPath string
}

var _ ports.RecordStore = (*FileStore)(nil)

// NewFileStore ensures the data directory and both files exist.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	fs := &FileStore{
		feedsPath: filepath.Join(dir, "feeds.json"),
		postsPath: filepath.Join(dir, "posts.json"),
	}
	for _, path := range []string{fs.feedsPath, fs.postsPath} {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
				return nil, fmt.Errorf("init %s: %w", path, err)
			}
		}
	}
	return fs, nil
}

// Close is a no-op; files are written synchronously.
func (f *FileStore) Close() error { return nil }

// Publications reads the full feed list.
func (f *FileStore) Publications(_ context.Context) ([]domain.Publication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var pubs []domain.Publication
	if err := readJSON(f.feedsPath, &pubs); err != nil {
		return nil, err
	}
	return pubs, nil
}

// UpsertPublication replaces the matching record or appends a new one.
func (f *FileStore) UpsertPublication(_ context.Context, pub domain.Publication) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var pubs []domain.Publication
	if err := readJSON(f.feedsPath, &pubs); err != nil {
		return err
	}

	replaced := false
	for i := range pubs {
		if pubs[i].ID == pub.ID {
			pubs[i] = pub
			replaced = true
			break
		}
	}
	if !replaced {
		pubs = append(pubs, pub)
	}
	return writeJSON(f.feedsPath, pubs)
}

// DeletePublication removes a feed record and its articles.
func (f *FileStore) DeletePublication(ctx context.Context, id string) error {
	f.mu.Lock()

	var pubs []domain.Publication
	if err := readJSON(f.feedsPath, &pubs); err != nil {
		f.mu.Unlock()
		return err
	}

	kept := pubs[:0]
	for _, pub := range pubs {
		if pub.ID != id {
			kept = append(kept, pub)
		}
	}
	err := writeJSON(f.feedsPath, kept)
	f.mu.Unlock()
	if err != nil {
		return err
	}

	_, err = f.DeleteArticlesByFeed(ctx, id)
	return err
}

// Articles reads the full article pool.
func (f *FileStore) Articles(_ context.Context) ([]domain.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var articles []domain.Article
	if err := readJSON(f.postsPath, &articles); err != nil {
		return nil, err
	}
	return articles, nil
}

// SaveArticles rewrites the full article pool.
func (f *FileStore) SaveArticles(_ context.Context, articles []domain.Article) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if articles == nil {
		articles = []domain.Article{}
	}
	return writeJSON(f.postsPath, articles)
}

// DeleteArticlesByFeed drops one publication's articles, returning the count.
func (f *FileStore) DeleteArticlesByFeed(_ context.Context, feedID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var articles []domain.Article
	if err := readJSON(f.postsPath, &articles); err != nil {
		return 0, err
	}

	kept := make([]domain.Article, 0, len(articles))
	for _, art := range articles {
		if art.FeedID != feedID {
			kept = append(kept, art)
		}
	}
	removed := len(articles) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	return removed, writeJSON(f.postsPath, kept)
}

func readJSON(path string, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, value any) error {
	raw, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
