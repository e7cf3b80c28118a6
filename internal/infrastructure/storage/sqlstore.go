// Package storage provides the record-store backends behind the pipeline:
// a relational store (SQLite or Postgres), a flat-file store matching the
// project's original JSON layout, and a read-through TTL cache wrapper.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"blogwatch/internal/domain"
	"blogwatch/internal/ports"
)

// Timestamps are stored as RFC 3339 text so both drivers behave identically.
const timeLayout = time.RFC3339Nano

const schema = `
CREATE TABLE IF NOT EXISTS publications (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	url          TEXT NOT NULL UNIQUE,
	original_url TEXT NOT NULL DEFAULT '',
	created_at   TEXT NOT NULL,
	last_fetched TEXT NOT NULL,
	last_updated TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS articles (
	id           TEXT PRIMARY KEY,
	feed_id      TEXT NOT NULL,
	title        TEXT NOT NULL,
	content      TEXT NOT NULL DEFAULT '',
	excerpt      TEXT NOT NULL DEFAULT '',
	author       TEXT NOT NULL DEFAULT '',
	url          TEXT NOT NULL UNIQUE,
	image_url    TEXT NOT NULL DEFAULT '',
	published_at TEXT NOT NULL,
	created_at   TEXT NOT NULL
);
`

// SQLStore implements ports.RecordStore on database/sql.
type SQLStore struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

var _ ports.RecordStore = (*SQLStore)(nil)

// NewSQLStore opens the database, verifies the connection, and creates the
// schema. driver is "sqlite" or "postgres".
func NewSQLStore(driver, dsn string) (*SQLStore, error) {
	var (
		driverName  string
		placeholder sq.PlaceholderFormat
	)
	switch driver {
	case "sqlite":
		driverName = "sqlite"
		placeholder = sq.Question
		if dir := filepath.Dir(dsn); dir != "." && !strings.HasPrefix(dsn, ":") {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
		}
	case "postgres":
		driverName = "postgres"
		placeholder = sq.Dollar
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLStore{db: db, sb: sq.StatementBuilder.PlaceholderFormat(placeholder)}, nil
}

// Close closes the underlying database connection.
func (s *SQLStore) Close() error { return s.db.Close() }

// Publications returns every tracked publication.
func (s *SQLStore) Publications(ctx context.Context) ([]domain.Publication, error) {
	query, args, err := s.sb.
		Select("id", "title", "description", "url", "original_url", "created_at", "last_fetched", "last_updated").
		From("publications").
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query publications: %w", err)
	}
	defer rows.Close()

	var pubs []domain.Publication
	for rows.Next() {
		var pub domain.Publication
		var created, lastFetched, lastUpdated string
		if err := rows.Scan(&pub.ID, &pub.Title, &pub.Description, &pub.URL, &pub.OriginalURL,
			&created, &lastFetched, &lastUpdated); err != nil {
			return nil, fmt.Errorf("scan publication: %w", err)
		}
		pub.CreatedAt = parseTime(created)
		pub.LastFetched = parseTime(lastFetched)
		pub.LastUpdated = parseTime(lastUpdated)
		pubs = append(pubs, pub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate publications: %w", err)
	}
	return pubs, nil
}

// UpsertPublication inserts or updates one publication by id.
func (s *SQLStore) UpsertPublication(ctx context.Context, pub domain.Publication) error {
	query, args, err := s.sb.
		Insert("publications").
		Columns("id", "title", "description", "url", "original_url", "created_at", "last_fetched", "last_updated").
		Values(pub.ID, pub.Title, pub.Description, pub.URL, pub.OriginalURL,
			formatTime(pub.CreatedAt), formatTime(pub.LastFetched), formatTime(pub.LastUpdated)).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			last_fetched = excluded.last_fetched,
			last_updated = excluded.last_updated`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert publication: %w", err)
	}
	return nil
}

// DeletePublication removes a publication and its articles.
func (s *SQLStore) DeletePublication(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.execDelete(ctx, tx, "articles", "feed_id", id); err != nil {
		return err
	}
	if err := s.execDelete(ctx, tx, "publications", "id", id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLStore) execDelete(ctx context.Context, tx *sql.Tx, table, column, value string) error {
	query, args, err := s.sb.Delete(table).Where(sq.Eq{column: value}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	return nil
}

// Articles returns the whole article pool, effective date descending.
func (s *SQLStore) Articles(ctx context.Context) ([]domain.Article, error) {
	query, args, err := s.sb.
		Select("id", "feed_id", "title", "content", "excerpt", "author", "url", "image_url", "published_at", "created_at").
		From("articles").
		OrderBy("published_at DESC", "created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		var art domain.Article
		var published, created string
		if err := rows.Scan(&art.ID, &art.FeedID, &art.Title, &art.Content, &art.Excerpt,
			&art.Author, &art.URL, &art.ImageURL, &published, &created); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		art.PublishedAt = parseTime(published)
		art.CreatedAt = parseTime(created)
		articles = append(articles, art)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate articles: %w", err)
	}
	return articles, nil
}

// SaveArticles replaces the whole article pool in one transaction; the merge
// step has already deduped, sorted, and trimmed it.
func (s *SQLStore) SaveArticles(ctx context.Context, articles []domain.Article) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM articles"); err != nil {
		return fmt.Errorf("clear articles: %w", err)
	}

	for _, art := range articles {
		query, args, err := s.sb.
			Insert("articles").
			Columns("id", "feed_id", "title", "content", "excerpt", "author", "url", "image_url", "published_at", "created_at").
			Values(art.ID, art.FeedID, art.Title, art.Content, art.Excerpt, art.Author,
				art.URL, art.ImageURL, formatTime(art.PublishedAt), formatTime(art.CreatedAt)).
			ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert article %s: %w", art.URL, err)
		}
	}

	return tx.Commit()
}

// DeleteArticlesByFeed removes a publication's articles, returning the count.
func (s *SQLStore) DeleteArticlesByFeed(ctx context.Context, feedID string) (int, error) {
	query, args, err := s.sb.Delete("articles").Where(sq.Eq{"feed_id": feedID}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete articles: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(affected), nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
