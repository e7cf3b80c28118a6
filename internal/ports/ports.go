package ports

import (
	"context"

	"blogwatch/internal/domain"
)

// PublicationStore persists tracked publications.
type PublicationStore interface {
	Publications(ctx context.Context) ([]domain.Publication, error)
	UpsertPublication(ctx context.Context, pub domain.Publication) error
	DeletePublication(ctx context.Context, id string) error
}

// ArticleStore persists the shared article pool. SaveArticles rewrites the
// whole set: the merge step reads, dedups, re-sorts, and truncates it as one
// unit, so the store only needs whole-set semantics.
type ArticleStore interface {
	Articles(ctx context.Context) ([]domain.Article, error)
	SaveArticles(ctx context.Context, articles []domain.Article) error
	DeleteArticlesByFeed(ctx context.Context, feedID string) (int, error)
}

// RecordStore is the persistence collaborator for the whole pipeline. A flat
// file or a relational table both satisfy it.
type RecordStore interface {
	PublicationStore
	ArticleStore
	Close() error
}
