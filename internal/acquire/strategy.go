package acquire

import (
	"context"

	"github.com/PuerkitoBio/goquery"

	"blogwatch/internal/domain"
)

// Target carries what the strategies share: the canonical publication URL
// and, when the initial fetch succeeded, its parsed root document.
type Target struct {
	URL string
	Doc *goquery.Document
}

// Result is a normalized acquisition outcome. Publication and Articles are
// drafts: identifiers, owners, and creation timestamps are assigned later by
// the ingestion merge.
type Result struct {
	Publication domain.Publication
	Articles    []domain.Article
}

// Strategy is one acquisition technique in the ordered chain. Returning
// (nil, nil) means "nothing here, try the next one"; an error is logged and
// treated the same way. Only a result with at least one article stops the
// chain.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, target *Target) (*Result, error)
}
