// Package store implements the dedup/merge/trim step of ingestion.
//
// The retained pool is global: dedup compares item URLs across every
// publication, and the retention cap applies to the whole set, so the reader
// always sees a single recency-ordered stream.
package store

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"blogwatch/internal/domain"
)

// DefaultLimit is the retention cap applied when the caller passes 0.
const DefaultLimit = 50

// Result reports what a merge did.
type Result struct {
	// Added is how many incoming articles survived dedup.
	Added int
	// Articles is the final retained set, effective date descending.
	Articles []domain.Article
}

// Merge dedups incoming drafts against the existing set by item URL, assigns
// identifiers and creation timestamps to survivors, then re-sorts everything
// by effective date descending (creation time breaks ties) and truncates to
// limit. Idempotent: re-merging identical input adds nothing.
func Merge(existing, incoming []domain.Article, limit int, now time.Time) Result {
	if limit <= 0 {
		limit = DefaultLimit
	}

	seen := make(map[string]struct{}, len(existing))
	for _, art := range existing {
		seen[art.URL] = struct{}{}
	}

	merged := make([]domain.Article, len(existing), len(existing)+len(incoming))
	copy(merged, existing)

	added := 0
	for _, art := range incoming {
		if art.URL == "" {
			continue
		}
		if _, dup := seen[art.URL]; dup {
			continue
		}
		seen[art.URL] = struct{}{}

		art.ID = uuid.NewString()
		art.CreatedAt = now
		if art.PublishedAt.IsZero() {
			// Last-resort effective date; the acquisition side normally
			// resolves one before we get here.
			art.PublishedAt = now
		}
		merged = append(merged, art)
		added++
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if !merged[i].PublishedAt.Equal(merged[j].PublishedAt) {
			return merged[i].PublishedAt.After(merged[j].PublishedAt)
		}
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})

	if len(merged) > limit {
		merged = merged[:limit]
	}

	return Result{Added: added, Articles: merged}
}
