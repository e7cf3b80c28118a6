package domain

import "time"

// Publication is a tracked syndication source (a blog or personal site).
// URL is the resolved publication root, never a specific post; it is unique
// across the whole store. OriginalURL keeps the post URL the user submitted
// when canonicalization collapsed it.
type Publication struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	OriginalURL string    `json:"original_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	LastFetched time.Time `json:"last_fetched"`
	LastUpdated time.Time `json:"last_updated"`
}

// Article is one ingested item owned by exactly one Publication.
// URL is the dedup key, global across publications. PublishedAt is the
// effective date after the date-resolution fallback chain and is never zero.
type Article struct {
	ID          string    `json:"id"`
	FeedID      string    `json:"feed_id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Excerpt     string    `json:"excerpt"`
	Author      string    `json:"author,omitempty"`
	URL         string    `json:"url"`
	ImageURL    string    `json:"image_url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	CreatedAt   time.Time `json:"created_at"`
}
