package acquire

import (
	"context"
	"strings"

	"blogwatch/internal/dates"
)

// Hosts that block generic scraping or hide their feeds; mapped straight to
// a known-good syndication endpoint so we skip discovery entirely.
var knownFeeds = map[string]string{
	"paulgraham.com":     "http://www.aaronsw.com/2002/feeds/pgessays.rss",
	"www.paulgraham.com": "http://www.aaronsw.com/2002/feeds/pgessays.rss",
	"sive.rs":            "https://sive.rs/en.atom",
	"danluu.com":         "https://danluu.com/atom.xml",
	"blog.samaltman.com": "https://blog.samaltman.com/posts.atom",
}

type knownFeedStrategy struct {
	client   *Client
	resolver *dates.Resolver
	cap      int
}

func (s *knownFeedStrategy) Name() string { return "known-feed" }

func (s *knownFeedStrategy) Attempt(ctx context.Context, target *Target) (*Result, error) {
	feedURL, ok := knownFeeds[strings.ToLower(hostOf(target.URL))]
	if !ok {
		return nil, nil
	}

	feed, err := s.client.Feed(ctx, feedURL)
	if err != nil {
		return nil, err
	}
	return feedToResult(feed, target.URL, s.resolver, s.cap), nil
}
