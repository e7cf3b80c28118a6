package acquire

import (
	"context"
	"net/url"

	"blogwatch/internal/dates"
)

// discoveryStrategy reads the syndication <link> tags embedded in the target
// page and parses the advertised feed.
type discoveryStrategy struct {
	client   *Client
	resolver *dates.Resolver
	cap      int
}

func (s *discoveryStrategy) Name() string { return "syndication-discovery" }

func (s *discoveryStrategy) Attempt(ctx context.Context, target *Target) (*Result, error) {
	if target.Doc == nil {
		return nil, nil
	}

	href, ok := target.Doc.Find(
		`link[type="application/rss+xml"], link[type="application/atom+xml"]`,
	).First().Attr("href")
	if !ok || href == "" {
		return nil, nil
	}

	base, err := url.Parse(target.URL)
	if err != nil {
		return nil, nil
	}
	feedURL := resolveRef(base, href)
	if feedURL == "" {
		return nil, nil
	}

	feed, err := s.client.Feed(ctx, feedURL)
	if err != nil {
		return nil, err
	}
	return feedToResult(feed, target.URL, s.resolver, s.cap), nil
}
