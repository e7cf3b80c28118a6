package acquire

import (
	"context"
	"strings"

	"blogwatch/internal/dates"
)

// Conventional feed endpoints, tried in order.
var feedSuffixes = []string{"/feed", "/rss", "/feed.xml", "/rss.xml"}

// probeStrategy tries conventional endpoint suffixes against recognized
// publishing platforms. Unrecognized hosts are skipped so we do not hammer
// arbitrary sites with guesses.
type probeStrategy struct {
	client   *Client
	resolver *dates.Resolver
	cap      int
}

func (s *probeStrategy) Name() string { return "platform-probe" }

func (s *probeStrategy) Attempt(ctx context.Context, target *Target) (*Result, error) {
	if !isPublishingPlatform(target.URL, target.Doc) {
		return nil, nil
	}
	return probeEndpoints(ctx, s.client, target.URL, s.resolver, s.cap)
}

// probeEndpoints walks the suffix table and returns the first endpoint that
// parses as a feed with items. Also used blind when the initial page fetch
// fails outright.
func probeEndpoints(ctx context.Context, client *Client, baseURL string, resolver *dates.Resolver, cap int) (*Result, error) {
	base := strings.TrimSuffix(baseURL, "/")

	for _, suffix := range feedSuffixes {
		feed, err := client.Feed(ctx, base+suffix)
		if err != nil {
			continue
		}
		if len(feed.Items) == 0 {
			continue
		}
		return feedToResult(feed, baseURL, resolver, cap), nil
	}
	return nil, nil
}
