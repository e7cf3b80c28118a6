package acquire

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"blogwatch/internal/dates"
	"blogwatch/internal/domain"
)

// nextPageURL finds the pagination link leading deeper into the archive.
func nextPageURL(doc *goquery.Document, base *url.URL) string {
	if href, ok := doc.Find(`a[rel="next"]`).First().Attr("href"); ok {
		return resolveRef(base, href)
	}

	var found string
	doc.Find(".pagination a, .nav-previous a, .pager a, nav a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		text := strings.ToLower(strings.TrimSpace(a.Text()))
		if strings.Contains(text, "next") || strings.Contains(text, "older") {
			if href, ok := a.Attr("href"); ok {
				found = resolveRef(base, href)
				return false
			}
		}
		return true
	})
	return found
}

// crawlArchive follows pagination links from the root document, re-applies
// heuristic extraction to each page, and returns items not already present
// in seen URLs. Fetch failures simply end the crawl; whatever was collected
// stands.
func crawlArchive(ctx context.Context, client *Client, startDoc *goquery.Document, pageURL string, resolver *dates.Resolver, pageBudget int, seen map[string]struct{}) []domain.Article {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	var collected []domain.Article
	doc := startDoc
	visited := map[string]struct{}{pageURL: {}}

	for page := 0; page < pageBudget; page++ {
		next := nextPageURL(doc, base)
		if next == "" {
			break
		}
		if _, loop := visited[next]; loop {
			break
		}
		visited[next] = struct{}{}

		doc, err = client.Document(ctx, next)
		if err != nil {
			break
		}

		// No per-page cap: the final retention trim bounds the total.
		for _, article := range extractArticles(doc, next, resolver, 0) {
			if _, dup := seen[article.URL]; dup {
				continue
			}
			seen[article.URL] = struct{}{}
			collected = append(collected, article)
		}
	}

	return collected
}
