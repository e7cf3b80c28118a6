package acquire

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"blogwatch/internal/dates"
	"blogwatch/internal/domain"
)

const excerptLength = 200

// feedToResult normalizes a parsed syndication feed into drafts. pubURL is
// the canonical publication URL the result will be recorded under.
func feedToResult(feed *gofeed.Feed, pubURL string, resolver *dates.Resolver, cap int) *Result {
	result := &Result{
		Publication: domain.Publication{
			Title:       strings.TrimSpace(feed.Title),
			Description: strings.TrimSpace(feed.Description),
			URL:         pubURL,
		},
	}
	if result.Publication.Title == "" {
		result.Publication.Title = "Unknown Feed"
	}

	for _, item := range feed.Items {
		if item == nil || item.Link == "" {
			continue
		}

		content := item.Content
		if content == "" {
			content = item.Description
		}

		article := domain.Article{
			Title:    strings.TrimSpace(item.Title),
			Content:  content,
			Excerpt:  textExcerpt(content, excerptLength),
			Author:   feedItemAuthor(item),
			URL:      item.Link,
			ImageURL: feedItemImage(item),
		}
		if article.Title == "" {
			article.Title = "Untitled"
		}

		// Structured date fields first, then free text, then a body scan.
		// A still-zero date falls through to ingestion time at merge.
		switch {
		case item.PublishedParsed != nil:
			article.PublishedAt = *item.PublishedParsed
		case item.UpdatedParsed != nil:
			article.PublishedAt = *item.UpdatedParsed
		default:
			if ts, ok := resolver.Resolve(item.Link, item.Published, item.Updated); ok {
				article.PublishedAt = ts
			} else if ts, ok := dates.ScanText(content); ok {
				article.PublishedAt = ts
			}
		}

		result.Articles = append(result.Articles, article)
		if cap > 0 && len(result.Articles) >= cap {
			break
		}
	}

	return result
}

func feedItemAuthor(item *gofeed.Item) string {
	if item.Author != nil && item.Author.Name != "" {
		return item.Author.Name
	}
	for _, author := range item.Authors {
		if author != nil && author.Name != "" {
			return author.Name
		}
	}
	if item.DublinCoreExt != nil && len(item.DublinCoreExt.Creator) > 0 {
		return item.DublinCoreExt.Creator[0]
	}
	return ""
}

func feedItemImage(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	return firstImageInHTML(item.Content)
}

// firstImageInHTML pulls the first <img src> out of an HTML fragment.
func firstImageInHTML(fragment string) string {
	if fragment == "" || !strings.Contains(fragment, "<") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img[src]").First().Attr("src")
	return src
}

// textExcerpt flattens an HTML fragment to text and truncates it for display.
func textExcerpt(fragment string, limit int) string {
	text := fragment
	if strings.Contains(fragment, "<") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment)); err == nil {
			text = doc.Text()
		}
	}
	text = strings.Join(strings.Fields(text), " ")

	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

// resolveRef resolves a possibly-relative href against a base URL.
func resolveRef(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
