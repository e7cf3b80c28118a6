package acquire

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"blogwatch/internal/classify"
	"blogwatch/internal/dates"
	"blogwatch/internal/domain"
)

// Block selectors tried in order: platform-specific shapes first, generic
// article-like patterns after.
var blockSelectors = []string{
	// Platform-specific: substack, ghost, wordpress themes, indieweb.
	".post-preview",
	".post-card",
	"article.post",
	".h-entry",
	// Generic.
	"main article",
	"article",
	".post",
	".blog-post",
	".entry",
	`[class*="post"]`,
	`[class*="article"]`,
	`[class*="entry"]`,
}

// extractStrategy applies structural selectors to the fetched document and
// pulls article candidates out of each matching block.
type extractStrategy struct {
	resolver *dates.Resolver
	cap      int
}

func (s *extractStrategy) Name() string { return "html-extract" }

func (s *extractStrategy) Attempt(ctx context.Context, target *Target) (*Result, error) {
	if target.Doc == nil {
		return nil, nil
	}

	articles := extractArticles(target.Doc, target.URL, s.resolver, s.cap)
	if len(articles) == 0 {
		return nil, nil
	}

	return &Result{
		Publication: publicationFromDoc(target.Doc, target.URL),
		Articles:    articles,
	}, nil
}

// extractArticles runs the selector chain against a document. Candidates
// failing the article filter are dropped; the survivors are deduped by URL
// and capped.
func extractArticles(doc *goquery.Document, pageURL string, resolver *dates.Resolver, cap int) []domain.Article {
	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}

	for _, selector := range blockSelectors {
		blocks := doc.Find(selector)
		if blocks.Length() == 0 {
			continue
		}
		if articles := extractFromBlocks(blocks, base, resolver, cap); len(articles) > 0 {
			return articles
		}
	}

	// Last resort: treat parents of blog-ish links as blocks.
	blocks := doc.Find(`a[href*="/blog"], a[href*="/post"], a[href*="/article"]`).Parent()
	return extractFromBlocks(blocks, base, resolver, cap)
}

func extractFromBlocks(blocks *goquery.Selection, base *url.URL, resolver *dates.Resolver, cap int) []domain.Article {
	var articles []domain.Article
	seen := map[string]struct{}{}

	blocks.EachWithBreak(func(_ int, block *goquery.Selection) bool {
		article, ok := extractBlock(block, base, resolver)
		if !ok {
			return true
		}
		if _, dup := seen[article.URL]; dup {
			return true
		}
		seen[article.URL] = struct{}{}
		articles = append(articles, article)
		return cap <= 0 || len(articles) < cap
	})

	return articles
}

// extractBlock pulls one candidate out of a block using nested fallback
// selectors for each field.
func extractBlock(block *goquery.Selection, base *url.URL, resolver *dates.Resolver) (domain.Article, bool) {
	title := strings.TrimSpace(block.Find("h1, h2, h3, .title, .post-title, .entry-title").First().Text())

	href, _ := block.Find("a[href]").First().Attr("href")
	link := resolveRef(base, href)

	if !classify.IsArticle(link, title) {
		return domain.Article{}, false
	}

	excerpt := strings.TrimSpace(block.Find(".excerpt, .summary, .description, p").First().Text())

	author := strings.TrimSpace(block.Find(`.author, .byline, [class*="author"]`).First().Text())

	dateAttr, _ := block.Find("time[datetime]").First().Attr("datetime")
	dateText := strings.TrimSpace(block.Find(`.date, .published, time, [class*="date"]`).First().Text())

	imageSrc, _ := block.Find("img[src]").First().Attr("src")

	article := domain.Article{
		Title:    title,
		Content:  excerpt,
		Excerpt:  textExcerpt(excerpt, excerptLength),
		Author:   author,
		URL:      link,
		ImageURL: resolveRef(base, imageSrc),
	}

	if ts, ok := resolver.Resolve(link, dateAttr, dateText); ok {
		article.PublishedAt = ts
	} else if ts, ok := dates.ScanText(block.Text()); ok {
		article.PublishedAt = ts
	}
	// A zero date falls back to ingestion time at merge.

	return article, true
}

// publicationFromDoc drafts publication metadata from a page's head.
func publicationFromDoc(doc *goquery.Document, pageURL string) domain.Publication {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = "Unknown Blog"
	}
	description, _ := doc.Find(`meta[name="description"]`).Attr("content")

	return domain.Publication{
		Title:       title,
		Description: strings.TrimSpace(description),
		URL:         pageURL,
	}
}
