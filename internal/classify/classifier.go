// Package classify decides whether a URL or document belongs to a
// personal/blog-style publication, and filters extracted article candidates.
package classify

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Verdict is the outcome of the URL-level gate.
type Verdict int

const (
	// Blocked means the host can never be a personal publication.
	Blocked Verdict = iota
	// CheckContent defers the decision until the document body is fetched.
	CheckContent
	// Accepted means the URL already looks like publication content.
	Accepted
)

func (v Verdict) String() string {
	switch v {
	case Blocked:
		return "blocked"
	case CheckContent:
		return "check-content"
	case Accepted:
		return "accepted"
	}
	return "unknown"
}

// Hosts that are social networks, mailbox providers, marketplaces, or generic
// site-builders rather than publications. Matched against the host and its
// subdomains.
var deniedHosts = []string{
	"facebook.com", "twitter.com", "x.com", "instagram.com", "tiktok.com",
	"linkedin.com", "pinterest.com", "reddit.com", "youtube.com",
	"gmail.com", "mail.google.com", "outlook.com", "mail.yahoo.com",
	"amazon.com", "ebay.com", "etsy.com", "aliexpress.com",
	"wix.com", "squarespace.com", "shopify.com", "godaddy.com",
	"docs.google.com", "drive.google.com", "dropbox.com",
}

// Long-form essay sites that defeat the generic heuristics (sparse markup,
// no feed links) but are known good.
var essayHosts = map[string]bool{
	"paulgraham.com":     true,
	"www.paulgraham.com": true,
	"danluu.com":         true,
	"gwern.net":          true,
	"www.gwern.net":      true,
	"sive.rs":            true,
}

var (
	pathKeywords = []string{"/blog", "/essays", "/articles", "/posts", "/writing", "/news", "/journal", "/notes"}
	feedKeywords = []string{"/feed", "/rss", "/atom"}
	datePath     = regexp.MustCompile(`/\d{4}/\d{1,2}(/\d{1,2})?(/|$)|/\d{4}-\d{2}-\d{2}`)
	docExtension = regexp.MustCompile(`\.(html?|php|md|txt)$`)
)

// Classifier gates submitted URLs and scores fetched documents.
type Classifier struct {
	// MinIndicators is the content-score acceptance threshold.
	MinIndicators int
}

// NewClassifier builds a classifier with the given content-indicator
// threshold; values < 1 fall back to 2.
func NewClassifier(minIndicators int) *Classifier {
	if minIndicators < 1 {
		minIndicators = 2
	}
	return &Classifier{MinIndicators: minIndicators}
}

// ClassifyURL decides from the URL alone. Bare domain roots defer to
// ClassifyContent once the document is available. Scheme-less input gets
// the same https default the canonical resolver applies.
func (c *Classifier) ClassifyURL(raw string) Verdict {
	raw = strings.TrimSpace(raw)
	if raw != "" && !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return Blocked
	}

	host := strings.ToLower(u.Hostname())
	for _, denied := range deniedHosts {
		if host == denied || strings.HasSuffix(host, "."+denied) {
			return Blocked
		}
	}

	path := strings.ToLower(strings.TrimSuffix(u.Path, "/"))
	if path == "" {
		return CheckContent
	}

	for _, kw := range pathKeywords {
		if strings.Contains(path, kw) {
			return Accepted
		}
	}
	for _, kw := range feedKeywords {
		if strings.Contains(path, kw) {
			return Accepted
		}
	}
	if datePath.MatchString(path) || docExtension.MatchString(path) {
		return Accepted
	}
	// Two or more path segments usually means a content page.
	if len(splitSegments(path)) >= 2 {
		return Accepted
	}

	return CheckContent
}

// ClassifyContent scores a fetched document against independent blog
// indicators and accepts iff the count reaches the threshold. Coarse by
// design; both false positives and negatives are tolerated downstream.
func (c *Classifier) ClassifyContent(doc *goquery.Document, pageURL string) bool {
	score := 0

	if doc.Find("article, main section, .post-list").Length() > 0 {
		score++
	}
	if doc.Find(`[class*="post"], [class*="entry"], [class*="article"]`).Length() > 0 {
		score++
	}
	if hasStructuredArticle(doc) {
		score++
	}
	if doc.Find(`link[type="application/rss+xml"], link[type="application/atom+xml"]`).Length() > 0 {
		score++
	}
	if hasNavTerm(doc) {
		score++
	}
	if doc.Find(`time[datetime], .date, .published, .byline, [class*="author"]`).Length() > 0 {
		score++
	}
	if doc.Find("article").Length() >= 2 || doc.Find(".post, .entry, .blog-post").Length() >= 2 {
		score++
	}
	if titleLooksEditorial(doc) {
		score++
	}

	if u, err := url.Parse(pageURL); err == nil && essayHosts[strings.ToLower(u.Hostname())] {
		score += 2
	}

	return score >= c.MinIndicators
}

func hasStructuredArticle(doc *goquery.Document) bool {
	found := false
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if strings.Contains(text, `"Article"`) || strings.Contains(text, `"BlogPosting"`) {
			found = true
			return false
		}
		return true
	})
	if found {
		return true
	}
	ogType, _ := doc.Find(`meta[property="og:type"]`).Attr("content")
	ogType = strings.ToLower(ogType)
	return strings.Contains(ogType, "article") || strings.Contains(ogType, "blog")
}

var navTerms = []string{"blog", "archive", "essays", "posts", "articles", "writing"}

func hasNavTerm(doc *goquery.Document) bool {
	found := false
	doc.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		text := strings.ToLower(strings.TrimSpace(a.Text()))
		for _, term := range navTerms {
			if text == term {
				found = true
				return false
			}
		}
		return true
	})
	return found
}

var editorialTitleTerms = []string{"blog", "essays", "writing", "journal", "notes", "thoughts", "posts"}

func titleLooksEditorial(doc *goquery.Document) bool {
	title := strings.ToLower(doc.Find("title").First().Text())
	for _, term := range editorialTitleTerms {
		if strings.Contains(title, term) {
			return true
		}
	}
	return false
}

func splitSegments(path string) []string {
	var segments []string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}
