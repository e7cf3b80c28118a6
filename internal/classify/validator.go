package classify

import (
	"net/url"
	"regexp"
	"strings"
)

// Navigation labels that show up as fake "articles" when a selector matches
// site chrome. Compared case-insensitively against the whole title.
var navTitles = map[string]bool{
	"about": true, "contact": true, "subscribe": true, "home": true,
	"login": true, "log in": true, "sign in": true, "sign up": true,
	"privacy": true, "terms": true, "rss": true, "search": true,
	"menu": true, "next": true, "previous": true,
	"older posts": true, "newer posts": true, "read more": true,
}

// Paths that are site infrastructure, never articles.
var nonContentPaths = map[string]bool{
	"/about": true, "/contact": true, "/subscribe": true,
	"/rss": true, "/feed": true, "/atom": true, "/sitemap": true,
	"/sitemap.xml": true, "/privacy": true, "/terms": true,
	"/login": true, "/signup": true, "/search": true, "/tags": true,
	"/categories": true,
}

var (
	dateSegment     = regexp.MustCompile(`/\d{4}[/-]\d{1,2}([/-]\d{1,2})?(/|$)`)
	contentPrefixes = []string{"/p/", "/post/", "/posts/", "/blog/", "/essays/", "/articles/", "/notes/", "/writing/"}
	fileExtension   = regexp.MustCompile(`\.(html?|php|md)$`)
)

// IsArticle is the precision filter applied to extracted (url, title)
// candidates. It rejects navigation and boilerplate; it is not a discovery
// mechanism, so a false negative only drops one candidate.
func IsArticle(rawURL, title string) bool {
	title = strings.TrimSpace(title)
	if rawURL == "" || title == "" {
		return false
	}
	if navTitles[strings.ToLower(title)] {
		return false
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	path := strings.ToLower(strings.TrimSuffix(u.Path, "/"))
	if len(path) < 3 {
		return false
	}
	if nonContentPaths[path] {
		return false
	}

	if dateSegment.MatchString(path) || fileExtension.MatchString(path) {
		return true
	}
	for _, prefix := range contentPrefixes {
		if strings.Contains(path, prefix) {
			return true
		}
	}
	return len(splitSegments(path)) > 2
}
