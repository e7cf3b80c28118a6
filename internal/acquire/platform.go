package acquire

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Hosted publishing platforms whose feed endpoints follow known conventions.
var platformHosts = []string{
	"substack.com", "medium.com", "wordpress.com", "blogspot.com",
	"ghost.io", "bearblog.dev", "micro.blog", "write.as", "svbtle.com",
}

// Self-hosted generators that expose conventional feed endpoints.
var platformGenerators = []string{"wordpress", "ghost", "hugo", "jekyll", "eleventy", "gatsby"}

// Platforms whose index pages paginate through deep archives.
var paginatingHosts = []string{"wordpress.com", "blogspot.com", "ghost.io", "substack.com"}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func hostMatches(host string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return true
		}
	}
	return false
}

func generatorOf(doc *goquery.Document) string {
	if doc == nil {
		return ""
	}
	content, _ := doc.Find(`meta[name="generator"]`).Attr("content")
	return strings.ToLower(content)
}

// isPublishingPlatform reports whether the target looks like a recognized
// publishing platform, from its host or its generator meta tag.
func isPublishingPlatform(rawURL string, doc *goquery.Document) bool {
	if hostMatches(hostOf(rawURL), platformHosts) {
		return true
	}
	generator := generatorOf(doc)
	for _, name := range platformGenerators {
		if strings.Contains(generator, name) {
			return true
		}
	}
	return false
}

// isPaginatingPlatform reports whether the target is known to keep deep,
// paginated archives worth crawling.
func isPaginatingPlatform(rawURL string, doc *goquery.Document) bool {
	if hostMatches(hostOf(rawURL), paginatingHosts) {
		return true
	}
	generator := generatorOf(doc)
	return strings.Contains(generator, "wordpress") || strings.Contains(generator, "ghost")
}
