// Package canonical collapses post URLs to their publication root so the
// same blog submitted via different posts dedups to one record.
package canonical

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	yearSeg  = regexp.MustCompile(`^\d{4}$`)
	monthSeg = regexp.MustCompile(`^\d{1,2}$`)
	isoSeg   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	// Long opaque ids (hashes, platform post ids). Hyphenless, so ordinary
	// word-slug segments never match.
	opaqueSeg = regexp.MustCompile(`^[0-9a-f]{12,}$|^[A-Za-z0-9_]{20,}$`)
	docExt    = regexp.MustCompile(`\.(html?|php|md|txt)$`)
)

// Section names that identify a listing page rather than a publication
// sub-site; a path left with only these collapses to the domain root.
var sectionNames = map[string]bool{
	"blog": true, "blogs": true, "post": true, "posts": true,
	"article": true, "articles": true, "essay": true, "essays": true,
	"news": true, "writing": true, "writings": true, "notes": true,
	"journal": true, "archive": true, "p": true, "index": true,
}

// Resolve maps a possibly-specific post URL to its publication root.
// Pure and deterministic; no network I/O. Idempotent: resolving an
// already-canonical URL returns it unchanged.
func Resolve(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.RawQuery = ""
	u.Fragment = ""

	root := u.Scheme + "://" + u.Host
	segments := splitPath(u.Path)

	// Platform rules first.
	host := u.Host
	if strings.HasSuffix(host, "substack.com") {
		return root
	}
	if len(segments) > 0 && strings.HasPrefix(segments[0], "@") {
		// Author-scoped platforms (medium.com/@author, similar hosts)
		// collapse to the author's root path.
		return root + "/" + segments[0]
	}
	for _, seg := range segments {
		if seg == "p" || seg == "post" {
			// Platform post paths (/p/<slug>, /post/<id>) always point
			// at a single item.
			return root
		}
	}

	// Generic rule: a date-like or opaque-id segment starts the post part
	// of the path; cut there.
	kept := make([]string, 0, len(segments))
	for i, seg := range segments {
		if isoSeg.MatchString(seg) || opaqueSeg.MatchString(seg) {
			break
		}
		if yearSeg.MatchString(seg) || (i > 0 && yearSeg.MatchString(segments[i-1]) && monthSeg.MatchString(seg)) {
			break
		}
		kept = append(kept, seg)
	}

	// A trailing document file is a post, not a section.
	if n := len(kept); n > 0 && docExt.MatchString(kept[n-1]) {
		kept = kept[:n-1]
	}

	if len(kept) > 2 {
		kept = kept[:2]
	}

	if onlySections(kept) {
		return root
	}
	return root + "/" + strings.Join(kept, "/")
}

func splitPath(path string) []string {
	var segments []string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}

func onlySections(segments []string) bool {
	for _, seg := range segments {
		if !sectionNames[strings.ToLower(seg)] {
			return false
		}
	}
	return true
}
