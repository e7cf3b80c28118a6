// Package dates normalizes the date strings found in feeds and markup into
// timestamps. Input is hostile and irregular; failure to parse is a normal
// outcome, never an error.
package dates

import (
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Resolver tries candidate strings in priority order. An optional override
// map, keyed by canonical item URL, wins over anything found in the wild;
// it exists for sources whose markup carries no usable dates at all.
type Resolver struct {
	overrides map[string]time.Time
}

// NewResolver builds a resolver with an optional override map (nil is fine).
func NewResolver(overrides map[string]time.Time) *Resolver {
	return &Resolver{overrides: overrides}
}

// LoadOverrides reads a YAML file mapping item URL -> date string. Entries
// that fail to parse are skipped.
func LoadOverrides(path string) (map[string]time.Time, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var entries map[string]string
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, err
	}

	overrides := make(map[string]time.Time, len(entries))
	for url, value := range entries {
		if ts, ok := parseCandidate(value); ok {
			overrides[url] = ts
		}
	}
	return overrides, nil
}

// Resolve returns the first candidate that parses, or ok=false when every
// candidate fails. itemURL may be empty; it is only used for the override
// lookup. Never panics, whatever the input.
func (r *Resolver) Resolve(itemURL string, candidates ...string) (time.Time, bool) {
	if itemURL != "" {
		if ts, ok := r.overrides[itemURL]; ok {
			return ts, true
		}
	}

	for _, candidate := range candidates {
		if ts, ok := parseCandidate(candidate); ok {
			return ts, true
		}
	}
	return time.Time{}, false
}

// ScanText looks for the first date-like pattern anywhere in free text.
// Used as the body-scan fallback when structured fields yield nothing.
func ScanText(text string) (time.Time, bool) {
	for _, pat := range textPatterns {
		if match := pat.re.FindStringSubmatch(text); match != nil {
			if ts, ok := pat.build(match); ok {
				return ts, true
			}
		}
	}
	return time.Time{}, false
}

var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
}

func parseCandidate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	for _, layout := range layouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return ScanText(value)
}

var months = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "jun": time.June, "jul": time.July,
	"aug": time.August, "sep": time.September, "sept": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

type textPattern struct {
	re    *regexp.Regexp
	build func(match []string) (time.Time, bool)
}

var textPatterns = []textPattern{
	// 2024-01-15
	{
		re: regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`),
		build: func(m []string) (time.Time, bool) {
			return makeDate(m[1], m[2], m[3])
		},
	},
	// 2024/01/15
	{
		re: regexp.MustCompile(`(\d{4})/(\d{1,2})/(\d{1,2})`),
		build: func(m []string) (time.Time, bool) {
			return makeDate(m[1], m[2], m[3])
		},
	},
	// 01/15/2024 (month first)
	{
		re: regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4})`),
		build: func(m []string) (time.Time, bool) {
			return makeDate(m[3], m[1], m[2])
		},
	},
	// January 15, 2024
	{
		re: regexp.MustCompile(`(?i)([A-Za-z]{3,9})\.?\s+(\d{1,2}),?\s+(\d{4})`),
		build: func(m []string) (time.Time, bool) {
			month, ok := months[strings.ToLower(m[1])]
			if !ok {
				return time.Time{}, false
			}
			return makeDate(m[3], strconv.Itoa(int(month)), m[2])
		},
	},
	// 15 January 2024
	{
		re: regexp.MustCompile(`(?i)(\d{1,2})\s+([A-Za-z]{3,9})\.?,?\s+(\d{4})`),
		build: func(m []string) (time.Time, bool) {
			month, ok := months[strings.ToLower(m[2])]
			if !ok {
				return time.Time{}, false
			}
			return makeDate(m[3], strconv.Itoa(int(month)), m[1])
		},
	},
}

func makeDate(year, month, day string) (time.Time, bool) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return time.Time{}, false
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return time.Time{}, false
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > 31 {
		return time.Time{}, false
	}
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC), true
}
