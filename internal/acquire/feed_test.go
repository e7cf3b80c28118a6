package acquire

import (
	"strings"
	"testing"
)

func TestTextExcerpt(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{"plain text", "hello world", 200, "hello world"},
		{"strips markup", "<p>hello <b>world</b></p>", 200, "hello world"},
		{"collapses whitespace", "hello\n\n  world ", 200, "hello world"},
		{"truncates", strings.Repeat("a", 300), 200, strings.Repeat("a", 200)},
		{"empty", "", 200, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := textExcerpt(tc.in, tc.limit); got != tc.want {
				t.Fatalf("textExcerpt = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFirstImageInHTML(t *testing.T) {
	t.Parallel()

	got := firstImageInHTML(`<p>intro</p><img src="https://a.example/cover.png"><img src="https://a.example/second.png">`)
	if got != "https://a.example/cover.png" {
		t.Fatalf("firstImageInHTML = %q", got)
	}
	if got := firstImageInHTML("no markup at all"); got != "" {
		t.Fatalf("firstImageInHTML on plain text = %q, want empty", got)
	}
}
