package canonical

import "testing"

func TestResolve(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"dated post collapses to root", "https://example.com/blog/2024/01/a-post", "https://example.com"},
		{"iso dated post", "https://example.com/2024-01-15-thoughts", "https://example.com"},
		{"substack post", "https://jane.substack.com/p/my-first-post", "https://jane.substack.com"},
		{"medium author", "https://medium.com/@jane/some-post", "https://medium.com/@jane"},
		{"platform post path", "https://site.example/post/123", "https://site.example"},
		{"essay page keeps section", "https://example.com/essays/on-writing", "https://example.com/essays/on-writing"},
		{"bare root unchanged", "https://example.com", "https://example.com"},
		{"trailing slash stripped", "https://example.com/", "https://example.com"},
		{"blog section collapses", "https://example.com/blog/", "https://example.com"},
		{"query and fragment dropped", "https://example.com/blog?page=2#top", "https://example.com"},
		{"missing scheme", "example.com/blog", "https://example.com"},
		{"deep path trimmed to two", "https://example.com/docs/guide/part/one", "https://example.com/docs/guide"},
		{"hex id collapses", "https://example.com/writing/9f86d081884c7d65", "https://example.com"},
		{"host lowercased", "https://Example.COM/Blog", "https://example.com"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Resolve(tc.in); got != tc.want {
				t.Fatalf("Resolve(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestResolveIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"https://example.com/blog/2024/01/a-post",
		"https://jane.substack.com/p/my-first-post",
		"https://medium.com/@jane/some-post",
		"https://example.com/essays/on-writing",
		"https://example.com",
		"example.com/writing/some-piece",
		"https://example.com/docs/guide/part/one",
	}

	for _, in := range inputs {
		once := Resolve(in)
		twice := Resolve(once)
		if once != twice {
			t.Fatalf("Resolve not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}
