package utils

import (
	"strings"
	"testing"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty input", in: "", want: ""},
		{name: "collapses whitespace", in: "Senior   Go\t\tEngineer\n\nRemote", want: "Senior Go Engineer Remote"},
		{name: "strips decoration", in: "★ Go Engineer ★", want: "Go Engineer"},
		{name: "keeps basic punctuation", in: "Go, Kubernetes; Postgres (5 yrs) - remote/hybrid", want: "Go, Kubernetes; Postgres (5 yrs) - remote/hybrid"},
		{name: "trims edges", in: "  padded  ", want: "padded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.in); got != tt.want {
				t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestContentHash(t *testing.T) {
	base := ContentHash("We are hiring a Go engineer")

	if got := ContentHash("  We are hiring a Go engineer \n"); got != base {
		t.Error("Hash should ignore surrounding whitespace")
	}
	if got := ContentHash("We are hiring a Rust engineer"); got == base {
		t.Error("Different content should hash differently")
	}
	if len(base) != 32 {
		t.Errorf("Expected 32 hex characters, got %d", len(base))
	}
}

func TestExtractEmail(t *testing.T) {
	if got := ExtractEmail("Contact jane.doe+jobs@example.co.uk for details"); got != "jane.doe+jobs@example.co.uk" {
		t.Errorf("Unexpected email: %q", got)
	}
	if got := ExtractEmail("no contact details here"); got != "" {
		t.Errorf("Expected empty result, got %q", got)
	}
}

func TestExtractPhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Call +1 555-123-4567 today", "+1 555-123-4567"},
		{"Office: (555) 123-4567", "(555) 123-4567"},
		{"nothing to dial", ""},
	}

	for _, tt := range tests {
		if got := ExtractPhone(tt.in); got != tt.want {
			t.Errorf("ExtractPhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractURLs(t *testing.T) {
	urls := ExtractURLs("Apply at https://example.com/jobs and see http://example.org")
	if len(urls) != 2 {
		t.Fatalf("Expected 2 URLs, got %d: %v", len(urls), urls)
	}
	if urls[0] != "https://example.com/jobs" {
		t.Errorf("Unexpected first URL: %q", urls[0])
	}

	if got := ExtractURLs("no links"); len(got) != 0 {
		t.Errorf("Expected no URLs, got %v", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "short string unchanged", in: "short", max: 10, want: "short"},
		{name: "exact length unchanged", in: "exact", max: 5, want: "exact"},
		{name: "long string gets ellipsis", in: "a longer piece of text", max: 10, want: "a longe..."},
		{name: "tiny budget has no room for ellipsis", in: "abcdef", max: 2, want: "ab"},
		{name: "zero budget", in: "abcdef", max: 0, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.in, tt.max)
			if got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
			if tt.max > 0 && len([]rune(got)) > tt.max {
				t.Errorf("Result %q exceeds budget %d", got, tt.max)
			}
		})
	}
}

func TestTruncateMultibyte(t *testing.T) {
	in := strings.Repeat("é", 20)
	got := Truncate(in, 10)
	if len([]rune(got)) != 10 {
		t.Errorf("Expected 10 runes, got %d", len([]rune(got)))
	}
}
