package collect

import (
	"strings"
	"testing"
)

func TestBodyConvertsHTML(t *testing.T) {
	n := NewNormalizer()

	got := n.Body("<p>Hello <strong>world</strong></p>", "fallback")
	if !strings.Contains(got, "Hello") || !strings.Contains(got, "**world**") {
		t.Errorf("Body = %q", got)
	}
}

func TestBodyStripsScripts(t *testing.T) {
	n := NewNormalizer()

	got := n.Body(`<p>ok</p><script>alert("x")</script>`, "")
	if strings.Contains(got, "alert") || strings.Contains(got, "script") {
		t.Errorf("script survived sanitization: %q", got)
	}
	if !strings.Contains(got, "ok") {
		t.Errorf("content lost: %q", got)
	}
}

func TestBodyFallsBackToPlain(t *testing.T) {
	n := NewNormalizer()

	if got := n.Body("", "plain  text\n\n\n\nhere"); got != "plain text\n\nhere" {
		t.Errorf("Body = %q", got)
	}
	if got := n.Body("   ", ""); got != "" {
		t.Errorf("empty input = %q", got)
	}
}

func TestCollapseWhitespace(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"  hello  world  ", "hello world"},
		{"a\n\n\n\nb", "a\n\nb"},
		{"\n\nleading blank\n", "leading blank"},
		{"one\ntwo", "one\ntwo"},
		{"tabs\t\there", "tabs here"},
	}
	for _, tc := range cases {
		if got := CollapseWhitespace(tc.in); got != tc.want {
			t.Errorf("CollapseWhitespace(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeTags(t *testing.T) {
	cases := []struct {
		in   []string
		want string
	}{
		{nil, ""},
		{[]string{"Golang", "  golang "}, "golang"},
		{[]string{"golang", "", "Discussion"}, "golang,discussion"},
		{[]string{"B", "a", "b"}, "b,a"},
	}
	for _, tc := range cases {
		if got := NormalizeTags(tc.in); got != tc.want {
			t.Errorf("NormalizeTags(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
