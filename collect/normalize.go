package collect

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
)

// Normalizer turns raw platform text into clean markdown descriptions and
// canonical tag strings. Safe for concurrent use.
type Normalizer struct {
	sanitizer   *bluemonday.Policy
	mdConverter *converter.Converter
}

// NewNormalizer builds a Normalizer with the UGC sanitization policy.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		sanitizer: bluemonday.UGCPolicy(),
		mdConverter: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Body picks the best description for a post: the HTML body converted to
// markdown when present, otherwise the plain text. Script and event
// attributes are stripped before conversion; the result has collapsed
// whitespace. Empty input yields "".
func (n *Normalizer) Body(html, plain string) string {
	if strings.TrimSpace(html) != "" {
		clean := n.sanitizer.Sanitize(html)
		md, err := n.mdConverter.ConvertString(clean)
		if err == nil {
			return CollapseWhitespace(md)
		}
		// Conversion failures fall through to the plain text.
	}
	return CollapseWhitespace(plain)
}

// CollapseWhitespace trims the text and squeezes runs of blank lines to a
// single blank line and runs of spaces/tabs to one space. Single newlines
// are preserved so markdown structure survives.
func CollapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			blank = true
			continue
		}
		if blank && len(out) > 0 {
			out = append(out, "")
		}
		blank = false
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// NormalizeTags lowercases, trims, and deduplicates tags, preserving first
// occurrence order, and joins them with commas. Empty input returns "".
func NormalizeTags(tags []string) string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return strings.Join(out, ",")
}
