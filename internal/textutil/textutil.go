package textutil

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	stripPolicy  = bluemonday.StrictPolicy()
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// ExtractText strips all markup from an HTML fragment and collapses
// whitespace, leaving plain prose suitable for a summarization prompt.
func ExtractText(htmlContent string) string {
	text := stripPolicy.Sanitize(htmlContent)
	text = html.UnescapeString(text)
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
