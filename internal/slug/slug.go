package slug

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// MaxLength is the longest slug Make will produce.
const MaxLength = 100

// maxCollisions bounds the uniqueness-resolution loop.
const maxCollisions = 1000

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	invalidRe    = regexp.MustCompile(`[^\w\-]+`)
	hyphenRunRe  = regexp.MustCompile(`\-\-+`)
)

// Make derives a URL-safe slug from a title. The transform is
// deterministic and never fails; a title with no usable characters
// falls back to a generated identifier.
func Make(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = whitespaceRe.ReplaceAllString(s, "-")
	s = invalidRe.ReplaceAllString(s, "")
	s = hyphenRunRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if len(s) > MaxLength {
		s = s[:MaxLength]
		s = strings.TrimRight(s, "-")
	}

	if s == "" {
		return "article-" + uuid.NewString()[:8]
	}

	return s
}

// Resolve returns base if unused, otherwise base-1, base-2, ... until an
// unused slug is found. taken reports whether a slug is already in use.
// The counter is bounded; pathological collision runs return an error.
func Resolve(ctx context.Context, base string, taken func(ctx context.Context, slug string) (bool, error)) (string, error) {
	candidate := base
	for i := 0; i <= maxCollisions; i++ {
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d", base, i)
		}

		inUse, err := taken(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("checking slug %q: %w", candidate, err)
		}
		if !inUse {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("no free slug for %q after %d attempts", base, maxCollisions)
}
