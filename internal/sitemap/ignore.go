package sitemap

import (
	"net/url"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// MatchGlob reports whether urlPath matches a slash-separated glob. `*` and `?`
// match within one segment; a `**` segment matches any number of segments,
// including none. A trailing slash on either side is ignored and a malformed
// pattern matches nothing.
func MatchGlob(pattern, urlPath string) bool {
	ok, err := doublestar.Match(trimSlash(pattern), trimSlash(urlPath))
	return err == nil && ok
}

// ValidGlob reports whether pattern is well formed.
func ValidGlob(pattern string) bool {
	return doublestar.ValidatePattern(pattern)
}

func trimSlash(p string) string {
	if t := strings.TrimRight(p, "/"); t != "" {
		return t
	}
	return p
}

// IgnorePatterns drops artifacts whose URL path matches any of the globs.
// Absolute URLs are matched on their path component.
func IgnorePatterns(patterns []string) PostProcessor {
	return func(artifacts []Artifact) []Artifact {
		if len(patterns) == 0 {
			return keep(artifacts, func(Artifact) bool { return true })
		}
		return keep(artifacts, func(a Artifact) bool {
			p := pathOf(a.URL)
			for _, pat := range patterns {
				if MatchGlob(pat, p) {
					return false
				}
			}
			return true
		})
	}
}

func pathOf(raw string) string {
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		return u.Path
	}
	return raw
}
