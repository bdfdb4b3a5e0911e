package content

import (
	"path"
	"regexp"
	"strings"
)

var (
	numberPrefix = regexp.MustCompile(`^\d+[-_.]`)
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
)

// Router maps document paths to URLs.
type Router struct {
	BasePath      string // route base path, "/" for docs at the site root
	TrailingSlash bool
}

// Route returns the URL of a document. rel is slash-separated and relative to the
// docs dir; slug and id come from frontmatter and may be empty.
//
// An absolute slug replaces the whole route; a relative slug replaces the last
// segment, as does id. index and README files become their directory's root.
func (r Router) Route(rel, slug, id string) string {
	dir, file := path.Split(rel)
	dir = strings.Trim(dir, "/")
	name := strings.TrimSuffix(file, path.Ext(file))

	segments := make([]string, 0, 4)
	if dir != "" {
		for _, s := range strings.Split(dir, "/") {
			segments = append(segments, numberPrefix.ReplaceAllString(s, ""))
		}
	}

	switch {
	case strings.HasPrefix(slug, "/"):
		return r.join(strings.Split(strings.Trim(slug, "/"), "/"))
	case slug != "":
		segments = append(segments, strings.Split(strings.Trim(slug, "/"), "/")...)
	case id != "":
		segments = append(segments, id)
	case isIndex(name):
	default:
		segments = append(segments, numberPrefix.ReplaceAllString(name, ""))
	}
	return r.join(segments)
}

// Listing returns the URL of a generated page under the base path.
func (r Router) Listing(segments ...string) string {
	return r.join(segments)
}

func (r Router) join(segments []string) string {
	parts := make([]string, 0, len(segments)+1)
	if base := strings.Trim(r.BasePath, "/"); base != "" {
		parts = append(parts, base)
	}
	for _, s := range segments {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return "/"
	}
	u := "/" + strings.Join(parts, "/")
	if r.TrailingSlash {
		u += "/"
	}
	return u
}

func isIndex(name string) bool {
	switch strings.ToLower(name) {
	case "index", "readme":
		return true
	}
	return false
}

// TagSlug returns the URL segment of a tag.
func TagSlug(tag string) string {
	return strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(tag), "-"), "-")
}
