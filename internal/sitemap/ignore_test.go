package sitemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchGlob(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"/tags/**", "/tags/", true},
		{"/tags/**", "/tags/go/", true},
		{"/tags/**", "/tags/go/page/2/", true},
		{"/tags/**", "/docs/tags/", false},
		{"/tags/*", "/tags/go/", true},
		{"/tags/*", "/tags/go/page/", false},
		{"/**/page/*", "/tags/go/page/2/", true},
		{"/**/page/*", "/page/2/", true},
		{"/intro", "/intro/", true},
		{"/intro/", "/intro", true},
		{"/int?o/", "/intro/", true},
		{"/[", "/[", false},
		{"/**", "/", true},
		{"/{tags,blog}/**", "/blog/2024/", true},
		{"/{tags,blog}/**", "/docs/", false},
		{"/docs/[a-c]*/", "/docs/beta/", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchGlob(tt.pattern, tt.path), "%s vs %s", tt.pattern, tt.path)
	}
}

func TestValidGlob(t *testing.T) {
	assert.True(t, ValidGlob("/tags/**"))
	assert.False(t, ValidGlob("/["))
}

func TestIgnorePatterns_MatchesAbsoluteURLsOnPath(t *testing.T) {
	in := artifacts(
		"https://docs.example.com/intro/",
		"https://docs.example.com/tags/",
		"https://docs.example.com/tags/partners/",
		"/tags/community/",
	)

	got := IgnorePatterns([]string{"/tags/**"})(in)

	assert.Equal(t, []string{"https://docs.example.com/intro/"}, URLs(got))
	assert.Len(t, in, 4)
}

func TestIgnorePatterns_NoPatternsCopies(t *testing.T) {
	in := artifacts("/a/")
	got := IgnorePatterns(nil)(in)
	got[0].URL = "/b/"
	assert.Equal(t, "/a/", in[0].URL)
}
