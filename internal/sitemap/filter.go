package sitemap

import (
	"context"
	"strings"
)

// Filter returns the artifacts whose URL does not contain pattern, in their original
// order. The input is never modified and the result never aliases it.
//
// An empty pattern excludes nothing and yields a copy of the input.
func Filter(artifacts []Artifact, pattern string) []Artifact {
	return keep(artifacts, func(a Artifact) bool {
		return pattern == "" || !strings.Contains(a.URL, pattern)
	})
}

func keep(artifacts []Artifact, pred func(Artifact) bool) []Artifact {
	out := make([]Artifact, 0, len(artifacts))
	for _, a := range artifacts {
		if pred(a) {
			out = append(out, a)
		}
	}
	return out
}

// PostProcessor transforms the generated item list before it is persisted.
type PostProcessor func([]Artifact) []Artifact

// ExcludeContaining is the PostProcessor form of Filter.
func ExcludeContaining(pattern string) PostProcessor {
	return func(artifacts []Artifact) []Artifact { return Filter(artifacts, pattern) }
}

// Producer generates the default item list, possibly asynchronously.
type Producer func(ctx context.Context) ([]Artifact, error)

// CreateItems awaits the producer and applies post-processors in order.
// It runs on the caller's goroutine and keeps nothing between calls.
func CreateItems(ctx context.Context, produce Producer, post ...PostProcessor) ([]Artifact, error) {
	items, err := produce(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range post {
		items = p(items)
	}
	return items, nil
}
