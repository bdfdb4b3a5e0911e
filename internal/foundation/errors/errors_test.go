package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_DefaultsAndOverrides(t *testing.T) {
	err := NewError(CategorySitemap, "write failed").Build()
	assert.Equal(t, CategorySitemap, err.Category())
	assert.Equal(t, SeverityError, err.Severity())
	assert.Equal(t, RetryNever, err.RetryStrategy())
	assert.False(t, err.CanRetry())

	err = FileSystemError("disk full").WithContext("path", "/tmp/x").Build()
	assert.True(t, err.CanRetry())
	v, ok := err.Context().GetString("path")
	require.True(t, ok)
	assert.Equal(t, "/tmp/x", v)
}

func TestWrapError_UnwrapsCause(t *testing.T) {
	cause := stderrors.New("boom")
	err := WrapError(cause, CategoryContent, "parse failed").Build()
	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "[content:error] parse failed: boom")
}

func TestAsClassified_FindsWrappedError(t *testing.T) {
	inner := ConfigError("missing title").Build()
	wrapped := fmt.Errorf("load: %w", inner)

	got, ok := AsClassified(wrapped)
	require.True(t, ok)
	assert.Equal(t, CategoryConfig, got.Category())
	assert.True(t, HasCategory(wrapped, CategoryConfig))
	assert.Equal(t, CategoryInternal, GetCategory(stderrors.New("plain")))
	assert.Equal(t, SeverityError, GetSeverity(stderrors.New("plain")))
}

func TestClassifiedError_WithContextDoesNotMutateOriginal(t *testing.T) {
	base := NewError(CategoryRender, "template").Build()
	derived := base.WithContext("template", "home")

	_, ok := base.Context().Get("template")
	assert.False(t, ok)
	v, ok := derived.Context().Get("template")
	require.True(t, ok)
	assert.Equal(t, "home", v)
	assert.ErrorIs(t, derived, base)
}

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, 0},
		{"validation", ValidationError("bad flag").Build(), 2},
		{"config", ConfigError("bad config").Build(), 7},
		{"network", NetworkError("nats down").Build(), 8},
		{"sitemap", SitemapError("write").Build(), 11},
		{"links", NewError(CategoryLinks, "broken").Build(), 11},
		{"internal", InternalError("bug").Build(), 10},
		{"unclassified", stderrors.New("unknown"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, slog.Default())
	verbose := NewCLIErrorAdapter(true, slog.Default())
	err := WrapError(stderrors.New("eof"), CategoryConfig, "failed to parse config").UserAction().Build()

	assert.Equal(t, "Error (config): failed to parse config (check your configuration)", quiet.FormatError(err))
	assert.Equal(t, err.Error(), verbose.FormatError(err))
	assert.Equal(t, "Error: plain", quiet.FormatError(stderrors.New("plain")))
	assert.Empty(t, quiet.FormatError(nil))
}

func TestCLIErrorAdapter_LogsContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	adapter := NewCLIErrorAdapter(false, logger)

	adapter.logError(NewError(CategoryLinks, "broken link").WithContext("href", "/missing/").Warning().Build())

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "category=links")
	assert.Contains(t, out, "href=/missing/")
}
