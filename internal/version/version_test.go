package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildInfoInitialized(t *testing.T) {
	assert.NotEmpty(t, Version)
	assert.NotEmpty(t, BuildTime)
	assert.NotEmpty(t, GitCommit)
}

func TestString(t *testing.T) {
	assert.Equal(t, Version+" (commit "+GitCommit+", built "+BuildTime+")", String())
}
