package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatSnippet(t *testing.T) {
	assert.Equal(t, "Find your first client", formatSnippet("  Find your\n first   client "))
	assert.Equal(t, "[image]", formatSnippet(""))

	long := strings.Repeat("é", snippetLength+10)
	got := formatSnippet(long)
	assert.Equal(t, strings.Repeat("é", snippetLength-3)+"...", got)
}
