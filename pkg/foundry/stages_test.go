package foundry

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestExcerptShortStringUntouched(t *testing.T) {
	assert.Equal(t, "brief note", excerpt("brief note", 200))
}

func TestExcerptCutsOnRuneBoundary(t *testing.T) {
	// Each rune is three bytes, so most byte limits land mid-rune.
	s := strings.Repeat("不安", 50)

	for limit := 1; limit < 12; limit++ {
		got := excerpt(s, limit)
		assert.True(t, utf8.ValidString(got), "limit %d produced invalid UTF-8: %q", limit, got)
		assert.True(t, strings.HasPrefix(s, got))
		assert.LessOrEqual(t, len(got), limit)
	}
}
