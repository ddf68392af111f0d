package facet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatSourceNormalizesSpacing(t *testing.T) {
	src := "@system\n  tone:   \"warm\"\n  style  &s:\"friendly\"\n  copy:*s\n"
	out, err := FormatSource([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, "@system\n  tone: \"warm\"\n  style &s: \"friendly\"\n  copy: *s\n", out)
}

func TestFormatSourceRoundTripsListItems(t *testing.T) {
	src := "@items\n  - \"one\"\n  - \"two\"\n"
	out, err := FormatSource([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, src, out)
}

func TestFormatSourceIsIdempotent(t *testing.T) {
	src := "@system &whole\n  tone: \"warm\"\n  style &s: \"friendly\"\n  copy: *s\n"
	first, err := FormatSource([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, src, first)
	second, err := FormatSource([]byte(first))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
