package facet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseSrc(t *testing.T, src string) *Document {
	t.Helper()
	toks := NewLexer([]byte(src)).Scan()
	return NewParser(toks).ParseDocument()
}

func TestParseKVWithAnchorLabel(t *testing.T) {
	doc := parseSrc(t, "@system\n  style &s: \"friendly\"\n  copy: *s\n")
	require.Len(t, doc.Facets, 1)
	mb, ok := doc.Facets[0].Body.(*MappingBlock)
	require.True(t, ok)
	require.Len(t, mb.Pairs, 2)

	anchored, ok := mb.Pairs[0].Value.(VAnchorDef)
	require.True(t, ok, "expected style's value to be an anchor definition")
	assert.Equal(t, "s", anchored.Label)
	inner, ok := anchored.Inner.(VString)
	require.True(t, ok)
	assert.Equal(t, "friendly", inner.S)

	alias, ok := mb.Pairs[1].Value.(VAlias)
	require.True(t, ok, "expected copy's value to be an alias")
	assert.Equal(t, "s", alias.Label)
}

func TestParseFacetAnchor(t *testing.T) {
	doc := parseSrc(t, "@system &whole\n  tone: \"warm\"\n")
	assert.Equal(t, "whole", doc.Facets[0].Anchor)
}

func TestParseMixedListAndMapFails(t *testing.T) {
	defer func() {
		r := recover()
		f, ok := r.(fail)
		require.True(t, ok)
		assert.Equal(t, "F101", f.code)
	}()
	parseSrc(t, "@items\n  - \"one\"\n  two: \"three\"\n")
}
