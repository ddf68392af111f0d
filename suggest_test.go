package facet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuggestLensCloseMisspelling(t *testing.T) {
	assert.Equal(t, " (did you mean 'trim'?)", suggestLens("trimm"))
	assert.Equal(t, " (did you mean 'dedent'?)", suggestLens("dedant"))
}

func TestSuggestLensNoCloseMatch(t *testing.T) {
	assert.Equal(t, "", suggestLens("zzzzzzzzzzzz"))
}
