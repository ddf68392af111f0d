package facet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeJSONKeyOrderFollowsInsertion(t *testing.T) {
	om := NewOMap()
	om.Set("z", Number{IsInt: true, I: 1})
	om.Set("a", Number{IsInt: true, I: 2})
	assert.Equal(t, `{"z":1,"a":2}`, encodeJSON(om))
}

func TestEncodeJSONNumberFormatting(t *testing.T) {
	assert.Equal(t, "42", formatNumber(Number{IsInt: true, I: 42}))
	assert.Equal(t, "3.5", formatNumber(Number{F: 3.5}))
	assert.Equal(t, "3", formatNumber(Number{F: 3}))
}

func TestEncodeJSONStringEscaping(t *testing.T) {
	assert.Equal(t, `{"s":"a\"b\\c\n"}`, encodeJSON(func() *OMap {
		om := NewOMap()
		om.Set("s", "a\"b\\c\n")
		return om
	}()))
}

func TestEncodeJSONLiteralUTF8(t *testing.T) {
	om := NewOMap()
	om.Set("s", "héllo")
	assert.Equal(t, `{"s":"héllo"}`, encodeJSON(om))
}

func TestEncodeYAMLPreservesKeyOrder(t *testing.T) {
	om := NewOMap()
	om.Set("z", "one")
	om.Set("a", "two")
	out, err := EncodeYAML(om)
	assert.NoError(t, err)
	assert.Equal(t, "z: one\na: two\n", out)
}
