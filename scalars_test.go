package facet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateExtendedScalarAcceptsValidForms(t *testing.T) {
	cases := []VExtendedScalar{
		{Kind: ExtTimestamp, Text: "@2024-01-15T10:30:00Z"},
		{Kind: ExtDuration, Text: "30s"},
		{Kind: ExtSize, Text: "10MB"},
		{Kind: ExtRegex, Text: "/^[a-z]+$/i"},
	}
	for _, c := range cases {
		assert.Equal(t, c.Text, validateExtendedScalar(c))
	}
}

func TestValidateExtendedScalarRejectsMalformedForms(t *testing.T) {
	cases := []struct {
		scalar   VExtendedScalar
		wantCode string
	}{
		{VExtendedScalar{Kind: ExtTimestamp, Text: "@not-a-date"}, "F101"},
		{VExtendedScalar{Kind: ExtDuration, Text: "30x"}, "F101"},
		{VExtendedScalar{Kind: ExtSize, Text: "10TB"}, "F101"},
		{VExtendedScalar{Kind: ExtRegex, Text: "/[unclosed/"}, "F803"},
	}
	for _, c := range cases {
		func() {
			defer func() {
				r := recover()
				f, ok := r.(fail)
				require.True(t, ok, "expected a panic for %q", c.scalar.Text)
				assert.Equal(t, c.wantCode, f.code)
			}()
			validateExtendedScalar(c.scalar)
		}()
	}
}
