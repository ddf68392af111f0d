package facet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarTypesRejectWrongType(t *testing.T) {
	src := "@vars\n  retries: \"three\"\n@var_types\n  retries:\n    type: \"int\"\n@user\n  msg: \"hi\"\n"
	_, diags := canonicalize([]byte(src), Options{ResolveMode: "all"})
	require.NotEmpty(t, diags)
	assert.Equal(t, "F451", diags[0].Code)
}

func TestVarTypesEnforceEnumConstraint(t *testing.T) {
	src := "@vars\n  tone: \"rude\"\n@var_types\n  tone:\n    type: \"string\"\n    enum: [\"formal\", \"friendly\"]\n@user\n  msg: \"hi\"\n"
	_, diags := canonicalize([]byte(src), Options{ResolveMode: "all"})
	require.NotEmpty(t, diags)
	assert.Equal(t, "F452", diags[0].Code)
}

func TestVarTypesEnforceMinMax(t *testing.T) {
	src := "@vars\n  retries: 99\n@var_types\n  retries:\n    type: \"int\"\n    max: 10\n@user\n  msg: \"hi\"\n"
	_, diags := canonicalize([]byte(src), Options{ResolveMode: "all"})
	require.NotEmpty(t, diags)
	assert.Equal(t, "F452", diags[0].Code)
}

func TestVarTypesAccumulateMultipleViolations(t *testing.T) {
	src := "@vars\n  retries: \"three\"\n  tone: \"rude\"\n@var_types\n  retries:\n    type: \"int\"\n  tone:\n    type: \"string\"\n    enum: [\"formal\", \"friendly\"]\n@user\n  msg: \"hi\"\n"
	_, diags := canonicalize([]byte(src), Options{ResolveMode: "all"})
	require.Len(t, diags, 2, "both the retries and tone violations should be reported together")
	codes := []string{diags[0].Code, diags[1].Code}
	assert.Contains(t, codes, "F451")
	assert.Contains(t, codes, "F452")
}

func TestHostResolveModeIgnoresDocumentVars(t *testing.T) {
	src := "@vars\n  name: \"DocumentName\"\n@user\n  greet: \"{{ name }}\"\n"
	_, diags := canonicalize([]byte(src), Options{ResolveMode: "host", HostVars: map[string]any{}})
	require.NotEmpty(t, diags)
	assert.Equal(t, "F402A", diags[0].Code)
}

func TestDuplicateVarsFacetFails(t *testing.T) {
	src := "@vars\n  a: 1\n@vars\n  b: 2\n@user\n  msg: \"hi\"\n"
	_, diags := canonicalize([]byte(src), Options{})
	require.NotEmpty(t, diags)
	assert.Equal(t, "F306", diags[0].Code)
}

func TestHostVarNonJSONValueFails(t *testing.T) {
	src := "@user\n  msg: \"hi\"\n"
	_, diags := canonicalize([]byte(src), Options{HostVars: map[string]any{"bad": make(chan int)}})
	require.NotEmpty(t, diags)
	assert.Equal(t, "F101", diags[0].Code)
}

func TestHostVarJSONCompatibleValuesPass(t *testing.T) {
	src := "@user\n  msg: \"hi\"\n"
	_, diags := canonicalize([]byte(src), Options{HostVars: map[string]any{
		"s": "x", "n": 1, "f": 1.5, "b": true, "nil": nil,
		"list": []any{"a", 1}, "obj": map[string]any{"k": "v"},
	}})
	assert.Empty(t, diags)
}
