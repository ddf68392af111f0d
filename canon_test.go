package facet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func canonJSON(t *testing.T, src string, opts Options) string {
	t.Helper()
	result, diags := canonicalize([]byte(src), opts)
	require.Empty(t, diags, "source:\n%s", src)
	return encodeJSON(result)
}

func TestCanonicalMappingNoLenses(t *testing.T) {
	src := "@user(name=\"Alex\")\n  message: \"Hello, world!\"\n"
	got := canonJSON(t, src, Options{})
	assert.Equal(t, `{"user":{"_attrs":{"name":"Alex"},"message":"Hello, world!"}}`, got)
}

func TestDedentTrimPipeline(t *testing.T) {
	src := "@doc\n  body: \"\"\"\n  line1\n    line2  \n\"\"\" |> dedent |> trim\n"
	got := canonJSON(t, src, Options{})
	assert.Equal(t, `{"doc":{"_attrs":{},"body":"line1\n  line2"}}`, got)
}

func TestAnchorReuse(t *testing.T) {
	src := "@system\n  style &s: \"friendly\"\n  copy: *s\n"
	got := canonJSON(t, src, Options{})
	assert.Equal(t, `{"system":{"_attrs":{},"style":"friendly","copy":"friendly"}}`, got)
}

func TestSeededChoiceDeterminism(t *testing.T) {
	src := "@vars\n  greetings: [\"Hi\", \"Hello\", \"Hey\"]\n  seed: 42\n@user\n  greet: \"{{ greetings |> choose(seed=$seed) }}\"\n"
	got := canonJSON(t, src, Options{ResolveMode: "all"})
	assert.Equal(t, `{"user":{"_attrs":{},"greet":"Hi"}}`, got)
}

func TestConditionalPruning(t *testing.T) {
	src := "@vars\n  mode: \"user\"\n@system(if=\"mode == 'expert'\")\n  role: \"expert\"\n@user\n  msg: \"hi\"\n"
	got := canonJSON(t, src, Options{ResolveMode: "all"})
	assert.Equal(t, `{"user":{"_attrs":{},"msg":"hi"}}`, got)
}

func TestCompileTimeFacetsNeverAppearInOutput(t *testing.T) {
	src := "@vars\n  mode: \"user\"\n@var_types\n  mode:\n    type: \"string\"\n@user\n  msg: \"hi\"\n"
	got := canonJSON(t, src, Options{ResolveMode: "all"})
	assert.Equal(t, `{"user":{"_attrs":{},"msg":"hi"}}`, got)
}

func TestAliasWithoutAnchorFails(t *testing.T) {
	src := "@system\n  copy: *missing\n"
	_, diags := canonicalize([]byte(src), Options{})
	require.NotEmpty(t, diags)
	assert.Equal(t, "F201", diags[0].Code)
}

func TestDuplicateAnchorFails(t *testing.T) {
	src := "@system\n  a &s: \"one\"\n  b &s: \"two\"\n"
	_, diags := canonicalize([]byte(src), Options{})
	require.NotEmpty(t, diags)
	assert.Equal(t, "F202", diags[0].Code)
}

func TestTabInIndentationFails(t *testing.T) {
	src := "@user\n\tmessage: \"hi\"\n"
	_, diags := canonicalize([]byte(src), Options{})
	require.NotEmpty(t, diags)
	assert.Equal(t, "F002", diags[0].Code)
}

func TestInterpolationInAttributeIsRejected(t *testing.T) {
	src := "@vars\n  name: \"Alex\"\n@user(greeting=\"{{ name }}\")\n  msg: \"hi\"\n"
	_, diags := canonicalize([]byte(src), Options{ResolveMode: "all"})
	require.NotEmpty(t, diags)
	assert.Equal(t, "F304", diags[0].Code)
}

func TestCanonicalizeIsIdempotentUnderReWrap(t *testing.T) {
	src := "@user(name=\"Alex\")\n  message: \"Hello, world!\"\n"
	first := canonJSON(t, src, Options{})

	wrapped := "@wrap\n  inner: " + quoteString(first) + "\n"
	second := canonJSON(t, wrapped, Options{})
	assert.Equal(t, `{"wrap":{"_attrs":{},"inner":"`+jsonEscapeForTest(first)+`"}}`, second)
}

func jsonEscapeForTest(s string) string {
	var b []byte
	for _, r := range s {
		switch r {
		case '"':
			b = append(b, '\\', '"')
		case '\\':
			b = append(b, '\\', '\\')
		default:
			b = append(b, string(r)...)
		}
	}
	return string(b)
}
