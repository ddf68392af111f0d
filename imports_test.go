package facet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFacetFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestMergeImport covers end-to-end scenario F: a local @system facet
// merges key-by-key over the @system facet pulled in from an import.
func TestMergeImport(t *testing.T) {
	root := t.TempDir()
	writeFacetFile(t, root, "base.facet", "@system\n  style: \"concise\"\n")

	src := "@import \"base.facet\"\n@system\n  tone: \"warm\"\n"
	result, diags := canonicalize([]byte(src), Options{ImportRoots: []string{root}})
	require.Empty(t, diags)
	assert.Equal(t, `{"system":{"_attrs":{},"style":"concise","tone":"warm"}}`, encodeJSON(result))
}

func TestImportPathEscapingRootFails(t *testing.T) {
	root := t.TempDir()
	src := "@import \"../../etc/passwd\"\n@user\n  msg: \"hi\"\n"
	_, diags := canonicalize([]byte(src), Options{ImportRoots: []string{root}})
	require.NotEmpty(t, diags)
	assert.Equal(t, "F601", diags[0].Code)
}

func TestImportCycleFails(t *testing.T) {
	root := t.TempDir()
	writeFacetFile(t, root, "a.facet", "@import \"b.facet\"\n@user\n  msg: \"a\"\n")
	writeFacetFile(t, root, "b.facet", "@import \"a.facet\"\n@user\n  msg: \"b\"\n")

	src := "@import \"a.facet\"\n"
	_, diags := canonicalize([]byte(src), Options{ImportRoots: []string{root}})
	require.NotEmpty(t, diags)
	assert.Equal(t, "F602", diags[0].Code)
}

func TestStrictMergeShapeMismatchFails(t *testing.T) {
	root := t.TempDir()
	writeFacetFile(t, root, "base.facet", "@system\n  - \"one\"\n  - \"two\"\n")

	src := "@import \"base.facet\"\n@system\n  tone: \"warm\"\n"
	_, diags := canonicalize([]byte(src), Options{ImportRoots: []string{root}, StrictMerge: true})
	require.NotEmpty(t, diags)
	assert.Equal(t, "F605", diags[0].Code)
}
