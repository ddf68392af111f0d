package facet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalIfLiteralsAndComparisons(t *testing.T) {
	env := map[string]any{}
	assert.True(t, EvalIf("1 < 2", env, Pos{}))
	assert.True(t, EvalIf("2 >= 2", env, Pos{}))
	assert.False(t, EvalIf("\"a\" == \"b\"", env, Pos{}))
	assert.True(t, EvalIf("\"a\" != \"b\"", env, Pos{}))
	assert.True(t, EvalIf("true and not false", env, Pos{}))
	assert.True(t, EvalIf("false or (1 == 1)", env, Pos{}))
}

func TestEvalIfDotPathLookup(t *testing.T) {
	env := map[string]any{
		"user": &OMap{Keys: []string{"role"}, M: map[string]any{"role": "admin"}},
	}
	assert.True(t, EvalIf("user.role == \"admin\"", env, Pos{}))
	assert.False(t, EvalIf("user.role == \"guest\"", env, Pos{}))
}

func TestEvalIfMembership(t *testing.T) {
	env := map[string]any{"tags": []any{"a", "b", "c"}}
	assert.True(t, EvalIf("\"b\" in tags", env, Pos{}))
	assert.False(t, EvalIf("\"z\" in tags", env, Pos{}))
	assert.True(t, EvalIf("\"ell\" in \"hello\"", env, Pos{}))
}

func TestEvalIfNumericComparisonOnNumberType(t *testing.T) {
	env := map[string]any{"count": IntNumber(5)}
	assert.True(t, EvalIf("count > 3", env, Pos{}))
	assert.False(t, EvalIf("count <= 3", env, Pos{}))
}

func TestEvalIfMissingPathIsFalsy(t *testing.T) {
	env := map[string]any{}
	assert.False(t, EvalIf("missing.path == \"x\"", env, Pos{}))
	assert.False(t, EvalIf("missing_flag", env, Pos{}))
}

func TestEvalIfMixedTypeComparisonFails(t *testing.T) {
	env := map[string]any{}
	defer func() {
		r := recover()
		f, ok := r.(fail)
		require.True(t, ok)
		assert.Equal(t, "F703", f.code)
	}()
	EvalIf("1 < \"a\"", env, Pos{})
}

func TestEvalIfUnterminatedStringFails(t *testing.T) {
	defer func() {
		r := recover()
		f, ok := r.(fail)
		require.True(t, ok)
		assert.Equal(t, "F705", f.code)
	}()
	EvalIf("\"unterminated", map[string]any{}, Pos{})
}

func TestEvalIfTrailingTokensFails(t *testing.T) {
	defer func() {
		r := recover()
		f, ok := r.(fail)
		require.True(t, ok)
		assert.Equal(t, "F705", f.code)
	}()
	EvalIf("true true", map[string]any{}, Pos{})
}
