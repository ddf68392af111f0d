package facet

import (
	"testing"
	"unicode/utf8"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func callOf(name string, args ...any) ResolvedLensCall {
	return ResolvedLensCall{Name: name, Kwargs: map[string]any{}, Args: args}
}

func kwCallOf(name string, kwargs map[string]any) ResolvedLensCall {
	return ResolvedLensCall{Name: name, Kwargs: kwargs}
}

// TestChooseIsSeedModLength checks invariant 6: choose(arr, seed=k) picks
// the element at index k mod len(arr).
func TestChooseIsSeedModLength(t *testing.T) {
	params := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(params)

	arr := []any{"a", "b", "c", "d", "e"}

	properties.Property("choose picks seed mod length", prop.ForAll(
		func(seed int64) bool {
			got := lensChoose(arr, kwCallOf("choose", map[string]any{"seed": seed}))
			idx := ((seed % int64(len(arr))) + int64(len(arr))) % int64(len(arr))
			return got == arr[idx]
		},
		gen.Int64Range(-1000, 1000),
	))

	properties.TestingRun(t)
}

// TestShuffleIsAPermutation checks invariant 6: shuffle never adds,
// drops, or duplicates elements.
func TestShuffleIsAPermutation(t *testing.T) {
	params := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(params)

	properties.Property("shuffle is a permutation of its input", prop.ForAll(
		func(seed int64, n int) bool {
			arr := make([]any, n)
			for i := range arr {
				arr[i] = Number{IsInt: true, I: int64(i)}
			}
			shuffled := lensShuffle(arr, kwCallOf("shuffle", map[string]any{"seed": seed})).([]any)
			if len(shuffled) != len(arr) {
				return false
			}
			seen := map[int64]int{}
			for _, v := range arr {
				seen[v.(Number).I]++
			}
			for _, v := range shuffled {
				seen[v.(Number).I]--
			}
			for _, count := range seen {
				if count != 0 {
					return false
				}
			}
			return true
		},
		gen.Int64Range(-1000, 1000),
		gen.IntRange(0, 32),
	))

	properties.TestingRun(t)
}

// TestLimitProducesValidUTF8Prefix checks invariant 10: limit(s, n)
// returns a byte-length-bounded, UTF-8-valid prefix of s.
func TestLimitProducesValidUTF8Prefix(t *testing.T) {
	params := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(params)

	properties.Property("limit returns a valid UTF-8 prefix within n bytes", prop.ForAll(
		func(s string, n int64) bool {
			if n < 0 {
				n = -n
			}
			got := lensLimit(s, callOf("limit", n)).(string)
			return int64(len(got)) <= n && utf8.ValidString(got)
		},
		gen.AlphaString(),
		gen.Int64Range(0, 64),
	))

	properties.TestingRun(t)
}

// TestCleanupLensesAreIdempotent checks invariant 5: repeated application
// of trim/dedent/squeeze_spaces/normalize_newlines is a no-op after the
// first pass.
func TestCleanupLensesAreIdempotent(t *testing.T) {
	params := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(params)

	cleanup := func(s string) string {
		s = lensNormalizeNewlines(s, callOf("normalize_newlines")).(string)
		s = lensDedent(s, callOf("dedent")).(string)
		s = lensSqueezeSpaces(s, callOf("squeeze_spaces")).(string)
		s = lensTrim(s, callOf("trim")).(string)
		return s
	}

	properties.Property("cleanup pipeline is idempotent after first pass", prop.ForAll(
		func(s string) bool {
			once := cleanup(s)
			twice := cleanup(once)
			return once == twice
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
