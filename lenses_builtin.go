package facet

import (
	"bytes"
	"encoding/json"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Required lens implementations. ASCII-only case folding, UTF-8-safe
// truncation, and hash-free deterministic choose/shuffle are deliberate
// simplifications over a fuller-Unicode/hash-seeded design — see
// DESIGN.md.

func init() {
	registerLens("trim", InString, lensTrim)
	registerLens("dedent", InString, lensDedent)
	registerLens("squeeze_spaces", InString, lensSqueezeSpaces)
	registerLens("limit", InString, lensLimit)
	registerLens("normalize_newlines", InString, lensNormalizeNewlines)
	registerLens("lower", InString, lensLower)
	registerLens("upper", InString, lensUpper)
	registerLens("replace", InString, lensReplace)
	registerLens("regex_replace", InString, lensRegexReplace)
	registerLens("choose", InArray, lensChoose)
	registerLens("shuffle", InArray, lensShuffle)
	registerLens("json_minify", InString, lensJSONMinify)
	registerLens("json_parse", InString, lensJSONParse)
	registerLens("strip_markdown", InString, lensStripMarkdown)
}

func isASCIISpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
}

func lensTrim(v any, call ResolvedLensCall) any {
	s := v.(string)
	start, end := 0, len(s)
	for start < end && isASCIISpace(s[start]) {
		start++
	}
	for end > start && isASCIISpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func lensDedent(v any, call ResolvedLensCall) any {
	s := v.(string)
	lines := strings.Split(s, "\n")
	prefix := ""
	havePrefix := false
	for _, ln := range lines {
		if strings.TrimSpace(ln) == "" {
			continue
		}
		indent := ln[:len(ln)-len(strings.TrimLeft(ln, " \t"))]
		if !havePrefix {
			prefix, havePrefix = indent, true
			continue
		}
		prefix = commonPrefix(prefix, indent)
	}
	if prefix == "" {
		return s
	}
	for i, ln := range lines {
		lines[i] = strings.TrimPrefix(ln, prefix)
	}
	return strings.Join(lines, "\n")
}

func commonPrefix(a, b string) string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}

func lensSqueezeSpaces(v any, call ResolvedLensCall) any {
	s := v.(string)
	var b strings.Builder
	inRun := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ' ' || c == '\t' {
			if !inRun {
				b.WriteByte(' ')
				inRun = true
			}
			continue
		}
		inRun = false
		b.WriteByte(c)
	}
	return b.String()
}

func lensLimit(v any, call ResolvedLensCall) any {
	s := v.(string)
	n, ok := argInt(call, 0, "n")
	if !ok || n < 0 {
		panicF("F801", "limit requires an integer n >= 0", call.Pos)
	}
	if int64(len(s)) <= n {
		return s
	}
	end := int(n)
	for end > 0 && !utf8.RuneStart(s[end]) {
		end--
	}
	return s[:end]
}

func lensNormalizeNewlines(v any, call ResolvedLensCall) any {
	s := v.(string)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return s
}

func lensLower(v any, call ResolvedLensCall) any {
	s := v.(string)
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func lensUpper(v any, call ResolvedLensCall) any {
	s := v.(string)
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

func lensReplace(v any, call ResolvedLensCall) any {
	s := v.(string)
	old, ok1 := argString(call, 0, "old")
	new_, ok2 := argString(call, 1, "new")
	if !ok1 || !ok2 {
		panicF("F801", "replace requires old and new string arguments", call.Pos)
	}
	return strings.ReplaceAll(s, old, new_)
}

var backrefPattern = regexp.MustCompile(`\\(\d+)|\$(\d+)`)

func lensRegexReplace(v any, call ResolvedLensCall) any {
	s := v.(string)
	pattern, ok1 := argString(call, 0, "pattern")
	repl, ok2 := argString(call, 1, "replacement")
	if !ok1 || !ok2 {
		panicF("F801", "regex_replace requires pattern and replacement string arguments", call.Pos)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		panicF("F803", "regex compile failure: "+err.Error(), call.Pos)
	}
	goRepl := backrefPattern.ReplaceAllStringFunc(repl, func(m string) string {
		digits := strings.TrimLeft(m, `\$`)
		return "${" + digits + "}"
	})
	return re.ReplaceAllString(s, goRepl)
}

// lensChoose implements deterministic selection: index = seed
// mod length. No hashing of the value — a hash-based
// variant is intentionally not carried over, see DESIGN.md.
func lensChoose(v any, call ResolvedLensCall) any {
	arr := v.([]any)
	if len(arr) == 0 {
		panicF("F102", "choose requires a non-empty array", call.Pos)
	}
	seed, ok := argInt(call, 0, "seed")
	if !ok {
		panicF("F804", "choose requires a seed argument", call.Pos)
	}
	idx := ((seed % int64(len(arr))) + int64(len(arr))) % int64(len(arr))
	return arr[idx]
}

// lensShuffle implements a deterministic permutation: Fisher-
// Yates driven by a splitmix64 generator seeded directly with `seed`.
func lensShuffle(v any, call ResolvedLensCall) any {
	arr := v.([]any)
	seed, ok := argInt(call, 0, "seed")
	if !ok {
		panicF("F804", "shuffle requires a seed argument", call.Pos)
	}
	out := make([]any, len(arr))
	copy(out, arr)
	rng := newSplitMix64(uint64(seed))
	for i := len(out) - 1; i > 0; i-- {
		j := int(rng.next() % uint64(i+1))
		out[i], out[j] = out[j], out[i]
	}
	return out
}

type splitMix64 struct{ state uint64 }

func newSplitMix64(seed uint64) *splitMix64 { return &splitMix64{state: seed} }

func (s *splitMix64) next() uint64 {
	s.state += 0x9E3779B97F4A7C15
	z := s.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

func lensJSONMinify(v any, call ResolvedLensCall) any {
	s := v.(string)
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(s)); err != nil {
		return s
	}
	return buf.String()
}

func lensJSONParse(v any, call ResolvedLensCall) any {
	s := v.(string)
	var out any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		panicF("F102", "json_parse: invalid JSON input", call.Pos)
	}
	return jsonNativeToRuntime(out)
}

func jsonNativeToRuntime(v any) any {
	switch x := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		om := NewOMap()
		for _, k := range keys {
			om.Set(k, jsonNativeToRuntime(x[k]))
		}
		return om
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = jsonNativeToRuntime(e)
		}
		return out
	case float64:
		if x == float64(int64(x)) {
			return Number{IsInt: true, I: int64(x)}
		}
		return Number{F: x}
	default:
		return x
	}
}

var markdownDelims = regexp.MustCompile("(```[a-zA-Z]*\\n|```|`|\\*\\*|\\*|__|_|^#{1,6}\\s*|\\[([^\\]]*)\\]\\(([^)]*)\\))")

func lensStripMarkdown(v any, call ResolvedLensCall) any {
	s := v.(string)
	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		lines[i] = markdownDelims.ReplaceAllStringFunc(ln, func(m string) string {
			if sub := markdownDelims.FindStringSubmatch(m); len(sub) == 3 && sub[1] != "" {
				return sub[1]
			}
			if strings.HasPrefix(m, "```") {
				return ""
			}
			if strings.HasPrefix(m, "#") {
				return ""
			}
			return ""
		})
	}
	return strings.Join(lines, "\n")
}
