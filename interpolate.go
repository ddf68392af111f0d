package facet

import (
	"strconv"
	"strings"
)

// Variable substitution and string interpolation (C7 half), operating
// directly over FACET's Value tree rather than already-evaluated JSON.

// evalValue resolves substitution/interpolation throughout v. Fences and
// extended scalars are left verbatim aside from shape validation; by the
// time this runs, anchors have already been resolved over the whole body.
func evalValue(v Value, env map[string]any) any {
	switch n := v.(type) {
	case VString:
		return interpolateString(n.S, env, n.Pos)
	case VDollarRef:
		val, ok := envGet(env, n.Path)
		if !ok {
			panicF("F404", "undefined substitution path '"+n.Path+"'", n.Pos)
		}
		return val
	case VNumber:
		if n.IsInt {
			return Number{IsInt: true, I: int64(n.N)}
		}
		return Number{F: n.N}
	case VBool:
		return n.B
	case VNull:
		return nil
	case VIdent:
		return n.Name
	case VExtendedScalar:
		return validateExtendedScalar(n)
	case VFence:
		return n.Body
	case VInlineMap:
		om := NewOMap()
		for i, k := range n.Keys {
			om.Set(k, evalValue(n.Vals[i], env))
		}
		return om
	case VInlineList:
		out := make([]any, len(n.Items))
		for i, item := range n.Items {
			out[i] = evalValue(item, env)
		}
		return out
	case VNestedMap:
		om := NewOMap()
		for _, kv := range n.Block.Pairs {
			val := evalValue(kv.Value, env)
			val = ApplyPipeline(val, resolveLensCalls(kv.Pipeline))
			om.Set(kv.Key, val)
		}
		return om
	case VNestedList:
		var out []any
		for _, it := range n.Block.Items {
			if it.HasIf && !EvalIf(it.If, env, it.Pos) {
				continue
			}
			val := evalValue(it.Value, env)
			val = ApplyPipeline(val, resolveLensCalls(it.Pipeline))
			out = append(out, val)
		}
		return out
	case VAnchorDef:
		// canon.go resolves anchors over the whole facet body before calling
		// evalValue; fall back to the inner value if one ever reaches here.
		return evalValue(n.Inner, env)
	case VAlias:
		panicF("F201", "unresolved anchor alias '"+n.Label+"'", n.Pos)
	}
	return nil
}

// interpolateString scans s for `{{ path }}` / `{{ path |> lens(...) }}`
// spans and substitutes each with its resolved value. `\{{`
// and `\}}` escape the delimiters.
func interpolateString(s string, env map[string]any, pos Pos) string {
	var out strings.Builder
	i := 0
	for i < len(s) {
		if strings.HasPrefix(s[i:], `\{{`) {
			out.WriteString("{{")
			i += 3
			continue
		}
		if strings.HasPrefix(s[i:], `\}}`) {
			out.WriteString("}}")
			i += 3
			continue
		}
		if strings.HasPrefix(s[i:], "{{") {
			end := strings.Index(s[i+2:], "}}")
			if end < 0 {
				panicF("F402A", "unclosed interpolation span", pos)
			}
			content := strings.TrimSpace(s[i+2 : i+2+end])
			if content == "" {
				panicF("F402A", "empty interpolation span", pos)
			}
			out.WriteString(renderInterpolation(content, env, pos))
			i = i + 2 + end + 2
			continue
		}
		out.WriteByte(s[i])
		i++
	}
	return out.String()
}

// renderInterpolation evaluates one `path [|> lens(args)]*` span and
// returns the text to splice into the surrounding string.
func renderInterpolation(content string, env map[string]any, pos Pos) string {
	segments := strings.Split(content, "|>")
	path := strings.TrimSpace(segments[0])
	val, ok := envGet(env, path)
	if !ok {
		panicF("F402A", "undefined template variable '"+path+"'", pos)
	}
	var calls []ResolvedLensCall
	for _, seg := range segments[1:] {
		calls = append(calls, parseInterpolationLensCall(strings.TrimSpace(seg), env, pos))
	}
	val = ApplyPipeline(val, calls)
	return stringifyForInterpolation(val)
}

// parseInterpolationLensCall parses one lens segment inside a `{{ }}`
// span. Unlike AST-level pipelines, arguments here may be variable
// references (`$name`/`${a.b}`), e.g. `choose(seed=$seed)`.
func parseInterpolationLensCall(seg string, env map[string]any, pos Pos) ResolvedLensCall {
	name := seg
	argsText := ""
	if idx := strings.IndexByte(seg, '('); idx >= 0 && strings.HasSuffix(seg, ")") {
		name = strings.TrimSpace(seg[:idx])
		argsText = seg[idx+1 : len(seg)-1]
	}
	call := ResolvedLensCall{Name: name, Kwargs: map[string]any{}, Pos: pos}
	for _, part := range splitTopLevelCommas(argsText) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if eq := strings.IndexByte(part, '='); eq >= 0 && !strings.ContainsAny(part[:eq], "\"'") {
			k := strings.TrimSpace(part[:eq])
			v := resolveInterpolationArg(strings.TrimSpace(part[eq+1:]), env, pos)
			call.Kwargs[k] = v
		} else {
			call.Args = append(call.Args, resolveInterpolationArg(part, env, pos))
		}
	}
	return call
}

func splitTopLevelCommas(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, s[start:])
	return out
}

func resolveInterpolationArg(s string, env map[string]any, pos Pos) any {
	switch {
	case strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}"):
		path := s[2 : len(s)-1]
		v, ok := envGet(env, path)
		if !ok {
			panicF("F404", "undefined substitution path '"+path+"'", pos)
		}
		return v
	case strings.HasPrefix(s, "$"):
		v, ok := envGet(env, s[1:])
		if !ok {
			panicF("F404", "undefined substitution path '"+s[1:]+"'", pos)
		}
		return v
	case strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) && len(s) >= 2:
		return s[1 : len(s)-1]
	case s == "true":
		return true
	case s == "false":
		return false
	case s == "null":
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if f == float64(int64(f)) {
			return Number{IsInt: true, I: int64(f)}
		}
		return Number{F: f}
	}
	return s
}

func stringifyForInterpolation(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return "null"
	case bool:
		if x {
			return "true"
		}
		return "false"
	case Number:
		return formatNumber(x)
	default:
		var b strings.Builder
		encodeJSONValue(&b, v, false)
		return b.String()
	}
}
