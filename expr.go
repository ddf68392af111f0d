package facet

import (
	"strconv"
	"strings"
)

// Expression evaluator (C6): a dedicated tokenizer and recursive-descent
// parser for the restricted `if="…"` grammar. No host-language eval is
// ever invoked; comparisons and boolean logic are hand-parsed and
// hand-evaluated.

type xTokKind int

const (
	xEOF xTokKind = iota
	xString
	xNumber
	xBool
	xNull
	xIdent
	xLParen
	xRParen
	xEq
	xNe
	xLt
	xLe
	xGt
	xGe
	xIn
	xAnd
	xOr
	xNot
)

type xTok struct {
	kind xTokKind
	str  string
	num  float64
	b    bool
}

func tokenizeExpr(s string, pos Pos) []xTok {
	var toks []xTok
	i := 0
	n := len(s)
	for i < n {
		c := s[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '(':
			toks = append(toks, xTok{kind: xLParen})
			i++
		case c == ')':
			toks = append(toks, xTok{kind: xRParen})
			i++
		case c == '"' || c == '\'':
			j := i + 1
			var b strings.Builder
			for j < n && s[j] != c {
				if s[j] == '\\' && j+1 < n {
					j++
					switch s[j] {
					case 'n':
						b.WriteByte('\n')
					case 't':
						b.WriteByte('\t')
					default:
						b.WriteByte(s[j])
					}
				} else {
					b.WriteByte(s[j])
				}
				j++
			}
			if j >= n {
				panicF("F705", "unterminated string in if expression", pos)
			}
			toks = append(toks, xTok{kind: xString, str: b.String()})
			i = j + 1
		case c == '=' && i+1 < n && s[i+1] == '=':
			toks = append(toks, xTok{kind: xEq})
			i += 2
		case c == '!' && i+1 < n && s[i+1] == '=':
			toks = append(toks, xTok{kind: xNe})
			i += 2
		case c == '<' && i+1 < n && s[i+1] == '=':
			toks = append(toks, xTok{kind: xLe})
			i += 2
		case c == '<':
			toks = append(toks, xTok{kind: xLt})
			i++
		case c == '>' && i+1 < n && s[i+1] == '=':
			toks = append(toks, xTok{kind: xGe})
			i += 2
		case c == '>':
			toks = append(toks, xTok{kind: xGt})
			i++
		case isDigit(rune(c)) || (c == '-' && i+1 < n && isDigit(rune(s[i+1]))):
			j := i + 1
			for j < n && (isDigit(rune(s[j])) || s[j] == '.') {
				j++
			}
			text := s[i:j]
			f, err := parseExprNumber(text)
			if err != nil {
				panicF("F705", "malformed number in if expression", pos)
			}
			toks = append(toks, xTok{kind: xNumber, num: f})
			i = j
		case isIdentStart(rune(c)):
			j := i + 1
			for j < n && (isIdentCont(rune(s[j])) || s[j] == '.') {
				j++
			}
			word := s[i:j]
			switch word {
			case "true":
				toks = append(toks, xTok{kind: xBool, b: true})
			case "false":
				toks = append(toks, xTok{kind: xBool, b: false})
			case "null":
				toks = append(toks, xTok{kind: xNull})
			case "and":
				toks = append(toks, xTok{kind: xAnd})
			case "or":
				toks = append(toks, xTok{kind: xOr})
			case "not":
				toks = append(toks, xTok{kind: xNot})
			case "in":
				toks = append(toks, xTok{kind: xIn})
			default:
				toks = append(toks, xTok{kind: xIdent, str: word})
			}
			i = j
		default:
			panicF("F705", "unexpected character in if expression", pos)
		}
	}
	toks = append(toks, xTok{kind: xEOF})
	return toks
}

func parseExprNumber(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

type exprParser struct {
	toks []xTok
	pos  Pos
	i    int
	env  map[string]any
}

func (p *exprParser) cur() xTok { return p.toks[p.i] }

func (p *exprParser) advance() xTok {
	t := p.toks[p.i]
	if p.i < len(p.toks)-1 {
		p.i++
	}
	return t
}

// EvalIf evaluates a restricted if="…" expression against env, returning
// its boolean result. Panics with F703/F705 diagnostics on failure.
func EvalIf(expr string, env map[string]any, pos Pos) bool {
	p := &exprParser{toks: tokenizeExpr(expr, pos), pos: pos, env: env}
	result := p.parseOr()
	if p.cur().kind != xEOF {
		panicF("F705", "trailing tokens in if expression", pos)
	}
	return result
}

func (p *exprParser) parseOr() bool {
	left := p.parseAnd()
	for p.cur().kind == xOr {
		p.advance()
		right := p.parseAnd()
		left = left || right
	}
	return left
}

func (p *exprParser) parseAnd() bool {
	left := p.parseNot()
	for p.cur().kind == xAnd {
		p.advance()
		right := p.parseNot()
		left = left && right
	}
	return left
}

func (p *exprParser) parseNot() bool {
	if p.cur().kind == xNot {
		p.advance()
		return !p.parseNot()
	}
	return p.parseCmp()
}

func (p *exprParser) parseCmp() bool {
	left := p.parsePrimary()
	switch p.cur().kind {
	case xEq:
		p.advance()
		return deepEqual(left, p.parsePrimary())
	case xNe:
		p.advance()
		return !deepEqual(left, p.parsePrimary())
	case xLt, xLe, xGt, xGe:
		op := p.advance().kind
		right := p.parsePrimary()
		return compareOrdered(left, right, op, p.pos)
	case xIn:
		p.advance()
		right := p.parsePrimary()
		return membership(left, right, p.pos)
	}
	return truthy(left)
}

func (p *exprParser) parsePrimary() any {
	t := p.cur()
	switch t.kind {
	case xLParen:
		p.advance()
		inner := p.parseOr()
		if p.cur().kind != xRParen {
			panicF("F705", "expected ')' in if expression", p.pos)
		}
		p.advance()
		return inner
	case xString:
		p.advance()
		return t.str
	case xNumber:
		p.advance()
		return t.num
	case xBool:
		p.advance()
		return t.b
	case xNull:
		p.advance()
		return nil
	case xIdent:
		p.advance()
		v, _ := envGet(p.env, t.str)
		return v
	}
	panicF("F705", "unexpected token in if expression", p.pos)
	return nil
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0
	case []any:
		return len(x) > 0
	case *OMap:
		return len(x.Keys) > 0
	}
	return true
}

func deepEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	as, aok2 := a.(string)
	bs, bok2 := b.(string)
	if aok2 && bok2 {
		return as == bs
	}
	ab, aok3 := a.(bool)
	bb, bok3 := b.(bool)
	if aok3 && bok3 {
		return ab == bb
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case Number:
		return x.Float(), true
	}
	return 0, false
}

func compareOrdered(a, b any, op xTokKind, pos Pos) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if !aok || !bok {
		panicF("F703", "comparison on mixed or non-numeric types", pos)
	}
	switch op {
	case xLt:
		return af < bf
	case xLe:
		return af <= bf
	case xGt:
		return af > bf
	case xGe:
		return af >= bf
	}
	return false
}

func membership(needle, haystack any, pos Pos) bool {
	switch h := haystack.(type) {
	case []any:
		for _, item := range h {
			if deepEqual(needle, item) {
				return true
			}
		}
		return false
	case string:
		s, ok := needle.(string)
		if !ok {
			panicF("F703", "'in' on non-string against a string", pos)
		}
		return strings.Contains(h, s)
	}
	panicF("F703", "'in' requires an array or string on the right", pos)
	return false
}
