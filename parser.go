package facet

// Parser is a recursive-descent parser over the FACET token stream (C4),
// built directly against Go's Token/AST types above.
type Parser struct {
	toks []Token
	pos  int
}

// NewParser wraps a token stream for parsing.
func NewParser(toks []Token) *Parser { return &Parser{toks: toks} }

func (p *Parser) cur() Token { return p.toks[p.pos] }

func (p *Parser) peekAt(n int) Token {
	i := p.pos + n
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

func (p *Parser) advance() Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) accept(k TokKind) bool {
	if p.cur().Kind == k {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(k TokKind) Token {
	if p.cur().Kind != k {
		panicF("F101", "expected "+k.String()+", found "+p.cur().Kind.String(), p.cur().Pos)
	}
	return p.advance()
}

// ParseDocument parses the whole token stream into a Document.
func (p *Parser) ParseDocument() *Document {
	doc := &Document{}
	for p.cur().Kind != TEOF {
		if p.accept(TNewline) {
			continue
		}
		doc.Facets = append(doc.Facets, p.parseFacet())
	}
	return doc
}

func (p *Parser) parseFacet() *Facet {
	atPos := p.expect(TAt).Pos
	name := p.expect(TIdent).Text
	anchor := ""
	if p.accept(TAmp) {
		anchor = p.expect(TIdent).Text
	}
	var attrs []Attr
	switch {
	case name == "import" && p.cur().Kind == TString:
		tok := p.advance()
		attrs = append(attrs, Attr{Key: "path", Value: VString{S: tok.Str, Pos: tok.Pos}, Pos: tok.Pos})
	case p.accept(TLParen):
		attrs = p.parseAttrs()
		p.expect(TRParen)
	}
	p.expect(TNewline)
	var body Body
	if p.accept(TIndent) {
		body = p.parseBlock()
		p.expect(TDedent)
	}
	return &Facet{Name: name, Anchor: anchor, Attrs: attrs, Body: body, Pos: atPos}
}

func (p *Parser) parseAttrs() []Attr {
	var attrs []Attr
	if p.cur().Kind == TRParen {
		return attrs
	}
	for {
		keyTok := p.expect(TIdent)
		p.expect(TEqual)
		val := p.parseAttrLiteral()
		attrs = append(attrs, Attr{Key: keyTok.Text, Value: val, Pos: keyTok.Pos})
		if p.accept(TComma) {
			continue
		}
		break
	}
	return attrs
}

// parseAttrLiteral enforces invariant 5: attributes may contain only
// string, number, boolean, null, or bare identifier, with no
// interpolation/substitution (F304/F301).
func (p *Parser) parseAttrLiteral() Value {
	tok := p.advance()
	switch tok.Kind {
	case TString:
		if tok.Text == "dollarvar" {
			panicF("F304", "variable substitution is forbidden in attribute values", tok.Pos)
		}
		if tok.Text == "plain" || tok.Text == "triple" {
			checkNoInterpolationSyntax(tok.Str, tok.Pos)
		}
		return VString{S: tok.Str, Pos: tok.Pos}
	case TNumber:
		return VNumber{N: tok.Num, IsInt: tok.IsInt, Pos: tok.Pos}
	case TBool:
		return VBool{B: tok.Text == "true", Pos: tok.Pos}
	case TNull:
		return VNull{Pos: tok.Pos}
	case TIdent:
		return VIdent{Name: tok.Text, Pos: tok.Pos}
	}
	panicF("F301", "malformed attribute value", tok.Pos)
	return nil
}

// checkNoInterpolationSyntax rejects attribute literals containing
// substitution or interpolation markers (F304), per invariant 5.
func checkNoInterpolationSyntax(s string, pos Pos) {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '$' {
			panicF("F304", "variable substitution is forbidden in attribute values", pos)
		}
		if c == '{' && i+1 < len(s) && s[i+1] == '{' {
			panicF("F304", "interpolation is forbidden in attribute values", pos)
		}
	}
}

func (p *Parser) parseBlock() Body {
	switch p.cur().Kind {
	case TDash:
		lb := &ListBlock{}
		for p.cur().Kind == TDash {
			lb.Items = append(lb.Items, p.parseListItem())
		}
		if p.cur().Kind == TIdent && p.peekAt(1).Kind == TColon {
			panicF("F101", "mixed list and map items in one block", p.cur().Pos)
		}
		return lb
	case TIdent:
		mb := &MappingBlock{}
		for p.cur().Kind == TIdent {
			mb.Pairs = append(mb.Pairs, p.parseKV())
		}
		if p.cur().Kind == TDash {
			panicF("F101", "mixed list and map items in one block", p.cur().Pos)
		}
		return mb
	}
	panicF("F101", "malformed block", p.cur().Pos)
	return nil
}

func (p *Parser) parseListItem() *ListItem {
	pos := p.expect(TDash).Pos
	val := p.parseValue()
	ifExpr := ""
	hasIf := false
	if p.accept(TLParen) {
		attrs := p.parseAttrs()
		p.expect(TRParen)
		for _, a := range attrs {
			if a.Key != "if" {
				panicF("F305", "list items admit only the 'if' attribute", a.Pos)
			}
			sv, ok := a.Value.(VString)
			if !ok {
				panicF("F704", "'if' attribute must be a quoted expression string", a.Pos)
			}
			ifExpr, hasIf = sv.S, true
		}
	}
	pipeline := p.maybeParsePipeline()
	p.expect(TNewline)
	return &ListItem{Value: val, If: ifExpr, HasIf: hasIf, Pipeline: pipeline, Pos: pos}
}

// parseKV parses one `key [&label]: value` mapping pair. The anchor label,
// when present, sits between the key and the colon rather than prefixing
// the value as it does for list items and inline values (parseValue); when
// present it wraps whatever value follows in a VAnchorDef.
func (p *Parser) parseKV() *KV {
	keyTok := p.expect(TIdent)
	anchor := ""
	if p.accept(TAmp) {
		anchor = p.expect(TIdent).Text
	}
	p.expect(TColon)
	wrap := func(v Value, pos Pos) Value {
		if anchor == "" {
			return v
		}
		return VAnchorDef{Label: anchor, Inner: v, Pos: pos}
	}
	if p.cur().Kind == TNewline {
		p.advance()
		p.expect(TIndent)
		var val Value
		var pipeline []LensCall
		switch p.cur().Kind {
		case TFence:
			tok := p.advance()
			val = VFence{Lang: tok.Fence.Lang, Body: tok.Fence.Body, Pos: tok.Pos}
			pipeline = p.maybeParsePipeline()
			p.expect(TNewline)
		case TDash:
			lb := &ListBlock{}
			for p.cur().Kind == TDash {
				lb.Items = append(lb.Items, p.parseListItem())
			}
			val = VNestedList{Block: lb, Pos: keyTok.Pos}
		case TIdent:
			mb := &MappingBlock{}
			for p.cur().Kind == TIdent {
				mb.Pairs = append(mb.Pairs, p.parseKV())
			}
			val = VNestedMap{Block: mb, Pos: keyTok.Pos}
		default:
			panicF("F101", "malformed nested block", p.cur().Pos)
		}
		p.expect(TDedent)
		return &KV{Key: keyTok.Text, Value: wrap(val, keyTok.Pos), Pipeline: pipeline, Pos: keyTok.Pos}
	}
	val := p.parseValue()
	pipeline := p.maybeParsePipeline()
	p.expect(TNewline)
	return &KV{Key: keyTok.Text, Value: wrap(val, keyTok.Pos), Pipeline: pipeline, Pos: keyTok.Pos}
}

func (p *Parser) parseValue() Value {
	tok := p.cur()
	switch tok.Kind {
	case TAmp:
		p.advance()
		label := p.expect(TIdent).Text
		inner := p.parseValue()
		return VAnchorDef{Label: label, Inner: inner, Pos: tok.Pos}
	case TStar:
		p.advance()
		label := p.expect(TIdent).Text
		return VAlias{Label: label, Pos: tok.Pos}
	case TString:
		p.advance()
		switch tok.Text {
		case "timestamp":
			return VExtendedScalar{Kind: ExtTimestamp, Text: tok.Str, Pos: tok.Pos}
		case "duration":
			return VExtendedScalar{Kind: ExtDuration, Text: tok.Str, Pos: tok.Pos}
		case "size":
			return VExtendedScalar{Kind: ExtSize, Text: tok.Str, Pos: tok.Pos}
		case "regex":
			return VExtendedScalar{Kind: ExtRegex, Text: tok.Str, Pos: tok.Pos}
		case "dollarvar":
			return VDollarRef{Path: tok.Str, Pos: tok.Pos}
		}
		return VString{S: tok.Str, Pos: tok.Pos}
	case TNumber:
		p.advance()
		return VNumber{N: tok.Num, IsInt: tok.IsInt, Pos: tok.Pos}
	case TBool:
		p.advance()
		return VBool{B: tok.Text == "true", Pos: tok.Pos}
	case TNull:
		p.advance()
		return VNull{Pos: tok.Pos}
	case TIdent:
		p.advance()
		return VIdent{Name: tok.Text, Pos: tok.Pos}
	case TLBrace:
		return p.parseInlineMap()
	case TLBrack:
		return p.parseInlineList()
	case TFence:
		p.advance()
		return VFence{Lang: tok.Fence.Lang, Body: tok.Fence.Body, Pos: tok.Pos}
	}
	panicF("F101", "expected a value, found "+tok.Kind.String(), tok.Pos)
	return nil
}

func (p *Parser) parseInlineMap() Value {
	pos := p.expect(TLBrace).Pos
	m := VInlineMap{Pos: pos}
	if p.accept(TRBrace) {
		return m
	}
	for {
		if p.cur().Kind == TNewline {
			panicF("F101", "inline map broken across lines", p.cur().Pos)
		}
		keyTok := p.advance()
		var key string
		switch keyTok.Kind {
		case TIdent:
			key = keyTok.Text
		case TString:
			key = keyTok.Str
		default:
			panicF("F101", "inline map key must be an identifier or string", keyTok.Pos)
		}
		p.expect(TColon)
		val := p.parseInlineSubvalue()
		m.Keys = append(m.Keys, key)
		m.Vals = append(m.Vals, val)
		if p.accept(TComma) {
			if p.cur().Kind == TRBrace {
				panicF("F101", "trailing comma in inline map", p.cur().Pos)
			}
			continue
		}
		break
	}
	p.expect(TRBrace)
	return m
}

func (p *Parser) parseInlineList() Value {
	pos := p.expect(TLBrack).Pos
	l := VInlineList{Pos: pos}
	if p.accept(TRBrack) {
		return l
	}
	for {
		if p.cur().Kind == TNewline {
			panicF("F101", "inline list broken across lines", p.cur().Pos)
		}
		val := p.parseInlineSubvalue()
		l.Items = append(l.Items, val)
		if p.accept(TComma) {
			if p.cur().Kind == TRBrack {
				panicF("F101", "trailing comma in inline list", p.cur().Pos)
			}
			continue
		}
		break
	}
	p.expect(TRBrack)
	return l
}

// parseInlineSubvalue parses one element of an inline collection. Pipelines
// are deliberately not accepted here: the source's prose forbids lens
// pipelines on inline sub-values even though some examples show them: per
// the documented resolution, implementations follow the prose and reject.
func (p *Parser) parseInlineSubvalue() Value {
	v := p.parseValue()
	if p.cur().Kind == TPipe {
		panicF("F101", "pipelines are not permitted on inline collection elements", p.cur().Pos)
	}
	return v
}

func (p *Parser) maybeParsePipeline() []LensCall {
	var calls []LensCall
	for p.cur().Kind == TPipe {
		pos := p.advance().Pos
		nameTok := p.expect(TIdent)
		call := LensCall{Name: nameTok.Text, Kwargs: map[string]Value{}, Pos: pos}
		if p.accept(TLParen) {
			if p.cur().Kind != TRParen {
				for {
					if p.cur().Kind == TIdent && p.peekAt(1).Kind == TEqual {
						k := p.advance().Text
						p.expect(TEqual)
						v := p.parseLensArgLiteral()
						call.Kwargs[k] = v
						call.KwOrder = append(call.KwOrder, k)
					} else {
						v := p.parseLensArgLiteral()
						call.Args = append(call.Args, v)
					}
					if p.accept(TComma) {
						continue
					}
					break
				}
			}
			p.expect(TRParen)
		}
		calls = append(calls, call)
		if len(calls) > MaxLensChain {
			panicF("F805", "pipeline length exceeded", pos)
		}
	}
	return calls
}

// parseLensArgLiteral enforces invariant 8: lens arguments must be
// literals, never identifiers or variable references.
func (p *Parser) parseLensArgLiteral() Value {
	tok := p.cur()
	switch tok.Kind {
	case TString, TNumber, TBool, TNull:
		return p.parseValue()
	}
	panicF("F801", "lens arguments must be literals", tok.Pos)
	return nil
}
