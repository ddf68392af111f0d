package facet

import (
	"strconv"
	"strings"
)

// Lexer turns normalized source text into a token stream (C3), driving an
// explicit rune cursor plus line/col bookkeeping and an indent stack for
// FACET's block structure.
type Lexer struct {
	src         []rune
	pos         int
	line, col   int
	indentStack []int
	atLineHead  bool
	tokens      []Token
	lastKind    TokKind
	hasLast     bool
}

// NewLexer normalizes raw bytes (BOM, line endings, trailing whitespace) and returns a ready
// Lexer.
func NewLexer(src []byte) *Lexer {
	text := string(src)
	text = strings.TrimPrefix(text, "\uFEFF")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	for i, ln := range lines {
		lines[i] = strings.TrimRight(ln, " \t")
	}
	text = strings.Join(lines, "\n")
	return &Lexer{
		src:         []rune(text),
		pos:         0,
		line:        1,
		col:         1,
		indentStack: []int{0},
		atLineHead:  true,
	}
}

func (lx *Lexer) here() Pos { return Pos{Offset: lx.pos, Line: lx.line, Col: lx.col} }

func (lx *Lexer) eof() bool { return lx.pos >= len(lx.src) }

func (lx *Lexer) peekAt(off int) rune {
	if lx.pos+off >= len(lx.src) || lx.pos+off < 0 {
		return 0
	}
	return lx.src[lx.pos+off]
}

func (lx *Lexer) peek() rune { return lx.peekAt(0) }

func (lx *Lexer) advance() rune {
	c := lx.src[lx.pos]
	lx.pos++
	if c == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}
	return c
}

func (lx *Lexer) emit(kind TokKind, pos Pos) {
	lx.tokens = append(lx.tokens, Token{Kind: kind, Pos: pos})
	lx.lastKind, lx.hasLast = kind, true
}

func (lx *Lexer) emitTok(t Token) {
	lx.tokens = append(lx.tokens, t)
	lx.lastKind, lx.hasLast = t.Kind, true
}

// Scan runs the full lexer over the normalized source and returns the
// resulting token stream, or panics with a `fail` value on lexical error.
func (lx *Lexer) Scan() []Token {
	if len(lx.src) > MaxDocumentBytes {
		panicF("F001", "document exceeds maximum size", lx.here())
	}
	for {
		if lx.atLineHead {
			if lx.handleIndent() {
				continue
			}
		}
		if lx.eof() {
			break
		}
		lx.scanToken()
	}
	if lx.hasLast && lx.lastKind != TNewline && lx.lastKind != TIndent && lx.lastKind != TDedent {
		lx.emit(TNewline, lx.here())
	}
	for len(lx.indentStack) > 1 {
		lx.indentStack = lx.indentStack[:len(lx.indentStack)-1]
		lx.emit(TDedent, lx.here())
	}
	lx.emit(TEOF, lx.here())
	return lx.tokens
}

// handleIndent processes leading whitespace at the start of a logical line.
// Returns true when the caller should loop again without scanning a token
// (blank or comment-only lines produce no tokens at all).
func (lx *Lexer) handleIndent() bool {
	pos := lx.here()
	spaces := 0
	sawTab := false
	for !lx.eof() {
		c := lx.peek()
		if c == ' ' {
			spaces++
			lx.advance()
			continue
		}
		if c == '\t' {
			sawTab = true
			lx.advance()
			continue
		}
		break
	}
	if lx.eof() {
		lx.atLineHead = false
		return false
	}
	if lx.peek() == '\n' {
		lx.advance()
		return true
	}
	if lx.peek() == '#' {
		for !lx.eof() && lx.peek() != '\n' {
			lx.advance()
		}
		if !lx.eof() {
			lx.advance()
		}
		return true
	}
	if sawTab {
		panicF("F002", "tab character in indentation", pos)
	}
	if spaces%2 != 0 {
		panicF("F002", "indentation must be a multiple of 2 spaces", pos)
	}
	level := spaces / 2
	top := lx.indentStack[len(lx.indentStack)-1]
	switch {
	case level == top:
	case level == top+1:
		lx.indentStack = append(lx.indentStack, level)
		if len(lx.indentStack) > MaxIndentDepth {
			panicF("F002", "maximum indentation depth exceeded", pos)
		}
		lx.emit(TIndent, pos)
	case level > top+1:
		panicF("F002", "indentation increased by more than one level", pos)
	default:
		for lx.indentStack[len(lx.indentStack)-1] > level {
			lx.indentStack = lx.indentStack[:len(lx.indentStack)-1]
			lx.emit(TDedent, pos)
		}
		if lx.indentStack[len(lx.indentStack)-1] != level {
			panicF("F002", "malformed dedent", pos)
		}
	}
	lx.atLineHead = false
	return false
}

func isIdentStart(c rune) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c rune) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isDigit(c rune) bool { return c >= '0' && c <= '9' }

func (lx *Lexer) scanToken() {
	pos := lx.here()
	c := lx.peek()

	switch {
	case c == '\n':
		lx.advance()
		lx.emit(TNewline, pos)
		lx.atLineHead = true
		return
	case c == ' ' || c == '\t':
		lx.advance()
		return
	case c == '#':
		for !lx.eof() && lx.peek() != '\n' {
			lx.advance()
		}
		return
	case c == '"':
		lx.scanString(pos)
		return
	case c == '`' && lx.peekAt(1) == '`' && lx.peekAt(2) == '`':
		lx.scanFence(pos)
		return
	case c == '/':
		lx.scanRegex(pos)
		return
	case c == '$':
		lx.scanDollarRef(pos)
		return
	case c == '@':
		if lx.atLineHeadForThisToken() {
			lx.advance()
			lx.emit(TAt, pos)
		} else {
			lx.scanTimestamp(pos)
		}
		return
	case isDigit(c) || (c == '-' && isDigit(lx.peekAt(1))) || (c == '.' && isDigit(lx.peekAt(1))):
		lx.scanNumber(pos)
		return
	case isIdentStart(c):
		lx.scanIdent(pos)
		return
	case c == '&':
		lx.advance()
		lx.emit(TAmp, pos)
		return
	case c == '*':
		lx.advance()
		lx.emit(TStar, pos)
		return
	case c == '=':
		lx.advance()
		lx.emit(TEqual, pos)
		return
	case c == '{':
		lx.advance()
		lx.emit(TLBrace, pos)
		return
	case c == '}':
		lx.advance()
		lx.emit(TRBrace, pos)
		return
	case c == '[':
		lx.advance()
		lx.emit(TLBrack, pos)
		return
	case c == ']':
		lx.advance()
		lx.emit(TRBrack, pos)
		return
	case c == '(':
		lx.advance()
		lx.emit(TLParen, pos)
		return
	case c == ')':
		lx.advance()
		lx.emit(TRParen, pos)
		return
	case c == ',':
		lx.advance()
		lx.emit(TComma, pos)
		return
	case c == ':':
		lx.advance()
		lx.emit(TColon, pos)
		return
	case c == '-':
		lx.advance()
		lx.emit(TDash, pos)
		return
	case c == '|':
		if lx.peekAt(1) == '>' {
			lx.advance()
			lx.advance()
			lx.emit(TPipe, pos)
			return
		}
		panicF("F001", "'|' is not a token outside '|>'", pos)
	}
	panicF("F001", "unexpected character "+strconv.QuoteRune(c), pos)
}

// atLineHeadForThisToken reports whether the '@' currently being scanned is
// the first token of its logical line (a facet declaration) as opposed to
// occurring inside a value (where '@' instead opens a timestamp literal).
func (lx *Lexer) atLineHeadForThisToken() bool {
	if !lx.hasLast {
		return true
	}
	switch lx.lastKind {
	case TNewline, TIndent, TDedent:
		return true
	default:
		return false
	}
}

func (lx *Lexer) scanIdent(pos Pos) {
	var b strings.Builder
	for !lx.eof() && isIdentCont(lx.peek()) {
		b.WriteRune(lx.advance())
	}
	text := b.String()
	switch text {
	case "true", "false":
		lx.emitTok(Token{Kind: TBool, Pos: pos, Text: text})
	case "null":
		lx.emitTok(Token{Kind: TNull, Pos: pos, Text: text})
	default:
		lx.emitTok(Token{Kind: TIdent, Pos: pos, Text: text})
	}
}

var durationUnits = []string{"ms", "s", "m", "h", "d"}
var sizeUnits = []string{"KB", "MB", "GB", "B"}

func (lx *Lexer) scanNumber(pos Pos) {
	var b strings.Builder
	if lx.peek() == '-' {
		b.WriteRune(lx.advance())
	}
	if lx.peek() == '0' {
		b.WriteRune(lx.advance())
		if !lx.eof() && isDigit(lx.peek()) {
			panicF("F101", "leading zero is only permitted for the literal 0", pos)
		}
	} else {
		for !lx.eof() && isDigit(lx.peek()) {
			b.WriteRune(lx.advance())
		}
	}
	isFloat := false
	if lx.peek() == '.' && isDigit(lx.peekAt(1)) {
		isFloat = true
		b.WriteRune(lx.advance())
		for !lx.eof() && isDigit(lx.peek()) {
			b.WriteRune(lx.advance())
		}
	}
	if lx.peek() == 'e' || lx.peek() == 'E' {
		save := lx.pos
		var eb strings.Builder
		eb.WriteRune(lx.advance())
		if lx.peek() == '+' || lx.peek() == '-' {
			eb.WriteRune(lx.advance())
		}
		if isDigit(lx.peek()) {
			isFloat = true
			for !lx.eof() && isDigit(lx.peek()) {
				eb.WriteRune(lx.advance())
			}
			b.WriteString(eb.String())
		} else {
			lx.pos = save
		}
	}
	text := b.String()

	// Extended-scalar suffix check: a numeric literal immediately followed
	// (no whitespace) by a duration or size unit and then a token boundary
	// is a duration/size literal, not NUMBER IDENT.
	if !isFloat {
		if unit := lx.matchUnitSuffix(durationUnits); unit != "" {
			lx.emitTok(Token{Kind: TString, Pos: pos, Str: text + unit, Text: "duration"})
			return
		}
		if unit := lx.matchUnitSuffix(sizeUnits); unit != "" {
			lx.emitTok(Token{Kind: TString, Pos: pos, Str: text + unit, Text: "size"})
			return
		}
	}

	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		panicF("F101", "malformed number literal", pos)
	}
	lx.emitTok(Token{Kind: TNumber, Pos: pos, Num: n, IsInt: !isFloat, Text: text})
}

// matchUnitSuffix consumes one of units if it appears next and is followed
// by a non-identifier character, returning the matched unit (or "").
func (lx *Lexer) matchUnitSuffix(units []string) string {
	for _, u := range units {
		ok := true
		for i, r := range []rune(u) {
			if lx.peekAt(i) != r {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		after := lx.peekAt(len([]rune(u)))
		if isIdentCont(after) {
			continue
		}
		for range u {
			lx.advance()
		}
		return u
	}
	return ""
}

// scanDollarRef lexes a bare `$name` or `${a.b}` scalar-substitution
// reference into a STRING token tagged "dollarvar", whose Str holds the
// bare dot path (without the sigil/braces).
// treatment of these forms as STRING tokens.
func (lx *Lexer) scanDollarRef(pos Pos) {
	lx.advance() // '$'
	var b strings.Builder
	if lx.peek() == '{' {
		lx.advance()
		for !lx.eof() && lx.peek() != '}' {
			b.WriteRune(lx.advance())
		}
		if lx.eof() {
			panicF("F101", "unclosed '${' substitution reference", pos)
		}
		lx.advance() // '}'
	} else {
		for !lx.eof() && (isIdentCont(lx.peek()) || lx.peek() == '.') {
			b.WriteRune(lx.advance())
		}
	}
	if b.Len() == 0 {
		panicF("F101", "empty substitution reference", pos)
	}
	lx.emitTok(Token{Kind: TString, Pos: pos, Str: b.String(), Text: "dollarvar"})
}

func (lx *Lexer) scanTimestamp(pos Pos) {
	var b strings.Builder
	b.WriteRune(lx.advance()) // '@'
	for !lx.eof() {
		c := lx.peek()
		if isDigit(c) || c == '-' || c == ':' || c == '.' || c == 'T' || c == 'Z' || c == '+' {
			b.WriteRune(lx.advance())
			continue
		}
		break
	}
	lx.emitTok(Token{Kind: TString, Pos: pos, Str: b.String(), Text: "timestamp"})
}

func (lx *Lexer) scanRegex(pos Pos) {
	lx.advance() // opening '/'
	var b strings.Builder
	for {
		if lx.eof() || lx.peek() == '\n' {
			panicF("F003", "unterminated regex literal", pos)
		}
		c := lx.advance()
		if c == '\\' && lx.peek() == '/' {
			b.WriteRune(lx.advance())
			continue
		}
		if c == '/' {
			break
		}
		b.WriteRune(c)
	}
	var flags strings.Builder
	for !lx.eof() && isIdentStart(lx.peek()) {
		flags.WriteRune(lx.advance())
	}
	lx.emitTok(Token{Kind: TString, Pos: pos, Str: "/" + b.String() + "/" + flags.String(), Text: "regex"})
}

func (lx *Lexer) scanString(pos Pos) {
	lx.advance() // opening quote
	if lx.peek() == '"' && lx.peekAt(1) == '"' {
		lx.advance()
		lx.advance()
		lx.scanTripleString(pos)
		return
	}
	var b strings.Builder
	for {
		if lx.eof() || lx.peek() == '\n' {
			panicF("F003", "unterminated string", pos)
		}
		c := lx.advance()
		if c == '"' {
			break
		}
		if c == '\\' {
			b.WriteRune(lx.scanEscape(pos))
			continue
		}
		b.WriteRune(c)
	}
	lx.emitTok(Token{Kind: TString, Pos: pos, Str: b.String(), Text: "plain"})
}

func (lx *Lexer) scanEscape(pos Pos) rune {
	if lx.eof() {
		panicF("F003", "unterminated string escape", pos)
	}
	c := lx.advance()
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '"':
		return '"'
	case '\\':
		return '\\'
	case '/':
		return '/'
	case 'u':
		return lx.scanUnicodeEscape(pos)
	}
	panicF("F003", "invalid escape sequence", pos)
	return 0
}

func (lx *Lexer) scanUnicodeEscape(pos Pos) rune {
	hi := lx.read4Hex(pos)
	if hi >= 0xD800 && hi <= 0xDBFF && lx.peek() == '\\' && lx.peekAt(1) == 'u' {
		save := lx.pos
		lx.advance()
		lx.advance()
		lo := lx.read4Hex(pos)
		if lo >= 0xDC00 && lo <= 0xDFFF {
			return rune(((hi - 0xD800) << 10) + (lo - 0xDC00) + 0x10000)
		}
		lx.pos = save
	}
	return rune(hi)
}

func (lx *Lexer) read4Hex(pos Pos) int {
	v := 0
	for i := 0; i < 4; i++ {
		if lx.eof() {
			panicF("F003", "invalid unicode escape", pos)
		}
		c := lx.advance()
		d, ok := hexDigit(c)
		if !ok {
			panicF("F003", "invalid unicode escape", pos)
		}
		v = v*16 + d
	}
	return v
}

func hexDigit(c rune) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, true
	}
	return 0, false
}

func (lx *Lexer) scanTripleString(pos Pos) {
	var b strings.Builder
	for {
		if lx.eof() {
			panicF("F003", "unterminated triple-quoted string", pos)
		}
		if lx.peek() == '"' && lx.peekAt(1) == '"' && lx.peekAt(2) == '"' {
			lx.advance()
			lx.advance()
			lx.advance()
			break
		}
		b.WriteRune(lx.advance())
	}
	lx.emitTok(Token{Kind: TString, Pos: pos, Str: b.String(), Text: "triple"})
}

func (lx *Lexer) scanFence(pos Pos) {
	lx.advance()
	lx.advance()
	lx.advance()
	var lang strings.Builder
	for !lx.eof() && lx.peek() != '\n' {
		lang.WriteRune(lx.advance())
	}
	if !lx.eof() {
		lx.advance() // newline after opener
	}
	var body strings.Builder
	for {
		if lx.eof() {
			panicF("F003", "unterminated fence", pos)
		}
		lineStart := lx.pos
		for !lx.eof() && (lx.peek() == ' ' || lx.peek() == '\t') {
			lx.advance()
		}
		if lx.peek() == '`' && lx.peekAt(1) == '`' && lx.peekAt(2) == '`' {
			lx.advance()
			lx.advance()
			lx.advance()
			for !lx.eof() && lx.peek() != '\n' {
				lx.advance()
			}
			break
		}
		lx.pos = lineStart
		for !lx.eof() {
			c := lx.advance()
			body.WriteRune(c)
			if c == '\n' {
				break
			}
		}
		if body.Len() > MaxFenceBytes {
			panicF("F003", "fence body exceeds maximum size", pos)
		}
	}
	lx.emitTok(Token{Kind: TFence, Pos: pos, Fence: FenceInfo{Lang: strings.TrimSpace(lang.String()), Body: strings.TrimSuffix(body.String(), "\n")}})
}
