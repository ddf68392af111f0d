package facet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func scanKinds(t *testing.T, src string) []TokKind {
	t.Helper()
	toks := NewLexer([]byte(src)).Scan()
	kinds := make([]TokKind, len(toks))
	for i, tok := range toks {
		kinds[i] = tok.Kind
	}
	return kinds
}

func TestLexerIndentDedent(t *testing.T) {
	src := "@a\n  x: 1\n  y: 2\n"
	kinds := scanKinds(t, src)
	assert.Contains(t, kinds, TIndent)
	assert.Contains(t, kinds, TDedent)
}

func TestLexerTabInIndentFails(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic on tab indentation")
		}
		f, ok := r.(fail)
		if !ok || f.code != "F002" {
			t.Fatalf("want F002, got %#v", r)
		}
	}()
	NewLexer([]byte("@a\n\tx: 1\n")).Scan()
}

func TestLexerUnterminatedStringFails(t *testing.T) {
	defer func() {
		r := recover()
		f, ok := r.(fail)
		if !ok || f.code != "F003" {
			t.Fatalf("want F003, got %#v", r)
		}
	}()
	NewLexer([]byte("@a\n  x: \"unterminated\n")).Scan()
}

func TestLexerUnevenIndentFails(t *testing.T) {
	defer func() {
		r := recover()
		f, ok := r.(fail)
		if !ok || f.code != "F002" {
			t.Fatalf("want F002, got %#v", r)
		}
	}()
	NewLexer([]byte("@a\n   x: 1\n")).Scan()
}
