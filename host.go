package facet

import (
	"github.com/rs/zerolog"
)

// Host-facing entry points (C13): Canonize and Lint.

// Config carries everything a host supplies to one Canonize call. Zero
// value is host resolve mode, no host vars, no import roots, lenient
// merge, and a no-op logger.
type Config struct {
	ResolveMode string // "host" (default) or "all"
	HostVars    map[string]any
	ImportRoots []string
	StrictMerge bool
	Logger      zerolog.Logger
}

func (c Config) logger() zerolog.Logger {
	return c.Logger
}

// Canonize compiles source under cfg and returns the canonical JSON value
// as an *OMap (object) or, for a list-bodied single-facet document, the
// same root-object shape the pipeline always produces. On failure it
// returns a nil value and every Diagnostic the failing stage collected
// before stopping, matching the `canonize(...) -> JSON | [Diagnostic]`
// host contract.
func Canonize(source []byte, cfg Config) (*OMap, Diagnostics) {
	mode := cfg.ResolveMode
	if mode == "" {
		mode = "host"
	}
	log := cfg.logger()
	log.Debug().Int("bytes", len(source)).Str("resolve_mode", mode).Msg("canonize: start")
	result, diags := canonicalize(source, Options{
		ResolveMode: mode,
		HostVars:    cfg.HostVars,
		ImportRoots: cfg.ImportRoots,
		StrictMerge: cfg.StrictMerge,
	})
	if len(diags) > 0 {
		log.Debug().Int("count", len(diags)).Msg("canonize: failed")
		return nil, diags
	}
	log.Debug().Msg("canonize: ok")
	return result, nil
}

// CanonizeToJSON is a convenience wrapper returning the serialized JSON
// text directly.
func CanonizeToJSON(source []byte, cfg Config) (string, Diagnostics) {
	v, diags := Canonize(source, cfg)
	if len(diags) > 0 {
		return "", diags
	}
	return encodeJSON(v), nil
}

// Lint performs lex + parse and structural checks only, stopping before the
// import/variable stages. Every structural issue found is reported, not
// just the first.
func Lint(source []byte) []Diagnostic {
	var diags []Diagnostic
	func() {
		defer func() {
			if r := recover(); r != nil {
				diags = append(diags, recoverDiagnostics(r, source)...)
			}
		}()
		toks := NewLexer(source).Scan()
		doc := NewParser(toks).ParseDocument()
		for _, f := range doc.Facets {
			lintFacetShape(f, source, &diags)
		}
	}()
	return diags
}

// lintFacetShape walks a parsed facet looking for structural issues that
// don't require import/variable resolution to detect, such as `if` guards
// on non-string literals.
func lintFacetShape(f *Facet, source []byte, diags *[]Diagnostic) {
	for _, a := range f.Attrs {
		if a.Key == "if" {
			if _, ok := a.Value.(VString); !ok {
				d := Diagnostic{Code: "F704", Message: "the 'if' attribute must be a quoted string expression", Line: a.Pos.Line, Column: a.Pos.Col}
				d.Snippet = renderSnippet(string(source), a.Pos)
				*diags = append(*diags, d)
			}
		}
	}
}
