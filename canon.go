package facet

// Canonicalizer orchestration (C10): runs the ten-step canonicalization
// pipeline over parsed source and produces the final root *OMap.

// Options configures one canonicalize call.
type Options struct {
	ResolveMode string // "host" or "all"
	HostVars    map[string]any
	ImportRoots []string
	StrictMerge bool
}

func canonicalize(source []byte, opts Options) (*OMap, Diagnostics) {
	var result *OMap
	diags := runGuardedDiagnostics(source, func() {
		result = canonicalizeUnguarded(source, opts)
	})
	if len(diags) > 0 {
		return nil, diags
	}
	return result, nil
}

func canonicalizeUnguarded(source []byte, opts Options) *OMap {
	if len(source) > MaxDocumentBytes {
		panicF("F101", "source exceeds the maximum document size", Pos{})
	}

	// 1. Lex + parse.
	toks := NewLexer(source).Scan()
	doc := NewParser(toks).ParseDocument()

	// Duplicate @vars/@var_types facets are rejected (F306) here, before
	// import expansion merges same-named facets into one.
	splitCompileTimeFacets(doc)

	// 2. Expand imports (recursively).
	loader := newImportLoader(opts.ImportRoots, opts.StrictMerge)
	doc = expandImports(doc, loader, 1)

	imports, varsFacet, typesFacet, facets := splitCompileTimeFacets(doc)
	_ = imports

	// 3. Assemble variable scope; run @var_types.
	scope := buildVarScope(varsFacet, opts.HostVars, opts.ResolveMode)
	validateVarTypes(scope, typesFacet)

	// 4. Evaluate `if` on facets; prune falsy ones.
	var kept []*Facet
	for _, f := range facets {
		if guard, ok := ifAttr(f.Attrs); ok {
			if !EvalIf(guard, scope, f.Pos) {
				continue
			}
		}
		kept = append(kept, f)
	}

	root := NewOMap()
	for _, f := range kept {
		root.Set(f.Name, canonicalizeFacet(f, scope))
	}
	return root
}

func ifAttr(attrs []Attr) (string, bool) {
	for _, a := range attrs {
		if a.Key == "if" {
			sv, ok := a.Value.(VString)
			if !ok {
				panicF("F704", "the 'if' attribute must be a quoted string expression", a.Pos)
			}
			return sv.S, true
		}
	}
	return "", false
}

// canonicalizeFacet runs steps 7 (anchors, over the whole body so sibling
// `&label`/`*label` pairs see each other) then 5-6 and 8 (substitution,
// lens pipelines, extended-scalar/fence stringification per value) and
// returns the facet's `{"_attrs": {...}, ...body...}` object.
func canonicalizeFacet(f *Facet, scope map[string]any) *OMap {
	out := NewOMap()
	attrs := NewOMap()
	for _, a := range f.Attrs {
		if a.Key == "if" {
			continue
		}
		attrs.Set(a.Key, evalValue(a.Value, scope))
	}
	out.Set("_attrs", attrs)

	switch body := resolveFacetAnchors(f.Body).(type) {
	case *MappingBlock:
		for _, kv := range body.Pairs {
			v := canonicalizeValueNode(kv.Value, kv.Pipeline, scope)
			out.Set(kv.Key, v)
		}
	case *ListBlock:
		items := canonicalizeListBlock(body, scope)
		out.Set("items", items)
	}
	return out
}

func canonicalizeListBlock(body *ListBlock, scope map[string]any) []any {
	var items []any
	for _, it := range body.Items {
		if it.HasIf && !EvalIf(it.If, scope, it.Pos) {
			continue
		}
		items = append(items, canonicalizeValueNode(it.Value, it.Pipeline, scope))
	}
	return items
}

// canonicalizeValueNode runs steps 5-6 and 8 (substitution, lens pipeline,
// extended-scalar/fence stringification) for one already anchor-resolved
// value position.
func canonicalizeValueNode(v Value, pipeline []LensCall, scope map[string]any) any {
	substituted := evalValue(v, scope)
	if len(pipeline) > 0 {
		substituted = ApplyPipeline(substituted, resolveLensCalls(pipeline))
	}
	return substituted
}
