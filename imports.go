package facet

import (
	"os"
	"path/filepath"
	"strings"
)

// Import expansion (C8): load, cache, and merge or replace imported
// documents under allowlisted roots.

type importLoader struct {
	roots  []string
	cache  map[string]*Document
	stack  map[string]bool
	strict bool
	total  int
}

func newImportLoader(roots []string, strict bool) *importLoader {
	return &importLoader{roots: roots, cache: map[string]*Document{}, stack: map[string]bool{}, strict: strict}
}

// resolveImportPath validates rawPath against the import-path rules and returns its canonical absolute form.
func (il *importLoader) resolveImportPath(rawPath string, pos Pos) string {
	if rawPath == "" {
		panicF("F601", "import path must not be empty", pos)
	}
	if strings.Contains(rawPath, "://") || strings.HasPrefix(rawPath, "//") {
		panicF("F601", "import path must not be a URL", pos)
	}
	if filepath.IsAbs(rawPath) {
		panicF("F601", "import path must be relative", pos)
	}
	clean := filepath.ToSlash(filepath.Clean(rawPath))
	if clean == ".." || strings.HasPrefix(clean, "../") {
		panicF("F601", "import path must not escape its root via '..'", pos)
	}
	for _, root := range il.roots {
		candidate := filepath.Join(root, clean)
		absRoot, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		absCandidate, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if absCandidate == absRoot || strings.HasPrefix(absCandidate, absRoot+string(filepath.Separator)) {
			if _, err := os.Stat(absCandidate); err == nil {
				return absCandidate
			}
		}
	}
	panicF("F601", "import path '"+rawPath+"' is not rooted under any configured import root", pos)
	return ""
}

// load parses and fully import-expands the document at rawPath, caching by
// canonical absolute path and detecting cycles via the active-resolution
// stack.
func (il *importLoader) load(rawPath string, pos Pos, depth int) *Document {
	if depth > MaxImportDepth {
		panicF("F602", "import depth exceeds the configured ceiling", pos)
	}
	canon := il.resolveImportPath(rawPath, pos)
	if cached, ok := il.cache[canon]; ok {
		return cached
	}
	if il.stack[canon] {
		panicF("F602", "import cycle detected at '"+rawPath+"'", pos)
	}
	il.total++
	if il.total > MaxImports {
		panicF("F602", "total import count exceeds the configured ceiling", pos)
	}
	data, err := os.ReadFile(canon)
	if err != nil {
		panicF("F601", "failed to read import '"+rawPath+"': "+err.Error(), pos)
	}
	il.stack[canon] = true
	toks := NewLexer(data).Scan()
	doc := NewParser(toks).ParseDocument()
	expanded := expandImports(doc, il, depth+1)
	delete(il.stack, canon)
	il.cache[canon] = expanded
	return expanded
}

func importStrategyOf(f *Facet) string {
	for _, a := range f.Attrs {
		if a.Key == "strategy" {
			if sv, ok := a.Value.(VString); ok {
				return sv.S
			}
		}
	}
	return "merge"
}

// expandImports resolves every @import facet in doc (recursively, via
// il.load) and folds the resulting facets together with doc's own ordinary
// facets into a single merged Document, following load order. Compile-time
// @vars/@var_types facets are merged by name under the same rule as any
// other facet.
func expandImports(doc *Document, il *importLoader, depth int) *Document {
	var order []string
	merged := map[string]*Facet{}

	upsert := func(f *Facet, replace bool) {
		if existing, ok := merged[f.Name]; ok {
			if replace {
				merged[f.Name] = f
			} else {
				merged[f.Name] = mergeFacets(existing, f, il.strict)
			}
			return
		}
		order = append(order, f.Name)
		merged[f.Name] = f
	}

	for _, f := range doc.Facets {
		if f.Name != "import" {
			upsert(f, false)
			continue
		}
		rawPath := importPathOf(f)
		strategy := importStrategyOf(f)
		sub := il.load(rawPath, f.Pos, depth)
		for _, sf := range sub.Facets {
			upsert(sf, strategy == "replace")
		}
	}

	out := &Document{}
	for _, name := range order {
		out.Facets = append(out.Facets, merged[name])
	}
	return out
}

// mergeFacets implements the default merge strategy: attrs
// last-wins, mapping bodies merged key-by-key recursively, list bodies
// concatenated, mismatched shapes replace unless strict (→ F605).
func mergeFacets(dst, src *Facet, strict bool) *Facet {
	out := &Facet{Name: dst.Name, Anchor: dst.Anchor, Pos: dst.Pos}
	if src.Anchor != "" {
		out.Anchor = src.Anchor
	}
	out.Attrs = mergeAttrs(dst.Attrs, src.Attrs)
	out.Body = mergeBodies(dst.Body, src.Body, strict, src.Pos)
	return out
}

func mergeAttrs(dst, src []Attr) []Attr {
	order := make([]string, 0, len(dst)+len(src))
	vals := map[string]Attr{}
	for _, a := range dst {
		if _, ok := vals[a.Key]; !ok {
			order = append(order, a.Key)
		}
		vals[a.Key] = a
	}
	for _, a := range src {
		if _, ok := vals[a.Key]; !ok {
			order = append(order, a.Key)
		}
		vals[a.Key] = a
	}
	out := make([]Attr, 0, len(order))
	for _, k := range order {
		out = append(out, vals[k])
	}
	return out
}

func mergeBodies(dst, src Body, strict bool, pos Pos) Body {
	if dst == nil {
		return src
	}
	if src == nil {
		return dst
	}
	dm, dok := dst.(*MappingBlock)
	sm, sok := src.(*MappingBlock)
	if dok && sok {
		return mergeMappingBlocks(dm, sm, strict, pos)
	}
	dl, dlok := dst.(*ListBlock)
	sl, slok := src.(*ListBlock)
	if dlok && slok {
		return &ListBlock{Items: append(append([]*ListItem{}, dl.Items...), sl.Items...)}
	}
	if strict {
		panicF("F605", "cannot merge mapping and list bodies for the same facet under strict merge", pos)
	}
	return src
}

func mergeMappingBlocks(dst, src *MappingBlock, strict bool, pos Pos) *MappingBlock {
	order := make([]string, 0, len(dst.Pairs)+len(src.Pairs))
	vals := map[string]*KV{}
	for _, kv := range dst.Pairs {
		if _, ok := vals[kv.Key]; !ok {
			order = append(order, kv.Key)
		}
		vals[kv.Key] = kv
	}
	for _, kv := range src.Pairs {
		if existing, ok := vals[kv.Key]; ok {
			merged := mergeKV(existing, kv, strict, pos)
			vals[kv.Key] = merged
			continue
		}
		order = append(order, kv.Key)
		vals[kv.Key] = kv
	}
	out := &MappingBlock{}
	for _, k := range order {
		out.Pairs = append(out.Pairs, vals[k])
	}
	return out
}

func mergeKV(dst, src *KV, strict bool, pos Pos) *KV {
	dm, dok := dst.Value.(VNestedMap)
	sm, sok := src.Value.(VNestedMap)
	if dok && sok {
		return &KV{Key: src.Key, Value: VNestedMap{Block: mergeMappingBlocks(dm.Block, sm.Block, strict, pos), Pos: sm.Pos}, Pipeline: src.Pipeline, Pos: src.Pos}
	}
	dl, dlok := dst.Value.(VNestedList)
	sl, slok := src.Value.(VNestedList)
	if dlok && slok {
		return &KV{Key: src.Key, Value: VNestedList{Block: &ListBlock{Items: append(append([]*ListItem{}, dl.Block.Items...), sl.Block.Items...)}, Pos: sl.Pos}, Pipeline: src.Pipeline, Pos: src.Pos}
	}
	if strict && shapeKind(dst.Value) != shapeKind(src.Value) && shapeKind(dst.Value) != "scalar" {
		panicF("F605", "cannot merge mismatched value shapes for key '"+src.Key+"' under strict merge", pos)
	}
	return src
}

func shapeKind(v Value) string {
	switch v.(type) {
	case VNestedMap, VInlineMap:
		return "map"
	case VNestedList, VInlineList:
		return "list"
	default:
		return "scalar"
	}
}
