package facet

// Anchor resolution (C5): a single traversal per facet collects `&label`
// definitions, then substitutes `*label` aliases with the referent,
// detecting cycles via a DFS "currently visiting" mark set. The traversal
// walks FACET's Value tree directly rather than a generic JSON object; the
// visiting set holds the labels currently being expanded by the recursive
// substitution.
//
// Anchors resolve within one facet only; aliases referencing a label
// defined in a different facet are indistinguishable from undefined labels
// and fail with F201.
type anchorResolver struct {
	defs     map[string]Value
	visiting map[string]bool
}

// resolveFacetAnchors runs collect-then-substitute over one facet's body,
// returning a new Body with every AnchorDef unwrapped to its inner value
// and every Alias replaced by its referent.
func resolveFacetAnchors(body Body) Body {
	if body == nil {
		return nil
	}
	r := &anchorResolver{defs: map[string]Value{}, visiting: map[string]bool{}}
	r.collect(body)
	switch b := body.(type) {
	case *MappingBlock:
		return r.substituteMapping(b)
	case *ListBlock:
		return r.substituteList(b)
	}
	return body
}

func (r *anchorResolver) collect(body Body) {
	switch b := body.(type) {
	case *MappingBlock:
		for _, kv := range b.Pairs {
			r.collectValue(kv.Value, kv.Pos)
		}
	case *ListBlock:
		for _, it := range b.Items {
			r.collectValue(it.Value, it.Pos)
		}
	}
}

func (r *anchorResolver) collectValue(v Value, pos Pos) {
	switch n := v.(type) {
	case VAnchorDef:
		if _, dup := r.defs[n.Label]; dup {
			panicF("F202", "anchor '"+n.Label+"' redefined", n.Pos)
		}
		r.defs[n.Label] = n.Inner
		r.collectValue(n.Inner, n.Pos)
	case VInlineMap:
		for _, val := range n.Vals {
			r.collectValue(val, pos)
		}
	case VInlineList:
		for _, val := range n.Items {
			r.collectValue(val, pos)
		}
	case VNestedMap:
		for _, kv := range n.Block.Pairs {
			r.collectValue(kv.Value, kv.Pos)
		}
	case VNestedList:
		for _, it := range n.Block.Items {
			r.collectValue(it.Value, it.Pos)
		}
	}
}

func (r *anchorResolver) substituteMapping(b *MappingBlock) *MappingBlock {
	out := &MappingBlock{Pairs: make([]*KV, len(b.Pairs))}
	for i, kv := range b.Pairs {
		nkv := *kv
		nkv.Value = r.resolve(kv.Value)
		out.Pairs[i] = &nkv
	}
	return out
}

func (r *anchorResolver) substituteList(b *ListBlock) *ListBlock {
	out := &ListBlock{Items: make([]*ListItem, len(b.Items))}
	for i, it := range b.Items {
		nit := *it
		nit.Value = r.resolve(it.Value)
		out.Items[i] = &nit
	}
	return out
}

func (r *anchorResolver) resolve(v Value) Value {
	switch n := v.(type) {
	case VAnchorDef:
		return r.resolve(n.Inner)
	case VAlias:
		referent, ok := r.defs[n.Label]
		if !ok {
			panicF("F201", "undefined anchor alias '"+n.Label+"'", n.Pos)
		}
		if r.visiting[n.Label] {
			panicF("F201", "anchor cycle detected at '"+n.Label+"'", n.Pos)
		}
		r.visiting[n.Label] = true
		resolved := r.resolve(referent)
		delete(r.visiting, n.Label)
		return resolved
	case VInlineMap:
		nv := VInlineMap{Keys: n.Keys, Vals: make([]Value, len(n.Vals)), Pos: n.Pos}
		for i, val := range n.Vals {
			nv.Vals[i] = r.resolve(val)
		}
		return nv
	case VInlineList:
		nv := VInlineList{Items: make([]Value, len(n.Items)), Pos: n.Pos}
		for i, val := range n.Items {
			nv.Items[i] = r.resolve(val)
		}
		return nv
	case VNestedMap:
		return VNestedMap{Block: r.substituteMapping(n.Block), Pos: n.Pos}
	case VNestedList:
		return VNestedList{Block: r.substituteList(n.Block), Pos: n.Pos}
	default:
		return v
	}
}
