package facet

import (
	"regexp"
	"strings"
)

// Compile-time facet handling (C7): @import/@vars/@var_types extraction,
// variable scope assembly, and @var_types schema validation.

// splitCompileTimeFacets partitions a parsed document into its import
// facets, a single @vars facet (nil if absent), a single @var_types facet
// (nil if absent), and the remaining ordinary facets in source order.
func splitCompileTimeFacets(doc *Document) (imports []*Facet, varsFacet *Facet, typesFacet *Facet, rest []*Facet) {
	for _, f := range doc.Facets {
		switch f.Name {
		case "import":
			imports = append(imports, f)
		case "vars":
			if varsFacet != nil {
				panicF("F306", "duplicate @vars facet", f.Pos)
			}
			varsFacet = f
		case "var_types":
			if typesFacet != nil {
				panicF("F306", "duplicate @var_types facet", f.Pos)
			}
			typesFacet = f
		default:
			rest = append(rest, f)
		}
	}
	return
}

// buildVarScope assembles the flat variable scope used by $substitution and
// {{interpolation}} throughout the document. Host mode sees only host vars; all mode flattens @vars over host vars, document wins on conflict.
// Every host-supplied value is checked for JSON-compatibility first (F101),
// since hostVars arrives as arbitrary Go values from the calling program
// rather than values this engine itself parsed and can already vouch for.
func buildVarScope(varsFacet *Facet, hostVars map[string]any, resolveMode string) map[string]any {
	scope := map[string]any{}
	var bag diagBag
	for k, v := range hostVars {
		if !jsonCompatibleValue(v) {
			bag.add(Diagnostic{Code: "F101", Message: "host variable '" + k + "' is not a JSON-compatible value"})
			continue
		}
		scope[k] = v
	}
	bag.panicBag()
	if resolveMode != "all" || varsFacet == nil {
		return scope
	}
	mb, ok := varsFacet.Body.(*MappingBlock)
	if !ok {
		return scope
	}
	for _, kv := range mb.Pairs {
		scope[kv.Key] = evalValue(kv.Value, scope)
	}
	return scope
}

// jsonCompatibleValue reports whether v is built only from the value
// shapes the engine can serialize: nil, bool, string, a number (either
// this package's Number or a plain Go numeric type), []any, map[string]any,
// or *OMap, recursively.
func jsonCompatibleValue(v any) bool {
	switch x := v.(type) {
	case nil, bool, string, Number, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	case []any:
		for _, e := range x {
			if !jsonCompatibleValue(e) {
				return false
			}
		}
		return true
	case map[string]any:
		for _, e := range x {
			if !jsonCompatibleValue(e) {
				return false
			}
		}
		return true
	case *OMap:
		for _, k := range x.Keys {
			e, _ := x.Get(k)
			if !jsonCompatibleValue(e) {
				return false
			}
		}
		return true
	}
	return false
}

func validTypeName(t string) bool {
	switch t {
	case "string", "int", "float", "bool", "array", "object":
		return true
	}
	return false
}

// validateVarTypes checks every variable named in typesFacet against its
// declared schema: type, enum, min/max, pattern. Every entry is checked
// before failing, so two independent violations in the same document are
// both reported rather than only the first.
func validateVarTypes(scope map[string]any, typesFacet *Facet) {
	if typesFacet == nil {
		return
	}
	mb, ok := typesFacet.Body.(*MappingBlock)
	if !ok {
		return
	}
	var bag diagBag
	for _, kv := range mb.Pairs {
		schemaVal := evalValue(kv.Value, map[string]any{})
		schema, ok := schemaVal.(*OMap)
		if !ok {
			bag.add(Diagnostic{Code: "F451", Message: "@var_types entry for '" + kv.Key + "' must be a mapping", Line: kv.Pos.Line, Column: kv.Pos.Col})
			continue
		}
		val, present := scope[kv.Key]
		if !present {
			continue
		}
		validateOneVarType(&bag, kv.Key, val, schema, kv.Pos)
	}
	bag.panicBag()
}

func validateOneVarType(bag *diagBag, name string, val any, schema *OMap, pos Pos) {
	typ, _ := schema.Get("type")
	typeName, _ := typ.(string)
	if typeName != "" {
		if !validTypeName(typeName) {
			bag.add(Diagnostic{Code: "F451", Message: "@var_types entry for '" + name + "' declares unknown type '" + typeName + "'", Line: pos.Line, Column: pos.Col})
		} else if !valueMatchesType(val, typeName) {
			bag.add(Diagnostic{Code: "F451", Message: "variable '" + name + "' does not match declared type '" + typeName + "'", Line: pos.Line, Column: pos.Col})
		}
	}
	if enumVal, ok := schema.Get("enum"); ok {
		list, _ := enumVal.([]any)
		if !containsEqual(list, val) {
			bag.add(Diagnostic{Code: "F452", Message: "variable '" + name + "' is not one of the allowed enum values", Line: pos.Line, Column: pos.Col})
		}
	}
	if minVal, ok := schema.Get("min"); ok {
		if f, numOK := toFloat(val); numOK {
			if mf, ok2 := toFloat(minVal); ok2 && f < mf {
				bag.add(Diagnostic{Code: "F452", Message: "variable '" + name + "' is below the declared minimum", Line: pos.Line, Column: pos.Col})
			}
		}
	}
	if maxVal, ok := schema.Get("max"); ok {
		if f, numOK := toFloat(val); numOK {
			if mf, ok2 := toFloat(maxVal); ok2 && f > mf {
				bag.add(Diagnostic{Code: "F452", Message: "variable '" + name + "' is above the declared maximum", Line: pos.Line, Column: pos.Col})
			}
		}
	}
	if patVal, ok := schema.Get("pattern"); ok {
		pat, _ := patVal.(string)
		s, strOK := val.(string)
		if pat != "" && strOK {
			re, err := regexp.Compile(pat)
			if err != nil {
				bag.add(Diagnostic{Code: "F452", Message: "variable '" + name + "' has an invalid pattern constraint", Line: pos.Line, Column: pos.Col})
			} else if !re.MatchString(s) {
				bag.add(Diagnostic{Code: "F452", Message: "variable '" + name + "' does not match the declared pattern", Line: pos.Line, Column: pos.Col})
			}
		}
	}
}

func valueMatchesType(val any, typeName string) bool {
	switch typeName {
	case "string":
		_, ok := val.(string)
		return ok
	case "int":
		n, ok := val.(Number)
		return ok && n.IsInt
	case "float":
		_, ok := val.(Number)
		return ok
	case "bool":
		_, ok := val.(bool)
		return ok
	case "array":
		_, ok := val.([]any)
		return ok
	case "object":
		_, ok := val.(*OMap)
		return ok
	}
	return false
}

func containsEqual(list []any, val any) bool {
	for _, item := range list {
		if deepEqual(item, val) {
			return true
		}
	}
	return false
}

// importPathOf reads the `path` attribute off an @import facet.
func importPathOf(f *Facet) string {
	for _, a := range f.Attrs {
		if a.Key == "path" {
			if sv, ok := a.Value.(VString); ok {
				return strings.TrimSpace(sv.S)
			}
		}
	}
	return ""
}
