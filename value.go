package facet

// JSON-shaped runtime values used from variable resolution through
// serialization. Plain Go `any` would lose key order, so object values use
// OMap instead of map[string]any; everything else maps onto native Go
// types: nil, bool, string, Number, []any, *OMap.
type Number struct {
	IsInt bool
	I     int64
	F     float64
}

func IntNumber(i int64) Number    { return Number{IsInt: true, I: i} }
func FloatNumber(f float64) Number { return Number{IsInt: false, F: f} }

func (n Number) Float() float64 {
	if n.IsInt {
		return float64(n.I)
	}
	return n.F
}

// OMap is an insertion-ordered string-keyed map, the representation of a
// JSON object throughout the pipeline (invariant: key order equals source
// order).
type OMap struct {
	Keys []string
	M    map[string]any
}

func NewOMap() *OMap { return &OMap{M: map[string]any{}} }

func (o *OMap) Set(k string, v any) {
	if _, ok := o.M[k]; !ok {
		o.Keys = append(o.Keys, k)
	}
	o.M[k] = v
}

func (o *OMap) Get(k string) (any, bool) {
	v, ok := o.M[k]
	return v, ok
}

func (o *OMap) Delete(k string) {
	if _, ok := o.M[k]; !ok {
		return
	}
	delete(o.M, k)
	for i, kk := range o.Keys {
		if kk == k {
			o.Keys = append(o.Keys[:i], o.Keys[i+1:]...)
			break
		}
	}
}

// envGet resolves a dot path against a nested env of map[string]any /
// *OMap / []any, returning (value, true) on a hit. A missing path yields
// (nil, false) — callers decide whether that's an error (F404) or null
// (a miss returns null rather than erroring, matching how if-expressions treat an absent path).
func envGet(env map[string]any, path string) (any, bool) {
	parts := splitDotPath(path)
	if len(parts) == 0 {
		return nil, false
	}
	cur, ok := env[parts[0]]
	if !ok {
		return nil, false
	}
	for _, part := range parts[1:] {
		m, ok2 := asLookup(cur)
		if !ok2 {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func asLookup(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case *OMap:
		return m.M, true
	}
	return nil, false
}

func splitDotPath(path string) []string {
	var parts []string
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '.' {
			if i > start {
				parts = append(parts, path[start:i])
			}
			start = i + 1
		}
	}
	return parts
}
