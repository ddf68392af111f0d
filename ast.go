package facet

// AST node types. The parser produces immutable trees; every
// later stage returns a new tree rather than mutating in place, preserving
// prior trees for diagnostics.

// Document is the parse root: an ordered list of facets, including
// compile-time ones (@import, @vars, @var_types) which are stripped by
// later stages.
type Document struct {
	Facets []*Facet
}

// Facet is a top-level named block.
type Facet struct {
	Name   string
	Anchor string // "" when unset
	Attrs  []Attr
	Body   Body // nil, *MappingBlock, or *ListBlock
	Pos    Pos
}

// Attr is one `key = literal` pair in a facet or list-item attribute list.
type Attr struct {
	Key   string
	Value Value
	Pos   Pos
}

// Body is the marker interface for *MappingBlock and *ListBlock.
type Body interface{ bodyNode() }

// MappingBlock is an insertion-ordered list of key/value/pipeline triples.
type MappingBlock struct {
	Pairs []*KV
}

func (*MappingBlock) bodyNode() {}

// KV is one mapping pair.
type KV struct {
	Key      string
	Value    Value
	Pipeline []LensCall
	Pos      Pos
}

// ListBlock is an ordered sequence of list items.
type ListBlock struct {
	Items []*ListItem
}

func (*ListBlock) bodyNode() {}

// ListItem is one `- value` entry, optionally guarded by an `if` attribute.
type ListItem struct {
	Value    Value
	If       string // "" when absent
	HasIf    bool
	Pipeline []LensCall
	Pos      Pos
}

// LensCall is one `|> name(args)` pipeline segment.
type LensCall struct {
	Name     string
	Args     []Value
	Kwargs   map[string]Value
	KwOrder  []string // preserves kwarg source order for deterministic errors
	Pos      Pos
}

// Value is the tagged union of everything a KV/ListItem/Attr may hold.
// Modeled as an interface implemented by concrete node types, the idiomatic
// tagged union, the idiomatic Go analog of a sum type.
type Value interface{ valueNode() }

type VString struct {
	S   string
	Pos Pos
}

func (VString) valueNode() {}

type VNumber struct {
	N     float64
	IsInt bool
	Pos   Pos
}

func (VNumber) valueNode() {}

type VBool struct {
	B   bool
	Pos Pos
}

func (VBool) valueNode() {}

type VNull struct{ Pos Pos }

func (VNull) valueNode() {}

// VIdent is a bare identifier used as a string value.
type VIdent struct {
	Name string
	Pos  Pos
}

func (VIdent) valueNode() {}

type VInlineMap struct {
	Keys []string
	Vals []Value
	Pos  Pos
}

func (VInlineMap) valueNode() {}

type VInlineList struct {
	Items []Value
	Pos   Pos
}

func (VInlineList) valueNode() {}

type VNestedMap struct {
	Block *MappingBlock
	Pos   Pos
}

func (VNestedMap) valueNode() {}

type VNestedList struct {
	Block *ListBlock
	Pos   Pos
}

func (VNestedList) valueNode() {}

type VFence struct {
	Lang string
	Body string
	Pos  Pos
}

func (VFence) valueNode() {}

type VAnchorDef struct {
	Label string
	Inner Value
	Pos   Pos
}

func (VAnchorDef) valueNode() {}

type VAlias struct {
	Label string
	Pos   Pos
}

func (VAlias) valueNode() {}

// ExtScalarKind enumerates the recognized extended scalar forms: timestamp,
// duration, size, and regex literals.
type ExtScalarKind int

const (
	ExtTimestamp ExtScalarKind = iota
	ExtDuration
	ExtSize
	ExtRegex
)

// VDollarRef is a bare `$name` or `${a.b}` scalar-substitution reference
// appearing outside of quotes, replacing the entire scalar value, as
// opposed to `{{…}}` interpolation, which only substitutes inside quoted
// string content.
type VDollarRef struct {
	Path string
	Pos  Pos
}

func (VDollarRef) valueNode() {}

type VExtendedScalar struct {
	Kind ExtScalarKind
	Text string // original textual form, serialized verbatim
	Pos  Pos
}

func (VExtendedScalar) valueNode() {}

// valuePos extracts the source position carried by any Value node.
func valuePos(v Value) Pos {
	switch n := v.(type) {
	case VString:
		return n.Pos
	case VNumber:
		return n.Pos
	case VBool:
		return n.Pos
	case VNull:
		return n.Pos
	case VIdent:
		return n.Pos
	case VInlineMap:
		return n.Pos
	case VInlineList:
		return n.Pos
	case VNestedMap:
		return n.Pos
	case VNestedList:
		return n.Pos
	case VFence:
		return n.Pos
	case VAnchorDef:
		return n.Pos
	case VAlias:
		return n.Pos
	case VExtendedScalar:
		return n.Pos
	case VDollarRef:
		return n.Pos
	}
	return Pos{}
}
