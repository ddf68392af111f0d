package facet

import (
	"strconv"
	"strings"
)

// Source-to-source printer backing the `fmt` command: re-emits a parsed
// Document as normalized FACET text rather than compiled JSON, printing
// AST nodes directly rather than evaluated runtime values.

// FormatSource lexes and parses source, then re-prints it as normalized
// FACET text with two-space indentation.
func FormatSource(source []byte) (out string, err error) {
	err = runGuarded(source, func() {
		toks := NewLexer(source).Scan()
		doc := NewParser(toks).ParseDocument()
		var b strings.Builder
		printDocument(&b, doc)
		out = b.String()
	})
	return out, err
}

func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func printDocument(b *strings.Builder, doc *Document) {
	for i, f := range doc.Facets {
		if i > 0 {
			b.WriteByte('\n')
		}
		printFacet(b, f)
	}
}

func printFacet(b *strings.Builder, f *Facet) {
	b.WriteByte('@')
	b.WriteString(f.Name)
	if f.Anchor != "" {
		b.WriteByte(' ')
		b.WriteByte('&')
		b.WriteString(f.Anchor)
	}
	if len(f.Attrs) > 0 {
		b.WriteByte('(')
		printAttrs(b, f.Attrs)
		b.WriteByte(')')
	}
	b.WriteByte('\n')
	printBody(b, f.Body, 1)
}

func printAttrs(b *strings.Builder, attrs []Attr) {
	for i, a := range attrs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.Key)
		b.WriteByte('=')
		b.WriteString(printScalarLiteral(a.Value))
	}
}

func printScalarLiteral(v Value) string {
	switch n := v.(type) {
	case VString:
		return quoteString(n.S)
	case VNumber:
		if n.IsInt {
			return strconv.FormatInt(int64(n.N), 10)
		}
		return strconv.FormatFloat(n.N, 'g', -1, 64)
	case VBool:
		if n.B {
			return "true"
		}
		return "false"
	case VNull:
		return "null"
	case VIdent:
		return n.Name
	}
	return ""
}

func indent(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
}

func printBody(b *strings.Builder, body Body, depth int) {
	switch bl := body.(type) {
	case *MappingBlock:
		for _, kv := range bl.Pairs {
			indent(b, depth)
			b.WriteString(kv.Key)
			value := kv.Value
			if anchored, ok := value.(VAnchorDef); ok {
				b.WriteByte(' ')
				b.WriteByte('&')
				b.WriteString(anchored.Label)
				value = anchored.Inner
			}
			b.WriteByte(':')
			printValueInline(b, value, kv.Pipeline, depth)
		}
	case *ListBlock:
		for _, it := range bl.Items {
			indent(b, depth)
			b.WriteByte('-')
			if it.HasIf {
				b.WriteByte(' ')
				b.WriteString(printInlineValue(it.Value))
				b.WriteString(" (if=")
				b.WriteString(quoteString(it.If))
				b.WriteByte(')')
				printPipeline(b, it.Pipeline)
				b.WriteByte('\n')
				continue
			}
			printValueInline(b, it.Value, it.Pipeline, depth)
		}
	}
}

func printValueInline(b *strings.Builder, v Value, pipeline []LensCall, depth int) {
	switch n := v.(type) {
	case VNestedMap:
		b.WriteByte('\n')
		printBody(b, n.Block, depth+1)
	case VNestedList:
		b.WriteByte('\n')
		printBody(b, n.Block, depth+1)
	case VFence:
		b.WriteString(" ```")
		b.WriteString(n.Lang)
		b.WriteByte('\n')
		b.WriteString(n.Body)
		b.WriteString("\n```\n")
	default:
		b.WriteByte(' ')
		b.WriteString(printInlineValue(v))
		printPipeline(b, pipeline)
		b.WriteByte('\n')
	}
}

func printPipeline(b *strings.Builder, pipeline []LensCall) {
	for _, call := range pipeline {
		b.WriteString(" |> ")
		b.WriteString(call.Name)
		b.WriteByte('(')
		first := true
		for _, v := range call.Args {
			if !first {
				b.WriteString(", ")
			}
			first = false
			b.WriteString(printScalarLiteral(v))
		}
		for _, k := range call.KwOrder {
			if !first {
				b.WriteString(", ")
			}
			first = false
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(printScalarLiteral(call.Kwargs[k]))
		}
		b.WriteByte(')')
	}
}

func printInlineValue(v Value) string {
	switch n := v.(type) {
	case VAnchorDef:
		return "&" + n.Label + " " + printInlineValue(n.Inner)
	case VAlias:
		return "*" + n.Label
	case VExtendedScalar:
		return n.Text
	case VDollarRef:
		return "$" + n.Path
	case VInlineMap:
		var parts []string
		for i, k := range n.Keys {
			parts = append(parts, k+": "+printInlineValue(n.Vals[i]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case VInlineList:
		var parts []string
		for _, item := range n.Items {
			parts = append(parts, printInlineValue(item))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return printScalarLiteral(v)
	}
}
