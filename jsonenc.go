package facet

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Deterministic JSON serialization (C12): insertion-ordered objects,
// canonical number formatting, minimal escaping, literal UTF-8 output.

func encodeJSON(v any) string {
	var b strings.Builder
	encodeJSONValue(&b, v, false)
	return b.String()
}

func encodeJSONValue(b *strings.Builder, v any, _ bool) {
	switch x := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		if x {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case string:
		encodeJSONString(b, x)
	case Number:
		b.WriteString(formatNumber(x))
	case *OMap:
		b.WriteByte('{')
		for i, k := range x.Keys {
			if i > 0 {
				b.WriteByte(',')
			}
			encodeJSONString(b, k)
			b.WriteByte(':')
			val, _ := x.Get(k)
			encodeJSONValue(b, val, false)
		}
		b.WriteByte('}')
	case []any:
		b.WriteByte('[')
		for i, item := range x {
			if i > 0 {
				b.WriteByte(',')
			}
			encodeJSONValue(b, item, false)
		}
		b.WriteByte(']')
	default:
		b.WriteString("null")
	}
}

// formatNumber renders a Number in its canonical decimal form: integers
// without a decimal point, floats in their shortest round-trippable form.
func formatNumber(n Number) string {
	if n.IsInt {
		return strconv.FormatInt(n.I, 10)
	}
	return strconv.FormatFloat(n.F, 'g', -1, 64)
}

// encodeJSONString writes s as a JSON string literal using the minimal
// ASCII escape set, emitting all other characters as literal UTF-8 bytes.
func encodeJSONString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				b.WriteString(`\u`)
				hex := strconv.FormatInt(int64(r), 16)
				for len(hex) < 4 {
					hex = "0" + hex
				}
				b.WriteString(hex)
				continue
			}
			var buf [utf8.UTFMax]byte
			n := utf8.EncodeRune(buf[:], r)
			b.Write(buf[:n])
		}
	}
	b.WriteByte('"')
}
