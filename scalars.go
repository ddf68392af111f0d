package facet

import "regexp"

// Extended scalars (C11): timestamp, duration, size, regex. Each is
// validated against its shape and serialized to its original textual
// form as a JSON string.

var (
	timestampShape = regexp.MustCompile(`^@\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})?$`)
	durationShape  = regexp.MustCompile(`^\d+(ms|s|m|h|d)$`)
	sizeShape      = regexp.MustCompile(`^\d+(B|KB|MB|GB)$`)
)

// validateExtendedScalar checks n's textual form against its declared
// kind's shape, panicking with F101 on mismatch, and returns the string
// that should appear in the final JSON output.
func validateExtendedScalar(n VExtendedScalar) string {
	switch n.Kind {
	case ExtTimestamp:
		if !timestampShape.MatchString(n.Text) {
			panicF("F101", "malformed timestamp literal '"+n.Text+"'", n.Pos)
		}
	case ExtDuration:
		if !durationShape.MatchString(n.Text) {
			panicF("F101", "malformed duration literal '"+n.Text+"'", n.Pos)
		}
	case ExtSize:
		if !sizeShape.MatchString(n.Text) {
			panicF("F101", "malformed size literal '"+n.Text+"'", n.Pos)
		}
	case ExtRegex:
		body, _ := splitRegexLiteral(n.Text)
		if _, err := regexp.Compile(body); err != nil {
			panicF("F803", "regex literal does not compile: "+err.Error(), n.Pos)
		}
	}
	return n.Text
}

// splitRegexLiteral splits a `/pattern/flags` literal into its pattern and
// flags, undoing the `\/` escape used inside the pattern.
func splitRegexLiteral(text string) (pattern, flags string) {
	if len(text) < 2 || text[0] != '/' {
		return text, ""
	}
	i := 1
	var b []byte
	for i < len(text) {
		if text[i] == '/' {
			break
		}
		if text[i] == '\\' && i+1 < len(text) && text[i+1] == '/' {
			b = append(b, '/')
			i += 2
			continue
		}
		b = append(b, text[i])
		i++
	}
	flags = text[i+1:]
	return string(b), flags
}
