package facet

import (
	"gopkg.in/yaml.v3"
)

// YAML serialization of a canonicalized value tree, offered by the CLI as
// an alternative to the default JSON encoder. Key order is preserved by
// building an explicit yaml.Node mapping rather than handing a plain
// map[string]any to yaml.v3, which would re-sort or randomize key order.
func EncodeYAML(v any) (string, error) {
	node := valueToYAMLNode(v)
	out, err := yaml.Marshal(node)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func valueToYAMLNode(v any) *yaml.Node {
	switch x := v.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case bool:
		return scalarNode(x, "!!bool")
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: x}
	case Number:
		if x.IsInt {
			return scalarNode(x.I, "!!int")
		}
		return scalarNode(x.F, "!!float")
	case []any:
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, e := range x {
			seq.Content = append(seq.Content, valueToYAMLNode(e))
		}
		return seq
	case *OMap:
		m := &yaml.Node{Kind: yaml.MappingNode}
		for _, k := range x.Keys {
			keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
			val, _ := x.Get(k)
			m.Content = append(m.Content, keyNode, valueToYAMLNode(val))
		}
		return m
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}

// scalarNode round-trips v through yaml.v3's own scalar encoder rather
// than hand-formatting, so quoting and numeric precision match yaml.v3's
// own rules for plain values.
func scalarNode(v any, tag string) *yaml.Node {
	n, err := yaml.Marshal(v)
	if err != nil {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: "null"}
	}
	var decoded yaml.Node
	if err := yaml.Unmarshal(n, &decoded); err == nil && decoded.Kind == yaml.DocumentNode && len(decoded.Content) == 1 {
		return decoded.Content[0]
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: string(n)}
}
