package config

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// deref unwraps document and alias nodes so callers always see the
// underlying scalar, mapping, or sequence.
func deref(node *yaml.Node) *yaml.Node {
	for node != nil {
		switch {
		case node.Kind == yaml.DocumentNode && len(node.Content) > 0:
			node = node.Content[0]
		case node.Kind == yaml.AliasNode && node.Alias != nil:
			node = node.Alias
		default:
			return node
		}
	}
	return nil
}

func isNull(node *yaml.Node) bool {
	return node == nil || (node.Kind == yaml.ScalarNode && node.Tag == "!!null") || node.Kind == 0
}

// isPlain reports whether a scalar appeared unquoted in the source, which
// selects literal-or-extractor parsing instead of composite parsing.
func isPlain(node *yaml.Node) bool {
	const quoted = yaml.SingleQuotedStyle | yaml.DoubleQuotedStyle | yaml.LiteralStyle | yaml.FoldedStyle
	return node.Kind == yaml.ScalarNode && node.Style&quoted == 0
}

// supportedTag accepts standard resolved tags and the bare non-specific tag
// a quoting "!" produces. Application tags other than LiteralTag are not.
func supportedTag(tag string) bool {
	return tag == "" || tag == "!" || strings.HasPrefix(tag, "!!")
}

// mapChild returns the value node for a key in a mapping, or nil.
func mapChild(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}
