package yaml

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

var ErrNotMapping = errors.New("yaml: document is not a mapping")

func Unmarshal(in []byte, out any) error {
	return yaml.Unmarshal(in, out)
}

func Encode(v any, indent int) ([]byte, error) {
	var b bytes.Buffer
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(indent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// Patch sets key: value in the mapping at path and keeps comments and
// formatting of the other lines. Missing mappings on the path are created.
// A nil value removes the key.
func Patch(src []byte, key string, value any, path ...string) ([]byte, error) {
	parent, err := rootMapping(src)
	if err != nil {
		return nil, err
	}

	for i, name := range path {
		k, v := findChild(parent, name)
		if k == nil || v.Kind != yaml.MappingNode {
			if value == nil {
				return src, nil // nothing to remove
			}
			key, value = name, nest(path[i+1:], key, value)
			break
		}
		parent = v
	}

	dst, err := put(src, parent, key, value)
	if err != nil {
		return nil, err
	}

	if err = yaml.Unmarshal(dst, map[string]any{}); err != nil {
		return nil, err
	}
	return dst, nil
}

// nest wraps key: value into mappings, [a b] => {a: {b: {key: value}}}
func nest(path []string, key string, value any) map[string]any {
	v := map[string]any{key: value}
	for i := len(path) - 1; i >= 0; i-- {
		v = map[string]any{path[i]: v}
	}
	return v
}

func rootMapping(src []byte) (*yaml.Node, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(src, &root); err != nil {
		return nil, err
	}
	if len(root.Content) == 0 {
		return nil, nil // empty or comments only
	}

	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, ErrNotMapping
	}
	return doc, nil
}

// findChild returns the key and value nodes of name in a mapping node
func findChild(node *yaml.Node, name string) (key, value *yaml.Node) {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil, nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == name {
			return node.Content[i], node.Content[i+1]
		}
	}
	return nil, nil
}

func lastLine(node *yaml.Node) int {
	for len(node.Content) > 0 {
		node = node.Content[len(node.Content)-1]
	}
	return node.Line
}

// put replaces the lines of key in parent or inserts them after the last child.
// Nil parent means the end of the document.
func put(src []byte, parent *yaml.Node, key string, value any) ([]byte, error) {
	var text []byte
	if value != nil {
		b, err := Encode(map[string]any{key: value}, 2)
		if err != nil {
			return nil, err
		}
		text = b
	}

	if parent == nil {
		return splice(src, len(src), len(src), text), nil
	}

	if k, v := findChild(parent, key); k != nil {
		i0 := lineStart(src, k.Line)
		i1 := lineStart(src, lastLine(v)+1)
		return splice(src, i0, i1, indent(text, k.Column-1)), nil
	}

	column := parent.Column
	if len(parent.Content) > 0 {
		column = parent.Content[0].Column
	}

	i := lineStart(src, lastLine(parent)+1)
	return splice(src, i, i, indent(text, column-1)), nil
}

// splice replaces src[i0:i1] with text, line breaks are kept
func splice(src []byte, i0, i1 int, text []byte) []byte {
	dst := make([]byte, 0, len(src)+len(text)+1)
	dst = append(dst, src[:i0]...)
	if len(text) > 0 && i0 > 0 && dst[i0-1] != '\n' {
		dst = append(dst, '\n')
	}
	dst = append(dst, text...)
	return append(dst, src[i1:]...)
}

// lineStart returns the offset of the line (1-based) or len(b)
func lineStart(b []byte, line int) int {
	var offset int
	for l := 1; l < line; l++ {
		i := bytes.IndexByte(b[offset:], '\n')
		if i < 0 {
			return len(b)
		}
		offset += i + 1
	}
	return offset
}

func indent(text []byte, n int) []byte {
	if n <= 0 || len(text) == 0 {
		return text
	}

	pre := bytes.Repeat([]byte{' '}, n)

	var dst []byte
	for _, line := range bytes.SplitAfter(text, []byte{'\n'}) {
		if len(line) > 0 {
			dst = append(dst, pre...)
			dst = append(dst, line...)
		}
	}
	return dst
}
