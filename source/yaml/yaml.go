// Package yaml converts YAML input into the protoform document tree.
// Aliases are resolved during conversion; non-scalar mapping keys are carried
// through with their original key node so the validation engine can flag
// them instead of the decoder guessing.
package yaml

import (
	"fmt"
	"strconv"
	"strings"

	y "gopkg.in/yaml.v3"

	protoform "github.com/protoform/protoform"
)

// Decode parses data and returns the document tree of the first document.
func Decode(data []byte) (protoform.Node, error) {
	var root y.Node
	if err := y.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}
	if root.Kind == 0 {
		// empty input
		return protoform.NewMapping(), nil
	}
	return convert(&root)
}

// DecodeMapping is Decode constrained to a top-level mapping, the shape every
// prototype file and serialized object uses.
func DecodeMapping(data []byte) (*protoform.Mapping, error) {
	n, err := Decode(data)
	if err != nil {
		return nil, err
	}
	m, ok := n.(*protoform.Mapping)
	if !ok {
		return nil, fmt.Errorf("yaml: expected top-level mapping, got %s", n.Kind())
	}
	return m, nil
}

func convert(n *y.Node) (protoform.Node, error) {
	switch n.Kind {
	case y.DocumentNode:
		if len(n.Content) == 0 {
			return protoform.NewMapping(), nil
		}
		return convert(n.Content[0])

	case y.AliasNode:
		return convert(n.Alias)

	case y.ScalarNode:
		return protoform.NewValue(n.Value), nil

	case y.SequenceNode:
		seq := protoform.NewSequence()
		for _, c := range n.Content {
			item, err := convert(c)
			if err != nil {
				return nil, err
			}
			seq.Append(item)
		}
		return seq, nil

	case y.MappingNode:
		m := protoform.NewMapping()
		for i := 0; i+1 < len(n.Content); i += 2 {
			kn, vn := n.Content[i], n.Content[i+1]
			val, err := convert(vn)
			if err != nil {
				return nil, err
			}
			e := protoform.MapEntry{Value: val}
			if kn.Kind == y.ScalarNode {
				e.Key = kn.Value
			} else {
				// Complex key: keep a rendered form for lookup and the
				// converted key node for the validation engine.
				key, err := convert(kn)
				if err != nil {
					return nil, err
				}
				e.Key = renderKey(key, i/2)
				e.KeyNode = key
			}
			m.SetEntry(e)
		}
		return m, nil
	}
	return nil, fmt.Errorf("yaml: unsupported node kind %d at line %d", n.Kind, n.Line)
}

// renderKey produces a stable synthetic key string for a non-scalar key.
func renderKey(n protoform.Node, pos int) string {
	var b strings.Builder
	b.WriteString("?")
	b.WriteString(strconv.Itoa(pos))
	b.WriteString(":")
	writeCompact(&b, n)
	return b.String()
}

func writeCompact(b *strings.Builder, n protoform.Node) {
	switch t := n.(type) {
	case *protoform.Value:
		b.WriteString(t.Raw)
	case *protoform.Sequence:
		b.WriteString("[")
		for i, it := range t.Items {
			if i > 0 {
				b.WriteString(",")
			}
			writeCompact(b, it)
		}
		b.WriteString("]")
	case *protoform.Mapping:
		b.WriteString("{")
		for i, e := range t.Entries() {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(e.Key)
			b.WriteString(":")
			writeCompact(b, e.Value)
		}
		b.WriteString("}")
	}
}

// Encode renders a document tree back to YAML text. Mapping entry order is
// preserved.
func Encode(n protoform.Node) ([]byte, error) {
	yn, err := toYAML(n)
	if err != nil {
		return nil, err
	}
	return y.Marshal(yn)
}

func toYAML(n protoform.Node) (*y.Node, error) {
	switch t := n.(type) {
	case *protoform.Value:
		return &y.Node{Kind: y.ScalarNode, Value: t.Raw}, nil
	case *protoform.Sequence:
		out := &y.Node{Kind: y.SequenceNode}
		for _, it := range t.Items {
			c, err := toYAML(it)
			if err != nil {
				return nil, err
			}
			out.Content = append(out.Content, c)
		}
		return out, nil
	case *protoform.Mapping:
		out := &y.Node{Kind: y.MappingNode}
		for _, e := range t.Entries() {
			var kn *y.Node
			if e.KeyNode != nil {
				var err error
				if kn, err = toYAML(e.KeyNode); err != nil {
					return nil, err
				}
			} else {
				kn = &y.Node{Kind: y.ScalarNode, Value: e.Key}
			}
			vn, err := toYAML(e.Value)
			if err != nil {
				return nil, err
			}
			out.Content = append(out.Content, kn, vn)
		}
		return out, nil
	}
	return nil, fmt.Errorf("yaml: nil node")
}
