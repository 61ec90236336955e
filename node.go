package texfmt

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Node is a generic attributed tree element. Layout documents are decoded
// into nodes before layouts are built from them, so any markup that maps to
// tags, attributes and children can describe layouts.
type Node struct {
	Name     string
	Attrs    map[string]string
	Children []*Node
}

// Attr returns the named attribute and whether it is present.
func (n *Node) Attr(name string) (string, bool) {
	v, ok := n.Attrs[name]
	return v, ok
}

// childrenKey holds child nodes in the YAML dialect.
const childrenKey = "children"

// ParseXML decodes an XML document into its root node. Element text and
// comments are ignored.
func ParseXML(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	var stack []*Node
	var root *Node
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrConfiguration, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Name: t.Name.Local, Attrs: make(map[string]string, len(t.Attr))}
			for _, a := range t.Attr {
				n.Attrs[a.Name.Local] = a.Value
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("%w: multiple root elements", ErrConfiguration)
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		}
	}
	if root == nil {
		return nil, fmt.Errorf("%w: empty document", ErrConfiguration)
	}
	return root, nil
}

// ParseYAML decodes a YAML document into its root node. Every node is a
// mapping with a single key, the tag name, whose value holds scalar
// attributes and an optional "children" sequence:
//
//	export:
//	  structure: positional
//	  children:
//	    - header:
//	        width: 10
//	        children:
//	          - fixed: {value: AB, fill: "-", position: 1, width: 5}
func ParseYAML(r io.Reader) (*Node, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrConfiguration)
		}
		return nil, fmt.Errorf("%w: %s", ErrConfiguration, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 {
		return nil, fmt.Errorf("%w: empty document", ErrConfiguration)
	}
	return yamlNode(doc.Content[0])
}

func yamlNode(y *yaml.Node) (*Node, error) {
	if y.Kind != yaml.MappingNode || len(y.Content) != 2 {
		return nil, fmt.Errorf("%w: line %d: node must be a mapping with a single tag", ErrConfiguration, y.Line)
	}
	tag, body := y.Content[0], y.Content[1]
	n := &Node{Name: tag.Value, Attrs: map[string]string{}}
	switch body.Kind {
	case yaml.ScalarNode:
		// "counter:" with no attributes decodes as a null scalar.
		if body.Tag != "!!null" {
			return nil, fmt.Errorf("%w: line %d: tag %q must hold a mapping", ErrConfiguration, body.Line, n.Name)
		}
		return n, nil
	case yaml.MappingNode:
	default:
		return nil, fmt.Errorf("%w: line %d: tag %q must hold a mapping", ErrConfiguration, body.Line, n.Name)
	}
	for i := 0; i+1 < len(body.Content); i += 2 {
		key, val := body.Content[i], body.Content[i+1]
		if key.Value == childrenKey {
			if val.Kind != yaml.SequenceNode {
				return nil, fmt.Errorf("%w: line %d: %q must be a sequence", ErrConfiguration, val.Line, childrenKey)
			}
			for _, c := range val.Content {
				child, err := yamlNode(c)
				if err != nil {
					return nil, err
				}
				n.Children = append(n.Children, child)
			}
			continue
		}
		if val.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%w: line %d: attribute %q must be a scalar", ErrConfiguration, val.Line, key.Value)
		}
		n.Attrs[key.Value] = val.Value
	}
	return n, nil
}

// ReadLayoutFile reads a layout document from fs, choosing the decoder by
// file extension (.xml, .yaml or .yml).
func ReadLayoutFile(fs afero.Fs, path string) (*Node, error) {
	var parse func(io.Reader) (*Node, error)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		parse = ParseXML
	case ".yaml", ".yml":
		parse = ParseYAML
	default:
		return nil, fmt.Errorf("%w: unsupported layout file %q", ErrConfiguration, path)
	}
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	root, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return root, nil
}
