// Package astyaml reads plan trees written as YAML. It stands in for the
// surface-syntax parser: each mapping names a node kind and optionally its
// text, position and children.
//
//	kind: Plan
//	children:
//	  - kind: Action
//	    text: Root
//	    children:
//	      - kind: Block
//	        text: Sequence
//
// Positions default to where the mapping appears in the YAML file.
package astyaml

import (
	"fmt"
	"io"
	"os"

	"github.com/chazu/plexc/compiler"

	"gopkg.in/yaml.v3"
)

// ---- Internal YAML parsing structs ----------------------------------------

// yamlNode mirrors compiler.Node with YAML tags. at records where the
// mapping was found so nodes without an explicit line still get one.
type yamlNode struct {
	Kind     string     `yaml:"kind"`
	Text     string     `yaml:"text,omitempty"`
	Line     int        `yaml:"line,omitempty"`
	Col      int        `yaml:"col,omitempty"`
	Children []yamlNode `yaml:"children,omitempty"`

	at compiler.Position
}

func (n *yamlNode) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping, got %s", value.Line, kindName(value.Kind))
	}
	type plain yamlNode
	if err := value.Decode((*plain)(n)); err != nil {
		return err
	}
	n.at = compiler.Position{Line: value.Line, Column: value.Column - 1}
	return nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "a sequence"
	case yaml.ScalarNode:
		return "a scalar"
	case yaml.AliasNode:
		return "an alias"
	}
	return fmt.Sprintf("kind %d", k)
}

// ---- Parse -----------------------------------------------------------------

// Parse decodes one plan tree.
func Parse(in []byte) (*compiler.Node, error) {
	var docNode yaml.Node
	if err := yaml.Unmarshal(in, &docNode); err != nil {
		return nil, err
	}
	if len(docNode.Content) == 0 {
		return nil, fmt.Errorf("phase=parse path=<doc>: empty YAML")
	}
	var root yamlNode
	if err := docNode.Content[0].Decode(&root); err != nil {
		return nil, err
	}
	return convert(root, "<root>")
}

// Read decodes a plan tree from r.
func Read(r io.Reader) (*compiler.Node, error) {
	in, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(in)
}

// ReadFile decodes the plan tree stored at path.
func ReadFile(path string) (*compiler.Node, error) {
	in, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	n, err := Parse(in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}

// ---- Convert: yaml types → compiler nodes ---------------------------------

func convert(y yamlNode, path string) (*compiler.Node, error) {
	kind, ok := compiler.ParseKind(y.Kind)
	if !ok {
		return nil, fmt.Errorf("phase=convert path=%s line=%d: unknown node kind %q", path, y.at.Line, y.Kind)
	}
	pos := y.at
	if y.Line > 0 {
		pos = compiler.Position{Line: y.Line, Column: y.Col}
	}
	n := compiler.NewNode(kind, y.Text, pos)
	for i, c := range y.Children {
		child, err := convert(c, fmt.Sprintf("%s/%s[%d]", path, y.Kind, i))
		if err != nil {
			return nil, err
		}
		n.Append(child)
	}
	return n, nil
}
