package config

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/hookflow/hookflow/domain/feature"
)

// Modifier is a post-processing transform chained onto an expression. The
// compiler checks its static typing; the host applies it per evaluation.
type Modifier interface {
	// ResultType maps the chain's current result type to the type after this
	// modifier runs.
	ResultType(in feature.ActiveType) feature.ActiveType

	// Apply transforms an evaluated feature.
	Apply(ctx *Context, f feature.Feature) feature.Feature
}

// ModifierLoader builds a modifier from its YAML value node, validating it
// against the expression's current result type.
type ModifierLoader func(cfg *Config, node *yaml.Node, in feature.ActiveType) (Modifier, error)

// Modifiers is the modifier name registry consumed by the compiler.
type Modifiers struct {
	m map[string]ModifierLoader
}

// NewModifiers creates an empty modifier registry.
func NewModifiers() *Modifiers {
	return &Modifiers{m: make(map[string]ModifierLoader)}
}

// Define registers a modifier loader under a name.
func (m *Modifiers) Define(name string, loader ModifierLoader) error {
	if name == "" {
		return errors.New("modifier name must not be empty")
	}
	if _, ok := m.m[name]; ok {
		return fmt.Errorf("modifier %q already defined", name)
	}
	m.m[name] = loader
	return nil
}

// Load resolves a modifier node, which must be a mapping whose first
// recognized key names a registered modifier, and builds the modifier
// against the expression's current result type.
func (m *Modifiers) Load(cfg *Config, node *yaml.Node, in feature.ActiveType) (Modifier, error) {
	node = deref(node)
	if node == nil || node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("modifier at line %d is not an object as required", nodeLine(node))
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		name, _, err := parseArg(keyNode.Value)
		if err != nil {
			return nil, err
		}
		loader, ok := m.m[name]
		if !ok {
			continue
		}
		mod, err := loader(cfg, valNode, in)
		if err != nil {
			return nil, fmt.Errorf("while loading modifier %q at line %d: %w", name, keyNode.Line, err)
		}
		return mod, nil
	}
	return nil, fmt.Errorf("modifier at line %d has no recognized name", node.Line)
}

func nodeLine(node *yaml.Node) int {
	if node == nil {
		return 0
	}
	return node.Line
}
