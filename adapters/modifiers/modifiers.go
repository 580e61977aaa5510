// Package modifiers provides the built-in modifier set: post-processing
// transforms chained onto feature expressions and type checked at compile
// time.
package modifiers

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hookflow/hookflow/config"
	"github.com/hookflow/hookflow/domain/feature"
)

// Register defines every built-in modifier on the registry.
func Register(reg *config.Modifiers) error {
	builtins := map[string]config.ModifierLoader{
		"as-integer": loadAsInteger,
		"else":       loadElse,
		"match":      loadMatch,
	}
	for name, loader := range builtins {
		if err := reg.Define(name, loader); err != nil {
			return err
		}
	}
	return nil
}

// AsInteger coerces a string or integer feature to an integer, with an
// optional default when coercion fails.
type AsInteger struct {
	Default    feature.Feature
	HasDefault bool
}

// ResultType implements config.Modifier: the chain becomes integer typed,
// or integer-or-nil without a default.
func (m AsInteger) ResultType(feature.ActiveType) feature.ActiveType {
	if m.HasDefault {
		return feature.NewType(feature.INTEGER)
	}
	return feature.NewType(feature.INTEGER | feature.NIL)
}

// Apply implements config.Modifier.
func (m AsInteger) Apply(_ *config.Context, f feature.Feature) feature.Feature {
	switch f.Kind() {
	case feature.INTEGER:
		return f
	case feature.STRING:
		if n, err := strconv.ParseInt(strings.TrimSpace(f.AsString()), 0, 64); err == nil {
			return feature.NewInteger(n)
		}
	}
	if m.HasDefault {
		return m.Default
	}
	return feature.Nil()
}

func loadAsInteger(cfg *config.Config, node *yaml.Node, in feature.ActiveType) (config.Modifier, error) {
	if !in.CanSatisfy(feature.STRING | feature.INTEGER | feature.TUPLE) {
		return nil, fmt.Errorf(`"as-integer" requires a string or integer feature, not %s`, in.Base)
	}
	mod := AsInteger{}
	if !isEmptyNode(node) {
		dflt, err := cfg.ParseExpr(node)
		if err != nil {
			return nil, fmt.Errorf(`while parsing "as-integer" default: %w`, err)
		}
		if !dflt.IsLiteral() || !dflt.ResultType().CanSatisfy(feature.INTEGER) {
			return nil, fmt.Errorf(`"as-integer" default must be an integer literal`)
		}
		mod.Default = dflt.Lit
		mod.HasDefault = true
	}
	return mod, nil
}

// Else supplies a fallback value when the chain produces nil.
type Else struct {
	Fallback config.Expr
	cfg      *config.Config
}

// ResultType implements config.Modifier: nil is replaced by the fallback's
// type.
func (m Else) ResultType(in feature.ActiveType) feature.ActiveType {
	out := in
	out.Base &^= feature.NIL
	return out.Union(m.Fallback.ResultType())
}

// Apply implements config.Modifier.
func (m Else) Apply(ctx *config.Context, f feature.Feature) feature.Feature {
	if f.Kind() == feature.NIL {
		return m.cfg.Extract(ctx, m.Fallback)
	}
	return f
}

func loadElse(cfg *config.Config, node *yaml.Node, in feature.ActiveType) (config.Modifier, error) {
	if !in.CanSatisfy(feature.NIL) {
		return nil, fmt.Errorf(`"else" requires a feature that can be nil, not %s`, in.Base)
	}
	fallback, err := cfg.ParseExpr(node)
	if err != nil {
		return nil, fmt.Errorf(`while parsing "else" fallback: %w`, err)
	}
	return Else{Fallback: fallback, cfg: cfg}, nil
}

// Match applies a regular expression to a string feature. A successful
// match activates the pattern's capture groups for expressions parsed later
// in the same directive; a failed match yields nil.
type Match struct {
	Pattern *regexp.Regexp
}

// ResultType implements config.Modifier.
func (m Match) ResultType(in feature.ActiveType) feature.ActiveType {
	out := in
	out.Base |= feature.NIL
	out.Const = false
	return out
}

// Apply implements config.Modifier. On a match the context's capture slots
// are replaced with this pattern's groups.
func (m Match) Apply(ctx *config.Context, f feature.Feature) feature.Feature {
	if f.Kind() != feature.STRING {
		return feature.Nil()
	}
	groups := m.Pattern.FindStringSubmatch(f.AsString())
	if groups == nil {
		return feature.Nil()
	}
	ctx.Captures = groups
	return f
}

func loadMatch(cfg *config.Config, node *yaml.Node, in feature.ActiveType) (config.Modifier, error) {
	if !in.CanSatisfy(feature.STRING) {
		return nil, fmt.Errorf(`"match" requires a string feature, not %s`, in.Base)
	}
	if node == nil || node.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf(`"match" requires a pattern string`)
	}
	re, err := regexp.Compile(node.Value)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q at line %d: %w", node.Value, node.Line, err)
	}
	// Group 0 is the whole match; expressions parsed after this point may
	// reference groups [0, NumSubexp].
	cfg.SetActiveCapture(re.NumSubexp()+1, node.Line)
	return Match{Pattern: re}, nil
}

func isEmptyNode(node *yaml.Node) bool {
	return node == nil || (node.Kind == yaml.ScalarNode && node.Tag == "!!null")
}
