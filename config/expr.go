package config

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hookflow/hookflow/domain/feature"
)

// ExprKind discriminates the compiled expression variants.
type ExprKind uint8

const (
	// ExprNone is the zero value; it never appears in a compiled tree.
	ExprNone ExprKind = iota
	// ExprLiteral is a constant feature embedded at compile time.
	ExprLiteral
	// ExprDirect is a single extractor or capture group reference resolved
	// per request.
	ExprDirect
	// ExprComposite is a format style sequence of literal runs and
	// references producing a string.
	ExprComposite
	// ExprList is a typed tuple of sub-expressions.
	ExprList
)

// Expr is a compiled expression node. It is owned exclusively by the
// directive that embeds it and never mutated after construction.
type Expr struct {
	Kind ExprKind

	Lit   feature.Feature // ExprLiteral
	Spec  Spec            // ExprDirect
	Specs []Spec          // ExprComposite
	Elems []Expr          // ExprList

	// MaxArgIdx is the largest capture group referenced, -1 if none.
	MaxArgIdx int
	// CtxRef reports whether evaluation touches live request context.
	CtxRef bool
	// Mods is the ordered post-processing chain.
	Mods []Modifier

	rtype feature.ActiveType
}

// ResultType returns the statically inferred result type, accounting for
// the modifier chain.
func (e *Expr) ResultType() feature.ActiveType { return e.rtype }

// IsLiteral reports whether the expression is a compile time constant.
func (e *Expr) IsLiteral() bool { return e.Kind == ExprLiteral }

func literalExpr(f feature.Feature) Expr {
	return Expr{Kind: ExprLiteral, Lit: f, MaxArgIdx: -1, rtype: f.Type()}
}

func nilExpr() Expr { return literalExpr(feature.Nil()) }

// ParseExpr compiles a YAML node into a typed expression. This is the top
// level dispatcher over node shape and tag.
func (c *Config) ParseExpr(node *yaml.Node) (Expr, error) {
	node = deref(node)
	if isNull(node) {
		return nilExpr(), nil
	}

	tag := node.Tag
	if strings.EqualFold(tag, LiteralTag) {
		// Explicit literal: no further interpretation of any kind.
		if node.Kind != yaml.ScalarNode {
			return Expr{}, fmt.Errorf("%q tag used on value at line %d which is not a string as required for a literal", LiteralTag, node.Line)
		}
		return literalExpr(feature.NewString(c.Localize(node.Value))), nil
	}
	if !supportedTag(tag) {
		return Expr{}, fmt.Errorf("%q tag for feature expression at line %d is not supported", tag, node.Line)
	}

	if node.Kind == yaml.ScalarNode {
		return c.parseScalarExpr(node)
	}
	if node.Kind != yaml.SequenceNode {
		return Expr{}, fmt.Errorf("feature expression at line %d is not properly structured", node.Line)
	}

	switch {
	case len(node.Content) == 0:
		return nilExpr(), nil
	case len(node.Content) == 1:
		return c.parseScalarExpr(deref(node.Content[0]))
	case deref(node.Content[1]).Kind == yaml.MappingNode:
		return c.parseExprWithMods(node)
	}

	// A tuple: every element is itself an expression.
	var types feature.Mask
	elems := make([]Expr, 0, len(node.Content))
	for _, child := range node.Content {
		e, err := c.ParseExpr(child)
		if err != nil {
			return Expr{}, fmt.Errorf("while parsing feature expression list at line %d: %w", node.Line, err)
		}
		types |= e.ResultType().Base
		elems = append(elems, e)
	}
	return Expr{
		Kind:      ExprList,
		Elems:     elems,
		MaxArgIdx: -1,
		rtype:     feature.TupleOf(types),
	}, nil
}

// parseScalarExpr dispatches a scalar on its quoting and applies the cross
// cutting capture group and context reference checks.
func (c *Config) parseScalarExpr(node *yaml.Node) (Expr, error) {
	if isNull(node) {
		return nilExpr(), nil
	}
	if node.Kind != yaml.ScalarNode {
		return Expr{}, fmt.Errorf("feature expression at line %d is not properly structured", node.Line)
	}

	var expr Expr
	var err error
	if isPlain(node) {
		expr, err = c.parseUnquotedExpr(node)
	} else {
		expr, err = c.parseCompositeExpr(node)
	}
	if err != nil {
		return Expr{}, err
	}

	if expr.MaxArgIdx >= 0 {
		if c.activeCapture.count == 0 {
			return Expr{}, fmt.Errorf("regular expression capture group used at line %d but no regular expression is active", node.Line)
		}
		if expr.MaxArgIdx >= c.activeCapture.count {
			return Expr{}, fmt.Errorf(
				"regular expression capture group %d used at line %d but the maximum capture group is %d in the active regular expression from line %d",
				expr.MaxArgIdx, node.Line, c.activeCapture.count-1, c.activeCapture.line)
		}
	}

	if expr.CtxRef {
		c.activeFeature.refP = true
	}
	return expr, nil
}

// parseUnquotedExpr handles a plain scalar: integer, boolean, and IP
// address literals are tried in that order, then the text must be a single
// extractor specifier. Compile time constant extractors are evaluated
// immediately so they never appear unresolved in the compiled tree.
func (c *Config) parseUnquotedExpr(node *yaml.Node) (Expr, error) {
	text := node.Value

	if n, err := strconv.ParseInt(text, 0, 64); err == nil {
		return literalExpr(feature.NewInteger(n)), nil
	}
	if b, ok := feature.LookupBool(text); ok {
		return literalExpr(feature.NewBoolean(b)), nil
	}
	if addr, err := netip.ParseAddr(text); err == nil {
		return literalExpr(feature.NewAddress(addr)), nil
	}

	var spec Spec
	if !spec.Parse(text) {
		return Expr{}, fmt.Errorf("invalid syntax for extractor %q at line %d - not a valid specifier", text, node.Line)
	}
	vt, err := c.validateSpec(&spec)
	if err != nil {
		return Expr{}, fmt.Errorf("while parsing extractor %q at line %d: %w", text, node.Line, err)
	}

	if vt.IsCfgConst() {
		return literalExpr(c.LocalizeFeature(spec.Ext.Extract(c, &spec))), nil
	}

	return Expr{
		Kind:      ExprDirect,
		Spec:      spec,
		MaxArgIdx: spec.Idx,
		CtxRef:    spec.Ext.HasCtxRef(),
		rtype:     vt,
	}, nil
}

// parseCompositeExpr tokenizes a quoted scalar as a format string of
// literal runs and {name} / {name<arg>} / {N} specifiers.
func (c *Config) parseCompositeExpr(node *yaml.Node) (Expr, error) {
	text := node.Value

	var specs []Spec
	var singleVT feature.ActiveType
	rest := text
	for len(rest) > 0 {
		lit, specText, haveSpec, tail, err := nextFormatToken(rest)
		if err != nil {
			return Expr{}, fmt.Errorf("%w at line %d", err, node.Line)
		}
		if lit != "" {
			specs = append(specs, Spec{Kind: SpecLiteral, Idx: -1, Text: c.Localize(lit)})
		}
		if haveSpec {
			var spec Spec
			if !spec.Parse(specText) {
				return Expr{}, fmt.Errorf("invalid syntax for specifier %q at line %d", specText, node.Line)
			}
			if spec.Idx >= 0 {
				// Capture group references are always string typed; range
				// checking happens at the scalar level.
				specs = append(specs, spec)
			} else {
				vt, err := c.validateSpec(&spec)
				if err != nil {
					return Expr{}, fmt.Errorf("while parsing specifier at offset %d at line %d: %w",
						len(text)-len(rest), node.Line, err)
				}
				singleVT = vt
				specs = append(specs, spec)
			}
		}
		rest = tail
	}

	// A quoted empty string is just an empty string literal.
	if len(specs) == 0 {
		return literalExpr(feature.NewString("")), nil
	}

	// Singleton: return the bare specifier rather than a one element
	// composite, so later modifier attachment lands on the real node.
	if len(specs) == 1 {
		s := specs[0]
		switch {
		case s.Ext != nil:
			return Expr{Kind: ExprDirect, Spec: s, MaxArgIdx: s.Idx, CtxRef: s.Ext.HasCtxRef(), rtype: singleVT}, nil
		case s.IsLiteral():
			return literalExpr(feature.NewString(s.Text)), nil
		default: // lone capture group reference
			return Expr{Kind: ExprDirect, Spec: s, MaxArgIdx: s.Idx, rtype: feature.NewType(feature.STRING)}, nil
		}
	}

	expr := Expr{Kind: ExprComposite, Specs: specs, MaxArgIdx: -1, rtype: feature.NewType(feature.STRING)}
	for i := range specs {
		if specs[i].Idx > expr.MaxArgIdx {
			expr.MaxArgIdx = specs[i].Idx
		}
		if specs[i].Ext != nil && specs[i].Ext.HasCtxRef() {
			expr.CtxRef = true
		}
	}
	return expr, nil
}

// parseExprWithMods compiles a base expression followed by an ordered chain
// of modifiers, each validated against the running result type. A modifier
// may change the chain's result type.
func (c *Config) parseExprWithMods(node *yaml.Node) (Expr, error) {
	expr, err := c.ParseExpr(node.Content[0])
	if err != nil {
		return Expr{}, fmt.Errorf("while processing the expression at line %d: %w", node.Line, err)
	}

	for _, child := range node.Content[1:] {
		mod, err := c.modifiers.Load(c, child, expr.ResultType())
		if err != nil {
			return Expr{}, fmt.Errorf("while parsing feature expression at line %d: %w", child.Line, err)
		}
		expr.rtype = mod.ResultType(expr.rtype)
		expr.Mods = append(expr.Mods, mod)
	}
	return expr, nil
}

// nextFormatToken splits the leading literal run and the specifier that
// follows it off text. "{{" and "}}" escape literal braces; a specifier
// without its closing brace is a hard error.
func nextFormatToken(s string) (lit, spec string, haveSpec bool, rest string, err error) {
	var b strings.Builder
	i := 0
	for i < len(s) {
		switch s[i] {
		case '{':
			if i+1 < len(s) && s[i+1] == '{' {
				b.WriteByte('{')
				i += 2
				continue
			}
			end := strings.IndexByte(s[i+1:], '}')
			if end < 0 {
				return "", "", false, "", fmt.Errorf("specifier %q is missing its closing brace", s[i:])
			}
			return b.String(), strings.TrimSpace(s[i+1 : i+1+end]), true, s[i+2+end:], nil
		case '}':
			if i+1 < len(s) && s[i+1] == '}' {
				b.WriteByte('}')
				i += 2
				continue
			}
			b.WriteByte('}')
			i++
		default:
			b.WriteByte(s[i])
			i++
		}
	}
	return b.String(), "", false, "", nil
}
