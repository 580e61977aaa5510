package config

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/hookflow/hookflow/domain/hook"
)

// Directive is a compiled action or conditional node attached to one or
// more pipeline stages. The host runtime walks these per request; the
// compiler only builds and types them.
type Directive interface {
	Invoke(ctx *Context) error
}

// InstanceLoader builds a directive instance from configuration.
// node is the full directive mapping, name the key that matched the factory
// (argument stripped), arg its bracketed argument, and keyValue the value of
// the matched key.
type InstanceLoader func(cfg *Config, rtti *CfgInfo, node *yaml.Node, name, arg string, keyValue *yaml.Node) (Directive, error)

// TypeInitializer runs once per Config the first time a directive type is
// used, typically to set up shared per-type storage.
type TypeInitializer func(cfg *Config, rtti *CfgInfo) error

// FactoryInfo is the static, process wide record for a directive type.
type FactoryInfo struct {
	Name     string
	Idx      int
	Hooks    hook.Mask
	Load     InstanceLoader
	TypeInit TypeInitializer
}

// CfgInfo is the per-Config record for a directive type. Every instance of
// the type compiled into the configuration shares it.
type CfgInfo struct {
	Static *FactoryInfo
	// Count is the number of instances loaded into this configuration.
	Count int
	// Store is shared per-type storage a TypeInitializer may set up.
	Store any
}

// Factory is the directive type registry. It is populated during process
// startup and seals when the first Config is built against it, so
// registration order hazards cannot leak into configuration loading.
type Factory struct {
	entries map[string]*FactoryInfo
	ordered []*FactoryInfo
	sealed  bool
}

// NewFactory creates a directive registry with the built-in "when"
// directive already defined.
func NewFactory() *Factory {
	f := &Factory{entries: make(map[string]*FactoryInfo)}
	if err := f.Define(WhenKey, hook.AllMask, loadWhen, nil); err != nil {
		panic(err) // fresh factory, cannot collide
	}
	return f
}

// Define registers a directive type under a name, assigning it the next
// sequential index. Duplicate names and registration after the factory has
// sealed are rejected.
func (f *Factory) Define(name string, hooks hook.Mask, load InstanceLoader, typeInit TypeInitializer) error {
	if f.sealed {
		return fmt.Errorf("directive %q registered after the factory sealed", name)
	}
	if name == "" {
		return errors.New("directive name must not be empty")
	}
	if _, ok := f.entries[name]; ok {
		return fmt.Errorf("directive %q already defined", name)
	}
	info := &FactoryInfo{
		Name:     name,
		Idx:      len(f.ordered),
		Hooks:    hooks,
		Load:     load,
		TypeInit: typeInit,
	}
	f.entries[name] = info
	f.ordered = append(f.ordered, info)
	return nil
}

// Size returns the number of registered directive types.
func (f *Factory) Size() int { return len(f.ordered) }

func (f *Factory) find(name string) *FactoryInfo { return f.entries[name] }

func (f *Factory) seal() { f.sealed = true }

// ActiveFeatureRef reports whether an expression parsed during the current
// directive load referenced live request context. Directive loaders use it
// to tell a once-evaluable expression from a per-request one.
func (c *Config) ActiveFeatureRef() bool { return c.activeFeature.refP }

// loadDirective resolves a directive mapping against the factory. Keys are
// scanned in document order; the first key registered in the factory
// selects the type. Unrecognized keys are legal so directives can carry
// extra annotation keys.
func (c *Config) loadDirective(node *yaml.Node) (Directive, error) {
	node = deref(node)
	if node == nil || node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("directive at line %d is not an object as required", nodeLine(node))
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		name, arg, err := parseArg(keyNode.Value)
		if err != nil {
			return nil, err
		}
		if name == DoKey {
			continue
		}
		info := c.factory.find(name)
		if info == nil {
			continue
		}
		return c.invokeLoader(info, node, name, arg, valNode)
	}
	return nil, fmt.Errorf("directive at line %d has no recognized tag", node.Line)
}

// invokeLoader runs a resolved directive type's loader with the per-type
// bookkeeping around it: the hook mask check, the one-time type
// initializer, the instance count, and save/restore of the per-directive
// load state. Every path that loads a directive goes through here.
func (c *Config) invokeLoader(info *FactoryInfo, node *yaml.Node, name, arg string, keyValue *yaml.Node) (Directive, error) {
	if !info.Hooks.Has(c.hook) {
		return nil, fmt.Errorf("directive %q at line %d is not allowed on hook %q", name, node.Line, c.hook.String())
	}

	rtti := &c.drtvInfo[info.Idx]
	prevRtti, prevFeature := c.rtti, c.activeFeature
	prevCapture := c.activeCapture
	c.rtti = rtti
	c.activeFeature = activeFeature{}

	// First use of the type in this configuration.
	if rtti.Count == 0 && info.TypeInit != nil {
		if err := info.TypeInit(c, rtti); err != nil {
			c.rtti, c.activeFeature, c.activeCapture = prevRtti, prevFeature, prevCapture
			return nil, fmt.Errorf("while initializing directive type %q: %w", name, err)
		}
	}
	rtti.Count++

	drtv, err := info.Load(c, rtti, node, name, arg, keyValue)
	c.rtti, c.activeFeature, c.activeCapture = prevRtti, prevFeature, prevCapture
	if err != nil {
		return nil, fmt.Errorf("while parsing directive at line %d: %w", node.Line, err)
	}
	return drtv, nil
}

// ParseDirective compiles a node of any legal shape into a directive tree:
// a mapping is a single directive, a sequence an ordered list, and a null
// node the no-op directive.
func (c *Config) ParseDirective(node *yaml.Node) (Directive, error) {
	node = deref(node)
	switch {
	case node != nil && node.Kind == yaml.MappingNode:
		return c.loadDirective(node)
	case node != nil && node.Kind == yaml.SequenceNode:
		list := &DirectiveList{}
		for _, child := range node.Content {
			drtv, err := c.loadDirective(child)
			if err != nil {
				return nil, fmt.Errorf("while loading directives at line %d: %w", node.Line, err)
			}
			list.Append(drtv)
		}
		return list, nil
	case isNull(node):
		return NilDirective{}, nil
	}
	return nil, fmt.Errorf("directive at line %d is not an object or a sequence as required", node.Line)
}

// NilDirective does nothing. It stands in where a directive is omitted, so
// the tree never needs nil checks.
type NilDirective struct{}

// Invoke implements Directive.
func (NilDirective) Invoke(*Context) error { return nil }

// DirectiveList is an ordered sequence of directives with no action of its
// own.
type DirectiveList struct {
	directives []Directive
}

// Append adds a directive to the end of the list.
func (l *DirectiveList) Append(d Directive) { l.directives = append(l.directives, d) }

// Directives returns the ordered members.
func (l *DirectiveList) Directives() []Directive { return l.directives }

// Invoke runs the members in order, stopping at the first error.
func (l *DirectiveList) Invoke(ctx *Context) error {
	for _, d := range l.directives {
		if err := d.Invoke(ctx); err != nil {
			return err
		}
	}
	return nil
}

// WhenKey is the YAML key of the when directive.
const WhenKey = "when"

// When pairs a target hook with the directive to run there. Top level
// configuration is a list of when directives; the loader unpacks them into
// per hook root lists.
type When struct {
	hook      hook.Hook
	directive Directive
}

// Hook returns the stage the body runs on.
func (w *When) Hook() hook.Hook { return w.hook }

// Directive returns the body.
func (w *When) Directive() Directive { return w.directive }

// Invoke runs the body if the context has reached the target hook.
func (w *When) Invoke(ctx *Context) error {
	if ctx.Hook == w.hook {
		return w.directive.Invoke(ctx)
	}
	return nil
}

// loadWhen builds a when directive: the key value names the hook, the "do"
// key holds the body. The body compiles with the target hook active so
// nested directives are checked against the right stage.
func loadWhen(cfg *Config, _ *CfgInfo, node *yaml.Node, name, _ string, keyValue *yaml.Node) (Directive, error) {
	keyValue = deref(keyValue)
	if keyValue == nil || keyValue.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("value for %q key at line %d must be a hook name", name, nodeLine(keyValue))
	}
	hk := hook.Lookup(keyValue.Value)
	if !hk.Valid() {
		return nil, fmt.Errorf("invalid hook name %q at line %d for %q directive", keyValue.Value, keyValue.Line, name)
	}

	restore := cfg.letHook(hk)
	defer restore()

	body, err := cfg.ParseDirective(mapChild(node, DoKey))
	if err != nil {
		return nil, fmt.Errorf("while parsing body of %q directive at line %d: %w", name, node.Line, err)
	}
	return &When{hook: hk, directive: body}, nil
}
