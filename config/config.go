// Package config compiles declarative YAML rule documents into executable
// trees of typed expressions and directives for a proxying host.
//
// Compilation is a single threaded, single pass walk over the YAML node
// tree. A Config instance owns the interning arena, the per-type directive
// records, and the transient parse state (active hook, active regex capture
// context). Once ParseYAML returns, the compiled tree is immutable and safe
// for unsynchronized concurrent reads by request evaluation.
package config

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hookflow/hookflow/domain/feature"
	"github.com/hookflow/hookflow/domain/hook"
	"github.com/hookflow/hookflow/pkg/arena"
)

const (
	argPrefix = '<'
	argSuffix = '>'

	// DoKey is the reserved key for a directive body; it never selects a
	// directive type on its own.
	DoKey = "do"

	// RootPath is the key path marker meaning "use the document root".
	RootPath = "."

	// LiteralTag marks a scalar whose text bypasses all expression
	// interpretation.
	LiteralTag = "!literal"
)

// activeCapture tracks the most recently compiled regular expression during
// parsing: how many capture groups it has and the line it was defined on.
type activeCapture struct {
	count int
	line  int
}

// activeFeature tracks properties of the innermost feature expression being
// parsed, currently whether it references live request context.
type activeFeature struct {
	refP bool
}

// Config is a single configuration compile: the compiler instance during
// ParseYAML and the immutable compiled tree afterwards. A Config must not be
// shared between concurrently running compiles; independent configurations
// (separate remap rules, say) each get their own instance and arena.
type Config struct {
	id uuid.UUID

	factory    *Factory
	extractors *Extractors
	modifiers  *Modifiers
	arena      *arena.Arena

	// Per-instance directive type records, indexed by factory index.
	drtvInfo []CfgInfo

	// Root directives per hook, filled by the top level loaders.
	roots [hook.Count][]Directive

	// Parse time state.
	hook          hook.Hook
	activeCapture activeCapture
	activeFeature activeFeature
	rtti          *CfgInfo

	hasTopLevel bool
	finalizers  []func()
	closed      bool
}

// New creates a compiler instance bound to the given registries. The factory
// is sealed by the first Config built against it; directive types must be
// registered before any configuration compiles.
func New(factory *Factory, extractors *Extractors, modifiers *Modifiers) *Config {
	factory.seal()
	c := &Config{
		id:         uuid.New(),
		factory:    factory,
		extractors: extractors,
		modifiers:  modifiers,
		arena:      arena.New(),
		hook:       hook.PostLoad,
		drtvInfo:   make([]CfgInfo, factory.Size()),
	}
	for _, info := range factory.ordered {
		c.drtvInfo[info.Idx].Static = info
	}
	return c
}

// ID returns the unique identity of this configuration instance.
func (c *Config) ID() uuid.UUID { return c.id }

// Localize copies text into storage owned by this configuration.
// Every string that outlives the source YAML buffer must pass through here.
func (c *Config) Localize(text string) string { return c.arena.Localize(text) }

// LocalizeFeature interns every string-bearing variant of a feature.
func (c *Config) LocalizeFeature(f feature.Feature) feature.Feature {
	return f.Localize(c.arena.Localize)
}

// Arena exposes the interning arena, mainly for introspection and tests.
func (c *Config) Arena() *arena.Arena { return c.arena }

// CurrentHook returns the hook the compiler is loading directives for.
func (c *Config) CurrentHook() hook.Hook { return c.hook }

// letHook sets the active hook and returns a restore function, so callers
// can scope the change to one subtree.
func (c *Config) letHook(h hook.Hook) func() {
	prev := c.hook
	c.hook = h
	return func() { c.hook = prev }
}

// SetActiveCapture records the capture group count and defining line of the
// most recently compiled regular expression. Expressions parsed afterwards
// may reference groups [0, count). Returns a restore function so directive
// loaders can scope the pattern to their own subtree.
func (c *Config) SetActiveCapture(count, line int) func() {
	prev := c.activeCapture
	c.activeCapture = activeCapture{count: count, line: line}
	return func() { c.activeCapture = prev }
}

// ActiveCaptureCount returns the capture group count of the active pattern,
// zero when no pattern is active.
func (c *Config) ActiveCaptureCount() int { return c.activeCapture.count }

// DrtvInfo returns the per-instance record for a directive type, or nil if
// the name is not registered.
func (c *Config) DrtvInfo(name string) *CfgInfo {
	info := c.factory.find(name)
	if info == nil {
		return nil
	}
	return &c.drtvInfo[info.Idx]
}

// Roots returns the root directives attached to a hook.
func (c *Config) Roots(h hook.Hook) []Directive {
	if !h.Valid() {
		return nil
	}
	return c.roots[h]
}

// HasTopLevelDirective reports whether any non-post-load top level directive
// was registered. The host uses this to decide whether to subscribe to stage
// callbacks at all.
func (c *Config) HasTopLevelDirective() bool { return c.hasTopLevel }

// OnFinalize registers a cleanup callback run when the configuration is
// closed. Directive and extractor implementations use this for late cleanup
// that must outlive the parse but not the configuration.
func (c *Config) OnFinalize(f func()) {
	c.finalizers = append(c.finalizers, f)
}

// Close releases the configuration, invoking finalizers in registration
// order. Close is idempotent.
func (c *Config) Close() {
	if c.closed {
		return
	}
	c.closed = true
	for _, f := range c.finalizers {
		f()
	}
	c.finalizers = nil
}

// DirectiveCounts reports how many instances of each directive type were
// loaded, keyed by directive name. Types never used are omitted.
func (c *Config) DirectiveCounts() map[string]int {
	counts := make(map[string]int)
	for i := range c.drtvInfo {
		di := &c.drtvInfo[i]
		if di.Count > 0 && di.Static != nil {
			counts[di.Static.Name] = di.Count
		}
	}
	return counts
}

// parseArg splits a "name<arg>" key into its name and bracketed argument.
// A key without an argument is returned unchanged with an empty argument.
// A malformed bracket (missing terminator) is a hard parse error.
func parseArg(key string) (name, arg string, err error) {
	i := strings.IndexByte(key, argPrefix)
	if i < 0 {
		return key, "", nil
	}
	name = key[:i]
	rest := key[i+1:]
	if rest == "" || rest[len(rest)-1] != argSuffix {
		return "", "", fmt.Errorf("argument for %q is not properly terminated with %q", name, string(argSuffix))
	}
	return name, rest[:len(rest)-1], nil
}
