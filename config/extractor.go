package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hookflow/hookflow/domain/feature"
)

// SpecKind discriminates literal text runs from extractor references inside
// a composite expression.
type SpecKind uint8

const (
	// SpecLiteral is a run of literal text.
	SpecLiteral SpecKind = iota
	// SpecExtractor is a reference to a named extractor or capture group.
	SpecExtractor
)

// Spec is a single occurrence of a feature reference in source text. It is
// created during parsing, validated once, and then frozen into an Expr.
type Spec struct {
	Kind SpecKind
	Name string // extractor name; empty for literals
	Arg  string // bracketed argument, if any
	Text string // literal run text for SpecLiteral
	Idx  int    // capture group index; negative for named extractors
	Ext  Extractor

	// Data is optional per-occurrence state an extractor's Validate may
	// attach for later evaluation.
	Data any
}

// Parse interprets text as a single specifier: a bare non-negative integer
// is a capture group reference, anything else names an extractor (with an
// optional bracketed argument resolved during validation). It reports
// whether the text is a syntactically plausible specifier.
func (s *Spec) Parse(text string) bool {
	s.Kind = SpecExtractor
	s.Idx = -1
	if n, err := strconv.Atoi(text); err == nil {
		if n < 0 {
			return false
		}
		s.Idx = n
		return true
	}
	if text == "" || strings.ContainsAny(text, "{} \t") {
		return false
	}
	s.Name = text
	return true
}

// IsLiteral reports whether the spec is a literal text run.
func (s *Spec) IsLiteral() bool { return s.Kind == SpecLiteral }

// Extractor is a named, registry-resolved producer of a runtime value.
// Implementations live outside the compiler; it only validates and, for
// compile time constants, evaluates them.
type Extractor interface {
	// Validate checks the specifier and argument, attaches any state to the
	// spec, and returns the extraction result type.
	Validate(cfg *Config, spec *Spec, arg string) (feature.ActiveType, error)

	// Extract produces the value. The compiler calls this only when Validate
	// declared the result a compile time constant.
	Extract(cfg *Config, spec *Spec) feature.Feature

	// HasCtxRef reports whether extraction references live request context.
	HasCtxRef() bool
}

// Extractors is the extractor name registry consumed by the compiler.
type Extractors struct {
	m map[string]Extractor
}

// NewExtractors creates an empty extractor registry.
func NewExtractors() *Extractors {
	return &Extractors{m: make(map[string]Extractor)}
}

// Define registers an extractor under a name. Duplicate names are rejected.
func (e *Extractors) Define(name string, ex Extractor) error {
	if name == "" {
		return errors.New("extractor name must not be empty")
	}
	if _, ok := e.m[name]; ok {
		return fmt.Errorf("extractor %q already defined", name)
	}
	e.m[name] = ex
	return nil
}

// Find resolves a name to an extractor, or nil.
func (e *Extractors) Find(name string) Extractor {
	return e.m[name]
}

// validateSpec resolves and validates a parsed specifier against the
// extractor registry. Capture group references are always string typed and
// need no registry lookup; their range check happens at the scalar
// expression level where the node position is known.
func (c *Config) validateSpec(spec *Spec) (feature.ActiveType, error) {
	if spec.Idx >= 0 {
		return feature.NewType(feature.STRING), nil
	}
	if spec.Name == "" {
		return feature.ActiveType{}, errors.New("extractor name required but not found")
	}

	name, arg, err := parseArg(spec.Name)
	if err != nil {
		return feature.ActiveType{}, err
	}
	ex := c.extractors.Find(name)
	if ex == nil {
		return feature.ActiveType{}, fmt.Errorf("extractor %q not found", name)
	}

	spec.Ext = ex
	spec.Name = c.Localize(name)
	spec.Arg = c.Localize(arg)

	at, err := ex.Validate(c, spec, arg)
	if err != nil {
		return feature.ActiveType{}, err
	}
	return at, nil
}
