// Package bootstrap wires the built-in directive, extractor, and modifier
// registries and provides the standard compile entry points.
package bootstrap

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/hookflow/hookflow/adapters/directives"
	"github.com/hookflow/hookflow/adapters/extractors"
	"github.com/hookflow/hookflow/adapters/modifiers"
	"github.com/hookflow/hookflow/config"
	"github.com/hookflow/hookflow/domain/hook"
)

// Registries holds one process wide set of registries. The factory seals
// when the first configuration is built against it, so everything must be
// registered here, up front.
type Registries struct {
	Factory    *config.Factory
	Extractors *config.Extractors
	Modifiers  *config.Modifiers
}

// NewRegistries builds the registries with every built-in registered.
func NewRegistries() (*Registries, error) {
	r := &Registries{
		Factory:    config.NewFactory(),
		Extractors: config.NewExtractors(),
		Modifiers:  config.NewModifiers(),
	}
	if err := directives.Register(r.Factory); err != nil {
		return nil, fmt.Errorf("while registering directives: %w", err)
	}
	if err := extractors.Register(r.Extractors); err != nil {
		return nil, fmt.Errorf("while registering extractors: %w", err)
	}
	if err := modifiers.Register(r.Modifiers); err != nil {
		return nil, fmt.Errorf("while registering modifiers: %w", err)
	}
	return r, nil
}

// Compile parses a YAML document and compiles the subtree at keyPath into a
// new configuration, loading top level directives for hook h.
func (r *Registries) Compile(data []byte, keyPath string, h hook.Hook) (*config.Config, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("while parsing YAML: %w", err)
	}
	cfg := config.New(r.Factory, r.Extractors, r.Modifiers)
	if err := cfg.ParseYAML(&root, keyPath, h); err != nil {
		return nil, err
	}
	return cfg, nil
}

// CompileFile reads and compiles a configuration file.
func (r *Registries) CompileFile(path, keyPath string, h hook.Hook) (*config.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("while reading %q: %w", path, err)
	}
	cfg, err := r.Compile(data, keyPath, h)
	if err != nil {
		return nil, fmt.Errorf("while loading %q: %w", path, err)
	}
	return cfg, nil
}

// NewLogger builds the process logger. Console output is human readable;
// otherwise records are JSON on stderr.
func NewLogger(level string, console bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if console {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(lvl).With().Timestamp().Logger()
}
