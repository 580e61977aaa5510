// Package directives provides the built-in directive set.
package directives

import (
	"fmt"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/hookflow/hookflow/config"
	"github.com/hookflow/hookflow/domain/feature"
	"github.com/hookflow/hookflow/domain/hook"
)

// Register defines every built-in directive on the factory.
func Register(f *config.Factory) error {
	if err := f.Define("msg", hook.AllMask, loadMsg, nil); err != nil {
		return err
	}
	if err := f.Define("note", hook.MaskOf(hook.PostLoad), loadNote, initNotes); err != nil {
		return err
	}
	return nil
}

// Msg emits a log record when invoked. The directive argument selects the
// level, defaulting to info.
type Msg struct {
	level zerolog.Level
	expr  config.Expr
	cfg   *config.Config
}

var msgLevels = map[string]zerolog.Level{
	"debug": zerolog.DebugLevel,
	"info":  zerolog.InfoLevel,
	"warn":  zerolog.WarnLevel,
	"error": zerolog.ErrorLevel,
}

func loadMsg(cfg *config.Config, _ *config.CfgInfo, node *yaml.Node, name, arg string, keyValue *yaml.Node) (config.Directive, error) {
	level := zerolog.InfoLevel
	if arg != "" {
		lvl, ok := msgLevels[arg]
		if !ok {
			return nil, fmt.Errorf("invalid level %q at line %d for %q directive", arg, node.Line, name)
		}
		level = lvl
	}
	expr, err := cfg.ParseExpr(keyValue)
	if err != nil {
		return nil, fmt.Errorf("while parsing %q directive value at line %d: %w", name, node.Line, err)
	}
	return &Msg{level: level, expr: expr, cfg: cfg}, nil
}

// Invoke implements config.Directive.
func (d *Msg) Invoke(ctx *config.Context) error {
	text := d.cfg.Extract(ctx, d.expr)
	ctx.Logger.WithLevel(d.level).Str("hook", ctx.Hook.String()).Msg(text.String())
	return nil
}

// noteStore is the per-configuration shared state for the note directive,
// created once by the type initializer.
type noteStore struct {
	notes []string
}

func initNotes(_ *config.Config, rtti *config.CfgInfo) error {
	rtti.Store = &noteStore{}
	return nil
}

// Note records a literal string at load time. Notes accumulate in the
// directive type's per-configuration store and are retrievable after the
// configuration is built.
type Note struct {
	store *noteStore
}

func loadNote(cfg *config.Config, rtti *config.CfgInfo, node *yaml.Node, name, _ string, keyValue *yaml.Node) (config.Directive, error) {
	expr, err := cfg.ParseExpr(keyValue)
	if err != nil {
		return nil, fmt.Errorf("while parsing %q directive value at line %d: %w", name, node.Line, err)
	}
	if !expr.IsLiteral() || !expr.ResultType().CanSatisfy(feature.STRING) {
		return nil, fmt.Errorf("%q directive at line %d requires a literal string", name, node.Line)
	}
	store := rtti.Store.(*noteStore)
	store.notes = append(store.notes, cfg.Localize(expr.Lit.AsString()))
	return &Note{store: store}, nil
}

// Invoke implements config.Directive. Notes act at load time only.
func (d *Note) Invoke(*config.Context) error { return nil }

// Notes returns the strings recorded by note directives in cfg, in document
// order.
func Notes(cfg *config.Config) []string {
	info := cfg.DrtvInfo("note")
	if info == nil || info.Store == nil {
		return nil
	}
	return info.Store.(*noteStore).notes
}
