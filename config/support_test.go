package config_test

import (
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/hookflow/hookflow/config"
	"github.com/hookflow/hookflow/domain/feature"
	"github.com/hookflow/hookflow/domain/hook"
)

// strExtractor is a per-request string source.
type strExtractor struct{}

func (strExtractor) Validate(*config.Config, *config.Spec, string) (feature.ActiveType, error) {
	return feature.NewType(feature.STRING), nil
}

func (strExtractor) Extract(*config.Config, *config.Spec) feature.Feature {
	return feature.NewString("live")
}

func (strExtractor) HasCtxRef() bool { return true }

// constExtractor is a compile time constant string source.
type constExtractor struct{}

func (constExtractor) Validate(*config.Config, *config.Spec, string) (feature.ActiveType, error) {
	return feature.ConstType(feature.STRING), nil
}

func (constExtractor) Extract(*config.Config, *config.Spec) feature.Feature {
	return feature.NewString("embedded")
}

func (constExtractor) HasCtxRef() bool { return false }

// intExtractor is a per-request integer source.
type intExtractor struct{}

func (intExtractor) Validate(*config.Config, *config.Spec, string) (feature.ActiveType, error) {
	return feature.NewType(feature.INTEGER), nil
}

func (intExtractor) Extract(*config.Config, *config.Spec) feature.Feature {
	return feature.NewInteger(7)
}

func (intExtractor) HasCtxRef() bool { return true }

// toInt retypes the chain to integer without touching the value.
type toInt struct{}

func (toInt) ResultType(feature.ActiveType) feature.ActiveType {
	return feature.NewType(feature.INTEGER)
}

func (toInt) Apply(_ *config.Context, f feature.Feature) feature.Feature { return f }

// markDirective records nothing; it exists so documents have something to
// load.
type markDirective struct{}

func (markDirective) Invoke(*config.Context) error { return nil }

func loadMark(cfg *config.Config, _ *config.CfgInfo, _ *yaml.Node, _, _ string, _ *yaml.Node) (config.Directive, error) {
	return markDirective{}, nil
}

func newExtractors(t *testing.T) *config.Extractors {
	t.Helper()
	ext := config.NewExtractors()
	for name, ex := range map[string]config.Extractor{
		"live-str":  strExtractor{},
		"const-str": constExtractor{},
		"live-int":  intExtractor{},
	} {
		if err := ext.Define(name, ex); err != nil {
			t.Fatalf("Define(%s) error: %v", name, err)
		}
	}
	return ext
}

func newModifiers(t *testing.T) *config.Modifiers {
	t.Helper()
	mods := config.NewModifiers()
	err := mods.Define("to-int", func(cfg *config.Config, _ *yaml.Node, _ feature.ActiveType) (config.Modifier, error) {
		return toInt{}, nil
	})
	if err != nil {
		t.Fatalf("Define(to-int) error: %v", err)
	}
	return mods
}

func newFactory(t *testing.T) *config.Factory {
	t.Helper()
	factory := config.NewFactory()
	if err := factory.Define("mark", hook.AllMask, loadMark, nil); err != nil {
		t.Fatalf("Define(mark) error: %v", err)
	}
	return factory
}

func newConfig(t *testing.T) *config.Config {
	t.Helper()
	return config.New(newFactory(t), newExtractors(t), newModifiers(t))
}

func parseNode(t *testing.T, doc string) *yaml.Node {
	t.Helper()
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(doc), &root); err != nil {
		t.Fatalf("yaml error: %v", err)
	}
	return &root
}
