package directives_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/hookflow/hookflow/adapters/directives"
	"github.com/hookflow/hookflow/config"
	"github.com/hookflow/hookflow/domain/hook"
)

func compile(t *testing.T, doc string) (*config.Config, error) {
	t.Helper()
	factory := config.NewFactory()
	if err := directives.Register(factory); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	cfg := config.New(factory, config.NewExtractors(), config.NewModifiers())

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(doc), &root); err != nil {
		t.Fatalf("yaml error: %v", err)
	}
	if err := cfg.ParseYAML(&root, config.RootPath, hook.PostLoad); err != nil {
		return nil, err
	}
	return cfg, nil
}

func TestMsgInvoke(t *testing.T) {
	cfg, err := compile(t, `
when: ua-req
do:
  msg: "request seen"
`)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	roots := cfg.Roots(hook.CReq)
	if len(roots) != 1 {
		t.Fatalf("expected 1 root on ua-req, got %d", len(roots))
	}

	var buf bytes.Buffer
	ctx := &config.Context{Logger: zerolog.New(&buf), Hook: hook.CReq}
	if err := roots[0].Invoke(ctx); err != nil {
		t.Fatalf("Invoke error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "request seen") {
		t.Errorf("log output %q missing message text", out)
	}
	if !strings.Contains(out, `"hook":"ua-req"`) {
		t.Errorf("log output %q missing hook field", out)
	}
}

func TestMsgLevelArg(t *testing.T) {
	cfg, err := compile(t, `
when: ua-req
do:
  msg<error>: "boom"
`)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	var buf bytes.Buffer
	ctx := &config.Context{Logger: zerolog.New(&buf), Hook: hook.CReq}
	if err := cfg.Roots(hook.CReq)[0].Invoke(ctx); err != nil {
		t.Fatalf("Invoke error: %v", err)
	}
	if !strings.Contains(buf.String(), `"level":"error"`) {
		t.Errorf("log output %q not at error level", buf.String())
	}
}

func TestMsgBadLevel(t *testing.T) {
	_, err := compile(t, `
when: ua-req
do:
  msg<loud>: "eh"
`)
	if err == nil {
		t.Fatal("expected error for invalid level")
	}
	if !strings.Contains(err.Error(), `invalid level "loud"`) {
		t.Errorf("error = %v, want invalid level complaint", err)
	}
}

func TestNoteAccumulates(t *testing.T) {
	cfg, err := compile(t, `
when: post-load
do:
- note: "first"
- note: "second"
`)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	notes := directives.Notes(cfg)
	if len(notes) != 2 || notes[0] != "first" || notes[1] != "second" {
		t.Errorf("notes = %v, want [first second]", notes)
	}
}

func TestNoteHookRestriction(t *testing.T) {
	_, err := compile(t, `
when: ua-req
do:
  note: "nope"
`)
	if err == nil {
		t.Fatal("expected error for note outside post-load")
	}
	if !strings.Contains(err.Error(), `"note"`) || !strings.Contains(err.Error(), `"ua-req"`) {
		t.Errorf("error = %v, want directive and hook named", err)
	}
}

func TestNoteRequiresLiteral(t *testing.T) {
	_, err := compile(t, `
when: post-load
do:
  note: [ "a", "b" ]
`)
	if err == nil {
		t.Fatal("expected error for non-literal note")
	}
	if !strings.Contains(err.Error(), "literal string") {
		t.Errorf("error = %v, want literal string complaint", err)
	}
}
