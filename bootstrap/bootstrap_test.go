package bootstrap_test

import (
	"strings"
	"testing"

	"github.com/hookflow/hookflow/adapters/directives"
	"github.com/hookflow/hookflow/bootstrap"
	"github.com/hookflow/hookflow/domain/hook"
)

func TestCompile(t *testing.T) {
	reg, err := bootstrap.NewRegistries()
	if err != nil {
		t.Fatalf("NewRegistries error: %v", err)
	}

	doc := `
- when: post-load
  do:
    note: "loaded"
- when: ua-req
  do:
  - msg: "saw a request"
  - msg<warn>: "and again"
`
	cfg, err := reg.Compile([]byte(doc), ".", hook.PostLoad)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	defer cfg.Close()

	if !cfg.HasTopLevelDirective() {
		t.Error("expected a non-post-load top level directive")
	}
	if n := len(cfg.Roots(hook.CReq)); n != 1 {
		t.Errorf("expected 1 ua-req root, got %d", n)
	}
	if notes := directives.Notes(cfg); len(notes) != 1 || notes[0] != "loaded" {
		t.Errorf("notes = %v, want [loaded]", notes)
	}
	if counts := cfg.DirectiveCounts(); counts["msg"] != 2 {
		t.Errorf("msg count = %d, want 2", counts["msg"])
	}
}

func TestCompileKeyPath(t *testing.T) {
	reg, err := bootstrap.NewRegistries()
	if err != nil {
		t.Fatalf("NewRegistries error: %v", err)
	}

	doc := `
meta:
  version: 1
rules:
  flow:
  - when: ua-req
    do:
      msg: "nested"
`
	cfg, err := reg.Compile([]byte(doc), "rules.flow", hook.PostLoad)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	if n := len(cfg.Roots(hook.CReq)); n != 1 {
		t.Errorf("expected 1 ua-req root, got %d", n)
	}

	_, err = reg.Compile([]byte(doc), "rules.missing", hook.PostLoad)
	if err == nil {
		t.Fatal("expected error for missing key path")
	}
	// The walked prefix is reported; for a miss on the last segment it
	// equals the full path.
	if !strings.Contains(err.Error(), `no such key "rules.missing"`) {
		t.Errorf("error = %v, want the failing prefix named", err)
	}
}

func TestCompileRemap(t *testing.T) {
	reg, err := bootstrap.NewRegistries()
	if err != nil {
		t.Fatalf("NewRegistries error: %v", err)
	}

	doc := `
msg: "per rule"
`
	cfg, err := reg.Compile([]byte(doc), ".", hook.Remap)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	if n := len(cfg.Roots(hook.Remap)); n != 1 {
		t.Errorf("expected 1 remap root, got %d", n)
	}
	if !cfg.HasTopLevelDirective() {
		t.Error("remap rule should count as a top level directive")
	}
}

func TestCompileFileMissing(t *testing.T) {
	reg, err := bootstrap.NewRegistries()
	if err != nil {
		t.Fatalf("NewRegistries error: %v", err)
	}
	if _, err := reg.CompileFile("no/such/file.yaml", ".", hook.PostLoad); err == nil {
		t.Fatal("expected error for missing file")
	}
}
