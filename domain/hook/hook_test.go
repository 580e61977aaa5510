package hook_test

import (
	"testing"

	"github.com/hookflow/hookflow/domain/hook"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name string
		want hook.Hook
	}{
		{"post-load", hook.PostLoad},
		{"txn-open", hook.TxnStart},
		{"ua-req", hook.CReq},
		{"creq", hook.CReq},
		{"proxy-req", hook.PReq},
		{"preq", hook.PReq},
		{"upstream-resp", hook.URsp},
		{"ursp", hook.URsp},
		{"proxy-resp", hook.PRsp},
		{"prsp", hook.PRsp},
		{"pre-remap", hook.PreRemap},
		{"post-remap", hook.PostRemap},
		{"txn-close", hook.TxnClose},
		{"remap", hook.Remap},
		{"msg", hook.Msg},
		{"no-such-hook", hook.Invalid},
		{"", hook.Invalid},
	}

	for _, tt := range tests {
		if got := hook.Lookup(tt.name); got != tt.want {
			t.Errorf("Lookup(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestString_RoundTrip(t *testing.T) {
	for h := hook.Hook(0); h < hook.Count; h++ {
		if got := hook.Lookup(h.String()); got != h {
			t.Errorf("Lookup(%q) = %v, want %v", h.String(), got, h)
		}
	}
	if hook.Invalid.String() != "invalid" {
		t.Errorf("Invalid.String() = %q", hook.Invalid.String())
	}
}

func TestMask(t *testing.T) {
	m := hook.MaskOf(hook.CReq, hook.PReq)

	if !m.Has(hook.CReq) || !m.Has(hook.PReq) {
		t.Fatalf("mask missing members")
	}
	if m.Has(hook.URsp) {
		t.Fatalf("mask should not contain ursp")
	}
	if m.Has(hook.Invalid) {
		t.Fatalf("mask should never contain Invalid")
	}

	for h := hook.Hook(0); h < hook.Count; h++ {
		if !hook.AllMask.Has(h) {
			t.Errorf("AllMask missing %v", h)
		}
	}

	u := m.Union(hook.MaskOf(hook.URsp))
	if !u.Has(hook.URsp) {
		t.Fatalf("union missing ursp")
	}
}
