package config_test

import (
	"strings"
	"testing"

	"github.com/hookflow/hookflow/config"
	"github.com/hookflow/hookflow/domain/feature"
)

func TestUnquotedLiterals(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		kind feature.Mask
		show string
	}{
		{"decimal integer", `10`, feature.INTEGER, "10"},
		{"hex integer", `0x1A`, feature.INTEGER, "26"},
		{"negative integer", `-3`, feature.INTEGER, "-3"},
		{"boolean word", `yes`, feature.BOOLEAN, "true"},
		{"boolean off", `off`, feature.BOOLEAN, "false"},
		{"ipv4 address", `10.1.1.1`, feature.IPADDR, "10.1.1.1"},
		{"ipv6 address", `2001:db8::1`, feature.IPADDR, "2001:db8::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newConfig(t)
			expr, err := cfg.ParseExpr(parseNode(t, tt.doc))
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}
			if !expr.IsLiteral() {
				t.Fatalf("expected a literal, got kind %d", expr.Kind)
			}
			if expr.Lit.Kind() != tt.kind {
				t.Errorf("kind = %s, want %s", expr.Lit.Kind(), tt.kind)
			}
			if got := expr.Lit.String(); got != tt.show {
				t.Errorf("value = %q, want %q", got, tt.show)
			}
		})
	}
}

func TestQuotedIntegerStaysString(t *testing.T) {
	cfg := newConfig(t)
	expr, err := cfg.ParseExpr(parseNode(t, `"10"`))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if !expr.IsLiteral() || expr.Lit.Kind() != feature.STRING {
		t.Errorf("quoted 10 should stay a string, got %s", expr.ResultType())
	}
}

func TestUnquotedExtractor(t *testing.T) {
	cfg := newConfig(t)
	expr, err := cfg.ParseExpr(parseNode(t, `live-str`))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if expr.Kind != config.ExprDirect {
		t.Fatalf("expected a direct reference, got kind %d", expr.Kind)
	}
	if !expr.CtxRef {
		t.Error("live extractor should mark a context reference")
	}
	if expr.ResultType().Base != feature.STRING {
		t.Errorf("result type = %s, want string", expr.ResultType().Base)
	}
}

func TestConstExtractorEmbeds(t *testing.T) {
	cfg := newConfig(t)
	expr, err := cfg.ParseExpr(parseNode(t, `const-str`))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if !expr.IsLiteral() {
		t.Fatal("constant extraction should be embedded as a literal")
	}
	if expr.Lit.AsString() != "embedded" {
		t.Errorf("value = %q, want %q", expr.Lit.AsString(), "embedded")
	}
}

func TestUnknownExtractor(t *testing.T) {
	cfg := newConfig(t)
	_, err := cfg.ParseExpr(parseNode(t, `no-such-thing`))
	if err == nil {
		t.Fatal("expected error for unknown extractor")
	}
	if !strings.Contains(err.Error(), `"no-such-thing" not found`) {
		t.Errorf("error = %v, want extractor named", err)
	}
}

func TestInvalidSpecifierSyntax(t *testing.T) {
	cfg := newConfig(t)
	_, err := cfg.ParseExpr(parseNode(t, `not a specifier`))
	if err == nil {
		t.Fatal("expected error for specifier with spaces")
	}
	if !strings.Contains(err.Error(), "not a valid specifier") {
		t.Errorf("error = %v, want syntax complaint", err)
	}
}

func TestSingletonCollapse(t *testing.T) {
	cfg := newConfig(t)

	// A quoted reference with no surrounding text is the reference itself.
	expr, err := cfg.ParseExpr(parseNode(t, `"{live-str}"`))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if expr.Kind != config.ExprDirect {
		t.Errorf("lone specifier should collapse to a direct reference, got kind %d", expr.Kind)
	}

	// Any literal text forces a composite.
	expr, err = cfg.ParseExpr(parseNode(t, `"a{live-str}"`))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if expr.Kind != config.ExprComposite {
		t.Errorf("mixed text should be a composite, got kind %d", expr.Kind)
	}
	if expr.ResultType().Base != feature.STRING {
		t.Errorf("composite result type = %s, want string", expr.ResultType().Base)
	}
}

func TestCompositeEscapes(t *testing.T) {
	cfg := newConfig(t)
	expr, err := cfg.ParseExpr(parseNode(t, `"{{live-str}}"`))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if !expr.IsLiteral() || expr.Lit.AsString() != "{live-str}" {
		t.Errorf("escaped braces should be literal text, got %v", expr.Lit)
	}
}

func TestMissingClosingBrace(t *testing.T) {
	cfg := newConfig(t)
	_, err := cfg.ParseExpr(parseNode(t, `"a{live-str"`))
	if err == nil {
		t.Fatal("expected error for unterminated specifier")
	}
	if !strings.Contains(err.Error(), "missing its closing brace") {
		t.Errorf("error = %v, want closing brace complaint", err)
	}
}

func TestEmptyQuotedString(t *testing.T) {
	cfg := newConfig(t)
	expr, err := cfg.ParseExpr(parseNode(t, `""`))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if !expr.IsLiteral() || expr.Lit.AsString() != "" {
		t.Errorf("expected the empty string literal, got %v", expr.Lit)
	}
}

func TestLiteralTag(t *testing.T) {
	cfg := newConfig(t)
	expr, err := cfg.ParseExpr(parseNode(t, `!literal "{live-str}"`))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if !expr.IsLiteral() || expr.Lit.AsString() != "{live-str}" {
		t.Errorf("literal tag must suppress interpretation, got %v", expr.Lit)
	}
}

func TestUnsupportedTag(t *testing.T) {
	cfg := newConfig(t)
	_, err := cfg.ParseExpr(parseNode(t, `!frob x`))
	if err == nil {
		t.Fatal("expected error for unsupported tag")
	}
	if !strings.Contains(err.Error(), "is not supported") {
		t.Errorf("error = %v, want unsupported tag complaint", err)
	}
}

func TestNullIsNil(t *testing.T) {
	cfg := newConfig(t)
	expr, err := cfg.ParseExpr(parseNode(t, `~`))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if !expr.IsLiteral() || expr.Lit.Kind() != feature.NIL {
		t.Errorf("null should compile to the nil feature, got %v", expr.Lit)
	}
}

func TestCaptureWithoutActivePattern(t *testing.T) {
	cfg := newConfig(t)
	_, err := cfg.ParseExpr(parseNode(t, `"{1}"`))
	if err == nil {
		t.Fatal("expected error for capture with no active pattern")
	}
	if !strings.Contains(err.Error(), "no regular expression is active") {
		t.Errorf("error = %v, want no active pattern complaint", err)
	}
}

func TestCaptureRange(t *testing.T) {
	cfg := newConfig(t)
	restore := cfg.SetActiveCapture(2, 14)
	defer restore()

	expr, err := cfg.ParseExpr(parseNode(t, `"prefix-{1}"`))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if expr.MaxArgIdx != 1 {
		t.Errorf("MaxArgIdx = %d, want 1", expr.MaxArgIdx)
	}

	_, err = cfg.ParseExpr(parseNode(t, `"prefix-{2}"`))
	if err == nil {
		t.Fatal("expected error for out of range capture")
	}
	msg := err.Error()
	for _, want := range []string{"capture group 2", "maximum capture group is 1", "from line 14"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q missing %q", msg, want)
		}
	}
}

func TestCaptureRestoreScopes(t *testing.T) {
	cfg := newConfig(t)
	restore := cfg.SetActiveCapture(3, 1)
	if cfg.ActiveCaptureCount() != 3 {
		t.Fatalf("active count = %d, want 3", cfg.ActiveCaptureCount())
	}
	restore()
	if cfg.ActiveCaptureCount() != 0 {
		t.Errorf("active count after restore = %d, want 0", cfg.ActiveCaptureCount())
	}
}

func TestTupleExpression(t *testing.T) {
	cfg := newConfig(t)
	expr, err := cfg.ParseExpr(parseNode(t, `[ 10, "a", live-str ]`))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if expr.Kind != config.ExprList {
		t.Fatalf("expected a list expression, got kind %d", expr.Kind)
	}
	if len(expr.Elems) != 3 {
		t.Fatalf("elems = %d, want 3", len(expr.Elems))
	}
	rt := expr.ResultType()
	if rt.Base != feature.TUPLE {
		t.Errorf("result base = %s, want tuple", rt.Base)
	}
	if !rt.Tuple.Has(feature.INTEGER) || !rt.Tuple.Has(feature.STRING) {
		t.Errorf("tuple element mask = %s, want integer and string", rt.Tuple)
	}
}

func TestSingleElementSequence(t *testing.T) {
	cfg := newConfig(t)
	expr, err := cfg.ParseExpr(parseNode(t, `[ 10 ]`))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if !expr.IsLiteral() || expr.Lit.Kind() != feature.INTEGER {
		t.Errorf("one element sequence should be its element, got %v", expr.Lit)
	}
}

func TestEmptySequenceIsNil(t *testing.T) {
	cfg := newConfig(t)
	expr, err := cfg.ParseExpr(parseNode(t, `[]`))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if !expr.IsLiteral() || expr.Lit.Kind() != feature.NIL {
		t.Errorf("empty sequence should be nil, got %v", expr.Lit)
	}
}

func TestModifierChangesType(t *testing.T) {
	cfg := newConfig(t)
	expr, err := cfg.ParseExpr(parseNode(t, `[ live-str, { to-int: } ]`))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if expr.Kind != config.ExprDirect {
		t.Errorf("base expression kind = %d, want direct", expr.Kind)
	}
	if len(expr.Mods) != 1 {
		t.Fatalf("mods = %d, want 1", len(expr.Mods))
	}
	if expr.ResultType().Base != feature.INTEGER {
		t.Errorf("result type = %s, want the modifier's integer", expr.ResultType().Base)
	}
}

func TestModifierUnknown(t *testing.T) {
	cfg := newConfig(t)
	_, err := cfg.ParseExpr(parseNode(t, `[ live-str, { frob: } ]`))
	if err == nil {
		t.Fatal("expected error for unknown modifier")
	}
}
