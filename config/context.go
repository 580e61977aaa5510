package config

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/hookflow/hookflow/domain/feature"
	"github.com/hookflow/hookflow/domain/hook"
)

// Context carries the per-request state the host runtime supplies when it
// walks a compiled tree. The compiler defines only the surface; populating
// and advancing it is the runtime's business.
type Context struct {
	// Logger receives directive output such as msg directives.
	Logger zerolog.Logger

	// Hook is the pipeline stage currently being dispatched.
	Hook hook.Hook

	// Captures holds the active regular expression capture values, indexed
	// by group number.
	Captures []string
}

// Capture returns the capture group value at idx, or the empty string when
// no such group is populated.
func (ctx *Context) Capture(idx int) string {
	if idx < 0 || idx >= len(ctx.Captures) {
		return ""
	}
	return ctx.Captures[idx]
}

// Extract evaluates a compiled expression against a request context and
// runs its modifier chain over the result.
func (c *Config) Extract(ctx *Context, ex Expr) feature.Feature {
	f := c.extractBase(ctx, ex)
	for _, mod := range ex.Mods {
		f = mod.Apply(ctx, f)
	}
	return f
}

func (c *Config) extractBase(ctx *Context, ex Expr) feature.Feature {
	switch ex.Kind {
	case ExprLiteral:
		return ex.Lit
	case ExprDirect:
		return c.extractSpec(ctx, &ex.Spec)
	case ExprComposite:
		var sb strings.Builder
		for i := range ex.Specs {
			spec := &ex.Specs[i]
			if spec.IsLiteral() {
				sb.WriteString(spec.Text)
				continue
			}
			sb.WriteString(c.extractSpec(ctx, spec).String())
		}
		return feature.NewString(sb.String())
	case ExprList:
		elems := make([]feature.Feature, len(ex.Elems))
		for i := range ex.Elems {
			elems[i] = c.Extract(ctx, ex.Elems[i])
		}
		return feature.NewTuple(elems)
	}
	return feature.Nil()
}

func (c *Config) extractSpec(ctx *Context, spec *Spec) feature.Feature {
	if spec.Idx >= 0 {
		return feature.NewString(ctx.Capture(spec.Idx))
	}
	return spec.Ext.Extract(c, spec)
}
