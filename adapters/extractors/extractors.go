// Package extractors provides the built-in extractor set: inbound session
// properties supplied per request by the host, plus a few compile time
// constant sources.
package extractors

import (
	"fmt"
	"os"

	"github.com/hookflow/hookflow/config"
	"github.com/hookflow/hookflow/domain/feature"
)

// Register defines every built-in extractor on the registry.
func Register(reg *config.Extractors) error {
	builtins := map[string]config.Extractor{
		"env":                         Env{},
		"inbound-addr-remote":         AddrRemote{},
		"inbound-addr-local":          AddrLocal{},
		"inbound-sni":                 SNI{},
		"inbound-txn-count":           TxnCount{},
		"inbound-protocol-stack":      ProtocolStack{},
		"has-inbound-protocol-prefix": HasProtocolPrefix{},
	}
	for name, ex := range builtins {
		if err := reg.Define(name, ex); err != nil {
			return err
		}
	}
	return nil
}

// Env resolves an environment variable at configuration load. The value is
// a compile time constant, so the compiler embeds it directly.
type Env struct{}

// Validate implements config.Extractor.
func (Env) Validate(_ *config.Config, _ *config.Spec, arg string) (feature.ActiveType, error) {
	if arg == "" {
		return feature.ActiveType{}, fmt.Errorf(`"env" extractor requires an argument naming the variable`)
	}
	return feature.ConstType(feature.STRING), nil
}

// Extract implements config.Extractor.
func (Env) Extract(cfg *config.Config, spec *config.Spec) feature.Feature {
	return feature.NewString(cfg.Localize(os.Getenv(spec.Arg)))
}

// HasCtxRef implements config.Extractor.
func (Env) HasCtxRef() bool { return false }

// The session extractors below validate and type expressions at load
// time. Their values live in the inbound session, which the host supplies
// at evaluation through its own richer context, so Extract here yields the
// nil feature.

// AddrRemote is the remote (client) address of the inbound session. The
// address is read from host session state at evaluation.
type AddrRemote struct{}

func (AddrRemote) Validate(*config.Config, *config.Spec, string) (feature.ActiveType, error) {
	return feature.NewType(feature.IPADDR), nil
}

func (AddrRemote) Extract(*config.Config, *config.Spec) feature.Feature { return feature.Nil() }

func (AddrRemote) HasCtxRef() bool { return true }

// AddrLocal is the local (proxy) address of the inbound session, read
// from host session state at evaluation.
type AddrLocal struct{}

func (AddrLocal) Validate(*config.Config, *config.Spec, string) (feature.ActiveType, error) {
	return feature.NewType(feature.IPADDR), nil
}

func (AddrLocal) Extract(*config.Config, *config.Spec) feature.Feature { return feature.Nil() }

func (AddrLocal) HasCtxRef() bool { return true }

// SNI is the server name from the inbound TLS handshake. The host
// supplies the handshake data at evaluation.
type SNI struct{}

func (SNI) Validate(*config.Config, *config.Spec, string) (feature.ActiveType, error) {
	return feature.NewType(feature.STRING), nil
}

func (SNI) Extract(*config.Config, *config.Spec) feature.Feature { return feature.Nil() }

func (SNI) HasCtxRef() bool { return true }

// TxnCount is the number of transactions on the inbound session, counted
// by the host at evaluation.
type TxnCount struct{}

func (TxnCount) Validate(*config.Config, *config.Spec, string) (feature.ActiveType, error) {
	return feature.NewType(feature.INTEGER), nil
}

func (TxnCount) Extract(*config.Config, *config.Spec) feature.Feature { return feature.Nil() }

func (TxnCount) HasCtxRef() bool { return true }

// ProtocolStack is the ordered protocol tags of the inbound session, read
// from host session state at evaluation.
type ProtocolStack struct{}

func (ProtocolStack) Validate(*config.Config, *config.Spec, string) (feature.ActiveType, error) {
	return feature.TupleOf(feature.STRING), nil
}

func (ProtocolStack) Extract(*config.Config, *config.Spec) feature.Feature { return feature.Nil() }

func (ProtocolStack) HasCtxRef() bool { return true }

// HasProtocolPrefix reports whether the inbound session's protocol stack
// has a tag with the given prefix. The prefix argument is required; the
// stack itself comes from host session state at evaluation.
type HasProtocolPrefix struct{}

func (HasProtocolPrefix) Validate(cfg *config.Config, spec *config.Spec, arg string) (feature.ActiveType, error) {
	if arg == "" {
		return feature.ActiveType{}, fmt.Errorf(
			"%q extractor requires an argument to use as a protocol prefix", spec.Name)
	}
	return feature.NewType(feature.BOOLEAN), nil
}

func (HasProtocolPrefix) Extract(*config.Config, *config.Spec) feature.Feature { return feature.Nil() }

func (HasProtocolPrefix) HasCtxRef() bool { return true }
