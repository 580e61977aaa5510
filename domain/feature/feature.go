// Package feature defines the value model for compiled expressions: the
// runtime value (Feature) and its static type descriptor (ActiveType).
package feature

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"
	"time"
)

// Mask is a set of base value kinds.
type Mask uint16

const (
	NIL Mask = 1 << iota
	STRING
	INTEGER
	BOOLEAN
	IPADDR
	DURATION
	TUPLE
)

var kindNames = []struct {
	mask Mask
	name string
}{
	{NIL, "nil"},
	{STRING, "string"},
	{INTEGER, "integer"},
	{BOOLEAN, "boolean"},
	{IPADDR, "ip-addr"},
	{DURATION, "duration"},
	{TUPLE, "tuple"},
}

// Has reports whether any kind in o is present in m.
func (m Mask) Has(o Mask) bool { return m&o != 0 }

// String renders the mask as "string|integer" style text for diagnostics.
func (m Mask) String() string {
	var parts []string
	for _, kn := range kindNames {
		if m&kn.mask != 0 {
			parts = append(parts, kn.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// ActiveType is the statically inferred type of an expression: a set of
// possible base kinds, the element kinds if a tuple is possible, and whether
// the value is a compile time constant.
type ActiveType struct {
	Base  Mask
	Tuple Mask // element kinds, meaningful when Base has TUPLE
	Const bool
}

// NewType builds a non-constant type over the given kinds.
func NewType(m Mask) ActiveType { return ActiveType{Base: m} }

// ConstType builds a compile time constant type over the given kinds.
func ConstType(m Mask) ActiveType { return ActiveType{Base: m, Const: true} }

// TupleOf builds a tuple type whose elements are drawn from elems.
func TupleOf(elems Mask) ActiveType { return ActiveType{Base: TUPLE, Tuple: elems} }

// IsCfgConst reports whether the value is fixed at configuration load.
func (t ActiveType) IsCfgConst() bool { return t.Const }

// Union combines two types; the result is constant only if both are.
func (t ActiveType) Union(o ActiveType) ActiveType {
	return ActiveType{
		Base:  t.Base | o.Base,
		Tuple: t.Tuple | o.Tuple,
		Const: t.Const && o.Const,
	}
}

// CanSatisfy reports whether the type can produce any of the wanted kinds.
func (t ActiveType) CanSatisfy(want Mask) bool { return t.Base.Has(want) }

// String renders the type for diagnostics.
func (t ActiveType) String() string {
	s := t.Base.String()
	if t.Base.Has(TUPLE) && t.Tuple != 0 {
		s += " of " + t.Tuple.String()
	}
	if t.Const {
		s += " (const)"
	}
	return s
}

// Feature is a concrete runtime value matching one ActiveType variant.
// Constant Features are materialized at compile time and embedded in the
// tree; all others are produced during evaluation. A Feature is immutable
// once constructed.
type Feature struct {
	kind  Mask
	str   string
	num   int64
	flag  bool
	addr  netip.Addr
	dur   time.Duration
	tuple []Feature
}

// Nil returns the nil feature.
func Nil() Feature { return Feature{kind: NIL} }

// NewString builds a string feature.
func NewString(s string) Feature { return Feature{kind: STRING, str: s} }

// NewInteger builds an integer feature.
func NewInteger(n int64) Feature { return Feature{kind: INTEGER, num: n} }

// NewBoolean builds a boolean feature.
func NewBoolean(b bool) Feature { return Feature{kind: BOOLEAN, flag: b} }

// NewAddress builds an IP address feature.
func NewAddress(a netip.Addr) Feature { return Feature{kind: IPADDR, addr: a} }

// NewDuration builds a duration feature.
func NewDuration(d time.Duration) Feature { return Feature{kind: DURATION, dur: d} }

// NewTuple builds a tuple feature from its elements.
func NewTuple(elems []Feature) Feature { return Feature{kind: TUPLE, tuple: elems} }

// Kind returns the single kind bit of the feature.
func (f Feature) Kind() Mask {
	if f.kind == 0 {
		return NIL
	}
	return f.kind
}

// Type returns the constant ActiveType of the materialized value.
func (f Feature) Type() ActiveType {
	t := ConstType(f.Kind())
	if f.kind == TUPLE {
		for _, e := range f.tuple {
			t.Tuple |= e.Kind()
		}
	}
	return t
}

// AsString returns the string payload; valid only for STRING features.
func (f Feature) AsString() string { return f.str }

// AsInteger returns the integer payload.
func (f Feature) AsInteger() int64 { return f.num }

// AsBoolean returns the boolean payload.
func (f Feature) AsBoolean() bool { return f.flag }

// AsAddress returns the IP address payload.
func (f Feature) AsAddress() netip.Addr { return f.addr }

// AsDuration returns the duration payload.
func (f Feature) AsDuration() time.Duration { return f.dur }

// AsTuple returns the tuple elements.
func (f Feature) AsTuple() []Feature { return f.tuple }

// Localize rebuilds the feature with every contained string passed through
// intern, recursing into tuples. Used to detach compile time constants from
// transient parse buffers.
func (f Feature) Localize(intern func(string) string) Feature {
	switch f.kind {
	case STRING:
		f.str = intern(f.str)
	case TUPLE:
		elems := make([]Feature, len(f.tuple))
		for i, e := range f.tuple {
			elems[i] = e.Localize(intern)
		}
		f.tuple = elems
	}
	return f
}

// String renders the value for diagnostics and logging.
func (f Feature) String() string {
	switch f.Kind() {
	case NIL:
		return "nil"
	case STRING:
		return f.str
	case INTEGER:
		return strconv.FormatInt(f.num, 10)
	case BOOLEAN:
		return strconv.FormatBool(f.flag)
	case IPADDR:
		return f.addr.String()
	case DURATION:
		return f.dur.String()
	case TUPLE:
		parts := make([]string, len(f.tuple))
		for i, e := range f.tuple {
			parts[i] = e.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	}
	return fmt.Sprintf("feature(%#x)", uint16(f.kind))
}
