// Package hook defines the pipeline stages a compiled directive may run on.
package hook

// Hook identifies a point in request processing. The ordering is fixed and
// used for indexing only; the compiler never sequences hooks itself.
type Hook int

const (
	PostLoad Hook = iota // configuration finished loading
	TxnStart             // transaction opened
	CReq                 // client (user agent) request
	PReq                 // proxy request to upstream
	URsp                 // upstream response
	PRsp                 // proxy response to client
	PreRemap             // before remap
	PostRemap            // after remap
	TxnClose             // transaction closed
	Remap                // remap rule evaluation
	Msg                  // plugin message

	Count // number of valid hooks

	Invalid Hook = -1
)

// names holds the canonical name first, then aliases.
var names = [Count][]string{
	PostLoad:  {"post-load"},
	TxnStart:  {"txn-open"},
	CReq:      {"ua-req", "creq"},
	PReq:      {"proxy-req", "preq"},
	URsp:      {"upstream-resp", "ursp"},
	PRsp:      {"proxy-resp", "prsp"},
	PreRemap:  {"pre-remap"},
	PostRemap: {"post-remap"},
	TxnClose:  {"txn-close"},
	Remap:     {"remap"},
	Msg:       {"msg"},
}

var byName = func() map[string]Hook {
	m := make(map[string]Hook)
	for h, aliases := range names {
		for _, name := range aliases {
			m[name] = Hook(h)
		}
	}
	return m
}()

// Lookup resolves a hook name or alias. Unrecognized names yield Invalid.
func Lookup(name string) Hook {
	if h, ok := byName[name]; ok {
		return h
	}
	return Invalid
}

// Valid reports whether h is a real hook.
func (h Hook) Valid() bool { return h >= 0 && h < Count }

// String returns the canonical hook name.
func (h Hook) String() string {
	if h.Valid() {
		return names[h][0]
	}
	return "invalid"
}

// Names returns the canonical name and all aliases for h.
func (h Hook) Names() []string {
	if h.Valid() {
		return names[h]
	}
	return nil
}

// Mask is a set of hooks.
type Mask uint32

// MaskOf builds a mask containing the given hooks.
func MaskOf(hooks ...Hook) Mask {
	var m Mask
	for _, h := range hooks {
		if h.Valid() {
			m |= 1 << uint(h)
		}
	}
	return m
}

// AllMask contains every valid hook.
var AllMask = Mask(1<<uint(Count)) - 1

// Has reports whether h is in the mask.
func (m Mask) Has(h Hook) bool {
	return h.Valid() && m&(1<<uint(h)) != 0
}

// Union returns the combined mask.
func (m Mask) Union(o Mask) Mask { return m | o }
