// Package arena provides compiler-owned string storage.
//
// YAML parsing produces strings that alias the decoded document buffers. The
// compiled rule tree must outlive those buffers, so every string that ends up
// in the tree is localized into an Arena first. Localized strings are
// deduplicated; the arena only grows and is released together with the
// configuration that owns it.
package arena

import "strings"

// Arena interns strings on behalf of a single configuration instance.
// It is not safe for concurrent use during compilation; once compilation
// finishes the interned strings are immutable and freely shareable.
type Arena struct {
	interned map[string]string
	bytes    int
}

// New creates an empty arena.
func New() *Arena {
	return &Arena{interned: make(map[string]string)}
}

// Localize copies text into arena-owned storage and returns the copy.
// The result is detached from whatever buffer backed the input, so it stays
// valid after the source document is discarded or overwritten.
func (a *Arena) Localize(text string) string {
	if text == "" {
		return ""
	}
	if v, ok := a.interned[text]; ok {
		return v
	}
	v := strings.Clone(text)
	a.interned[v] = v
	a.bytes += len(v)
	return v
}

// Bytes reports the total size of interned storage.
func (a *Arena) Bytes() int { return a.bytes }

// Strings reports how many distinct strings are interned.
func (a *Arena) Strings() int { return len(a.interned) }
