package feature

import "strings"

// boolNames maps literal boolean spellings to their value. Lookup is case
// insensitive. The table is consulted by the expression compiler after
// integer parsing and before IP address parsing, so order sensitive names
// such as "1" are deliberately absent.
var boolNames = map[string]bool{
	"true":    true,
	"yes":     true,
	"on":      true,
	"enable":  true,
	"false":   false,
	"no":      false,
	"off":     false,
	"disable": false,
}

// LookupBool resolves a boolean literal name. The second result reports
// whether the name is recognized; unrecognized names never panic.
func LookupBool(name string) (value, ok bool) {
	value, ok = boolNames[strings.ToLower(name)]
	return value, ok
}
