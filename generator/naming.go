package generator

import (
	"fmt"
	"go/token"
	"strings"
	"unicode"

	"github.com/golang-cz/textcase"
)

// predeclared identifiers a local name must not shadow inside a wrapper.
var predeclared = []string{
	"bool", "byte", "int8", "int16", "int32", "int64", "uint8", "uint16",
	"uint32", "uint64", "uintptr", "float32", "float64", "nil", "true", "false",
}

// namespace hands out unique Go identifiers. Collisions are resolved by
// appending "_", then 2, 3 and so on, in the order names are claimed.
type namespace struct {
	used map[string]bool
}

func newNamespace(reserved ...string) *namespace {
	ns := namespace{used: make(map[string]bool)}
	for _, r := range reserved {
		ns.used[r] = true
	}
	return &ns
}

func (ns *namespace) claim(base string) string {
	if base == "" {
		base = "X"
	}

	name := base
	if ns.used[name] || token.IsKeyword(name) {
		name = base + "_"
	}
	for i := 2; ns.used[name]; i++ {
		name = fmt.Sprintf("%s%d", base, i)
	}

	ns.used[name] = true
	return name
}

// exportedName converts a C identifier to an exported Go identifier.
func exportedName(c string) string {
	name := textcase.PascalCase(c)
	if name == "" || !unicode.IsLetter(rune(name[0])) {
		name = "X" + name
	}
	return name
}

// localName converts a C identifier to an unexported Go identifier.
func localName(c string) string {
	name := textcase.CamelCase(c)
	if name == "" {
		return ""
	}
	if !unicode.IsLetter(rune(name[0])) {
		name = "x" + name
	}
	return name
}

// typeName strips the struct, union or enum keyword from a C spelling.
func typeName(spelling string) string {
	for _, kw := range []string{"struct ", "union ", "enum "} {
		spelling = strings.TrimPrefix(spelling, kw)
	}
	return strings.TrimSpace(spelling)
}
