// Package explorer walks the top-level declarations of a translation unit and
// reports each one to a Visitor, in parse order.
package explorer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ardanlabs/ffi-bindgen/cast"
)

// Visitor receives one call per discovered declaration. Returning an error
// stops the walk.
type Visitor interface {
	EnumFound(e *cast.EnumDecl) error
	EnumConstantFound(c *cast.EnumConstantDecl) error
	RecordFound(r *cast.RecordDecl) error
	FunctionFound(f *cast.FunctionDecl) error
	TypeAliasFound(t *cast.TypedefDecl) error
	FunctionProtoFound(t *cast.TypedefDecl) error
}

// Explore reports every declaration of tu to v. Records, enums and functions
// located outside the main file and outside includeDirs are skipped; typedefs
// are always reported since bindings resolve through them.
func Explore(tu *cast.TranslationUnit, includeDirs []string, v Visitor) error {
	s := newScope(tu.File, includeDirs)

	for _, d := range tu.Decls {
		if err := visit(d, s, v); err != nil {
			return fmt.Errorf("%s: %s: %w", d.Location(), d.DeclName(), err)
		}
	}

	return nil
}

func visit(d cast.Decl, s scope, v Visitor) error {
	switch x := d.(type) {
	case *cast.TypedefDecl:
		if x.IsFunctionProto() {
			return v.FunctionProtoFound(x)
		}
		return v.TypeAliasFound(x)
	}

	if !s.contains(d.Location()) {
		return nil
	}

	switch x := d.(type) {
	case *cast.RecordDecl:
		if !x.IsDefinition() {
			return nil
		}
		return v.RecordFound(x)

	case *cast.EnumDecl:
		if !x.Anonymous() {
			return v.EnumFound(x)
		}
		for _, c := range x.Enumerators {
			if err := v.EnumConstantFound(c); err != nil {
				return err
			}
		}
		return nil

	case *cast.EnumConstantDecl:
		return v.EnumConstantFound(x)

	case *cast.FunctionDecl:
		return v.FunctionFound(x)
	}

	return nil
}

// scope decides which source files belong to the bound library.
type scope struct {
	main string
	dirs []string
}

func newScope(main string, includeDirs []string) scope {
	s := scope{main: clean(main)}
	for _, d := range includeDirs {
		s.dirs = append(s.dirs, clean(d))
	}
	return s
}

func (s scope) contains(loc cast.Location) bool {
	if loc.File == "" || s.main == "" {
		return true
	}

	file := clean(loc.File)
	if file == s.main {
		return true
	}

	for _, d := range s.dirs {
		rel, err := filepath.Rel(d, file)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}

	return false
}

func clean(path string) string {
	if path == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
