// Package cast models a parsed C translation unit. Front ends build it once;
// everything downstream treats it as read-only and compares declarations by
// pointer identity.
package cast

import "fmt"

// Location is where a declaration appears in the preprocessed input.
type Location struct {
	File string
	Line int
}

func (l Location) String() string {
	if l.File == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Decl is a top-level declaration.
type Decl interface {
	DeclName() string
	Location() Location
}

// TranslationUnit is the root of one parsed header.
type TranslationUnit struct {
	File  string
	Decls []Decl
}

// EnumDecl is an enum definition. Underlying is nil when the front end did not
// report an integer type for it.
type EnumDecl struct {
	Name        string
	Spelling    string
	Underlying  Type
	Enumerators []*EnumConstantDecl
	Loc         Location
}

func (d *EnumDecl) DeclName() string   { return d.Name }
func (d *EnumDecl) Location() Location { return d.Loc }

// Anonymous reports whether the enum has neither a tag nor a spelled type name.
func (d *EnumDecl) Anonymous() bool { return d.Name == "" && d.Spelling == "" }

type EnumConstantDecl struct {
	Name  string
	Value int64
	Loc   Location
}

func (d *EnumConstantDecl) DeclName() string   { return d.Name }
func (d *EnumConstantDecl) Location() Location { return d.Loc }

// RecordDecl is a struct or union occurrence. Def points at the defining
// occurrence: the record itself for a definition, another node for a forward
// reference, nil when the record is never defined.
type RecordDecl struct {
	Name     string
	Spelling string
	Union    bool
	Fields   []*FieldDecl
	Def      *RecordDecl
	Loc      Location
}

func (d *RecordDecl) DeclName() string   { return d.Name }
func (d *RecordDecl) Location() Location { return d.Loc }

func (d *RecordDecl) Definition() *RecordDecl { return d.Def }

// IsDefinition reports whether d is the canonical defining occurrence.
func (d *RecordDecl) IsDefinition() bool { return d.Def == d }

// Keyword returns "struct" or "union".
func (d *RecordDecl) Keyword() string {
	if d.Union {
		return "union"
	}
	return "struct"
}

type FieldDecl struct {
	Name     string
	Type     Type
	BitField bool
	BitWidth int
}

type FunctionDecl struct {
	Name     string
	Result   Type
	Params   []*ParamDecl
	Variadic bool
	Loc      Location
}

func (d *FunctionDecl) DeclName() string   { return d.Name }
func (d *FunctionDecl) Location() Location { return d.Loc }

type ParamDecl struct {
	Name string
	Type Type
}

type TypedefDecl struct {
	Name       string
	Underlying Type
	Loc        Location
}

func (d *TypedefDecl) DeclName() string   { return d.Name }
func (d *TypedefDecl) Location() Location { return d.Loc }

// IsOpaque reports whether the typedef names a type the unit never defines:
// an undeclared typedef name or a record without a definition, possibly
// through further typedefs.
func (d *TypedefDecl) IsOpaque() bool {
	t := d.Underlying
	for range 64 {
		switch x := t.(type) {
		case *TypedefType:
			if _, ok := BuiltinByName(x.Name); ok {
				return false
			}
			if x.Decl == nil {
				return true
			}
			t = x.Decl.Underlying
		case *RecordType:
			return x.Decl.Definition() == nil
		default:
			return false
		}
	}
	return false
}

// IsFunctionProto reports whether the typedef names a function type or a
// pointer to one.
func (d *TypedefDecl) IsFunctionProto() bool {
	return IsFunctionPointer(d.Underlying)
}
