// Package syntax holds the output tree of a generated binding file, the
// formatting pass that normalizes it and the printer that turns it into Go
// source text.
package syntax

import "fmt"

// Trivia is the non-semantic text attached to a node.
type Trivia struct {
	Doc        []string
	Comment    string
	BlankAfter bool
}

// TypeExpr is a Go type expression. Exactly one of Name, Pointer or Array
// describes it; Elem is the pointee or element type.
type TypeExpr struct {
	Name     string
	Pointer  bool
	Array    bool
	Len      int64
	Elem     *TypeExpr
	Trailing string
}

// Named returns a leaf type expression.
func Named(name string) *TypeExpr { return &TypeExpr{Name: name} }

// PointerTo returns *elem.
func PointerTo(elem *TypeExpr) *TypeExpr { return &TypeExpr{Pointer: true, Elem: elem} }

// ArrayOf returns [n]elem.
func ArrayOf(n int64, elem *TypeExpr) *TypeExpr { return &TypeExpr{Array: true, Len: n, Elem: elem} }

func (t *TypeExpr) String() string {
	var s string
	switch {
	case t.Pointer:
		s = "*" + t.Elem.String()
	case t.Array:
		s = fmt.Sprintf("[%d]%s", t.Len, t.Elem.String())
	default:
		s = t.Name
	}
	return s + t.Trailing
}

// IsPointer reports whether the expression is a pointer type.
func (t *TypeExpr) IsPointer() bool { return t != nil && t.Pointer }

// Container is one generated file.
type Container struct {
	Banner       []string
	Package      string
	Consts       []*Const
	Enums        []*Enum
	Structs      []*Struct
	Funcs        []*Func
	Placeholders []*Placeholder
}

// Const is a constant spec inside the leading const block or an enum block.
// Type may be empty for an untyped constant.
type Const struct {
	Trivia
	Name  string
	Type  string
	Value string
}

// Enum is a defined integer type plus its constants.
type Enum struct {
	Trivia
	Name   string
	Type   *TypeExpr
	Values []*Const
}

// Field is one struct field. Sep separates the name from the type; a single
// space is used when it is empty.
type Field struct {
	Trivia
	Name string
	Sep  string
	Type *TypeExpr
}

// Struct is a struct type with its size assertion and ffi descriptor.
type Struct struct {
	Trivia
	Name   string
	Fields []*Field
	Size   uint64
	FFI    []string
}

// Param is a function parameter. FFI is its ffi type descriptor.
type Param struct {
	Name string
	Sep  string
	Type *TypeExpr
	FFI  string
}

// Func is a native function binding: the symbol resolved by the loader and
// the Go wrapper calling it.
type Func struct {
	Trivia
	Name       string
	Symbol     string
	Var        string
	Params     []*Param
	Result     *TypeExpr
	ResultFFI  string
	ResultArg  bool
	ResultBool bool
}

// Placeholder stands in for a function pointer type that has no callable
// binding.
type Placeholder struct {
	Trivia
	Name string
	Type string
}
