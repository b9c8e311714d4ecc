package cast

import (
	"fmt"
	"strings"
)

// Type is a C type reference.
type Type interface {
	Spelling() string
}

type BuiltinKind int

const (
	Void BuiltinKind = iota
	Bool
	Char
	SChar
	UChar
	Short
	UShort
	Int
	UInt
	Long
	ULong
	LongLong
	ULongLong
	Int8
	Int16
	Int32
	Int64
	UInt8
	UInt16
	UInt32
	UInt64
	SizeT
	SSizeT
	IntPtr
	UIntPtr
	PtrDiff
	Float
	Double
	LongDouble
	Int128
	UInt128
)

var builtinSpellings = [...]string{
	Void:       "void",
	Bool:       "bool",
	Char:       "char",
	SChar:      "signed char",
	UChar:      "unsigned char",
	Short:      "short",
	UShort:     "unsigned short",
	Int:        "int",
	UInt:       "unsigned int",
	Long:       "long",
	ULong:      "unsigned long",
	LongLong:   "long long",
	ULongLong:  "unsigned long long",
	Int8:       "int8_t",
	Int16:      "int16_t",
	Int32:      "int32_t",
	Int64:      "int64_t",
	UInt8:      "uint8_t",
	UInt16:     "uint16_t",
	UInt32:     "uint32_t",
	UInt64:     "uint64_t",
	SizeT:      "size_t",
	SSizeT:     "ssize_t",
	IntPtr:     "intptr_t",
	UIntPtr:    "uintptr_t",
	PtrDiff:    "ptrdiff_t",
	Float:      "float",
	Double:     "double",
	LongDouble: "long double",
	Int128:     "__int128",
	UInt128:    "unsigned __int128",
}

func (k BuiltinKind) String() string {
	if k < 0 || int(k) >= len(builtinSpellings) {
		return fmt.Sprintf("BuiltinKind(%d)", int(k))
	}
	return builtinSpellings[k]
}

// wellKnown maps typedef names from <stdint.h>, <stddef.h> and <stdbool.h> to
// the builtin they stand for, so bindings use fixed-width Go types for them.
var wellKnown = map[string]BuiltinKind{
	"_Bool":     Bool,
	"bool":      Bool,
	"int8_t":    Int8,
	"int16_t":   Int16,
	"int32_t":   Int32,
	"int64_t":   Int64,
	"uint8_t":   UInt8,
	"uint16_t":  UInt16,
	"uint32_t":  UInt32,
	"uint64_t":  UInt64,
	"size_t":    SizeT,
	"ssize_t":   SSizeT,
	"intptr_t":  IntPtr,
	"uintptr_t": UIntPtr,
	"ptrdiff_t": PtrDiff,
}

// BuiltinByName returns the builtin kind for a well-known typedef name.
func BuiltinByName(name string) (BuiltinKind, bool) {
	k, ok := wellKnown[name]
	return k, ok
}

type Builtin struct {
	Kind BuiltinKind
}

func (t *Builtin) Spelling() string { return t.Kind.String() }

type Pointer struct {
	Elem Type
}

func (t *Pointer) Spelling() string {
	if fn, ok := t.Elem.(*FunctionType); ok {
		return fn.spelling("(*)")
	}
	return t.Elem.Spelling() + "*"
}

// Array is a fixed array. Len is negative for an incomplete array.
type Array struct {
	Elem Type
	Len  int64
}

func (t *Array) Spelling() string {
	if t.Len < 0 {
		return t.Elem.Spelling() + "[]"
	}
	return fmt.Sprintf("%s[%d]", t.Elem.Spelling(), t.Len)
}

type RecordType struct {
	Decl *RecordDecl
}

func (t *RecordType) Spelling() string {
	if t.Decl.Spelling != "" {
		return t.Decl.Spelling
	}
	if t.Decl.Name == "" {
		return "anonymous " + t.Decl.Keyword()
	}
	return t.Decl.Keyword() + " " + t.Decl.Name
}

type EnumType struct {
	Decl *EnumDecl
}

func (t *EnumType) Spelling() string {
	if t.Decl.Spelling != "" {
		return t.Decl.Spelling
	}
	if t.Decl.Name == "" {
		return "anonymous enum"
	}
	return "enum " + t.Decl.Name
}

// TypedefType references a typedef name. Decl is nil when the name was never
// declared in the translation unit.
type TypedefType struct {
	Name string
	Decl *TypedefDecl
}

func (t *TypedefType) Spelling() string { return t.Name }

type FunctionType struct {
	Result   Type
	Params   []Type
	Variadic bool
}

func (t *FunctionType) Spelling() string { return t.spelling("") }

func (t *FunctionType) spelling(declarator string) string {
	params := make([]string, 0, len(t.Params)+1)
	for _, p := range t.Params {
		params = append(params, p.Spelling())
	}
	if t.Variadic {
		params = append(params, "...")
	}
	if len(params) == 0 {
		params = append(params, "void")
	}
	result := "void"
	if t.Result != nil {
		result = t.Result.Spelling()
	}
	if declarator == "" {
		return fmt.Sprintf("%s (%s)", result, strings.Join(params, ", "))
	}
	return fmt.Sprintf("%s %s(%s)", result, declarator, strings.Join(params, ", "))
}

// IsFunctionPointer reports whether t is a function type or a pointer to one,
// looking through typedefs.
func IsFunctionPointer(t Type) bool {
	for {
		switch x := t.(type) {
		case *FunctionType:
			return true
		case *Pointer:
			_, ok := Resolve(x.Elem).(*FunctionType)
			return ok
		case *TypedefType:
			if x.Decl == nil {
				return false
			}
			t = x.Decl.Underlying
		default:
			return false
		}
	}
}

// Resolve strips typedefs that have a known declaration.
func Resolve(t Type) Type {
	for {
		td, ok := t.(*TypedefType)
		if !ok || td.Decl == nil {
			return t
		}
		t = td.Decl.Underlying
	}
}
