package generator

import (
	"fmt"

	"github.com/ardanlabs/ffi-bindgen/cast"
	"github.com/ardanlabs/ffi-bindgen/layout"
	"github.com/ardanlabs/ffi-bindgen/syntax"
)

const (
	ffiPointer = "&ffi.TypePointer"
	ffiVoid    = "&ffi.TypeVoid"
)

// Target is the Go side of a C type.
type Target struct {
	Type *syntax.TypeExpr
	FFI  string

	// Count is how many FFI elements the type spans inside a struct
	// descriptor: 1 for scalars, the flattened length for arrays.
	Count int64

	// Arg marks integers narrower than 8 bytes, which ffi returns through
	// ffi.Arg.
	Arg  bool
	Bool bool

	// FuncPointer marks a raw function pointer bound as uintptr.
	FuncPointer bool
}

// Descriptor returns the FFI elements the type contributes to a struct
// descriptor.
func (t Target) Descriptor() []string {
	out := make([]string, 0, t.Count)
	for range t.Count {
		out = append(out, t.FFI)
	}
	return out
}

type builtinTarget struct {
	goType string
	ffi    string
}

// builtinTargets maps fixed-width C kinds to Go. Kinds whose width depends on
// the ABI are narrowed to one of these first.
var builtinTargets = map[cast.BuiltinKind]builtinTarget{
	cast.Bool:      {"bool", "&ffi.TypeUint8"},
	cast.Char:      {"byte", "&ffi.TypeUint8"},
	cast.SChar:     {"int8", "&ffi.TypeSint8"},
	cast.UChar:     {"uint8", "&ffi.TypeUint8"},
	cast.Short:     {"int16", "&ffi.TypeSint16"},
	cast.UShort:    {"uint16", "&ffi.TypeUint16"},
	cast.Int:       {"int32", "&ffi.TypeSint32"},
	cast.UInt:      {"uint32", "&ffi.TypeUint32"},
	cast.LongLong:  {"int64", "&ffi.TypeSint64"},
	cast.ULongLong: {"uint64", "&ffi.TypeUint64"},
	cast.Int8:      {"int8", "&ffi.TypeSint8"},
	cast.Int16:     {"int16", "&ffi.TypeSint16"},
	cast.Int32:     {"int32", "&ffi.TypeSint32"},
	cast.Int64:     {"int64", "&ffi.TypeSint64"},
	cast.UInt8:     {"uint8", "&ffi.TypeUint8"},
	cast.UInt16:    {"uint16", "&ffi.TypeUint16"},
	cast.UInt32:    {"uint32", "&ffi.TypeUint32"},
	cast.UInt64:    {"uint64", "&ffi.TypeUint64"},
	cast.UIntPtr:   {"uintptr", ffiPointer},
	cast.Float:     {"float32", "&ffi.TypeFloat"},
	cast.Double:    {"float64", "&ffi.TypeDouble"},
}

// TypeMap maps C types to Go types. It consults the aliases, records, enums
// and function pointer placeholders registered while walking a unit.
type TypeMap struct {
	abi     layout.ABI
	aliases map[string]cast.Type
	protos  map[string]string
	opaque  map[string]bool
	records map[*cast.RecordDecl]string
	enums   map[*cast.EnumDecl]string
}

// NewTypeMap returns an empty map for the given ABI.
func NewTypeMap(abi layout.ABI) *TypeMap {
	return &TypeMap{
		abi:     abi,
		aliases: make(map[string]cast.Type),
		protos:  make(map[string]string),
		opaque:  make(map[string]bool),
		records: make(map[*cast.RecordDecl]string),
		enums:   make(map[*cast.EnumDecl]string),
	}
}

// Alias registers a typedef.
func (m *TypeMap) Alias(name string, underlying cast.Type) { m.aliases[name] = underlying }

// Opaque registers a typedef whose target the unit never defines. It maps to
// a pointer-sized handle.
func (m *TypeMap) Opaque(name string) { m.opaque[name] = true }

// Record registers the Go name of a record definition.
func (m *TypeMap) Record(def *cast.RecordDecl, name string) { m.records[def] = name }

// Enum registers the Go name of an enum.
func (m *TypeMap) Enum(e *cast.EnumDecl, name string) { m.enums[e] = name }

// Proto registers the placeholder type standing in for a function pointer
// typedef.
func (m *TypeMap) Proto(typedef, name string) { m.protos[typedef] = name }

// Map returns the Go mapping of t. A nil Type in the result means void.
func (m *TypeMap) Map(t cast.Type) (Target, error) {
	switch x := t.(type) {
	case *cast.Builtin:
		return m.builtin(x.Kind)

	case *cast.Pointer:
		return m.pointer(x)

	case *cast.Array:
		if x.Len < 0 {
			return Target{}, fmt.Errorf("%w: incomplete array %s", ErrUnresolvedType, x.Spelling())
		}
		elem, err := m.Map(x.Elem)
		if err != nil {
			return Target{}, err
		}
		if elem.Type == nil {
			return Target{}, fmt.Errorf("%w: array of void", ErrUnresolvedType)
		}
		return Target{
			Type:  syntax.ArrayOf(x.Len, elem.Type),
			FFI:   elem.FFI,
			Count: elem.Count * x.Len,
		}, nil

	case *cast.RecordType:
		def := x.Decl.Definition()
		if def == nil {
			return Target{}, fmt.Errorf("%w: %s is incomplete", ErrUnresolvedType, x.Spelling())
		}
		name, ok := m.records[def]
		if !ok {
			return Target{}, fmt.Errorf("%w: %s is not bound", ErrUnresolvedType, x.Spelling())
		}
		return Target{Type: syntax.Named(name), FFI: "&FFIType" + name, Count: 1}, nil

	case *cast.EnumType:
		target, err := m.builtin(layout.EnumKind(x.Decl))
		if err != nil {
			return Target{}, err
		}
		if name, ok := m.enums[x.Decl]; ok {
			target.Type = syntax.Named(name)
		}
		return target, nil

	case *cast.TypedefType:
		if k, ok := cast.BuiltinByName(x.Name); ok {
			return m.builtin(k)
		}
		if name, ok := m.protos[x.Name]; ok {
			return Target{Type: syntax.Named(name), FFI: ffiPointer, Count: 1}, nil
		}
		if m.opaque[x.Name] || x.Decl != nil && x.Decl.IsOpaque() {
			return Target{Type: syntax.Named("uintptr"), FFI: ffiPointer, Count: 1}, nil
		}
		if u, ok := m.aliases[x.Name]; ok {
			return m.Map(u)
		}
		if x.Decl != nil {
			return m.Map(x.Decl.Underlying)
		}
		return Target{}, fmt.Errorf("%w: %s", ErrUnresolvedType, x.Name)

	case *cast.FunctionType:
		return Target{}, fmt.Errorf("%w: function type %s used by value", ErrUnsupportedConstruct, x.Spelling())
	}

	return Target{}, fmt.Errorf("%w: %T", ErrUnresolvedType, t)
}

func (m *TypeMap) builtin(k cast.BuiltinKind) (Target, error) {
	switch k {
	case cast.Void:
		return Target{FFI: ffiVoid}, nil
	case cast.LongDouble, cast.Int128, cast.UInt128:
		return Target{}, fmt.Errorf("%w: %s has no Go equivalent", ErrUnsupportedConstruct, k)
	case cast.Long:
		k = sizedInt(true, m.abi.LongSize)
	case cast.ULong:
		k = sizedInt(false, m.abi.LongSize)
	case cast.SizeT:
		k = sizedInt(false, m.abi.PointerSize)
	case cast.SSizeT, cast.IntPtr, cast.PtrDiff:
		k = sizedInt(true, m.abi.PointerSize)
	}

	bt, ok := builtinTargets[k]
	if !ok {
		return Target{}, fmt.Errorf("%w: %s", ErrUnresolvedType, k)
	}

	size, _, _ := m.abi.Builtin(k)
	t := Target{Type: syntax.Named(bt.goType), FFI: bt.ffi, Count: 1}
	switch k {
	case cast.Bool:
		t.Bool = true
	case cast.Float, cast.Double, cast.UIntPtr:
	default:
		t.Arg = size < 8
	}

	return t, nil
}

func (m *TypeMap) pointer(p *cast.Pointer) (Target, error) {
	opaque := Target{Type: syntax.Named("uintptr"), FFI: ffiPointer, Count: 1}

	if cast.IsFunctionPointer(p) {
		if name, ok := m.proto(p.Elem); ok {
			return Target{Type: syntax.Named(name), FFI: ffiPointer, Count: 1}, nil
		}
		opaque.FuncPointer = true
		return opaque, nil
	}

	if b, ok := m.resolve(p.Elem).(*cast.Builtin); ok && b.Kind == cast.Void {
		return Target{Type: syntax.Named("unsafe.Pointer"), FFI: ffiPointer, Count: 1}, nil
	}

	if r, ok := m.resolve(p.Elem).(*cast.RecordType); ok {
		def := r.Decl.Definition()
		if def == nil {
			return opaque, nil
		}
		if _, ok := m.records[def]; !ok {
			return opaque, nil
		}
	}

	elem, err := m.Map(p.Elem)
	if err != nil || elem.Type == nil {
		return opaque, nil
	}

	return Target{Type: syntax.PointerTo(elem.Type), FFI: ffiPointer, Count: 1}, nil
}

func (m *TypeMap) proto(t cast.Type) (string, bool) {
	td, ok := t.(*cast.TypedefType)
	if !ok {
		return "", false
	}
	name, ok := m.protos[td.Name]
	return name, ok
}

// resolve looks through typedefs using the registered aliases first.
func (m *TypeMap) resolve(t cast.Type) cast.Type {
	for range 64 {
		td, ok := t.(*cast.TypedefType)
		if !ok {
			return t
		}
		if k, ok := cast.BuiltinByName(td.Name); ok {
			return &cast.Builtin{Kind: k}
		}
		switch u, ok := m.aliases[td.Name]; {
		case ok:
			t = u
		case td.Decl != nil:
			t = td.Decl.Underlying
		default:
			return t
		}
	}
	return t
}

func sizedInt(signed bool, size uint64) cast.BuiltinKind {
	switch size {
	case 4:
		if signed {
			return cast.Int32
		}
		return cast.UInt32
	case 2:
		if signed {
			return cast.Int16
		}
		return cast.UInt16
	}
	if signed {
		return cast.Int64
	}
	return cast.UInt64
}
