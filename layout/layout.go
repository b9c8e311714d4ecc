// Package layout reproduces the native memory layout of C records: per-field
// byte offsets, total size and alignment under the default (non-packed)
// struct layout rules of a target ABI.
package layout

import (
	"errors"
	"fmt"
	"math"

	"github.com/ardanlabs/ffi-bindgen/cast"
)

var (
	// ErrUnresolvedType reports a type with no known size or mapping.
	ErrUnresolvedType = errors.New("unresolved type")

	// ErrUnsupportedConstruct reports a C construct outside the supported
	// mapping, such as a bit-field.
	ErrUnsupportedConstruct = errors.New("unsupported construct")
)

// FieldOffset is the placement of one field inside its record.
type FieldOffset struct {
	Name   string
	Offset uint64
	Size   uint64
	Align  uint32
}

// Info is the layout of one record.
type Info struct {
	Size   uint64
	Align  uint32
	Fields []FieldOffset
}

type Calculator struct {
	ABI ABI
}

func New(abi ABI) *Calculator {
	return &Calculator{ABI: abi}
}

// Compute returns the layout of a record. Each call is independent; nothing is
// cached between records.
func (c *Calculator) Compute(r *cast.RecordDecl) (Info, error) {
	return c.compute(r, map[*cast.RecordDecl]bool{})
}

// SizeAlign returns the size and alignment of a value of type t.
func (c *Calculator) SizeAlign(t cast.Type) (uint64, uint32, error) {
	return c.sizeAlign(t, map[*cast.RecordDecl]bool{})
}

func (c *Calculator) compute(r *cast.RecordDecl, visiting map[*cast.RecordDecl]bool) (Info, error) {
	def := r.Definition()
	if def == nil {
		return Info{}, fmt.Errorf("%w: %s %s is never defined", ErrUnresolvedType, r.Keyword(), r.Name)
	}
	if visiting[def] {
		return Info{}, fmt.Errorf("%w: %s %s contains itself", ErrUnresolvedType, def.Keyword(), def.Name)
	}
	visiting[def] = true
	defer delete(visiting, def)

	info := Info{
		Align:  1,
		Fields: make([]FieldOffset, 0, len(def.Fields)),
	}

	var offset uint64
	for _, f := range def.Fields {
		if f.BitField {
			return Info{}, fmt.Errorf("%w: bit-field %s (width %d)", ErrUnsupportedConstruct, f.Name, f.BitWidth)
		}

		size, align, err := c.sizeAlign(f.Type, visiting)
		if err != nil {
			return Info{}, fmt.Errorf("field %s: %w", f.Name, err)
		}

		var fieldOffset uint64
		switch {
		case !def.Union:
			fieldOffset = AlignUp(offset, align)
			offset = fieldOffset + size
		case size > offset:
			offset = size
		}

		info.Fields = append(info.Fields, FieldOffset{
			Name:   f.Name,
			Offset: fieldOffset,
			Size:   size,
			Align:  align,
		})

		if align > info.Align {
			info.Align = align
		}
	}

	info.Size = AlignUp(offset, info.Align)

	return info, nil
}

func (c *Calculator) sizeAlign(t cast.Type, visiting map[*cast.RecordDecl]bool) (uint64, uint32, error) {
	switch x := t.(type) {
	case *cast.Builtin:
		size, align, ok := c.ABI.Builtin(x.Kind)
		if !ok {
			return 0, 0, fmt.Errorf("%w: %s has no size", ErrUnresolvedType, x.Spelling())
		}
		return size, align, nil

	case *cast.Pointer:
		return c.ABI.PointerSize, c.ABI.PointerAlign(), nil

	case *cast.Array:
		if x.Len < 0 {
			return 0, 0, fmt.Errorf("%w: incomplete array %s", ErrUnresolvedType, x.Spelling())
		}
		size, align, err := c.sizeAlign(x.Elem, visiting)
		if err != nil {
			return 0, 0, err
		}
		if x.Len > 0 && size > math.MaxUint64/uint64(x.Len) {
			return 0, 0, fmt.Errorf("%w: array %s overflows", ErrUnsupportedConstruct, x.Spelling())
		}
		return size * uint64(x.Len), align, nil

	case *cast.RecordType:
		info, err := c.compute(x.Decl, visiting)
		if err != nil {
			return 0, 0, err
		}
		return info.Size, info.Align, nil

	case *cast.EnumType:
		size, align, _ := c.ABI.Builtin(EnumKind(x.Decl))
		return size, align, nil

	case *cast.TypedefType:
		if k, ok := cast.BuiltinByName(x.Name); ok {
			return c.sizeAlign(&cast.Builtin{Kind: k}, visiting)
		}
		if x.Decl == nil {
			return 0, 0, fmt.Errorf("%w: %s", ErrUnresolvedType, x.Name)
		}
		if x.Decl.IsOpaque() {
			return c.ABI.PointerSize, c.ABI.PointerAlign(), nil
		}
		return c.sizeAlign(x.Decl.Underlying, visiting)

	case *cast.FunctionType:
		return 0, 0, fmt.Errorf("%w: function type %s used by value", ErrUnsupportedConstruct, x.Spelling())
	}

	return 0, 0, fmt.Errorf("%w: %T", ErrUnresolvedType, t)
}

// AlignUp rounds offset up to the next multiple of align.
func AlignUp(offset uint64, align uint32) uint64 {
	if align <= 1 {
		return offset
	}
	a := uint64(align)
	return (offset + a - 1) / a * a
}

// EnumKind returns the integer kind backing an enum: the front end's
// underlying type when reported, else the smallest kind that holds every
// enumerator.
func EnumKind(e *cast.EnumDecl) cast.BuiltinKind {
	if e.Underlying != nil {
		if k, ok := integerKind(e.Underlying); ok {
			return k
		}
	}

	if len(e.Enumerators) == 0 {
		return cast.UInt8
	}

	lo, hi := e.Enumerators[0].Value, e.Enumerators[0].Value
	for _, c := range e.Enumerators[1:] {
		lo = min(lo, c.Value)
		hi = max(hi, c.Value)
	}

	if lo >= 0 {
		switch {
		case hi <= math.MaxUint8:
			return cast.UInt8
		case hi <= math.MaxUint16:
			return cast.UInt16
		case hi <= math.MaxUint32:
			return cast.UInt32
		}
		return cast.UInt64
	}

	switch {
	case lo >= math.MinInt8 && hi <= math.MaxInt8:
		return cast.Int8
	case lo >= math.MinInt16 && hi <= math.MaxInt16:
		return cast.Int16
	case lo >= math.MinInt32 && hi <= math.MaxInt32:
		return cast.Int32
	}
	return cast.Int64
}

func integerKind(t cast.Type) (cast.BuiltinKind, bool) {
	switch x := t.(type) {
	case *cast.Builtin:
		switch x.Kind {
		case cast.Void, cast.Float, cast.Double, cast.LongDouble:
			return 0, false
		}
		return x.Kind, true
	case *cast.TypedefType:
		if k, ok := cast.BuiltinByName(x.Name); ok {
			return k, true
		}
		if x.Decl != nil {
			return integerKind(x.Decl.Underlying)
		}
	}
	return 0, false
}
