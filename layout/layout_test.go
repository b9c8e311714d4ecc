package layout

import (
	"errors"
	"testing"

	"github.com/ardanlabs/ffi-bindgen/cast"
)

func builtin(k cast.BuiltinKind) cast.Type { return &cast.Builtin{Kind: k} }

func record(name string, union bool, fields ...*cast.FieldDecl) *cast.RecordDecl {
	r := &cast.RecordDecl{Name: name, Union: union, Fields: fields}
	r.Def = r
	return r
}

func field(name string, t cast.Type) *cast.FieldDecl {
	return &cast.FieldDecl{Name: name, Type: t}
}

func linux64(t *testing.T) *Calculator {
	t.Helper()
	abi, err := ABIFor("linux", "amd64")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return New(abi)
}

func TestCompute_NaturalAlignment(t *testing.T) {
	r := record("mixed", false,
		field("a", builtin(cast.Int32)),
		field("b", builtin(cast.Int8)),
		field("c", builtin(cast.Int64)),
	)

	info, err := linux64(t).Compute(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []uint64{0, 4, 8}
	for i, f := range info.Fields {
		if f.Offset != want[i] {
			t.Errorf("field %s: expected offset %d, got %d", f.Name, want[i], f.Offset)
		}
	}
	if info.Size != 16 {
		t.Errorf("expected size 16, got %d", info.Size)
	}
	if info.Align != 8 {
		t.Errorf("expected align 8, got %d", info.Align)
	}
}

func TestCompute_Layouts(t *testing.T) {
	inner := record("inner", false,
		field("x", builtin(cast.Char)),
		field("y", builtin(cast.Double)),
	)

	tests := []struct {
		name    string
		rec     *cast.RecordDecl
		offsets []uint64
		size    uint64
		align   uint32
	}{
		{
			name:    "empty",
			rec:     record("empty", false),
			offsets: nil,
			size:    0,
			align:   1,
		},
		{
			name:    "trailing padding",
			rec:     record("tail", false, field("a", builtin(cast.Int64)), field("b", builtin(cast.Char))),
			offsets: []uint64{0, 8},
			size:    16,
			align:   8,
		},
		{
			name:    "pointer and short",
			rec:     record("ptr", false, field("s", builtin(cast.Short)), field("p", &cast.Pointer{Elem: builtin(cast.Void)})),
			offsets: []uint64{0, 8},
			size:    16,
			align:   8,
		},
		{
			name:    "array",
			rec:     record("arr", false, field("tag", builtin(cast.Char)), field("v", &cast.Array{Elem: builtin(cast.Float), Len: 3})),
			offsets: []uint64{0, 4},
			size:    16,
			align:   4,
		},
		{
			name:    "nested",
			rec:     record("outer", false, field("n", builtin(cast.Short)), field("in", &cast.RecordType{Decl: inner})),
			offsets: []uint64{0, 8},
			size:    24,
			align:   8,
		},
		{
			name:    "union",
			rec:     record("value", true, field("i", builtin(cast.Int)), field("d", builtin(cast.Double)), field("c", &cast.Array{Elem: builtin(cast.Char), Len: 10})),
			offsets: []uint64{0, 0, 0},
			size:    16,
			align:   8,
		},
		{
			name:    "union growing members",
			rec:     record("value", true, field("c", builtin(cast.Char)), field("i", builtin(cast.Int)), field("d", builtin(cast.Double))),
			offsets: []uint64{0, 0, 0},
			size:    8,
			align:   8,
		},
		{
			name: "enum field",
			rec: record("tagged", false,
				field("kind", &cast.EnumType{Decl: &cast.EnumDecl{Name: "kind", Underlying: builtin(cast.UInt)}}),
				field("flag", builtin(cast.Bool)),
			),
			offsets: []uint64{0, 4},
			size:    8,
			align:   4,
		},
	}

	calc := linux64(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := calc.Compute(tt.rec)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(info.Fields) != len(tt.offsets) {
				t.Fatalf("expected %d fields, got %d", len(tt.offsets), len(info.Fields))
			}
			for i, f := range info.Fields {
				if f.Offset != tt.offsets[i] {
					t.Errorf("field %s: expected offset %d, got %d", f.Name, tt.offsets[i], f.Offset)
				}
			}
			if info.Size != tt.size {
				t.Errorf("expected size %d, got %d", tt.size, info.Size)
			}
			if info.Align != tt.align {
				t.Errorf("expected align %d, got %d", tt.align, info.Align)
			}
			if info.Size%uint64(info.Align) != 0 {
				t.Errorf("size %d is not a multiple of align %d", info.Size, info.Align)
			}
		})
	}
}

func TestCompute_ForwardReferenceUsesDefinition(t *testing.T) {
	def := record("node", false, field("v", builtin(cast.Int)))
	fwd := &cast.RecordDecl{Name: "node", Def: def}

	info, err := linux64(t).Compute(fwd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Size != 4 {
		t.Errorf("expected size 4, got %d", info.Size)
	}
}

func TestCompute_Errors(t *testing.T) {
	opaque := &cast.RecordDecl{Name: "opaque"}

	tests := []struct {
		name string
		rec  *cast.RecordDecl
		want error
	}{
		{"unresolved typedef", record("r", false, field("h", &cast.TypedefType{Name: "handle_t"})), ErrUnresolvedType},
		{"incomplete record", record("r", false, field("o", &cast.RecordType{Decl: opaque})), ErrUnresolvedType},
		{"void field", record("r", false, field("v", builtin(cast.Void))), ErrUnresolvedType},
		{"flexible array", record("r", false, field("n", builtin(cast.Int)), field("data", &cast.Array{Elem: builtin(cast.Char), Len: -1})), ErrUnresolvedType},
		{"bit-field", record("r", false, &cast.FieldDecl{Name: "flags", Type: builtin(cast.UInt), BitField: true, BitWidth: 3}), ErrUnsupportedConstruct},
		{"function by value", record("r", false, field("fn", &cast.FunctionType{Result: builtin(cast.Void)})), ErrUnsupportedConstruct},
	}

	calc := linux64(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := calc.Compute(tt.rec)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestCompute_TypedefResolution(t *testing.T) {
	td := &cast.TypedefDecl{Name: "real_t", Underlying: builtin(cast.Double)}
	r := record("r", false,
		field("a", &cast.TypedefType{Name: "uint16_t"}),
		field("b", &cast.TypedefType{Name: "real_t", Decl: td}),
	)

	info, err := linux64(t).Compute(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Fields[1].Offset != 8 || info.Size != 16 {
		t.Errorf("expected b at 8 and size 16, got %d and %d", info.Fields[1].Offset, info.Size)
	}
}

func TestCompute_OpaqueAlias(t *testing.T) {
	handle := &cast.TypedefDecl{Name: "handle_t", Underlying: &cast.TypedefType{Name: "impl_t"}}
	r := record("r", false,
		field("flag", builtin(cast.Char)),
		field("h", &cast.TypedefType{Name: "handle_t", Decl: handle}),
	)

	info, err := linux64(t).Compute(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Fields[1].Offset != 8 || info.Fields[1].Size != 8 || info.Size != 16 {
		t.Errorf("expected pointer-sized handle at 8 and size 16, got %+v", info)
	}
}

func TestABI_LongSize(t *testing.T) {
	win, err := ABIFor("windows", "amd64")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := record("r", false, field("a", builtin(cast.Long)), field("b", builtin(cast.Long)))

	info, err := New(win).Compute(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Size != 8 {
		t.Errorf("expected LLP64 size 8, got %d", info.Size)
	}

	if _, err := ABIFor("plan9", "mips"); err == nil {
		t.Error("expected error for unknown target")
	}
}

func TestEnumKind(t *testing.T) {
	values := func(vs ...int64) []*cast.EnumConstantDecl {
		var out []*cast.EnumConstantDecl
		for _, v := range vs {
			out = append(out, &cast.EnumConstantDecl{Value: v})
		}
		return out
	}

	tests := []struct {
		name string
		enum *cast.EnumDecl
		want cast.BuiltinKind
	}{
		{"empty", &cast.EnumDecl{}, cast.UInt8},
		{"small", &cast.EnumDecl{Enumerators: values(0, 1, 2)}, cast.UInt8},
		{"uint16", &cast.EnumDecl{Enumerators: values(0, 300)}, cast.UInt16},
		{"uint32", &cast.EnumDecl{Enumerators: values(0, 1<<20)}, cast.UInt32},
		{"uint64", &cast.EnumDecl{Enumerators: values(1 << 40)}, cast.UInt64},
		{"int8", &cast.EnumDecl{Enumerators: values(-1, 1)}, cast.Int8},
		{"int16", &cast.EnumDecl{Enumerators: values(-1, 200)}, cast.Int16},
		{"int32", &cast.EnumDecl{Enumerators: values(-40000, 1)}, cast.Int32},
		{"int64", &cast.EnumDecl{Enumerators: values(-1 << 40)}, cast.Int64},
		{"reported", &cast.EnumDecl{Underlying: builtin(cast.UInt), Enumerators: values(0, 1)}, cast.UInt},
		{"reported float ignored", &cast.EnumDecl{Underlying: builtin(cast.Float), Enumerators: values(0, 1)}, cast.UInt8},
	}

	for _, tt := range tests {
		if got := EnumKind(tt.enum); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestAlignUp(t *testing.T) {
	tests := []struct {
		offset uint64
		align  uint32
		want   uint64
	}{
		{0, 8, 0},
		{1, 8, 8},
		{8, 8, 8},
		{9, 4, 12},
		{5, 1, 5},
		{5, 0, 5},
	}
	for _, tt := range tests {
		if got := AlignUp(tt.offset, tt.align); got != tt.want {
			t.Errorf("AlignUp(%d, %d): expected %d, got %d", tt.offset, tt.align, tt.want, got)
		}
	}
}
