package cast

import "testing"

func TestSpelling(t *testing.T) {
	point := &RecordDecl{Name: "point"}
	point.Def = point
	anon := &RecordDecl{Spelling: "vec2"}

	tests := []struct {
		typ  Type
		want string
	}{
		{&Builtin{Kind: UInt}, "unsigned int"},
		{&Pointer{Elem: &Builtin{Kind: Char}}, "char*"},
		{&Pointer{Elem: &Pointer{Elem: &Builtin{Kind: Char}}}, "char**"},
		{&Array{Elem: &Builtin{Kind: Float}, Len: 4}, "float[4]"},
		{&Array{Elem: &Builtin{Kind: Float}, Len: -1}, "float[]"},
		{&RecordType{Decl: point}, "struct point"},
		{&RecordType{Decl: anon}, "vec2"},
		{&RecordType{Decl: &RecordDecl{Union: true}}, "anonymous union"},
		{&EnumType{Decl: &EnumDecl{}}, "anonymous enum"},
		{&EnumType{Decl: &EnumDecl{Name: "color"}}, "enum color"},
		{&Pointer{Elem: &FunctionType{Result: &Builtin{Kind: Void}, Params: []Type{&Builtin{Kind: Int}}}}, "void (*)(int)"},
		{&FunctionType{Result: &Builtin{Kind: Int}}, "int (void)"},
	}

	for _, tt := range tests {
		if got := tt.typ.Spelling(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}

func TestIsFunctionPointer(t *testing.T) {
	fn := &FunctionType{Result: &Builtin{Kind: Void}}
	cb := &TypedefDecl{Name: "cb_t", Underlying: &Pointer{Elem: fn}}
	handler := &TypedefDecl{Name: "handler_t", Underlying: &TypedefType{Name: "cb_t", Decl: cb}}
	proto := &TypedefDecl{Name: "proto_t", Underlying: fn}

	if !cb.IsFunctionProto() {
		t.Error("pointer to function typedef should be a function proto")
	}
	if !handler.IsFunctionProto() {
		t.Error("typedef of a function pointer typedef should be a function proto")
	}
	if !proto.IsFunctionProto() {
		t.Error("function typedef should be a function proto")
	}

	plain := &TypedefDecl{Name: "handle_t", Underlying: &Pointer{Elem: &Builtin{Kind: Void}}}
	if plain.IsFunctionProto() {
		t.Error("void pointer typedef is not a function proto")
	}
	if IsFunctionPointer(&TypedefType{Name: "unknown_t"}) {
		t.Error("unresolved typedef is not a function pointer")
	}
}

func TestIsOpaque(t *testing.T) {
	opaque := &RecordDecl{Name: "impl"}
	defined := &RecordDecl{Name: "point"}
	defined.Def = defined
	handle := &TypedefDecl{Name: "handle_t", Underlying: &TypedefType{Name: "impl_t"}}

	tests := []struct {
		name string
		decl *TypedefDecl
		want bool
	}{
		{"undeclared name", handle, true},
		{"incomplete record", &TypedefDecl{Name: "impl_t", Underlying: &RecordType{Decl: opaque}}, true},
		{"through typedef", &TypedefDecl{Name: "h2", Underlying: &TypedefType{Name: "handle_t", Decl: handle}}, true},
		{"defined record", &TypedefDecl{Name: "point_t", Underlying: &RecordType{Decl: defined}}, false},
		{"well-known name", &TypedefDecl{Name: "u32", Underlying: &TypedefType{Name: "uint32_t"}}, false},
		{"pointer to incomplete", &TypedefDecl{Name: "impl_p", Underlying: &Pointer{Elem: &RecordType{Decl: opaque}}}, false},
	}

	for _, tt := range tests {
		if got := tt.decl.IsOpaque(); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestBuiltinByName(t *testing.T) {
	if k, ok := BuiltinByName("uint32_t"); !ok || k != UInt32 {
		t.Errorf("expected uint32_t to map to UInt32, got %v %v", k, ok)
	}
	if _, ok := BuiltinByName("FILE"); ok {
		t.Error("FILE is not a builtin")
	}
}
