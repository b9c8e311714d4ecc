package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/ardanlabs/ffi-bindgen/cast"
	"github.com/ardanlabs/ffi-bindgen/generator"
	"github.com/ardanlabs/ffi-bindgen/layout"
)

func linux64(t *testing.T) layout.ABI {
	t.Helper()

	abi, err := layout.ABIFor("linux", "amd64")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return abi
}

func TestParseFile(t *testing.T) {
	tu, err := ParseFile("testdata/sample.h")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tu.File != "testdata/sample.h" {
		t.Errorf("expected file testdata/sample.h, got %s", tu.File)
	}

	want := []struct {
		kind string
		name string
		line int
	}{
		{"typedef", "sample_ctx", 17},
		{"enum", "", 19},
		{"typedef", "sample_status", 19},
		{"enum", "sample_flags", 25},
		{"record", "", 32},
		{"typedef", "sample_point", 32},
		{"record", "sample_node", 39},
		{"typedef", "sample_log_fn", 48},
		{"function", "sample_open", 50},
		{"function", "sample_read", 51},
		{"function", "sample_close", 52},
		{"function", "sample_printf", 53},
	}

	if len(tu.Decls) != len(want) {
		for _, d := range tu.Decls {
			t.Logf("%T %s", d, d.DeclName())
		}
		t.Fatalf("expected %d declarations, got %d", len(want), len(tu.Decls))
	}

	for i, w := range want {
		d := tu.Decls[i]

		var kind string
		switch d.(type) {
		case *cast.TypedefDecl:
			kind = "typedef"
		case *cast.EnumDecl:
			kind = "enum"
		case *cast.RecordDecl:
			kind = "record"
		case *cast.FunctionDecl:
			kind = "function"
		}

		if kind != w.kind || d.DeclName() != w.name {
			t.Errorf("decl %d: expected %s %q, got %s %q", i, w.kind, w.name, kind, d.DeclName())
		}
		if loc := d.Location(); loc.Line != w.line || loc.File != "testdata/sample.h" {
			t.Errorf("decl %d: expected line %d, got %s", i, w.line, loc)
		}
	}
}

func TestParse_Enums(t *testing.T) {
	tu, err := ParseFile("testdata/sample.h")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	status := tu.Decls[1].(*cast.EnumDecl)
	if status.Spelling != "sample_status" {
		t.Errorf("expected spelling sample_status, got %q", status.Spelling)
	}

	flags := tu.Decls[3].(*cast.EnumDecl)

	tests := []struct {
		enum  *cast.EnumDecl
		index int
		name  string
		value int64
	}{
		{status, 0, "SAMPLE_OK", 0},
		{status, 1, "SAMPLE_ERR_IO", -2},
		{status, 2, "SAMPLE_ERR_MEM", -1},
		{flags, 1, "SAMPLE_FLAG_READ", 1},
		{flags, 2, "SAMPLE_FLAG_WRITE", 2},
		{flags, 3, "SAMPLE_FLAG_ALL", 3},
	}

	for _, tt := range tests {
		c := tt.enum.Enumerators[tt.index]
		if c.Name != tt.name || c.Value != tt.value {
			t.Errorf("expected %s = %d, got %s = %d", tt.name, tt.value, c.Name, c.Value)
		}
	}

	if k := layout.EnumKind(status); k != cast.Int {
		t.Errorf("expected signed enum backed by int, got %s", k)
	}
	if k := layout.EnumKind(flags); k != cast.UInt {
		t.Errorf("expected unsigned enum backed by unsigned int, got %s", k)
	}
}

func TestParse_Records(t *testing.T) {
	tu, err := ParseFile("testdata/sample.h")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	point := tu.Decls[4].(*cast.RecordDecl)
	if point.Spelling != "sample_point" || !point.IsDefinition() {
		t.Fatalf("expected defined record spelled sample_point, got %q", point.Spelling)
	}

	var fields []string
	for _, f := range point.Fields {
		fields = append(fields, f.Type.Spelling()+" "+f.Name)
	}
	got := strings.Join(fields, "; ")
	want := "int32_t x; int32_t y; uint8_t tag; char* label; double[4] weights"
	if got != want {
		t.Errorf("expected fields\n%s\ngot\n%s", want, got)
	}

	node := tu.Decls[6].(*cast.RecordDecl)
	next := node.Fields[0].Type.(*cast.Pointer).Elem.(*cast.RecordType)
	if next.Decl.Definition() != node {
		t.Error("expected self reference to link to the definition")
	}

	value := node.Fields[1].Type.(*cast.RecordType)
	if !value.Decl.Union || len(value.Decl.Fields) != 2 {
		t.Errorf("expected nested union with two fields, got %+v", value.Decl)
	}

	if !cast.IsFunctionPointer(node.Fields[2].Type) {
		t.Errorf("expected visit to be a function pointer, got %s", node.Fields[2].Type.Spelling())
	}

	info, err := layout.New(linux64(t)).Compute(node)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Size != 24 || info.Align != 8 {
		t.Errorf("expected size 24 align 8, got size %d align %d", info.Size, info.Align)
	}

	ctx := tu.Decls[0].(*cast.TypedefDecl)
	opaque := ctx.Underlying.(*cast.RecordType)
	if opaque.Decl.Definition() != nil {
		t.Error("expected opaque record to stay undefined")
	}
}

func TestParse_Functions(t *testing.T) {
	tu, err := ParseFile("testdata/sample.h")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	read := tu.Decls[9].(*cast.FunctionDecl)
	if len(read.Params) != 3 || read.Params[2].Name != "len" {
		t.Fatalf("expected three params ending in len, got %+v", read.Params)
	}
	if got := read.Params[1].Type.Spelling(); got != "uint8_t*" {
		t.Errorf("expected uint8_t*, got %s", got)
	}
	if got := read.Result.Spelling(); got != "sample_status" {
		t.Errorf("expected sample_status result, got %s", got)
	}
	if read.Params[0].Type.(*cast.Pointer).Elem.(*cast.TypedefType).Decl == nil {
		t.Error("expected sample_ctx to resolve to its typedef")
	}

	if printf := tu.Decls[11].(*cast.FunctionDecl); !printf.Variadic {
		t.Error("expected sample_printf to be variadic")
	}

	logFn := tu.Decls[7].(*cast.TypedefDecl)
	if !logFn.IsFunctionProto() {
		t.Errorf("expected sample_log_fn to be a function prototype, got %s", logFn.Underlying.Spelling())
	}
}

func TestParse_StaticFunctions(t *testing.T) {
	tu, err := Parse("static int helper(int x);\nint api(int x);\nstatic inline int twice(int x) { return x * 2; }\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(tu.Decls) != 1 {
		t.Fatalf("expected only the non-static prototype, got %d declarations", len(tu.Decls))
	}
	if fn := tu.Decls[0].(*cast.FunctionDecl); fn.Name != "api" {
		t.Errorf("expected api, got %s", fn.Name)
	}
}

func TestParse_Generate(t *testing.T) {
	tu, err := ParseFile("testdata/sample.h")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	g := generator.New(generator.Options{
		Package:     "sample",
		LibraryName: "sample",
		Header:      "testdata/sample.h",
		ABI:         linux64(t),
		Exclude:     []string{"sample_printf"},
	})

	res, err := g.Generate(tu, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	src := string(res.Source)
	for _, want := range []string{
		"func SampleOpen(",
		"func SampleRead(",
		"func SampleClose(",
		"type SamplePoint struct",
		"type SampleNode struct",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
	if strings.Contains(src, "SamplePrintf") {
		t.Error("expected excluded function to be skipped")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"packed", "struct p { char a; int b; } __attribute__((packed));", layout.ErrUnsupportedConstruct},
		{"sizeof", "enum e { A = sizeof(int) };", layout.ErrUnsupportedConstruct},
	}

	for _, tt := range tests {
		if _, err := Parse(tt.src); !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}

	for _, src := range []string{
		"struct { int a; ",
		"int f(int a;",
		"enum e { A = B };",
		"enum e { A = 1 / 0 };",
	} {
		if _, err := Parse(src); err == nil {
			t.Errorf("%q: expected error", src)
		}
	}
}

func TestParse_Declarators(t *testing.T) {
	src := `
typedef unsigned long long u64;
typedef int matrix[2][3];
typedef void handler(int);
struct s { unsigned flags : 3; int (*table)[4]; };
extern int counter;
long double precise(void);
`
	tu, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		index int
		want  string
	}{
		{0, "unsigned long long"},
		{1, "int[3][2]"},
		{2, "void (int)"},
	}

	for _, tt := range tests {
		td := tu.Decls[tt.index].(*cast.TypedefDecl)
		if got := td.Underlying.Spelling(); got != tt.want {
			t.Errorf("%s: expected %s, got %s", td.Name, tt.want, got)
		}
	}

	m := tu.Decls[1].(*cast.TypedefDecl).Underlying.(*cast.Array)
	if m.Len != 2 || m.Elem.(*cast.Array).Len != 3 {
		t.Errorf("expected int[2][3] nesting, got %s", m.Spelling())
	}

	s := tu.Decls[3].(*cast.RecordDecl)
	if f := s.Fields[0]; !f.BitField || f.BitWidth != 3 {
		t.Errorf("expected 3-bit field, got %+v", f)
	}

	if len(tu.Decls) != 5 {
		t.Fatalf("expected variables to be skipped, got %d declarations", len(tu.Decls))
	}
	fn := tu.Decls[4].(*cast.FunctionDecl)
	if k := fn.Result.(*cast.Builtin).Kind; k != cast.LongDouble {
		t.Errorf("expected long double result, got %s", k)
	}
}

func TestRemoveDirectives(t *testing.T) {
	src := "#ifdef __cplusplus\nextern \"C\" {\n#endif\nint a;\n#define X \\\n  1\nint b;\n#ifdef __cplusplus\n}\n#endif\n"

	got := removeDirectives(src)
	want := "\n\n\nint a;\n\n\nint b;\n\n\n\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
