package generator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ardanlabs/ffi-bindgen/cast"
	"github.com/ardanlabs/ffi-bindgen/layout"
	"github.com/ardanlabs/ffi-bindgen/syntax"
)

// builder accumulates the output buckets for one Generate call. It receives
// the explorer callbacks in discovery order.
type builder struct {
	opts  Options
	calc  *layout.Calculator
	types *TypeMap

	exported   *namespace
	unexported *namespace
	excluded   map[string]bool

	emitted map[*cast.RecordDecl]bool
	bound   map[string]bool

	constants    []*syntax.Const
	enums        []*syntax.Enum
	structs      []*syntax.Struct
	funcs        []*syntax.Func
	placeholders []*syntax.Placeholder
	warnings     []Warning
}

func newBuilder(opts Options) *builder {
	b := builder{
		opts:       opts,
		calc:       layout.New(opts.ABI),
		types:      NewTypeMap(opts.ABI),
		exported:   newNamespace("LibraryName", "Load"),
		unexported: newNamespace("lib", "libraryPath", "loadFuncs"),
		excluded:   make(map[string]bool),
		emitted:    make(map[*cast.RecordDecl]bool),
		bound:      make(map[string]bool),
	}
	for _, name := range opts.Exclude {
		b.excluded[name] = true
	}
	return &b
}

func (b *builder) warn(loc cast.Location, name, format string, args ...any) {
	b.warnings = append(b.warnings, Warning{
		Location: loc,
		Name:     name,
		Message:  fmt.Sprintf(format, args...),
	})
}

// =============================================================================
// Naming pass

// indexer names every record, enum and function pointer typedef before any
// output is built, so pointers to records defined later in the unit resolve
// to their Go type.
type indexer struct {
	b    *builder
	defs map[string]*cast.RecordDecl
}

func (ix *indexer) RecordFound(r *cast.RecordDecl) error {
	if r.Name != "" {
		key := r.Keyword() + " " + r.Name
		if prev, ok := ix.defs[key]; ok && prev != r {
			return fmt.Errorf("%w: %s also defined at %s", ErrDuplicateDefinition, key, prev.Loc)
		}
		ix.defs[key] = r
	}
	ix.b.nameRecord(r, "")
	return nil
}

func (ix *indexer) EnumFound(e *cast.EnumDecl) error {
	ix.b.types.Enum(e, ix.b.exported.claim(exportedName(enumName(e))))
	return nil
}

func (ix *indexer) FunctionProtoFound(t *cast.TypedefDecl) error {
	ix.b.types.Proto(t.Name, ix.b.exported.claim(exportedName(t.Name)))
	return nil
}

func (ix *indexer) EnumConstantFound(*cast.EnumConstantDecl) error { return nil }
func (ix *indexer) FunctionFound(*cast.FunctionDecl) error         { return nil }
func (ix *indexer) TypeAliasFound(*cast.TypedefDecl) error         { return nil }

func enumName(e *cast.EnumDecl) string {
	if e.Name != "" {
		return e.Name
	}
	return typeName(e.Spelling)
}

// nameRecord assigns a Go name to a record definition once. Anonymous
// records nested in another record take the name of their parent and field.
func (b *builder) nameRecord(def *cast.RecordDecl, hoisted string) string {
	if name, ok := b.types.records[def]; ok {
		return name
	}

	base := def.Name
	switch {
	case base != "":
	case def.Spelling != "":
		base = typeName(def.Spelling)
	case hoisted != "":
		base = hoisted
	default:
		base = "anonymous " + def.Keyword()
	}

	name := b.exported.claim(exportedName(base))
	b.types.Record(def, name)
	return name
}

// =============================================================================
// Explorer callbacks

func (b *builder) EnumFound(e *cast.EnumDecl) error {
	name := b.types.enums[e]
	kind := layout.EnumKind(e)

	base, err := b.types.Map(&cast.Builtin{Kind: kind})
	if err != nil {
		return err
	}

	en := syntax.Enum{
		Trivia: syntax.Trivia{Doc: []string{fmt.Sprintf("%s mirrors %s.", name, (&cast.EnumType{Decl: e}).Spelling())}},
		Name:   name,
		Type:   base.Type,
	}
	for _, c := range e.Enumerators {
		en.Values = append(en.Values, &syntax.Const{
			Name:  b.exported.claim(exportedName(c.Name)),
			Type:  name,
			Value: b.enumValue(kind, c.Value),
		})
	}

	b.enums = append(b.enums, &en)
	return nil
}

func (b *builder) EnumConstantFound(c *cast.EnumConstantDecl) error {
	b.constants = append(b.constants, &syntax.Const{
		Name:  b.exported.claim(exportedName(c.Name)),
		Value: strconv.FormatInt(c.Value, 10),
	})
	return nil
}

func (b *builder) RecordFound(r *cast.RecordDecl) error {
	return b.emitRecord(r)
}

func (b *builder) FunctionFound(f *cast.FunctionDecl) error {
	if b.excluded[f.Name] || b.bound[f.Name] {
		return nil
	}
	if f.Variadic {
		return fmt.Errorf("%w: variadic function", ErrUnsupportedConstruct)
	}
	b.bound[f.Name] = true

	fn := syntax.Func{
		Symbol:    f.Name,
		ResultFFI: ffiVoid,
	}

	if f.Result != nil {
		if err := b.require(f.Result, exportedName(f.Name)+"Result"); err != nil {
			return fmt.Errorf("result: %w", err)
		}

		t, err := b.types.Map(f.Result)
		if err != nil {
			return fmt.Errorf("result: %w", err)
		}
		if t.FuncPointer {
			b.warn(f.Loc, f.Name, "function pointer result bound as uintptr")
		}
		if t.Type != nil {
			fn.Result = t.Type
			fn.ResultFFI = t.FFI
			fn.ResultArg = t.Arg
			fn.ResultBool = t.Bool
		}
	}

	fn.Name = b.exported.claim(exportedName(f.Name))
	fn.Var = b.unexported.claim(localName(f.Name) + "Func")

	locals := newNamespace(append(predeclared, "result", "unsafe", "ffi", "lib", fn.Var)...)
	for i, p := range f.Params {
		pt := p.Type
		if a, ok := pt.(*cast.Array); ok {
			pt = &cast.Pointer{Elem: a.Elem}
		}

		if err := b.require(pt, exportedName(f.Name)+exportedName(p.Name)); err != nil {
			return fmt.Errorf("parameter %d %s: %w", i, p.Name, err)
		}

		t, err := b.types.Map(pt)
		if err != nil {
			return fmt.Errorf("parameter %d %s: %w", i, p.Name, err)
		}
		if t.Type == nil {
			return fmt.Errorf("%w: parameter %d %s is void", ErrUnresolvedType, i, p.Name)
		}
		if t.FuncPointer {
			b.warn(f.Loc, f.Name, "function pointer parameter %s bound as uintptr", p.Name)
		}

		name := localName(p.Name)
		if name == "" {
			name = fmt.Sprintf("arg%d", i)
		}

		fn.Params = append(fn.Params, &syntax.Param{
			Name: locals.claim(name),
			Type: t.Type,
			FFI:  t.FFI,
		})
	}

	fn.Doc = []string{fmt.Sprintf("%s calls %s.", fn.Name, prototype(f))}

	b.funcs = append(b.funcs, &fn)
	return nil
}

func (b *builder) TypeAliasFound(t *cast.TypedefDecl) error {
	if t.IsOpaque() {
		b.types.Opaque(t.Name)
		return nil
	}
	b.types.Alias(t.Name, t.Underlying)
	return nil
}

func (b *builder) FunctionProtoFound(t *cast.TypedefDecl) error {
	name := b.types.protos[t.Name]

	b.placeholders = append(b.placeholders, &syntax.Placeholder{
		Trivia: syntax.Trivia{Doc: []string{
			fmt.Sprintf("%s stands in for the function pointer type %s (%s).", name, t.Name, t.Underlying.Spelling()),
			"No callable binding is generated; pass a native function address.",
		}},
		Name: name,
		Type: "uintptr",
	})

	b.warn(t.Loc, t.Name, "function pointer type bound as %s (uintptr), callbacks are not generated", name)
	return nil
}

// =============================================================================
// Records

func (b *builder) emitRecord(r *cast.RecordDecl) error {
	def := r.Definition()
	if def == nil {
		return fmt.Errorf("%w: %s %s is never defined", ErrUnresolvedType, r.Keyword(), r.Name)
	}
	if b.emitted[def] {
		return nil
	}
	b.emitted[def] = true

	name := b.nameRecord(def, "")

	info, err := b.calc.Compute(def)
	if err != nil {
		return err
	}

	for _, f := range def.Fields {
		if err := b.require(f.Type, name+exportedName(f.Name)); err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}
	}

	s := syntax.Struct{
		Trivia: syntax.Trivia{Doc: []string{fmt.Sprintf("%s mirrors %s (size %d, align %d).",
			name, (&cast.RecordType{Decl: def}).Spelling(), info.Size, info.Align)}},
		Name: name,
		Size: info.Size,
	}

	if def.Union {
		b.unionFields(&s, def, info)
	} else if err := b.structFields(&s, def, info); err != nil {
		return err
	}

	b.structs = append(b.structs, &s)
	return nil
}

// require emits the records a field embeds by value before the record that
// embeds them: anonymous nested records and records skipped by the explorer.
func (b *builder) require(t cast.Type, hoisted string) error {
	switch x := b.types.resolve(t).(type) {
	case *cast.Array:
		return b.require(x.Elem, hoisted)
	case *cast.RecordType:
		def := x.Decl.Definition()
		if def == nil || b.emitted[def] {
			return nil
		}
		b.nameRecord(def, hoisted)
		return b.emitRecord(def)
	}
	return nil
}

func (b *builder) structFields(s *syntax.Struct, def *cast.RecordDecl, info layout.Info) error {
	fields := newNamespace()

	var offset uint64
	for i, f := range def.Fields {
		fo := info.Fields[i]
		if fo.Offset > offset {
			s.Fields = append(s.Fields, padding(offset, fo.Offset-offset))
		}

		t, err := b.types.Map(f.Type)
		if err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}
		if t.FuncPointer {
			b.warn(def.Loc, def.Name, "function pointer field %s bound as uintptr", f.Name)
		}

		name := exportedName(f.Name)
		if f.Name == "" {
			name = fmt.Sprintf("Field%d", i)
		}

		s.Fields = append(s.Fields, &syntax.Field{
			Trivia: syntax.Trivia{Doc: []string{fmt.Sprintf("offset %d: %s", fo.Offset, cdecl(f.Type, f.Name))}},
			Name:   fields.claim(name),
			Type:   t.Type,
		})
		s.FFI = append(s.FFI, t.Descriptor()...)

		offset = fo.Offset + fo.Size
	}

	if info.Size > offset {
		s.Fields = append(s.Fields, padding(offset, info.Size-offset))
	}

	return nil
}

// unionFields lays a union out as raw storage aligned like its strictest
// member.
func (b *builder) unionFields(s *syntax.Struct, def *cast.RecordDecl, info layout.Info) {
	align := min(info.Align, 8)
	anchor := sizedInt(false, uint64(align))
	if align == 1 {
		anchor = cast.UInt8
	}
	bt := builtinTargets[anchor]

	doc := make([]string, 0, len(def.Fields))
	for _, f := range def.Fields {
		doc = append(doc, fmt.Sprintf("offset 0: %s", cdecl(f.Type, f.Name)))
	}

	s.Fields = []*syntax.Field{
		{Name: "_", Type: syntax.ArrayOf(0, syntax.Named(bt.goType))},
		{Trivia: syntax.Trivia{Doc: doc}, Name: "Data", Type: syntax.ArrayOf(int64(info.Size), syntax.Named("byte"))},
	}

	for range info.Size / uint64(align) {
		s.FFI = append(s.FFI, bt.ffi)
	}
}

func padding(offset, n uint64) *syntax.Field {
	return &syntax.Field{
		Trivia: syntax.Trivia{Doc: []string{fmt.Sprintf("offset %d: padding", offset)}},
		Name:   "_",
		Type:   syntax.ArrayOf(int64(n), syntax.Named("byte")),
	}
}

// =============================================================================
// C spellings for comments

func cdecl(t cast.Type, name string) string {
	switch x := t.(type) {
	case *cast.Array:
		if x.Len < 0 {
			return fmt.Sprintf("%s %s[]", x.Elem.Spelling(), name)
		}
		return fmt.Sprintf("%s %s[%d]", x.Elem.Spelling(), name, x.Len)
	case *cast.Pointer:
		if _, ok := x.Elem.(*cast.FunctionType); ok {
			return strings.Replace(x.Spelling(), "(*)", "(*"+name+")", 1)
		}
	}
	if name == "" {
		return t.Spelling()
	}
	return t.Spelling() + " " + name
}

func prototype(f *cast.FunctionDecl) string {
	params := make([]string, 0, len(f.Params))
	for _, p := range f.Params {
		params = append(params, cdecl(p.Type, p.Name))
	}
	if len(params) == 0 {
		params = append(params, "void")
	}

	result := "void"
	if f.Result != nil {
		result = f.Result.Spelling()
	}

	return fmt.Sprintf("%s %s(%s)", result, f.Name, strings.Join(params, ", "))
}

// enumValue spells v for an enum backed by kind. Unsigned kinds reinterpret
// negative values in their own width.
func (b *builder) enumValue(kind cast.BuiltinKind, v int64) string {
	size, _, _ := b.opts.ABI.Builtin(kind)
	switch kind {
	case cast.UChar, cast.UShort, cast.UInt, cast.ULong, cast.ULongLong,
		cast.UInt8, cast.UInt16, cast.UInt32, cast.UInt64, cast.SizeT, cast.UIntPtr:
		u := uint64(v)
		if size > 0 && size < 8 {
			u &= 1<<(8*size) - 1
		}
		return strconv.FormatUint(u, 10)
	}
	return strconv.FormatInt(v, 10)
}
