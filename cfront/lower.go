package cfront

import (
	"fmt"

	"modernc.org/cc/v3"

	"github.com/ardanlabs/ffi-bindgen/cast"
	"github.com/ardanlabs/ffi-bindgen/layout"
)

var builtinKinds = map[cc.Kind]cast.BuiltinKind{
	cc.Void:       cast.Void,
	cc.Bool:       cast.Bool,
	cc.Char:       cast.Char,
	cc.SChar:      cast.SChar,
	cc.UChar:      cast.UChar,
	cc.Short:      cast.Short,
	cc.UShort:     cast.UShort,
	cc.Int:        cast.Int,
	cc.UInt:       cast.UInt,
	cc.Long:       cast.Long,
	cc.ULong:      cast.ULong,
	cc.LongLong:   cast.LongLong,
	cc.ULongLong:  cast.ULongLong,
	cc.Int8:       cast.Int8,
	cc.Int16:      cast.Int16,
	cc.Int32:      cast.Int32,
	cc.Int64:      cast.Int64,
	cc.UInt8:      cast.UInt8,
	cc.UInt16:     cast.UInt16,
	cc.UInt32:     cast.UInt32,
	cc.UInt64:     cast.UInt64,
	cc.Float:      cast.Float,
	cc.Float32:    cast.Float,
	cc.Double:     cast.Double,
	cc.Float64:    cast.Double,
	cc.LongDouble: cast.LongDouble,
	cc.Int128:     cast.Int128,
	cc.UInt128:    cast.UInt128,
}

// sizedKinds maps a byte size to its unsigned and signed kinds.
var sizedKinds = map[uintptr][2]cast.BuiltinKind{
	1: {cast.UInt8, cast.Int8},
	2: {cast.UInt16, cast.Int16},
	4: {cast.UInt32, cast.Int32},
	8: {cast.UInt64, cast.Int64},
}

// lowerer converts cc declarations to cast nodes. Tagged records and enums
// get one node each, shared by every reference; forward declarations get
// their own node linked to the definition at the end.
type lowerer struct {
	tu   *cast.TranslationUnit
	main string
	dirs []string

	typedefs map[string]*cast.TypedefDecl
	records  map[string]*cast.RecordDecl
	anon     map[cc.Type]*cast.RecordDecl
	enums    map[string]*cast.EnumDecl
	forwards []*cast.RecordDecl
}

func newLowerer(main string, dirs []string) *lowerer {
	return &lowerer{
		tu:       &cast.TranslationUnit{File: main},
		main:     main,
		dirs:     dirs,
		typedefs: make(map[string]*cast.TypedefDecl),
		records:  make(map[string]*cast.RecordDecl),
		anon:     make(map[cc.Type]*cast.RecordDecl),
		enums:    make(map[string]*cast.EnumDecl),
	}
}

func (l *lowerer) unit(n *cc.TranslationUnit) error {
	for ; n != nil; n = n.TranslationUnit {
		ed := n.ExternalDeclaration
		if ed == nil || ed.Declaration == nil {
			continue
		}

		pos := ed.Declaration.Position()
		if err := l.declaration(ed.Declaration); err != nil {
			if !inScope(pos.Filename, l.main, l.dirs) {
				continue
			}
			return fmt.Errorf("%s:%d: %w", pos.Filename, pos.Line, err)
		}
	}

	for _, fwd := range l.forwards {
		if def, ok := l.records[fwd.Keyword()+" "+fwd.Name]; ok {
			fwd.Def = def.Definition()
		}
	}

	return nil
}

func (l *lowerer) declaration(d *cc.Declaration) error {
	var first *cc.Declarator
	if d.InitDeclaratorList != nil && d.InitDeclaratorList.InitDeclarator != nil {
		first = d.InitDeclaratorList.InitDeclarator.Declarator
	}

	var enum *cast.EnumDecl
	for ds := d.DeclarationSpecifiers; ds != nil; ds = ds.DeclarationSpecifiers {
		ts := ds.TypeSpecifier
		if ts == nil {
			continue
		}

		switch {
		case ts.StructOrUnionSpecifier != nil:
			if err := l.recordSpecifier(ts.StructOrUnionSpecifier, first); err != nil {
				return err
			}
		case ts.EnumSpecifier != nil:
			e, err := l.enumSpecifier(ts.EnumSpecifier, first)
			if err != nil {
				return err
			}
			if e != nil {
				enum = e
			}
		}
	}

	for list := d.InitDeclaratorList; list != nil; list = list.InitDeclaratorList {
		if list.InitDeclarator == nil {
			continue
		}
		if err := l.declarator(list.InitDeclarator.Declarator, enum); err != nil {
			return err
		}
	}

	return nil
}

func (l *lowerer) recordSpecifier(s *cc.StructOrUnionSpecifier, first *cc.Declarator) error {
	t := s.Type()
	pos := s.Position()

	if s.StructDeclarationList == nil {
		if first != nil {
			return nil
		}
		fwd := cast.RecordDecl{
			Name:  t.Tag().String(),
			Union: t.Kind() == cc.Union,
			Loc:   location(pos.Filename, pos.Line),
		}
		l.forwards = append(l.forwards, &fwd)
		l.tu.Decls = append(l.tu.Decls, &fwd)
		return nil
	}

	decl, err := l.record(t)
	if err != nil {
		return err
	}
	decl.Loc = location(pos.Filename, pos.Line)
	if decl.Name == "" && decl.Spelling == "" && first != nil && first.IsTypedefName {
		decl.Spelling = first.Name().String()
	}

	l.tu.Decls = append(l.tu.Decls, decl)
	return nil
}

// enumSpecifier lowers an enum definition. The type checker gives the
// specifier the enum's integer type, so the tag comes from the token.
func (l *lowerer) enumSpecifier(s *cc.EnumSpecifier, first *cc.Declarator) (*cast.EnumDecl, error) {
	if s.EnumeratorList == nil {
		return nil, nil
	}

	e := l.enum(tagName(s.Token2))
	if u := s.Type(); u != nil && u.IsIntegerType() && !u.IsIncomplete() {
		if bk, ok := integerKind(u.Size(), u.IsSignedType()); ok {
			e.Underlying = &cast.Builtin{Kind: bk}
		}
	}

	pos := s.Position()
	e.Loc = location(pos.Filename, pos.Line)
	if e.Anonymous() && first != nil && first.IsTypedefName {
		e.Spelling = first.Name().String()
	}

	e.Enumerators = e.Enumerators[:0]
	for list := s.EnumeratorList; list != nil; list = list.EnumeratorList {
		en := list.Enumerator
		if en == nil {
			continue
		}

		var v int64
		switch x := en.Operand.Value().(type) {
		case cc.Int64Value:
			v = int64(x)
		case cc.Uint64Value:
			v = int64(x)
		default:
			return nil, fmt.Errorf("%w: enumerator %s has no integer value", layout.ErrUnsupportedConstruct, en.Token.Value)
		}

		p := en.Position()
		e.Enumerators = append(e.Enumerators, &cast.EnumConstantDecl{
			Name:  en.Token.Value.String(),
			Value: v,
			Loc:   location(p.Filename, p.Line),
		})
	}

	l.tu.Decls = append(l.tu.Decls, e)
	return e, nil
}

// declarator lowers one declarator. enum is the enum defined by the same
// declaration, if any; a typedef of it refers to the enum node rather than
// to its integer type.
func (l *lowerer) declarator(d *cc.Declarator, enum *cast.EnumDecl) error {
	if d == nil {
		return nil
	}

	name := d.Name().String()
	pos := d.Position()
	loc := location(pos.Filename, pos.Line)
	t := d.Type()

	switch {
	case d.IsTypedefName:
		if t.IsAliasType() && t.Name().String() == name {
			t = t.Alias()
		}

		var u cast.Type
		switch t.Kind() {
		case cc.Ptr, cc.Array, cc.Function, cc.Struct, cc.Union:
		default:
			if enum != nil && !t.IsAliasType() {
				u = &cast.EnumType{Decl: enum}
			}
		}
		if u == nil {
			var err error
			if u, err = l.typ(t); err != nil {
				return fmt.Errorf("typedef %s: %w", name, err)
			}
		}

		td := cast.TypedefDecl{Name: name, Underlying: u, Loc: loc}
		l.typedefs[name] = &td
		l.tu.Decls = append(l.tu.Decls, &td)

	case t.Kind() == cc.Function && !d.IsStatic():
		ft, err := l.function(t)
		if err != nil {
			return fmt.Errorf("function %s: %w", name, err)
		}

		fn := cast.FunctionDecl{Name: name, Result: ft.Result, Variadic: ft.Variadic, Loc: loc}
		for i, p := range t.Parameters() {
			if i >= len(ft.Params) {
				break
			}
			fn.Params = append(fn.Params, &cast.ParamDecl{Name: p.Name().String(), Type: ft.Params[i]})
		}
		l.tu.Decls = append(l.tu.Decls, &fn)
	}

	return nil
}

// =============================================================================

func (l *lowerer) typ(t cc.Type) (cast.Type, error) {
	if t == nil {
		return &cast.Builtin{Kind: cast.Void}, nil
	}

	if t.IsAliasType() {
		name := t.Name().String()
		return &cast.TypedefType{Name: name, Decl: l.typedefs[name]}, nil
	}

	switch k := t.Kind(); k {
	case cc.Ptr:
		elem, err := l.typ(t.Elem())
		if err != nil {
			return nil, err
		}
		return &cast.Pointer{Elem: elem}, nil

	case cc.Array:
		elem, err := l.typ(t.Elem())
		if err != nil {
			return nil, err
		}
		n := int64(t.Len())
		if t.IsIncomplete() || t.IsVLA() {
			n = -1
		}
		return &cast.Array{Elem: elem, Len: n}, nil

	case cc.Struct, cc.Union:
		decl, err := l.record(t)
		if err != nil {
			return nil, err
		}
		return &cast.RecordType{Decl: decl}, nil

	case cc.Enum:
		if t.IsTaggedType() {
			return &cast.EnumType{Decl: l.enum(t.Tag().String())}, nil
		}
		if t.IsIncomplete() {
			return nil, fmt.Errorf("%w: %s", layout.ErrUnresolvedType, t)
		}
		bk, ok := integerKind(t.Size(), t.IsSignedType())
		if !ok {
			return nil, fmt.Errorf("%w: %s", layout.ErrUnsupportedConstruct, t)
		}
		return &cast.Builtin{Kind: bk}, nil

	case cc.Function:
		return l.function(t)

	default:
		bk, ok := builtinKinds[k]
		if !ok {
			return nil, fmt.Errorf("%w: %s", layout.ErrUnsupportedConstruct, t)
		}
		return &cast.Builtin{Kind: bk}, nil
	}
}

func (l *lowerer) function(t cc.Type) (*cast.FunctionType, error) {
	result, err := l.typ(t.Result())
	if err != nil {
		return nil, fmt.Errorf("result: %w", err)
	}

	ft := cast.FunctionType{Result: result, Variadic: t.IsVariadic()}

	params := t.Parameters()
	if len(params) == 1 && params[0].Type().Kind() == cc.Void {
		return &ft, nil
	}

	for _, p := range params {
		pt, err := l.typ(p.Type())
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", p.Name(), err)
		}
		ft.Params = append(ft.Params, pt)
	}

	return &ft, nil
}

// record returns the node for a struct or union type, filling its fields the
// first time the type is seen complete.
func (l *lowerer) record(t cc.Type) (*cast.RecordDecl, error) {
	tag := t.Tag().String()
	key := "struct " + tag
	if t.Kind() == cc.Union {
		key = "union " + tag
	}

	var decl *cast.RecordDecl
	if tag != "" {
		decl = l.records[key]
	} else {
		decl = l.anon[t]
	}

	if decl == nil {
		decl = &cast.RecordDecl{Name: tag, Union: t.Kind() == cc.Union}
		if tag != "" {
			l.records[key] = decl
		} else {
			l.anon[t] = decl
		}
	}

	if decl.Def != nil || t.IsIncomplete() {
		return decl, nil
	}

	decl.Def = decl
	for i := range t.NumField() {
		f := t.FieldByIndex([]int{i})

		ft, err := l.typ(f.Type())
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name(), err)
		}

		decl.Fields = append(decl.Fields, &cast.FieldDecl{
			Name:     f.Name().String(),
			Type:     ft,
			BitField: f.IsBitField(),
			BitWidth: f.BitFieldWidth(),
		})
	}

	return decl, nil
}

// enum returns the node for an enum tag. Tagged enums share one node; an
// empty tag always gets a fresh one.
func (l *lowerer) enum(tag string) *cast.EnumDecl {
	if tag == "" {
		return &cast.EnumDecl{}
	}
	if e, ok := l.enums[tag]; ok {
		return e
	}
	e := cast.EnumDecl{Name: tag}
	l.enums[tag] = &e
	return &e
}

// integerKind returns the fixed-width kind the type checker chose for an
// enum.
func integerKind(size uintptr, signed bool) (cast.BuiltinKind, bool) {
	k, ok := sizedKinds[size]
	if !ok {
		return 0, false
	}
	if signed {
		return k[1], true
	}
	return k[0], true
}

// tagName returns the identifier of an optional tag token.
func tagName(tok cc.Token) string {
	if tok.Value == 0 {
		return ""
	}
	return tok.Value.String()
}

func location(file string, line int) cast.Location {
	return cast.Location{File: file, Line: line}
}
