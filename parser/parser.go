// Package parser is a dependency-free C header scanner. It understands the
// declarations found in self-contained library headers: typedefs, struct,
// union and enum definitions, forward declarations and function prototypes.
// Macros are not expanded; headers that depend on them need the cc front end.
package parser

import (
	"fmt"
	"os"
	"strings"

	"github.com/ardanlabs/ffi-bindgen/cast"
	"github.com/ardanlabs/ffi-bindgen/layout"
)

type parser struct {
	file string
	toks []token
	pos  int

	unit     *cast.TranslationUnit
	typedefs map[string]*cast.TypedefDecl
	enums    map[string]*cast.EnumDecl
	consts   map[string]int64

	// tags holds every occurrence of a struct or union tag so forward
	// references can be linked to the definition once it is seen.
	tags  map[string][]*cast.RecordDecl
	order []string
}

// Parse scans the content of a header that has no file name. Locations carry
// line numbers only.
func Parse(content string) (*cast.TranslationUnit, error) {
	return parse("", content)
}

// ParseFile reads and scans the header at path.
func ParseFile(path string) (*cast.TranslationUnit, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	return parse(path, string(content))
}

func parse(file, content string) (*cast.TranslationUnit, error) {
	content = normalizeNewlines(content)
	content = removeComments(content)
	content = removeDirectives(content)

	p := parser{
		file:     file,
		toks:     tokenize(content),
		unit:     &cast.TranslationUnit{File: file},
		typedefs: make(map[string]*cast.TypedefDecl),
		enums:    make(map[string]*cast.EnumDecl),
		consts:   make(map[string]int64),
		tags:     make(map[string][]*cast.RecordDecl),
	}

	for !p.eof() {
		if p.accept(";") {
			continue
		}
		if err := p.declaration(); err != nil {
			return nil, err
		}
	}

	p.link()

	return p.unit, nil
}

// =============================================================================

func (p *parser) declaration() error {
	start := p.peek()

	typedef, static := false, false
	for {
		switch {
		case p.accept("typedef"):
			typedef = true
			continue
		case p.accept("static"):
			static = true
			continue
		case qualifiers[p.peek().text]:
			p.next()
			continue
		}
		break
	}

	base, err := p.specifiers(true)
	if err != nil {
		return err
	}

	if p.accept(";") {
		if rt, ok := base.(*cast.RecordType); ok && !rt.Decl.IsDefinition() && !typedef {
			p.unit.Decls = append(p.unit.Decls, rt.Decl)
		}
		return nil
	}

	for {
		tok := p.peek()

		name, t, params, err := p.declarator(base)
		if err != nil {
			return err
		}
		if name == "" {
			return p.errorf(tok, "expected declarator, got %s", tok)
		}
		loc := p.loc(start)

		fn, isFunc := t.(*cast.FunctionType)

		switch {
		case typedef:
			p.typedef(name, t, loc)

		case isFunc && p.at("{"):
			return p.skipBlock()

		case isFunc && static:

		case isFunc:
			p.unit.Decls = append(p.unit.Decls, &cast.FunctionDecl{
				Name:     name,
				Result:   fn.Result,
				Params:   params,
				Variadic: fn.Variadic,
				Loc:      loc,
			})
		}

		if !p.accept(",") {
			break
		}
	}

	return p.expect(";")
}

func (p *parser) typedef(name string, t cast.Type, loc cast.Location) {
	switch x := t.(type) {
	case *cast.RecordType:
		if x.Decl.Name == "" && x.Decl.Spelling == "" {
			x.Decl.Spelling = name
		}
	case *cast.EnumType:
		if x.Decl.Anonymous() {
			x.Decl.Spelling = name
		}
	}

	td := cast.TypedefDecl{Name: name, Underlying: t, Loc: loc}
	p.typedefs[name] = &td
	p.unit.Decls = append(p.unit.Decls, &td)
}

// specifiers reads the type specifiers of a declaration. Record and enum
// definitions met at the top level are added to the translation unit.
func (p *parser) specifiers(top bool) (cast.Type, error) {
	start := p.peek()

	var words []string
	var t cast.Type

loop:
	for {
		tok := p.peek()

		switch {
		case qualifiers[tok.text]:
			p.next()

		case attributes[tok.text]:
			if _, err := p.skipAttribute(); err != nil {
				return nil, err
			}

		case builtinWords[tok.text]:
			words = append(words, p.next().text)

		case tok.text == "struct" || tok.text == "union":
			rt, err := p.record(top)
			if err != nil {
				return nil, err
			}
			t = rt

		case tok.text == "enum":
			et, err := p.enum(top)
			if err != nil {
				return nil, err
			}
			t = et

		case isIdent(tok.text) && !keywords[tok.text] && t == nil && len(words) == 0:
			p.next()
			t = &cast.TypedefType{Name: tok.text, Decl: p.typedefs[tok.text]}

		default:
			break loop
		}
	}

	if len(words) > 0 {
		if t != nil {
			return nil, p.errorf(start, "conflicting type specifiers")
		}
		k, err := builtinKind(words)
		if err != nil {
			return nil, p.errorf(start, "%v", err)
		}
		t = &cast.Builtin{Kind: k}
	}

	if t == nil {
		return nil, p.errorf(start, "expected type, got %s", start)
	}

	return t, nil
}

// declarator reads one declarator applied to base. params is set when the
// declarator names a function.
func (p *parser) declarator(base cast.Type) (string, cast.Type, []*cast.ParamDecl, error) {
	t := base
	for p.accept("*") {
		t = &cast.Pointer{Elem: t}
		p.skipQualifiers()
	}
	if err := p.skipAttributes(); err != nil {
		return "", nil, nil, err
	}

	if p.at("(") && p.peekAt(1).text == "*" {
		p.next()

		stars := 0
		for p.accept("*") {
			stars++
			p.skipQualifiers()
		}

		var name string
		if isIdent(p.peek().text) {
			name = p.next().text
		}
		if err := p.expect(")"); err != nil {
			return "", nil, nil, err
		}

		inner, _, err := p.suffix(t)
		if err != nil {
			return "", nil, nil, err
		}
		for range stars {
			inner = &cast.Pointer{Elem: inner}
		}

		return name, inner, nil, nil
	}

	var name string
	if tok := p.peek(); isIdent(tok.text) && !keywords[tok.text] {
		name = p.next().text
	}

	t, params, err := p.suffix(t)
	if err != nil {
		return "", nil, nil, err
	}

	return name, t, params, nil
}

// suffix applies a parameter list or array dimensions to t.
func (p *parser) suffix(t cast.Type) (cast.Type, []*cast.ParamDecl, error) {
	if p.accept("(") {
		params, variadic, err := p.params()
		if err != nil {
			return nil, nil, err
		}
		if err := p.skipAttributes(); err != nil {
			return nil, nil, err
		}

		fn := cast.FunctionType{Result: t, Variadic: variadic}
		for _, pd := range params {
			fn.Params = append(fn.Params, pd.Type)
		}
		return &fn, params, nil
	}

	var dims []int64
	for p.accept("[") {
		if p.accept("]") {
			dims = append(dims, -1)
			continue
		}
		n, err := p.constExpr()
		if err != nil {
			return nil, nil, err
		}
		if err := p.expect("]"); err != nil {
			return nil, nil, err
		}
		dims = append(dims, n)
	}

	for i := len(dims) - 1; i >= 0; i-- {
		t = &cast.Array{Elem: t, Len: dims[i]}
	}

	return t, nil, p.skipAttributes()
}

func (p *parser) params() ([]*cast.ParamDecl, bool, error) {
	if p.accept(")") {
		return nil, false, nil
	}
	if p.at("void") && p.peekAt(1).text == ")" {
		p.next()
		p.next()
		return nil, false, nil
	}

	var params []*cast.ParamDecl
	for {
		if p.accept("...") {
			return params, true, p.expect(")")
		}

		base, err := p.specifiers(false)
		if err != nil {
			return nil, false, err
		}
		name, t, _, err := p.declarator(base)
		if err != nil {
			return nil, false, err
		}
		params = append(params, &cast.ParamDecl{Name: name, Type: t})

		if !p.accept(",") {
			return params, false, p.expect(")")
		}
	}
}

func (p *parser) record(top bool) (cast.Type, error) {
	kw := p.next()
	union := kw.text == "union"

	if err := p.layoutAttributes(kw); err != nil {
		return nil, err
	}

	var tag string
	if tok := p.peek(); isIdent(tok.text) && !keywords[tok.text] {
		tag = p.next().text
	}

	decl := cast.RecordDecl{Name: tag, Union: union, Loc: p.loc(kw)}

	if !p.accept("{") {
		if tag == "" {
			return nil, p.errorf(kw, "%s without tag or body", kw.text)
		}
		p.track(kw.text+" "+tag, &decl)
		return &cast.RecordType{Decl: &decl}, nil
	}

	decl.Def = &decl
	if tag != "" {
		p.track(kw.text+" "+tag, &decl)
	}

	for !p.accept("}") {
		if p.eof() {
			return nil, p.errorf(p.peek(), "unterminated %s", kw.text)
		}
		if p.accept(";") {
			continue
		}

		base, err := p.specifiers(false)
		if err != nil {
			return nil, err
		}

		if p.accept(";") {
			decl.Fields = append(decl.Fields, &cast.FieldDecl{Type: base})
			continue
		}

		for {
			name, t, _, err := p.declarator(base)
			if err != nil {
				return nil, err
			}
			f := cast.FieldDecl{Name: name, Type: t}

			if p.accept(":") {
				w, err := p.constExpr()
				if err != nil {
					return nil, err
				}
				f.BitField = true
				f.BitWidth = int(w)
			}
			decl.Fields = append(decl.Fields, &f)

			if !p.accept(",") {
				break
			}
		}

		if err := p.expect(";"); err != nil {
			return nil, err
		}
	}

	if err := p.layoutAttributes(kw); err != nil {
		return nil, err
	}

	if top {
		p.unit.Decls = append(p.unit.Decls, &decl)
	}

	return &cast.RecordType{Decl: &decl}, nil
}

func (p *parser) enum(top bool) (cast.Type, error) {
	kw := p.next()

	if err := p.skipAttributes(); err != nil {
		return nil, err
	}

	var tag string
	if tok := p.peek(); isIdent(tok.text) && !keywords[tok.text] {
		tag = p.next().text
	}

	var underlying cast.Type
	if p.accept(":") {
		t, err := p.specifiers(false)
		if err != nil {
			return nil, err
		}
		underlying = t
	}

	if !p.accept("{") {
		if tag == "" {
			return nil, p.errorf(kw, "enum without tag or body")
		}
		if e, ok := p.enums[tag]; ok {
			return &cast.EnumType{Decl: e}, nil
		}
		if underlying == nil {
			underlying = &cast.Builtin{Kind: cast.Int}
		}
		e := cast.EnumDecl{Name: tag, Underlying: underlying, Loc: p.loc(kw)}
		p.enums[tag] = &e
		return &cast.EnumType{Decl: &e}, nil
	}

	e := cast.EnumDecl{Name: tag, Loc: p.loc(kw)}

	var next int64
	for !p.at("}") {
		tok := p.next()
		if !isIdent(tok.text) {
			return nil, p.errorf(tok, "expected enumerator, got %s", tok)
		}
		if err := p.skipAttributes(); err != nil {
			return nil, err
		}

		v := next
		if p.accept("=") {
			var err error
			if v, err = p.constExpr(); err != nil {
				return nil, err
			}
		}

		e.Enumerators = append(e.Enumerators, &cast.EnumConstantDecl{Name: tok.text, Value: v, Loc: p.loc(tok)})
		p.consts[tok.text] = v
		next = v + 1

		if !p.accept(",") {
			break
		}
	}
	if err := p.expect("}"); err != nil {
		return nil, err
	}
	if err := p.skipAttributes(); err != nil {
		return nil, err
	}

	e.Underlying = underlying
	if e.Underlying == nil {
		e.Underlying = &cast.Builtin{Kind: enumUnderlying(e.Enumerators)}
	}

	if tag != "" {
		p.enums[tag] = &e
	}
	if top {
		p.unit.Decls = append(p.unit.Decls, &e)
	}

	return &cast.EnumType{Decl: &e}, nil
}

// enumUnderlying picks the integer type a C compiler gives an enum without a
// fixed type: unsigned int when no value is negative, else int, widening to
// 64 bits only when a value does not fit.
func enumUnderlying(values []*cast.EnumConstantDecl) cast.BuiltinKind {
	var lo, hi int64
	for _, c := range values {
		lo = min(lo, c.Value)
		hi = max(hi, c.Value)
	}

	switch {
	case lo >= 0 && hi <= 1<<32-1:
		return cast.UInt
	case lo >= -1<<31 && hi <= 1<<31-1:
		return cast.Int
	case lo >= 0:
		return cast.ULongLong
	}
	return cast.LongLong
}

// link points every occurrence of a tag at its first definition.
func (p *parser) link() {
	for _, key := range p.order {
		nodes := p.tags[key]

		var def *cast.RecordDecl
		for _, n := range nodes {
			if n.IsDefinition() {
				def = n
				break
			}
		}

		for _, n := range nodes {
			if n.Def == nil {
				n.Def = def
			}
		}
	}
}

func (p *parser) track(key string, decl *cast.RecordDecl) {
	if _, ok := p.tags[key]; !ok {
		p.order = append(p.order, key)
	}
	p.tags[key] = append(p.tags[key], decl)
}

// =============================================================================

func (p *parser) eof() bool {
	return p.pos >= len(p.toks)
}

func (p *parser) peek() token {
	return p.peekAt(0)
}

func (p *parser) peekAt(n int) token {
	if p.pos+n >= len(p.toks) {
		line := 0
		if len(p.toks) > 0 {
			line = p.toks[len(p.toks)-1].line
		}
		return token{line: line}
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() token {
	tok := p.peek()
	if !p.eof() {
		p.pos++
	}
	return tok
}

func (p *parser) at(text string) bool {
	return p.peek().text == text
}

func (p *parser) accept(text string) bool {
	if p.at(text) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(text string) error {
	if tok := p.peek(); tok.text != text {
		return p.errorf(tok, "expected %q, got %s", text, tok)
	}
	p.pos++
	return nil
}

func (p *parser) startsType() bool {
	tok := p.peek().text
	if builtinWords[tok] || qualifiers[tok] {
		return true
	}
	switch tok {
	case "struct", "union", "enum":
		return true
	}
	if _, ok := p.typedefs[tok]; ok {
		return true
	}
	_, ok := cast.BuiltinByName(tok)
	return ok
}

func (p *parser) skipQualifiers() {
	for qualifiers[p.peek().text] {
		p.next()
	}
}

func (p *parser) skipAttributes() error {
	for attributes[p.peek().text] {
		if _, err := p.skipAttribute(); err != nil {
			return err
		}
	}
	return nil
}

// skipAttribute consumes an attribute keyword and its balanced argument list,
// returning the argument text.
func (p *parser) skipAttribute() (string, error) {
	kw := p.next()
	if !p.at("(") {
		return "", nil
	}

	var b strings.Builder
	depth := 0
	for {
		tok := p.next()
		switch tok.text {
		case "":
			return "", p.errorf(kw, "unterminated %s", kw.text)
		case "(":
			depth++
		case ")":
			depth--
		}
		b.WriteString(tok.text)
		if depth == 0 {
			return b.String(), nil
		}
	}
}

// layoutAttributes skips the attributes of a record and rejects the ones
// that change its layout.
func (p *parser) layoutAttributes(kw token) error {
	for attributes[p.peek().text] {
		attr, err := p.skipAttribute()
		if err != nil {
			return err
		}
		if strings.Contains(attr, "packed") || strings.Contains(attr, "aligned") {
			return p.errorf(kw, "%w: %s on %s", layout.ErrUnsupportedConstruct, attr, kw.text)
		}
	}
	return nil
}

func (p *parser) skipBlock() error {
	start := p.next()
	depth := 1
	for depth > 0 {
		tok := p.next()
		switch tok.text {
		case "":
			return p.errorf(start, "unterminated block")
		case "{":
			depth++
		case "}":
			depth--
		}
	}
	return nil
}

func (p *parser) loc(tok token) cast.Location {
	return cast.Location{File: p.file, Line: tok.line}
}

func (p *parser) errorf(tok token, format string, args ...any) error {
	file := p.file
	if file == "" {
		file = "<input>"
	}
	return fmt.Errorf("%s:%d: %w", file, tok.line, fmt.Errorf(format, args...))
}
