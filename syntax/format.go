package syntax

import "strings"

// Format normalizes blank lines and pointer spacing across the container.
// Running it on its own output changes nothing.
func Format(c *Container) {
	for i, k := range c.Consts {
		k.BlankAfter = i == 0 && len(c.Consts) > 1
		k.normalize()
	}

	for _, e := range c.Enums {
		e.normalize()
		for _, v := range e.Values {
			v.BlankAfter = false
			v.normalize()
		}
	}

	for _, s := range c.Structs {
		s.normalize()
		for i, f := range s.Fields {
			f.BlankAfter = i < len(s.Fields)-1
			f.normalize()
			if f.Type.IsPointer() {
				stripPointee(f.Type)
				f.Sep = " "
			}
		}
	}

	for i, fn := range c.Funcs {
		fn.BlankAfter = i < len(c.Funcs)-1
		fn.normalize()
		for _, p := range fn.Params {
			if p.Type.IsPointer() {
				stripPointee(p.Type)
				p.Sep = " "
			}
		}
		if fn.Result.IsPointer() {
			stripPointee(fn.Result)
		}
	}

	for _, p := range c.Placeholders {
		p.normalize()
	}
}

func (t *Trivia) normalize() {
	for i, line := range t.Doc {
		t.Doc[i] = NormalizeCDecl(line)
	}
	t.Comment = NormalizeCDecl(t.Comment)
}

func stripPointee(t *TypeExpr) {
	for t != nil && t.Pointer {
		t.Elem.Trailing = ""
		t = t.Elem
	}
}

// NormalizeCDecl rewrites the C declarations found in s to "T* name"
// spacing: no space before a run of stars, exactly one between the run and a
// following identifier, none after an opening parenthesis.
func NormalizeCDecl(s string) string {
	if !strings.Contains(s, "*") {
		return s
	}

	var b strings.Builder
	for i := 0; i < len(s); {
		if s[i] != '*' {
			b.WriteByte(s[i])
			i++
			continue
		}

		head := strings.TrimRight(b.String(), " \t")
		b.Reset()
		b.WriteString(head)
		afterParen := strings.HasSuffix(head, "(")

		for i < len(s) && (s[i] == '*' || s[i] == ' ' || s[i] == '\t') {
			if s[i] == '*' {
				b.WriteByte('*')
			}
			i++
		}

		if !afterParen && i < len(s) && isIdentByte(s[i]) {
			b.WriteByte(' ')
		}
	}

	return b.String()
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
