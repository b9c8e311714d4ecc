package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ardanlabs/ffi-bindgen/layout"
)

var precedence = map[string]int{
	"|":  1,
	"^":  2,
	"&":  3,
	"<<": 4,
	">>": 4,
	"+":  5,
	"-":  5,
	"*":  6,
	"/":  6,
	"%":  6,
}

// constExpr evaluates an integer constant expression made of literals,
// earlier enumerators, casts and the usual arithmetic and bitwise operators.
func (p *parser) constExpr() (int64, error) {
	return p.binary(1)
}

func (p *parser) binary(minPrec int) (int64, error) {
	lhs, err := p.unary()
	if err != nil {
		return 0, err
	}

	for {
		op := p.peek()
		prec, ok := precedence[op.text]
		if !ok || prec < minPrec {
			return lhs, nil
		}
		p.next()

		rhs, err := p.binary(prec + 1)
		if err != nil {
			return 0, err
		}

		switch op.text {
		case "|":
			lhs |= rhs
		case "^":
			lhs ^= rhs
		case "&":
			lhs &= rhs
		case "<<":
			lhs <<= uint64(rhs)
		case ">>":
			lhs >>= uint64(rhs)
		case "+":
			lhs += rhs
		case "-":
			lhs -= rhs
		case "*":
			lhs *= rhs
		case "/", "%":
			if rhs == 0 {
				return 0, p.errorf(op, "division by zero")
			}
			if op.text == "/" {
				lhs /= rhs
			} else {
				lhs %= rhs
			}
		}
	}
}

func (p *parser) unary() (int64, error) {
	tok := p.next()

	switch {
	case tok.text == "-":
		v, err := p.unary()
		return -v, err

	case tok.text == "+":
		return p.unary()

	case tok.text == "~":
		v, err := p.unary()
		return ^v, err

	case tok.text == "!":
		v, err := p.unary()
		if v == 0 {
			return 1, err
		}
		return 0, err

	case tok.text == "(":
		if p.startsType() {
			if _, err := p.specifiers(false); err != nil {
				return 0, err
			}
			for p.accept("*") {
			}
			if err := p.expect(")"); err != nil {
				return 0, err
			}
			return p.unary()
		}
		v, err := p.binary(1)
		if err != nil {
			return 0, err
		}
		return v, p.expect(")")

	case tok.text == "sizeof":
		return 0, p.errorf(tok, "%w: sizeof in constant expression", layout.ErrUnsupportedConstruct)

	case strings.HasPrefix(tok.text, "'"):
		return charValue(tok.text)

	case tok.text != "" && tok.text[0] >= '0' && tok.text[0] <= '9':
		return intValue(tok.text)

	case isIdent(tok.text):
		v, ok := p.consts[tok.text]
		if !ok {
			return 0, p.errorf(tok, "unknown constant %s", tok.text)
		}
		return v, nil
	}

	return 0, p.errorf(tok, "unexpected %s in constant expression", tok)
}

func intValue(lit string) (int64, error) {
	digits := strings.TrimRight(lit, "uUlL")

	if v, err := strconv.ParseInt(digits, 0, 64); err == nil {
		return v, nil
	}

	v, err := strconv.ParseUint(digits, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %s: %w", lit, err)
	}
	return int64(v), nil
}

func charValue(lit string) (int64, error) {
	s, err := strconv.Unquote(lit)
	if err != nil || len(s) != 1 {
		return 0, fmt.Errorf("invalid character %s", lit)
	}
	return int64(s[0]), nil
}
