package parser

import (
	"fmt"

	"github.com/ardanlabs/ffi-bindgen/cast"
)

type token struct {
	text string
	line int
}

func (t token) String() string {
	if t.text == "" {
		return "end of input"
	}
	return fmt.Sprintf("%q", t.text)
}

// qualifiers and storage classes that carry no layout information.
var qualifiers = map[string]bool{
	"const":         true,
	"volatile":      true,
	"restrict":      true,
	"__restrict":    true,
	"__restrict__":  true,
	"extern":        true,
	"static":        true,
	"inline":        true,
	"__inline":      true,
	"__inline__":    true,
	"register":      true,
	"__extension__": true,
}

// attributes are skipped together with their parenthesized arguments.
var attributes = map[string]bool{
	"__attribute__": true,
	"__attribute":   true,
	"__declspec":    true,
	"__asm__":       true,
	"__asm":         true,
	"asm":           true,
}

var builtinWords = map[string]bool{
	"void":     true,
	"_Bool":    true,
	"char":     true,
	"short":    true,
	"int":      true,
	"long":     true,
	"float":    true,
	"double":   true,
	"signed":   true,
	"unsigned": true,
	"__int128": true,
}

var keywords = map[string]bool{
	"typedef": true,
	"struct":  true,
	"union":   true,
	"enum":    true,
	"sizeof":  true,
}

// builtinKind folds a multiset of type keywords into one builtin kind.
func builtinKind(words []string) (cast.BuiltinKind, error) {
	count := make(map[string]int, len(words))
	for _, w := range words {
		count[w]++
	}
	unsigned := count["unsigned"] > 0

	switch {
	case count["void"] > 0:
		return cast.Void, nil
	case count["_Bool"] > 0:
		return cast.Bool, nil
	case count["float"] > 0:
		return cast.Float, nil
	case count["double"] > 0:
		if count["long"] > 0 {
			return cast.LongDouble, nil
		}
		return cast.Double, nil
	case count["char"] > 0:
		switch {
		case unsigned:
			return cast.UChar, nil
		case count["signed"] > 0:
			return cast.SChar, nil
		}
		return cast.Char, nil
	case count["__int128"] > 0:
		if unsigned {
			return cast.UInt128, nil
		}
		return cast.Int128, nil
	case count["short"] > 0:
		if unsigned {
			return cast.UShort, nil
		}
		return cast.Short, nil
	case count["long"] >= 2:
		if unsigned {
			return cast.ULongLong, nil
		}
		return cast.LongLong, nil
	case count["long"] == 1:
		if unsigned {
			return cast.ULong, nil
		}
		return cast.Long, nil
	case count["int"] > 0, count["signed"] > 0, unsigned:
		if unsigned {
			return cast.UInt, nil
		}
		return cast.Int, nil
	}

	return 0, fmt.Errorf("invalid type %v", words)
}
