package generator

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/ffi-bindgen/cast"
	"github.com/ardanlabs/ffi-bindgen/layout"
)

var (
	// ErrUnresolvedType reports a field, parameter or result type with no
	// known size or Go mapping.
	ErrUnresolvedType = layout.ErrUnresolvedType

	// ErrUnsupportedConstruct reports a C construct outside the mapping, such
	// as a bit-field or a variadic function.
	ErrUnsupportedConstruct = layout.ErrUnsupportedConstruct

	// ErrDuplicateDefinition reports two distinct definitions of the same
	// record.
	ErrDuplicateDefinition = errors.New("duplicate definition")
)

// Warning is a known gap in the generated bindings. Warnings never stop
// generation.
type Warning struct {
	Location cast.Location
	Name     string
	Message  string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s: %s", w.Location, w.Name, w.Message)
}
