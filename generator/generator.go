// Package generator turns a parsed C translation unit into one Go source file
// of ffi bindings.
package generator

import (
	"fmt"
	"path/filepath"
	"strconv"

	"golang.org/x/tools/imports"

	"github.com/ardanlabs/ffi-bindgen/cast"
	"github.com/ardanlabs/ffi-bindgen/explorer"
	"github.com/ardanlabs/ffi-bindgen/layout"
	"github.com/ardanlabs/ffi-bindgen/syntax"
)

// Options configures a Generator.
type Options struct {
	Package     string
	LibraryName string
	Header      string
	ABI         layout.ABI
	Exclude     []string
}

// Result is the output of one Generate call.
type Result struct {
	Source   []byte
	Warnings []Warning
}

type Generator struct {
	opts Options
}

func New(opts Options) *Generator {
	if opts.ABI.PointerSize == 0 {
		opts.ABI = layout.HostABI()
	}
	return &Generator{opts: opts}
}

// Generate walks tu and returns the bindings for it. Any error aborts the
// whole call; no partial source is returned. Generate keeps no state between
// calls.
func (g *Generator) Generate(tu *cast.TranslationUnit, includeDirs []string) (*Result, error) {
	b := newBuilder(g.opts)

	ix := indexer{b: b, defs: make(map[string]*cast.RecordDecl)}
	if err := explorer.Explore(tu, includeDirs, &ix); err != nil {
		return nil, err
	}
	if err := explorer.Explore(tu, includeDirs, b); err != nil {
		return nil, err
	}

	c := b.container()
	syntax.Format(c)

	src, err := syntax.Print(c)
	if err != nil {
		return nil, fmt.Errorf("printing: %w", err)
	}

	filename := g.opts.LibraryName + ".go"
	out, err := imports.Process(filename, src, &imports.Options{
		FormatOnly: true,
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
	})
	if err != nil {
		return nil, fmt.Errorf("formatting: %w", err)
	}

	return &Result{Source: out, Warnings: b.warnings}, nil
}

func (b *builder) container() *syntax.Container {
	header := "Code generated by ffi-bindgen. DO NOT EDIT."
	if b.opts.Header != "" {
		header = fmt.Sprintf("Code generated by ffi-bindgen from %s. DO NOT EDIT.", filepath.Base(b.opts.Header))
	}

	consts := []*syntax.Const{{Name: "LibraryName", Value: strconv.Quote(b.opts.LibraryName)}}

	return &syntax.Container{
		Banner: []string{
			header,
			"Changes to this file may cause incorrect behavior and will be lost if the code is regenerated.",
		},
		Package:      b.opts.Package,
		Consts:       append(consts, b.constants...),
		Enums:        b.enums,
		Structs:      b.structs,
		Funcs:        b.funcs,
		Placeholders: b.placeholders,
	}
}
