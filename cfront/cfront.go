// Package cfront parses C headers with modernc.org/cc/v3 and lowers the
// result into a cast.TranslationUnit. Unlike the parser package it runs a
// full preprocessor against the host's system headers.
package cfront

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"modernc.org/cc/v3"

	"github.com/ardanlabs/ffi-bindgen/cast"
	"github.com/ardanlabs/ffi-bindgen/layout"
)

// Options configures ParseFile.
type Options struct {
	// IncludeDirs are passed as -I paths. Declarations from headers below
	// them are part of the bound library.
	IncludeDirs []string

	// Defines are NAME or NAME=VALUE macro definitions.
	Defines []string

	// ExtraArgs are passed to the host C preprocessor when it is asked for
	// its predefined macros and search paths.
	ExtraArgs []string

	// ABI selects the target the type checker lays types out for. The host
	// ABI is used when it is zero.
	ABI layout.ABI
}

// builtins stubs out compiler extensions that system headers use and the
// cc type checker does not know.
const builtins = `
#define __builtin_va_list void *
#define __asm(x)
#define __asm__(x)
#define __inline
#define __inline__
#define __signed
#define __signed__
#define __const const
#define __extension__
#define __attribute__(x)
#define __attribute(x)
#define __restrict
#define __restrict__
#define __volatile__
#define __declspec(x)
#define _Nullable
#define _Nonnull
#define _Null_unspecified
#define __builtin_inff() (0)
#define __builtin_infl() (0)
#define __builtin_inf() (0)
#define __builtin_nanf(x) (0)
#define __builtin_nanl(x) (0)
#define __builtin_nan(x) (0)
#define __builtin_huge_valf() (0)
#define __builtin_huge_vall() (0)
#define __builtin_huge_val() (0)
#define __builtin_fabsf(x) (0)
#define __builtin_fabsl(x) (0)
#define __builtin_fabs(x) (0)
`

// ParseFile preprocesses, parses and type checks the header at path.
func ParseFile(path string, opts Options) (*cast.TranslationUnit, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	if opts.ABI.PointerSize == 0 {
		opts.ABI = layout.HostABI()
	}

	goos, goarch, ok := strings.Cut(opts.ABI.Name, "/")
	if !ok {
		return nil, fmt.Errorf("invalid target %q", opts.ABI.Name)
	}

	abi, err := cc.NewABI(goos, goarch)
	if err != nil {
		return nil, fmt.Errorf("target %s: %w", opts.ABI.Name, err)
	}

	predefined, includePaths, sysIncludePaths, err := cc.HostConfig("", opts.ExtraArgs...)
	if err != nil {
		return nil, fmt.Errorf("host config: %w", err)
	}

	sources := []cc.Source{
		{Name: "<predefined>", Value: predefined},
		{Name: "<builtin>", Value: builtins + defines(opts.Defines)},
		{Name: path, Value: string(content)},
	}

	cfg := cc.Config{ABI: abi}
	ast, err := cc.Translate(&cfg, slices.Concat(opts.IncludeDirs, includePaths), sysIncludePaths, sources)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	l := newLowerer(path, opts.IncludeDirs)
	if err := l.unit(ast.TranslationUnit); err != nil {
		return nil, err
	}

	return l.tu, nil
}

// defines renders -D style definitions as #define lines.
func defines(defs []string) string {
	var b strings.Builder
	for _, d := range defs {
		name, value, ok := strings.Cut(d, "=")
		if !ok {
			value = "1"
		}
		fmt.Fprintf(&b, "#define %s %s\n", name, value)
	}
	return b.String()
}

// inScope reports whether file is the main header or lives below one of the
// include directories.
func inScope(file, main string, dirs []string) bool {
	file = filepath.Clean(file)
	if file == filepath.Clean(main) {
		return true
	}
	for _, d := range dirs {
		rel, err := filepath.Rel(filepath.Clean(d), file)
		if err == nil && !strings.HasPrefix(rel, "..") {
			return true
		}
	}
	return false
}
