package syntax

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

const ffiImport = "github.com/jupiterrider/ffi"

var loaderTmpl = template.Must(template.New("loader").Parse(`var lib ffi.Lib
{{if .}}
var (
{{- range .}}
	{{.Var}} ffi.Fun
{{- end}}
)
{{end}}
// Load opens the shared library found in dir and resolves every bound
// function. It must succeed before any binding is called.
func Load(dir string) error {
	var err error
	lib, err = ffi.Load(libraryPath(dir))
	if err != nil {
		return fmt.Errorf("failed to load library: %w", err)
	}

	if err := loadFuncs(); err != nil {
		return err
	}

	return nil
}

func libraryPath(dir string) string {
	var filename string
	switch runtime.GOOS {
	case "linux", "freebsd":
		filename = "lib" + LibraryName + ".so"
	case "darwin":
		filename = "lib" + LibraryName + ".dylib"
	case "windows":
		filename = LibraryName + ".dll"
	default:
		filename = "lib" + LibraryName + ".so"
	}
	return filepath.Join(dir, filename)
}
`))

// Print renders the container as Go source. The output is syntactically
// valid but not gofmt-aligned.
func Print(c *Container) ([]byte, error) {
	var buf bytes.Buffer

	for _, line := range c.Banner {
		fmt.Fprintf(&buf, "// %s\n", line)
	}
	if len(c.Banner) > 0 {
		buf.WriteString("\n")
	}

	fmt.Fprintf(&buf, "package %s\n\n", c.Package)
	printImports(&buf, c.imports())

	if len(c.Consts) > 0 {
		buf.WriteString("const (\n")
		for _, k := range c.Consts {
			printConst(&buf, k)
		}
		buf.WriteString(")\n\n")
	}

	for _, e := range c.Enums {
		printDoc(&buf, "", e.Doc)
		fmt.Fprintf(&buf, "type %s %s\n\n", e.Name, e.Type)
		if len(e.Values) > 0 {
			buf.WriteString("const (\n")
			for _, v := range e.Values {
				printConst(&buf, v)
			}
			buf.WriteString(")\n\n")
		}
	}

	for _, s := range c.Structs {
		printStruct(&buf, s)
	}

	if err := loaderTmpl.Execute(&buf, c.Funcs); err != nil {
		return nil, fmt.Errorf("executing loader template: %w", err)
	}
	buf.WriteString("\n")
	printLoadFuncs(&buf, c.Funcs)

	for _, fn := range c.Funcs {
		printFunc(&buf, fn)
	}
	if len(c.Funcs) > 0 && !c.Funcs[len(c.Funcs)-1].BlankAfter {
		buf.WriteString("\n")
	}

	for _, p := range c.Placeholders {
		printDoc(&buf, "", p.Doc)
		fmt.Fprintf(&buf, "type %s %s\n\n", p.Name, p.Type)
	}

	return append(bytes.TrimRight(buf.Bytes(), "\n"), '\n'), nil
}

func (c *Container) imports() []string {
	imports := []string{"fmt", "path/filepath", "runtime"}
	if c.needsUnsafe() {
		imports = append(imports, "unsafe")
	}
	return append(imports, ffiImport)
}

func (c *Container) needsUnsafe() bool {
	if len(c.Structs) > 0 {
		return true
	}
	for _, fn := range c.Funcs {
		if len(fn.Params) > 0 || fn.Result != nil {
			return true
		}
	}
	return false
}

func printImports(buf *bytes.Buffer, imports []string) {
	buf.WriteString("import (\n")
	third := false
	for _, path := range imports {
		if strings.Contains(strings.Split(path, "/")[0], ".") && !third {
			third = true
			buf.WriteString("\n")
		}
		fmt.Fprintf(buf, "\t%q\n", path)
	}
	buf.WriteString(")\n\n")
}

func printDoc(buf *bytes.Buffer, indent string, doc []string) {
	for _, line := range doc {
		fmt.Fprintf(buf, "%s// %s\n", indent, line)
	}
}

func printComment(buf *bytes.Buffer, comment string) {
	if comment != "" {
		fmt.Fprintf(buf, " // %s", comment)
	}
	buf.WriteString("\n")
}

func printConst(buf *bytes.Buffer, k *Const) {
	printDoc(buf, "\t", k.Doc)
	if k.Type != "" {
		fmt.Fprintf(buf, "\t%s %s = %s", k.Name, k.Type, k.Value)
	} else {
		fmt.Fprintf(buf, "\t%s = %s", k.Name, k.Value)
	}
	printComment(buf, k.Comment)
	if k.BlankAfter {
		buf.WriteString("\n")
	}
}

func printStruct(buf *bytes.Buffer, s *Struct) {
	printDoc(buf, "", s.Doc)
	if len(s.Fields) == 0 {
		fmt.Fprintf(buf, "type %s struct{}\n\n", s.Name)
	} else {
		fmt.Fprintf(buf, "type %s struct {\n", s.Name)
		for _, f := range s.Fields {
			printDoc(buf, "\t", f.Doc)
			fmt.Fprintf(buf, "\t%s%s%s", f.Name, sep(f.Sep), f.Type)
			printComment(buf, f.Comment)
			if f.BlankAfter {
				buf.WriteString("\n")
			}
		}
		buf.WriteString("}\n\n")
	}

	buf.WriteString("var (\n")
	fmt.Fprintf(buf, "\t_ [unsafe.Sizeof(%s{}) - %d]byte\n", s.Name, s.Size)
	fmt.Fprintf(buf, "\t_ [%d - unsafe.Sizeof(%s{})]byte\n", s.Size, s.Name)
	buf.WriteString(")\n\n")

	fmt.Fprintf(buf, "var FFIType%s = ffi.NewType(%s)\n\n", s.Name, strings.Join(s.FFI, ", "))
}

func printLoadFuncs(buf *bytes.Buffer, funcs []*Func) {
	buf.WriteString("func loadFuncs() error {\n")
	if len(funcs) > 0 {
		buf.WriteString("\tvar err error\n\n")
	}
	for _, fn := range funcs {
		args := []string{fmt.Sprintf("%q", fn.Symbol), fn.ResultFFI}
		for _, p := range fn.Params {
			args = append(args, p.FFI)
		}
		fmt.Fprintf(buf, "\tif %s, err = lib.Prep(%s); err != nil {\n", fn.Var, strings.Join(args, ", "))
		fmt.Fprintf(buf, "\t\treturn fmt.Errorf(\"%s: %%w\", err)\n", fn.Symbol)
		buf.WriteString("\t}\n\n")
	}
	buf.WriteString("\treturn nil\n}\n\n")
}

func printFunc(buf *bytes.Buffer, fn *Func) {
	printDoc(buf, "", fn.Doc)

	params := make([]string, 0, len(fn.Params))
	for _, p := range fn.Params {
		params = append(params, p.Name+sep(p.Sep)+p.Type.String())
	}

	if fn.Result != nil {
		fmt.Fprintf(buf, "func %s(%s) %s {\n", fn.Name, strings.Join(params, ", "), fn.Result)
	} else {
		fmt.Fprintf(buf, "func %s(%s) {\n", fn.Name, strings.Join(params, ", "))
	}

	callArgs := []string{"nil"}
	switch {
	case fn.Result == nil:
	case fn.ResultArg || fn.ResultBool:
		buf.WriteString("\tvar result ffi.Arg\n")
		callArgs[0] = "unsafe.Pointer(&result)"
	default:
		fmt.Fprintf(buf, "\tvar result %s\n", fn.Result)
		callArgs[0] = "unsafe.Pointer(&result)"
	}

	for _, p := range fn.Params {
		callArgs = append(callArgs, fmt.Sprintf("unsafe.Pointer(&%s)", p.Name))
	}
	fmt.Fprintf(buf, "\t%s.Call(%s)\n", fn.Var, strings.Join(callArgs, ", "))

	switch {
	case fn.Result == nil:
	case fn.ResultBool:
		buf.WriteString("\treturn result.Bool()\n")
	case fn.ResultArg:
		fmt.Fprintf(buf, "\treturn %s(result)\n", fn.Result)
	default:
		buf.WriteString("\treturn result\n")
	}

	buf.WriteString("}\n")
	if fn.BlankAfter {
		buf.WriteString("\n")
	}
}

func sep(s string) string {
	if s == "" {
		return " "
	}
	return s
}
