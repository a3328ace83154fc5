// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package gen turns a manifest listing the functions of a shared library into
// a Go wrapper type bound with dynlib.Bind.
package gen

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"path"
	"sort"
	"strings"
	"text/template"
	"unicode"
	"unicode/utf8"

	"golang.org/x/tools/imports"
)

// ImportPath is the import path of the dynlib package generated code depends on.
const ImportPath = "github.com/DataDog/go-dynlib"

// reservedMethods collide with the methods generated on every wrapper or with
// the Library field of its symbol table.
var reservedMethods = map[string]struct{}{
	"Close":   {},
	"Path":    {},
	"Library": {},
}

//go:embed wrapper.go.tmpl
var wrapperTemplate string

var tmpl = template.Must(template.New("wrapper").Funcs(template.FuncMap{
	"comment": comment,
}).Parse(wrapperTemplate))

// wrapper is the validated form of a manifest, ready to be rendered.
type wrapper struct {
	Source      string
	Package     string
	Type        string
	Doc         string
	SymbolsType string
	Receiver    string
	Imports     string
	Functions   []function
}

type function struct {
	Symbol    string
	Method    string
	Doc       string
	Params    string
	Args      string
	Signature string
	Result    string
}

// Generate renders the Go source of the wrapper declared by m. source is the
// manifest file name quoted in the generated header.
func Generate(source string, m *Manifest) ([]byte, error) {
	w, err := newWrapper(source, m)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, w); err != nil {
		return nil, fmt.Errorf("error rendering %s: %w", m.Type, err)
	}

	out, err := imports.Process(m.Type+".go", buf.Bytes(), &imports.Options{
		FormatOnly: true,
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
	})
	if err != nil {
		return nil, fmt.Errorf("error formatting %s: %w", m.Type, err)
	}

	return out, nil
}

// Check validates m without rendering it.
func Check(m *Manifest) error {
	_, err := newWrapper("", m)
	return err
}

func newWrapper(source string, m *Manifest) (*wrapper, error) {
	if m == nil {
		return nil, errors.New("nil manifest")
	}

	switch {
	case !isIdentifier(m.Package):
		return nil, fmt.Errorf("invalid package name %q", m.Package)
	case !isIdentifier(m.Type) || !token.IsExported(m.Type):
		return nil, fmt.Errorf("invalid type name %q: must be an exported identifier", m.Type)
	case len(m.Functions) == 0:
		return nil, fmt.Errorf("type %s declares no function", m.Type)
	}

	initial, size := utf8.DecodeRuneInString(m.Type)
	receiver := string(unicode.ToLower(initial))

	w := &wrapper{
		Source:      path.Base(strings.ReplaceAll(source, "\\", "/")),
		Package:     m.Package,
		Type:        m.Type,
		Doc:         m.Doc,
		SymbolsType: receiver + m.Type[size:] + "Symbols",
		Receiver:    receiver,
	}
	if w.Doc == "" {
		w.Doc = fmt.Sprintf("%s wraps the functions exported by a shared library.", m.Type)
	}

	packages, err := newImportSet(m.Imports)
	if err != nil {
		return nil, err
	}

	symbols := make(map[string]struct{}, len(m.Functions))
	methods := make(map[string]struct{}, len(m.Functions))
	for i := range m.Functions {
		fn, err := newFunction(&m.Functions[i], w.Receiver, packages)
		if err != nil {
			return nil, fmt.Errorf("function %q: %w", m.Functions[i].Name, err)
		}

		if _, dup := symbols[fn.Symbol]; dup {
			return nil, fmt.Errorf("function %q is declared twice", fn.Symbol)
		}
		symbols[fn.Symbol] = struct{}{}

		if _, dup := methods[fn.Method]; dup {
			return nil, fmt.Errorf("function %q: method %s is declared twice", fn.Symbol, fn.Method)
		}
		methods[fn.Method] = struct{}{}

		w.Functions = append(w.Functions, fn)
	}

	w.Imports = packages.decl()
	return w, nil
}

func newFunction(decl *Function, receiver string, packages *importSet) (function, error) {
	fn := function{
		Symbol: decl.Name,
		Method: decl.Method,
		Doc:    decl.Doc,
	}

	if fn.Symbol == "" {
		return fn, errors.New("missing symbol name")
	}
	if strings.ContainsAny(fn.Symbol, "\x00\"`\\") || strings.ContainsFunc(fn.Symbol, unicode.IsSpace) {
		return fn, errors.New("symbol name contains NUL bytes, quotes, backslashes or spaces")
	}

	if fn.Method == "" {
		fn.Method = CamelCase(fn.Symbol)
	}
	if !isIdentifier(fn.Method) || !token.IsExported(fn.Method) {
		return fn, fmt.Errorf("invalid method name %q: must be an exported identifier", fn.Method)
	}
	if _, reserved := reservedMethods[fn.Method]; reserved {
		return fn, fmt.Errorf("method name %s is reserved", fn.Method)
	}
	if fn.Doc == "" {
		fn.Doc = fmt.Sprintf("%s calls the %s function of the library.", fn.Method, fn.Symbol)
	}

	params := make([]string, len(decl.Params))
	args := make([]string, len(decl.Params))
	names := make(map[string]struct{}, len(decl.Params))
	for i, param := range decl.Params {
		name := param.Name
		if name == "" {
			name = fmt.Sprintf("arg%d", i)
		}
		switch _, dup := names[name]; {
		case !isIdentifier(name) || name == "_":
			return fn, fmt.Errorf("invalid parameter name %q", name)
		case name == receiver:
			return fn, fmt.Errorf("parameter name %q collides with the method receiver", name)
		case dup:
			return fn, fmt.Errorf("parameter %q is declared twice", name)
		}
		names[name] = struct{}{}

		typ, err := goType(param.Type, packages)
		if err != nil {
			return fn, fmt.Errorf("parameter %s: %w", name, err)
		}
		if typ == "" {
			return fn, fmt.Errorf("parameter %s cannot be void", name)
		}

		params[i] = name + " " + typ
		args[i] = name
	}
	fn.Params = strings.Join(params, ", ")
	fn.Args = strings.Join(args, ", ")

	result, err := goType(decl.Result, packages)
	if err != nil {
		return fn, fmt.Errorf("result: %w", err)
	}
	fn.Result = result

	fn.Signature = "func(" + fn.Params + ")"
	if fn.Result != "" {
		fn.Signature += " " + fn.Result
	}

	return fn, nil
}

// goType translates spelling and checks it is a well formed Go type whose
// package qualifiers are all imported and whose other names are predeclared.
func goType(spelling string, packages *importSet) (string, error) {
	if strings.TrimSpace(spelling) == "" {
		return "", nil
	}

	base := normalizeCType(strings.TrimRight(normalizeCType(spelling), "* "))
	if sized, ok := platformDependent[base]; ok {
		return "", fmt.Errorf("invalid type %q: C type %s is platform dependent, spell %s", spelling, base, sized)
	}

	typ := CType(spelling)
	if typ == "" {
		return "", nil
	}

	expr, err := parser.ParseExpr(typ)
	if err != nil {
		return "", fmt.Errorf("invalid type %q: %w", spelling, err)
	}

	var visit func(ast.Node) bool
	visit = func(node ast.Node) bool {
		if err != nil {
			return false
		}
		switch node := node.(type) {
		case *ast.SelectorExpr:
			if pkg, ok := node.X.(*ast.Ident); ok {
				err = packages.use(pkg.Name)
			}
			return false
		case *ast.Field:
			// Parameter and field names are not types.
			if node.Type != nil {
				ast.Inspect(node.Type, visit)
			}
			return false
		case *ast.Ident:
			if _, ok := predeclaredTypes[node.Name]; !ok {
				err = fmt.Errorf("invalid type %q: unknown type %s", spelling, node.Name)
			}
		case *ast.FuncLit, *ast.CompositeLit, *ast.BinaryExpr, *ast.UnaryExpr, *ast.CallExpr:
			err = fmt.Errorf("invalid type %q", spelling)
			return false
		}
		return true
	}
	ast.Inspect(expr, visit)
	if err != nil {
		return "", err
	}

	return typ, nil
}

// CamelCase turns a C symbol name such as `hello_count` into an exported Go
// identifier such as `HelloCount`.
func CamelCase(symbol string) string {
	var sb strings.Builder
	upper := true
	for _, r := range symbol {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func isIdentifier(name string) bool {
	return token.IsIdentifier(name)
}

func comment(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, line := range lines {
		if line = strings.TrimRightFunc(line, unicode.IsSpace); line == "" {
			lines[i] = "//"
		} else {
			lines[i] = "// " + line
		}
	}
	return strings.Join(lines, "\n")
}

// importSet tracks the packages generated code may reference. Only the ones
// actually referenced are imported.
type importSet struct {
	byName map[string]string
	used   map[string]struct{}
}

func newImportSet(paths []string) (*importSet, error) {
	set := &importSet{
		byName: map[string]string{"unsafe": "unsafe"},
		used:   map[string]struct{}{},
	}

	for _, importPath := range paths {
		name := path.Base(importPath)
		if importPath == "" || !isIdentifier(name) {
			return nil, fmt.Errorf("invalid import path %q", importPath)
		}
		if name == "dynlib" {
			return nil, fmt.Errorf("import %q conflicts with the dynlib package", importPath)
		}
		if previous, dup := set.byName[name]; dup && previous != importPath {
			return nil, fmt.Errorf("imports %q and %q share the package name %s", previous, importPath, name)
		}
		set.byName[name] = importPath
	}

	return set, nil
}

func (set *importSet) use(name string) error {
	importPath, ok := set.byName[name]
	if !ok {
		return fmt.Errorf("package %s is not imported", name)
	}
	set.used[importPath] = struct{}{}
	return nil
}

// decl renders the import declaration, standard library packages first.
func (set *importSet) decl() string {
	var std, others []string
	for importPath := range set.used {
		if strings.Contains(strings.Split(importPath, "/")[0], ".") {
			others = append(others, importPath)
		} else {
			std = append(std, importPath)
		}
	}
	others = append(others, ImportPath)
	sort.Strings(std)
	sort.Strings(others)

	if len(std)+len(others) == 1 {
		return fmt.Sprintf("import %q", others[0])
	}

	var sb strings.Builder
	sb.WriteString("import (\n")
	for _, importPath := range std {
		fmt.Fprintf(&sb, "\t%q\n", importPath)
	}
	if len(std) > 0 {
		sb.WriteString("\n")
	}
	for _, importPath := range others {
		fmt.Fprintf(&sb, "\t%q\n", importPath)
	}
	sb.WriteString(")")
	return sb.String()
}
