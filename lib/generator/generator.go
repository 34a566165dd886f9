package generator

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pthm/hxnav"
)

const (
	// StateFileSuffix marks the state files the generator reads.
	StateFileSuffix = ".nav.toml"
	// OutputSuffix marks generated files.
	OutputSuffix = "_nav.go"
)

// Options configures the generator.
type Options struct {
	DryRun bool
	// Out receives progress messages. Defaults to os.Stdout.
	Out io.Writer
}

// Generator generates typed Go bindings for hxnav state files.
type Generator struct {
	opts Options
	fset *token.FileSet
}

// New creates a new generator.
func New(opts Options) *Generator {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	return &Generator{
		opts: opts,
		fset: token.NewFileSet(),
	}
}

// Generate generates code for the given package patterns.
func (g *Generator) Generate(patterns ...string) error {
	packages, err := g.findPackages(patterns)
	if err != nil {
		return err
	}

	for _, pkg := range packages {
		if err := g.generatePackage(pkg); err != nil {
			return fmt.Errorf("package %s: %w", pkg, err)
		}
	}

	return nil
}

// Clean removes generated files for the given package patterns.
func (g *Generator) Clean(patterns ...string) error {
	packages, err := g.findPackages(patterns)
	if err != nil {
		return err
	}

	for _, pkg := range packages {
		if err := g.cleanPackage(pkg); err != nil {
			return fmt.Errorf("package %s: %w", pkg, err)
		}
	}

	return nil
}

// findPackages resolves package patterns to directory paths.
func (g *Generator) findPackages(patterns []string) ([]string, error) {
	var packages []string

	for _, pattern := range patterns {
		if !strings.HasSuffix(pattern, "/...") {
			packages = append(packages, pattern)
			continue
		}

		root := strings.TrimSuffix(pattern, "/...")
		if root == "" {
			root = "."
		}

		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			base := filepath.Base(path)
			if path != root && (strings.HasPrefix(base, ".") || strings.HasPrefix(base, "_") || base == "vendor" || base == "testdata") {
				return filepath.SkipDir
			}

			entries, err := os.ReadDir(path)
			if err != nil {
				return nil
			}
			for _, entry := range entries {
				if !entry.IsDir() && (strings.HasSuffix(entry.Name(), StateFileSuffix) || strings.HasSuffix(entry.Name(), OutputSuffix)) {
					packages = append(packages, path)
					break
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return packages, nil
}

// generatePackage generates one file per state file in a package.
func (g *Generator) generatePackage(pkgPath string) error {
	stateFiles, err := filepath.Glob(filepath.Join(pkgPath, "*"+StateFileSuffix))
	if err != nil {
		return err
	}
	if len(stateFiles) == 0 {
		return nil
	}
	sort.Strings(stateFiles)

	pkgName, methods, err := g.scanPackage(pkgPath)
	if err != nil {
		return err
	}

	for _, path := range stateFiles {
		sf, err := hxnav.ReadStateFile(path)
		if err != nil {
			return err
		}
		info, err := buildInfo(filepath.Base(path), pkgName, sf, methods)
		if err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		if err := g.generateStateFile(pkgPath, info); err != nil {
			return err
		}
	}

	return nil
}

// cleanPackage removes generated files from a package.
func (g *Generator) cleanPackage(pkgPath string) error {
	entries, err := os.ReadDir(pkgPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), OutputSuffix) {
			continue
		}
		path := filepath.Join(pkgPath, entry.Name())
		fmt.Fprintf(g.opts.Out, "removing %s\n", path)
		if !g.opts.DryRun {
			if err := os.Remove(path); err != nil {
				return err
			}
		}
	}

	return nil
}

// HandlerSignature classifies a method by the hxnav handler shape it fits.
type HandlerSignature int

const (
	SigUnknown HandlerSignature = iota
	// SigHandler is func(context.Context, hxnav.Call) error.
	SigHandler
	// SigEventHandler is func(context.Context, hxnav.Event).
	SigEventHandler
)

func (s HandlerSignature) String() string {
	switch s {
	case SigHandler:
		return "func(context.Context, hxnav.Call) error"
	case SigEventHandler:
		return "func(context.Context, hxnav.Event)"
	default:
		return "unknown"
	}
}

// MethodDecl is a method found in the package source.
type MethodDecl struct {
	Receiver  string
	Signature HandlerSignature
}

// scanPackage parses the package's Go files and returns its name and the
// methods declared on its types, keyed by method name.
func (g *Generator) scanPackage(pkgPath string) (string, map[string][]MethodDecl, error) {
	pkgs, err := parser.ParseDir(g.fset, pkgPath, func(info os.FileInfo) bool {
		name := info.Name()
		return !strings.HasSuffix(name, "_test.go") && !strings.HasSuffix(name, OutputSuffix)
	}, 0)
	if err != nil {
		return "", nil, err
	}

	methods := make(map[string][]MethodDecl)
	pkgName := ""
	for name, pkg := range pkgs {
		pkgName = name
		for _, file := range pkg.Files {
			for name, decl := range g.findMethods(file) {
				methods[name] = append(methods[name], decl...)
			}
		}
	}
	if pkgName == "" {
		pkgName = filepath.Base(pkgPath)
	}
	return pkgName, methods, nil
}

// findMethods returns every method declared in file.
func (g *Generator) findMethods(file *ast.File) map[string][]MethodDecl {
	out := make(map[string][]MethodDecl)
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv == nil || len(fn.Recv.List) == 0 {
			continue
		}
		out[fn.Name.Name] = append(out[fn.Name.Name], MethodDecl{
			Receiver:  receiverName(fn.Recv.List[0].Type),
			Signature: g.detectHandlerSignature(fn.Type),
		})
	}
	return out
}

func receiverName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverName(t.X)
	case *ast.Ident:
		return t.Name
	case *ast.IndexExpr:
		return receiverName(t.X)
	default:
		return ""
	}
}

// detectHandlerSignature matches a function type against the hxnav handler
// shapes. Parameter names are ignored; package qualifiers are not.
func (g *Generator) detectHandlerSignature(fn *ast.FuncType) HandlerSignature {
	var params []string
	if fn.Params != nil {
		for _, field := range fn.Params.List {
			typ := typeToString(field.Type)
			n := len(field.Names)
			if n == 0 {
				n = 1
			}
			for i := 0; i < n; i++ {
				params = append(params, typ)
			}
		}
	}
	var results []string
	if fn.Results != nil {
		for _, field := range fn.Results.List {
			results = append(results, typeToString(field.Type))
		}
	}

	if len(params) != 2 || params[0] != "context.Context" {
		return SigUnknown
	}
	switch {
	case params[1] == "hxnav.Call" && len(results) == 1 && results[0] == "error":
		return SigHandler
	case params[1] == "hxnav.Event" && len(results) == 0:
		return SigEventHandler
	default:
		return SigUnknown
	}
}

// typeToString converts an AST type to a string representation.
func typeToString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return "*" + typeToString(t.X)
	case *ast.SelectorExpr:
		return typeToString(t.X) + "." + t.Sel.Name
	case *ast.ArrayType:
		if t.Len == nil {
			return "[]" + typeToString(t.Elt)
		}
		return "[...]" + typeToString(t.Elt)
	case *ast.MapType:
		return "map[" + typeToString(t.Key) + "]" + typeToString(t.Value)
	case *ast.IndexExpr:
		return typeToString(t.X) + "[" + typeToString(t.Index) + "]"
	default:
		return fmt.Sprintf("%T", expr)
	}
}
