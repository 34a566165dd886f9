package generator

import (
	"bytes"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// generateStateFile writes the *_nav.go file for a state file.
func (g *Generator) generateStateFile(pkgPath string, info *StateFileInfo) error {
	baseName := strings.TrimSuffix(info.SourceFile, StateFileSuffix)
	outputFile := filepath.Join(pkgPath, baseName+OutputSuffix)

	fmt.Fprintf(g.opts.Out, "generating %s\n", outputFile)

	if g.opts.DryRun {
		return nil
	}

	code, err := Render(info)
	if err != nil {
		// Write unformatted for debugging
		if code != nil {
			if writeErr := os.WriteFile(outputFile+".unformatted", code, 0644); writeErr == nil {
				fmt.Fprintf(g.opts.Out, "  wrote unformatted code to %s.unformatted for debugging\n", outputFile)
			}
		}
		return err
	}

	return os.WriteFile(outputFile, code, 0644)
}

// Render executes the template for info and formats the result. On a
// formatting error the unformatted source is returned with the error.
func Render(info *StateFileInfo) ([]byte, error) {
	tmpl, err := template.New("nav").Funcs(template.FuncMap{
		"join":  strings.Join,
		"quote": func(s string) string { return fmt.Sprintf("%q", s) },
	}).Parse(navTemplate)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, info); err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		return buf.Bytes(), fmt.Errorf("format source: %w", err)
	}
	return formatted, nil
}

const navTemplate = `// Code generated by hxnav generate from {{.SourceFile}}. DO NOT EDIT.

package {{.Package}}

import (
	"context"

	"github.com/pthm/hxnav"
)

// State ids declared in {{.SourceFile}}.
const (
{{- range .States}}
	{{.Const}} = {{quote .ID}}
{{- end}}
)

// {{.TypeName}}Handlers serves the {{quote .Name}} states.
type {{.TypeName}}Handlers interface {
{{- range .Handlers}}
	{{.}}(ctx context.Context, call hxnav.Call) error
{{- end}}
{{- range .EventMethods}}
	{{.}}(ctx context.Context, ev hxnav.Event)
{{- end}}
}
{{if .Receiver}}
var _ {{.TypeName}}Handlers = (*{{.Receiver}})(nil)
{{end}}
// {{.TypeName}}Config binds h to the {{quote .Name}} state table.
func {{.TypeName}}Config(h {{.TypeName}}Handlers) hxnav.Config {
	return hxnav.Config{
		Name: {{quote .Name}},
		States: []hxnav.State{
		{{- range .States}}
			{ID: {{.Const}}{{if .URL}}, URL: {{quote .URL}}{{end}}, Transition: h.{{.Transition}}{{if .Load}}, Load: h.{{.Load}}{{end}}},
		{{- end}}
		},
		{{- if .Events}}
		Events: map[string]hxnav.EventHandler{
		{{- range .Events}}
			{{quote .Event}}: h.{{.Method}},
		{{- end}}
		},
		{{- end}}
	}
}
{{range .States}}
{{- if .URL}}
// Go{{.Ident}} transitions to {{quote .ID}} ({{.URL}}) on the default registry.
func Go{{.Ident}}(ctx context.Context{{range .Params}}, {{.}} any{{end}}, opts hxnav.TransitionOptions) error {
	return hxnav.Go(ctx, {{.Const}}, hxnav.Positional({{join .Params ", "}}), opts)
}
{{else}}
// Go{{.Ident}} transitions to {{quote .ID}} on the default registry.
func Go{{.Ident}}(ctx context.Context, params hxnav.Params, opts hxnav.TransitionOptions) error {
	return hxnav.Go(ctx, {{.Const}}, params, opts)
}
{{end}}
{{- end}}
`
