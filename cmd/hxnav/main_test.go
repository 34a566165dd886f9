package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const statesToml = `
name = "sections"

[[state]]
id = "section"
url = "section/:id"
transition = "showSection"

[[state]]
id = "*"
transition = "notFound"

[[state]]
id = "users.detail"
transition = "showUser"

[events]
exit = "teardown"
`

func writeStates(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sections.nav.toml")
	if err := os.WriteFile(path, []byte(statesToml), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRoutes(t *testing.T) {
	path := writeStates(t)

	var out bytes.Buffer
	if err := run("routes", []string{path}, &out); err != nil {
		t.Fatalf("routes: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"# sections",
		"section/:id  params=[id]",
		`route=^section/([^/?]+)`,
		"users.detail",
		"(no url)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("routes output missing %q:\n%s", want, got)
		}
	}
}

func TestResolve(t *testing.T) {
	path := writeStates(t)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "url match",
			args: []string{"/section/42?x=1", path},
			want: []string{
				"matched section in sections",
				`showSection("42", "x=1") state=section url=section/42?x=1`,
			},
		},
		{
			name: "wildcard",
			args: []string{"/users/7", path},
			want: []string{
				"no url pattern matches /users/7",
				`notFound("/users/7") state=*`,
			},
		},
		{
			name: "segments",
			args: []string{"--segments", "/users/7", path},
			want: []string{`showUser("7", "") state=users.detail`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if err := run("resolve", tt.args, &out); err != nil {
				t.Fatalf("resolve: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out.String(), want) {
					t.Errorf("resolve output missing %q:\n%s", want, out.String())
				}
			}
		})
	}
}

func TestResolveUsage(t *testing.T) {
	if err := run("resolve", []string{"/only-url"}, &bytes.Buffer{}); err == nil {
		t.Error("expected usage error")
	}
}

func TestVersionAndUnknown(t *testing.T) {
	var out bytes.Buffer
	if err := run("version", nil, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "hxnav version "+version) {
		t.Errorf("version output = %q", out.String())
	}

	if err := run("bogus", nil, &bytes.Buffer{}); err == nil {
		t.Error("expected error for unknown command")
	}
}

func TestGenerateDryRun(t *testing.T) {
	dir := filepath.Dir(writeStates(t))

	var out bytes.Buffer
	if err := run("generate", []string{"--dry-run", dir}, &out); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(out.String(), "sections_nav.go") {
		t.Errorf("generate output = %q", out.String())
	}
	if _, err := os.Stat(filepath.Join(dir, "sections_nav.go")); !os.IsNotExist(err) {
		t.Error("dry run wrote a file")
	}
}
