package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pthm/hxnav"
	"github.com/pthm/hxnav/lib/generator"
	"github.com/pthm/hxnav/lib/router"
	"github.com/pthm/hxnav/lib/urlpattern"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	if err := run(os.Args[1], os.Args[2:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd string, args []string, out io.Writer) error {
	switch cmd {
	case "generate":
		return runGenerate(args, out)
	case "clean":
		return runClean(args, out)
	case "routes":
		return runRoutes(args, out)
	case "resolve":
		return runResolve(args, out)
	case "version":
		fmt.Fprintf(out, "hxnav version %s\n", version)
		return nil
	case "help", "-h", "--help":
		printUsage(out)
		return nil
	default:
		printUsage(os.Stderr)
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `hxnav - state-based navigation for Go web apps

Usage:
  hxnav <command> [arguments]

Commands:
  generate [packages]          Generate Go bindings for *.nav.toml state files
  clean [packages]             Remove generated files (*_nav.go)
  routes <files>               Print the url, params and route of every state
  resolve <url> <files>        Dispatch url against the states and print the call
  version                      Print version
  help                         Show this help

Options for generate and clean:
  --dry-run                    Show what would change without writing files

Options for resolve:
  --segments                   Try /name/arg path segments before the wildcard state

resolve reads HXNAV_* variables (and .env) like an application would.

Examples:
  hxnav generate ./...
  hxnav routes ./views/sections.nav.toml
  hxnav resolve /section/42?x=1 ./views/*.nav.toml`)
}

// splitFlags separates --flags from positional arguments.
func splitFlags(args []string) (map[string]bool, []string) {
	flags := make(map[string]bool)
	var rest []string
	for _, arg := range args {
		if strings.HasPrefix(arg, "--") {
			flags[strings.TrimPrefix(arg, "--")] = true
		} else {
			rest = append(rest, arg)
		}
	}
	return flags, rest
}

func runGenerate(args []string, out io.Writer) error {
	flags, patterns := splitFlags(args)
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	gen := generator.New(generator.Options{
		DryRun: flags["dry-run"],
		Out:    out,
	})
	return gen.Generate(patterns...)
}

func runClean(args []string, out io.Writer) error {
	flags, patterns := splitFlags(args)
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	gen := generator.New(generator.Options{
		DryRun: flags["dry-run"],
		Out:    out,
	})
	return gen.Clean(patterns...)
}

func runRoutes(args []string, out io.Writer) error {
	_, files := splitFlags(args)
	if len(files) == 0 {
		return fmt.Errorf("routes: no state files given")
	}

	for _, path := range files {
		sf, err := hxnav.ReadStateFile(path)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "# %s (%s)\n", sf.Name, path)
		for _, st := range sf.States {
			if st.URL == "" {
				fmt.Fprintf(out, "%-20s (no url)\n", st.ID)
				continue
			}
			if urlpattern.IsRegexp(st.URL) {
				fmt.Fprintf(out, "%-20s %s  INVALID: regular expression urls are not supported\n", st.ID, st.URL)
				continue
			}
			m, err := router.RouteToRegExp(st.URL)
			if err != nil {
				return fmt.Errorf("state %q: %w", st.ID, err)
			}
			fmt.Fprintf(out, "%-20s %s  params=%v  route=%s\n", st.ID, st.URL, urlpattern.ParamNames(st.URL), m)
		}
	}
	return nil
}

func runResolve(args []string, out io.Writer) error {
	flags, rest := splitFlags(args)
	if len(rest) < 2 {
		return fmt.Errorf("resolve: usage: hxnav resolve <url> <files>")
	}
	url, files := rest[0], rest[1:]

	cfg, err := hxnav.LoadConfig()
	if err != nil {
		return err
	}
	if flags["segments"] {
		cfg.SegmentFallback = true
	}
	reg := hxnav.NewRegistryFromConfig(cfg)

	for _, path := range files {
		sf, err := hxnav.ReadStateFile(path)
		if err != nil {
			return err
		}
		config, err := sf.Bind(printingMethods(sf, out), printingEvents(sf, out))
		if err != nil {
			return err
		}
		if _, err := reg.NewManager(hxnav.NewMemoryRouter(), config); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}

	res, ok := reg.Resolve(url)
	if ok {
		fmt.Fprintf(out, "matched %s in %s\n", res.State, res.Manager.Name())
	} else {
		fmt.Fprintf(out, "no url pattern matches %s\n", url)
	}
	return reg.GoByURL(context.Background(), url, hxnav.TransitionOptions{})
}

// printingMethods binds every handler named in sf to one that prints the
// call it receives.
func printingMethods(sf *hxnav.StateFile, out io.Writer) hxnav.Methods {
	methods := make(hxnav.Methods)
	for _, st := range sf.States {
		for _, name := range []string{st.Transition, st.Load} {
			if name == "" {
				continue
			}
			name := name
			methods[name] = func(_ context.Context, call hxnav.Call) error {
				fmt.Fprintf(out, "%s(%s) state=%s", name, formatArgs(call.Args), call.State)
				if u := call.URL(); u != "" {
					fmt.Fprintf(out, " url=%s", u)
				}
				fmt.Fprintln(out)
				return nil
			}
		}
	}
	return methods
}

// printingEvents binds every event handler named in sf to one that prints
// the event name.
func printingEvents(sf *hxnav.StateFile, out io.Writer) hxnav.EventMethods {
	events := make(hxnav.EventMethods)
	for _, name := range sf.Events {
		name := name
		events[name] = func(_ context.Context, ev hxnav.Event) {
			fmt.Fprintf(out, "%s <- %s\n", name, ev.Name)
		}
	}
	return events
}

func formatArgs(args []any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		if a == nil {
			parts[i] = "nil"
			continue
		}
		parts[i] = fmt.Sprintf("%q", urlpattern.Stringify(a))
	}
	return strings.Join(parts, ", ")
}
