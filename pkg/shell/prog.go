package shell

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/kiln-shell/kiln/pkg/compiler/remote"
	"github.com/kiln-shell/kiln/pkg/compiler/starlarkc"
	"github.com/kiln-shell/kiln/pkg/compiler/wasmc"
	"github.com/kiln-shell/kiln/pkg/complete"
	"github.com/kiln-shell/kiln/pkg/diag"
	"github.com/kiln-shell/kiln/pkg/format"
	"github.com/kiln-shell/kiln/pkg/prog"
	"github.com/kiln-shell/kiln/pkg/repl"
	"github.com/kiln-shell/kiln/pkg/resolve"
	"github.com/kiln-shell/kiln/pkg/store"
	"github.com/kiln-shell/kiln/pkg/sys"
	"github.com/kiln-shell/kiln/pkg/ui"
)

// Program is the shell subprogram. It is the last member of the
// composite program and is always suitable.
type Program struct{}

func (Program) Run(fds [3]*os.File, f *prog.Flags, args []string) error {
	theme := ui.DefaultTheme
	if !sys.IsATTY(fds[1]) {
		theme = ui.MakeTheme(nil)
	}
	if f.Theme != "" {
		t, err := ui.LoadTheme(f.Theme)
		if err != nil {
			diag.Complainf(fds[2], "cannot load theme: %v", err)
		} else {
			theme = t
		}
	}
	printer := format.NewPrinter(theme, format.PrinterConfig{})

	compiler, cleanup, err := newCompiler(f.Compiler)
	if err != nil {
		return err
	}
	defer cleanup()

	pipeline := resolve.NewPipeline(fds[2], resolve.NewAssemblyResolver())
	session := repl.NewSession(compiler, pipeline)

	if f.CodeInArg {
		if len(args) == 0 {
			return prog.BadUsage("-c requires an argument")
		}
		return evalOnce(fds, session, printer, args[0], args[1:])
	}
	if len(args) > 0 {
		code, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("cannot read script: %w", err)
		}
		return evalOnce(fds, session, printer, string(code), args[1:])
	}

	var st store.Store
	if !f.NoDB {
		st, err = openStore(f.DB)
		if err != nil {
			diag.Complainf(fds[2], "cannot open history database: %v", err)
			diag.Complainf(fds[2], "continuing without history")
		} else {
			defer st.Close()
		}
	}

	cfg := &InteractConfig{
		Session: session,
		Printer: printer,
		Store:   st,
	}
	if w, ok := compiler.(repl.Warmer); ok {
		cfg.Warmer = w
	}
	if c, ok := compiler.(complete.Completer); ok {
		cfg.Completions = complete.NewCache(c)
	}
	Interact(fds, cfg)
	return nil
}

// newCompiler builds the evaluation backend named by the -compiler
// flag. The cleanup function releases backend resources; it is non-nil
// even when there is nothing to release.
func newCompiler(name string) (repl.Compiler, func(), error) {
	switch {
	case name == "" || name == "starlark":
		return starlarkc.New(nil), func() {}, nil
	case strings.HasSuffix(name, ".wasm"):
		wasm, err := os.ReadFile(name)
		if err != nil {
			return nil, nil, fmt.Errorf("cannot read compiler module: %w", err)
		}
		c, err := wasmc.Load(context.Background(), wasm)
		if err != nil {
			return nil, nil, err
		}
		return c, func() { c.Close(context.Background()) }, nil
	case strings.Contains(name, ":"):
		conn, err := net.Dial("tcp", name)
		if err != nil {
			return nil, nil, fmt.Errorf("cannot connect to compiler service: %w", err)
		}
		c := remote.Dial(context.Background(), conn)
		return c, func() { c.Close() }, nil
	default:
		return nil, nil, prog.BadUsage("unknown compiler backend: " + name)
	}
}

func openStore(path string) (store.Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir := filepath.Join(home, ".kiln")
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "db")
	}
	return store.NewStore(path)
}

// evalOnce applies the whole input as a single fragment and renders the
// outcome, for script files and -c. Remaining command line arguments
// are attached to the fragment.
func evalOnce(fds [3]*os.File, session *repl.Session, printer *format.Printer, code string, args []string) error {
	result := session.Apply(context.Background(), repl.Fragment{Code: code, Args: args})
	switch result.Kind {
	case repl.Success:
		if result.Value != nil {
			fv := printer.FormatObject(result.Value, format.Summary)
			fmt.Fprintln(fds[1], fv.Text.VTString())
		}
		return nil
	case repl.Cancelled:
		return prog.Exit(1)
	default:
		diag.ShowError(fds[2], result.Err)
		return prog.Exit(1)
	}
}
