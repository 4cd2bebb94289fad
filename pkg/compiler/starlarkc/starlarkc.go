// Package starlarkc provides an in-process Starlark evaluation backend.
//
// Each submitted fragment is executed against the accumulated session
// globals. A fragment that is a single expression yields its value;
// otherwise the fragment's top-level bindings are merged into the
// session, later bindings shadowing earlier ones.
package starlarkc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/kiln-shell/kiln/pkg/logutil"
	"github.com/kiln-shell/kiln/pkg/repl"
)

var logger = logutil.GetLogger("[starlarkc] ")

// State is the session state accumulated by the Starlark backend. The
// zero value is an empty session.
type State struct {
	globals starlark.StringDict
	usings  []string
}

// Bindings returns the session's top-level bindings, sorted by name.
func (s *State) Bindings() []repl.Binding {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.globals))
	for name := range s.globals {
		names = append(names, name)
	}
	sort.Strings(names)
	bindings := make([]repl.Binding, 0, len(names))
	for _, name := range names {
		v := s.globals[name]
		bindings = append(bindings, repl.Binding{
			Name:     name,
			TypeName: v.Type(),
			Value:    goValue(v),
		})
	}
	return bindings
}

// Usings returns the module files loaded into the session so far.
func (s *State) Usings() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.usings...)
}

// Compiler evaluates fragments with the embedded Starlark interpreter.
type Compiler struct {
	opts        *syntax.FileOptions
	predeclared starlark.StringDict
}

// New returns a Compiler with the given predeclared environment, which
// may be nil.
func New(predeclared starlark.StringDict) *Compiler {
	return &Compiler{
		opts: &syntax.FileOptions{
			Set:             true,
			While:           true,
			TopLevelControl: true,
			GlobalReassign:  true,
			Recursion:       true,
		},
		predeclared: predeclared,
	}
}

// Evaluate implements repl.Compiler.
func (c *Compiler) Evaluate(ctx context.Context, code string, prior repl.SessionState, refs []repl.ReferenceHandle) (repl.SessionState, any, error) {
	next := &State{globals: starlark.StringDict{}}
	if st, ok := prior.(*State); ok && st != nil {
		for name, v := range st.globals {
			next.globals[name] = v
		}
		next.usings = append(next.usings, st.usings...)
	}

	thread := &starlark.Thread{Name: "session"}
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			thread.Cancel(ctx.Err().Error())
		case <-done:
		}
	}()

	for _, ref := range refs {
		if err := c.loadReference(thread, next, ref); err != nil {
			return nil, nil, err
		}
	}

	f, err := c.opts.Parse("<session>", code, 0)
	if err != nil {
		return nil, nil, parseDiagnostic(err)
	}

	env := c.environment(next)
	if expr := soleExpr(f); expr != nil {
		v, err := starlark.EvalExprOptions(c.opts, thread, expr, env)
		if err != nil {
			return nil, nil, evalError(ctx, err)
		}
		return next, goValue(v), nil
	}

	// Statements execute in REPL mode against the merged environment, so
	// that a fragment can rebind a name it refers to, e.g. "x = x + 1".
	if err := starlark.ExecREPLChunk(f, thread, env); err != nil {
		return nil, nil, evalError(ctx, err)
	}
	for name, v := range env {
		if pv, ok := c.predeclared[name]; ok && pv == v {
			continue
		}
		next.globals[name] = v
	}
	return next, nil, nil
}

// environment builds the evaluation environment: predeclared names
// overlaid with the session globals.
func (c *Compiler) environment(s *State) starlark.StringDict {
	env := make(starlark.StringDict, len(c.predeclared)+len(s.globals))
	for name, v := range c.predeclared {
		env[name] = v
	}
	for name, v := range s.globals {
		env[name] = v
	}
	return env
}

// loadReference executes a referenced script file, merging its globals
// into the session. Unreadable references are skipped.
func (c *Compiler) loadReference(thread *starlark.Thread, s *State, ref repl.ReferenceHandle) error {
	for _, u := range s.usings {
		if u == ref.Path {
			return nil
		}
	}
	src, err := os.ReadFile(ref.Path)
	if err != nil {
		logger.Println("skipping unreadable reference:", err)
		return nil
	}
	globals, err := starlark.ExecFileOptions(c.opts, thread, ref.Path, src, c.environment(s))
	if err != nil {
		return &repl.Diagnostic{Message: fmt.Sprintf("loading %s: %v", ref.Path, err)}
	}
	for name, v := range globals {
		s.globals[name] = v
	}
	s.usings = append(s.usings, ref.Path)
	return nil
}

// soleExpr returns the expression when the file consists of exactly one
// expression statement, nil otherwise.
func soleExpr(f *syntax.File) syntax.Expr {
	if len(f.Stmts) == 1 {
		if stmt, ok := f.Stmts[0].(*syntax.ExprStmt); ok {
			return stmt.X
		}
	}
	return nil
}

// parseDiagnostic converts a Starlark syntax error to a Diagnostic,
// marking errors at end of input as incomplete.
func parseDiagnostic(err error) *repl.Diagnostic {
	d := &repl.Diagnostic{Message: err.Error()}
	var serr syntax.Error
	if errors.As(err, &serr) {
		d.Message = serr.Msg
	}
	if strings.Contains(d.Message, "end of file") {
		d.Incomplete = true
	}
	return d
}

// evalError maps an evaluation failure to the session error taxonomy.
func evalError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		return &repl.RuntimeError{Err: evalErr}
	}
	return &repl.Diagnostic{Message: err.Error()}
}
