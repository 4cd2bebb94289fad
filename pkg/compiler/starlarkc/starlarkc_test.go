package starlarkc

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.starlark.net/starlark"

	"github.com/kiln-shell/kiln/pkg/repl"
)

func evalChain(t *testing.T, c *Compiler, codes ...string) (repl.SessionState, any) {
	t.Helper()
	var (
		state repl.SessionState
		value any
	)
	for _, code := range codes {
		var err error
		state, value, err = c.Evaluate(context.Background(), code, state, nil)
		if err != nil {
			t.Fatalf("Evaluate(%q): %v", code, err)
		}
	}
	return state, value
}

func TestEvaluate_ExpressionUsesPriorBindings(t *testing.T) {
	_, v := evalChain(t, New(nil), "x = 5", "x * 2")
	if v != int64(10) {
		t.Errorf("got %v (%T), want 10", v, v)
	}
}

func TestEvaluate_StatementsYieldNoValue(t *testing.T) {
	state, v := evalChain(t, New(nil), "x = 1\ny = 2")
	if v != nil {
		t.Errorf("got value %v, want nil", v)
	}
	want := []repl.Binding{
		{Name: "x", TypeName: "int", Value: int64(1)},
		{Name: "y", TypeName: "int", Value: int64(2)},
	}
	if diff := cmp.Diff(want, state.Bindings()); diff != "" {
		t.Errorf("bindings mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluate_LaterBindingShadowsEarlier(t *testing.T) {
	state, _ := evalChain(t, New(nil), "x = 5", `x = "now a string"`)
	bindings := state.Bindings()
	if len(bindings) != 1 {
		t.Fatalf("got %d bindings, want 1", len(bindings))
	}
	if bindings[0].TypeName != "string" || bindings[0].Value != "now a string" {
		t.Errorf("got %+v, want shadowed string binding", bindings[0])
	}
}

func TestEvaluate_RebindingReferencesPriorValue(t *testing.T) {
	_, v := evalChain(t, New(nil), "x = 5", "x = x + 1", "x")
	if v != int64(6) {
		t.Errorf("got %v, want 6", v)
	}
}

func TestEvaluate_FunctionsPersistAcrossFragments(t *testing.T) {
	_, v := evalChain(t, New(nil), "def double(n):\n    return n * 2\n", "double(21)")
	if v != int64(42) {
		t.Errorf("got %v, want 42", v)
	}
}

func TestEvaluate_PredeclaredEnvironment(t *testing.T) {
	c := New(starlark.StringDict{"answer": starlark.MakeInt(42)})
	_, v := evalChain(t, c, "answer")
	if v != int64(42) {
		t.Errorf("got %v, want 42", v)
	}
}

func TestEvaluate_CompositeValues(t *testing.T) {
	_, v := evalChain(t, New(nil), `[1, "two", {"k": True}]`)
	want := []any{int64(1), "two", map[any]any{"k": true}}
	if diff := cmp.Diff(want, v); diff != "" {
		t.Errorf("value mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluate_IncompleteInput(t *testing.T) {
	c := New(nil)
	_, _, err := c.Evaluate(context.Background(), "def f():", nil, nil)
	var d *repl.Diagnostic
	if !errors.As(err, &d) {
		t.Fatalf("got %v, want *repl.Diagnostic", err)
	}
	if !d.Incomplete {
		t.Errorf("diagnostic %q not marked incomplete", d.Message)
	}
}

func TestEvaluate_SyntaxError(t *testing.T) {
	c := New(nil)
	_, _, err := c.Evaluate(context.Background(), "x = = 1", nil, nil)
	var d *repl.Diagnostic
	if !errors.As(err, &d) {
		t.Fatalf("got %v, want *repl.Diagnostic", err)
	}
	if d.Incomplete {
		t.Errorf("syntax error %q wrongly marked incomplete", d.Message)
	}
}

func TestEvaluate_RuntimeError(t *testing.T) {
	c := New(nil)
	_, _, err := c.Evaluate(context.Background(), "1 // 0", nil, nil)
	var rerr *repl.RuntimeError
	if !errors.As(err, &rerr) {
		t.Fatalf("got %v, want *repl.RuntimeError", err)
	}
}

func TestEvaluate_ErrorLeavesPriorStateUsable(t *testing.T) {
	c := New(nil)
	state, _ := evalChain(t, New(nil), "x = 5")
	if _, _, err := c.Evaluate(context.Background(), "1 // 0", state, nil); err == nil {
		t.Fatal("division by zero did not fail")
	}
	_, v, err := c.Evaluate(context.Background(), "x + 1", state, nil)
	if err != nil {
		t.Fatal(err)
	}
	if v != int64(6) {
		t.Errorf("got %v, want 6", v)
	}
}

func TestEvaluate_Cancellation(t *testing.T) {
	c := New(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, _, err := c.Evaluate(ctx, "while True:\n    pass\n", nil, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("got %v, want context.DeadlineExceeded", err)
	}
}

func TestEvaluate_LoadsReferencedScripts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lib.star")
	if err := os.WriteFile(path, []byte("def triple(n):\n    return n * 3\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	c := New(nil)
	state, _, err := c.Evaluate(context.Background(), "triple(4)", nil, []repl.ReferenceHandle{{Path: path}})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{path}, state.Usings()); diff != "" {
		t.Errorf("usings mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluate_BrokenReferenceIsDiagnostic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.star")
	if err := os.WriteFile(path, []byte("1 // 0\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	c := New(nil)
	_, _, err := c.Evaluate(context.Background(), "1", nil, []repl.ReferenceHandle{{Path: path}})
	var d *repl.Diagnostic
	if !errors.As(err, &d) {
		t.Fatalf("got %v, want *repl.Diagnostic", err)
	}
}

func TestSessionIntegration(t *testing.T) {
	s := repl.NewSession(New(nil), nil)
	res := s.Apply(context.Background(), repl.Fragment{Code: "x = 5"})
	if res.Kind != repl.Success {
		t.Fatalf("first fragment: %+v", res)
	}
	res = s.Apply(context.Background(), repl.Fragment{Code: "x * 2"})
	if res.Kind != repl.Success {
		t.Fatalf("second fragment: %+v", res)
	}
	if res.Value != int64(10) {
		t.Errorf("got %v, want 10", res.Value)
	}
}

func TestEvaluate_ReferenceLoadFailure(t *testing.T) {
	c := New(nil)
	// Missing files are skipped, not fatal.
	state, v, err := c.Evaluate(context.Background(), "7", nil, []repl.ReferenceHandle{{Path: "/nonexistent/lib.star"}})
	if err != nil {
		t.Fatal(err)
	}
	if v != int64(7) {
		t.Errorf("got %v, want 7", v)
	}
	if len(state.Usings()) != 0 {
		t.Errorf("usings = %v, want none", state.Usings())
	}
}
