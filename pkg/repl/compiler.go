package repl

import (
	"context"

	"github.com/kiln-shell/kiln/pkg/ui"
)

// Binding is a declared identifier with its inferred type and current value.
type Binding struct {
	Name     string
	TypeName string
	Value    any
}

// SessionState is the accumulated compiler state carried between
// evaluations. Its contents are owned by the Compiler; the session only
// inspects the declarations and import directives it reports.
type SessionState interface {
	// Bindings returns the declared identifiers in declaration order. A
	// redeclared name keeps its original slot (shadowing, not removal).
	Bindings() []Binding
	// Usings returns the accumulated import directives, deduplicated.
	Usings() []string
}

// Compiler compiles and runs one code fragment against prior session state.
// Implementations must be deterministic given identical state and fragment,
// ignoring side effects performed by the evaluated code itself.
type Compiler interface {
	// Evaluate returns the superseding state and the produced value (which
	// may be nil for statements). The prior state is nil on the first
	// fragment. refs is the full accumulated reference set, including
	// references resolved from directives in this same fragment.
	//
	// A compile-time problem is reported as *Diagnostic; code that ran and
	// failed is reported as *RuntimeError. Cancellation surfaces as the
	// context's error.
	Evaluate(ctx context.Context, code string, prior SessionState, refs []ReferenceHandle) (SessionState, any, error)
}

// Warmer is implemented by compilers that benefit from pre-warming (first-use
// latency hiding). Warm must not touch any live session state.
type Warmer interface {
	Warm(ctx context.Context)
}

// Diagnostic reports a syntactically or semantically invalid fragment. It is
// recoverable: the session is left unchanged and the user may retry.
type Diagnostic struct {
	Message string
	// Incomplete marks a fragment that is a valid prefix of a longer
	// statement. It is not an error; it signals the input collector to
	// request another line instead of evaluating.
	Incomplete bool
}

func (d *Diagnostic) Error() string { return d.Message }

// Show implements diag.Shower.
func (d *Diagnostic) Show(indent string) string {
	return "compilation error: " + ui.T(d.Message, ui.FgRed, ui.Bold).VTString()
}

// RuntimeError reports that the evaluated code itself failed while running.
// The failure is a value to be formatted, not a fault of the session.
type RuntimeError struct {
	Err error
}

func (e *RuntimeError) Error() string { return e.Err.Error() }
func (e *RuntimeError) Unwrap() error { return e.Err }

// DirectiveResolver resolves one reference-directive argument into a set of
// loadable binary references. Resolution failures are soft: they are reported
// to the user-facing error channel by the resolver and yield an empty set. A
// non-nil error is only returned for cancellation.
type DirectiveResolver interface {
	Resolve(ctx context.Context, argument string) ([]ReferenceHandle, error)
}
