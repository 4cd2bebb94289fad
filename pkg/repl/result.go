package repl

import "errors"

// ResultKind tags the variant of a Result.
type ResultKind int

const (
	// Success carries the produced value and any newly loaded references.
	Success ResultKind = iota
	// Error carries a diagnostic, a runtime failure, or a compiler fault.
	Error
	// Cancelled reports a user-initiated abort; the session is unchanged.
	Cancelled
)

func (k ResultKind) String() string {
	switch k {
	case Success:
		return "success"
	case Error:
		return "error"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

// Result is the outcome of applying one fragment. Exactly one variant is
// populated; callers must switch on Kind and never assume a field is set.
type Result struct {
	Kind ResultKind

	// Value is the produced value, for Success. It may be nil (a statement).
	Value any
	// NewReferences are the references newly loaded by this fragment, for
	// Success.
	NewReferences []ReferenceHandle

	// Err is the failure, for Error: *Diagnostic, *RuntimeError, or an
	// unexpected compiler fault.
	Err error
}

// Incomplete reports whether the result is the distinct diagnostic sub-kind
// for a fragment that is a valid prefix of a longer statement, so the caller
// can request more input instead of displaying an error.
func (r Result) Incomplete() bool {
	var d *Diagnostic
	return r.Kind == Error && errors.As(r.Err, &d) && d.Incomplete
}
