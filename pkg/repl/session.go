// Package repl implements the incremental evaluation session of the shell: a
// state machine that threads accumulated program state across successive
// evaluations, with cancellation and error recovery.
package repl

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kiln-shell/kiln/pkg/logutil"
)

var logger = logutil.GetLogger("[repl] ")

// Session holds the state accumulated across evaluations: the fragments
// already evaluated, the compiler state with its declared bindings and
// imports, and the monotonically growing reference set.
//
// A Session is exclusively owned by the REPL driver loop. Apply calls are
// serialized; the session is mutated by exactly one evaluation at a time.
type Session struct {
	compiler Compiler
	resolver DirectiveResolver

	mu        sync.Mutex
	fragments []Fragment
	state     SessionState
	refs      []ReferenceHandle
	refSet    map[string]bool
}

// NewSession creates a session around a compiler. The resolver handles
// reference directives and may be nil, in which case directives resolve to
// nothing.
func NewSession(compiler Compiler, resolver DirectiveResolver) *Session {
	return &Session{
		compiler: compiler,
		resolver: resolver,
		refSet:   make(map[string]bool),
	}
}

// Apply evaluates one fragment against the session. The outer contract is
// atomic-or-nothing: on Error or Cancelled the session is left exactly as it
// was before the call; on Success the fragment's effects are fully committed
// before Apply returns.
func (s *Session) Apply(ctx context.Context, fragment Fragment) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, directives := ExtractDirectives(fragment.Code)

	newRefs, err := s.resolveDirectives(ctx, directives)
	if err != nil {
		return Result{Kind: Cancelled}
	}

	refs := append(append([]ReferenceHandle(nil), s.refs...), newRefs...)
	newState, value, err := s.evaluate(ctx, code, refs)
	if err != nil {
		if isCancellation(ctx, err) {
			return Result{Kind: Cancelled}
		}
		return Result{Kind: Error, Err: err}
	}

	// Commit.
	s.fragments = append(s.fragments, fragment)
	s.state = newState
	for _, ref := range newRefs {
		s.refs = append(s.refs, ref)
		s.refSet[ref.Path] = true
	}
	return Result{Kind: Success, Value: value, NewReferences: newRefs}
}

// resolveDirectives resolves the directive arguments of a fragment into
// references not yet present in the session. A non-nil error means the
// resolution was cancelled.
func (s *Session) resolveDirectives(ctx context.Context, directives []string) ([]ReferenceHandle, error) {
	var newRefs []ReferenceHandle
	seen := make(map[string]bool)
	for _, directive := range directives {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.resolver == nil {
			continue
		}
		resolved, err := s.resolver.Resolve(ctx, directive)
		if err != nil {
			return nil, err
		}
		for _, ref := range resolved {
			if s.refSet[ref.Path] || seen[ref.Path] {
				continue
			}
			seen[ref.Path] = true
			newRefs = append(newRefs, ref)
		}
	}
	return newRefs, nil
}

// evaluate delegates to the compiler, converting a compiler panic into an
// Error outcome so that nothing escapes the session as an unhandled fault.
func (s *Session) evaluate(ctx context.Context, code string, refs []ReferenceHandle) (state SessionState, value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Printf("compiler panicked: %v", r)
			state, value = nil, nil
			if e, ok := r.(error); ok {
				err = fmt.Errorf("compiler fault: %w", e)
			} else {
				err = fmt.Errorf("compiler fault: %v", r)
			}
		}
	}()
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return s.compiler.Evaluate(ctx, code, s.state, refs)
}

func isCancellation(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Bindings returns the declared identifiers in declaration order. A later
// redeclaration shadows rather than removes the earlier entry.
func (s *Session) Bindings() []Binding {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil
	}
	return s.state.Bindings()
}

// Usings returns the accumulated import directives.
func (s *Session) Usings() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil
	}
	return s.state.Usings()
}

// References returns the accumulated reference set. It only ever grows;
// references are never unloaded mid-session.
func (s *Session) References() []ReferenceHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ReferenceHandle(nil), s.refs...)
}

// Fragments returns the fragments evaluated successfully so far.
func (s *Session) Fragments() []Fragment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Fragment(nil), s.fragments...)
}

// Reset discards all accumulated state, returning the session to its initial
// condition.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fragments = nil
	s.state = nil
	s.refs = nil
	s.refSet = make(map[string]bool)
}
