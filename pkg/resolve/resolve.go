// Package resolve turns reference-directive arguments into loadable binary
// references. A pipeline composes resolvers in priority order; the first
// resolver that recognizes an argument handles it. Failures are soft: they
// are reported on the user-facing error channel and yield an empty reference
// set, never an error that would abort the evaluation.
package resolve

import (
	"context"
	"io"

	"github.com/kiln-shell/kiln/pkg/diag"
	"github.com/kiln-shell/kiln/pkg/logutil"
	"github.com/kiln-shell/kiln/pkg/repl"
)

var logger = logutil.GetLogger("[resolve] ")

// Resolver handles one form of reference-directive argument.
type Resolver interface {
	// CanResolve reports whether this resolver recognizes the argument.
	CanResolve(argument string) bool
	// Resolve maps the argument to a set of loadable references. It returns
	// an error only for cancellation or genuine failure; the pipeline
	// decides how failures surface.
	Resolve(ctx context.Context, argument string) ([]repl.ReferenceHandle, error)
}

// Pipeline tries resolvers in priority order. It implements
// repl.DirectiveResolver.
type Pipeline struct {
	resolvers []Resolver
	errw      io.Writer
}

// NewPipeline builds a pipeline. Resolution failures are reported to errw.
func NewPipeline(errw io.Writer, resolvers ...Resolver) *Pipeline {
	return &Pipeline{resolvers: resolvers, errw: errw}
}

// Resolve routes the argument to the first resolver whose CanResolve
// predicate accepts it. Failure is non-fatal to the session: it is shown on
// the error channel and yields an empty set. The returned error is non-nil
// only when resolution was cancelled.
func (p *Pipeline) Resolve(ctx context.Context, argument string) ([]repl.ReferenceHandle, error) {
	for _, r := range p.resolvers {
		if !r.CanResolve(argument) {
			continue
		}
		refs, err := r.Resolve(ctx, argument)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Printf("resolving %q: %v", argument, err)
			diag.Complainf(p.errw, "cannot resolve %q: %v", argument, err)
			return nil, nil
		}
		return refs, nil
	}
	diag.Complainf(p.errw, "no resolver for reference %q", argument)
	return nil, nil
}
