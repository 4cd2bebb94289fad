package resolve

import (
	"context"
	"strings"

	"github.com/kiln-shell/kiln/pkg/repl"
)

// assemblyResolver is the fallback resolver: the argument is a direct file
// path or a bare assembly name. It accepts everything, so it must be last in
// the pipeline.
type assemblyResolver struct{}

// NewAssemblyResolver builds the plain assembly path/name resolver.
func NewAssemblyResolver() Resolver {
	return assemblyResolver{}
}

func (assemblyResolver) CanResolve(string) bool { return true }

func (assemblyResolver) Resolve(_ context.Context, argument string) ([]repl.ReferenceHandle, error) {
	if isFilePath(argument) {
		return []repl.ReferenceHandle{{Path: canonicalPath(argument)}}, nil
	}
	// A bare name; identity is the name itself.
	return []repl.ReferenceHandle{{Path: argument}}, nil
}

func isFilePath(argument string) bool {
	return strings.ContainsAny(argument, `/\`) ||
		strings.HasSuffix(strings.ToLower(argument), ".dll")
}
