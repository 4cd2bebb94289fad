package resolve

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/kiln-shell/kiln/pkg/repl"
)

// Builder invokes an external build of a project or solution file and
// reports the built output paths.
type Builder interface {
	Build(ctx context.Context, path string) ([]string, error)
}

// projectFileResolver resolves arguments that name a project or solution
// file by building them and referencing the build outputs.
type projectFileResolver struct {
	builder    Builder
	extensions []string
}

// DefaultProjectExtensions are the project and solution file extensions
// recognized by NewProjectFileResolver when none are given.
var DefaultProjectExtensions = []string{".csproj", ".fsproj", ".sln"}

// NewProjectFileResolver builds the resolver for project and solution files.
func NewProjectFileResolver(builder Builder, extensions []string) Resolver {
	if len(extensions) == 0 {
		extensions = DefaultProjectExtensions
	}
	return &projectFileResolver{builder: builder, extensions: extensions}
}

func (r *projectFileResolver) CanResolve(argument string) bool {
	for _, ext := range r.extensions {
		if strings.HasSuffix(strings.ToLower(argument), ext) {
			return true
		}
	}
	return false
}

func (r *projectFileResolver) Resolve(ctx context.Context, argument string) ([]repl.ReferenceHandle, error) {
	outputs, err := r.builder.Build(ctx, argument)
	if err != nil {
		return nil, err
	}
	refs := make([]repl.ReferenceHandle, 0, len(outputs))
	for _, output := range outputs {
		refs = append(refs, repl.ReferenceHandle{Path: canonicalPath(output)})
	}
	return refs, nil
}

func canonicalPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
