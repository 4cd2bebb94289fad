package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/kiln-shell/kiln/pkg/repl"
)

// PackagePrefix starts a package-coordinate argument, as in
// `nuget: SomePkg, 1.0.0`.
const PackagePrefix = "nuget:"

// ErrPackageNotFound is reported by a PackageResolver when the named package
// or version does not exist. It is a soft failure.
var ErrPackageNotFound = errors.New("package not found")

// Asset is one loadable file of an installed package, possibly specific to a
// target framework.
type Asset struct {
	Path string
	// Framework is the framework moniker of this asset, or "" for a
	// framework-neutral asset.
	Framework string
}

// Package is an installed package, including ones pulled in transitively.
type Package struct {
	ID      string
	Version string
	Assets  []Asset
}

// PackageResolver installs a package coordinate and its transitive
// dependencies. When the package or version does not exist it reports
// ErrPackageNotFound instead of failing hard.
type PackageResolver interface {
	Install(ctx context.Context, id, version string) ([]Package, error)
}

// packageCoordinateResolver resolves `nuget: Id[, Version]` arguments through
// an external PackageResolver, picking for each installed package the asset
// variant for the highest compatible target framework.
type packageCoordinateResolver struct {
	installer PackageResolver
	// frameworks is the compatibility chain of the current target framework,
	// highest (most specific) first.
	frameworks []string

	mu sync.Mutex
	// installed caches the references picked for a package, keyed by
	// "id@version". A repeated resolve of the same package returns the same
	// references again; whether they are new to the session is for the
	// session to decide, so a resolve attempt it discards can be retried.
	installed map[string][]repl.ReferenceHandle
}

// NewPackageCoordinateResolver builds the resolver for package coordinates.
// frameworks is the chain of target frameworks compatible with the session,
// ordered highest first.
func NewPackageCoordinateResolver(installer PackageResolver, frameworks []string) Resolver {
	return &packageCoordinateResolver{
		installer:  installer,
		frameworks: frameworks,
		installed:  make(map[string][]repl.ReferenceHandle),
	}
}

func (r *packageCoordinateResolver) CanResolve(argument string) bool {
	return strings.HasPrefix(argument, PackagePrefix)
}

func (r *packageCoordinateResolver) Resolve(ctx context.Context, argument string) ([]repl.ReferenceHandle, error) {
	id, version, err := ParsePackageCoordinate(argument)
	if err != nil {
		return nil, err
	}

	packages, err := r.installer.Install(ctx, id, version)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	var refs []repl.ReferenceHandle
	for _, pkg := range packages {
		key := pkg.ID + "@" + pkg.Version
		picked, ok := r.installed[key]
		if !ok {
			for _, asset := range r.pickAssets(pkg) {
				picked = append(picked, repl.ReferenceHandle{Path: asset.Path})
			}
			r.installed[key] = picked
		}
		refs = append(refs, picked...)
	}
	return refs, nil
}

// pickAssets selects the assets of the highest compatible framework-specific
// variant, falling back to framework-neutral assets.
func (r *packageCoordinateResolver) pickAssets(pkg Package) []Asset {
	for _, framework := range r.frameworks {
		var picked []Asset
		for _, asset := range pkg.Assets {
			if asset.Framework == framework {
				picked = append(picked, asset)
			}
		}
		if len(picked) > 0 {
			return picked
		}
	}
	var neutral []Asset
	for _, asset := range pkg.Assets {
		if asset.Framework == "" {
			neutral = append(neutral, asset)
		}
	}
	return neutral
}

// ParsePackageCoordinate parses `nuget: Id[, Version]` into its parts. The
// version is empty when not given, meaning "latest".
func ParsePackageCoordinate(argument string) (id, version string, err error) {
	if !strings.HasPrefix(argument, PackagePrefix) {
		return "", "", fmt.Errorf("not a package coordinate: %q", argument)
	}
	rest := strings.TrimSpace(argument[len(PackagePrefix):])
	if id, version, ok := strings.Cut(rest, ","); ok {
		id, version = strings.TrimSpace(id), strings.TrimSpace(version)
		if id == "" || version == "" {
			return "", "", fmt.Errorf("malformed package coordinate: %q", argument)
		}
		return id, version, nil
	}
	if rest == "" {
		return "", "", fmt.Errorf("malformed package coordinate: %q", argument)
	}
	return rest, "", nil
}
