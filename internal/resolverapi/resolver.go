// Package resolverapi defines the two external collaborators the core
// depends on but never implements itself: the module resolver and the
// package manager's entry-point lookup. The core never interprets
// specifier strings beyond the leading-`.` relative/package distinction
// (used by the config loader's extends handling, see
// pluginconfig.IsRelativeSpecifier).
package resolverapi

import "github.com/atlaspack-core/atlaspack/internal/reqgraph"

// SpecifierType distinguishes how a specifier was written in source, which
// affects resolution algorithm choice downstream (not interpreted here).
type SpecifierType int

const (
	SpecifierEsm SpecifierType = iota
	SpecifierCommonJS
	SpecifierURL
	SpecifierCustom
)

// ResolutionKind tags which shape a Resolution carries: a closed tagged
// variant rather than an interface with type assertions, so callers get
// exhaustiveness at the switch site.
type ResolutionKind int

const (
	ResolutionPath ResolutionKind = iota
	ResolutionBuiltin
	ResolutionEmpty
	ResolutionExternal
	ResolutionGlobal
)

// Resolution is the resolver's successful result.
type Resolution struct {
	Kind ResolutionKind

	// Set when Kind == ResolutionPath.
	AbsolutePath string

	// Set when Kind == ResolutionBuiltin, e.g. "path", "fs".
	BuiltinName string

	// Set when Kind == ResolutionGlobal: the global identifier's polyfill
	// specifier to require instead (e.g. "process" -> "process/browser.js").
	GlobalSpecifier string

	Invalidations []reqgraph.Invalidation
}

// ErrorKind tags a resolver failure.
type ErrorKind int

const (
	ErrorNotFound ErrorKind = iota
	ErrorAmbiguous
	ErrorCycle
)

// ResolverError is a structured resolution failure.
type ResolverError struct {
	Kind       ErrorKind
	Specifier  string
	FromPath   string
	Underlying error
}

func (e *ResolverError) Error() string {
	return "resolving " + e.Specifier + " from " + e.FromPath
}

func (e *ResolverError) Unwrap() error { return e.Underlying }

// Options carries the caller's resolution preferences (conditions,
// extensions, whether to prefer the "browser" field, etc). Left as an
// opaque bag here: the core never branches on its contents, only forwards it.
type Options map[string]any

// Resolver is the capability given (specifier, from_path, specifier_type,
// options), returning either a Resolution plus invalidations, or an error.
type Resolver interface {
	Resolve(specifier, fromPath string, specifierType SpecifierType, opts Options) (*Resolution, error)
}

// PackageManager is the capability used by the config loader to resolve a
// non-relative `extends` specifier to an absolute entry-point path.
type PackageManager interface {
	ResolveEntry(specifier, fromPath string) (string, error)
}
