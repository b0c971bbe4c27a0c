// Package jsasset implements the JS transformer: parsing a JS/TS/JSX/TSX
// source file, statically analyzing its imports/exports/requires,
// collecting dependencies with precise placement semantics, and producing
// a transformed module with a symbol table ready for scope-hoisting.
package jsasset

import "github.com/atlaspack-core/atlaspack/internal/reqgraph"

// AssetType is the recognized source kind, inferred from extension plus an
// explicit is_jsx override.
type AssetType int

const (
	TypeJS AssetType = iota
	TypeJSX
	TypeTS
	TypeTSX
	TypeOther
)

// Context is the environment in which an asset will run.
type Context int

const (
	ContextBrowser Context = iota
	ContextWebWorker
	ContextServiceWorker
	ContextWorklet
	ContextNode
	ContextElectronMain
	ContextElectronRenderer
)

// OutputFormat is the module wrapping strategy for the emitted code.
type OutputFormat int

const (
	FormatGlobal OutputFormat = iota
	FormatCommonJS
	FormatEsModule
)

// SourceType distinguishes module semantics (import/export allowed) from
// script semantics (top-level import/export is a parse error).
type SourceType int

const (
	SourceModule SourceType = iota
	SourceScript
)

// Environment is the structural descriptor of how an asset will run,
// used to decide which transform stages apply.
type Environment struct {
	Context        Context
	OutputFormat   OutputFormat
	SourceType     SourceType
	Engines        map[string]string // e.g. {"browsers": "> 0.25%"}
	IncludeNodeModules bool

	IsLibrary         bool
	ShouldOptimize    bool
	ShouldScopeHoist  bool
}

// SpecifierType tags how a dependency's specifier was written.
type SpecifierType int

const (
	SpecifierEsm SpecifierType = iota
	SpecifierCommonJS
	SpecifierURL
	SpecifierCustom
)

// Priority is when a dependency must be available relative to its parent.
type Priority int

const (
	PrioritySync Priority = iota
	PriorityParallel
	PriorityLazy
)

// DependencyKind tags which syntactic form produced a Dependency.
type DependencyKind int

const (
	KindImport DependencyKind = iota
	KindExport
	KindDynamicImport
	KindRequire
	KindWebWorker
	KindServiceWorker
	KindWorklet
	KindURL
	KindImportScripts
)

// BundleBehavior overrides the default bundling placement of a dependency's
// target module; zero value means "no override".
type BundleBehavior int

const (
	BundleBehaviorNone BundleBehavior = iota
	BundleBehaviorInline
	BundleBehaviorIsolated
)

// SourceLocation is a 1-indexed byte-range location within the source.
type SourceLocation struct {
	StartLine, StartColumn int
	EndLine, EndColumn     int
	StartByte, EndByte     uint32
}

// Symbol maps an exported name to the local mangled identifier that
// actually carries the value in the emitted code.
type Symbol struct {
	Exported string
	Local    string
	Loc      SourceLocation

	IsWeak         bool
	IsEsm          bool
	SelfReferenced bool
}

// Dependency is a discovered import/require/URL edge.
type Dependency struct {
	ID uint64

	Specifier      string
	SpecifierType  SpecifierType
	Kind           DependencyKind
	Priority       Priority
	BundleBehavior BundleBehavior
	Env            Environment

	Loc         *SourceLocation
	Placeholder string
	Symbols     []Symbol
	Attributes  map[string]string

	IsEsm           bool
	IsOptional      bool
	NeedsStableName bool
	ShouldWrap      bool
	IsWebWorker     bool
}

// Flags bundles the boolean result properties attached to an Asset.
type Flags struct {
	HasCJSExports       bool
	StaticExports       bool
	ShouldWrap          bool
	IsConstantModule     bool
	SideEffects         bool
	HasSymbols          bool
	HasNodeReplacements bool
}

// Asset is the transformer's primary output.
type Asset struct {
	ID uint64

	FilePath string
	Env      Environment
	Type     AssetType

	Code      []byte
	SourceMap []byte // nil unless requested

	Symbols []Symbol
	Flags   Flags

	Dependencies  []Dependency
	Invalidations []reqgraph.Invalidation
}
