package jsasset

import (
	"fmt"

	"github.com/atlaspack-core/atlaspack/internal/diagnostics"
	"github.com/atlaspack-core/atlaspack/internal/fsutil"
	"github.com/atlaspack-core/atlaspack/internal/intern"
	"github.com/atlaspack-core/atlaspack/internal/reqgraph"
)

// Input bundles everything one transform run needs: the asset's identity,
// its current content, the environment it will run in, and the host hooks
// stage 6 and stage 9 call out to.
type Input struct {
	FilePath   string
	Code       []byte
	Env        Environment
	SourceType SourceType
	IsJSX      bool
	Pipeline   string // pipeline tag, part of the asset/dependency id
	Query      string

	JSX           jsxOptions
	MacroCallback MacroCallback
	FS            fsutil.FileSystem // for stage 9 inline-fs; nil disables it
	EnvValues     map[string]string // process.env.X literal substitutions for stage 7

	// Interner canonicalizes the file path, dependency specifiers, and
	// symbol names this run produces through the same process-wide table
	// the request tracker interns file paths, file names, and glob
	// patterns through. Nil disables interning.
	Interner *intern.Table
}

// Result is the transformer's full output for one asset: the produced
// Asset (nil if a diagnostic of Error severity fired), every diagnostic
// collected along the way, and the invalidations the request tracker
// should watch regardless of whether the asset itself was returned.
type Result struct {
	Asset         *Asset
	Diagnostics   *diagnostics.Bag
	Invalidations []reqgraph.Invalidation
}

// Transform runs the fixed 16-stage pipeline over one source file and produces its Asset.
func Transform(in Input) Result {
	bag := &diagnostics.Bag{}
	in.FilePath = in.Interner.Intern(in.FilePath)

	// Stage 1: parse.
	p, errDiag := parse(in.FilePath, in.Code, in.SourceType, in.IsJSX)
	if errDiag != nil {
		bag.Add(*errDiag)
	}
	if p == nil {
		return Result{Diagnostics: bag}
	}
	defer p.Close()

	id := assetID(in.FilePath, in.Env, in.Pipeline, in.Query)
	assetIDHex := fmt.Sprintf("%x", id)

	edits := &editList{}
	var invalidations []reqgraph.Invalidation

	// Stage 2 ("Resolve the environment") is the caller's responsibility:
	// in.Env already reflects any package.json/browserslist/engines
	// resolution the caller performed before invoking Transform.

	// Stage 3: decorator lowering.
	lowerDecorators(p, assetIDHex, edits)

	// Stage 4: TypeScript type stripping.
	stripTypes(p, edits)

	// Stage 5: JSX transform.
	jsxDeps := transformJSX(p, in.JSX, in.Env, edits)

	// Stage 6: macro expansion.
	expandMacros(p, in.MacroCallback, edits, bag)

	// Stage 7: environment variable replacement. Referencing any
	// process.env.* value ties this asset's validity to the host process
	// restarting, not to any file — the request tracker models that as a
	// single shared startup invalidation rather than one per variable.
	if usedEnv := replaceEnvReferences(p, in.Env, in.EnvValues, edits); len(usedEnv) > 0 {
		invalidations = append(invalidations, reqgraph.InvalidateOnStartup())
	}

	// Stage 8: constant folding.
	foldConstants(p, edits)

	// Stage 9: inline-fs.
	if in.FS != nil {
		invalidations = append(invalidations, inlineFS(p, in.FilePath, in.FS, edits)...)
	}

	// Stage 10: node global (__filename/__dirname) replacement.
	pathNeeded := replaceNodeGlobals(p, in.FilePath, edits)

	// Stage 11: Node global (process/Buffer/global) injection.
	globalDeps := injectGlobals(p, in.Env, edits)

	// Stage 12: preset-env downleveling.
	presetEnvTransform(p, in.Env, edits)

	// Stage 13: dependency collection (plus its joint call-site rewrite).
	deps := collectDependencies(p, in.Env, in.FilePath, edits, bag)
	deps = append(deps, jsxDeps...)
	deps = append(deps, globalDeps...)
	if pathNeeded {
		deps = append(deps, pathDependency(in.Env))
	}

	for i := range deps {
		deps[i].Specifier = in.Interner.Intern(deps[i].Specifier)
		deps[i].ID = dependencyID(id, deps[i], in.Pipeline)
	}

	// Stage 14: symbol analysis and bailout detection.
	analysis := analyzeModule(p, assetIDHex, in.FilePath, deps, bag)
	for i := range analysis.Symbols {
		analysis.Symbols[i].Exported = in.Interner.Intern(analysis.Symbols[i].Exported)
		analysis.Symbols[i].Local = in.Interner.Intern(analysis.Symbols[i].Local)
	}
	for i := range deps {
		for j := range deps[i].Symbols {
			deps[i].Symbols[j].Exported = in.Interner.Intern(deps[i].Symbols[j].Exported)
			deps[i].Symbols[j].Local = in.Interner.Intern(deps[i].Symbols[j].Local)
		}
	}

	// Stage 15: scope-hoisting rewrite.
	rewriteForScopeHoist(p, assetIDHex, in.Env, edits)

	if bag.HasErrors() {
		return Result{Diagnostics: bag, Invalidations: invalidations}
	}

	// Stage 16: emit.
	code := emit(in.Code, edits)

	asset := &Asset{
		ID:            id,
		FilePath:      in.FilePath,
		Env:           in.Env,
		Type:          p.typ,
		Code:          code,
		Symbols:       analysis.Symbols,
		Dependencies:  deps,
		Invalidations: invalidations,
		Flags: Flags{
			HasCJSExports:    analysis.HasCJSExports,
			StaticExports:    !analysis.HasCJSExports && !analysis.IsWrapped,
			ShouldWrap:       analysis.IsWrapped,
			SideEffects:      true,
			// HasSymbols distinguishes "analysis ran and found no symbols" from
			// "analysis never ran"; stage 14 always runs by this point, so it is
			// unconditionally true rather than keyed on len(analysis.Symbols).
			HasSymbols:          true,
			IsConstantModule:    isConstantModule(p, deps),
			HasNodeReplacements: pathNeeded,
		},
	}

	return Result{Asset: asset, Diagnostics: bag, Invalidations: invalidations}
}

func pathDependency(env Environment) Dependency {
	specifier := "path"
	return Dependency{
		Specifier: specifier, SpecifierType: SpecifierCommonJS,
		Kind: KindRequire, Priority: PrioritySync, Env: env,
		Placeholder: placeholder(specifier, 0),
	}
}
