package pluginconfig

import (
	"path/filepath"
	"strings"

	"github.com/atlaspack-core/atlaspack/internal/diagnostics"
	"github.com/atlaspack-core/atlaspack/internal/fsutil"
	"github.com/atlaspack-core/atlaspack/internal/jsonc"
	"github.com/atlaspack-core/atlaspack/internal/resolverapi"
)

// configFileName is the only basename the ancestor search looks for.
const configFileName = ".atlaspackrc"

// IsRelativeSpecifier reports whether an extends specifier names a file
// relative to the config that references it, as opposed to a package to
// resolve through the package manager.
func IsRelativeSpecifier(specifier string) bool {
	return strings.HasPrefix(specifier, ".")
}

// LoadOptions parametrizes one resolution of a configuration hierarchy.
type LoadOptions struct {
	// ProjectRoot bounds the ancestor search; it is always itself searched.
	ProjectRoot string
	// Cwd defaults to the filesystem's current directory when empty.
	Cwd string
	// Config, if set, is used verbatim instead of searching for .atlaspackrc.
	Config string
	// FallbackConfig is tried if Config is unset and the ancestor search
	// finds nothing.
	FallbackConfig string
	// AdditionalReporters are appended to the resolved config's Reporters
	// pipeline after the extends chain and merge algebra have both run —
	// the host CLI's `--reporter` flag uses this, not a merge-algebra path,
	// because it applies regardless of what any .atlaspackrc declares.
	AdditionalReporters []PluginNode
}

// LoadResult is a fully resolved configuration plus the set of files that
// were read to produce it, which the caller (normally a request in the
// tracker) turns into file-update invalidation edges.
type LoadResult struct {
	Config    ResolvedConfig
	FilesRead []string
}

// Loader resolves a .atlaspackrc extends-chain into a ResolvedConfig.
type Loader struct {
	FS             fsutil.FileSystem
	PackageManager resolverapi.PackageManager
}

func NewLoader(fs fsutil.FileSystem, pm resolverapi.PackageManager) *Loader {
	return &Loader{FS: fs, PackageManager: pm}
}

type loadCtx struct {
	cache     map[string]PartialConfig
	loading   map[string]bool
	filesRead []string
}

// Load resolves opts into a ResolvedConfig. When the returned bag has
// HasErrors() true, the returned *LoadResult is nil.
func (l *Loader) Load(opts LoadOptions) (*LoadResult, *diagnostics.Bag) {
	bag := &diagnostics.Bag{}

	cwd := opts.Cwd
	if cwd == "" {
		var err error
		cwd, err = l.FS.Cwd()
		if err != nil {
			bag.Add(errReadFailure(cwd, err))
			return nil, bag
		}
	}

	resolveFrom := l.resolveFromPath(opts.ProjectRoot, cwd)

	configPath := opts.Config
	if configPath == "" {
		configPath = l.searchAncestors(filepath.Dir(resolveFrom), opts.ProjectRoot)
	}
	if configPath == "" && opts.FallbackConfig != "" {
		configPath = opts.FallbackConfig
	}
	if configPath == "" {
		bag.Add(errMissingConfigFile(resolveFrom))
		return nil, bag
	}

	ctx := &loadCtx{cache: make(map[string]PartialConfig), loading: make(map[string]bool)}
	merged, lbag := l.loadFile(ctx, configPath)
	bag.Merge(lbag)
	if bag.HasErrors() {
		return nil, bag
	}

	if len(opts.AdditionalReporters) > 0 {
		merged.Reporters = append(cloneNodes(merged.Reporters), opts.AdditionalReporters...)
	}

	resolved, vbag := ToResolved(merged)
	bag.Merge(vbag)
	if bag.HasErrors() {
		return nil, bag
	}

	return &LoadResult{Config: resolved, FilesRead: ctx.filesRead}, bag
}

// resolveFromPath computes the synthetic "from" file used to anchor both
// the ancestor search and relative-extends resolution: the
// cwd if it's inside the project root, else the project root itself, each
// with a synthetic "index" basename so the same relative-resolution logic
// used for real module specifiers also applies here.
func (l *Loader) resolveFromPath(projectRoot, cwd string) string {
	if fsutil.IsUnderRoot(projectRoot, cwd) {
		return filepath.Join(cwd, "index")
	}
	return filepath.Join(projectRoot, "index")
}

// searchAncestors climbs from dir up to and including projectRoot, looking
// for a file literally named .atlaspackrc. Returns "" if none is found.
func (l *Loader) searchAncestors(dir, projectRoot string) string {
	projectRoot = filepath.Clean(projectRoot)
	for {
		dir = filepath.Clean(dir)
		candidate := filepath.Join(dir, configFileName)
		if kind, err := l.FS.Classify(candidate); err == nil && kind == fsutil.KindFile {
			return candidate
		}
		if dir == projectRoot {
			return ""
		}
		parent := filepath.Dir(dir)
		if parent == dir || !fsutil.IsUnderRoot(projectRoot, parent) {
			// Walked above the project root without finding it at the root
			// itself; still check the root exactly once more below.
			if dir != projectRoot {
				candidate = filepath.Join(projectRoot, configFileName)
				if kind, err := l.FS.Classify(candidate); err == nil && kind == fsutil.KindFile {
					return candidate
				}
			}
			return ""
		}
		dir = parent
	}
}

// loadFile reads, parses, and resolves path's own extends chain, memoizing
// by canonical path so a config reachable through more than one extends
// path (a diamond) is read and merged only once.
func (l *Loader) loadFile(ctx *loadCtx, path string) (PartialConfig, *diagnostics.Bag) {
	bag := &diagnostics.Bag{}

	canon, err := l.FS.Canonicalize(path)
	if err != nil {
		bag.Add(errReadFailure(path, err))
		return PartialConfig{}, bag
	}
	if cached, ok := ctx.cache[canon]; ok {
		return cached, bag
	}
	if ctx.loading[canon] {
		bag.Add(errUnresolvedConfig("extends", path, path, nil).WithHint("extends chain forms a cycle"))
		return PartialConfig{}, bag
	}
	ctx.loading[canon] = true
	defer delete(ctx.loading, canon)

	raw, err := l.FS.ReadToString(path)
	if err != nil {
		bag.Add(errReadFailure(path, err))
		return PartialConfig{}, bag
	}
	ctx.filesRead = append(ctx.filesRead, canon)

	cfg, extendsRaw, err := parsePartialConfig(jsonc.Strip([]byte(raw)), canon)
	if err != nil {
		bag.Add(errParseFailure(path, err))
		return PartialConfig{}, bag
	}

	specifiers, err := extendsSpecifiers(extendsRaw)
	if err != nil {
		bag.Add(errParseFailure(path, err))
		return PartialConfig{}, bag
	}

	var extended PartialConfig
	for i, spec := range specifiers {
		resolvedPath, rerr := l.resolveExtendsSpecifier(spec, path)
		if rerr != nil {
			kind := "package"
			if IsRelativeSpecifier(spec) {
				kind = "relative"
			}
			bag.Add(errUnresolvedConfig(kind, spec, path, rerr))
			continue
		}
		parentCfg, pbag := l.loadFile(ctx, resolvedPath)
		bag.Merge(pbag)
		if pbag.HasErrors() {
			continue
		}
		if i == 0 {
			extended = parentCfg
		} else {
			// Later entries in an extends list take precedence over earlier
			// ones, the same way the file's own contents take precedence
			// over all of them.
			extended = mergePartial(parentCfg, extended)
		}
	}
	if bag.HasErrors() {
		return PartialConfig{}, bag
	}

	final := mergePartial(cfg, extended)
	ctx.cache[canon] = final
	return final, bag
}

func (l *Loader) resolveExtendsSpecifier(specifier, fromPath string) (string, error) {
	if IsRelativeSpecifier(specifier) {
		return filepath.Join(filepath.Dir(fromPath), specifier), nil
	}
	return l.PackageManager.ResolveEntry(specifier, fromPath)
}
