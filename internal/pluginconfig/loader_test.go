package pluginconfig

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/atlaspack-core/atlaspack/internal/fsutil"
	"github.com/stretchr/testify/require"
)

// memFS is a minimal in-memory fsutil.FileSystem for exercising the loader
// without touching disk.
type memFS struct {
	files map[string]string
	cwd   string
}

var _ fsutil.FileSystem = (*memFS)(nil)

func newMemFS(cwd string, files map[string]string) *memFS {
	return &memFS{files: files, cwd: cwd}
}

func (m *memFS) ReadToString(path string) (string, error) {
	if content, ok := m.files[path]; ok {
		return content, nil
	}
	return "", fmt.Errorf("no such file: %s", path)
}

func (m *memFS) Canonicalize(path string) (string, error) {
	return filepath.Clean(path), nil
}

func (m *memFS) ReadDir(path string) ([]fsutil.DirEntry, error) { return nil, nil }

func (m *memFS) Classify(path string) (fsutil.EntryKind, error) {
	if _, ok := m.files[path]; ok {
		return fsutil.KindFile, nil
	}
	for p := range m.files {
		if strings.HasPrefix(p, path+string(filepath.Separator)) {
			return fsutil.KindDirectory, nil
		}
	}
	return fsutil.KindNotExist, nil
}

func (m *memFS) Cwd() (string, error) { return m.cwd, nil }

// noPackageManager fails every non-relative extends resolution; the test
// fixtures only use relative extends, matching scenarios 1-3.
type noPackageManager struct{}

func (noPackageManager) ResolveEntry(specifier, fromPath string) (string, error) {
	return "", fmt.Errorf("package resolution not available in test: %s", specifier)
}

func TestLoadSimpleBundlerMerge(t *testing.T) {
	// scenario 1: a child config overrides the parent's bundler.
	fs := newMemFS("/proj", map[string]string{
		"/proj/.atlaspackrc": `{
			"extends": "./base.json",
			"bundler": "@atlaspack/bundler-child"
		}`,
		"/proj/base.json": `{
			"bundler": "@atlaspack/bundler-default",
			"reporters": ["@atlaspack/reporter-default"]
		}`,
	})
	loader := NewLoader(fs, noPackageManager{})
	result, bag := loader.Load(LoadOptions{ProjectRoot: "/proj", Cwd: "/proj"})
	require.False(t, bag.HasErrors(), bag.Errors())
	require.NotNil(t, result)

	require.Equal(t, "@atlaspack/bundler-child", result.Config.Bundler.PackageName)
	require.Equal(t, "/proj/.atlaspackrc", result.Config.Bundler.ResolveFrom)
	require.Len(t, result.Config.Reporters, 1)
	require.Equal(t, "@atlaspack/reporter-default", result.Config.Reporters[0].PackageName)
	require.Equal(t, "/proj/base.json", result.Config.Reporters[0].ResolveFrom)
	require.ElementsMatch(t, []string{"/proj/.atlaspackrc", "/proj/base.json"}, result.FilesRead)
}

func TestLoadPipelineSpread(t *testing.T) {
	// scenario 2: a spread entry splices the parent's sequence.
	fs := newMemFS("/proj", map[string]string{
		"/proj/.atlaspackrc": `{
			"extends": "./base.json",
			"transformers": {
				"*.js": ["@atlaspack/transformer-extra", "...", "@atlaspack/transformer-trailing"]
			}
		}`,
		"/proj/base.json": `{
			"transformers": {
				"*.js": ["@atlaspack/transformer-babel", "@atlaspack/transformer-js"]
			}
		}`,
	})
	loader := NewLoader(fs, noPackageManager{})
	result, bag := loader.Load(LoadOptions{ProjectRoot: "/proj", Cwd: "/proj"})
	require.False(t, bag.HasErrors(), bag.Errors())

	require.Len(t, result.Config.Transformers, 1)
	entry := result.Config.Transformers[0]
	require.Equal(t, "*.js", entry.Pattern)
	names := pluginNames(entry.Pipeline)
	require.Equal(t, []string{
		"@atlaspack/transformer-extra",
		"@atlaspack/transformer-babel",
		"@atlaspack/transformer-js",
		"@atlaspack/transformer-trailing",
	}, names)
}

func TestLoadPatternMapPrecedence(t *testing.T) {
	// scenario 3: parent patterns keep their iteration-order
	// precedence; new child patterns are appended.
	fs := newMemFS("/proj", map[string]string{
		"/proj/.atlaspackrc": `{
			"extends": "./base.json",
			"transformers": {
				"*.ts": ["@atlaspack/transformer-typescript"],
				"*.css": ["@atlaspack/transformer-postcss"]
			}
		}`,
		"/proj/base.json": `{
			"transformers": {
				"*.{ts,tsx}": ["@atlaspack/transformer-babel"],
				"*.json": ["@atlaspack/transformer-json"]
			}
		}`,
	})
	loader := NewLoader(fs, noPackageManager{})
	result, bag := loader.Load(LoadOptions{ProjectRoot: "/proj", Cwd: "/proj"})
	require.False(t, bag.HasErrors(), bag.Errors())

	var patterns []string
	for _, e := range result.Config.Transformers {
		patterns = append(patterns, e.Pattern)
	}
	require.Equal(t, []string{"*.{ts,tsx}", "*.json", "*.ts", "*.css"}, patterns)
}

func TestLoadDiamondExtendsMemoized(t *testing.T) {
	// base is reached through both mid-a and mid-b; it must be read once.
	fs := newMemFS("/proj", map[string]string{
		"/proj/.atlaspackrc": `{"extends": ["./mid-a.json", "./mid-b.json"]}`,
		"/proj/mid-a.json":   `{"extends": "./base.json", "namers": ["namer-a"]}`,
		"/proj/mid-b.json":   `{"extends": "./base.json", "namers": ["namer-b"]}`,
		"/proj/base.json":    `{"reporters": ["reporter-base"]}`,
	})
	loader := NewLoader(fs, noPackageManager{})
	result, bag := loader.Load(LoadOptions{ProjectRoot: "/proj", Cwd: "/proj"})
	require.False(t, bag.HasErrors(), bag.Errors())
	require.ElementsMatch(t, []string{
		"/proj/.atlaspackrc", "/proj/mid-a.json", "/proj/mid-b.json", "/proj/base.json",
	}, result.FilesRead)
	require.Equal(t, []string{"reporter-base"}, pluginNames(result.Config.Reporters))
	// mid-b is later in the extends list, so its namers win.
	require.Equal(t, []string{"namer-b"}, pluginNames(result.Config.Namers))
}

func TestLoadUnresolvedSpreadIsValidationError(t *testing.T) {
	fs := newMemFS("/proj", map[string]string{
		"/proj/.atlaspackrc": `{"namers": ["..."]}`,
	})
	loader := NewLoader(fs, noPackageManager{})
	_, bag := loader.Load(LoadOptions{ProjectRoot: "/proj", Cwd: "/proj"})
	require.True(t, bag.HasErrors())
}

func TestLoadAdditionalReportersAppendedAfterMerge(t *testing.T) {
	fs := newMemFS("/proj", map[string]string{
		"/proj/.atlaspackrc": `{"reporters": ["reporter-configured"]}`,
	})
	loader := NewLoader(fs, noPackageManager{})
	result, bag := loader.Load(LoadOptions{
		ProjectRoot:         "/proj",
		Cwd:                 "/proj",
		AdditionalReporters: []PluginNode{{PackageName: "reporter-cli-flag"}},
	})
	require.False(t, bag.HasErrors(), bag.Errors())
	require.Equal(t, []string{"reporter-configured", "reporter-cli-flag"}, pluginNames(result.Config.Reporters))
}

func TestLoadSearchesAncestorsUpToProjectRoot(t *testing.T) {
	fs := newMemFS("/proj/src/components", map[string]string{
		"/proj/.atlaspackrc": `{"bundler": "root-bundler"}`,
	})
	loader := NewLoader(fs, noPackageManager{})
	result, bag := loader.Load(LoadOptions{ProjectRoot: "/proj", Cwd: "/proj/src/components"})
	require.False(t, bag.HasErrors(), bag.Errors())
	require.Equal(t, "root-bundler", result.Config.Bundler.PackageName)
}

func TestLoadMissingConfigReportsNotFound(t *testing.T) {
	fs := newMemFS("/proj", map[string]string{})
	loader := NewLoader(fs, noPackageManager{})
	_, bag := loader.Load(LoadOptions{ProjectRoot: "/proj", Cwd: "/proj"})
	require.True(t, bag.HasErrors())
}

func TestLoadRoundTripParsePreservesStructure(t *testing.T) {
	src := `{
		"bundler": "b",
		"reporters": ["r1", "r2"],
		"transformers": {"*.ts": ["t1", "..."], "*.js": ["t2"]},
		"packagers": {"*.js": "p1"},
		"custom-field": {"nested": true}
	}`
	cfg, _, err := parsePartialConfig([]byte(src), "/proj/.atlaspackrc")
	require.NoError(t, err)
	require.Equal(t, "b", cfg.Bundler.PackageName)
	require.Equal(t, []string{"r1", "r2"}, pluginNames(cfg.Reporters))
	require.Len(t, cfg.Transformers, 2)
	require.Equal(t, "*.ts", cfg.Transformers[0].Pattern)
	require.True(t, cfg.Transformers[0].Pipeline[1].IsSpread())
	require.Equal(t, "p1", cfg.Packagers[0].Plugin.PackageName)
	require.Equal(t, map[string]any{"nested": true}, cfg.Unknown["custom-field"])
}

func pluginNames(nodes []PluginNode) []string {
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.PackageName
	}
	return names
}
