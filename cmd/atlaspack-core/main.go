// Command atlaspack-core is the host CLI around the three core
// subsystems: the .atlaspackrc config loader, the JS transformer, and the
// request tracker that ties incremental builds together.
//
// Optional environment variables:
//
//	ATLASPACK_CORE_CONFIG              - explicit settings file path
//	ATLASPACK_CORE_LOG_LEVEL           - debug, info, warn, error (default: info)
//	ATLASPACK_CORE_WATCH_DEBOUNCE_MILLIS - filesystem debounce window in watch mode
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/atlaspack-core/atlaspack/internal/fsutil"
	"github.com/atlaspack-core/atlaspack/internal/intern"
	"github.com/atlaspack-core/atlaspack/internal/jsasset"
	"github.com/atlaspack-core/atlaspack/internal/nodepm"
	"github.com/atlaspack-core/atlaspack/internal/pluginconfig"
	"github.com/atlaspack-core/atlaspack/internal/reqgraph"
	"github.com/atlaspack-core/atlaspack/internal/settings"
)

// Version is set via ldflags at build time.
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "atlaspack-core: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:     "atlaspack-core",
		Short:   "Incremental JS bundler core: config resolution, transform, and the build request graph",
		Version: Version,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to atlaspack-core.toml (defaults to search order)")

	root.AddCommand(newConfigCmd(&configPath))
	root.AddCommand(newBuildCmd(&configPath))
	root.AddCommand(newWatchCmd(&configPath))
	return root
}

func loadSettingsAndLogger(configPath string) (*settings.Settings, *slog.Logger, error) {
	cfg, err := settings.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading settings: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))
	return cfg, logger, nil
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newConfigCmd resolves the project's .atlaspackrc extends-chain and
// prints the merged, fully-resolved pipeline configuration.
func newConfigCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Resolve and print the project's .atlaspackrc pipeline configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadSettingsAndLogger(*configPath)
			if err != nil {
				return err
			}

			loader := pluginconfig.NewLoader(fsutil.OS{}, nodepm.New())
			result, bag := loader.Load(pluginconfig.LoadOptions{
				ProjectRoot: cfg.Project.Root,
				Cwd:         cfg.Project.Root,
			})
			for _, d := range bag.Items {
				logger.Warn(d.Message, "severity", d.Severity.String(), "kind", string(d.Kind))
			}
			if bag.HasErrors() {
				return fmt.Errorf("config resolution failed: %d error diagnostic(s)", len(bag.Errors()))
			}

			fmt.Printf("resolved from %d file(s):\n", len(result.FilesRead))
			for _, f := range result.FilesRead {
				fmt.Printf("  %s\n", f)
			}
			printPluginList("transformers", pluginNamesFromPipeline(result.Config.Transformers))
			printPluginList("resolvers", pluginNames(result.Config.Resolvers))
			printPluginList("namers", pluginNames(result.Config.Namers))
			printPluginList("reporters", pluginNames(result.Config.Reporters))
			return nil
		},
	}
}

func pluginNames(nodes []pluginconfig.PluginNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.PackageName
	}
	return out
}

func pluginNamesFromPipeline(entries []pluginconfig.PipelineEntry) []string {
	var out []string
	for _, e := range entries {
		names := pluginNames(e.Pipeline)
		out = append(out, fmt.Sprintf("%s -> [%s]", e.Pattern, strings.Join(names, ", ")))
	}
	return out
}

func printPluginList(label string, items []string) {
	fmt.Printf("%s:\n", label)
	for _, it := range items {
		fmt.Printf("  %s\n", it)
	}
}

// newBuildCmd transforms a single entry file and reports its dependencies
// and diagnostics. Full bundling (following the dependency graph across
// assets into one output) is out of scope for this core module; building
// one asset end-to-end is what exercises the transformer in isolation.
func newBuildCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "build <entry>",
		Short: "Transform a single entry asset and print its dependencies and diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadSettingsAndLogger(*configPath)
			if err != nil {
				return err
			}
			entry := args[0]
			if !filepath.IsAbs(entry) {
				entry = filepath.Join(cfg.Project.Root, entry)
			}

			interner := intern.New(0)
			result, err := transformFile(entry, fsutil.OS{}, interner)
			if err != nil {
				return err
			}

			for _, d := range result.Diagnostics.Items {
				logger.Warn(d.Message, "severity", d.Severity.String(), "kind", string(d.Kind))
			}
			if result.Asset == nil {
				return fmt.Errorf("build failed: %d error diagnostic(s)", len(result.Diagnostics.Errors()))
			}

			fmt.Printf("asset %x (%s)\n", result.Asset.ID, result.Asset.FilePath)
			fmt.Printf("  %d dependencies, %d symbols\n", len(result.Asset.Dependencies), len(result.Asset.Symbols))
			for _, dep := range result.Asset.Dependencies {
				fmt.Printf("  -> %s (placeholder %s)\n", dep.Specifier, dep.Placeholder)
			}
			return nil
		},
	}
}

func transformFile(path string, fs fsutil.FileSystem, interner *intern.Table) (jsasset.Result, error) {
	source, err := fs.ReadToString(path)
	if err != nil {
		return jsasset.Result{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return jsasset.Transform(jsasset.Input{
		FilePath:   path,
		Code:       []byte(source),
		SourceType: jsasset.SourceModule,
		FS:         fs,
		Interner:   interner,
	}), nil
}

// newWatchCmd rebuilds the entry asset every time the project root's
// filesystem settles after a burst of changes.
func newWatchCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <entry>",
		Short: "Rebuild an entry asset on every filesystem change until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadSettingsAndLogger(*configPath)
			if err != nil {
				return err
			}
			entry := args[0]
			if !filepath.IsAbs(entry) {
				entry = filepath.Join(cfg.Project.Root, entry)
			}

			interner := intern.New(0)
			tracker := reqgraph.NewTrackerWithInterner(interner)
			watcher, err := reqgraph.NewWatcher(tracker, logger, cfg.DebounceDuration())
			if err != nil {
				return fmt.Errorf("creating watcher: %w", err)
			}
			defer watcher.Close()
			if err := watcher.AddDir(cfg.Project.Root); err != nil {
				return fmt.Errorf("watching %s: %w", cfg.Project.Root, err)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			rebuild := func() {
				result, err := transformFile(entry, fsutil.OS{}, interner)
				if err != nil {
					logger.Error("rebuild failed", "error", err)
					return
				}
				for _, d := range result.Diagnostics.Items {
					logger.Warn(d.Message, "severity", d.Severity.String())
				}
				if result.Asset == nil {
					logger.Error("rebuild produced no asset", "entry", entry)
					return
				}
				tracker.BuildSuccess()
				logger.Info("rebuilt", "entry", entry, "dependencies", len(result.Asset.Dependencies))
			}

			rebuild()
			logger.Info("watching for changes", "root", cfg.Project.Root)
			return watcher.Run(ctx, func(invalidated []reqgraph.NodeID) {
				rebuild()
			})
		},
	}
}
