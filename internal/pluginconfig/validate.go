package pluginconfig

import (
	"fmt"

	"github.com/atlaspack-core/atlaspack/internal/diagnostics"
)

// ReservedPipelineNames is the smallest defensible set of top-level field
// names a pipeline map could collide with if a plugin pipeline were
// (incorrectly) keyed by one of the config's own section names.
var ReservedPipelineNames = map[string]bool{
	"extends":      true,
	"bundler":      true,
	"namers":       true,
	"reporters":    true,
	"resolvers":    true,
	"runtimes":     true,
	"compressors":  true,
	"optimizers":   true,
	"transformers": true,
	"validators":   true,
	"packagers":    true,
}

const validationDocsURL = "https://atlaspack.dev/docs/configuration#plugin-pipelines"

// Validate runs the post-merge validation hooks: reject pipelines with
// more than one spread entry, any remaining spread entries, and reserved
// pipeline names. Returns one diagnostic per violation found; an empty bag
// means the config is valid.
func Validate(cfg PartialConfig) *diagnostics.Bag {
	bag := &diagnostics.Bag{}

	checkPipeline := func(name string, pipeline []PluginNode) {
		if n := countSpreads(pipeline); n > 1 {
			bag.Add(diagnostics.Newf(diagnostics.KindValidationFailure, "pluginconfig",
				"pipeline %q contains %d spread entries; at most one is allowed", name, n).
				WithDocs(validationDocsURL).
				WithHint(fmt.Sprintf("remove the duplicate %q entry from %q", SpreadMarker, name)))
		} else if n == 1 {
			bag.Add(diagnostics.Newf(diagnostics.KindValidationFailure, "pluginconfig",
				"pipeline %q has an unresolved spread entry: the config it should splice from had nothing to contribute", name).
				WithDocs(validationDocsURL).
				WithHint(fmt.Sprintf("remove %q from %q, or add an `extends` that defines it", SpreadMarker, name)))
		}
	}

	checkPattern := func(section, pattern string) {
		if ReservedPipelineNames[pattern] {
			bag.Add(diagnostics.Newf(diagnostics.KindValidationFailure, "pluginconfig",
				"%q is a reserved pipeline name and cannot be used as a %s pattern", pattern, section).
				WithDocs(validationDocsURL))
		}
	}

	checkPipeline("namers", cfg.Namers)
	checkPipeline("reporters", cfg.Reporters)
	checkPipeline("resolvers", cfg.Resolvers)
	checkPipeline("runtimes", cfg.Runtimes)
	for _, e := range cfg.Compressors {
		checkPattern("compressors", e.Pattern)
		checkPipeline("compressors."+e.Pattern, e.Pipeline)
	}
	for _, e := range cfg.Optimizers {
		checkPattern("optimizers", e.Pattern)
		checkPipeline("optimizers."+e.Pattern, e.Pipeline)
	}
	for _, e := range cfg.Transformers {
		checkPattern("transformers", e.Pattern)
		checkPipeline("transformers."+e.Pattern, e.Pipeline)
	}
	for _, e := range cfg.Validators {
		checkPattern("validators", e.Pattern)
		checkPipeline("validators."+e.Pattern, e.Pipeline)
	}
	for _, e := range cfg.Packagers {
		checkPattern("packagers", e.Pattern)
	}

	for name := range cfg.Unknown {
		if ReservedPipelineNames[name] {
			bag.Add(diagnostics.Newf(diagnostics.KindValidationFailure, "pluginconfig",
				"%q is a reserved pipeline name and cannot be used as a custom field", name).
				WithDocs(validationDocsURL))
		}
	}

	return bag
}

// ToResolved converts a fully-merged PartialConfig to a ResolvedConfig,
// failing if Validate finds any violation.
func ToResolved(cfg PartialConfig) (ResolvedConfig, *diagnostics.Bag) {
	bag := Validate(cfg)
	if bag.HasErrors() {
		return ResolvedConfig{}, bag
	}
	return ResolvedConfig{PartialConfig: cfg}, bag
}
