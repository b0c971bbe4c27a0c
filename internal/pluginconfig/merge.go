package pluginconfig

// mergePartial merges a child PartialConfig with its parent (the already-
// merged result of the child's own extends chain) according to the pipeline
// merge algebra. Child wins on conflicts; spreads splice the parent's sequence.
func mergePartial(child, parent PartialConfig) PartialConfig {
	out := PartialConfig{
		Bundler: mergeScalar(child.Bundler, parent.Bundler),

		Namers:    mergePipeline(child.Namers, parent.Namers),
		Reporters: mergePipeline(child.Reporters, parent.Reporters),
		Resolvers: mergePipeline(child.Resolvers, parent.Resolvers),
		Runtimes:  mergePipeline(child.Runtimes, parent.Runtimes),

		Compressors:  mergePipelineMap(child.Compressors, parent.Compressors),
		Optimizers:   mergePipelineMap(child.Optimizers, parent.Optimizers),
		Transformers: mergePipelineMap(child.Transformers, parent.Transformers),
		Validators:   mergePipelineMap(child.Validators, parent.Validators),

		Packagers: mergePackagerMap(child.Packagers, parent.Packagers),

		Unknown: child.Unknown,
	}
	return out
}

// mergeScalar: child wins if present, else parent.
func mergeScalar(child, parent *PluginNode) *PluginNode {
	if child != nil {
		return child
	}
	return parent
}

// mergePipeline implements the ordered-pipeline rule: if either side is
// empty, the other wins; otherwise a spread entry in the child is replaced
// by the entire parent sequence in place, and a childless-of-spread wins
// outright (parent discarded).
func mergePipeline(child, parent []PluginNode) []PluginNode {
	if len(child) == 0 {
		return cloneNodes(parent)
	}
	if len(parent) == 0 {
		return cloneNodes(child)
	}

	spreadIdx := -1
	for i, p := range child {
		if p.IsSpread() {
			spreadIdx = i
			break
		}
	}
	if spreadIdx == -1 {
		return cloneNodes(child)
	}

	out := make([]PluginNode, 0, len(child)-1+len(parent))
	out = append(out, child[:spreadIdx]...)
	out = append(out, parent...)
	out = append(out, child[spreadIdx+1:]...)
	return out
}

func cloneNodes(in []PluginNode) []PluginNode {
	if in == nil {
		return nil
	}
	out := make([]PluginNode, len(in))
	copy(out, in)
	return out
}

// mergePipelineMap implements the ordered-map-of-pipelines rule: iterate
// the parent map first (parent patterns keep higher precedence in the
// resulting iteration order), merging in the child's pipeline for any
// pattern also present in the child; then append remaining child entries
// not already consumed.
func mergePipelineMap(child, parent []PipelineEntry) []PipelineEntry {
	out := make([]PipelineEntry, 0, len(parent)+len(child))
	consumed := make(map[string]bool, len(child))

	for _, pe := range parent {
		if ci := pipelineEntryIndex(child, pe.Pattern); ci != -1 {
			out = append(out, PipelineEntry{
				Pattern:  pe.Pattern,
				Pipeline: mergePipeline(child[ci].Pipeline, pe.Pipeline),
			})
			consumed[pe.Pattern] = true
		} else {
			out = append(out, PipelineEntry{Pattern: pe.Pattern, Pipeline: cloneNodes(pe.Pipeline)})
		}
	}

	for _, ce := range child {
		if !consumed[ce.Pattern] {
			out = append(out, PipelineEntry{Pattern: ce.Pattern, Pipeline: cloneNodes(ce.Pipeline)})
		}
	}

	return out
}

// mergePackagerMap is mergePipelineMap's single-plugin analogue: the
// "merge" of two scalars is simply the child's scalar.
func mergePackagerMap(child, parent []PackagerEntry) []PackagerEntry {
	out := make([]PackagerEntry, 0, len(parent)+len(child))
	consumed := make(map[string]bool, len(child))

	for _, pe := range parent {
		if ci := packagerEntryIndex(child, pe.Pattern); ci != -1 {
			out = append(out, PackagerEntry{Pattern: pe.Pattern, Plugin: child[ci].Plugin})
			consumed[pe.Pattern] = true
		} else {
			out = append(out, pe)
		}
	}
	for _, ce := range child {
		if !consumed[ce.Pattern] {
			out = append(out, ce)
		}
	}
	return out
}
