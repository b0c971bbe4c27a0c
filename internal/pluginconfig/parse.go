package pluginconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// orderedObject decodes a JSON object's keys in source order — encoding/json
// does not preserve map key order, but the pipeline merge algebra needs it:
// key order determines glob match precedence.
type orderedObject struct {
	keys   []string
	values map[string]json.RawMessage
}

func decodeOrderedObject(raw json.RawMessage) (*orderedObject, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return &orderedObject{values: map[string]json.RawMessage{}}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return nil, fmt.Errorf("expected JSON object, got %v", tok)
	}

	obj := &orderedObject{values: make(map[string]json.RawMessage)}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", keyTok)
		}
		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return nil, fmt.Errorf("decoding value for %q: %w", key, err)
		}
		obj.keys = append(obj.keys, key)
		obj.values[key] = val
	}
	if _, err := dec.Token(); err != nil { // consume closing '}'
		return nil, err
	}
	return obj, nil
}

var knownTopLevelFields = map[string]bool{
	"extends": true, "bundler": true, "namers": true, "reporters": true,
	"resolvers": true, "runtimes": true, "compressors": true, "optimizers": true,
	"transformers": true, "validators": true, "packagers": true,
}

// parsePartialConfig parses the JSON (already comment-stripped) contents of
// one .atlaspackrc file into a PartialConfig plus its raw `extends` value.
// resolveFrom is the config file's own canonical path, recorded on every
// PluginNode this file declares so the plugin can be re-resolved later from
// the same origin (spec.md §3: PluginNode equality is by both the package
// name and this origin path).
func parsePartialConfig(src []byte, resolveFrom string) (PartialConfig, json.RawMessage, error) {
	top, err := decodeOrderedObject(src)
	if err != nil {
		return PartialConfig{}, nil, err
	}

	cfg := PartialConfig{Unknown: make(map[string]any)}

	if raw, ok := top.values["bundler"]; ok {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return PartialConfig{}, nil, fmt.Errorf("bundler: %w", err)
		}
		cfg.Bundler = &PluginNode{PackageName: name, ResolveFrom: resolveFrom}
	}

	if pipeline, err := parsePipelineField(top, "namers", resolveFrom); err != nil {
		return PartialConfig{}, nil, err
	} else {
		cfg.Namers = pipeline
	}
	if pipeline, err := parsePipelineField(top, "reporters", resolveFrom); err != nil {
		return PartialConfig{}, nil, err
	} else {
		cfg.Reporters = pipeline
	}
	if pipeline, err := parsePipelineField(top, "resolvers", resolveFrom); err != nil {
		return PartialConfig{}, nil, err
	} else {
		cfg.Resolvers = pipeline
	}
	if pipeline, err := parsePipelineField(top, "runtimes", resolveFrom); err != nil {
		return PartialConfig{}, nil, err
	} else {
		cfg.Runtimes = pipeline
	}

	if entries, err := parsePipelineMapField(top, "compressors", resolveFrom); err != nil {
		return PartialConfig{}, nil, err
	} else {
		cfg.Compressors = entries
	}
	if entries, err := parsePipelineMapField(top, "optimizers", resolveFrom); err != nil {
		return PartialConfig{}, nil, err
	} else {
		cfg.Optimizers = entries
	}
	if entries, err := parsePipelineMapField(top, "transformers", resolveFrom); err != nil {
		return PartialConfig{}, nil, err
	} else {
		cfg.Transformers = entries
	}
	if entries, err := parsePipelineMapField(top, "validators", resolveFrom); err != nil {
		return PartialConfig{}, nil, err
	} else {
		cfg.Validators = entries
	}

	if raw, ok := top.values["packagers"]; ok {
		sub, err := decodeOrderedObject(raw)
		if err != nil {
			return PartialConfig{}, nil, fmt.Errorf("packagers: %w", err)
		}
		for _, pattern := range sub.keys {
			var name string
			if err := json.Unmarshal(sub.values[pattern], &name); err != nil {
				return PartialConfig{}, nil, fmt.Errorf("packagers.%s: %w", pattern, err)
			}
			cfg.Packagers = append(cfg.Packagers, PackagerEntry{Pattern: pattern, Plugin: PluginNode{PackageName: name, ResolveFrom: resolveFrom}})
		}
	}

	for _, key := range top.keys {
		if knownTopLevelFields[key] {
			continue
		}
		var v any
		if err := json.Unmarshal(top.values[key], &v); err != nil {
			return PartialConfig{}, nil, fmt.Errorf("%s: %w", key, err)
		}
		cfg.Unknown[key] = v
	}

	return cfg, top.values["extends"], nil
}

func parsePipelineField(top *orderedObject, field, resolveFrom string) ([]PluginNode, error) {
	raw, ok := top.values[field]
	if !ok {
		return nil, nil
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	nodes := make([]PluginNode, len(names))
	for i, n := range names {
		nodes[i] = PluginNode{PackageName: n, ResolveFrom: resolveFrom}
	}
	return nodes, nil
}

func parsePipelineMapField(top *orderedObject, field, resolveFrom string) ([]PipelineEntry, error) {
	raw, ok := top.values[field]
	if !ok {
		return nil, nil
	}
	sub, err := decodeOrderedObject(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	entries := make([]PipelineEntry, 0, len(sub.keys))
	for _, pattern := range sub.keys {
		var names []string
		if err := json.Unmarshal(sub.values[pattern], &names); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", field, pattern, err)
		}
		nodes := make([]PluginNode, len(names))
		for i, n := range names {
			nodes[i] = PluginNode{PackageName: n, ResolveFrom: resolveFrom}
		}
		entries = append(entries, PipelineEntry{Pattern: pattern, Pipeline: nodes})
	}
	return entries, nil
}

// extendsSpecifiers normalizes the `extends` field (string or array of
// strings) into an ordered list.
func extendsSpecifiers(raw json.RawMessage) ([]string, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("extends: %w", err)
	}
	return list, nil
}
