package pluginconfig

import (
	"github.com/atlaspack-core/atlaspack/internal/diagnostics"
)

const configDocsURL = "https://atlaspack.dev/docs/configuration"

// errMissingConfigFile reports that neither config nor fallback_config (nor
// an ancestor .atlaspackrc) could be found, starting the search from `from`.
func errMissingConfigFile(from string) diagnostics.Diagnostic {
	return diagnostics.Newf(diagnostics.KindNotFound, "pluginconfig",
		"no .atlaspackrc found searching upward from %s", from).
		WithDocs(configDocsURL).
		WithHint("create a .atlaspackrc at your project root, or pass an explicit config path")
}

// errUnresolvedConfig reports that an `extends` specifier (package or
// relative) could not be turned into a readable file path.
func errUnresolvedConfig(kind, specifier, from string, cause error) diagnostics.Diagnostic {
	d := diagnostics.Newf(diagnostics.KindResolutionFailure, "pluginconfig",
		"could not resolve %s extends specifier %q from %s", kind, specifier, from).
		WithDocs(configDocsURL)
	if cause != nil {
		d = d.WithHint(cause.Error())
	}
	return d
}

// errParseFailure reports malformed JSON(C) in a config file.
func errParseFailure(path string, cause error) diagnostics.Diagnostic {
	return diagnostics.Newf(diagnostics.KindParseFailure, "pluginconfig",
		"failed to parse %s: %s", path, cause).
		WithDocs(configDocsURL)
}

// errReadFailure reports an I/O failure reading a config file that the
// search/extends-chain logic otherwise expected to exist.
func errReadFailure(path string, cause error) diagnostics.Diagnostic {
	return diagnostics.Newf(diagnostics.KindReadFailure, "pluginconfig",
		"failed to read %s: %s", path, cause)
}
