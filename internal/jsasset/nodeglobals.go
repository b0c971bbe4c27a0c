package jsasset

import (
	"fmt"
	"path/filepath"

	sitter "github.com/smacker/go-tree-sitter"
)

// FilenameReplacePlaceholder and DirnameReplacePlaceholder are the literal
// sentinel strings the transformer emits for __filename/__dirname
// rewrites; the packaging stage substitutes them, never this package.
const (
	FilenameReplacePlaceholder = "$parcel$filenameReplace"
	DirnameReplacePlaceholder  = "$parcel$dirnameReplace"
)

// replaceNodeGlobals implements stage 10: rewrite free references to
// __filename/__dirname into a require('path').resolve(...) expression
// carrying the placeholder sentinels, and returns whether `path` needs to
// be added as a dependency.
func replaceNodeGlobals(p *parsedSource, filePath string, edits *editList) bool {
	replaced := false

	walk(p.tree.RootNode(), func(n *sitter.Node) bool {
		if n.Type() != "identifier" {
			return true
		}
		name := p.text(n)
		if name != "__filename" && name != "__dirname" {
			return true
		}
		if isDeclarationSite(n) {
			return true
		}
		if isShadowed(p, n, name) {
			return true
		}

		base := filepath.Base(filePath)
		var replacement string
		if name == "__filename" {
			replacement = fmt.Sprintf(`require("path").resolve(__dirname, %q, %q)`, FilenameReplacePlaceholder, base)
		} else {
			replacement = fmt.Sprintf(`require("path").resolve(__dirname, %q)`, DirnameReplacePlaceholder)
		}
		edits.replace(n, replacement)
		replaced = true
		return false
	})

	return replaced
}

// isDeclarationSite reports whether n is itself the bound name in a
// declaration, so a local `const __dirname = ...` isn't mistaken for a use
// of the global.
func isDeclarationSite(n *sitter.Node) bool {
	parent := n.Parent()
	if parent == nil {
		return false
	}
	switch parent.Type() {
	case "variable_declarator":
		return parent.ChildByFieldName("name") == n
	case "formal_parameters":
		return true
	}
	return false
}
