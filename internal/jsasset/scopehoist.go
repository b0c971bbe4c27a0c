package jsasset

import sitter "github.com/smacker/go-tree-sitter"

// rewriteForScopeHoist implements the CommonJS half of stage 15: rewrite
// `exports.x = ...` / `module.exports = ...` assignments to define
// properties against a per-asset mangled exports object, so the bundler
// can hoist every asset's top-level bindings into one shared scope without
// a runtime module registry. ESM rewriting (renaming every local binding
// to its mangled Symbol.Local at each reference) is deliberately out of
// scope here, since it requires full per-reference binding resolution
// this layer's syntactic analysis doesn't attempt; this covers only the
// mechanical, call-site-local CJS rewrite.
func rewriteForScopeHoist(p *parsedSource, assetIDHex string, env Environment, edits *editList) {
	if !env.ShouldScopeHoist {
		return
	}
	exportsVar := "$" + assetIDHex + "$exports"

	walk(p.tree.RootNode(), func(n *sitter.Node) bool {
		if n.Type() != "assignment_expression" {
			return true
		}
		left := n.ChildByFieldName("left")
		if left == nil {
			return true
		}
		switch left.Type() {
		case "identifier":
			if p.text(left) == "exports" {
				edits.replace(left, exportsVar)
			}
		case "member_expression":
			obj := left.ChildByFieldName("object")
			if obj == nil {
				return true
			}
			switch p.text(obj) {
			case "exports":
				edits.replace(obj, exportsVar)
			case "module":
				prop := obj.Parent().ChildByFieldName("property")
				if prop != nil && p.text(prop) == "exports" {
					edits.replace(left, exportsVar)
				}
			}
		}
		return true
	})
}
