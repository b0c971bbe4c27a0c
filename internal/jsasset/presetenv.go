package jsasset

import sitter "github.com/smacker/go-tree-sitter"

// presetEnvTransform implements stage 12: downlevel syntax the target
// Environment's Engines can't run natively. A full preset-env equivalent
// (browserslist-driven per-feature matrices) is out of scope — there's no
// such library in reach here — so this narrows to the one substitution
// that's both mechanical and safe to do syntactically: optional chaining
// (`a?.b`) becomes a chained `a == null ? undefined : a.b` only when the
// environment declares no browser engines at all (the conservative "assume
// nothing" case); anything else is left for a real downleveling pass.
func presetEnvTransform(p *parsedSource, env Environment, edits *editList) {
	if len(env.Engines) != 0 {
		return // caller asserted explicit engine support; trust it.
	}
	walk(p.tree.RootNode(), func(n *sitter.Node) bool {
		if n.Type() != "optional_chain" && n.Type() != "member_expression" {
			return true
		}
		if !hasOptionalChainOperator(p, n) {
			return true
		}
		obj := n.ChildByFieldName("object")
		prop := n.ChildByFieldName("property")
		if obj == nil || prop == nil {
			return true
		}
		objText := p.text(obj)
		replacement := "(" + objText + " == null ? undefined : " + objText + "." + p.text(prop) + ")"
		edits.replace(n, replacement)
		return false
	})
}

func hasOptionalChainOperator(p *parsedSource, n *sitter.Node) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if p.text(n.Child(i)) == "?." {
			return true
		}
	}
	return false
}
