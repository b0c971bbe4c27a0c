package jsasset

import sitter "github.com/smacker/go-tree-sitter"

// isConstantModule implements the supplemented is_constant_module check: a
// module with no dependencies whose every top-level statement is a
// declaration with no call/new expression in it (so nothing it does could
// have an observable side effect) is a candidate for deduplication with
// other assets that reduce to the same constant shape.
func isConstantModule(p *parsedSource, deps []Dependency) bool {
	if len(deps) > 0 {
		return false
	}
	root := p.tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		if !isConstantStatement(root.NamedChild(i)) {
			return false
		}
	}
	return true
}

func isConstantStatement(n *sitter.Node) bool {
	switch n.Type() {
	case "comment", "import_statement", "export_clause",
		"function_declaration", "generator_function_declaration", "class_declaration":
		return true
	case "lexical_declaration", "variable_declaration":
		return !containsCallOrNew(n)
	case "export_statement":
		// `export { a, b }`: the declarations its export_clause names
		// already have their own top-level statements judged separately,
		// so the clause itself is inert. `export … from` forms carry a
		// dependency and were already rejected above.
		if n.NamedChildCount() == 0 {
			return true
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if !isConstantStatement(n.NamedChild(i)) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func containsCallOrNew(n *sitter.Node) bool {
	found := false
	walk(n, func(c *sitter.Node) bool {
		if found {
			return false
		}
		switch c.Type() {
		case "call_expression", "new_expression":
			found = true
			return false
		}
		return true
	})
	return found
}
