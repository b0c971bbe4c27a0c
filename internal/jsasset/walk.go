package jsasset

import sitter "github.com/smacker/go-tree-sitter"

// walk calls visit for every node in the tree rooted at n, pre-order. visit
// returns false to skip descending into that node's children (used to avoid
// re-visiting a call expression's own sub-expressions once it has been
// fully classified as a dependency form).
func walk(n *sitter.Node, visit func(*sitter.Node) bool) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		walk(n.NamedChild(i), visit)
	}
}

// stringLiteralValue returns the unquoted value of a `string` node, or ""
// with ok=false if n isn't a plain (non-templated) string literal.
func stringLiteralValue(p *parsedSource, n *sitter.Node) (string, bool) {
	if n == nil || n.Type() != "string" {
		return "", false
	}
	// A `string` node's named children are its fragment/escape parts; for a
	// literal with no interpolation the full text minus the surrounding
	// quote characters is the value.
	text := p.text(n)
	if len(text) < 2 {
		return "", false
	}
	return text[1 : len(text)-1], true
}

// enclosingFunction returns the nearest ancestor function-like node, or nil
// if n is at module top level.
func enclosingFunction(n *sitter.Node) *sitter.Node {
	for cur := n.Parent(); cur != nil; cur = cur.Parent() {
		switch cur.Type() {
		case "function_declaration", "function_expression", "arrow_function",
			"method_definition", "generator_function", "generator_function_declaration":
			return cur
		}
	}
	return nil
}

// enclosingOfType returns the nearest ancestor whose type is in types, or nil.
func enclosingOfType(n *sitter.Node, types ...string) *sitter.Node {
	set := make(map[string]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	for cur := n.Parent(); cur != nil; cur = cur.Parent() {
		if set[cur.Type()] {
			return cur
		}
	}
	return nil
}

// isShadowed reports whether name is declared anywhere in the module by a
// variable declarator, function declaration, parameter list or import
// specifier that does not itself contain n. This is a coarse
// approximation of scope: a declaration in a scope that does not enclose
// n (e.g. a local inside an unrelated function) also counts. It is used
// for the identifiers this package shadow-checks (`__filename`,
// `__dirname`, and the Node globals).
func isShadowed(p *parsedSource, n *sitter.Node, name string) bool {
	shadowed := false
	walk(p.tree.RootNode(), func(cur *sitter.Node) bool {
		if shadowed {
			return false
		}
		switch cur.Type() {
		case "variable_declarator", "formal_parameters", "import_specifier", "function_declaration":
			if declares(p, cur, name) && !containsByteRange(cur, n.StartByte()) {
				shadowed = true
			}
		}
		return true
	})
	return shadowed
}

func declares(p *parsedSource, n *sitter.Node, name string) bool {
	switch n.Type() {
	case "variable_declarator":
		id := n.ChildByFieldName("name")
		return id != nil && id.Type() == "identifier" && p.text(id) == name
	case "function_declaration":
		id := n.ChildByFieldName("name")
		return id != nil && p.text(id) == name
	case "import_specifier":
		id := n.ChildByFieldName("name")
		return id != nil && p.text(id) == name
	case "formal_parameters":
		found := false
		for i := 0; i < int(n.NamedChildCount()); i++ {
			param := n.NamedChild(i)
			if param.Type() == "identifier" && p.text(param) == name {
				found = true
			}
		}
		return found
	}
	return false
}

func containsByteRange(n *sitter.Node, b uint32) bool {
	return b >= n.StartByte() && b < n.EndByte()
}
