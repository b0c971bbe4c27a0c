package jsasset

import sitter "github.com/smacker/go-tree-sitter"

// stripTypes implements stage 4: erase TypeScript-only syntax so later
// stages only ever see plain JS. The typescript/tsx tree-sitter grammars
// expose explicit node types for every erasable construct, so this walks
// the tree once and blanks each one out via the edit list rather than
// attempting to re-parse as JS.
func stripTypes(p *parsedSource, edits *editList) {
	if p.typ != TypeTS && p.typ != TypeTSX {
		return
	}
	walk(p.tree.RootNode(), func(n *sitter.Node) bool {
		switch n.Type() {
		case "type_alias_declaration", "interface_declaration":
			edits.replace(n, "")
			return false
		case "type_annotation":
			edits.replace(n, "")
			return false
		case "type_parameters", "type_arguments":
			edits.replace(n, "")
			return false
		case "as_expression", "satisfies_expression":
			expr := n.NamedChild(0)
			if expr != nil {
				edits.replace(n, p.text(expr))
			}
			return true
		case "non_null_expression":
			expr := n.NamedChild(0)
			if expr != nil {
				edits.replace(n, p.text(expr))
			}
			return true
		case "ambient_declaration":
			edits.replace(n, "")
			return false
		case "import_statement":
			if isTypeOnlyImport(p, n) {
				edits.replace(n, "")
			}
			return true
		case "export_statement":
			if isTypeOnlyExport(p, n) {
				edits.replace(n, "")
			}
			return true
		case "public_field_definition", "required_parameter", "optional_parameter":
			for i := 0; i < int(n.ChildCount()); i++ {
				child := n.Child(i)
				switch p.text(child) {
				case "public", "private", "protected", "readonly", "abstract", "override":
					edits.replace(child, "")
				}
			}
			return true
		case "index_signature":
			edits.replace(n, "")
			return false
		}
		return true
	})
}

func isTypeOnlyImport(p *parsedSource, stmt *sitter.Node) bool {
	for i := 0; i < int(stmt.ChildCount()); i++ {
		if p.text(stmt.Child(i)) == "type" {
			return true
		}
	}
	return false
}

func isTypeOnlyExport(p *parsedSource, stmt *sitter.Node) bool {
	for i := 0; i < int(stmt.ChildCount()); i++ {
		if p.text(stmt.Child(i)) == "type" {
			return true
		}
	}
	return false
}
