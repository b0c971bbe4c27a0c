package jsasset

import sitter "github.com/smacker/go-tree-sitter"

// foldConstants implements stage 8: simplify constant conditionals and
// prune the dead branch from the emitted code. This is a narrow,
// syntactic version: it only folds `if`/ternary tests that are the literal
// booleans `true` or `false` — not a general constant-propagation pass.
// The pruning is recorded as edits against the stage-1 tree; stage 13's
// dependency collection walks that same unmodified tree, so dependencies
// inside a pruned branch are still collected.
func foldConstants(p *parsedSource, edits *editList) {
	walk(p.tree.RootNode(), func(n *sitter.Node) bool {
		switch n.Type() {
		case "if_statement":
			foldIfStatement(p, n, edits)
		case "ternary_expression":
			foldTernary(p, n, edits)
		}
		return true
	})
}

func foldIfStatement(p *parsedSource, n *sitter.Node, edits *editList) {
	cond := n.ChildByFieldName("condition")
	consequence := n.ChildByFieldName("consequence")
	alternative := n.ChildByFieldName("alternative")
	value, ok := foldableBool(p, cond)
	if !ok {
		return
	}
	if value {
		if alternative != nil {
			edits.replaceRange(consequence.EndByte(), n.EndByte(), "")
		}
	} else if consequence != nil {
		if alternative != nil {
			edits.replace(consequence, "")
		} else {
			edits.replace(n, "")
		}
	}
}

func foldTernary(p *parsedSource, n *sitter.Node, edits *editList) {
	cond := n.ChildByFieldName("condition")
	value, ok := foldableBool(p, cond)
	if !ok {
		return
	}
	branch := n.ChildByFieldName("consequence")
	if !value {
		branch = n.ChildByFieldName("alternative")
	}
	if branch != nil {
		edits.replace(n, p.text(branch))
	}
}

// foldableBool evaluates a narrow set of statically-decidable test
// expressions: boolean literals and `typeof x === "y"`/`"y" === typeof x`
// where x is a bare identifier whose typeof this pass can't actually know
// — so only the boolean-literal case is evaluable here; the typeof form is
// left for a future, environment-aware pass and is intentionally not
// folded (returns ok=false).
func foldableBool(p *parsedSource, n *sitter.Node) (bool, bool) {
	if n == nil {
		return false, false
	}
	switch p.text(n) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}
