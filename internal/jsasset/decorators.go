package jsasset

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// lowerDecorators implements stage 3: rewrite `@dec class Foo {}` by
// removing the decorator and appending a
// `const $<assetID>$decN = dec(Foo);` statement after the class. Only
// class-level decorators (a bare identifier or call-expression decorator)
// are lowered; decorators on class members are left in place, and
// decorator metadata is not emitted.
func lowerDecorators(p *parsedSource, assetIDHex string, edits *editList) {
	counter := 0
	walk(p.tree.RootNode(), func(n *sitter.Node) bool {
		if n.Type() != "class_declaration" && n.Type() != "class" {
			return true
		}
		decorators := classDecorators(n)
		if len(decorators) == 0 {
			return true
		}
		name := n.ChildByFieldName("name")
		if name == nil {
			return true
		}
		className := p.text(name)
		for _, d := range decorators {
			edits.replace(d, "")
		}
		tmp := fmt.Sprintf("$%s$dec%d", assetIDHex, counter)
		counter++
		call := className
		for _, d := range decorators {
			call = decoratorExprText(p, d) + "(" + call + ")"
		}
		insertion := fmt.Sprintf("\nconst %s = %s;", tmp, call)
		edits.insertAfter(n, insertion)
		return true
	})
}

func classDecorators(class *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	parent := class.Parent()
	if parent == nil {
		return out
	}
	for i := 0; i < int(parent.NamedChildCount()); i++ {
		child := parent.NamedChild(i)
		if child.Type() == "decorator" && child.NextNamedSibling() != nil && sameNode(child.NextNamedSibling(), class) {
			out = append(out, child)
		}
	}
	return out
}

func sameNode(a, b *sitter.Node) bool {
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte()
}

func decoratorExprText(p *parsedSource, decorator *sitter.Node) string {
	expr := decorator.NamedChild(0)
	if expr == nil {
		return p.text(decorator)
	}
	return p.text(expr)
}
