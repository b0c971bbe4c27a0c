package jsasset

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// JSXRuntime selects stage 5's codegen target.
type JSXRuntime int

const (
	// JSXRuntimeClassic rewrites elements to createElement(...) calls
	// against an in-scope pragma (default "React").
	JSXRuntimeClassic JSXRuntime = iota
	// JSXRuntimeAutomatic imports jsx/jsxs from "<pragma>/jsx-runtime" and
	// rewrites elements to calls against the imported binding.
	JSXRuntimeAutomatic
)

// jsxOptions configures stage 5.
type jsxOptions struct {
	Runtime JSXRuntime
	Pragma  string // default "React"
}

// transformJSX implements stage 5: lower JSX element/fragment syntax to
// plain call expressions. It returns any dependency on the jsx-runtime
// module the automatic runtime requires (the caller merges it into the
// asset's Dependencies so it survives the same placeholder-rewrite
// convention as every other specifier).
func transformJSX(p *parsedSource, opts jsxOptions, env Environment, edits *editList) []Dependency {
	if p.typ != TypeJSX && p.typ != TypeTSX {
		return nil
	}
	pragma := opts.Pragma
	if pragma == "" {
		pragma = "React"
	}

	var deps []Dependency
	usesJSX := false

	walk(p.tree.RootNode(), func(n *sitter.Node) bool {
		switch n.Type() {
		case "jsx_element", "jsx_self_closing_element", "jsx_fragment":
			usesJSX = true
			edits.replace(n, renderJSXCall(p, n, opts, pragma))
			return false
		}
		return true
	})

	if usesJSX && opts.Runtime == JSXRuntimeAutomatic {
		specifier := pragma + "/jsx-runtime"
		dep := Dependency{
			Specifier:     specifier,
			SpecifierType: SpecifierEsm,
			Kind:          KindImport,
			Priority:      PrioritySync,
			Placeholder:   placeholder(specifier, 0),
			Env:           env,
			IsEsm:         true,
		}
		runtimeTag := fmt.Sprintf("%x", dependencyID(0, dep, "jsx-runtime"))
		dep.Symbols = []Symbol{
			{Exported: "jsx", Local: fmt.Sprintf("$%s$jsx", runtimeTag), IsEsm: true},
			{Exported: "jsxs", Local: fmt.Sprintf("$%s$jsxs", runtimeTag), IsEsm: true},
		}
		deps = append(deps, dep)
	}

	return deps
}

// renderJSXCall produces the replacement call-expression text for a single
// JSX node. This narrows to static tag names and attribute lists — spread
// attributes and dynamic tag names degrade to a best-effort reconstruction
// rather than a hardened codegen pass, consistent with the other heavy
// transpile stages' documented scope reduction.
func renderJSXCall(p *parsedSource, n *sitter.Node, opts jsxOptions, pragma string) string {
	fn := pragma + ".createElement"
	if opts.Runtime == JSXRuntimeAutomatic {
		fn = "jsx"
	}

	if n.Type() == "jsx_fragment" {
		frag := pragma + ".Fragment"
		if opts.Runtime == JSXRuntimeAutomatic {
			frag = "_Fragment"
		}
		children := jsxChildrenText(p, n)
		return fmt.Sprintf("%s(%s, null%s)", fn, frag, children)
	}

	opening := n
	if n.Type() == "jsx_element" {
		opening = n.ChildByFieldName("open_tag")
	}
	name := jsxTagName(p, opening)
	props := jsxPropsText(p, opening)
	children := ""
	if n.Type() == "jsx_element" {
		children = jsxChildrenText(p, n)
	}
	return fmt.Sprintf("%s(%s, %s%s)", fn, name, props, children)
}

func jsxTagName(p *parsedSource, opening *sitter.Node) string {
	nameNode := opening.ChildByFieldName("name")
	if nameNode == nil {
		return "null"
	}
	text := p.text(nameNode)
	if len(text) > 0 && text[0] >= 'a' && text[0] <= 'z' {
		return quote(text)
	}
	return text
}

func jsxPropsText(p *parsedSource, opening *sitter.Node) string {
	var pairs []string
	for i := 0; i < int(opening.NamedChildCount()); i++ {
		attr := opening.NamedChild(i)
		if attr.Type() != "jsx_attribute" {
			continue
		}
		name := attr.ChildByFieldName("name")
		value := attr.ChildByFieldName("value")
		if name == nil {
			continue
		}
		key := p.text(name)
		if value == nil {
			pairs = append(pairs, key+":true")
			continue
		}
		if value.Type() == "jsx_expression" {
			inner := value.NamedChild(0)
			pairs = append(pairs, key+":"+p.text(inner))
		} else {
			pairs = append(pairs, key+":"+p.text(value))
		}
	}
	if len(pairs) == 0 {
		return "null"
	}
	out := "{"
	for i, pair := range pairs {
		if i > 0 {
			out += ","
		}
		out += pair
	}
	return out + "}"
}

func jsxChildrenText(p *parsedSource, n *sitter.Node) string {
	var out string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "jsx_text":
			text := p.text(child)
			if len(text) == 0 {
				continue
			}
			out += ", " + quote(text)
		case "jsx_expression":
			inner := child.NamedChild(0)
			if inner != nil {
				out += ", " + p.text(inner)
			}
		default:
			out += ", " + p.text(child)
		}
	}
	return out
}
