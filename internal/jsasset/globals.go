package jsasset

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// globalBinding describes one of the Node-ish globals stage 11 polyfills
// when the target environment doesn't provide it natively.
type globalBinding struct {
	identifier string
	specifier  string // module providing the polyfill
	exported   string // named export to bind, or "" for the default export
}

var nodeGlobalPolyfills = []globalBinding{
	{identifier: "process", specifier: "process", exported: ""},
	{identifier: "Buffer", specifier: "buffer", exported: "Buffer"},
	{identifier: "global", specifier: "", exported: ""}, // rewritten in place, no import
}

// injectGlobals implements stage 11: for every Node-ish global referenced
// but not locally declared, in a non-Node environment, insert a
// require()/import of its browser polyfill at the top of the file.
// `global` itself is rewritten to `globalThis` rather than polyfilled,
// since every target environment this transformer supports already has
// globalThis.
func injectGlobals(p *parsedSource, env Environment, edits *editList) []Dependency {
	if env.Context == ContextNode || env.Context == ContextElectronMain {
		return nil
	}

	root := p.tree.RootNode()
	used := make(map[string]bool)
	walk(root, func(n *sitter.Node) bool {
		if n.Type() != "identifier" {
			return true
		}
		name := p.text(n)
		switch name {
		case "process", "Buffer", "global":
			if !isDeclarationSite(n) && !isShadowed(p, n, name) {
				used[name] = true
			}
		}
		return true
	})

	if used["global"] {
		walk(root, func(n *sitter.Node) bool {
			if n.Type() == "identifier" && p.text(n) == "global" && !isDeclarationSite(n) && !isShadowed(p, n, "global") {
				edits.replace(n, "globalThis")
			}
			return true
		})
	}

	var deps []Dependency
	var preamble string
	for _, g := range nodeGlobalPolyfills {
		if g.specifier == "" || !used[g.identifier] {
			continue
		}
		dep := Dependency{
			Specifier: g.specifier, SpecifierType: SpecifierCommonJS,
			Kind: KindRequire, Priority: PrioritySync, Env: env,
		}
		dep.Placeholder = placeholder(dep.Specifier, 0)
		local := fmt.Sprintf("$%s$global$%s", environmentHash(env), g.identifier)
		accessor := local
		if g.exported != "" {
			accessor = local + "." + g.exported
		}
		preamble += fmt.Sprintf("const %s = require(%s);\nconst %s = %s;\n", local, quote(dep.Placeholder), g.identifier, accessor)
		deps = append(deps, dep)
	}

	if preamble != "" {
		insertAtStart(edits, root, preamble)
	}

	return deps
}

func insertAtStart(edits *editList, root *sitter.Node, text string) {
	edits.edits = append(edits.edits, edit{Start: root.StartByte(), End: root.StartByte(), Replacement: text})
}
