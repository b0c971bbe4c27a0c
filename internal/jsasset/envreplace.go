package jsasset

import sitter "github.com/smacker/go-tree-sitter"

// replaceEnvReferences implements stage 7: replace `process.env.X` with the
// configured literal value when the environment isn't Node-like, recording
// X in usedEnv; replace `process.browser` with a boolean literal the same
// way.
func replaceEnvReferences(p *parsedSource, env Environment, values map[string]string, edits *editList) (usedEnv []string) {
	if env.Context == ContextNode || env.Context == ContextElectronMain {
		return nil
	}

	seen := make(map[string]bool)
	walk(p.tree.RootNode(), func(n *sitter.Node) bool {
		if n.Type() != "member_expression" {
			return true
		}
		obj := n.ChildByFieldName("object")
		prop := n.ChildByFieldName("property")
		if obj == nil || prop == nil {
			return true
		}

		if obj.Type() == "member_expression" {
			inner := obj.ChildByFieldName("object")
			innerProp := obj.ChildByFieldName("property")
			if inner != nil && innerProp != nil && p.text(inner) == "process" && p.text(innerProp) == "env" {
				name := p.text(prop)
				if !seen[name] {
					seen[name] = true
					usedEnv = append(usedEnv, name)
				}
				if v, ok := values[name]; ok {
					edits.replace(n, quote(v))
				} else {
					edits.replace(n, "undefined")
				}
				return false
			}
		}

		if p.text(obj) == "process" && p.text(prop) == "browser" {
			isBrowser := env.Context == ContextBrowser
			edits.replace(n, boolLiteral(isBrowser))
			return false
		}

		return true
	})
	return usedEnv
}

func boolLiteral(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
