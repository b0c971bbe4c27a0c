package jsasset

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/atlaspack-core/atlaspack/internal/diagnostics"
)

// mangledLocal derives the stable local binding name a Symbol records for
// an exported name. Full scope-hoisting codegen (actually renaming every
// reference at every use site) is out of scope, but the symbol table's
// local identifiers still need to be stable and unique per asset.
func mangledLocal(assetIDHex, name string) string {
	return fmt.Sprintf("$%s$%s", assetIDHex, name)
}

// moduleAnalysis is the result of stage 14's symbol analysis plus the
// bailout scan grouped alongside it.
type moduleAnalysis struct {
	Symbols       []Symbol
	HasCJSExports bool
	IsWrapped     bool
}

// analyzeModule implements stage 14 (symbol analysis) and the bailout
// detection that runs alongside it. deps is mutated in place:
// named/namespace import symbols and self-reference flags are attached to
// the Dependency they belong to.
func analyzeModule(p *parsedSource, assetIDHex, filePath string, deps []Dependency, bag *diagnostics.Bag) moduleAnalysis {
	a := &analyzer{p: p, assetIDHex: assetIDHex, filePath: filePath, deps: deps, bag: bag}
	a.scanBailouts()
	a.scanImportsExports()
	return moduleAnalysis{Symbols: a.symbols, HasCJSExports: a.hasCJSExports, IsWrapped: a.isWrapped}
}

type analyzer struct {
	p          *parsedSource
	assetIDHex string
	filePath   string
	deps       []Dependency
	bag        *diagnostics.Bag

	symbols       []Symbol
	hasCJSExports bool
	isWrapped     bool
}

func (a *analyzer) scanBailouts() {
	root := a.p.tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		if root.NamedChild(i).Type() == "return_statement" {
			a.isWrapped = true
			a.bag.Add(diagnostics.Warn(diagnostics.KindAnalysisBailout, "jsasset", "top-level return forces this module to be wrapped"))
		}
	}

	walk(root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "assignment_expression":
			a.scanAssignment(n)
		case "call_expression":
			fn := n.ChildByFieldName("function")
			if fn != nil && a.p.text(fn) == "eval" {
				a.isWrapped = true
				a.bag.Add(diagnostics.Warn(diagnostics.KindAnalysisBailout, "jsasset", "use of eval() forces this module to be wrapped"))
			}
		case "subscript_expression":
			obj := n.ChildByFieldName("object")
			if obj != nil && (a.p.text(obj) == "module" || a.p.text(obj) == "exports") {
				a.isWrapped = true
				a.bag.Add(diagnostics.Warn(diagnostics.KindAnalysisBailout, "jsasset", "computed member access on module/exports cannot be statically analyzed"))
			}
		}
		return true
	})
}

func (a *analyzer) scanAssignment(n *sitter.Node) {
	left := n.ChildByFieldName("left")
	if left == nil {
		return
	}
	switch left.Type() {
	case "identifier":
		if name := a.p.text(left); name == "module" || name == "exports" {
			a.isWrapped = true
			a.bag.Add(diagnostics.Warn(diagnostics.KindAnalysisBailout, "jsasset", "reassigning "+name+" forces this module to be wrapped"))
		}
	case "member_expression":
		obj := left.ChildByFieldName("object")
		if obj == nil {
			return
		}
		objText := a.p.text(obj)
		if objText == "module" {
			if prop := left.ChildByFieldName("property"); prop != nil && a.p.text(prop) == "exports" {
				a.hasCJSExports = true // `module.exports = …`
			}
		}
		if objText == "exports" || objText == "module.exports" {
			a.hasCJSExports = true
			if name := left.ChildByFieldName("property"); name != nil && name.Type() == "property_identifier" {
				exported := a.p.text(name)
				a.symbols = append(a.symbols, Symbol{
					Exported: exported,
					Local:    mangledLocal(a.assetIDHex, exported),
					Loc:      a.p.loc(n),
				})
			}
		}
	}
}

func (a *analyzer) scanImportsExports() {
	root := a.p.tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		switch stmt.Type() {
		case "import_statement":
			a.handleImportStatement(stmt)
		case "export_statement":
			a.handleExportStatement(stmt)
		}
	}

	if a.hasCJSExports || a.isWrapped {
		a.symbols = append(a.symbols, Symbol{
			Exported: "*",
			Local:    fmt.Sprintf("$%s$exports", a.assetIDHex),
		})
	}
}

func (a *analyzer) handleImportStatement(stmt *sitter.Node) {
	source := stmt.ChildByFieldName("source")
	specifier, ok := stringLiteralValue(a.p, source)
	if !ok {
		return
	}
	dep := a.findDependency(specifier)
	if dep == nil {
		return
	}

	clause := stmt.ChildByFieldName("import_clause")
	if clause == nil {
		return
	}
	walk(clause, func(n *sitter.Node) bool {
		switch n.Type() {
		case "namespace_import":
			dep.Symbols = append(dep.Symbols, Symbol{Exported: "*", Local: "*", IsWeak: true, IsEsm: true, SelfReferenced: a.isSelfReference(specifier)})
			return false
		case "import_specifier":
			name := n.ChildByFieldName("name")
			alias := n.ChildByFieldName("alias")
			if name == nil {
				return true
			}
			exported := a.p.text(name)
			local := exported
			if alias != nil {
				local = a.p.text(alias)
			}
			dep.Symbols = append(dep.Symbols, Symbol{Exported: exported, Local: local, IsEsm: true, SelfReferenced: a.isSelfReference(specifier)})
			return false
		case "identifier":
			if n.Parent() == clause {
				dep.Symbols = append(dep.Symbols, Symbol{Exported: "default", Local: a.p.text(n), IsEsm: true})
			}
			return true
		}
		return true
	})
}

func (a *analyzer) handleExportStatement(stmt *sitter.Node) {
	source := stmt.ChildByFieldName("source")
	if source != nil {
		specifier, ok := stringLiteralValue(a.p, source)
		if !ok {
			return
		}
		dep := a.findDependency(specifier)
		if dep == nil {
			return
		}
		if isExportAll(a.p, stmt) {
			exported := "*"
			if alias := exportAllAlias(a.p, stmt); alias != "" {
				exported = alias
			}
			dep.Symbols = append(dep.Symbols, Symbol{Exported: exported, Local: "*", IsWeak: true, IsEsm: true, SelfReferenced: a.isSelfReference(specifier)})
			return
		}
		clause := stmt.ChildByFieldName("export_clause")
		if clause != nil {
			for i := 0; i < int(clause.NamedChildCount()); i++ {
				spec := clause.NamedChild(i)
				if spec.Type() != "export_specifier" {
					continue
				}
				name := spec.ChildByFieldName("name")
				alias := spec.ChildByFieldName("alias")
				if name == nil {
					continue
				}
				exported := a.p.text(name)
				if alias != nil {
					exported = a.p.text(alias)
				}
				dep.Symbols = append(dep.Symbols, Symbol{
					Exported: exported, Local: a.p.text(name), IsWeak: true, IsEsm: true,
					SelfReferenced: a.isSelfReference(specifier),
				})
			}
		}
		return
	}

	declName := a.exportedDeclarationName(stmt)
	if declName == "" {
		return
	}
	a.symbols = append(a.symbols, Symbol{
		Exported: declName,
		Local:    mangledLocal(a.assetIDHex, declName),
		Loc:      a.p.loc(stmt),
		IsEsm:    true,
	})
}

// exportedDeclarationName extracts the bound name from `export const x = …`,
// `export function f() {}`, `export class C {}`, or `export default …`.
func (a *analyzer) exportedDeclarationName(stmt *sitter.Node) string {
	for i := 0; i < int(stmt.NamedChildCount()); i++ {
		child := stmt.NamedChild(i)
		switch child.Type() {
		case "function_declaration", "class_declaration", "generator_function_declaration":
			if id := child.ChildByFieldName("name"); id != nil {
				return a.p.text(id)
			}
		case "lexical_declaration", "variable_declaration":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				decl := child.NamedChild(j)
				if decl.Type() == "variable_declarator" {
					if id := decl.ChildByFieldName("name"); id != nil && id.Type() == "identifier" {
						return a.p.text(id)
					}
				}
			}
		}
	}
	if hasDefaultKeyword(a.p, stmt) {
		return "default"
	}
	return ""
}

func hasDefaultKeyword(p *parsedSource, stmt *sitter.Node) bool {
	text := p.text(stmt)
	return len(text) > 14 && text[:14] == "export default"
}

func isExportAll(p *parsedSource, stmt *sitter.Node) bool {
	for i := 0; i < int(stmt.ChildCount()); i++ {
		if p.text(stmt.Child(i)) == "*" {
			return true
		}
	}
	return false
}

func exportAllAlias(p *parsedSource, stmt *sitter.Node) string {
	for i := 0; i < int(stmt.NamedChildCount()); i++ {
		if stmt.NamedChild(i).Type() == "identifier" {
			return p.text(stmt.NamedChild(i))
		}
	}
	return ""
}

func (a *analyzer) findDependency(specifier string) *Dependency {
	for i := range a.deps {
		if a.deps[i].Specifier == specifier {
			return &a.deps[i]
		}
	}
	return nil
}

// isSelfReference detects an import/export specifier referring back to the
// asset's own file by relative name. Without a live resolver this is
// necessarily syntactic rather than path-resolved.
func (a *analyzer) isSelfReference(specifier string) bool {
	if specifier == "." || specifier == "./" {
		return true
	}
	base := fileBaseNoExt(a.filePath)
	return specifier == "./"+base
}
