package jsasset

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/atlaspack-core/atlaspack/internal/diagnostics"
)

// collectDependencies implements stage 13, plus the call-site rewriting that stage performs
// jointly with stage 16's emit: every matched site is recorded both as a
// Dependency and as an edit in edits replacing the specifier argument's
// text with the dependency's placeholder.
type dependencyCollector struct {
	p        *parsedSource
	env      Environment
	filePath string
	edits    *editList
	bag      *diagnostics.Bag

	deps []Dependency
}

func collectDependencies(p *parsedSource, env Environment, filePath string, edits *editList, bag *diagnostics.Bag) []Dependency {
	c := &dependencyCollector{p: p, env: env, filePath: filePath, edits: edits, bag: bag}
	walk(p.tree.RootNode(), c.visit)
	return c.deps
}

// visit returns false when it has fully classified n (so its subtree, e.g.
// a require()'s own nested expressions, isn't independently re-walked as
// unrelated statements), true otherwise.
func (c *dependencyCollector) visit(n *sitter.Node) bool {
	switch n.Type() {
	case "import_statement":
		c.visitImportStatement(n)
		return false
	case "export_statement":
		return c.visitExportStatement(n)
	case "call_expression":
		return c.visitCallExpression(n)
	case "new_expression":
		return c.visitNewExpression(n)
	}
	return true
}

func (c *dependencyCollector) visitImportStatement(n *sitter.Node) {
	src := n.ChildByFieldName("source")
	specifier, ok := stringLiteralValue(c.p, src)
	if !ok {
		return
	}
	// Type-only imports (`import type {...} from 'm'`) contribute no
	// runtime dependency.
	if c.isTypeOnlyImport(n) {
		return
	}
	c.addDependency(Dependency{
		Specifier: specifier, SpecifierType: SpecifierEsm,
		Kind: KindImport, Priority: PrioritySync, IsEsm: true,
		Attributes: importAttributes(c.p, n.ChildByFieldName("attributes")),
	}, src)
}

func (c *dependencyCollector) isTypeOnlyImport(n *sitter.Node) bool {
	// The `type` keyword is a direct child of the import statement, ahead
	// of the import clause, so check the statement's own tokens.
	return isTypeOnlyImport(c.p, n)
}

func (c *dependencyCollector) visitExportStatement(n *sitter.Node) bool {
	src := n.ChildByFieldName("source")
	if src == nil {
		return true // a plain `export const x = ...`, no dependency
	}
	specifier, ok := stringLiteralValue(c.p, src)
	if !ok {
		return true
	}
	c.addDependency(Dependency{
		Specifier: specifier, SpecifierType: SpecifierEsm,
		Kind: KindExport, Priority: PrioritySync, IsEsm: true,
		Attributes: importAttributes(c.p, n.ChildByFieldName("attributes")),
	}, src)
	return false
}

func (c *dependencyCollector) visitCallExpression(n *sitter.Node) bool {
	fn := n.ChildByFieldName("function")
	args := n.ChildByFieldName("arguments")
	if fn == nil || args == nil {
		return true
	}

	switch {
	case fn.Type() == "import" || c.p.text(fn) == "import":
		c.visitDynamicImport(n, args)
		return false
	case c.p.text(fn) == "require":
		c.visitRequire(n, args)
		return false
	case c.p.text(fn) == "importScripts":
		c.visitImportScripts(n, args)
		return false
	case isMemberCall(c.p, fn, "navigator", "serviceWorker", "register"):
		c.visitServiceWorkerRegister(n, args)
		return false
	case isMemberCall(c.p, fn, "CSS", "paintWorklet", "addModule"):
		c.visitWorkletAddModule(n, args)
		return false
	}
	return true
}

func (c *dependencyCollector) visitNewExpression(n *sitter.Node) bool {
	ctor := n.ChildByFieldName("constructor")
	args := n.ChildByFieldName("arguments")
	if ctor == nil || args == nil {
		return true
	}
	switch c.p.text(ctor) {
	case "Worker", "SharedWorker":
		c.visitNewWorker(n, args)
		return false
	case "URL":
		c.visitNewURL(args)
		return false
	}
	return true
}

// visitRequire handles require('m'), including the optional-in-try/catch
// and non-top-level-wraps-source bailouts, and
// the Rollup/TS dynamic-import idiom demotion.
func (c *dependencyCollector) visitRequire(call, args *sitter.Node) {
	specNode := firstArg(args)
	specifier, ok := stringLiteralValue(c.p, specNode)
	if !ok {
		// Non-literal or destructured specifier: bailout, not fatal.
		c.bag.Add(diagnostics.Warn(diagnostics.KindAnalysisBailout, "jsasset",
			"require() with a non-static specifier cannot be statically analyzed"))
		return
	}

	if parentTypeof := c.p.text(siblingUnaryOperand(call)); parentTypeof == "typeof" {
		return // `typeof require` — no dependency, no rewrite
	}

	dep := Dependency{
		Specifier: specifier, SpecifierType: SpecifierCommonJS,
		Kind: KindRequire, Priority: PrioritySync,
	}

	if enclosingOfType(call, "try_statement") != nil && isWithinTryBlock(call) {
		dep.IsOptional = true
	}
	if enclosingFunction(call) != nil {
		dep.ShouldWrap = true
	}
	if isPromiseResolveThenIdiom(c.p, call) {
		dep.Kind = KindDynamicImport
		dep.Priority = PriorityLazy
		dep.SpecifierType = SpecifierEsm
	}

	c.addDependency(dep, specNode)
}

func (c *dependencyCollector) visitDynamicImport(call, args *sitter.Node) {
	if c.env.Context == ContextWorklet || c.env.Context == ContextServiceWorker {
		loc := c.p.loc(call)
		c.bag.Add(diagnostics.Newf(diagnostics.KindAnalysisBailout, "jsasset",
			"dynamic import() is not allowed in a %s context", contextName(c.env.Context)).
			WithCodeFrame(diagnostics.CodeFrame{
				FilePath: c.filePath,
				Source:   c.p.source,
				Spans: []diagnostics.Span{{
					Start: diagnostics.Position{Line: loc.StartLine, Column: loc.StartColumn},
					End:   diagnostics.Position{Line: loc.EndLine, Column: loc.EndColumn},
				}},
			}))
		return
	}

	specNode := firstArg(args)
	specifier, ok := stringLiteralValue(c.p, specNode)
	if !ok {
		c.bag.Add(diagnostics.Warn(diagnostics.KindAnalysisBailout, "jsasset",
			"dynamic import() with a non-literal specifier cannot be statically analyzed"))
		return
	}
	c.addDependency(Dependency{
		Specifier: specifier, SpecifierType: SpecifierEsm,
		Kind: KindDynamicImport, Priority: PriorityLazy, IsEsm: true,
	}, specNode)
}

// visitImportScripts handles importScripts('a', 'b', …): each argument
// becomes its own Dependency, and the whole call is rewritten to a
// sequence of require(...) forms returning the resolved URLs, per the
// ImportScripts row of the dependency collection contract.
func (c *dependencyCollector) visitImportScripts(call, args *sitter.Node) {
	var requires []string
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		specifier, ok := stringLiteralValue(c.p, arg)
		if !ok {
			continue
		}
		ph := placeholder(specifier, arg.StartByte())
		dep := Dependency{
			Specifier: specifier, SpecifierType: SpecifierURL,
			Kind: KindImportScripts, Priority: PrioritySync,
			Placeholder: ph,
		}
		loc := c.p.loc(arg)
		dep.Loc = &loc
		if isZeroEnv(dep.Env) {
			dep.Env = c.env
		}
		c.deps = append(c.deps, dep)
		requires = append(requires, "require("+quote(ph)+")")
	}
	if len(requires) == 0 {
		return
	}
	seq := requires[0]
	for _, r := range requires[1:] {
		seq += ", " + r
	}
	c.edits.replaceRange(call.StartByte(), call.EndByte(), "("+seq+")")
}

func (c *dependencyCollector) visitServiceWorkerRegister(call, args *sitter.Node) {
	specNode, inner := newURLSpecifier(c.p, firstArg(args))
	if specNode == nil {
		return
	}
	c.addDependency(Dependency{
		Specifier: specNode.value, SpecifierType: SpecifierURL,
		Kind: KindServiceWorker, Priority: PriorityLazy,
		NeedsStableName: true,
		Env:             Environment{Context: ContextServiceWorker, OutputFormat: c.env.OutputFormat, SourceType: c.env.SourceType},
	}, inner)
}

func (c *dependencyCollector) visitWorkletAddModule(call, args *sitter.Node) {
	specNode, inner := newURLSpecifier(c.p, firstArg(args))
	if specNode == nil {
		return
	}
	c.addDependency(Dependency{
		Specifier: specNode.value, SpecifierType: SpecifierURL,
		Kind: KindWorklet, Priority: PriorityLazy,
		Env: Environment{Context: ContextWorklet, OutputFormat: FormatEsModule, SourceType: SourceModule},
	}, inner)
}

func (c *dependencyCollector) visitNewWorker(call, args *sitter.Node) {
	specNode, inner := newURLSpecifier(c.p, firstArg(args))
	if specNode == nil {
		return
	}
	format := FormatGlobal
	if moduleWorkerOption(c.p, args) {
		format = FormatEsModule
	}
	c.addDependency(Dependency{
		Specifier: specNode.value, SpecifierType: SpecifierURL,
		Kind: KindWebWorker, Priority: PriorityLazy, IsWebWorker: true,
		Env: Environment{Context: ContextWebWorker, OutputFormat: format, SourceType: c.env.SourceType},
	}, inner)
}

func (c *dependencyCollector) visitNewURL(args *sitter.Node) {
	specNode := firstArg(args)
	specifier, ok := stringLiteralValue(c.p, specNode)
	if !ok {
		return
	}
	c.addDependency(Dependency{
		Specifier: specifier, SpecifierType: SpecifierURL,
		Kind: KindURL, Priority: PriorityLazy, BundleBehavior: BundleBehaviorIsolated,
	}, specNode)
}

func (c *dependencyCollector) addDependency(dep Dependency, specNode *sitter.Node) {
	if isZeroEnv(dep.Env) {
		dep.Env = c.env
	}
	loc := c.p.loc(specNode)
	dep.Loc = &loc
	dep.Placeholder = placeholder(dep.Specifier, specNode.StartByte())
	c.edits.replace(specNode, quote(dep.Placeholder))
	c.deps = append(c.deps, dep)
}
