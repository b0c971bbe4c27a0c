package jsasset

import (
	"fmt"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/atlaspack-core/atlaspack/internal/diagnostics"
)

// MacroCallback is the build-time evaluator a host supplies to execute a
// call to a macro-imported function at compile time.
// args are the statically evaluated JavaScript values (string, float64,
// bool, nil, []any, map[string]any); the callback returns either one of
// those same shapes (inlined as literal AST) or a source string to be
// parsed as an expression.
type MacroCallback func(exportName string, args []any) (value any, source string, err error)

// macroExpander implements stage 6. Each distinct imported macro binding
// maps to the package specifier it came from and the exported name used
// at the call site.
type macroExpander struct {
	p        *parsedSource
	callback MacroCallback
	edits    *editList
	bag      *diagnostics.Bag

	// macroBindings maps a local identifier bound via a `type: "macro"`
	// import to (specifier, exportedName).
	macroBindings map[string]macroBinding
	// consts maps a top-level const identifier to its statically evaluated
	// value, or to poisoned=true if it can no longer be trusted.
	consts map[string]constBinding
	// failedMacros remembers macros whose load already failed once, so
	// later calls just return null without re-invoking the callback.
	failedMacros map[string]bool
}

type macroBinding struct {
	specifier, exported string
	importStmt          *sitter.Node
}

type constBinding struct {
	value    any
	poisoned bool
}

// expandMacros runs stage 6. It records edits that remove the macro import
// statements and replace each macro call site; it returns nothing.
func expandMacros(p *parsedSource, callback MacroCallback, edits *editList, bag *diagnostics.Bag) {
	if callback == nil {
		return
	}
	m := &macroExpander{
		p: p, callback: callback, edits: edits, bag: bag,
		macroBindings: make(map[string]macroBinding),
		consts:        make(map[string]constBinding),
		failedMacros:  make(map[string]bool),
	}
	m.collectMacroImports()
	if len(m.macroBindings) == 0 {
		return
	}
	m.collectTopLevelConsts()
	m.rewriteCallSites()
}

// collectMacroImports finds `import { x } from 'm' with { type: "macro" }`
// style imports and removes the import statement itself from the output.
func (m *macroExpander) collectMacroImports() {
	root := m.p.tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		if stmt.Type() != "import_statement" {
			continue
		}
		attrs := stmt.ChildByFieldName("attributes")
		if attrs == nil || !strings.Contains(m.p.text(attrs), `"macro"`) && !strings.Contains(m.p.text(attrs), `'macro'`) {
			continue
		}
		source := stmt.ChildByFieldName("source")
		specifier, ok := stringLiteralValue(m.p, source)
		if !ok {
			continue
		}
		clause := stmt.ChildByFieldName("import_clause")
		if clause == nil {
			continue
		}
		walk(clause, func(n *sitter.Node) bool {
			if n.Type() != "import_specifier" {
				return true
			}
			name := n.ChildByFieldName("name")
			alias := n.ChildByFieldName("alias")
			if name == nil {
				return true
			}
			local := m.p.text(name)
			if alias != nil {
				local = m.p.text(alias)
			}
			m.macroBindings[local] = macroBinding{specifier: specifier, exported: m.p.text(name), importStmt: stmt}
			return false
		})
		m.edits.replace(stmt, "")
	}
}

func (m *macroExpander) collectTopLevelConsts() {
	root := m.p.tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		if stmt.Type() != "lexical_declaration" || m.p.text(stmt.Child(0)) != "const" {
			continue
		}
		for j := 0; j < int(stmt.NamedChildCount()); j++ {
			decl := stmt.NamedChild(j)
			if decl.Type() != "variable_declarator" {
				continue
			}
			name := decl.ChildByFieldName("name")
			value := decl.ChildByFieldName("value")
			if name == nil || name.Type() != "identifier" {
				continue
			}
			if v, ok := evaluateStatic(m.p, value, m.consts); ok {
				m.consts[m.p.text(name)] = constBinding{value: v}
			}
		}
	}

	// Poison any const object/array passed to a non-macro call, or whose
	// member is reassigned, anywhere after its declaration.
	walk(root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "assignment_expression":
			left := n.ChildByFieldName("left")
			if left != nil && left.Type() == "member_expression" {
				obj := left.ChildByFieldName("object")
				if obj != nil && obj.Type() == "identifier" {
					if b, ok := m.consts[m.p.text(obj)]; ok {
						b.poisoned = true
						m.consts[m.p.text(obj)] = b
					}
				}
			}
		case "call_expression":
			fn := n.ChildByFieldName("function")
			if fn != nil {
				if _, isMacro := m.macroBindings[m.p.text(fn)]; !isMacro {
					args := n.ChildByFieldName("arguments")
					if args != nil {
						for i := 0; i < int(args.NamedChildCount()); i++ {
							arg := args.NamedChild(i)
							if arg.Type() == "identifier" {
								if b, ok := m.consts[m.p.text(arg)]; ok {
									if _, isObjOrArr := b.value.([]any); isObjOrArr {
										b.poisoned = true
										m.consts[m.p.text(arg)] = b
									} else if _, isMap := b.value.(map[string]any); isMap {
										b.poisoned = true
										m.consts[m.p.text(arg)] = b
									}
								}
							}
						}
					}
				}
			}
		}
		return true
	})
}

func (m *macroExpander) rewriteCallSites() {
	walk(m.p.tree.RootNode(), func(n *sitter.Node) bool {
		if n.Type() != "call_expression" {
			return true
		}
		fn := n.ChildByFieldName("function")
		if fn == nil {
			return true
		}
		binding, ok := m.macroBindings[m.p.text(fn)]
		if !ok {
			return true
		}

		key := binding.specifier + "#" + binding.exported
		if m.failedMacros[key] {
			m.edits.replace(n, "null")
			return false
		}

		args := n.ChildByFieldName("arguments")
		values := make([]any, 0, args.NamedChildCount())
		for i := 0; i < int(args.NamedChildCount()); i++ {
			argNode := args.NamedChild(i)
			v, ok := evaluateStatic(m.p, argNode, m.consts)
			if !ok {
				loc := m.p.loc(argNode)
				m.bag.Add(diagnostics.Newf(diagnostics.KindMacroEvaluation, "jsasset",
					"macro argument at line %d is not statically evaluable", loc.StartLine))
				m.edits.replace(n, "null")
				return false
			}
			values = append(values, v)
		}

		value, source, err := m.callback(binding.exported, values)
		if err != nil {
			m.bag.Add(diagnostics.Newf(diagnostics.KindMacroExecution, "jsasset", "macro %s failed: %s", binding.exported, err))
			m.failedMacros[key] = true
			m.edits.replace(n, "null")
			return false
		}

		if source != "" {
			m.edits.replace(n, source)
		} else {
			m.edits.replace(n, literalToSource(value))
		}
		return false
	})
}

// evaluateStatic implements the total function over literal and
// statically-derivable expressions macro arguments are restricted to.
func evaluateStatic(p *parsedSource, n *sitter.Node, consts map[string]constBinding) (any, bool) {
	if n == nil {
		return nil, false
	}
	switch n.Type() {
	case "number":
		f, err := strconv.ParseFloat(p.text(n), 64)
		return f, err == nil
	case "string":
		v, ok := stringLiteralValue(p, n)
		return v, ok
	case "true":
		return true, true
	case "false":
		return false, true
	case "null":
		return nil, true
	case "undefined":
		return nil, true
	case "identifier":
		b, ok := consts[p.text(n)]
		if !ok || b.poisoned {
			return nil, false
		}
		return b.value, true
	case "array":
		var out []any
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if child.Type() == "spread_element" {
				spreadVal, ok := evaluateStatic(p, child.NamedChild(0), consts)
				arr, isArr := spreadVal.([]any)
				if !ok || !isArr {
					return nil, false
				}
				out = append(out, arr...)
				continue
			}
			v, ok := evaluateStatic(p, child, consts)
			if !ok {
				return nil, false
			}
			out = append(out, v)
		}
		return out, true
	case "object":
		out := make(map[string]any)
		for i := 0; i < int(n.NamedChildCount()); i++ {
			pair := n.NamedChild(i)
			if pair.Type() == "spread_element" {
				spreadVal, ok := evaluateStatic(p, pair.NamedChild(0), consts)
				m, isMap := spreadVal.(map[string]any)
				if !ok || !isMap {
					return nil, false
				}
				for k, v := range m {
					out[k] = v
				}
				continue
			}
			if pair.Type() != "pair" {
				return nil, false
			}
			key := pair.ChildByFieldName("key")
			value := pair.ChildByFieldName("value")
			keyStr, ok := propertyKeyText(p, key)
			if !ok {
				return nil, false
			}
			v, ok := evaluateStatic(p, value, consts)
			if !ok {
				return nil, false
			}
			out[keyStr] = v
		}
		return out, true
	case "binary_expression":
		return evaluateBinary(p, n, consts)
	case "unary_expression":
		return evaluateUnary(p, n, consts)
	case "ternary_expression":
		cond, ok := evaluateStatic(p, n.ChildByFieldName("condition"), consts)
		if !ok {
			return nil, false
		}
		if truthy(cond) {
			return evaluateStatic(p, n.ChildByFieldName("consequence"), consts)
		}
		return evaluateStatic(p, n.ChildByFieldName("alternative"), consts)
	case "member_expression":
		obj, ok := evaluateStatic(p, n.ChildByFieldName("object"), consts)
		if !ok {
			return nil, false
		}
		prop := n.ChildByFieldName("property")
		return evaluateMember(obj, p.text(prop))
	case "parenthesized_expression":
		return evaluateStatic(p, n.NamedChild(0), consts)
	case "template_string":
		return evaluateTemplate(p, n, consts)
	}
	return nil, false
}

func propertyKeyText(p *parsedSource, key *sitter.Node) (string, bool) {
	if key == nil {
		return "", false
	}
	if key.Type() == "string" {
		return stringLiteralValue(p, key)
	}
	return p.text(key), true
}

func evaluateMember(obj any, prop string) (any, bool) {
	switch v := obj.(type) {
	case map[string]any:
		val, ok := v[prop]
		return val, ok
	case []any:
		idx, err := strconv.Atoi(prop)
		if err != nil || idx < 0 || idx >= len(v) {
			if prop == "length" {
				return float64(len(v)), true
			}
			return nil, false
		}
		return v[idx], true
	case string:
		if prop == "length" {
			return float64(len(v)), true
		}
	}
	return nil, false
}

func evaluateUnary(p *parsedSource, n *sitter.Node, consts map[string]constBinding) (any, bool) {
	op := p.text(n.ChildByFieldName("operator"))
	operand := n.ChildByFieldName("argument")
	if op == "typeof" {
		v, ok := evaluateStatic(p, operand, consts)
		if !ok {
			return nil, false
		}
		return jsTypeof(v), true
	}
	v, ok := evaluateStatic(p, operand, consts)
	if !ok {
		return nil, false
	}
	switch op {
	case "!":
		return !truthy(v), true
	case "-":
		if f, ok := v.(float64); ok {
			return -f, true
		}
	case "+":
		if f, ok := v.(float64); ok {
			return f, true
		}
	}
	return nil, false
}

func jsTypeof(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "undefined"
	default:
		return "object"
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}

func evaluateBinary(p *parsedSource, n *sitter.Node, consts map[string]constBinding) (any, bool) {
	op := p.text(n.ChildByFieldName("operator"))
	left, ok := evaluateStatic(p, n.ChildByFieldName("left"), consts)
	if !ok {
		return nil, false
	}
	if op == "??" {
		if left != nil {
			return left, true
		}
		return evaluateStatic(p, n.ChildByFieldName("right"), consts)
	}
	if op == "&&" {
		if !truthy(left) {
			return left, true
		}
		return evaluateStatic(p, n.ChildByFieldName("right"), consts)
	}
	if op == "||" {
		if truthy(left) {
			return left, true
		}
		return evaluateStatic(p, n.ChildByFieldName("right"), consts)
	}

	right, ok := evaluateStatic(p, n.ChildByFieldName("right"), consts)
	if !ok {
		return nil, false
	}

	if op == "+" {
		if ls, ok := left.(string); ok {
			return ls + fmt.Sprint(jsStringify(right)), true
		}
		if rs, ok := right.(string); ok {
			return fmt.Sprint(jsStringify(left)) + rs, true
		}
	}

	lf, lok := left.(float64)
	rf, rok := right.(float64)
	if lok && rok {
		switch op {
		case "+":
			return lf + rf, true
		case "-":
			return lf - rf, true
		case "*":
			return lf * rf, true
		case "/":
			return lf / rf, true
		case "%":
			return float64(int64(lf) % int64(rf)), true
		case "&":
			return float64(int64(lf) & int64(rf)), true
		case "|":
			return float64(int64(lf) | int64(rf)), true
		case "^":
			return float64(int64(lf) ^ int64(rf)), true
		case "<<":
			return float64(int64(lf) << int64(rf)), true
		case ">>":
			return float64(int64(lf) >> int64(rf)), true
		case "<":
			return lf < rf, true
		case "<=":
			return lf <= rf, true
		case ">":
			return lf > rf, true
		case ">=":
			return lf >= rf, true
		}
	}

	switch op {
	case "===", "==":
		return jsEquals(left, right), true
	case "!==", "!=":
		return !jsEquals(left, right), true
	}
	return nil, false
}

func jsEquals(a, b any) bool {
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func jsStringify(v any) string {
	if v == nil {
		return "undefined"
	}
	return fmt.Sprint(v)
}

func evaluateTemplate(p *parsedSource, n *sitter.Node, consts map[string]constBinding) (any, bool) {
	var sb strings.Builder
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "string_fragment":
			sb.WriteString(p.text(child))
		case "template_substitution":
			inner := child.NamedChild(0)
			v, ok := evaluateStatic(p, inner, consts)
			if !ok {
				return nil, false
			}
			sb.WriteString(jsStringify(v))
		}
	}
	return sb.String(), true
}

// literalToSource serializes an evaluated macro return value back into
// JavaScript source to splice in as the replacement expression.
func literalToSource(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return quote(t)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		return boolLiteral(t)
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = literalToSource(e)
		}
		return "[" + strings.Join(parts, ",") + "]"
	case map[string]any:
		parts := make([]string, 0, len(t))
		for k, e := range t {
			parts = append(parts, quote(k)+":"+literalToSource(e))
		}
		return "{" + strings.Join(parts, ",") + "}"
	default:
		return "null"
	}
}
