package jsasset

import (
	"path/filepath"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// importAttributes extracts a `with { key: "value", … }` import-attributes
// clause into a plain string map. nil if attrs is nil or carries no
// string-valued pairs (e.g. a computed or non-literal value is skipped
// rather than failing the whole import).
func importAttributes(p *parsedSource, attrs *sitter.Node) map[string]string {
	if attrs == nil {
		return nil
	}
	var out map[string]string
	walk(attrs, func(n *sitter.Node) bool {
		if n.Type() != "pair" {
			return true
		}
		key := n.ChildByFieldName("key")
		value := n.ChildByFieldName("value")
		if key == nil || value == nil {
			return false
		}
		var keyStr string
		if key.Type() == "string" {
			if v, ok := stringLiteralValue(p, key); ok {
				keyStr = v
			} else {
				return false
			}
		} else {
			keyStr = p.text(key)
		}
		valStr, ok := stringLiteralValue(p, value)
		if !ok {
			return false
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[keyStr] = valStr
		return false
	})
	return out
}

func fileBaseNoExt(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func firstArg(args *sitter.Node) *sitter.Node {
	if args == nil || args.NamedChildCount() == 0 {
		return nil
	}
	return args.NamedChild(0)
}

// isMemberCall reports whether fn is a chain of member_expressions whose
// flattened dotted path equals parts, e.g. isMemberCall(p, fn, "navigator",
// "serviceWorker", "register") matches `navigator.serviceWorker.register`.
func isMemberCall(p *parsedSource, fn *sitter.Node, parts ...string) bool {
	return p.text(fn) == strings.Join(parts, ".")
}

// urlSpecifier is the resolved specifier string from a `new URL(...)` call.
type urlSpecifier struct {
	value string
}

// newURLSpecifier descends into a `new URL('m', import.meta.url)`
// expression (or returns nil if node isn't that shape) and returns both the
// specifier value and the string node the placeholder rewrite should
// target.
func newURLSpecifier(p *parsedSource, node *sitter.Node) (*urlSpecifier, *sitter.Node) {
	if node == nil || node.Type() != "new_expression" {
		return nil, nil
	}
	ctor := node.ChildByFieldName("constructor")
	if ctor == nil || p.text(ctor) != "URL" {
		return nil, nil
	}
	args := node.ChildByFieldName("arguments")
	inner := firstArg(args)
	value, ok := stringLiteralValue(p, inner)
	if !ok {
		return nil, nil
	}
	return &urlSpecifier{value: value}, inner
}

// moduleWorkerOption reports whether a Worker(...) call's options argument
// is `{ type: 'module' }`.
func moduleWorkerOption(p *parsedSource, args *sitter.Node) bool {
	if args == nil || args.NamedChildCount() < 2 {
		return false
	}
	opts := args.NamedChild(1)
	if opts.Type() != "object" {
		return false
	}
	return strings.Contains(p.text(opts), `"module"`) || strings.Contains(p.text(opts), `'module'`)
}

// siblingUnaryOperand returns the operator node of the unary_expression
// wrapping n, if n is the operand of one (nil otherwise), so callers can
// check for `typeof require(...)`.
func siblingUnaryOperand(n *sitter.Node) *sitter.Node {
	parent := n.Parent()
	if parent != nil && parent.Type() == "unary_expression" {
		return parent.ChildByFieldName("operator")
	}
	return nil
}

// isWithinTryBlock reports whether n sits inside a try_statement's own
// `body` block (not its catch/finally), i.e. a guarded require().
func isWithinTryBlock(n *sitter.Node) bool {
	tryNode := enclosingOfType(n, "try_statement")
	if tryNode == nil {
		return false
	}
	body := tryNode.ChildByFieldName("body")
	return body != nil && containsByteRange(body, n.StartByte())
}

// isPromiseResolveThenIdiom recognizes the common TS/Rollup-emitted dynamic
// import idiom: `Promise.resolve().then(() => require('m'))`.
func isPromiseResolveThenIdiom(p *parsedSource, call *sitter.Node) bool {
	arrow := enclosingOfType(call, "arrow_function", "function_expression")
	if arrow == nil {
		return false
	}
	thenCall := enclosingOfType(arrow, "call_expression")
	if thenCall == nil {
		return false
	}
	fn := thenCall.ChildByFieldName("function")
	if fn == nil || fn.Type() != "member_expression" {
		return false
	}
	prop := fn.ChildByFieldName("property")
	if prop == nil || p.text(prop) != "then" {
		return false
	}
	obj := fn.ChildByFieldName("object")
	return obj != nil && strings.HasPrefix(p.text(obj), "Promise.resolve")
}

func contextName(c Context) string {
	switch c {
	case ContextWorklet:
		return "worklet"
	case ContextServiceWorker:
		return "service worker"
	case ContextWebWorker:
		return "web worker"
	case ContextNode:
		return "node"
	case ContextElectronMain:
		return "electron-main"
	case ContextElectronRenderer:
		return "electron-renderer"
	default:
		return "browser"
	}
}

func quote(s string) string {
	return strconv.Quote(s)
}

// isZeroEnv reports whether e is the Environment zero value. Environment
// contains a map field, so it isn't comparable with ==; this checks each
// scalar field plus nil-ness of the map instead.
func isZeroEnv(e Environment) bool {
	return e.Context == ContextBrowser && e.OutputFormat == FormatGlobal && e.SourceType == SourceModule &&
		e.Engines == nil && !e.IncludeNodeModules && !e.IsLibrary && !e.ShouldOptimize && !e.ShouldScopeHoist
}
