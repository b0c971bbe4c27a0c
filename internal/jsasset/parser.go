package jsasset

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/atlaspack-core/atlaspack/internal/diagnostics"
)

// detectType infers an AssetType from the file's extension, honoring an
// explicit isJSX override the caller may supply from its own config.
func detectType(path string, isJSX bool) AssetType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsx":
		return TypeTSX
	case ".ts", ".mts", ".cts":
		return TypeTS
	case ".jsx":
		return TypeJSX
	case ".js", ".mjs", ".cjs":
		if isJSX {
			return TypeJSX
		}
		return TypeJS
	default:
		return TypeOther
	}
}

func languageFor(t AssetType) *sitter.Language {
	switch t {
	case TypeTSX:
		return tsx.GetLanguage()
	case TypeTS:
		return typescript.GetLanguage()
	default:
		// The javascript grammar also parses JSX syntax.
		return javascript.GetLanguage()
	}
}

// parsedSource holds the result of stage 1 (Parse): a syntax tree with
// comments retained, plus the original bytes the tree's byte offsets index
// into (tree-sitter nodes are only valid against the buffer they were
// parsed from).
type parsedSource struct {
	tree   *sitter.Tree
	source []byte
	typ    AssetType
}

func (p *parsedSource) Close() {
	if p.tree != nil {
		p.tree.Close()
	}
}

func (p *parsedSource) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(p.source[n.StartByte():n.EndByte()])
}

func (p *parsedSource) loc(n *sitter.Node) SourceLocation {
	start, end := n.StartPoint(), n.EndPoint()
	return SourceLocation{
		StartLine: int(start.Row) + 1, StartColumn: int(start.Column) + 1,
		EndLine: int(end.Row) + 1, EndColumn: int(end.Column) + 1,
		StartByte: n.StartByte(), EndByte: n.EndByte(),
	}
}

// parse runs stage 1. If the source has parse errors, it still returns a
// best-effort tree (tree-sitter is error-tolerant) plus a diagnostic for the
// first ERROR node found, surfaced as a structured diagnostic with a
// code-frame rather than discarding the rest of the file the way a
// hard-failing recursive-descent parser would.
func parse(filePath string, source []byte, sourceType SourceType, isJSX bool) (*parsedSource, *diagnostics.Diagnostic) {
	typ := detectType(filePath, isJSX)
	parser := sitter.NewParser()
	parser.SetLanguage(languageFor(typ))

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		d := diagnostics.New(diagnostics.KindParseFailure, "jsasset", fmt.Sprintf("failed to parse %s: %s", filePath, err))
		return nil, &d
	}

	ps := &parsedSource{tree: tree, source: source, typ: typ}

	if errNode := firstErrorNode(tree.RootNode()); errNode != nil {
		loc := ps.loc(errNode)
		d := diagnostics.Newf(diagnostics.KindParseFailure, "jsasset", "unexpected syntax in %s at line %d", filePath, loc.StartLine).
			WithCodeFrame(diagnostics.CodeFrame{
				FilePath: filePath,
				Source:   source,
				Spans: []diagnostics.Span{{
					Start: diagnostics.Position{Line: loc.StartLine, Column: loc.StartColumn},
					End:   diagnostics.Position{Line: loc.EndLine, Column: loc.EndColumn},
				}},
			})
		return ps, &d
	}

	if sourceType == SourceScript {
		if offender := firstTopLevelModuleSyntax(ps); offender != nil {
			loc := ps.loc(offender)
			d := diagnostics.Newf(diagnostics.KindParseFailure, "jsasset",
				"%s is a script but contains top-level %s", filePath, offender.Type()).
				WithCodeFrame(diagnostics.CodeFrame{
					FilePath: filePath,
					Source:   source,
					Spans: []diagnostics.Span{{
						Start: diagnostics.Position{Line: loc.StartLine, Column: loc.StartColumn},
						End:   diagnostics.Position{Line: loc.EndLine, Column: loc.EndColumn},
					}},
				})
			return ps, &d
		}
	}

	return ps, nil
}

func firstErrorNode(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if found := firstErrorNode(n.Child(i)); found != nil {
			return found
		}
	}
	return nil
}

func firstTopLevelModuleSyntax(p *parsedSource) *sitter.Node {
	root := p.tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		switch child.Type() {
		case "import_statement", "export_statement":
			return child
		}
	}
	return nil
}
