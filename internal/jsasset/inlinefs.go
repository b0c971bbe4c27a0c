package jsasset

import (
	"path/filepath"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/atlaspack-core/atlaspack/internal/fsutil"
	"github.com/atlaspack-core/atlaspack/internal/reqgraph"
)

// inlineFS implements stage 9: replace
// `fs.readFileSync(path.join(__dirname, "literal"))` call sites with the
// literal content of that file, and record the file as an invalidation
// source. Returns the accumulated invalidations.
func inlineFS(p *parsedSource, filePath string, fs fsutil.FileSystem, edits *editList) []reqgraph.Invalidation {
	var invalidations []reqgraph.Invalidation

	walk(p.tree.RootNode(), func(n *sitter.Node) bool {
		if n.Type() != "call_expression" {
			return true
		}
		fn := n.ChildByFieldName("function")
		if fn == nil || !isMemberCall(p, fn, "fs", "readFileSync") {
			return true
		}
		args := n.ChildByFieldName("arguments")
		rel, ok := inlineFSPathArg(p, firstArg(args))
		if !ok {
			return true
		}

		abs := filepath.Join(filepath.Dir(filePath), rel)
		content, err := fs.ReadToString(abs)
		if err != nil {
			return true // leave the call untouched; it will fail (or succeed) at actual runtime
		}

		edits.replace(n, quote(content))
		invalidations = append(invalidations, reqgraph.InvalidateOnFileUpdate(abs))
		return false
	})

	return invalidations
}

// inlineFSPathArg recognizes `path.join(__dirname, "literal")` and returns
// the literal segment.
func inlineFSPathArg(p *parsedSource, n *sitter.Node) (string, bool) {
	if n == nil || n.Type() != "call_expression" {
		return "", false
	}
	fn := n.ChildByFieldName("function")
	if fn == nil || !isMemberCall(p, fn, "path", "join") {
		return "", false
	}
	args := n.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() != 2 {
		return "", false
	}
	if p.text(args.NamedChild(0)) != "__dirname" {
		return "", false
	}
	return stringLiteralValue(p, args.NamedChild(1))
}
