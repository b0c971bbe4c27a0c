package reqgraph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGlobCreateInvalidates(t *testing.T) {
	g := newGraph()
	id := g.getOrCreateNode(NodeID(1)).ID
	g.addInvalidationEdges(id, InvalidateOnGlobCreate("**/bar/*/foo"))

	invalidated := g.applyCreate("a/bar/x/foo")
	require.Contains(t, invalidated, id)
}

func TestCreateAboveMatchesAncestorNotDeeper(t *testing.T) {
	g := newGraph()
	id := g.getOrCreateNode(NodeID(2)).ID
	g.addInvalidationEdges(id, InvalidateOnFileCreateAbove("foo", "pkg/src/index.js"))

	// A package appearing in an ancestor dir of pkg/src/index.js, under the
	// same top-level component, should invalidate.
	invalidated := g.applyCreate("pkg/node_modules/foo")
	require.Contains(t, invalidated, id)
}

func TestCreateAboveRejectsDeeperPath(t *testing.T) {
	g := newGraph()
	id := g.getOrCreateNode(NodeID(3)).ID
	g.addInvalidationEdges(id, InvalidateOnFileCreateAbove("foo", "pkg/src"))

	// A path deeper than "above" must not match (not "no deeper than above").
	invalidated := g.applyCreate("pkg/src/nested/node_modules/foo")
	require.NotContains(t, invalidated, id)
}

func TestCreateAboveRejectsDifferentTopLevelComponent(t *testing.T) {
	g := newGraph()
	id := g.getOrCreateNode(NodeID(4)).ID
	g.addInvalidationEdges(id, InvalidateOnFileCreateAbove("foo", "pkg/src"))

	invalidated := g.applyCreate("other/node_modules/foo")
	require.NotContains(t, invalidated, id)
}

func TestCreateAboveDirMatchesTrailingSegment(t *testing.T) {
	g := newGraph()
	id := g.getOrCreateNode(NodeID(5)).ID
	g.addInvalidationEdges(id, InvalidateOnFileCreateAboveDir("foo.json", "pkg/components/button/index.js", "components"))

	invalidated := g.applyCreate("pkg/components/foo.json")
	require.Contains(t, invalidated, id)
}

func TestCreateAboveDirRejectsNonTrailingSegment(t *testing.T) {
	g := newGraph()
	id := g.getOrCreateNode(NodeID(6)).ID
	// "components" appears in parent(path) but not as its trailing segment
	// (parent is "pkg/components/button"), so this must not match.
	g.addInvalidationEdges(id, InvalidateOnFileCreateAboveDir("foo.json", "pkg/components/button/nested/index.js", "components"))

	invalidated := g.applyCreate("pkg/components/button/foo.json")
	require.NotContains(t, invalidated, id)
}
