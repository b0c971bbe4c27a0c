package reqgraph

import (
	"sync"

	"github.com/atlaspack-core/atlaspack/internal/intern"
)

// NodeKind tags what kind of vertex a graph node represents. Only Request nodes carry state machines and outputs;
// the rest are pure invalidation sources.
type NodeKind int

const (
	NodeRequest NodeKind = iota
	NodeFilePath
	NodeFileName
	NodeGlob
	NodeOptions
	NodeConfigKey
)

// EdgeKind tags why an invalidator node points at a request.
type EdgeKind int

const (
	EdgeInvalidatedByUpdate EdgeKind = iota
	EdgeInvalidatedByDelete
	EdgeInvalidatedByCreate
	EdgeInvalidateByCreateAbove
)

type createAboveEdge struct {
	Dir    string
	Above  string
	Target NodeID
}

type filePathNode struct {
	updateTargets []NodeID
	deleteTargets []NodeID
	createTargets []NodeID
}

type fileNameNode struct {
	createAbove []createAboveEdge
}

type globNode struct {
	pattern       string
	createTargets []NodeID
}

// graph is one generation (current or previous) of the request graph. It is
// guarded by a single mutex: the coordinator never holds this lock while a
// worker is running, so contention is limited to the brief
// bookkeeping calls around request execution — the same discipline the
// teacher's Registry applies to its tool/prompt/resource maps.
type graph struct {
	mu sync.RWMutex

	nodes      map[NodeID]*RequestNode
	nodeOrder  []NodeID // insertion order, for deterministic iteration/debugging

	filePaths map[string]*filePathNode
	fileNames map[string]*fileNameNode
	globs     map[string]*globNode

	// dependents[A] = requests that depend on A's output; when A is
	// invalidated, everything in dependents[A] is invalidated too.
	dependents map[NodeID][]NodeID

	// interner canonicalizes path/name/pattern strings before they become
	// map keys. Nil in tests and in the zero-value graph; intern.Table's
	// nil-receiver methods make that safe.
	interner *intern.Table
}

func newGraph() *graph {
	return &graph{
		nodes:      make(map[NodeID]*RequestNode),
		filePaths:  make(map[string]*filePathNode),
		fileNames:  make(map[string]*fileNameNode),
		globs:      make(map[string]*globNode),
		dependents: make(map[NodeID][]NodeID),
	}
}

func (g *graph) getOrCreateNode(id NodeID) *RequestNode {
	if n, ok := g.nodes[id]; ok {
		return n
	}
	n := &RequestNode{ID: id, State: NodeState{Kind: StateIncomplete}}
	g.nodes[id] = n
	g.nodeOrder = append(g.nodeOrder, id)
	return n
}

func (g *graph) getOrCreateFilePath(path string) *filePathNode {
	path = g.interner.Intern(path)
	n, ok := g.filePaths[path]
	if !ok {
		n = &filePathNode{}
		g.filePaths[path] = n
	}
	return n
}

func (g *graph) getOrCreateFileName(name string) *fileNameNode {
	name = g.interner.Intern(name)
	n, ok := g.fileNames[name]
	if !ok {
		n = &fileNameNode{}
		g.fileNames[name] = n
	}
	return n
}

func (g *graph) getOrCreateGlob(pattern string) *globNode {
	pattern = g.interner.Intern(pattern)
	n, ok := g.globs[pattern]
	if !ok {
		n = &globNode{pattern: pattern}
		g.globs[pattern] = n
	}
	return n
}

// addInvalidationEdges records the graph edges for one Invalidation
// targeting request id.
func (g *graph) addInvalidationEdges(id NodeID, inv Invalidation) {
	switch inv.Kind {
	case OnFileUpdate:
		fp := g.getOrCreateFilePath(inv.Path)
		fp.updateTargets = append(fp.updateTargets, id)
	case OnFileDelete:
		fp := g.getOrCreateFilePath(inv.Path)
		fp.deleteTargets = append(fp.deleteTargets, id)
	case OnFileCreate:
		fp := g.getOrCreateFilePath(inv.Path)
		fp.createTargets = append(fp.createTargets, id)
	case OnFileCreateAbove:
		fn := g.getOrCreateFileName(inv.Name)
		fn.createAbove = append(fn.createAbove, createAboveEdge{Dir: inv.Dir, Above: inv.Above, Target: id})
	case OnGlobCreate:
		gl := g.getOrCreateGlob(inv.Glob)
		gl.createTargets = append(gl.createTargets, id)
	case OnStartup:
		// Handled by the coordinator at process start, not by an FS event;
		// no graph edge is needed since it isn't triggered by invalidation
		// propagation.
	}
}

func (g *graph) addDependency(dependent, dependency NodeID) {
	for _, d := range g.dependents[dependency] {
		if d == dependent {
			return
		}
	}
	g.dependents[dependency] = append(g.dependents[dependency], dependent)
}

// invalidate marks id Invalid in place (the node stays in the node map),
// then transitively invalidates everything that depends on it. Returns the set
// of all NodeIDs invalidated by this call (including id itself).
func (g *graph) invalidate(id NodeID) []NodeID {
	invalidated := []NodeID{}
	var visit func(NodeID)
	seen := make(map[NodeID]bool)
	visit = func(cur NodeID) {
		if seen[cur] {
			return
		}
		seen[cur] = true
		if n, ok := g.nodes[cur]; ok {
			n.State = NodeState{Kind: StateInvalid}
			invalidated = append(invalidated, cur)
		}
		for _, dep := range g.dependents[cur] {
			visit(dep)
		}
	}
	visit(id)
	return invalidated
}
