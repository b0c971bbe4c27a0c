package reqgraph

import (
	"sync"

	"github.com/atlaspack-core/atlaspack/internal/diagnostics"
	"github.com/atlaspack-core/atlaspack/internal/intern"
)

// BuildStats reports how many request nodes were reused vs. invalidated on
// the most recent NextBuild call, for reporter plugins to surface build
// summaries.
type BuildStats struct {
	Invalidated int
	Reused      int
}

// Tracker caches request results across builds and prunes stale results in
// response to file-system events. Every exported method takes the tracker's
// mutex, so the coordinator may call them from concurrent goroutines
// (Coordinator.ResolveAll does); request execution itself runs on a
// WorkerPool.
type Tracker struct {
	mu        sync.Mutex
	current   *graph
	previous  *graph
	lastStats BuildStats
	interner  *intern.Table
}

// NewTracker creates an empty tracker (no previous graph to carry over from)
// with no string interning.
func NewTracker() *Tracker {
	return &Tracker{current: newGraph()}
}

// NewTrackerWithInterner creates an empty tracker that interns every file
// path, file name, and glob pattern it stores through interner — the same
// table the JS transformer interns dependency specifiers and symbol names
// through.
func NewTrackerWithInterner(interner *intern.Table) *Tracker {
	g := newGraph()
	g.interner = interner
	return &Tracker{current: g, interner: interner}
}

// StartRequest looks up or creates a node for req. If dependent is non-zero,
// a request-to-request edge is recorded so that invalidating req also
// invalidates dependent on a later build. Returns (output, true) if a valid
// cached result (current or carried over from the previous graph) exists.
func (t *Tracker) StartRequest(req Request, dependent NodeID) (RequestOutput, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := ID(req)
	if dependent != 0 {
		t.current.addDependency(dependent, id)
	}

	if n, ok := t.current.nodes[id]; ok && n.State.Kind == StateValid {
		return n.State.Output, true
	}

	if t.previous != nil {
		if prev, ok := t.previous.nodes[id]; ok && prev.State.Kind == StateValid {
			t.carryOver(id, prev)
			return prev.State.Output, true
		}
	}

	t.current.getOrCreateNode(id)
	return nil, false
}

// carryOver copies a previous-graph node's output and incoming invalidation
// edges into the current graph.
// Request-to-request edges are deliberately NOT copied: the current build
// re-establishes them as dependents re-run and call StartRequest again.
func (t *Tracker) carryOver(id NodeID, prev *RequestNode) {
	node := t.current.getOrCreateNode(id)
	node.State = prev.State

	for path, fp := range t.previous.filePaths {
		if containsID(fp.updateTargets, id) {
			t.current.addInvalidationEdges(id, InvalidateOnFileUpdate(path))
		}
		if containsID(fp.deleteTargets, id) {
			t.current.addInvalidationEdges(id, InvalidateOnFileDelete(path))
		}
		if containsID(fp.createTargets, id) {
			t.current.addInvalidationEdges(id, InvalidateOnFileCreate(path))
		}
	}
	for name, fn := range t.previous.fileNames {
		for _, edge := range fn.createAbove {
			if edge.Target == id {
				t.current.addInvalidationEdges(id, InvalidateOnFileCreateAboveDir(name, edge.Above, edge.Dir))
			}
		}
	}
	for pattern, gl := range t.previous.globs {
		if containsID(gl.createTargets, id) {
			t.current.addInvalidationEdges(id, InvalidateOnGlobCreate(pattern))
		}
	}
}

func containsID(s []NodeID, id NodeID) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

// FinishRequest sets id's state to Valid(output) or Error(diags), then adds
// invalidation edges for each Invalidation. Finishing an
// already-Valid node is a no-op (guards against racing producers).
func (t *Tracker) FinishRequest(id NodeID, output RequestOutput, diags []diagnostics.Diagnostic, invs []Invalidation) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	node := t.current.getOrCreateNode(id)
	if node.State.Kind == StateValid {
		return nil
	}

	var next NodeState
	bag := diagnostics.Bag{Items: diags}
	if bag.HasErrors() || output == nil {
		next = NodeState{Kind: StateError, Diagnostics: diags}
	} else {
		next = NodeState{Kind: StateValid, Output: output}
	}

	if err := validateTransition(node.State.Kind, next.Kind); err != nil {
		return err
	}
	node.State = next

	// Errored nodes have no invalidation edges — they'd be meaningless,
	// since there's no valid output to protect.
	if next.Kind == StateValid {
		for _, inv := range invs {
			t.current.addInvalidationEdges(id, inv)
		}
	}
	return nil
}

// NextBuild moves the current graph into the previous slot, creates a fresh
// current graph, applies each event to the previous graph, and transitively
// invalidates reachable request nodes. It returns the set of invalidated
// NodeIDs purely for observability; callers don't need to act on it.
func (t *Tracker) NextBuild(events []FSEvent) []NodeID {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.previous = t.current
	t.current = newGraph()
	t.current.interner = t.interner

	seen := make(map[NodeID]bool)
	var all []NodeID
	for _, ev := range events {
		for _, id := range t.previous.applyEvent(ev) {
			if !seen[id] {
				seen[id] = true
				all = append(all, id)
			}
		}
	}

	reused := 0
	for _, id := range t.previous.nodeOrder {
		if n := t.previous.nodes[id]; n.State.Kind == StateValid {
			reused++
		}
	}
	// Nodes invalidated above are no longer Valid, so reused already
	// excludes them.
	t.lastStats = BuildStats{Invalidated: len(all), Reused: reused}
	if t.lastStats.Reused < 0 {
		t.lastStats.Reused = 0
	}

	return all
}

// BuildSuccess drops the previous graph, completing the generation handoff.
func (t *Tracker) BuildSuccess() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.previous = nil
}

// LastBuildStats reports reuse/invalidation counts from the most recent
// NextBuild call.
func (t *Tracker) LastBuildStats() BuildStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastStats
}
