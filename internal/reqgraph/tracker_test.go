package reqgraph

import (
	"context"
	"testing"

	"github.com/atlaspack-core/atlaspack/internal/diagnostics"
	"github.com/stretchr/testify/require"
)

type stubOutput struct{ tag string }

func (s stubOutput) TypeTag() string { return s.tag }

type stubRequest struct {
	tag    string
	inputs string
}

func (r stubRequest) TypeTag() string   { return r.tag }
func (r stubRequest) Inputs() []byte    { return []byte(r.inputs) }
func (r stubRequest) Run(ctx context.Context, pool *WorkerPool, opts GlobalOptions) (RequestOutput, []diagnostics.Diagnostic, []Invalidation, error) {
	return stubOutput{tag: r.tag}, nil, nil, nil
}

// TestFingerprintTypeTagPreventsCollision covers request identity:
// two differently-typed requests with identical payloads must not collide.
func TestFingerprintTypeTagPreventsCollision(t *testing.T) {
	a := FingerprintStrings("TypeA", "same-payload")
	b := FingerprintStrings("TypeB", "same-payload")
	require.NotEqual(t, a, b)
}

// TestFingerprintStable covers stable fingerprinting, generalized to
// request ids: identical inputs fingerprint identically across calls.
func TestFingerprintStable(t *testing.T) {
	a := FingerprintStrings("Entry", "/src/index.js")
	b := FingerprintStrings("Entry", "/src/index.js")
	require.Equal(t, a, b)
}

// TestRequestCarryOverAcrossBuilds covers an entry request with a mix of
// invalidation kinds surviving an empty NextBuild and being dropped by a
// matching Update event.
func TestRequestCarryOverAcrossBuilds(t *testing.T) {
	tracker := NewTracker()
	req := stubRequest{tag: "Entry", inputs: "entry"}
	id := ID(req)

	_, found := tracker.StartRequest(req, 0)
	require.False(t, found)

	out, diags, invs, err := req.Run(context.Background(), nil, GlobalOptions{})
	require.NoError(t, err)
	invs = []Invalidation{
		InvalidateOnFileUpdate("foo/bar"),
		InvalidateOnFileCreate("foo/new"),
		InvalidateOnFileCreateAbove("node_modules/foo", "foo/bar"),
		InvalidateOnGlobCreate("**/bar/*/foo"),
	}
	require.NoError(t, tracker.FinishRequest(id, out, diags, invs))

	tracker.NextBuild(nil)
	cached, found := tracker.StartRequest(req, 0)
	require.True(t, found)
	require.Equal(t, "Entry", cached.TypeTag())

	tracker.NextBuild([]FSEvent{{Kind: EventUpdate, Path: "foo/bar"}})
	_, found = tracker.StartRequest(req, 0)
	require.False(t, found, "request must be absent from the cache after its invalidating update")
}

// TestUnrelatedEventsDontInvalidate checks the invariant that if no
// invalidation edge into r is touched by an event sequence, r's result is
// carried over unchanged.
func TestUnrelatedEventsDontInvalidate(t *testing.T) {
	tracker := NewTracker()
	req := stubRequest{tag: "Entry", inputs: "entry"}
	id := ID(req)

	tracker.StartRequest(req, 0)
	out, _, _, _ := req.Run(context.Background(), nil, GlobalOptions{})
	require.NoError(t, tracker.FinishRequest(id, out, nil, []Invalidation{InvalidateOnFileUpdate("foo/bar")}))

	tracker.NextBuild([]FSEvent{{Kind: EventUpdate, Path: "unrelated/file"}})
	_, found := tracker.StartRequest(req, 0)
	require.True(t, found)
}

// TestDependentInvalidationPropagates covers "requests that depended on it
// are invalidated too".
func TestDependentInvalidationPropagates(t *testing.T) {
	tracker := NewTracker()

	child := stubRequest{tag: "Child", inputs: "c"}
	childID := ID(child)
	tracker.StartRequest(child, 0)
	out, _, _, _ := child.Run(context.Background(), nil, GlobalOptions{})
	require.NoError(t, tracker.FinishRequest(childID, out, nil, []Invalidation{InvalidateOnFileUpdate("dep.js")}))

	parent := stubRequest{tag: "Parent", inputs: "p"}
	parentID := ID(parent)
	// Parent depends on child's output.
	tracker.StartRequest(parent, 0)
	tracker.StartRequest(child, parentID)
	pout, _, _, _ := parent.Run(context.Background(), nil, GlobalOptions{})
	require.NoError(t, tracker.FinishRequest(parentID, pout, nil, nil))

	tracker.NextBuild([]FSEvent{{Kind: EventUpdate, Path: "dep.js"}})

	_, found := tracker.StartRequest(child, 0)
	require.False(t, found, "child must be invalidated by the direct file edge")

	_, found = tracker.StartRequest(parent, 0)
	require.False(t, found, "parent must be transitively invalidated through its dependency on child")
}

// TestFinishRequestIdempotent: finishing an already-Valid node is a no-op.
func TestFinishRequestIdempotent(t *testing.T) {
	tracker := NewTracker()
	req := stubRequest{tag: "Entry", inputs: "entry"}
	id := ID(req)

	tracker.StartRequest(req, 0)
	require.NoError(t, tracker.FinishRequest(id, stubOutput{tag: "Entry"}, nil, nil))
	// Second finish with a different (bogus) output must not replace the first.
	require.NoError(t, tracker.FinishRequest(id, stubOutput{tag: "Entry-replaced"}, nil, nil))

	out, found := tracker.StartRequest(req, 0)
	require.True(t, found)
	require.Equal(t, "Entry", out.TypeTag())
}

func TestErroredNodesHaveNoInvalidationEdges(t *testing.T) {
	tracker := NewTracker()
	req := stubRequest{tag: "Broken", inputs: "x"}
	id := ID(req)
	tracker.StartRequest(req, 0)

	errDiag := diagnostics.New(diagnostics.KindParseFailure, "test", "boom")
	require.NoError(t, tracker.FinishRequest(id, nil, []diagnostics.Diagnostic{errDiag}, []Invalidation{InvalidateOnFileUpdate("x.js")}))
	require.Empty(t, tracker.current.filePaths, "an errored node must not register file invalidation edges")

	tracker.NextBuild([]FSEvent{{Kind: EventUpdate, Path: "x.js"}})
	_, found := tracker.StartRequest(req, 0)
	require.False(t, found, "errored nodes never get carried over as valid")
}
