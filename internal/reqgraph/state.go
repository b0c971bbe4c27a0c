package reqgraph

import (
	"errors"
	"fmt"

	"github.com/atlaspack-core/atlaspack/internal/diagnostics"
)

// NodeStateKind tags a RequestNode's state.
type NodeStateKind int

const (
	StateIncomplete NodeStateKind = iota
	StateInvalid
	StateError
	StateValid
)

func (k NodeStateKind) String() string {
	switch k {
	case StateIncomplete:
		return "incomplete"
	case StateInvalid:
		return "invalid"
	case StateError:
		return "error"
	case StateValid:
		return "valid"
	default:
		return "unknown"
	}
}

// NodeState is the tagged-variant state of a RequestNode.
type NodeState struct {
	Kind        NodeStateKind
	Output      RequestOutput        // set iff Kind == StateValid
	Diagnostics []diagnostics.Diagnostic // set iff Kind == StateError
}

// ErrInvalidTransition is the generic "this state machine doesn't allow
// that edge" error, used here for RequestNode's lifecycle.
var ErrInvalidTransition = errors.New("invalid request node state transition")

// allowedTransitions encodes the RequestNode state machine. Incomplete is
// the entry state; Valid and Error are terminal until the next build demotes
// a node back to Invalid (never directly back to Incomplete — a node that
// should re-run is simply absent from the fresh current graph, see
// Tracker.NextBuild).
var allowedTransitions = map[NodeStateKind][]NodeStateKind{
	StateIncomplete: {StateValid, StateError, StateInvalid},
	StateValid:      {StateInvalid},
	StateError:      {StateInvalid},
	StateInvalid:    {}, // invalidated nodes are dropped, never resurrected in place
}

func validateTransition(from, to NodeStateKind) error {
	if from == to {
		// finish_request on an already-Valid node is defined as a no-op
		// not an error.
		return nil
	}
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot move from %s to %s", ErrInvalidTransition, from, to)
}
