package jsasset

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// edit replaces the byte range [Start, End) of the original source with
// Replacement. tree-sitter trees are immutable, so every rewriting stage
// records edits against byte offsets from the single parse in stage 1
// instead of mutating an AST; emit (stage 16) applies them all in one pass.
type edit struct {
	Start, End  uint32
	Replacement string
}

// editList accumulates edits in discovery order; apply sorts and applies
// them back-to-front so earlier offsets stay valid.
type editList struct {
	edits []edit
}

func (l *editList) replace(n *sitter.Node, replacement string) {
	l.edits = append(l.edits, edit{Start: n.StartByte(), End: n.EndByte(), Replacement: replacement})
}

func (l *editList) replaceRange(start, end uint32, replacement string) {
	l.edits = append(l.edits, edit{Start: start, End: end, Replacement: replacement})
}

func (l *editList) insertBefore(n *sitter.Node, text string) {
	l.edits = append(l.edits, edit{Start: n.StartByte(), End: n.StartByte(), Replacement: text})
}

func (l *editList) insertAfter(n *sitter.Node, text string) {
	l.edits = append(l.edits, edit{Start: n.EndByte(), End: n.EndByte(), Replacement: text})
}

// apply produces the final byte buffer from source plus all recorded
// edits. Overlapping edits are not expected from a single well-formed
// pipeline run; where they occur, the edit with the lower start offset
// (or, on equal start offsets, the earlier-recorded one) is applied and
// any later edit starting inside its replaced range is dropped.
func (l *editList) apply(source []byte) []byte {
	if len(l.edits) == 0 {
		return append([]byte(nil), source...)
	}

	edits := append([]edit(nil), l.edits...)
	// Stable sort by start offset; ties keep discovery order, so the
	// earlier-recorded edit is applied first for the overlap policy above.
	for i := 1; i < len(edits); i++ {
		for j := i; j > 0 && edits[j-1].Start > edits[j].Start; j-- {
			edits[j-1], edits[j] = edits[j], edits[j-1]
		}
	}

	out := make([]byte, 0, len(source))
	var cursor uint32
	for _, e := range edits {
		if e.Start < cursor {
			continue // superseded by an earlier, already-applied overlapping edit
		}
		out = append(out, source[cursor:e.Start]...)
		out = append(out, e.Replacement...)
		cursor = e.End
	}
	out = append(out, source[cursor:]...)
	return out
}
