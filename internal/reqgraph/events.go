package reqgraph

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// applyEvent mutates g in place to apply one filesystem event's
// invalidation semantics, returning the set of request NodeIDs invalidated
// (transitively, through request-to-request dependency edges).
func (g *graph) applyEvent(ev FSEvent) []NodeID {
	var invalidated []NodeID
	switch ev.Kind {
	case EventCreate:
		invalidated = append(invalidated, g.applyCreate(ev.Path)...)
	case EventUpdate:
		if fp, ok := g.filePaths[ev.Path]; ok {
			for _, target := range fp.updateTargets {
				invalidated = append(invalidated, g.invalidate(target)...)
			}
		}
	case EventDelete:
		if fp, ok := g.filePaths[ev.Path]; ok {
			for _, target := range fp.deleteTargets {
				invalidated = append(invalidated, g.invalidate(target)...)
			}
		}
	}
	return invalidated
}

func (g *graph) applyCreate(path string) []NodeID {
	var invalidated []NodeID

	if fp, ok := g.filePaths[path]; ok {
		for _, target := range fp.createTargets {
			invalidated = append(invalidated, g.invalidate(target)...)
		}
	}

	base := filepath.Base(path)
	if fn, ok := g.fileNames[base]; ok {
		for _, edge := range fn.createAbove {
			if createAboveMatches(edge, path) {
				invalidated = append(invalidated, g.invalidate(edge.Target)...)
			}
		}
	}

	for _, gl := range g.globs {
		if ok, _ := doublestar.Match(gl.pattern, path); ok {
			for _, target := range gl.createTargets {
				invalidated = append(invalidated, g.invalidate(target)...)
			}
		}
	}

	return invalidated
}

// createAboveMatches implements the request tracker's three conditions for an
// InvalidateOnFileCreateAbove edge matching a newly created path:
//
//	(i)   edge.Dir is absent, or equals a trailing segment of parent(path)
//	(ii)  path is not inside edge.Above (not deeper than the above path)
//	(iii) path shares a top-level ancestor component with edge.Above
func createAboveMatches(edge createAboveEdge, path string) bool {
	parent := filepath.Dir(path)

	if edge.Dir != "" && !hasTrailingSegments(splitPath(parent), splitPath(edge.Dir)) {
		return false
	}

	if isWithin(edge.Above, path) {
		return false
	}

	return shareTopLevelComponent(edge.Above, path)
}

// hasTrailingSegments reports whether suffix is a trailing subsequence of
// segs, component-wise (mirroring Path::ends_with, which compares path
// components rather than raw string suffixes).
func hasTrailingSegments(segs, suffix []string) bool {
	if len(suffix) > len(segs) {
		return false
	}
	offset := len(segs) - len(suffix)
	for i, s := range suffix {
		if segs[offset+i] != s {
			return false
		}
	}
	return true
}

func splitPath(p string) []string {
	p = filepath.ToSlash(p)
	return strings.Split(strings.Trim(p, "/"), "/")
}

// isWithin reports whether child is strictly inside (nested under) parent —
// i.e. path is no deeper than above only when this is false for path==above
// or path is a sibling/ancestor.
func isWithin(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	if rel == "." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || rel == ".." {
		return false
	}
	return true
}

func shareTopLevelComponent(a, b string) bool {
	as := splitPath(a)
	bs := splitPath(b)
	if len(as) == 0 || len(bs) == 0 {
		return false
	}
	return as[0] == bs[0]
}
