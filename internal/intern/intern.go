// Package intern implements the process-wide string-interning table: the
// one piece of mutable state shared across the request tracker, config
// loader, and JS transformer. File paths, module specifiers, and symbol
// names recur constantly across a build (the same path is a node-graph key,
// a dependency specifier, and a diagnostic origin all at once), so
// canonicalizing them through one table saves both memory and repeated
// string comparison.
//
// The table is modeled as an explicit value passed to every component that
// needs it, never a package-level singleton, so each component stays
// testable against an isolated table (or none at all — a nil *Table is
// always safe to use and simply interns nothing).
package intern

import lru "github.com/hashicorp/golang-lru/v2"

// defaultSize bounds a table with no explicit size, large enough to hold
// every distinct path/specifier/name touched by one build of a
// medium-sized project without forcing callers to size it themselves.
const defaultSize = 8192

// Table canonicalizes strings so that equal values share one backing
// string. A bounded LRU rather than an unbounded map is the practical
// long-running-process analogue of "grows monotonically": in watch mode a
// table that never evicted would grow for as long as the process lives,
// slowly accumulating entries for files that were deleted or renamed long
// ago.
type Table struct {
	cache *lru.Cache[string, string]
}

// New creates a Table holding up to size distinct strings. size <= 0 uses
// defaultSize.
func New(size int) *Table {
	if size <= 0 {
		size = defaultSize
	}
	c, err := lru.New[string, string](size)
	if err != nil {
		// Only returned for a non-positive size, which is excluded above.
		panic(err)
	}
	return &Table{cache: c}
}

// Intern returns the canonical stored copy of s, recording s as canonical
// the first time it is seen. A nil Table interns nothing and returns s
// unchanged, so components can be handed a nil Table in tests without a
// separate code path.
func (t *Table) Intern(s string) string {
	if t == nil || t.cache == nil {
		return s
	}
	if v, ok := t.cache.Get(s); ok {
		return v
	}
	t.cache.Add(s, s)
	return s
}

// Lookup reports whether s has already been interned, without recording it.
func (t *Table) Lookup(s string) (string, bool) {
	if t == nil || t.cache == nil {
		return "", false
	}
	return t.cache.Peek(s)
}

// Len reports how many distinct strings are currently interned.
func (t *Table) Len() int {
	if t == nil || t.cache == nil {
		return 0
	}
	return t.cache.Len()
}
