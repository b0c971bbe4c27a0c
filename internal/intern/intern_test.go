package intern

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInternReturnsCanonicalCopy(t *testing.T) {
	tbl := New(8)
	a := tbl.Intern("src/index.js")
	b := tbl.Intern("src/index.js")
	require.Equal(t, a, b)

	v, ok := tbl.Lookup("src/index.js")
	require.True(t, ok)
	require.Equal(t, "src/index.js", v)
}

func TestInternDistinctStringsDoNotCollide(t *testing.T) {
	tbl := New(8)
	tbl.Intern("a")
	tbl.Intern("b")
	require.Equal(t, 2, tbl.Len())
}

func TestLookupMissingReportsFalse(t *testing.T) {
	tbl := New(8)
	_, ok := tbl.Lookup("never-interned")
	require.False(t, ok)
}

func TestNilTableIsSafe(t *testing.T) {
	var tbl *Table
	require.Equal(t, "unchanged", tbl.Intern("unchanged"))
	require.Equal(t, 0, tbl.Len())
	_, ok := tbl.Lookup("anything")
	require.False(t, ok)
}

func TestNewWithNonPositiveSizeUsesDefault(t *testing.T) {
	tbl := New(0)
	require.NotNil(t, tbl)
	tbl.Intern("x")
	require.Equal(t, 1, tbl.Len())
}
