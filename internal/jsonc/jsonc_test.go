package jsonc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStripBlockLineShellComments(t *testing.T) {
	src := []byte(`{
  /* block */
  "a": 1, // line
  "b": 2 # shell
}`)
	out := Strip(src)
	require.Len(t, out, len(src))

	var v map[string]any
	require.NoError(t, json.Unmarshal(out, &v))
	require.Equal(t, float64(1), v["a"])
	require.Equal(t, float64(2), v["b"])
}

func TestStripTrailingCommas(t *testing.T) {
	src := []byte(`{"a": [1, 2, 3,], "b": 2,}`)
	out := Strip(src)
	require.Len(t, out, len(src))

	var v map[string]any
	require.NoError(t, json.Unmarshal(out, &v))
}

func TestStripIsIdempotent(t *testing.T) {
	src := []byte(`{"a": 1, // trailing
"b": 2,}`)
	once := Strip(src)
	twice := Strip(once)
	require.Equal(t, once, twice)
	require.Len(t, twice, len(src))
}

func TestStripPreservesStringsLookingLikeComments(t *testing.T) {
	src := []byte(`{"a": "not // a comment", "b": "not /* one */ either"}`)
	out := Strip(src)

	var v map[string]any
	require.NoError(t, json.Unmarshal(out, &v))
	require.Equal(t, "not // a comment", v["a"])
	require.Equal(t, "not /* one */ either", v["b"])
}
