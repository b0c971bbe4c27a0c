package jsasset

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransformCJSRequireAndExports(t *testing.T) {
	src := "const x = require('other'); exports.hello = function(){};"
	result := Transform(Input{
		FilePath: "/proj/a.js",
		Code:     []byte(src),
	})
	require.False(t, result.Diagnostics.HasErrors())
	require.NotNil(t, result.Asset)

	require.Len(t, result.Asset.Dependencies, 1)
	dep := result.Asset.Dependencies[0]
	require.Equal(t, "other", dep.Specifier)
	require.Equal(t, SpecifierCommonJS, dep.SpecifierType)
	require.Equal(t, KindRequire, dep.Kind)
	require.Equal(t, PrioritySync, dep.Priority)
	require.Contains(t, string(result.Asset.Code), dep.Placeholder)
	require.Contains(t, string(result.Asset.Code), "require(")

	assetIDHex := assetIDHexOf(result.Asset.ID)
	var foundHello, foundCatchAll bool
	for _, sym := range result.Asset.Symbols {
		switch sym.Exported {
		case "hello":
			foundHello = true
			require.Equal(t, mangledLocal(assetIDHex, "hello"), sym.Local)
		case "*":
			foundCatchAll = true
			require.Equal(t, "$"+assetIDHex+"$exports", sym.Local)
		}
	}
	require.True(t, foundHello, "symbol table must contain a named hello symbol")
	require.True(t, foundCatchAll, "symbol table must contain the CJS catch-all * symbol")
	require.True(t, result.Asset.Flags.HasCJSExports)
}

func TestTransformDynamicImportInWorklet(t *testing.T) {
	src := "import('m');"
	result := Transform(Input{
		FilePath: "/proj/a.js",
		Code:     []byte(src),
		Env:      Environment{Context: ContextWorklet},
	})
	require.Nil(t, result.Asset)
	require.True(t, result.Diagnostics.HasErrors())

	errs := result.Diagnostics.Errors()
	require.Len(t, errs, 1)
	require.NotEmpty(t, errs[0].CodeFrames)
}

func TestTransformEmptySource(t *testing.T) {
	result := Transform(Input{FilePath: "/proj/empty.js", Code: []byte("")})
	require.False(t, result.Diagnostics.HasErrors())
	require.NotNil(t, result.Asset)
	require.Empty(t, result.Asset.Code)
	require.Empty(t, result.Asset.Dependencies)
	require.True(t, result.Asset.Flags.SideEffects)
	require.True(t, result.Asset.Flags.HasSymbols)
}

func TestTransformTypeOnlyImportHasNoDependency(t *testing.T) {
	result := Transform(Input{
		FilePath: "/proj/a.ts",
		Code:     []byte("import type { Foo } from 'bar';\nexport const x = 1;"),
	})
	require.False(t, result.Diagnostics.HasErrors())
	require.NotNil(t, result.Asset)
	require.Empty(t, result.Asset.Dependencies)
}

func TestTransformRequireInTryIsOptional(t *testing.T) {
	src := "let m; try { m = require('optional-dep'); } catch (e) {}"
	result := Transform(Input{FilePath: "/proj/a.js", Code: []byte(src)})
	require.False(t, result.Diagnostics.HasErrors())
	require.NotNil(t, result.Asset)
	require.Len(t, result.Asset.Dependencies, 1)
	require.True(t, result.Asset.Dependencies[0].IsOptional)
}

func TestTransformTypeofRequireHasNoDependency(t *testing.T) {
	src := "const t = typeof require('x');"
	result := Transform(Input{FilePath: "/proj/a.js", Code: []byte(src)})
	require.False(t, result.Diagnostics.HasErrors())
	require.NotNil(t, result.Asset)
	require.Empty(t, result.Asset.Dependencies)
}

func TestTransformTypeScriptStripping(t *testing.T) {
	src := "interface Foo { x: number }\nconst y: Foo = { x: 1 } as Foo;\nexport { y };"
	result := Transform(Input{FilePath: "/proj/a.ts", Code: []byte(src)})
	require.False(t, result.Diagnostics.HasErrors())
	require.NotNil(t, result.Asset)
	require.NotContains(t, string(result.Asset.Code), "interface")
	require.NotContains(t, string(result.Asset.Code), ": Foo")
}

func TestTransformEnvReplacement(t *testing.T) {
	src := "const mode = process.env.NODE_ENV;"
	result := Transform(Input{
		FilePath:  "/proj/a.js",
		Code:      []byte(src),
		EnvValues: map[string]string{"NODE_ENV": "production"},
	})
	require.False(t, result.Diagnostics.HasErrors())
	require.NotNil(t, result.Asset)
	require.Contains(t, string(result.Asset.Code), `"production"`)
	require.NotEmpty(t, result.Asset.Invalidations)
}

func TestTransformConstantModuleFlag(t *testing.T) {
	result := Transform(Input{
		FilePath: "/proj/const.js",
		Code:     []byte("export const a = 1; const b = 2;"),
	})
	require.False(t, result.Diagnostics.HasErrors())
	require.NotNil(t, result.Asset)
	require.True(t, result.Asset.Flags.IsConstantModule)
}

func TestTransformCallAtTopLevelIsNotConstantModule(t *testing.T) {
	result := Transform(Input{
		FilePath: "/proj/sideeffect.js",
		Code:     []byte("const a = computeSomething();"),
	})
	require.False(t, result.Diagnostics.HasErrors())
	require.NotNil(t, result.Asset)
	require.False(t, result.Asset.Flags.IsConstantModule)
}

func TestTransformDirnameReplacementSetsHasNodeReplacements(t *testing.T) {
	result := Transform(Input{
		FilePath: "/proj/a.js",
		Code:     []byte("console.log(__dirname);"),
	})
	require.False(t, result.Diagnostics.HasErrors())
	require.NotNil(t, result.Asset)
	require.True(t, result.Asset.Flags.HasNodeReplacements)
}

func TestTransformNoNodeGlobalsLeavesHasNodeReplacementsFalse(t *testing.T) {
	result := Transform(Input{
		FilePath: "/proj/a.js",
		Code:     []byte("console.log(1);"),
	})
	require.False(t, result.Diagnostics.HasErrors())
	require.NotNil(t, result.Asset)
	require.False(t, result.Asset.Flags.HasNodeReplacements)
}

func TestTransformPlaceholderAppearsExactlyOnceAtCallSite(t *testing.T) {
	src := "const x = require('other');"
	result := Transform(Input{FilePath: "/proj/a.js", Code: []byte(src)})
	require.False(t, result.Diagnostics.HasErrors())
	require.NotNil(t, result.Asset)
	require.Len(t, result.Asset.Dependencies, 1)

	placeholder := result.Asset.Dependencies[0].Placeholder
	code := string(result.Asset.Code)
	require.Equal(t, 1, strings.Count(code, placeholder))
	require.Contains(t, code, `require("`+placeholder+`")`)
}

func TestTransformImportAttributesCapturedOnDependency(t *testing.T) {
	src := `import data from './data.json' with { type: "json" };`
	result := Transform(Input{FilePath: "/proj/a.js", Code: []byte(src)})
	require.False(t, result.Diagnostics.HasErrors())
	require.NotNil(t, result.Asset)
	require.Len(t, result.Asset.Dependencies, 1)
	require.Equal(t, map[string]string{"type": "json"}, result.Asset.Dependencies[0].Attributes)
}

func TestTransformImportScriptsRewritesToRequireSequence(t *testing.T) {
	result := Transform(Input{
		FilePath: "/proj/a.js",
		Code:     []byte(`importScripts('a', 'b');`),
		Env:      Environment{Context: ContextWebWorker},
	})
	require.False(t, result.Diagnostics.HasErrors())
	require.NotNil(t, result.Asset)
	require.Len(t, result.Asset.Dependencies, 2)

	code := string(result.Asset.Code)
	require.NotContains(t, code, "importScripts")
	for _, dep := range result.Asset.Dependencies {
		require.Equal(t, KindImportScripts, dep.Kind)
		require.Contains(t, code, `require("`+dep.Placeholder+`")`)
	}
}

func TestTransformDependencyIDIsStableAndNonZero(t *testing.T) {
	src := "const x = require('other');"
	result := Transform(Input{FilePath: "/proj/a.js", Code: []byte(src)})
	require.False(t, result.Diagnostics.HasErrors())
	require.Len(t, result.Asset.Dependencies, 1)
	require.NotZero(t, result.Asset.Dependencies[0].ID)

	result2 := Transform(Input{FilePath: "/proj/a.js", Code: []byte(src)})
	require.Equal(t, result.Asset.Dependencies[0].ID, result2.Asset.Dependencies[0].ID)
}

func TestTransformIsIdempotentOnIdenticalInputs(t *testing.T) {
	src := "const x = require('other'); exports.hello = function(){};"
	in := Input{FilePath: "/proj/a.js", Code: []byte(src)}
	r1 := Transform(in)
	r2 := Transform(in)
	require.False(t, r1.Diagnostics.HasErrors())
	require.False(t, r2.Diagnostics.HasErrors())
	require.Equal(t, r1.Asset.ID, r2.Asset.ID)
	require.Equal(t, r1.Asset.Dependencies, r2.Asset.Dependencies)
	require.Equal(t, r1.Asset.Symbols, r2.Asset.Symbols)
}

func TestTransformEscapesNonASCIIToUnicodeSequences(t *testing.T) {
	src := `const greeting = "héllo wörld";`
	result := Transform(Input{FilePath: "/proj/a.js", Code: []byte(src)})
	require.False(t, result.Diagnostics.HasErrors())
	require.NotNil(t, result.Asset)

	code := string(result.Asset.Code)
	require.True(t, strings.HasPrefix(code, `const greeting = "h`), code)
	require.Contains(t, code, "\\u00e9") // é
	require.Contains(t, code, "\\u00f6") // ö
	for _, r := range code {
		require.Less(t, r, rune(0x80), "emitted code must be ASCII-only, found %q", r)
	}
}

func TestTransformEscapesAstralRuneAsSurrogatePair(t *testing.T) {
	src := "const emoji = \"\U0001F600\";" // outside the BMP
	result := Transform(Input{FilePath: "/proj/a.js", Code: []byte(src)})
	require.False(t, result.Diagnostics.HasErrors())
	require.NotNil(t, result.Asset)

	code := string(result.Asset.Code)
	require.Contains(t, code, "\\ud83d\\ude00") // UTF-16 surrogate pair for U+1F600
	for _, r := range code {
		require.Less(t, r, rune(0x80))
	}
}

func assetIDHexOf(id uint64) string {
	return fmt.Sprintf("%x", id)
}
