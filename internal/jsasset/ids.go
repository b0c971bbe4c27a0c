package jsasset

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// placeholder derives the content-addressed mangled identifier a
// Dependency's call site is rewritten to carry: a hash of the specifier and its source position, so the
// same specifier appearing twice at different call sites gets distinct,
// stable placeholders.
func placeholder(specifier string, startByte uint32) string {
	h := xxhash.New()
	_, _ = h.WriteString(specifier)
	var posBuf [4]byte
	binary.LittleEndian.PutUint32(posBuf[:], startByte)
	_, _ = h.Write(posBuf[:])
	return fmt.Sprintf("$atlaspack$dep$%x", h.Sum64())
}

// assetID derives the stable 64-bit asset identifier: file path, environment structural hash,
// pipeline tag, and query string.
func assetID(filePath string, env Environment, pipeline, query string) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(filePath)
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(environmentHash(env))
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(pipeline)
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(query)
	return h.Sum64()
}

// dependencyID derives the stable 64-bit dependency identifier:
// source asset id, specifier, specifier type, environment, pipeline tag,
// and priority.
func dependencyID(sourceAssetID uint64, dep Dependency, pipeline string) uint64 {
	h := xxhash.New()
	var idBuf [8]byte
	binary.LittleEndian.PutUint64(idBuf[:], sourceAssetID)
	_, _ = h.Write(idBuf[:])
	_, _ = h.WriteString(dep.Specifier)
	_, _ = h.Write([]byte{byte(dep.SpecifierType)})
	_, _ = h.WriteString(environmentHash(dep.Env))
	_, _ = h.WriteString(pipeline)
	_, _ = h.Write([]byte{byte(dep.Priority)})
	return h.Sum64()
}

func environmentHash(env Environment) string {
	return fmt.Sprintf("%d|%d|%d|%v|%v|%v|%v", env.Context, env.OutputFormat, env.SourceType,
		env.IncludeNodeModules, env.IsLibrary, env.ShouldOptimize, env.ShouldScopeHoist)
}
