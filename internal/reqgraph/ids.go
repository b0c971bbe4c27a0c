package reqgraph

import "github.com/cespare/xxhash/v2"

// NodeID is the 64-bit content-addressed identity shared by requests,
// assets, and dependencies.
type NodeID uint64

// Fingerprint hashes a request's type tag together with its inputs. The
// type tag is mixed in first specifically so that two differently-typed
// requests with byte-identical payloads never collide.
func Fingerprint(typeTag string, inputs ...[]byte) NodeID {
	h := xxhash.New()
	_, _ = h.WriteString(typeTag)
	_, _ = h.Write([]byte{0}) // separator: typeTag can't itself contain NUL
	for _, in := range inputs {
		_, _ = h.Write(in)
		_, _ = h.Write([]byte{0})
	}
	return NodeID(h.Sum64())
}

// FingerprintStrings is a convenience wrapper for the common case of
// string-shaped inputs (specifiers, paths, option keys).
func FingerprintStrings(typeTag string, inputs ...string) NodeID {
	b := make([][]byte, len(inputs))
	for i, s := range inputs {
		b[i] = []byte(s)
	}
	return Fingerprint(typeTag, b...)
}
