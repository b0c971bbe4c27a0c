package jsasset

import "unicode/utf16"

// emit implements stage 16: apply the accumulated edit list to the
// original source bytes, then re-encode the result as ASCII-only (matching
// swc's ascii_only printer option the original transformer runs with) so
// every byte of the emitted code is a 7-bit ASCII character. Every earlier
// stage only records edits against the stage-1 parse's byte offsets; this
// is the single point where those edits actually get spliced in, so offset
// bookkeeping across stages never has to account for previously-applied
// rewrites shifting later ones.
func emit(source []byte, edits *editList) []byte {
	return escapeNonASCII(edits.apply(source))
}

// escapeNonASCII rewrites every non-ASCII rune in code as a \uXXXX escape
// (a \uXXXX surrogate pair for runes outside the basic multilingual plane),
// leaving every other byte untouched.
func escapeNonASCII(code []byte) []byte {
	hasNonASCII := false
	for _, b := range code {
		if b >= 0x80 {
			hasNonASCII = true
			break
		}
	}
	if !hasNonASCII {
		return code
	}

	out := make([]byte, 0, len(code))
	for _, r := range string(code) {
		if r < 0x80 {
			out = append(out, byte(r))
			continue
		}
		if r > 0xFFFF {
			r1, r2 := utf16.EncodeRune(r)
			out = append(out, escapeUnit(r1)...)
			out = append(out, escapeUnit(r2)...)
			continue
		}
		out = append(out, escapeUnit(r)...)
	}
	return out
}

const hexDigits = "0123456789abcdef"

// escapeUnit renders one UTF-16 code unit as a \uXXXX literal.
func escapeUnit(u rune) []byte {
	return []byte{
		'\\', 'u',
		hexDigits[(u>>12)&0xf],
		hexDigits[(u>>8)&0xf],
		hexDigits[(u>>4)&0xf],
		hexDigits[u&0xf],
	}
}
