package nbt

import (
	"unicode/utf8"

	"github.com/oriumgames/anviligo/anvilerr"
)

// isASCII reports whether b contains only 7-bit bytes, in which case CESU-8
// and UTF-8 agree byte-for-byte and the decoded string can borrow b directly
// (spec.md §3.1, invariant 2 in §8.1).
func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 {
			return false
		}
	}
	return true
}

// decodeCESU8 converts Java's "modified UTF-8" to a standard Go UTF-8
// string. It differs from plain UTF-8 in two ways: NUL is encoded as the
// overlong two-byte sequence C0 80, and code points outside the Basic
// Multilingual Plane are encoded as a pair of 3-byte surrogate sequences
// instead of one 4-byte sequence.
func decodeCESU8(b []byte) (string, error) {
	const op = "nbt.decodeCESU8"

	out := make([]byte, 0, len(b))
	i := 0
	for i < len(b) {
		c0 := b[i]

		switch {
		case c0 < 0x80:
			out = append(out, c0)
			i++

		case c0&0xE0 == 0xC0: // 2-byte sequence, 11 bits
			if i+1 >= len(b) {
				return "", anvilerr.Newf(anvilerr.NonUnicodeString, op, "truncated 2-byte sequence")
			}
			c1 := b[i+1]
			if c1&0xC0 != 0x80 {
				return "", anvilerr.Newf(anvilerr.NonUnicodeString, op, "invalid continuation byte")
			}
			cp := (rune(c0&0x1F) << 6) | rune(c1&0x3F)
			// CESU-8 encodes NUL as the overlong C0 80; everything else in
			// this range round-trips identically to UTF-8.
			var buf [utf8.UTFMax]byte
			n := utf8.EncodeRune(buf[:], cp)
			out = append(out, buf[:n]...)
			i += 2

		case c0&0xF0 == 0xE0: // 3-byte sequence, 16 bits - possibly a surrogate half
			if i+2 >= len(b) {
				return "", anvilerr.Newf(anvilerr.NonUnicodeString, op, "truncated 3-byte sequence")
			}
			c1, c2 := b[i+1], b[i+2]
			if c1&0xC0 != 0x80 || c2&0xC0 != 0x80 {
				return "", anvilerr.Newf(anvilerr.NonUnicodeString, op, "invalid continuation bytes")
			}
			cp := (rune(c0&0x0F) << 12) | (rune(c1&0x3F) << 6) | rune(c2&0x3F)

			if cp >= 0xD800 && cp <= 0xDBFF {
				// High surrogate: must be followed by a low surrogate
				// 3-byte sequence to reconstruct the astral code point.
				if i+5 >= len(b) || b[i+3]&0xF0 != 0xE0 {
					return "", anvilerr.Newf(anvilerr.NonUnicodeString, op, "unpaired high surrogate")
				}
				d0, d1, d2 := b[i+3], b[i+4], b[i+5]
				if d1&0xC0 != 0x80 || d2&0xC0 != 0x80 {
					return "", anvilerr.Newf(anvilerr.NonUnicodeString, op, "invalid low surrogate continuation")
				}
				low := (rune(d0&0x0F) << 12) | (rune(d1&0x3F) << 6) | rune(d2&0x3F)
				if low < 0xDC00 || low > 0xDFFF {
					return "", anvilerr.Newf(anvilerr.NonUnicodeString, op, "unpaired high surrogate")
				}
				full := 0x10000 + ((cp - 0xD800) << 10) + (low - 0xDC00)
				var buf [utf8.UTFMax]byte
				n := utf8.EncodeRune(buf[:], full)
				out = append(out, buf[:n]...)
				i += 6
				continue
			}
			if cp >= 0xDC00 && cp <= 0xDFFF {
				return "", anvilerr.Newf(anvilerr.NonUnicodeString, op, "unpaired low surrogate")
			}

			var buf [utf8.UTFMax]byte
			n := utf8.EncodeRune(buf[:], cp)
			out = append(out, buf[:n]...)
			i += 3

		default:
			return "", anvilerr.Newf(anvilerr.NonUnicodeString, op, "invalid lead byte 0x%02x", c0)
		}
	}

	return string(out), nil
}

// encodeCESU8 converts a UTF-8 string to Java's modified UTF-8, appending to
// dst and returning the extended slice.
func encodeCESU8(dst []byte, s string) []byte {
	for _, r := range s {
		switch {
		case r == 0:
			dst = append(dst, 0xC0, 0x80)
		case r < 0x80:
			dst = append(dst, byte(r))
		case r < 0x800:
			dst = append(dst, byte(0xC0|(r>>6)), byte(0x80|(r&0x3F)))
		case r < 0x10000:
			dst = append(dst, byte(0xE0|(r>>12)), byte(0x80|((r>>6)&0x3F)), byte(0x80|(r&0x3F)))
		default:
			r -= 0x10000
			hi := 0xD800 + (r >> 10)
			lo := 0xDC00 + (r & 0x3FF)
			dst = append(dst,
				byte(0xE0|(hi>>12)), byte(0x80|((hi>>6)&0x3F)), byte(0x80|(hi&0x3F)),
				byte(0xE0|(lo>>12)), byte(0x80|((lo>>6)&0x3F)), byte(0x80|(lo&0x3F)),
			)
		}
	}
	return dst
}
