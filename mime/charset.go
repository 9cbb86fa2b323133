package mime

import "strings"

// decodeCharsetBytes interprets raw as text in the named charset,
// returning a Go (UTF-8) string. Only ASCII, UTF-8 and ISO-8859-1 are
// understood per the charset scope decided in DESIGN.md's Open
// Question (c); an unrecognized charset is returned as raw bytes
// reinterpreted as Latin-1, which at least round-trips every byte
// rather than dropping data silently.
func decodeCharsetBytes(raw []byte, charset string) string {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "", "us-ascii", "ascii", "utf-8", "utf8":
		return string(raw)
	case "iso-8859-1", "latin1", "iso8859-1", "windows-1252":
		return decodeLatin1(raw)
	default:
		return decodeLatin1(raw)
	}
}

// decodeLatin1 maps each byte directly to the Unicode code point of
// the same value, which is exactly ISO-8859-1's identity mapping.
func decodeLatin1(raw []byte) string {
	runes := make([]rune, len(raw))
	for i, b := range raw {
		runes[i] = rune(b)
	}
	return string(runes)
}

// encodeLatin1 is the inverse of decodeLatin1: code points above 0xFF
// cannot be represented and are replaced with '?'.
func encodeLatin1(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xff {
			out = append(out, '?')
			continue
		}
		out = append(out, byte(r))
	}
	return out
}
