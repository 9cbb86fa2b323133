package mime

import (
	"encoding/base64"
	"strings"
)

// qpLineLength is the longest line a generated message emits before
// wrapping, per RFC 2045 §6.7's 76-column quoted-printable convention
// (well under the 998-octet data line limit).
const qpLineLength = 76

// DecodeQuotedPrintable decodes a quoted-printable body per RFC 2045
// §6.7: "=XX" is a hex-escaped octet, "=\r\n" (or a bare "=\n") is a
// soft line break and is removed entirely, and trailing whitespace on
// a hard-broken line is significant (kept) since it was not soft-broken
// away.
func DecodeQuotedPrintable(s string) string {
	var b strings.Builder
	i := 0
	for i < len(s) {
		c := s[i]
		if c != '=' {
			b.WriteByte(c)
			i++
			continue
		}
		// Soft line break: "=\r\n" or "=\n".
		if i+2 < len(s) && s[i+1] == '\r' && s[i+2] == '\n' {
			i += 3
			continue
		}
		if i+1 < len(s) && s[i+1] == '\n' {
			i += 2
			continue
		}
		if i+2 < len(s) {
			if hi, ok1 := hexVal(s[i+1]); ok1 {
				if lo, ok2 := hexVal(s[i+2]); ok2 {
					b.WriteByte(byte(hi<<4 | lo))
					i += 3
					continue
				}
			}
		}
		// Malformed escape: pass the '=' through literally.
		b.WriteByte(c)
		i++
	}
	return b.String()
}

// EncodeQuotedPrintable encodes text to quoted-printable, escaping
// bytes outside printable ASCII (and '=' itself), and soft-wrapping
// lines before the 76th column so no emitted line exceeds it.
func EncodeQuotedPrintable(data []byte) string {
	var b strings.Builder
	col := 0
	writeEscaped := func(c byte) {
		if col > qpLineLength-4 {
			b.WriteString("=\r\n")
			col = 0
		}
		b.WriteString("=")
		b.WriteByte(hexDigit(c >> 4))
		b.WriteByte(hexDigit(c & 0x0f))
		col += 3
	}

	for i := 0; i < len(data); i++ {
		c := data[i]
		switch {
		case c == '\r' && i+1 < len(data) && data[i+1] == '\n':
			b.WriteString("\r\n")
			col = 0
			i++
		case c == '\t' || (c >= 0x20 && c <= 0x7e && c != '='):
			if col > qpLineLength-2 {
				b.WriteString("=\r\n")
				col = 0
			}
			b.WriteByte(c)
			col++
		default:
			writeEscaped(c)
		}
	}
	return b.String()
}

func hexDigit(n byte) byte {
	if n < 10 {
		return '0' + n
	}
	return 'A' + (n - 10)
}

// DecodeBase64 decodes a base64 body, first stripping whitespace and
// line breaks the server or a generator may have inserted for line
// wrapping.
func DecodeBase64(s string) ([]byte, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, s)
	return base64.StdEncoding.DecodeString(cleaned)
}

// EncodeBase64 encodes data to base64, wrapped at 76 columns per
// RFC 2045 §6.8.
func EncodeBase64(data []byte) string {
	full := base64.StdEncoding.EncodeToString(data)
	var b strings.Builder
	for i := 0; i < len(full); i += qpLineLength {
		end := i + qpLineLength
		if end > len(full) {
			end = len(full)
		}
		b.WriteString(full[i:end])
		b.WriteString("\r\n")
	}
	return b.String()
}

// DecodeTransferEncoding applies the Content-Transfer-Encoding named by
// enc to raw, returning the decoded bytes. "7bit", "8bit", "binary",
// and an empty/unrecognized encoding all pass bytes through unchanged.
func DecodeTransferEncoding(raw []byte, enc string) []byte {
	switch strings.ToLower(strings.TrimSpace(enc)) {
	case "quoted-printable":
		return []byte(DecodeQuotedPrintable(string(raw)))
	case "base64":
		decoded, err := DecodeBase64(string(raw))
		if err != nil {
			return raw
		}
		return decoded
	default:
		return raw
	}
}

// EncodeTransferEncoding encodes raw per the named Content-Transfer-Encoding.
func EncodeTransferEncoding(raw []byte, enc string) string {
	switch strings.ToLower(strings.TrimSpace(enc)) {
	case "quoted-printable":
		return EncodeQuotedPrintable(raw)
	case "base64":
		return EncodeBase64(raw)
	default:
		return string(raw)
	}
}
