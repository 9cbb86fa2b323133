package mime

import (
	"encoding/base64"
	"strconv"
	"strings"
)

// DecodeEncodedWords decodes RFC 2047 encoded-words
// ("=?charset?Q?text?=" / "=?charset?B?text?=") embedded anywhere in an
// unstructured header value. Adjacent encoded words separated only by
// whitespace have that whitespace removed per RFC 2047 §6.2, so a long
// display name split across several encoded words joins back into one
// run of text rather than gaining stray spaces.
func DecodeEncodedWords(s string) string {
	var b strings.Builder
	i := 0
	lastWasEncoded := false
	for i < len(s) {
		start := strings.Index(s[i:], "=?")
		if start < 0 {
			b.WriteString(s[i:])
			break
		}
		start += i

		// Whitespace between i and start: keep it unless the previous
		// token was an encoded-word and this one is too (checked after
		// a successful decode below).
		between := s[i:start]

		word, end, ok := decodeOneWord(s[start:])
		if !ok {
			b.WriteString(s[i : start+2])
			i = start + 2
			lastWasEncoded = false
			continue
		}

		if !(lastWasEncoded && strings.TrimSpace(between) == "") {
			b.WriteString(between)
		}
		b.WriteString(word)
		i = start + end
		lastWasEncoded = true
	}
	return b.String()
}

// decodeOneWord decodes a single "=?charset?enc?text?=" token at the
// start of s, returning the decoded text, the length of the token
// consumed, and whether s actually began with a well-formed token.
func decodeOneWord(s string) (string, int, bool) {
	if !strings.HasPrefix(s, "=?") {
		return "", 0, false
	}
	rest := s[2:]
	p1 := strings.IndexByte(rest, '?')
	if p1 < 0 {
		return "", 0, false
	}
	charset := rest[:p1]
	rest = rest[p1+1:]
	if len(rest) < 2 || rest[1] != '?' {
		return "", 0, false
	}
	enc := rest[0]
	rest = rest[2:]
	p2 := strings.Index(rest, "?=")
	if p2 < 0 {
		return "", 0, false
	}
	text := rest[:p2]
	total := len(s) - len(rest) + p2 + 2

	var raw []byte
	switch enc {
	case 'Q', 'q':
		raw = decodeQEncoding(text)
	case 'B', 'b':
		decoded, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return "", 0, false
		}
		raw = decoded
	default:
		return "", 0, false
	}

	return decodeCharsetBytes(raw, charset), total, true
}

// decodeQEncoding decodes RFC 2047's Q-encoding: like quoted-printable
// but "_" stands for a space.
func decodeQEncoding(s string) []byte {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '_':
			b.WriteByte(' ')
		case s[i] == '=' && i+2 < len(s):
			if v, err := strconv.ParseUint(s[i+1:i+3], 16, 8); err == nil {
				b.WriteByte(byte(v))
				i += 2
				continue
			}
			b.WriteByte(s[i])
		default:
			b.WriteByte(s[i])
		}
	}
	return []byte(b.String())
}
