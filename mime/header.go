// Package mime implements parsing and generation of MIME messages:
// header unfolding and parameter parsing (RFC 2045/2231), encoded-word
// decoding (RFC 2047), transfer-encoding codecs, and a multipart tree
// builder, against the subset of charsets and headers the facade needs
// to hand a caller a usable message tree rather than raw bytes.
package mime

import (
	"strings"
)

// Header is a single unfolded "name: value" pair, order-preserving.
type Header struct {
	Name  string
	Value string
}

// Headers is an ordered list of Header, the way they appeared in the
// source bytes. Lookups are case-insensitive per RFC 2045 §1.
type Headers []Header

// Get returns the first header matching name (case-insensitive), and
// whether it was found.
func (h Headers) Get(name string) (string, bool) {
	for _, hdr := range h {
		if strings.EqualFold(hdr.Name, name) {
			return hdr.Value, true
		}
	}
	return "", false
}

// GetAll returns every header value matching name, in order.
func (h Headers) GetAll(name string) []string {
	var out []string
	for _, hdr := range h {
		if strings.EqualFold(hdr.Name, name) {
			out = append(out, hdr.Value)
		}
	}
	return out
}

// ParseHeaders unfolds continuation lines and splits each logical line
// on its first colon. A line beginning with a space or tab is a
// continuation of the previous header; the leading whitespace run
// collapses to a single space per RFC 2045 §1. Returns the parsed
// headers and the remaining bytes (the body, with its leading blank
// line consumed).
func ParseHeaders(data []byte) (Headers, []byte) {
	text := string(data)

	// Header block ends at the first blank line (\r\n\r\n, \n\n, or a
	// lone \r\n/\n if the message has no body).
	headerText, body := splitHeaderBlock(text)

	lines := splitLines(headerText)
	var headers Headers
	var cur *Header
	for _, line := range lines {
		if line == "" {
			continue
		}
		if (line[0] == ' ' || line[0] == '\t') && cur != nil {
			cur.Value += " " + strings.TrimLeft(line, " \t")
			continue
		}
		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			continue
		}
		name := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		headers = append(headers, Header{Name: name, Value: value})
		cur = &headers[len(headers)-1]
	}
	return headers, body
}

// splitHeaderBlock finds the blank line terminating a header block and
// returns the header text and the remainder, tolerating both CRLF and
// bare-LF line endings.
func splitHeaderBlock(text string) (string, []byte) {
	if idx := strings.Index(text, "\r\n\r\n"); idx >= 0 {
		return text[:idx], []byte(text[idx+4:])
	}
	if idx := strings.Index(text, "\n\n"); idx >= 0 {
		return text[:idx], []byte(text[idx+2:])
	}
	return text, nil
}

// splitLines splits on \r\n or \n, keeping header-unfolding semantics
// (a line starting with whitespace is a continuation, handled by the
// caller) rather than collapsing blank lines here.
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Split(s, "\n")
}

// ContentType is a parsed Content-Type header: type/subtype plus
// parameters (e.g. "boundary", "charset", "name"), RFC 2231 continuation
// and charset-encoded parameters already joined and decoded.
type ContentType struct {
	Type    string
	Subtype string
	Params  map[string]string
}

// Full returns "type/subtype".
func (c *ContentType) Full() string {
	return c.Type + "/" + c.Subtype
}

// IsMultipart reports whether the content type is multipart/*.
func (c *ContentType) IsMultipart() bool {
	return strings.EqualFold(c.Type, "multipart")
}

// Boundary returns the boundary parameter, if present.
func (c *ContentType) Boundary() string {
	return c.Params["boundary"]
}

// Charset returns the charset parameter, defaulting to "us-ascii" per
// RFC 2045 §5.2 when absent.
func (c *ContentType) Charset() string {
	if cs, ok := c.Params["charset"]; ok && cs != "" {
		return cs
	}
	return "us-ascii"
}

// ParseContentType parses a Content-Type (or Content-Disposition, which
// shares the type/subtype;param=value grammar minus the subtype having
// any particular meaning) header value.
func ParseContentType(value string) *ContentType {
	mediaType, params := parseParamHeader(value)
	typ, subtype := "text", "plain"
	if idx := strings.IndexByte(mediaType, '/'); idx >= 0 {
		typ = mediaType[:idx]
		subtype = mediaType[idx+1:]
	} else if mediaType != "" {
		typ = mediaType
		subtype = ""
	}
	return &ContentType{Type: typ, Subtype: subtype, Params: params}
}

// ContentDisposition is a parsed Content-Disposition header.
type ContentDisposition struct {
	Disposition string // "inline" or "attachment"
	Params      map[string]string
}

// Filename returns the filename parameter, if present.
func (d *ContentDisposition) Filename() string {
	return d.Params["filename"]
}

// ParseContentDisposition parses a Content-Disposition header value.
func ParseContentDisposition(value string) *ContentDisposition {
	disp, params := parseParamHeader(value)
	return &ContentDisposition{Disposition: disp, Params: params}
}

// parseParamHeader parses "token; name=value; name2=value2" headers,
// where a value may be a quoted-string, and RFC 2231 extended
// parameters (name*=charset'lang'value, or name*0=, name*1=... for
// continuation, optionally each segment itself extended with name*0*=)
// are decoded and joined in segment order.
func parseParamHeader(value string) (string, map[string]string) {
	parts := splitParamSegments(value)
	if len(parts) == 0 {
		return "", map[string]string{}
	}
	mainValue := strings.TrimSpace(parts[0])

	// continued[name] accumulates extended-parameter segments by index
	// before being joined and percent-decoded.
	type segment = struct {
		idx      int
		extended bool
		value    string
	}
	continued := map[string][]segment{}
	params := map[string]string{}

	for _, raw := range parts[1:] {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		eq := strings.IndexByte(raw, '=')
		if eq < 0 {
			continue
		}
		name := strings.TrimSpace(raw[:eq])
		val := strings.TrimSpace(raw[eq+1:])
		val = unquoteParamValue(val)

		if strings.HasSuffix(name, "*") {
			// Either name*=charset'lang'value (single extended) or
			// name*N* / name*N (continuation segment, possibly itself
			// extended on segment 0 only per RFC 2231 §3).
			base := strings.TrimSuffix(name, "*")
			if star := strings.LastIndexByte(base, '*'); star >= 0 && isAllDigits(base[star+1:]) {
				idxStr := base[star+1:]
				realName := base[:star]
				n := atoiSafe(idxStr)
				continued[realName] = append(continued[realName], segment{idx: n, extended: true, value: val})
				continue
			}
			// name*=charset'lang'value
			continued[base] = append(continued[base], segment{idx: 0, extended: true, value: val})
			continue
		}
		if star := strings.LastIndexByte(name, '*'); star >= 0 && isAllDigits(name[star+1:]) {
			realName := name[:star]
			n := atoiSafe(name[star+1:])
			continued[realName] = append(continued[realName], segment{idx: n, extended: false, value: val})
			continue
		}
		params[strings.ToLower(name)] = val
	}

	for name, segs := range continued {
		sortSegments(segs)
		var b strings.Builder
		charset := ""
		for i, s := range segs {
			v := s.value
			if s.extended {
				if i == 0 {
					// charset'lang'value
					if a := strings.IndexByte(v, '\''); a >= 0 {
						charset = v[:a]
						if b2 := strings.IndexByte(v[a+1:], '\''); b2 >= 0 {
							v = v[a+1+b2+1:]
						}
					}
				}
				v = percentDecode(v)
			}
			b.WriteString(v)
		}
		decoded := b.String()
		if charset != "" && !strings.EqualFold(charset, "utf-8") && !strings.EqualFold(charset, "us-ascii") {
			decoded = decodeCharsetBytes([]byte(decoded), charset)
		}
		params[strings.ToLower(name)] = decoded
	}

	return mainValue, params
}

// splitParamSegments splits on ';' but respects quoted strings, so a
// ';' inside a quoted parameter value does not split the header.
func splitParamSegments(value string) []string {
	var parts []string
	inQuotes := false
	start := 0
	for i := 0; i < len(value); i++ {
		switch value[i] {
		case '"':
			inQuotes = !inQuotes
		case ';':
			if !inQuotes {
				parts = append(parts, value[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, value[start:])
	return parts
}

func unquoteParamValue(v string) string {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		inner := v[1 : len(v)-1]
		return strings.ReplaceAll(inner, `\"`, `"`)
	}
	return v
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}

func sortSegments(segs []struct {
	idx      int
	extended bool
	value    string
}) {
	for i := 1; i < len(segs); i++ {
		for j := i; j > 0 && segs[j].idx < segs[j-1].idx; j-- {
			segs[j], segs[j-1] = segs[j-1], segs[j]
		}
	}
}

func percentDecode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			if hi, ok1 := hexVal(s[i+1]); ok1 {
				if lo, ok2 := hexVal(s[i+2]); ok2 {
					b.WriteByte(byte(hi<<4 | lo))
					i += 2
					continue
				}
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func hexVal(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, true
	}
	return 0, false
}
