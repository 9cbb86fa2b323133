package mime

import (
	"bytes"
	"strings"
)

// Message is one node of a parsed MIME tree: either a leaf carrying
// raw (pre-decode) body bytes, or a multipart node carrying child
// Messages plus the exact preamble/epilogue text around them so a
// re-emission reproduces the original bytes when nothing was changed
// (within the header-form limits described on Emit).
type Message struct {
	Headers     Headers
	ContentType *ContentType
	Disposition *ContentDisposition

	// Body holds this part's raw, transfer-encoded bytes exactly as
	// they appeared in the source, for a leaf node. Empty for a
	// multipart node.
	Body []byte

	// Parts holds child nodes for a multipart/* message, in order.
	Parts []*Message
	// Preamble and Epilogue are the text before the first boundary and
	// after the closing boundary of a multipart body, preserved
	// verbatim (RFC 2046 §5.1 says both are ignored by conforming
	// readers but must still round-trip).
	Preamble string
	Epilogue string

	// Derived convenience fields, populated from headers at parse time.
	From    string
	To      string
	Subject string
}

// Parse parses a MIME message (or a single MIME part's header+body)
// from raw bytes, recursively splitting multipart bodies on their
// boundary and building a Message tree. It never transfer-decodes
// leaf bodies; call Message.DecodedBody for that.
func Parse(data []byte) (*Message, error) {
	return parsePart(data), nil
}

func parsePart(data []byte) *Message {
	headers, body := ParseHeaders(data)
	m := &Message{Headers: headers}

	ctVal, _ := headers.Get("Content-Type")
	m.ContentType = ParseContentType(ctVal)
	if cdVal, ok := headers.Get("Content-Disposition"); ok {
		m.Disposition = ParseContentDisposition(cdVal)
	}
	if from, ok := headers.Get("From"); ok {
		m.From = DecodeEncodedWords(from)
	}
	if to, ok := headers.Get("To"); ok {
		m.To = DecodeEncodedWords(to)
	}
	if subj, ok := headers.Get("Subject"); ok {
		m.Subject = DecodeEncodedWords(subj)
	}

	if m.ContentType.IsMultipart() && m.ContentType.Boundary() != "" {
		preamble, parts, epilogue := splitMultipart(body, m.ContentType.Boundary())
		m.Preamble = preamble
		m.Epilogue = epilogue
		for _, p := range parts {
			m.Parts = append(m.Parts, parsePart(p))
		}
		return m
	}

	m.Body = body
	return m
}

// splitMultipart splits body on "--boundary" delimiter lines per
// RFC 2046 §5.1.1, returning the preamble (before the first
// delimiter), each part's raw bytes, and the epilogue (after the
// closing "--boundary--" delimiter).
func splitMultipart(body []byte, boundary string) (preamble string, parts [][]byte, epilogue string) {
	delim := []byte("--" + boundary)
	closeDelim := []byte("--" + boundary + "--")

	segments := splitOnDelimiter(body, delim)
	if len(segments) == 0 {
		return string(body), nil, ""
	}
	preamble = string(trimTrailingNewline(segments[0]))

	for _, seg := range segments[1:] {
		if bytes.HasPrefix(seg, []byte("--")) {
			// This segment starts where the closing "--" of
			// "--boundary--" would appear if this was the final
			// delimiter; strip it and treat the rest as epilogue.
			rest := seg[2:]
			rest = trimLeadingNewline(rest)
			epilogue = string(rest)
			continue
		}
		content := trimLeadingNewline(seg)
		content = trimTrailingNewline(content)
		parts = append(parts, content)
	}
	_ = closeDelim
	return preamble, parts, epilogue
}

// splitOnDelimiter splits body on lines consisting of delim, returning
// the text before the first occurrence and the text following each
// occurrence (the segment following the last occurrence still carries
// its leading "--" if it was a closing delimiter, so the caller can
// distinguish a mid-stream delimiter from the closing one).
func splitOnDelimiter(body []byte, delim []byte) [][]byte {
	var segments [][]byte
	rest := body
	for {
		idx := bytes.Index(rest, delim)
		if idx < 0 {
			segments = append(segments, rest)
			break
		}
		segments = append(segments, rest[:idx])
		rest = rest[idx+len(delim):]
	}
	return segments
}

func trimLeadingNewline(b []byte) []byte {
	if bytes.HasPrefix(b, []byte("\r\n")) {
		return b[2:]
	}
	if bytes.HasPrefix(b, []byte("\n")) {
		return b[1:]
	}
	return b
}

func trimTrailingNewline(b []byte) []byte {
	if bytes.HasSuffix(b, []byte("\r\n")) {
		return b[:len(b)-2]
	}
	if bytes.HasSuffix(b, []byte("\n")) {
		return b[:len(b)-1]
	}
	return b
}

// DecodedBody returns the leaf body decoded per its
// Content-Transfer-Encoding, or nil for a multipart node.
func (m *Message) DecodedBody() []byte {
	if m.IsMultipart() {
		return nil
	}
	enc, _ := m.Headers.Get("Content-Transfer-Encoding")
	return DecodeTransferEncoding(m.Body, enc)
}

// DecodedText returns DecodedBody interpreted as text per the
// Content-Type's charset parameter.
func (m *Message) DecodedText() string {
	return decodeCharsetBytes(m.DecodedBody(), m.ContentType.Charset())
}

// IsMultipart reports whether this node has child parts.
func (m *Message) IsMultipart() bool {
	return m.ContentType.IsMultipart()
}

// Emit serializes the message back to bytes: headers in their parsed
// order, a blank line, then the body — reconstructed recursively for a
// multipart node using the original boundary, preamble and epilogue.
// Each header is written on one line as "Name: value" with CRLF line
// ends, so an unmodified parse tree of CRLF input reproduces the source
// bytes exactly when its headers were written that way; a folded header
// comes back unfolded.
func (m *Message) Emit() []byte {
	var b bytes.Buffer
	for _, h := range m.Headers {
		b.WriteString(h.Name)
		b.WriteString(": ")
		b.WriteString(h.Value)
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")

	if m.IsMultipart() {
		boundary := m.ContentType.Boundary()
		b.WriteString(m.Preamble)
		if m.Preamble != "" {
			b.WriteString("\r\n")
		}
		for _, p := range m.Parts {
			b.WriteString("--")
			b.WriteString(boundary)
			b.WriteString("\r\n")
			b.Write(p.Emit())
			b.WriteString("\r\n")
		}
		b.WriteString("--")
		b.WriteString(boundary)
		b.WriteString("--\r\n")
		b.WriteString(m.Epilogue)
	} else {
		b.Write(m.Body)
	}

	return b.Bytes()
}

// Equal reports whether m and other have the same header sequence and
// the same body bytes (recursively for multipart), the tree-equality
// notion Emit's round-trip guarantee is checked against.
func (m *Message) Equal(other *Message) bool {
	if other == nil {
		return false
	}
	if len(m.Headers) != len(other.Headers) {
		return false
	}
	for i := range m.Headers {
		if m.Headers[i] != other.Headers[i] {
			return false
		}
	}
	if len(m.Parts) != len(other.Parts) {
		return false
	}
	if len(m.Parts) == 0 {
		return bytes.Equal(m.Body, other.Body)
	}
	if strings.TrimRight(m.Preamble, "\r\n") != strings.TrimRight(other.Preamble, "\r\n") {
		return false
	}
	for i := range m.Parts {
		if !m.Parts[i].Equal(other.Parts[i]) {
			return false
		}
	}
	return true
}
