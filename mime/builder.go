package mime

import (
	"fmt"
	"strings"
	"time"
)

// maxLineChars is the hard per-line ceiling for generated output
// (RFC 2045 §2.1's 998-octet data line limit).
const maxLineChars = 998

// Attachment is one file-like part a builder can embed alongside the
// text body, transfer-encoded as base64.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// BuildOptions describes an outgoing message in terms a caller thinks
// in (a plain-text body, optional HTML alternative, optional
// attachments) rather than raw MIME structure.
type BuildOptions struct {
	From, To, Cc, Bcc, Subject string
	Date                       time.Time
	MessageIDHost              string

	PlainText   string
	HTML        string
	Attachments []Attachment
}

// Build assembles a Message tree from BuildOptions: a single leaf if
// there's only a plain-text body and no attachments, a
// multipart/alternative node if both plain and HTML bodies are given,
// and a multipart/mixed wrapper around that if there are attachments.
// Headers are emitted in a fixed canonical order: From, To, Cc, Bcc,
// Subject, Date, Message-ID, MIME-Version, Content-Type.
func Build(opts BuildOptions) *Message {
	body := buildBodyNode(opts)

	top := body
	if len(opts.Attachments) > 0 {
		boundary := NewBoundary()
		top = &Message{
			ContentType: &ContentType{Type: "multipart", Subtype: "mixed", Params: map[string]string{"boundary": boundary}},
			Parts:       append([]*Message{body}, buildAttachmentParts(opts.Attachments)...),
		}
	}

	top.Headers = buildTopHeaders(opts, top.ContentType)
	top.From = opts.From
	top.To = opts.To
	top.Subject = opts.Subject
	return top
}

func buildBodyNode(opts BuildOptions) *Message {
	switch {
	case opts.PlainText != "" && opts.HTML != "":
		boundary := NewBoundary()
		return &Message{
			ContentType: &ContentType{Type: "multipart", Subtype: "alternative", Params: map[string]string{"boundary": boundary}},
			Parts: []*Message{
				buildTextLeaf("text", "plain", opts.PlainText),
				buildTextLeaf("text", "html", opts.HTML),
			},
		}
	case opts.HTML != "":
		return buildTextLeaf("text", "html", opts.HTML)
	default:
		return buildTextLeaf("text", "plain", opts.PlainText)
	}
}

func buildTextLeaf(typ, subtype, text string) *Message {
	ct := &ContentType{Type: typ, Subtype: subtype, Params: map[string]string{"charset": "utf-8"}}
	encoded := EncodeQuotedPrintable([]byte(text))
	headers := Headers{
		{Name: "Content-Type", Value: fmt.Sprintf("%s/%s; charset=utf-8", typ, subtype)},
		{Name: "Content-Transfer-Encoding", Value: "quoted-printable"},
	}
	return &Message{Headers: headers, ContentType: ct, Body: []byte(encoded)}
}

func buildAttachmentParts(attachments []Attachment) []*Message {
	parts := make([]*Message, 0, len(attachments))
	for _, a := range attachments {
		ct := ParseContentType(a.ContentType)
		headers := Headers{
			{Name: "Content-Type", Value: fmt.Sprintf("%s; name=%q", a.ContentType, a.Filename)},
			{Name: "Content-Transfer-Encoding", Value: "base64"},
			{Name: "Content-Disposition", Value: fmt.Sprintf("attachment; filename=%q", a.Filename)},
		}
		body := EncodeBase64(a.Data)
		parts = append(parts, &Message{
			Headers:     headers,
			ContentType: ct,
			Disposition: &ContentDisposition{Disposition: "attachment", Params: map[string]string{"filename": a.Filename}},
			Body:        []byte(body),
		})
	}
	return parts
}

func buildTopHeaders(opts BuildOptions, ct *ContentType) Headers {
	var h Headers
	add := func(name, value string) {
		if value == "" {
			return
		}
		h = append(h, Header{Name: name, Value: foldHeaderValue(name, value)})
	}
	add("From", opts.From)
	add("To", opts.To)
	add("Cc", opts.Cc)
	add("Bcc", opts.Bcc)
	add("Subject", opts.Subject)

	date := opts.Date
	if date.IsZero() {
		date = time.Unix(0, 0).UTC()
	}
	add("Date", date.Format(time.RFC1123Z))
	add("Message-ID", NewMessageID(opts.MessageIDHost))
	add("MIME-Version", "1.0")

	ctValue := ct.Full()
	for k, v := range ct.Params {
		ctValue += fmt.Sprintf("; %s=%q", k, v)
	}
	add("Content-Type", ctValue)

	return h
}

// foldHeaderValue replaces a space with a CRLF+space fold wherever the
// next word would otherwise carry a line of the emitted "name: value"
// header past maxLineChars octets. Folds only happen at spaces: a single
// word longer than a line is left unbroken.
func foldHeaderValue(name, value string) string {
	if len(name)+2+len(value) <= maxLineChars {
		return value
	}
	var b strings.Builder
	lineLen := len(name) + 2
	for i, r := range value {
		if r == ' ' && lineLen > 1 {
			next := strings.IndexByte(value[i+1:], ' ')
			if next < 0 {
				next = len(value) - i - 1
			}
			if lineLen+1+next > maxLineChars {
				b.WriteString("\r\n ")
				lineLen = 1
				continue
			}
		}
		b.WriteRune(r)
		lineLen += len(string(r))
	}
	return b.String()
}
