package imapclient

import (
	"fmt"
	"strconv"
	"strings"

	mail "github.com/azdigi/mailgo"
)

// GetMetadata retrieves annotations for a mailbox (RFC 5464). An empty
// mailbox name addresses server-level metadata.
func (c *Client) GetMetadata(mailbox string, entries []string, opts *mail.MetadataOptions) (*mail.MetadataData, error) {
	c.collectUntagged()

	var optParts []string
	if opts != nil {
		if opts.MaxSize != nil {
			optParts = append(optParts, fmt.Sprintf("MAXSIZE %d", *opts.MaxSize))
		}
		if opts.Depth != "" {
			optParts = append(optParts, "DEPTH "+opts.Depth)
		}
	}

	entryList := make([]string, len(entries))
	for i, e := range entries {
		entryList[i] = quoteArg(e)
	}

	args := []string{quoteArg(encodeMailboxName(mailbox))}
	if len(optParts) > 0 {
		args = append(args, "("+strings.Join(optParts, " ")+")")
	}
	args = append(args, "("+strings.Join(entryList, " ")+")")

	result, err := c.execute("GETMETADATA", args...)
	if err != nil {
		return nil, err
	}
	if result.status != "OK" {
		return nil, &mail.IMAPError{StatusResponse: &mail.StatusResponse{
			Type: mail.StatusResponseType(result.status),
			Code: mail.ResponseCode(result.code),
			Text: result.text,
		}}
	}

	data := &mail.MetadataData{Mailbox: mailbox, Entries: make(map[string]*string)}
	for _, line := range c.collectUntagged() {
		if strings.HasPrefix(line, "METADATA ") {
			parseMetadataResponse(line[9:], data)
		}
	}
	return data, nil
}

// metadataInlineThreshold is the size at or above which a metadata value is
// sent as a literal rather than a quoted string (RFC 5464 §4.3 leaves
// the choice to the client; a quoted string can't represent a value
// containing a double quote or a newline in any case).
const metadataInlineThreshold = 80

// needsMetadataLiteral reports whether value can't be sent safely as
// an IMAP quoted string.
func needsMetadataLiteral(value string) bool {
	return len(value) >= metadataInlineThreshold || strings.ContainsAny(value, "\"\r\n")
}

// SetMetadata sets or removes one or more metadata entries for a
// mailbox (RFC 5464). A nil Value removes the entry. A short,
// quote-and-newline-free value is sent inline as a quoted string;
// anything larger goes out as a literal, using a non-synchronizing
// {n+} literal (RFC 7888) when the server advertises LITERAL+ so the
// command doesn't need a continuation round-trip.
func (c *Client) SetMetadata(mailbox string, entries []mail.MetadataEntry) error {
	tag := c.tags.Next()
	cmd := c.pending.Add(tag)
	nonSync := c.SupportsLiteralPlus()

	var buf strings.Builder
	buf.WriteString(tag)
	buf.WriteString(" SETMETADATA ")
	buf.WriteString(quoteArg(encodeMailboxName(mailbox)))
	buf.WriteString(" (")

	for i, e := range entries {
		if i > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(quoteArg(e.Name))
		buf.WriteByte(' ')
		if e.Value == nil {
			buf.WriteString("NIL")
			continue
		}
		if err := c.writeMetadataValue(cmd, &buf, *e.Value, nonSync); err != nil {
			c.pending.Complete(tag, &commandResult{err: err})
			return err
		}
	}
	buf.WriteString(")\r\n")

	c.encoder.RawString(buf.String())
	if err := c.encoder.Flush(); err != nil {
		c.pending.Complete(tag, &commandResult{err: err})
		return err
	}

	result := <-cmd.done
	return commandResultError(result)
}

// writeMetadataValue appends value to buf as an inline quoted string
// when safe, or flushes buf and streams value as a literal otherwise.
// For a synchronizing literal it sends what's buffered so far, waits
// for the server's "+" continuation, then writes the raw value bytes
// directly to the connection; buf is left empty for the caller to
// keep appending the rest of the command.
func (c *Client) writeMetadataValue(cmd *pendingCommand, buf *strings.Builder, value string, nonSync bool) error {
	if !needsMetadataLiteral(value) {
		buf.WriteString(quoteArg(value))
		return nil
	}

	if nonSync {
		buf.WriteString(fmt.Sprintf("{%d+}\r\n", len(value)))
		buf.WriteString(value)
		return nil
	}

	buf.WriteString(fmt.Sprintf("{%d}\r\n", len(value)))
	c.encoder.RawString(buf.String())
	buf.Reset()
	if err := c.encoder.Flush(); err != nil {
		return err
	}
	if _, err := c.waitForContinuation(cmd); err != nil {
		return err
	}
	_, err := c.conn.Write([]byte(value))
	return err
}

// parseMetadataResponse parses "* METADATA mailbox (entry value entry value ...)".
func parseMetadataResponse(s string, data *mail.MetadataData) {
	mailbox, rest := parseMailboxName(s)
	data.Mailbox = decodeMailboxName(mailbox)
	rest = strings.TrimLeft(rest, " ")
	if !strings.HasPrefix(rest, "(") {
		return
	}
	inner, _ := extractParenthesized(rest)
	for len(inner) > 0 {
		inner = strings.TrimLeft(inner, " ")
		if inner == "" {
			break
		}
		name, r := readQuotedOrAtom(inner)
		r = strings.TrimLeft(r, " ")
		if strings.HasPrefix(r, "NIL") {
			data.Entries[name] = nil
			inner = r[3:]
			continue
		}
		var size int64
		if strings.HasPrefix(r, "{") {
			end := strings.IndexByte(r, '}')
			if end > 0 {
				if n, err := strconv.ParseInt(r[1:end], 10, 64); err == nil {
					size = n
				}
			}
		}
		_ = size
		val, r2 := readQuotedOrAtom(r)
		data.Entries[name] = &val
		inner = strings.TrimLeft(r2, " ")
	}
}
