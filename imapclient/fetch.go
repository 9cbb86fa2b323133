package imapclient

import (
	"fmt"
	"strconv"
	"strings"

	mail "github.com/azdigi/mailgo"
	"github.com/azdigi/mailgo/wire"
)

// fetchUnit pairs a FETCH response's sequence number with the raw unit
// the framer produced, literal bytes included.
type fetchUnit struct {
	seqNum uint32
	unit   *wire.ResponseUnit
}

// FetchItem is one message's FETCH results. Section bodies are kept as
// the exact bytes the server sent — including any embedded CRLFs —
// since they came from a byte-counted literal rather than a scanned
// line. ENVELOPE and BODYSTRUCTURE are parsed into their structured
// form via wire.Decoder (see envelope.go); the unparsed parenthesized
// text is kept alongside for callers that hit a server quirk the
// parser rejects.
type FetchItem struct {
	SeqNum           uint32
	UID              mail.UID
	Flags            []mail.Flag
	InternalDate     string
	Size             uint32
	Envelope         *mail.Envelope
	BodyStructure    *mail.BodyStructure
	EnvelopeRaw      string
	BodyStructureRaw string
	// Sections maps a FETCH data item name (e.g. "BODY[TEXT]",
	// "BODY[HEADER]") to its literal bytes, for items the server sent
	// as a literal. Non-literal nstring values for the same items are
	// also stored here for uniformity.
	Sections map[string][]byte
}

// Fetch retrieves typed message data for the given sequence set,
// reassembling literal-valued sections (BODY[...], RFC822, RFC822.TEXT)
// from the framer's raw byte counts rather than scanned text.
func (c *Client) Fetch(seqSet string, items string) ([]*FetchItem, error) {
	c.collectUntagged()
	c.collectFetchUnits()

	result, err := c.execute("FETCH", seqSet, items)
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

	units := c.collectFetchUnits()
	items2 := make([]*FetchItem, 0, len(units))
	for _, fu := range units {
		items2 = append(items2, parseFetchUnit(fu.seqNum, fu.unit))
	}
	return items2, nil
}

// UIDFetch retrieves typed message data using UIDs.
func (c *Client) UIDFetch(uidSet string, items string) ([]*FetchItem, error) {
	c.collectUntagged()
	c.collectFetchUnits()

	result, err := c.execute("UID FETCH", uidSet, items)
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

	units := c.collectFetchUnits()
	items2 := make([]*FetchItem, 0, len(units))
	for _, fu := range units {
		items2 = append(items2, parseFetchUnit(fu.seqNum, fu.unit))
	}
	return items2, nil
}

// parseFetchUnit walks a FETCH response unit's text segments in order,
// attributing each literal to the data-item key ("BODY[...]", etc.)
// that immediately preceded it.
func parseFetchUnit(seqNum uint32, unit *wire.ResponseUnit) *FetchItem {
	item := &FetchItem{SeqNum: seqNum, Sections: make(map[string][]byte)}

	pending, rest := applyFetchTokens(item, stripFetchPrefix(unit.Head))
	for i, part := range unit.Parts {
		if pending != "" {
			item.Sections[pending] = part.Data
		} else {
			item.Sections[fmt.Sprintf("#%d", i)] = part.Data
		}
		_ = rest
		pending, rest = applyFetchTokens(item, part.Text)
	}

	if item.EnvelopeRaw != "" {
		if env, err := parseEnvelope(item.EnvelopeRaw); err == nil {
			item.Envelope = env
		}
	}
	if item.BodyStructureRaw != "" {
		if bs, err := parseBodyStructure(item.BodyStructureRaw); err == nil {
			item.BodyStructure = bs
		}
	}

	return item
}

// applyFetchTokens consumes key/value pairs from s, filling in item's
// scalar fields. It returns the data-item key left dangling at the end
// of s (if s ends right after a "BODY[section]"-style key with no
// value — the value is the literal that follows in the next part) and
// whatever trailing text could not be parsed as a recognized key.
func applyFetchTokens(item *FetchItem, s string) (pendingKey, rest string) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "("))
	for {
		s = strings.TrimLeft(s, " ")
		s = strings.TrimPrefix(s, ")")
		s = strings.TrimLeft(s, " ")
		if s == "" {
			return "", ""
		}

		key, after := readFetchAtom(s)
		if key == "" {
			return "", s
		}
		after = strings.TrimLeft(after, " ")
		upperKey := strings.ToUpper(key)

		switch {
		case upperKey == "UID":
			val, r2 := readQuotedOrAtom(after)
			if n, err := strconv.ParseUint(val, 10, 32); err == nil {
				item.UID = mail.UID(n)
			}
			s = r2
		case upperKey == "FLAGS":
			if strings.HasPrefix(after, "(") {
				inner, r2 := extractParenthesized(after)
				for _, f := range strings.Fields(inner) {
					item.Flags = append(item.Flags, mail.Flag(f))
				}
				s = r2
			} else {
				s = after
			}
		case upperKey == "RFC822.SIZE":
			val, r2 := readQuotedOrAtom(after)
			if n, err := strconv.ParseUint(val, 10, 32); err == nil {
				item.Size = uint32(n)
			}
			s = r2
		case upperKey == "INTERNALDATE":
			val, r2 := readQuotedOrAtom(after)
			item.InternalDate = val
			s = r2
		case upperKey == "ENVELOPE":
			if strings.HasPrefix(after, "(") {
				inner, r2 := extractParenthesized(after)
				item.EnvelopeRaw = inner
				s = r2
			} else {
				s = after
			}
		case upperKey == "BODYSTRUCTURE" || upperKey == "BODY" && strings.HasPrefix(after, "("):
			if strings.HasPrefix(after, "(") {
				inner, r2 := extractParenthesized(after)
				item.BodyStructureRaw = inner
				s = r2
			} else {
				s = after
			}
		case strings.HasPrefix(upperKey, "BODY[") || strings.HasPrefix(upperKey, "BODY.PEEK[") ||
			upperKey == "RFC822" || upperKey == "RFC822.TEXT" || upperKey == "RFC822.HEADER":
			if after == "" {
				// The literal for this key lives in the next part.
				return key, ""
			}
			if strings.HasPrefix(after, "NIL") {
				item.Sections[key] = nil
				s = after[3:]
				continue
			}
			val, r2 := readQuotedOrAtom(after)
			item.Sections[key] = []byte(val)
			s = r2
		default:
			// Unrecognized key: skip its value (atom, quoted string, or
			// parenthesized list) and move on.
			if strings.HasPrefix(after, "(") {
				_, r2 := extractParenthesized(after)
				s = r2
			} else {
				_, r2 := readQuotedOrAtom(after)
				s = r2
			}
		}
	}
}

// stripFetchPrefix removes the "* N FETCH " (or "* N FETCH(") prefix a
// response unit's head line carries, leaving only the parenthesized
// data-item list applyFetchTokens expects.
func stripFetchPrefix(head string) string {
	idx := strings.Index(strings.ToUpper(head), "FETCH")
	if idx < 0 {
		return head
	}
	return head[idx+len("FETCH"):]
}

// readFetchAtom reads a FETCH data-item name, which — unlike a plain
// IMAP atom — may contain '[', ']' and '<', '>' (section specifiers
// and partial ranges, e.g. "BODY[HEADER.FIELDS (TO)]<0.100>").
func readFetchAtom(s string) (string, string) {
	if s == "" || s[0] == '(' || s[0] == ')' {
		return "", s
	}
	i := 0
	depth := 0
	for i < len(s) {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
		case ' ':
			if depth == 0 {
				return s[:i], s[i:]
			}
		case '(':
			if depth == 0 {
				return s[:i], s[i:]
			}
		}
		i++
	}
	return s, ""
}
