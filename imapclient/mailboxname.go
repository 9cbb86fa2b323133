package imapclient

import "github.com/azdigi/mailgo/internal/wireutf7"

// encodeMailboxName converts a caller-supplied UTF-8 mailbox name (or
// LIST reference/pattern) to the modified UTF-7 form the wire expects
// (RFC 3501 §5.1.3). Wildcards and other 7-bit atoms pass through
// unchanged; only non-ASCII runs get shifted.
func encodeMailboxName(name string) string {
	return wireutf7.Encode(name)
}

// decodeMailboxName converts a mailbox name read off the wire back to
// UTF-8. A malformed encoding is returned as-is rather than erroring,
// since a LIST response with one bad entry shouldn't fail the whole
// call.
func decodeMailboxName(name string) string {
	decoded, err := wireutf7.Decode(name)
	if err != nil {
		return name
	}
	return decoded
}
