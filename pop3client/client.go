// Package pop3client implements a POP3 client (RFC 1939): the linear
// Authorization/Transaction/Update state machine gated on "+OK"/"-ERR"
// status replies, running over wire.POP3Scanner so multi-line bodies
// are de-stuffed before the caller ever sees them.
package pop3client

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/azdigi/mailgo/config"
	"github.com/azdigi/mailgo/internal/connstate"
	"github.com/azdigi/mailgo/wire"
)

// Client is a POP3 client.
type Client struct {
	conn    net.Conn
	encoder *wire.Encoder
	scanner *wire.POP3Scanner
	options *Options
	state   *connstate.Machine[State]

	// greeting holds the server's banner, which carries the APOP
	// timestamp-in-brackets challenge when offered.
	greeting string
}

// Error wraps a negative "-ERR" reply.
type Error struct{ Status string }

func (e *Error) Error() string { return "pop3: -ERR " + e.Status }

// New creates a Client from an existing connection and reads the
// server's greeting.
func New(conn net.Conn, opts ...Option) (*Client, error) {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	c := &Client{
		conn:    conn,
		encoder: wire.NewEncoder(conn),
		scanner: wire.NewPOP3Scanner(conn),
		options: options,
		state:   newStateMachine(),
	}

	reply, err := c.scanner.ReadStatusLine()
	if err != nil {
		return nil, fmt.Errorf("reading greeting: %w", err)
	}
	if !reply.OK {
		return nil, &Error{Status: reply.Status}
	}
	c.greeting = reply.Status
	return c, nil
}

// Dial connects to a POP3 server at addr, optionally over TLS if
// Options.TLSConfig is set.
func Dial(addr string, opts ...Option) (*Client, error) {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	var conn net.Conn
	var err error
	if options.TLSConfig != nil {
		conn, err = tlsDial(addr, options.TLSConfig)
	} else {
		conn, err = net.Dial("tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	return New(conn, opts...)
}

// State returns the client's current session state.
func (c *Client) State() State {
	return c.state.State()
}

// APOPChallenge returns the timestamp string embedded in the greeting
// banner's angle brackets, or "" if the server didn't offer APOP.
func (c *Client) APOPChallenge() string {
	start := strings.IndexByte(c.greeting, '<')
	end := strings.IndexByte(c.greeting, '>')
	if start < 0 || end < start {
		return ""
	}
	return c.greeting[start : end+1]
}

// sendCommand writes line as a single POP3 command (no trailing CRLF —
// CommandLine appends it) and reads back the status line.
func (c *Client) sendCommand(line string) (*wire.POP3Reply, error) {
	c.options.Logger.Log(context.Background(), config.LevelTrace, "pop3 send", "line", line)
	c.encoder.CommandLine(line)
	if err := c.encoder.Flush(); err != nil {
		return nil, err
	}
	reply, err := c.scanner.ReadStatusLine()
	if err != nil {
		return nil, err
	}
	c.options.Logger.Log(context.Background(), config.LevelTrace, "pop3 recv", "ok", reply.OK, "status", reply.Status)
	return reply, nil
}

// sendCommandMultiLine is sendCommand for commands whose successful
// reply is a dot-terminated multi-line block (LIST with no argument,
// RETR, TOP) rather than a single status line.
func (c *Client) sendCommandMultiLine(line string) (*wire.POP3Reply, error) {
	c.options.Logger.Log(context.Background(), config.LevelTrace, "pop3 send", "line", line)
	c.encoder.CommandLine(line)
	if err := c.encoder.Flush(); err != nil {
		return nil, err
	}
	reply, err := c.scanner.ReadMultiLine()
	if err != nil {
		return nil, err
	}
	c.options.Logger.Log(context.Background(), config.LevelTrace, "pop3 recv", "ok", reply.OK, "status", reply.Status)
	return reply, nil
}

func checkReply(reply *wire.POP3Reply) error {
	if !reply.OK {
		return &Error{Status: reply.Status}
	}
	return nil
}

// User sends USER for the plain USER/PASS login exchange.
func (c *Client) User(name string) error {
	if err := c.state.RequireState(StateAuthorization); err != nil {
		return err
	}
	reply, err := c.sendCommand("USER " + name)
	if err != nil {
		return err
	}
	return checkReply(reply)
}

// Pass sends PASS, completing the USER/PASS exchange.
func (c *Client) Pass(password string) error {
	if err := c.state.RequireState(StateAuthorization); err != nil {
		return err
	}
	reply, err := c.sendCommand("PASS " + password)
	if err != nil {
		return err
	}
	if err := checkReply(reply); err != nil {
		return err
	}
	return c.state.Transition(StateTransaction)
}

// APOP authenticates in a single round trip using the MD5 digest of
// the greeting's timestamp challenge concatenated with the shared
// secret (RFC 1939 §7).
func (c *Client) APOP(name, secret string) error {
	if err := c.state.RequireState(StateAuthorization); err != nil {
		return err
	}
	challenge := c.APOPChallenge()
	if challenge == "" {
		return fmt.Errorf("pop3: server did not offer an APOP timestamp")
	}
	sum := md5.Sum([]byte(challenge + secret))
	digest := hex.EncodeToString(sum[:])

	reply, err := c.sendCommand(fmt.Sprintf("APOP %s %s", name, digest))
	if err != nil {
		return err
	}
	if err := checkReply(reply); err != nil {
		return err
	}
	return c.state.Transition(StateTransaction)
}

// Stat returns the message count and total octet size of the mailbox.
func (c *Client) Stat() (count, octets int, err error) {
	if err := c.state.RequireState(StateTransaction); err != nil {
		return 0, 0, err
	}
	reply, err := c.sendCommand("STAT")
	if err != nil {
		return 0, 0, err
	}
	if err := checkReply(reply); err != nil {
		return 0, 0, err
	}
	fields := strings.Fields(reply.Status)
	if len(fields) < 2 {
		return 0, 0, fmt.Errorf("pop3: malformed STAT reply %q", reply.Status)
	}
	count, err = strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("pop3: malformed STAT count: %w", err)
	}
	octets, err = strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("pop3: malformed STAT octets: %w", err)
	}
	return count, octets, nil
}

// ListEntry is one message's number and octet size, as returned by
// LIST with no argument.
type ListEntry struct {
	Number int
	Octets int
}

// List returns the number and size of every undeleted message, or
// just the one named by n when n > 0.
func (c *Client) List(n int) ([]ListEntry, error) {
	if err := c.state.RequireState(StateTransaction); err != nil {
		return nil, err
	}
	if n > 0 {
		reply, err := c.sendCommand(fmt.Sprintf("LIST %d", n))
		if err != nil {
			return nil, err
		}
		if err := checkReply(reply); err != nil {
			return nil, err
		}
		entry, err := parseListLine(reply.Status)
		if err != nil {
			return nil, err
		}
		return []ListEntry{entry}, nil
	}

	reply, err := c.sendCommandMultiLine("LIST")
	if err != nil {
		return nil, err
	}
	if err := checkReply(reply); err != nil {
		return nil, err
	}
	entries := make([]ListEntry, 0, len(reply.Lines))
	for _, line := range reply.Lines {
		entry, err := parseListLine(line)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseListLine(line string) (ListEntry, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return ListEntry{}, fmt.Errorf("pop3: malformed LIST line %q", line)
	}
	num, err := strconv.Atoi(fields[0])
	if err != nil {
		return ListEntry{}, fmt.Errorf("pop3: malformed LIST number: %w", err)
	}
	octets, err := strconv.Atoi(fields[1])
	if err != nil {
		return ListEntry{}, fmt.Errorf("pop3: malformed LIST octets: %w", err)
	}
	return ListEntry{Number: num, Octets: octets}, nil
}

// Retr fetches the full RFC 822 text of message n.
func (c *Client) Retr(n int) ([]byte, error) {
	if err := c.state.RequireState(StateTransaction); err != nil {
		return nil, err
	}
	reply, err := c.sendCommandMultiLine(fmt.Sprintf("RETR %d", n))
	if err != nil {
		return nil, err
	}
	if err := checkReply(reply); err != nil {
		return nil, err
	}
	return []byte(strings.Join(reply.Lines, "\r\n") + "\r\n"), nil
}

// Top fetches the headers plus the first n lines of message msg's
// body.
func (c *Client) Top(msg, n int) ([]byte, error) {
	if err := c.state.RequireState(StateTransaction); err != nil {
		return nil, err
	}
	reply, err := c.sendCommandMultiLine(fmt.Sprintf("TOP %d %d", msg, n))
	if err != nil {
		return nil, err
	}
	if err := checkReply(reply); err != nil {
		return nil, err
	}
	return []byte(strings.Join(reply.Lines, "\r\n") + "\r\n"), nil
}

// Dele marks message n for deletion; deletions commit at QUIT.
func (c *Client) Dele(n int) error {
	if err := c.state.RequireState(StateTransaction); err != nil {
		return err
	}
	reply, err := c.sendCommand(fmt.Sprintf("DELE %d", n))
	if err != nil {
		return err
	}
	return checkReply(reply)
}

// Noop asks the server for a no-op positive reply, e.g. to keep the
// connection alive.
func (c *Client) Noop() error {
	if err := c.state.RequireState(StateTransaction); err != nil {
		return err
	}
	reply, err := c.sendCommand("NOOP")
	if err != nil {
		return err
	}
	return checkReply(reply)
}

// Rset unmarks every message scheduled for deletion this session.
func (c *Client) Rset() error {
	if err := c.state.RequireState(StateTransaction); err != nil {
		return err
	}
	reply, err := c.sendCommand("RSET")
	if err != nil {
		return err
	}
	return checkReply(reply)
}

// Quit commits pending deletions, closes the session, and closes the
// underlying connection.
func (c *Client) Quit() error {
	reply, err := c.sendCommand("QUIT")
	if err != nil {
		return err
	}
	if terr := c.state.Transition(StateUpdate); terr != nil {
		return terr
	}
	if err := checkReply(reply); err != nil {
		return err
	}
	return c.conn.Close()
}
