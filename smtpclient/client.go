// Package smtpclient implements an SMTP client (RFC 5321): the linear
// EHLO/STARTTLS/AUTH/MAIL/RCPT/DATA pipeline, status-code gated at
// every transition, running over wire.SMTPScanner so a multi-line
// reply is never mistaken for several replies.
package smtpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	imapauth "github.com/azdigi/mailgo/auth"
	"github.com/azdigi/mailgo/config"
	"github.com/azdigi/mailgo/internal/connstate"
	"github.com/azdigi/mailgo/wire"
)

// Client is an SMTP client.
type Client struct {
	conn    net.Conn
	encoder *wire.Encoder
	scanner *wire.SMTPScanner
	options *Options
	state   *connstate.Machine[State]

	caps map[string][]string
}

// PermanentError is a 5yz reply: the command cannot succeed as sent.
type PermanentError struct{ Reply *wire.SMTPReply }

func (e *PermanentError) Error() string {
	return fmt.Sprintf("smtp: permanent failure %d: %s", e.Reply.Code, e.Reply.Text())
}

// TransientError is a 4yz reply: the command may succeed if retried.
type TransientError struct{ Reply *wire.SMTPReply }

func (e *TransientError) Error() string {
	return fmt.Sprintf("smtp: transient failure %d: %s", e.Reply.Code, e.Reply.Text())
}

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
		scanner: wire.NewSMTPScanner(conn),
		options: options,
		state:   newStateMachine(),
		caps:    make(map[string][]string),
	}

	reply, err := c.scanner.ReadReply()
	if err != nil {
		return nil, fmt.Errorf("reading greeting: %w", err)
	}
	if err := checkReply(reply); err != nil {
		return nil, err
	}
	if err := c.state.Transition(StateGreeted); err != nil {
		return nil, err
	}
	return c, nil
}

// Dial connects to an SMTP server at addr.
func Dial(addr string, opts ...Option) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	return New(conn, opts...)
}

// State returns the client's current session state.
func (c *Client) State() State {
	return c.state.State()
}

// checkReply classifies a reply per RFC 5321 §4.2.1: 2yz/3yz is
// success, 4yz is transient, 5yz is permanent.
func checkReply(reply *wire.SMTPReply) error {
	switch {
	case reply.Code >= 200 && reply.Code < 400:
		return nil
	case reply.Code >= 400 && reply.Code < 500:
		return &TransientError{Reply: reply}
	default:
		return &PermanentError{Reply: reply}
	}
}

// sendCommand writes line as a single SMTP command (no trailing CRLF —
// CommandLine appends it) and reads back the reply.
func (c *Client) sendCommand(line string) (*wire.SMTPReply, error) {
	c.options.Logger.Log(context.Background(), config.LevelTrace, "smtp send", "line", line)
	c.encoder.CommandLine(line)
	if err := c.encoder.Flush(); err != nil {
		return nil, err
	}
	reply, err := c.scanner.ReadReply()
	if err != nil {
		return nil, err
	}
	c.options.Logger.Log(context.Background(), config.LevelTrace, "smtp recv", "code", reply.Code, "text", reply.Text())
	return reply, nil
}

// Ehlo sends EHLO and parses the capability lines into caps, falling
// back to HELO if the server doesn't understand EHLO.
func (c *Client) Ehlo() error {
	reply, err := c.sendCommand("EHLO " + c.options.LocalName)
	if err != nil {
		return err
	}
	if reply.Code >= 500 {
		reply, err = c.sendCommand("HELO " + c.options.LocalName)
		if err != nil {
			return err
		}
		return checkReply(reply)
	}
	if err := checkReply(reply); err != nil {
		return err
	}
	for i, line := range reply.Lines {
		if i == 0 {
			continue // greeting text, not a capability
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		name := strings.ToUpper(fields[0])
		c.caps[name] = fields[1:]
	}
	return nil
}

// HasCap reports whether the server advertised the named EHLO keyword.
func (c *Client) HasCap(name string) bool {
	_, ok := c.caps[strings.ToUpper(name)]
	return ok
}

// StartTLS upgrades the connection to TLS (RFC 3207).
func (c *Client) StartTLS() error {
	reply, err := c.sendCommand("STARTTLS")
	if err != nil {
		return err
	}
	if err := checkReply(reply); err != nil {
		return err
	}
	if err := c.state.Transition(StateConnected); err != nil {
		return err
	}
	if c.options.TLSConfig == nil {
		return errNoTLSConfig
	}

	tlsConn := tls.Client(c.conn, c.options.TLSConfig)
	if err := tlsConn.HandshakeContext(context.Background()); err != nil {
		return fmt.Errorf("TLS handshake: %w", err)
	}
	c.conn = tlsConn
	c.encoder = wire.NewEncoder(tlsConn)
	c.scanner = wire.NewSMTPScanner(tlsConn)
	c.caps = make(map[string][]string)

	return c.Ehlo2()
}

// Ehlo2 re-issues EHLO (used after STARTTLS, where prior capabilities
// are invalidated) and folds the resulting state into Greeted.
func (c *Client) Ehlo2() error {
	if err := c.Ehlo(); err != nil {
		return err
	}
	return c.state.Transition(StateGreeted)
}

// Auth authenticates using the given SASL mechanism (LOGIN or PLAIN).
func (c *Client) Auth(mechanism imapauth.ClientMechanism) error {
	ir, err := mechanism.Start()
	if err != nil {
		return fmt.Errorf("SASL start: %w", err)
	}

	line := "AUTH " + mechanism.Name()
	if ir != nil {
		line += " " + encodeBase64(ir)
	}
	reply, err := c.sendCommand(line)
	if err != nil {
		return err
	}

	for reply.Code == 334 {
		challenge, derr := decodeBase64(reply.Text())
		if derr != nil {
			return fmt.Errorf("decoding challenge: %w", derr)
		}
		response, merr := mechanism.Next(challenge)
		if merr != nil {
			return fmt.Errorf("SASL response: %w", merr)
		}
		reply, err = c.sendCommand(encodeBase64(response))
		if err != nil {
			return err
		}
	}

	if err := checkReply(reply); err != nil {
		return err
	}
	return c.state.Transition(StateAuthenticated)
}

// Mail begins a message transaction with the envelope sender.
func (c *Client) Mail(from string) error {
	if err := c.requireAny(StateGreeted, StateAuthenticated, StateSent); err != nil {
		return err
	}
	reply, err := c.sendCommand(fmt.Sprintf("MAIL FROM:<%s>", from))
	if err != nil {
		return err
	}
	if err := checkReply(reply); err != nil {
		return err
	}
	return c.state.Transition(StateMail)
}

// Rcpt adds one envelope recipient. Call once per recipient.
func (c *Client) Rcpt(to string) error {
	reply, err := c.sendCommand(fmt.Sprintf("RCPT TO:<%s>", to))
	if err != nil {
		return err
	}
	if err := checkReply(reply); err != nil {
		return err
	}
	return c.state.Transition(StateRcpt)
}

// Data sends the DATA command, dot-stuffs body per line, and waits for
// the final reply after the "\r\n.\r\n" terminator.
func (c *Client) Data(body []byte) error {
	reply, err := c.sendCommand("DATA")
	if err != nil {
		return err
	}
	if reply.Code != 354 {
		return checkReply(reply)
	}
	if err := c.state.Transition(StateData); err != nil {
		return err
	}

	stuffed := DotStuff(body)
	if _, err := c.conn.Write(stuffed); err != nil {
		return err
	}
	terminator := "\r\n.\r\n"
	if bytes.HasSuffix(stuffed, []byte("\r\n")) {
		terminator = ".\r\n"
	}
	if _, err := io.WriteString(c.conn, terminator); err != nil {
		return err
	}

	reply, err = c.scanner.ReadReply()
	if err != nil {
		return err
	}
	if err := checkReply(reply); err != nil {
		return err
	}
	return c.state.Transition(StateSent)
}

// Quit sends QUIT and closes the connection.
func (c *Client) Quit() error {
	reply, err := c.sendCommand("QUIT")
	_ = c.state.Transition(StateQuit)
	closeErr := c.conn.Close()
	if err != nil {
		return err
	}
	if reply != nil {
		if err := checkReply(reply); err != nil {
			return err
		}
	}
	return closeErr
}

func (c *Client) requireAny(allowed ...State) error {
	return c.state.RequireState(allowed...)
}

var errNoTLSConfig = errors.New("smtpclient: StartTLS requires Options.TLSConfig")
