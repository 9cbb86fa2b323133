package imapclient

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	mail "github.com/azdigi/mailgo"
)

// TestScenarioLoginSelectINBOX exercises login followed by LIST and
// SELECT INBOX against the worked example of a greeting, a LOGIN
// exchange, an empty-pattern LIST, and a SELECT reporting mailbox
// state.
func TestScenarioLoginSelectINBOX(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- func() error {
			r := bufio.NewReader(serverConn)
			fmt.Fprint(serverConn, "* OK IMAP4rev1 ready\r\n")

			line, err := r.ReadString('\n')
			if err != nil {
				return err
			}
			if line != "A1 LOGIN user pass\r\n" {
				return fmt.Errorf("unexpected line: %q", line)
			}
			fmt.Fprint(serverConn, "A1 OK [CAPABILITY IMAP4rev1 IDLE] logged in\r\n")

			line, err = r.ReadString('\n')
			if err != nil {
				return err
			}
			if line != "A2 LIST \"\" \"\"\r\n" {
				return fmt.Errorf("unexpected line: %q", line)
			}
			fmt.Fprint(serverConn, "* LIST (\\Noselect) \"/\" \"\"\r\nA2 OK done\r\n")

			line, err = r.ReadString('\n')
			if err != nil {
				return err
			}
			if line != "A3 SELECT INBOX\r\n" {
				return fmt.Errorf("unexpected line: %q", line)
			}
			fmt.Fprint(serverConn, "* 172 EXISTS\r\n* 1 RECENT\r\n"+
				"* OK [UIDVALIDITY 3857529045] UIDs valid\r\n"+
				"* OK [UIDNEXT 4392] Predicted\r\n"+
				"A3 OK [READ-WRITE] Selected\r\n")
			return nil
		}()
	}()

	c, err := New(clientConn)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer c.Close()

	if err := c.Login("user", "pass"); err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	mailboxes, err := c.ListMailboxes("", "")
	if err != nil {
		t.Fatalf("ListMailboxes() error: %v", err)
	}
	if len(mailboxes) != 1 || mailboxes[0].Delim != '/' {
		t.Fatalf("ListMailboxes() = %+v, want one entry with delim '/'", mailboxes)
	}

	data, err := c.Select("INBOX", nil)
	if err != nil {
		t.Fatalf("Select() error: %v", err)
	}
	if data.NumMessages != 172 {
		t.Errorf("NumMessages = %d, want 172", data.NumMessages)
	}
	if data.UIDValidity != 3857529045 {
		t.Errorf("UIDValidity = %d, want 3857529045", data.UIDValidity)
	}
	if data.UIDNext != 4392 {
		t.Errorf("UIDNext = %d, want 4392", data.UIDNext)
	}
	if c.State() != mail.ConnStateSelected {
		t.Errorf("State() = %v, want Selected", c.State())
	}

	select {
	case err := <-serverDone:
		if err != nil {
			t.Fatalf("server: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not finish in time")
	}
}

// TestScenarioIdleCycle exercises IDLE: continuation request, an
// unsolicited EXISTS while idling, DONE, and tagged completion.
func TestScenarioIdleCycle(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- func() error {
			r := bufio.NewReader(serverConn)
			fmt.Fprint(serverConn, "* OK ready\r\n")

			line, err := r.ReadString('\n')
			if err != nil {
				return err
			}
			if line != "A1 IDLE\r\n" {
				return fmt.Errorf("unexpected line: %q", line)
			}
			fmt.Fprint(serverConn, "+ idling\r\n")
			fmt.Fprint(serverConn, "* 173 EXISTS\r\n")

			line, err = r.ReadString('\n')
			if err != nil {
				return err
			}
			if line != "DONE\r\n" {
				return fmt.Errorf("unexpected line: %q", line)
			}
			fmt.Fprint(serverConn, "A1 OK IDLE terminated\r\n")
			return nil
		}()
	}()

	c, err := New(clientConn)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer c.Close()

	events, unsubscribe := c.Events().Subscribe()
	defer unsubscribe()

	idle, err := c.Idle()
	if err != nil {
		t.Fatalf("Idle() error: %v", err)
	}

	select {
	case ev := <-events:
		if ev.Type != EventExists || ev.Num != 173 {
			t.Fatalf("event = %+v, want Exists(173)", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Exists event")
	}

	if err := idle.Done(); err != nil {
		t.Fatalf("idle.Done() error: %v", err)
	}

	select {
	case err := <-serverDone:
		if err != nil {
			t.Fatalf("server: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not finish in time")
	}
}

// TestScenarioStoreAddFlag exercises STORE +FLAGS (\Seen), confirming
// the untagged FETCH responses it triggers report \Seen in each
// message's flag set.
func TestScenarioStoreAddFlag(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- func() error {
			r := bufio.NewReader(serverConn)
			fmt.Fprint(serverConn, "* OK ready\r\n")

			line, err := r.ReadString('\n')
			if err != nil {
				return err
			}
			if line != "A1 STORE 2:4 +FLAGS (\\Seen)\r\n" {
				return fmt.Errorf("unexpected line: %q", line)
			}
			fmt.Fprint(serverConn, "* 2 FETCH (FLAGS (\\Seen))\r\n"+
				"* 3 FETCH (FLAGS (\\Seen))\r\n"+
				"* 4 FETCH (FLAGS (\\Seen))\r\n"+
				"A1 OK STORE completed\r\n")
			return nil
		}()
	}()

	c, err := New(clientConn)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer c.Close()

	c.collectFetchUnits()
	if err := c.Store("2:4", mail.StoreFlagsAdd, []mail.Flag{mail.FlagSeen}, false); err != nil {
		t.Fatalf("Store() error: %v", err)
	}

	units := c.collectFetchUnits()
	if len(units) != 3 {
		t.Fatalf("len(units) = %d, want 3", len(units))
	}
	for _, fu := range units {
		item := parseFetchUnit(fu.seqNum, fu.unit)
		found := false
		for _, f := range item.Flags {
			if f == mail.FlagSeen {
				found = true
			}
		}
		if !found {
			t.Errorf("seq %d: Flags = %v, want \\Seen present", fu.seqNum, item.Flags)
		}
	}

	select {
	case err := <-serverDone:
		if err != nil {
			t.Fatalf("server: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not finish in time")
	}
}

// TestScenarioSelectQResync exercises a SELECT with a QRESYNC
// select-param-list, confirming the client only sends it when the
// server advertises QRESYNC and that HIGHESTMODSEQ lands in
// SelectData.
func TestScenarioSelectQResync(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- func() error {
			r := bufio.NewReader(serverConn)
			fmt.Fprint(serverConn, "* PREAUTH [CAPABILITY IMAP4rev1 QRESYNC CONDSTORE ENABLE] ready\r\n")

			line, err := r.ReadString('\n')
			if err != nil {
				return err
			}
			if line != "A1 SELECT INBOX (QRESYNC (67890007 90060115 41:443))\r\n" {
				return fmt.Errorf("unexpected line: %q", line)
			}
			fmt.Fprint(serverConn, "* 172 EXISTS\r\n"+
				"* OK [UIDVALIDITY 67890007] UIDs valid\r\n"+
				"* OK [UIDNEXT 600] Predicted\r\n"+
				"* OK [HIGHESTMODSEQ 90060115] Highest\r\n"+
				"* VANISHED (EARLIER) 41,43:116,118,120:211,214:540\r\n"+
				"A1 OK [READ-WRITE] Selected\r\n")
			return nil
		}()
	}()

	c, err := New(clientConn)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer c.Close()

	events, unsubscribe := c.Events().Subscribe()
	defer unsubscribe()

	knownUIDs, err := mail.ParseUIDSet("41:443")
	if err != nil {
		t.Fatalf("ParseUIDSet() error: %v", err)
	}
	opts := &mail.SelectOptions{
		QResync: &mail.SelectQResync{
			UIDValidity: 67890007,
			ModSeq:      90060115,
			KnownUIDs:   knownUIDs,
		},
	}

	data, err := c.Select("INBOX", opts)
	if err != nil {
		t.Fatalf("Select() error: %v", err)
	}
	if data.HighestModSeq != 90060115 {
		t.Errorf("HighestModSeq = %d, want 90060115", data.HighestModSeq)
	}
	if data.UIDValidity != 67890007 {
		t.Errorf("UIDValidity = %d, want 67890007", data.UIDValidity)
	}

	// The "* 172 EXISTS" line precedes VANISHED and is published first.
	if ev := <-events; ev.Type != EventExists || ev.Num != 172 {
		t.Fatalf("first event = %+v, want EventExists(172)", ev)
	}

	select {
	case ev := <-events:
		if ev.Type != EventVanished || !ev.Earlier {
			t.Fatalf("event = %+v, want EventVanished(Earlier)", ev)
		}
		uids := ev.VanishedUIDs()
		if len(uids) == 0 || uids[0] != 41 {
			t.Errorf("VanishedUIDs()[0] = %v, want first UID 41", uids)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Vanished event")
	}

	select {
	case err := <-serverDone:
		if err != nil {
			t.Fatalf("server: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not finish in time")
	}
}

// TestScenarioSelectCondStoreRejectedWithoutCapability confirms Select
// refuses to send CONDSTORE when the server never advertised it,
// rather than sending a param-list the server can't parse.
func TestScenarioSelectCondStoreRejectedWithoutCapability(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	go func() {
		fmt.Fprint(serverConn, "* OK [CAPABILITY IMAP4rev1] ready\r\n")
	}()

	c, err := New(clientConn)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer c.Close()

	_, err = c.Select("INBOX", &mail.SelectOptions{CondStore: true})
	if err == nil {
		t.Fatal("Select() with CondStore should fail without CONDSTORE capability")
	}
}

// TestScenarioAppendLiteralPlus exercises APPEND against a server
// advertising LITERAL+, confirming the client streams the message
// literal with a non-synchronizing {n+} tag and never waits for a
// "+" continuation.
func TestScenarioAppendLiteralPlus(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	body := "Subject: hi\r\n\r\nhello\r\n"

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- func() error {
			r := bufio.NewReader(serverConn)
			fmt.Fprint(serverConn, "* OK [CAPABILITY IMAP4rev1 LITERAL+] ready\r\n")

			line, err := r.ReadString('\n')
			if err != nil {
				return err
			}
			want := fmt.Sprintf("A1 APPEND INBOX (\\Seen) {%d+}\r\n", len(body))
			if line != want {
				return fmt.Errorf("unexpected line: %q, want %q", line, want)
			}

			buf := make([]byte, len(body)+2)
			if _, err := io.ReadFull(r, buf); err != nil {
				return err
			}
			if string(buf) != body+"\r\n" {
				return fmt.Errorf("unexpected literal: %q", buf)
			}

			fmt.Fprint(serverConn, "A1 OK [APPENDUID 38505 3955] APPEND completed\r\n")
			return nil
		}()
	}()

	c, err := New(clientConn)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer c.Close()

	data, err := c.Append("INBOX", []mail.Flag{mail.FlagSeen}, []byte(body))
	if err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	if data.UIDValidity != 38505 || data.UID != 3955 {
		t.Errorf("AppendData = %+v, want UIDValidity=38505 UID=3955", data)
	}

	select {
	case err := <-serverDone:
		if err != nil {
			t.Fatalf("server: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not finish in time")
	}
}

// TestScenarioSetMetadataLiteral exercises SETMETADATA with a value
// that exceeds the inline threshold, confirming it goes out as a
// synchronizing literal (server advertises no LITERAL+) and the
// client correctly waits for the "+" continuation before streaming
// the value bytes.
func TestScenarioSetMetadataLiteral(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	value := strings.Repeat("x", 200)

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- func() error {
			r := bufio.NewReader(serverConn)
			fmt.Fprint(serverConn, "* OK [CAPABILITY IMAP4rev1] ready\r\n")

			line, err := r.ReadString('\n')
			if err != nil {
				return err
			}
			want := fmt.Sprintf("A1 SETMETADATA INBOX (/private/comment {%d}\r\n", len(value))
			if line != want {
				return fmt.Errorf("unexpected line: %q, want %q", line, want)
			}
			fmt.Fprint(serverConn, "+ go ahead\r\n")

			buf := make([]byte, len(value)+1)
			if _, err := io.ReadFull(r, buf); err != nil {
				return err
			}
			if string(buf) != value+")" {
				return fmt.Errorf("unexpected literal tail: %q", buf)
			}

			line, err = r.ReadString('\n')
			if err != nil {
				return err
			}
			if line != "\r\n" {
				return fmt.Errorf("unexpected trailing line: %q", line)
			}

			fmt.Fprint(serverConn, "A1 OK SETMETADATA completed\r\n")
			return nil
		}()
	}()

	c, err := New(clientConn)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer c.Close()

	err = c.SetMetadata("INBOX", []mail.MetadataEntry{
		{Name: "/private/comment", Value: &value},
	})
	if err != nil {
		t.Fatalf("SetMetadata() error: %v", err)
	}

	select {
	case err := <-serverDone:
		if err != nil {
			t.Fatalf("server: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not finish in time")
	}
}
