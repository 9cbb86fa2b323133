package smtpclient

import "github.com/azdigi/mailgo/internal/connstate"

// State is one node of the SMTP session state graph (RFC 5321 §3.3):
// Connected → Greeted → (optional STARTTLS cycle) → Authenticated →
// (MAIL → RCPT → DATA → Sent)* → Quit.
type State int

const (
	StateConnected State = iota
	StateGreeted
	StateAuthenticated
	StateMail
	StateRcpt
	StateData
	StateSent
	StateQuit
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "Connected"
	case StateGreeted:
		return "Greeted"
	case StateAuthenticated:
		return "Authenticated"
	case StateMail:
		return "Mail"
	case StateRcpt:
		return "Rcpt"
	case StateData:
		return "Data"
	case StateSent:
		return "Sent"
	case StateQuit:
		return "Quit"
	default:
		return "Unknown"
	}
}

func transitions() map[State][]State {
	return map[State][]State{
		StateConnected:     {StateGreeted},
		StateGreeted:       {StateConnected, StateAuthenticated, StateMail, StateQuit},
		StateAuthenticated: {StateMail, StateQuit},
		StateMail:          {StateRcpt, StateQuit},
		StateRcpt:          {StateRcpt, StateData, StateQuit},
		StateData:          {StateSent, StateQuit},
		StateSent:          {StateAuthenticated, StateMail, StateQuit},
	}
}

func newStateMachine() *connstate.Machine[State] {
	return connstate.New(StateConnected, transitions())
}
