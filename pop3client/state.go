package pop3client

import "github.com/azdigi/mailgo/internal/connstate"

// State is one node of the POP3 session state graph (RFC 1939 §3):
// Authorization (USER/PASS or APOP) → Transaction (STAT/LIST/RETR/DELE/
// NOOP/RSET/TOP) → Update (entered by QUIT, which commits DELEs and
// closes the connection).
type State int

const (
	StateAuthorization State = iota
	StateTransaction
	StateUpdate
)

func (s State) String() string {
	switch s {
	case StateAuthorization:
		return "Authorization"
	case StateTransaction:
		return "Transaction"
	case StateUpdate:
		return "Update"
	default:
		return "Unknown"
	}
}

func transitions() map[State][]State {
	return map[State][]State{
		StateAuthorization: {StateAuthorization, StateTransaction},
		StateTransaction:   {StateTransaction, StateUpdate},
	}
}

func newStateMachine() *connstate.Machine[State] {
	return connstate.New(StateAuthorization, transitions())
}
