package imapclient

import (
	mail "github.com/azdigi/mailgo"
	"github.com/azdigi/mailgo/internal/connstate"
)

// transitions encodes RFC 9051's connection-state graph: the states a
// client may move to from each state.
func transitions() map[mail.ConnState][]mail.ConnState {
	return map[mail.ConnState][]mail.ConnState{
		mail.ConnStateNotAuthenticated: {
			mail.ConnStateAuthenticated,
			mail.ConnStateLogout,
		},
		mail.ConnStateAuthenticated: {
			mail.ConnStateSelected,
			mail.ConnStateLogout,
			mail.ConnStateNotAuthenticated,
		},
		mail.ConnStateSelected: {
			mail.ConnStateAuthenticated,
			mail.ConnStateSelected,
			mail.ConnStateLogout,
		},
	}
}

func newStateMachine(initial mail.ConnState) *connstate.Machine[mail.ConnState] {
	return connstate.New(initial, transitions())
}
