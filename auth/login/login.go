// Package login implements the LOGIN SASL mechanism (legacy, still widely
// deployed by IMAP/SMTP servers that never adopted PLAIN).
package login

import (
	"fmt"

	"github.com/azdigi/mailgo/auth"
)

// Name is the SASL mechanism name.
const Name = "LOGIN"

// ClientMechanism implements LOGIN authentication for clients. The server
// drives a two-step challenge/response: username, then password.
type ClientMechanism struct {
	Username string
	Password string
	step     int
}

// Name returns "LOGIN".
func (m *ClientMechanism) Name() string { return Name }

// Start returns nil; LOGIN has no initial response.
func (m *ClientMechanism) Start() ([]byte, error) {
	return nil, nil
}

// Next answers the server's username/password challenges in order.
func (m *ClientMechanism) Next(challenge []byte) ([]byte, error) {
	switch m.step {
	case 0:
		m.step++
		return []byte(m.Username), nil
	case 1:
		m.step++
		return []byte(m.Password), nil
	default:
		return nil, fmt.Errorf("login: unexpected challenge")
	}
}

func init() {
	auth.DefaultRegistry.Register(Name, func() auth.ClientMechanism {
		return &ClientMechanism{}
	})
}
