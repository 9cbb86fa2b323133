// Package plain implements the PLAIN SASL mechanism (RFC 4616).
package plain

import (
	"bytes"
	"fmt"

	"github.com/azdigi/mailgo/auth"
)

// Name is the SASL mechanism name.
const Name = "PLAIN"

// ClientMechanism implements PLAIN authentication for clients.
type ClientMechanism struct {
	// AuthzID is the authorization identity (usually empty).
	AuthzID string
	// Username is the authentication identity.
	Username string
	// Password is the password.
	Password string
}

// Name returns "PLAIN".
func (m *ClientMechanism) Name() string { return Name }

// Start returns the initial response: authzid\0authcid\0passwd.
func (m *ClientMechanism) Start() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(m.AuthzID)
	buf.WriteByte(0)
	buf.WriteString(m.Username)
	buf.WriteByte(0)
	buf.WriteString(m.Password)
	return buf.Bytes(), nil
}

// Next is never called for PLAIN: the initial response carries everything.
func (m *ClientMechanism) Next(challenge []byte) ([]byte, error) {
	return nil, fmt.Errorf("plain: unexpected challenge")
}

func init() {
	auth.DefaultRegistry.Register(Name, func() auth.ClientMechanism {
		return &ClientMechanism{}
	})
}
