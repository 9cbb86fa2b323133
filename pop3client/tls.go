package pop3client

import (
	"crypto/tls"
	"net"
)

// tlsDial dials addr and performs an implicit TLS handshake, for
// pop3s (RFC 1939 has no in-band STLS; the port convention is used
// instead).
func tlsDial(addr string, config *tls.Config) (net.Conn, error) {
	return tls.Dial("tcp", addr, config)
}
