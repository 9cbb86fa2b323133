package pop3client

import (
	"crypto/tls"
	"log/slog"
	"time"
)

// Option is a functional option for configuring the client.
type Option func(*Options)

// Options holds all client configuration.
type Options struct {
	// TLSConfig, when set, is used to dial pop3s (implicit TLS on
	// connect) rather than plain POP3. STLS is not offered by RFC 1939
	// and is out of scope; connect on the TLS port instead.
	TLSConfig *tls.Config
	// Logger is the structured logger. Passwords and APOP digests are
	// never logged at any level.
	Logger *slog.Logger
	// ReadTimeout is the configured reply read timeout. The client
	// stores it but sets no deadline on the connection from it.
	ReadTimeout time.Duration
	// WriteTimeout is the configured write timeout. The client stores
	// it but sets no deadline on the connection from it.
	WriteTimeout time.Duration
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() *Options {
	return &Options{
		Logger:       slog.Default(),
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 1 * time.Minute,
	}
}

// WithTLSConfig sets the TLS configuration used to dial pop3s.
func WithTLSConfig(config *tls.Config) Option {
	return func(o *Options) { o.TLSConfig = config }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

// WithReadTimeout sets the reply read timeout.
func WithReadTimeout(d time.Duration) Option {
	return func(o *Options) { o.ReadTimeout = d }
}

// WithWriteTimeout sets the command write timeout.
func WithWriteTimeout(d time.Duration) Option {
	return func(o *Options) { o.WriteTimeout = d }
}
