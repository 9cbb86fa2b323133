package smtpclient

import (
	"crypto/tls"
	"log/slog"
	"time"
)

// Option is a functional option for configuring the client.
type Option func(*Options)

// Options holds all client configuration.
type Options struct {
	// TLSConfig is used for STARTTLS upgrades.
	TLSConfig *tls.Config
	// Logger is the structured logger. Passwords and AUTH credentials
	// are never logged at any level.
	Logger *slog.Logger
	// ReadTimeout is the configured reply read timeout. The client
	// stores it but sets no deadline on the connection from it.
	ReadTimeout time.Duration
	// WriteTimeout is the configured write timeout. The client stores
	// it but sets no deadline on the connection from it.
	WriteTimeout time.Duration
	// LocalName is the name sent in EHLO/HELO.
	LocalName string
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() *Options {
	return &Options{
		Logger:       slog.Default(),
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 1 * time.Minute,
		LocalName:    "localhost",
	}
}

// WithTLSConfig sets the TLS configuration used for STARTTLS.
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

// WithLocalName sets the name the client identifies itself as in
// EHLO/HELO.
func WithLocalName(name string) Option {
	return func(o *Options) { o.LocalName = name }
}
