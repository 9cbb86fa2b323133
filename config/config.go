// Package config loads mail account profiles from a YAML file: host,
// port, TLS mode, username, and a credential reference the caller
// resolves externally (this package never stores or reads secrets).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order. An explicit
// path (from a -config flag, say) is checked first by FindConfig; this
// list is the fallback order otherwise: ./mailgo.yaml,
// ~/.config/mailgo/config.yaml, /etc/mailgo/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"mailgo.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "mailgo", "config.yaml"))
	}

	paths = append(paths, "/etc/mailgo/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must
// exist. Otherwise, searches DefaultSearchPaths and returns the first
// path that exists.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// TLSMode selects how a profile's transport is secured.
type TLSMode string

const (
	// TLSImplicit dials straight into TLS (imaps/pop3s, or SMTP
	// submission over 465).
	TLSImplicit TLSMode = "implicit"
	// TLSStartTLS dials plaintext and upgrades via STARTTLS/STLS.
	TLSStartTLS TLSMode = "starttls"
	// TLSNone never encrypts the transport.
	TLSNone TLSMode = "none"
)

// Config holds every configured mail account profile.
type Config struct {
	Accounts []Account `yaml:"accounts"`
}

// Account is one mail account's connection profile. Protocol-specific
// fields (IMAP, SMTP, POP3) are all optional; a profile sets whichever
// protocols that account is reachable over.
type Account struct {
	Name     string     `yaml:"name"`
	Username string     `yaml:"username"`
	// CredentialRef names where the caller should resolve this
	// account's password/token from (an env var name, a keychain
	// entry, a secrets-manager path) — never the secret itself.
	CredentialRef string        `yaml:"credential_ref"`
	IMAP          *ProtocolConn `yaml:"imap"`
	SMTP          *ProtocolConn `yaml:"smtp"`
	POP3          *ProtocolConn `yaml:"pop3"`
}

// ProtocolConn is one protocol's endpoint and transport security mode.
type ProtocolConn struct {
	Host    string  `yaml:"host"`
	Port    int     `yaml:"port"`
	TLSMode TLSMode `yaml:"tls"`
}

// Load reads configuration from a YAML file, expands environment
// variables, applies defaults for any unset fields, and validates the
// result. After Load returns successfully every IMAP/SMTP/POP3 block
// present in the file has its port and TLS mode filled in; a protocol
// block absent from the file stays nil.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g. ${MAILGO_HOST}); the
	// recommended approach is still to put values directly in the
	// file, this exists for container deployments.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// applyDefaults fills in zero-value fields with sensible defaults.
// Called automatically by Load.
func (c *Config) applyDefaults() {
	for i := range c.Accounts {
		a := &c.Accounts[i]
		applyConnDefaults(a.IMAP, 143, 993)
		applyConnDefaults(a.SMTP, 587, 465)
		applyConnDefaults(a.POP3, 110, 995)
	}
}

func applyConnDefaults(conn *ProtocolConn, starttlsPort, implicitPort int) {
	if conn == nil {
		return
	}
	if conn.TLSMode == "" {
		conn.TLSMode = TLSStartTLS
	}
	if conn.Port == 0 {
		if conn.TLSMode == TLSImplicit {
			conn.Port = implicitPort
		} else {
			conn.Port = starttlsPort
		}
	}
}

// Validate checks that the configuration is internally consistent. It
// runs after applyDefaults, so it can assume defaults are populated.
// Returns an error describing the first problem found, or nil.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Accounts))
	for _, a := range c.Accounts {
		if a.Name == "" {
			return fmt.Errorf("account with empty name")
		}
		if seen[a.Name] {
			return fmt.Errorf("duplicate account name %q", a.Name)
		}
		seen[a.Name] = true

		if a.IMAP == nil && a.SMTP == nil && a.POP3 == nil {
			return fmt.Errorf("account %q: no protocol configured (imap/smtp/pop3)", a.Name)
		}
		for label, conn := range map[string]*ProtocolConn{"imap": a.IMAP, "smtp": a.SMTP, "pop3": a.POP3} {
			if err := validateConn(a.Name, label, conn); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateConn(account, label string, conn *ProtocolConn) error {
	if conn == nil {
		return nil
	}
	if conn.Host == "" {
		return fmt.Errorf("account %q: %s.host is required", account, label)
	}
	if conn.Port < 1 || conn.Port > 65535 {
		return fmt.Errorf("account %q: %s.port %d out of range (1-65535)", account, label, conn.Port)
	}
	switch conn.TLSMode {
	case TLSImplicit, TLSStartTLS, TLSNone:
	default:
		return fmt.Errorf("account %q: %s.tls %q is not one of implicit/starttls/none", account, label, conn.TLSMode)
	}
	return nil
}

// Find returns the account profile with the given name, or nil if no
// such profile exists.
func (c *Config) Find(name string) *Account {
	for i := range c.Accounts {
		if c.Accounts[i].Name == name {
			return &c.Accounts[i]
		}
	}
	return nil
}

// Addr returns "host:port", the form net.Dial expects.
func (p *ProtocolConn) Addr() string {
	return fmt.Sprintf("%s:%d", p.Host, p.Port)
}
