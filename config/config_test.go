package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindConfig_Explicit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	os.WriteFile(path, []byte("accounts: []\n"), 0600)

	got, err := FindConfig(path)
	if err != nil {
		t.Fatalf("FindConfig(%q) error: %v", path, err)
	}
	if got != path {
		t.Errorf("FindConfig(%q) = %q, want %q", path, got, path)
	}
}

func TestFindConfig_ExplicitMissing(t *testing.T) {
	_, err := FindConfig("/nonexistent/mailgo.yaml")
	if err == nil {
		t.Fatal("FindConfig with missing explicit path should error")
	}
}

func TestLoad_DefaultsAndValidate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mailgo.yaml")
	yaml := `
accounts:
  - name: work
    username: alice@example.com
    credential_ref: MAILGO_WORK_PASSWORD
    imap:
      host: imap.example.com
    smtp:
      host: smtp.example.com
      tls: implicit
`
	if err := os.WriteFile(path, []byte(yaml), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(cfg.Accounts) != 1 {
		t.Fatalf("len(Accounts) = %d, want 1", len(cfg.Accounts))
	}
	a := cfg.Accounts[0]
	if a.IMAP.Port != 143 || a.IMAP.TLSMode != TLSStartTLS {
		t.Errorf("imap defaults = %+v", a.IMAP)
	}
	if a.SMTP.Port != 465 || a.SMTP.TLSMode != TLSImplicit {
		t.Errorf("smtp defaults = %+v", a.SMTP)
	}
	if a.POP3 != nil {
		t.Errorf("pop3 should be nil, got %+v", a.POP3)
	}
	if a.SMTP.Addr() != "smtp.example.com:465" {
		t.Errorf("Addr() = %q", a.SMTP.Addr())
	}
	if cfg.Find("work") == nil {
		t.Error("Find(\"work\") = nil")
	}
	if cfg.Find("missing") != nil {
		t.Error("Find(\"missing\") should be nil")
	}
}

func TestValidate_RejectsDuplicateNames(t *testing.T) {
	cfg := &Config{Accounts: []Account{
		{Name: "a", IMAP: &ProtocolConn{Host: "h"}},
		{Name: "a", IMAP: &ProtocolConn{Host: "h"}},
	}}
	cfg.applyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected duplicate-name error")
	}
}

func TestValidate_RejectsNoProtocol(t *testing.T) {
	cfg := &Config{Accounts: []Account{{Name: "a"}}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected no-protocol error")
	}
}

func TestValidate_RejectsMissingHost(t *testing.T) {
	cfg := &Config{Accounts: []Account{{Name: "a", IMAP: &ProtocolConn{}}}}
	cfg.applyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected missing-host error")
	}
}

func TestValidate_RejectsBadTLSMode(t *testing.T) {
	cfg := &Config{Accounts: []Account{{Name: "a", IMAP: &ProtocolConn{Host: "h", TLSMode: "bogus"}}}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected bad-tls-mode error")
	}
}

func TestLoad_ExpandsEnv(t *testing.T) {
	os.Setenv("MAILGO_TEST_HOST", "imap.from-env.example.com")
	defer os.Unsetenv("MAILGO_TEST_HOST")

	dir := t.TempDir()
	path := filepath.Join(dir, "mailgo.yaml")
	yaml := "accounts:\n  - name: a\n    imap:\n      host: ${MAILGO_TEST_HOST}\n"
	if err := os.WriteFile(path, []byte(yaml), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Accounts[0].IMAP.Host != "imap.from-env.example.com" {
		t.Errorf("host = %q", cfg.Accounts[0].IMAP.Host)
	}
}
