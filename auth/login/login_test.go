package login

import (
	"testing"

	"github.com/azdigi/mailgo/auth"
)

func TestClientMechanismName(t *testing.T) {
	m := &ClientMechanism{}
	if m.Name() != "LOGIN" {
		t.Errorf("expected name LOGIN, got %s", m.Name())
	}
}

func TestClientMechanismStartReturnsNil(t *testing.T) {
	m := &ClientMechanism{Username: "user", Password: "pass"}
	ir, err := m.Start()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ir != nil {
		t.Errorf("expected nil initial response, got %q", ir)
	}
}

func TestClientMechanismNextStep0ReturnsUsername(t *testing.T) {
	m := &ClientMechanism{Username: "testuser", Password: "testpass"}

	resp, err := m.Next([]byte("Username:"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp) != "testuser" {
		t.Errorf("expected 'testuser', got %q", string(resp))
	}
}

func TestClientMechanismNextStep1ReturnsPassword(t *testing.T) {
	m := &ClientMechanism{Username: "testuser", Password: "testpass"}

	if _, err := m.Next([]byte("Username:")); err != nil {
		t.Fatalf("unexpected error at step 0: %v", err)
	}

	resp, err := m.Next([]byte("Password:"))
	if err != nil {
		t.Fatalf("unexpected error at step 1: %v", err)
	}
	if string(resp) != "testpass" {
		t.Errorf("expected 'testpass', got %q", string(resp))
	}
}

func TestClientMechanismNextStep2ReturnsError(t *testing.T) {
	m := &ClientMechanism{Username: "testuser", Password: "testpass"}

	m.Next([]byte("Username:"))
	m.Next([]byte("Password:"))

	_, err := m.Next([]byte("Extra:"))
	if err == nil {
		t.Fatal("expected error at step 2, got nil")
	}
	if err.Error() != "login: unexpected challenge" {
		t.Errorf("expected 'login: unexpected challenge', got %q", err.Error())
	}
}

func TestClientMechanismNextIgnoresChallengeContent(t *testing.T) {
	m := &ClientMechanism{Username: "user", Password: "pass"}

	resp, err := m.Next([]byte("anything"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp) != "user" {
		t.Errorf("expected 'user', got %q", string(resp))
	}
}

func TestClientMechanismNextEmptyFields(t *testing.T) {
	m := &ClientMechanism{Username: "", Password: ""}

	resp, err := m.Next([]byte("Username:"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp) != "" {
		t.Errorf("expected empty username, got %q", string(resp))
	}

	resp, err = m.Next([]byte("Password:"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp) != "" {
		t.Errorf("expected empty password, got %q", string(resp))
	}
}

func TestNameConstant(t *testing.T) {
	if Name != "LOGIN" {
		t.Errorf("expected Name constant to be LOGIN, got %s", Name)
	}
}

func TestClientMechanismImplementsInterface(t *testing.T) {
	var _ auth.ClientMechanism = &ClientMechanism{}
}

func TestLoginFullSequence(t *testing.T) {
	client := &ClientMechanism{Username: "alice", Password: "wonderland"}

	ir, err := client.Start()
	if err != nil {
		t.Fatalf("client Start error: %v", err)
	}
	if ir != nil {
		t.Fatalf("expected nil initial response, got %q", ir)
	}

	user, err := client.Next([]byte("Username:"))
	if err != nil {
		t.Fatalf("client step 0 error: %v", err)
	}
	if string(user) != "alice" {
		t.Errorf("expected username alice, got %q", user)
	}

	pass, err := client.Next([]byte("Password:"))
	if err != nil {
		t.Fatalf("client step 1 error: %v", err)
	}
	if string(pass) != "wonderland" {
		t.Errorf("expected password wonderland, got %q", pass)
	}
}
