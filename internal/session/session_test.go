package session

import (
	"context"
	"errors"
	"testing"
)

func TestGate_Check(t *testing.T) {
	g := Gate{Username: "admin", Password: "ngo2024"}
	tests := []struct {
		user, pass string
		want       bool
	}{
		{"admin", "ngo2024", true},
		{" admin ", "ngo2024", true},
		{"admin", "ngo2025", false},
		{"Admin", "ngo2024", false},
		{"", "", false},
	}
	for _, tt := range tests {
		if got := g.Check(tt.user, tt.pass); got != tt.want {
			t.Errorf("Check(%q, %q) = %v, want %v", tt.user, tt.pass, got, tt.want)
		}
	}
}

func TestStore_Lifecycle(t *testing.T) {
	s := NewStore(Gate{Username: "admin", Password: "secret"})

	if _, err := s.Login("admin", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	if s.Len() != 0 {
		t.Fatal("failed login must not create a session")
	}

	sess, err := s.Login("admin", "secret")
	if err != nil {
		t.Fatal(err)
	}
	if !sess.Authenticated || sess.ID == "" || sess.Username != "admin" {
		t.Errorf("session = %+v", sess)
	}

	got, ok := s.Get(sess.ID)
	if !ok || got != sess {
		t.Error("Get should return the stored session")
	}

	s.Logout(sess.ID)
	if _, ok := s.Get(sess.ID); ok {
		t.Error("session survived logout")
	}
	s.Logout("unknown")
}

func TestContext(t *testing.T) {
	if FromContext(context.Background()) != nil {
		t.Error("empty context should have no session")
	}
	sess := &Session{ID: "x", Authenticated: true}
	if FromContext(WithSession(context.Background(), sess)) != sess {
		t.Error("session not carried by context")
	}
}
