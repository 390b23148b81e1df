package auth

import (
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-secret"), time.Hour)

	token, err := issuer.Issue("alice")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	userID, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if userID != "alice" {
		t.Errorf("Expected subject alice, got %s", userID)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-secret"), time.Hour)
	other := NewTokenIssuer([]byte("different-secret"), time.Hour)

	token, err := issuer.Issue("alice")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := other.Verify(token); err == nil {
		t.Fatal("Expected a token signed with another secret to be rejected")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-secret"), -time.Minute)

	token, err := issuer.Issue("alice")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := issuer.Verify(token); err == nil {
		t.Fatal("Expected an expired token to be rejected")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-secret"), time.Hour)
	if _, err := issuer.Verify("not-a-token"); err == nil {
		t.Fatal("Expected a malformed token to be rejected")
	}
}

func TestSessionFromToken(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-secret"), time.Hour)

	t.Run("valid token", func(t *testing.T) {
		token, _ := issuer.Issue("bob")
		sess, err := FromToken(issuer, token)
		if err != nil {
			t.Fatalf("FromToken failed: %v", err)
		}
		if !sess.IsAuthenticated() {
			t.Error("Expected an authenticated session")
		}
		if sess.UserID() != "bob" {
			t.Errorf("Expected user bob, got %s", sess.UserID())
		}
	})

	t.Run("bad token yields anonymous", func(t *testing.T) {
		sess, err := FromToken(issuer, "garbage")
		if err == nil {
			t.Fatal("Expected an error for a bad token")
		}
		if sess == nil {
			t.Fatal("Expected a usable anonymous session despite the error")
		}
		if sess.IsAuthenticated() {
			t.Error("Expected the fallback session to be anonymous")
		}
	})
}

func TestAnonymousSession(t *testing.T) {
	sess := Anonymous()
	if sess.IsAuthenticated() {
		t.Error("Anonymous session must not report as authenticated")
	}
	if sess.UserID() != "" {
		t.Errorf("Expected empty user ID, got %s", sess.UserID())
	}
}
