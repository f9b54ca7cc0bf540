package token

import (
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)

	tok, err := issuer.Issue("D001")
	if err != nil {
		t.Fatal(err)
	}

	claims, err := issuer.Verify(tok)
	if err != nil {
		t.Fatal(err)
	}
	if claims.DriverID != "D001" {
		t.Errorf("got driverId %q, want D001", claims.DriverID)
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)
	other := NewIssuer("other-secret", time.Hour)

	tok, err := other.Issue("D001")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := issuer.Verify(tok); err == nil {
		t.Error("token signed with a different secret should not verify")
	}

	if _, err := issuer.Verify("not-a-token"); err == nil {
		t.Error("garbage token should not verify")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	issuer := NewIssuer("test-secret", -time.Minute)

	tok, err := issuer.Issue("D001")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := issuer.Verify(tok); err == nil {
		t.Error("expired token should not verify")
	}
}
