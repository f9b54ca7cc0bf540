package password

import "testing"

func TestHashAndMatches(t *testing.T) {
	hash, err := Hash("secret-pass")
	if err != nil {
		t.Fatal(err)
	}

	if !Matches("secret-pass", hash) {
		t.Error("correct password did not match its own hash")
	}
	if Matches("wrong-pass", hash) {
		t.Error("wrong password matched the hash")
	}
}

func TestValidate(t *testing.T) {
	if err := Validate("abcde", 6); err == nil {
		t.Error("expected 5-char password to fail a 6-char minimum")
	}
	if err := Validate("abcdef", 6); err != nil {
		t.Errorf("unexpected error for valid password: %v", err)
	}
	if err := Validate("abcde", 5); err != nil {
		t.Errorf("unexpected error with 5-char minimum: %v", err)
	}
}
