package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const hashCost = 10

func Hash(plaintext string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plaintext), hashCost)
}

func Matches(plaintext string, hash []byte) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(plaintext)) == nil
}

// Validate applies the minimum-length rule. The minimum is configuration,
// not a literal: earlier deployments used 5, current ones 6.
func Validate(plaintext string, minLength int) error {
	if len(plaintext) < minLength {
		return fmt.Errorf("password must be at least %d characters", minLength)
	}
	return nil
}
