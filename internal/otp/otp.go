package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// Generate produces a numeric one-time code of the given length.
func Generate(length int) (string, error) {
	if length < 4 || length > 8 {
		return "", fmt.Errorf("otp length must be 4..8, got %d", length)
	}

	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}

	return b.String(), nil
}
