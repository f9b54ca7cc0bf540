package otp

import "testing"

func TestGenerate(t *testing.T) {
	for _, length := range []int{4, 5, 6, 8} {
		code, err := Generate(length)
		if err != nil {
			t.Fatal(err)
		}
		if len(code) != length {
			t.Errorf("Generate(%d) returned %q with length %d", length, code, len(code))
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Errorf("Generate(%d) returned non-digit %q", length, code)
				break
			}
		}
	}
}

func TestGenerateRejectsBadLengths(t *testing.T) {
	for _, length := range []int{0, 3, 9, -1} {
		if _, err := Generate(length); err == nil {
			t.Errorf("Generate(%d) should fail", length)
		}
	}
}
