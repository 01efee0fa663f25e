package utils

import (
	"crypto/rand"
	"fmt"
)

// codeCharset leaves out 0, O, 1 and I so codes read back unambiguously.
const codeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateCode returns n random characters from codeCharset.
func GenerateCode(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("generate code: invalid length %d", n)
	}

	// Make a slice of n random bytes.
	code := make([]byte, n)

	// Read into the slice.
	if _, err := rand.Read(code); err != nil {
		return "", err
	}

	// 256 is a multiple of len(codeCharset), so the modulo is unbiased.
	for i := range code {
		code[i] = codeCharset[int(code[i])%len(codeCharset)]
	}

	return string(code), nil
}
