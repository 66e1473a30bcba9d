package usecase

import (
	"crypto/rand"
	"io"

	"github.com/oklog/ulid/v2"
)

// codeAlphabet avoids characters that are easy to misread: 0/O, 1/I/L.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const defaultCodeLength = 8

// generateShortCode creates a random, human-typeable code of n characters.
// len(codeAlphabet) divides 256, so the modulo keeps the distribution uniform.
func generateShortCode(n int) (string, error) {
	if n <= 0 {
		n = defaultCodeLength
	}
	buffer := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, buffer); err != nil {
		return "", err
	}
	for i := 0; i < n; i++ {
		buffer[i] = codeAlphabet[int(buffer[i])%len(codeAlphabet)]
	}
	return string(buffer), nil
}

// newULID returns a lexically time-ordered identifier.
func newULID() string {
	return ulid.Make().String()
}
