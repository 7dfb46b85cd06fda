package random

import (
	"crypto/rand"
	"encoding/hex"
)

// Bytes returns n bytes read from crypto/rand.
func Bytes(n int) []byte {
	b := make([]byte, n)

	// crypto/rand.Read never returns an error since Go 1.24
	_, _ = rand.Read(b)

	return b
}

// Hex returns n random bytes hex encoded, so the result is 2*n characters long.
func Hex(n int) string {
	return hex.EncodeToString(Bytes(n))
}
