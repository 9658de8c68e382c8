// Package idgen produces the prefixed public identifiers exposed by the API.
package idgen

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

var suffixPattern = regexp.MustCompile(`^[a-z0-9]+$`)

// GenerateSecureID returns "<prefix>_<length random base36 chars>" drawn from crypto/rand.
func GenerateSecureID(prefix string, length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid id length %d", length)
	}
	max := big.NewInt(int64(len(alphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate id: %w", err)
		}
		buf[i] = alphabet[n.Int64()]
	}
	return prefix + "_" + string(buf), nil
}

// ValidateIDFormat reports whether id looks like an identifier minted by GenerateSecureID for prefix.
func ValidateIDFormat(id, expectedPrefix string) bool {
	if len(id) <= len(expectedPrefix)+1 {
		return false
	}
	if id[:len(expectedPrefix)] != expectedPrefix || id[len(expectedPrefix)] != '_' {
		return false
	}
	return suffixPattern.MatchString(id[len(expectedPrefix)+1:])
}
