// Package token mints the opaque bearer values used for login tokens,
// device grant tickets and reactivation tickets.
package token

import (
	"crypto/rand"
	"math/big"
)

// Length of every generated token.
const Length = 32

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

var alphabetSize = big.NewInt(int64(len(alphabet)))

// Generate returns a Length character alphanumeric token. rand.Int samples
// uniformly, so every symbol is equally likely.
func Generate() (string, error) {
	b := make([]byte, Length)
	for i := range b {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		b[i] = alphabet[n.Int64()]
	}
	return string(b), nil
}
