// Package credential turns client-submitted passwords into plaintext and
// checks them against stored hashes.
package credential

import (
	"crypto/rsa"
	_ "embed"
	"fmt"
	"os"
	"sync"

	"github.com/golang-jwt/jwt/v5"
)

//go:embed resources/private-key.pem
var defaultPrivateKey []byte

// LoadPrivateKey parses a PEM encoded RSA private key (PKCS#1 or PKCS#8)
// from path. An empty path selects the key material shipped with the binary.
func LoadPrivateKey(path string) (*rsa.PrivateKey, error) {
	raw := defaultPrivateKey
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read private key: %w", err)
		}
		raw = b
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(raw)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return key, nil
}

// PrivateKey returns the process-wide key, loading it on first use from
// SHIELD_PRIVATE_KEY_PATH. The key is never mutated after loading.
var PrivateKey = sync.OnceValues(func() (*rsa.PrivateKey, error) {
	return LoadPrivateKey(os.Getenv("SHIELD_PRIVATE_KEY_PATH"))
})
