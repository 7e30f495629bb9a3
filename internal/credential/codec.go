package credential

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"unicode/utf8"
)

var (
	ErrMalformedCredential = errors.New("malformed credential")
	ErrDecryptionFailed    = errors.New("credential decryption failed")
)

// Codec decodes the password field of a login request.
type Codec struct {
	key *rsa.PrivateKey
}

func NewCodec(key *rsa.PrivateKey) *Codec {
	return &Codec{key: key}
}

// Decode base64-decodes payload and, when encrypted is set, decrypts it
// with RSA PKCS#1 v1.5. Bytes that are not valid UTF-8 decode to the empty
// string, which never matches a stored hash.
func (c *Codec) Decode(payload string, encrypted bool) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", ErrMalformedCredential
	}
	if encrypted {
		if c.key == nil {
			return "", ErrDecryptionFailed
		}
		raw, err = rsa.DecryptPKCS1v15(rand.Reader, c.key, raw)
		if err != nil {
			return "", ErrDecryptionFailed
		}
	}
	if !utf8.Valid(raw) {
		return "", nil
	}
	return string(raw), nil
}
