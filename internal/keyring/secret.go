package keyring

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// ErrInvalidSecret is returned when a supplied secret isn't valid base64.
var ErrInvalidSecret = errors.New("invalid base64 secret")

const (
	cryptoAES     = 1
	secretKeySize = 16
)

// ValidateSecret checks that the secret is a well-formed base64 string.
// The keyring format is line based, so whitespace anywhere in the secret is rejected.
func ValidateSecret(secret string) error {
	if secret == "" {
		return fmt.Errorf("%w: empty string", ErrInvalidSecret)
	}

	if strings.ContainsFunc(secret, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) {
		return fmt.Errorf("%w: contains whitespace or control characters", ErrInvalidSecret)
	}

	_, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidSecret, secret)
	}

	return nil
}

// GenerateSecret returns a new CephX secret, encoded the same way ceph-authtool does:
// key type, creation time, key length and the random key material, little-endian.
func GenerateSecret() (string, error) {
	material := make([]byte, secretKeySize)

	_, err := rand.Read(material)
	if err != nil {
		return "", err
	}

	now := time.Now()
	created := uint32(now.Unix()) //nolint:gosec
	buf := bytes.Buffer{}

	for _, field := range []any{
		uint16(cryptoAES),
		created,
		uint32(now.Nanosecond()),
		uint16(secretKeySize),
		material,
	} {
		err = binary.Write(&buf, binary.LittleEndian, field)
		if err != nil {
			return "", err
		}
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
