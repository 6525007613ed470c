package friends

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

const (
	confirmationKeySize = 20 // bytes; 40 hex characters
	saltSize            = 16
)

// confirmationKey hashes a fresh random salt together with the recipient
// email. With a secret configured the hash is keyed, so keys cannot be
// recomputed from a leaked salt.
func confirmationKey(secret []byte, email string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	h, err := blake2b.New(confirmationKeySize, secret)
	if err != nil {
		return "", fmt.Errorf("init hash: %w", err)
	}
	h.Write(salt)
	h.Write([]byte(email))
	return hex.EncodeToString(h.Sum(nil)), nil
}

// hashSecret shrinks an arbitrary configured secret to a valid blake2b key.
func hashSecret(secret string) []byte {
	if secret == "" {
		return nil
	}
	sum := blake2b.Sum256([]byte(secret))
	return sum[:]
}
