package totp

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
)

// Cipher seals TOTP secrets at rest with AES-256-GCM.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher derives a 256-bit key from passphrase with SHA-256.
func NewCipher(passphrase string) (*Cipher, error) {
	if passphrase == "" {
		return nil, ErrEncryptionKeyNotSet
	}
	key := sha256.Sum256([]byte(passphrase))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, errors.Join(ErrFailedToEncryptSecret, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Join(ErrFailedToEncryptSecret, err)
	}
	return &Cipher{aead: aead}, nil
}

// Seal encrypts secret and returns base64(nonce|ciphertext).
func (c *Cipher) Seal(secret string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", errors.Join(ErrFailedToEncryptSecret, err)
	}
	out := c.aead.Seal(nonce, nonce, []byte(secret), nil)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Open reverses Seal.
func (c *Cipher) Open(sealed string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", errors.Join(ErrFailedToDecryptSecret, err)
	}
	n := c.aead.NonceSize()
	if len(raw) < n {
		return "", ErrFailedToDecryptSecret
	}
	plain, err := c.aead.Open(nil, raw[:n], raw[n:], nil)
	if err != nil {
		return "", errors.Join(ErrFailedToDecryptSecret, err)
	}
	return string(plain), nil
}
