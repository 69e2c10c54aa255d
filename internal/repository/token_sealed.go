package repository

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"todo_client/internal/domain"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

const (
	sealedPrefix = "sealed:v1:"
	saltSize     = 16
	nonceSize    = 24
	keySize      = 32
)

var ErrTokenTampered = errors.New("stored token cannot be decrypted")

// sealedTokenStore encrypts the token before handing it to the inner store.
// The scrypt key is derived once per salt and cached for the process.
type sealedTokenStore struct {
	inner      domain.TokenStore
	passphrase []byte

	mu   sync.Mutex
	salt []byte
	key  *[keySize]byte
}

func NewSealedTokenStore(inner domain.TokenStore, passphrase string) domain.TokenStore {
	return &sealedTokenStore{
		inner:      inner,
		passphrase: []byte(passphrase),
	}
}

func (s *sealedTokenStore) Get() (string, error) {
	stored, err := s.inner.Get()
	if err != nil || stored == "" {
		return "", err
	}
	if len(stored) < len(sealedPrefix) || stored[:len(sealedPrefix)] != sealedPrefix {
		return "", ErrTokenTampered
	}
	raw, err := base64.RawURLEncoding.DecodeString(stored[len(sealedPrefix):])
	if err != nil || len(raw) < saltSize+nonceSize+secretbox.Overhead {
		return "", ErrTokenTampered
	}

	salt := raw[:saltSize]
	var nonce [nonceSize]byte
	copy(nonce[:], raw[saltSize:saltSize+nonceSize])

	key, err := s.keyFor(salt)
	if err != nil {
		return "", err
	}
	plain, ok := secretbox.Open(nil, raw[saltSize+nonceSize:], &nonce, key)
	if !ok {
		return "", ErrTokenTampered
	}
	return string(plain), nil
}

func (s *sealedTokenStore) Set(token string) error {
	if token == "" {
		return s.inner.Clear()
	}

	s.mu.Lock()
	salt := s.salt
	s.mu.Unlock()
	if salt == nil {
		salt = make([]byte, saltSize)
		if _, err := rand.Read(salt); err != nil {
			return fmt.Errorf("could not generate salt: %w", err)
		}
	}
	key, err := s.keyFor(salt)
	if err != nil {
		return err
	}

	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return fmt.Errorf("could not generate nonce: %w", err)
	}

	out := make([]byte, 0, saltSize+nonceSize+len(token)+secretbox.Overhead)
	out = append(out, salt...)
	out = append(out, nonce[:]...)
	out = secretbox.Seal(out, []byte(token), &nonce, key)
	return s.inner.Set(sealedPrefix + base64.RawURLEncoding.EncodeToString(out))
}

func (s *sealedTokenStore) Clear() error {
	return s.inner.Clear()
}

func (s *sealedTokenStore) keyFor(salt []byte) (*[keySize]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key != nil && bytes.Equal(s.salt, salt) {
		return s.key, nil
	}
	derived, err := scrypt.Key(s.passphrase, salt, 1<<15, 8, 1, keySize)
	if err != nil {
		return nil, fmt.Errorf("could not derive token key: %w", err)
	}
	var key [keySize]byte
	copy(key[:], derived)
	s.salt = append([]byte(nil), salt...)
	s.key = &key
	return s.key, nil
}
