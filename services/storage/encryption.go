package storage

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
)

// EncryptedStore seals artifacts with AES-256-GCM before handing them to the
// wrapped store. Stored blobs are nonce || ciphertext.
type EncryptedStore struct {
	inner BlobStore
	aead  cipher.AEAD
}

// NewEncryptedStore derives a 32-byte key from adminKey using SHA-256.
func NewEncryptedStore(inner BlobStore, adminKey string) (*EncryptedStore, error) {
	keyHash := sha256.Sum256([]byte(adminKey))

	block, err := aes.NewCipher(keyHash[:])
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &EncryptedStore{inner: inner, aead: gcm}, nil
}

func (s *EncryptedStore) Put(ctx context.Context, key string, data []byte, _ string) error {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}
	// Associated data binds each blob to its key.
	sealed := s.aead.Seal(nonce, nonce, data, []byte(key))
	return s.inner.Put(ctx, key, sealed, "application/octet-stream")
}

func (s *EncryptedStore) Get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := s.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	n := s.aead.NonceSize()
	if len(sealed) < n {
		return nil, errors.New("encrypted artifact is truncated")
	}
	plain, err := s.aead.Open(nil, sealed[:n], sealed[n:], []byte(key))
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt artifact: %w", err)
	}
	return plain, nil
}

func (s *EncryptedStore) Exists(ctx context.Context, key string) (bool, error) {
	return s.inner.Exists(ctx, key)
}

func (s *EncryptedStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}
