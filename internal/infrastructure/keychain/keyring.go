package keychain

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringStore persists credentials in the OS keyring (Keychain on macOS,
// Secret Service on Linux, Credential Manager on Windows).
type KeyringStore struct {
	service string
}

// NewKeyringStore creates a keyring-backed store scoped to service.
func NewKeyringStore(service string) *KeyringStore {
	return &KeyringStore{service: service}
}

var _ Store = (*KeyringStore)(nil)

func (s *KeyringStore) Get(key Key) (string, error) {
	value, err := keyring.Get(s.service, string(key))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to read credential %s: %w", key, err)
	}
	return value, nil
}

func (s *KeyringStore) Set(key Key, value string) error {
	if err := keyring.Set(s.service, string(key), value); err != nil {
		return fmt.Errorf("failed to store credential %s: %w", key, err)
	}
	return nil
}

func (s *KeyringStore) Delete(key Key) error {
	if err := keyring.Delete(s.service, string(key)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to delete credential %s: %w", key, err)
	}
	return nil
}

func (s *KeyringStore) ClearAll() error {
	for _, key := range allKeys {
		if err := s.Delete(key); err != nil {
			return err
		}
	}
	return nil
}
