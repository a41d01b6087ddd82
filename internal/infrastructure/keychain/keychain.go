// Package keychain abstracts secure credential storage as a key-value store
// keyed by logical credential name. Implementations must survive restarts
// (except the in-memory store used by tests).
package keychain

import "errors"

// Key identifies a stored credential.
type Key string

const (
	KeyAPIKey       Key = "apiKey"
	KeyAccessToken  Key = "accessToken"
	KeyRefreshToken Key = "refreshToken"
	KeyTokenExpiry  Key = "tokenExpiry"
)

// allKeys lists every credential cleared by ClearAll.
var allKeys = []Key{KeyAPIKey, KeyAccessToken, KeyRefreshToken, KeyTokenExpiry}

// ErrNotFound is returned by Get when no value is stored for the key.
var ErrNotFound = errors.New("keychain: credential not found")

// Store is the secure credential storage contract.
type Store interface {
	// Get returns the stored value, or ErrNotFound.
	Get(key Key) (string, error)
	// Set stores value under key, replacing any previous value.
	Set(key Key, value string) error
	// Delete removes the value for key. Deleting a missing key is not an error.
	Delete(key Key) error
	// ClearAll removes every credential.
	ClearAll() error
}
