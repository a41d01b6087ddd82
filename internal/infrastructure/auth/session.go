// Package auth manages the credential session: keychain-backed tokens,
// bearer-header supply, refresh via the token endpoint, and the 401
// invalidation contract.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/turnernet/tracksync/internal/infrastructure/keychain"
	"github.com/turnernet/tracksync/internal/shared/logger"
)

// ErrNoCredentials is returned when neither a token nor an API key is
// available.
var ErrNoCredentials = errors.New("auth: no stored credentials")

// refresh slightly before the recorded expiry to absorb clock skew
const expirySlack = 30 * time.Second

type tokenSession struct {
	accessToken  string
	refreshToken string
	expiresAt    time.Time
}

func (s *tokenSession) valid(now time.Time) bool {
	return s != nil && s.accessToken != "" && now.Before(s.expiresAt.Add(-expirySlack))
}

// SessionController supplies auth headers for API requests and owns the
// token lifecycle. It uses its own HTTP client for the token endpoint so
// refresh never recurses through the authenticated client.
type SessionController struct {
	baseURL    string
	store      keychain.Store
	httpClient *http.Client
	logger     logger.Interface

	mu      sync.Mutex
	session *tokenSession
}

// NewSessionController creates a session controller against the given API
// base URL.
func NewSessionController(baseURL string, store keychain.Store, log logger.Interface) *SessionController {
	return &SessionController{
		baseURL:    strings.TrimRight(baseURL, "/"),
		store:      store,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     log,
	}
}

// Bootstrap loads any persisted token session from the keychain. Missing
// credentials are not an error.
func (s *SessionController) Bootstrap() {
	s.mu.Lock()
	defer s.mu.Unlock()

	access, err := s.store.Get(keychain.KeyAccessToken)
	if err != nil {
		return
	}
	refresh, _ := s.store.Get(keychain.KeyRefreshToken)

	session := &tokenSession{accessToken: access, refreshToken: refresh}
	if raw, err := s.store.Get(keychain.KeyTokenExpiry); err == nil {
		if expiry, err := time.Parse(time.RFC3339, raw); err == nil {
			session.expiresAt = expiry
		}
	}
	s.session = session
}

// AuthHeaders returns the headers for the next request. Preference order:
// a valid cached bearer token, a refreshed bearer token, then the raw API
// key. Returns ErrNoCredentials when nothing is usable.
func (s *SessionController) AuthHeaders(ctx context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if s.session.valid(now) {
		return map[string]string{"Authorization": "Bearer " + s.session.accessToken}, nil
	}

	if s.session != nil && s.session.refreshToken != "" {
		if err := s.refreshLocked(ctx); err == nil {
			return map[string]string{"Authorization": "Bearer " + s.session.accessToken}, nil
		} else {
			s.logger.Warnw("token refresh failed, falling back to API key", "error", err)
		}
	}

	if apiKey, err := s.store.Get(keychain.KeyAPIKey); err == nil && apiKey != "" {
		return map[string]string{"X-API-Key": apiKey}, nil
	}

	return nil, ErrNoCredentials
}

// HandleUnauthorized drops the cached token session after a 401. The API
// key is deliberately preserved: it is the long-lived credential the user
// entered, and the next request falls back to it to mint a fresh token.
func (s *SessionController) HandleUnauthorized(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = nil
	for _, key := range []keychain.Key{keychain.KeyAccessToken, keychain.KeyRefreshToken, keychain.KeyTokenExpiry} {
		if err := s.store.Delete(key); err != nil {
			return fmt.Errorf("failed to clear credential %s: %w", key, err)
		}
	}
	s.logger.Infow("cleared token session after unauthorized response")
	return nil
}

// ClearCredentials wipes everything including the API key. Used by logout.
func (s *SessionController) ClearCredentials() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = nil
	return s.store.ClearAll()
}

// HasCredentials reports whether any credential is stored.
func (s *SessionController) HasCredentials() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil && s.session.accessToken != "" {
		return true
	}
	if _, err := s.store.Get(keychain.KeyAPIKey); err == nil {
		return true
	}
	if _, err := s.store.Get(keychain.KeyAccessToken); err == nil {
		return true
	}
	return false
}

// ExchangeAPIKey stores the API key and trades it for a token session.
func (s *SessionController) ExchangeAPIKey(ctx context.Context, apiKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Set(keychain.KeyAPIKey, apiKey); err != nil {
		return fmt.Errorf("failed to store API key: %w", err)
	}
	return s.exchangeLocked(ctx, map[string]string{"api_key": apiKey})
}

func (s *SessionController) refreshLocked(ctx context.Context) error {
	return s.exchangeLocked(ctx, map[string]string{"refresh_token": s.session.refreshToken})
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

func (s *SessionController) exchangeLocked(ctx context.Context, grant map[string]string) error {
	body, err := json.Marshal(grant)
	if err != nil {
		return fmt.Errorf("failed to marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/auth/token", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return fmt.Errorf("failed to decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return errors.New("token response missing access_token")
	}

	expiresAt := s.resolveExpiry(token)
	session := &tokenSession{
		accessToken:  token.AccessToken,
		refreshToken: token.RefreshToken,
		expiresAt:    expiresAt,
	}

	if err := s.store.Set(keychain.KeyAccessToken, session.accessToken); err != nil {
		return fmt.Errorf("failed to persist access token: %w", err)
	}
	if session.refreshToken != "" {
		if err := s.store.Set(keychain.KeyRefreshToken, session.refreshToken); err != nil {
			return fmt.Errorf("failed to persist refresh token: %w", err)
		}
	}
	if err := s.store.Set(keychain.KeyTokenExpiry, expiresAt.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to persist token expiry: %w", err)
	}

	s.session = session
	s.logger.Infow("token session established", "expires_at", expiresAt)
	return nil
}

// resolveExpiry computes when the access token expires. When expires_in is
// absent the token's own exp claim is used; the signature is not verified
// because only the timestamp is wanted.
func (s *SessionController) resolveExpiry(token tokenResponse) time.Time {
	if token.ExpiresIn > 0 {
		return time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	}

	var claims jwt.RegisteredClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token.AccessToken, &claims); err == nil {
		if claims.ExpiresAt != nil {
			return claims.ExpiresAt.Time
		}
	}

	// No expiry information at all; assume a short-lived token.
	return time.Now().Add(15 * time.Minute)
}
