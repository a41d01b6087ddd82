package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turnernet/tracksync/internal/shared/logger"
)

type stubAuth struct {
	headers          map[string]string
	headerErr        error
	unauthorizedHits int
}

func (s *stubAuth) AuthHeaders(ctx context.Context) (map[string]string, error) {
	if s.headerErr != nil {
		return nil, s.headerErr
	}
	return s.headers, nil
}

func (s *stubAuth) HandleUnauthorized(ctx context.Context) error {
	s.unauthorizedHits++
	return nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc, auth AuthProvider) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, auth, logger.NewLogger()), server
}

type payload struct {
	Value string `json:"value"`
}

func TestSend_StatusClassification(t *testing.T) {
	ctx := context.Background()

	t.Run("2xx decodes body", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("ETag", `"abc"`)
			w.Write([]byte(`{"value":"ok"}`))
		}, nil)

		resp, err := Send[payload](ctx, client, Request{Path: "/thing"})
		require.NoError(t, err)
		require.NotNil(t, resp.Value)
		assert.Equal(t, "ok", resp.Value.Value)
		assert.Equal(t, `"abc"`, resp.ETag)
	})

	t.Run("2xx with empty body yields nil value", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}, nil)

		resp, err := Send[payload](ctx, client, Request{Path: "/thing"})
		require.NoError(t, err)
		assert.Nil(t, resp.Value)
	})

	t.Run("2xx with undecodable body is a decoding error", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"value": 7} trailing garbage`))
		}, nil)

		_, err := Send[payload](ctx, client, Request{Path: "/thing"})
		var decodingErr *DecodingError
		assert.ErrorAs(t, err, &decodingErr)
	})

	t.Run("304 yields nil value without error", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("ETag", `"v2"`)
			w.WriteHeader(http.StatusNotModified)
		}, nil)

		resp, err := Send[payload](ctx, client, Request{Path: "/thing"})
		require.NoError(t, err)
		assert.Nil(t, resp.Value)
		assert.Equal(t, http.StatusNotModified, resp.StatusCode)
		assert.Equal(t, `"v2"`, resp.ETag)
	})

	t.Run("401 invokes the unauthorized handler", func(t *testing.T) {
		auth := &stubAuth{headers: map[string]string{"Authorization": "Bearer stale"}}
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}, auth)

		_, err := Send[payload](ctx, client, Request{Path: "/thing"})
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Equal(t, 1, auth.unauthorizedHits)
	})

	t.Run("403 is forbidden", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}, nil)

		_, err := Send[payload](ctx, client, Request{Path: "/thing"})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("429 carries numeric Retry-After", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "42")
			w.WriteHeader(http.StatusTooManyRequests)
		}, nil)

		_, err := Send[payload](ctx, client, Request{Path: "/thing"})
		var rateLimited *RateLimitedError
		require.ErrorAs(t, err, &rateLimited)
		require.NotNil(t, rateLimited.RetryAfter)
		assert.Equal(t, 42*time.Second, *rateLimited.RetryAfter)
	})

	t.Run("429 converts HTTP-date Retry-After to a relative delay", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", time.Now().Add(30*time.Second).UTC().Format(http.TimeFormat))
			w.WriteHeader(http.StatusTooManyRequests)
		}, nil)

		_, err := Send[payload](ctx, client, Request{Path: "/thing"})
		var rateLimited *RateLimitedError
		require.ErrorAs(t, err, &rateLimited)
		require.NotNil(t, rateLimited.RetryAfter)
		assert.Greater(t, *rateLimited.RetryAfter, 20*time.Second)
		assert.LessOrEqual(t, *rateLimited.RetryAfter, 30*time.Second)
	})

	t.Run("past HTTP-date clamps to zero", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", time.Now().Add(-time.Minute).UTC().Format(http.TimeFormat))
			w.WriteHeader(http.StatusTooManyRequests)
		}, nil)

		_, err := Send[payload](ctx, client, Request{Path: "/thing"})
		var rateLimited *RateLimitedError
		require.ErrorAs(t, err, &rateLimited)
		require.NotNil(t, rateLimited.RetryAfter)
		assert.Equal(t, time.Duration(0), *rateLimited.RetryAfter)
	})

	t.Run("5xx is a server error", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}, nil)

		_, err := Send[payload](ctx, client, Request{Path: "/thing"})
		var serverErr *ServerError
		require.ErrorAs(t, err, &serverErr)
		assert.Equal(t, http.StatusBadGateway, serverErr.Status)
	})

	t.Run("transport failure is a network error", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:1", nil, logger.NewLogger())

		_, err := Send[payload](ctx, client, Request{Path: "/thing"})
		var networkErr *NetworkError
		assert.ErrorAs(t, err, &networkErr)
	})

	t.Run("cancellation passes through unwrapped", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}, nil)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := Send[payload](cancelled, client, Request{Path: "/thing"})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestSend_AuthHeaders(t *testing.T) {
	ctx := context.Background()

	t.Run("attaches provider headers and Accept", func(t *testing.T) {
		auth := &stubAuth{headers: map[string]string{"X-API-Key": "k123"}}
		var gotKey, gotAccept string
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotKey = r.Header.Get("X-API-Key")
			gotAccept = r.Header.Get("Accept")
			w.Write([]byte(`{"value":"ok"}`))
		}, auth)

		_, err := Send[payload](ctx, client, Request{Path: "/thing"})
		require.NoError(t, err)
		assert.Equal(t, "k123", gotKey)
		assert.Equal(t, "application/json", gotAccept)
	})

	t.Run("header supply failure surfaces as unauthorized", func(t *testing.T) {
		auth := &stubAuth{headerErr: errors.New("keychain locked")}
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("request must not be sent without auth headers")
		}, auth)

		_, err := Send[payload](ctx, client, Request{Path: "/thing"})
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}
