package clients

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"todo_client/internal/domain"
	"todo_client/internal/repository"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) (*APIClient, domain.TokenStore) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	logger, _ := test.NewNullLogger()
	store := repository.NewMemoryTokenStore()
	return NewAPIClient(srv.URL+"/", timeout, store, logger), store
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestSend_AttachesBearerAndJSONHeaders(t *testing.T) {
	var auth, contentType, accept, path string
	var body map[string]string
	api, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		contentType = r.Header.Get("Content-Type")
		accept = r.Header.Get("Accept")
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusCreated, domain.Todo{ID: 42, Task: "Buy milk"})
	}, time.Second)
	require.NoError(t, store.Set("abc"))

	var out domain.Todo
	err := api.Send(context.Background(), http.MethodPost, "/todos", map[string]string{"task": "Buy milk"}, &out, "fallback")
	require.NoError(t, err)

	assert.Equal(t, "Bearer abc", auth)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, "application/json", accept)
	assert.Equal(t, "/todos", path)
	assert.Equal(t, "Buy milk", body["task"])
	assert.Equal(t, int64(42), out.ID)
}

func TestSend_OmitsAuthorizationWithoutToken(t *testing.T) {
	var auth []string
	api, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Values("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}, time.Second)

	require.NoError(t, api.Send(context.Background(), http.MethodGet, "/health", nil, nil, "x"))
	assert.Empty(t, auth)
}

func TestSend_ErrorMessageExtraction(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message field", `{"message":"Todo not found"}`, "Todo not found"},
		{"error field", `{"error":"Invalid input"}`, "Invalid input"},
		{"message wins", `{"message":"m","error":"e"}`, "m"},
		{"blank message", `{"message":"  "}`, "Failed to fetch todo"},
		{"not json", `<html>oops</html>`, "Failed to fetch todo"},
		{"empty", ``, "Failed to fetch todo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				_, _ = io.WriteString(w, tt.body)
			}, time.Second)

			err := api.Send(context.Background(), http.MethodGet, "/todos/1", nil, nil, "Failed to fetch todo")
			var apiErr *domain.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, http.StatusNotFound, apiErr.Status)
			assert.Equal(t, tt.want, apiErr.Message)
			assert.Nil(t, apiErr.Kind)
		})
	}
}

func TestSend_UnauthorizedWithTokenClearsStore(t *testing.T) {
	api, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid or expired token"})
	}, time.Second)
	require.NoError(t, store.Set("stale"))

	var fired int32
	api.OnUnauthorized(func() {
		tok, _ := store.Get()
		assert.Empty(t, tok, "store is cleared before the callback runs")
		atomic.AddInt32(&fired, 1)
	})

	err := api.Send(context.Background(), http.MethodGet, "/todos", nil, nil, "Failed to fetch todos")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAuthExpired))
	assert.Equal(t, "Invalid or expired token", err.Error())
	assert.Equal(t, int32(1), atomic.LoadInt32(&fired))
}

func TestSend_UnauthorizedWithoutTokenIsPlainError(t *testing.T) {
	api, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid username or password"})
	}, time.Second)
	fired := false
	api.OnUnauthorized(func() { fired = true })

	err := api.Send(context.Background(), http.MethodPost, "/login", domain.Credentials{Username: "a", Password: "b"}, nil, "Login failed")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrAuthExpired))
	assert.Equal(t, "Invalid username or password", err.Error())
	assert.False(t, fired)
}

func TestSend_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	logger, _ := test.NewNullLogger()
	api := NewAPIClient(url, time.Second, repository.NewMemoryTokenStore(), logger)

	err := api.Send(context.Background(), http.MethodGet, "/todos", nil, nil, "Failed to fetch todos")
	var apiErr *domain.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Zero(t, apiErr.Status)
	assert.True(t, errors.Is(err, domain.ErrNetwork))
	assert.Equal(t, "network error", apiErr.Message)
}

func TestSend_Timeout(t *testing.T) {
	release := make(chan struct{})
	api, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, 50*time.Millisecond)
	defer close(release)

	err := api.Send(context.Background(), http.MethodGet, "/todos", nil, nil, "Failed to fetch todos")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTimeout))
	assert.False(t, errors.Is(err, domain.ErrNetwork))
}

func TestSend_InvalidJSONResponse(t *testing.T) {
	api, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "{not json")
	}, time.Second)

	var out domain.Todo
	err := api.Send(context.Background(), http.MethodGet, "/todos/1", nil, &out, "x")
	var apiErr *domain.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusOK, apiErr.Status)
	assert.Equal(t, "invalid response from server", apiErr.Message)
}
