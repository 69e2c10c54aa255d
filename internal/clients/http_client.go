package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"todo_client/internal/domain"
	"todo_client/internal/middleware"

	"github.com/sirupsen/logrus"
)

const maxResponseBody = 1 << 20

// Sender is the part of APIClient the resource services depend on.
type Sender interface {
	Send(ctx context.Context, method, path string, body, out any, fallback string) error
}

// APIClient talks JSON to the to-do REST API. It attaches the bearer token
// from the token store, normalizes failures into *domain.APIError and reacts
// to a 401 on an authenticated request by clearing the store and invoking the
// unauthorized callback.
type APIClient struct {
	baseURL string
	client  *http.Client
	tokens  domain.TokenStore
	log     *logrus.Logger

	mu             sync.RWMutex
	onUnauthorized func()
}

var _ Sender = (*APIClient)(nil)

func NewAPIClient(baseURL string, timeout time.Duration, tokens domain.TokenStore, logger *logrus.Logger) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout:   timeout,
			Transport: middleware.Chain(nil, logger),
		},
		tokens: tokens,
		log:    logger,
	}
}

// OnUnauthorized registers the process-wide reaction to an expired session.
func (c *APIClient) OnUnauthorized(fn func()) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

func (c *APIClient) Send(ctx context.Context, method, path string, body, out any, fallback string) error {
	url := c.baseURL + path

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			c.log.Errorf("APIClient: Failed to marshal %s %s body: %v", method, path, err)
			return fmt.Errorf("failed to prepare request body: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		c.log.Errorf("APIClient: Failed to create %s %s request: %v", method, path, err)
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.tokens.Get()
	if err != nil {
		c.log.Warnf("APIClient: Token store read failed, sending %s %s anonymously: %v", method, path, err)
		token = ""
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return c.transportError(method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		c.log.Errorf("APIClient: Failed to read %s %s response: %v", method, path, err)
		return &domain.APIError{Status: resp.StatusCode, Message: domain.ErrNetwork.Error(), Kind: domain.ErrNetwork, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &domain.APIError{
			Status:  resp.StatusCode,
			Message: extractMessage(payload, fallback),
		}
		if resp.StatusCode == http.StatusUnauthorized && token != "" {
			apiErr.Kind = domain.ErrAuthExpired
			c.log.Warnf("APIClient: %s %s rejected the session token, deauthenticating", method, path)
			c.handleUnauthorized()
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		c.log.Errorf("APIClient: Failed to decode %s %s response: %v", method, path, err)
		return &domain.APIError{Status: resp.StatusCode, Message: "invalid response from server", Err: err}
	}
	return nil
}

func (c *APIClient) handleUnauthorized() {
	if err := c.tokens.Clear(); err != nil {
		c.log.Errorf("APIClient: Failed to clear token store after 401: %v", err)
	}
	c.mu.RLock()
	fn := c.onUnauthorized
	c.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

func (c *APIClient) transportError(method, path string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		c.log.Warnf("APIClient: %s %s timed out: %v", method, path, err)
		return &domain.APIError{Message: domain.ErrTimeout.Error(), Kind: domain.ErrTimeout, Err: err}
	}
	c.log.Warnf("APIClient: %s %s failed without response: %v", method, path, err)
	return &domain.APIError{Message: domain.ErrNetwork.Error(), Kind: domain.ErrNetwork, Err: err}
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func extractMessage(payload []byte, fallback string) string {
	var body errorBody
	if err := json.Unmarshal(payload, &body); err == nil {
		if m := strings.TrimSpace(body.Message); m != "" {
			return m
		}
		if m := strings.TrimSpace(body.Error); m != "" {
			return m
		}
	}
	return fallback
}
