// Package identity looks up user profiles from the identity service. Two
// transports are provided: JSON over HTTP and request/reply over Redis lists.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-notification-api/internal/domain"
)

const lookupPattern = "getUserById"

// HTTPClient calls POST {baseURL}/rpc/getUserById.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Connect checks that the identity service is reachable. HTTP needs no
// persistent connection, so this is only a health check.
func (c *HTTPClient) Connect(ctx context.Context) error { return c.Ping(ctx) }

// Ping calls the identity service's health endpoint.
func (c *HTTPClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("identity health: %w: %w", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("identity health: status %d: %w", resp.StatusCode, domain.ErrUpstream)
	}
	return nil
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) Lookup(ctx context.Context, userID string) (*domain.Identity, error) {
	body, err := json.Marshal(lookupRequest{UserID: userID})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rpc/"+lookupPattern, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("user %s: %w", userID, errUnknownUser)
	case resp.StatusCode >= 300:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("identity service status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var ident *domain.Identity
	if err := json.NewDecoder(resp.Body).Decode(&ident); err != nil {
		return nil, fmt.Errorf("decode identity: %w", err)
	}
	return ident, nil
}

var errUnknownUser = errors.New("unknown user")

type lookupRequest struct {
	UserID string `json:"userId"`
}
