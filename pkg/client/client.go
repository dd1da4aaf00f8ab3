// Package client is a Go SDK for the marketplace HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/neutralface-io/nfai-web/internal/auth"
	"github.com/neutralface-io/nfai-web/pkg/utils"
)

// Client calls /api/v1 on behalf of the connected wallet, if any.
type Client struct {
	baseURL    string
	httpClient *http.Client
	validator  *utils.Validator

	mu     sync.RWMutex
	wallet string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default 30s-timeout http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithWallet connects a wallet from the start.
func WithWallet(wallet string) Option {
	return func(c *Client) { c.wallet = strings.TrimSpace(wallet) }
}

// New returns a client for the API served at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/") + "/api/v1",
		httpClient: &http.Client{Timeout: 30 * time.Second},
		validator:  utils.NewValidator(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Wallet returns the connected wallet, "" when disconnected.
func (c *Client) Wallet() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.wallet
}

// Connect sets the wallet sent with every request. An empty wallet disconnects.
func (c *Client) Connect(wallet string) {
	c.mu.Lock()
	c.wallet = strings.TrimSpace(wallet)
	c.mu.Unlock()
}

type envelope struct {
	Status  bool               `json:"status"`
	Message string             `json:"message"`
	Data    json.RawMessage    `json:"data"`
	Error   *utils.CustomError `json:"error"`
}

// requireWallet fails before any request is made when no wallet is connected.
func (c *Client) requireWallet() error {
	return auth.RequireConnected(c.Wallet())
}

func (c *Client) check(v interface{}) error {
	if verr := c.validator.Validate(v); verr != nil {
		return verr.AsError()
	}
	return nil
}

// Request sends a JSON request and decodes the envelope's data into result.
// Non-2xx responses come back as *utils.CustomError.
func (c *Client) Request(ctx context.Context, method, path string, body, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, result)
}

func (c *Client) do(req *http.Request, result interface{}) error {
	req.Header.Set("Accept", "application/json")
	if wallet := c.Wallet(); wallet != "" {
		req.Header.Set(auth.WalletHeader, wallet)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(respBody, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if decodeErr == nil && env.Error != nil {
			e := *env.Error
			e.Code = resp.StatusCode
			return &e
		}
		return utils.NewError(resp.StatusCode, http.StatusText(resp.StatusCode), string(respBody))
	}
	if decodeErr != nil {
		return fmt.Errorf("failed to decode response: %w", decodeErr)
	}

	if result != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, result); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}

// Get makes a GET request with optional query values.
func (c *Client) Get(ctx context.Context, path string, query url.Values, result interface{}) error {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.Request(ctx, http.MethodGet, path, nil, result)
}

// Post makes a POST request.
func (c *Client) Post(ctx context.Context, path string, body, result interface{}) error {
	return c.Request(ctx, http.MethodPost, path, body, result)
}

// Put makes a PUT request.
func (c *Client) Put(ctx context.Context, path string, body, result interface{}) error {
	return c.Request(ctx, http.MethodPut, path, body, result)
}

// Patch makes a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body, result interface{}) error {
	return c.Request(ctx, http.MethodPatch, path, body, result)
}

// Delete makes a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Request(ctx, http.MethodDelete, path, nil, nil)
}

// Upload posts r as the multipart field "file".
func (c *Client) Upload(ctx context.Context, path, filename string, r io.Reader, result interface{}) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("failed to read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req, result)
}
