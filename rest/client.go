package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/MrEthical07/goIdentity"
)

const (
	headerAppID    = "X-Identity-Id"
	headerAppKey   = "X-Identity-Key"
	headerSession  = "X-Identity-Session"
	headerClientIP = "X-Real-IP"
)

// Client is the HTTP implementation of goIdentity.Backend.
type Client struct {
	baseURL string
	appID   string
	appKey  string
	http    *http.Client
}

// NewClient builds a Client from options. httpClient may be nil, in which case
// a client bounded by opts.Timeout is used.
func NewClient(opts Options, httpClient *http.Client) (*Client, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		appID:   opts.AppID,
		appKey:  opts.AppKey,
		http:    httpClient,
	}, nil
}

// Post implements goIdentity.Backend.
func (c *Client) Post(ctx context.Context, path, sessionToken string, body map[string]any) (map[string]any, error) {
	return c.do(ctx, http.MethodPost, path, sessionToken, body, nil)
}

// Put implements goIdentity.Backend.
func (c *Client) Put(ctx context.Context, path, sessionToken string, body map[string]any) (map[string]any, error) {
	return c.do(ctx, http.MethodPut, path, sessionToken, body, nil)
}

// Get implements goIdentity.Backend.
func (c *Client) Get(ctx context.Context, path, sessionToken string, query map[string]string) (map[string]any, error) {
	return c.do(ctx, http.MethodGet, path, sessionToken, nil, query)
}

func (c *Client) do(ctx context.Context, method, path, sessionToken string, body map[string]any, query map[string]string) (map[string]any, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		values := url.Values{}
		for k, v := range query {
			values.Set(k, v)
		}
		target += "?" + values.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("rest: encode body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("rest: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerAppID, c.appID)
	req.Header.Set(headerAppKey, c.appKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionToken != "" {
		req.Header.Set(headerSession, sessionToken)
	}
	if ip := goIdentity.ClientIPFromContext(ctx); ip != "" {
		req.Header.Set(headerClientIP, ip)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", goIdentity.ErrNetwork, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", goIdentity.ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeBackendError(resp.StatusCode, raw)
	}

	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", goIdentity.ErrNetwork, err)
	}
	return payload, nil
}

// decodeBackendError turns a non-2xx response into a *goIdentity.BackendError.
// A body that is not the expected {"code":..,"error":..} shape still produces
// a structured error carrying the HTTP status.
func decodeBackendError(status int, raw []byte) error {
	var wire struct {
		Code  int    `json:"code"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &wire); err == nil && wire.Code != 0 {
		return &goIdentity.BackendError{Code: wire.Code, Message: wire.Error}
	}
	return &goIdentity.BackendError{
		Code:    status,
		Message: fmt.Sprintf("http status %d", status),
	}
}
