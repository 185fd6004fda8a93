package httpremote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"bubbletasks/backend"
)

// DefaultTimeout bounds every request when the config does not set one
const DefaultTimeout = 15 * time.Second

func init() {
	backend.RegisterRemoteType("http", func(config backend.RemoteConfig) (backend.RemoteStore, error) {
		return New(config)
	})
}

// Client talks to a remote record server over HTTP
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the server at config.URL. When config.Token is
// set every request carries it as a bearer token.
func New(config backend.RemoteConfig) (*Client, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("http remote requires a url")
	}
	if _, err := url.Parse(config.URL); err != nil {
		return nil, fmt.Errorf("invalid remote url %q: %w", config.URL, err)
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := &http.Client{Timeout: timeout}
	if config.Token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: config.Token, TokenType: "Bearer"})
		httpClient = oauth2.NewClient(ctx, src)
		httpClient.Timeout = timeout
	}

	return &Client{
		baseURL:    strings.TrimRight(config.URL, "/"),
		httpClient: httpClient,
	}, nil
}

// NewWithHTTPClient creates a client using a caller supplied *http.Client
func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (c *Client) GetProfile(ctx context.Context, userID string) (*backend.Profile, error) {
	var profile backend.Profile
	if err := c.do(ctx, "GetProfile", http.MethodGet, profilePath(userID), userID, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) PutProfile(ctx context.Context, userID string, profile backend.Profile) error {
	return c.do(ctx, "PutProfile", http.MethodPut, profilePath(userID), userID, profile, nil)
}

func (c *Client) GetTaskRecord(ctx context.Context, userID string) (*backend.TaskRecord, error) {
	var record backend.TaskRecord
	if err := c.do(ctx, "GetTaskRecord", http.MethodGet, premiumPath(userID), userID, nil, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (c *Client) PutTaskRecord(ctx context.Context, userID string, record backend.TaskRecord) error {
	if record.Todos == nil {
		record.Todos = []backend.Task{}
	}
	return c.do(ctx, "PutTaskRecord", http.MethodPut, premiumPath(userID), userID, record, nil)
}

func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func profilePath(userID string) string {
	return "/v1/users/" + url.PathEscape(userID)
}

func premiumPath(userID string) string {
	return "/v1/premium/" + url.PathEscape(userID)
}

// do performs one JSON request and decodes the response into out when set
func (c *Client) do(ctx context.Context, op, method, path, userID string, body, out interface{}) error {
	if userID == "" {
		return backend.NewRemoteError(op, 0, "user id is required")
	}

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return backend.NewRemoteError(op, 0, "failed to marshal request body").WithError(err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return backend.NewRemoteError(op, 0, "failed to create request").WithError(err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return backend.NewRemoteError(op, 0, "request failed").WithUserID(userID).WithError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return backend.NewRemoteError(op, resp.StatusCode, "record not found").WithUserID(userID).WithError(backend.ErrRecordNotFound)
	case resp.StatusCode == http.StatusForbidden && method == http.MethodPut && strings.HasPrefix(path, "/v1/premium/"):
		return backend.NewRemoteError(op, resp.StatusCode, "premium required").WithUserID(userID).WithError(backend.ErrNotEntitled)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return backend.NewRemoteError(op, resp.StatusCode, strings.TrimSpace(string(msg))).WithUserID(userID)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return backend.NewRemoteError(op, resp.StatusCode, "failed to decode response").WithUserID(userID).WithError(err)
	}
	return nil
}
