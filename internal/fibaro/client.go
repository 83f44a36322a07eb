package fibaro

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultPollTimeout    = 60 * time.Second

	// maxErrorBody bounds how much of a failed response is kept in the error.
	maxErrorBody = 256
)

// Config holds what is needed to reach a hub.
type Config struct {
	// BaseURL is the API root. A trailing slash is added when missing.
	BaseURL  string
	Username string
	Password string

	// RequestTimeout bounds devices and callAction requests.
	RequestTimeout time.Duration

	// PollTimeout bounds a refreshStates long-poll.
	PollTimeout time.Duration

	// HTTPClient overrides the default http.Client (optional).
	HTTPClient *http.Client
}

// Client talks to one Fibaro hub.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Client struct {
	base           *url.URL
	username       string
	password       string
	requestTimeout time.Duration
	pollTimeout    time.Duration
	http           *http.Client
}

// NewClient validates cfg and returns a Client.
func NewClient(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}

	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, base.Scheme)
	}

	c := &Client{
		base:           base,
		username:       cfg.Username,
		password:       cfg.Password,
		requestTimeout: cfg.RequestTimeout,
		pollTimeout:    cfg.PollTimeout,
		http:           cfg.HTTPClient,
	}
	if c.requestTimeout <= 0 {
		c.requestTimeout = defaultRequestTimeout
	}
	if c.pollTimeout <= 0 {
		c.pollTimeout = defaultPollTimeout
	}
	if c.http == nil {
		c.http = &http.Client{}
	}

	return c, nil
}

// BaseURL returns the normalised API root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Devices fetches the full device list.
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	var devices []Device
	if err := c.get(ctx, c.requestTimeout, "devices", nil, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// RefreshStates long-polls for changes after last.
//
// The hub holds the request open until something changes or its own
// timeout elapses, so PollTimeout must exceed that hold time.
func (c *Client) RefreshStates(ctx context.Context, last Cursor) (*StatesResponse, error) {
	if last == "" {
		last = InitialCursor
	}

	q := url.Values{}
	q.Set("last", last.String())

	var resp StatesResponse
	if err := c.get(ctx, c.pollTimeout, "refreshStates", q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CallAction asks the hub to run an action on a device.
// The response body is ignored.
//
// Example:
//
//	client.CallAction(ctx, 12, "setValue", map[string]string{"arg1": "45"})
func (c *Client) CallAction(ctx context.Context, deviceID int, name string, args map[string]string) error {
	q := url.Values{}
	for k, v := range args {
		q.Set(k, v)
	}
	q.Set("deviceId", strconv.Itoa(deviceID))
	q.Set("name", name)

	return c.get(ctx, c.requestTimeout, "callAction", q, nil)
}

// get issues an authenticated GET and decodes the JSON body into out.
// A nil out discards the body.
func (c *Client) get(ctx context.Context, timeout time.Duration, endpoint string, query url.Values, out any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	u := c.base.ResolveReference(&url.URL{Path: endpoint})
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRequestFailed, endpoint, err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRequestFailed, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: %s returned %d: %s", ErrUnexpectedStatus, endpoint, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDecodeFailed, endpoint, err)
	}
	return nil
}
