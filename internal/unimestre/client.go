package unimestre

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the portal's mobile API root.
const DefaultBaseURL = "https://app.unimestre.com/mobile/v3.0"

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 32 << 20

// Transport fetches raw portal responses. Implementations return
// TransportError failures for connectivity problems and hand every body the
// portal answered with to the caller for decoding.
type Transport interface {
	// Login posts a credential payload and returns the response body.
	Login(ctx context.Context, payload []byte) ([]byte, error)

	// Sync fetches the snapshot of an already known person.
	Sync(ctx context.Context, personID int) ([]byte, error)
}

// ClientConfig configures the HTTP transport.
type ClientConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Client is the HTTP Transport for the Unimestre mobile API.
type Client struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

var _ Transport = (*Client)(nil)

// NewClient creates a Client. An empty BaseURL uses DefaultBaseURL.
func NewClient(cfg ClientConfig) (*Client, error) {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", base, err)
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "neomestre"
	}
	return &Client{
		baseURL:   strings.TrimRight(base, "/"),
		userAgent: ua,
		client:    &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Login(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", bytes.NewReader(payload))
	if err != nil {
		return nil, TransportFailure(fmt.Errorf("build login request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Length", strconv.Itoa(len(payload)))
	return c.do(req)
}

func (c *Client) Sync(ctx context.Context, personID int) ([]byte, error) {
	u := c.baseURL + "/sincronizacao?" + url.Values{"ds_filtro": {strconv.Itoa(personID)}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, TransportFailure(fmt.Errorf("build sync request: %w", err))
	}
	return c.do(req)
}

// do sends req. The portal reports rejections inside the envelope, sometimes
// with a 4xx status, so those bodies are returned for decoding; anything
// else that is not 2xx is a transport failure.
func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, TransportFailure(fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, TransportFailure(fmt.Errorf("read %s: %w", req.URL.Path, err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 500 || (resp.StatusCode >= 300 && resp.StatusCode < 400) {
		return nil, TransportFailure(fmt.Errorf("HTTP %d for %s", resp.StatusCode, req.URL.Path))
	}
	return body, nil
}
