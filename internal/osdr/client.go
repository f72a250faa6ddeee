// Package osdr provides a client for the NASA Open Science Data Repository
// study files API.
package osdr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gchanuoft/DSI-BuildSoftSummative/internal/errors"
)

const (
	// defaultTimeout is the API request timeout.
	defaultTimeout = 30 * time.Second

	// maxErrorBody caps how much of a non-success response is kept in errors.
	maxErrorBody = 512
)

// Client fetches study file listings from the data API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client. A zero timeout on the
// given client is replaced with the default.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc.Timeout <= 0 {
			hc.Timeout = c.httpClient.Timeout
		}
		c.httpClient = hc
	}
}

// NewClient creates a client for the study endpoint at baseURL, for example
// https://osdr.nasa.gov/osdr/data/osd/files/201. The apiKey is sent as the
// api_key query parameter.
func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// requestURL adds the api_key query parameter to the base URL.
func (c *Client) requestURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("api_key", c.apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Fetch retrieves and decodes the study files listing.
//
// A transport failure or non-2xx response returns *errors.DataFetchError.
// A body that is not a JSON object with a studies mapping returns
// *errors.DataFormatError.
func (c *Client) Fetch(ctx context.Context) (*Dataset, error) {
	reqURL, err := c.requestURL()
	if err != nil {
		return nil, errors.NewDataFetchError(c.baseURL, fmt.Errorf("parse url: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.NewDataFetchError(c.baseURL, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The transport error repeats the request URL, which carries the key.
		return nil, errors.NewDataFetchError(c.baseURL, fmt.Errorf("send request: %s", c.redact(err.Error())))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		cause := fmt.Errorf("%w: %s", errors.ErrUnexpectedStatus, strings.TrimSpace(string(body)))
		return nil, errors.NewDataFetchError(c.baseURL, cause).WithStatus(resp.StatusCode)
	}

	var ds Dataset
	if err := json.NewDecoder(resp.Body).Decode(&ds); err != nil {
		return nil, errors.NewDataFormatError(c.baseURL, fmt.Errorf("decode response: %w", err))
	}
	if ds.Studies == nil {
		return nil, errors.NewDataFormatError(c.baseURL, fmt.Errorf("response has no studies"))
	}
	ds.source = c.baseURL

	return &ds, nil
}

func (c *Client) redact(s string) string {
	if c.apiKey == "" {
		return s
	}
	return strings.ReplaceAll(s, url.QueryEscape(c.apiKey), "****")
}
