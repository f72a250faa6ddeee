// Package notify posts job completion messages to an ntfy topic.
package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gchanuoft/DSI-BuildSoftSummative/internal/errors"
)

const (
	// DefaultBaseURL is the public ntfy relay.
	DefaultBaseURL = "https://ntfy.sh/"

	// defaultTimeout is the request timeout.
	defaultTimeout = 30 * time.Second
)

// NtfyClient publishes plain-text messages to one topic.
type NtfyClient struct {
	topicURL   string
	title      string
	httpClient *http.Client
}

// ClientOption configures an NtfyClient.
type ClientOption func(*NtfyClient)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *NtfyClient) {
		c.httpClient.Timeout = timeout
	}
}

// WithTitle sets the notification title shown by ntfy clients.
func WithTitle(title string) ClientOption {
	return func(c *NtfyClient) {
		c.title = title
	}
}

// NewNtfyClient creates a client posting to <baseURL><topic>. An empty
// baseURL uses DefaultBaseURL.
func NewNtfyClient(baseURL, topic string, opts ...ClientOption) *NtfyClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	c := &NtfyClient{
		topicURL: baseURL + topic,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// TopicURL returns the URL messages are posted to.
func (c *NtfyClient) TopicURL() string {
	return c.topicURL
}

// Send posts message as the request body. The response body is ignored;
// any non-2xx status or transport failure returns *errors.NotificationError.
func (c *NtfyClient) Send(ctx context.Context, message string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.topicURL, strings.NewReader(message))
	if err != nil {
		return errors.NewNotificationError(c.topicURL, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if c.title != "" {
		req.Header.Set("Title", c.title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewNotificationError(c.topicURL, fmt.Errorf("send request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.NewNotificationError(c.topicURL, errors.ErrUnexpectedStatus).WithStatus(resp.StatusCode)
	}

	return nil
}
