package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"tradeidea/internal/pkg/utils"
)

// Client wraps resty for calls to external JSON APIs.
type Client struct {
	r *resty.Client
}

// StatusError is returned when the remote answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, utils.Truncate(e.Body, 512))
}

// New creates a new HTTP client with sensible defaults.
func New() *Client {
	r := resty.New().
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second)

	return &Client{r: r}
}

// WithTimeout sets a custom timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.r.SetTimeout(d)
	return c
}

// WithBaseURL sets the prefix for relative request URLs.
func (c *Client) WithBaseURL(url string) *Client {
	c.r.SetBaseURL(url)
	return c
}

// WithBearerToken sets a bearer token for authentication.
func (c *Client) WithBearerToken(token string) *Client {
	if token != "" {
		c.r.SetAuthToken(token)
	}
	return c
}

// WithHeader sets a custom header.
func (c *Client) WithHeader(key, value string) *Client {
	c.r.SetHeader(key, value)
	return c
}

// WithRetries sets the retry count. Zero disables retries, which callers of
// non-idempotent endpoints want.
func (c *Client) WithRetries(count int) *Client {
	c.r.SetRetryCount(count)
	return c
}

// RetryOnServerError also retries 429 and 5xx responses, not only transport errors.
func (c *Client) RetryOnServerError() *Client {
	c.r.AddRetryCondition(func(resp *resty.Response, err error) bool {
		if err != nil || resp == nil {
			return false
		}
		code := resp.StatusCode()
		return code == http.StatusTooManyRequests || code >= 500
	})
	return c
}

// GetJSON sends a GET request and decodes a 2xx JSON body into result.
func (c *Client) GetJSON(ctx context.Context, url string, result interface{}) error {
	req := c.r.R().SetContext(ctx)
	if result != nil {
		req.SetResult(result)
	}
	resp, err := req.Get(url)
	return checkResponse(resp, err)
}

// PostJSON sends body as JSON and decodes a 2xx JSON body into result.
func (c *Client) PostJSON(ctx context.Context, url string, body, result interface{}) error {
	req := c.r.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json")
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}
	resp, err := req.Post(url)
	return checkResponse(resp, err)
}

func checkResponse(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if resp.IsError() {
		body := resp.String()
		if len(body) > 512 {
			body = body[:512]
		}
		return &StatusError{StatusCode: resp.StatusCode(), Body: body}
	}
	return nil
}

// Raw returns the underlying resty client for advanced usage.
func (c *Client) Raw() *resty.Client {
	return c.r
}
