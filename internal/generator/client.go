// Package generator calls the external trade-idea service.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"tradeidea/internal/autogen"
	"tradeidea/internal/pkg/httpclient"
)

const generatePath = "/api/trade-ideas/generate"

// ErrRejected is wrapped when the service declines to generate, for example
// because the user's weekly quota is used up.
var ErrRejected = errors.New("trade idea generation rejected")

type generateRequest struct {
	UserID string `json:"user_id"`
	Source string `json:"source"`
}

type generateResponse struct {
	Success bool          `json:"success"`
	Data    *autogen.Idea `json:"data"`
	Error   string        `json:"error"`
}

// Client implements autogen.Generator over HTTP.
type Client struct {
	http   *httpclient.Client
	logger *zap.Logger
}

// New creates a client. Retries are off: a retried POST could produce two ideas.
func New(baseURL, token string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		http: httpclient.New().
			WithBaseURL(strings.TrimRight(baseURL, "/")).
			WithBearerToken(token).
			WithTimeout(timeout).
			WithRetries(0),
		logger: logger.Named("generator"),
	}
}

func (c *Client) Generate(ctx context.Context, userID string) (*autogen.Idea, error) {
	var resp generateResponse
	err := c.http.PostJSON(ctx, generatePath, generateRequest{UserID: userID, Source: "auto_generation"}, &resp)
	if err != nil {
		var se *httpclient.StatusError
		if errors.As(err, &se) {
			if msg := decodeError(se.Body); msg != "" {
				return nil, fmt.Errorf("%w: %s", ErrRejected, msg)
			}
		}
		return nil, fmt.Errorf("generate trade idea: %w", err)
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "unknown error"
		}
		return nil, fmt.Errorf("%w: %s", ErrRejected, msg)
	}

	c.logger.Debug("trade idea received", zap.String("user_id", userID))
	return resp.Data, nil
}
