package verifyClient

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

	"github.com/Layr-Labs/tweetproof-go/pkg/types"
	"github.com/Layr-Labs/tweetproof-go/pkg/verifier"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	VerifyPath      = "/api/verify"
	RequestIDHeader = "X-Request-Id"

	maxResponseBytes = 64 * 1024
)

// RetryConfig configures retry behavior
type RetryConfig struct {
	MaxAttempts     int
	InitialBackoff  time.Duration
	MaxBackoff      time.Duration
	BackoffMultiple float64
}

// DefaultRetryConfig provides default retry settings
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:     3,
	InitialBackoff:  100 * time.Millisecond,
	MaxBackoff:      2 * time.Second,
	BackoffMultiple: 2.0,
}

// ClientConfig holds the configuration for the verification client
type ClientConfig struct {
	BaseURL    string
	Timeout    time.Duration
	Retry      *RetryConfig
	Logger     *zap.Logger
	HTTPClient *http.Client
}

// Client talks to a remote verification authority
type Client struct {
	verifyURL   string
	httpClient  *http.Client
	retryConfig RetryConfig
	logger      *zap.Logger
}

// Compile-time check to ensure Client implements verifier.RemoteVerifier
var _ verifier.RemoteVerifier = (*Client)(nil)

// NewClient creates a verification client
func NewClient(config *ClientConfig) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if config.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	base, err := url.Parse(config.BaseURL)
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("base URL must be an absolute http(s) URL: %q", config.BaseURL)
	}

	retry := DefaultRetryConfig
	if config.Retry != nil {
		retry = *config.Retry
	}
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}

	httpClient := &http.Client{}
	if config.HTTPClient != nil {
		clientCopy := *config.HTTPClient
		httpClient = &clientCopy
	}
	if config.Timeout > 0 {
		httpClient.Timeout = config.Timeout
	}

	return &Client{
		verifyURL:   strings.TrimRight(config.BaseURL, "/") + VerifyPath,
		httpClient:  httpClient,
		retryConfig: retry,
		logger:      config.Logger,
	}, nil
}

// Verify submits a normalized triple. A definite answer is returned as a bool; every
// transport or protocol failure is an error wrapping types.ErrVerificationUnavailable.
func (c *Client) Verify(ctx context.Context, req *types.VerifyRequest) (bool, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return false, fmt.Errorf("%w: failed to marshal request: %v", types.ErrVerificationUnavailable, err)
	}

	requestID := uuid.NewString()
	backoff := c.retryConfig.InitialBackoff

	var lastErr error
	for attempt := 0; attempt < c.retryConfig.MaxAttempts; attempt++ {
		valid, retryable, err := c.doVerify(ctx, data, requestID)
		if err == nil {
			return valid, nil
		}
		lastErr = err

		c.logger.Sugar().Warnw("Remote verification attempt failed",
			"attempt", attempt+1,
			"requestId", requestID,
			"error", err,
		)
		if !retryable || attempt == c.retryConfig.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return false, fmt.Errorf("%w: %v", types.ErrVerificationUnavailable, ctx.Err())
		case <-time.After(backoff):
		}
		backoff = time.Duration(float64(backoff) * c.retryConfig.BackoffMultiple)
		if backoff > c.retryConfig.MaxBackoff {
			backoff = c.retryConfig.MaxBackoff
		}
	}

	return false, fmt.Errorf("%w: %v", types.ErrVerificationUnavailable, lastErr)
}

// doVerify performs one round trip. Transport errors and 5xx answers are retryable;
// anything the server said deliberately is not.
func (c *Client) doVerify(ctx context.Context, data []byte, requestID string) (bool, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.verifyURL, bytes.NewReader(data))
	if err != nil {
		return false, false, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(RequestIDHeader, requestID)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return false, ctx.Err() == nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return false, true, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, resp.StatusCode >= 500, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var verifyResp types.VerifyResponse
	if err := json.Unmarshal(body, &verifyResp); err != nil {
		return false, false, fmt.Errorf("malformed response body: %w", err)
	}
	if verifyResp.Error != "" {
		return false, false, fmt.Errorf("server reported: %s", verifyResp.Error)
	}
	if verifyResp.Valid == nil {
		return false, false, fmt.Errorf("response is missing the valid field")
	}
	return *verifyResp.Valid, false, nil
}
