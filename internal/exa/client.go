package exa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/The-Digital-TeeJay/exa-labs-exa-mcp-server/internal/types"
)

const (
	// DefaultBaseURL is the production Exa API endpoint.
	DefaultBaseURL = "https://api.exa.ai"

	pathSearch      = "/search"
	pathFindSimilar = "/findSimilar"
	pathContents    = "/contents"

	searchTypeAuto = "auto"
)

// Config holds Exa client settings.
type Config struct {
	APIKey          string
	BaseURL         string
	Timeout         time.Duration
	RateLimit       float64
	RateBurst       int
	MaxIdleConns    int
	IdleConnTimeout time.Duration
}

// Client is a rate-limited HTTP client for the Exa API.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	config      *Config
	logger      *log.Logger
}

// NewClient creates a new Exa API client.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 5.0
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 10
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = 10
	}
	if cfg.IdleConnTimeout == 0 {
		cfg.IdleConnTimeout = 90 * time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConns,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout,
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		config:      cfg,
		logger:      log.New(os.Stderr, "[ExaClient] ", log.LstdFlags),
	}, nil
}

// SetLogger sets a custom logger for the client.
func (c *Client) SetLogger(logger *log.Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// Search executes POST /search for the given query.
func (c *Client) Search(ctx context.Context, query string, numResults int) (*SearchResponse, error) {
	reqBody := SearchRequest{
		Query:      query,
		Type:       searchTypeAuto,
		NumResults: numResults,
		Contents:   Contents{Text: true},
	}

	var resp SearchResponse
	if err := c.post(ctx, pathSearch, reqBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FindSimilar executes POST /findSimilar for the given URL.
func (c *Client) FindSimilar(ctx context.Context, url string, numResults int) (*SearchResponse, error) {
	reqBody := FindSimilarRequest{
		URL:        url,
		NumResults: numResults,
		Contents:   Contents{Text: true},
	}

	var resp SearchResponse
	if err := c.post(ctx, pathFindSimilar, reqBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetContents executes POST /contents for the given document IDs.
func (c *Client) GetContents(ctx context.Context, ids []string) (*ContentsResponse, error) {
	reqBody := ContentsRequest{
		IDs:      ids,
		Contents: Contents{Text: true},
	}

	var resp ContentsResponse
	if err := c.post(ctx, pathContents, reqBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// post sends one JSON request and decodes the response into out.
func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return NewAPIError(types.ErrorTypeRateLimit, fmt.Sprintf("rate limit wait failed: %v", err))
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.config.APIKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return NewAPIError(types.ErrorTypeTimeout, fmt.Sprintf("request to %s timed out after %s", path, c.config.Timeout))
		}
		return NewAPIError(types.ErrorTypeUpstream, fmt.Sprintf("request error: %v", err))
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Printf("failed to close response body: %v", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return NewAPIError(types.ErrorTypeUpstream, fmt.Sprintf("failed to read response body: %v", err))
	}

	c.logger.Printf("POST %s status=%d bytes=%d duration=%s", path, resp.StatusCode, len(respBody), time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ClassifyHTTPError(resp.StatusCode, upstreamMessage(respBody, resp.StatusCode))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return NewAPIError(types.ErrorTypeUpstream, fmt.Sprintf("failed to decode response: %v", err))
	}

	return nil
}

// upstreamMessage extracts the API's error message when the body carries one.
func upstreamMessage(body []byte, statusCode int) string {
	var envelope apiErrorBody
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Message != "" {
			return envelope.Message
		}
		if envelope.Error != "" {
			return envelope.Error
		}
	}
	return fmt.Sprintf("%d", statusCode)
}
