package usda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/macrolens/allergenscan/internal/domain"
)

const (
	// DefaultTimeout bounds every outbound call
	DefaultTimeout = 15 * time.Second

	// Endpoint labels reported to the UpstreamObserver
	EndpointSearch = "search"
	EndpointDetail = "detail"

	userAgent        = "AllergenScan/1.0"
	maxErrorBodySize = 1024
)

// Client handles communication with the USDA FoodData Central API.
// Every request is attempted once; there is no retry or backoff.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	logger     *slog.Logger
	observer   domain.UpstreamObserver
}

// Option customizes a Client
type Option func(*Client)

// WithTimeout overrides the per-request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithLogger sets the logger used for request diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver reports status and latency of every request
func WithObserver(observer domain.UpstreamObserver) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

// NewClient creates a new USDA API client
func NewClient(apiKey, baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		apiKey:  apiKey,
		baseURL: baseURL,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "usda")

	return c
}

// SearchFoods searches for foods in the USDA database. An empty result set
// is not an error.
func (c *Client) SearchFoods(ctx context.Context, query string, pageSize int) (*domain.SearchResponse, error) {
	if pageSize <= 0 {
		pageSize = domain.DefaultSearchSize
	}

	params := url.Values{}
	params.Add("query", query)
	params.Add("pageSize", strconv.Itoa(pageSize))
	params.Add("api_key", c.apiKey)

	endpoint := fmt.Sprintf("%s/v1/foods/search", c.baseURL)
	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	c.logger.Debug("searching foods", "query", query, "page_size", pageSize)

	var searchResp domain.SearchResponse
	if err := c.getJSON(ctx, EndpointSearch, reqURL, &searchResp); err != nil {
		c.logger.Warn("search request failed", "query", query, "error", err)
		return nil, err
	}

	c.logger.Debug("search completed", "query", query, "foods", len(searchResp.Foods), "total_hits", searchResp.TotalHits)
	return &searchResp, nil
}

// GetFoodDetails retrieves the full record for a specific food by FDC ID
func (c *Client) GetFoodDetails(ctx context.Context, fdcID int64) (*domain.FoodDetail, error) {
	params := url.Values{}
	params.Add("api_key", c.apiKey)

	endpoint := fmt.Sprintf("%s/v1/food/%d", c.baseURL, fdcID)
	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	var food domain.FoodDetail
	if err := c.getJSON(ctx, EndpointDetail, reqURL, &food); err != nil {
		c.logger.Warn("detail request failed", "fdc_id", fdcID, "error", err)
		return nil, err
	}

	return &food, nil
}

// getJSON performs one GET and decodes a 200 response into out
func (c *Client) getJSON(ctx context.Context, endpoint, reqURL string, out interface{}) error {
	start := time.Now()

	resp, err := c.doRequest(ctx, reqURL)
	if err != nil {
		c.observe(endpoint, 0, time.Since(start))
		return err
	}
	defer resp.Body.Close()

	c.observe(endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrProductNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := readLimitedBody(resp.Body, maxErrorBodySize)
		return fmt.Errorf("%w: status %d, body: %s", domain.ErrUSDAAPIFailure, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// doRequest executes an HTTP GET request with proper headers and error handling
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", redactURLError(err))
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUSDAAPIFailure, redactURLError(err))
	}

	return resp, nil
}

// redactURLError drops the request URL, which carries the API key, from
// errors produced by net/http
func redactURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

// readLimitedBody reads at most limit bytes of a response body
func readLimitedBody(body io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, limit))
}

func (c *Client) observe(endpoint string, status int, duration time.Duration) {
	if c.observer != nil {
		c.observer.ObserveUpstream(endpoint, status, duration)
	}
}
