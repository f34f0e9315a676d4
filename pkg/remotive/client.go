package remotive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL   = "https://remotive.com"
	defaultCategory  = "software-dev"
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "remotejobs/1.0"
	maxErrorBody     = 4096
)

// NewClient instantiates a Remotive API client
func NewClient(cfg Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("remotive: parse base url: %w", err)
	}

	category := cfg.Category
	if category == "" {
		category = defaultCategory
	}

	if cfg.Limit < 0 {
		return nil, fmt.Errorf("remotive: limit must not be negative")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Client{
		baseURL:    baseURL,
		category:   category,
		search:     cfg.Search,
		limit:      cfg.Limit,
		httpClient: httpClient,
		userAgent:  userAgent,
	}, nil
}

// FetchJobs downloads the complete listing for the configured category in a
// single request. A response without a jobs key yields an empty slice.
func (c *Client) FetchJobs(ctx context.Context) ([]Job, error) {
	if c == nil {
		return nil, fmt.Errorf("remotive: client is nil")
	}

	u, err := c.buildURL()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("remotive: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remotive: request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	var payload remoteJobsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("remotive: decode response: %w", err)
	}

	jobs := make([]Job, 0, len(payload.Jobs))
	for _, raw := range payload.Jobs {
		jobs = append(jobs, decodeJob(raw))
	}
	return jobs, nil
}

func (c *Client) buildURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("remotive: parse base url: %w", err)
	}

	u.Path = path.Join(u.Path, "api", "remote-jobs")

	values := url.Values{}
	values.Set("category", c.category)
	if c.search != "" {
		values.Set("search", c.search)
	}
	if c.limit > 0 {
		values.Set("limit", strconv.Itoa(c.limit))
	}

	u.RawQuery = values.Encode()
	return u.String(), nil
}
