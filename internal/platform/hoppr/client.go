// Package hoppr is a client for the HOPPR medical imaging inference API.
// It covers the three remote operations this system needs (study creation,
// image upload, model invocation) and normalizes the loosely-shaped replies
// the hosted models return.
package hoppr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const (
	// DefaultBaseURL is the default HOPPR API endpoint.
	DefaultBaseURL = "https://api.hoppr.ai"

	// DefaultOrganization is sent with classifier invocations.
	DefaultOrganization = "hoppr"

	// DefaultTimeout is the HTTP timeout when Config leaves it unset. A
	// negative Config.Timeout disables the client-side timeout.
	DefaultTimeout = 120 * time.Second
)

// HTTPClient is an interface for HTTP client operations (enables testing).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config contains configuration for the HOPPR client.
type Config struct {
	APIKey       string        // Required
	BaseURL      string        // Optional (default: https://api.hoppr.ai)
	Organization string        // Optional (default: hoppr)
	Timeout      time.Duration // Optional; 0 means DefaultTimeout, <0 disables the timeout
	HTTPClient   HTTPClient    // Optional override, used by tests
}

// Client talks to the remote HOPPR service.
type Client struct {
	apiKey  string
	baseURL string
	org     string
	http    HTTPClient
	log     zerolog.Logger
}

// Reply wraps a raw model response. The payload sits behind ResponsePayload,
// mirroring the SDK reply objects the normalizer has to unwrap.
type Reply struct {
	Model string
	Raw   any
}

// ResponsePayload implements Responder.
func (r *Reply) ResponsePayload() any { return r.Raw }

// New creates a Client. The API key is required.
func New(cfg Config, logger zerolog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("hoppr: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Organization == "" {
		cfg.Organization = DefaultOrganization
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		} else if timeout < 0 {
			timeout = 0
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		org:     cfg.Organization,
		http:    httpClient,
		log:     logger.With().Str("component", "hoppr").Logger(),
	}, nil
}

// CreateStudy registers a new remote study under the given name and returns
// its identifier. An unrecognized reply shape is an error: nothing can
// proceed without the study id.
func (c *Client) CreateStudy(ctx context.Context, name string) (string, error) {
	body, err := c.postJSON(ctx, "/v1/studies", map[string]any{"name": name})
	if err != nil {
		return "", fmt.Errorf("create study: %w", err)
	}

	// The id has been seen both at the top level and nested under "study".
	if id := gjson.GetBytes(body, "id"); id.Exists() {
		return id.String(), nil
	}
	if id := gjson.GetBytes(body, "study.id"); id.Exists() {
		return id.String(), nil
	}
	return "", fmt.Errorf("create study: unexpected response shape: %s", snippet(body))
}

// InvokeModel runs one model against a study and returns the reply wrapped
// for normalization. The raw payload may be an object, a JSON-encoded string,
// or arbitrary text depending on the model version; callers pass the result
// through Normalize.
func (c *Client) InvokeModel(ctx context.Context, studyID, modelID, prompt string) (*Reply, error) {
	req := map[string]any{
		"model":        modelID,
		"prompt":       prompt,
		"organization": c.org,
	}
	body, err := c.postJSON(ctx, "/v1/studies/"+studyID+"/prompt", req)
	if err != nil {
		return nil, fmt.Errorf("invoke model %s: %w", modelID, err)
	}

	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		// Not JSON at all; hand the text to the normalizer as-is.
		raw = string(body)
	}
	return &Reply{Model: modelID, Raw: raw}, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) ([]byte, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Body: snippet(body)}
	}
	return body, nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
}

// APIError is a non-2xx response from the remote service.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("hoppr: status %d: %s", e.Status, e.Body)
}

func snippet(b []byte) string {
	const max = 200
	s := strings.TrimSpace(string(b))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
