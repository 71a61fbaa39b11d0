// Shared HTTP transport for Google REST APIs
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sony/gobreaker"

	"github.com/desertthunder/snaplist/internal/shared"
)

// Option configures a Google API client.
type Option func(*googleAPI)

// WithBaseURL points the client at baseURL instead of the production endpoint.
func WithBaseURL(baseURL string) Option {
	return func(g *googleAPI) { g.baseURL = baseURL }
}

// WithHTTPClient replaces [http.DefaultClient].
func WithHTTPClient(client *http.Client) Option {
	return func(g *googleAPI) {
		if client != nil {
			g.httpClient = client
		}
	}
}

// WithLogger sets the logger used for circuit breaker transitions.
func WithLogger(logger *log.Logger) Option {
	return func(g *googleAPI) { g.logger = logger }
}

// googleAPI performs JSON requests against one Google API behind a circuit breaker.
//
// Transport failures and 5xx responses count against the breaker; 4xx responses do not.
type googleAPI struct {
	name       string
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *log.Logger
}

// apiError carries a non-2xx response.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("status %d", e.Status)
	}
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

func newGoogleAPI(name, baseURL, apiKey string, opts ...Option) *googleAPI {
	g := &googleAPI{
		name:       name,
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
		logger:     shared.NewLogger(io.Discard),
	}
	for _, opt := range opts {
		opt(g)
	}

	g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.8
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			g.logger.Warn("circuit breaker state changed", "api", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			var apiErr *apiError
			if errors.As(err, &apiErr) {
				return apiErr.Status < 500
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return g
}

// do sends method endpoint with query and an optional JSON body, decoding the response into result.
//
// client overrides the default HTTP client, for requests made with a delegated credential.
// The API key is added to the query when one is configured and no client override is given.
func (g *googleAPI) do(ctx context.Context, client *http.Client, method, endpoint string, query url.Values, body, result any) error {
	if query == nil {
		query = url.Values{}
	}
	if client == nil {
		client = g.httpClient
		if g.apiKey != "" {
			query.Set("key", g.apiKey)
		}
	}

	_, err := g.breaker.Execute(func() (any, error) {
		return nil, g.send(ctx, client, method, g.baseURL+endpoint+"?"+query.Encode(), body, result)
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return fmt.Errorf("%w: %s: %w", shared.ErrServiceUnavailable, g.name, err)
	default:
		return fmt.Errorf("%w: %s %s: %w", shared.ErrAPIRequest, g.name, endpoint, err)
	}
}

func (g *googleAPI) send(ctx context.Context, client *http.Client, method, rawURL string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		json.Unmarshal(data, &errResp)
		return &apiError{Status: resp.StatusCode, Message: errResp.Error.Message}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
