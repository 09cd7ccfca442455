// Package mediaapi implements the AniList-compatible media metadata
// client consumed by the menu handlers: search, list mutation, and
// authentication, wrapped in a circuit breaker and a token-bucket rate
// limiter so a slow or failing upstream degrades instead of cascading
// into the engine's foreground thread.
package mediaapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/fastanime/fastanime-core/internal/apperrors"
	"github.com/fastanime/fastanime-core/internal/config"
	"github.com/fastanime/fastanime-core/internal/logging"
	"github.com/fastanime/fastanime-core/internal/metrics"
)

// MediaItem is the metadata shape a search result or list query returns.
type MediaItem struct {
	ID           int      `json:"id"`
	TitleEnglish string   `json:"title_english"`
	TitleRomaji  string   `json:"title_romaji"`
	TitleNative  string   `json:"title_native"`
	Status       string   `json:"status"`
	Episodes     int      `json:"episodes"`
	CoverImage   string   `json:"cover_image"`
	Genres       []string `json:"genres"`
}

// PageInfo is pagination metadata from a search response.
type PageInfo struct {
	CurrentPage int  `json:"current_page"`
	HasNextPage bool `json:"has_next_page"`
	Total       int  `json:"total"`
}

// SearchResult is a page of search results.
type SearchResult struct {
	PageInfo PageInfo    `json:"page_info"`
	Media    []MediaItem `json:"media"`
}

// UpdateListEntryParams requests a user-list mutation for one media_id.
type UpdateListEntryParams struct {
	MediaID int
	Status  string
	Score   float64
}

// Client is the circuit-breaker- and rate-limit-wrapped AniList GraphQL
// client. The zero value is not usable; build one with New.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string

	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]

	name string
}

// New builds a Client from the resolved MediaAPIConfig.
func New(cfg config.MediaAPIConfig) *Client {
	metrics.CircuitBreakerState.WithLabelValues(cfg.CircuitBreakerName).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cfg.CircuitBreakerName).Set(0)

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        cfg.CircuitBreakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("from", from.String()).Str("to", to.String()).Msg("media api circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), cfg.RateLimitBurst),
		breaker:    breaker,
		name:       cfg.CircuitBreakerName,
	}
}

// Authenticate installs a bearer token used on subsequent list mutations.
func (c *Client) Authenticate(token string) { c.token = token }

// IsAuthenticated reports whether a token has been installed.
func (c *Client) IsAuthenticated() bool { return c.token != "" }

// SearchMedia issues a rate-limited, breaker-guarded GraphQL search.
func (c *Client) SearchMedia(ctx context.Context, query map[string]string) (SearchResult, error) {
	body, err := c.do(ctx, "POST", "/graphql", searchQueryPayload(query))
	if err != nil {
		return SearchResult{}, apperrors.NewExternalFailure("media_api", err)
	}
	var result SearchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return SearchResult{}, apperrors.NewExternalFailure("media_api", err)
	}
	return result, nil
}

// UpdateListEntry mutates the authenticated user's list entry for one media.
func (c *Client) UpdateListEntry(ctx context.Context, params UpdateListEntryParams) error {
	if !c.IsAuthenticated() {
		return fmt.Errorf("%w: media api update requires authentication", apperrors.ErrValidationFailure)
	}
	_, err := c.do(ctx, "POST", "/graphql", updateEntryPayload(params))
	if err != nil {
		return apperrors.NewExternalFailure("media_api", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("media api responded %d: %s", resp.StatusCode, data)
		}
		return data, nil
	})
	metrics.RecordExternalRequest("media_api", time.Since(start))
	metrics.CircuitBreakerRequests.WithLabelValues(c.name, outcomeLabel(err)).Inc()
	return result, err
}

func outcomeLabel(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func searchQueryPayload(params map[string]string) []byte {
	data, _ := json.Marshal(map[string]any{"query": "search", "variables": params})
	return data
}

func updateEntryPayload(params UpdateListEntryParams) []byte {
	data, _ := json.Marshal(map[string]any{"query": "update_list_entry", "variables": params})
	return data
}
