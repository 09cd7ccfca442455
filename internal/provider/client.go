// Package provider implements the streaming-provider collaborator: search,
// episode resolution, and per-episode server listing against a
// configurable scraping backend, wrapped in the same rate-limit/circuit-
// breaker policy as internal/mediaapi since both are external, flaky
// HTTP dependencies on the engine's single foreground thread.
package provider

import (
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

// SearchResult is one provider-side title match.
type SearchResult struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Client is the rate-limited, breaker-guarded provider backend client.
// The concrete scraping/API integration for a given provider name is
// injected via Endpoint; this type only owns the resilience policy and
// transport.
type Client struct {
	httpClient *http.Client
	endpoint   string
	name       string

	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]
}

// New builds a Client for the configured provider backend. endpoint is
// the resolved base URL for the named provider (allanime, etc.).
func New(cfg config.ProviderConfig, endpoint string) *Client {
	breakerName := "provider_" + cfg.Name

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(breakerName).Set(0)

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
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
			logging.Warn().Str("from", from.String()).Str("to", to.String()).Msg("provider circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		endpoint:   endpoint,
		name:       cfg.Name,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), cfg.RateLimitBurst),
		breaker:    breaker,
	}
}

// Search queries the provider for titles matching query.
func (c *Client) Search(ctx context.Context, query string) ([]SearchResult, error) {
	body, err := c.get(ctx, fmt.Sprintf("/search?q=%s", query))
	if err != nil {
		return nil, apperrors.NewExternalFailure("provider", err)
	}
	var results []SearchResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, apperrors.NewExternalFailure("provider", err)
	}
	return results, nil
}

// EpisodeServers lists streaming servers {name -> url} for one episode.
func (c *Client) EpisodeServers(ctx context.Context, animeID string, episode int) (map[string]string, error) {
	body, err := c.get(ctx, fmt.Sprintf("/anime/%s/episode/%d/servers", animeID, episode))
	if err != nil {
		return nil, apperrors.NewExternalFailure("provider", err)
	}
	var servers map[string]string
	if err := json.Unmarshal(body, &servers); err != nil {
		return nil, apperrors.NewExternalFailure("provider", err)
	}
	return servers, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+path, nil)
		if err != nil {
			return nil, err
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
			return nil, fmt.Errorf("provider %q responded %d: %s", c.name, resp.StatusCode, data)
		}
		return data, nil
	})
	metrics.RecordExternalRequest("provider_"+c.name, time.Since(start))
	metrics.CircuitBreakerRequests.WithLabelValues("provider_"+c.name, outcomeLabel(err)).Inc()
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
