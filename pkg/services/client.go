package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/planc/f1-data-sync/internal/config"
	"github.com/planc/f1-data-sync/pkg/logger"
)

// StatusError is returned for any non-2xx response
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s", e.StatusCode, e.URL)
}

// ErgastClient fetches raw JSON documents from the Ergast API. Calls go through
// a circuit breaker so an unreachable host fails the rest of a cycle fast
// instead of costing one full timeout per endpoint. Only transport errors count
// toward tripping it; an endpoint answering with an error status says nothing
// about the others. It never retries.
type ErgastClient struct {
	client   *http.Client
	settings gobreaker.Settings

	mu      sync.Mutex
	breaker *gobreaker.CircuitBreaker
	logger  *logger.Logger
}

func NewErgastClient(cfg *config.Config) *ErgastClient {
	log := logger.New("ergast-client")
	failures := uint32(cfg.External.BreakerFailures)

	settings := gobreaker.Settings{
		Name:        "ergast",
		MaxRequests: 1,
		Timeout:     cfg.External.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: isBreakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("action", "breaker_state_change").
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	}

	return &ErgastClient{
		client: &http.Client{
			Timeout: cfg.Timeout(),
		},
		settings: settings,
		breaker:  gobreaker.NewCircuitBreaker(settings),
		logger:   log,
	}
}

// isBreakerSuccess reports whether err leaves the breaker's failure count alone
func isBreakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return true
	}
	return errors.Is(err, context.Canceled)
}

// ResetBreaker closes the breaker so every endpoint is attempted again
func (c *ErgastClient) ResetBreaker() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.breaker = gobreaker.NewCircuitBreaker(c.settings)
}

func (c *ErgastClient) currentBreaker() *gobreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.breaker
}

// FetchData GETs url and returns the body of a 2xx response
func (c *ErgastClient) FetchData(ctx context.Context, url string) ([]byte, error) {
	result, err := c.currentBreaker().Execute(func() (interface{}, error) {
		return c.get(ctx, url)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.logger.LogAPICall(http.MethodGet, url, 0, 0, err)
			return nil, fmt.Errorf("skipping %s: %w", url, err)
		}
		return nil, err
	}

	return result.([]byte), nil
}

func (c *ErgastClient) get(ctx context.Context, url string) ([]byte, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		err = fmt.Errorf("failed to fetch data from %s: %w", url, err)
		c.logger.LogAPICall(http.MethodGet, url, 0, time.Since(start), err)
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := &StatusError{StatusCode: resp.StatusCode, URL: url}
		c.logger.LogAPICall(http.MethodGet, url, resp.StatusCode, time.Since(start), err)
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("failed to read response body: %w", err)
		c.logger.LogAPICall(http.MethodGet, url, resp.StatusCode, time.Since(start), err)
		return nil, err
	}

	c.logger.LogAPICall(http.MethodGet, url, resp.StatusCode, time.Since(start), nil)
	return data, nil
}
