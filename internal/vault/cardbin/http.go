package cardbin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"tokenvault/internal/vault/ports"
	id "tokenvault/pkg/domain"
	"tokenvault/pkg/platform/circuit"
	"tokenvault/pkg/platform/sentinel"
)

// HTTPClassifier asks a remote BIN service. GET {base}/v1/bins/{prefix}
// answers 200 {"card_bin_id": n} or 404 for an unknown prefix.
//
// Remote failures feed a circuit breaker. While it is open, calls go to the
// fallback classifier if one is configured, otherwise they fail fast with
// sentinel.ErrUnavailable.
type HTTPClassifier struct {
	baseURL  string
	client   *http.Client
	breaker  *circuit.Breaker
	fallback ports.CardBinPort
	logger   *slog.Logger
}

type HTTPOption func(*HTTPClassifier)

func WithHTTPClient(client *http.Client) HTTPOption {
	return func(c *HTTPClassifier) {
		c.client = client
	}
}

func WithBreaker(b *circuit.Breaker) HTTPOption {
	return func(c *HTTPClassifier) {
		c.breaker = b
	}
}

func WithFallback(fallback ports.CardBinPort) HTTPOption {
	return func(c *HTTPClassifier) {
		c.fallback = fallback
	}
}

func WithLogger(logger *slog.Logger) HTTPOption {
	return func(c *HTTPClassifier) {
		c.logger = logger
	}
}

func NewHTTP(baseURL string, timeout time.Duration, opts ...HTTPOption) *HTTPClassifier {
	c := &HTTPClassifier{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		breaker: circuit.New("cardbin"),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type binResponse struct {
	CardBinID int `json:"card_bin_id"`
}

var errUnexpectedStatus = errors.New("unexpected bin service status")

func (c *HTTPClassifier) Classify(ctx context.Context, prefix string) (id.CardBinID, bool, error) {
	if !c.breaker.Allow() {
		return c.degraded(ctx, prefix)
	}

	binID, ok, err := c.fetch(ctx, prefix)
	if err != nil {
		useFallback, change := c.breaker.RecordFailure()
		if change.Opened {
			c.logger.WarnContext(ctx, "card bin breaker opened", "breaker", c.breaker.Name(), "error", err)
		}
		if useFallback && c.fallback != nil {
			return c.fallback.Classify(ctx, prefix)
		}
		return 0, false, err
	}
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "card bin breaker closed", "breaker", c.breaker.Name())
	}
	return binID, ok, nil
}

func (c *HTTPClassifier) degraded(ctx context.Context, prefix string) (id.CardBinID, bool, error) {
	if c.fallback != nil {
		return c.fallback.Classify(ctx, prefix)
	}
	return 0, false, fmt.Errorf("card bin service: %w", sentinel.ErrUnavailable)
}

func (c *HTTPClassifier) fetch(ctx context.Context, prefix string) (id.CardBinID, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/bins/"+url.PathEscape(prefix), nil)
	if err != nil {
		return 0, false, fmt.Errorf("build bin request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, false, fmt.Errorf("call bin service: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var body binResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return 0, false, fmt.Errorf("decode bin response: %w", err)
		}
		if body.CardBinID <= 0 {
			return 0, false, nil
		}
		return id.CardBinID(body.CardBinID), true, nil
	case http.StatusNotFound:
		return 0, false, nil
	default:
		return 0, false, fmt.Errorf("%w: %d", errUnexpectedStatus, resp.StatusCode)
	}
}
