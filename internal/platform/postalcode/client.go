// Package postalcode resolves Brazilian postal codes (CEP) through a
// ViaCEP-compatible HTTP API guarded by a circuit breaker.
package postalcode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

var (
	ErrInvalidCode = errors.New("postal code must have 8 digits")
	ErrNotFound    = errors.New("postal code not found")
	ErrUnavailable = errors.New("postal code service unavailable")
)

// Address is the resolved location of a postal code.
type Address struct {
	PostalCode   string `json:"postal_code"`
	Street       string `json:"street"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

// Lookuper is what handlers and services depend on.
type Lookuper interface {
	Lookup(ctx context.Context, code string) (*Address, error)
}

// Normalize keeps the digits of code and requires exactly eight of them.
func Normalize(code string) (string, error) {
	var b strings.Builder
	for _, r := range code {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) != 8 {
		return "", ErrInvalidCode
	}
	return digits, nil
}

// Settings for the breaker. Zero values take the defaults below.
type BreakerSettings struct {
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
}

func (s BreakerSettings) withDefaults() BreakerSettings {
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = 5
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 30 * time.Second
	}
	return s
}

// Client calls {baseURL}/{cep}/json/.
type Client struct {
	baseURL string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[*Address]
	logger  zerolog.Logger
}

func NewClient(baseURL string, timeout time.Duration, bs BreakerSettings, logger zerolog.Logger) *Client {
	bs = bs.withDefaults()
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
	c.cb = gobreaker.NewCircuitBreaker[*Address](gobreaker.Settings{
		Name:        "postal-code",
		MaxRequests: 1,
		Timeout:     bs.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= bs.ConsecutiveFailures
		},
		// Only transport errors and 5xx answers count against the provider.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrNotFound) ||
				errors.Is(err, ErrInvalidCode) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	})
	return c
}

// State reports the breaker state, for health output and tests.
func (c *Client) State() gobreaker.State {
	return c.cb.State()
}

// Lookup normalizes code and resolves it. It never retries.
func (c *Client) Lookup(ctx context.Context, code string) (*Address, error) {
	digits, err := Normalize(code)
	if err != nil {
		return nil, err
	}

	addr, err := c.cb.Execute(func() (*Address, error) {
		return c.fetch(ctx, digits)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit open", ErrUnavailable)
		}
		return nil, err
	}
	return addr, nil
}

// viaCEPResponse mirrors the provider payload. "erro" is sent as a boolean
// by the classic API and as the string "true" by newer deployments.
type viaCEPResponse struct {
	CEP         string          `json:"cep"`
	Logradouro  string          `json:"logradouro"`
	Complemento string          `json:"complemento"`
	Bairro      string          `json:"bairro"`
	Localidade  string          `json:"localidade"`
	UF          string          `json:"uf"`
	Erro        json.RawMessage `json:"erro"`
}

func (r viaCEPResponse) notFound() bool {
	v := strings.Trim(strings.TrimSpace(string(r.Erro)), `"`)
	return v == "true"
}

func (c *Client) fetch(ctx context.Context, digits string) (*Address, error) {
	url := fmt.Sprintf("%s/%s/json/", c.baseURL, digits)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, fmt.Errorf("postal code lookup: %w", ctx.Err())
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusBadRequest:
		return nil, ErrInvalidCode
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: provider returned %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	var body viaCEPResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if body.notFound() {
		return nil, ErrNotFound
	}

	return &Address{
		PostalCode:   digits,
		Street:       body.Logradouro,
		Complement:   body.Complemento,
		Neighborhood: body.Bairro,
		City:         body.Localidade,
		State:        body.UF,
	}, nil
}
