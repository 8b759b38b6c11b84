// Package checkout is the outbound client for the booking backend's
// two-phase reserve/confirm protocol. It classifies failures and never
// retries: retry policy belongs to the saga engine, and a started call is
// always run to completion so the backend is never left ambiguous.
package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	contractx "github.com/marisburan/voyago/agent/contract"
)

const (
	reservePath = "/travel/reserve"
	confirmPath = "/travel/confirm"

	maxResponseSizeBytes = 1 << 20
)

// Config carries the backend endpoint and the per-call timeout bound.
type Config struct {
	BaseURL string        `envconfig:"BASE_URL" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// ReserveRequest is the wire body of POST /travel/reserve.
type ReserveRequest struct {
	DepartureAirportCode   string `json:"departureAirportCode"`
	DestinationAirportCode string `json:"destinationAirportCode"`
	DepartureDate          string `json:"departureDate"`
	ArrivalDate            string `json:"arrivalDate"`
	NumberOfPassengers     int    `json:"numberOfPassengers"`
	PaymentMethod          string `json:"paymentMethod"`
}

type confirmRequest struct {
	ReservationID string `json:"reservationId"`
}

// BookingResponse is the wire body both endpoints return.
type BookingResponse struct {
	ReservationID     string `json:"reservationId"`
	ReservationStatus string `json:"reservationStatus"`
	Message           string `json:"message,omitempty"`
}

// Client talks to the booking backend. Safe for concurrent use; all
// sessions share its underlying connection pool.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client (tests use this to
// point at a fake backend with a short timeout).
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient validates the config and builds a Client.
func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("checkout base url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid checkout base url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log.With().Str("component", "checkout").Logger(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c, nil
}

// Reserve calls POST /travel/reserve and returns the backend's reservation
// record. The returned error, when non-nil, is always a *contract.Error.
func (c *Client) Reserve(ctx context.Context, req ReserveRequest) (*BookingResponse, error) {
	c.log.Info().
		Str("departure", req.DepartureAirportCode).
		Str("destination", req.DestinationAirportCode).
		Int("passengers", req.NumberOfPassengers).
		Msg("calling /travel/reserve")
	return c.post(ctx, reservePath, req)
}

// Confirm calls POST /travel/confirm for an existing reservation id.
// Confirm is idempotent on the backend side, so a RETRYABLE failure may be
// retried by the caller with the same id.
func (c *Client) Confirm(ctx context.Context, reservationID string) (*BookingResponse, error) {
	c.log.Info().
		Str("reservation_id", reservationID).
		Msg("calling /travel/confirm")
	return c.post(ctx, confirmPath, confirmRequest{ReservationID: reservationID})
}

func (c *Client) post(ctx context.Context, path string, payload any) (*BookingResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, contractx.NewError(contractx.KindInternal, "marshal %s payload: %v", path, err)
	}

	// A started call always runs to completion: task cancellation is not
	// propagated past this boundary, or the backend could be left holding an
	// ambiguous reservation. The client timeout still bounds the call.
	req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, contractx.NewError(contractx.KindInternal, "build %s request: %v", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeout or connection failure: the caller may retry idempotent
		// operations; we report and stop.
		c.log.Error().Err(err).Str("path", path).Msg("backend transport failure")
		return nil, contractx.NewErrorWithDetails(contractx.KindRetryable,
			map[string]any{"cause": err.Error()},
			"booking backend unreachable on %s", path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, contractx.NewErrorWithDetails(contractx.KindRetryable,
			map[string]any{"cause": err.Error()},
			"read backend response on %s", path)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		c.log.Error().Int("status", resp.StatusCode).Str("path", path).Msg("backend server error")
		return nil, contractx.NewErrorWithDetails(contractx.KindRetryable,
			map[string]any{"status_code": resp.StatusCode, "response_body": string(raw)},
			"booking backend returned status %d on %s", resp.StatusCode, path)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.log.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("backend declined request")
		return nil, contractx.NewErrorWithDetails(contractx.KindRejected,
			map[string]any{"status_code": resp.StatusCode, "response_body": string(raw)},
			"booking backend declined with status %d on %s", resp.StatusCode, path)
	}

	var parsed BookingResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, contractx.NewErrorWithDetails(contractx.KindInternal,
			map[string]any{"response_body": string(raw)},
			"decode backend response on %s: %v", path, err)
	}

	c.log.Info().
		Str("path", path).
		Str("reservation_id", parsed.ReservationID).
		Str("status", parsed.ReservationStatus).
		Msg("backend responded")
	return &parsed, nil
}
