// internal/backend/client.go
//
// Booking API client.
//
// Context
// -------
// The reservation backend exposes one operation this service needs:
//
//	POST {base}/api/v1/bookings
//	Authorization: Bearer <session credential>
//	Idempotency-Key: <uuid>
//	{"product_id": 4, "availability_id": 7, "quantity": 2}
//
// A 2xx response body is returned untouched as the booking confirmation
// provided it is well-formed JSON; an empty body is passed through and left
// to the controller.  Everything else is an error, so the controller treats
// it as a remote failure.  The client carries no retry loop; a user who sees the failure
// notice resubmits.
//
// Notes
// -----
//   - A fresh idempotency key is generated per call.
//   - Response bodies are capped at MaxBodyBytes.  A 2xx body past the cap
//     is rejected rather than truncated.
package backend

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
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yanizio/xplora/internal/booking"
)

// BookingsPath is appended to the base URL.
const BookingsPath = "/api/v1/bookings"

// MaxBodyBytes bounds the response body read into memory.
const MaxBodyBytes = 1 << 20

// ErrMalformedResponse is returned for a 2xx body that is not usable as a
// confirmation: not JSON, or larger than MaxBodyBytes.
var ErrMalformedResponse = errors.New("malformed booking response")

// DefaultTimeout applies when Options.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	APIKey  string // optional service key, sent as X-API-Key
	HTTP    *http.Client
}

// StatusError is returned for a non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend status %d", e.Code)
	}
	return fmt.Sprintf("backend status %d: %s", e.Code, e.Body)
}

// IsUnauthorized reports whether err is a 401 or 403 from the backend.
func IsUnauthorized(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && (se.Code == http.StatusUnauthorized || se.Code == http.StatusForbidden)
}

// Client implements booking.BookingAPI over HTTP.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	newKey   func() string
}

var _ booking.BookingAPI = (*Client)(nil)

// New validates opts and returns a Client.
func New(opts Options) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("backend base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("backend base url %q: need http(s)://host", opts.BaseURL)
	}

	hc := opts.HTTP
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		endpoint: u.String() + BookingsPath,
		apiKey:   opts.APIKey,
		http:     hc,
		newKey:   uuid.NewString,
	}, nil
}

// CreateBooking posts p with the caller's credential and returns the raw
// response body.
func (c *Client) CreateBooking(ctx context.Context, credential string, p booking.Payload) (booking.Confirmation, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode booking payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build booking request: %w", err)
	}
	key := c.newKey()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Idempotency-Key", key)
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post booking: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read booking response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		zap.S().Warnw("booking backend rejected request",
			"status", resp.StatusCode,
			"idempotency_key", key,
			"product_id", p.ProductID)
		return nil, &StatusError{Code: resp.StatusCode, Body: snippet(raw)}
	}

	switch {
	case len(raw) > MaxBodyBytes:
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrMalformedResponse, MaxBodyBytes)
	case len(bytes.TrimSpace(raw)) == 0:
		return booking.Confirmation(nil), nil
	case !json.Valid(raw):
		zap.S().Warnw("booking backend returned non-JSON body",
			"status", resp.StatusCode,
			"idempotency_key", key)
		return nil, fmt.Errorf("%w: not JSON: %s", ErrMalformedResponse, snippet(raw))
	}

	zap.S().Debugw("booking backend accepted request",
		"status", resp.StatusCode,
		"idempotency_key", key,
		"bytes", len(raw))
	return booking.Confirmation(raw), nil
}

// snippet trims a body for inclusion in an error message.  The cut lands
// on a rune boundary and invalid UTF-8 is replaced.
func snippet(b []byte) string {
	const limit = 256
	s := strings.ToValidUTF8(strings.TrimSpace(string(b)), "\uFFFD")
	if utf8.RuneCountInString(s) > limit {
		s = string([]rune(s)[:limit]) + "…"
	}
	return s
}
