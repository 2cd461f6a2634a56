package client

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

	"ticket-booking/internal/data/entity"
	"ticket-booking/internal/dto/request"
	"ticket-booking/internal/dto/response"
)

// Client talks to the booking HTTP API on behalf of one signed-in user.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default client (30s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx answer. It matches the entity sentinel that produced
// it, so callers can use errors.Is the same way the server does.
type APIError struct {
	StatusCode       int
	Message          string
	Code             string
	Fields           map[string]string
	UnavailableSeats []string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusBadRequest:
		if len(e.Fields) > 0 {
			return entity.ErrValidation
		}
		return entity.ErrInvalidSelection
	case http.StatusForbidden:
		return entity.ErrForbidden
	case http.StatusNotFound:
		return entity.ErrNotFound
	case http.StatusGone:
		return entity.ErrBookingExpired
	case http.StatusConflict:
		switch {
		case len(e.UnavailableSeats) > 0:
			return &entity.SeatsUnavailableError{Seats: e.UnavailableSeats}
		case e.Code == "payment_rejected":
			return entity.ErrPaymentRejected
		case e.Code == "payment_exists":
			return entity.ErrPaymentExists
		case e.Code == "invalid_state":
			return entity.ErrInvalidState
		}
	}
	return nil
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  json.RawMessage `json:"errors"`
}

// Seats fetches the seat map. An empty categoryID returns every category.
func (c *Client) Seats(ctx context.Context, eventID, categoryID string) (*response.SeatMapResponse, error) {
	path := "/api/events/" + url.PathEscape(eventID) + "/seats"
	if categoryID != "" {
		path += "?category_id=" + url.QueryEscape(categoryID)
	}

	var out response.SeatMapResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) StartBooking(ctx context.Context, req request.StartBookingRequest) (*response.BookingResponse, error) {
	var out response.BookingResponse
	if err := c.do(ctx, http.MethodPost, "/api/bookings", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetBooking(ctx context.Context, bookingID string) (*response.BookingDetailResponse, error) {
	var out response.BookingDetailResponse
	if err := c.do(ctx, http.MethodGet, "/api/bookings/"+url.PathEscape(bookingID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CancelBooking(ctx context.Context, bookingID string) (*response.BookingResponse, error) {
	var out response.BookingResponse
	if err := c.do(ctx, http.MethodDelete, "/api/bookings/"+url.PathEscape(bookingID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SubmitPayment(ctx context.Context, bookingID, reference string) (*response.PaymentResponse, error) {
	var out response.PaymentResponse
	body := request.SubmitPaymentRequest{Reference: reference}
	if err := c.do(ctx, http.MethodPost, "/api/bookings/"+url.PathEscape(bookingID)+"/payments", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode %s %s response (status %d): %w", method, path, resp.StatusCode, err)
	}

	if resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, env)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode %s %s data: %w", method, path, err)
		}
	}
	return nil
}

func newAPIError(status int, env envelope) *APIError {
	apiErr := &APIError{StatusCode: status, Message: env.Message}
	if len(env.Errors) == 0 {
		return apiErr
	}

	var details map[string]json.RawMessage
	if err := json.Unmarshal(env.Errors, &details); err != nil {
		return apiErr
	}

	for key, raw := range details {
		switch key {
		case "unavailable_seats":
			_ = json.Unmarshal(raw, &apiErr.UnavailableSeats)
		case "code":
			_ = json.Unmarshal(raw, &apiErr.Code)
		default:
			var msg string
			if json.Unmarshal(raw, &msg) == nil {
				if apiErr.Fields == nil {
					apiErr.Fields = make(map[string]string)
				}
				apiErr.Fields[key] = msg
			}
		}
	}
	return apiErr
}

// IsExpired reports whether err means the hold is gone and the user has to
// pick seats again.
func IsExpired(err error) bool {
	return errors.Is(err, entity.ErrBookingExpired)
}
