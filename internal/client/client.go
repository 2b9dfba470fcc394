// Package client talks to the restaurant's REST API over HTTP: menu reads and
// order/booking submissions. It never retries.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"kiwa/internal/domain"
)

const DefaultTimeout = 10 * time.Second

// HeaderStorefront marks requests the storefront makes on a shopper's behalf.
const HeaderStorefront = "X-Kiwa-Storefront"

// ErrUnreachable covers connection failures and timeouts. Its text is shown to
// customers as is.
var ErrUnreachable = errors.New("Cannot reach the server. Please try again.")

// unreachable keeps the transport cause for logs while reading as
// ErrUnreachable.
type unreachable struct{ cause error }

func (e *unreachable) Error() string        { return ErrUnreachable.Error() }
func (e *unreachable) Is(target error) bool { return target == ErrUnreachable }
func (e *unreachable) Unwrap() error        { return e.cause }

// Cause is the underlying transport error, if any.
func Cause(err error) error {
	var u *unreachable
	if errors.As(err, &u) {
		return u.cause
	}
	return err
}

// APIError is a non-2xx answer. Message is the body's message when the server
// sent one, otherwise a generic text for the status.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

func fallbackMessage(status int) string {
	switch {
	case status == fiber.StatusBadRequest:
		return "Please check your details and try again."
	case status == fiber.StatusNotFound:
		return "The requested resource was not found."
	case status >= 500:
		return "Server error. Please try again later."
	}
	return fmt.Sprintf("Request failed with status %d.", status)
}

type Client struct {
	base    string
	timeout time.Duration
	http    *fiber.Client
}

// New builds a client for the API rooted at baseURL (for example
// http://127.0.0.1:5000/api). A non-positive timeout means DefaultTimeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		base:    strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http:    &fiber.Client{UserAgent: "kiwa-storefront"},
	}
}

func (c *Client) BaseURL() string { return c.base }

// OrderRequest is the POST /orders body.
type OrderRequest struct {
	CustomerName    string             `json:"customerName"`
	CustomerEmail   string             `json:"customerEmail"`
	CustomerPhone   string             `json:"customerPhone"`
	Items           []domain.OrderItem `json:"items"`
	TotalAmount     float64            `json:"totalAmount"`
	OrderType       domain.OrderType   `json:"orderType"`
	DeliveryAddress string             `json:"deliveryAddress"`
}

// OrderCreated is the 201 answer to POST /orders.
type OrderCreated struct {
	ID            string  `json:"_id"`
	CustomerName  string  `json:"customerName"`
	CustomerEmail string  `json:"customerEmail"`
	TotalAmount   float64 `json:"totalAmount"`
	Status        string  `json:"status"`
	Message       string  `json:"message"`
}

type BookingRequest struct {
	CustomerName    string `json:"customerName"`
	CustomerEmail   string `json:"customerEmail"`
	CustomerPhone   string `json:"customerPhone"`
	BookingDate     string `json:"bookingDate"`
	BookingTime     string `json:"bookingTime"`
	NumberOfGuests  int    `json:"numberOfGuests"`
	SpecialRequests string `json:"specialRequests"`
}

// BookingCreated mirrors the stored booking plus the server's message.
type BookingCreated struct {
	domain.Booking
	Message string `json:"message"`
}

func menuQuery(f domain.MenuFilter) string {
	q := url.Values{}
	if f.Category != "" {
		q.Set("category", string(f.Category))
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	return q.Encode()
}

func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (OrderCreated, error) {
	var out OrderCreated
	err := c.do(ctx, fiber.MethodPost, "/orders", "", req, &out)
	return out, err
}

func (c *Client) Orders(ctx context.Context) ([]domain.Order, error) {
	var out []domain.Order
	err := c.do(ctx, fiber.MethodGet, "/orders", "", nil, &out)
	return out, err
}

func (c *Client) Order(ctx context.Context, id string) (domain.Order, error) {
	var out domain.Order
	err := c.do(ctx, fiber.MethodGet, "/orders/"+url.PathEscape(id), "", nil, &out)
	return out, err
}

func (c *Client) CreateBooking(ctx context.Context, req BookingRequest) (BookingCreated, error) {
	var out BookingCreated
	err := c.do(ctx, fiber.MethodPost, "/bookings", "", req, &out)
	return out, err
}

func (c *Client) Bookings(ctx context.Context) ([]domain.Booking, error) {
	var out []domain.Booking
	err := c.do(ctx, fiber.MethodGet, "/bookings", "", nil, &out)
	return out, err
}

func (c *Client) Booking(ctx context.Context, id string) (domain.Booking, error) {
	var out domain.Booking
	err := c.do(ctx, fiber.MethodGet, "/bookings/"+url.PathEscape(id), "", nil, &out)
	return out, err
}

func (c *Client) Menu(ctx context.Context, f domain.MenuFilter) ([]domain.MenuItem, error) {
	var out []domain.MenuItem
	err := c.do(ctx, fiber.MethodGet, "/menu", menuQuery(f), nil, &out)
	return out, err
}

func (c *Client) MenuItem(ctx context.Context, id string) (domain.MenuItem, error) {
	var out domain.MenuItem
	err := c.do(ctx, fiber.MethodGet, "/menu/"+url.PathEscape(id), "", nil, &out)
	return out, err
}

// Ping checks that the API answers at all.
func (c *Client) Ping(ctx context.Context) error {
	var out struct {
		OK bool `json:"ok"`
	}
	if err := c.do(ctx, fiber.MethodGet, "/ping", "", nil, &out); err != nil {
		return err
	}
	if !out.OK {
		return &APIError{Status: fiber.StatusServiceUnavailable, Message: fallbackMessage(fiber.StatusServiceUnavailable)}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path, query string, body, out any) error {
	if err := ctx.Err(); err != nil {
		return &unreachable{cause: err}
	}
	timeout := c.timeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return &unreachable{cause: context.DeadlineExceeded}
	}
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		payload = b
	}

	var a *fiber.Agent
	switch method {
	case fiber.MethodPost:
		a = c.http.Post(c.base + path)
	default:
		a = c.http.Get(c.base + path)
	}
	a.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON).
		Set(HeaderStorefront, "1").
		Timeout(timeout)
	if query != "" {
		a.QueryString(query)
	}
	if payload != nil {
		a.ContentType(fiber.MIMEApplicationJSON).Body(payload)
	}

	status, resp, errs := a.Bytes()
	if len(errs) > 0 {
		return &unreachable{cause: errors.Join(errs...)}
	}
	if status < 200 || status > 299 {
		return apiError(status, resp)
	}
	if out == nil || len(resp) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp, out); err != nil {
		return &APIError{Status: status, Message: "Unexpected response from the server."}
	}
	return nil
}

func apiError(status int, body []byte) *APIError {
	var msg struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &msg) == nil {
		if m := strings.TrimSpace(msg.Message); m != "" {
			return &APIError{Status: status, Message: m}
		}
		if m := strings.TrimSpace(msg.Error); m != "" {
			return &APIError{Status: status, Message: m}
		}
	}
	return &APIError{Status: status, Message: fallbackMessage(status)}
}

// Message is the text to show a customer for err.
func Message(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnreachable):
		return ErrUnreachable.Error()
	case errors.As(err, &apiErr):
		return apiErr.Message
	}
	return "Something went wrong. Please try again."
}
