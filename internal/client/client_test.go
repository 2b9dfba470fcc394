package client

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kiwa/internal/cart"
	"kiwa/internal/checkout"
	"kiwa/internal/domain"
)

// serve runs app on a loopback port and returns the API base URL.
func serve(t *testing.T, app *fiber.App) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.ShutdownWithTimeout(time.Second) })
	return "http://" + ln.Addr().String() + "/api"
}

func newApp() *fiber.App {
	return fiber.New(fiber.Config{DisableStartupMessage: true})
}

func submission(t domain.OrderType) checkout.Submission {
	c := cart.New()
	c.Add(cart.Item{ID: "m-1", Name: "Margherita", Price: decimal.RequireFromString("12.99")}, 2)
	return checkout.Submission{
		OrderType: t,
		Customer: checkout.CustomerInfo{
			Name: "Ana", Email: "ana@example.com", Phone: "555",
			Street: "1 Main St", City: "Springfield", PostalCode: "12345",
		},
		Lines:  c.Lines(),
		Totals: checkout.DefaultPricing().Totals(c.Subtotal(), t),
	}
}

func TestOrderSubmitterSendsWirePayload(t *testing.T) {
	app := newApp()
	var got OrderRequest
	var marker string
	app.Post("/api/orders", func(c *fiber.Ctx) error {
		marker = c.Get(HeaderStorefront)
		if err := c.BodyParser(&got); err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"_id": "665f1c", "customerName": got.CustomerName, "customerEmail": got.CustomerEmail,
			"totalAmount": got.TotalAmount, "status": "pending", "message": "Order created successfully",
		})
	})
	base := serve(t, app)

	ack, err := OrderSubmitter{API: New(base, time.Second)}.Submit(context.Background(), submission(domain.OrderDelivery))
	require.NoError(t, err)
	assert.Equal(t, "665f1c", ack.OrderID)
	assert.Equal(t, "pending", ack.Status)
	assert.Equal(t, "1", marker)

	assert.Equal(t, "Ana", got.CustomerName)
	assert.Equal(t, domain.OrderDelivery, got.OrderType)
	assert.Equal(t, "1 Main St, Springfield, 12345", got.DeliveryAddress)
	require.Len(t, got.Items, 1)
	assert.Equal(t, domain.OrderItem{MenuItem: "m-1", Name: "Margherita", Quantity: 2, Price: 12.99}, got.Items[0])
	// 25.98 + 2.08 tax + 3.99 delivery
	assert.InDelta(t, 32.05, got.TotalAmount, 0.001)
}

func TestPickupPayloadAddress(t *testing.T) {
	p := OrderPayload(submission(domain.OrderPickup))
	assert.Equal(t, "Pickup at restaurant", p.DeliveryAddress)
	assert.Equal(t, domain.OrderPickup, p.OrderType)
	assert.InDelta(t, 28.06, p.TotalAmount, 0.001)
}

func TestServerMessagePassesThrough(t *testing.T) {
	app := newApp()
	app.Post("/api/orders", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Please provide all required fields: name, email, items, and total amount",
		})
	})
	app.Get("/api/orders/:id", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusInternalServerError).SendString("boom")
	})
	api := New(serve(t, app), time.Second)

	_, err := api.CreateOrder(context.Background(), OrderRequest{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, fiber.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Please provide all required fields: name, email, items, and total amount", err.Error())

	_, err = api.Order(context.Background(), "x")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Server error. Please try again later.", apiErr.Message)

	_, err = api.Booking(context.Background(), "nope")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, fiber.StatusNotFound, apiErr.Status)
}

func TestTimeoutIsUnreachable(t *testing.T) {
	app := newApp()
	app.Get("/api/menu", func(c *fiber.Ctx) error {
		time.Sleep(300 * time.Millisecond)
		return c.JSON([]domain.MenuItem{})
	})
	api := New(serve(t, app), 50*time.Millisecond)

	_, err := api.Menu(context.Background(), domain.MenuFilter{})
	require.ErrorIs(t, err, ErrUnreachable)
	assert.Equal(t, "Cannot reach the server. Please try again.", err.Error())
	assert.NotNil(t, Cause(err))
}

func TestClosedPortIsUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = OrderSubmitter{API: New("http://"+addr+"/api", time.Second)}.Submit(context.Background(), submission(domain.OrderPickup))
	assert.ErrorIs(t, err, ErrUnreachable)
	assert.Equal(t, ErrUnreachable.Error(), Message(err))
}

func TestCancelledContextSkipsRequest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := New("http://127.0.0.1:1/api", time.Second).Ping(ctx)
	assert.ErrorIs(t, err, ErrUnreachable)
	assert.True(t, errors.Is(Cause(err), context.Canceled))
}

func TestMenuFilterAndBooking(t *testing.T) {
	app := newApp()
	app.Get("/api/menu", func(c *fiber.Ctx) error {
		return c.JSON([]domain.MenuItem{{ID: "1", Name: c.Query("search"), Category: domain.Category(c.Query("category"))}})
	})
	app.Get("/api/ping", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Post("/api/bookings", func(c *fiber.Ctx) error {
		var b BookingRequest
		if err := c.BodyParser(&b); err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"_id": "b1", "customerName": b.CustomerName, "numberOfGuests": b.NumberOfGuests,
			"status": "confirmed", "message": "Booking created successfully",
		})
	})
	api := New(serve(t, app)+"/", time.Second)
	ctx := context.Background()

	require.NoError(t, api.Ping(ctx))
	items, err := api.Menu(ctx, domain.MenuFilter{Category: domain.CategoryDessert, Search: "tira misu"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "tira misu", items[0].Name)
	assert.Equal(t, domain.CategoryDessert, items[0].Category)

	res, err := BookingSubmitter{API: api}.SubmitBooking(ctx, BookingForm{Name: " Bo ", Email: "bo@example.com", Guests: 4})
	require.NoError(t, err)
	assert.Equal(t, "b1", res.ID)
	assert.Equal(t, "Bo", res.CustomerName)
	assert.Equal(t, 4, res.NumberOfGuests)
	assert.Equal(t, domain.BookingConfirmed, res.Status)
	assert.Equal(t, "Booking created successfully", res.Message)
}
