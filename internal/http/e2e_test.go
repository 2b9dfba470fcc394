package handlers_test

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"kiwa/internal/cart"
	"kiwa/internal/client"
	"kiwa/internal/config"
	"kiwa/internal/domain"
	"kiwa/internal/http/handlers"
	"kiwa/internal/repos"
)

// serveSite runs the whole site on a loopback port with the storefront talking
// to its own API over HTTP, the way it does in production.
func serveSite(t *testing.T, cfg config.Config) (*fiber.App, *client.Client, string) {
	t.Helper()
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	base := "http://" + ln.Addr().String()
	api := client.New(base+"/api", 2*time.Second)
	deps := handlers.NewDeps(db, cfg, cart.NewMemoryStore(), handlers.RemoteAPI(api))
	app := handlers.NewApp(cfg, deps, handlers.NewEngine("../../web/templates"))
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.ShutdownWithTimeout(time.Second) })
	return app, api, base
}

// shopperFrom dials the site from its own loopback address so each shopper
// gets a separate rate limit bucket.
func shopperFrom(ip string) *http.Client {
	d := &net.Dialer{LocalAddr: &net.TCPAddr{IP: net.ParseIP(ip)}, Timeout: 2 * time.Second}
	return &http.Client{
		Transport: &http.Transport{DialContext: d.DialContext},
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
		Timeout: 5 * time.Second,
	}
}

func TestStorefrontOrdersThroughAPI(t *testing.T) {
	app, api, _ := serveSite(t, testConfig())

	s := newSession(t, app, "sid-e2e")
	if body := readBody(t, s.get(t, app, "/menu?category=dessert")); !strings.Contains(body, "Tiramisu") || strings.Contains(body, "Soup of the Day") {
		t.Fatal("dessert menu should come from the API")
	}
	addToCart(t, &testEnv{app: app}, s, "tiramisu", "2")
	s.post(t, app, "/checkout/type", url.Values{"orderType": {"pickup"}})
	resp := s.post(t, app, "/checkout/submit", customer(nil))
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "KW-") {
		t.Fatalf("expected confirmation, got %d body=%s", resp.StatusCode, body)
	}

	orders, err := api.Orders(context.Background())
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected one stored order, got %d", len(orders))
	}
	o := orders[0]
	if !strings.Contains(body, o.ID) {
		t.Fatalf("confirmation should show order id %s", o.ID)
	}
	if o.TotalAmount != 17.26 || o.OrderType != domain.OrderPickup || o.DeliveryAddress != "Pickup at restaurant" || o.Status != domain.OrderPending {
		t.Fatalf("unexpected stored order %+v", o)
	}
	if len(o.Items) != 1 || o.Items[0].MenuItem != "tiramisu" || o.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items %+v", o.Items)
	}

	bk := s.post(t, app, "/booking", bookingValues(nil))
	if bk.StatusCode != http.StatusOK {
		t.Fatalf("booking through the API failed: %d", bk.StatusCode)
	}
	bookings, err := api.Bookings(context.Background())
	if err != nil || len(bookings) != 1 || bookings[0].NumberOfGuests != 4 {
		t.Fatalf("expected the booking to be stored, got %+v err=%v", bookings, err)
	}
}

func TestStorefrontAPICallsDoNotShareOneLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = 3
	_, api, base := serveSite(t, cfg)

	// every menu page costs one API call from 127.0.0.1
	for i := 2; i <= 8; i++ {
		ip := fmt.Sprintf("127.0.0.%d", i)
		resp, err := shopperFrom(ip).Get(base + "/menu")
		if err != nil {
			t.Fatalf("shopper %s: %v", ip, err)
		}
		body := readBody(t, resp)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Tiramisu") {
			t.Fatalf("shopper %s: expected the menu, got %d", ip, resp.StatusCode)
		}
	}

	// one shopper is still held to the limit
	hammer := shopperFrom("127.0.0.20")
	var last int
	for i := 0; i < 4; i++ {
		resp, err := hammer.Get(base + "/menu")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		last = resp.StatusCode
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for the fourth page load, got %d", last)
	}

	// the marker only counts from loopback; plain API callers stay limited
	for i := 0; i < 4; i++ {
		if _, err := api.Menu(context.Background(), domain.MenuFilter{}); err != nil {
			t.Fatalf("marked loopback calls must not be limited: %v", err)
		}
	}
	req, _ := http.NewRequest("GET", base+"/api/menu", nil)
	for i := 0; i < 4; i++ {
		resp, err := shopperFrom("127.0.0.30").Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		last = resp.StatusCode
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("unmarked API callers should be limited, got %d", last)
	}
}
