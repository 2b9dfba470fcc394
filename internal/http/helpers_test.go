package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"

	"kiwa/internal/cart"
	"kiwa/internal/checkout"
	"kiwa/internal/client"
	"kiwa/internal/config"
	"kiwa/internal/domain"
	"kiwa/internal/http/handlers"
	"kiwa/internal/repos"
	"kiwa/internal/services"
)

type logEntry struct {
	Action string                 `json:"action"`
	Kind   string                 `json:"kind"`
	Fields map[string]interface{} `json:"fields"`
}

type lockedBuf struct {
	b  *bytes.Buffer
	mu *sync.Mutex
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf bytes.Buffer
	var mu sync.Mutex
	oldW := log.Writer()
	oldFlags := log.Flags()
	log.SetOutput(&lockedBuf{b: &buf, mu: &mu})
	log.SetFlags(0)
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	mu.Lock()
	defer mu.Unlock()
	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}

// fakeOrders stands in for the order API behind the storefront.
type fakeOrders struct {
	mu    sync.Mutex
	calls int
	last  checkout.Submission
	err   error
}

func (f *fakeOrders) Submit(_ context.Context, s checkout.Submission) (checkout.Ack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = s
	if f.err != nil {
		return checkout.Ack{}, f.err
	}
	return checkout.Ack{OrderID: "ord-1", Status: domain.OrderPending, Message: "Order created successfully"}, nil
}

func (f *fakeOrders) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeBookings struct {
	got []client.BookingForm
	err error
}

func (f *fakeBookings) SubmitBooking(_ context.Context, b client.BookingForm) (client.BookingCreated, error) {
	f.got = append(f.got, b)
	if f.err != nil {
		return client.BookingCreated{}, f.err
	}
	return client.BookingCreated{
		Booking: domain.Booking{ID: "bk-1", BookingDate: b.Date, BookingTime: b.Time, NumberOfGuests: b.Guests, Status: domain.BookingConfirmed},
		Message: "Booking created successfully",
	}, nil
}

type testEnv struct {
	app      *fiber.App
	db       *sqlx.DB
	deps     *handlers.Deps
	orders   *fakeOrders
	bookings *fakeBookings
}

func testConfig() config.Config {
	return config.Config{
		DBDSN:                 ":memory:",
		CORSOrigins:           "http://localhost:5173",
		TaxRate:               0.08,
		DeliveryFee:           3.99,
		FreeDeliveryThreshold: 30,
	}
}

// newTestEnv builds the full app over an in-memory database. The storefront
// reads the local menu and submits to fakes.
func newTestEnv(t *testing.T, cfg config.Config) *testEnv {
	t.Helper()
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	env := &testEnv{db: db, orders: &fakeOrders{}, bookings: &fakeBookings{}}
	remote := handlers.Remote{
		Catalog:  services.NewMenuService(repos.NewMenuRepo(db)),
		Orders:   env.orders,
		Bookings: env.bookings,
	}
	env.deps = handlers.NewDeps(db, cfg, cart.NewMemoryStore(), remote)
	env.app = handlers.NewApp(cfg, env.deps, handlers.NewEngine("../../web/templates"))
	return env
}

func extractCookie(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

// session is one browser: a sid and the csrf token issued to it.
type session struct {
	sid  string
	csrf string
}

func newSession(t *testing.T, app *fiber.App, sid string) session {
	t.Helper()
	req := httptest.NewRequest("GET", "/login", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("get login: %v", err)
	}
	tok := extractCookie(resp, "csrf_")
	if tok == "" {
		t.Fatal("csrf token missing")
	}
	return session{sid: sid, csrf: tok}
}

func (s session) get(t *testing.T, app *fiber.App, path string) *http.Response {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: s.sid})
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: s.csrf})
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func (s session) post(t *testing.T, app *fiber.App, path string, form url.Values) *http.Response {
	t.Helper()
	if form == nil {
		form = url.Values{}
	}
	form.Set("csrf", s.csrf)
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "sid", Value: s.sid})
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: s.csrf})
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func jsonRequest(t *testing.T, app *fiber.App, method, path string, body any, sid string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode: %v", err)
	}
}
