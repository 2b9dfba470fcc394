package repos

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kiwa/internal/cart"
	"kiwa/internal/domain"
)

func openTestDB(t *testing.T) *MenuRepo {
	t.Helper()
	db, err := OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewMenuRepo(db)
}

func TestOpenDBSeedsMenuOnce(t *testing.T) {
	menu := openTestDB(t)
	items, err := menu.List("", "")
	require.NoError(t, err)
	assert.Len(t, items, len(SeedMenu))

	// a second pass over the same database must not duplicate anything
	require.NoError(t, seedMenuIfEmpty(menu.db))
	require.NoError(t, seedUsers(menu.db))
	items, err = menu.List("", "")
	require.NoError(t, err)
	assert.Len(t, items, len(SeedMenu))
}

func TestMenuListFilters(t *testing.T) {
	menu := openTestDB(t)

	desserts, err := menu.List(domain.CategoryDessert, "")
	require.NoError(t, err)
	require.Len(t, desserts, 2)
	for _, d := range desserts {
		assert.Equal(t, domain.CategoryDessert, d.Category)
	}

	hits, err := menu.List("", "CHICK")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Rosemary Chicken", hits[0].Name)

	none, err := menu.List("", "100%")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMenuCRUD(t *testing.T) {
	menu := openTestDB(t)

	created, err := menu.Create(domain.MenuItem{Name: "Lemonade", Description: "Fresh", Price: 3.5, Category: domain.CategoryBeverage, Available: true})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.Available)

	items, err := menu.List("", "")
	require.NoError(t, err)
	assert.Equal(t, created.ID, items[0].ID, "newest first")

	created.Price = 4
	created.Available = false
	updated, err := menu.Update(created)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, updated.Price, 0.001)
	assert.False(t, updated.Available)
	assert.NotEmpty(t, updated.UpdatedAt)

	require.NoError(t, menu.Delete(created.ID))
	_, err = menu.Get(created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, menu.Delete(created.ID), ErrNotFound)
	_, err = menu.Update(domain.MenuItem{ID: "ghost", Name: "x", Category: domain.CategoryMain})
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := menu.Reseed()
	require.NoError(t, err)
	assert.Equal(t, len(SeedMenu), n)
}

func TestOrderItemsRoundTripAsJSON(t *testing.T) {
	menu := openTestDB(t)
	orders := NewOrderRepo(menu.db)

	o, err := orders.Create(domain.Order{
		CustomerName:  "Ana",
		CustomerEmail: "ana@example.com",
		Items: []domain.OrderItem{
			{MenuItem: "tiramisu", Name: "Tiramisu", Quantity: 2, Price: 7.99},
		},
		TotalAmount: 17.26,
		OrderType:   domain.OrderPickup,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPending, o.Status)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 2, o.Items[0].Quantity)

	second, err := orders.Create(domain.Order{CustomerName: "Bo", CustomerEmail: "bo@example.com", Items: []domain.OrderItem{{MenuItem: "x", Quantity: 1, Price: 1}}, TotalAmount: 1})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderDelivery, second.OrderType)

	list, err := orders.ListLatest()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, "Tiramisu", list[1].Items[0].Name)

	_, err = orders.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, orders.UpdateStatus(o.ID, "ready"))
	assert.ErrorIs(t, orders.UpdateStatus("missing", "ready"), ErrNotFound)
}

func TestBookings(t *testing.T) {
	menu := openTestDB(t)
	bookings := NewBookingRepo(menu.db)

	b, err := bookings.Create(domain.Booking{
		CustomerName: "Ana", CustomerEmail: "ana@example.com",
		BookingDate: "2026-05-01", BookingTime: "19:30", NumberOfGuests: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, b.Status)

	got, err := bookings.Get(b.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.NumberOfGuests)

	all, err := bookings.ListLatest()
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = bookings.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func exerciseStore(t *testing.T, s cart.Store, key string) {
	t.Helper()
	ctx := context.Background()

	c := cart.New()
	require.NoError(t, c.Load(ctx, s, key), "missing key loads empty")
	assert.True(t, c.IsEmpty())

	stop := cart.AutoSave(c, s, key, func(err error) { t.Errorf("autosave: %v", err) })
	defer stop()
	c.Add(cart.Item{ID: "tiramisu", Name: "Tiramisu", Price: decimal.RequireFromString("7.99")}, 2)
	c.Add(cart.Item{ID: "soup-of-the-day", Name: "Soup of the Day", Price: decimal.RequireFromString("9.99")}, 1)

	restored := cart.New()
	require.NoError(t, restored.Load(ctx, s, key))
	assert.Equal(t, 3, restored.TotalItemCount())
	assert.Equal(t, "25.97", restored.Subtotal().StringFixed(2))
}

func TestSQLiteCartStore(t *testing.T) {
	menu := openTestDB(t)
	store := NewCartRepo(menu.db)
	exerciseStore(t, store, cart.Key("sid-sqlite"))

	n, err := store.Purge(context.Background(), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	_, err = store.Read(context.Background(), cart.Key("sid-sqlite"))
	assert.ErrorIs(t, err, cart.ErrNotFound)
}

func TestRedisCartStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASSWORD")})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(context.Background()).Err())

	key := cart.Key("test-" + uuid.NewString())
	t.Cleanup(func() { rdb.Del(context.Background(), key) })
	exerciseStore(t, NewRedisCartStore(rdb, time.Minute), key)

	ttl, err := rdb.TTL(context.Background(), key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
