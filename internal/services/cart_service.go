package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"kiwa/internal/cart"
	"kiwa/internal/domain"
)

var ErrUnavailable = errors.New("this dish is not available right now")

// CartService keeps one live cart per browser session. Each cart is loaded
// from Store on first use and written back after every change.
type CartService struct {
	Store cart.Store
	// OnSaveError is told about failed background saves; may be nil.
	OnSaveError func(sid string, err error)
	// MaxQty caps a line's quantity across repeated adds; zero means no cap.
	MaxQty int

	mu    sync.Mutex
	carts map[string]*liveCart
}

type liveCart struct {
	cart *cart.Cart
	stop func()
	used time.Time
}

func NewCartService(store cart.Store) *CartService {
	return &CartService{Store: store, carts: map[string]*liveCart{}}
}

// Cart returns the session's cart, restoring it from the store if needed.
func (s *CartService) Cart(ctx context.Context, sid string) (*cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lc, ok := s.carts[sid]; ok {
		lc.used = time.Now()
		return lc.cart, nil
	}
	if s.carts == nil {
		s.carts = map[string]*liveCart{}
	}
	c := cart.New()
	key := cart.Key(sid)
	if err := c.Load(ctx, s.Store, key); err != nil {
		return nil, err
	}
	stop := cart.AutoSave(c, s.Store, key, func(err error) {
		if s.OnSaveError != nil {
			s.OnSaveError(sid, err)
		}
	})
	s.carts[sid] = &liveCart{cart: c, stop: stop, used: time.Now()}
	return c, nil
}

// Resident is the number of carts held in memory.
func (s *CartService) Resident() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.carts)
}

// Evict drops carts not used since before from memory. Their saved copies stay
// in the store and come back on the next visit.
func (s *CartService) Evict(before time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for sid, lc := range s.carts {
		if lc.used.Before(before) {
			lc.stop()
			delete(s.carts, sid)
			n++
		}
	}
	return n
}

// ItemFor snapshots a menu item into the cart's view of it.
func ItemFor(m domain.MenuItem) cart.Item {
	return cart.Item{
		ID:          m.ID,
		Name:        m.Name,
		Price:       decimal.NewFromFloat(m.Price),
		Image:       m.Image,
		Description: m.Description,
		Category:    string(m.Category),
		Badge:       m.Badge,
	}
}

// Add puts qty of m into the session's cart.
func (s *CartService) Add(ctx context.Context, sid string, m domain.MenuItem, qty int) (*cart.Cart, error) {
	if !m.Available {
		return nil, ErrUnavailable
	}
	c, err := s.Cart(ctx, sid)
	if err != nil {
		return nil, err
	}
	if s.MaxQty > 0 {
		have := 0
		if l, ok := c.Line(m.ID); ok {
			have = l.Quantity
		}
		if have+qty > s.MaxQty {
			qty = s.MaxQty - have
		}
		if qty < 1 {
			return c, nil
		}
	}
	c.Add(ItemFor(m), qty)
	return c, nil
}

// Count is the badge number for sid. A cart that cannot be loaded counts as
// empty. Sessions that never saved a cart are answered without loading one.
func (s *CartService) Count(ctx context.Context, sid string) int {
	s.mu.Lock()
	lc, ok := s.carts[sid]
	s.mu.Unlock()
	if ok {
		return lc.cart.TotalItemCount()
	}
	if _, err := s.Store.Read(ctx, cart.Key(sid)); err != nil {
		return 0
	}
	c, err := s.Cart(ctx, sid)
	if err != nil {
		return 0
	}
	return c.TotalItemCount()
}
