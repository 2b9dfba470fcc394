package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// StorageKey is the fixed key the cart is persisted under; server-side stores
// namespace it per session with Key.
const StorageKey = "restaurantCart"

// ErrNotFound is returned by a Store when nothing was saved under a key.
var ErrNotFound = errors.New("cart: nothing stored")

type Store interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
}

func Key(owner string) string {
	if owner == "" {
		return StorageKey
	}
	return StorageKey + ":" + owner
}

type wireLine struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
	Quantity    int     `json:"quantity"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category,omitempty"`
	Badge       string  `json:"badge,omitempty"`
}

// MarshalJSON encodes the cart as the persisted array of lines.
func (c *Cart) MarshalJSON() ([]byte, error) {
	lines := c.Lines()
	out := make([]wireLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, wireLine{
			ID:          l.ID,
			Name:        l.Name,
			Price:       l.Price.InexactFloat64(),
			Image:       l.Image,
			Quantity:    l.Quantity,
			Description: l.Description,
			Category:    l.Category,
			Badge:       l.Badge,
		})
	}
	return json.Marshal(out)
}

func (c *Cart) UnmarshalJSON(b []byte) error {
	var in []wireLine
	if err := json.Unmarshal(b, &in); err != nil {
		return fmt.Errorf("decode cart: %w", err)
	}
	lines := make([]Line, 0, len(in))
	for _, w := range in {
		lines = append(lines, Line{
			ID:          w.ID,
			Name:        w.Name,
			Price:       decimal.NewFromFloat(w.Price),
			Image:       w.Image,
			Description: w.Description,
			Category:    w.Category,
			Badge:       w.Badge,
			Quantity:    w.Quantity,
		})
	}
	c.replace(lines)
	return nil
}

func (c *Cart) Save(ctx context.Context, s Store, key string) error {
	b, err := c.MarshalJSON()
	if err != nil {
		return err
	}
	if err := s.Write(ctx, key, b); err != nil {
		return fmt.Errorf("save cart %s: %w", key, err)
	}
	return nil
}

// Load replaces the cart with what s holds under key. A missing key loads an
// empty cart; an unreadable payload leaves the cart untouched.
func (c *Cart) Load(ctx context.Context, s Store, key string) error {
	b, err := s.Read(ctx, key)
	if errors.Is(err, ErrNotFound) || (err == nil && len(b) == 0) {
		c.replace(nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load cart %s: %w", key, err)
	}
	return c.UnmarshalJSON(b)
}

// AutoSave writes the cart to s after every mutation. Loads are not written
// back. onErr may be nil.
func AutoSave(c *Cart, s Store, key string, onErr func(error)) (stop func()) {
	return c.Subscribe(func(ev Event) {
		if ev.Kind == Loaded {
			return
		}
		// background: the mutation already happened, the save is not cancellable
		if err := c.Save(context.Background(), s, key); err != nil && onErr != nil {
			onErr(err)
		}
	})
}

// MemoryStore keeps payloads in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string][]byte{}}
}

func (m *MemoryStore) Read(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

func (m *MemoryStore) Write(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), data...)
	return nil
}
