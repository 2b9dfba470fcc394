// Package cart holds the shopping cart: one line per menu item, quantities of at
// least one, prices snapshotted when an item is first added.
package cart

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Item is the catalog view the cart snapshots from when a line is created.
type Item struct {
	ID          string
	Name        string
	Price       decimal.Decimal
	Image       string
	Description string
	Category    string
	Badge       string
}

type Line struct {
	ID          string
	Name        string
	Price       decimal.Decimal
	Image       string
	Description string
	Category    string
	Badge       string
	Quantity    int
}

func (l Line) Total() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type EventKind int

const (
	Added EventKind = iota
	Updated
	Removed
	Cleared
	Loaded
)

func (k EventKind) String() string {
	switch k {
	case Added:
		return "added"
	case Updated:
		return "updated"
	case Removed:
		return "removed"
	case Cleared:
		return "cleared"
	case Loaded:
		return "loaded"
	}
	return "unknown"
}

// Event is published after every mutation with the cart state it produced.
type Event struct {
	Kind     EventKind
	ItemID   string
	Count    int
	Subtotal decimal.Decimal
	Lines    []Line
}

type Listener func(Event)

type subscription struct {
	id int
	fn Listener
}

type Cart struct {
	mu     sync.Mutex
	lines  []Line
	subs   []subscription
	nextID int
}

func New() *Cart { return &Cart{} }

// Add appends a line for item or grows the existing one. Quantities below one
// count as one; callers are expected to clamp user input first.
func (c *Cart) Add(item Item, qty int) {
	if qty < 1 {
		qty = 1
	}
	c.mu.Lock()
	if i := c.indexLocked(item.ID); i >= 0 {
		c.lines[i].Quantity += qty
	} else {
		c.lines = append(c.lines, Line{
			ID:          item.ID,
			Name:        item.Name,
			Price:       item.Price,
			Image:       item.Image,
			Description: item.Description,
			Category:    item.Category,
			Badge:       item.Badge,
			Quantity:    qty,
		})
	}
	ev := c.eventLocked(Added, item.ID)
	c.mu.Unlock()
	c.publish(ev)
}

// UpdateQuantity sets the quantity of id; zero or less removes the line.
// Unknown ids are ignored.
func (c *Cart) UpdateQuantity(id string, qty int) {
	if qty <= 0 {
		c.Remove(id)
		return
	}
	c.mu.Lock()
	i := c.indexLocked(id)
	if i < 0 {
		c.mu.Unlock()
		return
	}
	c.lines[i].Quantity = qty
	ev := c.eventLocked(Updated, id)
	c.mu.Unlock()
	c.publish(ev)
}

func (c *Cart) Remove(id string) {
	c.mu.Lock()
	i := c.indexLocked(id)
	if i < 0 {
		c.mu.Unlock()
		return
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	ev := c.eventLocked(Removed, id)
	c.mu.Unlock()
	c.publish(ev)
}

func (c *Cart) Clear() {
	c.mu.Lock()
	c.lines = nil
	ev := c.eventLocked(Cleared, "")
	c.mu.Unlock()
	c.publish(ev)
}

// Take removes quantities that were ordered, leaving whatever was added since
// the lines were copied. Lines that reach zero are removed.
func (c *Cart) Take(lines []Line) {
	c.mu.Lock()
	for _, l := range lines {
		i := c.indexLocked(l.ID)
		if i < 0 {
			continue
		}
		if c.lines[i].Quantity <= l.Quantity {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
		} else {
			c.lines[i].Quantity -= l.Quantity
		}
	}
	kind := Removed
	if len(c.lines) == 0 {
		kind = Cleared
	}
	ev := c.eventLocked(kind, "")
	c.mu.Unlock()
	c.publish(ev)
}

func (c *Cart) TotalItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.countLocked()
}

// Subtotal is recomputed from the current lines on every call.
func (c *Cart) Subtotal() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subtotalLocked()
}

// Lines returns a copy in insertion order.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyLocked()
}

func (c *Cart) Line(id string) (Line, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexLocked(id); i >= 0 {
		return c.lines[i], true
	}
	return Line{}, false
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

func (c *Cart) IsEmpty() bool { return c.Len() == 0 }

// Subscribe registers fn for change events and returns a func that removes it.
func (c *Cart) Subscribe(fn Listener) (unsubscribe func()) {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.subs = append(c.subs, subscription{id: id, fn: fn})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, s := range c.subs {
				if s.id == id {
					c.subs = append(c.subs[:i], c.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// replace swaps in lines restored from storage, keeping the one-line-per-item
// and quantity >= 1 invariants even for hand-edited payloads.
func (c *Cart) replace(lines []Line) {
	clean := make([]Line, 0, len(lines))
	seen := make(map[string]int, len(lines))
	for _, l := range lines {
		if l.ID == "" || l.Quantity < 1 {
			continue
		}
		if i, ok := seen[l.ID]; ok {
			clean[i].Quantity += l.Quantity
			continue
		}
		seen[l.ID] = len(clean)
		clean = append(clean, l)
	}
	c.mu.Lock()
	c.lines = clean
	ev := c.eventLocked(Loaded, "")
	c.mu.Unlock()
	c.publish(ev)
}

func (c *Cart) indexLocked(id string) int {
	for i := range c.lines {
		if c.lines[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Cart) countLocked() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) subtotalLocked() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.lines {
		sum = sum.Add(l.Total())
	}
	return sum
}

func (c *Cart) copyLocked() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) eventLocked(kind EventKind, id string) Event {
	return Event{
		Kind:     kind,
		ItemID:   id,
		Count:    c.countLocked(),
		Subtotal: c.subtotalLocked(),
		Lines:    c.copyLocked(),
	}
}

func (c *Cart) publish(ev Event) {
	c.mu.Lock()
	subs := make([]subscription, len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()
	for _, s := range subs {
		s.fn(ev)
	}
}
