// Package checkout drives an order from order-type selection to a confirmed
// submission. Ordered lines leave the cart only after the order service acknowledges.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"kiwa/internal/cart"
	"kiwa/internal/domain"
)

type State int

const (
	SelectingOrderType State = iota
	EnteringCustomerInfo
	Confirmed
)

func (s State) String() string {
	switch s {
	case SelectingOrderType:
		return "selecting_order_type"
	case EnteringCustomerInfo:
		return "entering_customer_info"
	case Confirmed:
		return "confirmed"
	}
	return "unknown"
}

type event int

const (
	evContinue event = iota
	evBack
	evAcknowledged
)

func (e event) String() string {
	switch e {
	case evContinue:
		return "continue"
	case evBack:
		return "back"
	case evAcknowledged:
		return "acknowledged"
	}
	return "unknown"
}

// transitions is the whole state graph. Confirmed has no way out.
var transitions = map[State]map[event]State{
	SelectingOrderType: {
		evContinue: EnteringCustomerInfo,
	},
	EnteringCustomerInfo: {
		evBack:         SelectingOrderType,
		evAcknowledged: Confirmed,
	},
}

func next(from State, ev event) (State, error) {
	if to, ok := transitions[from][ev]; ok {
		return to, nil
	}
	return from, fmt.Errorf("%w: %s from %s", ErrIllegalTransition, ev, from)
}

var (
	ErrEmptyCart          = errors.New("your cart is empty")
	ErrIllegalTransition  = errors.New("checkout: illegal transition")
	ErrSubmissionInFlight = errors.New("your order is already being placed")
)

// Submission is what the order service receives.
type Submission struct {
	OrderType domain.OrderType
	Customer  CustomerInfo
	Lines     []cart.Line
	Totals    Totals
}

// Ack is the order service's acceptance of a submission.
type Ack struct {
	OrderID string
	Status  string
	Message string
}

type Submitter interface {
	Submit(ctx context.Context, s Submission) (Ack, error)
}

type SubmitterFunc func(ctx context.Context, s Submission) (Ack, error)

func (f SubmitterFunc) Submit(ctx context.Context, s Submission) (Ack, error) { return f(ctx, s) }

type Receipt struct {
	OrderID   string
	Status    string
	Reference string
	Email     string
	OrderType domain.OrderType
	Totals    Totals
	PlacedAt  time.Time
}

// Reference is the human-facing code shown when the backend id is unavailable.
func Reference(t time.Time) string {
	return "KW-" + t.UTC().Format("20060102-150405")
}

type Flow struct {
	mu         sync.Mutex
	cart       *cart.Cart
	submitter  Submitter
	pricing    Pricing
	now        func() time.Time
	state      State
	orderType  domain.OrderType
	customer   CustomerInfo
	submitting bool
	lastErr    string
	fieldErrs  map[string]string
	receipt    *Receipt
}

type Option func(*Flow)

// WithClock replaces time.Now for receipts.
func WithClock(now func() time.Time) Option { return func(f *Flow) { f.now = now } }

// New starts a checkout over c. An empty cart cannot be checked out.
func New(c *cart.Cart, sub Submitter, p Pricing, opts ...Option) (*Flow, error) {
	if c == nil || c.IsEmpty() {
		return nil, ErrEmptyCart
	}
	f := &Flow{
		cart:      c,
		submitter: sub,
		pricing:   p,
		now:       time.Now,
		state:     SelectingOrderType,
		orderType: domain.OrderDelivery,
	}
	for _, o := range opts {
		o(f)
	}
	return f, nil
}

// Cart is the cart the flow checks out.
func (f *Flow) Cart() *cart.Cart { return f.cart }

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Flow) OrderType() domain.OrderType {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orderType
}

func (f *Flow) Customer() CustomerInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.customer
}

func (f *Flow) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

// Err is the last failure message, shown verbatim.
func (f *Flow) Err() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// FieldErrors are the per-field messages of the last rejected Submit.
func (f *Flow) FieldErrors() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.fieldErrs))
	for k, v := range f.fieldErrs {
		out[k] = v
	}
	return out
}

func (f *Flow) Receipt() (Receipt, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.receipt == nil {
		return Receipt{}, false
	}
	return *f.receipt, true
}

// Totals prices the live cart for the selected order type. After
// confirmation it returns the totals that were submitted.
func (f *Flow) Totals() Totals {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.receipt != nil {
		return f.receipt.Totals
	}
	return f.pricing.Totals(f.cart.Subtotal(), f.orderType)
}

// SelectOrderType is only possible before customer details are entered.
func (f *Flow) SelectOrderType(t domain.OrderType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != SelectingOrderType {
		return fmt.Errorf("%w: select order type from %s", ErrIllegalTransition, f.state)
	}
	if t != domain.OrderDelivery && t != domain.OrderPickup {
		return fmt.Errorf("unknown order type %q", t)
	}
	f.orderType = t
	return nil
}

func (f *Flow) Continue() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == SelectingOrderType && f.cart.IsEmpty() {
		return ErrEmptyCart
	}
	to, err := next(f.state, evContinue)
	if err != nil {
		return err
	}
	f.state = to
	return nil
}

func (f *Flow) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitting {
		return ErrSubmissionInFlight
	}
	to, err := next(f.state, evBack)
	if err != nil {
		return err
	}
	f.state = to
	f.lastErr = ""
	f.fieldErrs = nil
	return nil
}

// Submit validates info and places the order. Validation problems come back
// as *ValidationError without contacting the order service. Any failure
// leaves the flow in EnteringCustomerInfo with the cart untouched.
func (f *Flow) Submit(ctx context.Context, info CustomerInfo) (Receipt, error) {
	f.mu.Lock()
	if f.state != EnteringCustomerInfo {
		st := f.state
		f.mu.Unlock()
		return Receipt{}, fmt.Errorf("%w: submit from %s", ErrIllegalTransition, st)
	}
	if f.submitting {
		f.mu.Unlock()
		return Receipt{}, ErrSubmissionInFlight
	}
	info = info.normalized(f.orderType)
	f.customer = info
	if err := info.Validate(f.orderType); err != nil {
		f.lastErr = err.Error()
		f.fieldErrs = err.Fields
		f.mu.Unlock()
		return Receipt{}, err
	}
	if f.cart.IsEmpty() {
		f.lastErr = ErrEmptyCart.Error()
		f.mu.Unlock()
		return Receipt{}, ErrEmptyCart
	}
	sub := Submission{
		OrderType: f.orderType,
		Customer:  info,
		Lines:     f.cart.Lines(),
		Totals:    f.pricing.Totals(f.cart.Subtotal(), f.orderType),
	}
	f.submitting = true
	f.lastErr = ""
	f.fieldErrs = nil
	f.mu.Unlock()

	ack, err := f.submitter.Submit(ctx, sub)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitting = false
	if err != nil {
		f.lastErr = err.Error()
		return Receipt{}, err
	}
	to, terr := next(f.state, evAcknowledged)
	if terr != nil {
		return Receipt{}, terr
	}
	placed := f.now()
	r := Receipt{
		OrderID:   ack.OrderID,
		Status:    ack.Status,
		Reference: Reference(placed),
		Email:     info.Email,
		OrderType: sub.OrderType,
		Totals:    sub.Totals,
		PlacedAt:  placed,
	}
	f.receipt = &r
	f.state = to
	f.cart.Take(sub.Lines)
	return r, nil
}
