package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"kiwa/internal/checkout"
)

// CheckoutService holds the checkout flow of each session between requests.
type CheckoutService struct {
	Carts     *CartService
	Submitter checkout.Submitter
	Pricing   checkout.Pricing

	mu    sync.Mutex
	flows map[string]*liveFlow
}

type liveFlow struct {
	flow *checkout.Flow
	used time.Time
}

func NewCheckoutService(carts *CartService, sub checkout.Submitter, p checkout.Pricing) *CheckoutService {
	return &CheckoutService{Carts: carts, Submitter: sub, Pricing: p, flows: map[string]*liveFlow{}}
}

// Flow returns the session's checkout, starting one when there is none. A
// confirmed flow is shown again until Done or until the cart is refilled. An
// unsubmitted flow is dropped once its cart is emptied, and any flow is dropped
// once its cart was evicted and reloaded.
func (s *CheckoutService) Flow(ctx context.Context, sid string) (*checkout.Flow, error) {
	c, err := s.Carts.Cart(ctx, sid)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flows == nil {
		s.flows = map[string]*liveFlow{}
	}
	if lf, ok := s.flows[sid]; ok {
		confirmed := lf.flow.State() == checkout.Confirmed
		if lf.flow.Cart() == c && confirmed == c.IsEmpty() {
			lf.used = time.Now()
			return lf.flow, nil
		}
		delete(s.flows, sid)
	}
	f, err := checkout.New(c, s.Submitter, s.Pricing)
	if err != nil {
		return nil, err
	}
	s.flows[sid] = &liveFlow{flow: f, used: time.Now()}
	return f, nil
}

// Current returns the session's flow without starting one.
func (s *CheckoutService) Current(sid string) (*checkout.Flow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lf, ok := s.flows[sid]
	if !ok {
		return nil, false
	}
	lf.used = time.Now()
	return lf.flow, true
}

// Evict forgets flows not used since before, unless an order is being placed.
func (s *CheckoutService) Evict(before time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for sid, lf := range s.flows {
		if lf.used.Before(before) && !lf.flow.Submitting() {
			delete(s.flows, sid)
			n++
		}
	}
	return n
}

// Done forgets the session's flow; the next visit starts over.
func (s *CheckoutService) Done(sid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flows, sid)
}

// Submit places the order for sid's flow.
func (s *CheckoutService) Submit(ctx context.Context, sid string, info checkout.CustomerInfo) (checkout.Receipt, error) {
	f, ok := s.Current(sid)
	if !ok {
		return checkout.Receipt{}, fmt.Errorf("%w: no checkout in progress", checkout.ErrIllegalTransition)
	}
	return f.Submit(ctx, info)
}
