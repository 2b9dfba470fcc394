package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"kiwa/internal/checkout"
	"kiwa/internal/domain"
	"kiwa/internal/repos"
)

var ErrMissingOrderFields = errors.New("Please provide all required fields: name, email, items, and total amount")

// OrderInput is the POST /api/orders body.
type OrderInput struct {
	CustomerName    string             `json:"customerName"`
	CustomerEmail   string             `json:"customerEmail"`
	CustomerPhone   string             `json:"customerPhone"`
	Items           []domain.OrderItem `json:"items"`
	TotalAmount     float64            `json:"totalAmount"`
	OrderType       string             `json:"orderType"`
	DeliveryAddress string             `json:"deliveryAddress"`
}

// Recheck compares the client's total with what the server's pricing gives
// for the same items. Orders are accepted either way.
type Recheck struct {
	Subtotal decimal.Decimal
	Expected decimal.Decimal
	Claimed  decimal.Decimal
}

func (r Recheck) Matches() bool { return r.Expected.Equal(r.Claimed) }

type OrderService struct {
	Orders  *repos.OrderRepo
	Pricing checkout.Pricing
}

func NewOrderService(orders *repos.OrderRepo, p checkout.Pricing) *OrderService {
	return &OrderService{Orders: orders, Pricing: p}
}

// Place validates presence of the required fields and stores the order as
// pending.
func (s *OrderService) Place(in OrderInput) (domain.Order, Recheck, error) {
	name := strings.TrimSpace(in.CustomerName)
	email := strings.TrimSpace(in.CustomerEmail)
	if name == "" || email == "" || len(in.Items) == 0 || in.TotalAmount <= 0 {
		return domain.Order{}, Recheck{}, ErrMissingOrderFields
	}
	ot := domain.OrderDelivery
	if in.OrderType != "" {
		t, ok := domain.ParseOrderType(in.OrderType)
		if !ok {
			return domain.Order{}, Recheck{}, ErrMissingOrderFields
		}
		ot = t
	}

	items := make([]domain.OrderItem, 0, len(in.Items))
	sub := decimal.Zero
	for _, it := range in.Items {
		if it.Quantity < 1 || it.Price < 0 {
			return domain.Order{}, Recheck{}, ErrMissingOrderFields
		}
		items = append(items, it)
		sub = sub.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	claimed := decimal.NewFromFloat(in.TotalAmount).Round(2)
	check := Recheck{
		Subtotal: sub.Round(2),
		Expected: s.Pricing.Totals(sub, ot).Total,
		Claimed:  claimed,
	}

	o, err := s.Orders.Create(domain.Order{
		CustomerName:    name,
		CustomerEmail:   email,
		CustomerPhone:   strings.TrimSpace(in.CustomerPhone),
		Items:           items,
		TotalAmount:     claimed.InexactFloat64(),
		OrderType:       ot,
		DeliveryAddress: strings.TrimSpace(in.DeliveryAddress),
		Status:          domain.OrderPending,
	})
	return o, check, err
}

func (s *OrderService) Get(id string) (domain.Order, error) {
	o, err := s.Orders.Get(id)
	if errors.Is(err, repos.ErrNotFound) {
		return o, ErrNotFound
	}
	return o, err
}

func (s *OrderService) List() ([]domain.Order, error) { return s.Orders.ListLatest() }

// OrderStatuses are the values the kitchen can move an order through.
var OrderStatuses = []string{domain.OrderPending, "preparing", "ready", "completed", "cancelled"}

func (s *OrderService) SetStatus(id, status string) error {
	status = strings.ToLower(strings.TrimSpace(status))
	known := false
	for _, st := range OrderStatuses {
		if st == status {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("%w: status %q", ErrInvalid, status)
	}
	err := s.Orders.UpdateStatus(id, status)
	if errors.Is(err, repos.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
