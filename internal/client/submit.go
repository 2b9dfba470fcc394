package client

import (
	"context"
	"strings"

	"kiwa/internal/checkout"
	"kiwa/internal/domain"
)

// OrderSubmitter places checkout submissions through POST /orders.
type OrderSubmitter struct {
	API *Client
}

var _ checkout.Submitter = OrderSubmitter{}

// OrderPayload translates a checkout submission into the wire body.
func OrderPayload(s checkout.Submission) OrderRequest {
	items := make([]domain.OrderItem, 0, len(s.Lines))
	for _, l := range s.Lines {
		items = append(items, domain.OrderItem{
			MenuItem: l.ID,
			Name:     l.Name,
			Quantity: l.Quantity,
			Price:    l.Price.InexactFloat64(),
		})
	}
	return OrderRequest{
		CustomerName:    s.Customer.Name,
		CustomerEmail:   s.Customer.Email,
		CustomerPhone:   s.Customer.Phone,
		Items:           items,
		TotalAmount:     s.Totals.Total.InexactFloat64(),
		OrderType:       s.OrderType,
		DeliveryAddress: s.Customer.DeliveryAddress(s.OrderType),
	}
}

func (o OrderSubmitter) Submit(ctx context.Context, s checkout.Submission) (checkout.Ack, error) {
	res, err := o.API.CreateOrder(ctx, OrderPayload(s))
	if err != nil {
		return checkout.Ack{}, err
	}
	return checkout.Ack{OrderID: res.ID, Status: res.Status, Message: res.Message}, nil
}

// BookingForm is a reservation as typed into the booking page.
type BookingForm struct {
	Name            string
	Email           string
	Phone           string
	Date            string
	Time            string
	Guests          int
	SpecialRequests string
}

func (f BookingForm) request() BookingRequest {
	return BookingRequest{
		CustomerName:    strings.TrimSpace(f.Name),
		CustomerEmail:   strings.TrimSpace(f.Email),
		CustomerPhone:   strings.TrimSpace(f.Phone),
		BookingDate:     strings.TrimSpace(f.Date),
		BookingTime:     strings.TrimSpace(f.Time),
		NumberOfGuests:  f.Guests,
		SpecialRequests: strings.TrimSpace(f.SpecialRequests),
	}
}

// BookingSubmitter sends reservations through POST /bookings.
type BookingSubmitter struct {
	API *Client
}

func (b BookingSubmitter) SubmitBooking(ctx context.Context, f BookingForm) (BookingCreated, error) {
	return b.API.CreateBooking(ctx, f.request())
}
