package domain

import "strings"

type OrderType string

const (
	OrderDelivery OrderType = "delivery"
	OrderPickup   OrderType = "pickup"
)

// ParseOrderType normalizes user input; unknown values are rejected.
func ParseOrderType(s string) (OrderType, bool) {
	switch OrderType(strings.ToLower(strings.TrimSpace(s))) {
	case OrderDelivery:
		return OrderDelivery, true
	case OrderPickup:
		return OrderPickup, true
	}
	return "", false
}

const OrderPending = "pending"

type OrderItem struct {
	MenuItem string  `json:"menuItem"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type Order struct {
	ID              string      `db:"id" json:"_id"`
	CustomerName    string      `db:"customer_name" json:"customerName"`
	CustomerEmail   string      `db:"customer_email" json:"customerEmail"`
	CustomerPhone   string      `db:"customer_phone" json:"customerPhone"`
	Items           []OrderItem `db:"-" json:"items"`
	ItemsJSON       string      `db:"items_json" json:"-"`
	TotalAmount     float64     `db:"total_amount" json:"totalAmount"`
	OrderType       OrderType   `db:"order_type" json:"orderType"`
	DeliveryAddress string      `db:"delivery_address" json:"deliveryAddress"`
	Status          string      `db:"status" json:"status"`
	CreatedAt       string      `db:"created_at" json:"createdAt"`
	UpdatedAt       string      `db:"updated_at" json:"updatedAt"`
}
