package repos

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"kiwa/internal/domain"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

const orderCols = `
    id, customer_name, customer_email, customer_phone, items_json, total_amount,
    order_type, delivery_address, status, created_at, COALESCE(updated_at,'') AS updated_at`

// Create stores the order with its items as one JSON document and returns the
// stored row.
func (r *OrderRepo) Create(o domain.Order) (domain.Order, error) {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return domain.Order{}, fmt.Errorf("encode items: %w", err)
	}
	o.ID = uuid.NewString()
	if o.Status == "" {
		o.Status = domain.OrderPending
	}
	if o.OrderType == "" {
		o.OrderType = domain.OrderDelivery
	}
	_, err = r.db.Exec(`
	  INSERT INTO orders
	    (id, customer_name, customer_email, customer_phone, items_json, total_amount,
	     order_type, delivery_address, status, created_at)
	  VALUES (?,?,?,?,?,?,?,?,?,CURRENT_TIMESTAMP)
	`, o.ID, o.CustomerName, o.CustomerEmail, o.CustomerPhone, string(items), o.TotalAmount,
		string(o.OrderType), o.DeliveryAddress, o.Status)
	if err != nil {
		return domain.Order{}, err
	}
	return r.Get(o.ID)
}

func (r *OrderRepo) Get(id string) (domain.Order, error) {
	var o domain.Order
	err := r.db.Get(&o, `SELECT`+orderCols+` FROM orders WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return o, ErrNotFound
	}
	if err != nil {
		return o, err
	}
	return o, decodeItems(&o)
}

func (r *OrderRepo) ListLatest() ([]domain.Order, error) {
	out := []domain.Order{}
	if err := r.db.Select(&out, `SELECT`+orderCols+`
	  FROM orders
	  ORDER BY datetime(created_at) DESC, rowid DESC`); err != nil {
		return nil, err
	}
	for i := range out {
		if err := decodeItems(&out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *OrderRepo) UpdateStatus(id, status string) error {
	res, err := r.db.Exec(`UPDATE orders SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func decodeItems(o *domain.Order) error {
	o.Items = []domain.OrderItem{}
	if o.ItemsJSON == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(o.ItemsJSON), &o.Items); err != nil {
		return fmt.Errorf("order %s items: %w", o.ID, err)
	}
	return nil
}
