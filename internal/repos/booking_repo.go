package repos

import (
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"kiwa/internal/domain"
)

type BookingRepo struct{ db *sqlx.DB }

func NewBookingRepo(db *sqlx.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingCols = `
    id, customer_name, customer_email, customer_phone, booking_date, booking_time,
    number_of_guests, special_requests, status, created_at, COALESCE(updated_at,'') AS updated_at`

func (r *BookingRepo) Create(b domain.Booking) (domain.Booking, error) {
	b.ID = uuid.NewString()
	if b.Status == "" {
		b.Status = domain.BookingConfirmed
	}
	_, err := r.db.Exec(`
	  INSERT INTO bookings
	    (id, customer_name, customer_email, customer_phone, booking_date, booking_time,
	     number_of_guests, special_requests, status, created_at)
	  VALUES (?,?,?,?,?,?,?,?,?,CURRENT_TIMESTAMP)
	`, b.ID, b.CustomerName, b.CustomerEmail, b.CustomerPhone, b.BookingDate, b.BookingTime,
		b.NumberOfGuests, b.SpecialRequests, b.Status)
	if err != nil {
		return domain.Booking{}, err
	}
	return r.Get(b.ID)
}

func (r *BookingRepo) Get(id string) (domain.Booking, error) {
	var b domain.Booking
	err := r.db.Get(&b, `SELECT`+bookingCols+` FROM bookings WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return b, ErrNotFound
	}
	return b, err
}

func (r *BookingRepo) ListLatest() ([]domain.Booking, error) {
	out := []domain.Booking{}
	err := r.db.Select(&out, `SELECT`+bookingCols+`
	  FROM bookings
	  ORDER BY datetime(created_at) DESC, rowid DESC`)
	return out, err
}
