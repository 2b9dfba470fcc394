package domain

const BookingConfirmed = "confirmed"

type Booking struct {
	ID              string `db:"id" json:"_id"`
	CustomerName    string `db:"customer_name" json:"customerName"`
	CustomerEmail   string `db:"customer_email" json:"customerEmail"`
	CustomerPhone   string `db:"customer_phone" json:"customerPhone"`
	BookingDate     string `db:"booking_date" json:"bookingDate"`
	BookingTime     string `db:"booking_time" json:"bookingTime"`
	NumberOfGuests  int    `db:"number_of_guests" json:"numberOfGuests"`
	SpecialRequests string `db:"special_requests" json:"specialRequests"`
	Status          string `db:"status" json:"status"`
	CreatedAt       string `db:"created_at" json:"createdAt"`
	UpdatedAt       string `db:"updated_at" json:"updatedAt"`
}
