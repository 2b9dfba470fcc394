package services

import (
	"errors"
	"strings"

	"kiwa/internal/domain"
	"kiwa/internal/repos"
)

var ErrMissingBookingFields = errors.New("Please provide all required fields: name, email, date, time, and number of guests")

// BookingInput is the POST /api/bookings body.
type BookingInput struct {
	CustomerName    string `json:"customerName"`
	CustomerEmail   string `json:"customerEmail"`
	CustomerPhone   string `json:"customerPhone"`
	BookingDate     string `json:"bookingDate"`
	BookingTime     string `json:"bookingTime"`
	NumberOfGuests  int    `json:"numberOfGuests"`
	SpecialRequests string `json:"specialRequests"`
}

type BookingService struct {
	Bookings *repos.BookingRepo
}

func NewBookingService(b *repos.BookingRepo) *BookingService { return &BookingService{Bookings: b} }

// Create stores a confirmed booking once every required field is present.
func (s *BookingService) Create(in BookingInput) (domain.Booking, error) {
	b := domain.Booking{
		CustomerName:    strings.TrimSpace(in.CustomerName),
		CustomerEmail:   strings.TrimSpace(in.CustomerEmail),
		CustomerPhone:   strings.TrimSpace(in.CustomerPhone),
		BookingDate:     strings.TrimSpace(in.BookingDate),
		BookingTime:     strings.TrimSpace(in.BookingTime),
		NumberOfGuests:  in.NumberOfGuests,
		SpecialRequests: strings.TrimSpace(in.SpecialRequests),
		Status:          domain.BookingConfirmed,
	}
	if b.CustomerName == "" || b.CustomerEmail == "" || b.BookingDate == "" || b.BookingTime == "" || b.NumberOfGuests < 1 {
		return domain.Booking{}, ErrMissingBookingFields
	}
	return s.Bookings.Create(b)
}

func (s *BookingService) Get(id string) (domain.Booking, error) {
	b, err := s.Bookings.Get(id)
	if errors.Is(err, repos.ErrNotFound) {
		return b, ErrNotFound
	}
	return b, err
}

func (s *BookingService) List() ([]domain.Booking, error) { return s.Bookings.ListLatest() }
