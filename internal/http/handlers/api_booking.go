package handlers

import (
	"errors"

	"kiwa/internal/domain"
	applog "kiwa/internal/log"
	"kiwa/internal/services"
	"kiwa/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type BookingAPI struct {
	Bookings *services.BookingService
}

type bookingCreated struct {
	domain.Booking
	Message string `json:"message"`
}

// POST /api/bookings
func (h *BookingAPI) Create(c *fiber.Ctx) error {
	var in services.BookingInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": services.ErrMissingBookingFields.Error()})
	}
	b, err := h.Bookings.Create(in)
	if errors.Is(err, services.ErrMissingBookingFields) {
		applog.Security(c, "booking.create.fail", map[string]any{"reason": "missing_fields"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if err != nil {
		applog.Error(c, "booking.create.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to create booking"})
	}
	applog.Audit(c, "booking.create", map[string]any{"booking_id": b.ID, "date": b.BookingDate, "time": b.BookingTime, "guests": b.NumberOfGuests})
	return c.Status(fiber.StatusCreated).JSON(bookingCreated{Booking: b, Message: "Booking created successfully"})
}

// GET /api/bookings
func (h *BookingAPI) List(c *fiber.Ctx) error {
	bookings, err := h.Bookings.List()
	if err != nil {
		applog.Error(c, "bookings.list.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to load bookings"})
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	return c.JSON(bookings)
}

// GET /api/bookings/:id
func (h *BookingAPI) Get(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Booking not found"})
	}
	b, err := h.Bookings.Get(id)
	if errors.Is(err, services.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Booking not found"})
	}
	if err != nil {
		applog.Error(c, "bookings.get.fail", err, map[string]any{"booking_id": id})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to load booking"})
	}
	return c.JSON(b)
}
