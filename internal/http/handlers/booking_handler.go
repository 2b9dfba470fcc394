package handlers

import (
	"strconv"
	"strings"
	"time"

	"kiwa/internal/client"
	applog "kiwa/internal/log"
	"kiwa/internal/validate"

	"github.com/gofiber/fiber/v2"
)

// BookingSlots are the reservation times offered each evening.
var BookingSlots = timeSlots("17:00", "20:30", 30*time.Minute)

func timeSlots(from, to string, step time.Duration) []string {
	start, _ := time.Parse("15:04", from)
	end, _ := time.Parse("15:04", to)
	var out []string
	for t := start; !t.After(end); t = t.Add(step) {
		out = append(out, t.Format("15:04"))
	}
	return out
}

type BookingHandler struct {
	Bookings BookingSubmitter
}

func (h *BookingHandler) form(c *fiber.Ctx, f client.BookingForm, extra fiber.Map) error {
	today := time.Now()
	if f.Guests == 0 {
		f.Guests = 2
	}
	data := fiber.Map{
		"Form":      f,
		"Slots":     BookingSlots,
		"MinDate":   today.Format("2006-01-02"),
		"MaxDate":   today.AddDate(0, 0, 30).Format("2006-01-02"),
		"MaxGuests": validate.MaxGuests,
	}
	for k, v := range extra {
		data[k] = v
	}
	return render(c, "booking", data)
}

// GET /booking
func (h *BookingHandler) Form(c *fiber.Ctx) error {
	ensureSID(c)
	return h.form(c, client.BookingForm{}, nil)
}

func bookingForm(c *fiber.Ctx) client.BookingForm {
	guests, _ := strconv.Atoi(strings.TrimSpace(c.FormValue("guests")))
	return client.BookingForm{
		Name:            strings.TrimSpace(c.FormValue("name")),
		Email:           strings.TrimSpace(c.FormValue("email")),
		Phone:           strings.TrimSpace(c.FormValue("phone")),
		Date:            strings.TrimSpace(c.FormValue("date")),
		Time:            strings.TrimSpace(c.FormValue("time")),
		Guests:          guests,
		SpecialRequests: strings.TrimSpace(c.FormValue("specialRequests")),
	}
}

// checkBooking names the first problem with f; msg is empty when f is usable.
func checkBooking(f client.BookingForm) (field, msg string) {
	if f.Name == "" || f.Email == "" || f.Date == "" || f.Time == "" {
		return "required", "Please fill in all required fields"
	}
	if _, ok := validate.Email(f.Email); !ok {
		return "email", "Please enter a valid email address"
	}
	if _, ok := validate.Date(f.Date); !ok {
		return "date", "Please pick a valid date"
	}
	if _, ok := validate.Time(f.Time); !ok {
		return "time", "Please pick one of the available times"
	}
	if !validate.Guests(f.Guests) {
		return "guests", "Please choose between 1 and " + strconv.Itoa(validate.MaxGuests) + " guests"
	}
	return "", ""
}

// POST /booking
func (h *BookingHandler) Create(c *fiber.Ctx) error {
	ensureSID(c)
	f := bookingForm(c)
	if field, msg := checkBooking(f); msg != "" {
		applog.Security(c, "validation.fail", map[string]any{"resource": "booking", "field": field})
		c.Status(fiber.StatusBadRequest)
		return h.form(c, f, fiber.Map{"Err": msg})
	}
	b, err := h.Bookings.SubmitBooking(ctxOf(c), f)
	if err != nil {
		applog.Error(c, "booking.submit.fail", client.Cause(err), nil)
		c.Status(fiber.StatusBadGateway)
		return h.form(c, f, fiber.Map{"Err": client.Message(err)})
	}
	applog.Audit(c, "booking.confirmed", map[string]any{"booking_id": b.ID})
	return h.form(c, client.BookingForm{}, fiber.Map{
		"Success": "Booking confirmed! We've sent a confirmation to " + f.Email,
		"Booking": b,
	})
}
