package handlers

import (
	"errors"

	"kiwa/internal/checkout"
	"kiwa/internal/client"
	"kiwa/internal/domain"
	applog "kiwa/internal/log"
	"kiwa/internal/services"

	"github.com/gofiber/fiber/v2"
)

type CheckoutHandler struct {
	Checkout *services.CheckoutService
}

// step names the checkout screen a flow is on.
func step(s checkout.State) string {
	switch s {
	case checkout.EnteringCustomerInfo:
		return "info"
	case checkout.Confirmed:
		return "confirmed"
	}
	return "type"
}

func (h *CheckoutHandler) page(c *fiber.Ctx, sid string, f *checkout.Flow, extra fiber.Map) error {
	data := fiber.Map{
		"Step":        step(f.State()),
		"OrderType":   string(f.OrderType()),
		"Totals":      f.Totals(),
		"Customer":    f.Customer(),
		"Err":         f.Err(),
		"FieldErrors": f.FieldErrors(),
		"Submitting":  f.Submitting(),
	}
	if r, ok := f.Receipt(); ok {
		data["Receipt"] = r
	} else if cart, err := h.Checkout.Carts.Cart(ctxOf(c), sid); err == nil {
		data["Lines"] = cart.Lines()
	}
	for k, v := range extra {
		data[k] = v
	}
	return render(c, "checkout", data)
}

func (h *CheckoutHandler) empty(c *fiber.Ctx) error {
	return render(c, "checkout", fiber.Map{"Empty": true, "Err": "Your cart is empty"})
}

// flow loads the session's checkout; ok is false once a response was written.
func (h *CheckoutHandler) flow(c *fiber.Ctx, sid string) (*checkout.Flow, bool, error) {
	f, err := h.Checkout.Flow(ctxOf(c), sid)
	if errors.Is(err, checkout.ErrEmptyCart) {
		return nil, false, h.empty(c)
	}
	if err != nil {
		applog.Error(c, "checkout.load.fail", err, nil)
		return nil, false, fail(c, fiber.StatusInternalServerError, "Could not load your cart")
	}
	return f, true, nil
}

// GET /checkout
func (h *CheckoutHandler) View(c *fiber.Ctx) error {
	sid := ensureSID(c)
	f, ok, err := h.flow(c, sid)
	if !ok {
		return err
	}
	return h.page(c, sid, f, nil)
}

// POST /checkout/type picks delivery or pickup and moves on to customer info.
func (h *CheckoutHandler) SelectType(c *fiber.Ctx) error {
	sid := ensureSID(c)
	f, ok, err := h.flow(c, sid)
	if !ok {
		return err
	}
	ot, valid := domain.ParseOrderType(c.FormValue("orderType"))
	if !valid {
		applog.Security(c, "validation.fail", map[string]any{"field": "orderType"})
		c.Status(fiber.StatusBadRequest)
		return h.page(c, sid, f, fiber.Map{"Err": "Please choose delivery or pickup"})
	}
	if err := f.SelectOrderType(ot); err != nil {
		c.Status(fiber.StatusConflict)
		return h.page(c, sid, f, fiber.Map{"Err": "Your order type is already chosen. Go back to change it."})
	}
	if err := f.Continue(); err != nil {
		if errors.Is(err, checkout.ErrEmptyCart) {
			return h.empty(c)
		}
		c.Status(fiber.StatusConflict)
		return h.page(c, sid, f, nil)
	}
	return c.Redirect("/checkout")
}

// POST /checkout/back
func (h *CheckoutHandler) Back(c *fiber.Ctx) error {
	sid := ensureSID(c)
	f, ok, err := h.flow(c, sid)
	if !ok {
		return err
	}
	if err := f.Back(); err != nil {
		c.Status(fiber.StatusConflict)
		msg := "There is no previous step"
		if errors.Is(err, checkout.ErrSubmissionInFlight) {
			msg = "Your order is being placed. Please wait."
		}
		return h.page(c, sid, f, fiber.Map{"Err": msg})
	}
	return c.Redirect("/checkout")
}

func customerForm(c *fiber.Ctx) checkout.CustomerInfo {
	return checkout.CustomerInfo{
		Name:       c.FormValue("name"),
		Email:      c.FormValue("email"),
		Phone:      c.FormValue("phone"),
		Street:     c.FormValue("street"),
		City:       c.FormValue("city"),
		PostalCode: c.FormValue("postalCode"),
	}
}

// POST /checkout/submit places the order. The cart survives every failure.
func (h *CheckoutHandler) Submit(c *fiber.Ctx) error {
	sid := ensureSID(c)
	f, ok, err := h.flow(c, sid)
	if !ok {
		return err
	}
	r, err := h.Checkout.Submit(ctxOf(c), sid, customerForm(c))
	var verr *checkout.ValidationError
	switch {
	case err == nil:
		applog.Audit(c, "checkout.confirmed", map[string]any{
			"order_id":   r.OrderID,
			"reference":  r.Reference,
			"order_type": r.OrderType,
			"total":      r.Totals.Total.StringFixed(2),
		})
		return h.page(c, sid, f, nil)
	case errors.As(err, &verr):
		applog.Security(c, "validation.fail", map[string]any{"resource": "checkout", "fields": verr.Names()})
		c.Status(fiber.StatusBadRequest)
		return h.page(c, sid, f, nil)
	case errors.Is(err, checkout.ErrEmptyCart):
		return h.empty(c)
	case errors.Is(err, checkout.ErrSubmissionInFlight):
		c.Status(fiber.StatusConflict)
		return h.page(c, sid, f, fiber.Map{"Err": "Your order is being placed. Please wait."})
	case errors.Is(err, checkout.ErrIllegalTransition):
		c.Status(fiber.StatusConflict)
		return h.page(c, sid, f, fiber.Map{"Err": "Please choose delivery or pickup first"})
	}
	applog.Error(c, "checkout.submit.fail", client.Cause(err), map[string]any{"sid": sid})
	c.Status(fiber.StatusBadGateway)
	return h.page(c, sid, f, nil)
}

// POST /checkout/done leaves the confirmation screen.
func (h *CheckoutHandler) Done(c *fiber.Ctx) error {
	sid := ensureSID(c)
	h.Checkout.Done(sid)
	if c.FormValue("to") == "home" {
		return c.Redirect("/")
	}
	return c.Redirect("/menu")
}
