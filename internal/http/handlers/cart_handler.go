package handlers

import (
	"errors"
	"strconv"
	"strings"

	"kiwa/internal/checkout"
	"kiwa/internal/client"
	"kiwa/internal/domain"
	applog "kiwa/internal/log"
	"kiwa/internal/services"
	"kiwa/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type CartHandler struct {
	Catalog Catalog
	Carts   *services.CartService
	Pricing checkout.Pricing
}

func (h *CartHandler) productID(c *fiber.Ctx) (string, bool) {
	id, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "productId"})
	}
	return id, ok
}

// POST /cart
func (h *CartHandler) Add(c *fiber.Ctx) error {
	sid := ensureSID(c)
	id, ok := h.productID(c)
	if !ok {
		return fail(c, fiber.StatusBadRequest, "Please pick a dish from the menu")
	}
	qty := validate.Qty(c.FormValue("qty"))

	m, err := h.Catalog.MenuItem(ctxOf(c), id)
	if notFound(err) {
		return fail(c, fiber.StatusNotFound, "This dish is no longer on the menu")
	}
	if err != nil {
		applog.Error(c, "cart.add.fail", err, map[string]any{"id": id})
		return fail(c, fiber.StatusBadGateway, client.Message(err))
	}
	if _, err := h.Carts.Add(ctxOf(c), sid, m, qty); err != nil {
		if errors.Is(err, services.ErrUnavailable) {
			return fail(c, fiber.StatusConflict, "This dish is not available right now")
		}
		applog.Error(c, "cart.add.fail", err, map[string]any{"id": id})
		return fail(c, fiber.StatusInternalServerError, "Could not update your cart")
	}
	applog.Info(c, "cart.add", map[string]any{"sid": sid, "id": id, "qty": qty})
	if back := c.FormValue("back"); back == "menu" {
		return c.Redirect("/menu")
	}
	return c.Redirect("/cart")
}

// GET /cart
func (h *CartHandler) View(c *fiber.Ctx) error {
	sid := ensureSID(c)
	cart, err := h.Carts.Cart(ctxOf(c), sid)
	if err != nil {
		applog.Error(c, "cart.load.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Could not load your cart")
	}
	ot := domain.OrderDelivery
	if t, ok := domain.ParseOrderType(c.Query("type")); ok {
		ot = t
	}
	return render(c, "cart", fiber.Map{
		"Lines":     cart.Lines(),
		"Count":     cart.TotalItemCount(),
		"Totals":    h.Pricing.Totals(cart.Subtotal(), ot),
		"OrderType": string(ot),
		"MaxQty":    validate.MaxQty,
	})
}

// POST /cart/update sets a line's quantity; zero or less removes it.
func (h *CartHandler) Update(c *fiber.Ctx) error {
	sid := ensureSID(c)
	id, ok := h.productID(c)
	if !ok {
		return fail(c, fiber.StatusBadRequest, "Please pick a dish from your cart")
	}
	qty, err := strconv.Atoi(strings.TrimSpace(c.FormValue("qty")))
	if err != nil {
		applog.Security(c, "validation.fail", map[string]any{"field": "qty"})
		return fail(c, fiber.StatusBadRequest, "Please enter a quantity")
	}
	if qty > validate.MaxQty {
		qty = validate.MaxQty
	}
	cart, err := h.Carts.Cart(ctxOf(c), sid)
	if err != nil {
		applog.Error(c, "cart.load.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Could not update your cart")
	}
	cart.UpdateQuantity(id, qty)
	return c.Redirect("/cart")
}

// POST /cart/remove
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	sid := ensureSID(c)
	id, ok := h.productID(c)
	if !ok {
		return fail(c, fiber.StatusBadRequest, "Please pick a dish from your cart")
	}
	cart, err := h.Carts.Cart(ctxOf(c), sid)
	if err != nil {
		applog.Error(c, "cart.load.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Could not update your cart")
	}
	cart.Remove(id)
	return c.Redirect("/cart")
}

// POST /cart/clear
func (h *CartHandler) Clear(c *fiber.Ctx) error {
	sid := ensureSID(c)
	cart, err := h.Carts.Cart(ctxOf(c), sid)
	if err != nil {
		applog.Error(c, "cart.load.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Could not update your cart")
	}
	cart.Clear()
	applog.Info(c, "cart.clear", map[string]any{"sid": sid})
	return c.Redirect("/cart")
}
