package handlers

import (
	"errors"

	"kiwa/internal/domain"
	applog "kiwa/internal/log"
	"kiwa/internal/services"
	"kiwa/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type OrderAPI struct {
	Orders *services.OrderService
}

// POST /api/orders
func (h *OrderAPI) Create(c *fiber.Ctx) error {
	var in services.OrderInput
	if err := c.BodyParser(&in); err != nil {
		applog.Security(c, "validation.fail", map[string]any{"resource": "order", "reason": "bad_body"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": services.ErrMissingOrderFields.Error()})
	}
	o, check, err := h.Orders.Place(in)
	if errors.Is(err, services.ErrMissingOrderFields) {
		applog.Security(c, "order.place.fail", map[string]any{"reason": "missing_fields"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if err != nil {
		applog.Error(c, "order.place.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to create order"})
	}
	applog.Audit(c, "order.place", map[string]any{
		"order_id":     o.ID,
		"order_type":   o.OrderType,
		"subtotal":     check.Subtotal.StringFixed(2),
		"server_total": check.Expected.StringFixed(2),
		"client_total": check.Claimed.StringFixed(2),
		"mismatch":     !check.Matches(),
	})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"_id":           o.ID,
		"customerName":  o.CustomerName,
		"customerEmail": o.CustomerEmail,
		"totalAmount":   o.TotalAmount,
		"status":        o.Status,
		"message":       "Order created successfully",
	})
}

// GET /api/orders
func (h *OrderAPI) List(c *fiber.Ctx) error {
	orders, err := h.Orders.List()
	if err != nil {
		applog.Error(c, "orders.list.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to load orders"})
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return c.JSON(orders)
}

// GET /api/orders/:id
func (h *OrderAPI) Get(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Order not found"})
	}
	o, err := h.Orders.Get(id)
	if errors.Is(err, services.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Order not found"})
	}
	if err != nil {
		applog.Error(c, "orders.get.fail", err, map[string]any{"order_id": id})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to load order"})
	}
	return c.JSON(o)
}
