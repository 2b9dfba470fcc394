package handlers

import (
	"errors"

	"kiwa/internal/domain"
	applog "kiwa/internal/log"
	"kiwa/internal/services"
	"kiwa/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	Orders   *services.OrderService
	Bookings *services.BookingService
	Menu     *services.MenuService
}

// GET /admin
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	ords, err := h.Orders.List()
	if err != nil {
		applog.Error(c, "admin.dashboard.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Could not load orders")
	}
	bks, err := h.Bookings.List()
	if err != nil {
		applog.Error(c, "admin.dashboard.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Could not load bookings")
	}
	pending := 0
	for _, o := range ords {
		if o.Status == domain.OrderPending {
			pending++
		}
	}
	return render(c, "admin_dashboard", fiber.Map{"Orders": len(ords), "Pending": pending, "Bookings": len(bks)})
}

// GET /admin/orders
func (h *AdminHandler) OrdersPage(c *fiber.Ctx) error {
	ords, err := h.Orders.List()
	if err != nil {
		applog.Error(c, "admin.orders.list.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Could not load orders")
	}
	return render(c, "admin_orders", fiber.Map{"Orders": ords, "Statuses": services.OrderStatuses})
}

// POST /admin/orders/:id/status
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	status := c.FormValue("status")
	if !ok || status == "" {
		return c.Status(400).SendString("missing id or status")
	}
	err := h.Orders.SetStatus(id, status)
	switch {
	case errors.Is(err, services.ErrNotFound):
		return fail(c, fiber.StatusNotFound, "Order not found")
	case errors.Is(err, services.ErrInvalid):
		applog.Security(c, "validation.fail", map[string]any{"field": "status", "order_id": id})
		return c.Status(400).SendString("unknown status")
	case err != nil:
		applog.Error(c, "admin.orders.update.fail", err, map[string]any{"order_id": id})
		return c.Status(400).SendString("could not update status")
	}
	applog.Audit(c, "admin.orders.update", map[string]any{"order_id": id, "status": status})
	return c.Redirect("/admin/orders")
}

// GET /admin/bookings
func (h *AdminHandler) BookingsPage(c *fiber.Ctx) error {
	bks, err := h.Bookings.List()
	if err != nil {
		applog.Error(c, "admin.bookings.list.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Could not load bookings")
	}
	return render(c, "admin_bookings", fiber.Map{"Bookings": bks})
}

// GET /admin/menu
func (h *AdminHandler) MenuPage(c *fiber.Ctx) error {
	items, err := h.Menu.Repo.List("", "")
	if err != nil {
		applog.Error(c, "admin.menu.list.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Could not load the menu")
	}
	return render(c, "admin_menu", fiber.Map{"Items": items, "Notice": c.Query("notice")})
}

// POST /admin/menu/:id/availability toggles whether a dish can be ordered.
func (h *AdminHandler) ToggleAvailability(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusNotFound, "Menu item not found")
	}
	available := c.FormValue("available") == "true"
	_, err := h.Menu.Update(id, services.MenuInput{Available: &available})
	if errors.Is(err, services.ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "Menu item not found")
	}
	if err != nil {
		applog.Error(c, "admin.menu.update.fail", err, map[string]any{"id": id})
		return fail(c, fiber.StatusInternalServerError, "Could not update the menu")
	}
	applog.Audit(c, "admin.menu.availability", map[string]any{"id": id, "available": available})
	return c.Redirect("/admin/menu")
}

// POST /admin/menu/reseed restores the house menu.
func (h *AdminHandler) Reseed(c *fiber.Ctx) error {
	n, err := h.Menu.Reseed()
	if err != nil {
		applog.Error(c, "admin.menu.reseed.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Could not reseed the menu")
	}
	applog.Audit(c, "admin.menu.reseed", map[string]any{"items": n})
	return c.Redirect("/admin/menu?notice=reseeded")
}
