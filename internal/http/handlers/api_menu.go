package handlers

import (
	"errors"
	"strings"

	"kiwa/internal/domain"
	applog "kiwa/internal/log"
	"kiwa/internal/services"
	"kiwa/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type MenuAPI struct {
	Menu *services.MenuService
}

// GET /api/menu?category=&search=
func (h *MenuAPI) List(c *fiber.Ctx) error {
	var f domain.MenuFilter
	if raw := c.Query("category"); raw != "" {
		cat, ok := validate.Category(raw)
		if !ok {
			// unknown categories match nothing
			return c.JSON([]domain.MenuItem{})
		}
		f.Category = cat
	}
	if raw := strings.TrimSpace(c.Query("search")); raw != "" {
		q, ok := validate.Q(raw)
		if !ok {
			applog.Security(c, "validation.fail", map[string]any{"field": "search"})
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid search"})
		}
		f.Search = q
	}
	items, err := h.Menu.Menu(ctxOf(c), f)
	if err != nil {
		applog.Error(c, "menu.list.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to load menu"})
	}
	if items == nil {
		items = []domain.MenuItem{}
	}
	return c.JSON(items)
}

// GET /api/menu/:id
func (h *MenuAPI) Get(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Menu item not found"})
	}
	m, err := h.Menu.MenuItem(ctxOf(c), id)
	if errors.Is(err, services.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Menu item not found"})
	}
	if err != nil {
		applog.Error(c, "menu.get.fail", err, map[string]any{"id": id})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to load menu item"})
	}
	return c.JSON(m)
}

// POST /api/menu (admin)
func (h *MenuAPI) Create(c *fiber.Ctx) error {
	var in services.MenuInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}
	m, err := h.Menu.Create(in)
	if errors.Is(err, services.ErrInvalid) {
		applog.Security(c, "validation.fail", map[string]any{"resource": "menu", "error": err.Error()})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if err != nil {
		applog.Error(c, "menu.create.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to create menu item"})
	}
	applog.Audit(c, "menu.create", map[string]any{"id": m.ID, "name": m.Name})
	return c.Status(fiber.StatusCreated).JSON(m)
}

// PUT /api/menu/:id (admin)
func (h *MenuAPI) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Menu item not found"})
	}
	var in services.MenuInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}
	m, err := h.Menu.Update(id, in)
	switch {
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Menu item not found"})
	case errors.Is(err, services.ErrInvalid):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	case err != nil:
		applog.Error(c, "menu.update.fail", err, map[string]any{"id": id})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to update menu item"})
	}
	applog.Audit(c, "menu.update", map[string]any{"id": id})
	return c.JSON(m)
}

// DELETE /api/menu/:id (admin)
func (h *MenuAPI) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Menu item not found"})
	}
	err := h.Menu.Delete(id)
	if errors.Is(err, services.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Menu item not found"})
	}
	if err != nil {
		applog.Error(c, "menu.delete.fail", err, map[string]any{"id": id})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to remove menu item"})
	}
	applog.Audit(c, "menu.delete", map[string]any{"id": id})
	return c.JSON(fiber.Map{"message": "Menu item removed"})
}
