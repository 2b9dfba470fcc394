package handlers

import (
	"errors"
	"strings"

	"kiwa/internal/client"
	"kiwa/internal/domain"
	applog "kiwa/internal/log"
	"kiwa/internal/services"
	"kiwa/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type MenuHandler struct {
	Catalog Catalog
	Carts   *services.CartService
}

type menuSection struct {
	Category domain.Category
	Title    string
	Items    []domain.MenuItem
}

// sections groups items by category in menu display order.
func sections(items []domain.MenuItem) []menuSection {
	var out []menuSection
	for _, cat := range domain.Categories {
		s := menuSection{Category: cat, Title: cat.Title()}
		for _, m := range items {
			if m.Category == cat {
				s.Items = append(s.Items, m)
			}
		}
		if len(s.Items) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// GET /menu?category=&q=
func (h *MenuHandler) List(c *fiber.Ctx) error {
	ensureSID(c)
	var f domain.MenuFilter
	active := ""
	if raw := c.Query("category"); raw != "" && raw != "all" {
		cat, ok := validate.Category(raw)
		if !ok {
			return fail(c, fiber.StatusNotFound, "No such menu category")
		}
		f.Category = cat
		active = string(cat)
	}
	if raw := strings.TrimSpace(c.Query("q")); raw != "" {
		q, ok := validate.Q(raw)
		if !ok {
			applog.Security(c, "validation.fail", map[string]any{"field": "q"})
			return fail(c, fiber.StatusBadRequest, "Please use letters and numbers only")
		}
		f.Search = q
	}
	data := fiber.Map{"Categories": domain.Categories, "Active": active, "Query": f.Search}
	items, err := h.Catalog.Menu(ctxOf(c), f)
	if err != nil {
		applog.Error(c, "menu.load.fail", err, nil)
		data["Err"] = "Failed to load menu. " + client.Message(err)
		c.Status(fiber.StatusBadGateway)
		return render(c, "menu", data)
	}
	data["Sections"] = sections(items)
	data["Empty"] = len(items) == 0
	return render(c, "menu", data)
}

// notFound reports whether err means the dish does not exist, whether the
// catalog is local or remote.
func notFound(err error) bool {
	var apiErr *client.APIError
	return errors.Is(err, services.ErrNotFound) || (errors.As(err, &apiErr) && apiErr.Status == fiber.StatusNotFound)
}
