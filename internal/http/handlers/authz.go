package handlers

import (
	applog "kiwa/internal/log"
	"kiwa/internal/services"

	"github.com/gofiber/fiber/v2"
)

func RequireAdmin(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			return c.Redirect("/login")
		}
		u, err := auth.CurrentUser(sid)
		if err != nil || u == nil || !u.IsAdmin() {
			applog.Security(c, "access.denied.admin", map[string]any{"sid": sid})
			return fail(c, fiber.StatusForbidden, "Access denied")
		}
		c.Locals("user", u)
		return c.Next()
	}
}

// RequireAdminAPI is RequireAdmin for JSON routes: 401 without a session,
// 403 for a signed-in non-admin.
func RequireAdminAPI(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			applog.Security(c, "access.denied.api", map[string]any{"reason": "no_session"})
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Not authorized, no token"})
		}
		u, err := auth.CurrentUser(sid)
		if err != nil || u == nil {
			applog.Security(c, "access.denied.api", map[string]any{"sid": sid, "reason": "unknown_session"})
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Not authorized, token failed"})
		}
		if !u.IsAdmin() {
			applog.Security(c, "access.denied.api", map[string]any{"sid": sid, "reason": "not_admin"})
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "Not authorized as an admin"})
		}
		c.Locals("user", u)
		return c.Next()
	}
}

// CurrentUser attaches the signed-in user and the cart service to the
// request for templates.
func CurrentUser(auth *services.AuthService, carts *services.CartService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := auth.CurrentUser(sid); err == nil && u != nil {
				c.Locals("user", u)
			}
		}
		if carts != nil {
			c.Locals("carts", carts)
		}
		return c.Next()
	}
}
