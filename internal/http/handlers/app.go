package handlers

import (
	"errors"
	"net"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"kiwa/internal/client"
	"kiwa/internal/config"
	applog "kiwa/internal/log"
)

// fromStorefront reports API calls this site's storefront makes over loopback
// while serving a shopper whose page request was already rate limited.
func fromStorefront(c *fiber.Ctx) bool {
	if c.Get(client.HeaderStorefront) == "" {
		return false
	}
	ip := net.ParseIP(c.IP())
	return ip != nil && ip.IsLoopback()
}

func isAPI(c *fiber.Ctx) bool {
	p := c.Path()
	return p == "/api" || strings.HasPrefix(p, "/api/")
}

// ErrorHandler logs the failure and answers without internals: JSON under
// /api, the message page elsewhere.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Something went wrong. Please try again."
	var e *fiber.Error
	if errors.As(err, &e) && e.Code < 500 {
		code = e.Code
		msg = e.Message
	}
	applog.Error(c, "server.error", err, map[string]any{"status": code})
	if isAPI(c) {
		if code >= 500 {
			msg = "Server error"
		}
		return c.Status(code).JSON(fiber.Map{"message": msg})
	}
	if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": msg}); rerr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}

// NewApp builds the server: JSON API under /api and the storefront pages.
func NewApp(cfg config.Config, d *Deps, views fiber.Views) *fiber.App {
	app := fiber.New(fiber.Config{
		Views:        views,
		ErrorHandler: ErrorHandler,
	})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(fiberrecover.New())
	app.Use(helmet.New())
	app.Use(CurrentUser(d.Auth, d.Carts))
	if cfg.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimit,
			Expiration: time.Minute,
			Next: func(c *fiber.Ctx) bool {
				return strings.HasPrefix(c.Path(), "/static/") || c.Path() == "/healthz" || fromStorefront(c)
			},
			LimitReached: func(c *fiber.Ctx) error {
				applog.Security(c, "rate.global.hit", nil)
				if isAPI(c) {
					return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"message": "Too many requests, retry soon"})
				}
				return fail(c, fiber.StatusTooManyRequests, "Too many requests. Please slow down.")
			},
		}))
	}
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		ContextKey:     "csrf",
		// the JSON API is guarded by CORS and the admin session instead
		Next: isAPI,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			formTok := c.FormValue("csrf")
			applog.Security(c, "csrf.fail", map[string]any{"form": formTok})
			return fail(c, fiber.StatusForbidden, "Security check failed. Please refresh and try again.")
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})

	app.Static("/static", "./web/static")

	mountAPI(app, cfg, d)
	mountStorefront(app, d)

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		if isAPI(c) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Not found - " + c.OriginalURL()})
		}
		return fail(c, fiber.StatusNotFound, "Page not found")
	})
	return app
}

func mountAPI(app *fiber.App, cfg config.Config, d *Deps) {
	corsCfg := cors.Config{AllowOrigins: cfg.CORSOrigins}
	if cfg.CORSOrigins != "" && cfg.CORSOrigins != "*" {
		corsCfg.AllowCredentials = true
	}
	api := app.Group("/api", cors.New(corsCfg))
	admin := RequireAdminAPI(d.Auth)

	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true, "time": time.Now().UTC().Format(time.RFC3339)})
	})

	api.Get("/menu", d.MenuAPI.List)
	api.Get("/menu/:id", d.MenuAPI.Get)
	api.Post("/menu", admin, d.MenuAPI.Create)
	api.Put("/menu/:id", admin, d.MenuAPI.Update)
	api.Delete("/menu/:id", admin, d.MenuAPI.Delete)

	api.Post("/orders", d.OrderAPI.Create)
	api.Get("/orders", d.OrderAPI.List)
	api.Get("/orders/:id", d.OrderAPI.Get)

	api.Post("/bookings", d.BookingAPI.Create)
	api.Get("/bookings", d.BookingAPI.List)
	api.Get("/bookings/:id", d.BookingAPI.Get)

	api.Post("/auth/login", loginLimiter(), d.AuthHandler.APILogin)
	api.Post("/auth/logout", d.AuthHandler.APILogout)
	api.Get("/auth/me", d.AuthHandler.Me)

	api.Post("/upload", admin, func(c *fiber.Ctx) error {
		applog.Audit(c, "upload.placeholder", nil)
		return c.JSON(fiber.Map{"message": "Upload endpoint - not implemented"})
	})
}

func loginLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|login"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			if isAPI(c) {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"message": "Too many attempts. Please try again later."})
			}
			c.Status(fiber.StatusTooManyRequests)
			return render(c, "login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	})
}

func mountStorefront(app *fiber.App, d *Deps) {
	app.Get("/", func(c *fiber.Ctx) error { return c.Redirect("/menu") })
	app.Get("/menu", d.MenuHandler.List)

	app.Get("/cart", d.CartHandler.View)
	app.Post("/cart", d.CartHandler.Add)
	app.Post("/cart/update", d.CartHandler.Update)
	app.Post("/cart/remove", d.CartHandler.Remove)
	app.Post("/cart/clear", d.CartHandler.Clear)

	app.Get("/checkout", d.CheckoutHandler.View)
	app.Post("/checkout/type", d.CheckoutHandler.SelectType)
	app.Post("/checkout/back", d.CheckoutHandler.Back)
	app.Post("/checkout/submit", d.CheckoutHandler.Submit)
	app.Post("/checkout/done", d.CheckoutHandler.Done)

	app.Get("/booking", d.BookingHandler.Form)
	app.Post("/booking", d.BookingHandler.Create)

	// Auth routes (login throttled)
	app.Get("/login", d.AuthHandler.LoginForm)
	app.Post("/login", loginLimiter(), d.AuthHandler.Login)
	app.Post("/logout", d.AuthHandler.Logout)

	admin := app.Group("/admin", RequireAdmin(d.Auth))
	admin.Get("/", d.AdminHandler.Dashboard)
	admin.Get("/orders", d.AdminHandler.OrdersPage)
	admin.Post("/orders/:id/status", d.AdminHandler.UpdateOrderStatus)
	admin.Get("/bookings", d.AdminHandler.BookingsPage)
	admin.Get("/menu", d.AdminHandler.MenuPage)
	admin.Post("/menu/:id/availability", d.AdminHandler.ToggleAvailability)
	admin.Post("/menu/reseed", d.AdminHandler.Reseed)
}
