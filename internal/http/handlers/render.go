package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	html "github.com/gofiber/template/html/v2"
	"github.com/shopspring/decimal"

	"kiwa/internal/services"
)

// NewEngine loads the storefront templates from dir.
func NewEngine(dir string) *html.Engine {
	engine := html.New(dir, ".html")
	engine.AddFunc("money", func(d decimal.Decimal) string { return "$" + d.StringFixed(2) })
	engine.AddFunc("price", func(f float64) string { return "$" + decimal.NewFromFloat(f).StringFixed(2) })
	engine.AddFunc("title", func(s string) string {
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	})
	return engine
}

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if u := c.Locals("user"); u != nil {
		data["User"] = u
	}
	// Pick up the token the CSRF middleware put into Locals
	tok, _ := c.Locals("CSRFToken").(string)
	if tok == "" {
		tok = c.Cookies("csrf_")
	}
	if tok != "" {
		data["CSRFToken"] = tok
	}
	if carts, ok := c.Locals("carts").(*services.CartService); ok {
		if sid := sessionID(c); sid != "" {
			data["CartCount"] = carts.Count(ctxOf(c), sid)
		}
	}
	return c.Render(tmpl, data)
}

// fail renders the shared message page.
func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).Render("notfound", fiber.Map{"Message": msg})
}

func ctxOf(c *fiber.Ctx) context.Context { return c.UserContext() }
