package handlers

import (
	"context"

	"kiwa/internal/cart"
	"kiwa/internal/checkout"
	"kiwa/internal/client"
	"kiwa/internal/config"
	"kiwa/internal/domain"
	applog "kiwa/internal/log"
	"kiwa/internal/repos"
	"kiwa/internal/services"
	"kiwa/internal/validate"

	"github.com/jmoiron/sqlx"
)

// Catalog is where the storefront reads the menu from. client.Client and
// services.MenuService both satisfy it.
type Catalog interface {
	Menu(ctx context.Context, f domain.MenuFilter) ([]domain.MenuItem, error)
	MenuItem(ctx context.Context, id string) (domain.MenuItem, error)
}

// BookingSubmitter sends a reservation typed into the booking page.
type BookingSubmitter interface {
	SubmitBooking(ctx context.Context, f client.BookingForm) (client.BookingCreated, error)
}

// Remote is the storefront's view of the API.
type Remote struct {
	Catalog  Catalog
	Orders   checkout.Submitter
	Bookings BookingSubmitter
}

// RemoteAPI talks to the API over HTTP.
func RemoteAPI(api *client.Client) Remote {
	return Remote{
		Catalog:  api,
		Orders:   client.OrderSubmitter{API: api},
		Bookings: client.BookingSubmitter{API: api},
	}
}

type Deps struct {
	Auth     *services.AuthService
	Carts    *services.CartService
	Checkout *services.CheckoutService
	Pricing  checkout.Pricing

	AuthHandler     *AuthHandler
	MenuAPI         *MenuAPI
	OrderAPI        *OrderAPI
	BookingAPI      *BookingAPI
	MenuHandler     *MenuHandler
	CartHandler     *CartHandler
	CheckoutHandler *CheckoutHandler
	BookingHandler  *BookingHandler
	AdminHandler    *AdminHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, store cart.Store, remote Remote) *Deps {
	pricing := checkout.PricingFromFloats(cfg.TaxRate, cfg.DeliveryFee, cfg.FreeDeliveryThreshold)

	authSvc := &services.AuthService{Users: repos.NewUserRepo(db), Idle: cfg.SessionIdle}
	menuSvc := services.NewMenuService(repos.NewMenuRepo(db))
	orderSvc := services.NewOrderService(repos.NewOrderRepo(db), pricing)
	bookingSvc := services.NewBookingService(repos.NewBookingRepo(db))

	carts := services.NewCartService(store)
	carts.MaxQty = validate.MaxQty
	carts.OnSaveError = func(sid string, err error) {
		applog.Error(nil, "cart.save.fail", err, map[string]any{"sid": sid})
	}
	checkoutSvc := services.NewCheckoutService(carts, remote.Orders, pricing)

	return &Deps{
		Auth:     authSvc,
		Carts:    carts,
		Checkout: checkoutSvc,
		Pricing:  pricing,

		AuthHandler:     &AuthHandler{Auth: authSvc},
		MenuAPI:         &MenuAPI{Menu: menuSvc},
		OrderAPI:        &OrderAPI{Orders: orderSvc},
		BookingAPI:      &BookingAPI{Bookings: bookingSvc},
		MenuHandler:     &MenuHandler{Catalog: remote.Catalog, Carts: carts},
		CartHandler:     &CartHandler{Catalog: remote.Catalog, Carts: carts, Pricing: pricing},
		CheckoutHandler: &CheckoutHandler{Checkout: checkoutSvc},
		BookingHandler:  &BookingHandler{Bookings: remote.Bookings},
		AdminHandler:    &AdminHandler{Orders: orderSvc, Bookings: bookingSvc, Menu: menuSvc},
	}
}
