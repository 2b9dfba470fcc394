package checkout

import (
	"github.com/shopspring/decimal"

	"kiwa/internal/domain"
)

// Pricing is the one delivery/tax policy used by every view of the cart.
// A zero FreeDeliveryOver disables the free-delivery waiver.
type Pricing struct {
	TaxRate          decimal.Decimal
	DeliveryFee      decimal.Decimal
	FreeDeliveryOver decimal.Decimal
}

func DefaultPricing() Pricing {
	return Pricing{
		TaxRate:          decimal.RequireFromString("0.08"),
		DeliveryFee:      decimal.RequireFromString("3.99"),
		FreeDeliveryOver: decimal.NewFromInt(30),
	}
}

func PricingFromFloats(taxRate, deliveryFee, freeOver float64) Pricing {
	return Pricing{
		TaxRate:          decimal.NewFromFloat(taxRate),
		DeliveryFee:      decimal.NewFromFloat(deliveryFee),
		FreeDeliveryOver: decimal.NewFromFloat(freeOver),
	}
}

type Totals struct {
	Subtotal    decimal.Decimal
	Tax         decimal.Decimal
	DeliveryFee decimal.Decimal
	Total       decimal.Decimal
	// FreeDelivery is set when a delivery order had its fee waived.
	FreeDelivery bool
	// UntilFree is what the subtotal still lacks for free delivery (zero when
	// already free, for pickup, or when no threshold is configured).
	UntilFree decimal.Decimal
}

// Totals prices subtotal for the given order type, rounded to cents.
func (p Pricing) Totals(subtotal decimal.Decimal, t domain.OrderType) Totals {
	sub := subtotal.Round(2)
	out := Totals{
		Subtotal:    sub,
		Tax:         sub.Mul(p.TaxRate).Round(2),
		DeliveryFee: decimal.Zero,
		UntilFree:   decimal.Zero,
	}
	if t == domain.OrderDelivery {
		switch {
		case p.FreeDeliveryOver.IsPositive() && sub.GreaterThan(p.FreeDeliveryOver):
			out.FreeDelivery = true
		default:
			out.DeliveryFee = p.DeliveryFee.Round(2)
			if p.FreeDeliveryOver.IsPositive() {
				out.UntilFree = p.FreeDeliveryOver.Sub(sub)
			}
		}
	}
	out.Total = out.Subtotal.Add(out.Tax).Add(out.DeliveryFee)
	return out
}
