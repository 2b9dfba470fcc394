package checkout

import (
	"sort"
	"strings"

	"kiwa/internal/domain"
	"kiwa/internal/validate"
)

// CustomerInfo is collected while in EnteringCustomerInfo. The address fields
// only matter for delivery orders.
type CustomerInfo struct {
	Name       string
	Email      string
	Phone      string
	Street     string
	City       string
	PostalCode string
}

// DeliveryAddress is the single-line address sent with the order.
func (c CustomerInfo) DeliveryAddress(t domain.OrderType) string {
	if t == domain.OrderPickup {
		return "Pickup at restaurant"
	}
	return c.Street + ", " + c.City + ", " + c.PostalCode
}

func (c CustomerInfo) normalized(t domain.OrderType) CustomerInfo {
	out := CustomerInfo{
		Name:  strings.TrimSpace(c.Name),
		Email: strings.TrimSpace(c.Email),
		Phone: strings.TrimSpace(c.Phone),
	}
	if t == domain.OrderDelivery {
		out.Street = strings.TrimSpace(c.Street)
		out.City = strings.TrimSpace(c.City)
		out.PostalCode = strings.TrimSpace(c.PostalCode)
	}
	return out
}

// ValidationError lists the fields that kept a submission from going out,
// keyed by form field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		for _, msg := range e.Fields {
			return msg
		}
	}
	return "Please fill in all required fields"
}

// Names returns the offending fields in a stable order.
func (e *ValidationError) Names() []string {
	out := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Validate checks presence of every required field and the basic email shape.
func (c CustomerInfo) Validate(t domain.OrderType) *ValidationError {
	fields := map[string]string{}
	req := func(name, val, msg string) {
		if _, ok := validate.Required(val); !ok {
			fields[name] = msg
		}
	}
	req("name", c.Name, "Please enter your name")
	req("phone", c.Phone, "Please enter your phone number")
	if _, ok := validate.Required(c.Email); !ok {
		fields["email"] = "Please enter your email"
	} else if _, ok := validate.Email(c.Email); !ok {
		fields["email"] = "Please enter a valid email address"
	}
	if t == domain.OrderDelivery {
		req("street", c.Street, "Please enter your street address")
		req("city", c.City, "Please enter your city")
		req("postalCode", c.PostalCode, "Please enter your postal code")
	}
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}
