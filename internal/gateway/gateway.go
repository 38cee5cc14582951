// Package gateway bridges bookings to the external payment provider: it
// creates gateway orders for pending bookings and verifies the signed
// payment callback. The provider itself is an external collaborator; only
// its order/signature contract lives here.
package gateway

import (
	"context"

	"github.com/shopspring/decimal"
)

// Order is the provider-side order created for a pending booking.
type Order struct {
	ID       string
	Amount   int64 // minor currency units
	Currency string
	Receipt  string
}

// OrderRequest describes the order to create. Amount is in major units and
// converted to minor units (x100) before it leaves the process.
type OrderRequest struct {
	Amount    decimal.Decimal
	Currency  string
	BookingID string
	Notes     map[string]string
}

// Gateway creates provider orders. Implementations must be safe for
// concurrent use.
type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)

	// Key returns the public key id handed to browser clients so they can
	// open the provider's checkout for an order.
	Key() string
}

// MinorUnits converts a major-unit amount to the provider's minor units.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
