package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart-wide rates. The donation is informational and is not part of the
// estimated total.
var (
	DonationRate = decimal.RequireFromString("0.10")
	TaxRate      = decimal.RequireFromString("0.08")
)

var hundred = decimal.NewFromInt(100)

// CartLine is one product line in a cart.
type CartLine struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	ImageRef  string          `json:"image_ref,omitempty"`
	Quantity  int             `json:"quantity"`
}

// LineTotal returns unit price times quantity.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the ordered collection of lines for one cart session.
type Cart struct {
	ID        string     `json:"id"`
	Lines     []CartLine `json:"lines"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Subtotal is the sum of every line total. It is derived on each call.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.LineTotal())
	}
	return total
}

// ItemCount returns the total quantity across all lines.
func (c *Cart) ItemCount() int {
	var n int
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// FindLine returns the index of the line for productID, or -1.
func (c *Cart) FindLine(productID string) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy safe to hand outside the owning store.
func (c *Cart) Clone() Cart {
	out := Cart{ID: c.ID, UpdatedAt: c.UpdatedAt, Lines: make([]CartLine, len(c.Lines))}
	copy(out.Lines, c.Lines)
	return out
}

// Totals are the derived amounts displayed with a cart.
type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	Donation       decimal.Decimal `json:"donation"`
	Tax            decimal.Decimal `json:"tax"`
	EstimatedTotal decimal.Decimal `json:"estimated_total"`
	ItemCount      int             `json:"item_count"`
}

// ComputeTotals derives every display amount from a subtotal.
func ComputeTotals(subtotal decimal.Decimal, itemCount int) Totals {
	tax := subtotal.Mul(TaxRate)
	return Totals{
		Subtotal:       subtotal,
		Donation:       subtotal.Mul(DonationRate),
		Tax:            tax,
		EstimatedTotal: subtotal.Add(tax),
		ItemCount:      itemCount,
	}
}

// Totals derives the display amounts of the cart.
func (c *Cart) Totals() Totals {
	return ComputeTotals(c.Subtotal(), c.ItemCount())
}

// ToMinorUnits converts a major-unit amount to cents, rounding half away
// from zero.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// FromMinorUnits converts cents to a major-unit amount.
func FromMinorUnits(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// DonationCents returns round(subtotal * 0.10 * 100).
func DonationCents(subtotal decimal.Decimal) int64 {
	return ToMinorUnits(subtotal.Mul(DonationRate))
}
