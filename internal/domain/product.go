package domain

import "github.com/shopspring/decimal"

// Product is immutable catalog reference data.
type Product struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	LongDescription string          `json:"long_description"`
	Price           decimal.Decimal `json:"price"`
	Image           string          `json:"image"`
	Category        string          `json:"category"`
	Features        []string        `json:"features"`
}

// Line builds a cart line for quantity units of the product.
func (p Product) Line(quantity int) CartLine {
	return CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		ImageRef:  p.Image,
		Quantity:  quantity,
	}
}
