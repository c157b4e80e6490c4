package domain

import "github.com/shopspring/decimal"

// SubscriptionPlan is a recurring art box offer.
type SubscriptionPlan struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Interval    string          `json:"interval"`
	Description string          `json:"description"`
	Features    []string        `json:"features"`
	Popular     bool            `json:"popular"`
}
