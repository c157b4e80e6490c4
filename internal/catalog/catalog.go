// Package catalog holds the storefront's read-only product reference data.
package catalog

import (
	"sort"
	"strings"

	apperrors "github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/errors"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/domain"
)

// Catalog is an immutable, concurrency-safe product list.
type Catalog struct {
	products []domain.Product
	byID     map[string]int
	plans    []domain.SubscriptionPlan
}

// New builds a catalog. Later duplicates of a product ID are ignored.
func New(products []domain.Product, plans []domain.SubscriptionPlan) *Catalog {
	c := &Catalog{byID: make(map[string]int, len(products)), plans: plans}
	for _, p := range products {
		if _, dup := c.byID[p.ID]; dup {
			continue
		}
		c.byID[p.ID] = len(c.products)
		c.products = append(c.products, p)
	}
	return c
}

// Default returns the catalog built from the seed data.
func Default() *Catalog {
	return New(SeedProducts(), SeedPlans())
}

// Get returns the product with the given ID.
func (c *Catalog) Get(id string) (domain.Product, error) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Product{}, apperrors.NotFound("product", id)
	}
	return c.products[i], nil
}

// List returns products in catalog order, filtered by category when one is
// given. Category matching is case-insensitive.
func (c *Catalog) List(category string) []domain.Product {
	out := make([]domain.Product, 0, len(c.products))
	for _, p := range c.products {
		if category == "" || strings.EqualFold(p.Category, category) {
			out = append(out, p)
		}
	}
	return out
}

// Categories returns the distinct category names, sorted.
func (c *Catalog) Categories() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range c.products {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	sort.Strings(out)
	return out
}

// Related returns up to limit other products from the same category.
func (c *Catalog) Related(id string, limit int) ([]domain.Product, error) {
	p, err := c.Get(id)
	if err != nil {
		return nil, err
	}
	out := []domain.Product{}
	for _, other := range c.products {
		if len(out) >= limit {
			break
		}
		if other.ID != p.ID && other.Category == p.Category {
			out = append(out, other)
		}
	}
	return out, nil
}

// Plans returns the subscription plans.
func (c *Catalog) Plans() []domain.SubscriptionPlan {
	out := make([]domain.SubscriptionPlan, len(c.plans))
	copy(out, c.plans)
	return out
}
