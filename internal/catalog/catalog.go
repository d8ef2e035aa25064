// Package catalog filters and pages the product collection for the storefront
// listing. Every function is pure and leaves its input untouched.
package catalog

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product is the listing view of a catalog product.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Deleted     bool            `json:"deleted"`
	ImagePath   string          `json:"image_path,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// InStock drives the "In stock"/"Out of stock" badge.
func (p Product) InStock() bool {
	return p.Stock > 0
}

// Search keeps products whose name or description contains term, ignoring
// case. An empty term returns products as given.
func Search(products []Product, term string) []Product {
	if term == "" {
		return products
	}

	needle := strings.ToLower(term)
	filtered := make([]Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// SortNewestFirst returns a copy ordered by CreatedAt, newest first. Products
// created at the same instant keep their relative order.
func SortNewestFirst(products []Product) []Product {
	sorted := make([]Product, len(products))
	copy(sorted, products)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	return sorted
}

// Listable drops products deleted upstream.
func Listable(products []Product) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if !p.Deleted {
			out = append(out, p)
		}
	}
	return out
}
