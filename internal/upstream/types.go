package upstream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/catalog"
)

// ID accepts both JSON numbers and strings.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id[%s] is not valid: %w", string(data), err)
	}
	*id = ID(n.String())
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp parses the handful of layouts the catalog service emits. Zone-less
// values are read as UTC.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp[%s] is not a string: %w", string(data), err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("timestamp[%s] has unknown layout", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.UTC().Format(time.RFC3339Nano))
}

type Product struct {
	ID          ID              `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Deleted     bool            `json:"deleted"`
	ImagePath   string          `json:"imagePath,omitempty"`
	CreatedAt   Timestamp       `json:"created_at"`
}

// Catalog converts to the listing view.
func (p Product) Catalog() catalog.Product {
	return catalog.Product{
		ID:          string(p.ID),
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		Deleted:     p.Deleted,
		ImagePath:   p.ImagePath,
		CreatedAt:   p.CreatedAt.Time,
	}
}

// CartItem carries the price captured when the line was added next to the
// product's current state.
type CartItem struct {
	Product  Product         `json:"product"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type Cart struct {
	CartItems []CartItem `json:"cartItems"`
}

type cartCount struct {
	Count int `json:"count"`
}

type OrderItem struct {
	ID       ID      `json:"id"`
	Quantity int     `json:"quantity"`
	Product  Product `json:"product"`
}

type Order struct {
	ID         ID              `json:"id"`
	CreatedAt  Timestamp       `json:"createdAt"`
	UpdatedAt  Timestamp       `json:"updatedAt"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	OrderItems []OrderItem     `json:"orderItems"`
}
