// internal/core/domain/product.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Unit represents the unit a product is sold in
type Unit string

const (
	UnitPiece Unit = "piece"
	UnitKg    Unit = "kg"
	UnitLiter Unit = "liter"
	UnitMeter Unit = "meter"
	UnitSet   Unit = "set"
)

// Valid reports whether u is a known unit
func (u Unit) Valid() bool {
	switch u {
	case UnitPiece, UnitKg, UnitLiter, UnitMeter, UnitSet:
		return true
	}
	return false
}

// Product represents a catalogue entry
type Product struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	Price         decimal.Decimal `json:"price"`
	Description   string          `json:"description,omitempty"`
	SKU           string          `json:"sku"`
	StockQuantity int             `json:"stockQuantity"`
	InStock       bool            `json:"inStock"`
	Unit          Unit            `json:"unit"`
	Manufacturer  string          `json:"manufacturer,omitempty"`
	LastRestocked time.Time       `json:"lastRestocked"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Validate performs domain validation on the product
func (p *Product) Validate() error {
	var msgs []string
	if p.Name == "" {
		msgs = append(msgs, "name is required")
	}
	if p.Category == "" {
		msgs = append(msgs, "category is required")
	}
	if p.Price.IsNegative() {
		msgs = append(msgs, "price cannot be negative")
	}
	if p.SKU == "" {
		msgs = append(msgs, "sku is required")
	}
	if p.StockQuantity < 0 {
		msgs = append(msgs, "stock quantity cannot be negative")
	}
	if p.Unit != "" && !p.Unit.Valid() {
		msgs = append(msgs, "unit must be one of piece, kg, liter, meter, set")
	}
	return NewValidationError(msgs...)
}

// PrepareForStorage sets identifiers, defaults and the derived stock flag.
// It must run before every write.
func (p *Product) PrepareForStorage() {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Unit == "" {
		p.Unit = UnitPiece
	}
	p.InStock = p.StockQuantity > 0

	now := time.Now()
	if p.LastRestocked.IsZero() {
		p.LastRestocked = now
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
}

// FormattedPrice renders the price as dollars with two decimals
func (p *Product) FormattedPrice() string {
	return "$" + p.Price.StringFixed(2)
}

// ProductCategoryStats summarises the catalogue for one category
type ProductCategoryStats struct {
	Category     string          `json:"category"`
	Count        int64           `json:"count"`
	AveragePrice decimal.Decimal `json:"averagePrice"`
	TotalStock   int64           `json:"totalStock"`
}

// DefaultLowStockThreshold is used when no threshold is supplied
const DefaultLowStockThreshold = 10
