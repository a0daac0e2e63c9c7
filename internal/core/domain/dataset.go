// internal/core/domain/dataset.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// DatasetCounts reports the size of the generated collections
type DatasetCounts struct {
	Products  int64 `json:"products"`
	Customers int64 `json:"customers"`
	Sales     int64 `json:"sales"`
}

// Expected cardinalities of one generator run
const (
	GeneratedProductsPerCategory = 5
	GeneratedCustomers           = 50
	GeneratedSales               = 500
	GeneratedSalesWindow         = 30 * 24 * time.Hour
)

// GeneratedCategories maps every generated category to its product names,
// in generation order.
var GeneratedCategories = []struct {
	Name     string
	Products []string
}{
	{"Electronics", []string{"Smartphone", "Laptop", "Tablet", "Headphones", "Smart Watch"}},
	{"Clothing", []string{"T-Shirt", "Jeans", "Dress", "Jacket", "Shoes"}},
	{"Food", []string{"Coffee", "Tea", "Snacks", "Beverages", "Chocolates"}},
	{"Books", []string{"Fiction", "Non-Fiction", "Educational", "Comics", "Magazines"}},
	{"Home & Garden", []string{"Plants", "Furniture", "Decor", "Kitchen Tools", "Lighting"}},
}

// Dataset is one generated snapshot
type Dataset struct {
	Products  []*Product
	Customers []*Customer
	Sales     []*Sale
}

// ApplyPurchaseStats recomputes every customer's purchase counter and last
// purchase date from the sales slice. The last purchase is the last matching
// sale in slice order, which need not be the latest date.
func (d *Dataset) ApplyPurchaseStats() {
	byID := make(map[uuid.UUID]*Customer, len(d.Customers))
	for _, c := range d.Customers {
		c.TotalPurchases = 0
		c.LastPurchaseDate = nil
		byID[c.ID] = c
	}
	for _, s := range d.Sales {
		c, ok := byID[s.CustomerID]
		if !ok {
			continue
		}
		c.TotalPurchases++
		date := s.Date
		c.LastPurchaseDate = &date
	}
}
