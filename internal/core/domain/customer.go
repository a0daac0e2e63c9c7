// internal/core/domain/customer.go
package domain

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// Region represents a sales region
type Region string

const (
	RegionNorth   Region = "North"
	RegionSouth   Region = "South"
	RegionEast    Region = "East"
	RegionWest    Region = "West"
	RegionCentral Region = "Central"
)

// Regions lists every region in a stable order
var Regions = []Region{RegionNorth, RegionSouth, RegionEast, RegionWest, RegionCentral}

// Valid reports whether r is a known region. Matching is case-sensitive.
func (r Region) Valid() bool {
	for _, known := range Regions {
		if r == known {
			return true
		}
	}
	return false
}

// CustomerType distinguishes private and business buyers
type CustomerType string

const (
	CustomerIndividual CustomerType = "individual"
	CustomerBusiness   CustomerType = "business"
)

// CustomerStatus represents whether a customer is active
type CustomerStatus string

const (
	CustomerActive   CustomerStatus = "active"
	CustomerInactive CustomerStatus = "inactive"
)

// DefaultCountry is applied to addresses without a country
const DefaultCountry = "USA"

// Address is a postal address
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
	Country string `json:"country,omitempty"`
}

// Customer represents a buyer. TotalPurchases and LastPurchaseDate are
// derived from the sales table and only written by the refresh job.
type Customer struct {
	ID               uuid.UUID      `json:"id"`
	Name             string         `json:"name"`
	Email            string         `json:"email"`
	Region           Region         `json:"region"`
	Address          Address        `json:"address"`
	Phone            string         `json:"phone,omitempty"`
	CustomerType     CustomerType   `json:"customerType"`
	Status           CustomerStatus `json:"status"`
	TotalPurchases   int            `json:"totalPurchases"`
	LastPurchaseDate *time.Time     `json:"lastPurchaseDate,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// Validate performs domain validation on the customer
func (c *Customer) Validate() error {
	var msgs []string
	if c.Name == "" {
		msgs = append(msgs, "name is required")
	}
	if !ValidEmail(c.Email) {
		msgs = append(msgs, "email must be a valid address")
	}
	if !c.Region.Valid() {
		msgs = append(msgs, "region must be one of North, South, East, West, Central")
	}
	if c.CustomerType != "" && c.CustomerType != CustomerIndividual && c.CustomerType != CustomerBusiness {
		msgs = append(msgs, "customer type must be individual or business")
	}
	if c.Status != "" && c.Status != CustomerActive && c.Status != CustomerInactive {
		msgs = append(msgs, "status must be active or inactive")
	}
	if c.TotalPurchases < 0 {
		msgs = append(msgs, "total purchases cannot be negative")
	}
	return NewValidationError(msgs...)
}

// PrepareForStorage sets identifiers and defaults before a write
func (c *Customer) PrepareForStorage() {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	if c.Address.Country == "" {
		c.Address.Country = DefaultCountry
	}
	if c.CustomerType == "" {
		c.CustomerType = CustomerIndividual
	}
	if c.Status == "" {
		c.Status = CustomerActive
	}

	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
}

// FullAddress joins the address parts as "street, city, state zip, country"
func (c *Customer) FullAddress() string {
	a := c.Address
	return a.Street + ", " + a.City + ", " + a.State + " " + a.ZipCode + ", " + a.Country
}

// ValidEmail reports whether s is a bare email address
func ValidEmail(s string) bool {
	return validate.Var(s, "required,email") == nil
}

// CustomerRegionStats summarises customers in one region
type CustomerRegionStats struct {
	Region         Region `json:"region"`
	Count          int64  `json:"count"`
	TotalPurchases int64  `json:"totalPurchases"`
}

// PurchaseStats summarises purchase counters across all customers
type PurchaseStats struct {
	TotalCustomers   int64   `json:"totalCustomers"`
	AveragePurchases float64 `json:"averagePurchases"`
	MaxPurchases     int     `json:"maxPurchases"`
	MinPurchases     int     `json:"minPurchases"`
}

// DefaultTopCustomers is the size of the top-customer list when none is given
const DefaultTopCustomers = 10
