// internal/core/domain/sale.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleStatus represents the lifecycle state of a sale
type SaleStatus string

const (
	SaleCompleted SaleStatus = "completed"
	SalePending   SaleStatus = "pending"
	SaleCancelled SaleStatus = "cancelled"
)

// Valid reports whether s is a known status
func (s SaleStatus) Valid() bool {
	switch s {
	case SaleCompleted, SalePending, SaleCancelled:
		return true
	}
	return false
}

// PaymentMethod represents how a sale was paid
type PaymentMethod string

const (
	PaymentCreditCard   PaymentMethod = "credit_card"
	PaymentDebitCard    PaymentMethod = "debit_card"
	PaymentCash         PaymentMethod = "cash"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
)

// PaymentMethods lists every payment method in a stable order
var PaymentMethods = []PaymentMethod{PaymentCreditCard, PaymentDebitCard, PaymentCash, PaymentBankTransfer}

// Valid reports whether m is a known payment method
func (m PaymentMethod) Valid() bool {
	for _, known := range PaymentMethods {
		if m == known {
			return true
		}
	}
	return false
}

// MaxNotesLength bounds Sale.Notes
const MaxNotesLength = 500

// Sale is a single order line. Region and Category are copied from the
// customer and product when the sale is created and are not kept in sync
// afterwards; editing a customer or product leaves historical sales as they were.
type Sale struct {
	ID            uuid.UUID       `json:"id"`
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date"`
	Region        Region          `json:"region"`
	Category      string          `json:"category"`
	ProductID     uuid.UUID       `json:"productId"`
	CustomerID    uuid.UUID       `json:"customerId"`
	Status        SaleStatus      `json:"status"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// NewSale builds a sale for product and customer, copying the denormalized
// region and category from them.
func NewSale(product *Product, customer *Customer, amount decimal.Decimal, date time.Time, method PaymentMethod) *Sale {
	return &Sale{
		Amount:        amount,
		Date:          date,
		Region:        customer.Region,
		Category:      product.Category,
		ProductID:     product.ID,
		CustomerID:    customer.ID,
		Status:        SaleCompleted,
		PaymentMethod: method,
	}
}

// Validate performs domain validation on the sale
func (s *Sale) Validate() error {
	var msgs []string
	if s.Amount.IsNegative() {
		msgs = append(msgs, "amount cannot be negative")
	}
	if s.Date.IsZero() {
		msgs = append(msgs, "date is required")
	}
	if !s.Region.Valid() {
		msgs = append(msgs, "region must be one of North, South, East, West, Central")
	}
	if s.Category == "" {
		msgs = append(msgs, "category is required")
	}
	if s.ProductID == uuid.Nil {
		msgs = append(msgs, "product reference is required")
	}
	if s.CustomerID == uuid.Nil {
		msgs = append(msgs, "customer reference is required")
	}
	if s.Status != "" && !s.Status.Valid() {
		msgs = append(msgs, "status must be completed, pending or cancelled")
	}
	if !s.PaymentMethod.Valid() {
		msgs = append(msgs, "payment method must be credit_card, debit_card, cash or bank_transfer")
	}
	if len(s.Notes) > MaxNotesLength {
		msgs = append(msgs, "notes cannot exceed 500 characters")
	}
	return NewValidationError(msgs...)
}

// PrepareForStorage sets identifiers and defaults before a write
func (s *Sale) PrepareForStorage() {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = SaleCompleted
	}

	now := time.Now()
	if s.Date.IsZero() {
		s.Date = now
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
}

// ProductRef is the subset of a product returned with a sale
type ProductRef struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
}

// CustomerRef is the subset of a customer returned with a sale
type CustomerRef struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
	Region Region    `json:"region"`
}

// SaleDetail is a sale joined with its product and customer
type SaleDetail struct {
	Sale
	Product  ProductRef  `json:"product"`
	Customer CustomerRef `json:"customer"`
}
