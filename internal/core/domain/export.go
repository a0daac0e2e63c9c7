// internal/core/domain/export.go
package domain

import "time"

// ExportColumns is the fixed column order of sales exports
var ExportColumns = []string{
	"Date", "Amount", "Region", "Category", "Product", "Product Price",
	"Customer", "Customer Email", "Status", "PaymentMethod",
}

// Date layouts used by the two export endpoints
const (
	ExportDateISO = "2006-01-02"
	ExportDateUS  = "1/2/2006"
)

// ExportRow is one flattened, human-readable sale
type ExportRow struct {
	Date          string  `json:"Date"`
	Amount        float64 `json:"Amount"`
	Region        string  `json:"Region"`
	Category      string  `json:"Category"`
	Product       string  `json:"Product"`
	ProductPrice  float64 `json:"Product Price"`
	Customer      string  `json:"Customer"`
	CustomerEmail string  `json:"Customer Email"`
	Status        string  `json:"Status"`
	PaymentMethod string  `json:"PaymentMethod"`
}

// NewExportRow flattens d, formatting the date with layout in UTC
func NewExportRow(d *SaleDetail, layout string) ExportRow {
	return ExportRow{
		Date:          d.Date.UTC().Format(layout),
		Amount:        d.Amount.InexactFloat64(),
		Region:        string(d.Region),
		Category:      d.Category,
		Product:       d.Product.Name,
		ProductPrice:  d.Product.Price.InexactFloat64(),
		Customer:      d.Customer.Name,
		CustomerEmail: d.Customer.Email,
		Status:        string(d.Status),
		PaymentMethod: string(d.PaymentMethod),
	}
}

// Values returns the row in ExportColumns order
func (r ExportRow) Values() []interface{} {
	return []interface{}{
		r.Date, r.Amount, r.Region, r.Category, r.Product, r.ProductPrice,
		r.Customer, r.CustomerEmail, r.Status, r.PaymentMethod,
	}
}

// ExportStatus tracks an archived export
type ExportStatus string

const (
	ExportQueued    ExportStatus = "queued"
	ExportCompleted ExportStatus = "completed"
	ExportFailed    ExportStatus = "failed"
)

// ExportRequest describes an archived spreadsheet export
type ExportRequest struct {
	ID          string      `json:"id"`
	Filter      SalesFilter `json:"filter"`
	Sort        SortOption  `json:"sort"`
	DateLayout  string      `json:"dateLayout"`
	RequestedBy string      `json:"requestedBy"`
}

// ExportJob is the status record of an archived export
type ExportJob struct {
	ID          string       `json:"id"`
	Status      ExportStatus `json:"status"`
	Rows        int          `json:"rows,omitempty"`
	Key         string       `json:"key,omitempty"`
	URL         string       `json:"url,omitempty"`
	Error       string       `json:"error,omitempty"`
	RequestedAt time.Time    `json:"requestedAt"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"`
}
