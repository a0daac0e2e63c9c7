// internal/core/domain/filter.go
package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// SalesFilter narrows a sales query. Zero values mean "no constraint".
type SalesFilter struct {
	StartDate *time.Time       `json:"startDate,omitempty"`
	EndDate   *time.Time       `json:"endDate,omitempty"`
	Region    Region           `json:"region,omitempty"`
	Category  string           `json:"category,omitempty"`
	Status    SaleStatus       `json:"status,omitempty"`
	MinAmount *decimal.Decimal `json:"minAmount,omitempty"`
	MaxAmount *decimal.Decimal `json:"maxAmount,omitempty"`
	// Search is matched case-insensitively against customer name,
	// product name and category after the join.
	Search string `json:"search,omitempty"`
}

// HasDateRange reports whether the date constraint applies. A lone start or
// end date is ignored.
func (f SalesFilter) HasDateRange() bool {
	return f.StartDate != nil && f.EndDate != nil
}

// WithDateRange returns a copy of f bounded to r
func (f SalesFilter) WithDateRange(r DateRange) SalesFilter {
	start, end := r.Start, r.End
	f.StartDate = &start
	f.EndDate = &end
	return f
}

// Validate checks cross-field constraints
func (f SalesFilter) Validate() error {
	var msgs []string
	if f.HasDateRange() && f.StartDate.After(*f.EndDate) {
		msgs = append(msgs, "startDate must not be after endDate")
	}
	if f.Region != "" && !f.Region.Valid() {
		msgs = append(msgs, "Invalid region")
	}
	if f.Status != "" && !f.Status.Valid() {
		msgs = append(msgs, "Invalid status")
	}
	if f.MinAmount != nil && f.MinAmount.IsNegative() {
		msgs = append(msgs, "Minimum amount must be a positive number")
	}
	if f.MaxAmount != nil && f.MaxAmount.IsNegative() {
		msgs = append(msgs, "Maximum amount must be a positive number")
	}
	if f.MinAmount != nil && f.MaxAmount != nil && f.MinAmount.GreaterThan(*f.MaxAmount) {
		msgs = append(msgs, "minAmount must not exceed maxAmount")
	}
	return NewValidationError(msgs...)
}

// SortField names a sortable sales column
type SortField string

const (
	SortByDate          SortField = "date"
	SortByAmount        SortField = "amount"
	SortByRegion        SortField = "region"
	SortByCategory      SortField = "category"
	SortByStatus        SortField = "status"
	SortByPaymentMethod SortField = "paymentMethod"
	SortByCreatedAt     SortField = "createdAt"
)

// Valid reports whether f is sortable
func (f SortField) Valid() bool {
	switch f {
	case SortByDate, SortByAmount, SortByRegion, SortByCategory, SortByStatus, SortByPaymentMethod, SortByCreatedAt:
		return true
	}
	return false
}

// SortOrder is asc or desc
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SortOption is a single-key sort descriptor
type SortOption struct {
	Field SortField `json:"field"`
	Order SortOrder `json:"order"`
}

// DefaultSort orders newest sales first
var DefaultSort = SortOption{Field: SortByDate, Order: SortDesc}

// NewSortOption builds a sort descriptor. Without a field it returns
// DefaultSort; with a field, any order other than "desc" sorts ascending.
func NewSortOption(field, order string) SortOption {
	if field == "" {
		return DefaultSort
	}
	opt := SortOption{Field: SortField(field), Order: SortAsc}
	if order == string(SortDesc) {
		opt.Order = SortDesc
	}
	return opt
}

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Pagination is a 1-based page request. Callers validate limit bounds.
type Pagination struct {
	Page  int
	Limit int
}

// NewPagination fills in defaults for non-positive values
func NewPagination(page, limit int) Pagination {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	return Pagination{Page: page, Limit: limit}
}

// Skip is the zero-based offset of the first row on the page
func (p Pagination) Skip() int {
	return (p.Page - 1) * p.Limit
}

// TotalPages returns ceil(total/limit)
func TotalPages(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(limit)))
}

// PageInfo is the pagination block of a listing envelope
type PageInfo struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// NewPageInfo derives the page count for p and total
func NewPageInfo(p Pagination, total int64) PageInfo {
	return PageInfo{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: TotalPages(total, p.Limit),
	}
}

// DateRange is a closed interval [Start, End]
type DateRange struct {
	Start time.Time `json:"startDate"`
	End   time.Time `json:"endDate"`
}

// Contains reports whether t lies inside the closed interval
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// rangeResolution is the smallest step between stored timestamps
const rangeResolution = time.Microsecond

// Previous returns the window of equal length that ends just before r
// starts. The two closed intervals never share an instant.
func (r DateRange) Previous() DateRange {
	span := r.End.Sub(r.Start)
	return DateRange{Start: r.Start.Add(-span), End: r.Start.Add(-rangeResolution)}
}

// DefaultDateRange covers the trailing 30 days ending at now
func DefaultDateRange(now time.Time) DateRange {
	return DateRange{Start: now.AddDate(0, 0, -30), End: now}
}

// Named ranges accepted by ResolveDateRange
const (
	RangeToday = "today"
	RangeWeek  = "week"
	RangeMonth = "month"
	RangeYear  = "year"
)

// ResolveDateRange maps a named range to an interval ending at now.
// Unknown names fall back to the last month.
func ResolveDateRange(name string, now time.Time) DateRange {
	switch name {
	case RangeToday:
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		return DateRange{Start: start, End: endOfDay(start)}
	case RangeWeek:
		return DateRange{Start: now.AddDate(0, 0, -7), End: now}
	case RangeYear:
		return DateRange{Start: now.AddDate(-1, 0, 0), End: now}
	default:
		return DateRange{Start: now.AddDate(0, -1, 0), End: now}
	}
}

const dateOnlyLayout = "2006-01-02"

// ParseDate accepts RFC 3339 timestamps or YYYY-MM-DD dates (UTC). When
// endOfDayIfDateOnly is set a bare date resolves to the last instant of that day.
func ParseDate(value string, endOfDayIfDateOnly bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateOnlyLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", value)
	}
	if endOfDayIfDateOnly {
		return endOfDay(t), nil
	}
	return t, nil
}

func endOfDay(t time.Time) time.Time {
	return t.Add(24*time.Hour - time.Nanosecond)
}
