// internal/core/domain/report.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// GroupTotal is one row of a grouped sales aggregation
type GroupTotal struct {
	Key   string
	Total decimal.Decimal
	Count int64
}

// DayTotal is the summed amount for one calendar day (UTC)
type DayTotal struct {
	Day   time.Time
	Total decimal.Decimal
	Count int64
}

// CategoryBreakdown is a presentation-ready sales-by-category row
type CategoryBreakdown struct {
	Category   string          `json:"category"`
	Total      decimal.Decimal `json:"total"`
	Count      int64           `json:"count"`
	Percentage float64         `json:"percentage"`
}

// RegionBreakdown is a presentation-ready revenue-by-region row
type RegionBreakdown struct {
	Region     string          `json:"region"`
	Revenue    decimal.Decimal `json:"revenue"`
	Percentage float64         `json:"percentage"`
}

// TrendPoint is one day of the dashboard sales trend
type TrendPoint struct {
	Date  string          `json:"date"`
	Sales decimal.Decimal `json:"sales"`
}

// DailySales is one day of the sales-route trend, with order count
type DailySales struct {
	Date         string          `json:"date"`
	TotalSales   int64           `json:"totalSales"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
}

// SalesSummary holds count and amount statistics over a set of sales
type SalesSummary struct {
	TotalSales        int64           `json:"totalSales"`
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
	MinOrderValue     decimal.Decimal `json:"minOrderValue"`
	MaxOrderValue     decimal.Decimal `json:"maxOrderValue"`
}

// KPI is the dashboard headline block. BounceRate is always nil: no
// analytics source is connected, so it is reported as unavailable.
type KPI struct {
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	TotalOrders   int64           `json:"totalOrders"`
	NewUsers      int64           `json:"newUsers"`
	BounceRate    *float64        `json:"bounceRate"`
	RevenueGrowth float64         `json:"revenueGrowth"`
	OrdersGrowth  float64         `json:"ordersGrowth"`
	Period        DateRange       `json:"period"`
}

// KPITotals are the raw figures for one window
type KPITotals struct {
	Revenue  decimal.Decimal
	Orders   int64
	NewUsers int64
}

var hundred = decimal.NewFromInt(100)

// Percentage returns part as a share of total in percent, rounded to two
// decimals. A zero total yields 0.
func Percentage(part, total decimal.Decimal) float64 {
	if total.IsZero() {
		return 0
	}
	return part.Div(total).Mul(hundred).Round(2).InexactFloat64()
}

func sumTotals(groups []GroupTotal) decimal.Decimal {
	sum := decimal.Zero
	for _, g := range groups {
		sum = sum.Add(g.Total)
	}
	return sum
}

// ShapeCategoryTotals converts grouped category totals into breakdown rows
func ShapeCategoryTotals(groups []GroupTotal) []CategoryBreakdown {
	total := sumTotals(groups)
	out := make([]CategoryBreakdown, 0, len(groups))
	for _, g := range groups {
		out = append(out, CategoryBreakdown{
			Category:   g.Key,
			Total:      g.Total,
			Count:      g.Count,
			Percentage: Percentage(g.Total, total),
		})
	}
	return out
}

// ShapeRegionTotals converts grouped region totals into breakdown rows
func ShapeRegionTotals(groups []GroupTotal) []RegionBreakdown {
	total := sumTotals(groups)
	out := make([]RegionBreakdown, 0, len(groups))
	for _, g := range groups {
		out = append(out, RegionBreakdown{
			Region:     g.Key,
			Revenue:    g.Total,
			Percentage: Percentage(g.Total, total),
		})
	}
	return out
}

// ShapeTrend converts per-day totals into trend points, keeping their order
func ShapeTrend(days []DayTotal) []TrendPoint {
	out := make([]TrendPoint, 0, len(days))
	for _, d := range days {
		out = append(out, TrendPoint{Date: d.Day.UTC().Format(dateOnlyLayout), Sales: d.Total})
	}
	return out
}

// ShapeDailySales converts per-day totals into daily rows with counts
func ShapeDailySales(days []DayTotal) []DailySales {
	out := make([]DailySales, 0, len(days))
	for _, d := range days {
		out = append(out, DailySales{
			Date:         d.Day.UTC().Format(dateOnlyLayout),
			TotalSales:   d.Count,
			TotalRevenue: d.Total,
		})
	}
	return out
}

// CalculateGrowth returns the percent change from previous to current,
// rounded to two decimals. A zero previous value counts as 100% growth.
func CalculateGrowth(current, previous decimal.Decimal) float64 {
	if previous.IsZero() {
		return 100
	}
	return current.Sub(previous).Div(previous).Mul(hundred).Round(2).InexactFloat64()
}

// NewKPI combines the figures of the requested window and the one before it
func NewKPI(period DateRange, current, previous KPITotals) *KPI {
	return &KPI{
		TotalRevenue:  current.Revenue,
		TotalOrders:   current.Orders,
		NewUsers:      current.NewUsers,
		RevenueGrowth: CalculateGrowth(current.Revenue, previous.Revenue),
		OrdersGrowth:  CalculateGrowth(decimal.NewFromInt(current.Orders), decimal.NewFromInt(previous.Orders)),
		Period:        period,
	}
}
