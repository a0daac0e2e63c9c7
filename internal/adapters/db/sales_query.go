// internal/adapters/db/sales_query.go
package db

import (
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/ammerola/bi-dashboard/internal/core/domain"
)

// Every sales read joins its product and customer so that search and the
// listing see the same rows.
const salesJoin = "sales s " +
	"JOIN products p ON p.id = s.product_id " +
	"JOIN customers c ON c.id = s.customer_id"

var saleDetailColumns = []string{
	"s.id", "s.amount", "s.date", "s.region", "s.category",
	"s.product_id", "s.customer_id", "s.status", "s.payment_method",
	"COALESCE(s.notes, '')", "s.created_at", "s.updated_at",
	"p.name", "p.price", "p.category",
	"c.name", "c.email", "c.region",
}

var sortColumns = map[domain.SortField]string{
	domain.SortByDate:          "s.date",
	domain.SortByAmount:        "s.amount",
	domain.SortByRegion:        "s.region",
	domain.SortByCategory:      "s.category",
	domain.SortByStatus:        "s.status",
	domain.SortByPaymentMethod: "s.payment_method",
	domain.SortByCreatedAt:     "s.created_at",
}

func psql() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// applySalesFilter adds the WHERE clauses for f
func applySalesFilter(qb squirrel.SelectBuilder, f domain.SalesFilter) squirrel.SelectBuilder {
	if f.HasDateRange() {
		qb = qb.Where(squirrel.GtOrEq{"s.date": *f.StartDate}).
			Where(squirrel.LtOrEq{"s.date": *f.EndDate})
	}
	if f.Region != "" {
		qb = qb.Where(squirrel.Eq{"s.region": string(f.Region)})
	}
	if f.Category != "" {
		qb = qb.Where(squirrel.Eq{"s.category": f.Category})
	}
	if f.Status != "" {
		qb = qb.Where(squirrel.Eq{"s.status": string(f.Status)})
	}
	if f.MinAmount != nil {
		qb = qb.Where(squirrel.GtOrEq{"s.amount": *f.MinAmount})
	}
	if f.MaxAmount != nil {
		qb = qb.Where(squirrel.LtOrEq{"s.amount": *f.MaxAmount})
	}
	if f.Search != "" {
		pattern := "%" + escapeLike(f.Search) + "%"
		qb = qb.Where(squirrel.Or{
			squirrel.ILike{"c.name": pattern},
			squirrel.ILike{"p.name": pattern},
			squirrel.ILike{"s.category": pattern},
		})
	}
	return qb
}

// orderClause maps a sort option onto a column. Unknown fields fall back to
// the default sort. The id tiebreaker keeps pages stable.
func orderClause(opt domain.SortOption) []string {
	column, ok := sortColumns[opt.Field]
	if !ok {
		column = sortColumns[domain.DefaultSort.Field]
		opt.Order = domain.DefaultSort.Order
	}
	direction := "ASC"
	if opt.Order == domain.SortDesc {
		direction = "DESC"
	}
	return []string{fmt.Sprintf("%s %s", column, direction), "s.id " + direction}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func buildSalesListQuery(f domain.SalesFilter, opt domain.SortOption, page domain.Pagination) (string, []interface{}, error) {
	qb := applySalesFilter(psql().Select(saleDetailColumns...).From(salesJoin), f).
		OrderBy(orderClause(opt)...).
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Skip()))
	return qb.ToSql()
}

func buildSalesCountQuery(f domain.SalesFilter) (string, []interface{}, error) {
	return applySalesFilter(psql().Select("COUNT(*)").From(salesJoin), f).ToSql()
}

func buildSalesExportQuery(f domain.SalesFilter, opt domain.SortOption) (string, []interface{}, error) {
	return applySalesFilter(psql().Select(saleDetailColumns...).From(salesJoin), f).
		OrderBy(orderClause(opt)...).
		ToSql()
}

// buildGroupTotalsQuery sums and counts sales grouped by column
func buildGroupTotalsQuery(column string, f domain.SalesFilter) (string, []interface{}, error) {
	return applySalesFilter(
		psql().Select(column, "COALESCE(SUM(s.amount), 0)", "COUNT(*)").From(salesJoin), f).
		GroupBy(column).
		OrderBy(column).
		ToSql()
}

const dayExpr = "date_trunc('day', s.date AT TIME ZONE 'UTC')"

// buildDailyTotalsQuery groups by UTC calendar day, ascending. Days without
// sales produce no row.
func buildDailyTotalsQuery(f domain.SalesFilter) (string, []interface{}, error) {
	return applySalesFilter(
		psql().Select(dayExpr+" AS day", "COALESCE(SUM(s.amount), 0)", "COUNT(*)").From(salesJoin), f).
		GroupBy("day").
		OrderBy("day ASC").
		ToSql()
}

func buildSummaryQuery(f domain.SalesFilter) (string, []interface{}, error) {
	return applySalesFilter(psql().Select(
		"COUNT(*)",
		"COALESCE(SUM(s.amount), 0)",
		"COALESCE(ROUND(AVG(s.amount), 2), 0)",
		"COALESCE(MIN(s.amount), 0)",
		"COALESCE(MAX(s.amount), 0)",
	).From(salesJoin), f).ToSql()
}
