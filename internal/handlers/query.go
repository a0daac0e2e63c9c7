// internal/handlers/query.go
package handlers

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ammerola/bi-dashboard/internal/core/domain"
)

// clockGranularity keeps default ranges, and the cache keys derived from
// them, stable within a minute
const clockGranularity = time.Minute

func truncatedNow(now func() time.Time) time.Time {
	return now().UTC().Truncate(clockGranularity)
}

// parseDateParams reads startDate and endDate. Missing values are nil.
func parseDateParams(q url.Values) (start, end *time.Time, msgs []string) {
	if v := q.Get("startDate"); v != "" {
		t, err := domain.ParseDate(v, false)
		if err != nil {
			msgs = append(msgs, "Start date must be a valid date")
		} else {
			start = &t
		}
	}
	if v := q.Get("endDate"); v != "" {
		t, err := domain.ParseDate(v, true)
		if err != nil {
			msgs = append(msgs, "End date must be a valid date")
		} else {
			end = &t
		}
	}
	return start, end, msgs
}

// parsePeriod resolves the reporting window: explicit dates first, then a
// named range, then the trailing 30 days.
func parsePeriod(q url.Values, now time.Time) (domain.DateRange, []string) {
	start, end, msgs := parseDateParams(q)
	if len(msgs) > 0 {
		return domain.DateRange{}, msgs
	}

	period := domain.DefaultDateRange(now)
	if name := q.Get("range"); name != "" && start == nil && end == nil {
		period = domain.ResolveDateRange(name, now)
	}
	if start != nil {
		period.Start = *start
	}
	if end != nil {
		period.End = *end
	}

	if period.Start.After(period.End) {
		return domain.DateRange{}, []string{"startDate must not be after endDate"}
	}
	return period, nil
}

// parseSalesFilter builds a validated filter from query parameters. Every
// violation is reported.
func parseSalesFilter(q url.Values, now time.Time) (domain.SalesFilter, []string) {
	var f domain.SalesFilter

	start, end, msgs := parseDateParams(q)
	f.StartDate, f.EndDate = start, end
	if name := q.Get("range"); name != "" && start == nil && end == nil {
		f = f.WithDateRange(domain.ResolveDateRange(name, now))
	}

	if q.Has("region") {
		f.Region = domain.Region(q.Get("region"))
		if f.Region == "" {
			msgs = append(msgs, "Invalid region")
		}
	}
	if q.Has("category") {
		f.Category = strings.TrimSpace(q.Get("category"))
		if f.Category == "" {
			msgs = append(msgs, "Category cannot be empty if provided")
		}
	}
	f.Status = domain.SaleStatus(q.Get("status"))
	f.Search = strings.TrimSpace(q.Get("search"))

	if v := q.Get("minAmount"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			msgs = append(msgs, "Minimum amount must be a positive number")
		} else {
			f.MinAmount = &d
		}
	}
	if v := q.Get("maxAmount"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			msgs = append(msgs, "Maximum amount must be a positive number")
		} else {
			f.MaxAmount = &d
		}
	}

	msgs = append(msgs, domain.ValidationMessages(f.Validate())...)
	return f, msgs
}

func parsePagination(q url.Values) (domain.Pagination, []string) {
	var msgs []string
	page, limit := domain.DefaultPage, domain.DefaultLimit

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			msgs = append(msgs, "Page must be a positive integer")
		} else {
			page = n
		}
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > domain.MaxLimit {
			msgs = append(msgs, "Limit must be between 1 and 100")
		} else {
			limit = n
		}
	}

	return domain.NewPagination(page, limit), msgs
}

func parseSort(q url.Values) (domain.SortOption, []string) {
	field, order := q.Get("sortField"), q.Get("sortOrder")

	var msgs []string
	if field != "" && !domain.SortField(field).Valid() {
		msgs = append(msgs, "Invalid sort field")
	}
	if order != "" && order != string(domain.SortAsc) && order != string(domain.SortDesc) {
		msgs = append(msgs, "Sort order must be asc or desc")
	}
	return domain.NewSortOption(field, order), msgs
}

func parsePositiveInt(q url.Values, key string, fallback int) (int, []string) {
	v := q.Get(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, []string{key + " must be a positive integer"}
	}
	return n, nil
}
