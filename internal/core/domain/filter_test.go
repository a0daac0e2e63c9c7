package domain_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/bi-dashboard/internal/core/domain"
)

func TestNewSortOption(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		order    string
		expected domain.SortOption
	}{
		{"defaults_to_date_desc", "", "", domain.SortOption{Field: domain.SortByDate, Order: domain.SortDesc}},
		{"order_without_field_is_default", "", "asc", domain.DefaultSort},
		{"field_with_desc", "amount", "desc", domain.SortOption{Field: domain.SortByAmount, Order: domain.SortDesc}},
		{"field_with_asc", "region", "asc", domain.SortOption{Field: domain.SortByRegion, Order: domain.SortAsc}},
		{"field_without_order_sorts_ascending", "category", "", domain.SortOption{Field: domain.SortByCategory, Order: domain.SortAsc}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, domain.NewSortOption(tt.field, tt.order))
		})
	}
}

func TestPagination(t *testing.T) {
	tests := []struct {
		name          string
		page, limit   int
		total         int64
		expectedSkip  int
		expectedPages int
	}{
		{"first_page", 1, 10, 95, 0, 10},
		{"third_page", 3, 20, 41, 40, 3},
		{"exact_multiple", 2, 25, 500, 25, 20},
		{"empty_result", 1, 10, 0, 0, 0},
		{"defaults_for_zero_values", 0, 0, 11, 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := domain.NewPagination(tt.page, tt.limit)
			assert.Equal(t, tt.expectedSkip, p.Skip())

			info := domain.NewPageInfo(p, tt.total)
			assert.Equal(t, tt.expectedPages, info.TotalPages)
			assert.Equal(t, tt.total, info.Total)
		})
	}

	t.Run("skip_matches_formula", func(t *testing.T) {
		for page := 1; page <= 5; page++ {
			for limit := 1; limit <= 100; limit += 33 {
				p := domain.NewPagination(page, limit)
				assert.Equal(t, (page-1)*limit, p.Skip())
			}
		}
	})
}

func TestSalesFilter_HasDateRange(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)

	assert.False(t, domain.SalesFilter{}.HasDateRange())
	assert.False(t, domain.SalesFilter{StartDate: &start}.HasDateRange())
	assert.False(t, domain.SalesFilter{EndDate: &end}.HasDateRange())
	assert.True(t, domain.SalesFilter{StartDate: &start, EndDate: &end}.HasDateRange())

	ranged := domain.SalesFilter{Region: domain.RegionNorth}.WithDateRange(domain.DateRange{Start: start, End: end})
	assert.True(t, ranged.HasDateRange())
	assert.Equal(t, domain.RegionNorth, ranged.Region)
}

func TestSalesFilter_Validate(t *testing.T) {
	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	negative := decimal.NewFromInt(-1)
	low := decimal.NewFromInt(10)
	high := decimal.NewFromInt(100)

	t.Run("valid_filter", func(t *testing.T) {
		f := domain.SalesFilter{Region: domain.RegionWest, MinAmount: &low, MaxAmount: &high}
		assert.NoError(t, f.Validate())
	})

	t.Run("collects_every_violation", func(t *testing.T) {
		f := domain.SalesFilter{
			StartDate: &start,
			EndDate:   &end,
			Region:    "north",
			MinAmount: &negative,
		}

		err := f.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrValidation)

		msgs := domain.ValidationMessages(err)
		assert.Len(t, msgs, 3)
		assert.Contains(t, msgs, "Invalid region")
	})

	t.Run("min_above_max", func(t *testing.T) {
		f := domain.SalesFilter{MinAmount: &high, MaxAmount: &low}
		assert.ErrorIs(t, f.Validate(), domain.ErrValidation)
	})
}

func TestResolveDateRange(t *testing.T) {
	now := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name          string
		rangeName     string
		expectedStart time.Time
		expectedEnd   time.Time
	}{
		{"today", domain.RangeToday, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 15, 23, 59, 59, 999999999, time.UTC)},
		{"week", domain.RangeWeek, time.Date(2024, 3, 8, 14, 30, 0, 0, time.UTC), now},
		{"month", domain.RangeMonth, time.Date(2024, 2, 15, 14, 30, 0, 0, time.UTC), now},
		{"year", domain.RangeYear, time.Date(2023, 3, 15, 14, 30, 0, 0, time.UTC), now},
		{"unknown_falls_back_to_month", "fortnight", time.Date(2024, 2, 15, 14, 30, 0, 0, time.UTC), now},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := domain.ResolveDateRange(tt.rangeName, now)
			assert.Equal(t, tt.expectedStart, r.Start)
			assert.Equal(t, tt.expectedEnd, r.End)
		})
	}
}

func TestDateRange(t *testing.T) {
	r := domain.DateRange{
		Start: time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 21, 0, 0, 0, 0, time.UTC),
	}

	assert.True(t, r.Contains(r.Start))
	assert.True(t, r.Contains(r.End))
	assert.False(t, r.Contains(r.End.Add(time.Nanosecond)))

	prev := r.Previous()
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), prev.Start)
	assert.Equal(t, r.Start.Add(-time.Microsecond), prev.End)
	assert.False(t, prev.Contains(r.Start))
	assert.True(t, prev.End.Before(r.Start))

	now := time.Date(2024, 5, 31, 12, 0, 0, 0, time.UTC)
	def := domain.DefaultDateRange(now)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), def.Start)
	assert.Equal(t, now, def.End)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		endOfDay  bool
		expected  time.Time
		wantError bool
	}{
		{"date_only_start", "2024-01-07", false, time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC), false},
		{"date_only_end_covers_day", "2024-01-07", true, time.Date(2024, 1, 7, 23, 59, 59, 999999999, time.UTC), false},
		{"rfc3339_kept_verbatim", "2024-01-07T10:00:00Z", true, time.Date(2024, 1, 7, 10, 0, 0, 0, time.UTC), false},
		{"garbage", "yesterday", false, time.Time{}, true},
		{"invalid_day", "2024-02-31", false, time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.ParseDate(tt.value, tt.endOfDay)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(got), "got %s", got)
		})
	}
}
