// internal/pkg/spreadsheet/xlsx_test.go
package spreadsheet

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/bi-dashboard/internal/core/domain"
)

func TestWriteSales(t *testing.T) {
	rows := []domain.ExportRow{
		{
			Date: "2024-01-02", Amount: 150.5, Region: "North", Category: "Books",
			Product: "Comics", ProductPrice: 30.1, Customer: "Customer 1",
			CustomerEmail: "customer1@example.com", Status: "completed", PaymentMethod: "cash",
		},
		{
			Date: "2024-01-03", Amount: 20, Region: "West", Category: "Food",
			Product: "Tea", ProductPrice: 10, Customer: "Customer 2",
			CustomerEmail: "customer2@example.com", Status: "completed", PaymentMethod: "credit_card",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSales(&buf, rows))

	file, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	sheet, ok := file.Sheet[SalesSheetName]
	require.True(t, ok)
	assert.Equal(t, 3, sheet.MaxRow)

	header, err := sheet.Row(0)
	require.NoError(t, err)
	for i, name := range domain.ExportColumns {
		assert.Equal(t, name, header.GetCell(i).Value)
	}

	first, err := sheet.Row(1)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02", first.GetCell(0).Value)
	amount, err := first.GetCell(1).Float()
	require.NoError(t, err)
	assert.Equal(t, 150.5, amount)
	assert.Equal(t, "customer1@example.com", first.GetCell(7).Value)
	assert.Equal(t, "cash", first.GetCell(9).Value)
}

func TestWriteSales_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSales(&buf, nil))

	file, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 1, file.Sheet[SalesSheetName].MaxRow)
}
