package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
)

func testOrders() []model.Order {
	return []model.Order{
		{
			OrderID:        "ORD1700000000000",
			CustomerName:   "Rahim, Uddin",
			CustomerPhone:  "01700000000",
			Address:        "House 1\nRoad 2",
			City:           "Dhaka",
			Courier:        "pathao",
			PaymentMethod:  "cod",
			Subtotal:       decimal.NewFromInt(4300),
			DeliveryCharge: decimal.NewFromInt(60),
			Total:          decimal.NewFromInt(4360),
			Status:         model.OrderStatusDelivered,
			Notes:          `call "before" delivery`,
			CreatedAt:      time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC),
			OrderItems: []model.OrderItem{
				{NameEn: "Necklace", Quantity: 1},
				{NameEn: "Bracelet", Quantity: 2},
			},
		},
	}
}

func TestWriteOrdersCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOrdersCSV(&buf, testOrders()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, orderHeaders, records[0])

	row := records[1]
	require.Equal(t, "ORD1700000000000", row[0])
	require.Equal(t, "2024-01-02 15:04:05", row[1])
	require.Equal(t, "delivered", row[2])
	require.Equal(t, "Rahim, Uddin", row[3])
	require.Equal(t, "House 1\nRoad 2", row[6])
	require.Equal(t, "Necklace x1; Bracelet x2", row[10])
	require.Equal(t, "4360.00", row[13])
	require.Equal(t, `call "before" delivery`, row[14])
}

func TestWriteOrdersCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOrdersCSV(&buf, nil))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestWriteOrdersXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOrdersXLSX(&buf, testOrders()))

	file, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	sheet, ok := file.Sheet["Orders"]
	require.True(t, ok)
	require.Len(t, sheet.Rows, 2)
	require.Equal(t, "OrderID", sheet.Rows[0].Cells[0].Value)
	require.Equal(t, "ORD1700000000000", sheet.Rows[1].Cells[0].Value)
	require.Equal(t, "Necklace x1; Bracelet x2", sheet.Rows[1].Cells[10].Value)
	require.Equal(t, "4360", sheet.Rows[1].Cells[13].Value)
}

func TestExportNeutralizesFormulas(t *testing.T) {
	orders := testOrders()
	orders[0].CustomerName = "=HYPERLINK(\"http://evil\",\"x\")"
	orders[0].Address = "@SUM(1+1)"
	orders[0].Notes = "-2+3"
	orders[0].City = "Dhaka"

	var buf bytes.Buffer
	require.NoError(t, WriteOrdersCSV(&buf, orders))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	row := records[1]
	require.Equal(t, "'=HYPERLINK(\"http://evil\",\"x\")", row[3])
	require.Equal(t, "'@SUM(1+1)", row[6])
	require.Equal(t, "Dhaka", row[7])
	require.Equal(t, "'-2+3", row[14])

	buf.Reset()
	require.NoError(t, WriteOrdersXLSX(&buf, orders))
	file, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	cells := file.Sheet["Orders"].Rows[1].Cells
	require.Equal(t, "'=HYPERLINK(\"http://evil\",\"x\")", cells[3].Value)
	require.Equal(t, "'-2+3", cells[14].Value)
}

func TestCellText(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "Rahim", want: "Rahim"},
		{in: "=1+1", want: "'=1+1"},
		{in: "+8801700000000", want: "'+8801700000000"},
		{in: "@cmd", want: "'@cmd"},
		{in: "\tx", want: "'\tx"},
		{in: "a=b", want: "a=b"},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.want, cellText(tc.in), tc.in)
	}
}

func TestFileName(t *testing.T) {
	require.Equal(t, "orders-20240102-150405.csv", FileName("csv", time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)))
}
