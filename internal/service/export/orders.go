package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/tealeg/xlsx"
)

const timeLayout = "2006-01-02 15:04:05"

var orderHeaders = []string{
	"OrderID", "CreatedAt", "Status", "CustomerName", "CustomerPhone", "CustomerEmail",
	"Address", "City", "Courier", "PaymentMethod", "Items", "Subtotal", "DeliveryCharge", "Total", "Notes",
}

// itemsSummary Necklace x1; Bracelet x2
func itemsSummary(items []model.OrderItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%s x%d", it.NameEn, it.Quantity))
	}
	return strings.Join(parts, "; ")
}

// cellText 開頭為公式字元的文字加上 ' 前綴，試算表開啟時不會被當成公式執行
func cellText(v string) string {
	if v != "" && strings.ContainsRune("=+-@\t\r", rune(v[0])) {
		return "'" + v
	}
	return v
}

func orderRecord(o model.Order) []string {
	return []string{
		o.OrderID,
		o.CreatedAt.UTC().Format(timeLayout),
		string(o.Status),
		cellText(o.CustomerName),
		cellText(o.CustomerPhone),
		cellText(o.CustomerEmail),
		cellText(o.Address),
		cellText(o.City),
		o.Courier,
		o.PaymentMethod,
		cellText(itemsSummary(o.OrderItems)),
		o.Subtotal.StringFixed(2),
		o.DeliveryCharge.StringFixed(2),
		o.Total.StringFixed(2),
		cellText(o.Notes),
	}
}

// WriteOrdersCSV 欄位內的逗號、引號、換行由 csv writer 處理
func WriteOrdersCSV(w io.Writer, orders []model.Order) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(orderHeaders); err != nil {
		return err
	}
	for _, o := range orders {
		if err := cw.Write(orderRecord(o)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteOrdersXLSX(w io.Writer, orders []model.Order) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	headerRow := sheet.AddRow()
	for _, h := range orderHeaders {
		headerRow.AddCell().SetValue(h)
	}

	for _, o := range orders {
		row := sheet.AddRow()
		row.AddCell().SetValue(o.OrderID)
		row.AddCell().SetValue(o.CreatedAt.UTC().Format(timeLayout))
		row.AddCell().SetValue(string(o.Status))
		row.AddCell().SetValue(cellText(o.CustomerName))
		row.AddCell().SetValue(cellText(o.CustomerPhone))
		row.AddCell().SetValue(cellText(o.CustomerEmail))
		row.AddCell().SetValue(cellText(o.Address))
		row.AddCell().SetValue(cellText(o.City))
		row.AddCell().SetValue(o.Courier)
		row.AddCell().SetValue(o.PaymentMethod)
		row.AddCell().SetValue(cellText(itemsSummary(o.OrderItems)))
		row.AddCell().SetValue(o.Subtotal.InexactFloat64())
		row.AddCell().SetValue(o.DeliveryCharge.InexactFloat64())
		row.AddCell().SetValue(o.Total.InexactFloat64())
		row.AddCell().SetValue(cellText(o.Notes))
	}

	return file.Write(w)
}

// FileName orders-20240102-150405.csv
func FileName(ext string, now time.Time) string {
	return fmt.Sprintf("orders-%s.%s", now.UTC().Format("20060102-150405"), ext)
}
