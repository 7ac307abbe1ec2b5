package service

import (
	"strings"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/shopspring/decimal"
)

// FilterOrders 在記憶體內過濾，順序不變
// Query 不分大小寫比對 order id、客戶姓名、電話
func FilterOrders(orders []model.Order, filter model.OrderFilter) []model.Order {
	text := strings.ToLower(strings.TrimSpace(filter.Query))
	out := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if text != "" &&
			!strings.Contains(strings.ToLower(o.OrderID), text) &&
			!strings.Contains(strings.ToLower(o.CustomerName), text) &&
			!strings.Contains(strings.ToLower(o.CustomerPhone), text) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// Paginate limit <= 0 代表不分頁
func Paginate(orders []model.Order, limit, offset int) []model.Order {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(orders) {
		return []model.Order{}
	}
	orders = orders[offset:]
	if limit > 0 && limit < len(orders) {
		orders = orders[:limit]
	}
	return orders
}

func ComputeStats(orders []model.Order) model.OrderStats {
	stats := model.OrderStats{
		Total:            len(orders),
		ByStatus:         make(map[model.OrderStatus]int, len(model.OrderStatuses)),
		DeliveredRevenue: decimal.Zero,
	}
	for _, s := range model.OrderStatuses {
		stats.ByStatus[s] = 0
	}
	for _, o := range orders {
		stats.ByStatus[o.Status]++
		if o.Status == model.OrderStatusDelivered {
			stats.DeliveredRevenue = stats.DeliveredRevenue.Add(o.Total)
		}
	}
	return stats
}

// normalizePhone 只保留數字與 +
func normalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if (r >= '0' && r <= '9') || r == '+' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
