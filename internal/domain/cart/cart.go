package cart

import (
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/shopspring/decimal"
)

// Item 加入購物車當下的商品快照
type Item struct {
	ProductID string          `json:"product_id"`
	NameEn    string          `json:"name_en"`
	NameBn    string          `json:"name_bn"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
}

func (i Item) Amount() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart 購物車狀態機
// 所有操作都是同步的狀態轉換，quantity 永遠 >= 1
// 不是 concurrency safe，由呼叫端負責序列化
type Cart struct {
	items []Item
}

func New(items ...Item) *Cart {
	c := &Cart{}
	for _, item := range items {
		if item.Quantity <= 0 || item.ProductID == "" {
			continue
		}
		if idx := c.indexOf(item.ProductID); idx >= 0 {
			c.items[idx].Quantity += item.Quantity
			continue
		}
		c.items = append(c.items, item)
	}
	return c
}

func (c *Cart) indexOf(productID string) int {
	for i := range c.items {
		if c.items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// AddItem 已存在則數量 +1，否則以數量 1 加入
// 不檢查庫存
func (c *Cart) AddItem(p *model.Product) {
	if idx := c.indexOf(p.ProductID); idx >= 0 {
		c.items[idx].Quantity++
		return
	}
	c.items = append(c.items, Item{
		ProductID: p.ProductID,
		NameEn:    p.NameEn,
		NameBn:    p.NameBn,
		Price:     p.Price,
		Image:     p.PrimaryImage(),
		Quantity:  1,
	})
}

// RemoveItem 不存在時不做事
func (c *Cart) RemoveItem(productID string) {
	idx := c.indexOf(productID)
	if idx < 0 {
		return
	}
	c.items = append(c.items[:idx], c.items[idx+1:]...)
}

// UpdateQuantity n <= 0 等同 RemoveItem，沒有上限
func (c *Cart) UpdateQuantity(productID string, n int) {
	if n <= 0 {
		c.RemoveItem(productID)
		return
	}
	if idx := c.indexOf(productID); idx >= 0 {
		c.items[idx].Quantity = n
	}
}

func (c *Cart) Clear() {
	c.items = nil
}

// TotalPrice 每次讀取時重新計算
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(item.Amount())
	}
	return total
}

func (c *Cart) ItemCount() int {
	count := 0
	for _, item := range c.items {
		count += item.Quantity
	}
	return count
}

func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

// Items 回傳副本
func (c *Cart) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Item(productID string) (Item, bool) {
	idx := c.indexOf(productID)
	if idx < 0 {
		return Item{}, false
	}
	return c.items[idx], true
}
