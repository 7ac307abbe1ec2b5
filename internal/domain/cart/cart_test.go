package cart

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProduct(id string, price int64) *model.Product {
	return &model.Product{
		ProductID: id,
		NameEn:    "Product " + id,
		NameBn:    "পণ্য " + id,
		Price:     decimal.NewFromInt(price),
		Images:    []string{"https://img.example.com/" + id + ".jpg"},
		Category:  model.CategoryJewelry,
	}
}

func TestAddItemTwiceMergesEntry(t *testing.T) {
	c := New()
	p := newTestProduct("p1", 2500)

	c.AddItem(p)
	c.AddItem(p)

	items := c.Items()
	require.Len(t, items, 1)
	require.Equal(t, 2, items[0].Quantity)
	require.Equal(t, 2, c.ItemCount())
	require.True(t, decimal.NewFromInt(5000).Equal(c.TotalPrice()))
}

func TestAddItemSnapshotsProduct(t *testing.T) {
	c := New()
	p := newTestProduct("p1", 2500)
	c.AddItem(p)

	p.Price = decimal.NewFromInt(9999)
	p.NameEn = "renamed"

	item, ok := c.Item("p1")
	require.True(t, ok)
	require.True(t, decimal.NewFromInt(2500).Equal(item.Price))
	require.Equal(t, "Product p1", item.NameEn)
	require.Equal(t, "https://img.example.com/p1.jpg", item.Image)
}

func TestUpdateQuantity(t *testing.T) {
	testCases := []struct {
		name        string
		quantity    int
		wantPresent bool
		wantQty     int
	}{
		{name: "zero removes item", quantity: 0, wantPresent: false},
		{name: "negative removes item", quantity: -3, wantPresent: false},
		{name: "sets quantity directly", quantity: 7, wantPresent: true, wantQty: 7},
		{name: "no upper bound", quantity: 10000, wantPresent: true, wantQty: 10000},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := New()
			c.AddItem(newTestProduct("p1", 100))
			c.UpdateQuantity("p1", tc.quantity)

			item, ok := c.Item("p1")
			require.Equal(t, tc.wantPresent, ok)
			if tc.wantPresent {
				require.Equal(t, tc.wantQty, item.Quantity)
			} else {
				require.Empty(t, c.Items())
			}
		})
	}
}

func TestRemoveMissingIsNoop(t *testing.T) {
	c := New()
	c.AddItem(newTestProduct("p1", 100))

	c.RemoveItem("missing")
	c.UpdateQuantity("missing", 5)

	require.Len(t, c.Items(), 1)
	require.Equal(t, 1, c.ItemCount())
}

func TestClear(t *testing.T) {
	c := New()
	c.AddItem(newTestProduct("p1", 100))
	c.AddItem(newTestProduct("p2", 200))

	c.Clear()

	require.True(t, c.IsEmpty())
	require.Zero(t, c.ItemCount())
	require.True(t, decimal.Zero.Equal(c.TotalPrice()))
}

func TestNewDropsInvalidItems(t *testing.T) {
	c := New(
		Item{ProductID: "p1", Price: decimal.NewFromInt(10), Quantity: 2},
		Item{ProductID: "p2", Price: decimal.NewFromInt(10), Quantity: 0},
		Item{ProductID: "", Price: decimal.NewFromInt(10), Quantity: 1},
		Item{ProductID: "p1", Price: decimal.NewFromInt(10), Quantity: 1},
	)

	items := c.Items()
	require.Len(t, items, 1)
	require.Equal(t, 3, items[0].Quantity)
}

// 隨機操作序列，檢查不變量
func TestRandomOperationsKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	products := make([]*model.Product, 5)
	for i := range products {
		products[i] = newTestProduct(fmt.Sprintf("p%d", i), int64((i+1)*150))
	}

	c := New()
	expected := map[string]int{}

	for step := 0; step < 2000; step++ {
		p := products[rng.Intn(len(products))]
		switch rng.Intn(3) {
		case 0:
			c.AddItem(p)
			expected[p.ProductID]++
		case 1:
			c.RemoveItem(p.ProductID)
			delete(expected, p.ProductID)
		case 2:
			n := rng.Intn(6) - 2
			c.UpdateQuantity(p.ProductID, n)
			if n <= 0 {
				delete(expected, p.ProductID)
			} else if _, ok := expected[p.ProductID]; ok {
				expected[p.ProductID] = n
			}
		}

		sum := 0
		total := decimal.Zero
		for _, item := range c.Items() {
			assert.Greater(t, item.Quantity, 0)
			sum += item.Quantity
			total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
		require.Equal(t, sum, c.ItemCount())
		require.True(t, total.Equal(c.TotalPrice()))

		expectedTotal := decimal.Zero
		for _, p := range products {
			if qty, ok := expected[p.ProductID]; ok {
				expectedTotal = expectedTotal.Add(p.Price.Mul(decimal.NewFromInt(int64(qty))))
			}
		}
		require.True(t, expectedTotal.Equal(c.TotalPrice()), "step %d", step)
		require.Len(t, c.Items(), len(expected))
	}
}
