package db_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db/dbtest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type OrderRepoTestSuite struct {
	suite.Suite
	dao  *db.DbDao
	repo *db.OrderRepo
	ctx  context.Context
}

func (s *OrderRepoTestSuite) SetupTest() {
	s.dao = dbtest.NewDao(s.T())
	s.repo = db.NewOrderRepo(s.dao)
	s.ctx = context.Background()
}

func TestOrderRepoSuite(t *testing.T) {
	suite.Run(t, new(OrderRepoTestSuite))
}

func newOrder(id string, userID *string, createdAt time.Time) *model.Order {
	return &model.Order{
		OrderID:        id,
		UserID:         userID,
		CustomerName:   "Rahim",
		CustomerPhone:  "01700000000",
		Address:        "Road 1",
		City:           "Dhaka",
		Courier:        "pathao",
		PaymentMethod:  "cod",
		Subtotal:       decimal.NewFromInt(4300),
		DeliveryCharge: decimal.NewFromInt(60),
		Total:          decimal.NewFromInt(4360),
		Status:         model.OrderStatusPending,
		CreatedAt:      createdAt,
		OrderItems: []model.OrderItem{
			{ProductID: "p1", NameEn: "Necklace", Price: decimal.NewFromInt(2500), Quantity: 1},
			{ProductID: "p2", NameEn: "Bracelet", Price: decimal.NewFromInt(1800), Quantity: 1},
		},
	}
}

func strPtr(s string) *string { return &s }

func (s *OrderRepoTestSuite) TestCreateAndGet() {
	o := newOrder("ORD1", nil, time.Now())
	require.NoError(s.T(), s.repo.CreateOrderWithItems(s.ctx, o))

	got, err := s.repo.GetOrderByID(s.ctx, "ORD1")
	require.NoError(s.T(), err)
	require.Nil(s.T(), got.UserID)
	require.Equal(s.T(), model.OrderStatusPending, got.Status)
	require.True(s.T(), decimal.NewFromInt(4360).Equal(got.Total))
	require.Len(s.T(), got.OrderItems, 2)
	require.Equal(s.T(), "p1", got.OrderItems[0].ProductID)
	require.Equal(s.T(), "ORD1", got.OrderItems[1].OrderID)
}

func (s *OrderRepoTestSuite) TestCreateEmptyRejected() {
	o := newOrder("ORD1", nil, time.Now())
	o.OrderItems = nil
	require.ErrorIs(s.T(), s.repo.CreateOrderWithItems(s.ctx, o), db.ErrEmptyOrder)
}

// 重複的 order id 造成主檔寫入失敗時，項目也不能留下
func (s *OrderRepoTestSuite) TestCreateIsAtomic() {
	require.NoError(s.T(), s.repo.CreateOrderWithItems(s.ctx, newOrder("ORD1", nil, time.Now())))
	require.Error(s.T(), s.repo.CreateOrderWithItems(s.ctx, newOrder("ORD1", nil, time.Now())))

	var count int64
	require.NoError(s.T(), s.dao.Model(&model.OrderItem{}).Count(&count).Error)
	require.EqualValues(s.T(), 2, count)
}

func (s *OrderRepoTestSuite) TestGetAllNewestFirst() {
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		o := newOrder(fmt.Sprintf("ORD%d", i), nil, base.Add(time.Duration(i)*time.Minute))
		require.NoError(s.T(), s.repo.CreateOrderWithItems(s.ctx, o))
	}

	orders, err := s.repo.GetAllOrders(s.ctx)
	require.NoError(s.T(), err)
	require.Len(s.T(), orders, 3)
	require.Equal(s.T(), "ORD2", orders[0].OrderID)
	require.Equal(s.T(), "ORD0", orders[2].OrderID)
	require.Len(s.T(), orders[0].OrderItems, 2)
}

func (s *OrderRepoTestSuite) TestGetByUserExcludesGuests() {
	require.NoError(s.T(), s.repo.CreateOrderWithItems(s.ctx, newOrder("ORD1", strPtr("u1"), time.Now())))
	require.NoError(s.T(), s.repo.CreateOrderWithItems(s.ctx, newOrder("ORD2", nil, time.Now())))
	require.NoError(s.T(), s.repo.CreateOrderWithItems(s.ctx, newOrder("ORD3", strPtr("u2"), time.Now())))

	orders, err := s.repo.GetOrdersByUserID(s.ctx, "u1")
	require.NoError(s.T(), err)
	require.Len(s.T(), orders, 1)
	require.Equal(s.T(), "ORD1", orders[0].OrderID)

	orders, err = s.repo.GetOrdersByUserID(s.ctx, "")
	require.NoError(s.T(), err)
	require.Empty(s.T(), orders)
}

func (s *OrderRepoTestSuite) TestUpdateStatus() {
	require.NoError(s.T(), s.repo.CreateOrderWithItems(s.ctx, newOrder("ORD1", nil, time.Now())))
	require.NoError(s.T(), s.repo.UpdateOrderStatus(s.ctx, "ORD1", model.OrderStatusShipped))

	got, err := s.repo.GetOrderByID(s.ctx, "ORD1")
	require.NoError(s.T(), err)
	require.Equal(s.T(), model.OrderStatusShipped, got.Status)

	require.ErrorIs(s.T(), s.repo.UpdateOrderStatus(s.ctx, "nope", model.OrderStatusShipped), db.ErrOrderNotFound)
}

func (s *OrderRepoTestSuite) TestHardDelete() {
	require.NoError(s.T(), s.repo.CreateOrderWithItems(s.ctx, newOrder("ORD1", nil, time.Now())))
	require.NoError(s.T(), s.repo.HardDeleteOrder(s.ctx, "ORD1"))

	_, err := s.repo.GetOrderByID(s.ctx, "ORD1")
	require.ErrorIs(s.T(), err, db.ErrOrderNotFound)

	var count int64
	require.NoError(s.T(), s.dao.Model(&model.OrderItem{}).Count(&count).Error)
	require.Zero(s.T(), count)

	require.ErrorIs(s.T(), s.repo.HardDeleteOrder(s.ctx, "ORD1"), db.ErrOrderNotFound)
}
