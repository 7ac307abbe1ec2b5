package db_test

import (
	"context"
	"testing"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db/dbtest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ProductRepoTestSuite struct {
	suite.Suite
	repo *db.ProductRepo
	ctx  context.Context
}

func (s *ProductRepoTestSuite) SetupTest() {
	s.repo = db.NewProductRepo(dbtest.NewDao(s.T()))
	s.ctx = context.Background()
}

func TestProductRepoSuite(t *testing.T) {
	suite.Run(t, new(ProductRepoTestSuite))
}

func newProduct(id string, price int64, stock int) *model.Product {
	return &model.Product{
		ProductID:  id,
		NameEn:     "Product " + id,
		NameBn:     "পণ্য " + id,
		Price:      decimal.NewFromInt(price),
		Category:   model.CategoryJewelry,
		Images:     []string{"https://img/" + id + "/1.jpg", "https://img/" + id + "/2.jpg"},
		StockCount: stock,
	}
}

func (s *ProductRepoTestSuite) TestCreateAndGet() {
	p := newProduct("p1", 2500, 3)
	require.NoError(s.T(), s.repo.CreateProduct(s.ctx, p))

	got, err := s.repo.GetProductByID(s.ctx, "p1")
	require.NoError(s.T(), err)
	require.Equal(s.T(), "Product p1", got.NameEn)
	require.True(s.T(), decimal.NewFromInt(2500).Equal(got.Price))
	require.Equal(s.T(), p.Images, got.Images)
	require.True(s.T(), got.InStock)
	require.Nil(s.T(), got.OriginalPrice)
}

func (s *ProductRepoTestSuite) TestGetMissing() {
	_, err := s.repo.GetProductByID(s.ctx, "nope")
	require.ErrorIs(s.T(), err, db.ErrProductNotFound)
}

func (s *ProductRepoTestSuite) TestUpdateRecomputesInStock() {
	p := newProduct("p1", 100, 2)
	require.NoError(s.T(), s.repo.CreateProduct(s.ctx, p))

	p.StockCount = 0
	orig := decimal.NewFromInt(150)
	p.OriginalPrice = &orig
	require.NoError(s.T(), s.repo.UpdateProduct(s.ctx, p))

	got, err := s.repo.GetProductByID(s.ctx, "p1")
	require.NoError(s.T(), err)
	require.False(s.T(), got.InStock)
	require.NotNil(s.T(), got.OriginalPrice)
	require.True(s.T(), orig.Equal(*got.OriginalPrice))
}

func (s *ProductRepoTestSuite) TestUpdateMissing() {
	err := s.repo.UpdateProduct(s.ctx, newProduct("ghost", 100, 1))
	require.ErrorIs(s.T(), err, db.ErrProductNotFound)
}

func (s *ProductRepoTestSuite) TestDelete() {
	require.NoError(s.T(), s.repo.CreateProduct(s.ctx, newProduct("p1", 100, 1)))
	require.NoError(s.T(), s.repo.HardDeleteProduct(s.ctx, "p1"))
	require.ErrorIs(s.T(), s.repo.HardDeleteProduct(s.ctx, "p1"), db.ErrProductNotFound)

	all, err := s.repo.GetAllProducts(s.ctx)
	require.NoError(s.T(), err)
	require.Empty(s.T(), all)
}

func (s *ProductRepoTestSuite) TestGetAll() {
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(s.T(), s.repo.CreateProduct(s.ctx, newProduct(id, 100, 1)))
	}
	all, err := s.repo.GetAllProducts(s.ctx)
	require.NoError(s.T(), err)
	require.Len(s.T(), all, 3)
}
