package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/domain/checkout"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	evt_model "github.com/RoyceAzure/lab/storefront/internal/domain/model/event"
	"github.com/RoyceAzure/lab/storefront/internal/feed"
	"github.com/RoyceAzure/lab/storefront/internal/infra/media"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type ProductSort string

const (
	SortNewest    ProductSort = "newest"
	SortPriceAsc  ProductSort = "price_asc"
	SortPriceDesc ProductSort = "price_desc"
	SortRating    ProductSort = "rating"
)

func ParseProductSort(s string) (ProductSort, bool) {
	switch ProductSort(s) {
	case "":
		return SortNewest, true
	case SortNewest, SortPriceAsc, SortPriceDesc, SortRating:
		return ProductSort(s), true
	default:
		return "", false
	}
}

type ProductQuery struct {
	Query       string
	Category    model.Category
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	InStockOnly bool
	Sort        ProductSort
}

// ProductInput 新增與修改共用
type ProductInput struct {
	NameEn        string           `json:"name_en" validate:"required"`
	NameBn        string           `json:"name_bn"`
	DescriptionEn string           `json:"description_en"`
	DescriptionBn string           `json:"description_bn"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price"`
	Category      model.Category   `json:"category" validate:"required"`
	Images        []string         `json:"images" validate:"omitempty,dive,url"`
	StockCount    int              `json:"stock_count" validate:"gte=0"`
	Rating        float64          `json:"rating" validate:"gte=0,lte=5"`
	ReviewCount   int              `json:"review_count" validate:"gte=0"`
	IsNew         bool             `json:"is_new"`
	IsSale        bool             `json:"is_sale"`
}

type ICatalogService interface {
	Refresh(ctx context.Context) error
	Run(ctx context.Context)
	All() []model.Product
	Get(ctx context.Context, id string) (*model.Product, error)
	Featured(limit int) []model.Product
	ByCategory(category model.Category) []model.Product
	Search(q ProductQuery) []model.Product
	CreateProduct(ctx context.Context, in ProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, id string, in ProductInput) (*model.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	AttachImage(ctx context.Context, id string, r io.Reader) (*model.Product, error)
}

// catalogSnapshot 建立後不再修改，整份替換
type catalogSnapshot struct {
	products []model.Product
	index    map[string]int
}

func newCatalogSnapshot(products []model.Product) *catalogSnapshot {
	s := &catalogSnapshot{products: products, index: make(map[string]int, len(products))}
	for i := range products {
		s.index[products[i].ProductID] = i
	}
	return s
}

// CatalogService 商品讀取走記憶體 snapshot，收到 products 訊號整份重抓
type CatalogService struct {
	repo          db.IProductRepository
	images        media.ImageStore
	publisher     feed.Publisher
	hub           *feed.Hub
	validate      *validator.Validate
	featuredLimit int
	snapshot      atomic.Pointer[catalogSnapshot]
}

var _ ICatalogService = (*CatalogService)(nil)

func NewCatalogService(repo db.IProductRepository, images media.ImageStore, publisher feed.Publisher, hub *feed.Hub, featuredLimit int) *CatalogService {
	if repo == nil {
		panic("catalog service dependency product repo is nil")
	}
	if images == nil {
		images = media.NoopStore{}
	}
	if featuredLimit <= 0 {
		featuredLimit = 8
	}
	s := &CatalogService{
		repo:          repo,
		images:        images,
		publisher:     publisher,
		hub:           hub,
		validate:      checkout.NewValidator(),
		featuredLimit: featuredLimit,
	}
	s.snapshot.Store(newCatalogSnapshot(nil))
	return s
}

func (s *CatalogService) Refresh(ctx context.Context) error {
	products, err := s.repo.GetAllProducts(ctx)
	if err != nil {
		return fmt.Errorf("refresh catalog: %w", err)
	}
	s.snapshot.Store(newCatalogSnapshot(products))
	return nil
}

// Run 阻塞直到 ctx 結束
func (s *CatalogService) Run(ctx context.Context) {
	if s.hub == nil {
		<-ctx.Done()
		return
	}
	s.hub.Watch(ctx, func(ctx context.Context, e *evt_model.ChangeEvent) {
		if err := s.Refresh(ctx); err != nil {
			log.Error().Err(err).Msg("catalog refresh on signal failed")
		}
	}, evt_model.TableProducts)
}

func (s *CatalogService) current() *catalogSnapshot {
	return s.snapshot.Load()
}

func copyProducts(in []model.Product) []model.Product {
	out := make([]model.Product, len(in))
	copy(out, in)
	return out
}

func (s *CatalogService) All() []model.Product {
	return copyProducts(s.current().products)
}

// Get snapshot 沒有時再查一次 DB，避免剛建立的商品查不到
func (s *CatalogService) Get(ctx context.Context, id string) (*model.Product, error) {
	snap := s.current()
	if idx, ok := snap.index[id]; ok {
		p := snap.products[idx]
		return &p, nil
	}
	p, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrProductNotFound) {
			return nil, apperr.NotFound("product not found")
		}
		return nil, err
	}
	return p, nil
}

// Featured 有庫存，新到舊
func (s *CatalogService) Featured(limit int) []model.Product {
	if limit <= 0 {
		limit = s.featuredLimit
	}
	out := make([]model.Product, 0, limit)
	for _, p := range s.current().products {
		if !p.InStock {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out
}

func (s *CatalogService) ByCategory(category model.Category) []model.Product {
	return s.Search(ProductQuery{Category: category})
}

func (s *CatalogService) Search(q ProductQuery) []model.Product {
	text := strings.ToLower(strings.TrimSpace(q.Query))
	out := make([]model.Product, 0)
	for _, p := range s.current().products {
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		if q.InStockOnly && !p.InStock {
			continue
		}
		if q.MinPrice != nil && p.Price.LessThan(*q.MinPrice) {
			continue
		}
		if q.MaxPrice != nil && p.Price.GreaterThan(*q.MaxPrice) {
			continue
		}
		if text != "" &&
			!strings.Contains(strings.ToLower(p.NameEn), text) &&
			!strings.Contains(strings.ToLower(p.NameBn), text) {
			continue
		}
		out = append(out, p)
	}
	sortProducts(out, q.Sort)
	return out
}

// snapshot 已是新到舊，newest 不需再排
func sortProducts(products []model.Product, by ProductSort) {
	switch by {
	case SortPriceAsc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price.LessThan(products[j].Price)
		})
	case SortPriceDesc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price.GreaterThan(products[j].Price)
		})
	case SortRating:
		sort.SliceStable(products, func(i, j int) bool {
			if products[i].Rating != products[j].Rating {
				return products[i].Rating > products[j].Rating
			}
			return products[i].ReviewCount > products[j].ReviewCount
		})
	}
}

func (s *CatalogService) validateInput(in *ProductInput) error {
	in.NameEn = strings.TrimSpace(in.NameEn)
	in.NameBn = strings.TrimSpace(in.NameBn)
	in.Category = model.Category(strings.ToLower(strings.TrimSpace(string(in.Category))))

	fields := map[string]string{}
	if err := s.validate.Struct(in); err != nil {
		for f, msg := range checkout.FieldErrors(err) {
			fields[f] = msg
		}
	}
	if _, ok := fields["category"]; !ok && !in.Category.Valid() {
		fields["category"] = model.ErrInvalidCategory.Error()
	}
	if msg := priceError(in.Price, model.ErrInvalidPrice); msg != "" {
		fields["price"] = msg
	}
	if in.OriginalPrice != nil {
		if msg := priceError(*in.OriginalPrice, model.ErrInvalidOriginalPrice); msg != "" {
			fields["original_price"] = msg
		}
	}
	if len(fields) > 0 {
		return apperr.Validation(fields)
	}
	return nil
}

// priceError 必須 > 0 且可以原樣存入 decimal(10,2)
func priceError(d decimal.Decimal, notPositive error) string {
	switch {
	case !d.IsPositive():
		return notPositive.Error()
	case !model.MoneyScaleOK(d):
		return model.ErrPriceScale.Error()
	case !model.MoneyFits(d, model.PriceDigits):
		return model.ErrPriceTooLarge.Error()
	}
	return ""
}

func applyInput(p *model.Product, in ProductInput) {
	p.NameEn = in.NameEn
	p.NameBn = in.NameBn
	p.DescriptionEn = in.DescriptionEn
	p.DescriptionBn = in.DescriptionBn
	p.Price = in.Price
	p.OriginalPrice = in.OriginalPrice
	p.Category = in.Category
	p.StockCount = in.StockCount
	p.Rating = in.Rating
	p.ReviewCount = in.ReviewCount
	p.IsNew = in.IsNew
	p.IsSale = in.IsSale
	if in.Images != nil {
		p.Images = in.Images
	}
	if p.Images == nil {
		p.Images = []string{}
	}
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*model.Product, error) {
	if err := s.validateInput(&in); err != nil {
		return nil, err
	}
	p := &model.Product{ProductID: uuid.NewString()}
	applyInput(p, in)
	if err := p.Validate(); err != nil {
		return nil, apperr.Wrap(apperr.BadRequestCode, err.Error(), err)
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	s.upsertLocal(*p)
	publishChange(ctx, s.publisher, evt_model.TableProducts, evt_model.OpInsert, p.ProductID)
	return p, nil
}

// UpdateProduct images 為 nil 時保留原本的圖片
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, in ProductInput) (*model.Product, error) {
	if err := s.validateInput(&in); err != nil {
		return nil, err
	}
	p, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrProductNotFound) {
			return nil, apperr.NotFound("product not found")
		}
		return nil, err
	}
	applyInput(p, in)
	if err := p.Validate(); err != nil {
		return nil, apperr.Wrap(apperr.BadRequestCode, err.Error(), err)
	}
	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		if errors.Is(err, db.ErrProductNotFound) {
			return nil, apperr.NotFound("product not found")
		}
		return nil, err
	}
	s.upsertLocal(*p)
	publishChange(ctx, s.publisher, evt_model.TableProducts, evt_model.OpUpdate, p.ProductID)
	return p, nil
}

// DeleteProduct 歷史訂單的項目是快照，不受影響
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	p, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrProductNotFound) {
			return apperr.NotFound("product not found")
		}
		return err
	}
	if err := s.repo.HardDeleteProduct(ctx, id); err != nil {
		if errors.Is(err, db.ErrProductNotFound) {
			return apperr.NotFound("product not found")
		}
		return err
	}
	for _, publicID := range p.ImagePublicIDs {
		if err := s.images.Destroy(ctx, publicID); err != nil {
			log.Warn().Err(err).Str("public_id", publicID).Msg("destroy product image failed")
		}
	}
	s.removeLocal(id)
	publishChange(ctx, s.publisher, evt_model.TableProducts, evt_model.OpDelete, id)
	return nil
}

// AttachImage 驗證圖片後上傳，附加在圖片列表最後
// 寫入 DB 失敗時刪除已上傳的圖片
func (s *CatalogService) AttachImage(ctx context.Context, id string, r io.Reader) (*model.Product, error) {
	p, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrProductNotFound) {
			return nil, apperr.NotFound("product not found")
		}
		return nil, err
	}

	data, _, err := media.ReadImage(r, constants.MaxImageUploadBytes)
	if err != nil {
		if errors.Is(err, media.ErrImageTooLarge) || errors.Is(err, media.ErrUnsupportedImage) || errors.Is(err, media.ErrEmptyImage) {
			return nil, apperr.Validation(map[string]string{"file": err.Error()})
		}
		return nil, err
	}

	res, err := s.images.Upload(ctx, bytes.NewReader(data), fmt.Sprintf("%s-%s", id, uuid.NewString()[:8]))
	if err != nil {
		return nil, fmt.Errorf("upload product image: %w", err)
	}

	p.Images = append(p.Images, res.URL)
	p.ImagePublicIDs = append(p.ImagePublicIDs, res.PublicID)
	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		if derr := s.images.Destroy(ctx, res.PublicID); derr != nil {
			log.Warn().Err(derr).Str("public_id", res.PublicID).Msg("cleanup uploaded image failed")
		}
		return nil, err
	}
	s.upsertLocal(*p)
	publishChange(ctx, s.publisher, evt_model.TableProducts, evt_model.OpUpdate, p.ProductID)
	return p, nil
}

// upsertLocal 自己的寫入立即反映，不等訊號
func (s *CatalogService) upsertLocal(p model.Product) {
	for {
		old := s.current()
		products := make([]model.Product, 0, len(old.products)+1)
		if idx, ok := old.index[p.ProductID]; ok {
			products = append(products, old.products...)
			products[idx] = p
		} else {
			products = append(products, p)
			products = append(products, old.products...)
		}
		if s.snapshot.CompareAndSwap(old, newCatalogSnapshot(products)) {
			return
		}
	}
}

func (s *CatalogService) removeLocal(id string) {
	for {
		old := s.current()
		idx, ok := old.index[id]
		if !ok {
			return
		}
		products := make([]model.Product, 0, len(old.products)-1)
		products = append(products, old.products[:idx]...)
		products = append(products, old.products[idx+1:]...)
		if s.snapshot.CompareAndSwap(old, newCatalogSnapshot(products)) {
			return
		}
	}
}
