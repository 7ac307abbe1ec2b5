package model

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Category string

const (
	CategoryJewelry     Category = "jewelry"
	CategoryAccessories Category = "accessories"
	CategoryClothing    Category = "clothing"
)

var Categories = []Category{CategoryJewelry, CategoryAccessories, CategoryClothing}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

var (
	ErrInvalidPrice         = errors.New("price must be greater than zero")
	ErrPriceScale           = errors.New("price must have at most 2 decimal places")
	ErrPriceTooLarge        = errors.New("price is too large")
	ErrInvalidOriginalPrice = errors.New("original price must be greater than zero")
	ErrInvalidStock         = errors.New("stock count must not be negative")
	ErrInvalidCategory      = errors.New("unknown category")
	ErrProductNameRequired  = errors.New("product name is required")
)

// 金額欄位: 商品/訂單項目單價 decimal(10,2)，訂單金額 decimal(12,2)
const (
	MoneyScale   int32 = 2
	PriceDigits  int32 = 10
	AmountDigits int32 = 12
)

// MoneyScaleOK 小數位數不超過 MoneyScale
func MoneyScaleOK(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyScale))
}

// MoneyFits 可以原樣存入 decimal(digits,2)，不會被捨入或溢位
func MoneyFits(d decimal.Decimal, digits int32) bool {
	return MoneyScaleOK(d) && d.Abs().LessThan(decimal.New(1, digits-MoneyScale))
}

// 商品
// InStock 由 StockCount 推導，每次存檔前重新計算
type Product struct {
	ProductID      string           `gorm:"primaryKey;type:varchar(64)" json:"product_id"`
	NameEn         string           `gorm:"not null;type:varchar(255)" json:"name_en"`
	NameBn         string           `gorm:"type:varchar(255)" json:"name_bn"`
	DescriptionEn  string           `gorm:"type:text" json:"description_en"`
	DescriptionBn  string           `gorm:"type:text" json:"description_bn"`
	Price          decimal.Decimal  `gorm:"not null;type:decimal(10,2)" json:"price"`
	OriginalPrice  *decimal.Decimal `gorm:"type:decimal(10,2)" json:"original_price,omitempty"`
	Category       Category         `gorm:"not null;type:varchar(32);index" json:"category"`
	Images         []string         `gorm:"serializer:json;type:text" json:"images"`
	ImagePublicIDs []string         `gorm:"serializer:json;type:text" json:"-"`
	StockCount     int              `gorm:"not null;default:0" json:"stock_count"`
	InStock        bool             `gorm:"not null;default:false;index" json:"in_stock"`
	Rating         float64          `gorm:"not null;default:0" json:"rating"`
	ReviewCount    int              `gorm:"not null;default:0" json:"review_count"`
	IsNew          bool             `gorm:"not null;default:false" json:"is_new"`
	IsSale         bool             `gorm:"not null;default:false" json:"is_sale"`
	BaseModel
}

// PrimaryImage 第一張圖為主圖
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

func (p *Product) Validate() error {
	if strings.TrimSpace(p.NameEn) == "" {
		return ErrProductNameRequired
	}
	if !p.Price.IsPositive() {
		return ErrInvalidPrice
	}
	if !MoneyScaleOK(p.Price) {
		return ErrPriceScale
	}
	if !MoneyFits(p.Price, PriceDigits) {
		return ErrPriceTooLarge
	}
	if p.OriginalPrice != nil && !p.OriginalPrice.IsPositive() {
		return ErrInvalidOriginalPrice
	}
	if p.OriginalPrice != nil && !MoneyFits(*p.OriginalPrice, PriceDigits) {
		return ErrInvalidOriginalPrice
	}
	if p.StockCount < 0 {
		return ErrInvalidStock
	}
	if !p.Category.Valid() {
		return ErrInvalidCategory
	}
	return nil
}

// BeforeSave GORM hook, 保持 InStock 與庫存一致
func (p *Product) BeforeSave(tx *gorm.DB) error {
	p.InStock = p.StockCount > 0
	return nil
}
