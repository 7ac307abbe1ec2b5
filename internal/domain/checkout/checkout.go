package checkout

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/RoyceAzure/lab/storefront/internal/domain/cart"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	ErrUnknownCourier = errors.New("unknown courier")
	ErrEmptyCart      = errors.New("cart is empty")
	ErrInvalidPrice   = errors.New("cart contains an item with an invalid price")
	ErrTotalTooLarge  = errors.New("order total is too large")
)

// Input 結帳表單
type Input struct {
	CustomerName  string `json:"customer_name" validate:"required"`
	CustomerPhone string `json:"customer_phone" validate:"required"`
	CustomerEmail string `json:"customer_email" validate:"omitempty,email"`
	Address       string `json:"address" validate:"required"`
	City          string `json:"city" validate:"required"`
	Courier       string `json:"courier" validate:"required"`
	PaymentMethod string `json:"payment_method" validate:"required"`
	Notes         string `json:"notes"`
}

func (in *Input) normalize() {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerPhone = strings.TrimSpace(in.CustomerPhone)
	in.CustomerEmail = strings.TrimSpace(in.CustomerEmail)
	in.Address = strings.TrimSpace(in.Address)
	in.City = strings.TrimSpace(in.City)
	in.Courier = strings.ToLower(strings.TrimSpace(in.Courier))
	in.PaymentMethod = strings.ToLower(strings.TrimSpace(in.PaymentMethod))
	in.Notes = strings.TrimSpace(in.Notes)
}

// ValidationError field -> message
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

func (e *ValidationError) empty() bool {
	return len(e.Fields) == 0
}

// NewValidator 使用 json tag 作為欄位名稱
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FieldErrors 將 validator 錯誤轉成欄位訊息
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			out[fe.Field()] = "is required"
		case "email":
			out[fe.Field()] = "must be a valid email"
		default:
			out[fe.Field()] = "is invalid"
		}
	}
	return out
}

type Calculator struct {
	validate *validator.Validate
}

func NewCalculator() *Calculator {
	return &Calculator{validate: NewValidator()}
}

// Validate 任何一個欄位失敗都不允許建立訂單
// 回傳整理過(trim)的 input
func (c *Calculator) Validate(items []cart.Item, in Input) (Input, error) {
	in.normalize()
	verr := &ValidationError{}

	if len(items) == 0 {
		verr.add("cart", ErrEmptyCart.Error())
	}

	if err := c.validate.Struct(in); err != nil {
		for field, msg := range FieldErrors(err) {
			verr.add(field, msg)
		}
	}

	fee := decimal.Zero
	if in.Courier != "" {
		if courier, ok := LookupCourier(in.Courier); ok {
			fee = courier.Fee
		} else {
			verr.add("courier", "unknown courier")
		}
	}
	if err := checkAmounts(items, fee); err != nil {
		verr.add("cart", err.Error())
	}
	if in.PaymentMethod != "" {
		if _, ok := LookupPaymentMethod(in.PaymentMethod); !ok {
			verr.add("payment_method", "unknown payment method")
		}
	}

	if !verr.empty() {
		return in, verr
	}
	return in, nil
}

// checkAmounts 單價與金額必須可以原樣存入訂單欄位
func checkAmounts(items []cart.Item, fee decimal.Decimal) error {
	for _, item := range items {
		if !item.Price.IsPositive() || !model.MoneyFits(item.Price, model.PriceDigits) {
			return ErrInvalidPrice
		}
	}
	if !model.MoneyFits(Subtotal(items).Add(fee), model.AmountDigits) {
		return ErrTotalTooLarge
	}
	return nil
}

type Quote struct {
	Courier        string          `json:"courier"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DeliveryCharge decimal.Decimal `json:"delivery_charge"`
	Total          decimal.Decimal `json:"total"`
}

// Quote 總額 = 小計 + 物流固定運費
func (c *Calculator) Quote(items []cart.Item, courierID string) (Quote, error) {
	courier, ok := LookupCourier(strings.ToLower(strings.TrimSpace(courierID)))
	if !ok {
		return Quote{}, fmt.Errorf("%w: %q", ErrUnknownCourier, courierID)
	}
	subtotal := Subtotal(items)
	return Quote{
		Courier:        courier.ID,
		Subtotal:       subtotal,
		DeliveryCharge: courier.Fee,
		Total:          subtotal.Add(courier.Fee),
	}, nil
}

func Subtotal(items []cart.Item) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Amount())
	}
	return total
}
