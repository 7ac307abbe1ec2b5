package checkout

import (
	"github.com/shopspring/decimal"
)

// Courier 固定運費的物流商
type Courier struct {
	ID     string          `json:"id"`
	NameEn string          `json:"name_en"`
	NameBn string          `json:"name_bn"`
	Fee    decimal.Decimal `json:"fee"`
}

type PaymentMethod struct {
	ID     string `json:"id"`
	NameEn string `json:"name_en"`
	NameBn string `json:"name_bn"`
}

const (
	CourierPathao    = "pathao"
	CourierSteadfast = "steadfast"
	CourierRedX      = "redx"
	CourierSundarban = "sundarban"

	PaymentCOD    = "cod"
	PaymentBkash  = "bkash"
	PaymentNagad  = "nagad"
	PaymentRocket = "rocket"
)

var couriers = []Courier{
	{ID: CourierPathao, NameEn: "Pathao", NameBn: "পাঠাও", Fee: decimal.NewFromInt(60)},
	{ID: CourierSteadfast, NameEn: "Steadfast", NameBn: "স্টেডফাস্ট", Fee: decimal.NewFromInt(60)},
	{ID: CourierRedX, NameEn: "RedX", NameBn: "রেডএক্স", Fee: decimal.NewFromInt(80)},
	{ID: CourierSundarban, NameEn: "Sundarban Courier", NameBn: "সুন্দরবন কুরিয়ার", Fee: decimal.NewFromInt(120)},
}

var paymentMethods = []PaymentMethod{
	{ID: PaymentCOD, NameEn: "Cash on Delivery", NameBn: "ক্যাশ অন ডেলিভারি"},
	{ID: PaymentBkash, NameEn: "bKash", NameBn: "বিকাশ"},
	{ID: PaymentNagad, NameEn: "Nagad", NameBn: "নগদ"},
	{ID: PaymentRocket, NameEn: "Rocket", NameBn: "রকেট"},
}

func Couriers() []Courier {
	out := make([]Courier, len(couriers))
	copy(out, couriers)
	return out
}

func PaymentMethods() []PaymentMethod {
	out := make([]PaymentMethod, len(paymentMethods))
	copy(out, paymentMethods)
	return out
}

func LookupCourier(id string) (Courier, bool) {
	for _, c := range couriers {
		if c.ID == id {
			return c, true
		}
	}
	return Courier{}, false
}

func LookupPaymentMethod(id string) (PaymentMethod, bool) {
	for _, m := range paymentMethods {
		if m.ID == id {
			return m, true
		}
	}
	return PaymentMethod{}, false
}
