package model

import "time"

type Setting struct {
	Key       string    `gorm:"primaryKey;type:varchar(128)" json:"key"`
	Value     string    `gorm:"not null;type:text" json:"value"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// 常用設定 key
const (
	SettingSiteName      = "site_name"
	SettingHeroTitleEn   = "hero_title_en"
	SettingHeroTitleBn   = "hero_title_bn"
	SettingContactPhone  = "contact_phone"
	SettingContactEmail  = "contact_email"
	SettingContactAddr   = "contact_address"
	SettingShowNewBadge  = "feature_new_arrivals"
	SettingShowSaleBadge = "feature_sale"
	SettingReviews       = "feature_reviews"
)

// PaymentEnabledKey payment_<method>_enabled
func PaymentEnabledKey(method string) string {
	return "payment_" + method + "_enabled"
}
