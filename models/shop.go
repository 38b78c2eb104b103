package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Shop is a student organization's storefront.
type Shop struct {
	ID      int64  `gorm:"primaryKey" json:"id"`
	Name    string `json:"name"`
	Acronym string `json:"acronym"`
	LogoURL string `gorm:"column:logo_url" json:"logo_url"`
}

func (Shop) TableName() string { return "shops" }

// Merchandise is an item listed by a shop. The payment flags tell which
// checkout methods the shop accepts for it.
type Merchandise struct {
	ID                   int64     `gorm:"primaryKey" json:"id"`
	ShopID               int64     `gorm:"index" json:"shop_id"`
	Name                 string    `json:"name"`
	OnlinePayment        bool      `gorm:"column:online_payment" json:"online_payment"`
	PhysicalPayment      bool      `gorm:"column:physical_payment" json:"physical_payment"`
	ReceivingInformation string    `gorm:"column:receiving_information" json:"receiving_information"`
	Variants             []Variant `gorm:"foreignKey:MerchID" json:"variants"`
}

func (Merchandise) TableName() string { return "merchandises" }

// Variant is a purchasable configuration of a merchandise item.
type Variant struct {
	ID              int64           `gorm:"primaryKey" json:"id"`
	MerchID         int64           `gorm:"column:merch_id;index" json:"merch_id"`
	Name            string          `json:"name"`
	OriginalPrice   decimal.Decimal `gorm:"column:original_price;type:numeric(12,2)" json:"original_price"`
	MembershipPrice decimal.Decimal `gorm:"column:membership_price;type:numeric(12,2)" json:"membership_price"`
}

func (Variant) TableName() string { return "variants" }

// Membership grants a user discounted pricing at a shop.
type Membership struct {
	ID     int64     `gorm:"primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;index:idx_membership_user_shop" json:"user_id"`
	ShopID int64     `gorm:"index:idx_membership_user_shop" json:"shop_id"`
	Email  string    `json:"email"`
}

func (Membership) TableName() string { return "memberships" }
