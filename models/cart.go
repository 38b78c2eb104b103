package models

import (
	"time"

	"github.com/google/uuid"
)

// CartLineItem lives in the cart until it is removed or turned into an Order.
type CartLineItem struct {
	ID          int64       `gorm:"primaryKey" json:"id"`
	UserID      uuid.UUID   `gorm:"type:uuid;index" json:"user_id"`
	MerchID     int64       `gorm:"column:merch_id" json:"merch_id"`
	VariantID   int64       `gorm:"column:variant_id" json:"variant_id"`
	ShopID      int64       `gorm:"column:shop_id" json:"shop_id"`
	Quantity    int64       `json:"quantity"`
	CreatedAt   time.Time   `json:"created_at"`
	Merchandise Merchandise `gorm:"foreignKey:MerchID" json:"merchandises"`
	Shop        Shop        `gorm:"foreignKey:ShopID" json:"shops"`
}

func (CartLineItem) TableName() string { return "cart_orders" }

// Variant returns the merchandise variant the line item refers to.
func (c *CartLineItem) Variant() (*Variant, bool) {
	for i := range c.Merchandise.Variants {
		if c.Merchandise.Variants[i].ID == c.VariantID {
			return &c.Merchandise.Variants[i], true
		}
	}
	return nil, false
}
