package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the mutable lifecycle record of an Order.
type OrderStatus struct {
	ID           int64      `gorm:"primaryKey" json:"id"`
	Paid         bool       `json:"paid"`
	Received     bool       `json:"received"`
	ReceivedAt   *time.Time `json:"received_at"`
	Cancelled    bool       `json:"cancelled"`
	CancelledAt  *time.Time `json:"cancelled_at"`
	CancelReason *string    `json:"cancel_reason"`
}

func (OrderStatus) TableName() string { return "order_statuses" }

// Order is the immutable record of a purchase. Status changes go to OrderStatus.
type Order struct {
	ID              int64           `gorm:"primaryKey" json:"id"`
	UserID          uuid.UUID       `gorm:"type:uuid;index" json:"user_id"`
	MerchID         int64           `gorm:"column:merch_id" json:"merch_id"`
	VariantID       int64           `gorm:"column:variant_id" json:"variant_id"`
	ShopID          int64           `gorm:"column:shop_id;index" json:"shop_id"`
	StatusID        int64           `gorm:"column:status_id" json:"status_id"`
	Quantity        int64           `json:"quantity"`
	Price           decimal.Decimal `gorm:"type:numeric(12,2)" json:"price"`
	OnlinePayment   bool            `gorm:"column:online_payment" json:"online_payment"`
	PhysicalPayment bool            `gorm:"column:physical_payment" json:"physical_payment"`
	CreatedAt       time.Time       `json:"created_at"`
	Status          *OrderStatus    `gorm:"foreignKey:StatusID" json:"order_statuses,omitempty"`
}

func (Order) TableName() string { return "orders" }

// PaymentMethod reports how the order is settled.
func (o *Order) PaymentMethod() string {
	if o.OnlinePayment {
		return "online"
	}
	return "irl"
}

// Payment links an online Order to its uploaded receipt image.
type Payment struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	OrderID    int64     `gorm:"index" json:"order_id"`
	PictureURL string    `gorm:"column:picture_url" json:"picture_url"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Payment) TableName() string { return "payments" }

// Receipt holds the transaction fields read off a payment screenshot.
type Receipt struct {
	ID              int64           `gorm:"primaryKey" json:"id"`
	OrderID         int64           `gorm:"index" json:"order_id"`
	MobileNumber    string          `gorm:"column:mobile_number" json:"mobile_number"`
	Amount          decimal.Decimal `gorm:"type:numeric(12,2)" json:"amount"`
	ReferenceNumber string          `gorm:"column:reference_number" json:"reference_number"`
	TransactionDate string          `gorm:"column:transaction_date" json:"transaction_date"`
	CreatedAt       time.Time       `json:"created_at"`
}

func (Receipt) TableName() string { return "receipts" }

// ShopNotification is a message shown to a shop's officers.
type ShopNotification struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	OrderID   int64     `gorm:"index" json:"order_id"`
	ShopID    int64     `gorm:"index" json:"shop_id"`
	Message   string    `json:"message"`
	Seen      bool      `json:"seen"`
	CreatedAt time.Time `json:"created_at"`
}

func (ShopNotification) TableName() string { return "shop_notifications" }
