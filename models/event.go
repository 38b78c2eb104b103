package models

// Order events published to RabbitMQ after a checkout commits.
const (
	OrderEventCreated = "created"
)

// OrderEvent is the message payload on the order event queue
type OrderEvent struct {
	Event   string `json:"event"`    // created
	OrderID int64  `json:"order_id"` // ID in Postgres
	ShopID  int64  `json:"shop_id"`  // shop scope
}

// OrderFact is the row written to the analytics store for a submitted order
type OrderFact struct {
	OrderID       int64
	DateKey       string // ddMMYYYY
	ShopID        int64
	MerchID       int64
	VariantID     int64
	UserID        string
	Quantity      int64
	Revenue       float64
	PaymentMethod string // online | irl
	Paid          bool
}
