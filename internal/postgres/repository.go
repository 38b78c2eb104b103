package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"campusmerch/internal/checkout"
	"campusmerch/models"
)

var ErrOrderNotFound = errors.New("order not found")

// Repository is the gorm implementation of checkout.Repository.
type Repository struct {
	db *gorm.DB
}

var _ checkout.Repository = (*Repository)(nil)

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Transact runs fn inside a database transaction. fn's error rolls it back.
func (r *Repository) Transact(ctx context.Context, fn func(repo checkout.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// FindCartItem loads a user's cart item with its merchandise variants and shop.
func (r *Repository) FindCartItem(ctx context.Context, userID uuid.UUID, cartItemID int64) (*models.CartLineItem, error) {
	var item models.CartLineItem
	err := r.db.WithContext(ctx).
		Preload("Merchandise.Variants").
		Preload("Shop").
		Where("id = ? AND user_id = ?", cartItemID, userID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, checkout.ErrCartItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// HasMembership treats the presence of a membership row as authoritative.
func (r *Repository) HasMembership(ctx context.Context, userID uuid.UUID, shopID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("user_id = ? AND shop_id = ?", userID, shopID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) CreateOrderStatus(ctx context.Context, status *models.OrderStatus) error {
	return r.db.WithContext(ctx).Create(status).Error
}

func (r *Repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit("Status").Create(order).Error
}

func (r *Repository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *Repository) CreateReceipt(ctx context.Context, receipt *models.Receipt) error {
	return r.db.WithContext(ctx).Create(receipt).Error
}

func (r *Repository) DeleteCartItem(ctx context.Context, userID uuid.UUID, cartItemID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", cartItemID, userID).
		Delete(&models.CartLineItem{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *Repository) CreateShopNotification(ctx context.Context, n *models.ShopNotification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

// FindOrder loads an order with its status.
func (r *Repository) FindOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Status").First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}
