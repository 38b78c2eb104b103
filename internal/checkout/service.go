// Package checkout turns cart line items into orders.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"campusmerch/internal/auth"
	"campusmerch/internal/ocr"
	"campusmerch/internal/receipt"
	"campusmerch/models"
	"campusmerch/pkg/logger"
)

const NewOrderMessage = "You have a new order!"

type PaymentMethod string

const (
	PaymentNone     PaymentMethod = "none"
	PaymentInPerson PaymentMethod = "irl"
	PaymentOnline   PaymentMethod = "online"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentInPerson || m == PaymentOnline
}

// Repository is the persistence the checkout flow needs. Transact runs fn
// against a repository bound to one database transaction.
type Repository interface {
	Transact(ctx context.Context, fn func(repo Repository) error) error
	FindCartItem(ctx context.Context, userID uuid.UUID, cartItemID int64) (*models.CartLineItem, error)
	HasMembership(ctx context.Context, userID uuid.UUID, shopID int64) (bool, error)
	CreateOrderStatus(ctx context.Context, status *models.OrderStatus) error
	CreateOrder(ctx context.Context, order *models.Order) error
	CreatePayment(ctx context.Context, payment *models.Payment) error
	CreateReceipt(ctx context.Context, receipt *models.Receipt) error
	// DeleteCartItem reports false when no row was removed.
	DeleteCartItem(ctx context.Context, userID uuid.UUID, cartItemID int64) (bool, error)
	CreateShopNotification(ctx context.Context, n *models.ShopNotification) error
}

// ObjectStore holds uploaded receipt images.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, body []byte) (string, error)
	Delete(ctx context.Context, key string) error
}

// Publisher sends messages to a named queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, v any) error
}

type Options struct {
	EventQueue  string
	Concurrency int
}

type Service struct {
	repo        Repository
	extractor   ocr.Extractor
	objects     ObjectStore
	events      Publisher
	eventQueue  string
	concurrency int
	now         func() time.Time
}

// NewService wires the checkout flow. events may be nil.
func NewService(repo Repository, extractor ocr.Extractor, objects ObjectStore, events Publisher, opts Options) *Service {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &Service{
		repo:        repo,
		extractor:   extractor,
		objects:     objects,
		events:      events,
		eventQueue:  opts.EventQueue,
		concurrency: opts.Concurrency,
		now:         time.Now,
	}
}

type ReceiptImage struct {
	Data        []byte
	ContentType string
}

type Request struct {
	CartItemID    int64
	PaymentMethod PaymentMethod
	Receipt       *ReceiptImage
}

// Result describes a submitted order.
type Result struct {
	OrderID       int64            `json:"order_id"`
	StatusID      int64            `json:"status_id"`
	ShopID        int64            `json:"shop_id"`
	Price         decimal.Decimal  `json:"price"`
	Membership    bool             `json:"membership"`
	PaymentMethod PaymentMethod    `json:"payment_method"`
	PictureURL    string           `json:"picture_url,omitempty"`
	Receipt       *receipt.Details `json:"receipt,omitempty"`
}

// Submit converts one cart line item into an order. Either every row of the
// order is written and the cart item removed, or nothing is.
func (s *Service) Submit(ctx context.Context, req Request) (*Result, error) {
	session, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}
	if !req.PaymentMethod.Valid() {
		return nil, ErrNoPaymentMethod
	}
	online := req.PaymentMethod == PaymentOnline
	if online && (req.Receipt == nil || len(req.Receipt.Data) == 0) {
		return nil, ErrMissingReceipt
	}

	item, err := s.findCartItem(ctx, session.UserID, req.CartItemID)
	if err != nil {
		return nil, err
	}
	if online && !item.Merchandise.OnlinePayment || !online && !item.Merchandise.PhysicalPayment {
		return nil, ErrPaymentMethodNotAccepted
	}

	q, err := s.quote(ctx, session.UserID, item)
	if err != nil {
		return nil, err
	}

	res := &Result{
		ShopID:        item.ShopID,
		Price:         q.Total,
		Membership:    q.Membership,
		PaymentMethod: req.PaymentMethod,
	}

	var rec *models.Receipt
	if online {
		details, err := s.readReceipt(ctx, req.Receipt.Data)
		if err != nil {
			logger.Warn(ctx, "Rejected receipt", err, zap.Int64("cart_item_id", item.ID))
			return nil, err
		}
		amount, err := details.AmountValue()
		if err != nil {
			return nil, &InvalidReceiptError{Missing: []string{receipt.FieldAmount}}
		}
		res.Receipt = &details
		rec = &models.Receipt{
			MobileNumber:    *details.MobileNumber,
			Amount:          amount,
			ReferenceNumber: *details.ReferenceNumber,
			TransactionDate: *details.Date,
		}
	}

	var uploadedKey string
	err = s.repo.Transact(ctx, func(tx Repository) error {
		status := &models.OrderStatus{Paid: online}
		if err := tx.CreateOrderStatus(ctx, status); err != nil {
			return fmt.Errorf("%w: create order status: %w", ErrPersistence, err)
		}

		order := &models.Order{
			UserID:          session.UserID,
			MerchID:         item.MerchID,
			VariantID:       item.VariantID,
			ShopID:          item.ShopID,
			StatusID:        status.ID,
			Quantity:        item.Quantity,
			Price:           q.Total,
			OnlinePayment:   online,
			PhysicalPayment: !online,
		}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("%w: create order: %w", ErrPersistence, err)
		}
		res.OrderID = order.ID
		res.StatusID = status.ID

		if online {
			key := fmt.Sprintf("payment_%d_%d", order.ID, s.now().UnixMilli())
			url, err := s.objects.Upload(ctx, key, req.Receipt.ContentType, req.Receipt.Data)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrStorageUpload, err)
			}
			uploadedKey = key
			res.PictureURL = url

			if err := tx.CreatePayment(ctx, &models.Payment{OrderID: order.ID, PictureURL: url}); err != nil {
				return fmt.Errorf("%w: create payment: %w", ErrPersistence, err)
			}
			rec.OrderID = order.ID
			if err := tx.CreateReceipt(ctx, rec); err != nil {
				return fmt.Errorf("%w: create receipt: %w", ErrPersistence, err)
			}
		}

		deleted, err := tx.DeleteCartItem(ctx, session.UserID, item.ID)
		if err != nil {
			return fmt.Errorf("%w: delete cart item: %w", ErrPersistence, err)
		}
		if !deleted {
			// Another submission consumed the item first.
			return ErrCartItemNotFound
		}

		err = tx.CreateShopNotification(ctx, &models.ShopNotification{
			OrderID: order.ID,
			ShopID:  item.ShopID,
			Message: NewOrderMessage,
		})
		if err != nil {
			return fmt.Errorf("%w: create shop notification: %w", ErrPersistence, err)
		}
		return nil
	})
	if err != nil {
		if uploadedKey != "" {
			s.discardUpload(ctx, uploadedKey)
		}
		logger.Error(ctx, "Order submission failed", err,
			zap.Int64("cart_item_id", item.ID),
			zap.String("payment_method", string(req.PaymentMethod)))
		return nil, err
	}

	logger.Info(ctx, "Order submitted",
		zap.Int64("order_id", res.OrderID),
		zap.Int64("shop_id", res.ShopID),
		zap.String("payment_method", string(req.PaymentMethod)),
		zap.String("price", res.Price.StringFixed(2)))

	s.publishCreated(ctx, res)
	return res, nil
}

// ItemResult is the outcome of one item in a multi-item checkout.
type ItemResult struct {
	CartItemID int64
	Result     *Result
	Err        error
}

// SubmitAll submits every request concurrently. Items succeed or fail
// independently; results are in request order.
func (s *Service) SubmitAll(ctx context.Context, reqs []Request) []ItemResult {
	results := make([]ItemResult, len(reqs))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, req := range reqs {
		g.Go(func() error {
			res, err := s.Submit(ctx, req)
			results[i] = ItemResult{CartItemID: req.CartItemID, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (s *Service) findCartItem(ctx context.Context, userID uuid.UUID, cartItemID int64) (*models.CartLineItem, error) {
	item, err := s.repo.FindCartItem(ctx, userID, cartItemID)
	if err != nil {
		if errors.Is(err, ErrCartItemNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: find cart item: %w", ErrPersistence, err)
	}
	if item.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	return item, nil
}

func (s *Service) readReceipt(ctx context.Context, image []byte) (receipt.Details, error) {
	text, err := s.extractor.Extract(ctx, image)
	if err != nil {
		return receipt.Details{}, fmt.Errorf("%w: %w", ErrReceiptUnreadable, err)
	}

	details := receipt.Parse(text)
	if missing := details.Missing(); len(missing) > 0 {
		return details, &InvalidReceiptError{Missing: missing}
	}
	return details, nil
}

func (s *Service) discardUpload(ctx context.Context, key string) {
	if err := s.objects.Delete(context.WithoutCancel(ctx), key); err != nil {
		logger.Error(ctx, "Failed to remove orphaned receipt image", err, zap.String("key", key))
	}
}

func (s *Service) publishCreated(ctx context.Context, res *Result) {
	if s.events == nil || s.eventQueue == "" {
		return
	}
	evt := models.OrderEvent{
		Event:   models.OrderEventCreated,
		OrderID: res.OrderID,
		ShopID:  res.ShopID,
	}
	if err := s.events.Publish(ctx, s.eventQueue, evt); err != nil {
		logger.Warn(ctx, "Failed to publish order event", err, zap.Int64("order_id", res.OrderID))
	}
}
