package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campusmerch/internal/checkout"
	"campusmerch/pkg/apperror"
	"campusmerch/pkg/logger"
)

// CheckoutService is the checkout flow as seen by HTTP handlers.
type CheckoutService interface {
	Submit(ctx context.Context, req checkout.Request) (*checkout.Result, error)
	SubmitAll(ctx context.Context, reqs []checkout.Request) []checkout.ItemResult
	Quote(ctx context.Context, cartItemID int64) (*checkout.Quote, error)
}

var allowedReceiptTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

type CheckoutHandler struct {
	svc             CheckoutService
	receiptMaxBytes int64
}

func NewCheckoutHandler(svc CheckoutService, receiptMaxBytes int64) *CheckoutHandler {
	return &CheckoutHandler{svc: svc, receiptMaxBytes: receiptMaxBytes}
}

// Quote handles GET /cart/:id/quote
func (h *CheckoutHandler) Quote(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		_ = c.Error(apperror.BadRequest("Invalid cart item ID", err))
		return
	}

	q, err := h.svc.Quote(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(checkoutError(err))
		return
	}
	c.JSON(http.StatusOK, q)
}

// Submit handles POST /cart/:id/checkout
func (h *CheckoutHandler) Submit(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		_ = c.Error(apperror.BadRequest("Invalid cart item ID", err))
		return
	}

	req := checkout.Request{
		CartItemID:    id,
		PaymentMethod: checkout.PaymentMethod(c.PostForm("payment_method")),
	}
	if req.PaymentMethod == checkout.PaymentOnline {
		if req.Receipt, err = h.readReceipt(c, "receipt"); err != nil {
			_ = c.Error(err)
			return
		}
	}

	res, err := h.svc.Submit(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(checkoutError(err))
		return
	}
	c.JSON(http.StatusCreated, res)
}

type batchItem struct {
	CartItemID    int64  `json:"cart_item_id"`
	PaymentMethod string `json:"payment_method"`
}

type batchResult struct {
	CartItemID int64            `json:"cart_item_id"`
	OK         bool             `json:"ok"`
	Order      *checkout.Result `json:"order,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// SubmitAll handles POST /checkout. Items are submitted independently;
// the response reports each one.
func (h *CheckoutHandler) SubmitAll(c *gin.Context) {
	var items []batchItem
	if err := json.Unmarshal([]byte(c.PostForm("items")), &items); err != nil || len(items) == 0 {
		_ = c.Error(apperror.BadRequest("items must be a non-empty JSON array", err))
		return
	}

	reqs := make([]checkout.Request, 0, len(items))
	for _, it := range items {
		req := checkout.Request{
			CartItemID:    it.CartItemID,
			PaymentMethod: checkout.PaymentMethod(it.PaymentMethod),
		}
		if req.PaymentMethod == checkout.PaymentOnline {
			receipt, err := h.readReceipt(c, fmt.Sprintf("receipt_%d", it.CartItemID))
			if err != nil {
				_ = c.Error(err)
				return
			}
			req.Receipt = receipt
		}
		reqs = append(reqs, req)
	}

	results := h.svc.SubmitAll(c.Request.Context(), reqs)

	out := make([]batchResult, 0, len(results))
	for _, r := range results {
		br := batchResult{CartItemID: r.CartItemID, OK: r.Err == nil, Order: r.Result}
		if r.Err != nil {
			br.Error = checkoutError(r.Err).Message
		}
		out = append(out, br)
	}
	c.JSON(http.StatusOK, gin.H{"results": out})
}

// readReceipt returns nil when the form has no file under field. Only online
// payments carry a receipt; files sent with other methods are never read.
func (h *CheckoutHandler) readReceipt(c *gin.Context, field string) (*checkout.ReceiptImage, error) {
	fh, err := c.FormFile(field)
	if err == http.ErrMissingFile || err == http.ErrNotMultipart {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.BadRequest("Invalid receipt upload", err)
	}
	if fh.Size > h.receiptMaxBytes {
		return nil, apperror.New(http.StatusRequestEntityTooLarge,
			fmt.Sprintf("Receipt image must be at most %d bytes", h.receiptMaxBytes), nil)
	}

	data, err := readAll(fh, h.receiptMaxBytes)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to read receipt upload", err, zap.String("field", field))
		return nil, apperror.BadRequest("Invalid receipt upload", err)
	}

	contentType := http.DetectContentType(data)
	if !allowedReceiptTypes[contentType] {
		return nil, apperror.New(http.StatusUnsupportedMediaType, "Receipt must be a JPEG, PNG or GIF image", nil)
	}
	return &checkout.ReceiptImage{Data: data, ContentType: contentType}, nil
}

func readAll(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("receipt exceeds %d bytes", limit)
	}
	return data, nil
}
