package checkout

import (
	"errors"
	"strings"
)

var (
	// ErrUnauthenticated means there is no signed-in user. Nothing is written.
	ErrUnauthenticated = errors.New("no authenticated session")
	// ErrInvalidReceipt means OCR text lacked a required transaction field.
	// Nothing is written.
	ErrInvalidReceipt           = errors.New("invalid receipt")
	ErrReceiptUnreadable        = errors.New("receipt could not be read")
	ErrMissingReceipt           = errors.New("online payment requires a receipt image")
	ErrNoPaymentMethod          = errors.New("no payment method selected")
	ErrPaymentMethodNotAccepted = errors.New("payment method not accepted for this item")
	ErrCartItemNotFound         = errors.New("cart item not found")
	ErrVariantNotFound          = errors.New("variant not found for cart item")
	ErrInvalidQuantity          = errors.New("quantity must be positive")
	ErrMembershipLookup         = errors.New("membership lookup failed")
	// ErrPersistence wraps a failed table write. The surrounding transaction
	// is rolled back.
	ErrPersistence = errors.New("failed to persist order")
	// ErrStorageUpload means the receipt image could not be stored. The order
	// is not created.
	ErrStorageUpload = errors.New("failed to upload receipt image")
)

// InvalidReceiptError lists the fields missing from a receipt.
type InvalidReceiptError struct {
	Missing []string
}

func (e *InvalidReceiptError) Error() string {
	if len(e.Missing) == 0 {
		return ErrInvalidReceipt.Error()
	}
	return ErrInvalidReceipt.Error() + ": missing " + strings.Join(e.Missing, ", ")
}

func (e *InvalidReceiptError) Is(target error) bool {
	return target == ErrInvalidReceipt
}
