package api

import (
	"errors"
	"net/http"

	"campusmerch/internal/checkout"
	"campusmerch/pkg/apperror"
)

var checkoutErrors = []struct {
	target  error
	code    int
	message string
}{
	{checkout.ErrUnauthenticated, http.StatusUnauthorized, "Unauthorized"},
	{checkout.ErrInvalidReceipt, http.StatusUnprocessableEntity, "Invalid receipt"},
	{checkout.ErrReceiptUnreadable, http.StatusUnprocessableEntity, "Could not read the receipt image"},
	{checkout.ErrMissingReceipt, http.StatusBadRequest, "Upload a payment receipt for online payment"},
	{checkout.ErrNoPaymentMethod, http.StatusBadRequest, "Select a payment method"},
	{checkout.ErrPaymentMethodNotAccepted, http.StatusBadRequest, "This item does not accept the selected payment method"},
	{checkout.ErrInvalidQuantity, http.StatusBadRequest, "Invalid quantity"},
	{checkout.ErrCartItemNotFound, http.StatusNotFound, "Cart item not found"},
	{checkout.ErrVariantNotFound, http.StatusNotFound, "Variant not found"},
	{checkout.ErrStorageUpload, http.StatusBadGateway, "Failed to upload the receipt image"},
}

// checkoutError maps a checkout failure to the message shown to the member.
func checkoutError(err error) *apperror.Error {
	for _, e := range checkoutErrors {
		if errors.Is(err, e.target) {
			return apperror.New(e.code, e.message, err)
		}
	}
	return apperror.Internal(err)
}
