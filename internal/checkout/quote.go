package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"campusmerch/internal/auth"
	"campusmerch/models"
)

// Quote is the price a member would pay for a cart item.
type Quote struct {
	CartItemID      int64           `json:"cart_item_id"`
	VariantID       int64           `json:"variant_id"`
	Quantity        int64           `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Total           decimal.Decimal `json:"total"`
	Membership      bool            `json:"membership"`
	OnlinePayment   bool            `json:"online_payment"`
	PhysicalPayment bool            `json:"physical_payment"`
}

// Quote prices a cart item for the signed-in user without writing anything.
func (s *Service) Quote(ctx context.Context, cartItemID int64) (*Quote, error) {
	session, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}
	item, err := s.findCartItem(ctx, session.UserID, cartItemID)
	if err != nil {
		return nil, err
	}
	return s.quote(ctx, session.UserID, item)
}

// quote applies the membership price when the user belongs to the item's
// shop. A failed lookup is an error, not a membership.
func (s *Service) quote(ctx context.Context, userID uuid.UUID, item *models.CartLineItem) (*Quote, error) {
	variant, ok := item.Variant()
	if !ok {
		return nil, ErrVariantNotFound
	}

	member, err := s.repo.HasMembership(ctx, userID, item.ShopID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMembershipLookup, err)
	}

	unit := variant.OriginalPrice
	if member {
		unit = variant.MembershipPrice
	}

	return &Quote{
		CartItemID:      item.ID,
		VariantID:       variant.ID,
		Quantity:        item.Quantity,
		UnitPrice:       unit,
		Total:           unit.Mul(decimal.NewFromInt(item.Quantity)),
		Membership:      member,
		OnlinePayment:   item.Merchandise.OnlinePayment,
		PhysicalPayment: item.Merchandise.PhysicalPayment,
	}, nil
}
