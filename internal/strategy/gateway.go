package strategy

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Satis-Foundation/Sigma-mining/pkg/model"
)

// VenueGateway is the capability surface the strategy needs from the venue.
// The SATIS client implements it; tests substitute a recording fake.
// Transport, signing, retry, and throttling policy all live behind it.
type VenueGateway interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	ListTradingFees(ctx context.Context) ([]model.TradingFee, error)
	GetBalances(ctx context.Context) ([]model.Balance, error)
	GetPosition(ctx context.Context, productID string) (model.Position, error)
	GetMarkPrice(ctx context.Context, productID string) (decimal.Decimal, error)
	PlaceLimitOrder(ctx context.Context, intent model.OrderIntent) error
	PlaceMarketOrder(ctx context.Context, intent model.OrderIntent) error
	CancelOrders(ctx context.Context, productID, orderID string) error
	SetLeverage(ctx context.Context, productID string, leverage decimal.Decimal) error
	SetPositionRiskLimit(ctx context.Context, productID string, limit decimal.Decimal) error
}

// ReferencePriceSource supplies the price the two-sided quote straddles.
// A fair-price model can be plugged in here; the default falls back to the
// venue mark price.
type ReferencePriceSource interface {
	ReferencePrice(ctx context.Context, productID string) (decimal.Decimal, error)
}

// markPriceSource is the default ReferencePriceSource: the venue mark price.
type markPriceSource struct {
	gw VenueGateway
}

func (s markPriceSource) ReferencePrice(ctx context.Context, productID string) (decimal.Decimal, error) {
	return s.gw.GetMarkPrice(ctx, productID)
}
