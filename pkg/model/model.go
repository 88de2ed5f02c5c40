package model

import "github.com/shopspring/decimal"

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// OrderType is the execution type of an order.
type OrderType string

const (
	OrderTypeLimit  OrderType = "limit"
	OrderTypeMarket OrderType = "market"
)

// ProductStatusOnline is the lifecycle status of a tradable product.
const ProductStatusOnline = "online"

// Product is a tradable instrument on the venue.
type Product struct {
	ID             string `json:"id"`              // e.g. "BTC-PERP"
	Status         string `json:"status"`          // e.g. "online"
	SettleCurrency string `json:"settle_currency"` // e.g. "BTC"
}

// IsOnline reports whether the product is live and quotable.
func (p Product) IsOnline() bool {
	return p.Status == ProductStatusOnline
}

// TradingFee is the fee schedule for a single product.
type TradingFee struct {
	ProductID    string          `json:"product_id"`
	TakerFeeRate decimal.Decimal `json:"taker_fee_rate"` // fraction, e.g. 0.001
}

// Balance is the account balance for a single currency.
type Balance struct {
	Currency string          `json:"currency"`
	Locked   decimal.Decimal `json:"locked"` // lendable amount available to the strategy
}

// PositionSide is the derived direction of an open position.
type PositionSide string

const (
	PositionLong  PositionSide = "long"
	PositionShort PositionSide = "short"
	PositionFlat  PositionSide = "flat"
)

// Position is the open position state for a single product.
// The side is always derived from the signed size, never stored.
type Position struct {
	ProductID   string          `json:"product_id"`
	IsOpen      bool            `json:"is_open"`
	CurrentSize decimal.Decimal `json:"current_size"` // positive = long, negative = short
}

// Side derives the position direction from the signed size.
func (p Position) Side() PositionSide {
	switch {
	case p.CurrentSize.IsPositive():
		return PositionLong
	case p.CurrentSize.IsNegative():
		return PositionShort
	default:
		return PositionFlat
	}
}

// Ticker is a market data snapshot for a single product.
type Ticker struct {
	ProductID  string          `json:"product_id"`
	MarkPrice  decimal.Decimal `json:"mark_price"`
	IndexPrice decimal.Decimal `json:"index_price"`
	LastPrice  decimal.Decimal `json:"last_price"`
}

// OrderIntent is a single order instruction bound for the venue.
// Price is meaningful for limit orders only.
type OrderIntent struct {
	ProductID  string          `json:"product_id"`
	Side       Side            `json:"side"`
	Type       OrderType       `json:"type"`
	Size       decimal.Decimal `json:"size"`
	Price      decimal.Decimal `json:"price"`
	ReduceOnly bool            `json:"reduce_only"`
}
