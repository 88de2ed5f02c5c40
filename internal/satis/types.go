package satis

import "github.com/shopspring/decimal"

// Wire payloads for the SATIS REST API.
//
// The venue encodes most numeric fields as JSON strings. Every numeric field
// is decoded into decimal.Decimal at this boundary (it accepts both quoted
// and unquoted numbers), so nothing downstream ever coerces strings ad hoc.

// ProductResponse is one entry of GET /api/products.
type ProductResponse struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	SettleCurrency string `json:"settle_currency"`
}

// FeeResponse is one entry of GET /api/fees.
type FeeResponse struct {
	ProductID    string          `json:"product_id"`
	TakerFeeRate decimal.Decimal `json:"taker_fee_rate"`
	MakerFeeRate decimal.Decimal `json:"maker_fee_rate"`
}

// AccountResponse is one entry of GET /api/accounts.
type AccountResponse struct {
	Currency  string          `json:"currency"`
	Locked    decimal.Decimal `json:"locked"`
	Available decimal.Decimal `json:"available"`
}

// PositionResponse is the payload of GET /api/positions/{product_id}.
type PositionResponse struct {
	ProductID   string          `json:"product_id"`
	IsOpen      bool            `json:"is_open"`
	CurrentSize decimal.Decimal `json:"current_size"`
	EntryPrice  decimal.Decimal `json:"entry_price"`
}

// TickerResponse is the payload of GET /api/products/{product_id}/ticker.
type TickerResponse struct {
	ProductID  string          `json:"product_id"`
	MarkPrice  decimal.Decimal `json:"mark_price"`
	IndexPrice decimal.Decimal `json:"index_price"`
	Last       decimal.Decimal `json:"last"`
}

// OrderRequest is the payload of POST /api/orders.
// Price is nil for market orders.
type OrderRequest struct {
	ProductID  string           `json:"product_id"`
	Side       string           `json:"side"`
	Size       decimal.Decimal  `json:"size"`
	Type       string           `json:"type"`
	Price      *decimal.Decimal `json:"price"`
	ReduceOnly bool             `json:"reduce_only"`
}

// OrderResponse is the acknowledgement returned by POST /api/orders.
type OrderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// LeverageRequest is the payload of POST /api/positions/isolate.
type LeverageRequest struct {
	ProductID string          `json:"product_id"`
	Leverage  decimal.Decimal `json:"leverage"`
}

// RiskLimitRequest is the payload of POST /api/positions/risk.
type RiskLimitRequest struct {
	ProductID string          `json:"product_id"`
	Limit     decimal.Decimal `json:"limit"`
}

// APIError is the error envelope returned on 4xx responses.
type APIError struct {
	Message string `json:"message"`
}
