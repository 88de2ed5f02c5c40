package satis

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Satis-Foundation/Sigma-mining/pkg/model"
)

func TestOrderRequestFromIntent(t *testing.T) {
	tests := []struct {
		name      string
		intent    model.OrderIntent
		wantPrice bool
	}{
		{
			name: "limit order carries price",
			intent: model.OrderIntent{
				ProductID: "BTC-PERP",
				Side:      model.SideBuy,
				Type:      model.OrderTypeLimit,
				Size:      decimal.RequireFromString("0.5"),
				Price:     decimal.RequireFromString("49999"),
			},
			wantPrice: true,
		},
		{
			name: "market order drops price",
			intent: model.OrderIntent{
				ProductID:  "BTC-PERP",
				Side:       model.SideSell,
				Type:       model.OrderTypeMarket,
				Size:       decimal.RequireFromString("2"),
				ReduceOnly: true,
			},
			wantPrice: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := orderRequestFromIntent(tt.intent)
			assert.Equal(t, tt.intent.ProductID, req.ProductID)
			assert.Equal(t, string(tt.intent.Side), req.Side)
			assert.Equal(t, string(tt.intent.Type), req.Type)
			assert.Equal(t, tt.intent.ReduceOnly, req.ReduceOnly)
			if tt.wantPrice {
				require.NotNil(t, req.Price)
				assert.True(t, tt.intent.Price.Equal(*req.Price))
			} else {
				assert.Nil(t, req.Price)
			}
		})
	}
}

func TestPositionFromResponse_FillsProductID(t *testing.T) {
	pos := positionFromResponse("BTC-PERP", PositionResponse{
		IsOpen:      true,
		CurrentSize: decimal.NewFromInt(3),
	})
	assert.Equal(t, "BTC-PERP", pos.ProductID)

	// A venue-supplied id wins over the request argument.
	pos = positionFromResponse("BTC-PERP", PositionResponse{ProductID: "ETH-PERP"})
	assert.Equal(t, "ETH-PERP", pos.ProductID)
}

func TestTickerFromResponse(t *testing.T) {
	tick := tickerFromResponse("BTC-PERP", TickerResponse{
		MarkPrice:  decimal.RequireFromString("50000.5"),
		IndexPrice: decimal.RequireFromString("50001"),
		Last:       decimal.RequireFromString("50000"),
	})
	assert.Equal(t, "BTC-PERP", tick.ProductID)
	assert.True(t, decimal.RequireFromString("50000.5").Equal(tick.MarkPrice))
	assert.True(t, decimal.RequireFromString("50000").Equal(tick.LastPrice))
}
