package satis

import "github.com/Satis-Foundation/Sigma-mining/pkg/model"

// productFromResponse converts a wire product to the canonical model.
func productFromResponse(p ProductResponse) model.Product {
	return model.Product{
		ID:             p.ID,
		Status:         p.Status,
		SettleCurrency: p.SettleCurrency,
	}
}

// feeFromResponse converts a wire fee entry to the canonical model.
func feeFromResponse(f FeeResponse) model.TradingFee {
	return model.TradingFee{
		ProductID:    f.ProductID,
		TakerFeeRate: f.TakerFeeRate,
	}
}

// balanceFromResponse converts a wire account entry to the canonical model.
func balanceFromResponse(a AccountResponse) model.Balance {
	return model.Balance{
		Currency: a.Currency,
		Locked:   a.Locked,
	}
}

// positionFromResponse converts a wire position to the canonical model.
// productID is carried from the request: the venue omits it on some paths.
func positionFromResponse(productID string, p PositionResponse) model.Position {
	id := p.ProductID
	if id == "" {
		id = productID
	}
	return model.Position{
		ProductID:   id,
		IsOpen:      p.IsOpen,
		CurrentSize: p.CurrentSize,
	}
}

// tickerFromResponse converts a wire ticker to the canonical model.
func tickerFromResponse(productID string, t TickerResponse) model.Ticker {
	id := t.ProductID
	if id == "" {
		id = productID
	}
	return model.Ticker{
		ProductID:  id,
		MarkPrice:  t.MarkPrice,
		IndexPrice: t.IndexPrice,
		LastPrice:  t.Last,
	}
}

// orderRequestFromIntent converts a canonical order intent to the wire payload.
func orderRequestFromIntent(intent model.OrderIntent) OrderRequest {
	req := OrderRequest{
		ProductID:  intent.ProductID,
		Side:       string(intent.Side),
		Size:       intent.Size,
		Type:       string(intent.Type),
		ReduceOnly: intent.ReduceOnly,
	}
	if intent.Type == model.OrderTypeLimit {
		price := intent.Price
		req.Price = &price
	}
	return req
}
