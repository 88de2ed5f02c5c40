package satis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Satis-Foundation/Sigma-mining/internal/httpclient"
	"github.com/Satis-Foundation/Sigma-mining/internal/rate"
	"github.com/Satis-Foundation/Sigma-mining/pkg/model"
)

// ErrNoAuth is returned when an authenticated call is attempted without a signing key.
var ErrNoAuth = errors.New("satis: no signing key configured")

// Client wraps low-level HTTP communication with the SATIS API and exposes
// the venue gateway surface consumed by the strategy. Retry and throttling
// policy lives in the underlying Executor, not in the strategy.
type Client struct {
	logger  *zap.Logger
	baseURL string
	signer  *Signer
	exec    *httpclient.Executor
}

// NewClient constructs a SATIS HTTP client. signer may be nil for
// public-endpoint-only use; authenticated calls then fail with ErrNoAuth.
func NewClient(logger *zap.Logger, baseURL string, signer *Signer, limiter *rate.Limiter) *Client {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	exec := httpclient.New(logger, limiter, httpClient, 2, "satis", func(status int, body []byte) error {
		var errResp APIError
		_ = json.Unmarshal(body, &errResp)

		logger.Warn("satis.client_error",
			zap.Int("status", status),
			zap.String("message", errResp.Message),
			zap.String("body", string(body)))

		msg := errResp.Message
		if msg == "" {
			msg = string(body)
		}
		return fmt.Errorf("satis returned %d: %s", status, msg)
	})
	return &Client{
		logger:  logger,
		baseURL: baseURL,
		signer:  signer,
		exec:    exec,
	}
}

// ListProducts fetches the full product list.
// GET /api/products
func (c *Client) ListProducts(ctx context.Context) ([]model.Product, error) {
	var resp []ProductResponse
	if err := c.do(ctx, http.MethodGet, "/api/products", "products", false, nil, &resp); err != nil {
		return nil, err
	}
	products := make([]model.Product, 0, len(resp))
	for _, p := range resp {
		products = append(products, productFromResponse(p))
	}
	return products, nil
}

// ListTradingFees fetches the per-product fee schedule.
// GET /api/fees
func (c *Client) ListTradingFees(ctx context.Context) ([]model.TradingFee, error) {
	var resp []FeeResponse
	if err := c.do(ctx, http.MethodGet, "/api/fees", "fees", true, nil, &resp); err != nil {
		return nil, err
	}
	fees := make([]model.TradingFee, 0, len(resp))
	for _, f := range resp {
		fees = append(fees, feeFromResponse(f))
	}
	return fees, nil
}

// GetBalances fetches all account balances.
// GET /api/accounts
func (c *Client) GetBalances(ctx context.Context) ([]model.Balance, error) {
	var resp []AccountResponse
	if err := c.do(ctx, http.MethodGet, "/api/accounts", "accounts", true, nil, &resp); err != nil {
		return nil, err
	}
	balances := make([]model.Balance, 0, len(resp))
	for _, a := range resp {
		balances = append(balances, balanceFromResponse(a))
	}
	return balances, nil
}

// GetPosition fetches the open position state for one product.
// GET /api/positions/{product_id}
func (c *Client) GetPosition(ctx context.Context, productID string) (model.Position, error) {
	var resp PositionResponse
	if err := c.do(ctx, http.MethodGet, "/api/positions/"+productID, "position", true, nil, &resp); err != nil {
		return model.Position{}, err
	}
	return positionFromResponse(productID, resp), nil
}

// GetTicker fetches the market data snapshot for one product.
// GET /api/products/{product_id}/ticker
func (c *Client) GetTicker(ctx context.Context, productID string) (model.Ticker, error) {
	var resp TickerResponse
	if err := c.do(ctx, http.MethodGet, "/api/products/"+productID+"/ticker", "ticker", false, nil, &resp); err != nil {
		return model.Ticker{}, err
	}
	return tickerFromResponse(productID, resp), nil
}

// GetMarkPrice fetches the venue mark price for one product.
func (c *Client) GetMarkPrice(ctx context.Context, productID string) (decimal.Decimal, error) {
	ticker, err := c.GetTicker(ctx, productID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return ticker.MarkPrice, nil
}

// PlaceLimitOrder submits a limit order.
// POST /api/orders
func (c *Client) PlaceLimitOrder(ctx context.Context, intent model.OrderIntent) error {
	intent.Type = model.OrderTypeLimit
	return c.placeOrder(ctx, intent)
}

// PlaceMarketOrder submits a market order.
// POST /api/orders
func (c *Client) PlaceMarketOrder(ctx context.Context, intent model.OrderIntent) error {
	intent.Type = model.OrderTypeMarket
	return c.placeOrder(ctx, intent)
}

func (c *Client) placeOrder(ctx context.Context, intent model.OrderIntent) error {
	var resp OrderResponse
	if err := c.do(ctx, http.MethodPost, "/api/orders", "orders", true, orderRequestFromIntent(intent), &resp); err != nil {
		return err
	}

	c.logger.Debug("satis.order_placed",
		zap.String("order_id", resp.ID),
		zap.String("product", intent.ProductID),
		zap.String("side", string(intent.Side)),
		zap.String("type", string(intent.Type)),
		zap.String("size", intent.Size.String()),
		zap.Bool("reduce_only", intent.ReduceOnly))
	return nil
}

// CancelOrders cancels resting orders. Both arguments are optional: an empty
// orderID cancels in bulk, an empty productID spans all products.
// DELETE /api/orders[/{order_id}]
func (c *Client) CancelOrders(ctx context.Context, productID, orderID string) error {
	path := "/api/orders"
	if orderID != "" {
		path += "/" + orderID
	}
	if productID != "" {
		q := url.Values{}
		q.Set("product_id", productID)
		path += "?" + q.Encode()
	}
	return c.do(ctx, http.MethodDelete, path, "cancel_orders", true, nil, nil)
}

// SetLeverage sets isolated leverage for one product.
// POST /api/positions/isolate
func (c *Client) SetLeverage(ctx context.Context, productID string, leverage decimal.Decimal) error {
	body := LeverageRequest{ProductID: productID, Leverage: leverage}
	return c.do(ctx, http.MethodPost, "/api/positions/isolate", "leverage", true, body, nil)
}

// SetPositionRiskLimit sets the position risk limit for one product.
// POST /api/positions/risk
func (c *Client) SetPositionRiskLimit(ctx context.Context, productID string, limit decimal.Decimal) error {
	body := RiskLimitRequest{ProductID: productID, Limit: limit}
	return c.do(ctx, http.MethodPost, "/api/positions/risk", "risk_limit", true, body, nil)
}

// do builds, signs when required, and executes a request against the venue.
func (c *Client) do(ctx context.Context, method, path, endpoint string, auth bool, body, out any) error {
	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("satis: marshal %s request: %w", endpoint, err)
		}
	}

	var reader *bytes.Reader
	if bodyBytes != nil {
		reader = bytes.NewReader(bodyBytes)
	}

	var req *http.Request
	var err error
	if reader != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if bodyBytes != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if auth {
		if c.signer == nil {
			return ErrNoAuth
		}
		if err := c.signer.Sign(req, bodyBytes); err != nil {
			return err
		}
	}

	return c.exec.DoJSON(ctx, req, endpoint, out)
}
