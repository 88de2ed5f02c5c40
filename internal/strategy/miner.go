package strategy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Satis-Foundation/Sigma-mining/internal/audit"
	"github.com/Satis-Foundation/Sigma-mining/internal/catalog"
	"github.com/Satis-Foundation/Sigma-mining/internal/metrics"
	"github.com/Satis-Foundation/Sigma-mining/internal/publisher"
	"github.com/Satis-Foundation/Sigma-mining/pkg/model"
)

// Params holds the quoting parameters of the strategy.
type Params struct {
	LongShortRatio decimal.Decimal // fraction of capital quoted on the buy side
	Spread         decimal.Decimal // absolute price offset around the reference price
	Leverage       decimal.Decimal
	RiskLimit      decimal.Decimal // position risk limit; zero skips the venue call
}

// Miner is the market-making decision engine: it flattens stale positions,
// rebalances resting quotes around a reference price, and sizes orders from
// account balances.
//
// The catalog and fee table are read-only after construction and shared by
// both periodic cycles without locking. cycleMu serializes the cycle entry
// points (RunRebalanceCycle, ExitAllPositions, ApplyInitialConfiguration) so
// the quote and liquidation cycles never interleave venue writes.
type Miner struct {
	logger *zap.Logger
	gw     VenueGateway
	prices ReferencePriceSource

	catalog *catalog.Catalog
	fees    map[string]decimal.Decimal
	params  Params

	pub *publisher.Publisher
	aud *audit.Writer

	cycleMu sync.Mutex
}

// New constructs a Miner. prices may be nil, selecting the venue mark price
// as the reference; pub and aud are optional collaborators.
func New(
	logger *zap.Logger,
	gw VenueGateway,
	cat *catalog.Catalog,
	fees map[string]decimal.Decimal,
	params Params,
	prices ReferencePriceSource,
	pub *publisher.Publisher,
	aud *audit.Writer,
) *Miner {
	if prices == nil {
		prices = markPriceSource{gw: gw}
	}
	return &Miner{
		logger:  logger,
		gw:      gw,
		prices:  prices,
		catalog: cat,
		fees:    fees,
		params:  params,
		pub:     pub,
		aud:     aud,
	}
}

// CancelAllOpenOrders cancels every resting order for the account.
func (m *Miner) CancelAllOpenOrders(ctx context.Context) error {
	if err := m.gw.CancelOrders(ctx, "", ""); err != nil {
		return fmt.Errorf("cancel open orders: %w", err)
	}
	return nil
}

// ExitPosition closes the open position on one product with a reduce-only
// market order on the opposite side. A closed position is a no-op.
func (m *Miner) ExitPosition(ctx context.Context, productID string) error {
	pos, err := m.gw.GetPosition(ctx, productID)
	if err != nil {
		return fmt.Errorf("read position %s: %w", productID, err)
	}
	if !pos.IsOpen {
		return nil
	}

	side := model.SideBuy
	if pos.CurrentSize.IsPositive() {
		side = model.SideSell
	}
	intent := model.OrderIntent{
		ProductID:  productID,
		Side:       side,
		Type:       model.OrderTypeMarket,
		Size:       pos.CurrentSize.Abs(),
		ReduceOnly: true,
	}
	if err := m.gw.PlaceMarketOrder(ctx, intent); err != nil {
		return fmt.Errorf("exit position %s: %w", productID, err)
	}

	metrics.IncPositionClosed(productID)
	m.logger.Info("miner.position_closed",
		zap.String("product", productID),
		zap.String("side", string(side)),
		zap.String("size", intent.Size.String()))
	m.emitOrder(ctx, "evt.position.closed.v1.SATIS", intent)
	return nil
}

// ExitAllPositions closes open positions product by product, in catalog
// order. A failure on one product does not block the remaining products; the
// last failure is reported after the full pass.
func (m *Miner) ExitAllPositions(ctx context.Context) error {
	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()
	return m.exitAllPositions(ctx)
}

func (m *Miner) exitAllPositions(ctx context.Context) error {
	var failed int
	var lastErr error
	for _, productID := range m.catalog.ProductIDs() {
		if err := m.ExitPosition(ctx, productID); err != nil {
			failed++
			lastErr = err
			m.logger.Warn("miner.exit_position_failed",
				zap.String("product", productID),
				zap.Error(err))
		}
	}
	if lastErr != nil {
		return fmt.Errorf("exit positions: %d of %d products failed: %w",
			failed, m.catalog.Size(), lastErr)
	}
	return nil
}

// ApplyInitialConfiguration establishes a known-flat, known-leverage starting
// state: cancel every resting order, exit every position, then set leverage
// (and the risk limit, when configured) on each catalog product. Any failure
// is fatal to startup.
func (m *Miner) ApplyInitialConfiguration(ctx context.Context) error {
	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()

	if err := m.CancelAllOpenOrders(ctx); err != nil {
		return err
	}
	if err := m.exitAllPositions(ctx); err != nil {
		return err
	}

	for _, productID := range m.catalog.ProductIDs() {
		if err := m.gw.SetLeverage(ctx, productID, m.params.Leverage); err != nil {
			return fmt.Errorf("set leverage %s: %w", productID, err)
		}
		if m.params.RiskLimit.IsPositive() {
			if err := m.gw.SetPositionRiskLimit(ctx, productID, m.params.RiskLimit); err != nil {
				return fmt.Errorf("set risk limit %s: %w", productID, err)
			}
		}
	}

	m.logger.Info("miner.initial_configuration_applied",
		zap.Int("products", m.catalog.Size()),
		zap.String("leverage", m.params.Leverage.String()))
	return nil
}

// PlaceOrdersForProduct runs the single-product quoting step: size the two
// fresh quotes from the product's share of the balance, rest a reduce-only
// limit against any open position, and always place the two-sided quote.
func (m *Miner) PlaceOrdersForProduct(ctx context.Context, productID string, freeBalance decimal.Decimal) error {
	takerFee, ok := m.fees[productID]
	if !ok {
		return fmt.Errorf("no trading fee for product %s", productID)
	}

	refPrice, err := m.prices.ReferencePrice(ctx, productID)
	if err != nil {
		return fmt.Errorf("reference price %s: %w", productID, err)
	}
	pos, err := m.gw.GetPosition(ctx, productID)
	if err != nil {
		return fmt.Errorf("read position %s: %w", productID, err)
	}

	buySize, sellSize, err := SizeOrders(freeBalance, refPrice, m.params.Spread, m.params.LongShortRatio, takerFee)
	if err != nil {
		return fmt.Errorf("size orders %s: %w", productID, err)
	}

	bidPrice := refPrice.Sub(m.params.Spread)
	askPrice := refPrice.Add(m.params.Spread)

	// Rest a reduce-only order against the open position first. It unwinds
	// existing exposure without waiting for the fresh quotes to fill, and it
	// cannot add exposure.
	switch pos.Side() {
	case model.PositionLong:
		err = m.placeLimit(ctx, model.OrderIntent{
			ProductID:  productID,
			Side:       model.SideSell,
			Size:       pos.CurrentSize.Abs(),
			Price:      askPrice,
			ReduceOnly: true,
		})
	case model.PositionShort:
		err = m.placeLimit(ctx, model.OrderIntent{
			ProductID:  productID,
			Side:       model.SideBuy,
			Size:       pos.CurrentSize.Abs(),
			Price:      bidPrice,
			ReduceOnly: true,
		})
	}
	if err != nil {
		return fmt.Errorf("reduce position %s: %w", productID, err)
	}

	// The two-sided quote is unconditional: both sides rest every cycle.
	if err := m.placeLimit(ctx, model.OrderIntent{
		ProductID: productID,
		Side:      model.SideBuy,
		Size:      buySize,
		Price:     bidPrice,
	}); err != nil {
		return fmt.Errorf("quote buy side %s: %w", productID, err)
	}
	if err := m.placeLimit(ctx, model.OrderIntent{
		ProductID: productID,
		Side:      model.SideSell,
		Size:      sellSize,
		Price:     askPrice,
	}); err != nil {
		return fmt.Errorf("quote sell side %s: %w", productID, err)
	}
	return nil
}

// RunRebalanceCycle is the top-level quote cycle: cancel everything, read
// balances once, then split each currency's locked balance evenly across its
// products and quote each of them. Currencies with no balance or no products
// are skipped. A venue failure aborts the remainder of the iteration.
func (m *Miner) RunRebalanceCycle(ctx context.Context) error {
	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()

	if err := m.CancelAllOpenOrders(ctx); err != nil {
		return err
	}

	balances, err := m.readBalances(ctx)
	if err != nil {
		return err
	}

	quoted := 0
	for _, currency := range m.catalog.Currencies() {
		balance := balances[currency]
		productIDs := m.catalog.ProductsFor(currency)
		if balance == nil || len(productIDs) == 0 {
			m.logger.Debug("miner.currency_skipped",
				zap.String("currency", currency),
				zap.Bool("has_balance", balance != nil),
				zap.Int("products", len(productIDs)))
			continue
		}

		perProduct := balance.Locked.Div(decimal.NewFromInt(int64(len(productIDs))))
		for _, productID := range productIDs {
			if err := m.PlaceOrdersForProduct(ctx, productID, perProduct); err != nil {
				return err
			}
			quoted++
		}
	}

	m.logger.Info("miner.rebalance_complete", zap.Int("products_quoted", quoted))
	return nil
}

// TrackRewards is the reward-tracking hook called once per quote cycle.
// Extension point: mining reward accounting is not implemented yet.
func (m *Miner) TrackRewards(_ context.Context) error {
	return nil
}

// MinUpdateDelay floors the configured quote-cycle delay so the venue sees at
// most ~30 order-related requests per second: one cycle issues 3 fixed calls
// plus 4 per product.
func (m *Miner) MinUpdateDelay(configured time.Duration) time.Duration {
	actionsPerCycle := 3 + 4*m.catalog.Size()
	floor := time.Duration(float64(actionsPerCycle) / 30 * float64(time.Second))
	if configured > floor {
		return configured
	}
	return floor
}

// readBalances snapshots the account balances for every whitelisted currency.
// A currency with no balance record maps to nil: missing stays distinguishable
// from zero.
func (m *Miner) readBalances(ctx context.Context) (map[string]*model.Balance, error) {
	balances, err := m.gw.GetBalances(ctx)
	if err != nil {
		return nil, fmt.Errorf("read balances: %w", err)
	}

	out := make(map[string]*model.Balance, len(m.catalog.Currencies()))
	for _, currency := range m.catalog.Currencies() {
		out[currency] = nil
		for i := range balances {
			if balances[i].Currency == currency {
				out[currency] = &balances[i]
				break
			}
		}
	}
	return out, nil
}

// placeLimit submits one limit order and records it.
func (m *Miner) placeLimit(ctx context.Context, intent model.OrderIntent) error {
	intent.Type = model.OrderTypeLimit
	if err := m.gw.PlaceLimitOrder(ctx, intent); err != nil {
		return err
	}

	metrics.IncOrderPlaced(intent.ProductID, string(intent.Side), string(intent.Type))
	m.logger.Debug("miner.quote_placed",
		zap.String("product", intent.ProductID),
		zap.String("side", string(intent.Side)),
		zap.String("size", intent.Size.String()),
		zap.String("price", intent.Price.String()),
		zap.Bool("reduce_only", intent.ReduceOnly))
	m.emitOrder(ctx, "evt.order.placed.v1.SATIS", intent)
	return nil
}

// emitOrder publishes and audits one submitted order. Both sinks are
// optional and neither may block order flow.
func (m *Miner) emitOrder(ctx context.Context, subject string, intent model.OrderIntent) {
	if m.pub != nil {
		event := map[string]any{
			"product_id":  intent.ProductID,
			"side":        string(intent.Side),
			"type":        string(intent.Type),
			"size":        intent.Size.String(),
			"price":       intent.Price.String(),
			"reduce_only": intent.ReduceOnly,
			"placed_at":   time.Now().UTC(),
		}
		if err := m.pub.Publish(ctx, subject, event); err != nil {
			m.logger.Debug("nats.publish_failed",
				zap.String("subject", subject),
				zap.Error(err))
		}
	}
	if m.aud != nil {
		_ = m.aud.RecordOrder(ctx, intent, "submitted")
	}
}
