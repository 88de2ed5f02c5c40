package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Satis-Foundation/Sigma-mining/internal/catalog"
	"github.com/Satis-Foundation/Sigma-mining/pkg/model"
)

// fakeGateway is a recording VenueGateway for strategy tests.
type fakeGateway struct {
	balances    []model.Balance
	positions   map[string]model.Position
	markPrices  map[string]decimal.Decimal
	positionErr map[string]error

	limitOrders  []model.OrderIntent
	marketOrders []model.OrderIntent
	cancels      int
	leverages    map[string]decimal.Decimal
	riskLimits   map[string]decimal.Decimal
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		positions:   make(map[string]model.Position),
		markPrices:  make(map[string]decimal.Decimal),
		positionErr: make(map[string]error),
		leverages:   make(map[string]decimal.Decimal),
		riskLimits:  make(map[string]decimal.Decimal),
	}
}

func (g *fakeGateway) ListProducts(context.Context) ([]model.Product, error)      { return nil, nil }
func (g *fakeGateway) ListTradingFees(context.Context) ([]model.TradingFee, error) { return nil, nil }

func (g *fakeGateway) GetBalances(context.Context) ([]model.Balance, error) {
	return g.balances, nil
}

func (g *fakeGateway) GetPosition(_ context.Context, productID string) (model.Position, error) {
	if err := g.positionErr[productID]; err != nil {
		return model.Position{}, err
	}
	return g.positions[productID], nil
}

func (g *fakeGateway) GetMarkPrice(_ context.Context, productID string) (decimal.Decimal, error) {
	return g.markPrices[productID], nil
}

func (g *fakeGateway) PlaceLimitOrder(_ context.Context, intent model.OrderIntent) error {
	g.limitOrders = append(g.limitOrders, intent)
	return nil
}

func (g *fakeGateway) PlaceMarketOrder(_ context.Context, intent model.OrderIntent) error {
	g.marketOrders = append(g.marketOrders, intent)
	return nil
}

func (g *fakeGateway) CancelOrders(context.Context, string, string) error {
	g.cancels++
	return nil
}

func (g *fakeGateway) SetLeverage(_ context.Context, productID string, leverage decimal.Decimal) error {
	g.leverages[productID] = leverage
	return nil
}

func (g *fakeGateway) SetPositionRiskLimit(_ context.Context, productID string, limit decimal.Decimal) error {
	g.riskLimits[productID] = limit
	return nil
}

func btcCatalog(ids ...string) *catalog.Catalog {
	var products []model.Product
	for _, id := range ids {
		products = append(products, model.Product{ID: id, Status: "online", SettleCurrency: "BTC"})
	}
	return catalog.Build(products, []string{"BTC"}, nil)
}

func newTestMiner(gw *fakeGateway, cat *catalog.Catalog) *Miner {
	fees := make(map[string]decimal.Decimal)
	for _, id := range cat.ProductIDs() {
		fees[id] = dec("0.001")
	}
	params := Params{
		LongShortRatio: dec("0.5"),
		Spread:         dec("1"),
		Leverage:       decimal.NewFromInt(5),
	}
	return New(zap.NewNop(), gw, cat, fees, params, nil, nil, nil)
}

func TestExitPosition_ClosedIsNoop(t *testing.T) {
	gw := newFakeGateway()
	gw.positions["BTC-PERP"] = model.Position{ProductID: "BTC-PERP", IsOpen: false}

	m := newTestMiner(gw, btcCatalog("BTC-PERP"))
	require.NoError(t, m.ExitPosition(context.Background(), "BTC-PERP"))
	assert.Empty(t, gw.marketOrders)
	assert.Empty(t, gw.limitOrders)
}

func TestExitPosition_LongClosesWithSell(t *testing.T) {
	gw := newFakeGateway()
	gw.positions["BTC-PERP"] = model.Position{ProductID: "BTC-PERP", IsOpen: true, CurrentSize: dec("2")}

	m := newTestMiner(gw, btcCatalog("BTC-PERP"))
	require.NoError(t, m.ExitPosition(context.Background(), "BTC-PERP"))

	require.Len(t, gw.marketOrders, 1)
	order := gw.marketOrders[0]
	assert.Equal(t, model.SideSell, order.Side)
	assert.Equal(t, model.OrderTypeMarket, order.Type)
	assert.True(t, order.ReduceOnly)
	assert.True(t, dec("2").Equal(order.Size))
}

func TestExitPosition_ShortClosesWithBuy(t *testing.T) {
	gw := newFakeGateway()
	gw.positions["ETH-PERP"] = model.Position{ProductID: "ETH-PERP", IsOpen: true, CurrentSize: dec("-3.5")}

	m := newTestMiner(gw, btcCatalog("ETH-PERP"))
	require.NoError(t, m.ExitPosition(context.Background(), "ETH-PERP"))

	require.Len(t, gw.marketOrders, 1)
	order := gw.marketOrders[0]
	assert.Equal(t, model.SideBuy, order.Side)
	assert.True(t, dec("3.5").Equal(order.Size), "size must be the absolute position size")
	assert.True(t, order.ReduceOnly)
}

func TestExitAllPositions_FailureDoesNotBlockOthers(t *testing.T) {
	gw := newFakeGateway()
	gw.positionErr["BTC-PERP"] = assert.AnError
	gw.positions["BTC-PERP2"] = model.Position{ProductID: "BTC-PERP2", IsOpen: true, CurrentSize: dec("1")}

	m := newTestMiner(gw, btcCatalog("BTC-PERP", "BTC-PERP2"))
	err := m.ExitAllPositions(context.Background())
	require.Error(t, err)

	require.Len(t, gw.marketOrders, 1, "the second product must still be flattened")
	assert.Equal(t, "BTC-PERP2", gw.marketOrders[0].ProductID)
}

func TestRunRebalanceCycle_FlatQuotesBothSides(t *testing.T) {
	gw := newFakeGateway()
	gw.balances = []model.Balance{{Currency: "BTC", Locked: dec("1000")}}
	gw.markPrices["BTC-PERP"] = dec("50000")
	gw.positions["BTC-PERP"] = model.Position{ProductID: "BTC-PERP"}

	m := newTestMiner(gw, btcCatalog("BTC-PERP"))
	require.NoError(t, m.RunRebalanceCycle(context.Background()))

	assert.Equal(t, 1, gw.cancels, "stale orders are cancelled before quoting")
	assert.Empty(t, gw.marketOrders)
	require.Len(t, gw.limitOrders, 2, "a flat book gets exactly the two-sided quote")

	buy, sell := gw.limitOrders[0], gw.limitOrders[1]
	assert.Equal(t, model.SideBuy, buy.Side)
	assert.False(t, buy.ReduceOnly)
	assert.True(t, dec("49999").Equal(buy.Price))
	assert.True(t, dec("0.009980").Equal(buy.Size), "buy size %s", buy.Size)

	assert.Equal(t, model.SideSell, sell.Side)
	assert.False(t, sell.ReduceOnly)
	assert.True(t, dec("50001").Equal(sell.Price))
	assert.True(t, dec("0.009979").Equal(sell.Size), "sell size %s", sell.Size)
}

func TestRunRebalanceCycle_OpenPositionAddsReduceOnly(t *testing.T) {
	gw := newFakeGateway()
	gw.balances = []model.Balance{{Currency: "BTC", Locked: dec("1000")}}
	gw.markPrices["BTC-PERP"] = dec("50000")
	gw.positions["BTC-PERP"] = model.Position{ProductID: "BTC-PERP", IsOpen: true, CurrentSize: dec("2")}

	m := newTestMiner(gw, btcCatalog("BTC-PERP"))
	require.NoError(t, m.RunRebalanceCycle(context.Background()))

	require.Len(t, gw.limitOrders, 3)

	reduce := gw.limitOrders[0]
	assert.Equal(t, model.SideSell, reduce.Side, "long position unwinds on the sell side")
	assert.True(t, reduce.ReduceOnly)
	assert.True(t, dec("50001").Equal(reduce.Price))
	assert.True(t, dec("2").Equal(reduce.Size))

	// The fresh two-sided quote still goes out in full.
	assert.Equal(t, model.SideBuy, gw.limitOrders[1].Side)
	assert.False(t, gw.limitOrders[1].ReduceOnly)
	assert.Equal(t, model.SideSell, gw.limitOrders[2].Side)
	assert.False(t, gw.limitOrders[2].ReduceOnly)
}

func TestRunRebalanceCycle_ShortPositionReducesOnBid(t *testing.T) {
	gw := newFakeGateway()
	gw.balances = []model.Balance{{Currency: "BTC", Locked: dec("1000")}}
	gw.markPrices["BTC-PERP"] = dec("50000")
	gw.positions["BTC-PERP"] = model.Position{ProductID: "BTC-PERP", IsOpen: true, CurrentSize: dec("-1.5")}

	m := newTestMiner(gw, btcCatalog("BTC-PERP"))
	require.NoError(t, m.RunRebalanceCycle(context.Background()))

	require.Len(t, gw.limitOrders, 3)
	reduce := gw.limitOrders[0]
	assert.Equal(t, model.SideBuy, reduce.Side)
	assert.True(t, reduce.ReduceOnly)
	assert.True(t, dec("49999").Equal(reduce.Price))
	assert.True(t, dec("1.5").Equal(reduce.Size))
}

func TestRunRebalanceCycle_MissingBalanceSkipsCurrency(t *testing.T) {
	gw := newFakeGateway()
	// No BTC balance at all: the currency is skipped without error.
	gw.markPrices["BTC-PERP"] = dec("50000")

	m := newTestMiner(gw, btcCatalog("BTC-PERP"))
	require.NoError(t, m.RunRebalanceCycle(context.Background()))
	assert.Empty(t, gw.limitOrders)
}

func TestRunRebalanceCycle_ZeroBalanceStillQuotes(t *testing.T) {
	// A zero balance record is not a missing record: quoting proceeds with
	// zero-sized orders rather than being skipped.
	gw := newFakeGateway()
	gw.balances = []model.Balance{{Currency: "BTC", Locked: dec("0")}}
	gw.markPrices["BTC-PERP"] = dec("50000")
	gw.positions["BTC-PERP"] = model.Position{ProductID: "BTC-PERP"}

	m := newTestMiner(gw, btcCatalog("BTC-PERP"))
	require.NoError(t, m.RunRebalanceCycle(context.Background()))

	require.Len(t, gw.limitOrders, 2)
	assert.True(t, gw.limitOrders[0].Size.IsZero())
	assert.True(t, gw.limitOrders[1].Size.IsZero())
}

func TestRunRebalanceCycle_SplitsBalanceAcrossProducts(t *testing.T) {
	gw := newFakeGateway()
	gw.balances = []model.Balance{{Currency: "BTC", Locked: dec("1000")}}
	gw.markPrices["BTC-PERP"] = dec("50000")
	gw.markPrices["BTC-PERP2"] = dec("50000")
	gw.positions["BTC-PERP"] = model.Position{}
	gw.positions["BTC-PERP2"] = model.Position{}

	m := newTestMiner(gw, btcCatalog("BTC-PERP", "BTC-PERP2"))
	require.NoError(t, m.RunRebalanceCycle(context.Background()))

	require.Len(t, gw.limitOrders, 4)
	// Both products quote from the same 500 share, so sizes match pairwise.
	assert.True(t, gw.limitOrders[0].Size.Equal(gw.limitOrders[2].Size))
	assert.True(t, gw.limitOrders[1].Size.Equal(gw.limitOrders[3].Size))
}

func TestPlaceOrdersForProduct_MissingFee(t *testing.T) {
	gw := newFakeGateway()
	m := New(zap.NewNop(), gw, btcCatalog("BTC-PERP"), map[string]decimal.Decimal{}, Params{
		LongShortRatio: dec("0.5"),
		Spread:         dec("1"),
		Leverage:       decimal.NewFromInt(5),
	}, nil, nil, nil)

	err := m.PlaceOrdersForProduct(context.Background(), "BTC-PERP", dec("1000"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no trading fee")
}

func TestApplyInitialConfiguration(t *testing.T) {
	gw := newFakeGateway()
	gw.positions["BTC-PERP"] = model.Position{ProductID: "BTC-PERP", IsOpen: true, CurrentSize: dec("1")}
	gw.positions["BTC-PERP2"] = model.Position{ProductID: "BTC-PERP2"}

	m := newTestMiner(gw, btcCatalog("BTC-PERP", "BTC-PERP2"))
	require.NoError(t, m.ApplyInitialConfiguration(context.Background()))

	assert.Equal(t, 1, gw.cancels)
	assert.Len(t, gw.marketOrders, 1, "only the open position is flattened")
	require.Len(t, gw.leverages, 2)
	assert.True(t, decimal.NewFromInt(5).Equal(gw.leverages["BTC-PERP"]))
	assert.True(t, decimal.NewFromInt(5).Equal(gw.leverages["BTC-PERP2"]))
	assert.Empty(t, gw.riskLimits, "risk limit is skipped when unconfigured")
}

func TestApplyInitialConfiguration_RiskLimit(t *testing.T) {
	gw := newFakeGateway()
	cat := btcCatalog("BTC-PERP")

	m := newTestMiner(gw, cat)
	m.params.RiskLimit = decimal.NewFromInt(100)
	require.NoError(t, m.ApplyInitialConfiguration(context.Background()))

	require.Len(t, gw.riskLimits, 1)
	assert.True(t, decimal.NewFromInt(100).Equal(gw.riskLimits["BTC-PERP"]))
}

func TestMinUpdateDelay(t *testing.T) {
	gw := newFakeGateway()

	ids := make([]string, 10)
	for i := range ids {
		ids[i] = "P" + string(rune('0'+i))
	}
	m := newTestMiner(gw, btcCatalog(ids...))

	// 3 + 4*10 = 43 actions per cycle → 43/30 s floor.
	got := m.MinUpdateDelay(100 * time.Millisecond)
	assert.InDelta(t, 43.0/30.0, got.Seconds(), 1e-9)

	// A generous configured delay passes through.
	assert.Equal(t, 5*time.Second, m.MinUpdateDelay(5*time.Second))
}

func TestTrackRewards_Noop(t *testing.T) {
	m := newTestMiner(newFakeGateway(), btcCatalog("BTC-PERP"))
	assert.NoError(t, m.TrackRewards(context.Background()))
}
