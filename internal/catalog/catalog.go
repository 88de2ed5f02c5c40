package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/Satis-Foundation/Sigma-mining/pkg/model"
)

// Catalog is the filtered, currency-indexed set of tradable products the
// strategy is permitted to quote. It is built once at startup and read-only
// afterwards, so it is safe to share across concurrent cycles without locking.
type Catalog struct {
	products   map[string]model.Product
	byCurrency map[string][]string
	currencies []string
	ordered    []string
}

// Build filters the raw product list down to online products whose id is not
// disabled and whose settlement currency is whitelisted, and indexes the
// survivors by id and by settlement currency. currencies keeps its given
// order; products keep venue order within each currency.
func Build(products []model.Product, currencies []string, disabled []string) *Catalog {
	disabledSet := make(map[string]struct{}, len(disabled))
	for _, id := range disabled {
		disabledSet[id] = struct{}{}
	}
	whitelist := make(map[string]struct{}, len(currencies))
	for _, cur := range currencies {
		whitelist[cur] = struct{}{}
	}

	c := &Catalog{
		products:   make(map[string]model.Product),
		byCurrency: make(map[string][]string, len(currencies)),
		currencies: append([]string(nil), currencies...),
	}
	for _, cur := range currencies {
		c.byCurrency[cur] = nil
	}

	for _, p := range products {
		if _, ok := disabledSet[p.ID]; ok {
			continue
		}
		if !p.IsOnline() {
			continue
		}
		if _, ok := whitelist[p.SettleCurrency]; !ok {
			continue
		}

		c.products[p.ID] = p
		c.byCurrency[p.SettleCurrency] = append(c.byCurrency[p.SettleCurrency], p.ID)
		c.ordered = append(c.ordered, p.ID)
	}

	return c
}

// BuildFeeTable indexes the raw fee list by product id.
// Duplicate entries for the same product overwrite in list order (last wins).
func BuildFeeTable(fees []model.TradingFee) map[string]decimal.Decimal {
	table := make(map[string]decimal.Decimal, len(fees))
	for _, f := range fees {
		table[f.ProductID] = f.TakerFeeRate
	}
	return table
}

// Product returns the catalog entry for the given id.
func (c *Catalog) Product(id string) (model.Product, bool) {
	p, ok := c.products[id]
	return p, ok
}

// ProductIDs returns every catalog product id in build order.
func (c *Catalog) ProductIDs() []string {
	return c.ordered
}

// ProductsFor returns the product ids settling in the given currency.
func (c *Catalog) ProductsFor(currency string) []string {
	return c.byCurrency[currency]
}

// Currencies returns the configured currency whitelist in its original order.
func (c *Catalog) Currencies() []string {
	return c.currencies
}

// SettleCurrency returns the settlement currency for a catalog product.
func (c *Catalog) SettleCurrency(id string) (string, bool) {
	p, ok := c.products[id]
	if !ok {
		return "", false
	}
	return p.SettleCurrency, true
}

// Size returns the number of catalog products.
func (c *Catalog) Size() int {
	return len(c.products)
}
