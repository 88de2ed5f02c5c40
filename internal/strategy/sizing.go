package strategy

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// sizePrecision is the number of decimal places order sizes and funds are
// floored to before being sent to the venue.
const sizePrecision = 6

var (
	one = decimal.NewFromInt(1)
	two = decimal.NewFromInt(2)
)

// RoundDecimalsDown floors d to the given number of decimal places.
// Rounding is always toward negative infinity, never to nearest: the sizing
// engine must not request more notional than the balance covers.
func RoundDecimalsDown(d decimal.Decimal, decimals int) (decimal.Decimal, error) {
	if decimals < 0 {
		return decimal.Decimal{}, fmt.Errorf("decimal places must be 0 or more, got %d", decimals)
	}
	return d.RoundFloor(int32(decimals)), nil
}

// SizeOrders converts a free balance into the two opposing limit-order sizes.
//
// The balance splits into a buy-side fund (freeBalance * longShortRatio) and a
// sell-side fund (the remainder), each floored to six decimal places. Each
// fund then reserves capital for a round-trip taker fee and converts to a unit
// size at that side's quote price (refPrice - spread for the buy, refPrice +
// spread for the sell), floored again.
//
// longShortRatio is passed through unvalidated; values outside [0, 1] skew
// the capital allocation accordingly.
func SizeOrders(freeBalance, refPrice, spread, longShortRatio, takerFeeRate decimal.Decimal) (buySize, sellSize decimal.Decimal, err error) {
	buyFund, err := RoundDecimalsDown(freeBalance.Mul(longShortRatio), sizePrecision)
	if err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, err
	}
	sellFund, err := RoundDecimalsDown(freeBalance.Mul(one.Sub(longShortRatio)), sizePrecision)
	if err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, err
	}

	buySize, err = sizeForFund(buyFund, refPrice.Sub(spread), takerFeeRate)
	if err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, err
	}
	sellSize, err = sizeForFund(sellFund, refPrice.Add(spread), takerFeeRate)
	if err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, err
	}
	return buySize, sellSize, nil
}

// sizeForFund reserves round-trip taker fees from fund and converts the
// remainder to a unit size at the given quote price.
func sizeForFund(fund, price, takerFeeRate decimal.Decimal) (decimal.Decimal, error) {
	if !price.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("quote price must be positive, got %s", price)
	}
	effective := fund.Div(one.Add(takerFeeRate.Mul(two)))
	return RoundDecimalsDown(effective.Div(price), sizePrecision)
}
