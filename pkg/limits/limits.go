// Package limits derives market increments and bounds from an order book snapshot.
//
// Venues that publish coarse or missing precision data can be refined this way:
// the smallest observed step between prices (or amounts) approximates the tick
// size, and the extremes of the book approximate the order limits.
package limits

import (
	"fmt"
	"slices"

	"github.com/cockroachdb/apd/v3"

	"configurator/pkg/core"
)

var decimalCtx = apd.BaseContext.WithPrecision(34)

// Result holds what an order book says about a market.
// A nil increment means the book showed no non-zero step.
type Result struct {
	PriceIncrement  *float64
	AmountIncrement *float64
	Limits          core.Limits
}

// MinIncrement returns the smallest non-zero absolute difference between
// consecutive values. It reports false when no such difference exists.
func MinIncrement(values []*apd.Decimal) (apd.Decimal, bool, error) {
	var best apd.Decimal
	found := false

	for i := 1; i < len(values); i++ {
		var diff apd.Decimal
		if _, err := decimalCtx.Sub(&diff, values[i], values[i-1]); err != nil {
			return apd.Decimal{}, false, fmt.Errorf("subtract values: %w", err)
		}
		diff.Abs(&diff)
		if diff.IsZero() {
			continue
		}
		if !found || diff.Cmp(&best) < 0 {
			best.Set(&diff)
			found = true
		}
	}
	return best, found, nil
}

// PriceIncrement walks the prices in ascending order (bids reversed, then asks).
func PriceIncrement(book *core.OrderBook) (*float64, error) {
	prices := make([]*apd.Decimal, 0, len(book.Bids)+len(book.Asks))
	for i := len(book.Bids) - 1; i >= 0; i-- {
		prices = append(prices, &book.Bids[i].Price)
	}
	for i := range book.Asks {
		prices = append(prices, &book.Asks[i].Price)
	}
	return increment(prices)
}

// AmountIncrement walks all level quantities sorted ascending.
func AmountIncrement(book *core.OrderBook) (*float64, error) {
	amounts := make([]*apd.Decimal, 0, len(book.Bids)+len(book.Asks))
	for i := range book.Bids {
		amounts = append(amounts, &book.Bids[i].Quantity)
	}
	for i := range book.Asks {
		amounts = append(amounts, &book.Asks[i].Quantity)
	}
	slices.SortStableFunc(amounts, func(a, b *apd.Decimal) int { return a.Cmp(b) })
	return increment(amounts)
}

func increment(values []*apd.Decimal) (*float64, error) {
	d, ok, err := MinIncrement(values)
	if err != nil || !ok {
		return nil, err
	}
	return toFloat(&d)
}

// MinMaxLimits returns the extremes of amount, price, and cost (price * amount)
// over every level of the book. Leverage is left unset.
func MinMaxLimits(book *core.OrderBook) (core.Limits, error) {
	levels := book.Levels()
	if len(levels) == 0 {
		return core.Limits{}, core.ErrEmptyOrderBook
	}

	var minAmount, maxAmount, minPrice, maxPrice, minCost, maxCost apd.Decimal
	for i := range levels {
		var cost apd.Decimal
		if _, err := decimalCtx.Mul(&cost, &levels[i].Price, &levels[i].Quantity); err != nil {
			return core.Limits{}, fmt.Errorf("compute level cost: %w", err)
		}

		if i == 0 {
			minAmount.Set(&levels[i].Quantity)
			maxAmount.Set(&levels[i].Quantity)
			minPrice.Set(&levels[i].Price)
			maxPrice.Set(&levels[i].Price)
			minCost.Set(&cost)
			maxCost.Set(&cost)
			continue
		}

		lower(&minAmount, &levels[i].Quantity)
		upper(&maxAmount, &levels[i].Quantity)
		lower(&minPrice, &levels[i].Price)
		upper(&maxPrice, &levels[i].Price)
		lower(&minCost, &cost)
		upper(&maxCost, &cost)
	}

	var (
		limits core.Limits
		err    error
	)
	if limits.Amount, err = minMax(&minAmount, &maxAmount); err != nil {
		return core.Limits{}, err
	}
	if limits.Price, err = minMax(&minPrice, &maxPrice); err != nil {
		return core.Limits{}, err
	}
	if limits.Cost, err = minMax(&minCost, &maxCost); err != nil {
		return core.Limits{}, err
	}
	return limits, nil
}

// FromOrderBook computes increments and limits from a snapshot.
func FromOrderBook(book *core.OrderBook) (Result, error) {
	if book == nil || book.IsEmpty() {
		return Result{}, core.ErrEmptyOrderBook
	}

	price, err := PriceIncrement(book)
	if err != nil {
		return Result{}, fmt.Errorf("price increment: %w", err)
	}
	amount, err := AmountIncrement(book)
	if err != nil {
		return Result{}, fmt.Errorf("amount increment: %w", err)
	}
	limits, err := MinMaxLimits(book)
	if err != nil {
		return Result{}, fmt.Errorf("min max limits: %w", err)
	}

	return Result{
		PriceIncrement:  price,
		AmountIncrement: amount,
		Limits:          limits,
	}, nil
}

// Refine returns a copy of m with the book-derived values applied: increments
// replace the price and amount precision when present, and the limits are
// replaced as a whole.
func Refine(m core.Market, r Result) core.Market {
	if r.PriceIncrement != nil {
		m.Precision.Price = r.PriceIncrement
	}
	if r.AmountIncrement != nil {
		m.Precision.Amount = r.AmountIncrement
	}
	m.Limits = r.Limits
	return m
}

func lower(acc, v *apd.Decimal) {
	if v.Cmp(acc) < 0 {
		acc.Set(v)
	}
}

func upper(acc, v *apd.Decimal) {
	if v.Cmp(acc) > 0 {
		acc.Set(v)
	}
}

func minMax(lo, hi *apd.Decimal) (core.MinMax, error) {
	minV, err := toFloat(lo)
	if err != nil {
		return core.MinMax{}, err
	}
	maxV, err := toFloat(hi)
	if err != nil {
		return core.MinMax{}, err
	}
	return core.MinMax{Min: minV, Max: maxV}, nil
}

func toFloat(d *apd.Decimal) (*float64, error) {
	f, err := d.Float64()
	if err != nil {
		return nil, fmt.Errorf("convert %s to float: %w", d.String(), err)
	}
	return &f, nil
}
