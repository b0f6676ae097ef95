// Package markets turns venue listings into the Market and AssetLabel records
// served to trade servers.
package markets

import (
	"fmt"
	"math"
	"slices"

	"configurator/pkg/core"
)

// Format converts the instruments whose base and quote ids are both in chosen
// into Markets, preserving venue order. Every Market is validated; the first
// invalid one aborts the conversion with an error wrapping core.ErrInvalidMarket.
func Format(instruments []core.Instrument, chosen []string) ([]core.Market, error) {
	result := make([]core.Market, 0)
	for _, inst := range instruments {
		if !slices.Contains(chosen, inst.BaseID) || !slices.Contains(chosen, inst.QuoteID) {
			continue
		}

		m := core.Market{
			ExchangeSymbol: inst.ID,
			CommonSymbol:   inst.Symbol,
			Precision:      inst.Precision,
			Limits:         inst.Limits,
			BaseAsset:      inst.BaseID,
			QuoteAsset:     inst.QuoteID,
		}
		if err := core.ValidateMarket(&m); err != nil {
			return nil, fmt.Errorf("%w %q: %v", core.ErrInvalidMarket, inst.ID, err)
		}
		result = append(result, m)
	}
	return result, nil
}

// FormatAssetLabels lists the assets of the instruments tradable within chosen,
// each venue id once, in first-seen order.
func FormatAssetLabels(instruments []core.Instrument, chosen []string) []core.AssetLabel {
	result := make([]core.AssetLabel, 0)
	added := make(map[string]struct{})

	add := func(id, common string) {
		if _, ok := added[id]; ok {
			return
		}
		added[id] = struct{}{}
		result = append(result, core.AssetLabel{Exchange: id, Common: common})
	}

	for _, inst := range instruments {
		if !slices.Contains(chosen, inst.BaseID) || !slices.Contains(chosen, inst.QuoteID) {
			continue
		}
		add(inst.BaseID, inst.Base)
		add(inst.QuoteID, inst.Quote)
	}
	return result
}

// ConvertPrecision converts a number of decimal places into a step size:
// 3 becomes 0.001, 0 becomes 1.
func ConvertPrecision(places int) float64 {
	return math.Pow10(-places)
}

// HandlePrecision returns a step size for a venue precision value. Venues that
// report decimal places have the value converted, others pass through unchanged.
func HandlePrecision(value *float64, decimalPlaces bool) *float64 {
	if value == nil {
		return nil
	}
	if decimalPlaces {
		return core.Float(ConvertPrecision(int(*value)))
	}
	return value
}
