package routes

import "configurator/pkg/core"

// SelectMarketsByAssets returns the markets whose base and quote assets are both
// in assets, keeping their relative order.
func SelectMarketsByAssets(markets []core.Market, assets []string) []core.Market {
	chosen := make(map[string]struct{}, len(assets))
	for _, a := range assets {
		chosen[a] = struct{}{}
	}

	selected := make([]core.Market, 0, len(markets))
	for _, m := range markets {
		_, base := chosen[m.BaseAsset]
		_, quote := chosen[m.QuoteAsset]
		if base && quote {
			selected = append(selected, m)
		}
	}
	return selected
}
