package routes

import "configurator/pkg/core"

// SequenceToRoute checks whether seq forms a closed cycle and labels each step.
// It reports false for any sequence that cannot be chained or does not return
// to its starting asset. seq is not retained.
func SequenceToRoute(seq []core.Market) (core.Route, bool) {
	if len(seq) == 0 {
		return nil, false
	}

	start, ok := startingAsset(seq[0], seq[len(seq)-1])
	if !ok {
		return nil, false
	}

	route := make(core.Route, 0, len(seq))
	current := start
	for _, m := range seq {
		switch current {
		case m.BaseAsset:
			route = append(route, core.RouteStep{
				SourceAsset:  current,
				CommonSymbol: m.CommonSymbol,
				Operation:    core.SideSell,
			})
			current = m.QuoteAsset
		case m.QuoteAsset:
			route = append(route, core.RouteStep{
				SourceAsset:  current,
				CommonSymbol: m.CommonSymbol,
				Operation:    core.SideBuy,
			})
			current = m.BaseAsset
		default:
			return nil, false
		}
	}

	if current != start {
		return nil, false
	}
	return route, true
}

// startingAsset picks the asset of first that also belongs to last, preferring the base.
func startingAsset(first, last core.Market) (string, bool) {
	if first.BaseAsset == last.BaseAsset || first.BaseAsset == last.QuoteAsset {
		return first.BaseAsset, true
	}
	if first.QuoteAsset == last.BaseAsset || first.QuoteAsset == last.QuoteAsset {
		return first.QuoteAsset, true
	}
	return "", false
}
