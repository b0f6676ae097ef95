package routes

import "configurator/pkg/core"

const (
	// MinLength is the shortest route produced.
	MinLength = 3
	// DefaultMaxLength is the longest route produced when the caller has no preference.
	DefaultMaxLength = 3
)

// Construct returns every closed route over the markets tradable within assets,
// for lengths from MinLength up to min(len(assets), maxLength).
// Routes are returned in generation order without deduplication. The work grows
// factorially with the number of selected markets.
func Construct(markets []core.Market, assets []string, maxLength int) []core.Route {
	selected := SelectMarketsByAssets(markets, assets)
	upper := min(len(assets), maxLength)

	routes := make([]core.Route, 0)
	for length := MinLength; length <= upper; length++ {
		for seq := range Permutations(selected, length) {
			if route, ok := SequenceToRoute(seq); ok {
				routes = append(routes, route)
			}
		}
	}
	return routes
}
