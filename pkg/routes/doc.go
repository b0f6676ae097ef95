// Package routes enumerates closed trading cycles over a set of markets.
//
// A route is an ordered sequence of buy/sell steps that starts and ends holding
// the same asset. Candidates are produced as ordered permutations of the selected
// markets and checked step by step; generation order is preserved in the output.
// The package performs no I/O and keeps no state between calls.
package routes
