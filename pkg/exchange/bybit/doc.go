// Package bybit implements the Exchange interface for Bybit spot markets over
// the v5 public market endpoints.
//
// Bybit API Documentation: https://bybit-exchange.github.io/docs/v5/intro
package bybit
