// Package binance implements the Binance spot market-data protocol.
//
// The package includes:
//   - Protocol: REST request building and response parsing for exchange info and depth
//   - Normalizer: conversion of Binance listings and books into canonical types
//   - Exchange: the venue client, with optional websocket depth snapshots
//
// Example usage:
//
//	protocol := binance.NewProtocol()
//	req, err := protocol.BuildRequest(ctx, core.OpGetOrderBook, core.Params{"symbol": "ETH/BTC"})
package binance
