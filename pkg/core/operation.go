package core

// Operation represents a venue call.
type Operation int

// Operation constants define the supported venue calls.
const (
	// OpGetMarkets retrieves the list of tradable instruments.
	OpGetMarkets Operation = iota
	// OpGetOrderBook retrieves the current order book depth.
	OpGetOrderBook
)

// String returns the string representation of the operation.
func (o Operation) String() string {
	switch o {
	case OpGetMarkets:
		return "GET_MARKETS"
	case OpGetOrderBook:
		return "GET_ORDER_BOOK"
	default:
		return "UNKNOWN"
	}
}
