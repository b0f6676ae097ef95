package core

// Side is the direction of a route step.
type Side int

// Side constants.
const (
	// SideBuy spends the quote asset to acquire the base asset.
	SideBuy Side = iota
	// SideSell spends the base asset to acquire the quote asset.
	SideSell
)

// String returns "buy" or "sell".
func (s Side) String() string {
	return [...]string{"buy", "sell"}[s]
}

// MarshalJSON implements json.Marshaler for Side.
func (s Side) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for Side.
// It accepts both uppercase and lowercase formats.
func (s *Side) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"BUY"`, `"buy"`:
		*s = SideBuy
	case `"SELL"`, `"sell"`:
		*s = SideSell
	}
	return nil
}

// RouteStep is one traversal of a market inside a route.
type RouteStep struct {
	// SourceAsset is the asset held before the step.
	SourceAsset  string `json:"source_asset"`
	CommonSymbol string `json:"common_symbol"`
	Operation    Side   `json:"operation"`
}

// Route is a closed trading cycle: the asset held after the last step
// equals the asset held before the first one.
type Route []RouteStep
