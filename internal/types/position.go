package types

// Position is one open holding. Positions reference their ticker by symbol
// and resolve the live snapshot through the market store at read time; they
// never own or alias live market state.
//
// Shares are always positive: short positions are not supported.
type Position struct {
	Symbol     string    `yaml:"symbol" json:"symbol"`
	Shares     int       `yaml:"shares" json:"shares"`
	EntryPrice float64   `yaml:"entry_price" json:"entry_price"`
	StopLoss   float64   `yaml:"stop_loss" json:"stop_loss"`
	TakeProfit float64   `yaml:"take_profit" json:"take_profit"`
	OpenedAt   Timestamp `yaml:"opened_at" json:"opened_at"`
}

// MarketValue prices the position at the midpoint of the snapshot's bid/ask.
func (p Position) MarketValue(snap PriceSnapshot) float64 {
	return float64(p.Shares) * snap.Mid()
}

// HitStopLoss reports whether the last traded price has reached the stop.
// Unset stops (zero) never trigger.
func (p Position) HitStopLoss(last float64) bool {
	if p.StopLoss <= 0 {
		return false
	}

	return last <= p.StopLoss
}

// HitTakeProfit reports whether the last traded price has reached the target.
// Unset targets (zero) never trigger.
func (p Position) HitTakeProfit(last float64) bool {
	if p.TakeProfit <= 0 {
		return false
	}

	return last >= p.TakeProfit
}
