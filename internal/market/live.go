// Package market holds the live and historical views of every tracked ticker
// and reconciles the two as ticks arrive.
package market

import (
	"github.com/rxtech-lab/argo-portfolio/internal/types"
)

// LiveTicker holds the single most recent snapshot for one ticker. The market
// store owns exactly one LiveTicker per symbol and mutates it in place on
// every tick; readers resolve it through the store by symbol.
type LiveTicker struct {
	symbol   string
	snapshot types.PriceSnapshot
}

// NewLiveTicker creates a live ticker with an empty (sentinel-priced) snapshot.
func NewLiveTicker(symbol string) *LiveTicker {
	return &LiveTicker{
		symbol:   symbol,
		snapshot: types.NewPriceSnapshot(types.Timestamp{}),
	}
}

// Symbol returns the ticker symbol.
func (t *LiveTicker) Symbol() string {
	return t.symbol
}

// Snapshot returns the current snapshot by value.
func (t *LiveTicker) Snapshot() types.PriceSnapshot {
	return t.snapshot
}

// Update replaces the current snapshot wholesale.
func (t *LiveTicker) Update(snap types.PriceSnapshot) {
	t.snapshot = snap
}
