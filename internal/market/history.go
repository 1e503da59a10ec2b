package market

import (
	"github.com/rxtech-lab/argo-portfolio/internal/types"
	"github.com/rxtech-lab/argo-portfolio/pkg/errors"
)

// TickerHistory is an append-only, strictly time-ordered sequence of price
// snapshots for one ticker. Entries are never removed or reordered, so
// downstream volatility math never needs a sort.
type TickerHistory struct {
	symbol      string
	stepSeconds int
	snapshots   []types.PriceSnapshot
	// dateCounts tracks how many coarse (date-only) entries have been
	// recorded per calendar day, for synthetic intraday offsets.
	dateCounts map[types.Timestamp]int
}

// NewTickerHistory creates an empty history. stepSeconds is the synthetic
// spacing applied to coarse-dated entries that share a calendar day.
func NewTickerHistory(symbol string, stepSeconds int) *TickerHistory {
	return &TickerHistory{
		symbol:      symbol,
		stepSeconds: stepSeconds,
		snapshots:   nil,
		dateCounts:  make(map[types.Timestamp]int),
	}
}

// Symbol returns the ticker symbol.
func (h *TickerHistory) Symbol() string {
	return h.symbol
}

// Len returns the number of recorded snapshots.
func (h *TickerHistory) Len() int {
	return len(h.snapshots)
}

// Snapshots returns a copy of the recorded sequence.
func (h *TickerHistory) Snapshots() []types.PriceSnapshot {
	out := make([]types.PriceSnapshot, len(h.snapshots))
	copy(out, h.snapshots)

	return out
}

// MostRecentTimestamp returns the timestamp of the newest entry.
func (h *TickerHistory) MostRecentTimestamp() (types.Timestamp, error) {
	if len(h.snapshots) == 0 {
		return types.Timestamp{}, errors.Newf(errors.ErrCodeEmptyHistory, "no history recorded for %s", h.symbol)
	}

	return h.snapshots[len(h.snapshots)-1].Timestamp, nil
}

// Append records a snapshot if its timestamp is strictly newer than the most
// recent entry. Repeated or out-of-order deliveries are dropped, keeping the
// sequence strictly increasing. Returns true if the snapshot was recorded.
func (h *TickerHistory) Append(snap types.PriceSnapshot) bool {
	if len(h.snapshots) > 0 {
		last := h.snapshots[len(h.snapshots)-1].Timestamp
		if !snap.Timestamp.After(last) {
			return false
		}
	}

	h.snapshots = append(h.snapshots, snap)

	return true
}

// AppendDated records a snapshot whose timestamp only resolves to a calendar
// day, as coarse feeds deliver them. The Nth entry for an already-seen day is
// shifted to date + N*step seconds so intraday ticks sharing one nominal day
// stay strictly ordered and unique instead of being dropped.
func (h *TickerHistory) AppendDated(snap types.PriceSnapshot) bool {
	base := snap.Timestamp.Date()

	occurrences := h.dateCounts[base]
	if occurrences > 0 {
		snap.Timestamp = base.Add(occurrences * h.stepSeconds)
	} else {
		snap.Timestamp = base
	}

	if !h.Append(snap) {
		return false
	}

	h.dateCounts[base] = occurrences + 1

	return true
}

// DailyBars folds the intraday sequence into one bar per calendar day:
// running high/low over the day, last tick as the close, summed volume. The
// final in-progress day is left out until it rolls over, so callers sizing
// risk only ever see finalized days.
func (h *TickerHistory) DailyBars() []types.DailyBar {
	if len(h.snapshots) == 0 {
		return nil
	}

	var bars []types.DailyBar

	first := h.snapshots[0]
	bar := types.DailyBar{
		Date:   first.Timestamp.Date(),
		High:   first.High,
		Low:    first.Low,
		Close:  first.Last,
		Volume: first.Volume,
	}

	for i := 1; i < len(h.snapshots); i++ {
		snap := h.snapshots[i]

		if !snap.Timestamp.SameDate(h.snapshots[i-1].Timestamp) {
			bars = append(bars, bar)
			bar = types.DailyBar{
				Date:   snap.Timestamp.Date(),
				High:   snap.High,
				Low:    snap.Low,
				Close:  snap.Last,
				Volume: snap.Volume,
			}

			continue
		}

		if snap.High > bar.High {
			bar.High = snap.High
		}

		if snap.Low < bar.Low {
			bar.Low = snap.Low
		}

		bar.Close = snap.Last
		bar.Volume += snap.Volume
	}

	// the trailing partial day is not finalized
	return bars
}
