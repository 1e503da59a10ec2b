package types

import (
	"github.com/go-playground/validator/v10"

	"github.com/rxtech-lab/argo-portfolio/pkg/errors"
)

// UnsetPrice is the sentinel for a price field that has not been observed yet.
const UnsetPrice float64 = -1

// PriceSnapshot is an immutable record of one ticker's prices at one point in
// time. A tick always produces a fresh snapshot; snapshots are never edited
// in place.
type PriceSnapshot struct {
	Timestamp Timestamp `json:"timestamp" yaml:"timestamp"`
	Last      float64   `json:"last" yaml:"last"`
	Low       float64   `json:"low" yaml:"low"`
	High      float64   `json:"high" yaml:"high"`
	Bid       float64   `json:"bid" yaml:"bid"`
	Ask       float64   `json:"ask" yaml:"ask"`
	Volume    int64     `json:"volume" yaml:"volume"`
}

// NewPriceSnapshot returns a snapshot at the given time with all price fields
// set to UnsetPrice and zero volume.
func NewPriceSnapshot(ts Timestamp) PriceSnapshot {
	return PriceSnapshot{
		Timestamp: ts,
		Last:      UnsetPrice,
		Low:       UnsetPrice,
		High:      UnsetPrice,
		Bid:       UnsetPrice,
		Ask:       UnsetPrice,
		Volume:    0,
	}
}

// Mid returns the midpoint of bid and ask.
func (s PriceSnapshot) Mid() float64 {
	return (s.Bid + s.Ask) / 2
}

// Tick is one inbound price/volume update for a ticker. It is the wire-side
// shape produced by feed adapters and consumed by the engine.
type Tick struct {
	Symbol    string    `json:"symbol" yaml:"symbol" validate:"required"`
	Last      float64   `json:"last" yaml:"last" validate:"gt=0"`
	Low       float64   `json:"low" yaml:"low"`
	High      float64   `json:"high" yaml:"high"`
	Bid       float64   `json:"bid" yaml:"bid"`
	Ask       float64   `json:"ask" yaml:"ask"`
	Volume    int64     `json:"volume" yaml:"volume" validate:"gte=0"`
	Timestamp Timestamp `json:"timestamp" yaml:"timestamp"`
}

// Validate validates the Tick struct.
func (t *Tick) Validate() error {
	validate := validator.New()
	if err := validate.Struct(t); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidTick, "invalid tick", err)
	}

	if t.Timestamp.IsZero() {
		return errors.Newf(errors.ErrCodeInvalidTimestamp, "tick for %s carries a zero timestamp", t.Symbol)
	}

	return nil
}

// Snapshot converts the tick into an immutable PriceSnapshot.
func (t Tick) Snapshot() PriceSnapshot {
	return PriceSnapshot{
		Timestamp: t.Timestamp,
		Last:      t.Last,
		Low:       t.Low,
		High:      t.High,
		Bid:       t.Bid,
		Ask:       t.Ask,
		Volume:    t.Volume,
	}
}

// DailyBar is one calendar day folded out of an intraday snapshot sequence:
// running high/low over the day and the last trade as the close.
type DailyBar struct {
	Date   Timestamp `json:"date" yaml:"date"`
	High   float64   `json:"high" yaml:"high"`
	Low    float64   `json:"low" yaml:"low"`
	Close  float64   `json:"close" yaml:"close"`
	Volume int64     `json:"volume" yaml:"volume"`
}
