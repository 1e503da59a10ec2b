package market

import (
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-portfolio/internal/logger"
	"github.com/rxtech-lab/argo-portfolio/internal/types"
	"github.com/rxtech-lab/argo-portfolio/pkg/errors"
)

// DefaultStepSeconds spaces synthetic intraday offsets for coarse-dated
// history entries.
const DefaultStepSeconds = 60

// Store owns the live view and the historical record of every tracked ticker
// and keeps them reconciled as ticks arrive. Tickers are created on first
// use; no registration call is needed.
//
// The store assumes single-writer access: a mutating call must complete
// before the next begins. Embedding hosts with concurrent writers must guard
// the store with one exclusive lock.
type Store struct {
	logger      *logger.Logger
	stepSeconds int
	live        map[string]*LiveTicker
	histories   map[string]*TickerHistory
}

// NewStore creates an empty market store.
func NewStore(log *logger.Logger, stepSeconds int) *Store {
	if stepSeconds <= 0 {
		stepSeconds = DefaultStepSeconds
	}

	return &Store{
		logger:      log,
		stepSeconds: stepSeconds,
		live:        make(map[string]*LiveTicker),
		histories:   make(map[string]*TickerHistory),
	}
}

// IngestTick updates the live ticker with the tick's snapshot and reconciles
// the historical record, creating both views on first sight of the symbol.
func (s *Store) IngestTick(tick types.Tick) error {
	if err := tick.Validate(); err != nil {
		return err
	}

	snap := tick.Snapshot()

	live, ok := s.live[tick.Symbol]
	if !ok {
		live = NewLiveTicker(tick.Symbol)
		s.live[tick.Symbol] = live
		s.logger.Info("tracking new ticker", zap.String("symbol", tick.Symbol))
	}

	live.Update(snap)
	s.ReconcileHistory(tick.Symbol, snap)

	return nil
}

// ReconcileHistory appends the snapshot to the symbol's history if it is
// strictly newer than the most recent entry. Repeated or redelivered
// snapshots are dropped silently so the history stays monotonic. Returns
// true if the snapshot was recorded.
func (s *Store) ReconcileHistory(symbol string, snap types.PriceSnapshot) bool {
	history, ok := s.histories[symbol]
	if !ok {
		history = NewTickerHistory(symbol, s.stepSeconds)
		s.histories[symbol] = history
	}

	appended := history.Append(snap)
	if !appended {
		s.logger.Debug("dropped stale tick",
			zap.String("symbol", symbol),
			zap.String("timestamp", snap.Timestamp.String()),
		)
	}

	return appended
}

// BackfillDated appends a coarse-dated snapshot (date resolution only) to the
// symbol's history, disambiguating repeated days with synthetic offsets.
// Used by historical backfill feeds; the live view is left untouched.
func (s *Store) BackfillDated(symbol string, snap types.PriceSnapshot) bool {
	history, ok := s.histories[symbol]
	if !ok {
		history = NewTickerHistory(symbol, s.stepSeconds)
		s.histories[symbol] = history
	}

	return history.AppendDated(snap)
}

// Contains reports whether the symbol has a live ticker.
func (s *Store) Contains(symbol string) bool {
	_, ok := s.live[symbol]

	return ok
}

// Live returns the live ticker for the symbol.
func (s *Store) Live(symbol string) (*LiveTicker, error) {
	live, ok := s.live[symbol]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeTickerNotTracked, "ticker %s is not tracked", symbol)
	}

	return live, nil
}

// Snapshot returns the current live snapshot for the symbol.
func (s *Store) Snapshot(symbol string) (types.PriceSnapshot, error) {
	live, err := s.Live(symbol)
	if err != nil {
		return types.PriceSnapshot{}, err
	}

	return live.Snapshot(), nil
}

// History returns the historical record for the symbol. Fails with
// UnknownTicker if the symbol has never been ingested or backfilled.
func (s *Store) History(symbol string) (*TickerHistory, error) {
	history, ok := s.histories[symbol]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeUnknownTicker, "no history for ticker %s", symbol)
	}

	return history, nil
}

// MostRecentTimestamp returns the timestamp of the symbol's newest history
// entry. Fails with EmptyHistory if the ticker is known but has no appended
// data.
func (s *Store) MostRecentTimestamp(symbol string) (types.Timestamp, error) {
	history, err := s.History(symbol)
	if err != nil {
		return types.Timestamp{}, err
	}

	return history.MostRecentTimestamp()
}

// DailyBars folds the symbol's history into finalized one-per-day bars.
func (s *Store) DailyBars(symbol string) ([]types.DailyBar, error) {
	history, err := s.History(symbol)
	if err != nil {
		return nil, err
	}

	return history.DailyBars(), nil
}

// Tickers returns the symbols with a live ticker.
func (s *Store) Tickers() []string {
	tickers := make([]string, 0, len(s.live))
	for symbol := range s.live {
		tickers = append(tickers, symbol)
	}

	return tickers
}
