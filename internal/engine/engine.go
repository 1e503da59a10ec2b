// Package engine wires the market store, account, risk engine, and trade
// journal into one tick-driven pipeline.
package engine

import (
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-portfolio/internal/logger"
	"github.com/rxtech-lab/argo-portfolio/internal/market"
	"github.com/rxtech-lab/argo-portfolio/internal/portfolio"
	"github.com/rxtech-lab/argo-portfolio/internal/portfolio/commission"
	"github.com/rxtech-lab/argo-portfolio/internal/portfolio/journal"
	"github.com/rxtech-lab/argo-portfolio/internal/risk"
	"github.com/rxtech-lab/argo-portfolio/internal/types"
)

// TickResult reports the side effects of one processed tick: limit orders
// that filled and positions whose protective levels were crossed.
type TickResult struct {
	Fills   []types.Trade
	Signals []portfolio.CloseSignal
}

type Engine struct {
	logger  *logger.Logger
	config  Config
	store   *market.Store
	account *portfolio.Account
	journal *journal.TradeJournal
	risk    *risk.Engine
}

func NewEngine(config Config, log *logger.Logger) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	riskEngine, err := risk.NewEngine(config.Risk)
	if err != nil {
		return nil, err
	}

	tradeJournal, err := journal.NewTradeJournal(log)
	if err != nil {
		return nil, err
	}
	if err := tradeJournal.Initialize(); err != nil {
		return nil, err
	}

	store := market.NewStore(log, config.StepSeconds)
	account := portfolio.NewAccount(log, store, commission.GetSchedule(config.Broker), tradeJournal, config.InitialCapital)

	return &Engine{
		logger:  log,
		config:  config,
		store:   store,
		account: account,
		journal: tradeJournal,
		risk:    riskEngine,
	}, nil
}

// ProcessTick runs the full pipeline for one inbound tick: the live view and
// history are reconciled, resting limit orders are evaluated against the new
// price, and open positions on the symbol are marked. Ticks outside the
// configured time window are skipped without error.
func (e *Engine) ProcessTick(tick types.Tick) (TickResult, error) {
	if !e.inWindow(tick.Timestamp) {
		return TickResult{}, nil
	}

	if err := e.store.IngestTick(tick); err != nil {
		return TickResult{}, err
	}

	fills := e.account.EvaluateLimitOrders(tick.Timestamp)

	signals, err := e.account.MarkToMarket(tick.Symbol)
	if err != nil {
		return TickResult{}, err
	}
	for _, signal := range signals {
		e.logger.Info("Close signal",
			zap.String("symbol", signal.Symbol),
			zap.String("reason", signal.Reason.Reason),
			zap.Float64("price", signal.Price),
		)
	}

	return TickResult{Fills: fills, Signals: signals}, nil
}

func (e *Engine) inWindow(ts types.Timestamp) bool {
	at := ts.Time()
	if start, err := e.config.StartTime.Take(); err == nil && at.Before(start) {
		return false
	}
	if end, err := e.config.EndTime.Take(); err == nil && at.After(end) {
		return false
	}
	return true
}

// OpenPosition sizes and admits a long entry at the live last price. Stops
// come from the risk engine's volatility model and the trade is rejected
// before any cash moves when it fails an admission check.
func (e *Engine) OpenPosition(symbol string, quantity int, at types.Timestamp) (types.Trade, error) {
	snap, err := e.store.Snapshot(symbol)
	if err != nil {
		return types.Trade{}, err
	}

	bars, err := e.store.DailyBars(symbol)
	if err != nil {
		return types.Trade{}, err
	}
	atr, err := e.risk.AverageTrueRange(bars)
	if err != nil {
		return types.Trade{}, err
	}

	stops, err := e.risk.ComputeStops(snap.Last, atr, true)
	if err != nil {
		return types.Trade{}, err
	}

	if err := e.risk.CheckTrade(risk.TradeRequest{
		AccountValue: e.account.Value(),
		EntryPrice:   snap.Last,
		Quantity:     quantity,
		StopLoss:     stops.StopLoss,
		TakeProfit:   stops.TakeProfit,
		ATR:          atr,
		IsLong:       true,
	}); err != nil {
		return types.Trade{}, err
	}

	return e.account.Buy(symbol, quantity, snap.Last, optional.Some(stops.StopLoss), optional.Some(stops.TakeProfit), at)
}

// ClosePosition routes the sell for a close signal surfaced by ProcessTick.
func (e *Engine) ClosePosition(signal portfolio.CloseSignal, at types.Timestamp) (types.Trade, error) {
	return e.account.SellSymbol(signal.Symbol, signal.Shares, signal.Price, at)
}

func (e *Engine) Account() *portfolio.Account {
	return e.account
}

func (e *Engine) Store() *market.Store {
	return e.store
}

func (e *Engine) Journal() *journal.TradeJournal {
	return e.journal
}

func (e *Engine) RiskEngine() *risk.Engine {
	return e.risk
}

// Close releases the journal's database handle.
func (e *Engine) Close() error {
	return e.journal.Close()
}
