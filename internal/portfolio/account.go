// Package portfolio models the state of a single trading account: cash,
// open positions, and resting limit orders, marked against the live view
// of a market store.
package portfolio

import (
	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-portfolio/internal/logger"
	"github.com/rxtech-lab/argo-portfolio/internal/market"
	"github.com/rxtech-lab/argo-portfolio/internal/portfolio/commission"
	"github.com/rxtech-lab/argo-portfolio/internal/portfolio/journal"
	"github.com/rxtech-lab/argo-portfolio/internal/types"
	"github.com/rxtech-lab/argo-portfolio/pkg/errors"
)

// CloseSignal reports a position whose stop or target level was crossed by
// the latest price. Signals are advisory: the caller decides whether to
// route a sell.
type CloseSignal struct {
	PositionIndex int
	Symbol        string
	Shares        int
	Price         float64
	Reason        types.Reason
}

// Account owns the cash balance, the ordered position list, and the resting
// limit orders of one trading account. All mutating operations are
// single-writer: callers embedding the account in a concurrent host must
// serialize access themselves.
type Account struct {
	logger   *logger.Logger
	store    *market.Store
	schedule commission.Schedule
	journal  *journal.TradeJournal
	cash     decimal.Decimal
	// positions and pending preserve insertion order so index-based sells
	// stay stable between calls
	positions []types.Position
	pending   []types.PendingOrder
}

func NewAccount(logger *logger.Logger, store *market.Store, schedule commission.Schedule, journal *journal.TradeJournal, initialCash float64) *Account {
	return &Account{
		logger:   logger,
		store:    store,
		schedule: schedule,
		journal:  journal,
		cash:     decimal.NewFromFloat(initialCash),
	}
}

// Cash returns the available cash balance.
func (a *Account) Cash() float64 {
	cash, _ := a.cash.Float64()
	return cash
}

// Buy opens or extends a long holding at the given price. The symbol must
// already be tracked by the market store, and cash must cover the notional
// plus commission.
func (a *Account) Buy(symbol string, quantity int, price float64, stopLoss, takeProfit optional.Option[float64], at types.Timestamp) (types.Trade, error) {
	return a.buy(symbol, quantity, price, stopLoss, takeProfit, at, types.Reason{
		Reason:  types.OrderReasonStrategy,
		Message: "market buy",
	})
}

// MarketBuy resolves the current ask from the live view and buys at it.
// Falls back to the last trade price when the venue publishes no ask.
func (a *Account) MarketBuy(symbol string, quantity int, stopLoss, takeProfit optional.Option[float64], at types.Timestamp) (types.Trade, error) {
	snap, err := a.store.Snapshot(symbol)
	if err != nil {
		return types.Trade{}, err
	}
	price := snap.Ask
	if price == types.UnsetPrice {
		price = snap.Last
	}
	return a.Buy(symbol, quantity, price, stopLoss, takeProfit, at)
}

func (a *Account) buy(symbol string, quantity int, price float64, stopLoss, takeProfit optional.Option[float64], at types.Timestamp, reason types.Reason) (types.Trade, error) {
	if quantity <= 0 {
		return types.Trade{}, errors.Newf(errors.ErrCodeInvalidQuantity, "buy quantity must be positive, got %d", quantity)
	}
	if price <= 0 {
		return types.Trade{}, errors.Newf(errors.ErrCodeInvalidParameter, "buy price must be positive, got %f", price)
	}
	if !a.store.Contains(symbol) {
		return types.Trade{}, errors.Newf(errors.ErrCodeTickerNotTracked, "ticker %s has no live view", symbol)
	}

	fee := a.schedule.Calculate(quantity)
	cost := decimal.NewFromInt(int64(quantity)).
		Mul(decimal.NewFromFloat(price)).
		Add(decimal.NewFromFloat(fee))
	if a.cash.LessThan(cost) {
		return types.Trade{}, errors.Newf(errors.ErrCodeInsufficientFunds,
			"buy %d %s at %.2f requires %s, have %s", quantity, symbol, price, cost.StringFixed(2), a.cash.StringFixed(2))
	}

	a.cash = a.cash.Sub(cost)
	a.positions = append(a.positions, types.Position{
		Symbol:     symbol,
		Shares:     quantity,
		EntryPrice: price,
		StopLoss:   stopLoss.TakeOr(0),
		TakeProfit: takeProfit.TakeOr(0),
		OpenedAt:   at,
	})

	trade := types.Trade{
		ID:         uuid.New().String(),
		Symbol:     symbol,
		Side:       types.SideBuy,
		Quantity:   quantity,
		Price:      price,
		Fee:        fee,
		ExecutedAt: at,
		PnL:        0,
		Reason:     reason,
	}
	if err := a.journal.Record(trade); err != nil {
		return types.Trade{}, err
	}

	a.logger.Info("Executed buy",
		zap.String("symbol", symbol),
		zap.Int("quantity", quantity),
		zap.Float64("price", price),
		zap.Float64("fee", fee),
	)

	return trade, nil
}

// Sell closes part or all of the position at the given index. Selling the
// full share count removes the position.
func (a *Account) Sell(positionIndex int, quantity int, price float64, at types.Timestamp) (types.Trade, error) {
	return a.sell(positionIndex, quantity, price, at, types.Reason{
		Reason:  types.OrderReasonStrategy,
		Message: "market sell",
	})
}

func (a *Account) sell(positionIndex int, quantity int, price float64, at types.Timestamp, reason types.Reason) (types.Trade, error) {
	if positionIndex < 0 || positionIndex >= len(a.positions) {
		return types.Trade{}, errors.Newf(errors.ErrCodeIndexOutOfBounds,
			"position index %d out of bounds, have %d positions", positionIndex, len(a.positions))
	}
	if quantity <= 0 {
		return types.Trade{}, errors.Newf(errors.ErrCodeInvalidQuantity, "sell quantity must be positive, got %d", quantity)
	}
	if price <= 0 {
		return types.Trade{}, errors.Newf(errors.ErrCodeInvalidParameter, "sell price must be positive, got %f", price)
	}

	position := &a.positions[positionIndex]
	if quantity > position.Shares {
		return types.Trade{}, errors.Newf(errors.ErrCodeInsufficientShares,
			"sell %d exceeds %d held shares of %s", quantity, position.Shares, position.Symbol)
	}

	fee := a.schedule.Calculate(quantity)
	qtyDec := decimal.NewFromInt(int64(quantity))
	proceeds := qtyDec.Mul(decimal.NewFromFloat(price)).Sub(decimal.NewFromFloat(fee))
	entry := qtyDec.Mul(decimal.NewFromFloat(position.EntryPrice))
	pnl, _ := proceeds.Sub(entry).Float64()

	a.cash = a.cash.Add(proceeds)
	position.Shares -= quantity
	symbol := position.Symbol
	if position.Shares == 0 {
		a.positions = append(a.positions[:positionIndex], a.positions[positionIndex+1:]...)
	}

	trade := types.Trade{
		ID:         uuid.New().String(),
		Symbol:     symbol,
		Side:       types.SideSell,
		Quantity:   quantity,
		Price:      price,
		Fee:        fee,
		ExecutedAt: at,
		PnL:        pnl,
		Reason:     reason,
	}
	if err := a.journal.Record(trade); err != nil {
		return types.Trade{}, err
	}

	a.logger.Info("Executed sell",
		zap.String("symbol", symbol),
		zap.Int("quantity", quantity),
		zap.Float64("price", price),
		zap.Float64("pnl", pnl),
	)

	return trade, nil
}

// SellSymbol sells against the first open position for the symbol.
func (a *Account) SellSymbol(symbol string, quantity int, price float64, at types.Timestamp) (types.Trade, error) {
	for i := range a.positions {
		if a.positions[i].Symbol == symbol {
			return a.Sell(i, quantity, price, at)
		}
	}
	return types.Trade{}, errors.Newf(errors.ErrCodePositionNotFound, "no open position for %s", symbol)
}

// MarketSell resolves the current bid from the live view and sells the
// symbol's first open position at it. Falls back to the last trade price
// when the venue publishes no bid.
func (a *Account) MarketSell(symbol string, quantity int, at types.Timestamp) (types.Trade, error) {
	snap, err := a.store.Snapshot(symbol)
	if err != nil {
		return types.Trade{}, err
	}
	price := snap.Bid
	if price == types.UnsetPrice {
		price = snap.Last
	}
	return a.SellSymbol(symbol, quantity, price, at)
}

// PlaceLimitOrder validates and rests a limit order. BUY orders require cash
// covering the notional plus commission at the limit price, SELL orders
// require the aggregate held shares of the symbol to cover the quantity.
// Nothing is escrowed at placement: the same checks run again when the order
// fills, and a fill that no longer passes them drops the order.
func (a *Account) PlaceLimitOrder(order types.PendingOrder) (types.PendingOrder, error) {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if err := order.Validate(); err != nil {
		return types.PendingOrder{}, err
	}

	switch order.Side {
	case types.SideBuy:
		fee := a.schedule.Calculate(order.Quantity)
		cost := decimal.NewFromInt(int64(order.Quantity)).
			Mul(decimal.NewFromFloat(order.LimitPrice)).
			Add(decimal.NewFromFloat(fee))
		if a.cash.LessThan(cost) {
			return types.PendingOrder{}, errors.Newf(errors.ErrCodeInsufficientFunds,
				"limit buy %d %s at %.2f requires %s, have %s",
				order.Quantity, order.Symbol, order.LimitPrice, cost.StringFixed(2), a.cash.StringFixed(2))
		}
	case types.SideSell:
		held := a.SharesOf(order.Symbol)
		if held < order.Quantity {
			return types.PendingOrder{}, errors.Newf(errors.ErrCodeInsufficientShares,
				"limit sell %d exceeds %d held shares of %s", order.Quantity, held, order.Symbol)
		}
	}

	a.pending = append(a.pending, order)
	a.logger.Info("Placed limit order",
		zap.String("id", order.ID),
		zap.String("symbol", order.Symbol),
		zap.String("side", string(order.Side)),
		zap.Float64("limit", order.LimitPrice),
	)

	return order, nil
}

// CancelLimitOrder removes a resting order by id.
func (a *Account) CancelLimitOrder(orderID string) error {
	for i := range a.pending {
		if a.pending[i].ID == orderID {
			a.pending = append(a.pending[:i], a.pending[i+1:]...)
			return nil
		}
	}
	return errors.Newf(errors.ErrCodeOrderNotFound, "no pending order %s", orderID)
}

// OrderByID looks up a resting order by id.
func (a *Account) OrderByID(orderID string) optional.Option[types.PendingOrder] {
	for i := range a.pending {
		if a.pending[i].ID == orderID {
			return optional.Some(a.pending[i])
		}
	}
	return optional.None[types.PendingOrder]()
}

// EvaluateLimitOrders walks the resting orders against the current clock and
// live prices. Expired orders are dropped without filling. An order whose
// fill condition holds routes through the same buy/sell path as market
// orders; a fill that fails its funds or share re-check is dropped.
func (a *Account) EvaluateLimitOrders(now types.Timestamp) []types.Trade {
	var fills []types.Trade
	remaining := a.pending[:0]

	for _, order := range a.pending {
		if order.IsExpired(now) {
			a.logger.Info("Dropped expired limit order",
				zap.String("id", order.ID),
				zap.String("symbol", order.Symbol),
			)
			continue
		}

		snap, err := a.store.Snapshot(order.Symbol)
		if err != nil || !order.ShouldFill(snap.Last) {
			remaining = append(remaining, order)
			continue
		}

		trade, err := a.fillLimitOrder(order, snap.Last, now)
		if err != nil {
			a.logger.Warn("Dropped unfillable limit order",
				zap.String("id", order.ID),
				zap.String("symbol", order.Symbol),
				zap.Error(err),
			)
			continue
		}
		fills = append(fills, trade)
	}

	a.pending = remaining
	return fills
}

func (a *Account) fillLimitOrder(order types.PendingOrder, last float64, now types.Timestamp) (types.Trade, error) {
	reason := types.Reason{
		Reason:  types.OrderReasonLimitFill,
		Message: "limit order " + order.ID,
	}
	if order.Side == types.SideBuy {
		return a.buy(order.Symbol, order.Quantity, last, order.StopLoss, order.TakeProfit, now, reason)
	}

	for i := range a.positions {
		if a.positions[i].Symbol == order.Symbol {
			return a.sell(i, order.Quantity, last, now, reason)
		}
	}
	return types.Trade{}, errors.Newf(errors.ErrCodePositionNotFound, "no open position for %s", order.Symbol)
}

// MarkToMarket checks every open position on the symbol against the latest
// live price and reports crossed stop or target levels. Nothing is closed
// here: the caller routes the sell.
func (a *Account) MarkToMarket(symbol string) ([]CloseSignal, error) {
	snap, err := a.store.Snapshot(symbol)
	if err != nil {
		return nil, err
	}

	var signals []CloseSignal
	for i := range a.positions {
		position := a.positions[i]
		if position.Symbol != symbol {
			continue
		}
		if position.HitStopLoss(snap.Last) {
			signals = append(signals, CloseSignal{
				PositionIndex: i,
				Symbol:        symbol,
				Shares:        position.Shares,
				Price:         snap.Last,
				Reason: types.Reason{
					Reason:  types.OrderReasonStopLoss,
					Message: "stop loss crossed",
				},
			})
		} else if position.HitTakeProfit(snap.Last) {
			signals = append(signals, CloseSignal{
				PositionIndex: i,
				Symbol:        symbol,
				Shares:        position.Shares,
				Price:         snap.Last,
				Reason: types.Reason{
					Reason:  types.OrderReasonTakeProfit,
					Message: "take profit crossed",
				},
			})
		}
	}

	return signals, nil
}

// SharesOf sums the held shares across every open position for the symbol.
func (a *Account) SharesOf(symbol string) int {
	total := 0
	for i := range a.positions {
		if a.positions[i].Symbol == symbol {
			total += a.positions[i].Shares
		}
	}
	return total
}

// Value marks the whole account: cash plus every position priced at the live
// mid. A position whose live view is gone falls back to its entry price.
func (a *Account) Value() float64 {
	total := a.cash
	for i := range a.positions {
		position := a.positions[i]
		price := position.EntryPrice
		if snap, err := a.store.Snapshot(position.Symbol); err == nil {
			price = snap.Mid()
		}
		total = total.Add(decimal.NewFromInt(int64(position.Shares)).Mul(decimal.NewFromFloat(price)))
	}
	value, _ := total.Float64()
	return value
}

// Positions returns a copy of the open position list.
func (a *Account) Positions() []types.Position {
	positions := make([]types.Position, len(a.positions))
	copy(positions, a.positions)
	return positions
}

// PendingOrders returns a copy of the resting limit orders.
func (a *Account) PendingOrders() []types.PendingOrder {
	pending := make([]types.PendingOrder, len(a.pending))
	copy(pending, a.pending)
	return pending
}
