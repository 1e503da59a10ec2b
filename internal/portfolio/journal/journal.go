// Package journal records every executed trade in an embedded DuckDB
// database so fills can be queried and aggregated after the fact.
package journal

import (
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-portfolio/internal/logger"
	"github.com/rxtech-lab/argo-portfolio/internal/types"
	"github.com/rxtech-lab/argo-portfolio/pkg/errors"
)

type TradeJournal struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

func NewTradeJournal(logger *logger.Logger) (*TradeJournal, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		logger.Error("Failed to open journal database", zap.Error(err))
		return nil, errors.Wrap(errors.ErrCodeJournalInitFailed, "failed to open journal database", err)
	}

	return &TradeJournal{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Initialize creates the trades table.
func (j *TradeJournal) Initialize() error {
	_, err := j.db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			trade_id TEXT PRIMARY KEY,
			symbol TEXT,
			side TEXT,
			quantity INTEGER,
			price DOUBLE,
			commission DOUBLE,
			executed_at TIMESTAMP,
			pnl DOUBLE,
			reason TEXT,
			message TEXT
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeJournalInitFailed, "failed to create trades table", err)
	}

	return nil
}

// Record persists a single executed trade.
func (j *TradeJournal) Record(trade types.Trade) error {
	insertQuery := j.sq.
		Insert("trades").
		Columns(
			"trade_id", "symbol", "side", "quantity", "price",
			"commission", "executed_at", "pnl", "reason", "message",
		).
		Values(
			trade.ID, trade.Symbol, trade.Side, trade.Quantity, trade.Price,
			trade.Fee, trade.ExecutedAt.Time(), trade.PnL,
			trade.Reason.Reason, trade.Reason.Message,
		).
		RunWith(j.db)

	if _, err := insertQuery.Exec(); err != nil {
		return errors.Wrapf(errors.ErrCodeJournalWriteFailed, err, "failed to record trade %s", trade.ID)
	}

	return nil
}

func (j *TradeJournal) scanTrades(rows *sql.Rows) ([]types.Trade, error) {
	defer rows.Close()

	var trades []types.Trade
	for rows.Next() {
		var trade types.Trade
		var executedAt time.Time
		err := rows.Scan(
			&trade.ID,
			&trade.Symbol,
			&trade.Side,
			&trade.Quantity,
			&trade.Price,
			&trade.Fee,
			&executedAt,
			&trade.PnL,
			&trade.Reason.Reason,
			&trade.Reason.Message,
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeJournalQueryFailed, "failed to scan trade", err)
		}
		trade.ExecutedAt = types.TimestampFromTime(executedAt)
		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeJournalQueryFailed, "error iterating trades", err)
	}

	return trades, nil
}

// AllTrades returns every recorded trade in execution order.
func (j *TradeJournal) AllTrades() ([]types.Trade, error) {
	selectQuery := j.sq.
		Select(
			"trade_id", "symbol", "side", "quantity", "price",
			"commission", "executed_at", "pnl", "reason", "message",
		).
		From("trades").
		OrderBy("executed_at ASC").
		RunWith(j.db)

	rows, err := selectQuery.Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeJournalQueryFailed, "failed to query trades", err)
	}

	return j.scanTrades(rows)
}

// TradesForSymbol returns the recorded trades for one symbol in execution order.
func (j *TradeJournal) TradesForSymbol(symbol string) ([]types.Trade, error) {
	selectQuery := j.sq.
		Select(
			"trade_id", "symbol", "side", "quantity", "price",
			"commission", "executed_at", "pnl", "reason", "message",
		).
		From("trades").
		Where(squirrel.Eq{"symbol": symbol}).
		OrderBy("executed_at ASC").
		RunWith(j.db)

	rows, err := selectQuery.Query()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeJournalQueryFailed, err, "failed to query trades for %s", symbol)
	}

	return j.scanTrades(rows)
}

// TradeByID looks up a single trade. Returns None when no trade matches.
func (j *TradeJournal) TradeByID(tradeID string) (optional.Option[types.Trade], error) {
	query := j.sq.
		Select(
			"trade_id", "symbol", "side", "quantity", "price",
			"commission", "executed_at", "pnl", "reason", "message",
		).
		From("trades").
		Where(squirrel.Eq{"trade_id": tradeID}).
		RunWith(j.db)

	var trade types.Trade
	var executedAt time.Time
	err := query.QueryRow().Scan(
		&trade.ID,
		&trade.Symbol,
		&trade.Side,
		&trade.Quantity,
		&trade.Price,
		&trade.Fee,
		&executedAt,
		&trade.PnL,
		&trade.Reason.Reason,
		&trade.Reason.Message,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return optional.None[types.Trade](), nil
		}
		return optional.None[types.Trade](), errors.Wrapf(errors.ErrCodeJournalQueryFailed, err, "failed to get trade %s", tradeID)
	}
	trade.ExecutedAt = types.TimestampFromTime(executedAt)
	return optional.Some(trade), nil
}

// TotalFees sums the commission paid across all recorded trades for a symbol.
func (j *TradeJournal) TotalFees(symbol string) (float64, error) {
	query := j.sq.
		Select("COALESCE(SUM(commission), 0)").
		From("trades").
		Where(squirrel.Eq{"symbol": symbol}).
		RunWith(j.db)

	var totalFees float64
	if err := query.QueryRow().Scan(&totalFees); err != nil {
		return 0, errors.Wrapf(errors.ErrCodeJournalQueryFailed, err, "failed to sum fees for %s", symbol)
	}
	return totalFees, nil
}

// RealizedPnL sums the realized profit and loss across all closing trades
// for a symbol.
func (j *TradeJournal) RealizedPnL(symbol string) (float64, error) {
	query := j.sq.
		Select("COALESCE(SUM(pnl), 0)").
		From("trades").
		Where(squirrel.Eq{"symbol": symbol}).
		RunWith(j.db)

	var pnl float64
	if err := query.QueryRow().Scan(&pnl); err != nil {
		return 0, errors.Wrapf(errors.ErrCodeJournalQueryFailed, err, "failed to sum pnl for %s", symbol)
	}
	return pnl, nil
}

// Cleanup drops and recreates the trades table.
func (j *TradeJournal) Cleanup() error {
	if _, err := j.db.Exec(`DROP TABLE IF EXISTS trades`); err != nil {
		return errors.Wrap(errors.ErrCodeJournalInitFailed, "failed to drop trades table", err)
	}
	return j.Initialize()
}

// Close releases the underlying database.
func (j *TradeJournal) Close() error {
	return j.db.Close()
}
