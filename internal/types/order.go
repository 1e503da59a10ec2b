package types

import (
	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/argo-portfolio/pkg/errors"
)

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

const (
	OrderReasonStopLoss           string = "stop_loss"
	OrderReasonTakeProfit         string = "take_profit"
	OrderReasonStrategy           string = "strategy"
	OrderReasonLimitFill          string = "limit_fill"
	OrderReasonExpired            string = "expired"
	OrderReasonInsufficientFunds  string = "insufficient_funds"
	OrderReasonInsufficientShares string = "insufficient_shares"
)

// Reason describes why an order was created, filled, or rejected.
type Reason struct {
	Reason  string `yaml:"reason" json:"reason" validate:"required"`
	Message string `yaml:"message" json:"message"`
}

// PendingOrder is a resting limit order awaiting a fill or expiry. It is
// immutable once created; the account removes it on fill or once the expiry
// check reports true.
type PendingOrder struct {
	ID         string    `yaml:"id" json:"id" validate:"required,uuid"`
	Symbol     string    `yaml:"symbol" json:"symbol" validate:"required"`
	Side       Side      `yaml:"side" json:"side" validate:"required,oneof=BUY SELL"`
	LimitPrice float64   `yaml:"limit_price" json:"limit_price" validate:"required,gt=0"`
	Quantity   int       `yaml:"quantity" json:"quantity" validate:"required,gt=0"`
	PlacedAt   Timestamp `yaml:"placed_at" json:"placed_at"`
	ExpiresAt  Timestamp `yaml:"expires_at" json:"expires_at"`
	// StopLoss and TakeProfit, when present, are attached to the position a
	// BUY fill opens. A plain limit order carries neither.
	StopLoss   optional.Option[float64] `yaml:"stop_loss" json:"stop_loss"`
	TakeProfit optional.Option[float64] `yaml:"take_profit" json:"take_profit"`
}

// Validate validates the PendingOrder struct.
func (o *PendingOrder) Validate() error {
	validate := validator.New()
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid pending order", err)
	}

	if !o.ExpiresAt.After(o.PlacedAt) {
		return errors.Newf(errors.ErrCodeInvalidOrder, "order %s expires at or before placement", o.ID)
	}

	return nil
}

// IsExpired reports whether the order has expired at the given time. Expiry
// is a pure function of the caller-supplied clock, never a scheduled event.
func (o PendingOrder) IsExpired(now Timestamp) bool {
	return now.After(o.ExpiresAt)
}

// ShouldFill reports whether the last traded price satisfies the limit:
// a BUY fills once last <= limit, a SELL once last >= limit.
func (o PendingOrder) ShouldFill(last float64) bool {
	if o.Side == SideBuy {
		return last <= o.LimitPrice
	}

	return last >= o.LimitPrice
}

// Trade is one executed buy or sell, as recorded in the journal.
type Trade struct {
	ID         string    `yaml:"id" json:"id"`
	Symbol     string    `yaml:"symbol" json:"symbol"`
	Side       Side      `yaml:"side" json:"side"`
	Quantity   int       `yaml:"quantity" json:"quantity"`
	Price      float64   `yaml:"price" json:"price"`
	Fee        float64   `yaml:"fee" json:"fee"`
	ExecutedAt Timestamp `yaml:"executed_at" json:"executed_at"`
	// PnL is the realized profit and loss against the position's entry price.
	// Zero for buys.
	PnL    float64 `yaml:"pnl" json:"pnl"`
	Reason Reason  `yaml:"reason" json:"reason"`
}
