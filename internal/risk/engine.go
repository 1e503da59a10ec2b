// Package risk sizes trades from historical volatility and gates admission
// on stop placement and reward/risk quality.
package risk

import (
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/rxtech-lab/argo-portfolio/internal/types"
	"github.com/rxtech-lab/argo-portfolio/pkg/errors"
)

// Config holds the tunable parameters of the engine.
type Config struct {
	// StopLossATRMultiple places the stop StopLossATRMultiple x ATR away
	// from entry.
	StopLossATRMultiple float64 `yaml:"stop_loss_atr_multiple" json:"stop_loss_atr_multiple" validate:"gt=0"`
	// MinRewardRisk is the lowest admissible reward to risk ratio.
	MinRewardRisk float64 `yaml:"min_reward_risk" json:"min_reward_risk" validate:"gt=0"`
	// MaxRiskFraction is the share of account value a single trade may
	// put at risk between entry and stop.
	MaxRiskFraction float64 `yaml:"max_risk_fraction" json:"max_risk_fraction" validate:"gt=0,lte=1"`
	// MaxPositionValue caps the notional of any single position in USD.
	MaxPositionValue float64 `yaml:"max_position_value" json:"max_position_value" validate:"gt=0"`
	// Lookback is the number of daily bars used for the ATR.
	Lookback int `yaml:"lookback" json:"lookback" validate:"gt=0"`
}

func DefaultConfig() Config {
	return Config{
		StopLossATRMultiple: 1.5,
		MinRewardRisk:       2.0,
		MaxRiskFraction:     0.02,
		MaxPositionValue:    20000,
		Lookback:            10,
	}
}

func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid risk configuration", err)
	}
	return nil
}

type Engine struct {
	config Config
}

func NewEngine(config Config) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Engine{config: config}, nil
}

func (e *Engine) Config() Config {
	return e.config
}

// TrueRange is the largest of the day's range and the gaps from the prior
// close to the day's high and low.
func TrueRange(bar types.DailyBar, prevClose float64) float64 {
	tr := bar.High - bar.Low
	if gap := math.Abs(bar.High - prevClose); gap > tr {
		tr = gap
	}
	if gap := math.Abs(bar.Low - prevClose); gap > tr {
		tr = gap
	}
	return tr
}

// AverageTrueRange computes the mean true range over the last lookback bars.
// The bar before the window supplies the first prior close; when the window
// starts at the first bar the true range falls back to that bar's range.
func (e *Engine) AverageTrueRange(bars []types.DailyBar) (float64, error) {
	lookback := e.config.Lookback
	if len(bars) < lookback {
		return 0, errors.Newf(errors.ErrCodeInsufficientHistory,
			"average true range needs %d daily bars, have %d", lookback, len(bars))
	}

	start := len(bars) - lookback
	sum := 0.0
	for i := start; i < len(bars); i++ {
		if i == 0 {
			sum += bars[i].High - bars[i].Low
			continue
		}
		sum += TrueRange(bars[i], bars[i-1].Close)
	}
	return sum / float64(lookback), nil
}

// Stops are the price levels protecting a trade.
type Stops struct {
	StopLoss   float64
	TakeProfit float64
}

// ComputeStops derives stop and target levels from the entry price and the
// current volatility. Long trades stop below entry and target above; short
// trades mirror the signs.
func (e *Engine) ComputeStops(entryPrice, atr float64, isLong bool) (Stops, error) {
	if entryPrice <= 0 || atr <= 0 {
		return Stops{}, errors.Newf(errors.ErrCodeInvalidRiskParameters,
			"entry price %f and atr %f must be positive", entryPrice, atr)
	}

	distance := e.config.StopLossATRMultiple * atr
	reward := distance * e.config.MinRewardRisk
	if isLong {
		return Stops{
			StopLoss:   entryPrice - distance,
			TakeProfit: entryPrice + reward,
		}, nil
	}
	return Stops{
		StopLoss:   entryPrice + distance,
		TakeProfit: entryPrice - reward,
	}, nil
}

// MaxPositionSize returns the largest admissible share count: the risk
// budget divided by the per-share stop distance, capped so the notional
// stays under the position value limit.
func (e *Engine) MaxPositionSize(accountValue, entryPrice, atr float64) (int, error) {
	if accountValue <= 0 || entryPrice <= 0 || atr <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidRiskParameters,
			"account value %f, entry price %f and atr %f must be positive", accountValue, entryPrice, atr)
	}

	riskBudget := accountValue * e.config.MaxRiskFraction
	perShareRisk := e.config.StopLossATRMultiple * atr
	shares := int(math.Floor(riskBudget / perShareRisk))

	notionalCap := int(math.Floor(e.config.MaxPositionValue / entryPrice))
	if shares > notionalCap {
		shares = notionalCap
	}
	return shares, nil
}

// TradeRequest is one proposed entry for admission checking.
type TradeRequest struct {
	AccountValue float64
	EntryPrice   float64
	Quantity     int
	StopLoss     float64
	TakeProfit   float64
	ATR          float64
	IsLong       bool
}

// CheckTrade rejects the request with a specific reason when the stop or
// target sits on the wrong side of entry, the reward/risk ratio is below the
// configured floor, the notional exceeds the position cap, or the size
// exceeds the risk budget. A nil return admits the trade.
func (e *Engine) CheckTrade(request TradeRequest) error {
	if request.Quantity <= 0 {
		return errors.Newf(errors.ErrCodeInvalidQuantity, "trade quantity must be positive, got %d", request.Quantity)
	}

	risk := request.EntryPrice - request.StopLoss
	reward := request.TakeProfit - request.EntryPrice
	if !request.IsLong {
		risk, reward = -risk, -reward
	}

	if risk <= 0 {
		return errors.Newf(errors.ErrCodeInvalidStopLoss,
			"stop loss %f is on the wrong side of entry %f", request.StopLoss, request.EntryPrice)
	}
	if reward <= 0 {
		return errors.Newf(errors.ErrCodeInvalidTakeProfit,
			"take profit %f is on the wrong side of entry %f", request.TakeProfit, request.EntryPrice)
	}
	if ratio := reward / risk; ratio < e.config.MinRewardRisk {
		return errors.Newf(errors.ErrCodeRewardRiskTooLow,
			"reward/risk %.2f below minimum %.2f", ratio, e.config.MinRewardRisk)
	}

	notional := float64(request.Quantity) * request.EntryPrice
	if notional > e.config.MaxPositionValue {
		return errors.Newf(errors.ErrCodePositionValueTooHigh,
			"position value %.2f exceeds cap %.2f", notional, e.config.MaxPositionValue)
	}

	if request.ATR > 0 {
		maxShares, err := e.MaxPositionSize(request.AccountValue, request.EntryPrice, request.ATR)
		if err != nil {
			return err
		}
		if request.Quantity > maxShares {
			return errors.Newf(errors.ErrCodeRiskBudgetExceeded,
				"quantity %d exceeds risk budget of %d shares", request.Quantity, maxShares)
		}
	}

	return nil
}
