package risk

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-portfolio/internal/types"
	"github.com/rxtech-lab/argo-portfolio/pkg/errors"
)

type RiskEngineTestSuite struct {
	suite.Suite
	engine *Engine
}

func TestRiskEngineSuite(t *testing.T) {
	suite.Run(t, new(RiskEngineTestSuite))
}

func (suite *RiskEngineTestSuite) SetupTest() {
	engine, err := NewEngine(DefaultConfig())
	suite.Require().NoError(err)
	suite.engine = engine
}

func (suite *RiskEngineTestSuite) newEngine(config Config) *Engine {
	engine, err := NewEngine(config)
	suite.Require().NoError(err)
	return engine
}

func barOn(day int, high, low, close float64) types.DailyBar {
	return types.DailyBar{
		Date:  types.NewDate(2024, 6, day),
		High:  high,
		Low:   low,
		Close: close,
	}
}

func (suite *RiskEngineTestSuite) TestConfigValidation() {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero stop multiple", func(c *Config) { c.StopLossATRMultiple = 0 }},
		{"negative reward risk", func(c *Config) { c.MinRewardRisk = -1 }},
		{"risk fraction above one", func(c *Config) { c.MaxRiskFraction = 1.5 }},
		{"zero lookback", func(c *Config) { c.Lookback = 0 }},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			config := DefaultConfig()
			tc.mutate(&config)
			_, err := NewEngine(config)
			suite.Error(err)
			suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
		})
	}
}

func (suite *RiskEngineTestSuite) TestAverageTrueRange() {
	config := DefaultConfig()
	config.Lookback = 3
	engine := suite.newEngine(config)

	// prior closes 100, 103, 102 give true ranges 10, 5, 8
	bars := []types.DailyBar{
		barOn(10, 101, 99, 100),
		barOn(11, 105, 95, 103),
		barOn(12, 106, 101, 102),
		barOn(13, 108, 100, 104),
	}
	atr, err := engine.AverageTrueRange(bars)
	suite.NoError(err)
	suite.InDelta(23.0/3.0, atr, 1e-9)
}

func (suite *RiskEngineTestSuite) TestAverageTrueRangeFirstBarFallsBackToRange() {
	config := DefaultConfig()
	config.Lookback = 2
	engine := suite.newEngine(config)

	bars := []types.DailyBar{
		barOn(10, 105, 95, 100),
		barOn(11, 106, 101, 103),
	}
	atr, err := engine.AverageTrueRange(bars)
	suite.NoError(err)
	// first bar has no prior close so its true range is high minus low
	suite.InDelta((10.0+6.0)/2.0, atr, 1e-9)
}

func (suite *RiskEngineTestSuite) TestAverageTrueRangeInsufficientHistory() {
	bars := []types.DailyBar{barOn(10, 105, 95, 100)}
	_, err := suite.engine.AverageTrueRange(bars)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInsufficientHistory))
}

func (suite *RiskEngineTestSuite) TestComputeStops() {
	// long: stop 100 - 1.5*4, target 100 + 1.5*2*4
	stops, err := suite.engine.ComputeStops(100, 4, true)
	suite.NoError(err)
	suite.InDelta(94, stops.StopLoss, 1e-9)
	suite.InDelta(112, stops.TakeProfit, 1e-9)

	stops, err = suite.engine.ComputeStops(100, 4, false)
	suite.NoError(err)
	suite.InDelta(106, stops.StopLoss, 1e-9)
	suite.InDelta(88, stops.TakeProfit, 1e-9)

	_, err = suite.engine.ComputeStops(100, 0, true)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidRiskParameters))
}

func (suite *RiskEngineTestSuite) TestMaxPositionSize() {
	// budget 100000*0.02 = 2000, per-share risk 1.5*4 = 6 -> 333 shares,
	// notional cap 20000/100 = 200 shares wins
	shares, err := suite.engine.MaxPositionSize(100000, 100, 4)
	suite.NoError(err)
	suite.Equal(200, shares)

	// higher atr widens the stop enough that the risk budget binds
	shares, err = suite.engine.MaxPositionSize(100000, 100, 20)
	suite.NoError(err)
	suite.Equal(66, shares)

	_, err = suite.engine.MaxPositionSize(0, 100, 4)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidRiskParameters))
}

func (suite *RiskEngineTestSuite) TestMaxPositionSizeMonotonicity() {
	base, err := suite.engine.MaxPositionSize(50000, 100, 20)
	suite.Require().NoError(err)

	// non-decreasing in account value
	prev := base
	for _, accountValue := range []float64{60000, 80000, 120000, 200000} {
		shares, err := suite.engine.MaxPositionSize(accountValue, 100, 20)
		suite.Require().NoError(err)
		suite.GreaterOrEqual(shares, prev)
		prev = shares
	}

	// non-increasing in atr
	prev, err = suite.engine.MaxPositionSize(100000, 100, 5)
	suite.Require().NoError(err)
	for _, atr := range []float64{8.0, 12.0, 20.0, 40.0} {
		shares, err := suite.engine.MaxPositionSize(100000, 100, atr)
		suite.Require().NoError(err)
		suite.LessOrEqual(shares, prev)
		prev = shares
	}
}

func (suite *RiskEngineTestSuite) TestCheckTrade() {
	admissible := TradeRequest{
		AccountValue: 100000,
		EntryPrice:   100,
		Quantity:     100,
		StopLoss:     94,
		TakeProfit:   112,
		ATR:          4,
		IsLong:       true,
	}
	suite.NoError(suite.engine.CheckTrade(admissible))

	tests := []struct {
		name   string
		mutate func(*TradeRequest)
		code   errors.ErrorCode
	}{
		{"zero quantity", func(r *TradeRequest) { r.Quantity = 0 }, errors.ErrCodeInvalidQuantity},
		{"stop above entry", func(r *TradeRequest) { r.StopLoss = 105 }, errors.ErrCodeInvalidStopLoss},
		{"target below entry", func(r *TradeRequest) { r.TakeProfit = 95 }, errors.ErrCodeInvalidTakeProfit},
		{"reward risk too low", func(r *TradeRequest) { r.TakeProfit = 104 }, errors.ErrCodeRewardRiskTooLow},
		{"notional over cap", func(r *TradeRequest) { r.Quantity = 250 }, errors.ErrCodePositionValueTooHigh},
		{"risk budget exceeded", func(r *TradeRequest) { r.ATR = 40; r.StopLoss = 40; r.TakeProfit = 220 }, errors.ErrCodeRiskBudgetExceeded},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			request := admissible
			tc.mutate(&request)
			err := suite.engine.CheckTrade(request)
			suite.Error(err)
			suite.True(errors.HasCode(err, tc.code))
		})
	}
}

func (suite *RiskEngineTestSuite) TestCheckTradeShort() {
	request := TradeRequest{
		AccountValue: 100000,
		EntryPrice:   100,
		Quantity:     100,
		StopLoss:     106,
		TakeProfit:   88,
		ATR:          4,
		IsLong:       false,
	}
	suite.NoError(suite.engine.CheckTrade(request))

	request.StopLoss = 95
	err := suite.engine.CheckTrade(request)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidStopLoss))
}
