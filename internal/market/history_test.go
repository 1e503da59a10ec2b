package market

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-portfolio/internal/types"
	"github.com/rxtech-lab/argo-portfolio/pkg/errors"
)

type HistoryTestSuite struct {
	suite.Suite
	history *TickerHistory
}

func TestHistorySuite(t *testing.T) {
	suite.Run(t, new(HistoryTestSuite))
}

func (suite *HistoryTestSuite) SetupTest() {
	suite.history = NewTickerHistory("AAPL", 60)
}

func snapAt(ts types.Timestamp, last float64) types.PriceSnapshot {
	return types.PriceSnapshot{
		Timestamp: ts,
		Last:      last,
		Low:       last - 1,
		High:      last + 1,
		Bid:       last - 0.05,
		Ask:       last + 0.05,
		Volume:    100,
	}
}

func (suite *HistoryTestSuite) TestAppendMonotonic() {
	t0 := types.NewTimestamp(2024, 6, 10, 9, 30, 0)

	suite.True(suite.history.Append(snapAt(t0, 100)))
	suite.True(suite.history.Append(snapAt(t0.Add(60), 101)))

	// same timestamp is a duplicate delivery
	suite.False(suite.history.Append(snapAt(t0.Add(60), 102)))
	// older timestamp is an out-of-order delivery
	suite.False(suite.history.Append(snapAt(t0, 103)))

	suite.Equal(2, suite.history.Len())

	snaps := suite.history.Snapshots()
	for i := 1; i < len(snaps); i++ {
		suite.True(snaps[i].Timestamp.After(snaps[i-1].Timestamp))
	}
}

func (suite *HistoryTestSuite) TestAppendAnyDeliveryOrderStaysIncreasing() {
	t0 := types.NewTimestamp(2024, 6, 10, 9, 30, 0)
	offsets := []int{0, 300, 60, 120, 600, 60, 0, 540}

	for _, off := range offsets {
		suite.history.Append(snapAt(t0.Add(off), 100))
	}

	snaps := suite.history.Snapshots()
	suite.NotEmpty(snaps)

	for i := 1; i < len(snaps); i++ {
		suite.True(snaps[i].Timestamp.After(snaps[i-1].Timestamp))
	}
}

func (suite *HistoryTestSuite) TestAppendDatedDisambiguatesRepeatedDays() {
	day := types.NewDate(2024, 6, 10)

	suite.True(suite.history.AppendDated(snapAt(day, 100)))
	suite.True(suite.history.AppendDated(snapAt(day, 101)))
	suite.True(suite.history.AppendDated(snapAt(day, 102)))

	snaps := suite.history.Snapshots()
	suite.Len(snaps, 3)
	suite.Equal(day, snaps[0].Timestamp)
	suite.Equal(day.Add(60), snaps[1].Timestamp)
	suite.Equal(day.Add(120), snaps[2].Timestamp)
}

func (suite *HistoryTestSuite) TestMostRecentTimestamp() {
	_, err := suite.history.MostRecentTimestamp()
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeEmptyHistory))

	t0 := types.NewTimestamp(2024, 6, 10, 9, 30, 0)
	suite.history.Append(snapAt(t0, 100))
	suite.history.Append(snapAt(t0.Add(60), 101))

	latest, err := suite.history.MostRecentTimestamp()
	suite.NoError(err)
	suite.Equal(t0.Add(60), latest)
}

func (suite *HistoryTestSuite) TestDailyBars() {
	day1 := types.NewTimestamp(2024, 6, 10, 9, 30, 0)
	day2 := types.NewTimestamp(2024, 6, 11, 9, 30, 0)
	day3 := types.NewTimestamp(2024, 6, 12, 9, 30, 0)

	// day 1: three intraday ticks
	suite.history.Append(types.PriceSnapshot{Timestamp: day1, Last: 100, Low: 99, High: 101, Volume: 10})
	suite.history.Append(types.PriceSnapshot{Timestamp: day1.Add(3600), Last: 104, Low: 103, High: 105, Volume: 20})
	suite.history.Append(types.PriceSnapshot{Timestamp: day1.Add(7200), Last: 102, Low: 98, High: 104, Volume: 30})
	// day 2: one tick
	suite.history.Append(types.PriceSnapshot{Timestamp: day2, Last: 106, Low: 101, High: 106, Volume: 40})
	// day 3: in-progress day, must not be finalized
	suite.history.Append(types.PriceSnapshot{Timestamp: day3, Last: 108, Low: 100, High: 108, Volume: 50})

	bars := suite.history.DailyBars()
	suite.Len(bars, 2)

	suite.Equal(types.NewDate(2024, 6, 10), bars[0].Date)
	suite.InDelta(105.0, bars[0].High, 1e-9)
	suite.InDelta(98.0, bars[0].Low, 1e-9)
	suite.InDelta(102.0, bars[0].Close, 1e-9)
	suite.Equal(int64(60), bars[0].Volume)

	suite.Equal(types.NewDate(2024, 6, 11), bars[1].Date)
	suite.InDelta(106.0, bars[1].Close, 1e-9)
}

func (suite *HistoryTestSuite) TestDailyBarsEmpty() {
	suite.Nil(suite.history.DailyBars())
}

func (suite *HistoryTestSuite) TestDailyBarsSingleDayNotFinalized() {
	day1 := types.NewTimestamp(2024, 6, 10, 9, 30, 0)
	suite.history.Append(types.PriceSnapshot{Timestamp: day1, Last: 100, Low: 99, High: 101})
	suite.history.Append(types.PriceSnapshot{Timestamp: day1.Add(60), Last: 101, Low: 100, High: 102})

	suite.Empty(suite.history.DailyBars())
}
