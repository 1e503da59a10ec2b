package portfolio

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-portfolio/internal/portfolio/commission"
)

type SizingTestSuite struct {
	suite.Suite
}

func TestSizingSuite(t *testing.T) {
	suite.Run(t, new(SizingTestSuite))
}

func (suite *SizingTestSuite) TestMaxAffordableShares() {
	schedule := commission.NewInteractiveBroker()

	tests := []struct {
		name     string
		cash     float64
		price    float64
		expected int
	}{
		{"zero cash", 0, 100, 0},
		{"zero price", 1000, 0, 0},
		{"cannot cover minimum fee", 100.50, 100, 0},
		{"fee pushes quantity down", 1000, 100, 9},
		{"large balance", 100000, 205.54, 486},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			quantity := MaxAffordableShares(tc.cash, tc.price, schedule)
			suite.Equal(tc.expected, quantity)

			if quantity > 0 {
				totalCost := float64(quantity)*tc.price + schedule.Calculate(quantity)
				suite.LessOrEqual(totalCost, tc.cash)
			}
		})
	}
}

func (suite *SizingTestSuite) TestMaxAffordableSharesZeroCommission() {
	quantity := MaxAffordableShares(1000, 100, commission.NewZero())
	suite.Equal(10, quantity)
}
