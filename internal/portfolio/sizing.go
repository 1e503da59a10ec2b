package portfolio

import (
	"math"

	"github.com/rxtech-lab/argo-portfolio/internal/portfolio/commission"
)

// MaxAffordableShares returns the largest share count whose notional plus
// commission fits in the given cash balance.
func MaxAffordableShares(cash float64, price float64, schedule commission.Schedule) int {
	if price <= 0 || cash <= 0 {
		return 0
	}

	// rough estimate ignoring fees, then walk down until the full cost fits
	quantity := int(math.Floor(cash / price))
	for quantity > 0 {
		totalCost := float64(quantity)*price + schedule.Calculate(quantity)
		if totalCost <= cash {
			break
		}
		quantity--
	}

	return quantity
}
