package feed

import (
	"context"
	"fmt"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-portfolio/internal/logger"
	"github.com/rxtech-lab/argo-portfolio/internal/market"
	"github.com/rxtech-lab/argo-portfolio/internal/types"
	"github.com/rxtech-lab/argo-portfolio/pkg/errors"
)

// PolygonBackfill downloads daily aggregates and seeds a market store's
// history with them. Entries carry date-only timestamps, so the store
// assigns synthetic intraday offsets when a date repeats.
type PolygonBackfill struct {
	client *polygon.Client
	logger *logger.Logger
}

func NewPolygonBackfill(apiKey string, logger *logger.Logger) (*PolygonBackfill, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "polygon api key is required")
	}

	return &PolygonBackfill{
		client: polygon.New(apiKey),
		logger: logger,
	}, nil
}

// Backfill fetches daily bars for the ticker between startDate and endDate
// and appends them to the store. Returns the number of entries appended.
func (p *PolygonBackfill) Backfill(ctx context.Context, store *market.Store, ticker string, startDate, endDate time.Time) (int, error) {
	totalDays := int(endDate.Sub(startDate).Hours()/24) + 1
	bar := progressbar.NewOptions(totalDays,
		progressbar.OptionSetDescription(fmt.Sprintf("Backfilling %s", ticker)),
		progressbar.OptionShowCount(),
	)

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     ticker,
		Multiplier: 1,
		Timespan:   models.Day,
		From:       models.Millis(startDate),
		To:         models.Millis(endDate),
	}.WithLimit(50000)

	aggs := p.client.ListAggs(ctx, params)

	appended := 0
	for aggs.Next() {
		agg := aggs.Item()
		at := time.Time(agg.Timestamp).UTC()
		snapshot := types.PriceSnapshot{
			Timestamp: types.NewDate(at.Year(), int(at.Month()), at.Day()),
			Last:      agg.Close,
			Low:       agg.Low,
			High:      agg.High,
			Bid:       types.UnsetPrice,
			Ask:       types.UnsetPrice,
			Volume:    int64(agg.Volume),
		}
		if store.BackfillDated(ticker, snapshot) {
			appended++
		}

		daysElapsed := int(at.Sub(startDate).Hours() / 24)
		bar.Set(daysElapsed)
	}

	if err := aggs.Err(); err != nil {
		return appended, errors.Wrapf(errors.ErrCodeFeedFetchFailed, err, "failed to list aggregates for %s", ticker)
	}

	bar.Finish()
	p.logger.Info("Backfill complete",
		zap.String("ticker", ticker),
		zap.Int("appended", appended),
	)

	return appended, nil
}
