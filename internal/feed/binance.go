package feed

import (
	"context"
	"iter"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-portfolio/internal/logger"
	"github.com/rxtech-lab/argo-portfolio/internal/types"
	"github.com/rxtech-lab/argo-portfolio/pkg/errors"
)

// BinanceWsKline is the kline payload of a websocket event.
type BinanceWsKline struct {
	StartTime int64
	Open      string
	High      string
	Low       string
	Close     string
	Volume    string
	IsFinal   bool
}

// BinanceWsKlineEvent is one websocket kline event for a symbol.
type BinanceWsKlineEvent struct {
	Symbol string
	Kline  BinanceWsKline
}

type WsKlineHandler func(event *BinanceWsKlineEvent)

type WsErrorHandler func(err error)

// BinanceWebSocketService abstracts the websocket transport so streams can
// be driven by a fake in tests.
type BinanceWebSocketService interface {
	WsKlineServe(symbol string, interval string, handler WsKlineHandler, errHandler WsErrorHandler) (doneC chan struct{}, stopC chan struct{}, err error)
}

type binanceWebSocketService struct{}

func (s *binanceWebSocketService) WsKlineServe(symbol string, interval string, handler WsKlineHandler, errHandler WsErrorHandler) (chan struct{}, chan struct{}, error) {
	return binance.WsKlineServe(symbol, interval, func(event *binance.WsKlineEvent) {
		handler(&BinanceWsKlineEvent{
			Symbol: event.Symbol,
			Kline: BinanceWsKline{
				StartTime: event.Kline.StartTime,
				Open:      event.Kline.Open,
				High:      event.Kline.High,
				Low:       event.Kline.Low,
				Close:     event.Kline.Close,
				Volume:    event.Kline.Volume,
				IsFinal:   event.Kline.IsFinal,
			},
		})
	}, func(err error) {
		errHandler(err)
	})
}

// BinanceKlineSource streams finalized klines for one symbol as ticks.
type BinanceKlineSource struct {
	symbol   string
	interval string
	service  BinanceWebSocketService
	logger   *logger.Logger
}

func NewBinanceKlineSource(symbol string, interval string, logger *logger.Logger) *BinanceKlineSource {
	return &BinanceKlineSource{
		symbol:   symbol,
		interval: interval,
		service:  &binanceWebSocketService{},
		logger:   logger,
	}
}

// NewBinanceKlineSourceWithService injects a websocket transport. Used by
// tests to drive the stream without a network connection.
func NewBinanceKlineSourceWithService(symbol string, interval string, service BinanceWebSocketService, logger *logger.Logger) *BinanceKlineSource {
	return &BinanceKlineSource{
		symbol:   symbol,
		interval: interval,
		service:  service,
		logger:   logger,
	}
}

// Stream subscribes to the kline websocket and yields one tick per
// finalized candle. In-progress candles are skipped so history append
// stays monotonic.
func (s *BinanceKlineSource) Stream(ctx context.Context) iter.Seq2[types.Tick, error] {
	return func(yield func(types.Tick, error) bool) {
		events := make(chan *BinanceWsKlineEvent)
		streamErrs := make(chan error)

		doneC, stopC, err := s.service.WsKlineServe(s.symbol, s.interval,
			func(event *BinanceWsKlineEvent) {
				select {
				case events <- event:
				case <-ctx.Done():
				}
			},
			func(err error) {
				select {
				case streamErrs <- err:
				case <-ctx.Done():
				}
			},
		)
		if err != nil {
			yield(types.Tick{}, errors.Wrapf(errors.ErrCodeFeedFetchFailed, err, "failed to open kline stream for %s", s.symbol))
			return
		}
		defer close(stopC)

		for {
			select {
			case <-ctx.Done():
				return
			case <-doneC:
				return
			case err := <-streamErrs:
				if !yield(types.Tick{}, errors.Wrapf(errors.ErrCodeFeedStreamClosed, err, "kline stream error for %s", s.symbol)) {
					return
				}
			case event := <-events:
				if !event.Kline.IsFinal {
					continue
				}
				tick, err := klineToTick(event)
				if err != nil {
					s.logger.Warn("Skipping malformed kline", zap.String("symbol", event.Symbol), zap.Error(err))
					if !yield(types.Tick{}, err) {
						return
					}
					continue
				}
				if !yield(tick, nil) {
					return
				}
			}
		}
	}
}

func klineToTick(event *BinanceWsKlineEvent) (types.Tick, error) {
	fields := []string{event.Kline.Close, event.Kline.Low, event.Kline.High, event.Kline.Volume}
	values := make([]float64, len(fields))
	for i, field := range fields {
		value, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return types.Tick{}, errors.Wrapf(errors.ErrCodeFeedParseFailed, err, "invalid kline field %q", field)
		}
		values[i] = value
	}

	return types.Tick{
		Symbol: event.Symbol,
		Last:   values[0],
		Low:    values[1],
		High:   values[2],
		// kline streams carry no quotes, mark both sides at the close
		Bid:       values[0],
		Ask:       values[0],
		Volume:    int64(values[3]),
		Timestamp: types.TimestampFromTime(time.UnixMilli(event.Kline.StartTime).UTC()),
	}, nil
}
