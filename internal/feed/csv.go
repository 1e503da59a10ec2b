package feed

import (
	"context"
	"encoding/csv"
	"io"
	"iter"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-portfolio/internal/logger"
	"github.com/rxtech-lab/argo-portfolio/internal/types"
	"github.com/rxtech-lab/argo-portfolio/pkg/errors"
)

// csvColumns is the expected header of a replay file.
var csvColumns = []string{"timestamp", "symbol", "last", "low", "high", "bid", "ask", "volume"}

// CSVSource replays ticks from a CSV file in file order. Timestamps are
// RFC3339.
type CSVSource struct {
	path   string
	logger *logger.Logger
}

func NewCSVSource(path string, logger *logger.Logger) *CSVSource {
	return &CSVSource{
		path:   path,
		logger: logger,
	}
}

func (s *CSVSource) Stream(ctx context.Context) iter.Seq2[types.Tick, error] {
	return func(yield func(types.Tick, error) bool) {
		file, err := os.Open(s.path)
		if err != nil {
			yield(types.Tick{}, errors.Wrapf(errors.ErrCodeFeedFetchFailed, err, "failed to open %s", s.path))
			return
		}
		defer file.Close()

		reader := csv.NewReader(file)
		header, err := reader.Read()
		if err != nil {
			yield(types.Tick{}, errors.Wrapf(errors.ErrCodeFeedParseFailed, err, "failed to read header of %s", s.path))
			return
		}
		if err := validateHeader(header); err != nil {
			yield(types.Tick{}, err)
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				if !yield(types.Tick{}, errors.Wrap(errors.ErrCodeFeedParseFailed, "failed to read record", err)) {
					return
				}
				continue
			}

			tick, err := parseTickRecord(record)
			if err != nil {
				s.logger.Warn("Skipping malformed record", zap.Strings("record", record), zap.Error(err))
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

func validateHeader(header []string) error {
	if len(header) != len(csvColumns) {
		return errors.Newf(errors.ErrCodeFeedParseFailed, "expected %d columns, got %d", len(csvColumns), len(header))
	}
	for i, column := range csvColumns {
		if header[i] != column {
			return errors.Newf(errors.ErrCodeFeedParseFailed, "expected column %q at position %d, got %q", column, i, header[i])
		}
	}
	return nil
}

func parseTickRecord(record []string) (types.Tick, error) {
	if len(record) != len(csvColumns) {
		return types.Tick{}, errors.Newf(errors.ErrCodeFeedParseFailed, "expected %d fields, got %d", len(csvColumns), len(record))
	}

	at, err := time.Parse(time.RFC3339, record[0])
	if err != nil {
		return types.Tick{}, errors.Wrapf(errors.ErrCodeFeedParseFailed, err, "invalid timestamp %q", record[0])
	}

	prices := make([]float64, 5)
	for i, field := range record[2:7] {
		value, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return types.Tick{}, errors.Wrapf(errors.ErrCodeFeedParseFailed, err, "invalid price %q", field)
		}
		prices[i] = value
	}

	volume, err := strconv.ParseInt(record[7], 10, 64)
	if err != nil {
		return types.Tick{}, errors.Wrapf(errors.ErrCodeFeedParseFailed, err, "invalid volume %q", record[7])
	}

	return types.Tick{
		Symbol:    record[1],
		Last:      prices[0],
		Low:       prices[1],
		High:      prices[2],
		Bid:       prices[3],
		Ask:       prices[4],
		Volume:    volume,
		Timestamp: types.TimestampFromTime(at),
	}, nil
}
