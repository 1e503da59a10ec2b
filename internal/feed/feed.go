// Package feed adapts external market data sources into the tick stream the
// engine consumes. Sources yield ticks through iterators; the caller decides
// what to do with each one.
package feed

import (
	"context"
	"iter"

	"github.com/rxtech-lab/argo-portfolio/internal/types"
)

// SourceType identifies a tick source implementation.
type SourceType string

const (
	SourceCSV     SourceType = "csv"
	SourceBinance SourceType = "binance"
)

// Source streams ticks until the context is cancelled or the underlying
// data runs out. The iterator yields tick and error pairs; a non-nil error
// describes a single bad record, not the end of the stream.
type Source interface {
	Stream(ctx context.Context) iter.Seq2[types.Tick, error]
}
