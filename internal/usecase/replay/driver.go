// Package replay drives historical market events through the order
// book on a dedicated goroutine.
package replay

import (
	"context"
	"sync/atomic"
	"time"

	marketv1 "github.com/marketsim/exchange/internal/domain/market/v1"
	replayv1 "github.com/marketsim/exchange/internal/domain/replay/v1"
	"github.com/marketsim/exchange/internal/usecase/orderbook"
	"github.com/marketsim/exchange/internal/usecase/simclock"
	"github.com/marketsim/exchange/pkg/errors"
	"github.com/marketsim/exchange/pkg/logger"
)

// Driver replays a historical event stream into the book, pacing by
// replayed seconds. Stop halts the replay early; Done is signalled only
// when the stream runs out naturally, so a stopped replay never looks
// like a completed backtest.
type Driver struct {
	source replayv1.EventSource
	book   *orderbook.OrderBook
	clock  *simclock.Clock
	delay  time.Duration
	log    logger.Interface

	started atomic.Bool
	stopped atomic.Bool
	done    chan struct{}
}

// NewDriver returns a driver over source. delay is the pause inserted
// each time the replayed stream crosses a second boundary; zero replays
// at full speed.
func NewDriver(source replayv1.EventSource, book *orderbook.OrderBook, clock *simclock.Clock, delay time.Duration, log logger.Interface) *Driver {
	return &Driver{
		source: source,
		book:   book,
		clock:  clock,
		delay:  delay,
		log:    log,
		done:   make(chan struct{}),
	}
}

// Start launches the replay goroutine. Subsequent calls are no-ops, so
// a re-subscribing market data client does not restart the stream.
func (d *Driver) Start(ctx context.Context) {
	if !d.started.CompareAndSwap(false, true) {
		return
	}

	d.log.Info("starting replay",
		logger.NewField("symbol", d.book.Symbol()),
		logger.NewField("delay", d.delay.String()),
	)
	go d.run(ctx)
}

// Stop requests the replay goroutine to halt after the current event.
func (d *Driver) Stop() {
	d.stopped.Store(true)
}

// Done is closed when the historical stream is exhausted.
func (d *Driver) Done() <-chan struct{} {
	return d.done
}

// Running reports whether the replay has started and not yet stopped
// or finished.
func (d *Driver) Running() bool {
	if !d.started.Load() || d.stopped.Load() {
		return false
	}
	select {
	case <-d.done:
		return false
	default:
		return true
	}
}

func (d *Driver) run(ctx context.Context) {
	defer func() {
		if err := d.source.Close(); err != nil {
			d.log.Error(errors.TracerFromError(err))
		}
	}()

	var lastSecond time.Time
	var replayed int64

	for {
		if d.stopped.Load() {
			d.log.Info("replay stopped", logger.NewField("events", replayed))
			return
		}
		if ctx.Err() != nil {
			d.log.Info("replay cancelled", logger.NewField("events", replayed))
			return
		}

		ev, err := d.source.Next(ctx)
		if err == replayv1.ErrExhausted {
			d.log.Info("replay finished", logger.NewField("events", replayed))
			close(d.done)
			return
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// one bad record does not end the backtest
			d.log.Error(errors.TracerFromError(err))
			continue
		}

		d.clock.Set(ev.TransactTime)
		d.pace(ev.TransactTime, &lastSecond)

		if ev.Action == marketv1.ActionDelete {
			d.book.Delete(ev)
		} else {
			d.book.Apply(ev)
		}
		replayed++
	}
}

// pace sleeps once per replayed second of historical time.
func (d *Driver) pace(eventTime time.Time, lastSecond *time.Time) {
	if d.delay <= 0 {
		return
	}
	second := eventTime.Truncate(time.Second)
	if second.After(*lastSecond) {
		if !lastSecond.IsZero() {
			time.Sleep(d.delay)
		}
		*lastSecond = second
	}
}
