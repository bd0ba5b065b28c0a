// Package exchange coordinates the simulator lifecycle: it loads
// historical data when asked, brings the gateways up, and tears
// everything down in order when the replay finishes or the process is
// told to stop.
package exchange

import (
	"context"
	"io"
	"time"

	replayv1 "github.com/marketsim/exchange/internal/domain/replay/v1"
	"github.com/marketsim/exchange/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

// Server is the start and stop lifecycle of a gateway.
//
//go:generate mockgen -source exchange.go -destination=mock/exchange_mock.go -package=exchange_mock
type Server interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Replay observes and halts the historical replay.
type Replay interface {
	Stop()
	Done() <-chan struct{}
}

// Snapshots is the periodic book snapshot job.
type Snapshots interface {
	Start(ctx context.Context)
	Stop()
}

// Exchange runs one simulated trading session.
type Exchange struct {
	marketData Server
	orders     Server
	replay     Replay
	snapshots  Snapshots
	loader     replayv1.Loader
	sinks      []io.Closer
	log        logger.Interface
}

// Option configures an Exchange.
type Option func(*Exchange)

// WithLoader loads historical data before the gateways come up.
func WithLoader(loader replayv1.Loader) Option {
	return func(e *Exchange) {
		e.loader = loader
	}
}

// WithSnapshots runs the periodic book snapshot job for the session.
func WithSnapshots(snapshots Snapshots) Option {
	return func(e *Exchange) {
		e.snapshots = snapshots
	}
}

// WithSinks registers closers released at shutdown, after the
// gateways have stopped.
func WithSinks(sinks ...io.Closer) Option {
	return func(e *Exchange) {
		e.sinks = append(e.sinks, sinks...)
	}
}

// New builds an Exchange from its parts.
func New(marketData, orders Server, replay Replay, log logger.Interface, opts ...Option) *Exchange {
	e := &Exchange{
		marketData: marketData,
		orders:     orders,
		replay:     replay,
		log:        log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run serves the session until the replay is exhausted or ctx is
// canceled, then shuts down. The market data gateway comes up before
// the order gateway so a subscriber never observes orders against an
// unfed book.
func (e *Exchange) Run(ctx context.Context) error {
	if e.loader != nil {
		if err := e.loader.Load(ctx); err != nil {
			return err
		}
	}

	if err := e.marketData.Start(ctx); err != nil {
		return err
	}
	if err := e.orders.Start(ctx); err != nil {
		e.stopServer(e.marketData)
		return err
	}
	if e.snapshots != nil {
		e.snapshots.Start(ctx)
	}

	e.log.Info("exchange running")

	select {
	case <-ctx.Done():
		e.log.Info("shutdown requested")
	case <-e.replay.Done():
		e.log.Info("replay exhausted, shutting down")
	}

	e.shutdown()
	return nil
}

// shutdown stops the intake first so no new orders arrive while the
// rest of the session winds down.
func (e *Exchange) shutdown() {
	e.stopServer(e.marketData)
	e.stopServer(e.orders)
	e.replay.Stop()
	if e.snapshots != nil {
		e.snapshots.Stop()
	}
	for _, sink := range e.sinks {
		if err := sink.Close(); err != nil {
			e.log.Error(err)
		}
	}
	e.log.Info("exchange stopped")
}

func (e *Exchange) stopServer(server Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		e.log.Error(err)
	}
}
