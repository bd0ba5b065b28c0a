package snapshot

import (
	"context"
	"sync"
	"time"

	snapshotv1 "github.com/marketsim/exchange/internal/domain/snapshot/v1"
	"github.com/marketsim/exchange/internal/usecase/orderbook"
	"github.com/marketsim/exchange/pkg/logger"
)

// Job snapshots the order book on a fixed interval.
type Job struct {
	store    snapshotv1.Store
	book     *orderbook.OrderBook
	interval time.Duration
	log      logger.Interface

	stopOnce sync.Once
	stop     chan struct{}
}

// NewJob returns a job snapshotting book every interval. An interval
// of zero disables the job.
func NewJob(store snapshotv1.Store, book *orderbook.OrderBook, interval time.Duration, log logger.Interface) *Job {
	return &Job{
		store:    store,
		book:     book,
		interval: interval,
		log:      log,
		stop:     make(chan struct{}),
	}
}

// Start launches the snapshot loop. A final snapshot is taken when the
// job stops.
func (j *Job) Start(ctx context.Context) {
	if j.interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				j.take(ctx)
			case <-j.stop:
				j.take(ctx)
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the loop after one last snapshot.
func (j *Job) Stop() {
	j.stopOnce.Do(func() {
		close(j.stop)
	})
}

func (j *Job) take(ctx context.Context) {
	snap := j.book.Snapshot()
	if err := j.store.Store(ctx, snap); err != nil {
		j.log.Error(err, logger.NewField("symbol", snap.Symbol))
	}
}
