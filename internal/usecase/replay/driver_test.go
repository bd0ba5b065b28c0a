package replay

import (
	"context"
	"testing"
	"time"

	marketv1 "github.com/marketsim/exchange/internal/domain/market/v1"
	replayv1 "github.com/marketsim/exchange/internal/domain/replay/v1"
	replay_mock "github.com/marketsim/exchange/internal/domain/replay/v1/mock"
	"github.com/marketsim/exchange/internal/usecase/orderbook"
	"github.com/marketsim/exchange/internal/usecase/simclock"
	"github.com/marketsim/exchange/pkg/errors"
	"github.com/marketsim/exchange/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var testTime = time.Date(2025, 6, 2, 8, 30, 0, 0, time.UTC)

type eventCollector struct {
	ch chan *marketv1.Event
}

func newEventCollector() *eventCollector {
	return &eventCollector{ch: make(chan *marketv1.Event, 64)}
}

func (c *eventCollector) OnBookEvent(ev *marketv1.Event) {
	c.ch <- ev
}

func (c *eventCollector) next(t *testing.T) *marketv1.Event {
	t.Helper()
	select {
	case ev := <-c.ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for book event")
		return nil
	}
}

func newTestDriver(t *testing.T, source replayv1.EventSource) (*Driver, *orderbook.OrderBook, *simclock.Clock, *eventCollector) {
	t.Helper()
	log, err := logger.NewLogger(logger.WithLoggingLevel(logger.ErrorLevel))
	require.NoError(t, err)

	book := orderbook.NewOrderBook("VOD.L", log)
	collector := newEventCollector()
	book.Subscribe(collector)

	clock := simclock.New(true)
	return NewDriver(source, book, clock, 0, log), book, clock, collector
}

func TestDriver_ReplaysUntilExhausted(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := replay_mock.NewMockEventSource(ctrl)

	bid := marketv1.NewBid("h1", "hist", "VOD.L", marketv1.OrderTypeLimit, 1.2047, 100, testTime)
	offer := marketv1.NewOffer("h2", "hist", "VOD.L", marketv1.OrderTypeLimit, 1.2049, 100, testTime.Add(time.Second))

	gomock.InOrder(
		source.EXPECT().Next(gomock.Any()).Return(bid, nil),
		source.EXPECT().Next(gomock.Any()).Return(offer, nil),
		source.EXPECT().Next(gomock.Any()).Return(nil, replayv1.ErrExhausted),
	)
	source.EXPECT().Close().Return(nil)

	driver, book, clock, collector := newTestDriver(t, source)
	driver.Start(context.Background())

	assert.Equal(t, "h1", collector.next(t).ClientOrderID)
	assert.Equal(t, "h2", collector.next(t).ClientOrderID)

	select {
	case <-driver.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("replay did not signal completion")
	}

	best, ok := book.BestOffer()
	require.True(t, ok)
	assert.Equal(t, 1.2049, best)
	assert.Equal(t, testTime.Add(time.Second), clock.Now())
	assert.False(t, driver.Running())
}

func TestDriver_SkipsBadRecords(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := replay_mock.NewMockEventSource(ctrl)

	bid := marketv1.NewBid("h1", "hist", "VOD.L", marketv1.OrderTypeLimit, 1.2047, 100, testTime)

	gomock.InOrder(
		source.EXPECT().Next(gomock.Any()).Return(nil, errors.NewTracer("bad row")),
		source.EXPECT().Next(gomock.Any()).Return(bid, nil),
		source.EXPECT().Next(gomock.Any()).Return(nil, replayv1.ErrExhausted),
	)
	source.EXPECT().Close().Return(nil)

	driver, _, _, collector := newTestDriver(t, source)
	driver.Start(context.Background())

	assert.Equal(t, "h1", collector.next(t).ClientOrderID)

	select {
	case <-driver.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("replay did not signal completion")
	}
}

func TestDriver_DeleteEventsRemoveFromBook(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := replay_mock.NewMockEventSource(ctrl)

	bid := marketv1.NewBid("h1", "hist", "VOD.L", marketv1.OrderTypeLimit, 1.2047, 100, testTime)
	del := marketv1.NewBid("h1", "hist", "VOD.L", marketv1.OrderTypeLimit, 1.2047, 100, testTime.Add(time.Second))
	del.Action = marketv1.ActionDelete

	gomock.InOrder(
		source.EXPECT().Next(gomock.Any()).Return(bid, nil),
		source.EXPECT().Next(gomock.Any()).Return(del, nil),
		source.EXPECT().Next(gomock.Any()).Return(nil, replayv1.ErrExhausted),
	)
	source.EXPECT().Close().Return(nil)

	driver, book, _, collector := newTestDriver(t, source)
	driver.Start(context.Background())

	collector.next(t)
	deleted := collector.next(t)
	assert.Equal(t, marketv1.ActionDelete, deleted.Action)

	select {
	case <-driver.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("replay did not signal completion")
	}

	_, ok := book.BestBid()
	assert.False(t, ok)
}

func TestDriver_StopHaltsWithoutCompletion(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := replay_mock.NewMockEventSource(ctrl)

	seq := 0
	source.EXPECT().Next(gomock.Any()).DoAndReturn(func(context.Context) (*marketv1.Event, error) {
		seq++
		return marketv1.NewBid("h", "hist", "VOD.L", marketv1.OrderTypeLimit, 1.2047, 100, testTime.Add(time.Duration(seq)*time.Millisecond)), nil
	}).AnyTimes()

	closed := make(chan struct{})
	source.EXPECT().Close().DoAndReturn(func() error {
		close(closed)
		return nil
	})

	driver, _, _, collector := newTestDriver(t, source)
	driver.Start(context.Background())

	collector.next(t)
	driver.Stop()

	// drain in-flight events until the replay goroutine exits
drain:
	for {
		select {
		case <-collector.ch:
		case <-closed:
			break drain
		case <-time.After(2 * time.Second):
			t.Fatal("replay goroutine did not halt after Stop")
		}
	}

	select {
	case <-driver.Done():
		t.Fatal("a stopped replay must not report completion")
	default:
	}
	assert.False(t, driver.Running())
}

func TestDriver_StartIsIdempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := replay_mock.NewMockEventSource(ctrl)

	source.EXPECT().Next(gomock.Any()).Return(nil, replayv1.ErrExhausted)
	source.EXPECT().Close().Return(nil)

	driver, _, _, _ := newTestDriver(t, source)
	driver.Start(context.Background())
	driver.Start(context.Background())

	select {
	case <-driver.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("replay did not signal completion")
	}
}
