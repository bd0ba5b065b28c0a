package orderbook

import (
	"testing"
	"time"

	marketv1 "github.com/marketsim/exchange/internal/domain/market/v1"
	"github.com/marketsim/exchange/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2025, 6, 2, 8, 30, 0, 0, time.UTC)

type recordingSubscriber struct {
	events []*marketv1.Event
}

func (r *recordingSubscriber) OnBookEvent(ev *marketv1.Event) {
	r.events = append(r.events, ev)
}

func newTestBook(t *testing.T) *OrderBook {
	t.Helper()
	log, err := logger.NewLogger(logger.WithLoggingLevel(logger.ErrorLevel))
	require.NoError(t, err)
	return NewOrderBook("VOD.L", log)
}

func histOffer(id string, price float64, qty int64) *marketv1.Event {
	return marketv1.NewOffer(id, "hist", "VOD.L", marketv1.OrderTypeLimit, price, qty, testTime)
}

func histBid(id string, price float64, qty int64) *marketv1.Event {
	return marketv1.NewBid(id, "hist", "VOD.L", marketv1.OrderTypeLimit, price, qty, testTime)
}

func clientBid(id string, price float64, qty int64) *marketv1.Event {
	return marketv1.NewBid(id, "client", "VOD.L", marketv1.OrderTypeLimit, price, qty, testTime)
}

func TestOrderBook_ApplyOrdersRestOnTheirSide(t *testing.T) {
	book := newTestBook(t)
	sub := &recordingSubscriber{}
	book.Subscribe(sub)

	book.Apply(histBid("b1", 1.2047, 100))
	book.Apply(histOffer("o1", 1.2049, 100))

	bid, ok := book.BestBid()
	require.True(t, ok)
	assert.Equal(t, 1.2047, bid)

	offer, ok := book.BestOffer()
	require.True(t, ok)
	assert.Equal(t, 1.2049, offer)

	require.Len(t, sub.events, 2)
	assert.Equal(t, marketv1.KindBid, sub.events[0].Kind)
	assert.Equal(t, marketv1.KindOffer, sub.events[1].Kind)
}

func TestOrderBook_DeleteRemovesAndStillNotifies(t *testing.T) {
	book := newTestBook(t)
	sub := &recordingSubscriber{}

	book.Apply(histBid("b1", 1.2047, 100))
	book.Subscribe(sub)

	book.Delete(histBid("b1", 1.2047, 100))

	_, ok := book.BestBid()
	assert.False(t, ok)

	require.Len(t, sub.events, 1)
	assert.Equal(t, marketv1.ActionDelete, sub.events[0].Action)

	// delete of an unknown order still reaches subscribers
	book.Delete(histBid("ghost", 1.2040, 10))
	assert.Len(t, sub.events, 2)
}

func TestOrderBook_SubmitOrderRestsWhenNothingCrosses(t *testing.T) {
	book := newTestBook(t)
	sub := &recordingSubscriber{}
	book.Apply(histOffer("o1", 1.2050, 100))
	book.Subscribe(sub)

	fill := book.SubmitOrder(clientBid("c1", 1.2048, 100))

	assert.Nil(t, fill)
	best, ok := book.BestBid()
	require.True(t, ok)
	assert.Equal(t, 1.2048, best)

	require.Len(t, sub.events, 1)
	assert.Equal(t, marketv1.KindBid, sub.events[0].Kind)
}

func TestOrderBook_SubmitOrderPartialFillRestsRemainder(t *testing.T) {
	book := newTestBook(t)
	book.Apply(histOffer("o1", 1.2049, 60))

	fill := book.SubmitOrder(clientBid("c1", 1.2049, 100))

	require.NotNil(t, fill)
	assert.Equal(t, marketv1.KindPartialFill, fill.Kind)
	assert.Equal(t, int64(60), fill.ExecQty)
	assert.Equal(t, int64(40), fill.RemainingQty)

	// the consumed offer is gone, the bid remainder rests
	_, ok := book.BestOffer()
	assert.False(t, ok)

	best, ok := book.BestBid()
	require.True(t, ok)
	assert.Equal(t, 1.2049, best)
	assert.Equal(t, 1, book.TradeCount())
}

func TestOrderBook_SubmitOrderFullFillReducesResting(t *testing.T) {
	book := newTestBook(t)
	book.Apply(histOffer("o1", 1.2048, 150))

	fill := book.SubmitOrder(clientBid("c1", 1.2048, 100))

	require.NotNil(t, fill)
	assert.Equal(t, marketv1.KindFill, fill.Kind)
	assert.Equal(t, int64(100), fill.ExecQty)

	// resting offer keeps its price level with 50 remaining
	snap := book.Snapshot()
	require.Len(t, snap.Offers, 1)
	assert.Equal(t, int64(50), snap.Offers[0].RemainingQty)
	assert.Equal(t, int64(100), snap.Offers[0].CumQty)

	// the incoming bid is fully done and does not rest
	assert.Empty(t, snap.Bids)
}

func TestOrderBook_SubmitOrderSelfTradePrevented(t *testing.T) {
	book := newTestBook(t)
	own := marketv1.NewOffer("own", "client", "VOD.L", marketv1.OrderTypeLimit, 1.2048, 50, testTime)
	book.Apply(own)

	fill := book.SubmitOrder(clientBid("c1", 1.2050, 100))

	assert.Nil(t, fill, "an order never executes against the same counterparty")
	best, ok := book.BestBid()
	require.True(t, ok)
	assert.Equal(t, 1.2050, best)
}

func TestOrderBook_MatchAndApplyExecutesAtomically(t *testing.T) {
	book := newTestBook(t)
	open := clientBid("c1", 1.2049, 100)
	book.Apply(open)

	candidate := histOffer("o1", 1.2049, 60)
	book.Apply(candidate)

	fill := book.MatchAndApply(open, candidate)

	require.NotNil(t, fill)
	assert.Equal(t, marketv1.KindPartialFill, fill.Kind)
	assert.Equal(t, int64(60), fill.ExecQty)
	assert.Equal(t, int64(0), candidate.RemainingQty)
	assert.Equal(t, int64(40), open.RemainingQty)

	_, ok := book.BestOffer()
	assert.False(t, ok, "the consumed offer leaves the book")
}

func TestOrderBook_MatchAndApplySpentCandidateIsNoOp(t *testing.T) {
	book := newTestBook(t)
	open := clientBid("c1", 1.2049, 100)
	book.Apply(open)

	candidate := histOffer("o1", 1.2049, 60)
	book.Apply(candidate)

	// a competing order takes the candidate first
	taken := book.SubmitOrder(clientBid("c2", 1.2049, 60))
	require.NotNil(t, taken)
	require.Equal(t, int64(0), candidate.RemainingQty)

	fill := book.MatchAndApply(open, candidate)

	assert.Nil(t, fill, "spent quantity is never taken twice")
	assert.Equal(t, int64(100), open.RemainingQty)
	assert.Equal(t, 1, book.TradeCount())
}

func TestOrderBook_ApplyHistoricalExecutions(t *testing.T) {
	book := newTestBook(t)
	book.Apply(histBid("b1", 1.2047, 100))

	partial := histBid("b1", 1.2047, 30)
	partial.Kind = marketv1.KindPartialFill
	partial.ExecQty = 30
	book.Apply(partial)

	snap := book.Snapshot()
	require.Len(t, snap.Bids, 1)
	assert.Equal(t, int64(70), snap.Bids[0].RemainingQty)

	full := histBid("b1", 1.2047, 70)
	full.Kind = marketv1.KindFill
	full.ExecQty = 70
	book.Apply(full)

	_, ok := book.BestBid()
	assert.False(t, ok)
	assert.Equal(t, 2, book.TradeCount())
}

// reentrantSubscriber submits an order from inside its callback, the
// way the client portfolio reacts to replayed events.
type reentrantSubscriber struct {
	book      *OrderBook
	submitted bool
	order     *marketv1.Event
}

func (r *reentrantSubscriber) OnBookEvent(ev *marketv1.Event) {
	if r.submitted || !ev.IsOrder() {
		return
	}
	r.submitted = true
	r.book.SubmitOrder(r.order)
}

func TestOrderBook_SubscriberMayMutateBookFromCallback(t *testing.T) {
	book := newTestBook(t)
	tail := &recordingSubscriber{}

	reentrant := &reentrantSubscriber{
		book:  book,
		order: clientBid("c1", 1.2049, 60),
	}
	book.Subscribe(reentrant)
	book.Subscribe(tail)

	book.Apply(histOffer("o1", 1.2049, 60))

	// the triggering offer is delivered first, then the fill it caused
	require.Len(t, tail.events, 2)
	assert.Equal(t, marketv1.KindOffer, tail.events[0].Kind)
	assert.Equal(t, marketv1.KindFill, tail.events[1].Kind)
	assert.Equal(t, "c1", tail.events[1].ClientOrderID)
}

func TestOrderBook_SnapshotCapturesBothSides(t *testing.T) {
	book := newTestBook(t)
	book.Apply(histBid("b1", 1.2047, 100))
	book.Apply(histOffer("o1", 1.2049, 80))

	snap := book.Snapshot()
	assert.Equal(t, "VOD.L", snap.Symbol)
	require.Len(t, snap.Bids, 1)
	require.Len(t, snap.Offers, 1)
	assert.Equal(t, 1.2047, snap.Bids[0].Price)
	assert.Equal(t, 1.2049, snap.Offers[0].Price)
	assert.Equal(t, int64(80), snap.Offers[0].RemainingQty)
}
