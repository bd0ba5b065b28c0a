// Package orderbook maintains the two price-ordered sides of the market
// for a single symbol and fans out every applied event to subscribers.
package orderbook

import (
	"sync"
	"time"

	marketv1 "github.com/marketsim/exchange/internal/domain/market/v1"
	matchingv1 "github.com/marketsim/exchange/internal/domain/matching/v1"
	snapshotv1 "github.com/marketsim/exchange/internal/domain/snapshot/v1"
	"github.com/marketsim/exchange/pkg/logger"
)

// Subscriber receives every event the book applies, in application order.
type Subscriber interface {
	OnBookEvent(ev *marketv1.Event)
}

// OrderBook holds the resting bids and offers for one symbol. All
// mutation runs under a single lock so a match and its application are
// atomic. Subscribers are notified outside the lock through a dispatch
// queue: a subscriber that mutates the book from its callback enqueues
// the resulting events behind the one being delivered.
type OrderBook struct {
	symbol string
	log    logger.Interface

	mu     sync.Mutex
	bids   *marketv1.List
	offers *marketv1.List
	trades []*marketv1.Event

	dispatchMu  sync.Mutex
	pending     []*marketv1.Event
	dispatching bool
	subs        []Subscriber
}

// NewOrderBook returns an empty book for symbol.
func NewOrderBook(symbol string, log logger.Interface) *OrderBook {
	return &OrderBook{
		symbol: symbol,
		log:    log,
		bids:   marketv1.NewList(marketv1.Descending),
		offers: marketv1.NewList(marketv1.Ascending),
	}
}

// Symbol returns the symbol this book serves.
func (b *OrderBook) Symbol() string {
	return b.symbol
}

// Subscribe registers sub for all subsequent events.
func (b *OrderBook) Subscribe(sub Subscriber) {
	b.dispatchMu.Lock()
	defer b.dispatchMu.Unlock()
	b.subs = append(b.subs, sub)
}

// Unsubscribe removes sub. Events already queued may still be delivered.
func (b *OrderBook) Unsubscribe(sub Subscriber) {
	b.dispatchMu.Lock()
	defer b.dispatchMu.Unlock()
	for i, s := range b.subs {
		if s == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Apply records a replayed or executed event against the book and
// notifies subscribers. Bids and offers rest on their side; executions
// reduce or remove the resting order they apply to.
func (b *OrderBook) Apply(ev *marketv1.Event) {
	b.mu.Lock()
	switch ev.Kind {
	case marketv1.KindBid:
		b.bids.Insert(ev)
	case marketv1.KindOffer:
		b.offers.Insert(ev)
	case marketv1.KindPartialFill:
		b.reduceRestingLocked(ev)
		b.trades = append(b.trades, ev)
	case marketv1.KindFill:
		b.sideLocked(ev.Side).Remove(ev.ClientOrderID)
		b.trades = append(b.trades, ev)
	}
	b.mu.Unlock()

	b.publish(ev)
}

// Delete removes the resting order named by ev and notifies subscribers
// with a delete action. Deleting an unknown order still notifies, so
// downstream feeds mirror the historical stream exactly.
func (b *OrderBook) Delete(ev *marketv1.Event) {
	b.mu.Lock()
	removed := b.sideLocked(ev.Side).Remove(ev.ClientOrderID)
	b.mu.Unlock()

	if removed == nil {
		b.log.Debug("delete for order not resting in book",
			logger.NewField("client_order_id", ev.ClientOrderID),
			logger.NewField("side", ev.Side),
		)
	}

	ev.Action = marketv1.ActionDelete
	b.publish(ev)
}

// SubmitOrder matches order against the opposite side and applies the
// outcome in one atomic step. When nothing crosses the order rests in
// the book and is published as a new order. When the order executes,
// quantity is taken from the consumed resting orders, a limit
// remainder rests at its price, and the fill is published.
//
// It returns the fill, nil when the order rested without executing.
// The remainder of a partially filled market order is discarded.
func (b *OrderBook) SubmitOrder(order *marketv1.Event) *marketv1.Event {
	b.mu.Lock()
	fill, consumed := matchingv1.Match(order, b.oppositeLocked(order.Side))

	if fill == nil {
		b.sideLocked(order.Side).Insert(order)
		b.mu.Unlock()
		b.publish(order)
		return nil
	}

	b.applyMatchLocked(fill, consumed)

	if fill.Kind == marketv1.KindPartialFill && order.OrderType == marketv1.OrderTypeLimit {
		order.RemainingQty = fill.RemainingQty
		order.CumQty = fill.CumQty
		order.AvgPrice = fill.AvgPrice
		b.sideLocked(order.Side).Insert(order)
	}
	b.mu.Unlock()

	b.publish(fill)
	return fill
}

// MatchAndApply matches order against the single resting candidate and
// applies any execution in one atomic step, so quantity consumed by a
// concurrent submission is never taken twice. The matched order's own
// resting entry, if any, is reduced or removed as well.
//
// It returns the fill, nil when nothing executed or when either order
// has no quantity left.
func (b *OrderBook) MatchAndApply(order, candidate *marketv1.Event) *marketv1.Event {
	b.mu.Lock()
	if order.RemainingQty <= 0 || candidate.RemainingQty <= 0 {
		b.mu.Unlock()
		return nil
	}

	fill, consumed := matchingv1.Match(order, singleton(candidate))
	if fill == nil {
		b.mu.Unlock()
		return nil
	}

	b.applyMatchLocked(fill, consumed)
	b.reduceRestingLocked(fill)
	b.mu.Unlock()

	b.publish(fill)
	return fill
}

func singleton(ev *marketv1.Event) *marketv1.List {
	direction := marketv1.Ascending
	if ev.Kind == marketv1.KindBid {
		direction = marketv1.Descending
	}
	l := marketv1.NewList(direction)
	l.Insert(ev)
	return l
}

// applyMatchLocked takes the executed quantity out of the consumed
// resting orders and records the trade.
func (b *OrderBook) applyMatchLocked(fill *marketv1.Event, consumed []matchingv1.Consumption) {
	for _, c := range consumed {
		c.Event.RemainingQty -= c.Qty
		c.Event.CumQty += c.Qty
		if c.Event.RemainingQty <= 0 {
			b.sideLocked(c.Event.Side).Remove(c.Event.ClientOrderID)
		}
	}
	b.trades = append(b.trades, fill)
}

// reduceRestingLocked applies an execution to the resting order it
// names. A fully executed order leaves the book.
func (b *OrderBook) reduceRestingLocked(exec *marketv1.Event) {
	list := b.sideLocked(exec.Side)
	resting := list.Find(exec.ClientOrderID)
	if resting == nil {
		return
	}

	if exec.Kind == marketv1.KindFill {
		list.Remove(exec.ClientOrderID)
		return
	}

	resting.RemainingQty -= exec.ExecQty
	resting.CumQty += exec.ExecQty
	if exec.AvgPrice > 0 {
		resting.AvgPrice = exec.AvgPrice
	}
	if resting.RemainingQty <= 0 {
		list.Remove(exec.ClientOrderID)
	}
}

func (b *OrderBook) sideLocked(side marketv1.Side) *marketv1.List {
	if side == marketv1.SideBuy {
		return b.bids
	}
	return b.offers
}

func (b *OrderBook) oppositeLocked(side marketv1.Side) *marketv1.List {
	if side == marketv1.SideBuy {
		return b.offers
	}
	return b.bids
}

// BestBid returns the highest resting bid price.
func (b *OrderBook) BestBid() (float64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if best := b.bids.Best(); best != nil {
		return best.OrderPrice, true
	}
	return 0, false
}

// BestOffer returns the lowest resting offer price.
func (b *OrderBook) BestOffer() (float64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if best := b.offers.Best(); best != nil {
		return best.OrderPrice, true
	}
	return 0, false
}

// TradeCount returns the number of executions recorded so far.
func (b *OrderBook) TradeCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.trades)
}

// Snapshot captures the current book state.
func (b *OrderBook) Snapshot() *snapshotv1.Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap := &snapshotv1.Snapshot{
		Symbol:     b.symbol,
		TakenAt:    time.Now().UTC(),
		Bids:       bookOrders(b.bids),
		Offers:     bookOrders(b.offers),
		TradeCount: len(b.trades),
	}
	return snap
}

func bookOrders(l *marketv1.List) []snapshotv1.BookOrder {
	out := make([]snapshotv1.BookOrder, 0, l.Len())
	for _, ev := range l.Events() {
		out = append(out, snapshotv1.BookOrder{
			ClientOrderID: ev.ClientOrderID,
			ClientID:      ev.ClientID,
			Price:         ev.OrderPrice,
			OrderQty:      ev.OrderQty,
			RemainingQty:  ev.RemainingQty,
			CumQty:        ev.CumQty,
		})
	}
	return out
}

// publish queues ev and, unless a dispatch loop is already draining the
// queue on this or another goroutine, drains it in order. Events
// enqueued by subscriber callbacks are delivered after the event that
// triggered them.
func (b *OrderBook) publish(ev *marketv1.Event) {
	b.dispatchMu.Lock()
	b.pending = append(b.pending, ev)
	if b.dispatching {
		b.dispatchMu.Unlock()
		return
	}
	b.dispatching = true

	for len(b.pending) > 0 {
		next := b.pending[0]
		b.pending = b.pending[1:]
		subs := make([]Subscriber, len(b.subs))
		copy(subs, b.subs)
		b.dispatchMu.Unlock()

		for _, sub := range subs {
			sub.OnBookEvent(next)
		}

		b.dispatchMu.Lock()
	}
	b.dispatching = false
	b.dispatchMu.Unlock()
}
