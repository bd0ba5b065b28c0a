// Package portfolio tracks the orders a backtest client has entered:
// it routes new orders into the book, keeps open positions, and
// re-checks them for execution as replayed orders arrive.
package portfolio

import (
	"sync"

	marketv1 "github.com/marketsim/exchange/internal/domain/market/v1"
	"github.com/marketsim/exchange/internal/usecase/orderbook"
	"github.com/marketsim/exchange/pkg/logger"
)

// EventType classifies what happened to a client order.
type EventType string

const (
	// EventNew reports an order accepted and resting without execution.
	EventNew EventType = "new"
	// EventPartialFilled reports a partial execution.
	EventPartialFilled EventType = "partial_filled"
	// EventFilled reports a complete execution.
	EventFilled EventType = "filled"
	// EventCanceled reports a cancel of an open order.
	EventCanceled EventType = "canceled"
)

// ClientEvent pairs an order lifecycle transition with the event that
// carries its state.
type ClientEvent struct {
	Type  EventType
	Event *marketv1.Event
}

// Subscriber receives client order lifecycle events.
type Subscriber interface {
	OnClientEvent(ev ClientEvent)
}

// Portfolio holds the client's open positions and fills. It subscribes
// to the book so that open client orders execute against crossing
// historical orders as they replay. All client orders share one
// counterparty id, which keeps them from matching each other.
type Portfolio struct {
	clientID string
	book     *orderbook.OrderBook
	log      logger.Interface

	mu         sync.Mutex
	openBids   []*marketv1.Event
	openOffers []*marketv1.Event
	fills      []*marketv1.Event

	subMu sync.Mutex
	subs  []Subscriber
}

// New returns a portfolio wired into book.
func New(clientID string, book *orderbook.OrderBook, log logger.Interface) *Portfolio {
	p := &Portfolio{
		clientID: clientID,
		book:     book,
		log:      log,
	}
	book.Subscribe(p)
	return p
}

// Subscribe registers sub for client order lifecycle events.
func (p *Portfolio) Subscribe(sub Subscriber) {
	p.subMu.Lock()
	defer p.subMu.Unlock()
	p.subs = append(p.subs, sub)
}

// Unsubscribe removes sub.
func (p *Portfolio) Unsubscribe(sub Subscriber) {
	p.subMu.Lock()
	defer p.subMu.Unlock()
	for i, s := range p.subs {
		if s == sub {
			p.subs = append(p.subs[:i], p.subs[i+1:]...)
			return
		}
	}
}

// Submit routes order into the book and records the outcome. An order
// that rests becomes an open position. A partially filled limit order
// stays open with its remainder; the remainder of a market order is
// discarded.
func (p *Portfolio) Submit(order *marketv1.Event) *marketv1.Event {
	fill := p.book.SubmitOrder(order)

	if fill == nil {
		p.mu.Lock()
		p.addOpenLocked(order)
		p.mu.Unlock()
		p.notify(ClientEvent{Type: EventNew, Event: order})
		return nil
	}

	p.mu.Lock()
	p.fills = append(p.fills, fill)
	if fill.Kind == marketv1.KindPartialFill && order.OrderType == marketv1.OrderTypeLimit {
		p.addOpenLocked(order)
	}
	p.mu.Unlock()

	p.notify(clientEventFor(fill))
	return fill
}

// Cancel removes the open order named by clientOrderID, deletes it from
// the book, and reports the cancel. It returns false when no such open
// order exists.
func (p *Portfolio) Cancel(clientOrderID string, side marketv1.Side) (*marketv1.Event, bool) {
	p.mu.Lock()
	ev := p.removeOpenLocked(clientOrderID, side)
	p.mu.Unlock()

	if ev == nil {
		return nil, false
	}

	p.book.Delete(ev)
	p.notify(ClientEvent{Type: EventCanceled, Event: ev})
	return ev, true
}

// OnBookEvent re-checks open positions whenever a historical order
// lands in the book. A replayed bid may execute open offers, a
// replayed offer open bids.
func (p *Portfolio) OnBookEvent(ev *marketv1.Event) {
	if !ev.IsOrder() || ev.Action == marketv1.ActionDelete {
		return
	}
	// client orders share this portfolio's counterparty id and can
	// never execute against each other
	if ev.ClientID == p.clientID {
		return
	}

	switch ev.Kind {
	case marketv1.KindBid:
		p.checkOpen(ev, marketv1.SideSell)
	case marketv1.KindOffer:
		p.checkOpen(ev, marketv1.SideBuy)
	}
}

// checkOpen matches every open client order on side against the
// replayed order. The book runs each match and its application as one
// atomic step, and reports a no-op once the replayed order is spent.
func (p *Portfolio) checkOpen(replayed *marketv1.Event, side marketv1.Side) {
	p.mu.Lock()
	open := make([]*marketv1.Event, len(*p.openLocked(side)))
	copy(open, *p.openLocked(side))
	p.mu.Unlock()

	for _, order := range open {
		fill := p.book.MatchAndApply(order, replayed)
		if fill == nil {
			continue
		}

		p.mu.Lock()
		p.fills = append(p.fills, fill)
		if fill.Kind == marketv1.KindFill {
			p.removeOpenLocked(order.ClientOrderID, order.Side)
		}
		p.mu.Unlock()

		p.notify(clientEventFor(fill))
	}
}

// Fills returns the executions recorded so far.
func (p *Portfolio) Fills() []*marketv1.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*marketv1.Event, len(p.fills))
	copy(out, p.fills)
	return out
}

// OpenOrders returns the open bid and offer counts.
func (p *Portfolio) OpenOrders() (bids, offers int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.openBids), len(p.openOffers)
}

// Open returns the open order with the given id, nil when absent.
func (p *Portfolio) Open(clientOrderID string, side marketv1.Side) *marketv1.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ev := range *p.openLocked(side) {
		if ev.ClientOrderID == clientOrderID {
			return ev
		}
	}
	return nil
}

func (p *Portfolio) addOpenLocked(order *marketv1.Event) {
	list := p.openLocked(order.Side)
	*list = append(*list, order)
}

func (p *Portfolio) removeOpenLocked(clientOrderID string, side marketv1.Side) *marketv1.Event {
	list := p.openLocked(side)
	for i, ev := range *list {
		if ev.ClientOrderID == clientOrderID {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return ev
		}
	}
	return nil
}

func (p *Portfolio) openLocked(side marketv1.Side) *[]*marketv1.Event {
	if side == marketv1.SideBuy {
		return &p.openBids
	}
	return &p.openOffers
}

func (p *Portfolio) notify(ev ClientEvent) {
	p.subMu.Lock()
	subs := make([]Subscriber, len(p.subs))
	copy(subs, p.subs)
	p.subMu.Unlock()

	for _, sub := range subs {
		sub.OnClientEvent(ev)
	}
}

func clientEventFor(fill *marketv1.Event) ClientEvent {
	if fill.Kind == marketv1.KindFill {
		return ClientEvent{Type: EventFilled, Event: fill}
	}
	return ClientEvent{Type: EventPartialFilled, Event: fill}
}
