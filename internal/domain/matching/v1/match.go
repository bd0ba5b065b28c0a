// Package v1 implements price-time priority matching against one side
// of an order book. Matching is pure: it reports what would execute and
// which resting orders supplied the quantity, without mutating the book.
package v1

import (
	marketv1 "github.com/marketsim/exchange/internal/domain/market/v1"
)

// Consumption records quantity taken from a resting order.
type Consumption struct {
	Event *marketv1.Event
	Qty   int64
}

// MatchBid walks the offer list from the best price and executes bid
// against every crossing offer from a different counterparty. Bids
// execute at the resting offer's price. The scan halts at the first
// offer that either does not cross or belongs to the same counterparty.
//
// The returned fill is nil when nothing crossed. Consumed lists the
// resting offers that supplied quantity, best price first.
func MatchBid(bid *marketv1.Event, offers *marketv1.List) (*marketv1.Event, []Consumption) {
	crossing := bid.CrossingPrice()
	remaining := bid.RemainingQty

	var (
		cumPrice float64
		cumQty   int64
		consumed []Consumption
	)

	for _, offer := range offers.Events() {
		if !(offer.OrderPrice <= crossing && offer.ClientID != bid.ClientID) {
			break
		}

		if offer.RemainingQty >= remaining {
			cumPrice += offer.OrderPrice * float64(remaining)
			cumQty += remaining
			consumed = append(consumed, Consumption{Event: offer, Qty: remaining})
			return newFill(bid, crossing, cumPrice, cumQty), consumed
		}

		cumPrice += offer.OrderPrice * float64(offer.RemainingQty)
		cumQty += offer.RemainingQty
		remaining -= offer.RemainingQty
		consumed = append(consumed, Consumption{Event: offer, Qty: offer.RemainingQty})
	}

	if cumPrice > 0 && cumQty > 0 {
		return newPartialFill(bid, crossing, cumPrice, cumQty, remaining), consumed
	}

	return nil, nil
}

// MatchOffer walks the bid list from the best price and executes offer
// against every crossing bid from a different counterparty. A limit
// offer executes at its own price; a market offer executes at each
// resting bid's price. The scan halts at the first bid that either
// does not cross or belongs to the same counterparty.
func MatchOffer(offer *marketv1.Event, bids *marketv1.List) (*marketv1.Event, []Consumption) {
	isMarket := offer.OrderType == marketv1.OrderTypeMarket
	crossing := offer.CrossingPrice()
	remaining := offer.RemainingQty

	var (
		cumPrice float64
		cumQty   int64
		consumed []Consumption
	)

	for _, bid := range bids.Events() {
		if !(bid.OrderPrice >= crossing && bid.ClientID != offer.ClientID) {
			break
		}

		execPrice := crossing
		if isMarket {
			execPrice = bid.OrderPrice
		}

		if bid.RemainingQty >= remaining {
			cumPrice += execPrice * float64(remaining)
			cumQty += remaining
			consumed = append(consumed, Consumption{Event: bid, Qty: remaining})
			return newFill(offer, crossing, cumPrice, cumQty), consumed
		}

		cumPrice += execPrice * float64(bid.RemainingQty)
		cumQty += bid.RemainingQty
		remaining -= bid.RemainingQty
		consumed = append(consumed, Consumption{Event: bid, Qty: bid.RemainingQty})
	}

	if cumPrice > 0 && cumQty > 0 {
		return newPartialFill(offer, crossing, cumPrice, cumQty, remaining), consumed
	}

	return nil, nil
}

// Match dispatches on the order's side.
func Match(order *marketv1.Event, opposite *marketv1.List) (*marketv1.Event, []Consumption) {
	if order.Side == marketv1.SideBuy {
		return MatchBid(order, opposite)
	}
	return MatchOffer(order, opposite)
}

// newFill builds a complete execution of order. The order's prior
// executions fold into the running average price.
func newFill(order *marketv1.Event, crossingPrice, cumPrice float64, cumQty int64) *marketv1.Event {
	fill := order.Clone()
	fill.Kind = marketv1.KindFill
	fill.OrderPrice = crossingPrice
	fill.RemainingQty = 0
	fill.ExecQty = cumQty
	fill.ExecPrice = cumPrice / float64(cumQty)
	fill.AvgPrice = avgPrice(order, cumPrice, cumQty)
	fill.CumQty = order.CumQty + cumQty
	return fill
}

// newPartialFill builds a partial execution of order with remaining
// quantity still open.
func newPartialFill(order *marketv1.Event, crossingPrice, cumPrice float64, cumQty, remaining int64) *marketv1.Event {
	fill := newFill(order, crossingPrice, cumPrice, cumQty)
	fill.Kind = marketv1.KindPartialFill
	fill.RemainingQty = remaining
	return fill
}

func avgPrice(order *marketv1.Event, cumPrice float64, cumQty int64) float64 {
	return (order.AvgPrice*float64(order.CumQty) + cumPrice) / float64(cumQty+order.CumQty)
}
