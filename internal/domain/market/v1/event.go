package v1

import (
	"math"
	"time"
)

// Side is the side of an order.
type Side string

const (
	// SideBuy marks a buy order.
	SideBuy Side = "buy"
	// SideSell marks a sell order.
	SideSell Side = "sell"
)

// OrderType is the pricing type of an order.
type OrderType string

const (
	// OrderTypeLimit is an order with an explicit price.
	OrderTypeLimit OrderType = "limit"
	// OrderTypeMarket is an order that crosses at any price.
	OrderTypeMarket OrderType = "market"
)

// Action describes what happened to an order.
type Action int

const (
	// ActionAdd is a new order entering the market.
	ActionAdd Action = iota
	// ActionChange is a modification of a resting order.
	ActionChange
	// ActionDelete is the removal of a resting order.
	ActionDelete
)

// Kind discriminates the event union.
type Kind string

const (
	// KindBid is a resting or incoming buy order.
	KindBid Kind = "bid"
	// KindOffer is a resting or incoming sell order.
	KindOffer Kind = "offer"
	// KindFill is a complete execution of an order.
	KindFill Kind = "fill"
	// KindPartialFill is a partial execution of an order.
	KindPartialFill Kind = "partial_fill"
)

// Event is the single record flowing through the exchange. Bids, offers
// and executions all share this shape, discriminated by Kind. Execution
// fields stay zero for plain orders.
type Event struct {
	Kind          Kind      `json:"kind"`
	ClientOrderID string    `json:"client_order_id"`
	ClientID      string    `json:"client_id"`
	Side          Side      `json:"side"`
	OrderType     OrderType `json:"order_type"`
	Symbol        string    `json:"symbol"`
	Account       string    `json:"account,omitempty"`
	Action        Action    `json:"action"`

	OrderQty     int64   `json:"order_qty"`
	RemainingQty int64   `json:"remaining_qty"`
	OrderPrice   float64 `json:"order_price"`

	// Execution state, cumulative across the life of the order.
	CumQty    int64   `json:"cum_qty"`
	ExecQty   int64   `json:"exec_qty"`
	AvgPrice  float64 `json:"avg_price"`
	ExecPrice float64 `json:"exec_price"`

	TransactTime time.Time `json:"transact_time"`
}

// NewBid returns a buy order event with the full quantity still open.
func NewBid(clientOrderID, clientID, symbol string, orderType OrderType, price float64, qty int64, transactTime time.Time) *Event {
	return &Event{
		Kind:          KindBid,
		ClientOrderID: clientOrderID,
		ClientID:      clientID,
		Side:          SideBuy,
		OrderType:     orderType,
		Symbol:        symbol,
		Action:        ActionAdd,
		OrderQty:      qty,
		RemainingQty:  qty,
		OrderPrice:    price,
		TransactTime:  transactTime,
	}
}

// NewOffer returns a sell order event with the full quantity still open.
func NewOffer(clientOrderID, clientID, symbol string, orderType OrderType, price float64, qty int64, transactTime time.Time) *Event {
	return &Event{
		Kind:          KindOffer,
		ClientOrderID: clientOrderID,
		ClientID:      clientID,
		Side:          SideSell,
		OrderType:     orderType,
		Symbol:        symbol,
		Action:        ActionAdd,
		OrderQty:      qty,
		RemainingQty:  qty,
		OrderPrice:    price,
		TransactTime:  transactTime,
	}
}

// CrossingPrice is the price an order is willing to trade at. Market
// orders cross at any price, expressed as an infinity on their side.
func (e *Event) CrossingPrice() float64 {
	if e.OrderType == OrderTypeMarket {
		if e.Side == SideBuy {
			return math.Inf(1)
		}
		return math.Inf(-1)
	}
	return e.OrderPrice
}

// IsTrade reports whether the event records an execution.
func (e *Event) IsTrade() bool {
	return e.Kind == KindFill || e.Kind == KindPartialFill
}

// IsOrder reports whether the event is a plain bid or offer.
func (e *Event) IsOrder() bool {
	return e.Kind == KindBid || e.Kind == KindOffer
}

// Clone returns a shallow copy of the event.
func (e *Event) Clone() *Event {
	c := *e
	return &c
}
