package marketevent

import (
	"time"

	marketv1 "github.com/marketsim/exchange/internal/domain/market/v1"
)

// Action codes used by the historical data set.
const (
	actionDelete       = "D"
	actionExpire       = "E"
	actionPartialMatch = "P"
	actionFullMatch    = "M"
	actionTransparent  = "T"
	sideBuy            = "B"
)

// Row is one record of the historical market event table.
type Row struct {
	ClientOrderID string
	ActionType    string
	Side          string
	Price         float64
	OrderQty      int64
	EventTime     time.Time
}

// skip reports whether the row carries nothing replayable.
func (r Row) skip() bool {
	return r.ActionType == actionTransparent
}

// ToEvent maps the row onto a market event for the given symbol,
// stamped with the historical counterparty id.
func (r Row) ToEvent(symbol, counterpartyID string) *marketv1.Event {
	side := marketv1.SideSell
	if r.Side == sideBuy {
		side = marketv1.SideBuy
	}

	var ev *marketv1.Event
	if side == marketv1.SideBuy {
		ev = marketv1.NewBid(r.ClientOrderID, counterpartyID, symbol, marketv1.OrderTypeLimit, r.Price, r.OrderQty, r.EventTime)
	} else {
		ev = marketv1.NewOffer(r.ClientOrderID, counterpartyID, symbol, marketv1.OrderTypeLimit, r.Price, r.OrderQty, r.EventTime)
	}

	switch r.ActionType {
	case actionDelete, actionExpire:
		ev.Action = marketv1.ActionDelete
	case actionPartialMatch:
		ev.Kind = marketv1.KindPartialFill
		ev.RemainingQty = 0
		ev.ExecQty = r.OrderQty
		ev.CumQty = r.OrderQty
		ev.ExecPrice = r.Price
		ev.AvgPrice = r.Price
	case actionFullMatch:
		ev.Kind = marketv1.KindFill
		ev.RemainingQty = 0
		ev.ExecQty = r.OrderQty
		ev.CumQty = r.OrderQty
		ev.ExecPrice = r.Price
		ev.AvgPrice = r.Price
	}

	return ev
}
