package wire

import (
	"math"
	"time"

	"github.com/google/uuid"
	marketv1 "github.com/marketsim/exchange/internal/domain/market/v1"
	"github.com/marketsim/exchange/internal/usecase/portfolio"
)

// NewIncrementalRefresh renders a book event as a market data update.
// Executions carry the executed price and quantity, resting orders the
// order price and quantity.
func NewIncrementalRefresh(mdReqID string, ev *marketv1.Event, entryTime time.Time) *IncrementalRefresh {
	entry := MDEntry{
		UpdateAction: int(ev.Action),
		Symbol:       ev.Symbol,
		EntryRefID:   ev.ClientOrderID,
		EntryTime:    entryTime,
	}

	switch ev.Kind {
	case marketv1.KindBid:
		entry.EntryType = EntryTypeBid
		entry.Price = ev.OrderPrice
		entry.Size = ev.OrderQty
	case marketv1.KindOffer:
		entry.EntryType = EntryTypeOffer
		entry.Price = ev.OrderPrice
		entry.Size = ev.OrderQty
	default:
		entry.EntryType = EntryTypeTrade
		entry.Price = ev.ExecPrice
		entry.Size = ev.ExecQty
	}

	return &IncrementalRefresh{
		Type:    TypeIncrementalRefresh,
		MDReqID: mdReqID,
		Entries: []MDEntry{entry},
	}
}

// NewExecutionReport renders a portfolio event as an execution report.
// Market orders rest at an infinite crossing price internally; on the
// wire that renders as price zero.
func NewExecutionReport(ce portfolio.ClientEvent, transactTime time.Time) *ExecutionReport {
	ev := ce.Event

	price := ev.OrderPrice
	if math.IsInf(price, 0) {
		price = 0
	}

	side := SideSell
	if ev.Side == marketv1.SideBuy {
		side = SideBuy
	}

	report := &ExecutionReport{
		Type:         TypeExecutionReport,
		OrderID:      uuid.NewString(),
		ExecID:       uuid.NewString(),
		ClOrdID:      ev.ClientOrderID,
		ExecType:     ordStatus(ce.Type),
		OrdStatus:    ordStatus(ce.Type),
		Symbol:       ev.Symbol,
		Side:         side,
		Price:        price,
		OrderQty:     ev.OrderQty,
		LeavesQty:    ev.RemainingQty,
		CumQty:       ev.CumQty,
		AvgPx:        ev.AvgPrice,
		TransactTime: transactTime,
	}
	if ev.Account != "" {
		report.Account = ev.Account
	}
	if ev.IsTrade() {
		report.LastQty = ev.ExecQty
		report.LastPx = ev.ExecPrice
	}
	if ce.Type == portfolio.EventCanceled {
		report.OrigClOrdID = ev.ClientOrderID
	}
	return report
}

// NewRejectReport builds an execution report rejecting an inbound
// order without entering it into the book.
func NewRejectReport(order *NewOrderSingle, reason string, transactTime time.Time) *ExecutionReport {
	return &ExecutionReport{
		Type:         TypeExecutionReport,
		OrderID:      uuid.NewString(),
		ExecID:       uuid.NewString(),
		ClOrdID:      order.ClOrdID,
		ExecType:     OrdStatusRejected,
		OrdStatus:    OrdStatusRejected,
		OrdRejReason: reason,
		Symbol:       order.Symbol,
		Side:         order.Side,
		Price:        order.Price,
		OrderQty:     order.OrderQty,
		LeavesQty:    order.OrderQty,
		TransactTime: transactTime,
	}
}

func ordStatus(t portfolio.EventType) string {
	switch t {
	case portfolio.EventNew:
		return OrdStatusNew
	case portfolio.EventPartialFilled:
		return OrdStatusPartiallyFilled
	case portfolio.EventFilled:
		return OrdStatusFilled
	case portfolio.EventCanceled:
		return OrdStatusCanceled
	default:
		return OrdStatusNew
	}
}
