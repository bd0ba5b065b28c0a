package v1

import (
	"context"
	"time"

	marketv1 "github.com/marketsim/exchange/internal/domain/market/v1"
)

//go:generate mockgen -source=interface.go -destination=mock/interface_mock.go -package=tradelog_mock

// Trade is the payload published to the trade log for every execution.
type Trade struct {
	Symbol        string    `json:"symbol"`
	ClientOrderID string    `json:"client_order_id"`
	ClientID      string    `json:"client_id"`
	Side          string    `json:"side"`
	ExecQty       int64     `json:"exec_qty"`
	ExecPrice     float64   `json:"exec_price"`
	CumQty        int64     `json:"cum_qty"`
	AvgPrice      float64   `json:"avg_price"`
	Partial       bool      `json:"partial"`
	TransactTime  time.Time `json:"transact_time"`
}

// TradeFromEvent maps an execution event to its trade log payload.
func TradeFromEvent(ev *marketv1.Event) Trade {
	return Trade{
		Symbol:        ev.Symbol,
		ClientOrderID: ev.ClientOrderID,
		ClientID:      ev.ClientID,
		Side:          string(ev.Side),
		ExecQty:       ev.ExecQty,
		ExecPrice:     ev.ExecPrice,
		CumQty:        ev.CumQty,
		AvgPrice:      ev.AvgPrice,
		Partial:       ev.Kind == marketv1.KindPartialFill,
		TransactTime:  ev.TransactTime,
	}
}

// Publisher writes trades to the trade log.
type Publisher interface {
	Publish(ctx context.Context, trade Trade) error
	Close() error
}
