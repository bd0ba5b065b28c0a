// Package wire defines the JSON messages exchanged with gateway
// clients. The vocabulary follows FIX market data and order entry
// semantics rendered as JSON over a websocket.
package wire

import (
	"encoding/json"
	"time"

	"github.com/marketsim/exchange/pkg/errors"
)

// Message type tags.
const (
	TypeMarketDataRequest  = "market_data_request"
	TypeIncrementalRefresh = "market_data_incremental_refresh"
	TypeNewOrderSingle     = "new_order_single"
	TypeOrderCancelRequest = "order_cancel_request"
	TypeExecutionReport    = "execution_report"
)

// Subscription request types.
const (
	SubscriptionSnapshotUpdates = "1"
	SubscriptionDisablePrevious = "2"
)

// Entry types for market data entries.
const (
	EntryTypeBid   = "0"
	EntryTypeOffer = "1"
	EntryTypeTrade = "2"
)

// Order statuses for execution reports.
const (
	OrdStatusNew             = "0"
	OrdStatusPartiallyFilled = "1"
	OrdStatusFilled          = "2"
	OrdStatusCanceled        = "4"
	OrdStatusRejected        = "8"
)

// Order reject reasons.
const (
	RejectReasonUnknownSymbol = "unknown_symbol"
	RejectReasonUnknownOrder  = "unknown_order"
)

// Sides and order types on the wire.
const (
	SideBuy  = "buy"
	SideSell = "sell"

	OrdTypeLimit  = "limit"
	OrdTypeMarket = "market"

	TimeInForceGTC = "GTC"
)

// Envelope carries just the type tag, used to dispatch inbound
// messages before full decoding.
type Envelope struct {
	Type string `json:"type"`
}

// PeekType returns the type tag of a raw inbound message.
func PeekType(raw []byte) (string, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", errors.NewTracer(string(errors.GatewayDecodeError)).Wrap(err)
	}
	return env.Type, nil
}

// Decode unmarshals a raw inbound message into v.
func Decode(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.NewTracer(string(errors.GatewayDecodeError)).Wrap(err)
	}
	return nil
}

// MarketDataRequest subscribes to or unsubscribes from the market data
// stream.
type MarketDataRequest struct {
	Type                    string   `json:"type"`
	MDReqID                 string   `json:"mdReqID"`
	SubscriptionRequestType string   `json:"subscriptionRequestType"`
	RelatedSymbols          []string `json:"relatedSymbols"`
}

// MDEntry is one incremental book change.
type MDEntry struct {
	UpdateAction int       `json:"updateAction"`
	EntryType    string    `json:"entryType"`
	Symbol       string    `json:"symbol"`
	Price        float64   `json:"price"`
	Size         int64     `json:"size"`
	EntryRefID   string    `json:"entryRefID,omitempty"`
	EntryTime    time.Time `json:"entryTime"`
}

// IncrementalRefresh streams book changes to a subscribed client.
type IncrementalRefresh struct {
	Type    string    `json:"type"`
	MDReqID string    `json:"mdReqID"`
	Entries []MDEntry `json:"entries"`
}

// Validate checks the refresh is well formed before it leaves the
// gateway.
func (m *IncrementalRefresh) Validate() error {
	if m.MDReqID == "" {
		return errors.NewErrorDetails("incremental refresh without mdReqID", string(errors.GatewayValidationError), "mdReqID")
	}
	if len(m.Entries) == 0 {
		return errors.NewErrorDetails("incremental refresh without entries", string(errors.GatewayValidationError), "entries")
	}
	for _, e := range m.Entries {
		if e.Symbol == "" {
			return errors.NewErrorDetails("market data entry without symbol", string(errors.GatewayValidationError), "symbol")
		}
	}
	return nil
}

// NewOrderSingle enters an order.
type NewOrderSingle struct {
	Type        string  `json:"type"`
	ClOrdID     string  `json:"clOrdID"`
	Symbol      string  `json:"symbol"`
	Side        string  `json:"side"`
	OrdType     string  `json:"ordType"`
	Price       float64 `json:"price"`
	OrderQty    int64   `json:"orderQty"`
	TimeInForce string  `json:"timeInForce"`
	Account     string  `json:"account,omitempty"`
}

// OrderCancelRequest cancels a previously entered order.
type OrderCancelRequest struct {
	Type        string `json:"type"`
	ClOrdID     string `json:"clOrdID"`
	OrigClOrdID string `json:"origClOrdID"`
	Symbol      string `json:"symbol"`
	Side        string `json:"side"`
}

// ExecutionReport reports the state of a client order.
type ExecutionReport struct {
	Type         string    `json:"type"`
	OrderID      string    `json:"orderID"`
	ExecID       string    `json:"execID"`
	ClOrdID      string    `json:"clOrdID"`
	OrigClOrdID  string    `json:"origClOrdID,omitempty"`
	ExecType     string    `json:"execType"`
	OrdStatus    string    `json:"ordStatus"`
	OrdRejReason string    `json:"ordRejReason,omitempty"`
	Symbol       string    `json:"symbol"`
	Side         string    `json:"side"`
	Price        float64   `json:"price"`
	OrderQty     int64     `json:"orderQty"`
	LastQty      int64     `json:"lastQty,omitempty"`
	LastPx       float64   `json:"lastPx,omitempty"`
	LeavesQty    int64     `json:"leavesQty"`
	CumQty       int64     `json:"cumQty"`
	AvgPx        float64   `json:"avgPx"`
	Account      string    `json:"account,omitempty"`
	TransactTime time.Time `json:"transactTime"`
}

// Validate checks the report is well formed before it leaves the
// gateway.
func (m *ExecutionReport) Validate() error {
	if m.ClOrdID == "" {
		return errors.NewErrorDetails("execution report without clOrdID", string(errors.GatewayValidationError), "clOrdID")
	}
	if m.Symbol == "" {
		return errors.NewErrorDetails("execution report without symbol", string(errors.GatewayValidationError), "symbol")
	}
	if m.OrdStatus == "" {
		return errors.NewErrorDetails("execution report without ordStatus", string(errors.GatewayValidationError), "ordStatus")
	}
	return nil
}
