package v1

import (
	"context"
	"time"
)

//go:generate mockgen -source=snapshot.go -destination=mock/snapshot_mock.go -package=snapshot_mock

// BookOrder is one resting order captured by a snapshot.
type BookOrder struct {
	ClientOrderID string  `json:"client_order_id"`
	ClientID      string  `json:"client_id"`
	Price         float64 `json:"price"`
	OrderQty      int64   `json:"order_qty"`
	RemainingQty  int64   `json:"remaining_qty"`
	CumQty        int64   `json:"cum_qty"`
}

// Snapshot is a point-in-time copy of the order book.
type Snapshot struct {
	Symbol     string      `json:"symbol"`
	TakenAt    time.Time   `json:"taken_at"`
	Bids       []BookOrder `json:"bids"`
	Offers     []BookOrder `json:"offers"`
	TradeCount int         `json:"trade_count"`
}

// Store persists and retrieves order book snapshots.
type Store interface {
	Store(ctx context.Context, snap *Snapshot) error
	Load(ctx context.Context, symbol string) (*Snapshot, error)
}
